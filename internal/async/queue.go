package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job is one reprocessing request for a stored proof.
type Job struct {
	ProofID     uuid.UUID
	Path        string // durable copy of the uploaded document
	SubmittedAt time.Time
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// Reprocessor re-runs extraction for a stored proof file.
type Reprocessor interface {
	Reprocess(ctx context.Context, proofID uuid.UUID, path string) error
}

// ReprocessQueue fans reprocessing jobs out to a fixed worker pool so slow
// OCR passes never block the request path.
type ReprocessQueue struct {
	proc    Reprocessor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*ReprocessQueue)

func WithWorkers(n int) Option {
	return func(q *ReprocessQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ReprocessQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ReprocessQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewReprocessQueue(proc Reprocessor, logger *slog.Logger, opts ...Option) *ReprocessQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ReprocessQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ReprocessQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					err := q.proc.Reprocess(ctx, job.ProofID, job.Path)
					cancel()

					if err != nil {
						q.logger.Error("reprocessing failed", "worker_id", workerID, "proof_id", job.ProofID, "error", err)
					} else {
						q.logger.Info("reprocessed proof", "worker_id", workerID, "proof_id", job.ProofID)
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ReprocessQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "proof_id", job.ProofID)
		return nil
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued proof for reprocessing", "proof_id", job.ProofID)
	default:
		q.logger.Warn("queue full, applying backpressure", "proof_id", job.ProofID)
		q.ch <- job
	}
	return nil
}

func (q *ReprocessQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
