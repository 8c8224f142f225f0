package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"proofledger/constants"
	"proofledger/internal/common"
	"proofledger/internal/entity"
)

// ExtractionUpdate carries re-extraction results back onto a stored proof.
type ExtractionUpdate struct {
	Value       *float64
	Date        *string
	Beneficiary *string
	EndToEnd    *string
	RawText     string
	Confidence  float32
	Status      constants.ProofStatus
}

type ProofRepository interface {
	Create(ctx context.Context, p *entity.Proof) (*entity.Proof, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Proof, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*entity.Proof, error)
	// ExistsByClientAndHash is the duplicate check: dedup is scoped per
	// client, two clients may legitimately hold byte-identical documents.
	ExistsByClientAndHash(ctx context.Context, clientID uuid.UUID, hash string) (bool, error)
	UpdateExtraction(ctx context.Context, id uuid.UUID, upd ExtractionUpdate) error
	SetManualValue(ctx context.Context, id uuid.UUID, value float64) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type proofRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewProofRepository(pool *pgxpool.Pool, logger *slog.Logger) ProofRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &proofRepo{pool: pool, logger: logger}
}

const proofColumns = `id, client_id, filename, content_type, file_size, content_hash, storage_path,
	value, tx_date, beneficiary, endtoend, raw_text, confidence, status,
	is_duplicate, deposited, uploaded_at`

func scanProof(row pgx.Row) (*entity.Proof, error) {
	var p entity.Proof
	err := row.Scan(&p.ID, &p.ClientID, &p.Filename, &p.ContentType, &p.FileSize, &p.ContentHash, &p.StoragePath,
		&p.Value, &p.Date, &p.Beneficiary, &p.EndToEnd, &p.RawText, &p.Confidence, &p.Status,
		&p.IsDuplicate, &p.Deposited, &p.UploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *proofRepo) Create(ctx context.Context, p *entity.Proof) (*entity.Proof, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO proof (id, client_id, filename, content_type, file_size, content_hash, storage_path,
			value, tx_date, beneficiary, endtoend, raw_text, confidence, status,
			is_duplicate, deposited)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING `+proofColumns,
		uuid.New(), p.ClientID, p.Filename, p.ContentType, p.FileSize, p.ContentHash, p.StoragePath,
		p.Value, p.Date, p.Beneficiary, p.EndToEnd, p.RawText, p.Confidence, p.Status,
		p.IsDuplicate, p.Deposited)
	created, err := scanProof(row)
	if err != nil {
		// the unique index on (client_id, content_hash) backs the duplicate
		// guard when two identical uploads race past the pre-check
		if isUniqueViolation(err) {
			r.logger.Warn("concurrent duplicate proof rejected by index", "client_id", p.ClientID, "hash", p.ContentHash)
			return nil, fmt.Errorf("%w: proof with identical content already stored", common.ErrDuplicate)
		}
		r.logger.Error("failed to create proof", "client_id", p.ClientID, "filename", p.Filename, "error", err)
		return nil, err
	}
	return created, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *proofRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Proof, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+proofColumns+` FROM proof WHERE id = $1`, id)
	return scanProof(row)
}

func (r *proofRepo) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*entity.Proof, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+proofColumns+` FROM proof WHERE client_id = $1 ORDER BY uploaded_at DESC`, clientID)
	if err != nil {
		r.logger.Error("failed to list proofs", "client_id", clientID, "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Proof
	for rows.Next() {
		p, err := scanProof(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *proofRepo) ExistsByClientAndHash(ctx context.Context, clientID uuid.UUID, hash string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM proof WHERE client_id = $1 AND content_hash = $2)`,
		clientID, hash).Scan(&exists)
	if err != nil {
		r.logger.Error("duplicate check failed", "client_id", clientID, "error", err)
		return false, err
	}
	return exists, nil
}

func (r *proofRepo) UpdateExtraction(ctx context.Context, id uuid.UUID, upd ExtractionUpdate) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE proof SET
			value = $2, tx_date = $3, beneficiary = $4, endtoend = $5,
			raw_text = $6, confidence = $7, status = $8
		WHERE id = $1`,
		id, upd.Value, upd.Date, upd.Beneficiary, upd.EndToEnd,
		upd.RawText, upd.Confidence, upd.Status)
	if err != nil {
		r.logger.Error("failed to update proof extraction", "proof_id", id, "error", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *proofRepo) SetManualValue(ctx context.Context, id uuid.UUID, value float64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE proof SET value = $2, status = $3 WHERE id = $1 AND NOT deposited`,
		id, value, constants.ProofStatusManualEntry)
	if err != nil {
		r.logger.Error("failed to set manual value", "proof_id", id, "error", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *proofRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM proof WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("failed to delete proof", "proof_id", id, "error", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}
