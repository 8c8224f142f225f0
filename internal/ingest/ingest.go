package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"proofledger/constants"
	"proofledger/internal/common"
	"proofledger/internal/entity"
	"proofledger/internal/pipeline"
	"proofledger/internal/repository"
)

// HashContent returns the sha256 hex digest of the raw uploaded bytes. This
// is the identity used for per-client duplicate detection.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ProofExtractor runs the extraction pipeline over a file on disk.
type ProofExtractor interface {
	ExtractProof(ctx context.Context, path string) pipeline.ExtractionResult
}

// UploadRequest is one proof document handed in by a client upload.
type UploadRequest struct {
	ClientID    uuid.UUID
	Filename    string
	ContentType string
	Data        []byte
}

// UploadResult reports the outcome. On a duplicate nothing is stored and
// Proof is nil.
type UploadResult struct {
	Proof     *entity.Proof
	Duplicate bool
}

// Service owns the upload intake path: duplicate detection, temp file
// handling, extraction and persistence.
type Service struct {
	proofs    repository.ProofRepository
	extractor ProofExtractor
	uploadDir string
	logger    *slog.Logger
}

// NewService builds the intake service. uploadDir, when non-empty, is where a
// durable copy of each accepted upload is kept so proofs can be reprocessed
// later; an empty uploadDir disables retention.
func NewService(proofs repository.ProofRepository, extractor ProofExtractor, uploadDir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{proofs: proofs, extractor: extractor, uploadDir: uploadDir, logger: logger}
}

// UploadProof ingests one uploaded document for a client. The duplicate
// check runs before extraction so a duplicate never wastes OCR work, and the
// temporary artifact is removed on every path.
func (s *Service) UploadProof(ctx context.Context, req UploadRequest) (UploadResult, error) {
	ext := filepath.Ext(req.Filename)
	if !constants.IsAllowedExt(ext) {
		return UploadResult{}, fmt.Errorf("%w: unsupported file type %q", common.ErrInvalidInput, constants.NormalizeExt(ext))
	}
	if len(req.Data) == 0 {
		return UploadResult{}, fmt.Errorf("%w: empty upload", common.ErrInvalidInput)
	}

	hash := HashContent(req.Data)
	dup, err := s.proofs.ExistsByClientAndHash(ctx, req.ClientID, hash)
	if err != nil {
		return UploadResult{}, fmt.Errorf("duplicate check: %w", err)
	}
	if dup {
		s.logger.Warn("duplicate proof rejected", "client_id", req.ClientID, "filename", req.Filename, "hash", hash)
		return UploadResult{Duplicate: true}, nil
	}

	tmpPath, err := writeTemp(req.Data, ext)
	if err != nil {
		return UploadResult{}, fmt.Errorf("stage upload: %w", err)
	}
	defer func() {
		if err := os.Remove(tmpPath); err != nil {
			s.logger.Warn("failed to remove upload artifact", "path", tmpPath, "error", err)
		}
	}()

	res := s.extractor.ExtractProof(ctx, tmpPath)

	status := constants.ProofStatusFailed
	if res.Success {
		status = constants.ProofStatusExtracted
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	// retain a durable copy keyed by content hash so reprocessing has a
	// file to run against; retention failure is not fatal to the upload
	storagePath := ""
	if s.uploadDir != "" {
		storagePath = filepath.Join(s.uploadDir, hash+"."+constants.NormalizeExt(ext))
		if err := os.WriteFile(storagePath, req.Data, 0o644); err != nil {
			s.logger.Warn("failed to retain upload copy", "path", storagePath, "error", err)
			storagePath = ""
		}
	}

	proof := &entity.Proof{
		ClientID:    req.ClientID,
		Filename:    req.Filename,
		ContentType: contentType,
		FileSize:    len(req.Data),
		ContentHash: hash,
		StoragePath: storagePath,
		Value:       res.Value,
		Date:        res.Date,
		Beneficiary: res.Beneficiary,
		EndToEnd:    res.EndToEnd,
		RawText:     res.RawText,
		Confidence:  res.Confidence,
		Status:      status,
	}
	created, err := s.proofs.Create(ctx, proof)
	if err != nil {
		// a concurrent identical upload can slip past the pre-check; the
		// storage-layer unique index turns it into the same duplicate outcome
		if errors.Is(err, common.ErrDuplicate) {
			s.logger.Warn("duplicate proof rejected on persist", "client_id", req.ClientID, "filename", req.Filename, "hash", hash)
			return UploadResult{Duplicate: true}, nil
		}
		return UploadResult{}, fmt.Errorf("persist proof: %w", err)
	}

	s.logger.Info("proof uploaded",
		"client_id", req.ClientID,
		"proof_id", created.ID,
		"filename", req.Filename,
		"status", status,
		"confidence", res.Confidence,
	)
	return UploadResult{Proof: created}, nil
}

// Reprocess re-runs extraction for a stored proof file, used by the worker
// queue when an operator requests another pass over a FAILED proof.
func (s *Service) Reprocess(ctx context.Context, proofID uuid.UUID, path string) error {
	res := s.extractor.ExtractProof(ctx, path)

	status := constants.ProofStatusFailed
	if res.Success {
		status = constants.ProofStatusExtracted
	}
	return s.proofs.UpdateExtraction(ctx, proofID, repository.ExtractionUpdate{
		Value:       res.Value,
		Date:        res.Date,
		Beneficiary: res.Beneficiary,
		EndToEnd:    res.EndToEnd,
		RawText:     res.RawText,
		Confidence:  res.Confidence,
		Status:      status,
	})
}

func writeTemp(data []byte, ext string) (string, error) {
	f, err := os.CreateTemp("", "proof-upload-*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
