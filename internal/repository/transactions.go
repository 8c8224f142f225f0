package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"proofledger/constants"
	"proofledger/internal/common"
	"proofledger/internal/entity"
)

type TransactionRepository interface {
	// CreateDeposit posts a proof's extracted value as a deposit and flips
	// the proof's deposited flag in the same transaction. A proof can be
	// credited exactly once: a second call fails with ErrAlreadyCredited.
	CreateDeposit(ctx context.Context, proof *entity.Proof, description string) (*entity.Transaction, error)
	// RemoveDeposit deletes a deposit and clears the deposited flag on the
	// linked proof, allowing it to be re-credited after manual review.
	RemoveDeposit(ctx context.Context, txID uuid.UUID) error
	CreateWithdrawal(ctx context.Context, clientID uuid.UUID, amount float64, description string) (*entity.Transaction, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*entity.Transaction, error)
	GetBalance(ctx context.Context, clientID uuid.UUID) (*entity.Balance, error)
}

type transactionRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewTransactionRepository(pool *pgxpool.Pool, logger *slog.Logger) TransactionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &transactionRepo{pool: pool, logger: logger}
}

const txColumns = `id, client_id, proof_id, amount, type, status, description, created_at`

func scanTransaction(row pgx.Row) (*entity.Transaction, error) {
	var t entity.Transaction
	err := row.Scan(&t.ID, &t.ClientID, &t.ProofID, &t.Amount, &t.Type, &t.Status, &t.Description, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *transactionRepo) CreateDeposit(ctx context.Context, proof *entity.Proof, description string) (*entity.Transaction, error) {
	if proof.Value == nil || *proof.Value <= 0 {
		return nil, common.ErrInvalidInput
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// guard against double-crediting: the flag flip and the existence check
	// are one atomic statement
	tag, err := tx.Exec(ctx,
		`UPDATE proof SET deposited = TRUE WHERE id = $1 AND NOT deposited`, proof.ID)
	if err != nil {
		r.logger.Error("failed to mark proof deposited", "proof_id", proof.ID, "error", err)
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, common.ErrAlreadyCredited
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO transaction (id, client_id, proof_id, amount, type, status, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+txColumns,
		uuid.New(), proof.ClientID, proof.ID, *proof.Value,
		constants.TransactionDeposit, constants.TransactionCompleted, description)
	created, err := scanTransaction(row)
	if err != nil {
		r.logger.Error("failed to create deposit", "proof_id", proof.ID, "error", err)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Info("deposit created", "transaction_id", created.ID, "client_id", proof.ClientID, "amount", created.Amount)
	return created, nil
}

func (r *transactionRepo) RemoveDeposit(ctx context.Context, txID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var proofID *uuid.UUID
	err = tx.QueryRow(ctx,
		`DELETE FROM transaction WHERE id = $1 AND type = $2 RETURNING proof_id`,
		txID, constants.TransactionDeposit).Scan(&proofID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.ErrNotFound
		}
		r.logger.Error("failed to remove deposit", "transaction_id", txID, "error", err)
		return err
	}
	if proofID != nil {
		if _, err := tx.Exec(ctx, `UPDATE proof SET deposited = FALSE WHERE id = $1`, *proofID); err != nil {
			return fmt.Errorf("clear deposited flag: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (r *transactionRepo) CreateWithdrawal(ctx context.Context, clientID uuid.UUID, amount float64, description string) (*entity.Transaction, error) {
	if amount <= 0 {
		return nil, common.ErrInvalidInput
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO transaction (id, client_id, amount, type, status, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+txColumns,
		uuid.New(), clientID, amount,
		constants.TransactionWithdrawal, constants.TransactionCompleted, description)
	created, err := scanTransaction(row)
	if err != nil {
		r.logger.Error("failed to create withdrawal", "client_id", clientID, "error", err)
		return nil, err
	}
	return created, nil
}

func (r *transactionRepo) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*entity.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+txColumns+` FROM transaction WHERE client_id = $1 ORDER BY created_at DESC`, clientID)
	if err != nil {
		r.logger.Error("failed to list transactions", "client_id", clientID, "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *transactionRepo) GetBalance(ctx context.Context, clientID uuid.UUID) (*entity.Balance, error) {
	b := entity.Balance{ClientID: clientID}
	err := r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = $2), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = $3), 0)
		FROM transaction
		WHERE client_id = $1 AND status = $4`,
		clientID, constants.TransactionDeposit, constants.TransactionWithdrawal,
		constants.TransactionCompleted).
		Scan(&b.TotalDeposits, &b.TotalWithdrawals)
	if err != nil {
		r.logger.Error("failed to compute balance", "client_id", clientID, "error", err)
		return nil, err
	}
	b.Balance = b.TotalDeposits - b.TotalWithdrawals
	return &b, nil
}
