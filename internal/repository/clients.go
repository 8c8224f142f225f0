package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"proofledger/internal/common"
	"proofledger/internal/entity"
)

// ClientUpdate carries the mutable client fields; nil means "leave as is".
type ClientUpdate struct {
	Name    *string
	Email   *string
	Phone   *string
	Account *string
}

type ClientRepository interface {
	Create(ctx context.Context, c *entity.Client) (*entity.Client, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Client, error)
	List(ctx context.Context) ([]*entity.Client, error)
	Update(ctx context.Context, id uuid.UUID, upd ClientUpdate) (*entity.Client, error)
	UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type clientRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewClientRepository(pool *pgxpool.Pool, logger *slog.Logger) ClientRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &clientRepo{pool: pool, logger: logger}
}

const clientColumns = `id, name, email, phone, account, notes, created_at`

func scanClient(row pgx.Row) (*entity.Client, error) {
	var c entity.Client
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Account, &c.Notes, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *clientRepo) Create(ctx context.Context, c *entity.Client) (*entity.Client, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO client (id, name, email, phone, account, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+clientColumns,
		uuid.New(), c.Name, c.Email, c.Phone, c.Account, c.Notes)
	created, err := scanClient(row)
	if err != nil {
		r.logger.Error("failed to create client", "name", c.Name, "error", err)
		return nil, err
	}
	return created, nil
}

func (r *clientRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Client, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM client WHERE id = $1`, id)
	return scanClient(row)
}

func (r *clientRepo) List(ctx context.Context) ([]*entity.Client, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+clientColumns+` FROM client ORDER BY created_at`)
	if err != nil {
		r.logger.Error("failed to list clients", "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *clientRepo) Update(ctx context.Context, id uuid.UUID, upd ClientUpdate) (*entity.Client, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE client SET
			name    = COALESCE($2, name),
			email   = COALESCE($3, email),
			phone   = COALESCE($4, phone),
			account = COALESCE($5, account)
		WHERE id = $1
		RETURNING `+clientColumns,
		id, upd.Name, upd.Email, upd.Phone, upd.Account)
	updated, err := scanClient(row)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		r.logger.Error("failed to update client", "client_id", id, "error", err)
	}
	return updated, err
}

func (r *clientRepo) UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE client SET notes = $2 WHERE id = $1`, id, notes)
	if err != nil {
		r.logger.Error("failed to update client notes", "client_id", id, "error", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *clientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM client WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("failed to delete client", "client_id", id, "error", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *clientRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM client WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}
