package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/msomdec/localmarket/internal/domain"
)

const uniqueViolation = "23505"

// AccountRepository implements domain.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool *pgxpool.Pool
}

const accountColumns = `id, login_handle, display_name, password_hash, reputation, region, created_at, updated_at, name`

// Create inserts account, assigning an id when it has none.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		account.ID, account.LoginHandle, account.DisplayName, account.PasswordHash,
		int64(account.Reputation), account.Region, now, now, account.Name,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrDuplicateLoginHandle
		}
		return fmt.Errorf("insert account: %w", err)
	}
	account.CreatedAt = now
	account.UpdatedAt = now
	return nil
}

// GetByID returns the account with the given id.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		// Not a UUID, so it cannot match a row.
		return nil, domain.ErrNotFound
	}
	return r.scan(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// GetByLoginHandle returns the account registered under handle.
func (r *AccountRepository) GetByLoginHandle(ctx context.Context, handle string) (*domain.Account, error) {
	return r.scan(ctx, `SELECT `+accountColumns+` FROM accounts WHERE login_handle = $1`, handle)
}

func (r *AccountRepository) scan(ctx context.Context, query string, arg any) (*domain.Account, error) {
	var (
		a          domain.Account
		id         uuid.UUID
		reputation int64
	)
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&id, &a.LoginHandle, &a.DisplayName, &a.PasswordHash,
		&reputation, &a.Region, &a.CreatedAt, &a.UpdatedAt, &a.Name,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query account: %w", err)
	}
	a.ID = id.String()
	a.Reputation = domain.Score(reputation)
	return &a, nil
}
