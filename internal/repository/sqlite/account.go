package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/localmarket/internal/domain"
)

// AccountRepository implements domain.AccountRepository using SQLite.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new SQLite-backed AccountRepository.
func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db.SqlDB}
}

const accountColumns = `id, login_handle, display_name, password_hash, reputation, region, created_at, updated_at, name`

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID, account.LoginHandle, account.DisplayName, account.PasswordHash,
		int64(account.Reputation), account.Region, now, now, account.Name,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateLoginHandle
		}
		return fmt.Errorf("insert account: %w", err)
	}

	account.CreatedAt = now
	account.UpdatedAt = now
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	account, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("query account by id: %w", err)
	}
	return account, nil
}

func (r *AccountRepository) GetByLoginHandle(ctx context.Context, handle string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE login_handle = ?`, handle)
	account, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("query account by login handle: %w", err)
	}
	return account, nil
}

func scanAccount(row *sql.Row) (*domain.Account, error) {
	a := &domain.Account{}
	var reputation int64
	err := row.Scan(&a.ID, &a.LoginHandle, &a.DisplayName, &a.PasswordHash,
		&reputation, &a.Region, &a.CreatedAt, &a.UpdatedAt, &a.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	a.Reputation = domain.Score(reputation)
	return a, nil
}

// isUniqueConstraintError checks if the error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
