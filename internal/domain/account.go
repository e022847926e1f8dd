package domain

import (
	"context"
	"time"
)

// Account represents a registered marketplace member.
type Account struct {
	ID           string
	LoginHandle  string
	DisplayName  string
	Name         string // legal name, may be empty
	PasswordHash string
	Reputation   Score
	Region       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AccountRepository defines persistence operations for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByLoginHandle(ctx context.Context, handle string) (*Account, error)
}
