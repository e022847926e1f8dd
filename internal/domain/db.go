package domain

import "context"

// Database is a storage backend for accounts and reviews. SQLite and
// PostgreSQL each own their migration files, so either can back the service.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error
	Accounts() AccountRepository
	Reviews() ReviewRepository
}
