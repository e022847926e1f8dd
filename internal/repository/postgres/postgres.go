// Package postgres is the PostgreSQL storage backend. Repositories run on a
// pgx connection pool; schema changes are goose migrations embedded in the
// binary.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/msomdec/localmarket/internal/domain"
	"github.com/msomdec/localmarket/internal/repository/postgres/migrations"
)

// DB wraps a pgx pool and hands out repositories bound to it.
type DB struct {
	Pool *pgxpool.Pool
}

// New connects to PostgreSQL at dsn and verifies the connection.
func New(ctx context.Context, dsn string, maxConns int32) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return &DB{Pool: pool}, nil
}

// Migrate runs the embedded goose migrations.
func (d *DB) Migrate(ctx context.Context) error {
	sqlDB := stdlib.OpenDBFromPool(d.Pool)
	defer sqlDB.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, migrations.FS)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close releases every pooled connection.
func (d *DB) Close() error {
	d.Pool.Close()
	return nil
}

func (d *DB) Accounts() domain.AccountRepository {
	return &AccountRepository{pool: d.Pool}
}

func (d *DB) Reviews() domain.ReviewRepository {
	return &ReviewRepository{pool: d.Pool}
}
