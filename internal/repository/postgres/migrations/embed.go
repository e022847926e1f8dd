package migrations

import "embed"

// FS holds goose migrations for the PostgreSQL store.
//
//go:embed *.sql
var FS embed.FS
