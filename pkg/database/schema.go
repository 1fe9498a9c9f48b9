package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const documentsSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	size BIGINT NOT NULL DEFAULT 0,
	type TEXT NOT NULL DEFAULT '',
	upload_date TIMESTAMP NOT NULL,
	topics TEXT NOT NULL DEFAULT '{}',
	content TEXT,
	locator TEXT
);
CREATE INDEX IF NOT EXISTS idx_documents_upload_date ON documents(upload_date);
`

const postgresDocumentsSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	size BIGINT NOT NULL DEFAULT 0,
	type TEXT NOT NULL DEFAULT '',
	upload_date TIMESTAMPTZ NOT NULL,
	topics TEXT[] NOT NULL DEFAULT '{}',
	content TEXT,
	locator TEXT
);
CREATE INDEX IF NOT EXISTS idx_documents_upload_date ON documents(upload_date);
`

const curriculaSchema = `
CREATE TABLE IF NOT EXISTS curricula (
	id UUID PRIMARY KEY,
	title TEXT NOT NULL,
	subject TEXT NOT NULL,
	skill_level TEXT NOT NULL,
	total_weeks INTEGER NOT NULL,
	status TEXT NOT NULL DEFAULT 'Draft',
	body JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_curricula_status ON curricula(status);
CREATE INDEX IF NOT EXISTS idx_curricula_updated_at ON curricula(updated_at DESC);
`

// EnsureSchema creates the tables used by the service when they are missing.
// The curricula library only exists on PostgreSQL.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	statements := []string{documentsSchema}
	if db.DriverName() == "postgres" {
		statements = []string{postgresDocumentsSchema, curriculaSchema}
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
