package db

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS templates (
		id         SERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		products   JSONB NOT NULL DEFAULT '[]',
		variants   JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS generation_runs (
		id                 BIGSERIAL PRIMARY KEY,
		run_id             TEXT NOT NULL,
		blueprint_id       INTEGER NOT NULL,
		created_product_id TEXT NOT NULL DEFAULT '',
		previews           JSONB NOT NULL DEFAULT '[]',
		error              TEXT NOT NULL DEFAULT '',
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS generation_runs_run_id_idx ON generation_runs (run_id)`,
}

func ensureSchema(ctx context.Context, conn *sql.DB) error {
	for _, stmt := range schema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
