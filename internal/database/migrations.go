package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migration is one forward-only schema change
type Migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "create chat_reports table",
		SQL: `
			CREATE TABLE IF NOT EXISTS chat_reports (
				id             UUID PRIMARY KEY,
				source_name    TEXT NOT NULL DEFAULT '',
				transcript_key TEXT NOT NULL DEFAULT '',
				date_order     TEXT NOT NULL DEFAULT 'dmy',
				participants   TEXT[] NOT NULL DEFAULT '{}',
				total_messages INTEGER NOT NULL DEFAULT 0,
				data           JSONB NOT NULL,
				created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				expires_at     TIMESTAMPTZ NOT NULL
			)
		`,
	},
	{
		Version:     2,
		Description: "index chat_reports by created_at and expires_at",
		SQL: `
			CREATE INDEX IF NOT EXISTS idx_chat_reports_created_at ON chat_reports (created_at DESC);
			CREATE INDEX IF NOT EXISTS idx_chat_reports_expires_at ON chat_reports (expires_at)
		`,
	},
}

// Migrate applies pending migrations in version order and returns how many ran
func Migrate(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return 0, fmt.Errorf("creating schema_migrations: %w", err)
	}

	applied := 0
	for _, m := range migrations {
		var exists bool
		err := pool.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)", m.Version,
		).Scan(&exists)
		if err != nil {
			return applied, fmt.Errorf("checking migration %d: %w", m.Version, err)
		}
		if exists {
			continue
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return applied, fmt.Errorf("starting migration %d: %w", m.Version, err)
		}
		if _, err := tx.Exec(ctx, m.SQL); err != nil {
			_ = tx.Rollback(ctx)
			return applied, fmt.Errorf("applying migration %d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", m.Version); err != nil {
			_ = tx.Rollback(ctx)
			return applied, fmt.Errorf("recording migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return applied, fmt.Errorf("committing migration %d: %w", m.Version, err)
		}
		applied++
	}

	return applied, nil
}
