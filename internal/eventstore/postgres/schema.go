package postgres

import (
	"context"
	"database/sql"
)

// EnsureSchema creates core tables if they do not exist. Safe to call
// repeatedly on startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS timeline_events (
            seq BIGSERIAL PRIMARY KEY,
            event_id TEXT NOT NULL,
            user_id TEXT NOT NULL,
            source_type TEXT NOT NULL,
            source_id TEXT NOT NULL,
            ts TIMESTAMPTZ NOT NULL,
            content TEXT NOT NULL DEFAULT '',
            metadata JSONB,
            category TEXT,
            tags JSONB,
            sentiment JSONB,
            UNIQUE(user_id, event_id)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_events_user_time ON timeline_events(user_id, ts);`,
		`CREATE TABLE IF NOT EXISTS biographies (
            biography_id TEXT NOT NULL,
            user_id TEXT NOT NULL,
            title TEXT NOT NULL,
            style TEXT NOT NULL,
            introduction TEXT NOT NULL DEFAULT '',
            conclusion TEXT NOT NULL DEFAULT '',
            chapters JSONB NOT NULL,
            metadata JSONB NOT NULL,
            generated_at TIMESTAMPTZ NOT NULL,
            PRIMARY KEY(user_id, biography_id)
        );`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
