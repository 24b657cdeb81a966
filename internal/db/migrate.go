package db

import (
	"context"
	"fmt"
)

// migrations are applied in order on startup. Statements are idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS schedules (
		project_id  UUID        NOT NULL,
		revision_id BIGINT      NOT NULL,
		activities  JSONB       NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (project_id, revision_id)
	)`,
	`CREATE TABLE IF NOT EXISTS progress_states (
		project_id                   UUID             NOT NULL,
		activity_name                TEXT             NOT NULL,
		last_actual_progress_percent DOUBLE PRECISION NOT NULL,
		observed_at                  TIMESTAMPTZ      NOT NULL,
		revision                     BIGINT           NOT NULL,
		PRIMARY KEY (project_id, activity_name)
	)`,
	`CREATE TABLE IF NOT EXISTS observations (
		id                UUID        PRIMARY KEY,
		project_id        UUID        NOT NULL,
		schedule_revision BIGINT      NOT NULL,
		observation       JSONB       NOT NULL,
		outcome           TEXT        NOT NULL,
		reject_reason     TEXT,
		matched_activity  TEXT,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS observations_project_created_idx
		ON observations (project_id, created_at)`,
}

// Migrate creates the engine's tables if they do not exist.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}
