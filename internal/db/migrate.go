package db

import (
	"database/sql"
	"fmt"
)

// migrations are applied in order. The index of the last applied step is
// stored in PRAGMA user_version, so steps are append-only.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS study_snapshots (
		study_id         TEXT PRIMARY KEY,
		payload          TEXT NOT NULL,
		overall_progress INTEGER NOT NULL DEFAULT 0 CHECK (overall_progress BETWEEN 0 AND 100),
		current_phase    TEXT NOT NULL,
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS task_events (
		id               TEXT PRIMARY KEY,
		study_id         TEXT NOT NULL REFERENCES study_snapshots(study_id) ON DELETE CASCADE,
		phase            TEXT NOT NULL,
		task_id          TEXT NOT NULL,
		completed        INTEGER NOT NULL,
		phase_progress   INTEGER NOT NULL,
		overall_progress INTEGER NOT NULL,
		occurred_at      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_task_events_study ON task_events(study_id, occurred_at)`,
}

// SchemaVersion is the user_version of a fully migrated database.
func SchemaVersion() int {
	return len(migrations)
}

// Migrate applies pending migrations. Running it on an up-to-date database
// is a no-op.
func Migrate(conn *sql.DB) error {
	version, err := userVersion(conn)
	if err != nil {
		return err
	}
	if version > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, len(migrations))
	}

	for i := version; i < len(migrations); i++ {
		tx, err := conn.Begin()
		if err != nil {
			return fmt.Errorf("migration %d: beginning transaction: %w", i+1, err)
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		// PRAGMA does not accept bound parameters.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d: recording version: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: committing: %w", i+1, err)
		}
	}
	return nil
}

func userVersion(conn *sql.DB) (int, error) {
	var v int
	if err := conn.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}
