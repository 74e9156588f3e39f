package db

import (
	"database/sql"
	"fmt"
)

// Base schema - uses Snowflake IDs (no AUTOINCREMENT). The UNIQUE
// constraint on date backs the application-level duplicate check so a
// concurrent race cannot admit two entries for the same day.
const baseSchema = `
CREATE TABLE IF NOT EXISTS entries (
  id INTEGER PRIMARY KEY,
  title TEXT NOT NULL,
  body TEXT NOT NULL,
  date TEXT NOT NULL UNIQUE,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_created_at ON entries(created_at);
`

func Migrate(db *sql.DB) error {
	// Run base schema first (without astronomy columns)
	if _, err := db.Exec(baseSchema); err != nil {
		return fmt.Errorf("migrate base schema: %w", err)
	}

	// Run incremental migrations
	if err := runMigrations(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func runMigrations(db *sql.DB) error {
	// Migration 1: Add include_astronomy column to entries if not exists
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info('entries') WHERE name = 'include_astronomy'
	`).Scan(&count)
	if err != nil {
		return fmt.Errorf("check include_astronomy column: %w", err)
	}

	if count == 0 {
		if _, err := db.Exec(`ALTER TABLE entries ADD COLUMN include_astronomy INTEGER NOT NULL DEFAULT 0`); err != nil {
			return fmt.Errorf("add include_astronomy column: %w", err)
		}
	}

	// Migration 2: Add astronomy_image_url column for the APOD enrichment
	err = db.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info('entries') WHERE name = 'astronomy_image_url'
	`).Scan(&count)
	if err != nil {
		return fmt.Errorf("check astronomy_image_url column: %w", err)
	}

	if count == 0 {
		if _, err := db.Exec(`ALTER TABLE entries ADD COLUMN astronomy_image_url TEXT`); err != nil {
			return fmt.Errorf("add astronomy_image_url column: %w", err)
		}
	}

	return nil
}
