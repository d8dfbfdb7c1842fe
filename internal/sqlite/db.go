package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema.
//
// Ownership edges are modeled explicitly: an objective owns its key
// results (cascade), an activity owns its allocations (cascade), and an
// activity holds a non-owning reference to an objective. The nullify rule
// for objective deletion is implemented as a graph walk in the objective
// repository rather than relying on ON DELETE SET NULL alone, because the
// referencing activities must also lose their allocations.
func (db *DB) RunMigrations() error {
	migration := `
-- Objectives
CREATE TABLE IF NOT EXISTS objectives (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    color_hex TEXT,
    end_date TIMESTAMP,
    completed_at TIMESTAMP,
    archived_at TIMESTAMP,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Key results, exclusively owned by an objective
CREATE TABLE IF NOT EXISTS key_results (
    id TEXT PRIMARY KEY,
    objective_id TEXT NOT NULL,
    title TEXT NOT NULL,
    sort_index INTEGER NOT NULL,
    time_unit TEXT,
    time_target REAL,
    time_logged REAL,
    quantity_unit TEXT,
    quantity_target REAL,
    quantity_current REAL,
    FOREIGN KEY (objective_id) REFERENCES objectives(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_objective_key_results ON key_results(objective_id, sort_index);

-- Activities; objective link is non-owning
CREATE TABLE IF NOT EXISTS activities (
    id TEXT PRIMARY KEY,
    date TIMESTAMP NOT NULL,
    duration_seconds REAL NOT NULL,
    objective_id TEXT,
    note TEXT,
    tags TEXT NOT NULL DEFAULT '[]',
    FOREIGN KEY (objective_id) REFERENCES objectives(id) ON DELETE SET NULL
);
CREATE INDEX IF NOT EXISTS idx_activity_date ON activities(date);
CREATE INDEX IF NOT EXISTS idx_activity_objective ON activities(objective_id);

-- Per-key-result time allocations, exclusively owned by an activity
CREATE TABLE IF NOT EXISTS activity_allocations (
    activity_id TEXT NOT NULL,
    key_result_id TEXT NOT NULL,
    seconds REAL NOT NULL,
    sort_index INTEGER NOT NULL,
    PRIMARY KEY (activity_id, key_result_id),
    FOREIGN KEY (activity_id) REFERENCES activities(id) ON DELETE CASCADE
);

-- Raw timer history, independent of the objective graph
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    started_at TIMESTAMP NOT NULL,
    duration_seconds REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_session_started ON sessions(started_at);
`

	if _, err := db.Exec(migration); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
