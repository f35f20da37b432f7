package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// StateFileName is the name of the state database written directly under the organized root.
const StateFileName = ".fs_organizer.db"

// StatePath returns the location of the state database for root.
func StatePath(root string) string {
	return filepath.Join(root, StateFileName)
}

// Exists reports whether root already carries a state database, which
// signals prior progress. The empty file left by Lock on a new root does
// not count.
func Exists(root string) bool {
	info, err := os.Stat(StatePath(root))
	return err == nil && info.Size() > 0
}

// IsStateFile reports whether name belongs to the state database or its side files.
func IsStateFile(name string) bool {
	switch name {
	case StateFileName, StateFileName + "-wal", StateFileName + "-shm", StateFileName + "-journal":
		return true
	}
	return false
}

// New opens a SQLite database connection at the given path.
// Foreign keys and the busy timeout are set in the DSN so every pooled
// connection carries them. Writers are serialized through a single connection.
func New(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS cabinets (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS shelves (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			cabinet_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY (cabinet_id) REFERENCES cabinets(id),
			UNIQUE (cabinet_id, name)
		);`,
		`CREATE TABLE IF NOT EXISTS items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			shelf_id INTEGER NOT NULL,
			path TEXT NOT NULL UNIQUE,
			original_name TEXT NOT NULL,
			suggested_name TEXT,
			description TEXT NOT NULL,
			file_type TEXT NOT NULL,
			is_opaque_dir BOOLEAN NOT NULL DEFAULT 0,
			processed_at TEXT NOT NULL,
			placed_path TEXT,
			FOREIGN KEY (shelf_id) REFERENCES shelves(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_items_shelf ON items(shelf_id);`,
		`CREATE INDEX IF NOT EXISTS idx_items_placed ON items(placed_path);`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			root TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			scanned INTEGER NOT NULL DEFAULT 0,
			enriched INTEGER NOT NULL DEFAULT 0,
			classified INTEGER NOT NULL DEFAULT 0,
			failed_batches INTEGER NOT NULL DEFAULT 0,
			error TEXT
		);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		// Rows written by older builds used the SQLite default format
		t, err = time.Parse("2006-01-02 15:04:05", value)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
		}
	}
	return t, nil
}
