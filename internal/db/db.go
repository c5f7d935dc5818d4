package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

var db *sql.DB

var dbInitialized bool

// GetDB returns the database connection, initializing if needed. The
// database lives next to the staging namespace under the stagehand home
// directory (~/.stagehand, overridable via STAGEHAND_HOME).
func GetDB() (*sql.DB, error) {
	if db != nil {
		return db, nil
	}

	home, err := HomeDir()
	if err != nil {
		return nil, err
	}

	dbPath := filepath.Join(home, "stagehand.db")

	if err := os.MkdirAll(home, 0755); err != nil {
		return nil, fmt.Errorf("failed to create stagehand directory: %w", err)
	}

	db, err = sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if !dbInitialized {
		dbInitialized = true
		if err := InitSchema(db); err != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	return db, nil
}

// Close closes the database connection
func Close() error {
	if db != nil {
		return db.Close()
	}
	return nil
}

// HomeDir returns the stagehand home directory. STAGEHAND_HOME overrides the
// default ~/.stagehand (used by tests and non-standard installs).
func HomeDir() (string, error) {
	if override := os.Getenv("STAGEHAND_HOME"); override != "" {
		return override, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".stagehand"), nil
}

// InitSchema applies the authoritative schema to a connection.
func InitSchema(conn *sql.DB) error {
	if _, err := conn.Exec(GetSchemaSQL()); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
