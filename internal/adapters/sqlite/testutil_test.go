// Package sqlite_test contains integration tests for SQLite repositories.
//
// All test setup uses db.GetSchemaSQL() so tests run against the
// authoritative schema. Do not hardcode CREATE TABLE statements here.
package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/stagehand/internal/adapters/sqlite"
	"github.com/example/stagehand/internal/db"
	"github.com/example/stagehand/internal/ports/secondary"
)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if _, err := testDB.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedHistoryEntry inserts a started history entry and returns its ID.
func seedHistoryEntry(t *testing.T, repo *sqlite.HistoryRepository, version string) string {
	t.Helper()
	ctx := context.Background()

	id, err := repo.GetNextID(ctx)
	if err != nil {
		t.Fatalf("failed to get next history ID: %v", err)
	}
	err = repo.Create(ctx, &secondary.HistoryRecord{
		ID:            id,
		TargetVersion: version,
		SessionID:     version,
	})
	if err != nil {
		t.Fatalf("failed to seed history entry: %v", err)
	}
	return id
}
