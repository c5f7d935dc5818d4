package db

// SchemaSQL is the complete schema for fresh stagehand installs.
//
// This is the single source of truth for the database schema. All tests use
// it via GetSchemaSQL(), so repository code referencing a column that does
// not exist here fails immediately with "no such column" at test time.
const SchemaSQL = `
-- Transformation history (append-only, one row per transformation attempt)
CREATE TABLE IF NOT EXISTS transformation_history (
	id TEXT PRIMARY KEY,
	target_version TEXT NOT NULL,
	outcome TEXT NOT NULL CHECK(outcome IN ('started', 'transformed', 'failed', 'partial', 'rolled-back')) DEFAULT 'started',
	session_id TEXT,
	error TEXT,
	committed_files TEXT,
	rollback_reason TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_history_session ON transformation_history(session_id, created_at);
`

// GetSchemaSQL returns the authoritative schema SQL.
func GetSchemaSQL() string {
	return SchemaSQL
}
