// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/stagehand/internal/ports/secondary"
)

// HistoryRepository implements secondary.HistoryRepository with SQLite.
// History entries are append-only: created once, finalized once, never
// deleted.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new SQLite history repository.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create persists a new history entry with outcome 'started'.
func (r *HistoryRepository) Create(ctx context.Context, entry *secondary.HistoryRecord) error {
	var sessionID sql.NullString
	if entry.SessionID != "" {
		sessionID = sql.NullString{String: entry.SessionID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transformation_history (id, target_version, outcome, session_id)
		 VALUES (?, ?, ?, ?)`,
		entry.ID, entry.TargetVersion, secondary.OutcomeStarted, sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to create history entry: %w", err)
	}

	return nil
}

// Finalize closes an entry with its terminal outcome. An already-finalized
// entry is not modified.
func (r *HistoryRepository) Finalize(ctx context.Context, id, outcome, errMsg, rollbackReason string, committedFiles []string) error {
	var errCol, reasonCol, filesCol sql.NullString

	if errMsg != "" {
		errCol = sql.NullString{String: errMsg, Valid: true}
	}
	if rollbackReason != "" {
		reasonCol = sql.NullString{String: rollbackReason, Valid: true}
	}
	if committedFiles != nil {
		data, err := json.Marshal(committedFiles)
		if err != nil {
			return fmt.Errorf("failed to marshal committed files: %w", err)
		}
		filesCol = sql.NullString{String: string(data), Valid: true}
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE transformation_history
		 SET outcome = ?, error = ?, rollback_reason = ?, committed_files = ?, finished_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND outcome = ?`,
		outcome, errCol, reasonCol, filesCol, id, secondary.OutcomeStarted,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize history entry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check finalize result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("history entry %s not found or already finalized", id)
	}

	return nil
}

// GetByID retrieves a history entry by its ID.
func (r *HistoryRepository) GetByID(ctx context.Context, id string) (*secondary.HistoryRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, target_version, outcome, session_id, error, committed_files, rollback_reason, created_at, finished_at
		 FROM transformation_history WHERE id = ?`,
		id,
	)

	record, err := scanHistory(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("history entry %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history entry: %w", err)
	}
	return record, nil
}

// GetOpenBySession retrieves the unfinalized entry for a session, or nil
// when none is open.
func (r *HistoryRepository) GetOpenBySession(ctx context.Context, sessionID string) (*secondary.HistoryRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, target_version, outcome, session_id, error, committed_files, rollback_reason, created_at, finished_at
		 FROM transformation_history
		 WHERE session_id = ? AND outcome = ?
		 ORDER BY created_at DESC LIMIT 1`,
		sessionID, secondary.OutcomeStarted,
	)

	record, err := scanHistory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open history entry: %w", err)
	}
	return record, nil
}

// GetLatestBySession retrieves the most recent entry for a session, or nil
// when the session has no entries.
func (r *HistoryRepository) GetLatestBySession(ctx context.Context, sessionID string) (*secondary.HistoryRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, target_version, outcome, session_id, error, committed_files, rollback_reason, created_at, finished_at
		 FROM transformation_history
		 WHERE session_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		sessionID,
	)

	record, err := scanHistory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest history entry: %w", err)
	}
	return record, nil
}

// List retrieves history entries, most recent first, with optional limit.
func (r *HistoryRepository) List(ctx context.Context, limit int) ([]*secondary.HistoryRecord, error) {
	query := `SELECT id, target_version, outcome, session_id, error, committed_files, rollback_reason, created_at, finished_at
	          FROM transformation_history ORDER BY created_at DESC, id DESC`

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []*secondary.HistoryRecord
	for rows.Next() {
		record, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, record)
	}

	return entries, rows.Err()
}

// GetNextID returns the next available history entry ID.
func (r *HistoryRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(SUBSTR(id, 4) AS INTEGER)), 0) FROM transformation_history",
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next history ID: %w", err)
	}

	return fmt.Sprintf("TX-%03d", maxID+1), nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanHistory(s scanner) (*secondary.HistoryRecord, error) {
	var (
		createdAt      time.Time
		sessionID      sql.NullString
		errMsg         sql.NullString
		committedFiles sql.NullString
		rollbackReason sql.NullString
		finishedAt     sql.NullTime
	)

	record := &secondary.HistoryRecord{}
	err := s.Scan(&record.ID, &record.TargetVersion, &record.Outcome,
		&sessionID, &errMsg, &committedFiles, &rollbackReason, &createdAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.SessionID = sessionID.String
	record.Error = errMsg.String
	record.RollbackReason = rollbackReason.String
	if finishedAt.Valid {
		record.FinishedAt = finishedAt.Time.Format(time.RFC3339)
	}
	if committedFiles.Valid {
		if err := json.Unmarshal([]byte(committedFiles.String), &record.CommittedFiles); err != nil {
			return nil, fmt.Errorf("failed to decode committed files: %w", err)
		}
	}

	return record, nil
}

// Ensure HistoryRepository implements the interface
var _ secondary.HistoryRepository = (*HistoryRepository)(nil)
