package secondary

import "context"

// History outcome values. An entry is created with OutcomeStarted when a
// session starts and finalized exactly once when the session reaches a
// terminal state. Entries are never deleted.
const (
	OutcomeStarted     = "started"
	OutcomeTransformed = "transformed"
	OutcomeFailed      = "failed"
	OutcomePartial     = "partial"
	OutcomeRolledBack  = "rolled-back"
)

// HistoryRepository defines the secondary port for the append-only
// transformation history log. Entries are immutable apart from the single
// finalization that closes them.
type HistoryRepository interface {
	// Create persists a new history entry with OutcomeStarted.
	Create(ctx context.Context, entry *HistoryRecord) error

	// Finalize closes an entry with its terminal outcome. Finalizing an
	// already-finalized entry is an error.
	Finalize(ctx context.Context, id, outcome, errMsg, rollbackReason string, committedFiles []string) error

	// GetByID retrieves a history entry by its ID.
	GetByID(ctx context.Context, id string) (*HistoryRecord, error)

	// GetOpenBySession retrieves the unfinalized entry for a session, or nil
	// when every entry for the session is terminal.
	GetOpenBySession(ctx context.Context, sessionID string) (*HistoryRecord, error)

	// GetLatestBySession retrieves the most recent entry for a session, or
	// nil when the session has no entries.
	GetLatestBySession(ctx context.Context, sessionID string) (*HistoryRecord, error)

	// List retrieves history entries, most recent first, with optional limit.
	List(ctx context.Context, limit int) ([]*HistoryRecord, error)

	// GetNextID returns the next available history entry ID.
	GetNextID(ctx context.Context) (string, error)
}

// HistoryRecord represents one transformation attempt as stored in
// persistence.
type HistoryRecord struct {
	ID             string
	TargetVersion  string
	Outcome        string
	SessionID      string   // Empty string means null
	Error          string   // Empty string means null
	CommittedFiles []string // Nil means null - stored as a JSON array
	RollbackReason string   // Empty string means null
	CreatedAt      string
	FinishedAt     string // Empty string means null
}
