package primary

import "context"

// HistoryService exposes the append-only transformation history for
// reporting.
type HistoryService interface {
	// ListHistory retrieves history entries, most recent first.
	ListHistory(ctx context.Context, limit int) ([]*HistoryEntry, error)

	// GetHistory retrieves one entry by ID.
	GetHistory(ctx context.Context, id string) (*HistoryEntry, error)
}

// HistoryEntry is one transformation attempt.
type HistoryEntry struct {
	ID             string
	TargetVersion  string
	Outcome        string
	SessionID      string
	Error          string
	CommittedFiles []string
	RollbackReason string
	CreatedAt      string
	FinishedAt     string
}
