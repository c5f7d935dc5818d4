// Package primary defines the primary ports (driving interfaces) for the
// application. CLI adapters depend on these interfaces, not on the service
// implementations.
package primary

import "context"

// TransformService drives a staged transformation session from creation
// through commit or rollback.
type TransformService interface {
	// Prepare creates the staging session, captures the production baseline,
	// runs both external phases into the staging tree and advances the
	// session to ready. Any failure routes to rollback before returning; the
	// returned error then describes the original failure.
	Prepare(ctx context.Context, req PrepareRequest) (*PrepareResponse, error)

	// Commit re-checks the baseline and performs the sequential move of
	// staged files into production. Conflicts refuse the commit unless
	// explicitly overridden. On full success the staging root is removed and
	// the history entry finalized.
	Commit(ctx context.Context, req CommitRequest) (*CommitResponse, error)

	// Rollback deletes the staging root and finalizes the session's history
	// entry as rolled-back. Idempotent: rolling back an absent root still
	// ensures exactly one terminal history entry exists.
	Rollback(ctx context.Context, req RollbackRequest) error

	// ActiveSession returns a summary of the unresolved staging session, or
	// nil when none exists.
	ActiveSession(ctx context.Context) (*SessionSummary, error)
}

// PrepareRequest describes a new transformation attempt.
type PrepareRequest struct {
	TargetVersion   string
	PreviousVersion string // optional
	ManifestPath    string // version manifest; defaults to the configured location
}

// PrepareResponse reports the session after both phases completed.
type PrepareResponse struct {
	HistoryID   string
	Session     *SessionSummary
	StagedFiles []FilePair
}

// CommitRequest asks for a staged session to be committed.
type CommitRequest struct {
	TargetVersion     string
	OverrideConflicts bool // proceed despite detected production drift
}

// CommitResponse reports a fully committed session.
type CommitResponse struct {
	HistoryID      string
	CommittedFiles []string
}

// RollbackRequest asks for a staged session to be rolled back.
type RollbackRequest struct {
	TargetVersion string
	Reason        string
}

// SessionSummary is a human-facing view of a staging session.
type SessionSummary struct {
	TargetVersion   string
	PreviousVersion string
	Status          string
	StartTime       string
	RootPath        string
	FileCount       int
}

// FilePair is one source-to-destination entry of the pre-commit manifest
// report.
type FilePair struct {
	Category string
	Source   string
	Dest     string
}
