package primary

import "context"

// RecoveryService surfaces leftover staging sessions from interrupted runs.
// It never auto-decides; it classifies and waits for an explicit operator
// choice of inspect, commit or rollback.
type RecoveryService interface {
	// DetectOrphans lists all staging roots present under the staging
	// namespace with their recovery classification.
	DetectOrphans(ctx context.Context) ([]*Orphan, error)

	// Inspect returns a summary of one orphaned session without mutating
	// anything.
	Inspect(ctx context.Context, version string) (*OrphanDetail, error)

	// Commit commits a commit-eligible orphan. A session at phase2-complete
	// is advanced to ready first.
	Commit(ctx context.Context, req CommitRequest) (*CommitResponse, error)

	// Rollback rolls back an orphaned session with the supplied reason.
	Rollback(ctx context.Context, req RollbackRequest) error
}

// Orphan is one leftover staging root and its recovery classification.
type Orphan struct {
	TargetVersion string
	Action        string // inspect-only, commit-eligible, rollback-only
	Status        string // empty when metadata is missing or corrupt
	StartTime     string // empty when metadata is missing or corrupt
	AgeSeconds    int64  // 0 when start time is unknown
	MetadataError string // populated for inspect-only classification
}

// OrphanDetail extends an Orphan with its staged file manifest.
type OrphanDetail struct {
	Orphan      *Orphan
	RootPath    string
	StagedFiles []FilePair
}
