// Package secondary defines the secondary ports (driven adapters) for the
// application. These are the interfaces through which the application drives
// the filesystem, external phase processes, and persistence.
package secondary

import "context"

// StagingStore defines the secondary port for the versioned staging
// namespace on disk.
type StagingStore interface {
	// CreateRoot creates the staging root for a version with one
	// subdirectory per fixed category and the initial descriptor already
	// inside, published as a single step so a crash right after creation
	// never leaves a root without a readable descriptor. It refuses when
	// any staging root already exists: at most one unresolved session is
	// permitted system-wide, enforced by presence-check rather than a
	// lock file.
	CreateRoot(ctx context.Context, version string, meta *SessionMetadataRecord) (string, error)

	// ListRoots returns the versions of all staging roots currently present
	// under the staging namespace.
	ListRoots(ctx context.Context) ([]string, error)

	// RootExists checks whether a staging root exists for the version.
	RootExists(ctx context.Context, version string) (bool, error)

	// RootPath returns the staging root path for a version.
	RootPath(version string) string

	// CategoryDir returns the staging subdirectory for a category.
	CategoryDir(version, category string) string

	// RemoveRoot deletes a staging root recursively. Removing an absent or
	// partially deleted root is not an error.
	RemoveRoot(ctx context.Context, version string) error

	// ListFiles walks the category subdirectories and returns every staged
	// regular file joined to its production destination. Symbolic links are
	// skipped, never followed.
	ListFiles(ctx context.Context, version string) ([]*StagedFileRecord, error)
}

// StagedFileRecord joins a file found under a staging category directory to
// its computed production destination.
type StagedFileRecord struct {
	Category   string
	RelPath    string // path relative to the category directory
	SourcePath string // absolute path inside the staging root
	DestPath   string // absolute path inside the production directory
}

// MetadataStore defines the secondary port for the durable staging
// descriptor co-located with each staging root.
type MetadataStore interface {
	// Write validates the descriptor against its schema and persists it
	// atomically (write-to-temp-file-then-rename), so a crash mid-write
	// never leaves a corrupt descriptor visible.
	Write(ctx context.Context, version string, meta *SessionMetadataRecord) error

	// Read parses and validates the descriptor. A schema violation yields a
	// staging.CorruptMetadataError rather than a guessed default.
	Read(ctx context.Context, version string) (*SessionMetadataRecord, error)

	// AdvanceStatus persists a status change after checking it is a legal
	// successor per the state machine, and returns the updated descriptor.
	// This is the sole gate preventing invalid transitions anywhere in the
	// system.
	AdvanceStatus(ctx context.Context, version, newStatus string) (*SessionMetadataRecord, error)
}

// SessionMetadataRecord is the persisted staging descriptor. It is treated
// as untrusted input on every read and validated against the struct tags
// below before any field is used.
type SessionMetadataRecord struct {
	Status          string `json:"status" validate:"required,oneof=staging phase1-complete phase2-complete ready committing committed failed rolled-back"`
	StartTime       string `json:"startTime" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	TargetVersion   string `json:"targetVersion" validate:"required"`
	PreviousVersion string `json:"previousVersion,omitempty"`

	// AgentResults holds one slot per phase, nil until that phase completes.
	AgentResults [2]*AgentResultRecord `json:"agentResults"`

	// ProductionBaseline is captured once at session start and never
	// recomputed.
	ProductionBaseline *BaselineRecord `json:"productionBaseline,omitempty"`
}

// AgentResultRecord is the recorded outcome of one external phase.
// Immutable once recorded.
type AgentResultRecord struct {
	Success      bool     `json:"success"`
	FilesWritten []string `json:"filesWritten,omitempty"`
	Error        string   `json:"error,omitempty"` // empty means null
	DurationMs   int64    `json:"durationMs"`
}

// BaselineRecord snapshots the production state of every path the target
// version may touch.
type BaselineRecord struct {
	CapturedAt string                         `json:"capturedAt" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Entries    map[string]BaselineEntryRecord `json:"entries"`
}

// BaselineEntryRecord is the observed state of one production path. For an
// absent path Exists is false and MTimeNs/Size are zero.
type BaselineEntryRecord struct {
	Exists  bool  `json:"exists"`
	MTimeNs int64 `json:"mtimeNs"`
	Size    int64 `json:"size"`
}
