package secondary

import "context"

// ProductionStore defines the secondary port for the fixed production
// directories the tool reads its live configuration from. Only the commit
// engine mutates production, and only through this port.
type ProductionStore interface {
	// Root returns the production directory for a category.
	Root(category string) string

	// Resolve returns the absolute production path for a production-relative
	// path such as "scripts/run.sh".
	Resolve(relPath string) string

	// Stat observes the current state of a production-relative path. An
	// absent path is a valid observation, not an error.
	Stat(ctx context.Context, relPath string) (BaselineEntryRecord, error)

	// EnsureParentDir creates the parent directory of an absolute
	// destination path if it does not exist.
	EnsureParentDir(ctx context.Context, destPath string) error

	// CheckReadable verifies that an absolute source path is a readable
	// regular file.
	CheckReadable(ctx context.Context, path string) error

	// Rename atomically moves a staged file to its production destination.
	Rename(ctx context.Context, src, dst string) error
}
