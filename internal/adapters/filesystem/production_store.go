package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/example/stagehand/internal/ports/secondary"
)

// ProductionStore implements secondary.ProductionStore over the fixed
// production directories under a single base directory.
type ProductionStore struct {
	productionBase string
}

// NewProductionStore creates a production store rooted at productionBase.
func NewProductionStore(productionBase string) *ProductionStore {
	return &ProductionStore{productionBase: productionBase}
}

// Root returns the production directory for a category.
func (p *ProductionStore) Root(category string) string {
	return filepath.Join(p.productionBase, category)
}

// Resolve returns the absolute production path for a production-relative
// path such as "scripts/run.sh".
func (p *ProductionStore) Resolve(relPath string) string {
	return filepath.Join(p.productionBase, relPath)
}

// Stat observes the current state of a production-relative path. An absent
// path is a valid observation.
func (p *ProductionStore) Stat(ctx context.Context, relPath string) (secondary.BaselineEntryRecord, error) {
	info, err := os.Lstat(p.Resolve(relPath))
	if os.IsNotExist(err) {
		return secondary.BaselineEntryRecord{}, nil
	}
	if err != nil {
		return secondary.BaselineEntryRecord{}, fmt.Errorf("failed to stat production path %s: %w", relPath, err)
	}

	return secondary.BaselineEntryRecord{
		Exists:  true,
		MTimeNs: info.ModTime().UnixNano(),
		Size:    info.Size(),
	}, nil
}

// EnsureParentDir creates the parent directory of a destination path.
func (p *ProductionStore) EnsureParentDir(ctx context.Context, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create production directory for %s: %w", destPath, err)
	}
	return nil
}

// CheckReadable verifies that a source path is a readable regular file.
func (p *ProductionStore) CheckReadable(ctx context.Context, path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return fmt.Errorf("staged file not accessible: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("staged path %s is not a regular file", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("staged file not readable: %w", err)
	}
	return f.Close()
}

// Rename atomically moves a staged file to its production destination.
func (p *ProductionStore) Rename(ctx context.Context, src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to move %s to %s: %w", src, dst, err)
	}
	return nil
}

// Ensure ProductionStore implements the interface
var _ secondary.ProductionStore = (*ProductionStore)(nil)
