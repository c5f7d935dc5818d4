// Package filesystem contains filesystem-based adapter implementations.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/example/stagehand/internal/core/staging"
	"github.com/example/stagehand/internal/ports/secondary"
)

// StagingStore implements secondary.StagingStore on a local staging
// namespace: <stagingBase>/<version>/{scripts,commands,agents,skills}/.
type StagingStore struct {
	stagingBase    string
	productionBase string
	validate       *validator.Validate
}

// NewStagingStore creates a staging store rooted at stagingBase. Destinations
// of staged files are computed against productionBase.
func NewStagingStore(stagingBase, productionBase string) *StagingStore {
	return &StagingStore{
		stagingBase:    stagingBase,
		productionBase: productionBase,
		validate:       validator.New(),
	}
}

// CreateRoot creates the staging root for a version: one subdirectory per
// category plus the initial descriptor. The tree is assembled under a
// dot-prefixed temporary name and published with a single rename, so a
// crash during creation never leaves a root missing its descriptor. At most
// one unresolved session is permitted system-wide, so the call refuses when
// any staging root is already present.
func (s *StagingStore) CreateRoot(ctx context.Context, version string, meta *secondary.SessionMetadataRecord) (string, error) {
	existing, err := s.ListRoots(ctx)
	if err != nil {
		return "", err
	}
	if len(existing) > 0 {
		return "", &staging.SessionExistsError{Versions: existing}
	}

	data, err := encodeDescriptor(s.validate, version, meta)
	if err != nil {
		return "", fmt.Errorf("refusing to create staging root with invalid metadata: %w", err)
	}

	tmpRoot := filepath.Join(s.stagingBase, ".create-"+version)
	if err := os.RemoveAll(tmpRoot); err != nil {
		return "", fmt.Errorf("failed to clear leftover staging root: %w", err)
	}
	for _, cat := range staging.Categories() {
		dir := filepath.Join(tmpRoot, string(cat))
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create staging directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(filepath.Join(tmpRoot, DescriptorName), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write initial descriptor: %w", err)
	}

	root := s.RootPath(version)
	if err := os.Rename(tmpRoot, root); err != nil {
		os.RemoveAll(tmpRoot)
		return "", fmt.Errorf("failed to publish staging root: %w", err)
	}

	return root, nil
}

// ListRoots returns the versions of all staging roots currently present.
func (s *StagingStore) ListRoots(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.stagingBase)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read staging namespace: %w", err)
	}

	var versions []string
	for _, e := range entries {
		// Dot-prefixed directories are in-progress creations, not roots.
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			versions = append(versions, e.Name())
		}
	}
	sort.Strings(versions)
	return versions, nil
}

// RootExists checks whether a staging root exists for the version.
func (s *StagingStore) RootExists(ctx context.Context, version string) (bool, error) {
	info, err := os.Stat(s.RootPath(version))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check staging root: %w", err)
	}
	return info.IsDir(), nil
}

// RootPath returns the staging root path for a version.
func (s *StagingStore) RootPath(version string) string {
	return filepath.Join(s.stagingBase, version)
}

// CategoryDir returns the staging subdirectory for a category.
func (s *StagingStore) CategoryDir(version, category string) string {
	return filepath.Join(s.RootPath(version), category)
}

// RemoveRoot deletes a staging root recursively. Tolerates absent or
// partially deleted trees.
func (s *StagingStore) RemoveRoot(ctx context.Context, version string) error {
	if err := os.RemoveAll(s.RootPath(version)); err != nil {
		return fmt.Errorf("failed to remove staging root: %w", err)
	}
	return nil
}

// ListFiles walks each category subdirectory and joins every regular file to
// its computed production destination. Symbolic links are skipped, never
// followed, to avoid writing outside the intended production roots.
func (s *StagingStore) ListFiles(ctx context.Context, version string) ([]*secondary.StagedFileRecord, error) {
	var files []*secondary.StagedFileRecord

	for _, cat := range staging.Categories() {
		catDir := s.CategoryDir(version, string(cat))
		err := filepath.WalkDir(catDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type()&fs.ModeSymlink != 0 {
				log.Printf("skipping symlink in staging tree: %s", path)
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}

			rel, err := filepath.Rel(catDir, path)
			if err != nil {
				return err
			}
			files = append(files, &secondary.StagedFileRecord{
				Category:   string(cat),
				RelPath:    rel,
				SourcePath: path,
				DestPath:   filepath.Join(s.productionBase, string(cat), rel),
			})
			return nil
		})
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to walk staging category %s: %w", cat, err)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].SourcePath < files[j].SourcePath })
	return files, nil
}

// Ensure StagingStore implements the interface
var _ secondary.StagingStore = (*StagingStore)(nil)
