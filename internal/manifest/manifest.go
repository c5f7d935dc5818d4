// Package manifest reads the per-version template manifest: the declaration
// of every production-relative path a target version may touch. The manifest
// is the source of the production baseline captured at session start.
package manifest

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/stagehand/internal/core/staging"
)

// Manifest declares the paths a template version may write, grouped by
// category.
type Manifest struct {
	Version string              `yaml:"version"`
	Paths   map[string][]string `yaml:"paths"`
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}

	return &m, nil
}

// ProductionPaths returns every declared path as a production-relative path
// ("scripts/run.sh"), sorted and deduplicated.
func (m *Manifest) ProductionPaths() []string {
	seen := map[string]bool{}
	var paths []string
	for category, rels := range m.Paths {
		for _, rel := range rels {
			p := path.Join(category, rel)
			if !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
	}
	sort.Strings(paths)
	return paths
}

// Declares reports whether the manifest declares the given
// production-relative path.
func (m *Manifest) Declares(relPath string) bool {
	for _, p := range m.ProductionPaths() {
		if p == relPath {
			return true
		}
	}
	return false
}

func (m *Manifest) validate() error {
	if m.Version == "" {
		return fmt.Errorf("missing version")
	}
	if len(m.Paths) == 0 {
		return fmt.Errorf("manifest declares no paths")
	}
	for category, rels := range m.Paths {
		if _, err := staging.ParseCategory(category); err != nil {
			return err
		}
		for _, rel := range rels {
			clean := path.Clean(rel)
			if rel == "" || path.IsAbs(rel) || clean == ".." || strings.HasPrefix(clean, "../") {
				return fmt.Errorf("path %q in category %s escapes the production root", rel, category)
			}
		}
	}
	return nil
}
