package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/example/stagehand/internal/core/staging"
)

// Config represents the flat stagehand configuration.
type Config struct {
	Version string `json:"version"`

	// ProductionDir is the base of the fixed production directories
	// (scripts, commands, agents, skills).
	ProductionDir string `json:"production_dir"`

	// StagingDir is the staging namespace; one root per in-flight version.
	StagingDir string `json:"staging_dir"`

	// Phases configures the two external transformation phases, in
	// invocation order. Each phase writes into its own staging category
	// subdirectory, passed as the command's final argument.
	Phases [2]PhaseConfig `json:"phases"`

	// ManifestDir holds per-version manifests (<dir>/<version>.yaml).
	ManifestDir string `json:"manifest_dir,omitempty"`
}

// PhaseConfig describes one external transformation phase.
type PhaseConfig struct {
	Name     string   `json:"name"`
	Command  []string `json:"command"`
	Category string   `json:"category"`
}

// LoadConfig reads config.json from the stagehand home directory.
// Returns error if no config found - caller should handle accordingly.
func LoadConfig(homeDir string) (*Config, error) {
	path := filepath.Join(homeDir, "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// A phase writing into an unknown category would stage files the
	// commit walk never visits.
	for i, p := range cfg.Phases {
		if _, err := staging.ParseCategory(p.Category); err != nil {
			return nil, fmt.Errorf("phase %d (%s) has an invalid category: %w", i+1, p.Name, err)
		}
	}

	return &cfg, nil
}

// SaveConfig writes config.json to the stagehand home directory.
func SaveConfig(homeDir string, cfg *Config) error {
	if err := os.MkdirAll(homeDir, 0755); err != nil {
		return fmt.Errorf("failed to create stagehand dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(homeDir, "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// DefaultConfig returns a config with conventional locations under the
// stagehand home directory.
func DefaultConfig(homeDir string) *Config {
	return &Config{
		Version:       "1",
		ProductionDir: filepath.Join(homeDir, "production"),
		StagingDir:    filepath.Join(homeDir, "staging"),
		ManifestDir:   filepath.Join(homeDir, "manifests"),
		Phases: [2]PhaseConfig{
			{Name: "scripts", Category: "scripts"},
			{Name: "commands", Category: "commands"},
		},
	}
}

// ManifestPath returns the conventional manifest location for a version.
func (c *Config) ManifestPath(version string) string {
	return filepath.Join(c.ManifestDir, version+".yaml")
}
