package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/example/stagehand/internal/core/staging"
	"github.com/example/stagehand/internal/ports/secondary"
)

// DescriptorName is the staging descriptor file inside each staging root.
const DescriptorName = "staging.json"

// MetadataStore implements secondary.MetadataStore as a JSON descriptor
// co-located with the staging root. The descriptor is treated as untrusted
// input: it is validated against the record schema on every read and write.
type MetadataStore struct {
	stagingBase string
	validate    *validator.Validate
}

// NewMetadataStore creates a metadata store for the given staging namespace.
func NewMetadataStore(stagingBase string) *MetadataStore {
	return &MetadataStore{
		stagingBase: stagingBase,
		validate:    validator.New(),
	}
}

// DescriptorPath returns the descriptor path for a version.
func (m *MetadataStore) DescriptorPath(version string) string {
	return filepath.Join(m.stagingBase, version, DescriptorName)
}

// Write validates the descriptor and persists it atomically via
// write-to-temp-file-then-rename, so a crash mid-write never leaves a
// corrupt descriptor visible.
func (m *MetadataStore) Write(ctx context.Context, version string, meta *secondary.SessionMetadataRecord) error {
	data, err := encodeDescriptor(m.validate, version, meta)
	if err != nil {
		return fmt.Errorf("refusing to write invalid staging metadata: %w", err)
	}

	path := m.DescriptorPath(version)
	tmp, err := os.CreateTemp(filepath.Dir(path), DescriptorName+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp descriptor: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp descriptor: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp descriptor: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to publish descriptor: %w", err)
	}

	return nil
}

// Read parses and validates the descriptor. Missing or schema-violating
// descriptors yield a staging.CorruptMetadataError rather than a guessed
// default.
func (m *MetadataStore) Read(ctx context.Context, version string) (*secondary.SessionMetadataRecord, error) {
	path := m.DescriptorPath(version)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &staging.CorruptMetadataError{Path: path, Reason: "descriptor file missing"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read staging metadata: %w", err)
	}

	var meta secondary.SessionMetadataRecord
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, &staging.CorruptMetadataError{Path: path, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	if err := m.validateRecord(version, &meta); err != nil {
		return nil, &staging.CorruptMetadataError{Path: path, Reason: err.Error()}
	}

	return &meta, nil
}

// AdvanceStatus persists a status change after checking it against the state
// machine. Advancing to a phase-complete status additionally requires the
// corresponding agent result to be present and successful.
func (m *MetadataStore) AdvanceStatus(ctx context.Context, version, newStatus string) (*secondary.SessionMetadataRecord, error) {
	meta, err := m.Read(ctx, version)
	if err != nil {
		return nil, err
	}

	from := staging.Status(meta.Status)
	to := staging.Status(newStatus)
	if err := staging.CanTransition(from, to); err != nil {
		return nil, err
	}

	for phase := 1; phase <= 2; phase++ {
		want, _ := staging.PhaseStatus(phase)
		if to != want {
			continue
		}
		result := meta.AgentResults[phase-1]
		guard := staging.CanCompletePhase(staging.PhaseContext{
			Phase:         phase,
			ResultPresent: result != nil,
			Success:       result != nil && result.Success,
		})
		if err := guard.Error(); err != nil {
			return nil, err
		}
	}

	meta.Status = newStatus
	if err := m.Write(ctx, version, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// validateRecord applies schema validation plus the invariant that the
// descriptor's target version equals the staging root's directory name.
func (m *MetadataStore) validateRecord(version string, meta *secondary.SessionMetadataRecord) error {
	return validateDescriptor(m.validate, version, meta)
}

func validateDescriptor(v *validator.Validate, version string, meta *secondary.SessionMetadataRecord) error {
	if err := v.Struct(meta); err != nil {
		return err
	}
	if meta.TargetVersion != version {
		return fmt.Errorf("targetVersion %q does not match staging root %q", meta.TargetVersion, version)
	}
	return nil
}

// encodeDescriptor validates a descriptor and renders its on-disk form.
// Shared with the staging store, which writes the initial descriptor as
// part of root creation.
func encodeDescriptor(v *validator.Validate, version string, meta *secondary.SessionMetadataRecord) ([]byte, error) {
	if err := validateDescriptor(v, version, meta); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal staging metadata: %w", err)
	}
	return data, nil
}

// Ensure MetadataStore implements the interface
var _ secondary.MetadataStore = (*MetadataStore)(nil)
