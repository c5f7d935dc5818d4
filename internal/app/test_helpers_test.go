package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/example/stagehand/internal/core/staging"
	"github.com/example/stagehand/internal/ports/secondary"
)

// Ensure the mocks implement the interfaces
var _ secondary.StagingStore = (*mockStagingStore)(nil)
var _ secondary.MetadataStore = (*mockMetadataStore)(nil)
var _ secondary.ProductionStore = (*mockProductionStore)(nil)
var _ secondary.PhaseRunner = (*mockPhaseRunner)(nil)
var _ secondary.HistoryRepository = (*mockHistoryRepository)(nil)

// mockStagingStore implements secondary.StagingStore for testing.
type mockStagingStore struct {
	base         string
	roots        map[string]bool
	files        map[string][]*secondary.StagedFileRecord
	removed      []string
	createErr    error
	removeErr    error
	listFilesErr error

	// metadata receives the initial descriptor on CreateRoot, the way the
	// real adapter publishes root and descriptor as one step.
	metadata *mockMetadataStore
}

func newMockStagingStore() *mockStagingStore {
	return &mockStagingStore{
		base:  "/staging",
		roots: make(map[string]bool),
		files: make(map[string][]*secondary.StagedFileRecord),
	}
}

func (m *mockStagingStore) CreateRoot(ctx context.Context, version string, meta *secondary.SessionMetadataRecord) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	if len(m.roots) > 0 {
		var versions []string
		for v := range m.roots {
			versions = append(versions, v)
		}
		sort.Strings(versions)
		return "", &staging.SessionExistsError{Versions: versions}
	}
	if m.metadata != nil {
		if err := m.metadata.Write(ctx, version, meta); err != nil {
			return "", err
		}
	}
	m.roots[version] = true
	return m.RootPath(version), nil
}

func (m *mockStagingStore) ListRoots(ctx context.Context) ([]string, error) {
	var versions []string
	for v := range m.roots {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions, nil
}

func (m *mockStagingStore) RootExists(ctx context.Context, version string) (bool, error) {
	return m.roots[version], nil
}

func (m *mockStagingStore) RootPath(version string) string {
	return m.base + "/" + version
}

func (m *mockStagingStore) CategoryDir(version, category string) string {
	return m.RootPath(version) + "/" + category
}

func (m *mockStagingStore) RemoveRoot(ctx context.Context, version string) error {
	if m.removeErr != nil {
		return m.removeErr
	}
	delete(m.roots, version)
	delete(m.files, version)
	m.removed = append(m.removed, version)
	return nil
}

func (m *mockStagingStore) ListFiles(ctx context.Context, version string) ([]*secondary.StagedFileRecord, error) {
	if m.listFilesErr != nil {
		return nil, m.listFilesErr
	}
	return m.files[version], nil
}

// stage adds a staged file record, computing paths the way the real adapter
// does.
func (m *mockStagingStore) stage(version, category, relPath string) {
	m.files[version] = append(m.files[version], &secondary.StagedFileRecord{
		Category:   category,
		RelPath:    relPath,
		SourcePath: m.CategoryDir(version, category) + "/" + relPath,
		DestPath:   "/production/" + category + "/" + relPath,
	})
}

// mockMetadataStore implements secondary.MetadataStore for testing.
type mockMetadataStore struct {
	metas    map[string]*secondary.SessionMetadataRecord
	corrupt  map[string]string // version -> corruption reason
	writeErr error
}

func newMockMetadataStore() *mockMetadataStore {
	return &mockMetadataStore{
		metas:   make(map[string]*secondary.SessionMetadataRecord),
		corrupt: make(map[string]string),
	}
}

func (m *mockMetadataStore) Write(ctx context.Context, version string, meta *secondary.SessionMetadataRecord) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	stored := *meta
	m.metas[version] = &stored
	return nil
}

func (m *mockMetadataStore) Read(ctx context.Context, version string) (*secondary.SessionMetadataRecord, error) {
	if reason, ok := m.corrupt[version]; ok {
		return nil, &staging.CorruptMetadataError{Path: "/staging/" + version + "/staging.json", Reason: reason}
	}
	meta, ok := m.metas[version]
	if !ok {
		return nil, &staging.CorruptMetadataError{Path: "/staging/" + version + "/staging.json", Reason: "descriptor file missing"}
	}
	copied := *meta
	return &copied, nil
}

func (m *mockMetadataStore) AdvanceStatus(ctx context.Context, version, newStatus string) (*secondary.SessionMetadataRecord, error) {
	meta, err := m.Read(ctx, version)
	if err != nil {
		return nil, err
	}
	if err := staging.CanTransition(staging.Status(meta.Status), staging.Status(newStatus)); err != nil {
		return nil, err
	}
	meta.Status = newStatus
	if err := m.Write(ctx, version, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// status returns the persisted status for assertions.
func (m *mockMetadataStore) status(version string) string {
	if meta, ok := m.metas[version]; ok {
		return meta.Status
	}
	return ""
}

// mockProductionStore implements secondary.ProductionStore for testing.
type mockProductionStore struct {
	entries    map[string]secondary.BaselineEntryRecord // relPath -> current observation
	unreadable map[string]error                         // source path -> error
	parentErr  map[string]error                         // dest path -> error
	renameErr  map[string]error                         // dest path -> error
	renamed    []string                                 // dest paths, in rename order
	statErr    error
}

func newMockProductionStore() *mockProductionStore {
	return &mockProductionStore{
		entries:    make(map[string]secondary.BaselineEntryRecord),
		unreadable: make(map[string]error),
		parentErr:  make(map[string]error),
		renameErr:  make(map[string]error),
	}
}

func (m *mockProductionStore) Root(category string) string {
	return "/production/" + category
}

func (m *mockProductionStore) Resolve(relPath string) string {
	return "/production/" + relPath
}

func (m *mockProductionStore) Stat(ctx context.Context, relPath string) (secondary.BaselineEntryRecord, error) {
	if m.statErr != nil {
		return secondary.BaselineEntryRecord{}, m.statErr
	}
	return m.entries[relPath], nil
}

func (m *mockProductionStore) EnsureParentDir(ctx context.Context, destPath string) error {
	return m.parentErr[destPath]
}

func (m *mockProductionStore) CheckReadable(ctx context.Context, path string) error {
	return m.unreadable[path]
}

func (m *mockProductionStore) Rename(ctx context.Context, src, dst string) error {
	if err := m.renameErr[dst]; err != nil {
		return err
	}
	m.renamed = append(m.renamed, dst)
	return nil
}

// mockPhaseRunner implements secondary.PhaseRunner for testing.
type mockPhaseRunner struct {
	// runFunc, when set, handles every invocation; otherwise results and
	// errs are consulted per phase.
	runFunc func(inv secondary.PhaseInvocation) (*secondary.AgentResultRecord, error)
	results [2]*secondary.AgentResultRecord
	errs    [2]error
	invoked []secondary.PhaseInvocation
}

func newMockPhaseRunner() *mockPhaseRunner {
	r := &mockPhaseRunner{}
	r.results[0] = &secondary.AgentResultRecord{Success: true, DurationMs: 10}
	r.results[1] = &secondary.AgentResultRecord{Success: true, DurationMs: 10}
	return r
}

func (m *mockPhaseRunner) Run(ctx context.Context, inv secondary.PhaseInvocation) (*secondary.AgentResultRecord, error) {
	m.invoked = append(m.invoked, inv)
	if m.runFunc != nil {
		return m.runFunc(inv)
	}
	if err := m.errs[inv.Phase-1]; err != nil {
		return nil, err
	}
	return m.results[inv.Phase-1], nil
}

// mockHistoryRepository implements secondary.HistoryRepository for testing.
type mockHistoryRepository struct {
	entries     []*secondary.HistoryRecord
	createErr   error
	finalizeErr error
}

func newMockHistoryRepository() *mockHistoryRepository {
	return &mockHistoryRepository{}
}

func (m *mockHistoryRepository) Create(ctx context.Context, entry *secondary.HistoryRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	stored := *entry
	stored.Outcome = secondary.OutcomeStarted
	stored.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	m.entries = append(m.entries, &stored)
	return nil
}

func (m *mockHistoryRepository) Finalize(ctx context.Context, id, outcome, errMsg, rollbackReason string, committedFiles []string) error {
	if m.finalizeErr != nil {
		return m.finalizeErr
	}
	for _, e := range m.entries {
		if e.ID == id {
			if e.Outcome != secondary.OutcomeStarted {
				return fmt.Errorf("history entry %s not found or already finalized", id)
			}
			e.Outcome = outcome
			e.Error = errMsg
			e.RollbackReason = rollbackReason
			e.CommittedFiles = committedFiles
			e.FinishedAt = time.Now().UTC().Format(time.RFC3339)
			return nil
		}
	}
	return fmt.Errorf("history entry %s not found or already finalized", id)
}

func (m *mockHistoryRepository) GetByID(ctx context.Context, id string) (*secondary.HistoryRecord, error) {
	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, fmt.Errorf("history entry not found: %s", id)
}

func (m *mockHistoryRepository) GetOpenBySession(ctx context.Context, sessionID string) (*secondary.HistoryRecord, error) {
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if e.SessionID == sessionID && e.Outcome == secondary.OutcomeStarted {
			return e, nil
		}
	}
	return nil, nil
}

func (m *mockHistoryRepository) GetLatestBySession(ctx context.Context, sessionID string) (*secondary.HistoryRecord, error) {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].SessionID == sessionID {
			return m.entries[i], nil
		}
	}
	return nil, nil
}

func (m *mockHistoryRepository) List(ctx context.Context, limit int) ([]*secondary.HistoryRecord, error) {
	var result []*secondary.HistoryRecord
	for i := len(m.entries) - 1; i >= 0; i-- {
		if limit > 0 && len(result) >= limit {
			break
		}
		result = append(result, m.entries[i])
	}
	return result, nil
}

func (m *mockHistoryRepository) GetNextID(ctx context.Context) (string, error) {
	return fmt.Sprintf("TX-%03d", len(m.entries)+1), nil
}

// bySession returns every entry for a session, oldest first.
func (m *mockHistoryRepository) bySession(sessionID string) []*secondary.HistoryRecord {
	var result []*secondary.HistoryRecord
	for _, e := range m.entries {
		if e.SessionID == sessionID {
			result = append(result, e)
		}
	}
	return result
}
