package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/stagehand/internal/config"
	"github.com/example/stagehand/internal/core/staging"
	"github.com/example/stagehand/internal/manifest"
	"github.com/example/stagehand/internal/ports/primary"
	"github.com/example/stagehand/internal/ports/secondary"
)

// TransformServiceImpl implements the TransformService interface. It drives
// the two external phases against the staging tree, advancing the state
// machine and invoking the commit engine at the appropriate transitions.
// Everything is single-threaded and blocking: the service waits for each
// phase to return, however long it takes.
type TransformServiceImpl struct {
	stagingStore  secondary.StagingStore
	metadataStore secondary.MetadataStore
	production    secondary.ProductionStore
	historyRepo   secondary.HistoryRepository
	phaseRunner   secondary.PhaseRunner
	engine        *CommitEngine
	cfg           *config.Config
}

// NewTransformService creates a new TransformService with injected dependencies.
func NewTransformService(
	stagingStore secondary.StagingStore,
	metadataStore secondary.MetadataStore,
	production secondary.ProductionStore,
	historyRepo secondary.HistoryRepository,
	phaseRunner secondary.PhaseRunner,
	engine *CommitEngine,
	cfg *config.Config,
) *TransformServiceImpl {
	return &TransformServiceImpl{
		stagingStore:  stagingStore,
		metadataStore: metadataStore,
		production:    production,
		historyRepo:   historyRepo,
		phaseRunner:   phaseRunner,
		engine:        engine,
		cfg:           cfg,
	}
}

// Prepare creates the staging session, captures the production baseline and
// runs both phases. Any failure after the session exists routes to rollback;
// the original failure is returned to the caller.
func (s *TransformServiceImpl) Prepare(ctx context.Context, req primary.PrepareRequest) (*primary.PrepareResponse, error) {
	if req.TargetVersion == "" {
		return nil, fmt.Errorf("target version is required")
	}

	manifestPath := req.ManifestPath
	if manifestPath == "" {
		manifestPath = s.cfg.ManifestPath(req.TargetVersion)
	}
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}
	if m.Version != req.TargetVersion {
		return nil, fmt.Errorf("manifest declares version %q, requested %q", m.Version, req.TargetVersion)
	}

	// Root, category dirs and initial descriptor are published as one
	// step, so a crash immediately after creation still leaves a session
	// the recovery scan can classify by status.
	now := time.Now().UTC().Format(time.RFC3339)
	meta := &secondary.SessionMetadataRecord{
		Status:          string(staging.InitialStatus()),
		StartTime:       now,
		TargetVersion:   req.TargetVersion,
		PreviousVersion: req.PreviousVersion,
	}
	if _, err := s.stagingStore.CreateRoot(ctx, req.TargetVersion, meta); err != nil {
		return nil, err
	}

	historyID, err := s.openHistory(ctx, req.TargetVersion)
	if err != nil {
		return nil, s.failAndRollback(ctx, req.TargetVersion, err)
	}

	if err := s.captureBaseline(ctx, req.TargetVersion, meta, m); err != nil {
		return nil, s.failAndRollback(ctx, req.TargetVersion, err)
	}

	for phase := 1; phase <= 2; phase++ {
		if err := s.runPhase(ctx, req.TargetVersion, meta, phase); err != nil {
			return nil, s.failAndRollback(ctx, req.TargetVersion, err)
		}
	}

	meta, err = s.metadataStore.AdvanceStatus(ctx, req.TargetVersion, string(staging.StatusReady))
	if err != nil {
		return nil, s.failAndRollback(ctx, req.TargetVersion, err)
	}

	files, err := s.stagingStore.ListFiles(ctx, req.TargetVersion)
	if err != nil {
		return nil, s.failAndRollback(ctx, req.TargetVersion, err)
	}

	return &primary.PrepareResponse{
		HistoryID:   historyID,
		Session:     s.summarize(req.TargetVersion, meta, len(files)),
		StagedFiles: toFilePairs(files),
	}, nil
}

// Commit re-checks the baseline and moves staged files into production.
// Conflicts refuse the commit without touching the session; a pre-validation
// failure rolls the session back since nothing has moved yet; a partial
// commit is surfaced as fatal without rollback.
func (s *TransformServiceImpl) Commit(ctx context.Context, req primary.CommitRequest) (*primary.CommitResponse, error) {
	committed, historyID, err := s.engine.Commit(ctx, req.TargetVersion, req.OverrideConflicts)
	if err != nil {
		var preErr *staging.PreValidationError
		if errors.As(err, &preErr) {
			if rbErr := s.engine.Rollback(ctx, req.TargetVersion, secondary.OutcomeFailed, err.Error(), "commit pre-validation failed"); rbErr != nil {
				return nil, fmt.Errorf("rollback after pre-validation failure also failed (%v): %w", rbErr, err)
			}
		}
		return nil, err
	}

	return &primary.CommitResponse{
		HistoryID:      historyID,
		CommittedFiles: committed,
	}, nil
}

// Rollback cancels a session, deleting its staging root.
func (s *TransformServiceImpl) Rollback(ctx context.Context, req primary.RollbackRequest) error {
	reason := req.Reason
	if reason == "" {
		reason = "operator rollback"
	}
	return s.engine.Rollback(ctx, req.TargetVersion, secondary.OutcomeRolledBack, "", reason)
}

// ActiveSession returns a summary of the unresolved staging session, or nil
// when none exists.
func (s *TransformServiceImpl) ActiveSession(ctx context.Context) (*primary.SessionSummary, error) {
	roots, err := s.stagingStore.ListRoots(ctx)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return nil, nil
	}

	version := roots[0]
	meta, err := s.metadataStore.Read(ctx, version)
	if err != nil {
		var corrupt *staging.CorruptMetadataError
		if errors.As(err, &corrupt) {
			return &primary.SessionSummary{
				TargetVersion: version,
				Status:        "(corrupt metadata)",
				RootPath:      s.stagingStore.RootPath(version),
			}, nil
		}
		return nil, err
	}

	files, err := s.stagingStore.ListFiles(ctx, version)
	if err != nil {
		return nil, err
	}

	return s.summarize(version, meta, len(files)), nil
}

// runPhase invokes one external phase, records its result in the descriptor
// and advances the status. A reported failure is a failure transition
// regardless of which phase reported it.
func (s *TransformServiceImpl) runPhase(ctx context.Context, version string, meta *secondary.SessionMetadataRecord, phase int) error {
	pc := s.cfg.Phases[phase-1]
	if _, err := staging.ParseCategory(pc.Category); err != nil {
		return fmt.Errorf("phase %d (%s) is misconfigured: %w", phase, pc.Name, err)
	}
	result, err := s.phaseRunner.Run(ctx, secondary.PhaseInvocation{
		Phase:     phase,
		Name:      pc.Name,
		Command:   pc.Command,
		OutputDir: s.stagingStore.CategoryDir(version, pc.Category),
	})
	if err != nil {
		return err
	}

	meta.AgentResults[phase-1] = result
	if err := s.metadataStore.Write(ctx, version, meta); err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("phase %d (%s) failed: %s", phase, pc.Name, result.Error)
	}

	next, err := staging.PhaseStatus(phase)
	if err != nil {
		return err
	}
	updated, err := s.metadataStore.AdvanceStatus(ctx, version, string(next))
	if err != nil {
		return err
	}
	*meta = *updated

	return nil
}

// captureBaseline records the state of every production path the manifest
// declares. Captured once, never recomputed.
func (s *TransformServiceImpl) captureBaseline(ctx context.Context, version string, meta *secondary.SessionMetadataRecord, m *manifest.Manifest) error {
	entries := make(map[string]secondary.BaselineEntryRecord)
	for _, relPath := range m.ProductionPaths() {
		entry, err := s.production.Stat(ctx, relPath)
		if err != nil {
			return err
		}
		entries[relPath] = entry
	}

	meta.ProductionBaseline = &secondary.BaselineRecord{
		CapturedAt: time.Now().UTC().Format(time.RFC3339),
		Entries:    entries,
	}
	return s.metadataStore.Write(ctx, version, meta)
}

// failAndRollback routes a mid-pipeline failure to the rollback engine and
// returns the original error.
func (s *TransformServiceImpl) failAndRollback(ctx context.Context, version string, cause error) error {
	if err := s.engine.Rollback(ctx, version, secondary.OutcomeFailed, cause.Error(), "transformation failed"); err != nil {
		return fmt.Errorf("rollback failed (%v) after: %w", err, cause)
	}
	return cause
}

// openHistory creates the session's history entry at session start.
func (s *TransformServiceImpl) openHistory(ctx context.Context, version string) (string, error) {
	id, err := s.historyRepo.GetNextID(ctx)
	if err != nil {
		return "", err
	}
	entry := &secondary.HistoryRecord{ID: id, TargetVersion: version, SessionID: version}
	if err := s.historyRepo.Create(ctx, entry); err != nil {
		return "", err
	}
	return id, nil
}

func (s *TransformServiceImpl) summarize(version string, meta *secondary.SessionMetadataRecord, fileCount int) *primary.SessionSummary {
	return &primary.SessionSummary{
		TargetVersion:   version,
		PreviousVersion: meta.PreviousVersion,
		Status:          meta.Status,
		StartTime:       meta.StartTime,
		RootPath:        s.stagingStore.RootPath(version),
		FileCount:       fileCount,
	}
}

func toFilePairs(files []*secondary.StagedFileRecord) []primary.FilePair {
	pairs := make([]primary.FilePair, len(files))
	for i, f := range files {
		pairs[i] = primary.FilePair{Category: f.Category, Source: f.SourcePath, Dest: f.DestPath}
	}
	return pairs
}

// Ensure TransformServiceImpl implements the interface
var _ primary.TransformService = (*TransformServiceImpl)(nil)
