// Package app implements the primary ports. Services orchestrate the pure
// core against the filesystem, subprocess and persistence adapters.
package app

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/example/stagehand/internal/core/staging"
	"github.com/example/stagehand/internal/ports/secondary"
)

// CommitEngine performs the terminal transitions of a staging session: the
// sequential move of staged files into production, and rollback. It is
// shared by the transform and recovery services. Only this component writes
// to production directories.
type CommitEngine struct {
	stagingStore  secondary.StagingStore
	metadataStore secondary.MetadataStore
	production    secondary.ProductionStore
	historyRepo   secondary.HistoryRepository
}

// NewCommitEngine creates a commit engine with injected adapters.
func NewCommitEngine(
	stagingStore secondary.StagingStore,
	metadataStore secondary.MetadataStore,
	production secondary.ProductionStore,
	historyRepo secondary.HistoryRepository,
) *CommitEngine {
	return &CommitEngine{
		stagingStore:  stagingStore,
		metadataStore: metadataStore,
		production:    production,
		historyRepo:   historyRepo,
	}
}

// DetectConflicts re-stats every baseline path and returns the paths whose
// current state differs from the recorded baseline. Runs once, immediately
// before commit; a conflict introduced after this check is an accepted
// limitation of the design.
func (e *CommitEngine) DetectConflicts(ctx context.Context, meta *secondary.SessionMetadataRecord) ([]string, error) {
	if meta.ProductionBaseline == nil {
		return nil, fmt.Errorf("session %s has no production baseline", meta.TargetVersion)
	}

	baseline := make(map[string]staging.BaselineEntry, len(meta.ProductionBaseline.Entries))
	current := make(map[string]staging.BaselineEntry, len(meta.ProductionBaseline.Entries))

	for relPath, recorded := range meta.ProductionBaseline.Entries {
		baseline[relPath] = staging.BaselineEntry{Exists: recorded.Exists, MTime: recorded.MTimeNs, Size: recorded.Size}

		now, err := e.production.Stat(ctx, relPath)
		if err != nil {
			return nil, err
		}
		current[relPath] = staging.BaselineEntry{Exists: now.Exists, MTime: now.MTimeNs, Size: now.Size}
	}

	return staging.DiffBaseline(baseline, current), nil
}

// Commit validates preconditions and sequentially moves staged files into
// production. Each individual move is an atomic rename; the sequence as a
// whole is best-effort: pre-validation guarantees nothing has moved when it
// fails, and a rename failing mid-sequence leaves already-moved files in
// place, recorded in a 'partial' history entry.
func (e *CommitEngine) Commit(ctx context.Context, version string, override bool) ([]string, string, error) {
	meta, err := e.metadataStore.Read(ctx, version)
	if err != nil {
		return nil, "", err
	}

	files, err := e.stagingStore.ListFiles(ctx, version)
	if err != nil {
		return nil, "", err
	}

	// Status guard first: a session that never reached baseline capture is
	// refused for its status, not for the missing baseline.
	if staging.Status(meta.Status) != staging.StatusReady {
		return nil, "", staging.CanCommit(staging.CommitContext{
			Status:          staging.Status(meta.Status),
			StagedFileCount: len(files),
		}).Error()
	}

	conflicts, err := e.DetectConflicts(ctx, meta)
	if err != nil {
		return nil, "", err
	}

	guard := staging.CanCommit(staging.CommitContext{
		Status:            staging.Status(meta.Status),
		ConflictCount:     len(conflicts),
		ConflictsOverride: override,
		StagedFileCount:   len(files),
	})
	if !guard.Allowed {
		if len(conflicts) > 0 && !override {
			return nil, "", &staging.ConflictError{Paths: conflicts}
		}
		return nil, "", guard.Error()
	}

	// Pre-validation: after this block nothing can fail for a reason we
	// could have known upfront, so a failure here means no partial state.
	for _, f := range files {
		relPath := path.Join(f.Category, f.RelPath)
		if _, declared := meta.ProductionBaseline.Entries[relPath]; !declared {
			return nil, "", &staging.PreValidationError{
				Path: relPath,
				Err:  fmt.Errorf("staged file is not declared in the version manifest baseline"),
			}
		}
		if err := e.production.CheckReadable(ctx, f.SourcePath); err != nil {
			return nil, "", &staging.PreValidationError{Path: f.SourcePath, Err: err}
		}
		if err := e.production.EnsureParentDir(ctx, f.DestPath); err != nil {
			return nil, "", &staging.PreValidationError{Path: f.DestPath, Err: err}
		}
	}

	entry, err := e.ensureOpenEntry(ctx, version)
	if err != nil {
		return nil, "", err
	}

	if _, err := e.metadataStore.AdvanceStatus(ctx, version, string(staging.StatusCommitting)); err != nil {
		return nil, "", err
	}

	var committed []string
	for _, f := range files {
		if err := e.production.Rename(ctx, f.SourcePath, f.DestPath); err != nil {
			return e.finishPartial(ctx, version, entry.ID, committed, f.DestPath, err)
		}
		committed = append(committed, f.DestPath)
	}

	if _, err := e.metadataStore.AdvanceStatus(ctx, version, string(staging.StatusCommitted)); err != nil {
		return nil, "", err
	}
	if err := e.historyRepo.Finalize(ctx, entry.ID, secondary.OutcomeTransformed, "", "", committed); err != nil {
		return nil, "", err
	}
	if err := e.stagingStore.RemoveRoot(ctx, version); err != nil {
		return nil, "", err
	}

	return committed, entry.ID, nil
}

// finishPartial records the one acknowledged non-atomic edge case: a rename
// failed after earlier renames succeeded. Already-moved files are not undone
// (undoing would itself be non-atomic); the committed subset is recorded and
// the staging root is left in place for manual inspection.
func (e *CommitEngine) finishPartial(ctx context.Context, version, entryID string, committed []string, failedPath string, cause error) ([]string, string, error) {
	partial := &staging.PartialCommitError{
		Committed:  committed,
		FailedPath: failedPath,
		Err:        cause,
	}

	// Best-effort: the descriptor may itself be unwritable at this point.
	_, _ = e.metadataStore.AdvanceStatus(ctx, version, string(staging.StatusFailed))

	if committed == nil {
		committed = []string{}
	}
	if err := e.historyRepo.Finalize(ctx, entryID, secondary.OutcomePartial, partial.Error(), "", committed); err != nil {
		return nil, "", fmt.Errorf("failed to record partial commit (%v): %w", partial, err)
	}

	return committed, entryID, partial
}

// Rollback deletes the staging root and ensures exactly one terminal history
// entry exists for the session. Idempotent: rolling back an already-absent
// root is a no-op apart from the history guarantee, which covers a previous
// rollback that crashed after deleting files but before finalizing history.
func (e *CommitEngine) Rollback(ctx context.Context, version, outcome, errMsg, reason string) error {
	// Best-effort terminal status for whoever reads the descriptor before
	// the tree disappears; illegal or impossible transitions are ignored.
	if meta, err := e.metadataStore.Read(ctx, version); err == nil {
		cur := staging.Status(meta.Status)
		switch {
		case staging.CanTransition(cur, staging.StatusRolledBack) == nil:
			_, _ = e.metadataStore.AdvanceStatus(ctx, version, string(staging.StatusRolledBack))
		case staging.CanTransition(cur, staging.StatusFailed) == nil:
			_, _ = e.metadataStore.AdvanceStatus(ctx, version, string(staging.StatusFailed))
		}
	}

	if err := e.stagingStore.RemoveRoot(ctx, version); err != nil {
		return err
	}

	open, err := e.historyRepo.GetOpenBySession(ctx, version)
	if err != nil {
		return err
	}
	if open != nil {
		return e.historyRepo.Finalize(ctx, open.ID, outcome, errMsg, reason, nil)
	}

	latest, err := e.historyRepo.GetLatestBySession(ctx, version)
	if err != nil {
		return err
	}
	if latest != nil {
		// Already finalized by an earlier attempt; exactly one terminal
		// entry exists, nothing to do.
		return nil
	}

	id, err := e.historyRepo.GetNextID(ctx)
	if err != nil {
		return err
	}
	entry := &secondary.HistoryRecord{ID: id, TargetVersion: version, SessionID: version}
	if err := e.historyRepo.Create(ctx, entry); err != nil {
		return err
	}
	return e.historyRepo.Finalize(ctx, id, outcome, errMsg, reason, nil)
}

// ensureOpenEntry returns the session's unfinalized history entry, creating
// one when a recovered session somehow has none.
func (e *CommitEngine) ensureOpenEntry(ctx context.Context, version string) (*secondary.HistoryRecord, error) {
	open, err := e.historyRepo.GetOpenBySession(ctx, version)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return open, nil
	}

	id, err := e.historyRepo.GetNextID(ctx)
	if err != nil {
		return nil, err
	}
	entry := &secondary.HistoryRecord{ID: id, TargetVersion: version, SessionID: version}
	if err := e.historyRepo.Create(ctx, entry); err != nil {
		return nil, err
	}
	entry.Outcome = secondary.OutcomeStarted
	return entry, nil
}

// IsConflict reports whether err is a conflict refusal.
func IsConflict(err error) bool {
	var ce *staging.ConflictError
	return errors.As(err, &ce)
}
