package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/example/stagehand/internal/core/staging"
	"github.com/example/stagehand/internal/ports/secondary"
)

// ============================================================================
// Test Helper
// ============================================================================

type engineFixture struct {
	engine     *CommitEngine
	staging    *mockStagingStore
	metadata   *mockMetadataStore
	production *mockProductionStore
	history    *mockHistoryRepository
}

func newEngineFixture() *engineFixture {
	f := &engineFixture{
		staging:    newMockStagingStore(),
		metadata:   newMockMetadataStore(),
		production: newMockProductionStore(),
		history:    newMockHistoryRepository(),
	}
	f.staging.metadata = f.metadata
	f.engine = NewCommitEngine(f.staging, f.metadata, f.production, f.history)
	return f
}

// seedReadySession stands up a session at status ready with two staged files
// and a baseline covering both, plus an open history entry. Mirrors the state
// the transform service leaves behind after both phases succeed.
func (f *engineFixture) seedReadySession(t *testing.T, version string) {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Format(time.RFC3339)
	meta := &secondary.SessionMetadataRecord{
		Status:        string(staging.StatusReady),
		StartTime:     now,
		TargetVersion: version,
		ProductionBaseline: &secondary.BaselineRecord{
			CapturedAt: now,
			Entries: map[string]secondary.BaselineEntryRecord{
				"scripts/run.sh":     {},
				"commands/deploy.md": {},
			},
		},
	}
	if _, err := f.staging.CreateRoot(ctx, version, meta); err != nil {
		t.Fatalf("failed to seed staging root: %v", err)
	}
	f.staging.stage(version, "scripts", "run.sh")
	f.staging.stage(version, "commands", "deploy.md")

	id, _ := f.history.GetNextID(ctx)
	if err := f.history.Create(ctx, &secondary.HistoryRecord{ID: id, TargetVersion: version, SessionID: version}); err != nil {
		t.Fatalf("failed to seed history entry: %v", err)
	}
}

// ============================================================================
// Commit Tests
// ============================================================================

func TestCommit_Success(t *testing.T) {
	f := newEngineFixture()
	f.seedReadySession(t, "v2.0")
	ctx := context.Background()

	committed, historyID, err := f.engine.Commit(ctx, "v2.0", false)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(committed) != 2 {
		t.Fatalf("expected 2 committed files, got %d", len(committed))
	}
	if len(f.production.renamed) != 2 {
		t.Errorf("expected 2 renames, got %d", len(f.production.renamed))
	}
	if f.metadata.status("v2.0") != string(staging.StatusCommitted) {
		t.Errorf("expected status committed, got %s", f.metadata.status("v2.0"))
	}
	if f.staging.roots["v2.0"] {
		t.Error("expected staging root to be removed after full commit")
	}

	entry, err := f.history.GetByID(ctx, historyID)
	if err != nil {
		t.Fatalf("failed to load history entry: %v", err)
	}
	if entry.Outcome != secondary.OutcomeTransformed {
		t.Errorf("expected outcome transformed, got %s", entry.Outcome)
	}
	if len(entry.CommittedFiles) != 2 {
		t.Errorf("expected 2 committed files in history, got %d", len(entry.CommittedFiles))
	}
}

func TestCommit_RefusesWhenNotReady(t *testing.T) {
	f := newEngineFixture()
	f.seedReadySession(t, "v2.0")
	ctx := context.Background()

	meta, _ := f.metadata.Read(ctx, "v2.0")
	meta.Status = string(staging.StatusPhase1Complete)
	_ = f.metadata.Write(ctx, "v2.0", meta)

	_, _, err := f.engine.Commit(ctx, "v2.0", false)
	if err == nil {
		t.Fatal("expected error committing a session that is not ready")
	}
	if len(f.production.renamed) != 0 {
		t.Error("expected no renames on refused commit")
	}
}

func TestCommit_StatusGuardPrecedesConflictDetection(t *testing.T) {
	f := newEngineFixture()
	f.seedReadySession(t, "v2.0")
	ctx := context.Background()

	// A session stuck before baseline capture has no baseline to diff; the
	// refusal must still name the status.
	meta, _ := f.metadata.Read(ctx, "v2.0")
	meta.Status = string(staging.StatusStaging)
	meta.ProductionBaseline = nil
	_ = f.metadata.Write(ctx, "v2.0", meta)

	_, _, err := f.engine.Commit(ctx, "v2.0", false)
	if err == nil || !strings.Contains(err.Error(), "cannot commit session with status") {
		t.Fatalf("expected the status refusal, got %v", err)
	}
	if len(f.production.renamed) != 0 {
		t.Error("expected no renames on refused commit")
	}
}

func TestCommit_ConflictRefusal(t *testing.T) {
	f := newEngineFixture()
	f.seedReadySession(t, "v2.0")
	ctx := context.Background()

	// Production drifted after baseline capture.
	f.production.entries["scripts/run.sh"] = secondary.BaselineEntryRecord{Exists: true, MTimeNs: 42, Size: 100}

	_, _, err := f.engine.Commit(ctx, "v2.0", false)
	var ce *staging.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if len(ce.Paths) != 1 || ce.Paths[0] != "scripts/run.sh" {
		t.Errorf("unexpected conflict paths: %v", ce.Paths)
	}
	if len(f.production.renamed) != 0 {
		t.Error("expected no renames on conflict refusal")
	}
	if f.metadata.status("v2.0") != string(staging.StatusReady) {
		t.Errorf("expected session to stay ready, got %s", f.metadata.status("v2.0"))
	}
	if open, _ := f.history.GetOpenBySession(ctx, "v2.0"); open == nil {
		t.Error("expected history entry to remain open after conflict refusal")
	}
}

func TestCommit_ConflictOverride(t *testing.T) {
	f := newEngineFixture()
	f.seedReadySession(t, "v2.0")
	ctx := context.Background()

	f.production.entries["scripts/run.sh"] = secondary.BaselineEntryRecord{Exists: true, MTimeNs: 42, Size: 100}

	committed, _, err := f.engine.Commit(ctx, "v2.0", true)
	if err != nil {
		t.Fatalf("expected override to proceed, got %v", err)
	}
	if len(committed) != 2 {
		t.Errorf("expected 2 committed files, got %d", len(committed))
	}
}

func TestCommit_PreValidation_UndeclaredPath(t *testing.T) {
	f := newEngineFixture()
	f.seedReadySession(t, "v2.0")
	ctx := context.Background()

	// A phase wrote a file the manifest never declared.
	f.staging.stage("v2.0", "scripts", "rogue.sh")

	_, _, err := f.engine.Commit(ctx, "v2.0", false)
	var pe *staging.PreValidationError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PreValidationError, got %v", err)
	}
	if pe.Path != "scripts/rogue.sh" {
		t.Errorf("unexpected failing path: %s", pe.Path)
	}
	if len(f.production.renamed) != 0 {
		t.Error("expected no renames when pre-validation fails")
	}
}

func TestCommit_PreValidation_UnreadableSource(t *testing.T) {
	f := newEngineFixture()
	f.seedReadySession(t, "v2.0")
	ctx := context.Background()

	src := f.staging.files["v2.0"][1].SourcePath
	f.production.unreadable[src] = fmt.Errorf("permission denied")

	_, _, err := f.engine.Commit(ctx, "v2.0", false)
	var pe *staging.PreValidationError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PreValidationError, got %v", err)
	}
	if len(f.production.renamed) != 0 {
		t.Error("expected no renames when a source is unreadable")
	}
}

func TestCommit_PartialFailure(t *testing.T) {
	f := newEngineFixture()
	f.seedReadySession(t, "v2.0")
	ctx := context.Background()

	secondDest := f.staging.files["v2.0"][1].DestPath
	f.production.renameErr[secondDest] = fmt.Errorf("device busy")

	committed, historyID, err := f.engine.Commit(ctx, "v2.0", false)
	var pe *staging.PartialCommitError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PartialCommitError, got %v", err)
	}
	if len(committed) != 1 {
		t.Fatalf("expected exactly the first file committed, got %d", len(committed))
	}
	if pe.FailedPath != secondDest {
		t.Errorf("unexpected failed path: %s", pe.FailedPath)
	}
	if f.staging.roots["v2.0"] != true {
		t.Error("expected staging root to be left in place after partial commit")
	}
	if f.metadata.status("v2.0") != string(staging.StatusFailed) {
		t.Errorf("expected status failed, got %s", f.metadata.status("v2.0"))
	}

	entry, getErr := f.history.GetByID(ctx, historyID)
	if getErr != nil {
		t.Fatalf("failed to load history entry: %v", getErr)
	}
	if entry.Outcome != secondary.OutcomePartial {
		t.Errorf("expected outcome partial, got %s", entry.Outcome)
	}
	if len(entry.CommittedFiles) != 1 || entry.CommittedFiles[0] != committed[0] {
		t.Errorf("expected committed subset %v in history, got %v", committed, entry.CommittedFiles)
	}
}

func TestCommit_EmptyStagingTree(t *testing.T) {
	f := newEngineFixture()
	f.seedReadySession(t, "v2.0")
	ctx := context.Background()

	f.staging.files["v2.0"] = nil

	_, _, err := f.engine.Commit(ctx, "v2.0", false)
	if err == nil {
		t.Fatal("expected error committing an empty staging tree")
	}
}

// ============================================================================
// Rollback Tests
// ============================================================================

func TestRollback_FinalizesOpenEntry(t *testing.T) {
	f := newEngineFixture()
	f.seedReadySession(t, "v2.0")
	ctx := context.Background()

	err := f.engine.Rollback(ctx, "v2.0", secondary.OutcomeRolledBack, "", "operator rollback")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if f.staging.roots["v2.0"] {
		t.Error("expected staging root to be removed")
	}

	entries := f.history.bySession("v2.0")
	if len(entries) != 1 {
		t.Fatalf("expected exactly 1 history entry, got %d", len(entries))
	}
	if entries[0].Outcome != secondary.OutcomeRolledBack {
		t.Errorf("expected outcome rolled-back, got %s", entries[0].Outcome)
	}
	if entries[0].RollbackReason != "operator rollback" {
		t.Errorf("unexpected rollback reason: %s", entries[0].RollbackReason)
	}
	if f.metadata.status("v2.0") != string(staging.StatusRolledBack) {
		t.Errorf("expected status rolled-back, got %s", f.metadata.status("v2.0"))
	}
}

func TestRollback_Idempotent(t *testing.T) {
	f := newEngineFixture()
	f.seedReadySession(t, "v2.0")
	ctx := context.Background()

	if err := f.engine.Rollback(ctx, "v2.0", secondary.OutcomeRolledBack, "", "first"); err != nil {
		t.Fatalf("first rollback failed: %v", err)
	}
	if err := f.engine.Rollback(ctx, "v2.0", secondary.OutcomeRolledBack, "", "second"); err != nil {
		t.Fatalf("repeated rollback should be a no-op, got %v", err)
	}

	entries := f.history.bySession("v2.0")
	if len(entries) != 1 {
		t.Fatalf("expected exactly 1 terminal history entry after repeated rollback, got %d", len(entries))
	}
	if entries[0].RollbackReason != "first" {
		t.Errorf("expected the first finalization to win, got reason %s", entries[0].RollbackReason)
	}
}

func TestRollback_CreatesEntryWhenNoneExists(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	// A crashed run that deleted its staging root and never recorded
	// history. Rollback still leaves exactly one terminal entry.
	err := f.engine.Rollback(ctx, "v3.0", secondary.OutcomeRolledBack, "", "orphan rollback")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	entries := f.history.bySession("v3.0")
	if len(entries) != 1 {
		t.Fatalf("expected exactly 1 history entry, got %d", len(entries))
	}
	if entries[0].Outcome != secondary.OutcomeRolledBack {
		t.Errorf("expected outcome rolled-back, got %s", entries[0].Outcome)
	}
}

func TestRollback_FailedSessionGetsFailedStatus(t *testing.T) {
	f := newEngineFixture()
	f.seedReadySession(t, "v2.0")
	ctx := context.Background()

	// Session stuck mid-pipeline; rolled-back is not reachable from
	// phase1-complete, failed is.
	meta, _ := f.metadata.Read(ctx, "v2.0")
	meta.Status = string(staging.StatusPhase1Complete)
	_ = f.metadata.Write(ctx, "v2.0", meta)

	if err := f.engine.Rollback(ctx, "v2.0", secondary.OutcomeFailed, "phase 2 failed", "transformation failed"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if f.metadata.status("v2.0") != string(staging.StatusFailed) {
		t.Errorf("expected status failed, got %s", f.metadata.status("v2.0"))
	}
}

// ============================================================================
// DetectConflicts Tests
// ============================================================================

func TestDetectConflicts_ReportsDrift(t *testing.T) {
	f := newEngineFixture()
	f.seedReadySession(t, "v2.0")
	ctx := context.Background()

	f.production.entries["commands/deploy.md"] = secondary.BaselineEntryRecord{Exists: true, MTimeNs: 7, Size: 9}

	meta, _ := f.metadata.Read(ctx, "v2.0")
	conflicts, err := f.engine.DetectConflicts(ctx, meta)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(conflicts) != 1 || conflicts[0] != "commands/deploy.md" {
		t.Errorf("unexpected conflicts: %v", conflicts)
	}
}

func TestDetectConflicts_CleanBaseline(t *testing.T) {
	f := newEngineFixture()
	f.seedReadySession(t, "v2.0")
	ctx := context.Background()

	meta, _ := f.metadata.Read(ctx, "v2.0")
	conflicts, err := f.engine.DetectConflicts(ctx, meta)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(conflicts) != 0 {
		t.Errorf("expected no conflicts, got %v", conflicts)
	}
}
