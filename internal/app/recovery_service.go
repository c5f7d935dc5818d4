package app

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/example/stagehand/internal/core/staging"
	"github.com/example/stagehand/internal/ports/primary"
	"github.com/example/stagehand/internal/ports/secondary"
)

// RecoveryServiceImpl implements the RecoveryService interface. Detection is
// read-only; commit and rollback delegate to the same engine the transform
// service uses, so a recovered commit behaves exactly like a normal one.
type RecoveryServiceImpl struct {
	stagingStore  secondary.StagingStore
	metadataStore secondary.MetadataStore
	engine        *CommitEngine
}

// NewRecoveryService creates a new RecoveryService with injected dependencies.
func NewRecoveryService(
	stagingStore secondary.StagingStore,
	metadataStore secondary.MetadataStore,
	engine *CommitEngine,
) *RecoveryServiceImpl {
	return &RecoveryServiceImpl{
		stagingStore:  stagingStore,
		metadataStore: metadataStore,
		engine:        engine,
	}
}

// DetectOrphans lists every staging root with its recovery classification.
// Classification reads the descriptor and nothing else; it never mutates.
func (s *RecoveryServiceImpl) DetectOrphans(ctx context.Context) ([]*primary.Orphan, error) {
	roots, err := s.stagingStore.ListRoots(ctx)
	if err != nil {
		return nil, err
	}

	orphans := make([]*primary.Orphan, 0, len(roots))
	for _, version := range roots {
		orphans = append(orphans, s.classify(ctx, version))
	}
	sort.Slice(orphans, func(i, j int) bool {
		return orphans[i].TargetVersion < orphans[j].TargetVersion
	})
	return orphans, nil
}

// Inspect returns one orphan plus its staged file manifest. Corrupt metadata
// does not prevent inspection; the file listing needs only the tree.
func (s *RecoveryServiceImpl) Inspect(ctx context.Context, version string) (*primary.OrphanDetail, error) {
	exists, err := s.stagingStore.RootExists(ctx, version)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &staging.CorruptMetadataError{
			Path:   s.stagingStore.RootPath(version),
			Reason: "no staging root exists for this version",
		}
	}

	files, err := s.stagingStore.ListFiles(ctx, version)
	if err != nil {
		return nil, err
	}

	return &primary.OrphanDetail{
		Orphan:      s.classify(ctx, version),
		RootPath:    s.stagingStore.RootPath(version),
		StagedFiles: toFilePairs(files),
	}, nil
}

// Commit commits a commit-eligible orphan. A session interrupted at
// phase2-complete is advanced to ready first; the guard inside the engine
// rejects everything else.
func (s *RecoveryServiceImpl) Commit(ctx context.Context, req primary.CommitRequest) (*primary.CommitResponse, error) {
	meta, err := s.metadataStore.Read(ctx, req.TargetVersion)
	if err != nil {
		return nil, err
	}

	if staging.Status(meta.Status) == staging.StatusPhase2Complete {
		if _, err := s.metadataStore.AdvanceStatus(ctx, req.TargetVersion, string(staging.StatusReady)); err != nil {
			return nil, err
		}
	}

	committed, historyID, err := s.engine.Commit(ctx, req.TargetVersion, req.OverrideConflicts)
	if err != nil {
		return nil, err
	}

	return &primary.CommitResponse{
		HistoryID:      historyID,
		CommittedFiles: committed,
	}, nil
}

// Rollback rolls back an orphaned session. Works even when the descriptor is
// corrupt; the history reason records that the metadata was unreadable.
func (s *RecoveryServiceImpl) Rollback(ctx context.Context, req primary.RollbackRequest) error {
	reason := req.Reason
	if reason == "" {
		reason = "orphan rollback"
	}

	if _, err := s.metadataStore.Read(ctx, req.TargetVersion); err != nil {
		var corrupt *staging.CorruptMetadataError
		if errors.As(err, &corrupt) {
			reason = "orphan rollback: " + corrupt.Reason
		}
	}

	return s.engine.Rollback(ctx, req.TargetVersion, secondary.OutcomeRolledBack, "", reason)
}

func (s *RecoveryServiceImpl) classify(ctx context.Context, version string) *primary.Orphan {
	orphan := &primary.Orphan{TargetVersion: version}

	meta, err := s.metadataStore.Read(ctx, version)
	if err != nil {
		orphan.Action = string(staging.ClassifyOrphan(false, ""))
		orphan.MetadataError = err.Error()
		return orphan
	}

	status := staging.Status(meta.Status)
	orphan.Action = string(staging.ClassifyOrphan(true, status))
	orphan.Status = meta.Status
	orphan.StartTime = meta.StartTime
	if started, parseErr := time.Parse(time.RFC3339, meta.StartTime); parseErr == nil {
		orphan.AgeSeconds = int64(time.Since(started).Seconds())
	}
	return orphan
}

// Ensure RecoveryServiceImpl implements the interface
var _ primary.RecoveryService = (*RecoveryServiceImpl)(nil)
