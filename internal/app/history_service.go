package app

import (
	"context"

	"github.com/example/stagehand/internal/ports/primary"
	"github.com/example/stagehand/internal/ports/secondary"
)

// HistoryServiceImpl implements the HistoryService interface. Read-only: the
// history log is written by the transform and recovery flows, never here.
type HistoryServiceImpl struct {
	historyRepo secondary.HistoryRepository
}

// NewHistoryService creates a new HistoryService with injected dependencies.
func NewHistoryService(historyRepo secondary.HistoryRepository) *HistoryServiceImpl {
	return &HistoryServiceImpl{historyRepo: historyRepo}
}

// ListHistory retrieves history entries, most recent first.
func (s *HistoryServiceImpl) ListHistory(ctx context.Context, limit int) ([]*primary.HistoryEntry, error) {
	records, err := s.historyRepo.List(ctx, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]*primary.HistoryEntry, len(records))
	for i, r := range records {
		entries[i] = toHistoryEntry(r)
	}
	return entries, nil
}

// GetHistory retrieves one entry by ID.
func (s *HistoryServiceImpl) GetHistory(ctx context.Context, id string) (*primary.HistoryEntry, error) {
	record, err := s.historyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toHistoryEntry(record), nil
}

func toHistoryEntry(r *secondary.HistoryRecord) *primary.HistoryEntry {
	return &primary.HistoryEntry{
		ID:             r.ID,
		TargetVersion:  r.TargetVersion,
		Outcome:        r.Outcome,
		SessionID:      r.SessionID,
		Error:          r.Error,
		CommittedFiles: r.CommittedFiles,
		RollbackReason: r.RollbackReason,
		CreatedAt:      r.CreatedAt,
		FinishedAt:     r.FinishedAt,
	}
}

// Ensure HistoryServiceImpl implements the interface
var _ primary.HistoryService = (*HistoryServiceImpl)(nil)
