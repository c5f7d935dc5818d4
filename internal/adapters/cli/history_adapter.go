package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/stagehand/internal/ports/primary"
)

// HistoryAdapter is a thin adapter that translates CLI operations to
// HistoryService calls.
type HistoryAdapter struct {
	service primary.HistoryService
	out     io.Writer
}

// NewHistoryAdapter creates a new HistoryAdapter with the given service.
func NewHistoryAdapter(service primary.HistoryService, out io.Writer) *HistoryAdapter {
	return &HistoryAdapter{
		service: service,
		out:     out,
	}
}

// List displays transformation history entries, most recent first.
func (a *HistoryAdapter) List(ctx context.Context, limit int) error {
	entries, err := a.service.ListHistory(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No transformation history")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-10s %-12s %-12s %s\n", "ID", "VERSION", "OUTCOME", "CREATED")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────")
	for _, e := range entries {
		fmt.Fprintf(a.out, "%-10s %-12s %-12s %s\n", e.ID, e.TargetVersion, e.Outcome, e.CreatedAt)
	}
	fmt.Fprintln(a.out)

	return nil
}

// Show displays one history entry in detail.
func (a *HistoryAdapter) Show(ctx context.Context, id string) error {
	entry, err := a.service.GetHistory(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get history entry: %w", err)
	}

	fmt.Fprintf(a.out, "\nEntry:   %s\n", entry.ID)
	fmt.Fprintf(a.out, "Version: %s\n", entry.TargetVersion)
	fmt.Fprintf(a.out, "Outcome: %s\n", entry.Outcome)
	fmt.Fprintf(a.out, "Created: %s\n", entry.CreatedAt)
	if entry.FinishedAt != "" {
		fmt.Fprintf(a.out, "Finished: %s\n", entry.FinishedAt)
	}
	if entry.Error != "" {
		fmt.Fprintf(a.out, "Error:   %s\n", entry.Error)
	}
	if entry.RollbackReason != "" {
		fmt.Fprintf(a.out, "Reason:  %s\n", entry.RollbackReason)
	}
	if len(entry.CommittedFiles) > 0 {
		fmt.Fprintf(a.out, "\nCommitted files:\n")
		for _, f := range entry.CommittedFiles {
			fmt.Fprintf(a.out, "  %s\n", f)
		}
	}
	fmt.Fprintln(a.out)

	return nil
}
