package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/stagehand/internal/ports/primary"
)

// RecoveryAdapter is a thin adapter that translates CLI operations to
// RecoveryService calls.
type RecoveryAdapter struct {
	service primary.RecoveryService
	out     io.Writer
}

// NewRecoveryAdapter creates a new RecoveryAdapter with the given service.
func NewRecoveryAdapter(service primary.RecoveryService, out io.Writer) *RecoveryAdapter {
	return &RecoveryAdapter{
		service: service,
		out:     out,
	}
}

// List displays every orphaned staging session with its classification.
func (a *RecoveryAdapter) List(ctx context.Context) error {
	orphans, err := a.service.DetectOrphans(ctx)
	if err != nil {
		return fmt.Errorf("failed to detect orphaned sessions: %w", err)
	}
	return a.printOrphans(orphans)
}

// ListWithManifests displays the classification table followed by each
// orphan's staged file manifest, so the operator sees what every leftover
// session would commit before deciding how to resolve it.
func (a *RecoveryAdapter) ListWithManifests(ctx context.Context) error {
	orphans, err := a.service.DetectOrphans(ctx)
	if err != nil {
		return fmt.Errorf("failed to detect orphaned sessions: %w", err)
	}
	if err := a.printOrphans(orphans); err != nil {
		return err
	}
	for _, o := range orphans {
		if err := a.Inspect(ctx, o.TargetVersion); err != nil {
			return err
		}
	}
	return nil
}

func (a *RecoveryAdapter) printOrphans(orphans []*primary.Orphan) error {
	if len(orphans) == 0 {
		fmt.Fprintln(a.out, "No orphaned staging sessions")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-12s %-18s %-18s %s\n", "VERSION", "STATUS", "ACTION", "AGE")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────")
	for _, o := range orphans {
		status := o.Status
		if status == "" {
			status = "(unreadable)"
		}
		fmt.Fprintf(a.out, "%-12s %-18s %-18s %s\n", o.TargetVersion, status, o.Action, formatAge(o.AgeSeconds))
		if o.MetadataError != "" {
			fmt.Fprintf(a.out, "  metadata: %s\n", o.MetadataError)
		}
	}
	fmt.Fprintln(a.out)

	return nil
}

// Inspect displays one orphaned session in detail without mutating anything.
func (a *RecoveryAdapter) Inspect(ctx context.Context, version string) error {
	detail, err := a.service.Inspect(ctx, version)
	if err != nil {
		return fmt.Errorf("failed to inspect session: %w", err)
	}

	fmt.Fprintf(a.out, "\nSession: %s\n", detail.Orphan.TargetVersion)
	if detail.Orphan.Status != "" {
		fmt.Fprintf(a.out, "Status:  %s\n", detail.Orphan.Status)
	}
	fmt.Fprintf(a.out, "Action:  %s\n", detail.Orphan.Action)
	if detail.Orphan.StartTime != "" {
		fmt.Fprintf(a.out, "Started: %s\n", detail.Orphan.StartTime)
	}
	if detail.Orphan.MetadataError != "" {
		fmt.Fprintf(a.out, "Metadata: %s\n", detail.Orphan.MetadataError)
	}
	fmt.Fprintf(a.out, "Root:    %s\n", detail.RootPath)

	if len(detail.StagedFiles) == 0 {
		fmt.Fprintln(a.out, "No staged files")
	} else {
		fmt.Fprintf(a.out, "\nStaged files:\n")
		for _, f := range detail.StagedFiles {
			fmt.Fprintf(a.out, "  %-10s %s → %s\n", f.Category, f.Source, f.Dest)
		}
	}
	fmt.Fprintln(a.out)

	return nil
}

// Commit commits a commit-eligible orphan.
func (a *RecoveryAdapter) Commit(ctx context.Context, version string, overrideConflicts bool) error {
	resp, err := a.service.Commit(ctx, primary.CommitRequest{
		TargetVersion:     version,
		OverrideConflicts: overrideConflicts,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Recovered session %s: committed %d file(s)\n", version, len(resp.CommittedFiles))
	return nil
}

// Rollback rolls back an orphaned session.
func (a *RecoveryAdapter) Rollback(ctx context.Context, version, reason string) error {
	err := a.service.Rollback(ctx, primary.RollbackRequest{
		TargetVersion: version,
		Reason:        reason,
	})
	if err != nil {
		return fmt.Errorf("failed to roll back session: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Rolled back orphaned session %s\n", version)
	return nil
}

func formatAge(seconds int64) string {
	if seconds <= 0 {
		return "unknown"
	}
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm", seconds/60)
	default:
		return fmt.Sprintf("%dh%dm", seconds/3600, (seconds%3600)/60)
	}
}
