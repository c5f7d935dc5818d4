// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle output formatting but delegate
// business logic to services.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/example/stagehand/internal/core/staging"
	"github.com/example/stagehand/internal/ports/primary"
)

// TransformAdapter is a thin adapter that translates CLI operations to
// TransformService calls. It depends only on the TransformService interface,
// enabling easy testing with mocks.
type TransformAdapter struct {
	service primary.TransformService
	out     io.Writer
}

// NewTransformAdapter creates a new TransformAdapter with the given service.
func NewTransformAdapter(service primary.TransformService, out io.Writer) *TransformAdapter {
	return &TransformAdapter{
		service: service,
		out:     out,
	}
}

// Run drives one full transformation: prepare, report the staged manifest,
// then commit. A conflict refusal prints the drifted paths and leaves the
// session in place for a later overridden commit or rollback.
func (a *TransformAdapter) Run(ctx context.Context, targetVersion, previousVersion, manifestPath string, overrideConflicts bool) error {
	resp, err := a.service.Prepare(ctx, primary.PrepareRequest{
		TargetVersion:   targetVersion,
		PreviousVersion: previousVersion,
		ManifestPath:    manifestPath,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Staged transformation %s for version %s\n", resp.HistoryID, targetVersion)
	a.printManifest(resp.StagedFiles)

	commitResp, err := a.service.Commit(ctx, primary.CommitRequest{
		TargetVersion:     targetVersion,
		OverrideConflicts: overrideConflicts,
	})
	if err != nil {
		return a.explainCommitError(targetVersion, err)
	}

	fmt.Fprintf(a.out, "✓ Committed %d file(s) to production\n", len(commitResp.CommittedFiles))
	return nil
}

// Commit commits an already-prepared session without re-running the phases.
func (a *TransformAdapter) Commit(ctx context.Context, targetVersion string, overrideConflicts bool) error {
	resp, err := a.service.Commit(ctx, primary.CommitRequest{
		TargetVersion:     targetVersion,
		OverrideConflicts: overrideConflicts,
	})
	if err != nil {
		return a.explainCommitError(targetVersion, err)
	}

	fmt.Fprintf(a.out, "✓ Committed %d file(s) to production\n", len(resp.CommittedFiles))
	return nil
}

// Rollback cancels a staged session.
func (a *TransformAdapter) Rollback(ctx context.Context, targetVersion, reason string) error {
	err := a.service.Rollback(ctx, primary.RollbackRequest{
		TargetVersion: targetVersion,
		Reason:        reason,
	})
	if err != nil {
		return fmt.Errorf("failed to roll back session: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Rolled back staging session for version %s\n", targetVersion)
	return nil
}

// Status displays the active staging session, if any.
func (a *TransformAdapter) Status(ctx context.Context) error {
	summary, err := a.service.ActiveSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to query active session: %w", err)
	}
	if summary == nil {
		fmt.Fprintln(a.out, "No active staging session")
		return nil
	}

	fmt.Fprintf(a.out, "\nSession: %s\n", summary.TargetVersion)
	fmt.Fprintf(a.out, "Status:  %s\n", summary.Status)
	if summary.PreviousVersion != "" {
		fmt.Fprintf(a.out, "From:    %s\n", summary.PreviousVersion)
	}
	if summary.StartTime != "" {
		fmt.Fprintf(a.out, "Started: %s\n", summary.StartTime)
	}
	fmt.Fprintf(a.out, "Root:    %s\n", summary.RootPath)
	fmt.Fprintf(a.out, "Files:   %d\n", summary.FileCount)
	fmt.Fprintln(a.out)

	return nil
}

func (a *TransformAdapter) printManifest(files []primary.FilePair) {
	if len(files) == 0 {
		fmt.Fprintln(a.out, "No files staged")
		return
	}

	fmt.Fprintf(a.out, "\n%-10s %s\n", "CATEGORY", "SOURCE → DESTINATION")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────")
	for _, f := range files {
		fmt.Fprintf(a.out, "%-10s %s → %s\n", f.Category, f.Source, f.Dest)
	}
	fmt.Fprintln(a.out)
}

func (a *TransformAdapter) explainCommitError(targetVersion string, err error) error {
	var conflict *staging.ConflictError
	if errors.As(err, &conflict) {
		fmt.Fprintf(a.out, "Production drifted from the recorded baseline on %d path(s):\n", len(conflict.Paths))
		for _, p := range conflict.Paths {
			fmt.Fprintf(a.out, "  %s\n", p)
		}
		fmt.Fprintf(a.out, "Commit anyway with 'stagehand recover commit %s --override-conflicts', or roll back with 'stagehand recover rollback %s'\n", targetVersion, targetVersion)
		return err
	}

	var partial *staging.PartialCommitError
	if errors.As(err, &partial) {
		fmt.Fprintf(a.out, "Commit failed mid-sequence; %d file(s) were already moved:\n", len(partial.Committed))
		for _, p := range partial.Committed {
			fmt.Fprintf(a.out, "  %s\n", p)
		}
		fmt.Fprintf(a.out, "The staging root was left in place for inspection. Production must be reconciled manually.\n")
		return err
	}

	return err
}
