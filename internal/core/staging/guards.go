package staging

import "fmt"

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string // Human-readable reason (populated when not allowed)
}

// Error returns the guard result as an error if not allowed, nil otherwise.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// CommitContext provides the context needed for commit precondition guards.
type CommitContext struct {
	Status            Status
	ConflictCount     int
	ConflictsOverride bool
	StagedFileCount   int
}

// CanCommit evaluates whether a staging session may be committed.
// Rules: status must be ready; conflicts block the commit unless the caller
// explicitly overrode after being warned; an empty staging tree has nothing
// to commit.
func CanCommit(ctx CommitContext) GuardResult {
	if ctx.Status != StatusReady {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("cannot commit session with status %q, must be %q", ctx.Status, StatusReady),
		}
	}
	if ctx.ConflictCount > 0 && !ctx.ConflictsOverride {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("%d production conflict(s) detected, refusing to commit without --override-conflicts", ctx.ConflictCount),
		}
	}
	if ctx.StagedFileCount == 0 {
		return GuardResult{
			Allowed: false,
			Reason:  "staging tree contains no files to commit",
		}
	}
	return GuardResult{Allowed: true}
}

// PhaseContext provides the context for phase-completion guards.
type PhaseContext struct {
	Phase         int
	ResultPresent bool
	Success       bool
}

// CanCompletePhase evaluates whether a session may advance to the
// phase-complete status. A missing or unsuccessful result is a failure
// transition regardless of which phase reported it.
func CanCompletePhase(ctx PhaseContext) GuardResult {
	if !ctx.ResultPresent {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("phase %d has no recorded result", ctx.Phase),
		}
	}
	if !ctx.Success {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("phase %d reported failure", ctx.Phase),
		}
	}
	return GuardResult{Allowed: true}
}

// OrphanAction classifies the recovery options for a leftover staging root.
type OrphanAction string

const (
	// OrphanInspectOnly means metadata is missing or corrupt; the system
	// never infers a status, so only inspection and manual rollback apply.
	OrphanInspectOnly OrphanAction = "inspect-only"
	// OrphanCommitEligible means the session got far enough that committing
	// it is a valid operator choice.
	OrphanCommitEligible OrphanAction = "commit-eligible"
	// OrphanRollbackOnly means the session cannot be resumed or committed.
	OrphanRollbackOnly OrphanAction = "rollback-only"
)

// ClassifyOrphan determines the recovery action for a leftover staging root.
// It is a pure function of descriptor validity and status: repeated calls
// without intervening mutation produce the same classification. The service
// surfaces the classification and waits for an explicit operator decision.
func ClassifyOrphan(metadataValid bool, status Status) OrphanAction {
	if !metadataValid {
		return OrphanInspectOnly
	}
	switch status {
	case StatusReady, StatusPhase2Complete:
		return OrphanCommitEligible
	default:
		return OrphanRollbackOnly
	}
}
