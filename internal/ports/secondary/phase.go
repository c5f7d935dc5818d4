package secondary

import "context"

// PhaseRunner defines the secondary port for invoking the two external
// transformation phases. The phases are arbitrary, possibly long-running
// processes; the runner blocks until the phase returns and imposes no
// timeout. A killed process leaves an orphaned, recoverable session.
type PhaseRunner interface {
	// Run invokes a phase with an explicit output directory. A phase that
	// starts but reports failure yields a result with Success false and a
	// nil error; the returned error is reserved for invocation problems
	// (command not found, not startable).
	Run(ctx context.Context, inv PhaseInvocation) (*AgentResultRecord, error)
}

// PhaseInvocation describes one external phase invocation. The phase is
// contractually required to write only under OutputDir and to report the
// files it wrote (relative paths, one per stdout line).
type PhaseInvocation struct {
	Phase     int      // 1 or 2
	Name      string   // human-facing phase name for diagnostics
	Command   []string // argv; OutputDir is appended as the final argument
	OutputDir string
}
