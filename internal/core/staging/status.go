// Package staging contains the pure business logic for staged transformation
// sessions. This is part of the Functional Core - no I/O, only pure functions.
package staging

import "fmt"

// Status represents the possible states of a staging session.
type Status string

const (
	StatusStaging        Status = "staging"
	StatusPhase1Complete Status = "phase1-complete"
	StatusPhase2Complete Status = "phase2-complete"
	StatusReady          Status = "ready"
	StatusCommitting     Status = "committing"
	StatusCommitted      Status = "committed"
	StatusFailed         Status = "failed"
	StatusRolledBack     Status = "rolled-back"
)

// transitions is the single authoritative transition table. Every status
// mutation in the system goes through CanTransition before persisting.
var transitions = map[Status][]Status{
	StatusStaging:        {StatusPhase1Complete, StatusFailed},
	StatusPhase1Complete: {StatusPhase2Complete, StatusFailed},
	StatusPhase2Complete: {StatusReady, StatusFailed},
	StatusReady:          {StatusCommitting, StatusRolledBack},
	StatusCommitting:     {StatusCommitted, StatusFailed},
	StatusCommitted:      {},
	StatusFailed:         {},
	StatusRolledBack:     {},
}

// InitialStatus returns the status for a newly created staging session.
func InitialStatus() Status {
	return StatusStaging
}

// IsValid reports whether s is a known status value.
func IsValid(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether s accepts no further transitions.
func IsTerminal(s Status) bool {
	succ, ok := transitions[s]
	return ok && len(succ) == 0
}

// CanTransition returns nil if moving from one status to another is a legal
// path through the state machine, and a descriptive error otherwise.
func CanTransition(from, to Status) error {
	succ, ok := transitions[from]
	if !ok {
		return fmt.Errorf("unknown status %q", from)
	}
	if !IsValid(to) {
		return fmt.Errorf("unknown status %q", to)
	}
	if len(succ) == 0 {
		return fmt.Errorf("status %q is terminal, cannot transition to %q", from, to)
	}
	for _, s := range succ {
		if s == to {
			return nil
		}
	}
	return fmt.Errorf("illegal status transition %q -> %q", from, to)
}

// PhaseStatus returns the status a session advances to when the given phase
// (1-based) completes successfully.
func PhaseStatus(phase int) (Status, error) {
	switch phase {
	case 1:
		return StatusPhase1Complete, nil
	case 2:
		return StatusPhase2Complete, nil
	default:
		return "", fmt.Errorf("unknown phase %d", phase)
	}
}
