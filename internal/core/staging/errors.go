package staging

import (
	"fmt"
	"strings"
)

// CorruptMetadataError indicates a staging descriptor that failed schema
// validation. The session is never assigned a guessed status; callers
// classify it inspect-only.
type CorruptMetadataError struct {
	Path   string
	Reason string
}

func (e *CorruptMetadataError) Error() string {
	return fmt.Sprintf("corrupt staging metadata at %s: %s", e.Path, e.Reason)
}

// ConflictError indicates production files that drifted from the recorded
// baseline between capture and commit.
type ConflictError struct {
	Paths []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("production conflicts detected on %d path(s): %s",
		len(e.Paths), strings.Join(e.Paths, ", "))
}

// PartialCommitError indicates a rename that failed after earlier renames in
// the same commit sequence had already succeeded. Already-committed files are
// not undone; the committed subset is recorded for the operator.
type PartialCommitError struct {
	Committed  []string // destinations that were moved before the failure
	FailedPath string   // destination whose rename failed
	Err        error    // underlying OS error
}

func (e *PartialCommitError) Error() string {
	return fmt.Sprintf("commit failed at %s after %d file(s) were already moved: %v",
		e.FailedPath, len(e.Committed), e.Err)
}

func (e *PartialCommitError) Unwrap() error {
	return e.Err
}

// PreValidationError indicates a commit precondition that failed before any
// file moved: an unreadable staged source, an uncreatable destination parent
// or a staged path the version's manifest never declared. Nothing has
// changed in production when this error is returned.
type PreValidationError struct {
	Path string
	Err  error
}

func (e *PreValidationError) Error() string {
	return fmt.Sprintf("commit pre-validation failed for %s: %v", e.Path, e.Err)
}

func (e *PreValidationError) Unwrap() error {
	return e.Err
}

// SessionExistsError indicates an attempt to create a staging session while
// another session is unresolved. At most one unresolved session is permitted.
type SessionExistsError struct {
	Versions []string
}

func (e *SessionExistsError) Error() string {
	return fmt.Sprintf("unresolved staging session(s) exist for version(s) %s; resolve with 'stagehand recover' first",
		strings.Join(e.Versions, ", "))
}
