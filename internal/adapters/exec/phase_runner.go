// Package exec contains the adapter that invokes external transformation
// phases as subprocesses.
package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/example/stagehand/internal/ports/secondary"
)

// PhaseRunner implements secondary.PhaseRunner by running the configured
// command with the staging category directory appended as its final
// argument. The phase reports the files it wrote as relative paths, one per
// stdout line; a non-zero exit is a reported failure, not an invocation
// error. No timeout is imposed: a hung phase simply delays completion.
type PhaseRunner struct{}

// NewPhaseRunner creates a subprocess phase runner.
func NewPhaseRunner() *PhaseRunner {
	return &PhaseRunner{}
}

// Run invokes one external phase and records its outcome.
func (r *PhaseRunner) Run(ctx context.Context, inv secondary.PhaseInvocation) (*secondary.AgentResultRecord, error) {
	if len(inv.Command) == 0 {
		return nil, fmt.Errorf("phase %d (%s) has no command configured", inv.Phase, inv.Name)
	}

	args := append(append([]string{}, inv.Command[1:]...), inv.OutputDir)
	cmd := exec.CommandContext(ctx, inv.Command[0], args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	result := &secondary.AgentResultRecord{
		DurationMs:   duration.Milliseconds(),
		FilesWritten: parseFileList(stdout.String()),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("phase %d (%s) could not be invoked: %w", inv.Phase, inv.Name, err)
		}
		result.Success = false
		result.Error = fmt.Sprintf("phase %s exited with %d: %s",
			inv.Name, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		return result, nil
	}

	result.Success = true
	return result, nil
}

// parseFileList reads the phase's written-file report: one relative path per
// line, blank lines ignored.
func parseFileList(out string) []string {
	var files []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			files = append(files, line)
		}
	}
	return files
}

// Ensure PhaseRunner implements the interface
var _ secondary.PhaseRunner = (*PhaseRunner)(nil)
