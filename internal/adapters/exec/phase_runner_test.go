package exec

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/stagehand/internal/ports/secondary"
)

func TestRun_SuccessfulPhase(t *testing.T) {
	runner := NewPhaseRunner()
	outputDir := t.TempDir()

	// The phase writes one file into its output dir and reports it.
	result, err := runner.Run(context.Background(), secondary.PhaseInvocation{
		Phase:     1,
		Name:      "scripts",
		Command:   []string{"sh", "-c", `touch "$0/run.sh" && echo run.sh`},
		OutputDir: outputDir,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got error: %s", result.Error)
	}
	if len(result.FilesWritten) != 1 || result.FilesWritten[0] != "run.sh" {
		t.Errorf("unexpected file report: %v", result.FilesWritten)
	}
	if _, err := os.Stat(filepath.Join(outputDir, "run.sh")); err != nil {
		t.Errorf("expected phase to have written the file: %v", err)
	}
}

func TestRun_ReportedFailure(t *testing.T) {
	runner := NewPhaseRunner()

	result, err := runner.Run(context.Background(), secondary.PhaseInvocation{
		Phase:     2,
		Name:      "commands",
		Command:   []string{"sh", "-c", `echo "template error" >&2; exit 3`},
		OutputDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("a non-zero exit is a reported failure, not an invocation error: %v", err)
	}
	if result.Success {
		t.Fatal("expected Success false")
	}
	if !strings.Contains(result.Error, "exited with 3") {
		t.Errorf("expected exit code in error, got %s", result.Error)
	}
	if !strings.Contains(result.Error, "template error") {
		t.Errorf("expected stderr in error, got %s", result.Error)
	}
}

func TestRun_InvocationError(t *testing.T) {
	runner := NewPhaseRunner()

	_, err := runner.Run(context.Background(), secondary.PhaseInvocation{
		Phase:     1,
		Name:      "scripts",
		Command:   []string{"/nonexistent/transformer"},
		OutputDir: t.TempDir(),
	})
	if err == nil {
		t.Fatal("expected invocation error for missing command")
	}
}

func TestRun_NoCommandConfigured(t *testing.T) {
	runner := NewPhaseRunner()

	_, err := runner.Run(context.Background(), secondary.PhaseInvocation{
		Phase:     1,
		Name:      "scripts",
		OutputDir: t.TempDir(),
	})
	if err == nil || !strings.Contains(err.Error(), "no command configured") {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestParseFileList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{name: "empty output", in: "", want: 0},
		{name: "single file", in: "run.sh\n", want: 1},
		{name: "blank lines ignored", in: "a.sh\n\n  \nb.sh\n", want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFileList(tt.in)
			if len(got) != tt.want {
				t.Errorf("expected %d files, got %v", tt.want, got)
			}
		})
	}
}
