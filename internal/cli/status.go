package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/stagehand/internal/wire"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active staging session",
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := wire.TransformService().ActiveSession(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to query active session: %w", err)
		}
		if summary == nil {
			fmt.Printf("%s no active staging session\n", color.New(color.FgGreen).Sprint("✓"))
			return nil
		}

		marker := color.New(color.FgYellow).Sprint("!")
		if summary.Status == "ready" {
			marker = color.New(color.FgGreen).Sprint("✓")
		}
		fmt.Printf("%s session %s (%s)\n", marker, summary.TargetVersion, summary.Status)

		return wire.TransformAdapter().Status(cmd.Context())
	},
}

// StatusCmd returns the status command.
func StatusCmd() *cobra.Command {
	return statusCmd
}
