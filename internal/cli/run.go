// Package cli contains the cobra commands for the stagehand binary. Commands
// parse flags and delegate to CLI adapters; no business logic lives here.
package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/stagehand/internal/wire"
)

var runCmd = &cobra.Command{
	Use:   "run [target-version]",
	Short: "Run a staged transformation to a new template version",
	Long: `Run the full transformation pipeline for a target version: create a
staging session, capture the production baseline, invoke both external phases
into the staging tree, report the staged files, then commit them into
production with individual atomic renames.

The run refuses to start while an unresolved session from a previous run
exists; resolve it with 'stagehand recover' first.

Examples:
  stagehand run v2.0
  stagehand run v2.0 --previous v1.0
  stagehand run v2.0 --manifest ./v2.0.yaml --override-conflicts`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		targetVersion := args[0]
		previousVersion, _ := cmd.Flags().GetString("previous")
		manifestPath, _ := cmd.Flags().GetString("manifest")
		overrideConflicts, _ := cmd.Flags().GetBool("override-conflicts")

		// Surface leftovers from interrupted runs before refusing, so the
		// operator sees what each one would commit and how to resolve it.
		orphans, err := wire.RecoveryService().DetectOrphans(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to check for orphaned sessions: %w", err)
		}
		if len(orphans) > 0 {
			fmt.Printf("%s unresolved staging session(s) found:\n", color.New(color.FgYellow).Sprint("!"))
			if err := wire.RecoveryAdapter().ListWithManifests(cmd.Context()); err != nil {
				return err
			}
			return fmt.Errorf("resolve the session(s) above with 'stagehand recover' before starting a new run")
		}

		return wire.TransformAdapter().Run(cmd.Context(), targetVersion, previousVersion, manifestPath, overrideConflicts)
	},
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback [target-version]",
	Short: "Roll back the staging session for a version",
	Long: `Delete the staging root for a version and record the rollback in
history. Production is never touched. Safe to repeat; rolling back an
already-removed session is a no-op.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		return wire.TransformAdapter().Rollback(cmd.Context(), args[0], reason)
	},
}

// RunCmd returns the run command.
func RunCmd() *cobra.Command {
	runCmd.Flags().StringP("previous", "p", "", "Version currently in production (recorded in the session)")
	runCmd.Flags().StringP("manifest", "m", "", "Path to the version manifest (default: configured manifest dir)")
	runCmd.Flags().Bool("override-conflicts", false, "Commit even when production drifted from the baseline")
	return runCmd
}

// RollbackCmd returns the rollback command.
func RollbackCmd() *cobra.Command {
	rollbackCmd.Flags().StringP("reason", "r", "", "Reason recorded in the history entry")
	return rollbackCmd
}
