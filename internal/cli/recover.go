package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/stagehand/internal/wire"
)

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Inspect and resolve orphaned staging sessions",
	Long: `List staging sessions left behind by interrupted runs and resolve
them. Each orphan is classified by what its durable descriptor allows:

  commit-eligible  both phases finished; committing is a valid choice
  rollback-only    the session cannot be resumed or committed
  inspect-only     the descriptor is missing or corrupt

Nothing is resolved automatically; every action is an explicit subcommand.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.RecoveryAdapter().List(cmd.Context())
	},
}

var recoverInspectCmd = &cobra.Command{
	Use:   "inspect [target-version]",
	Short: "Show an orphaned session without changing anything",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.RecoveryAdapter().Inspect(cmd.Context(), args[0])
	},
}

var recoverCommitCmd = &cobra.Command{
	Use:   "commit [target-version]",
	Short: "Commit a commit-eligible orphaned session",
	Long: `Commit an orphaned session whose phases both finished. Conflict
detection runs against the baseline captured when the session started, so
production drift since then is still caught.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		overrideConflicts, _ := cmd.Flags().GetBool("override-conflicts")
		return wire.RecoveryAdapter().Commit(cmd.Context(), args[0], overrideConflicts)
	},
}

var recoverRollbackCmd = &cobra.Command{
	Use:   "rollback [target-version]",
	Short: "Roll back an orphaned session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		return wire.RecoveryAdapter().Rollback(cmd.Context(), args[0], reason)
	},
}

// RecoverCmd returns the recover command with subcommands.
func RecoverCmd() *cobra.Command {
	recoverCommitCmd.Flags().Bool("override-conflicts", false, "Commit even when production drifted from the baseline")
	recoverRollbackCmd.Flags().StringP("reason", "r", "", "Reason recorded in the history entry")

	recoverCmd.AddCommand(recoverInspectCmd)
	recoverCmd.AddCommand(recoverCommitCmd)
	recoverCmd.AddCommand(recoverRollbackCmd)
	return recoverCmd
}
