package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/stagehand/internal/wire"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the transformation history log",
	Long: `Show transformation attempts, most recent first. Every run leaves a
record regardless of outcome: transformed, failed, partial or rolled-back.
Entries are never deleted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return wire.HistoryAdapter().List(cmd.Context(), limit)
	},
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List transformation attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return wire.HistoryAdapter().List(cmd.Context(), limit)
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one history entry in detail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.HistoryAdapter().Show(cmd.Context(), args[0])
	},
}

// HistoryCmd returns the history command with subcommands.
func HistoryCmd() *cobra.Command {
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of entries to show (0 for all)")
	historyListCmd.Flags().IntP("limit", "n", 20, "Maximum number of entries to show (0 for all)")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	return historyCmd
}
