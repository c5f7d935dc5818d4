package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/stagehand/internal/cli"
	"github.com/example/stagehand/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "stagehand",
		Short:   "Stagehand - staged template transformations with commit/rollback",
		Version: version.String(),
		Long: `Stagehand transforms template assets for a new version inside an
isolated staging area, then commits them into the live production directories
with individual atomic renames. Interrupted runs leave durable, recoverable
sessions instead of half-written production state.`,
	}

	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.RunCmd())
	rootCmd.AddCommand(cli.RollbackCmd())
	rootCmd.AddCommand(cli.StatusCmd())
	rootCmd.AddCommand(cli.RecoverCmd())
	rootCmd.AddCommand(cli.HistoryCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
