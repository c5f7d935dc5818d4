package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/stagehand/internal/config"
	"github.com/example/stagehand/internal/db"
)

// InitCmd returns the init command.
func InitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the stagehand home directory",
		Long: `Initialize the stagehand home directory (~/.stagehand, or
STAGEHAND_HOME) with the history database, a default config.json and the
production, staging and manifest directories.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := db.HomeDir()
			if err != nil {
				return fmt.Errorf("failed to resolve stagehand home: %w", err)
			}

			fmt.Printf("Initializing stagehand at %s\n", home)

			if _, err := db.GetDB(); err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			fmt.Println("✓ History database initialized")

			cfg, err := config.LoadConfig(home)
			if err != nil {
				cfg = config.DefaultConfig(home)
				if err := config.SaveConfig(home, cfg); err != nil {
					return err
				}
				fmt.Println("✓ Default config.json written")
			} else {
				fmt.Println("✓ Existing config.json kept")
			}

			for _, dir := range []string{cfg.ProductionDir, cfg.StagingDir, cfg.ManifestDir} {
				if dir == "" {
					continue
				}
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("failed to create %s: %w", dir, err)
				}
			}
			fmt.Println("✓ Directories created")

			return nil
		},
	}
}
