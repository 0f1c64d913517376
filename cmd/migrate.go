package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stratumhq/stratum/db"
)

var migrateDown bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Long: `Applies all pending schema migrations in order. With --down, rolls
back the most recently applied step instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if migrateDown {
			return db.Rollback(cfg.PostgresURL())
		}
		return db.Migrate(cfg.PostgresURL())
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "roll back the last migration step")
	rootCmd.AddCommand(migrateCmd)
}
