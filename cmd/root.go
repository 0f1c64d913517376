// Package cmd implements the stratum command line interface.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/stratumhq/stratum/internal/config"
	"github.com/stratumhq/stratum/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "stratum",
	Short: "stratum - multi-tenant RAG persistence layer",
	Long: `stratum is the persistence layer of a multi-tenant
retrieval-augmented-generation platform. It manages the schema and provides
operational tooling: migrations and tenant seeding.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. It is the entry point called from main.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig initializes logging and loads the application configuration.
// Shared by the subcommands that talk to the database.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := log.New(log.Config{Level: cfg.SlogLevel(), JSON: cfg.LogJSON})
	slog.SetDefault(logger)

	return cfg, nil
}

// fail exits non-zero after a command has printed its own diagnostic.
func fail() {
	os.Exit(1)
}
