// Package cmd implements the sitebrain command line interface.
package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sitebrain/sitebrain/internal/config"
	"github.com/sitebrain/sitebrain/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "sitebrain",
	Short: "sitebrain - a question answering service for your site and docs",
	Long: `sitebrain ingests a website (via its sitemap) and local documents,
stores embedded chunks in PostgreSQL/pgvector and answers questions
grounded in that content with cited sources.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Missing .env is fine, environment variables still apply.
		_ = godotenv.Load()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads configuration and builds the logger the commands share.
func loadConfig() (*config.Config, log.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	logger := log.New(log.Config{
		Level: log.ParseLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})
	return cfg, logger, nil
}
