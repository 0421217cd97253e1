package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/daydayarxiv/daydayarxiv/internal/config"
	"github.com/daydayarxiv/daydayarxiv/internal/platform/logger"
	"github.com/daydayarxiv/daydayarxiv/internal/storage"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "daydayarxiv",
	Short:         "Daily arXiv paper digests for the static frontend",
	Long:          "daydayarxiv fetches new arXiv papers per category and date, translates and summarizes them with LLM providers, and writes the JSON files the frontend serves.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute loads the environment and runs the CLI.
func Execute() error {
	_ = godotenv.Load()
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./daydayarxiv.yaml)")
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newRefreshIndexCmd())
}

// bootstrap loads configuration and sets up logging for a subcommand. The
// returned closer flushes the per-run log file.
func bootstrap() (*config.Config, *slog.Logger, func() error, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, nil, err
	}
	log, closer, err := logger.Setup(logger.Options{Level: cfg.LogLevel, Dir: cfg.LogDir})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("setup logger: %w", err)
	}
	return cfg, log, closer, nil
}

func outputPaths(cfg *config.Config) storage.OutputPaths {
	return storage.OutputPaths{BaseDir: cfg.DataDir}
}
