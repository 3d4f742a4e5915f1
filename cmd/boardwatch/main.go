package main

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fastygo/boardwatch/internal/config"
	"github.com/fastygo/boardwatch/internal/infrastructure/kanboard"
	"github.com/fastygo/boardwatch/pkg/logger"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "boardwatch",
		Short:         "Kanboard poller exposing sensors, a due-date calendar and deadline notifications",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("env-file", "", "Load environment variables from this file before .env")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(snapshotCmd())
	rootCmd.AddCommand(tokenCmd())
	return rootCmd
}

// setup loads and validates configuration and builds the root logger.
func setup(cmd *cobra.Command, logOutput io.Writer) (*config.Config, *zap.Logger, error) {
	if err := loadEnvFile(cmd); err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Output:   logOutput,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger error: %w", err)
	}
	return cfg, log.With(zap.String("app", cfg.AppName)), nil
}

func loadEnvFile(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("env-file")
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func newBoardClient(cfg *config.Config, log *zap.Logger) *kanboard.Client {
	return kanboard.NewClient(kanboard.Config{
		URL:      cfg.Kanboard.URL,
		Token:    cfg.Kanboard.Token,
		Username: cfg.Kanboard.Username,
		Timeout:  cfg.Kanboard.Timeout,
	}, nil, logger.Component(log, "kanboard"))
}
