package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"

	"github.com/systmms/dsauth/cmd/dsauth/commands"
	"github.com/systmms/dsauth/internal/config"
	dserrors "github.com/systmms/dsauth/internal/errors"
	"github.com/systmms/dsauth/internal/logging"
	"github.com/systmms/dsauth/internal/metrics"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	memguard.CatchInterrupt()
	defer memguard.Purge()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", dserrors.SimplifyError(err))
		memguard.SafeExit(1)
	}
}

func run() error {
	// Global flags
	var (
		configFile  string
		noColor     bool
		debug       bool
		metricsAddr string
	)

	cfg := &config.Config{}
	var metricsServer *metrics.Server

	rootCmd := &cobra.Command{
		Use:   "dsauth",
		Short: "Protect account secrets and issue auth tokens",
		Long: `dsauth seals account credentials into protected "<scheme>:<blob>" strings,
keeps them in an account store and turns them into auth tokens on demand.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg.Path = configFile
			cfg.Logger = logging.New(debug, noColor)

			addr := metricsAddr
			if addr == "" && cfg.Load() == nil {
				addr = cfg.Definition.Metrics.Listen
			}
			if addr == "" {
				return nil
			}

			metricsServer = metrics.NewServer(metrics.DefaultServerConfig(addr))
			if err := metricsServer.Start(); err != nil {
				return fmt.Errorf("failed to start metrics server: %w", err)
			}
			cfg.Logger.Debug("Serving metrics on %s", metricsServer.Addr())
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if metricsServer == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsServer.Stop(ctx)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultPath, "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while the command runs")

	rootCmd.AddCommand(
		commands.NewSealCommand(cfg),
		commands.NewOpenCommand(cfg),
		commands.NewSchemesCommand(cfg),
		commands.NewAccountCommand(cfg),
		commands.NewTokenCommand(cfg),
		commands.NewStrategiesCommand(cfg),
		commands.NewCompletionCommand(cfg),
	)

	return rootCmd.Execute()
}
