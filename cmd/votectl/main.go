// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Command votectl casts and follows votes in the tvorozhniki/syrniki
// campaign from a terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielhkuo/tvorozhniki/cliparse"
)

const (
	programName = "votectl"
)

var globalFlags = struct {
	debug     bool
	logFormat string
	server    string
	stateDir  string
	timeout   time.Duration
}{}

type configKey struct{}

func configFrom(ctx context.Context) *cliparse.ClientConfig {
	cfg, _ := ctx.Value(configKey{}).(*cliparse.ClientConfig)
	return cfg
}

// commonRun configures the default logger. Logs go to w so command output
// on stdout stays clean.
func commonRun(w io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo
	addSource := false
	if globalFlags.debug {
		logLevel = slog.LevelDebug
		addSource = true
	}
	opts := &slog.HandlerOptions{
		AddSource: addSource,
		Level:     logLevel,
	}

	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if globalFlags.logFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	}
	logger := slog.New(handler).With("component", programName)
	slog.SetDefault(logger)
	return logger
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Vote for tvorozhniki or syrniki and follow the results",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&globalFlags.logFormat, "log-format", "text", "log format, text or json")
	rootCmd.PersistentFlags().
		StringVar(&globalFlags.server, "server", "", "aggregator URL (overrides VOTE_SERVER_URL)")
	rootCmd.PersistentFlags().
		StringVar(&globalFlags.stateDir, "state-dir", "", "local vote state directory (overrides VOTE_STATE_DIR)")
	rootCmd.PersistentFlags().
		DurationVar(&globalFlags.timeout, "timeout", 0, "aggregator request timeout (overrides VOTE_TIMEOUT)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		commonRun(cmd.ErrOrStderr())

		if err := cliparse.LoadEnv(); err != nil {
			return err
		}
		cfg, err := cliparse.LoadClientConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Override config with command line flags
		if globalFlags.server != "" {
			cfg.ServerURL = globalFlags.server
		}
		if globalFlags.stateDir != "" {
			cfg.StateDir = globalFlags.stateDir
		}
		if globalFlags.timeout > 0 {
			cfg.Timeout = globalFlags.timeout
		}

		cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, &cfg))
		return nil
	}

	// Subcommands
	rootCmd.AddCommand(voteCommand())
	rootCmd.AddCommand(verifyCommand())
	rootCmd.AddCommand(statusCommand())
	rootCmd.AddCommand(statsCommand())
	rootCmd.AddCommand(flushCommand())
	rootCmd.AddCommand(resetCommand())

	return rootCmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// NOTE: cobra has already displayed the error
		os.Exit(1)
	}
}
