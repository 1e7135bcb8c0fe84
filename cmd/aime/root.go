package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/aime/internal/cli"
	"github.com/aretw0/aime/pkg/config"
	"github.com/spf13/cobra"
)

// newRootCmd assembles the command tree. Tests build a fresh tree per case.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "aime",
		Short:         "aime generates probability-weighted scenario trees for traffic prediction",
		Long:          `aime expands a multi-modal trajectory predictor into a tree of joint futures, branching where uncertainty grows and pruning unlikely or redundant modes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags (available to all commands)
	root.PersistentFlags().String("config", "", "Config file (default ./aime.yaml when present)")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(
		newGenerateCmd(),
		newServeCmd(),
		newMCPCmd(),
		newRunsCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and builds the logger from the
// persistent flags.
func loadConfig(cmd *cobra.Command) (*config.File, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	level, _ := cmd.Flags().GetString("log-level")

	f, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	logger, err := cli.CreateLogger(f.Log, level)
	if err != nil {
		return nil, nil, err
	}
	return f, logger, nil
}
