package main

import (
	"github.com/aretw0/aime"
	"github.com/aretw0/aime/internal/cli"
	"github.com/aretw0/aime/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio",
		Long:  `Exposes generate_scenarios, list_runs and get_run as Model Context Protocol tools over stdin/stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, closer, err := cli.CreateStore(cmd.Context(), f.Store)
			if err != nil {
				return err
			}
			defer closer.Close()

			gen, err := cli.CreateGenerator(f, cli.GeneratorOptions{Logger: logger, Store: store})
			if err != nil {
				return err
			}
			logger.Info("aime mcp server starting", "store", f.Store.Backend)
			return mcp.NewServer(gen, store, aime.Version).ServeStdio()
		},
	}
}
