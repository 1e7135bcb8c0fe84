package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aretw0/aime/internal/cli"
	"github.com/aretw0/aime/internal/dto"
	"github.com/aretw0/aime/internal/presentation/graph"
	"github.com/aretw0/aime/internal/presentation/tui"
	"github.com/aretw0/aime/pkg/adapters/file"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [scene]",
		Short: "Generate scenario trees for a scene file",
		Long: `Reads a scene (sample, observation and target lane) from a YAML or JSON file,
grows the scenario tree with the configured oracle and prints the result.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("format")
			save, _ := cmd.Flags().GetBool("save")

			sc, err := file.LoadScene(args[0])
			if err != nil {
				return err
			}

			opts := cli.GeneratorOptions{Logger: logger, Debug: logger.Enabled(cmd.Context(), slog.LevelDebug)}
			if save {
				store, closer, err := cli.CreateStore(cmd.Context(), f.Store)
				if err != nil {
					return err
				}
				defer closer.Close()
				opts.Store = store
			}

			gen, err := cli.CreateGenerator(f, opts)
			if err != nil {
				return err
			}
			res, err := gen.GenerateWithLane(cmd.Context(), sc.TargetLane, sc.Sample, sc.Observation)
			if err != nil {
				return err
			}
			if save {
				logger.Info("run saved", "run_id", res.RunID, "backend", f.Store.Backend)
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(dto.GenerateResponse{RunID: res.RunID, Trees: res.Trees, Stats: res.Stats})
			case "mermaid":
				overlay := &graph.Overlay{Highlight: graph.MostLikelyPath(res.Trees)}
				_, err := fmt.Fprint(out, graph.GenerateMermaid(res.Trees, overlay))
				return err
			case "markdown":
				if tui.IsTerminal(out) {
					tui.PrintBanner(out)
				}
				return tui.Print(out, tui.Report(res.RunID, res.Trees, res.Stats))
			}
			return fmt.Errorf("unknown format %q", format)
		},
	}
	cmd.Flags().StringP("format", "f", "markdown", "Output format: markdown, json or mermaid")
	cmd.Flags().Bool("save", false, "Persist the run in the configured store")
	return cmd
}
