package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/aretw0/aime/internal/cli"
	"github.com/aretw0/aime/internal/presentation/graph"
	"github.com/aretw0/aime/internal/presentation/tui"
	"github.com/aretw0/aime/pkg/domain"
	"github.com/aretw0/aime/pkg/ports"
	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored runs",
	}
	cmd.AddCommand(newRunsListCmd(), newRunsShowCmd(), newRunsDeleteCmd())
	return cmd
}

// withStore opens the configured store for the duration of fn.
func withStore(cmd *cobra.Command, fn func(ports.TreeStore) error) error {
	f, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, closer, err := cli.CreateStore(cmd.Context(), f.Store)
	if err != nil {
		return err
	}
	defer closer.Close()
	return fn(store)
}

func newRunsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored runs, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store ports.TreeStore) error {
				ids, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				summaries := make([]domain.RunSummary, 0, len(ids))
				for _, id := range ids {
					run, err := store.Load(cmd.Context(), id)
					if err != nil {
						return err
					}
					summaries = append(summaries, run.Summary())
				}
				sort.SliceStable(summaries, func(i, j int) bool {
					return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
				})

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "RUN\tCREATED\tTREES")
				for _, s := range summaries {
					fmt.Fprintf(w, "%s\t%s\t%d\n", s.ID, s.CreatedAt.Format("2006-01-02 15:04:05"), s.Trees)
				}
				return w.Flush()
			})
		},
	}
}

func newRunsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Print a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			return withStore(cmd, func(store ports.TreeStore) error {
				run, err := store.Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch format {
				case "json":
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(run)
				case "mermaid":
					overlay := &graph.Overlay{Highlight: graph.MostLikelyPath(run.Trees)}
					_, err := fmt.Fprint(out, graph.GenerateMermaid(run.Trees, overlay))
					return err
				case "markdown":
					return tui.Print(out, tui.Report(run.ID, run.Trees, run.Stats))
				}
				return fmt.Errorf("unknown format %q", format)
			})
		},
	}
	cmd.Flags().StringP("format", "f", "markdown", "Output format: markdown, json or mermaid")
	return cmd
}

func newRunsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [run-id]",
		Short: "Delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store ports.TreeStore) error {
				if err := store.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	}
}
