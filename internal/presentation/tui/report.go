package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/aime/pkg/domain"
	"github.com/aretw0/aime/pkg/tree"
)

// Report renders the outcome of a generation as markdown: one section per
// scenario tree with an indented outline, followed by the search statistics.
func Report(runID string, trees []*domain.ScenarioTree, stats domain.Stats) string {
	var sb strings.Builder
	if runID != "" {
		fmt.Fprintf(&sb, "# Run `%s`\n\n", runID)
	} else {
		sb.WriteString("# Scenario trees\n\n")
	}

	if len(trees) == 0 {
		sb.WriteString("_No scenario trees._\n\n")
	}
	for i, t := range trees {
		root := t.Root()
		if root == nil {
			continue
		}
		fmt.Fprintf(&sb, "## Tree %d: `%s` (p=%.3f)\n\n", i+1, root.Key, root.Data.Prob)
		t.Walk(root.Key, func(n *tree.Node[domain.TrajectoryNode]) bool {
			indent := strings.Repeat("  ", n.Depth)
			fmt.Fprintf(&sb, "%s- `%s` p=%.3f steps %d..%d, %d agents\n",
				indent, n.Key, n.Data.Prob, n.Data.CurT, n.Data.EndT, len(n.Data.TrackIDs))
			return true
		})
		sb.WriteString("\n")
	}

	sb.WriteString("## Search\n\n")
	sb.WriteString("| rounds | oracle calls | candidates | kept | prob pruned | policy pruned | merged | end | terminated | duration |\n")
	sb.WriteString("|---|---|---|---|---|---|---|---|---|---|\n")
	fmt.Fprintf(&sb, "| %d | %d | %d | %d | %d | %d | %d | %d | %d | %s |\n",
		stats.Rounds, stats.OracleCalls, stats.Candidates, stats.Kept, stats.ProbPruned,
		stats.PolicyPruned, stats.Merged, stats.EndLeaves, stats.Terminated, stats.Duration)
	return sb.String()
}
