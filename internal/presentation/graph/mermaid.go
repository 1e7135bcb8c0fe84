package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/aime/pkg/domain"
	"github.com/aretw0/aime/pkg/tree"
)

// Overlay marks scenarios to highlight on the graph.
type Overlay struct {
	Highlight []string
}

// GenerateMermaid produces a Mermaid flowchart of the scenario trees of a run.
// The trees hang from a shared "root" node. Shapes:
// - Root: ((Circle))
// - Branching scenario: [Rectangle]
// - Leaf: ([Stadium])
// Edges carry the conditional probability of the child.
func GenerateMermaid(trees []*domain.ScenarioTree, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString(fmt.Sprintf("    %s((\"%s\"))\n", sanitizeMermaidID(domain.RootScenarioID), domain.RootScenarioID))

	for _, t := range trees {
		root := t.Root()
		if root == nil {
			continue
		}
		t.Walk(root.Key, func(n *tree.Node[domain.TrajectoryNode]) bool {
			safeID := sanitizeMermaidID(n.Key)
			opener, closer := "[", "]"
			if n.IsLeaf() {
				opener, closer = "([", "])"
			}
			sb.WriteString(fmt.Sprintf("    %s%s\"%s <br/> p=%.3f t=%d..%d\"%s\n",
				safeID, opener, n.Key, n.Data.Prob, n.Data.CurT, n.Data.EndT, closer))

			parent := domain.RootScenarioID
			edge := n.Data.Prob
			if !n.IsRoot() {
				parent = n.ParentKey
				if p, ok := t.Get(n.ParentKey); ok && p.Data.Prob > 0 {
					edge = n.Data.Prob / p.Data.Prob
				}
			}
			sb.WriteString(fmt.Sprintf("    %s -- \"%.2f\" --> %s\n", sanitizeMermaidID(parent), edge, safeID))
			return true
		})
	}

	if overlay != nil && len(overlay.Highlight) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast on light and dark themes.
		sb.WriteString("    classDef highlight fill:#ffeb3b,stroke:#fbc02d,stroke-width:3px,color:#000;\n")
		seen := make(map[string]bool)
		for _, id := range overlay.Highlight {
			safeID := sanitizeMermaidID(id)
			if id != "" && !seen[safeID] {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s highlight;\n", safeID))
			}
		}
	}

	return sb.String()
}

// MostLikelyPath returns the scenario IDs from the first level down to the
// most probable leaf over all trees.
func MostLikelyPath(trees []*domain.ScenarioTree) []string {
	var (
		best     []string
		bestProb = -1.0
	)
	for _, t := range trees {
		for _, leaf := range t.Leaves() {
			if leaf.Data.Prob <= bestProb {
				continue
			}
			bestProb = leaf.Data.Prob
			path := []string{leaf.Key}
			for _, a := range t.Ancestors(leaf.Key) {
				path = append(path, a.Key)
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			best = path
		}
	}
	return best
}

// sanitizeMermaidID maps a scenario ID to a Mermaid identifier. Scenario IDs
// start with a digit, so every identifier gets a letter prefix.
func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return "s_" + s
}
