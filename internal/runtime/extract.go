package runtime

import (
	"fmt"

	"github.com/aretw0/aime/pkg/domain"
	"github.com/aretw0/aime/pkg/tree"
	"gonum.org/v1/gonum/spatial/r2"
)

// Extract builds one scenario tree per finished child of the root.
//
// End flags are first propagated to every ancestor of an End leaf. Within a
// tree, the probabilities of finished siblings are renormalised and scaled by
// the probability of their parent, so the top node has probability 1.
func Extract(search *domain.SearchTree, obsLen int) ([]*domain.ScenarioTree, error) {
	root := search.Root()
	if root == nil {
		return nil, nil
	}

	for _, leaf := range search.Leaves() {
		if !leaf.Data.End {
			continue
		}
		for _, a := range search.Ancestors(leaf.Key) {
			if a.IsRoot() {
				break
			}
			a.Data.End = true
		}
	}

	var out []*domain.ScenarioTree
	for _, key := range root.Children {
		top, _ := search.Get(key)
		if !top.Data.End {
			continue
		}

		t := tree.New[domain.TrajectoryNode]()
		probs := map[string]float64{key: 1}
		var addErr error
		search.Walk(key, func(n *tree.Node[*domain.ScenarioNode]) bool {
			if !n.Data.End || addErr != nil {
				return false
			}
			prob := probs[n.Key]
			parent := n.ParentKey
			if n.Key == key {
				parent = ""
			}
			if _, err := t.Add(n.Key, parent, trajectory(n.Data.Scenario(), prob, obsLen)); err != nil {
				addErr = fmt.Errorf("failed to extract scenario %s: %w", n.Key, err)
				return false
			}

			total := 0.0
			for _, c := range n.Children {
				if child, ok := search.Get(c); ok && child.Data.End {
					total += child.Data.Scenario().Prob
				}
			}
			for _, c := range n.Children {
				if child, ok := search.Get(c); ok && child.Data.End && total > 0 {
					probs[c] = child.Data.Scenario().Prob / total * prob
				}
			}
			return true
		})
		if addErr != nil {
			return nil, addErr
		}
		out = append(out, t)
	}
	return out, nil
}

func trajectory(sc *domain.Scenario, prob float64, obsLen int) domain.TrajectoryNode {
	seg := sc.History.Slice(obsLen, obsLen+sc.Duration())
	ids := make([]string, len(sc.Agents))
	for i, a := range sc.Agents {
		ids[i] = a.TrackID
	}
	return domain.TrajectoryNode{
		ScenarioID: sc.ID,
		Prob:       prob,
		CurT:       sc.CurT,
		EndT:       sc.EndT,
		TrackIDs:   ids,
		Positions:  seg.Positions,
		Sigmas:     seg.Sigmas,
		GoalPoints: append([]r2.Vec(nil), sc.GoalPoints...),
	}
}
