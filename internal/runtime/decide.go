package runtime

import (
	"context"
	"log/slog"

	"github.com/aretw0/aime/pkg/domain"
	"github.com/aretw0/aime/pkg/tree"
)

const minSigma = 1e-9

// decide updates the flags of every leaf after a round. A leaf is either
// re-observed for branching, marked End at the horizon, or terminated.
func (e *Engine) decide(ctx context.Context, s *search, logger *slog.Logger) error {
	for _, leaf := range s.tree.Leaves() {
		n := leaf.Data
		switch {
		case n.Branch:
			// Expanded this round without any surviving child.
			n.Branch = false
			n.Terminate = true
			e.emitLeaf(ctx, s, leaf, domain.LeafTerminate, 0)
		case n.End, n.Terminate:
		case leaf.Depth >= e.cfg.MaxDepth:
			n.Terminate = true
			e.emitLeaf(ctx, s, leaf, domain.LeafTerminate, 0)
		default:
			sc := n.Scenario()
			tb := e.branchTime(sc)
			if tb >= e.cfg.PredLen || tb >= sc.EndT {
				n.End = true
				e.emitLeaf(ctx, s, leaf, domain.LeafEnd, 0)
				continue
			}
			p, err := e.reobserve(sc, tb, s.lanes, s.lane)
			if err != nil {
				return err
			}
			n.Observe(p)
			n.Branch = true
			logger.Debug("leaf branched", "scenario", leaf.Key, "t", tb, "depth", leaf.Depth)
			e.emitLeaf(ctx, s, leaf, domain.LeafBranch, tb)
		}
	}
	return nil
}

// branchTime returns the first even step t in (CurT, EndT) where the sigma
// of any agent grew past CovChangeRate times its value at the comparison
// step, or EndT when uncertainty stays low.
// The comparison step is the second predicted step for children of the root
// and the first predicted step of the node's own segment afterwards.
func (e *Engine) branchTime(sc *domain.Scenario) int {
	cmp := e.cfg.ObsLen
	if sc.CurT == 0 {
		cmp++
	}
	for t := sc.CurT + 1; t < sc.EndT; t++ {
		if t%2 == 1 {
			continue
		}
		idx := e.cfg.ObsLen + t - sc.CurT
		for _, sig := range sc.History.Sigmas {
			if idx >= len(sig) || cmp >= len(sig) {
				continue
			}
			if sig[idx]/max(sig[cmp], minSigma) > e.cfg.CovChangeRate {
				return t
			}
		}
	}
	return sc.EndT
}

func (e *Engine) emitLeaf(ctx context.Context, s *search, leaf *tree.Node[*domain.ScenarioNode], d domain.LeafDecision, tb int) {
	if e.hooks.OnLeafDecision == nil {
		return
	}
	e.hooks.OnLeafDecision(ctx, &domain.LeafEvent{
		EventBase:  e.base(domain.EventLeafDecision, s.runID),
		ScenarioID: leaf.Key,
		Depth:      leaf.Depth,
		Decision:   d,
		BranchT:    tb,
	})
}
