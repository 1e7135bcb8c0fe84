package runtime

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/aretw0/aime/pkg/domain"
	"github.com/aretw0/aime/pkg/frame"
	"github.com/aretw0/aime/pkg/tree"
	"gonum.org/v1/gonum/spatial/r2"
)

// Candidate is a predicted mode that survived pruning and waits for merging.
type Candidate struct {
	Scenario *domain.Scenario
	Mode     int
	ModeProb float64
	// Signature holds, per non-ego agent, the accumulated bearing change of
	// the ego-to-agent vector over the predicted segment.
	Signature []float64
}

// Merge keeps a candidate only if its signature differs by more than
// threshold, for at least one agent, from every candidate kept before it.
// Candidates are expected in descending probability. Merge is idempotent.
func Merge(cands []Candidate, threshold float64) []Candidate {
	var kept []Candidate
	for _, c := range cands {
		distinct := true
		for _, k := range kept {
			if !topologyDiffers(k.Signature, c.Signature, threshold) {
				distinct = false
				break
			}
		}
		if distinct {
			kept = append(kept, c)
		}
	}
	return kept
}

func topologyDiffers(a, b []float64, threshold float64) bool {
	for j := range min(len(a), len(b)) {
		if math.Abs(frame.WrapAngle(a[j]-b[j])) > threshold {
			return true
		}
	}
	return false
}

// Signature computes the topology signature of a joint prediction given in
// a common frame. tracks[i][k] is the position of agent i at step k.
func Signature(tracks [][]r2.Vec, ego int) []float64 {
	sig := make([]float64, 0, max(len(tracks)-1, 0))
	for j, tr := range tracks {
		if j == ego {
			continue
		}
		total, prev := 0.0, 0.0
		for k, p := range tr {
			if k >= len(tracks[ego]) {
				break
			}
			v := frame.SafeUnit(r2.Sub(p, tracks[ego][k]))
			ang := math.Atan2(v.Y, v.X)
			if k > 0 {
				total += frame.WrapAngle(ang - prev)
			}
			prev = ang
		}
		sig = append(sig, total)
	}
	return sig
}

// expand turns the prediction of one branch-ready leaf into its children:
// re-projection, probability and policy pruning, then topology merging.
func (e *Engine) expand(ctx context.Context, s *search, batchIndex int, parent *tree.Node[*domain.ScenarioNode], pred domain.Prediction) ([]*domain.Scenario, error) {
	pending, _ := parent.Data.Pending()
	snap := pending.Snapshot

	order := make([]int, len(pred.Modes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return pred.Modes[order[a]].Prob > pred.Modes[order[b]].Prob
	})

	var cands []Candidate
	for _, m := range order {
		mode := pred.Modes[m]
		id := domain.NewScenarioID(s.round, batchIndex, m)
		joint := mode.Prob * snap.Prob
		s.stats.Candidates++

		if joint < e.cfg.ProbThreshold {
			s.stats.ProbPruned++
			e.emitCandidate(ctx, s, snap.ID, id, m, joint, domain.CandidateProbPruned)
			continue
		}

		child, global := e.project(snap, pending.Observation, mode)
		child.ID = id
		child.Prob = joint

		prune, err := e.policyPrune(child, s.lane, domain.CandidateFacts{
			Prob:     joint,
			ModeProb: mode.Prob,
			Depth:    parent.Depth + 1,
		})
		if err != nil {
			return nil, err
		}
		if prune {
			s.stats.PolicyPruned++
			e.emitCandidate(ctx, s, snap.ID, id, m, joint, domain.CandidatePolicyPrune)
			continue
		}

		cands = append(cands, Candidate{
			Scenario:  child,
			Mode:      m,
			ModeProb:  mode.Prob,
			Signature: Signature(global, e.cfg.EgoIndex),
		})
	}

	kept := Merge(cands, e.cfg.TopologyThreshold)
	keptIDs := make(map[string]bool, len(kept))
	out := make([]*domain.Scenario, len(kept))
	for i, c := range kept {
		keptIDs[c.Scenario.ID] = true
		out[i] = c.Scenario
	}
	for _, c := range cands {
		outcome := domain.CandidateKept
		if keptIDs[c.Scenario.ID] {
			s.stats.Kept++
		} else {
			s.stats.Merged++
			outcome = domain.CandidateMerged
		}
		e.emitCandidate(ctx, s, snap.ID, c.Scenario.ID, c.Mode, c.Scenario.Prob, outcome)
	}
	return out, nil
}

// project maps one mode back to the global frame and appends it to the
// observation window of the parent snapshot. It also returns the predicted
// positions alone, used for the topology signature.
func (e *Engine) project(snap *domain.Scenario, obs *domain.Observation, mode domain.Mode) (*domain.Scenario, [][]r2.Vec) {
	window := snap.History.Tail(e.cfg.ObsLen)
	seqLen := e.cfg.SeqLen()
	steps := len(mode.Tracks[0].Positions)

	child := &domain.Scenario{
		ParentID:   snap.ID,
		CurT:       snap.EndT,
		EndT:       min(e.cfg.PredLen, snap.EndT+steps),
		Agents:     append([]domain.AgentMeta(nil), snap.Agents...),
		GoalPoints: append([]r2.Vec(nil), obs.Goal.Points...),
		History:    window,
	}
	global := make([][]r2.Vec, len(mode.Tracks))

	for i, tr := range mode.Tracks {
		anchor := obs.Agents[i].Anchor
		pos := frame.Denormalize(anchor, obs.Scene, tr.Positions)
		vel := frame.DenormalizeVectors(anchor, obs.Scene, tr.Velocities)
		sigma := tr.MaxSigma()
		head := make([]float64, steps)

		base := e.cfg.InitialSigma
		if n := len(window.Sigmas[i]); n > 0 {
			base = window.Sigmas[i][n-1]
		}
		for k := range steps {
			v := tr.Velocities[k]
			head[k] = frame.DenormalizeHeading(anchor, obs.Scene, math.Atan2(v.Y, v.X))
			sigma[k] += base
		}

		h := &child.History
		h.Positions[i] = truncate(append(h.Positions[i], pos...), seqLen)
		h.Velocities[i] = truncate(append(h.Velocities[i], vel...), seqLen)
		h.Headings[i] = truncate(append(h.Headings[i], head...), seqLen)
		h.Sigmas[i] = truncate(append(h.Sigmas[i], sigma...), seqLen)
		global[i] = pos
	}
	return child, global
}

func truncate[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// policyPrune checks the lane deviation of the ego at the end of the
// candidate and evaluates the configured rules.
func (e *Engine) policyPrune(c *domain.Scenario, lane domain.TargetLane, facts domain.CandidateFacts) (bool, error) {
	ego := e.cfg.EgoIndex
	pos := c.History.Positions[ego]
	sig := c.History.Sigmas[ego]
	vel := c.History.Velocities[ego]

	last := pos[len(pos)-1]
	facts.EgoSigma = sig[len(sig)-1]
	facts.EgoSpeed = r2.Norm(vel[len(vel)-1])
	facts.EgoLaneDistance = frame.DistanceToPolyline(last, lane.Points)

	if e.cfg.PolicyPrune && facts.EgoLaneDistance-facts.EgoSigma > e.cfg.LaneDeviation {
		return true, nil
	}
	for _, r := range e.rules {
		prune, err := r.Prune(facts)
		if err != nil {
			return false, fmt.Errorf("policy rule %q: %w", r.Name(), err)
		}
		if prune {
			return true, nil
		}
	}
	return false, nil
}

func (e *Engine) emitCandidate(ctx context.Context, s *search, parentID, id string, mode int, prob float64, outcome domain.CandidateOutcome) {
	if e.hooks.OnCandidate == nil {
		return
	}
	e.hooks.OnCandidate(ctx, &domain.CandidateEvent{
		EventBase:  e.base(domain.EventCandidate, s.runID),
		ParentID:   parentID,
		ScenarioID: id,
		Mode:       mode,
		Prob:       prob,
		Outcome:    outcome,
	})
}
