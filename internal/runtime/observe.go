package runtime

import (
	"fmt"

	"github.com/aretw0/aime/pkg/domain"
	"github.com/aretw0/aime/pkg/frame"
	"gonum.org/v1/gonum/spatial/r2"
)

// observe normalises a window of agent tracks and the map context into the
// oracle input, resolving the goal on the target lane.
func (e *Engine) observe(agents domain.AgentObservation, lanes []domain.Lane, speed float64, lane domain.TargetLane) (*domain.Observation, error) {
	scene, inputs := frame.Normalize(agents, e.cfg.EgoIndex, e.cfg.HeadingFallback)
	laneInputs := frame.NormalizeLanes(lanes, scene)

	goal, err := e.resolver.Resolve(scene, speed, lane)
	if err != nil {
		return nil, err
	}

	anchors := make([]domain.Frame, 0, len(inputs)+len(laneInputs))
	for _, a := range inputs {
		anchors = append(anchors, a.Anchor)
	}
	for _, l := range laneInputs {
		anchors = append(anchors, l.Anchor)
	}

	return &domain.Observation{
		Scene:    scene,
		Agents:   inputs,
		Lanes:    laneInputs,
		SceneRPE: frame.RelativeEncoding(anchors, e.cfg.EncodingRadius),
		Goal:     goal,
		GoalRPE:  frame.RelativeEncoding([]domain.Frame{inputs[e.cfg.EgoIndex].Anchor, goal.Anchor}, e.cfg.EncodingRadius),
	}, nil
}

// rootScenario re-projects the normalised observation to the global frame.
// The root owns no prediction steps: its branch point is t = 0.
func (e *Engine) rootScenario(raw domain.AgentObservation, obs *domain.Observation) *domain.Scenario {
	n := len(obs.Agents)
	h := domain.History{
		Positions:  make([][]r2.Vec, n),
		Headings:   make([][]float64, n),
		Velocities: make([][]r2.Vec, n),
		Sigmas:     make([][]float64, n),
	}
	metas := make([]domain.AgentMeta, n)
	for i, a := range obs.Agents {
		metas[i] = raw.Agents[i].AgentMeta
		h.Positions[i] = frame.Denormalize(a.Anchor, obs.Scene, a.Positions)
		h.Velocities[i] = frame.DenormalizeVectors(a.Anchor, obs.Scene, a.Velocities)
		h.Headings[i] = make([]float64, len(a.Headings))
		h.Sigmas[i] = make([]float64, len(a.Headings))
		for k, v := range a.Headings {
			h.Headings[i][k] = frame.DenormalizeHeading(a.Anchor, obs.Scene, v)
			h.Sigmas[i][k] = e.cfg.InitialSigma
		}
	}
	return &domain.Scenario{
		ID:         domain.RootScenarioID,
		Prob:       1,
		History:    h,
		Agents:     metas,
		GoalPoints: obs.Goal.Points,
	}
}

// reobserve truncates a scenario at branch time tb and builds the observation
// window ending there. The returned snapshot is a deep copy owned by the node.
func (e *Engine) reobserve(s *domain.Scenario, tb int, lanes []domain.Lane, lane domain.TargetLane) (domain.Pending, error) {
	snap := s.Clone()
	snap.EndT = tb
	snap.History = s.History.Slice(0, e.cfg.ObsLen+tb-s.CurT)

	window := snap.History.Tail(e.cfg.ObsLen)
	agents := domain.AgentObservation{Agents: make([]domain.AgentTrack, window.Agents())}
	for i := range agents.Agents {
		agents.Agents[i] = domain.AgentTrack{
			AgentMeta:  snap.Agents[i],
			Positions:  window.Positions[i],
			Headings:   window.Headings[i],
			Velocities: window.Velocities[i],
		}
	}

	egoVel := window.Velocities[e.cfg.EgoIndex]
	speed := 0.0
	if len(egoVel) > 0 {
		speed = r2.Norm(egoVel[len(egoVel)-1])
	}

	obs, err := e.observe(agents, lanes, speed, lane)
	if err != nil {
		return domain.Pending{}, fmt.Errorf("failed to re-observe scenario %s at t=%d: %w", s.ID, tb, err)
	}
	return domain.Pending{Observation: obs, Snapshot: snap}, nil
}
