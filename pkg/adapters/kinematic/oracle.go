// Package kinematic provides a deterministic multi-modal prediction oracle.
//
// Every mode rolls the agents forward with a constant acceleration and yaw
// rate, one pair for the ego and one for the other agents. Uncertainty grows
// quadratically with the horizon. It is a baseline for demos and tests, not
// a learned model.
package kinematic

import (
	"context"
	"fmt"
	"math"

	"github.com/aretw0/aime/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gonum.org/v1/gonum/spatial/r2"
)

// Maneuver is a constant acceleration (m/s²) and yaw rate (rad/s).
type Maneuver struct {
	Accel   float64 `mapstructure:"accel"`
	YawRate float64 `mapstructure:"yaw_rate"`
}

// ModeSpec describes one predicted mode.
type ModeSpec struct {
	Name   string   `mapstructure:"name"`
	Prob   float64  `mapstructure:"prob"`
	Ego    Maneuver `mapstructure:"ego"`
	Others Maneuver `mapstructure:"others"`
}

// Params configures the oracle.
type Params struct {
	Steps       int        `mapstructure:"steps"`
	StepSeconds float64    `mapstructure:"step_seconds"`
	EgoIndex    int        `mapstructure:"ego_index"`
	SigmaBase   float64    `mapstructure:"sigma_base"`
	SigmaGrowth float64    `mapstructure:"sigma_growth"`
	Modes       []ModeSpec `mapstructure:"modes"`
}

// DefaultParams returns a five-mode set: keep going, ego brakes, others
// brake, ego drifts left, ego drifts right.
func DefaultParams() Params {
	return Params{
		Steps:       60,
		StepSeconds: 0.1,
		SigmaBase:   0.05,
		SigmaGrowth: 0.5,
		Modes: []ModeSpec{
			{Name: "keep", Prob: 0.5},
			{Name: "ego_brake", Prob: 0.2, Ego: Maneuver{Accel: -2}},
			{Name: "others_brake", Prob: 0.15, Others: Maneuver{Accel: -3}},
			{Name: "ego_left", Prob: 0.1, Ego: Maneuver{YawRate: 0.1}},
			{Name: "ego_right", Prob: 0.05, Ego: Maneuver{YawRate: -0.1}},
		},
	}
}

// Validate checks the parameters.
func (p Params) Validate() error {
	if p.Steps < 1 {
		return fmt.Errorf("steps must be positive, got %d", p.Steps)
	}
	if p.StepSeconds <= 0 {
		return fmt.Errorf("step_seconds must be positive, got %g", p.StepSeconds)
	}
	if p.SigmaBase <= 0 || p.SigmaGrowth < 0 {
		return fmt.Errorf("sigma_base must be positive and sigma_growth non-negative")
	}
	if len(p.Modes) == 0 {
		return fmt.Errorf("at least one mode is required")
	}
	for _, m := range p.Modes {
		if m.Prob < 0 {
			return fmt.Errorf("mode %q has negative probability", m.Name)
		}
	}
	return nil
}

// Oracle implements ports.Oracle.
type Oracle struct {
	params Params
}

// New creates an oracle. Mode probabilities are normalised to sum to one.
func New(p Params) (*Oracle, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	total := 0.0
	for _, m := range p.Modes {
		total += m.Prob
	}
	if total <= 0 {
		return nil, fmt.Errorf("mode probabilities sum to zero")
	}
	modes := make([]ModeSpec, len(p.Modes))
	for i, m := range p.Modes {
		m.Prob /= total
		modes[i] = m
	}
	p.Modes = modes
	return &Oracle{params: p}, nil
}

// FromParams decodes a loosely typed parameter map (as found in config
// files) over DefaultParams and builds the oracle. Unknown keys are errors.
func FromParams(raw map[string]any) (*Oracle, error) {
	p := DefaultParams()
	if len(raw) > 0 {
		if _, ok := raw["modes"]; ok {
			p.Modes = nil
		}
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &p,
			WeaklyTypedInput: true,
			ErrorUnused:      true,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(raw); err != nil {
			return nil, fmt.Errorf("invalid kinematic oracle params: %w", err)
		}
	}
	return New(p)
}

// Params returns the normalised parameters.
func (o *Oracle) Params() Params {
	return o.params
}

// Predict rolls every observation forward under every mode.
func (o *Oracle) Predict(ctx context.Context, batch []*domain.Observation) ([]domain.Prediction, error) {
	out := make([]domain.Prediction, len(batch))
	for b, obs := range batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[b].Modes = make([]domain.Mode, len(o.params.Modes))
		for m, ms := range o.params.Modes {
			mode := domain.Mode{Prob: ms.Prob, Tracks: make([]domain.ModeTrack, len(obs.Agents))}
			for i, a := range obs.Agents {
				man := ms.Others
				if i == o.params.EgoIndex {
					man = ms.Ego
				}
				mode.Tracks[i] = o.rollout(currentSpeed(a), man)
			}
			out[b].Modes[m] = mode
		}
	}
	return out, nil
}

// currentSpeed is the speed at the last valid sample of the agent.
func currentSpeed(a domain.AgentInput) float64 {
	for i := len(a.Velocities) - 1; i >= 0; i-- {
		if len(a.Valid) == 0 || a.Valid[i] {
			return r2.Norm(a.Velocities[i])
		}
	}
	return 0
}

// rollout integrates a maneuver in the instance frame, where the agent sits
// at the origin heading along +X.
func (o *Oracle) rollout(speed float64, man Maneuver) domain.ModeTrack {
	n, dt := o.params.Steps, o.params.StepSeconds
	tr := domain.ModeTrack{
		Positions:  make([]r2.Vec, n),
		Sigmas:     make([]r2.Vec, n),
		Velocities: make([]r2.Vec, n),
	}

	var pos r2.Vec
	heading := 0.0
	for k := range n {
		speed = math.Max(0, speed+man.Accel*dt)
		heading += man.YawRate * dt
		vel := r2.Vec{X: speed * math.Cos(heading), Y: speed * math.Sin(heading)}
		pos = r2.Add(pos, r2.Scale(dt, vel))

		t := float64(k+1) * dt
		long := o.params.SigmaBase + o.params.SigmaGrowth*t*t
		tr.Positions[k] = pos
		tr.Velocities[k] = vel
		tr.Sigmas[k] = r2.Vec{X: long, Y: long / 2}
	}
	return tr
}
