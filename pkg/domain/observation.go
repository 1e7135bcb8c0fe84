package domain

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// AgentMeta is carried unchanged through every scenario.
type AgentMeta struct {
	TrackID  string `json:"track_id" yaml:"track_id"`
	Type     string `json:"type" yaml:"type"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
}

// AgentTrack is the raw observed history of one agent in the global frame.
// All slices share the same length (the observation window).
type AgentTrack struct {
	AgentMeta  `yaml:",inline"`
	Positions  []r2.Vec  `json:"positions" yaml:"positions"`
	Headings   []float64 `json:"headings" yaml:"headings"`
	Velocities []r2.Vec  `json:"velocities" yaml:"velocities"`
	Valid      []bool    `json:"valid,omitempty" yaml:"valid,omitempty"`
}

// IsValid reports whether sample i was observed. Tracks without a mask are fully valid.
func (t AgentTrack) IsValid(i int) bool {
	if len(t.Valid) == 0 {
		return true
	}
	return i < len(t.Valid) && t.Valid[i]
}

// AgentObservation is the set of tracks of a planning cycle. Agents[EgoIndex] is the ego vehicle.
type AgentObservation struct {
	Agents []AgentTrack `json:"agents" yaml:"agents"`
}

// Validate checks that every track has the expected window length.
func (o AgentObservation) Validate(window int) error {
	if len(o.Agents) == 0 {
		return fmt.Errorf("%w: no agents", ErrMalformedObservation)
	}
	for i, a := range o.Agents {
		if len(a.Positions) != window || len(a.Headings) != window || len(a.Velocities) != window {
			return fmt.Errorf("%w: agent %d (%s) has %d/%d/%d samples, want %d",
				ErrMalformedObservation, i, a.TrackID, len(a.Positions), len(a.Headings), len(a.Velocities), window)
		}
		if len(a.Valid) != 0 && len(a.Valid) != window {
			return fmt.Errorf("%w: agent %d (%s) validity mask has %d samples, want %d",
				ErrMalformedObservation, i, a.TrackID, len(a.Valid), window)
		}
	}
	return nil
}

// Lane is a map polyline in the global frame.
type Lane struct {
	ID     string   `json:"id" yaml:"id"`
	Points []r2.Vec `json:"points" yaml:"points"`
}

// LocalSample carries the map context and ego state of a planning cycle.
type LocalSample struct {
	EgoSpeed float64 `json:"ego_speed" yaml:"ego_speed"`
	Lanes    []Lane  `json:"lanes" yaml:"lanes"`
}

// TargetLane is the route polyline the ego should follow, with one attribute
// row per point.
type TargetLane struct {
	Points     []r2.Vec    `json:"points" yaml:"points"`
	Attributes [][]float64 `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Clone returns a deep copy.
func (l TargetLane) Clone() TargetLane {
	out := TargetLane{Points: append([]r2.Vec(nil), l.Points...)}
	if l.Attributes != nil {
		out.Attributes = make([][]float64, len(l.Attributes))
		for i, row := range l.Attributes {
			out.Attributes[i] = append([]float64(nil), row...)
		}
	}
	return out
}

// AgentInput is one agent of an observation window, expressed in its own
// instance frame. Anchor is the instance frame in scene coordinates.
type AgentInput struct {
	AgentMeta
	Anchor     Frame
	Positions  []r2.Vec
	Headings   []float64
	Velocities []r2.Vec
	Valid      []bool
}

// LaneInput is a lane of the observation window in its own instance frame:
// one center and direction vector per polyline segment.
type LaneInput struct {
	ID      string
	Anchor  Frame
	Centers []r2.Vec
	Vectors []r2.Vec
}

// RelativeEncoding holds pairwise relative-pose features between anchors.
// Values[i*Size+j] encodes j as seen from i; Mask[i*Size+j] is true when
// the pair lies within the encoding radius.
type RelativeEncoding struct {
	Size   int
	Values [][RelativeChannels]float64
	Mask   []bool
}

// RelativeChannels is the number of features per anchor pair.
const RelativeChannels = 5

// At returns the encoding of j relative to i.
func (e RelativeEncoding) At(i, j int) [RelativeChannels]float64 {
	return e.Values[i*e.Size+j]
}

// Goal is the high-level command derived from the target lane.
type Goal struct {
	// Points are the 11 target-lane points of the command window (global frame).
	Points []r2.Vec
	// Nodes holds one feature row per window segment: center, vector, attributes.
	Nodes [][]float64
	// Anchor is the command instance frame in scene coordinates.
	Anchor Frame
}

// Observation is the normalised input of one oracle call.
type Observation struct {
	Scene    Frame
	Agents   []AgentInput
	Lanes    []LaneInput
	SceneRPE RelativeEncoding
	Goal     Goal
	GoalRPE  RelativeEncoding
}
