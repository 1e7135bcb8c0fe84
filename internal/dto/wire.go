// Package dto holds the wire shapes shared by the network adapters.
package dto

import (
	"github.com/aretw0/aime/pkg/domain"
	"gonum.org/v1/gonum/spatial/r2"
)

// PredictRequest is the body of POST /predict on a model server.
type PredictRequest struct {
	Observations []Observation `json:"observations"`
}

// PredictResponse carries one prediction per requested observation.
type PredictResponse struct {
	Predictions []domain.Prediction `json:"predictions"`
	Error       string              `json:"error,omitempty"`
}

// Agent is the wire form of domain.AgentInput.
type Agent struct {
	TrackID    string       `json:"track_id"`
	Type       string       `json:"type"`
	Category   string       `json:"category,omitempty"`
	Anchor     domain.Frame `json:"anchor"`
	Positions  []r2.Vec     `json:"positions"`
	Headings   []float64    `json:"headings"`
	Velocities []r2.Vec     `json:"velocities"`
	Valid      []bool       `json:"valid"`
}

// Lane is the wire form of domain.LaneInput.
type Lane struct {
	ID      string       `json:"id"`
	Anchor  domain.Frame `json:"anchor"`
	Centers []r2.Vec     `json:"centers"`
	Vectors []r2.Vec     `json:"vectors"`
}

// Encoding is the wire form of domain.RelativeEncoding.
type Encoding struct {
	Size   int                                `json:"size"`
	Values [][domain.RelativeChannels]float64 `json:"values"`
	Mask   []bool                             `json:"mask"`
}

// Goal is the wire form of domain.Goal.
type Goal struct {
	Points []r2.Vec     `json:"points"`
	Nodes  [][]float64  `json:"nodes"`
	Anchor domain.Frame `json:"anchor"`
}

// Observation is the wire form of domain.Observation.
type Observation struct {
	Scene    domain.Frame `json:"scene"`
	Agents   []Agent      `json:"agents"`
	Lanes    []Lane       `json:"lanes"`
	SceneRPE Encoding     `json:"scene_rpe"`
	Goal     Goal         `json:"goal"`
	GoalRPE  Encoding     `json:"goal_rpe"`
}

// FromObservation converts a normalised observation to its wire form.
func FromObservation(o *domain.Observation) Observation {
	out := Observation{
		Scene:    o.Scene,
		Agents:   make([]Agent, len(o.Agents)),
		Lanes:    make([]Lane, len(o.Lanes)),
		SceneRPE: Encoding(o.SceneRPE),
		Goal:     Goal(o.Goal),
		GoalRPE:  Encoding(o.GoalRPE),
	}
	for i, a := range o.Agents {
		out.Agents[i] = Agent{
			TrackID:    a.TrackID,
			Type:       a.Type,
			Category:   a.Category,
			Anchor:     a.Anchor,
			Positions:  a.Positions,
			Headings:   a.Headings,
			Velocities: a.Velocities,
			Valid:      a.Valid,
		}
	}
	for i, l := range o.Lanes {
		out.Lanes[i] = Lane(l)
	}
	return out
}

// ToObservation converts the wire form back to a domain observation.
func (o Observation) ToObservation() *domain.Observation {
	out := &domain.Observation{
		Scene:    o.Scene,
		Agents:   make([]domain.AgentInput, len(o.Agents)),
		Lanes:    make([]domain.LaneInput, len(o.Lanes)),
		SceneRPE: domain.RelativeEncoding(o.SceneRPE),
		Goal:     domain.Goal(o.Goal),
		GoalRPE:  domain.RelativeEncoding(o.GoalRPE),
	}
	for i, a := range o.Agents {
		out.Agents[i] = domain.AgentInput{
			AgentMeta:  domain.AgentMeta{TrackID: a.TrackID, Type: a.Type, Category: a.Category},
			Anchor:     a.Anchor,
			Positions:  a.Positions,
			Headings:   a.Headings,
			Velocities: a.Velocities,
			Valid:      a.Valid,
		}
	}
	for i, l := range o.Lanes {
		out.Lanes[i] = domain.LaneInput(l)
	}
	return out
}

// GenerateRequest is the body of POST /v1/generate.
type GenerateRequest struct {
	Sample      domain.LocalSample      `json:"sample"`
	Observation domain.AgentObservation `json:"observation"`
	TargetLane  domain.TargetLane       `json:"target_lane"`
}

// GenerateResponse is the result of a generation.
type GenerateResponse struct {
	RunID string                 `json:"run_id"`
	Trees []*domain.ScenarioTree `json:"trees"`
	Stats domain.Stats           `json:"stats"`
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
}
