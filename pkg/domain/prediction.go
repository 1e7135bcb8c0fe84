package domain

import "gonum.org/v1/gonum/spatial/r2"

// ModeTrack is the predicted future of one agent under one mode, in the
// agent's instance frame.
type ModeTrack struct {
	Positions  []r2.Vec `json:"positions"`
	Sigmas     []r2.Vec `json:"sigmas"`
	Velocities []r2.Vec `json:"velocities"`
}

// MaxSigma returns the per-step maximum axis sigma, a conservative scalar
// bound of the predicted covariance.
func (t ModeTrack) MaxSigma() []float64 {
	out := make([]float64, len(t.Sigmas))
	for i, s := range t.Sigmas {
		out[i] = max(s.X, s.Y)
	}
	return out
}

// Mode is one joint future of the scene.
type Mode struct {
	Prob   float64     `json:"prob"`
	Tracks []ModeTrack `json:"tracks"`
}

// Prediction is the oracle output for one observation.
type Prediction struct {
	Modes []Mode `json:"modes"`
}
