package domain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// RootScenarioID identifies the root of every search tree.
const RootScenarioID = "root"

// NewScenarioID builds the identifier of a candidate minted in a branching
// round: round, position of its parent in the batch, and mode index.
func NewScenarioID(round, batchIndex, mode int) string {
	return fmt.Sprintf("%d_%d_%d", round, batchIndex, mode)
}

// History holds per-agent buffers in the global frame. The first index is
// the agent, the second the time step.
type History struct {
	Positions  [][]r2.Vec
	Headings   [][]float64
	Velocities [][]r2.Vec
	Sigmas     [][]float64
}

// Agents returns the number of agents.
func (h History) Agents() int {
	return len(h.Positions)
}

// Len returns the number of time steps (taken from the first agent).
func (h History) Len() int {
	if len(h.Positions) == 0 {
		return 0
	}
	return len(h.Positions[0])
}

// Slice returns a copy of steps [from, to) of every buffer.
// Bounds are clamped to the available history.
func (h History) Slice(from, to int) History {
	out := History{
		Positions:  make([][]r2.Vec, len(h.Positions)),
		Headings:   make([][]float64, len(h.Headings)),
		Velocities: make([][]r2.Vec, len(h.Velocities)),
		Sigmas:     make([][]float64, len(h.Sigmas)),
	}
	for i := range h.Positions {
		out.Positions[i] = window(h.Positions[i], from, to)
	}
	for i := range h.Headings {
		out.Headings[i] = window(h.Headings[i], from, to)
	}
	for i := range h.Velocities {
		out.Velocities[i] = window(h.Velocities[i], from, to)
	}
	for i := range h.Sigmas {
		out.Sigmas[i] = window(h.Sigmas[i], from, to)
	}
	return out
}

// Clone returns a deep copy of every buffer.
func (h History) Clone() History {
	return h.Slice(0, math.MaxInt)
}

// Tail returns a copy of the last n steps of every buffer.
// Each buffer is cut by its own length.
func (h History) Tail(n int) History {
	out := History{
		Positions:  make([][]r2.Vec, len(h.Positions)),
		Headings:   make([][]float64, len(h.Headings)),
		Velocities: make([][]r2.Vec, len(h.Velocities)),
		Sigmas:     make([][]float64, len(h.Sigmas)),
	}
	for i, s := range h.Positions {
		out.Positions[i] = window(s, len(s)-n, len(s))
	}
	for i, s := range h.Headings {
		out.Headings[i] = window(s, len(s)-n, len(s))
	}
	for i, s := range h.Velocities {
		out.Velocities[i] = window(s, len(s)-n, len(s))
	}
	for i, s := range h.Sigmas {
		out.Sigmas[i] = window(s, len(s)-n, len(s))
	}
	return out
}

func window[T any](s []T, from, to int) []T {
	from = max(0, min(from, len(s)))
	to = max(from, min(to, len(s)))
	out := make([]T, to-from)
	copy(out, s[from:to])
	return out
}

// Scenario is one hypothesis of how the scene evolves, covering prediction
// steps [CurT, EndT) on top of the history it continues from.
type Scenario struct {
	ID         string
	ParentID   string
	Prob       float64
	CurT       int
	EndT       int
	History    History
	Agents     []AgentMeta
	GoalPoints []r2.Vec
}

// Duration is the number of prediction steps this scenario owns.
func (s *Scenario) Duration() int {
	return s.EndT - s.CurT
}

// Clone returns a deep copy so descendants never share buffers.
func (s *Scenario) Clone() *Scenario {
	c := *s
	c.History = s.History.Clone()
	c.Agents = append([]AgentMeta(nil), s.Agents...)
	c.GoalPoints = append([]r2.Vec(nil), s.GoalPoints...)
	return &c
}
