// Package command derives the high-level command (goal) of the ego vehicle
// from its target lane.
package command

import (
	"fmt"
	"math"

	"github.com/aretw0/aime/pkg/domain"
	"github.com/aretw0/aime/pkg/frame"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// Window is the number of target-lane points in a command.
	Window = 11
	half   = Window / 2
)

// Resolver places the command window on the target lane.
type Resolver struct {
	Lookahead float64
	MinSpeed  float64
}

// NewResolver builds a resolver from the generator config.
func NewResolver(cfg domain.Config) *Resolver {
	return &Resolver{Lookahead: cfg.LookaheadSeconds, MinSpeed: cfg.MinSpeed}
}

// Resolve returns the goal for an ego at the origin of scene travelling at speed.
//
// The window starts from the lane point nearest to the scene origin and walks
// forward the distance covered in Lookahead seconds. It is then clamped so the
// full window fits on the lane.
func (r *Resolver) Resolve(scene domain.Frame, speed float64, lane domain.TargetLane) (domain.Goal, error) {
	n := len(lane.Points)
	if n < Window {
		return domain.Goal{}, fmt.Errorf("%w: %d points, need %d", domain.ErrTargetLaneTooShort, n, Window)
	}
	if len(lane.Attributes) != 0 && len(lane.Attributes) != n {
		return domain.Goal{}, fmt.Errorf("%w: %d attribute rows for %d points", domain.ErrMalformedObservation, len(lane.Attributes), n)
	}

	local := make([]r2.Vec, n)
	dists := make([]float64, n)
	for i, p := range lane.Points {
		local[i] = scene.ToLocal(p)
		dists[i] = r2.Norm(local[i])
	}

	idx := r.anchorIndex(floats.MinIdx(dists), local, speed)
	lo, hi := idx-half, idx+half+1

	pts := local[lo:hi]
	anchor := frame.PolylineAnchor(pts)

	goal := domain.Goal{
		Points: append([]r2.Vec(nil), lane.Points[lo:hi]...),
		Nodes:  make([][]float64, Window-1),
		Anchor: anchor,
	}
	for i := range Window - 1 {
		a, b := anchor.ToLocal(pts[i]), anchor.ToLocal(pts[i+1])
		ctr := r2.Scale(0.5, r2.Add(a, b))
		vec := r2.Sub(b, a)
		row := []float64{ctr.X, ctr.Y, vec.X, vec.Y}
		if len(lane.Attributes) != 0 {
			row = append(row, lane.Attributes[lo+i+1]...)
		}
		goal.Nodes[i] = row
	}
	return goal, nil
}

func (r *Resolver) anchorIndex(start int, pts []r2.Vec, speed float64) int {
	n := len(pts)
	travel := math.Max(speed, r.MinSpeed) * r.Lookahead

	idx := start
	for idx < n-1 && travel > 0 {
		idx++
		travel -= r2.Norm(r2.Sub(pts[idx], pts[idx-1]))
	}
	if idx == n-1 {
		idx--
	}
	return max(half, min(idx, n-1-half))
}
