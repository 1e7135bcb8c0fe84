package domain

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Frame is a 2D coordinate frame: an origin and a heading (radians) expressed
// in the parent frame.
type Frame struct {
	Origin  r2.Vec  `json:"origin" yaml:"origin"`
	Heading float64 `json:"heading" yaml:"heading"`
}

// Direction returns the unit vector of the frame heading.
func (f Frame) Direction() r2.Vec {
	return r2.Vec{X: math.Cos(f.Heading), Y: math.Sin(f.Heading)}
}

// ToLocal maps a point of the parent frame into this frame.
func (f Frame) ToLocal(p r2.Vec) r2.Vec {
	return r2.Rotate(r2.Sub(p, f.Origin), -f.Heading, r2.Vec{})
}

// ToParent maps a point of this frame back into the parent frame.
func (f Frame) ToParent(p r2.Vec) r2.Vec {
	return r2.Add(r2.Rotate(p, f.Heading, r2.Vec{}), f.Origin)
}

// VecToLocal rotates a free vector (velocity, direction) into this frame.
func (f Frame) VecToLocal(v r2.Vec) r2.Vec {
	return r2.Rotate(v, -f.Heading, r2.Vec{})
}

// VecToParent rotates a free vector back into the parent frame.
func (f Frame) VecToParent(v r2.Vec) r2.Vec {
	return r2.Rotate(v, f.Heading, r2.Vec{})
}
