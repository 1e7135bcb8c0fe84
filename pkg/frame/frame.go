// Package frame expresses observations in the scene and instance frames the
// prediction oracle expects, and maps predictions back to the global frame.
package frame

import (
	"math"

	"github.com/aretw0/aime/pkg/domain"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// MinNorm floors vector norms before normalisation.
	MinNorm = 1e-6
)

// WrapAngle maps a to the interval (-pi, pi].
func WrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// SafeUnit returns v scaled to unit length, with the norm floored at MinNorm.
func SafeUnit(v r2.Vec) r2.Vec {
	return r2.Scale(1/math.Max(r2.Norm(v), MinNorm), v)
}

// DistanceToPolyline returns the smallest perpendicular distance from p to
// any segment of pts. An empty polyline is infinitely far.
func DistanceToPolyline(p r2.Vec, pts []r2.Vec) float64 {
	switch len(pts) {
	case 0:
		return math.Inf(1)
	case 1:
		return r2.Norm(r2.Sub(p, pts[0]))
	}
	best := math.Inf(1)
	for i := 0; i+1 < len(pts); i++ {
		best = math.Min(best, segmentDistance(p, pts[i], pts[i+1]))
	}
	return best
}

func segmentDistance(p, a, b r2.Vec) float64 {
	ab := r2.Sub(b, a)
	l2 := r2.Dot(ab, ab)
	if l2 == 0 {
		return r2.Norm(r2.Sub(p, a))
	}
	t := math.Max(0, math.Min(1, r2.Dot(r2.Sub(p, a), ab)/l2))
	return r2.Norm(r2.Sub(p, r2.Add(a, r2.Scale(t, ab))))
}

// SceneFrame derives the scene frame from the most recent valid sample of the
// ego track. Without valid samples it falls back to the last position (or the
// global origin) and the fallback heading.
func SceneFrame(ego domain.AgentTrack, fallback float64) domain.Frame {
	for i := len(ego.Positions) - 1; i >= 0; i-- {
		if ego.IsValid(i) && i < len(ego.Headings) {
			return domain.Frame{Origin: ego.Positions[i], Heading: ego.Headings[i]}
		}
	}
	f := domain.Frame{Heading: fallback}
	if n := len(ego.Positions); n > 0 {
		f.Origin = ego.Positions[n-1]
	}
	return f
}

// Normalize expresses every agent in the scene frame of the ego agent, then in
// its own instance frame anchored at its last valid sample. Invalid samples
// are zeroed.
func Normalize(obs domain.AgentObservation, egoIndex int, fallback float64) (domain.Frame, []domain.AgentInput) {
	var scene domain.Frame
	if egoIndex >= 0 && egoIndex < len(obs.Agents) {
		scene = SceneFrame(obs.Agents[egoIndex], fallback)
	} else {
		scene = domain.Frame{Heading: fallback}
	}

	inputs := make([]domain.AgentInput, len(obs.Agents))
	for k, a := range obs.Agents {
		n := len(a.Positions)
		pos := make([]r2.Vec, n)
		head := make([]float64, n)
		vel := make([]r2.Vec, n)
		valid := make([]bool, n)

		for i := range n {
			valid[i] = a.IsValid(i)
			pos[i] = scene.ToLocal(a.Positions[i])
			head[i] = WrapAngle(a.Headings[i] - scene.Heading)
			vel[i] = scene.VecToLocal(a.Velocities[i])
		}

		anchor := domain.Frame{Heading: fallback - scene.Heading}
		for i := n - 1; i >= 0; i-- {
			if valid[i] {
				anchor = domain.Frame{Origin: pos[i], Heading: head[i]}
				break
			}
		}

		for i := range n {
			if !valid[i] {
				pos[i], head[i], vel[i] = r2.Vec{}, 0, r2.Vec{}
				continue
			}
			pos[i] = anchor.ToLocal(pos[i])
			head[i] = WrapAngle(head[i] - anchor.Heading)
			vel[i] = anchor.VecToLocal(vel[i])
		}

		inputs[k] = domain.AgentInput{
			AgentMeta:  a.AgentMeta,
			Anchor:     anchor,
			Positions:  pos,
			Headings:   head,
			Velocities: vel,
			Valid:      valid,
		}
	}
	return scene, inputs
}

// NormalizeLanes expresses lane polylines in the scene frame, each lane in
// its own instance frame: anchored at the mean point, heading start to end.
// Lanes with fewer than two points are skipped.
func NormalizeLanes(lanes []domain.Lane, scene domain.Frame) []domain.LaneInput {
	out := make([]domain.LaneInput, 0, len(lanes))
	for _, l := range lanes {
		if len(l.Points) < 2 {
			continue
		}
		pts := make([]r2.Vec, len(l.Points))
		for i, p := range l.Points {
			pts[i] = scene.ToLocal(p)
		}
		anchor := PolylineAnchor(pts)

		in := domain.LaneInput{
			ID:      l.ID,
			Anchor:  anchor,
			Centers: make([]r2.Vec, len(pts)-1),
			Vectors: make([]r2.Vec, len(pts)-1),
		}
		for i := 0; i+1 < len(pts); i++ {
			in.Centers[i] = anchor.ToLocal(r2.Scale(0.5, r2.Add(pts[i], pts[i+1])))
			in.Vectors[i] = anchor.VecToLocal(r2.Sub(pts[i+1], pts[i]))
		}
		out = append(out, in)
	}
	return out
}

// PolylineAnchor returns the frame at the mean of pts, heading from the first
// to the last point.
func PolylineAnchor(pts []r2.Vec) domain.Frame {
	if len(pts) == 0 {
		return domain.Frame{}
	}
	var sum r2.Vec
	for _, p := range pts {
		sum = r2.Add(sum, p)
	}
	dir := SafeUnit(r2.Sub(pts[len(pts)-1], pts[0]))
	return domain.Frame{
		Origin:  r2.Scale(1/float64(len(pts)), sum),
		Heading: math.Atan2(dir.Y, dir.X),
	}
}

// RelativeEncoding computes the pairwise relative pose of anchors: cos/sin of
// the relative heading, cos/sin of the bearing and the distance scaled by
// radius. Pairs farther apart than radius are masked out.
func RelativeEncoding(anchors []domain.Frame, radius float64) domain.RelativeEncoding {
	n := len(anchors)
	enc := domain.RelativeEncoding{
		Size:   n,
		Values: make([][domain.RelativeChannels]float64, n*n),
		Mask:   make([]bool, n*n),
	}
	for i, from := range anchors {
		for j, to := range anchors {
			d := from.ToLocal(to.Origin)
			dist := r2.Norm(d)
			dh := WrapAngle(to.Heading - from.Heading)
			bearing := 0.0
			if dist > MinNorm {
				bearing = math.Atan2(d.Y, d.X)
			}
			enc.Values[i*n+j] = [domain.RelativeChannels]float64{
				math.Cos(dh), math.Sin(dh),
				math.Cos(bearing), math.Sin(bearing),
				dist / radius,
			}
			enc.Mask[i*n+j] = dist <= radius
		}
	}
	return enc
}

// Denormalize maps instance-frame points back to the global frame.
func Denormalize(anchor, scene domain.Frame, pts []r2.Vec) []r2.Vec {
	out := make([]r2.Vec, len(pts))
	for i, p := range pts {
		out[i] = scene.ToParent(anchor.ToParent(p))
	}
	return out
}

// DenormalizeVectors maps instance-frame free vectors back to the global frame.
func DenormalizeVectors(anchor, scene domain.Frame, vs []r2.Vec) []r2.Vec {
	out := make([]r2.Vec, len(vs))
	for i, v := range vs {
		out[i] = scene.VecToParent(anchor.VecToParent(v))
	}
	return out
}

// DenormalizeHeading maps an instance-frame heading back to the global frame.
func DenormalizeHeading(anchor, scene domain.Frame, h float64) float64 {
	return WrapAngle(h + anchor.Heading + scene.Heading)
}
