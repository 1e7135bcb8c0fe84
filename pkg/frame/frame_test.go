package frame_test

import (
	"math"
	"testing"

	"github.com/aretw0/aime/pkg/domain"
	"github.com/aretw0/aime/pkg/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

const eps = 1e-9

func assertVec(t *testing.T, want, got r2.Vec) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, eps)
	assert.InDelta(t, want.Y, got.Y, eps)
}

func TestWrapAngle(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-5 * math.Pi / 2, -math.Pi / 2},
		{4 * math.Pi, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, frame.WrapAngle(tt.in), eps, "wrap(%v)", tt.in)
	}
}

func TestSafeUnit(t *testing.T) {
	assertVec(t, r2.Vec{X: 0.6, Y: 0.8}, frame.SafeUnit(r2.Vec{X: 3, Y: 4}))

	tiny := frame.SafeUnit(r2.Vec{})
	assert.False(t, math.IsNaN(tiny.X))
	assert.Equal(t, 0.0, tiny.X)
}

func TestDistanceToPolyline(t *testing.T) {
	line := []r2.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}

	assert.InDelta(t, 2.0, frame.DistanceToPolyline(r2.Vec{X: 5, Y: 2}, line), eps)
	assert.InDelta(t, 1.0, frame.DistanceToPolyline(r2.Vec{X: 11, Y: 5}, line), eps)
	assert.InDelta(t, 5.0, frame.DistanceToPolyline(r2.Vec{X: -3, Y: -4}, line), eps)
	assert.True(t, math.IsInf(frame.DistanceToPolyline(r2.Vec{}, nil), 1))
}

func TestSceneFrame(t *testing.T) {
	track := domain.AgentTrack{
		Positions:  []r2.Vec{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 9, Y: 9}},
		Headings:   []float64{0.1, 0.2, 0.3},
		Velocities: make([]r2.Vec, 3),
		Valid:      []bool{true, true, false},
	}

	t.Run("Last Valid Sample", func(t *testing.T) {
		f := frame.SceneFrame(track, 0)
		assertVec(t, r2.Vec{X: 2, Y: 2}, f.Origin)
		assert.InDelta(t, 0.2, f.Heading, eps)
	})

	t.Run("No Valid Sample", func(t *testing.T) {
		invalid := track
		invalid.Valid = []bool{false, false, false}
		f := frame.SceneFrame(invalid, 0.7)
		assertVec(t, r2.Vec{X: 9, Y: 9}, f.Origin)
		assert.InDelta(t, 0.7, f.Heading, eps)
	})

	t.Run("Empty Track", func(t *testing.T) {
		f := frame.SceneFrame(domain.AgentTrack{}, 0)
		assertVec(t, r2.Vec{}, f.Origin)
	})
}

func TestNormalize_RoundTrip(t *testing.T) {
	obs := domain.AgentObservation{Agents: []domain.AgentTrack{
		{
			AgentMeta:  domain.AgentMeta{TrackID: "ego"},
			Positions:  []r2.Vec{{X: 10, Y: 5}, {X: 11, Y: 6}},
			Headings:   []float64{math.Pi / 4, math.Pi / 4},
			Velocities: []r2.Vec{{X: 1, Y: 1}, {X: 1, Y: 1}},
		},
		{
			AgentMeta:  domain.AgentMeta{TrackID: "car"},
			Positions:  []r2.Vec{{X: 20, Y: 5}, {X: 20, Y: 7}},
			Headings:   []float64{math.Pi / 2, math.Pi / 2},
			Velocities: []r2.Vec{{X: 0, Y: 2}, {X: 0, Y: 2}},
		},
	}}

	scene, inputs := frame.Normalize(obs, 0, 0)
	require.Len(t, inputs, 2)
	assertVec(t, r2.Vec{X: 11, Y: 6}, scene.Origin)
	assert.InDelta(t, math.Pi/4, scene.Heading, eps)

	ego := inputs[0]
	assert.Equal(t, "ego", ego.TrackID)
	assertVec(t, r2.Vec{}, ego.Anchor.Origin)
	assertVec(t, r2.Vec{}, ego.Positions[1])
	assertVec(t, r2.Vec{X: -math.Sqrt2, Y: 0}, ego.Positions[0])
	assertVec(t, r2.Vec{X: math.Sqrt2, Y: 0}, ego.Velocities[1])

	for k, in := range inputs {
		back := frame.Denormalize(in.Anchor, scene, in.Positions)
		for i := range back {
			assertVec(t, obs.Agents[k].Positions[i], back[i])
		}
		vel := frame.DenormalizeVectors(in.Anchor, scene, in.Velocities)
		assertVec(t, obs.Agents[k].Velocities[1], vel[1])
		assert.InDelta(t, obs.Agents[k].Headings[1], frame.DenormalizeHeading(in.Anchor, scene, in.Headings[1]), eps)
	}
}

func TestNormalizeLanes(t *testing.T) {
	scene := domain.Frame{Origin: r2.Vec{X: 0, Y: 0}, Heading: math.Pi / 2}
	lanes := []domain.Lane{
		{ID: "l1", Points: []r2.Vec{{X: 0, Y: 0}, {X: 0, Y: 2}, {X: 0, Y: 4}}},
		{ID: "stub", Points: []r2.Vec{{X: 1, Y: 1}}},
	}

	out := frame.NormalizeLanes(lanes, scene)
	require.Len(t, out, 1)
	l := out[0]
	assert.Equal(t, "l1", l.ID)
	assertVec(t, r2.Vec{X: 2, Y: 0}, l.Anchor.Origin)
	assert.InDelta(t, 0, l.Anchor.Heading, eps)
	require.Len(t, l.Centers, 2)
	assertVec(t, r2.Vec{X: -1, Y: 0}, l.Centers[0])
	assertVec(t, r2.Vec{X: 2, Y: 0}, l.Vectors[1])
}

func TestRelativeEncoding(t *testing.T) {
	anchors := []domain.Frame{
		{Origin: r2.Vec{}, Heading: 0},
		{Origin: r2.Vec{X: 0, Y: 10}, Heading: math.Pi / 2},
		{Origin: r2.Vec{X: 500, Y: 0}, Heading: 0},
	}
	enc := frame.RelativeEncoding(anchors, 100)
	require.Equal(t, 3, enc.Size)

	v := enc.At(0, 1)
	assert.InDelta(t, 0, v[0], eps)
	assert.InDelta(t, 1, v[1], eps)
	assert.InDelta(t, 0, v[2], eps)
	assert.InDelta(t, 1, v[3], eps)
	assert.InDelta(t, 0.1, v[4], eps)

	self := enc.At(1, 1)
	assert.InDelta(t, 1, self[0], eps)
	assert.InDelta(t, 0, self[4], eps)

	assert.True(t, enc.Mask[0*3+1])
	assert.False(t, enc.Mask[0*3+2])
}
