package command_test

import (
	"testing"

	"github.com/aretw0/aime/pkg/command"
	"github.com/aretw0/aime/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func straightLane(n int) domain.TargetLane {
	lane := domain.TargetLane{}
	for i := range n {
		lane.Points = append(lane.Points, r2.Vec{X: float64(i), Y: 0})
		lane.Attributes = append(lane.Attributes, []float64{float64(i)})
	}
	return lane
}

func TestResolve_Window(t *testing.T) {
	r := &command.Resolver{Lookahead: 3, MinSpeed: 0.5}
	lane := straightLane(50)

	goal, err := r.Resolve(domain.Frame{}, 2, lane)
	require.NoError(t, err)

	require.Len(t, goal.Points, command.Window)
	assert.Equal(t, 1.0, goal.Points[0].X)
	assert.Equal(t, 11.0, goal.Points[10].X)
	assert.InDelta(t, 6.0, goal.Anchor.Origin.X, 1e-9)
	assert.InDelta(t, 0.0, goal.Anchor.Heading, 1e-9)

	require.Len(t, goal.Nodes, command.Window-1)
	first := goal.Nodes[0]
	require.Len(t, first, 5)
	assert.InDelta(t, -4.5, first[0], 1e-9)
	assert.InDelta(t, 1.0, first[2], 1e-9)
	assert.Equal(t, 2.0, first[4], "attribute row of the second window point")
	assert.Equal(t, 11.0, goal.Nodes[9][4])
}

func TestResolve_Clamping(t *testing.T) {
	r := &command.Resolver{Lookahead: 1, MinSpeed: 0.5}
	lane := straightLane(20)

	t.Run("Start", func(t *testing.T) {
		goal, err := r.Resolve(domain.Frame{Origin: r2.Vec{X: -30}}, 0, lane)
		require.NoError(t, err)
		assert.Equal(t, 0.0, goal.Points[0].X)
		assert.Len(t, goal.Nodes, 10)
	})

	t.Run("End", func(t *testing.T) {
		goal, err := r.Resolve(domain.Frame{Origin: r2.Vec{X: 100}}, 50, lane)
		require.NoError(t, err)
		assert.Equal(t, 19.0, goal.Points[10].X)
		assert.Len(t, goal.Nodes, 10)
	})

	t.Run("Minimum Speed", func(t *testing.T) {
		goal, err := r.Resolve(domain.Frame{Origin: r2.Vec{X: 8}}, 0, lane)
		require.NoError(t, err)
		assert.Equal(t, 9.0, goal.Points[5].X)
		// Anchor is expressed in the scene frame.
		assert.InDelta(t, 1.0, goal.Anchor.Origin.X, 1e-9)
	})
}

func TestResolve_Errors(t *testing.T) {
	r := &command.Resolver{Lookahead: 1, MinSpeed: 0.5}

	_, err := r.Resolve(domain.Frame{}, 1, straightLane(10))
	assert.ErrorIs(t, err, domain.ErrTargetLaneTooShort)

	lane := straightLane(12)
	lane.Attributes = lane.Attributes[:3]
	_, err = r.Resolve(domain.Frame{}, 1, lane)
	assert.ErrorIs(t, err, domain.ErrMalformedObservation)
}

func TestResolve_WithoutAttributes(t *testing.T) {
	r := &command.Resolver{Lookahead: 1, MinSpeed: 0.5}
	lane := straightLane(15)
	lane.Attributes = nil

	goal, err := r.Resolve(domain.Frame{}, 1, lane)
	require.NoError(t, err)
	assert.Len(t, goal.Nodes[0], 4)
}
