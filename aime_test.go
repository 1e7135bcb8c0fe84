package aime_test

import (
	"context"
	"testing"

	"github.com/aretw0/aime"
	"github.com/aretw0/aime/internal/testutils"
	"github.com/aretw0/aime/pkg/adapters/memory"
	"github.com/aretw0/aime/pkg/domain"
	"github.com/aretw0/aime/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

// cruiseOracle predicts a single mode: every agent keeps its current speed
// along its heading with constant uncertainty, so no branch point is ever
// found and the tree has a single first-level scenario.
func cruiseOracle(steps int) ports.Oracle {
	return ports.OracleFunc(func(ctx context.Context, batch []*domain.Observation) ([]domain.Prediction, error) {
		out := make([]domain.Prediction, len(batch))
		for b, obs := range batch {
			mode := domain.Mode{Prob: 1}
			for _, a := range obs.Agents {
				v := r2.Norm(a.Velocities[len(a.Velocities)-1])
				tr := domain.ModeTrack{}
				for k := range steps {
					tr.Positions = append(tr.Positions, r2.Vec{X: v * 0.1 * float64(k+1)})
					tr.Velocities = append(tr.Velocities, r2.Vec{X: v})
					tr.Sigmas = append(tr.Sigmas, r2.Vec{X: 1, Y: 1})
				}
				mode.Tracks = append(mode.Tracks, tr)
			}
			out[b] = domain.Prediction{Modes: []domain.Mode{mode}}
		}
		return out, nil
	})
}

func TestNew(t *testing.T) {
	_, err := aime.New()
	assert.Error(t, err, "an oracle is required")

	cfg := domain.DefaultConfig()
	cfg.MaxDepth = 0
	_, err = aime.New(aime.WithOracle(cruiseOracle(60)), aime.WithConfig(cfg))
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	gen, err := aime.New(aime.WithOracle(cruiseOracle(60)))
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultConfig(), gen.Config())
}

func TestGenerator_TargetLane(t *testing.T) {
	gen, err := aime.New(aime.WithOracle(cruiseOracle(60)))
	require.NoError(t, err)

	_, ok := gen.TargetLane()
	assert.False(t, ok)

	points := []r2.Vec{{X: 0}, {X: 1}}
	gen.SetTargetLane(points, [][]float64{{1}, {2}})
	points[0].X = 99

	lane, ok := gen.TargetLane()
	require.True(t, ok)
	assert.Equal(t, 0.0, lane.Points[0].X, "the lane is copied on set")

	gen.Reset()
	_, ok = gen.TargetLane()
	assert.False(t, ok)
}

func TestGenerator_Generate(t *testing.T) {
	sc := testutils.HighwayScene(50, 10)
	gen, err := aime.New(aime.WithOracle(cruiseOracle(60)))
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), sc.Sample, sc.Observation)
	assert.ErrorIs(t, err, domain.ErrTargetLaneMissing)

	gen.SetTargetLane(sc.TargetLane.Points, nil)
	trees, err := gen.Generate(context.Background(), sc.Sample, sc.Observation)
	require.NoError(t, err)
	require.Len(t, trees, 1)

	root := trees[0].Root()
	require.NotNil(t, root)
	assert.Equal(t, "1_0_0", root.Key)
	assert.Equal(t, 1, trees[0].Len())
	assert.InDelta(t, 1.0, root.Data.Prob, 1e-9)
	assert.Equal(t, 0, root.Data.CurT)
	assert.Equal(t, 60, root.Data.EndT)
	assert.Equal(t, []string{"ego", "car"}, root.Data.TrackIDs)

	require.Len(t, root.Data.Positions, 2)
	require.Len(t, root.Data.Positions[0], 60)
	assert.InDelta(t, 1.0, root.Data.Positions[0][0].X, 1e-6)
	assert.InDelta(t, 0.0, root.Data.Positions[0][0].Y, 1e-6)
	assert.InDelta(t, 60.0, root.Data.Positions[0][59].X, 1e-6)
	assert.InDelta(t, 5.0, root.Data.Positions[1][0].Y, 1e-6)
}

func TestGenerator_GenerateDetailed(t *testing.T) {
	sc := testutils.HighwayScene(50, 10)
	store := memory.NewStore()

	var completed *domain.CompleteEvent
	gen, err := aime.New(
		aime.WithOracle(cruiseOracle(60)),
		aime.WithStore(store),
		aime.WithHooks(domain.Hooks{
			OnComplete: func(_ context.Context, e *domain.CompleteEvent) { completed = e },
		}),
	)
	require.NoError(t, err)

	res, err := gen.GenerateWithLane(context.Background(), sc.TargetLane, sc.Sample, sc.Observation)
	require.NoError(t, err)
	require.NotEmpty(t, res.RunID)
	assert.Equal(t, 1, res.Stats.Rounds)
	assert.Equal(t, 1, res.Stats.OracleCalls)
	assert.Equal(t, 1, res.Stats.EndLeaves)
	assert.Equal(t, 2, res.Search.Len())

	_, ok := gen.TargetLane()
	assert.False(t, ok, "an explicit lane does not replace the stored one")

	run, err := store.Load(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, res.RunID, run.ID)
	require.Len(t, run.Trees, 1)

	require.NotNil(t, completed)
	assert.Equal(t, res.RunID, completed.RunID)
	assert.NoError(t, completed.Err)
}

func TestGenerator_Errors(t *testing.T) {
	sc := testutils.HighwayScene(50, 10)
	gen, err := aime.New(aime.WithOracle(cruiseOracle(60)))
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("Short Lane", func(t *testing.T) {
		short := domain.TargetLane{Points: sc.TargetLane.Points[:5]}
		_, err := gen.GenerateWithLane(ctx, short, sc.Sample, sc.Observation)
		assert.ErrorIs(t, err, domain.ErrTargetLaneTooShort)
	})

	t.Run("Short History", func(t *testing.T) {
		short := testutils.HighwayScene(10, 10)
		_, err := gen.GenerateWithLane(ctx, sc.TargetLane, short.Sample, short.Observation)
		assert.ErrorIs(t, err, domain.ErrMalformedObservation)
	})

	t.Run("Cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := gen.GenerateWithLane(cctx, sc.TargetLane, sc.Sample, sc.Observation)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
