package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/aime/pkg/domain"
	"github.com/aretw0/aime/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

// SampleRun builds a small two-level run used by store tests.
func SampleRun(id string) *domain.Run {
	t := tree.New[domain.TrajectoryNode]()
	_, _ = t.Add("1_0_0", "", domain.TrajectoryNode{
		ScenarioID: "1_0_0",
		Prob:       1,
		EndT:       2,
		TrackIDs:   []string{"ego"},
		Positions:  [][]r2.Vec{{{X: 1, Y: 2}, {X: 3, Y: 4}}},
		Sigmas:     [][]float64{{0.1, 0.2}},
	})
	_, _ = t.Add("2_0_1", "1_0_0", domain.TrajectoryNode{
		ScenarioID: "2_0_1",
		Prob:       1,
		CurT:       2,
		EndT:       4,
		TrackIDs:   []string{"ego"},
		Positions:  [][]r2.Vec{{{X: 5, Y: 6}, {X: 7, Y: 8}}},
		Sigmas:     [][]float64{{0.3, 0.4}},
	})
	return &domain.Run{
		ID:        id,
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Trees:     []*domain.ScenarioTree{t},
		Stats:     domain.Stats{Rounds: 2, EndLeaves: 1},
	}
}

// RunTreeStoreContract runs a suite of tests to verify that a TreeStore implementation
// adheres to the defined interface contract.
func RunTreeStoreContract(t *testing.T, store TreeStore) {
	ctx := context.Background()
	runID := "contract-test-run-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		run := SampleRun(runID)
		require.NoError(t, store.Save(ctx, runID, run), "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, runID, loaded.ID)
		assert.True(t, run.CreatedAt.Equal(loaded.CreatedAt))
		assert.Equal(t, run.Stats, loaded.Stats)
		require.Len(t, loaded.Trees, 1)
		assert.Equal(t, run.Trees[0].Keys(), loaded.Trees[0].Keys())

		leaf, ok := loaded.Trees[0].Get("2_0_1")
		require.True(t, ok)
		assert.Equal(t, "1_0_0", leaf.ParentKey)
		assert.Equal(t, r2.Vec{X: 7, Y: 8}, leaf.Data.Positions[0][1])
	})

	t.Run("Load Returns Copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		loaded.Stats.Rounds = 99

		again, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, 2, again.Stats.Rounds)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, runID, SampleRun(runID)))
		require.NoError(t, store.Delete(ctx, runID), "Delete should not return error")

		_, err := store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")
		assert.NoError(t, store.Delete(ctx, runID), "Deleting twice should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		require.NoError(t, store.Save(ctx, id1, SampleRun(id1)))
		require.NoError(t, store.Save(ctx, id2, SampleRun(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
