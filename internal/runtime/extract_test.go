package runtime_test

import (
	"testing"

	"github.com/aretw0/aime/internal/runtime"
	"github.com/aretw0/aime/pkg/domain"
	"github.com/aretw0/aime/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addScenario(t *testing.T, st *domain.SearchTree, key, parent string, prob float64, end bool) {
	t.Helper()
	n := domain.NewPredictedNode(&domain.Scenario{ID: key, Prob: prob, EndT: 60})
	n.End = end
	_, err := st.Add(key, parent, n)
	require.NoError(t, err)
}

func TestExtract(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		trees, err := runtime.Extract(tree.New[*domain.ScenarioNode](), 50)
		require.NoError(t, err)
		assert.Empty(t, trees)
	})

	t.Run("Renormalises Finished Siblings", func(t *testing.T) {
		st := tree.New[*domain.ScenarioNode]()
		addScenario(t, st, domain.RootScenarioID, "", 1, false)
		addScenario(t, st, "a", domain.RootScenarioID, 0.6, false)
		addScenario(t, st, "b", domain.RootScenarioID, 0.4, false)
		addScenario(t, st, "a1", "a", 0.3, true)
		addScenario(t, st, "a2", "a", 0.1, true)
		addScenario(t, st, "a3", "a", 0.2, false)

		trees, err := runtime.Extract(st, 50)
		require.NoError(t, err)
		require.Len(t, trees, 1)

		tr := trees[0]
		assert.Equal(t, []string{"a", "a1", "a2"}, tr.Keys())
		a1, _ := tr.Get("a1")
		assert.InDelta(t, 0.75, a1.Data.Prob, 1e-9)
		assertLeafProbabilities(t, tr)
		assertWellFormed(t, tr)
	})
}
