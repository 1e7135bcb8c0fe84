package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/aime/pkg/adapters/sqlite"
	"github.com/aretw0/aime/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "db", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_Contract(t *testing.T) {
	ports.RunTreeStoreContract(t, openStore(t))
}

func TestSQLiteStore_Memory(t *testing.T) {
	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()
	ports.RunTreeStoreContract(t, store)
}

func TestSQLiteStore_Summaries(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	older := ports.SampleRun("b")
	newer := ports.SampleRun("a")
	newer.CreatedAt = older.CreatedAt.Add(time.Hour)
	require.NoError(t, store.Save(ctx, "a", newer))
	require.NoError(t, store.Save(ctx, "b", older))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids)

	sums, err := store.Summaries(ctx)
	require.NoError(t, err)
	require.Len(t, sums, 2)
	assert.Equal(t, "b", sums[0].ID)
	assert.Equal(t, 1, sums[0].Trees)
	assert.True(t, older.CreatedAt.Equal(sums[0].CreatedAt))

	// Saving again replaces the row.
	newer.Trees = nil
	require.NoError(t, store.Save(ctx, "a", newer))
	sums, err = store.Summaries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sums[1].Trees)
}
