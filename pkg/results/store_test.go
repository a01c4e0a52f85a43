package results

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertSameSeries(t *testing.T, want, got *Series) {
	t.Helper()
	require.NoError(t, got.Validate())
	assert.Equal(t, want.RunID, got.RunID)
	assert.Equal(t, want.Seed, got.Seed)
	assert.Equal(t, want.Params, got.Params)
	assert.Equal(t, want.Prevalence, got.Prevalence)
	assert.Equal(t, want.Strategies, got.Strategies)
	assert.Equal(t, want.Totals, got.Totals)
	assert.True(t, want.StartedAt.Equal(got.StartedAt))
	assert.True(t, want.FinishedAt.Equal(got.FinishedAt))
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Ping(ctx))
	assert.Equal(t, "runs.db", filepath.Base(store.Path()))

	in := fixture()
	require.NoError(t, store.Write(ctx, in))

	out, err := store.Load(ctx, in.RunID)
	require.NoError(t, err)
	assertSameSeries(t, in, out)

	// rewriting a run replaces it
	in.Prevalence[1] = 0.75
	require.NoError(t, store.Write(ctx, in))
	out, err = store.Load(ctx, in.RunID)
	require.NoError(t, err)
	assert.Equal(t, 0.75, out.Prevalence[1])

	ids, err := store.RunIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-1"}, ids)

	_, err = store.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestOpenSQLite_RequiresPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "")
	assert.Error(t, err)
}

// TestPostgresStore_RoundTrip runs only when ADAPNET_TEST_POSTGRES_URL
// points at a disposable database.
func TestPostgresStore_RoundTrip(t *testing.T) {
	dsn := os.Getenv("ADAPNET_TEST_POSTGRES_URL")
	if dsn == "" {
		t.Skip("ADAPNET_TEST_POSTGRES_URL not set")
	}

	ctx := context.Background()
	store, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Ping(ctx))

	in := fixture()
	require.NoError(t, store.Write(ctx, in))

	out, err := store.Load(ctx, in.RunID)
	require.NoError(t, err)
	assertSameSeries(t, in, out)

	_, err = store.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}
