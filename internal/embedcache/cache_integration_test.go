package embedcache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/stratumhq/stratum/internal/testutil"
)

// testVector returns a VectorDimension-length vector whose first element is
// seed, making vectors distinguishable in assertions.
func testVector(seed float32) []float32 {
	v := make([]float32, VectorDimension)
	v[0] = seed
	return v
}

func TestCache_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	cache := New(tdb.Pool, testutil.QuietLogger())

	// Empty cache misses.
	vec, found, err := cache.Lookup(ctx, "model-x", "text", "h1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, vec)

	stored := testVector(0.5)
	_, err = cache.Store(ctx, "model-x", "text", "h1", stored)
	require.NoError(t, err)

	vec, found, err = cache.Lookup(ctx, "model-x", "text", "h1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, stored, vec)

	// Same hash under a different model is still a miss.
	_, found, err = cache.Lookup(ctx, "model-y", "text", "h1")
	require.NoError(t, err)
	assert.False(t, found)

	// Same hash under a different content category is still a miss.
	_, found, err = cache.Lookup(ctx, "model-x", "code", "h1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_MostRecentWins(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	cache := New(tdb.Pool, testutil.QuietLogger())

	_, err := cache.Store(ctx, "model-x", "text", "h1", testVector(1))
	require.NoError(t, err)
	_, err = cache.Store(ctx, "model-x", "text", "h1", testVector(2))
	require.NoError(t, err)

	vec, found, err := cache.Lookup(ctx, "model-x", "text", "h1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, float32(2), vec[0])
}

func TestCache_ConcurrentDuplicateStores(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	cache := New(tdb.Pool, testutil.QuietLogger())
	vec := testVector(0.25)

	// Two workers racing on the same miss both insert; neither errors, and
	// duplicate rows are tolerated by design.
	var g errgroup.Group
	for range 2 {
		g.Go(func() error {
			_, err := cache.Store(ctx, "model-x", "text", "race", vec)
			return err
		})
	}
	require.NoError(t, g.Wait())

	got, found, err := cache.Lookup(ctx, "model-x", "text", "race")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, vec, got)

	count, err := cache.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
