package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rohitmondal03/amplication/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestCaches opens every backend in a temp directory.
func newTestCaches(t *testing.T) map[string]Cache {
	t.Helper()
	dir := t.TempDir()

	caches := make(map[string]Cache)
	for backend, file := range map[string]string{BackendBolt: "cache.db", BackendSQLite: "cache.sqlite"} {
		c, err := Open(backend, filepath.Join(dir, file))
		require.NoError(t, err)
		require.NotNil(t, c)
		t.Cleanup(func() { c.Close() })
		caches[backend] = c
	}
	return caches
}

func TestCache_RoundTrip(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	commits := []*models.Commit{
		{ID: "c2", Message: "second", CreatedAt: created.Add(time.Hour),
			Builds: []*models.Build{{ID: "b2", Status: models.BuildStatusRunning}}},
		{ID: "c1", Message: "", CreatedAt: created},
	}

	for backend, c := range newTestCaches(t) {
		t.Run(backend, func(t *testing.T) {
			require.NoError(t, c.SaveCommits("p1", commits))

			got, err := c.LoadCommits("p1")
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "c2", got[0].ID)
			assert.Equal(t, "b2", got[0].LatestBuild().ID)
			assert.True(t, got[1].CreatedAt.Equal(created))

			savedAt, err := c.SavedAt("p1")
			require.NoError(t, err)
			assert.WithinDuration(t, time.Now(), savedAt, time.Minute)
		})
	}
}

func TestCache_Missing(t *testing.T) {
	for backend, c := range newTestCaches(t) {
		t.Run(backend, func(t *testing.T) {
			got, err := c.LoadCommits("unknown")
			require.NoError(t, err)
			assert.Nil(t, got)

			savedAt, err := c.SavedAt("unknown")
			require.NoError(t, err)
			assert.True(t, savedAt.IsZero())
		})
	}
}

func TestCache_Overwrite(t *testing.T) {
	for backend, c := range newTestCaches(t) {
		t.Run(backend, func(t *testing.T) {
			require.NoError(t, c.SaveCommits("p1", []*models.Commit{{ID: "c1"}}))
			require.NoError(t, c.SaveCommits("p1", []*models.Commit{{ID: "c3"}, {ID: "c2"}}))
			require.NoError(t, c.SaveCommits("p2", []*models.Commit{{ID: "x1"}}))

			got, err := c.LoadCommits("p1")
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "c3", got[0].ID)
		})
	}
}

func TestBoltCache_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")

	c, err := NewBoltCache(path)
	require.NoError(t, err)
	require.NoError(t, c.SaveCommits("p1", []*models.Commit{{ID: "c1"}}))
	require.NoError(t, c.Close())

	c, err = NewBoltCache(path)
	require.NoError(t, err)
	defer c.Close()

	got, err := c.LoadCommits("p1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].ID)
}

func TestOpen_Backends(t *testing.T) {
	c, err := Open(BackendNone, "")
	assert.NoError(t, err)
	assert.Nil(t, c)

	c, err = Open("", "")
	assert.NoError(t, err)
	assert.Nil(t, c)

	_, err = Open("redis", "")
	assert.ErrorContains(t, err, "unknown cache backend")
}

func TestParseTimestamp(t *testing.T) {
	assert.Equal(t, 2024, parseTimestamp("2024-03-01T10:00:00Z").Year())
	assert.Equal(t, 2024, parseTimestamp("2024-03-01 10:00:00").Year())
	assert.True(t, parseTimestamp("garbage").IsZero())
}
