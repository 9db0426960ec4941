package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

func openCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func photo(path string, size int64, mtime time.Time) types.UnifiedMetadata {
	file := types.NewFileInfo(path)
	file.Size = size
	file.ModifiedAt = mtime
	taken := time.Date(2023, 5, 1, 9, 0, 0, 0, time.UTC)
	return types.UnifiedMetadata{
		File:             file,
		Image:            &types.ImageMetadata{DateTaken: &taken, CameraMake: "Fujifilm", Width: 6000},
		ExtractionStatus: types.ExtractionSuccess,
	}
}

func TestCacheGetPut(t *testing.T) {
	c := openCache(t)
	mtime := time.Date(2024, 1, 2, 3, 4, 5, 6, time.UTC)
	meta := photo("/pics/DSCF0001.JPG", 4096, mtime)

	_, ok := c.Get(meta.File)
	assert.False(t, ok, "empty cache")

	require.NoError(t, c.Put(meta))

	got, ok := c.Get(meta.File)
	require.True(t, ok)
	assert.Equal(t, "Fujifilm", got.Image.CameraMake)
	assert.Equal(t, 6000, got.Image.Width)
	require.NotNil(t, got.Image.DateTaken)
	assert.True(t, got.Image.DateTaken.Equal(*meta.Image.DateTaken))
	assert.Equal(t, types.ExtractionSuccess, got.ExtractionStatus)
}

func TestCacheStaleEntries(t *testing.T) {
	mtime := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name   string
		change func(*types.FileInfo)
	}{
		{"size changed", func(f *types.FileInfo) { f.Size++ }},
		{"mtime changed", func(f *types.FileInfo) { f.ModifiedAt = f.ModifiedAt.Add(time.Second) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := openCache(t)
			meta := photo("/pics/a.jpg", 100, mtime)
			require.NoError(t, c.Put(meta))

			file := meta.File
			tt.change(&file)
			_, ok := c.Get(file)
			assert.False(t, ok)

			n, err := c.Len()
			require.NoError(t, err)
			assert.Equal(t, 0, n, "stale entry is deleted")
		})
	}
}

func TestCacheIgnoresOtherVersions(t *testing.T) {
	c := openCache(t)
	meta := photo("/pics/a.jpg", 100, time.Unix(1700000000, 0))
	entry := newEntry(meta)
	entry.Version = CacheVersion + 1
	require.NoError(t, c.store.Put(meta.File.Path, entry))

	_, ok := c.Get(meta.File)
	assert.False(t, ok)
}

func TestCachePutAllAndClear(t *testing.T) {
	c := openCache(t)
	mtime := time.Unix(1700000000, 0)
	require.NoError(t, c.PutAll([]types.UnifiedMetadata{
		photo("/pics/a.jpg", 1, mtime),
		photo("/pics/b.jpg", 2, mtime),
		photo("/pics/sub/c.jpg", 3, mtime),
		photo("/pics2/d.jpg", 4, mtime),
	}))

	n, err := c.Len()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	removed, err := c.Clear("/pics")
	require.NoError(t, err)
	assert.Equal(t, 2, removed, "only direct children of /pics")

	require.NoError(t, c.Invalidate("/pics2/d.jpg"))
	n, err = c.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	removed, err = c.ClearAll()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestKeys(t *testing.T) {
	key := MakeKey("/pics/sub/../a.jpg")
	assert.Equal(t, []byte("/pics\x00a.jpg"), key)
	assert.Equal(t, "/pics/a.jpg", ParseKey(key))
	assert.Equal(t, []byte("/pics\x00"), MakeKeyPrefix("/pics/"))
}
