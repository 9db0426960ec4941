// Package cache persists metadata extraction results in Badger so repeat
// previews of the same folder skip re-reading unchanged files. An entry is
// only served while the file's size and modification time still match.
package cache

import (
	"errors"

	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var logger = logging.Get("cache")

// Cache provides high-level caching operations for extracted metadata.
// It satisfies extract.Cache.
type Cache struct {
	store *Store
}

// Open opens or creates a cache at the given path.
func Open(path string) (*Cache, error) {
	store, err := OpenStore(path)
	if err != nil {
		return nil, err
	}
	return &Cache{store: store}, nil
}

// Close closes the cache.
func (c *Cache) Close() error {
	return c.store.Close()
}

// Get returns the cached metadata for file if it is still valid. Stale
// entries are deleted.
func (c *Cache) Get(file types.FileInfo) (types.UnifiedMetadata, bool) {
	entry, err := c.store.Get(file.Path)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Warn("cache read failed", "path", file.Path, "error", err)
		}
		return types.UnifiedMetadata{}, false
	}
	if !entry.Matches(file) {
		if err := c.store.Delete(file.Path); err != nil {
			logger.Debug("stale entry delete failed", "path", file.Path, "error", err)
		}
		return types.UnifiedMetadata{}, false
	}
	return entry.Metadata, true
}

// Put records metadata against the state of meta.File.
func (c *Cache) Put(meta types.UnifiedMetadata) error {
	return c.store.Put(meta.File.Path, newEntry(meta))
}

// PutAll records many results in one batch.
func (c *Cache) PutAll(metas []types.UnifiedMetadata) error {
	entries := make(map[string]*Entry, len(metas))
	for _, m := range metas {
		entries[m.File.Path] = newEntry(m)
	}
	return c.store.PutBatch(entries)
}

func newEntry(meta types.UnifiedMetadata) *Entry {
	return &Entry{
		Version:  CacheVersion,
		Size:     meta.File.Size,
		Mtime:    meta.File.ModifiedAt.UnixNano(),
		Metadata: meta,
	}
}

// Invalidate drops the entry for path, if any.
func (c *Cache) Invalidate(path string) error {
	return c.store.Delete(path)
}

// Clear removes entries for files directly inside dir.
func (c *Cache) Clear(dir string) (int, error) {
	return c.store.DeletePrefix(MakeKeyPrefix(dir))
}

// ClearAll removes all cached entries.
func (c *Cache) ClearAll() (int, error) {
	return c.store.DeletePrefix(nil)
}

// Len returns the number of cached entries.
func (c *Cache) Len() (int, error) {
	return c.store.Count()
}
