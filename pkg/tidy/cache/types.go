package cache

import (
	"bytes"
	"encoding/gob"
	"path/filepath"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// CacheVersion is incremented when the cache format changes. Entries
// written by other versions are treated as misses.
const CacheVersion = 1

// KeySeparator separates the directory from the file name in cache keys.
const KeySeparator = '\x00'

// Entry is a cached extraction result with the file state it was read from.
type Entry struct {
	Version  int
	Size     int64
	Mtime    int64 // UnixNano
	Metadata types.UnifiedMetadata
}

// Encode serializes the entry to bytes using gob.
func (e *Entry) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes bytes into the entry using gob.
func (e *Entry) Decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(e)
}

// Matches reports whether the entry was recorded for the file's current
// size and modification time.
func (e *Entry) Matches(file types.FileInfo) bool {
	return e.Version == CacheVersion &&
		e.Size == file.Size &&
		e.Mtime == file.ModifiedAt.UnixNano()
}

// MakeKey creates a cache key for a file path.
// Format: <dir>\x00<name>
func MakeKey(path string) []byte {
	path = filepath.Clean(path)
	return []byte(filepath.Dir(path) + string(KeySeparator) + filepath.Base(path))
}

// ParseKey turns a cache key back into a path.
func ParseKey(key []byte) string {
	idx := bytes.IndexByte(key, KeySeparator)
	if idx == -1 {
		return string(key)
	}
	return filepath.Join(string(key[:idx]), string(key[idx+1:]))
}

// MakeKeyPrefix returns the prefix for all files directly inside dir.
func MakeKeyPrefix(dir string) []byte {
	return []byte(filepath.Clean(dir) + string(KeySeparator))
}
