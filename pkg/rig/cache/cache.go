// Package cache remembers which files have already been verified against
// their expected digest, so repeat installs can skip rehashing unchanged
// files. A record only counts while the file's size and modification time
// are unchanged.
package cache

import (
	"errors"
	"fmt"
	"os"

	"github.com/jamesainslie/rig/pkg/rig/logging"
)

var logger = logging.Get("cache")

// Cache is a verified-file cache backed by Badger. It satisfies the
// download engine's Verifier interface.
type Cache struct {
	store *Store
}

// Open opens or creates a cache in dir.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	store, err := OpenStore(dir)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	return &Cache{store: store}, nil
}

// Close closes the cache.
func (c *Cache) Close() error {
	return c.store.Close()
}

// Verified reports whether path was recorded with digest sha1 and still
// has the recorded size and modification time.
func (c *Cache) Verified(path string, info os.FileInfo, sha1 string) bool {
	rec, err := c.store.Get(path)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Debug("cache lookup failed", "path", path, "error", err)
		}
		return false
	}
	return rec.Matches(info, sha1)
}

// Record remembers that path, as described by info, has digest sha1.
func (c *Cache) Record(path string, info os.FileInfo, sha1 string) error {
	return c.store.Put(path, NewRecord(info, sha1))
}

// Forget drops the record for path.
func (c *Cache) Forget(path string) error {
	return c.store.Delete(path)
}

// Clear drops every record under dir and returns how many were removed.
func (c *Cache) Clear(dir string) (int, error) {
	return c.store.DeletePrefix(MakeDirPrefix(dir))
}

// ClearAll drops every record.
func (c *Cache) ClearAll() (int, error) {
	return c.store.DeletePrefix(keyPrefix)
}

// Count returns the number of records under dir.
func (c *Cache) Count(dir string) (int, error) {
	return c.store.Count(MakeDirPrefix(dir))
}
