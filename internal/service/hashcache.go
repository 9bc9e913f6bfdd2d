package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// HashCache remembers the content hash each bookmark was last embedded with,
// keyed by bookmark id. It is write-through to a JSON file so the hash gate
// survives restarts; entries are only removed when the bookmark is deleted.
type HashCache struct {
	path string

	mu     sync.Mutex
	hashes map[string]string
}

// NewHashCache loads the cache from path, starting empty when the file does
// not exist yet. An empty path keeps the cache in memory only.
func NewHashCache(path string) (*HashCache, error) {
	c := &HashCache{path: path, hashes: make(map[string]string)}
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read hash cache: %w", err)
	}
	if err := json.Unmarshal(data, &c.hashes); err != nil {
		return nil, fmt.Errorf("parse hash cache %s: %w", path, err)
	}
	return c, nil
}

// Get returns the stored hash for a bookmark, if any.
func (c *HashCache) Get(bookmarkID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.hashes[bookmarkID]
	return h, ok
}

// Put stores a hash and persists the cache.
func (c *HashCache) Put(bookmarkID, hash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hashes[bookmarkID] = hash
	return c.persistLocked()
}

// Delete removes a bookmark's entry and persists the cache. Removing an
// absent entry is a no-op.
func (c *HashCache) Delete(bookmarkID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.hashes[bookmarkID]; !ok {
		return nil
	}
	delete(c.hashes, bookmarkID)
	return c.persistLocked()
}

// Len returns the number of cached entries.
func (c *HashCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.hashes)
}

func (c *HashCache) persistLocked() error {
	if c.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(c.hashes, "", "  ")
	if err != nil {
		return fmt.Errorf("encode hash cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("create hash cache dir: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write hash cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replace hash cache: %w", err)
	}
	return nil
}
