package escalation

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/felixgeelhaar/complyscan/internal/errors"
)

// Cache stores judgments by prompt. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(key string) (Judgment, bool)
	Put(key string, j Judgment) error
}

// CacheKey identifies a judgment by the model asked and the exact prompt
func CacheKey(model, prompt string) string {
	h := blake3.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}

// FileCache keeps one JSON file per key under a directory
type FileCache struct {
	dir string
}

// NewFileCache creates dir if needed
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileWriteFailed, "create oracle cache directory", err)
	}
	return &FileCache{dir: dir}, nil
}

// Get returns the cached judgment; unreadable entries are misses
func (c *FileCache) Get(key string) (Judgment, bool) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return Judgment{}, false
	}
	var j Judgment
	if err := json.Unmarshal(data, &j); err != nil {
		return Judgment{}, false
	}
	return j, true
}

// Put writes the judgment atomically
func (c *FileCache) Put(key string, j Judgment) error {
	data, err := json.Marshal(j)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileMarshal, "marshal judgment", err)
	}

	tmp, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "write oracle cache entry", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "write oracle cache entry", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "write oracle cache entry", err)
	}
	if err := os.Rename(tmp.Name(), c.path(key)); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "write oracle cache entry", err)
	}
	return nil
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// MemoryCache is an in-process Cache
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Judgment
}

// NewMemoryCache creates an empty MemoryCache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]Judgment)}
}

// Get returns the cached judgment
func (c *MemoryCache) Get(key string) (Judgment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	j, ok := c.entries[key]
	return j, ok
}

// Put stores the judgment
func (c *MemoryCache) Put(key string, j Judgment) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = j
	return nil
}
