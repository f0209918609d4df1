// Package assets reads model files out of GRF archives, caching what it
// has already decompressed.
package assets

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Faultbox/paintmap/pkg/encoding"
	"github.com/Faultbox/paintmap/pkg/grf"
)

// ErrNotFound means no open archive holds the requested path.
var ErrNotFound = errors.New("asset not found")

// Manager searches a list of archives. It is safe for concurrent use.
type Manager struct {
	archives []*grf.Archive
	names    []string
	cache    *Cache
	mu       sync.RWMutex
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		cache: NewCache(),
	}
}

// AddArchive opens the archive at path. Archives are searched in the order
// they were added.
func (m *Manager) AddArchive(path string) error {
	archive, err := grf.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", path, err)
	}

	m.mu.Lock()
	m.archives = append(m.archives, archive)
	m.names = append(m.names, path)
	m.mu.Unlock()

	return nil
}

// Archives returns the paths of the open archives in search order.
func (m *Manager) Archives() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.names...)
}

// Load returns the contents of path and the archive it came from.
func (m *Manager) Load(path string) (data []byte, archive string, err error) {
	key := encoding.NormalizePath(path)
	if e, ok := m.cache.Get(key); ok {
		return e.Data, e.Archive, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i, a := range m.archives {
		data, err := a.Read(key)
		if errors.Is(err, grf.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", m.names[i], err)
		}
		m.cache.Set(key, Entry{Data: data, Archive: m.names[i]})
		return data, m.names[i], nil
	}

	return nil, "", fmt.Errorf("%w: %s", ErrNotFound, path)
}

// Close closes all archives and drops the cache.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, archive := range m.archives {
		archive.Close()
	}
	m.archives = nil
	m.names = nil
	m.cache.Clear()
}

// Entry is a cached archive file.
type Entry struct {
	Data    []byte
	Archive string
}

// Cache is an in-memory cache of decompressed entries.
type Cache struct {
	data map[string]Entry
	mu   sync.RWMutex

	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]Entry),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return e, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = e
}

// Clear empties the cache and resets its counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]Entry)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// CacheStats returns the manager's cache statistics.
func (m *Manager) CacheStats() (hits, misses int) {
	return m.cache.Stats()
}
