// Package mmapcache lazily memory-maps file contents for the grep engine's
// content reads, and invalidates the mapping instead of
// reusing it once the watcher reports the backing file changed. Grounded on
// original_source/crates/fff-core/src/types.rs's FileItem.mmap field
// (OnceLock<Mmap>, get_mmap/invalidate_mmap) and on the teacher pack's
// go-git-go-git storage/filesystem/mmap package for the
// golang.org/x/sys/unix.Mmap wrapping and the darwin/linux-vs-everything
// build-tag split (mmap has no meaningful fallback on unsupported
// platforms, so those platforms just always read the file directly).
package mmapcache

import (
	"os"
	"sync"
)

// MaxMappableSize is the largest file this cache will memory-map. Larger
// files are read directly on every request instead.
const MaxMappableSize = 10 * 1024 * 1024

// entry holds the lazily-initialized mapping for a single path. once
// guards a single populate attempt; a failed or skipped attempt still
// completes once and leaves data nil, so callers fall back to a direct
// read rather than retrying the mmap on every call.
type entry struct {
	once sync.Once
	data []byte
	err  error
	size int64
}

// Cache maps absolute file paths to their memory-mapped contents. The zero
// value is not usable; use New.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{entries: make(map[string]*entry)}
}

// Get returns the mapped contents of path, mapping it on first access. ok
// is false when the file is larger than MaxMappableSize, does not exist,
// or could not be mapped on this platform; callers should fall back to
// os.ReadFile in that case.
func (c *Cache) Get(path string, size int64) ([]byte, bool) {
	if size <= 0 || size > MaxMappableSize {
		return nil, false
	}

	e := c.entryFor(path)
	e.once.Do(func() {
		data, err := mapFile(path, size)
		if err != nil {
			e.err = err
			return
		}
		e.data = data
		e.size = size
	})

	if e.err != nil || e.data == nil {
		return nil, false
	}
	return e.data, true
}

func (c *Cache) entryFor(path string) *entry {
	c.mu.RLock()
	e, ok := c.entries[path]
	c.mu.RUnlock()
	if ok {
		return e
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok = c.entries[path]; ok {
		return e
	}
	e = &entry{}
	c.entries[path] = e
	return e
}

// Invalidate drops any cached mapping for path, unmapping it first. Call
// this when the watcher reports the file was modified or removed; the
// next Get remaps from scratch rather than serving stale bytes.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	e, ok := c.entries[path]
	if ok {
		delete(c.entries, path)
	}
	c.mu.Unlock()

	if ok {
		e.once.Do(func() {})
		if e.data != nil {
			unmap(e.data)
		}
	}
}

// Close unmaps every cached entry and empties the cache.
func (c *Cache) Close() {
	c.mu.Lock()
	entries := c.entries
	c.entries = make(map[string]*entry)
	c.mu.Unlock()

	for _, e := range entries {
		if e.data != nil {
			unmap(e.data)
		}
	}
}

// Len reports the number of currently cached (successfully mapped or
// attempted) entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func openForMmap(path string) (*os.File, error) {
	return os.Open(path)
}
