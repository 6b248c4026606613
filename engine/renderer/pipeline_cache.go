package renderer

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/helix-engine/helix/engine/core"
	"github.com/helix-engine/helix/engine/renderer/metadata"
)

// PipelineCache deduplicates expensive pipeline compilation by
// structural description. For any two structurally equal descriptions
// the same compiled pipeline object is returned, and the backend
// compiles it at most once for the process lifetime.
//
// The cache is safe for concurrent use. Lookups take a read lock;
// compilation happens outside the lock behind a per-entry latch, so
// concurrent requests for the same description wait on one compile
// while requests for different descriptions proceed independently.
//
// Lifecycle: Empty -> Populated on first insert, Populated -> Disposed
// on DisposeAll. There is no way back from Disposed; further use is a
// usage error and fails loudly.
type PipelineCache struct {
	backend Backend

	mu       sync.RWMutex
	entries  map[uint64][]*cacheEntry
	disposed bool

	hits   uint64
	misses uint64
}

// cacheEntry is the latch for one description. ready is closed once the
// compile finished, successfully or not.
type cacheEntry struct {
	desc     metadata.PipelineDescription
	ready    chan struct{}
	pipeline Pipeline
	err      error
}

// NewPipelineCache creates an empty cache compiling through backend.
func NewPipelineCache(backend Backend) *PipelineCache {
	return &PipelineCache{
		backend: backend,
		entries: make(map[uint64][]*cacheEntry),
	}
}

// GetOrCreate returns the compiled pipeline for the description,
// compiling it on first request. A failed compile leaves no entry
// behind, so the next call with the same description retries.
func (c *PipelineCache) GetOrCreate(desc *metadata.PipelineDescription) (Pipeline, error) {
	if desc == nil {
		return nil, fmt.Errorf("pipeline cache: nil description")
	}
	key := desc.Hash()

	// Fast path: read lock.
	c.mu.RLock()
	if c.disposed {
		c.mu.RUnlock()
		return nil, c.disposedErr()
	}
	if e := findEntry(c.entries[key], desc); e != nil {
		c.mu.RUnlock()
		return c.await(e)
	}
	c.mu.RUnlock()

	// Slow path: write lock with double-check, then compile outside the
	// lock so unrelated descriptions are not serialized behind us.
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil, c.disposedErr()
	}
	if e := findEntry(c.entries[key], desc); e != nil {
		c.mu.Unlock()
		return c.await(e)
	}
	e := &cacheEntry{
		desc:  desc.Clone(),
		ready: make(chan struct{}),
	}
	c.entries[key] = append(c.entries[key], e)
	c.mu.Unlock()

	atomic.AddUint64(&c.misses, 1)
	e.pipeline, e.err = c.backend.CompilePipeline(&e.desc)
	if e.err != nil {
		e.err = fmt.Errorf("%w: %v", core.ErrPipelineCompilation, e.err)
		c.removeEntry(key, e)
	}
	close(e.ready)

	if e.err != nil {
		return nil, e.err
	}
	core.LogDebug("pipeline cache: compiled '%s' (hash %x)", desc.Label, key)
	return e.pipeline, nil
}

// DisposeAll releases every cached pipeline and moves the cache to its
// terminal state. Intended to run exactly once, at graphics-context
// teardown.
func (c *PipelineCache) DisposeAll() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		core.LogError("pipeline cache: DisposeAll called twice")
		return
	}
	c.disposed = true
	entries := c.entries
	c.entries = nil
	c.mu.Unlock()

	for _, bucket := range entries {
		for _, e := range bucket {
			// Wait for in-flight compiles before releasing.
			<-e.ready
			if e.pipeline != nil {
				e.pipeline.Release()
			}
		}
	}
	core.LogInfo("pipeline cache disposed")
}

// Disposed reports whether DisposeAll has run.
func (c *PipelineCache) Disposed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.disposed
}

// Size returns the number of cached pipelines.
func (c *PipelineCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, bucket := range c.entries {
		n += len(bucket)
	}
	return n
}

// Stats returns hit and miss counts.
func (c *PipelineCache) Stats() (hits, misses uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses)
}

func (c *PipelineCache) await(e *cacheEntry) (Pipeline, error) {
	<-e.ready
	if e.err != nil {
		return nil, e.err
	}
	atomic.AddUint64(&c.hits, 1)
	return e.pipeline, nil
}

func (c *PipelineCache) removeEntry(key uint64, e *cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		return
	}
	bucket := c.entries[key]
	for i, other := range bucket {
		if other == e {
			c.entries[key] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(c.entries[key]) == 0 {
		delete(c.entries, key)
	}
}

func (c *PipelineCache) disposedErr() error {
	core.LogError("pipeline cache used after DisposeAll")
	return core.ErrPipelineCacheDisposed
}

func findEntry(bucket []*cacheEntry, desc *metadata.PipelineDescription) *cacheEntry {
	for _, e := range bucket {
		if e.desc.Equal(desc) {
			return e
		}
	}
	return nil
}
