package renderer

import (
	"github.com/helix-engine/helix/engine/core"
)

// Context owns the graphics backend and the process-wide pipeline
// cache. The cache has no global accessor: consumers receive the
// context (or its cache) from whoever constructed it, which makes
// teardown ordering and testing explicit.
type Context struct {
	backend   Backend
	pipelines *PipelineCache
}

// NewContext wires a pipeline cache to the backend.
func NewContext(backend Backend) *Context {
	return &Context{
		backend:   backend,
		pipelines: NewPipelineCache(backend),
	}
}

// Pipelines returns the pipeline cache.
func (c *Context) Pipelines() *PipelineCache {
	return c.pipelines
}

// Shutdown disposes the pipeline cache before the backend goes away.
// Runs once; the cache reports any use after this.
func (c *Context) Shutdown() {
	c.pipelines.DisposeAll()
	core.LogInfo("render context shut down")
}
