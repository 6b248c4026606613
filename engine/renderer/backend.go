package renderer

import (
	"github.com/helix-engine/helix/engine/renderer/metadata"
)

// Pipeline is an opaque compiled pipeline object. Release frees its
// native resources; the cache calls it at teardown.
type Pipeline interface {
	Label() string
	Release()
}

// Backend is the graphics-object compiler consumed by the pipeline
// cache. Compilation failures are reported with an error wrapping
// core.ErrPipelineCompilation; nothing is cached for a failed
// description, so the next call may retry.
type Backend interface {
	CompilePipeline(desc *metadata.PipelineDescription) (Pipeline, error)
}
