package core

import (
	"errors"
	"fmt"
)

var (
	// ErrAssetNotFound is returned when an asset identity is unknown to
	// the provider that was asked to load it.
	ErrAssetNotFound = errors.New("asset not found")
	// ErrAssetTypeMismatch is returned when a stored object is not
	// assignable to the type a caller asked for.
	ErrAssetTypeMismatch = errors.New("asset type mismatch")
	// ErrPipelineCompilation is returned when the graphics backend
	// rejects a pipeline description.
	ErrPipelineCompilation = errors.New("pipeline compilation failed")
	// ErrPipelineCacheDisposed is returned when a pipeline cache is used
	// after DisposeAll.
	ErrPipelineCacheDisposed = errors.New("pipeline cache already disposed")
)

// DeserializationError reports a malformed field in persisted data. It
// must abort loading of the containing object; substituting a null
// reference instead would corrupt references transitively.
type DeserializationError struct {
	Field string
	Value string
	Err   error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("deserialize field %q: invalid value %q: %v", e.Field, e.Value, e.Err)
}

func (e *DeserializationError) Unwrap() error {
	return e.Err
}
