package assets

import (
	"sync"
	"sync/atomic"

	"github.com/helix-engine/helix/engine/core"
)

// Asset is implemented by every engine object that can be addressed
// through a Handle. Embedding Meta satisfies it.
type Asset interface {
	// AssetID is the persisted identity, zero for runtime resources.
	AssetID() ID
	// FileID is the index of this object within its multi-object asset
	// file. 0 is the primary object.
	FileID() uint16
	// InstanceID is a process-local identifier, stable for the lifetime
	// of the in-memory object.
	InstanceID() uint32
	// Destroyed reports whether the object has been invalidated; a
	// destroyed object must never be handed out again.
	Destroyed() bool
}

// Meta carries the identity state shared by all asset types. The
// provider binds it when an object is loaded; the hot-reload watcher
// flips the destroyed flag, possibly from another goroutine.
type Meta struct {
	id         ID
	fileID     uint16
	generation uint32
	destroyed  atomic.Bool

	instanceOnce sync.Once
	instanceID   uint32
}

func (m *Meta) AssetID() ID {
	return m.id
}

func (m *Meta) FileID() uint16 {
	return m.fileID
}

func (m *Meta) InstanceID() uint32 {
	m.instanceOnce.Do(func() {
		m.instanceID = core.IdentifierAcquireNewID(m)
	})
	return m.instanceID
}

func (m *Meta) Destroyed() bool {
	return m.destroyed.Load()
}

// Generation increments every time the backing data is reloaded.
func (m *Meta) Generation() uint32 {
	return m.generation
}

// Bind sets the persisted identity. Called by the provider when the
// object is loaded from an asset file.
func (m *Meta) Bind(id ID, fileID uint16) {
	m.id = id
	m.fileID = fileID
	m.generation++
}

// MarkDestroyed invalidates the object. Identity is kept so that stale
// handles can still re-resolve through it.
func (m *Meta) MarkDestroyed() {
	m.destroyed.Store(true)
}
