package assets

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/helix-engine/helix/engine/core"
)

// Provider is the asset-loading service handles resolve through. The
// store behind it is the source of truth for loaded objects; the handle
// cache is only an accelerator.
type Provider interface {
	// Has reports whether the identity is known to the store.
	Has(id ID) bool
	// Load returns the live object for (id, fileID), loading it if
	// necessary. Concurrent loads of the same identity must be
	// deduplicated: at most one load in flight per identity, with
	// concurrent callers sharing the result (Database does this).
	Load(id ID, fileID uint16) (Asset, error)
	// IsLoaded reports whether the identity is currently live in the
	// store, without forcing a load.
	IsLoaded(id ID, fileID uint16) bool
}

// Ref is the type-erased face of a Handle. Deserializers and editor
// code manipulate any Handle[T] through it without knowing T, while
// typed call sites keep compile-time safety.
type Ref interface {
	// Identity returns the stored (assetID, fileID) pair.
	Identity() (ID, uint16)
	// Instance returns the cached object if present and not destroyed.
	Instance() Asset
	// Adopt installs an object as the live instance if it is of the
	// handle's expected type, resynchronizing identity from it. A nil
	// or wrongly typed object clears the handle to explicit-null.
	Adopt(obj Asset)
	// Rebind changes the stored identity. The cached instance is kept
	// only while its own identity agrees with the new one.
	Rebind(id ID, fileID uint16)
	// Detach drops the cached instance but keeps the identity.
	Detach()
}

// State classifies a handle at an instant. The four states are mutually
// exclusive.
type State int

const (
	// StateNull: no cached instance and no persisted identity.
	StateNull State = iota
	// StateRuntime: a live instance with no persisted identity.
	StateRuntime
	// StateUnresolved: a persisted identity with no live instance.
	StateUnresolved
	// StateResolved: a live instance under a persisted identity.
	StateResolved
)

// Handle is a serializable, lazily-resolving reference to an engine
// object. It decouples holders from asset-loading timing and survives
// load/unload cycles: when the cached instance is destroyed, the next
// access re-resolves through the provider.
//
// A Handle is not safe for concurrent mutation; share the provider, not
// the handle.
type Handle[T Asset] struct {
	id     ID
	fileID uint16
	inst   Asset
}

// NewHandle returns an unresolved handle for a persisted identity.
func NewHandle[T Asset](id ID, fileID uint16) *Handle[T] {
	return &Handle[T]{id: id, fileID: fileID}
}

// FromInstance returns a handle already resolved to a live object.
// Identity is taken from the object itself; for a runtime resource it
// stays empty.
func FromInstance[T Asset](obj T) *Handle[T] {
	h := &Handle[T]{}
	h.Adopt(obj)
	return h
}

func (h *Handle[T]) Identity() (ID, uint16) {
	return h.id, h.fileID
}

func (h *Handle[T]) Instance() Asset {
	if h.inst == nil || h.inst.Destroyed() {
		return nil
	}
	return h.inst
}

// State classifies the handle per the rules above.
func (h *Handle[T]) State() State {
	live := h.inst != nil && !h.inst.Destroyed()
	switch {
	case live && h.id.IsZero():
		return StateRuntime
	case live:
		return StateResolved
	case h.id.IsZero():
		return StateNull
	default:
		return StateUnresolved
	}
}

// IsRuntimeResource reports whether the handle points at an object that
// was created in memory and never persisted.
func (h *Handle[T]) IsRuntimeResource() bool {
	return h.id.IsZero() && h.Instance() != nil
}

// Get returns the referenced object, resolving it through the provider
// if needed. A missing or unloadable asset yields (zero, false), never
// an error: absence is "temporarily or permanently unavailable", not a
// crash condition. A destroyed cached instance is never returned;
// access re-resolves instead.
func (h *Handle[T]) Get(p Provider) (T, bool) {
	var zero T
	if inst := h.Instance(); inst != nil {
		return inst.(T), true
	}

	id, fileID := h.loadIdentity()
	if id.IsZero() {
		return zero, false
	}
	if p == nil {
		return zero, false
	}

	obj, err := p.Load(id, fileID)
	if err != nil {
		core.LogDebug("handle: could not resolve %s[%d]: %v", id, fileID, err)
		return zero, false
	}
	t, ok := obj.(T)
	if !ok {
		core.LogError("handle: asset %s[%d] is %T, not the expected type", id, fileID, obj)
		return zero, false
	}
	h.adopt(t)
	return t, true
}

// Peek returns the cached instance if present and live. It never
// triggers loading.
func (h *Handle[T]) Peek() (T, bool) {
	var zero T
	if inst := h.Instance(); inst != nil {
		return inst.(T), true
	}
	return zero, false
}

// Available reports whether the object is live or can be loaded. May
// load as a side effect.
func (h *Handle[T]) Available(p Provider) bool {
	_, ok := h.Get(p)
	return ok
}

// Loaded reports whether the object is currently live, either in this
// handle or in the provider's store, without forcing a load.
func (h *Handle[T]) Loaded(p Provider) bool {
	if h.Instance() != nil {
		return true
	}
	if h.id.IsZero() || p == nil {
		return false
	}
	return p.IsLoaded(h.id, h.fileID)
}

// EnsureLoaded forces resolution if the handle is not already resolved.
func (h *Handle[T]) EnsureLoaded(p Provider) {
	if h.Instance() == nil {
		h.Get(p)
	}
}

// Detach drops the cached instance but keeps the persisted identity,
// forcing a re-resolution on the next access.
func (h *Handle[T]) Detach() {
	h.inst = nil
}

// Rebind changes the stored identity. A live instance whose own
// identity disagrees with the new one is dropped, so the next access
// reloads under the new identity.
func (h *Handle[T]) Rebind(id ID, fileID uint16) {
	if h.inst != nil && h.inst.AssetID() != id {
		h.inst = nil
	}
	h.id = id
	h.fileID = fileID
}

// Adopt implements Ref. The object must be of the handle's concrete
// type; anything else, including nil, coerces the handle to
// explicit-null. The coercion (rather than an error) keeps polymorphic
// assignment from deserializers tolerant, at the price of being silent;
// a warning is logged so the mismatch is at least visible.
func (h *Handle[T]) Adopt(obj Asset) {
	if obj == nil {
		h.clear()
		return
	}
	t, ok := obj.(T)
	if !ok {
		core.LogWarn("handle: adopting %T into a handle of a different type, clearing to null", obj)
		h.clear()
		return
	}
	h.adopt(t)
}

// Equal compares this handle with another reference. See EqualRefs.
func (h *Handle[T]) Equal(other Ref) bool {
	return EqualRefs(h, other)
}

// Hash returns a value consistent with EqualRefs: equal handles hash
// equally even as the cache field changes. Only immutable-enough state
// is used: the persisted identity when present, else the instance's
// process-local id, else zero.
func (h *Handle[T]) Hash() uint64 {
	return HashRef(h)
}

func (h *Handle[T]) adopt(t T) {
	h.inst = t
	// Resynchronize identity from the instance; a handle never holds an
	// instance whose identity disagrees with its own fields.
	h.id = t.AssetID()
	h.fileID = t.FileID()
}

func (h *Handle[T]) clear() {
	h.inst = nil
	h.id = NilID
	h.fileID = 0
}

// loadIdentity picks the identity to reload under. The handle's own
// assetID is authoritative: after a Rebind, a stale destroyed instance
// that still carries the old id must not resurrect the old asset. The
// stale instance only contributes its possibly-more-specific fileID,
// and only while its assetID still agrees with the handle's.
func (h *Handle[T]) loadIdentity() (ID, uint16) {
	id, fileID := h.id, h.fileID
	if h.inst == nil || !h.inst.Destroyed() {
		return id, fileID
	}
	instID := h.inst.AssetID()
	if instID.IsZero() {
		return id, fileID
	}
	if id.IsZero() {
		return instID, h.inst.FileID()
	}
	if instID == id && fileID == 0 {
		fileID = h.inst.FileID()
	}
	return id, fileID
}

// EqualRefs is the equality relation over handles, written as a pure
// function over the derived states so the semantics stay auditable.
// Two references are equal when both hold the identical live instance,
// when both are explicit-null, or when their resolved identities match
// exactly, fileID included.
func EqualRefs(a, b Ref) bool {
	if a == nil || b == nil {
		return a == b
	}
	ia, ib := a.Instance(), b.Instance()
	if ia != nil && ia == ib {
		return true
	}
	aid, af := resolvedIdentity(a)
	bid, bf := resolvedIdentity(b)
	if aid.IsZero() || bid.IsZero() {
		// Runtime resources have no comparable identity; only the
		// instance check above can match them. Explicit-nulls compare
		// equal to each other.
		return aid.IsZero() && bid.IsZero() && ia == nil && ib == nil
	}
	return aid == bid && af == bf
}

// HashRef hashes a reference consistently with EqualRefs.
func HashRef(r Ref) uint64 {
	id, fileID := resolvedIdentity(r)
	if !id.IsZero() {
		h := fnv.New64a()
		h.Write(id[:])
		var buf [2]byte
		binary.LittleEndian.PutUint16(buf[:], fileID)
		h.Write(buf[:])
		return h.Sum64()
	}
	if inst := r.Instance(); inst != nil {
		return uint64(inst.InstanceID())
	}
	return 0
}

// resolvedIdentity returns the identity a reference denotes, falling
// back to the live instance's own identity when the handle field is
// stale (empty).
func resolvedIdentity(r Ref) (ID, uint16) {
	id, fileID := r.Identity()
	if id.IsZero() {
		if inst := r.Instance(); inst != nil {
			return inst.AssetID(), inst.FileID()
		}
	}
	return id, fileID
}
