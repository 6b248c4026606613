package assets

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helix-engine/helix/engine/core"
)

type stubAsset struct {
	Meta
	Value string
}

type stubKey struct {
	id     ID
	fileID uint16
}

// fakeProvider is an in-memory Provider with call counting.
type fakeProvider struct {
	objects map[stubKey]func() Asset
	loads   int32
	loaded  map[stubKey]Asset
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		objects: make(map[stubKey]func() Asset),
		loaded:  make(map[stubKey]Asset),
	}
}

func (p *fakeProvider) add(id ID, fileID uint16, value string) {
	p.objects[stubKey{id, fileID}] = func() Asset {
		a := &stubAsset{Value: value}
		a.Bind(id, fileID)
		return a
	}
}

func (p *fakeProvider) Has(id ID) bool {
	for key := range p.objects {
		if key.id == id {
			return true
		}
	}
	return false
}

func (p *fakeProvider) Load(id ID, fileID uint16) (Asset, error) {
	key := stubKey{id, fileID}
	if a, ok := p.loaded[key]; ok && !a.Destroyed() {
		return a, nil
	}
	make_, ok := p.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s[%d]", core.ErrAssetNotFound, id, fileID)
	}
	atomic.AddInt32(&p.loads, 1)
	a := make_()
	p.loaded[key] = a
	return a, nil
}

func (p *fakeProvider) IsLoaded(id ID, fileID uint16) bool {
	a, ok := p.loaded[stubKey{id, fileID}]
	return ok && !a.Destroyed()
}

func TestHandleStates(t *testing.T) {
	id := NewID()

	var null Handle[*stubAsset]
	assert.Equal(t, StateNull, null.State())

	unresolved := NewHandle[*stubAsset](id, 0)
	assert.Equal(t, StateUnresolved, unresolved.State())

	runtime := FromInstance(&stubAsset{Value: "in-memory"})
	assert.Equal(t, StateRuntime, runtime.State())
	assert.True(t, runtime.IsRuntimeResource())

	p := newFakeProvider()
	p.add(id, 0, "persisted")
	resolved := NewHandle[*stubAsset](id, 0)
	_, ok := resolved.Get(p)
	require.True(t, ok)
	assert.Equal(t, StateResolved, resolved.State())
	assert.False(t, resolved.IsRuntimeResource())
}

func TestHandleDetachThenResolve(t *testing.T) {
	id := NewID()
	p := newFakeProvider()
	p.add(id, 2, "sub-object")

	h := NewHandle[*stubAsset](id, 2)
	first, ok := h.Get(p)
	require.True(t, ok)

	h.Detach()
	_, peeked := h.Peek()
	assert.False(t, peeked, "detach must drop the cached instance")

	second, ok := h.Get(p)
	require.True(t, ok)
	assert.False(t, second.Destroyed())
	assert.Equal(t, id, second.AssetID())
	assert.Equal(t, uint16(2), second.FileID())
	assert.Same(t, first, second, "provider store is the source of truth")
}

func TestHandleResolveMissingAsset(t *testing.T) {
	id, err := ParseID("00000000-0000-0000-0000-000000000001")
	require.NoError(t, err)

	p := newFakeProvider()
	h := NewHandle[*stubAsset](id, 0)

	_, ok := h.Get(p)
	assert.False(t, ok)
	assert.False(t, h.Available(p))
	assert.Equal(t, StateUnresolved, h.State())
}

func TestHandleNeverReturnsDestroyed(t *testing.T) {
	id := NewID()
	p := newFakeProvider()
	p.add(id, 0, "v1")

	h := NewHandle[*stubAsset](id, 0)
	first, ok := h.Get(p)
	require.True(t, ok)

	first.MarkDestroyed()
	_, peeked := h.Peek()
	assert.False(t, peeked)

	second, ok := h.Get(p)
	require.True(t, ok)
	assert.False(t, second.Destroyed())
	assert.NotSame(t, first, second)
}

func TestHandleStaleReloadUsesInstanceFileID(t *testing.T) {
	id := NewID()
	p := newFakeProvider()
	p.add(id, 3, "specific")

	h := NewHandle[*stubAsset](id, 3)
	inst, ok := h.Get(p)
	require.True(t, ok)

	// Rebinding to the same asset with fileID 0 keeps the instance.
	h.Rebind(id, 0)
	_, stillThere := h.Peek()
	require.True(t, stillThere)

	// Once the instance dies, its more specific fileID wins the reload.
	inst.MarkDestroyed()
	reloaded, ok := h.Get(p)
	require.True(t, ok)
	assert.Equal(t, uint16(3), reloaded.FileID())
}

func TestHandleRebindBeatsStaleInstance(t *testing.T) {
	idA := NewID()
	idB := NewID()
	p := newFakeProvider()
	p.add(idA, 0, "a")
	p.add(idB, 0, "b")

	// Destroy first, rebind second: the stale instance still carries
	// idA but must not resurrect it.
	h := NewHandle[*stubAsset](idA, 0)
	instA, ok := h.Get(p)
	require.True(t, ok)
	instA.MarkDestroyed()
	h.Rebind(idB, 0)

	got, ok := h.Get(p)
	require.True(t, ok)
	assert.Equal(t, idB, got.AssetID())

	// Rebind first, destroy after: the live instance is dropped
	// immediately because identities disagree.
	h2 := NewHandle[*stubAsset](idA, 0)
	_, ok = h2.Get(p)
	require.True(t, ok)
	h2.Rebind(idB, 0)
	_, peeked := h2.Peek()
	assert.False(t, peeked)

	got2, ok := h2.Get(p)
	require.True(t, ok)
	assert.Equal(t, idB, got2.AssetID())
}

func TestHandleAdoptResyncsIdentity(t *testing.T) {
	id := NewID()
	obj := &stubAsset{}
	obj.Bind(id, 5)

	h := &Handle[*stubAsset]{}
	h.Adopt(obj)

	gotID, gotFileID := h.Identity()
	assert.Equal(t, id, gotID)
	assert.Equal(t, uint16(5), gotFileID)
}

func TestHandleAdoptWrongTypeClearsToNull(t *testing.T) {
	h := NewHandle[*stubAsset](NewID(), 1)
	h.Adopt(&Material{Name: "not a stub"})
	assert.Equal(t, StateNull, h.State())

	h2 := FromInstance(&stubAsset{Value: "x"})
	h2.Adopt(nil)
	assert.Equal(t, StateNull, h2.State())
}

func TestHandleEquality(t *testing.T) {
	id := NewID()
	other := NewID()
	p := newFakeProvider()
	p.add(id, 1, "x")

	t.Run("unresolved same identity", func(t *testing.T) {
		h1 := NewHandle[*stubAsset](id, 1)
		h2 := NewHandle[*stubAsset](id, 1)
		assert.True(t, EqualRefs(h1, h2))
		assert.Equal(t, h1.Hash(), h2.Hash())
	})

	t.Run("different fileID", func(t *testing.T) {
		h1 := NewHandle[*stubAsset](id, 0)
		h2 := NewHandle[*stubAsset](id, 1)
		assert.False(t, EqualRefs(h1, h2))
	})

	t.Run("different id", func(t *testing.T) {
		assert.False(t, EqualRefs(
			NewHandle[*stubAsset](id, 0),
			NewHandle[*stubAsset](other, 0),
		))
	})

	t.Run("resolved vs unresolved same identity", func(t *testing.T) {
		h1 := NewHandle[*stubAsset](id, 1)
		_, ok := h1.Get(p)
		require.True(t, ok)
		h2 := NewHandle[*stubAsset](id, 1)
		assert.True(t, EqualRefs(h1, h2))
		assert.Equal(t, h1.Hash(), h2.Hash(), "hash stays stable across resolution")
	})

	t.Run("both explicit null", func(t *testing.T) {
		assert.True(t, EqualRefs(&Handle[*stubAsset]{}, &Handle[*stubAsset]{}))
	})

	t.Run("runtime resources compare by instance", func(t *testing.T) {
		obj := &stubAsset{Value: "live"}
		h1 := FromInstance(obj)
		h2 := FromInstance(obj)
		assert.True(t, EqualRefs(h1, h2))
		assert.Equal(t, h1.Hash(), h2.Hash())

		h3 := FromInstance(&stubAsset{Value: "live"})
		assert.False(t, EqualRefs(h1, h3), "distinct runtime instances are distinct references")
	})

	t.Run("null vs runtime", func(t *testing.T) {
		assert.False(t, EqualRefs(&Handle[*stubAsset]{}, FromInstance(&stubAsset{})))
	})
}

func TestHandleLoadedAndEnsureLoaded(t *testing.T) {
	id := NewID()
	p := newFakeProvider()
	p.add(id, 0, "x")

	h := NewHandle[*stubAsset](id, 0)
	assert.False(t, h.Loaded(p), "Loaded must not force a load")
	assert.Equal(t, int32(0), atomic.LoadInt32(&p.loads))

	h.EnsureLoaded(p)
	assert.True(t, h.Loaded(p))
	assert.Equal(t, int32(1), atomic.LoadInt32(&p.loads))

	// Already resolved: no further load.
	h.EnsureLoaded(p)
	assert.Equal(t, int32(1), atomic.LoadInt32(&p.loads))

	// Another handle sees the store's copy as loaded.
	h2 := NewHandle[*stubAsset](id, 0)
	assert.True(t, h2.Loaded(p))
}
