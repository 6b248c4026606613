package assets

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helix-engine/helix/engine/core"
)

// countingLoader builds stubAssets and counts disk-level loads.
type countingLoader struct {
	kind  string
	delay time.Duration
	loads int32
}

func (l *countingLoader) Kind() string { return l.kind }

func (l *countingLoader) Load(dir string, obj ObjectRecord) (Asset, error) {
	atomic.AddInt32(&l.loads, 1)
	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	return &stubAsset{Value: obj.Name}, nil
}

const blobAssetFile = `
[[objects]]
kind = "blob"
name = "primary"

[[objects]]
kind = "blob"
name = "secondary"
`

func writeAssetFile(t *testing.T, dir string, id ID, body string) string {
	t.Helper()
	path := filepath.Join(dir, id.String()+assetFileExt)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func newTestDatabase(t *testing.T, dir string) (*Database, *countingLoader) {
	t.Helper()
	db, err := NewDatabase(dir)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	loader := &countingLoader{kind: "blob"}
	require.NoError(t, db.RegisterLoader(loader))
	return db, loader
}

func TestDatabaseScanAndLoad(t *testing.T) {
	dir := t.TempDir()
	id := NewID()
	writeAssetFile(t, dir, id, blobAssetFile)

	db, _ := newTestDatabase(t, dir)

	assert.True(t, db.Has(id))
	assert.False(t, db.IsLoaded(id, 0))
	assert.Equal(t, []ID{id}, db.List())

	primary, err := db.Load(id, 0)
	require.NoError(t, err)
	assert.Equal(t, id, primary.AssetID())
	assert.Equal(t, uint16(0), primary.FileID())
	assert.Equal(t, "primary", primary.(*stubAsset).Value)
	assert.True(t, db.IsLoaded(id, 0))

	secondary, err := db.Load(id, 1)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), secondary.FileID())
	assert.Equal(t, "secondary", secondary.(*stubAsset).Value)

	// Repeated loads return the live object.
	again, err := db.Load(id, 0)
	require.NoError(t, err)
	assert.Same(t, primary, again)
}

func TestDatabaseLoadErrors(t *testing.T) {
	dir := t.TempDir()
	id := NewID()
	writeAssetFile(t, dir, id, blobAssetFile)

	db, _ := newTestDatabase(t, dir)

	_, err := db.Load(NewID(), 0)
	assert.True(t, errors.Is(err, core.ErrAssetNotFound))

	_, err = db.Load(id, 9)
	assert.True(t, errors.Is(err, core.ErrAssetNotFound), "fileID past the object list is not-found")

	unknown := NewID()
	writeAssetFile(t, dir, unknown, "[[objects]]\nkind = \"mystery\"\nname = \"x\"\n")
	require.NoError(t, db.Scan())
	_, err = db.Load(unknown, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no loader")
}

func TestDatabaseRegisterLoaderTwice(t *testing.T) {
	db, _ := newTestDatabase(t, t.TempDir())
	err := db.RegisterLoader(&countingLoader{kind: "blob"})
	assert.Error(t, err)
}

func TestDatabaseSkipsBadFilenames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.asset"), []byte("x"), 0o644))
	id := NewID()
	writeAssetFile(t, dir, id, blobAssetFile)

	db, _ := newTestDatabase(t, dir)
	assert.Equal(t, []ID{id}, db.List())
}

func TestDatabaseConcurrentLoadsCollapse(t *testing.T) {
	dir := t.TempDir()
	id := NewID()
	writeAssetFile(t, dir, id, blobAssetFile)

	db, loader := newTestDatabase(t, dir)
	loader.delay = 20 * time.Millisecond

	const n = 16
	results := make([]Asset, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			a, err := db.Load(id, 0)
			assert.NoError(t, err)
			results[i] = a
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&loader.loads), "concurrent loads must share one disk read")
	for i := 1; i < n; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestDatabaseInvalidate(t *testing.T) {
	dir := t.TempDir()
	id := NewID()
	writeAssetFile(t, dir, id, blobAssetFile)

	db, loader := newTestDatabase(t, dir)

	h := NewHandle[*stubAsset](id, 0)
	first, ok := h.Get(db)
	require.True(t, ok)

	db.Invalidate(id)
	assert.True(t, first.Destroyed())
	assert.False(t, db.IsLoaded(id, 0))

	// The handle re-resolves to a fresh instance under the same identity.
	second, ok := h.Get(db)
	require.True(t, ok)
	assert.NotSame(t, first, second)
	assert.Equal(t, id, second.AssetID())
	assert.Equal(t, int32(2), atomic.LoadInt32(&loader.loads))
}

func TestDatabaseHotReload(t *testing.T) {
	dir := t.TempDir()
	id := NewID()
	path := writeAssetFile(t, dir, id, blobAssetFile)

	db, _ := newTestDatabase(t, dir)

	first, err := db.Load(id, 0)
	require.NoError(t, err)

	// Touch the file; the watcher coalesces the events and DrainReloads
	// picks them up on the next frame pump.
	require.NoError(t, os.WriteFile(path, []byte(blobAssetFile), 0o644))
	var drained []ID
	require.Eventually(t, func() bool {
		drained = append(drained, db.DrainReloads()...)
		return len(drained) > 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, drained, id)

	assert.True(t, first.Destroyed())
	assert.False(t, db.IsLoaded(id, 0))

	second, err := db.Load(id, 0)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestDatabaseInlineKindLoader(t *testing.T) {
	dir := t.TempDir()
	id := NewID()
	writeAssetFile(t, dir, id, `
[[objects]]
kind = "material"
name = "stone"

[objects.data]
Name = "stone"
DiffuseColor = [1.0, 0.5, 0.25, 1.0]
Shininess = 8.0
`)

	db, _ := newTestDatabase(t, dir)
	require.NoError(t, db.RegisterLoader(inlineKindLoader{kind: "material"}))

	a, err := db.Load(id, 0)
	require.NoError(t, err)
	mat, ok := a.(*Material)
	require.True(t, ok)
	assert.Equal(t, "stone", mat.Name)
	assert.Equal(t, [4]float32{1, 0.5, 0.25, 1}, mat.DiffuseColor)
	assert.Equal(t, float32(8), mat.Shininess)
	assert.Equal(t, id, mat.AssetID())
}

// inlineKindLoader adapts a registered inline decoder into a file
// loader, the way the material loader does.
type inlineKindLoader struct {
	kind string
}

func (l inlineKindLoader) Kind() string { return l.kind }

func (l inlineKindLoader) Load(dir string, obj ObjectRecord) (Asset, error) {
	return DecodeInlineKind(l.kind, obj.Data)
}
