package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/singleflight"

	"github.com/helix-engine/helix/engine/core"
)

const assetFileExt = ".asset"

type liveKey struct {
	id     ID
	fileID uint16
}

// Database is the asset provider: a GUID-addressed store of
// multi-object asset files under a root directory. It owns the loaded
// objects; handles only cache pointers into it.
//
// Database is safe for concurrent use. Concurrent loads of the same
// identity are collapsed into a single disk read.
type Database struct {
	root string

	mu      sync.RWMutex
	index   map[ID]string
	live    map[liveKey]Asset
	loaders map[string]Loader

	group   singleflight.Group
	watcher *watcher
}

// NewDatabase scans root for .asset files and starts watching it for
// changes. Close must be called to release the watcher.
func NewDatabase(root string) (*Database, error) {
	db := &Database{
		root:    root,
		index:   make(map[ID]string),
		live:    make(map[liveKey]Asset),
		loaders: make(map[string]Loader),
	}
	if err := db.Scan(); err != nil {
		return nil, err
	}

	w, err := newWatcher(db)
	if err != nil {
		return nil, err
	}
	db.watcher = w

	core.LogInfo("asset database initialized with root '%s' (%d assets)", root, len(db.index))
	return db, nil
}

// RegisterLoader registers a loader for its kind. A second loader for
// the same kind is rejected.
func (db *Database) RegisterLoader(l Loader) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, exists := db.loaders[l.Kind()]; exists {
		return fmt.Errorf("loader for kind %q already registered", l.Kind())
	}
	db.loaders[l.Kind()] = l
	return nil
}

// Scan rebuilds the id -> file index from disk.
func (db *Database) Scan() error {
	index := make(map[ID]string)
	err := filepath.WalkDir(db.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, assetFileExt) {
			return nil
		}
		id, err := idFromPath(path)
		if err != nil {
			core.LogWarn("asset database: skipping %s: %v", path, err)
			return nil
		}
		index[id] = path
		return nil
	})
	if err != nil {
		return err
	}

	db.mu.Lock()
	db.index = index
	db.mu.Unlock()
	return nil
}

// Has reports whether the identity exists in the store.
func (db *Database) Has(id ID) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	_, ok := db.index[id]
	return ok
}

// IsLoaded reports whether the object is currently live, without
// loading it.
func (db *Database) IsLoaded(id ID, fileID uint16) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	a, ok := db.live[liveKey{id, fileID}]
	return ok && !a.Destroyed()
}

// Load returns the live object for (id, fileID), reading it from disk
// on first access. At most one load per identity is in flight at a
// time; concurrent callers share its result.
func (db *Database) Load(id ID, fileID uint16) (Asset, error) {
	db.mu.RLock()
	if a, ok := db.live[liveKey{id, fileID}]; ok && !a.Destroyed() {
		db.mu.RUnlock()
		return a, nil
	}
	path, ok := db.index[id]
	db.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrAssetNotFound, id)
	}

	key := fmt.Sprintf("%s:%d", id, fileID)
	v, err, _ := db.group.Do(key, func() (interface{}, error) {
		return db.loadObject(id, fileID, path)
	})
	if err != nil {
		return nil, err
	}
	return v.(Asset), nil
}

// List returns the known identities in stable order.
func (db *Database) List() []ID {
	db.mu.RLock()
	defer db.mu.RUnlock()
	ids := make([]ID, 0, len(db.index))
	for id := range db.index {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b ID) int {
		return strings.Compare(a.String(), b.String())
	})
	return ids
}

// Invalidate marks every live object of an asset destroyed and drops it
// from the store. Outstanding handles re-resolve on next access.
func (db *Database) Invalidate(id ID) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for key, a := range db.live {
		if key.id != id {
			continue
		}
		if d, ok := a.(interface{ MarkDestroyed() }); ok {
			d.MarkDestroyed()
		}
		delete(db.live, key)
	}
}

// DrainReloads processes file-change notifications accumulated by the
// watcher since the last call. Intended to run once per frame pump.
// Returns the invalidated asset ids.
func (db *Database) DrainReloads() []ID {
	if db.watcher == nil {
		return nil
	}
	ids := db.watcher.drain()
	for _, id := range ids {
		core.LogDebug("asset database: reloading %s", id)
		db.Invalidate(id)
	}
	if len(ids) > 0 {
		if err := db.Scan(); err != nil {
			core.LogError("asset database: rescan failed: %v", err)
		}
	}
	return ids
}

// Close stops the watcher. Loaded objects stay usable.
func (db *Database) Close() error {
	if db.watcher != nil {
		return db.watcher.close()
	}
	return nil
}

func (db *Database) loadObject(id ID, fileID uint16, path string) (Asset, error) {
	// Double-check after winning the flight; a concurrent load may have
	// finished between the fast path and here.
	db.mu.RLock()
	if a, ok := db.live[liveKey{id, fileID}]; ok && !a.Destroyed() {
		db.mu.RUnlock()
		return a, nil
	}
	db.mu.RUnlock()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", core.ErrAssetNotFound, id)
		}
		return nil, err
	}

	var file assetFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse asset file %s: %w", path, err)
	}
	if int(fileID) >= len(file.Objects) {
		return nil, fmt.Errorf("%w: %s has no object %d", core.ErrAssetNotFound, id, fileID)
	}
	obj := file.Objects[fileID]

	db.mu.RLock()
	loader, ok := db.loaders[obj.Kind]
	db.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no loader for kind %q in %s", obj.Kind, path)
	}

	a, err := loader.Load(filepath.Dir(path), obj)
	if err != nil {
		return nil, fmt.Errorf("load %s[%d]: %w", id, fileID, err)
	}
	if b, ok := a.(interface{ Bind(ID, uint16) }); ok {
		b.Bind(id, fileID)
	}

	db.mu.Lock()
	db.live[liveKey{id, fileID}] = a
	db.mu.Unlock()

	core.LogDebug("asset database: loaded %s[%d] (%s)", id, fileID, obj.Kind)
	return a, nil
}

func idFromPath(path string) (ID, error) {
	name := strings.TrimSuffix(filepath.Base(path), assetFileExt)
	return ParseID(name)
}
