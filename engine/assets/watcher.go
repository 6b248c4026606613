package assets

import (
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/helix-engine/helix/engine/containers"
	"github.com/helix-engine/helix/engine/core"
)

const reloadQueueSize = 256

// watcher turns filesystem events on the asset root into coalesced
// reload notifications. Events arrive on the fsnotify goroutine; the
// frame pump drains them on its own schedule through
// Database.DrainReloads.
type watcher struct {
	fsnotify *fsnotify.Watcher
	done     chan struct{}

	mu      sync.Mutex
	pending *containers.RingQueue[ID]
	queued  map[ID]struct{}
}

func newWatcher(db *Database) (*watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatch.Add(db.root); err != nil {
		fsWatch.Close()
		return nil, err
	}

	w := &watcher{
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		pending:  containers.NewRingQueue[ID](reloadQueueSize),
		queued:   make(map[ID]struct{}),
	}
	go w.run()
	return w, nil
}

func (w *watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, assetFileExt) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			id, err := idFromPath(event.Name)
			if err != nil {
				continue
			}
			w.enqueue(id)
		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogWarn("asset watcher: %v", err)
		}
	}
}

// enqueue coalesces repeated events for the same asset between drains.
func (w *watcher) enqueue(id ID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, dup := w.queued[id]; dup {
		return
	}
	if err := w.pending.Enqueue(id); err != nil {
		core.LogWarn("asset watcher: reload queue full, dropping event for %s", id)
		return
	}
	w.queued[id] = struct{}{}
}

func (w *watcher) drain() []ID {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending.IsEmpty() {
		return nil
	}
	ids := make([]ID, 0, w.pending.Len())
	for !w.pending.IsEmpty() {
		id, err := w.pending.Dequeue()
		if err != nil {
			break
		}
		delete(w.queued, id)
		ids = append(ids, id)
	}
	return ids
}

func (w *watcher) close() error {
	close(w.done)
	return w.fsnotify.Close()
}
