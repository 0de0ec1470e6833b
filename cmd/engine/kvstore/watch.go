package kvstore

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay lets a writer finish its rename before the file is re-read.
const settleDelay = 20 * time.Millisecond

// Watcher reloads a Store when another process rewrites its file.
type Watcher struct {
	store   *Store
	watcher *fsnotify.Watcher
	handler func()
	done    chan struct{}
}

// NewWatcher watches the store's directory. handler runs on the watcher
// goroutine after each reload that changed the content.
func NewWatcher(store *Store, handler func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	dir := filepath.Dir(store.Path())
	if err := store.fs.MkdirAll(dir, 0755); err != nil {
		fsw.Close()
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	return &Watcher{
		store:   store,
		watcher: fsw,
		handler: handler,
		done:    make(chan struct{}),
	}, nil
}

// Start blocks until Stop is called.
func (w *Watcher) Start() {
	name := filepath.Base(w.store.Path())
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			time.Sleep(settleDelay)
			changed, err := w.store.Reload()
			if err != nil {
				slog.Warn("failed to reload store", "path", w.store.Path(), "error", err)
				continue
			}
			if changed && w.handler != nil {
				w.handler()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Debug("store watcher error", "error", err)
		case <-w.done:
			return
		}
	}
}

// StartAsync runs Start on a new goroutine.
func (w *Watcher) StartAsync() {
	go w.Start()
}

// Stop ends watching and releases the fsnotify handle.
func (w *Watcher) Stop() {
	select {
	case <-w.done:
	default:
		close(w.done)
	}
	w.watcher.Close()
}
