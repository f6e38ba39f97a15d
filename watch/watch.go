// Package watch re-runs a callback whenever a document file changes on disk.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/teranos/medf/errors"
	"github.com/teranos/medf/logger"
)

// DefaultDebounce collapses the burst of events an editor save produces.
const DefaultDebounce = 300 * time.Millisecond

// ChangeFunc is called with the watched path after each settled change.
type ChangeFunc func(path string)

// Watcher watches a single file. It watches the parent directory so that
// atomic saves (write temp file, rename over target) are seen too.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange ChangeFunc

	mu    sync.Mutex
	timer *time.Timer

	// deliver serialises onChange; a change that settles while the previous
	// callback is still running waits for it.
	deliver sync.Mutex
	closed  bool
}

// New creates a watcher for path. Call Run to start delivering changes.
func New(path string, debounce time.Duration, onChange ChangeFunc) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve %s", path)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", filepath.Dir(abs))
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		path:     abs,
		watcher:  fw,
		debounce: debounce,
		onChange: onChange,
	}, nil
}

// Run delivers changes until ctx is cancelled, then closes the watcher.
// Callbacks never overlap and none starts after Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			logger.Debugw("Document changed",
				logger.FieldFile, event.Name,
				logger.FieldOperation, event.Op.String())
			w.schedule()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnw("Watcher error", logger.FieldError, err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

// schedule restarts the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.deliver.Lock()
	defer w.deliver.Unlock()

	if w.closed {
		return
	}
	w.onChange(w.path)
}

func (w *Watcher) stop() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	// Wait out a running callback; timers that fire later see closed.
	w.deliver.Lock()
	w.closed = true
	w.deliver.Unlock()

	if err := w.watcher.Close(); err != nil {
		logger.Debugw("Failed to close watcher", logger.FieldError, err)
	}
}
