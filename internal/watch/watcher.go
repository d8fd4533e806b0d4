// Package watch reloads the board store when its state file is changed by
// another process, such as a second CLI invocation or a sync client.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/mindnode/internal/logging"
)

// DefaultDebounce is how long the watcher waits for a burst of file events
// to settle before reloading.
const DefaultDebounce = 100 * time.Millisecond

// Reloader re-reads persisted state. *board.Store implements it.
type Reloader interface {
	Reload(ctx context.Context) (bool, error)
}

// Watcher watches one file and calls Reload after it changes.
type Watcher struct {
	path     string
	target   Reloader
	debounce time.Duration
	logger   *logging.Logger
	watcher  *fsnotify.Watcher

	onReload func(changed bool, err error)

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// New creates a watcher for path. The file's directory is watched rather
// than the file, so atomic replace-by-rename is observed.
func New(path string, target Reloader, debounce time.Duration, logger *logging.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return &Watcher{
		path:     filepath.Clean(path),
		target:   target,
		debounce: debounce,
		logger:   logger.WithComponent("watch"),
		watcher:  fw,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// SetReloadCallback registers a callback run after every reload attempt.
// It must be set before Start.
func (w *Watcher) SetReloadCallback(cb func(changed bool, err error)) {
	w.onReload = cb
}

// Path returns the watched file.
func (w *Watcher) Path() string { return w.path }

// Start begins watching in a new goroutine.
func (w *Watcher) Start() {
	go w.loop()
}

// Stop stops watching and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		_ = w.watcher.Close()
	})
	<-w.done
}

func (w *Watcher) loop() {
	defer close(w.done)

	// Editors and atomic writers emit several events per save.
	timer := time.NewTimer(0)
	<-timer.C
	armed := false

	for {
		select {
		case <-w.stopCh:
			timer.Stop()
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if armed && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(w.debounce)
			armed = true

		case <-timer.C:
			armed = false
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watch error", "path", w.path, "error", err)
		}
	}
}

func (w *Watcher) reload() {
	changed, err := w.target.Reload(context.Background())
	switch {
	case err != nil:
		w.logger.Error("reload failed", "path", w.path, "error", err)
	case changed:
		w.logger.Info("state reloaded from disk", "path", w.path)
	}
	if w.onReload != nil {
		w.onReload(changed, err)
	}
}
