package routes

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a Table when its backing file changes on disk.
//
// It watches the file's parent directory rather than the file itself:
// editors and config management tools typically write a temporary file and
// rename it over the original, which silently detaches a direct file watch.
// Events are debounced so a multi-step write triggers a single reload.
//
// A reload that fails keeps the last successfully loaded table and logs the
// error, matching Table.Load semantics.
type Watcher struct {
	table    *Table
	watcher  *fsnotify.Watcher
	debounce *debouncer
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher creates a watcher for the table's backing file. The debounce
// interval is how long the file must stay quiet before a reload fires.
func NewWatcher(table *Table, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify watcher: %w", err)
	}

	return &Watcher{
		table:    table,
		watcher:  fsw,
		debounce: newDebouncer(debounce),
		logger:   slog.Default().With("component", "routes.watcher"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch blocks processing file events until the context is cancelled or Stop
// is called.
func (w *Watcher) Watch(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already started")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.doneCh)
	}()

	dir := filepath.Dir(w.table.Path())
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %q: %w", dir, err)
	}

	w.logger.Info("watching route overrides",
		"path", w.table.Path(),
		"debounce_ms", w.debounce.interval.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("route watcher stopped (context cancelled)")
			return nil

		case <-w.stopCh:
			w.logger.Info("route watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("fsnotify events channel closed")
			}
			if !w.shouldProcessEvent(event) {
				continue
			}

			w.logger.Debug("routes file event",
				"path", event.Name,
				"op", event.Op.String(),
			)

			w.debounce.trigger(w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("fsnotify errors channel closed")
			}
			w.logger.Error("route watcher error", "error", err)
		}
	}
}

// Stop stops the watcher and waits for the event loop to exit. It is safe to
// call after the watch context was cancelled, and safe to call twice.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	running := w.running
	w.mu.Unlock()

	close(w.stopCh)
	if running {
		<-w.doneCh
	}

	w.debounce.stop()

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("close fsnotify watcher: %w", err)
	}
	return nil
}

// reload runs after the debounce window closes.
func (w *Watcher) reload() {
	if err := w.table.Load(); err != nil {
		w.logger.Error("route reload failed, keeping last-good table",
			"error", err,
			"entries", w.table.Len(),
		)
		return
	}
}

// shouldProcessEvent filters directory events down to writes touching the
// routes file itself.
func (w *Watcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}
	return filepath.Clean(event.Name) == filepath.Clean(w.table.Path())
}

// debouncer collapses bursts of events into one callback after a quiet
// period.
type debouncer struct {
	interval time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	callback func()
	stopped  bool
}

func newDebouncer(interval time.Duration) *debouncer {
	return &debouncer{interval: interval}
}

// trigger arms the debouncer. Each call resets the quiet period.
func (d *debouncer) trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.callback = callback
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.fire)
}

func (d *debouncer) fire() {
	d.mu.Lock()
	cb := d.callback
	stopped := d.stopped
	d.mu.Unlock()

	if !stopped && cb != nil {
		cb()
	}
}

// stop cancels any pending callback.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}
