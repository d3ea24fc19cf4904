package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"icabridge/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to a store file made by other processes.
// It watches the parent directory because atomic saves replace the file.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	path        string
	onChange    func()
	debounceDur time.Duration
	pending     time.Time
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	closed      bool
}

// ErrWatcherClosed is returned by Start once the watcher has been stopped
// or failed to start. Watchers are single use.
var ErrWatcherClosed = errors.New("watcher is closed")

// NewWatcher creates a watcher that calls onChange, at most once per
// debounce window, after the file at path changes.
func NewWatcher(path string, debounce time.Duration, onChange func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce < 10*time.Millisecond {
		debounce = 200 * time.Millisecond
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		fw.Close()
		return nil, err
	}

	return &Watcher{
		watcher:     fw,
		path:        abs,
		onChange:    onChange,
		debounceDur: debounce,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. It does not block. If Start fails the watcher is
// closed and cannot be started again.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWatcherClosed
	}
	if w.running {
		return nil
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		w.closeLocked()
		return err
	}
	if err := w.watcher.Add(dir); err != nil {
		w.closeLocked()
		return err
	}
	w.running = true
	logging.Store("watching %s", w.path)

	go w.run(ctx)
	return nil
}

// Stop ends the event loop, waits for it to exit and releases the
// underlying watcher. Safe to call more than once, and on a watcher that
// never started.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}

	w.mu.Lock()
	w.closeLocked()
	w.mu.Unlock()
	logging.Store("watcher stopped")
}

func (w *Watcher) closeLocked() {
	if w.closed {
		return
	}
	w.closed = true
	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategoryStore).Error("error closing watcher: %v", err)
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounceDur / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryStore).Error("watcher error: %v", err)

		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	logging.StoreDebug("%s event for %s", event.Op, event.Name)

	w.mu.Lock()
	if w.pending.IsZero() {
		w.pending = time.Now()
	}
	w.mu.Unlock()
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if w.pending.IsZero() || time.Since(w.pending) < w.debounceDur {
		w.mu.Unlock()
		return
	}
	w.pending = time.Time{}
	w.mu.Unlock()

	if w.onChange != nil {
		w.onChange()
	}
}
