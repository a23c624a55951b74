package rates

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"kpr/internal/logger"
	"kpr/internal/metrics"
)

const defaultDebounce = 250 * time.Millisecond

// ErrWatcherStopped is returned by Start on a watcher that was stopped.
var ErrWatcherStopped = errors.New("catalog watcher already stopped")

// Watcher reloads a catalog file into a Registry whenever it changes. A file
// that fails to parse is logged and the previous catalog stays in place.
// A Watcher is single-use: once stopped it cannot be started again.
type Watcher struct {
	path     string
	registry *Registry
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onReload func(error)

	mu      sync.Mutex
	running bool
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher prepares a watcher for path. Nothing is watched until Start.
func NewWatcher(path string, registry *Registry) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create catalog watcher: %w", err)
	}
	return &Watcher{
		path:     filepath.Clean(path),
		registry: registry,
		watcher:  fw,
		debounce: defaultDebounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// SetDebounce changes the quiet period between the last event and a reload.
// Call before Start.
func (w *Watcher) SetDebounce(d time.Duration) { w.debounce = d }

// OnReload registers a callback invoked after every reload attempt.
// Call before Start.
func (w *Watcher) OnReload(fn func(error)) { w.onReload = fn }

// Start watches the file's directory, so editors that replace the file by
// rename are still seen. It returns immediately.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return ErrWatcherStopped
	}
	if w.running {
		return nil
	}
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.running = true
	go w.run(ctx)
	logger.Get().Infow("watching rate catalog", "path", w.path)
	return nil
}

// Stop ends the watch loop and waits for it to exit. Stop on a watcher that
// was never started only releases the fsnotify handle. Later calls are no-ops.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	running := w.running
	w.running = false
	w.stopped = true
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		logger.Get().Warnw("closing catalog watcher", "error", err)
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

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
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Get().Errorw("rate catalog watcher error", "error", err)
		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	entries, err := LoadFile(w.path)
	if err != nil {
		logger.Get().Errorw("rate catalog reload failed, keeping previous catalog", "path", w.path, "error", err)
	} else {
		w.registry.Replace(entries)
		logger.Get().Infow("rate catalog reloaded", "path", w.path, "rates", len(entries))
	}
	metrics.RateCatalogReloads.WithLabelValues(metrics.Result(err)).Inc()
	if w.onReload != nil {
		w.onReload(err)
	}
}
