package control

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a YAML parameter file whenever it changes on disk.
type Watcher struct {
	path     string
	debounce time.Duration
	updater  Updater

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	once    sync.Once

	mu      sync.Mutex
	loads   uint64
	lastErr error
}

// NewWatcher creates a file watcher for path. Bursts of events within
// debounce collapse into one reload.
func NewWatcher(path string, debounce time.Duration, u Updater) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		updater:  u,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start loads the file once and begins watching its directory. Editors
// often replace files by rename, so the directory is watched rather than
// the file itself.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(w.path), err)
	}
	w.watcher = fw

	w.reload()
	go w.run(ctx)

	slog.Info("watching parameter file", "path", w.path, "debounce", w.debounce)
	return nil
}

// Stop ends the watch loop and waits for it to exit.
func (w *Watcher) Stop() {
	w.once.Do(func() { close(w.stopCh) })
	if w.watcher != nil {
		<-w.doneCh
	}
}

// Run starts the watcher and blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	<-w.doneCh
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	defer w.watcher.Close()

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
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("parameter file watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.setErr(err)
		slog.Warn("reading parameter file", "path", w.path, "error", err)
		return
	}
	set, err := DecodeFile(data)
	if err != nil {
		w.setErr(err)
		slog.Warn("parameter file rejected", "path", w.path, "error", err)
		return
	}

	w.updater.Update(set)
	w.mu.Lock()
	w.loads++
	w.lastErr = nil
	w.mu.Unlock()
	slog.Debug("parameter file reloaded", "path", w.path)
}

func (w *Watcher) setErr(err error) {
	w.mu.Lock()
	w.lastErr = err
	w.mu.Unlock()
}

// Loads returns how many times the file was applied to the store.
func (w *Watcher) Loads() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loads
}

// Err returns the most recent read or decode failure, or nil after a
// successful load.
func (w *Watcher) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}
