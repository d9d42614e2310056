// Package watcher reloads the settings document when it is edited on disk.
//
// The directory holding the file is watched rather than the file itself,
// since editors and atomic saves replace the file with a rename and a
// watch on the old inode would go quiet. Events for other files in the
// directory are ignored. Bursts of events are coalesced so one save
// triggers one reload.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when New is given a zero debounce interval.
const DefaultDebounce = 500 * time.Millisecond

// ReloadFunc is called after the watched file settles.
type ReloadFunc func(ctx context.Context) error

// Logger is the logging interface used by the watcher.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Watcher calls a ReloadFunc when one file changes.
type Watcher struct {
	path     string
	debounce time.Duration
	reload   ReloadFunc
	logger   Logger
	ready    chan struct{}
}

// New creates a watcher for path. Run starts it.
func New(path string, debounce time.Duration, reload ReloadFunc) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		path:     abs,
		debounce: debounce,
		reload:   reload,
		logger:   noopLogger{},
		ready:    make(chan struct{}),
	}, nil
}

// SetLogger sets the logger. Call before Run.
func (w *Watcher) SetLogger(logger Logger) {
	w.logger = logger
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Ready is closed once the watch is in place.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is cancelled. Reload errors are logged and the
// watch continues; only a failure to set up the watch is returned.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	close(w.ready)
	w.logger.Info("watching settings file", "path", w.path, "debounce", w.debounce)

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
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("settings watcher error", "error", err)

		case <-fire:
			fire = nil
			if err := w.reload(ctx); err != nil {
				w.logger.Error("reloading settings", "path", w.path, "error", err)
				continue
			}
			w.logger.Info("settings reloaded", "path", w.path)
		}
	}
}

// relevant reports whether ev leaves new content at the watched path.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)
}
