package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestNewDefaults(t *testing.T) {
	w, err := New("settings.xml", 0, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if w.debounce != DefaultDebounce {
		t.Errorf("debounce = %v, want %v", w.debounce, DefaultDebounce)
	}
	if !filepath.IsAbs(w.Path()) {
		t.Errorf("Path() = %q, want absolute", w.Path())
	}
}

func TestRelevant(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.xml")
	w, err := New(path, time.Millisecond, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"write", fsnotify.Event{Name: path, Op: fsnotify.Write}, true},
		{"create after rename", fsnotify.Event{Name: path, Op: fsnotify.Create}, true},
		{"remove", fsnotify.Event{Name: path, Op: fsnotify.Remove}, false},
		{"chmod", fsnotify.Event{Name: path, Op: fsnotify.Chmod}, false},
		{"rename away", fsnotify.Event{Name: path, Op: fsnotify.Rename}, false},
		{"other file", fsnotify.Event{Name: filepath.Join(dir, "other.xml"), Op: fsnotify.Write}, false},
		{"temp file", fsnotify.Event{Name: path + ".tmp", Op: fsnotify.Create}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.relevant(tt.ev); got != tt.want {
				t.Errorf("relevant(%v) = %v, want %v", tt.ev, got, tt.want)
			}
		})
	}
}

func startWatcher(t *testing.T, path string, reload ReloadFunc) (cancel func(), done <-chan error) {
	t.Helper()

	w, err := New(path, 100*time.Millisecond, reload)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancelFn := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	select {
	case <-w.Ready():
	case err := <-errCh:
		cancelFn()
		t.Fatalf("Run() returned early: %v", err)
	case <-time.After(5 * time.Second):
		cancelFn()
		t.Fatal("watcher not ready")
	}
	return cancelFn, errCh
}

func TestRunDebouncesReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.xml")
	if err := os.WriteFile(path, []byte("<settings/>"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	var count atomic.Int32
	reloaded := make(chan struct{}, 10)
	cancel, done := startWatcher(t, path, func(context.Context) error {
		count.Add(1)
		reloaded <- struct{}{}
		return nil
	})

	for i := range 3 {
		if err := os.WriteFile(path, []byte("<settings n=\""+string(rune('a'+i))+"\"/>"), 0o600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after writes")
	}

	time.Sleep(300 * time.Millisecond)
	if n := count.Load(); n != 1 {
		t.Errorf("reload count = %d, want 1", n)
	}

	// Writes to other files are ignored
	if err := os.WriteFile(filepath.Join(dir, "other.xml"), []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	time.Sleep(300 * time.Millisecond)
	if n := count.Load(); n != 1 {
		t.Errorf("reload count after unrelated write = %d, want 1", n)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestRunContinuesAfterReloadError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.xml")

	calls := make(chan struct{}, 10)
	cancel, _ := startWatcher(t, path, func(context.Context) error {
		calls <- struct{}{}
		return errors.New("bad document")
	})
	defer cancel()

	for range 2 {
		if err := os.WriteFile(path, []byte("<"), 0o600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		select {
		case <-calls:
		case <-time.After(5 * time.Second):
			t.Fatal("reload not called")
		}
	}
}

func TestRunMissingDirectory(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "missing", "settings.xml"), time.Millisecond, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Run(context.Background()); err == nil {
		t.Error("Run() expected error for missing directory")
	}
}
