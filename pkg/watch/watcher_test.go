package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tkara/unref/pkg/config"
)

func TestNewWatcher(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.DefaultConfig()

	tests := []struct {
		name     string
		debounce time.Duration
		want     time.Duration
	}{
		{"default debounce", 0, defaultDebounce},
		{"custom debounce", time.Second, time.Second},
		{"negative debounce defaults", -time.Second, defaultDebounce},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewWatcher(tmpDir, cfg, tt.debounce)
			if err != nil {
				t.Fatalf("NewWatcher() error = %v", err)
			}
			defer w.Stop()

			if w.fsWatcher == nil {
				t.Error("fsWatcher should not be nil")
			}
			if w.debounce != tt.want {
				t.Errorf("debounce = %v, want %v", w.debounce, tt.want)
			}
			if cap(w.trigger) != 1 {
				t.Errorf("trigger capacity = %d, want 1", cap(w.trigger))
			}
		})
	}
}

func TestWatcherCoalescesBursts(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Exclude.Gitignore = false

	w, err := NewWatcher(tmpDir, cfg, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(50 * time.Millisecond)

	// A burst of writes must collapse into a single trigger.
	for i := 0; i < 5; i++ {
		path := filepath.Join(tmpDir, "a.ts")
		if err := os.WriteFile(path, []byte("const x = 1;\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-w.Rescans():
	case <-time.After(2 * time.Second):
		t.Fatal("no rescan trigger after burst")
	}

	// The stream is quiet now; no second trigger should arrive.
	select {
	case <-w.Rescans():
		t.Fatal("burst produced more than one trigger")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherIgnoresUnsupportedFiles(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Exclude.Gitignore = false

	w, err := NewWatcher(tmpDir, cfg, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(tmpDir, "notes.md"), []byte("# hi\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-w.Rescans():
		t.Fatal("markdown write triggered a rescan")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherStop(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), config.DefaultConfig(), 0)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
