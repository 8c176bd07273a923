package watch

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/tkara/unref/pkg/collector"
	"github.com/tkara/unref/pkg/config"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher monitors a directory tree and coalesces bursts of file
// changes into full-rescan triggers. Each relevant event restarts the
// quiet-period timer; one trigger fires once the stream goes quiet.
// The trigger channel has capacity one: a trigger arriving while a
// rescan is still being consumed collapses into at most one queued
// rerun, so two runs never overlap on the same output.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	config    *config.Config
	debounce  time.Duration
	root      string
	trigger   chan struct{}
}

// NewWatcher creates a watcher rooted at path.
func NewWatcher(path string, cfg *config.Config, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = defaultDebounce
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		config:    cfg,
		debounce:  debounce,
		root:      path,
		trigger:   make(chan struct{}, 1),
	}, nil
}

// Rescans returns the channel on which coalesced rescan triggers are
// delivered.
func (w *Watcher) Rescans() <-chan struct{} {
	return w.trigger
}

// Start begins watching for file changes and blocks until the context
// is canceled or the underlying watcher closes.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.root); err != nil {
		return err
	}

	color.Cyan("Watching for changes in %s...", w.root)

	// Stopped until the first event arrives.
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				// Restart the quiet-period timer.
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			color.Red("Watch error: %v", err)

		case <-timer.C:
			select {
			case w.trigger <- struct{}{}:
			default:
				// A rescan is already queued; coalesce.
			}
		}
	}
}

// relevant filters events down to changes worth a rescan and tracks
// newly created directories.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	path := event.Name
	if w.config.ShouldExclude(path) {
		return false
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			_ = w.addTree(path)
			return true
		}
	}

	return collector.DetectLanguage(path) != collector.LangUnknown
}

// addTree registers a directory and its subdirectories, skipping
// excluded ones.
func (w *Watcher) addTree(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if !info.IsDir() {
			return nil
		}
		for _, excluded := range w.config.Exclude.Dirs {
			if info.Name() == excluded {
				return filepath.SkipDir
			}
		}
		return w.fsWatcher.Add(path)
	})
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// WatchedDirs returns the list of watched directories.
func (w *Watcher) WatchedDirs() []string {
	return w.fsWatcher.WatchList()
}
