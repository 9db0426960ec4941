// Package watcher reports filesystem changes under previewed directories
// so a preview can be regenerated. Bursts of events are debounced into a
// single batch.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jamesainslie/tidy/pkg/tidy/logging"
)

var logger = logging.Get("watcher")

// DefaultDebounce is the quiet period before a batch is delivered.
const DefaultDebounce = 300 * time.Millisecond

// Event is one changed path. Op accumulates every operation seen for the
// path within a batch.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Invalidator drops cached state for a changed path.
type Invalidator interface {
	Invalidate(path string) error
}

// Options configures a Watcher.
type Options struct {
	// Recursive also watches subdirectories, including ones created later.
	Recursive bool

	// IncludeHidden reports changes to dotfiles.
	IncludeHidden bool

	// Debounce is the quiet period. 0 uses DefaultDebounce.
	Debounce time.Duration

	// Invalidator, if set, is told about every changed path.
	Invalidator Invalidator
}

// Watcher watches directories for filesystem changes.
type Watcher struct {
	opts    Options
	watcher *fsnotify.Watcher

	mu     sync.RWMutex
	paths  map[string]bool
	closed bool
}

// New creates a new Watcher.
func New(opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		opts:    opts,
		watcher: fsw,
		paths:   make(map[string]bool),
	}, nil
}

// Watch starts watching root, and its subdirectories when recursive.
// A file root watches its directory. Symlinks are not followed.
func (w *Watcher) Watch(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	info, err := os.Lstat(absRoot)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.addWatch(filepath.Dir(absRoot))
	}
	if !w.opts.Recursive {
		return w.addWatch(absRoot)
	}
	return w.addTree(absRoot)
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		if d.Type()&fs.ModeSymlink != 0 || !d.IsDir() {
			return nil
		}
		if path != root && w.hidden(path) {
			return filepath.SkipDir
		}
		return w.addWatch(path)
	})
}

func (w *Watcher) addWatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.paths[path] {
		return nil
	}
	if err := w.watcher.Add(path); err != nil {
		logger.Warn("failed to add watch", "path", path, "error", err)
		return err
	}
	w.paths[path] = true
	return nil
}

// Unwatch stops watching root and everything below it.
func (w *Watcher) Unwatch(root string) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return
	}
	w.removeTree(absRoot)
}

func (w *Watcher) removeTree(root string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	for path := range w.paths {
		if path == root || isSubPath(path, root) {
			_ = w.watcher.Remove(path)
			delete(w.paths, path)
		}
	}
}

// Paths returns the watched directories, sorted.
func (w *Watcher) Paths() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]string, 0, len(w.paths))
	for p := range w.paths {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Run delivers debounced batches to onChange until ctx is cancelled or
// the watcher is closed. Batches are sorted by path.
func (w *Watcher) Run(ctx context.Context, onChange func([]Event)) {
	pending := make(map[string]fsnotify.Op)
	timer := time.NewTimer(w.opts.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.accept(event) {
				continue
			}
			w.track(event)
			pending[event.Name] |= event.Op
			timer.Reset(w.opts.Debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]Event, 0, len(pending))
			for path, op := range pending {
				batch = append(batch, Event{Path: path, Op: op})
			}
			clear(pending)
			slices.SortFunc(batch, func(a, b Event) int { return strings.Compare(a.Path, b.Path) })
			logger.Debug("changes detected", "paths", len(batch))
			if onChange != nil {
				onChange(batch)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Error("watcher error", "error", err)
		}
	}
}

// accept drops chmod-only events and hidden paths.
func (w *Watcher) accept(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	return !w.hidden(event.Name)
}

func (w *Watcher) hidden(path string) bool {
	return !w.opts.IncludeHidden && strings.HasPrefix(filepath.Base(path), ".")
}

// track keeps watches in sync with the tree and invalidates cached state.
func (w *Watcher) track(event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Create):
		if w.opts.Recursive {
			if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
				_ = w.addTree(event.Name)
			}
		}
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.removeTree(event.Name)
	}

	if w.opts.Invalidator != nil {
		if err := w.opts.Invalidator.Invalidate(event.Name); err != nil {
			logger.Debug("invalidate failed", "path", event.Name, "error", err)
		}
	}
}

// Close closes the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.paths = make(map[string]bool)
	return w.watcher.Close()
}

// isSubPath checks if path is under parent directory.
func isSubPath(path, parent string) bool {
	return strings.HasPrefix(path, parent+string(filepath.Separator))
}
