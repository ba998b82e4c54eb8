// Package watch turns filesystem notifications on Python sources into an
// ordered stream of (path, before, after) changes.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dusk-indust/learnwatch/internal/logger"
)

const DefaultDebounce = 500 * time.Millisecond

// Change is one debounced modification of a watched file. Before is the
// content last delivered (or read at startup) for the file.
type Change struct {
	FilePath string
	Before   string
	After    string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period a file must see before it is read.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithIgnoreDirs names directories skipped while watching a tree.
func WithIgnoreDirs(dirs ...string) Option {
	return func(w *Watcher) { w.ignore = dirs }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(w *Watcher) { w.log = l }
}

// Watcher watches a single .py file, or every .py file below a directory.
// Changes are delivered one at a time from a single goroutine, so consumers
// see them strictly ordered.
type Watcher struct {
	target   string // absolute
	single   bool
	debounce time.Duration
	ignore   []string
	log      *logger.Logger

	fsw       *fsnotify.Watcher
	snapshots map[string]string
	timers    map[string]*time.Timer
	fire      chan string
}

// New prepares a watcher for path. Nothing is observed until Run.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	w := &Watcher{
		target:    abs,
		single:    !info.IsDir(),
		debounce:  DefaultDebounce,
		log:       logger.Nop(),
		snapshots: make(map[string]string),
		timers:    make(map[string]*time.Timer),
		fire:      make(chan string, 16),
	}
	for _, o := range opts {
		o(w)
	}
	if w.single && !isPython(abs) {
		return nil, fmt.Errorf("%s is not a Python file", path)
	}
	return w, nil
}

// Files returns the files currently tracked, sorted.
func (w *Watcher) Files() []string {
	files := make([]string, 0, len(w.snapshots))
	for f := range w.snapshots {
		files = append(files, f)
	}
	slices.Sort(files)
	return files
}

// Run snapshots the watched files, then delivers changes to out until ctx is
// done. out is closed when Run returns.
func (w *Watcher) Run(ctx context.Context, out chan<- Change) error {
	defer close(out)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	w.fsw = fsw
	defer func() {
		for _, t := range w.timers {
			t.Stop()
		}
		_ = fsw.Close()
	}()

	if err := w.addInitial(); err != nil {
		return err
	}
	w.log.Info("watching", "path", w.target, "files", len(w.snapshots))

	for {
		select {
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, ev)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "err", err)

		case path := <-w.fire:
			delete(w.timers, path)
			ch, ok := w.read(path)
			if !ok {
				continue
			}
			select {
			case out <- ch:
			case <-ctx.Done():
				return nil
			}

		case <-ctx.Done():
			return nil
		}
	}
}

func (w *Watcher) addInitial() error {
	if w.single {
		w.snapshots[w.target] = readOrEmpty(w.target)
		// Editors often save by rename, so watch the directory.
		if err := w.fsw.Add(filepath.Dir(w.target)); err != nil {
			return fmt.Errorf("watch %s: %w", w.target, err)
		}
		return nil
	}

	return filepath.WalkDir(w.target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != w.target && w.ignored(d.Name()) {
				return filepath.SkipDir
			}
			if err := w.fsw.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
			return nil
		}
		if isPython(path) {
			w.snapshots[path] = readOrEmpty(path)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)

	if ev.Op&fsnotify.Create != 0 && !w.single {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !w.ignored(info.Name()) {
				_ = w.fsw.Add(path)
			}
			return
		}
	}
	if !w.accepts(path) {
		return
	}
	// A removed file keeps its snapshot so a rename-save still diffs
	// against the previous content.
	if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		select {
		case w.fire <- path:
		case <-ctx.Done():
		}
	})
}

// read loads path and reports a Change when its content differs from the
// last delivered content.
func (w *Watcher) read(path string) (Change, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		w.log.Warn("read failed", "file", path, "err", err)
		return Change{}, false
	}
	after := string(data)
	before, seen := w.snapshots[path]
	if seen && before == after {
		w.log.Debug("skip, content unchanged", "file", path)
		return Change{}, false
	}
	w.snapshots[path] = after
	return Change{FilePath: path, Before: before, After: after}, true
}

func (w *Watcher) accepts(path string) bool {
	if w.single {
		return path == w.target
	}
	if !isPython(path) {
		return false
	}
	rel, err := filepath.Rel(w.target, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	for _, part := range strings.Split(filepath.Dir(rel), string(filepath.Separator)) {
		if w.ignored(part) {
			return false
		}
	}
	return true
}

func (w *Watcher) ignored(name string) bool {
	return slices.Contains(w.ignore, name)
}

func isPython(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".py")
}

func readOrEmpty(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}
