// Package watcher watches inbox directories with fsnotify and hands settled
// table files to a handler, debouncing bursts of writes to the same file.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hyperjump/tablekit/internal/textenc"
)

const defaultDebounce = 400 * time.Millisecond

// Handler is called once per settled file.
type Handler func(path string)

// Watcher watches root directories and calls a Handler for new or rewritten files.
type Watcher struct {
	roots       []string
	extensions  []string
	exclude     []string
	recursive   bool
	handle      Handler
	debounce    time.Duration
	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	debounceMap map[string]*time.Timer
	rootPaths   map[string][]string // root -> watched directories under it
	inflight    sync.WaitGroup
	done        chan struct{}
	started     bool
	stopOnce    sync.Once
	logger      *zap.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for watch events.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithExtensions restricts the handler to files with these extensions.
// Compressed files match on the extension under the compression suffix.
func WithExtensions(exts ...string) Option {
	return func(w *Watcher) { w.extensions = exts }
}

// WithRecursive watches subdirectories of each root.
func WithRecursive(recursive bool) Option {
	return func(w *Watcher) { w.recursive = recursive }
}

// WithDebounce sets how long a file must stay quiet before it is handled.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithExclude skips events below these paths, typically the export output directory.
func WithExclude(paths ...string) Option {
	return func(w *Watcher) {
		for _, p := range paths {
			if abs, err := filepath.Abs(p); err == nil {
				w.exclude = append(w.exclude, filepath.Clean(abs))
			}
		}
	}
}

// New creates a watcher over roots. Missing roots are created on Start.
func New(roots []string, handle Handler, opts ...Option) *Watcher {
	w := &Watcher{
		roots:       append([]string(nil), roots...),
		handle:      handle,
		debounce:    defaultDebounce,
		debounceMap: make(map[string]*time.Timer),
		rootPaths:   make(map[string][]string),
		done:        make(chan struct{}),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start starts the watcher. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	w.started = true
	w.logger.Debug("watcher starting",
		zap.Strings("roots", w.roots),
		zap.Strings("extensions", w.extensions),
		zap.Bool("recursive", w.recursive),
	)
	for _, root := range w.roots {
		if err := w.addRootLocked(root); err != nil {
			_ = w.watcher.Close()
			w.watcher = nil
			w.started = false
			w.mu.Unlock()
			return err
		}
	}
	events, errs := watcher.Events, watcher.Errors
	w.mu.Unlock()
	go w.run(ctx, events, errs)
	return nil
}

func (w *Watcher) run(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-errs:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Warn("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := ev.Name
	if !w.underRoot(path) || w.excluded(path) {
		return
	}
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			w.handleNewDirectory(path)
			return
		}
		if w.matchExtension(path) {
			w.debounceHandle(path)
		}
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		w.cancelDebounce(path)
	}
}

// handleNewDirectory watches a directory created or moved under a root and
// queues the files already inside it.
func (w *Watcher) handleNewDirectory(dirPath string) {
	w.mu.Lock()
	recursive := w.recursive
	watcher := w.watcher
	w.mu.Unlock()
	if watcher == nil || !recursive || w.excluded(dirPath) {
		return
	}

	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if w.matchExtension(path) {
				w.debounceHandle(path)
			}
			return nil
		}
		if w.excluded(path) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			w.logger.Debug("watcher failed to add directory", zap.String("path", path), zap.Error(err))
		}
		return nil
	})
}

func (w *Watcher) underRoot(path string) bool {
	w.mu.Lock()
	roots := append([]string(nil), w.roots...)
	w.mu.Unlock()
	clean := filepath.Clean(path)
	for _, root := range roots {
		rootClean := filepath.Clean(root)
		if rootClean == clean || inDir(rootClean, clean) {
			return true
		}
	}
	return false
}

func (w *Watcher) excluded(path string) bool {
	clean := filepath.Clean(path)
	for _, ex := range w.exclude {
		if ex == clean || inDir(ex, clean) {
			return true
		}
	}
	return false
}

func inDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (w *Watcher) matchExtension(path string) bool {
	return matchExtension(path, w.extensions)
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(textenc.BaseExt(path), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

func (w *Watcher) debounceHandle(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
	}
	w.debounceMap[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		if !w.started {
			w.mu.Unlock()
			return
		}
		w.inflight.Add(1)
		w.mu.Unlock()
		defer w.inflight.Done()

		w.logger.Debug("watcher handling file", zap.String("path", path))
		if w.handle != nil {
			w.handle(path)
		}
	})
}

func (w *Watcher) cancelDebounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
		delete(w.debounceMap, path)
	}
}

// AddDirectory adds a root directory to watch and optionally handles the files already in it.
func (w *Watcher) AddDirectory(root string, syncExisting bool) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	abs = filepath.Clean(abs)
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, r := range w.roots {
		if filepath.Clean(r) == abs {
			return nil
		}
	}
	if w.watcher != nil {
		if err := w.addRootLocked(abs); err != nil {
			return err
		}
	}
	w.roots = append(w.roots, abs)
	w.logger.Debug("watcher directory added", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if syncExisting && w.handle != nil {
		go w.syncDirectory(abs)
	}
	return nil
}

func (w *Watcher) addRootLocked(root string) error {
	root = filepath.Clean(root)
	if _, err := os.Stat(root); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		if err := os.MkdirAll(root, 0755); err != nil {
			return err
		}
	}
	var paths []string
	if w.recursive {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if w.excluded(path) {
				return filepath.SkipDir
			}
			if err := w.watcher.Add(path); err != nil {
				return err
			}
			paths = append(paths, path)
			return nil
		})
		if err != nil {
			return err
		}
	} else {
		if err := w.watcher.Add(root); err != nil {
			return err
		}
		paths = append(paths, root)
	}
	w.rootPaths[root] = paths
	return nil
}

func (w *Watcher) syncDirectory(root string) {
	w.mu.Lock()
	exts := append([]string(nil), w.extensions...)
	recursive := w.recursive
	handle := w.handle
	w.mu.Unlock()
	w.logger.Debug("watcher syncing directory", zap.String("root", root))
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (!recursive || w.excluded(path)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !w.excluded(path) && matchExtension(path, exts) && handle != nil {
			handle(path)
		}
		return nil
	})
}

// RemoveDirectory stops watching the given root. Files already handled are left alone.
func (w *Watcher) RemoveDirectory(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	abs = filepath.Clean(abs)
	w.mu.Lock()
	defer w.mu.Unlock()
	idx := -1
	for i, r := range w.roots {
		if filepath.Clean(r) == abs {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	if w.watcher != nil {
		for _, p := range w.rootPaths[abs] {
			_ = w.watcher.Remove(p)
		}
	}
	delete(w.rootPaths, abs)
	w.roots = append(w.roots[:idx], w.roots[idx+1:]...)
	w.logger.Debug("watcher directory removed", zap.String("path", abs))
	return nil
}

// Directories returns a copy of the current watched root directories.
func (w *Watcher) Directories() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.roots...)
}

// SyncExistingFiles handles every matching file already present in the roots.
// Call it after Start to convert files that arrived while nothing was watching.
func (w *Watcher) SyncExistingFiles() {
	for _, root := range w.Directories() {
		w.syncDirectory(root)
	}
}

// Stop stops the watcher, cancels pending files and waits for handlers in progress.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	for path, t := range w.debounceMap {
		t.Stop()
		delete(w.debounceMap, path)
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
	w.inflight.Wait()
}
