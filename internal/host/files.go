package host

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/gemgutter/pkg/errors"
	"github.com/matzehuels/gemgutter/pkg/observability"
	"github.com/matzehuels/gemgutter/pkg/session"
)

var _ session.FileProvider = (*Files)(nil)

// Files is a [session.FileProvider] over the local file system.
//
// Watches are placed on the parent directory of each path and filtered by
// name, so a file that is replaced by rename or created after the watch was
// registered is still picked up. Events for the same path are debounced.
type Files struct {
	logger   *log.Logger
	debounce *debouncer

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	dirs    map[string]int
	subs    map[string]map[uint64]func()
	nextID  uint64
	closed  bool
}

// NewFiles returns a Files whose watch callbacks fire once a path has been
// quiet for debounce. A zero debounce fires on every event.
func NewFiles(debounce time.Duration, logger *log.Logger) *Files {
	if logger == nil {
		logger = log.Default()
	}
	f := &Files{
		logger: logger,
		dirs:   make(map[string]int),
		subs:   make(map[string]map[uint64]func()),
	}
	f.debounce = newDebouncer(debounce, f.notify)
	return f
}

// Exists reports whether path exists.
func (f *Files) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, err
	}
}

// Read returns the content of path.
func (f *Files) Read(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
		}
		return "", err
	}
	return string(data), nil
}

// Watch runs fn whenever path is written, created, renamed or removed.
// The returned cancel func is idempotent and does not wait for a callback
// that is already running.
func (f *Files) Watch(path string, fn func()) (func(), error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(abs)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, errors.New(errors.ErrCodeDisposed, "file watcher closed")
	}
	if f.watcher == nil {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, err
		}
		f.watcher = w
		go f.processEvents(w)
	}
	if f.dirs[dir] == 0 {
		if err := f.watcher.Add(dir); err != nil {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "watch %s", dir)
		}
	}
	f.dirs[dir]++

	f.nextID++
	id := f.nextID
	if f.subs[abs] == nil {
		f.subs[abs] = make(map[uint64]func())
	}
	f.subs[abs][id] = fn
	f.logger.Debug("watching file", "path", abs)

	var once sync.Once
	return func() {
		once.Do(func() { f.unwatch(abs, dir, id) })
	}, nil
}

func (f *Files) unwatch(abs, dir string, id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.subs[abs], id)
	if len(f.subs[abs]) == 0 {
		delete(f.subs, abs)
	}
	f.dirs[dir]--
	if f.dirs[dir] > 0 {
		return
	}
	delete(f.dirs, dir)
	if f.watcher != nil && !f.closed {
		_ = f.watcher.Remove(dir)
	}
}

// Watching returns the number of active watch registrations.
func (f *Files) Watching() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, subs := range f.subs {
		n += len(subs)
	}
	return n
}

// Close stops the underlying watcher. Pending callbacks are dropped.
func (f *Files) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	w := f.watcher
	f.mu.Unlock()

	f.debounce.stop()
	if w != nil {
		return w.Close()
	}
	return nil
}

func (f *Files) processEvents(w *fsnotify.Watcher) {
	ctx := context.Background()
	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			op := convertOp(event.Op)
			if op == "" {
				continue
			}
			path := filepath.Clean(event.Name)
			if !f.watched(path) {
				continue
			}
			observability.Watch().OnFileEvent(ctx, path, op)
			f.debounce.trigger(path)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			observability.Watch().OnWatchError(ctx, "", err)
			f.logger.Warn("file watcher error", "err", err)
		}
	}
}

func (f *Files) watched(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[path]) > 0
}

// notify runs every callback registered for path, outside the lock.
func (f *Files) notify(path string) {
	f.mu.Lock()
	fns := make([]func(), 0, len(f.subs[path]))
	for _, fn := range f.subs[path] {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// convertOp names the content-affecting part of op. Chmod-only events
// return "".
func convertOp(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	default:
		return ""
	}
}
