package confloader

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for a burst of events on
// one file to settle before reporting it.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports changes to configuration files. Editors that save by
// rename replace the file, so the parent directory is watched and events
// are filtered by name.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger

	mu       sync.RWMutex
	files    map[string]struct{}
	handlers []func(path string)

	closeOnce sync.Once
	closed    chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger for the watcher.
func WithWatcherLogger(l *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDebounce sets the settle delay. Zero reports every event.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// NewWatcher creates a watcher.
func NewWatcher(opts ...WatcherOption) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fs:       fs,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		files:    make(map[string]struct{}),
		closed:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch adds path to the watched files.
func (w *Watcher) Watch(path string) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.fs.Add(filepath.Dir(path)); err != nil {
		return err
	}
	w.mu.Lock()
	w.files[path] = struct{}{}
	w.mu.Unlock()
	w.logger.Debug("watching config file", "path", path)
	return nil
}

// OnChange registers fn to be called with the path of a changed file.
// Handlers run on the Run goroutine.
func (w *Watcher) OnChange(fn func(path string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, fn)
}

// Run dispatches changes until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	pending := make(map[string]struct{})
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.closed:
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			path, ok := w.match(ev.Name)
			if !ok {
				continue
			}
			if w.debounce <= 0 {
				w.dispatch(path)
				continue
			}
			pending[path] = struct{}{}
			timer.Reset(w.debounce)
		case <-timer.C:
			for path := range pending {
				delete(pending, path)
				w.dispatch(path)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.closed)
		err = w.fs.Close()
	})
	return err
}

func (w *Watcher) match(name string) (string, bool) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.files[abs]
	return abs, ok
}

func (w *Watcher) dispatch(path string) {
	w.logger.Debug("config file changed", "path", path)
	w.mu.RLock()
	handlers := append(([]func(string))(nil), w.handlers...)
	w.mu.RUnlock()
	for _, fn := range handlers {
		fn(path)
	}
}
