package schedule

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce collapses the burst of events an editor produces when saving.
const defaultDebounce = 250 * time.Millisecond

// Logger is the logging interface used by the watcher.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Watcher signals changes to a schedule file.
//
// It watches the parent directory rather than the file itself so that
// editors which save by writing a temp file and renaming it over the
// original are still seen. Events are debounced; a burst of writes produces
// a single notification on Changes.
//
// Thread Safety: Changes and Close may be called from any goroutine.
type Watcher struct {
	path     string
	fs       *fsnotify.Watcher
	changes  chan struct{}
	done     chan struct{}
	debounce time.Duration
	logger   Logger

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

// NewWatcher starts watching path.
//
// Parameters:
//   - path: schedule file to watch (need not exist yet)
//   - logger: optional logger (nil = silent)
//
// Returns:
//   - *Watcher: running watcher; call Close when done
//   - error: if the parent directory cannot be watched
func NewWatcher(path string, logger Logger) (*Watcher, error) {
	return newWatcher(path, logger, defaultDebounce)
}

func newWatcher(path string, logger Logger, debounce time.Duration) (*Watcher, error) {
	if logger == nil {
		logger = noopLogger{}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching %q: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:     abs,
		fs:       fsw,
		changes:  make(chan struct{}, 1),
		done:     make(chan struct{}),
		debounce: debounce,
		logger:   logger,
	}
	go w.run()

	logger.Debug("schedule watcher started", "path", abs)
	return w, nil
}

// Changes delivers one value per debounced burst of changes to the file.
// Notifications are coalesced if the receiver falls behind.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	err := w.fs.Close()
	<-w.done
	return err
}

func (w *Watcher) run() {
	defer close(w.done)

	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&relevant != 0 {
				w.logger.Debug("schedule file event", "path", w.path, "op", ev.Op.String())
				w.trigger()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			// An overflow means events were dropped; assume the file changed.
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.trigger()
			}
			w.logger.Warn("schedule watcher error", "path", w.path, "error", err)
		}
	}
}

// trigger (re)arms the debounce timer.
func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.notify)
}

func (w *Watcher) notify() {
	select {
	case w.changes <- struct{}{}:
	default:
	}
}
