// Package daemon watches the Claude Code settings file and reacts to edits
// made outside claudeswap.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events an editor save produces
const DefaultDebounce = 100 * time.Millisecond

// Handler is called once per debounced change
type Handler func() error

// Watcher watches a single file through its parent directory, so atomic
// renames over the file are seen as well.
type Watcher struct {
	path     string
	handler  Handler
	logger   *slog.Logger
	debounce time.Duration

	debounceMu sync.Mutex
	debouncer  *time.Timer
	fired      chan struct{}
}

// Option configures a Watcher
type Option func(*Watcher)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDebounce overrides DefaultDebounce
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New creates a watcher for path
func New(path string, handler Handler, opts ...Option) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		handler:  handler,
		logger:   slog.New(slog.DiscardHandler),
		debounce: DefaultDebounce,
		fired:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Fired signals after each handler run; used by callers that report progress
func (w *Watcher) Fired() <-chan struct{} {
	return w.fired
}

// Run blocks until ctx is cancelled or SIGINT/SIGTERM arrives. SIGHUP runs
// the handler immediately.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.logger.Info("watching settings", "path", w.path)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)
	defer w.stopDebounce()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				w.debounced()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				w.logger.Info("received SIGHUP, checking settings")
				w.run()
				continue
			}
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// relevant 只关心目标文件的写入、创建、重命名和删除
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0
}

func (w *Watcher) debounced() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debouncer != nil {
		w.debouncer.Stop()
	}
	w.debouncer = time.AfterFunc(w.debounce, w.run)
}

func (w *Watcher) stopDebounce() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()
	if w.debouncer != nil {
		w.debouncer.Stop()
	}
}

func (w *Watcher) run() {
	if err := w.handler(); err != nil {
		w.logger.Warn("settings change handler failed", "error", err)
	}
	select {
	case w.fired <- struct{}{}:
	default:
	}
}
