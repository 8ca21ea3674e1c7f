package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/skeletrack/skeletrack/pkg/logger"
)

// DefaultDebounce is how long the file must stay quiet before a reload
const DefaultDebounce = 500 * time.Millisecond

// ErrConfigRemoved is reported to callbacks when the watched file goes away
var ErrConfigRemoved = errors.New("configuration file removed")

// ReloadCallback is called after a reload attempt. Exactly one of cfg and
// err is set.
type ReloadCallback func(cfg *Config, err error)

// ReloaderOption configures a Reloader
type ReloaderOption func(*Reloader)

// WithDebounce overrides DefaultDebounce
func WithDebounce(d time.Duration) ReloaderOption {
	return func(r *Reloader) {
		r.debounce = d
	}
}

// Reloader re-reads a configuration file whenever it changes on disk and
// hands the result to its callbacks. Only settings that are safe to change
// during a session are meant to be applied from a reload.
type Reloader struct {
	path     string
	logger   logger.Logger
	debounce time.Duration

	mu        sync.Mutex
	callbacks []ReloadCallback
	modTime   time.Time
	timer     *time.Timer
	watcher   *fsnotify.Watcher
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewReloader creates a reloader for the file at path. Nothing is watched
// until Start.
func NewReloader(path string, log logger.Logger, opts ...ReloaderOption) *Reloader {
	r := &Reloader{
		path:     path,
		logger:   log.WithTarget("config"),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Path returns the watched file
func (r *Reloader) Path() string {
	return r.path
}

// OnReload registers a callback. Callbacks run in registration order on the
// reloader's goroutine.
func (r *Reloader) OnReload(cb ReloadCallback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = append(r.callbacks, cb)
}

// Start begins watching. The parent directory is watched rather than the
// file, since editors commonly save by replacing the file.
func (r *Reloader) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.watcher != nil {
		return fmt.Errorf("already watching %s", r.path)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(r.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	if info, err := os.Stat(r.path); err == nil {
		r.modTime = info.ModTime()
	}
	r.watcher = watcher
	r.done = make(chan struct{})

	r.wg.Add(1)
	go r.watch(watcher, r.done)

	r.logger.Debug("Watching configuration file", logger.WithField("path", r.path))
	return nil
}

// Stop ends watching and waits for the watch goroutine. A reload already
// scheduled is cancelled.
func (r *Reloader) Stop() {
	r.mu.Lock()
	watcher := r.watcher
	if watcher == nil {
		r.mu.Unlock()
		return
	}
	r.watcher = nil
	close(r.done)
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.mu.Unlock()

	if err := watcher.Close(); err != nil {
		r.logger.Warn("Error closing file watcher", logger.WithField("error", err))
	}
	r.wg.Wait()
}

// Watching reports whether Start has been called without a matching Stop
func (r *Reloader) Watching() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.watcher != nil
}

// Reload loads the file now, whether or not it changed, and runs the
// callbacks.
func (r *Reloader) Reload() {
	cfg, err := NewManager().LoadConfig(r.path)
	if err != nil {
		r.logger.Error("Failed to reload configuration", logger.WithField("error", err))
		r.dispatch(nil, err)
		return
	}

	r.logger.Info("Configuration reloaded", logger.WithField("log_level", cfg.Log.Level))
	r.dispatch(cfg, nil)
}

func (r *Reloader) watch(watcher *fsnotify.Watcher, done <-chan struct{}) {
	defer r.wg.Done()

	for {
		select {
		case <-done:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !r.concerns(event.Name) {
				continue
			}
			r.logger.Debug("Configuration file event", logger.WithField("event", event.String()))

			if filepath.Clean(event.Name) == filepath.Clean(r.path) && event.Has(fsnotify.Remove) {
				r.dispatch(nil, fmt.Errorf("%w: %s", ErrConfigRemoved, r.path))
				continue
			}
			r.schedule()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			r.logger.Error("Configuration watcher error", logger.WithField("error", err))
			r.dispatch(nil, err)
		}
	}
}

// concerns reports whether an event under the watched directory is about the
// config file or one of the temporary files editors write next to it.
func (r *Reloader) concerns(name string) bool {
	base := filepath.Base(r.path)
	eventBase := filepath.Base(name)

	if eventBase == base {
		return true
	}
	return strings.HasPrefix(eventBase, base) ||
		strings.HasPrefix(eventBase, "."+base)
}

// schedule arms the debounce timer, restarting it if an edit is still in
// progress.
func (r *Reloader) schedule() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.watcher == nil {
		return
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, r.reloadIfChanged)
}

func (r *Reloader) reloadIfChanged() {
	info, err := os.Stat(r.path)
	if err != nil {
		r.dispatch(nil, fmt.Errorf("%w: %w", ErrConfigRemoved, err))
		return
	}

	r.mu.Lock()
	if !info.ModTime().After(r.modTime) {
		r.mu.Unlock()
		r.logger.Debug("Configuration file unchanged, skipping reload")
		return
	}
	r.modTime = info.ModTime()
	r.mu.Unlock()

	r.Reload()
}

func (r *Reloader) dispatch(cfg *Config, err error) {
	r.mu.Lock()
	callbacks := make([]ReloadCallback, len(r.callbacks))
	copy(callbacks, r.callbacks)
	r.mu.Unlock()

	for _, cb := range callbacks {
		r.call(cb, cfg, err)
	}
}

func (r *Reloader) call(cb ReloadCallback, cfg *Config, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Reload callback panic recovered", logger.WithField("panic", p))
		}
	}()
	cb(cfg, err)
}

// ApplyLogLevel returns a callback that moves log to the reloaded log
// level. Loggers that cannot change level are left alone.
func ApplyLogLevel(log logger.Logger) ReloadCallback {
	return func(cfg *Config, err error) {
		if err != nil {
			return
		}
		setter, ok := log.(logger.LevelSetter)
		if !ok {
			return
		}
		if err := setter.SetLevel(cfg.Log.Level); err != nil {
			log.Warn("Ignoring reloaded log level", logger.WithField("error", err))
			return
		}
		log.Debug("Log level changed", logger.WithField("level", cfg.Log.Level))
	}
}
