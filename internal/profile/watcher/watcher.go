// Package watcher hot-reloads the active profile when its file
// changes.
//
// A failed reload keeps the prior profile in force; the watcher only
// reports the error and waits for the next change.
package watcher

import (
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/nyxhci/nyx/internal/profile"
	"github.com/nyxhci/nyx/internal/profile/loader"
)

// ErrWatcherClosed is returned by Start after Close.
var ErrWatcherClosed = errors.New("watcher: closed")

// DefaultDebounce coalesces the burst of write events editors emit
// when saving a file.
const DefaultDebounce = 250 * time.Millisecond

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the reload debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(w *Watcher) { w.log = log }
}

// Watcher reloads a profile runtime from one profile file.
type Watcher struct {
	path     string
	runtime  *profile.Runtime
	debounce time.Duration
	log      *zap.Logger

	fsw     *fsnotify.Watcher
	closeCh chan struct{}
	wg      sync.WaitGroup
	closed  atomic.Bool

	reloads  atomic.Uint64
	failures atomic.Uint64
}

// New creates a watcher for the profile file at path, reloading into
// runtime on change. The containing directory is watched so the
// rename-and-replace save pattern is caught.
func New(path string, runtime *profile.Runtime, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     abs,
		runtime:  runtime,
		debounce: DefaultDebounce,
		log:      zap.NewNop(),
		fsw:      fsw,
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Start runs the watch loop until Close.
func (w *Watcher) Start() error {
	if w.closed.Load() {
		return ErrWatcherClosed
	}
	w.wg.Add(1)
	go w.loop()
	return nil
}

// Close stops the watch loop and releases the OS watch.
func (w *Watcher) Close() error {
	if w.closed.Swap(true) {
		return nil
	}
	close(w.closeCh)
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

// Reloads returns the number of successful reloads.
func (w *Watcher) Reloads() uint64 { return w.reloads.Load() }

// Failures returns the number of reload attempts that kept the prior
// profile.
func (w *Watcher) Failures() uint64 { return w.failures.Load() }

func (w *Watcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.closeCh:
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Name != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("profile watch error", zap.Error(err))
		case <-fire:
			timer = nil
			fire = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	doc, err := loader.Load(w.path)
	if err != nil {
		w.failures.Add(1)
		w.log.Warn("profile reload failed, keeping active profile",
			zap.String("path", w.path), zap.Error(err))
		return
	}
	verrs := w.runtime.Reload(doc)
	w.reloads.Add(1)
	w.log.Info("profile reloaded",
		zap.String("profile", doc.ProfileName),
		zap.Int("skipped_entries", len(verrs)))
}
