package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce coalesces the event bursts editors produce when
// saving a file.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads a config file when it changes on disk. Each change is
// debounced, then the file is re-read and re-validated: good configs
// arrive on Events, broken ones on Errors while the consumer keeps
// running with its previous config.
type Watcher struct {
	path     string
	debounce time.Duration
	fsw      *fsnotify.Watcher
	events   chan *Config
	errs     chan error
	done     chan struct{}
	logger   zerolog.Logger

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

// NewWatcher watches the config file at path. A non-positive debounce
// selects DefaultDebounce.
//
// The file's directory is watched rather than the file itself, because
// editors that save via rename would otherwise silently detach the
// watch.
func NewWatcher(path string, debounce time.Duration, logger zerolog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path %s: %w", path, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("starting config watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:     abs,
		debounce: debounce,
		fsw:      fsw,
		events:   make(chan *Config, 1),
		errs:     make(chan error, 4),
		done:     make(chan struct{}),
		logger:   logger,
	}
	go w.run()
	return w, nil
}

// Events delivers each successfully reloaded config.
func (w *Watcher) Events() <-chan *Config { return w.events }

// Errors delivers reload failures: unreadable files, YAML errors,
// validation errors.
func (w *Watcher) Errors() <-chan error { return w.errs }

// Close stops watching and closes both channels. Safe to call twice.
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

	err := w.fsw.Close()
	close(w.done)
	close(w.events)
	close(w.errs)
	return err
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			w.logger.Debug().Str("op", ev.Op.String()).Msg("config file changed")
			w.schedule()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.emitError(fmt.Errorf("config watcher: %w", err))
		case <-w.done:
			return
		}
	}
}

// schedule arms the debounce timer, restarting it if a previous change
// is still pending so a save burst reloads once.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if w.timer == nil {
		w.timer = time.AfterFunc(w.debounce, w.reload)
		return
	}
	w.timer.Reset(w.debounce)
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn().Err(err).Msg("config reload failed, keeping previous config")
		w.emitError(err)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	// Latest wins: replace an unconsumed config rather than queue up.
	select {
	case <-w.events:
	default:
	}
	w.events <- cfg
	w.logger.Info().Str("path", w.path).Msg("config reloaded")
}

func (w *Watcher) emitError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.errs <- err:
	default:
		w.logger.Warn().Err(err).Msg("config watcher error dropped, consumer not reading")
	}
}
