package daemon

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/labrunner/internal/config"
	"git.home.luguber.info/inful/labrunner/internal/errors"
	"git.home.luguber.info/inful/labrunner/internal/logfields"
)

// Reloader applies a configuration reload. Implemented by Daemon.
type Reloader interface {
	ReloadConfig(ctx context.Context) error
}

// Watcher monitors the configuration file and, when enabled, source paths.
// Config changes trigger a reload; source changes enqueue the configured
// target. Both are debounced so editor write bursts collapse into one action.
type Watcher struct {
	configPath string
	watch      config.WatchConfig
	reloader   Reloader
	enqueuer   Enqueuer
	watcher    *fsnotify.Watcher
	mu         sync.Mutex
	stopChan   chan struct{}
	reloadChan chan struct{}
	buildChan  chan struct{}
	debounce   time.Duration
}

// NewWatcher creates a watcher for the given config file and watch settings.
func NewWatcher(configPath string, watch config.WatchConfig, reloader Reloader, enqueuer Enqueuer) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryDaemon, errors.SeverityFatal, "failed to create file watcher")
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		fsw.Close()
		return nil, errors.Wrap(err, errors.CategoryDaemon, errors.SeverityFatal, "failed to resolve config path").
			WithContext("path", configPath)
	}

	debounce := 2 * time.Second
	if watch.Debounce != "" {
		d, err := time.ParseDuration(watch.Debounce)
		if err != nil {
			fsw.Close()
			return nil, errors.Wrap(err, errors.CategoryValidation, errors.SeverityFatal, "invalid watch debounce").
				WithContext("debounce", watch.Debounce)
		}
		debounce = d
	}

	return &Watcher{
		configPath: absPath,
		watch:      watch,
		reloader:   reloader,
		enqueuer:   enqueuer,
		watcher:    fsw,
		stopChan:   make(chan struct{}),
		reloadChan: make(chan struct{}, 1),
		buildChan:  make(chan struct{}, 1),
		debounce:   debounce,
	}, nil
}

// Start begins monitoring. The config file is watched through its directory,
// which survives editors that replace the file on save.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	configDir := filepath.Dir(w.configPath)
	if err := w.watcher.Add(configDir); err != nil {
		return errors.Wrap(err, errors.CategoryDaemon, errors.SeverityFatal, "failed to watch config directory").
			WithContext("path", configDir)
	}

	if w.watch.Enabled {
		for _, path := range w.watch.Paths {
			if err := w.watcher.Add(path); err != nil {
				return errors.Wrap(err, errors.CategoryDaemon, errors.SeverityFatal, "failed to watch path").
					WithContext("path", path)
			}
			slog.Info("Watching path", logfields.Path(path), logfields.Target(w.watch.Target))
		}
	}

	slog.Info("Starting file watcher", slog.String("config_path", w.configPath))

	go w.watchLoop(ctx)
	go w.triggerLoop(ctx)

	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	slog.Info("Stopping file watcher")
	close(w.stopChan)
	if err := w.watcher.Close(); err != nil {
		slog.Error("Error closing file watcher", logfields.Error(err))
	}
}

// watchLoop classifies filesystem events into reload and build triggers.
func (w *Watcher) watchLoop(ctx context.Context) {
	configFile := filepath.Base(w.configPath)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) == configFile {
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					slog.Debug("Config file change detected", logfields.File(event.Name))
					trigger(w.reloadChan)
				} else if event.Op&fsnotify.Remove != 0 {
					slog.Warn("Config file removed", logfields.File(event.Name))
				}
				continue
			}

			if w.watch.Enabled && isSourceEvent(event) {
				slog.Debug("Source change detected", logfields.File(event.Name))
				trigger(w.buildChan)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", logfields.Error(err))
		}
	}
}

// isSourceEvent filters events that should trigger the watch target. Editor
// backup files and hidden files do not count as source changes.
func isSourceEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	return true
}

// triggerLoop debounces reload and build triggers independently.
func (w *Watcher) triggerLoop(ctx context.Context) {
	var reloadTimer, buildTimer *time.Timer
	stopTimers := func() {
		if reloadTimer != nil {
			reloadTimer.Stop()
		}
		if buildTimer != nil {
			buildTimer.Stop()
		}
	}

	for {
		select {
		case <-ctx.Done():
			stopTimers()
			return
		case <-w.stopChan:
			stopTimers()
			return
		case <-w.reloadChan:
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(w.debounce, func() {
				if err := w.reloader.ReloadConfig(ctx); err != nil {
					slog.Error("Failed to reload configuration", logfields.Error(err))
				}
			})
		case <-w.buildChan:
			if buildTimer != nil {
				buildTimer.Stop()
			}
			buildTimer = time.AfterFunc(w.debounce, func() {
				w.fireWatchTarget(ctx)
			})
		}
	}
}

// fireWatchTarget enqueues the configured target after a debounced source
// change.
func (w *Watcher) fireWatchTarget(ctx context.Context) {
	job := NewJob(JobTarget, w.watch.Target, "watch")
	slog.Info("Source change triggered target",
		logfields.Target(w.watch.Target),
		logfields.JobID(job.ID))

	if err := w.enqueuer.Enqueue(ctx, job); err != nil {
		slog.Error("Failed to enqueue watch target", logfields.Target(w.watch.Target), logfields.Error(err))
	}
}

// trigger sets a pending signal without blocking when one is already pending.
func trigger(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
