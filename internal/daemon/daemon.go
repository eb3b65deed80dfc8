// Package daemon implements labrunner's long-running mode: a bounded job
// queue with a worker pool, configured schedules, a file watcher with config
// reload, optional NATS event publishing, and an HTTP status surface.
package daemon

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"git.home.luguber.info/inful/labrunner/internal/config"
	"git.home.luguber.info/inful/labrunner/internal/errors"
	"git.home.luguber.info/inful/labrunner/internal/history"
	"git.home.luguber.info/inful/labrunner/internal/logfields"
	"git.home.luguber.info/inful/labrunner/internal/metrics"
	"git.home.luguber.info/inful/labrunner/internal/toolexec"
	"git.home.luguber.info/inful/labrunner/internal/vcs"
	"git.home.luguber.info/inful/labrunner/internal/version"
)

// State is the daemon lifecycle state.
type State string

const (
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
	StateStopped  State = "stopped"
)

// ShutdownGrace bounds how long Stop waits for components to drain.
const ShutdownGrace = 30 * time.Second

// Daemon owns the long-running components and their lifecycle.
type Daemon struct {
	mu         sync.RWMutex
	cfg        *config.Config
	state      State
	configPath string
	startTime  time.Time

	store      *history.SQLiteStore
	projection *history.Projection
	emitter    *history.Emitter
	publisher  *NATSPublisher
	queue      *Queue
	scheduler  *Scheduler
	watcher    *Watcher
	httpServer *Server
	recorder   *metrics.PrometheusRecorder
}

// New assembles a daemon from configuration. Nothing starts running until
// Start is called; New only opens the history store and the NATS connection
// so wiring failures surface before the process detaches into its loop.
func New(cfg *config.Config, configPath string) (*Daemon, error) {
	d := &Daemon{
		cfg:        cfg,
		state:      StateStarting,
		configPath: configPath,
		startTime:  time.Now(),
		recorder:   metrics.NewPrometheusRecorder(nil),
	}

	dbPath := cfg.Daemon.HistoryDB
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, errors.WorkspaceError("create history dir", err).WithContext("path", dir)
		}
	}
	store, err := history.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, err
	}
	d.store = store
	d.projection = history.NewProjection(store, 200)
	d.emitter = history.NewEmitter(store, d.projection)

	if cfg.Daemon.NATS != nil {
		publisher, err := NewNATSPublisher(cfg.Daemon.NATS)
		if err != nil {
			store.Close()
			return nil, err
		}
		d.publisher = publisher
		d.emitter = d.emitter.WithSink(publisher)
	}

	executor := &jobExecutor{
		exec:     toolexec.NewExecutor(),
		emitter:  d.emitter,
		recorder: d.recorder,
		version:  func() string { return vcs.VersionOrFallback(".") },
		config:   d.Config,
	}

	d.queue = NewQueue(cfg.Daemon.QueueSize, cfg.Daemon.Workers, executor).
		WithEmitter(d.emitter).
		WithRecorder(d.recorder)

	scheduler, err := NewScheduler(d.queue, d.recorder)
	if err != nil {
		d.closeConnections()
		return nil, err
	}
	if err := scheduler.Configure(cfg.Daemon.Schedules); err != nil {
		d.closeConnections()
		return nil, err
	}
	d.scheduler = scheduler

	watcher, err := NewWatcher(configPath, cfg.Daemon.Watch, d, d.queue)
	if err != nil {
		d.closeConnections()
		return nil, err
	}
	d.watcher = watcher

	d.httpServer = NewServer(cfg.Daemon.HTTPAddr, d)
	return d, nil
}

// Start brings all components up. The HTTP listener binds first so address
// conflicts abort startup before workers begin pulling jobs.
func (d *Daemon) Start(ctx context.Context) error {
	slog.Info("Starting daemon",
		slog.String("config", d.configPath),
		slog.String("http_addr", d.cfg.Daemon.HTTPAddr),
		slog.String("version", version.Version))

	if err := d.projection.Rebuild(ctx); err != nil {
		slog.Warn("Could not rebuild run history projection", logfields.Error(err))
	}

	if err := d.httpServer.Start(); err != nil {
		return err
	}

	d.queue.Start(ctx)
	d.scheduler.Start()
	if err := d.watcher.Start(ctx); err != nil {
		d.stopComponents(ctx)
		return err
	}

	d.setState(StateRunning)
	slog.Info("Daemon started",
		slog.Int("workers", d.queue.Workers()),
		slog.Int("queue_capacity", d.queue.Capacity()),
		slog.Int("schedules", len(d.cfg.Daemon.Schedules)))
	return nil
}

// Run starts the daemon and blocks until the context is canceled, then shuts
// down with a bounded grace period.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	slog.Info("Shutdown signal received")

	stopCtx, cancel := context.WithTimeout(context.Background(), ShutdownGrace)
	defer cancel()
	return d.Stop(stopCtx)
}

// Stop shuts components down in reverse start order.
func (d *Daemon) Stop(ctx context.Context) error {
	d.setState(StateStopping)
	err := d.stopComponents(ctx)
	d.closeConnections()
	d.setState(StateStopped)
	slog.Info("Daemon stopped")
	return err
}

func (d *Daemon) stopComponents(ctx context.Context) error {
	d.watcher.Stop()
	if err := d.scheduler.Stop(); err != nil {
		slog.Error("Scheduler shutdown failed", logfields.Error(err))
	}
	d.queue.Stop(ctx)
	return d.httpServer.Stop(ctx)
}

func (d *Daemon) closeConnections() {
	d.publisher.Close()
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			slog.Error("Failed to close history store", logfields.Error(err))
		}
	}
}

// Config returns the currently applied configuration.
func (d *Daemon) Config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// State returns the lifecycle state.
func (d *Daemon) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

func (d *Daemon) setState(state State) {
	d.mu.Lock()
	d.state = state
	d.mu.Unlock()
}

// Uptime returns how long the daemon has been up.
func (d *Daemon) Uptime() time.Duration {
	return time.Since(d.startTime)
}

// Version returns the binary version stamp.
func (d *Daemon) Version() string {
	return version.Version
}

// MetricsHandler exposes the Prometheus registry for /metrics.
func (d *Daemon) MetricsHandler() http.Handler {
	return d.recorder.HTTPHandler()
}

// Status builds the /api/status payload.
func (d *Daemon) Status() *StatusResponse {
	return &StatusResponse{
		Status:  string(d.State()),
		Version: d.Version(),
		Uptime:  d.Uptime().Round(time.Second).String(),
		Queue: QueueStatus{
			Length:   d.queue.Length(),
			Capacity: d.queue.Capacity(),
			Workers:  d.queue.Workers(),
		},
		ActiveJobs: d.queue.ActiveJobs(),
		RecentRuns: d.projection.Recent(20),
	}
}

// Enqueue hands a job to the queue. Exposed for the watcher and tests.
func (d *Daemon) Enqueue(ctx context.Context, job *Job) error {
	return d.queue.Enqueue(ctx, job)
}

// ReloadConfig re-reads the config file and swaps it in. Targets, sweeps,
// and watch-independent settings take effect on the next job; HTTP address,
// worker count, and schedule changes need a restart and only log a warning.
func (d *Daemon) ReloadConfig(ctx context.Context) error {
	newCfg, warnings, err := config.Prepare(d.configPath)
	if err != nil {
		return errors.Wrap(err, errors.CategoryConfig, errors.SeverityError, "config reload failed").
			WithContext("path", d.configPath)
	}
	for _, warning := range warnings {
		slog.Warn("Config normalization", slog.String("detail", warning))
	}

	current := d.Config()
	if newCfg.Daemon.HTTPAddr != current.Daemon.HTTPAddr {
		slog.Warn("HTTP address change requires a daemon restart",
			slog.String("current", current.Daemon.HTTPAddr),
			slog.String("new", newCfg.Daemon.HTTPAddr))
	}
	if newCfg.Daemon.Workers != current.Daemon.Workers || newCfg.Daemon.QueueSize != current.Daemon.QueueSize {
		slog.Warn("Worker pool changes require a daemon restart")
	}
	if !schedulesEqual(newCfg.Daemon.Schedules, current.Daemon.Schedules) {
		slog.Warn("Schedule changes require a daemon restart")
	}

	d.mu.Lock()
	d.cfg = newCfg
	d.mu.Unlock()

	slog.Info("Configuration reloaded", slog.String("path", d.configPath))
	return nil
}

func schedulesEqual(a, b []config.ScheduleConfig) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
