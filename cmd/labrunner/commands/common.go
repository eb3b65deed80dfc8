package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/labrunner/internal/config"
	"git.home.luguber.info/inful/labrunner/internal/history"
	"git.home.luguber.info/inful/labrunner/internal/logfields"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"labrunner.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init    InitCmd    `cmd:"" help:"Write a starter configuration file"`
	Run     RunCmd     `cmd:"" help:"Run recipe targets in dependency order"`
	Sweep   SweepCmd   `cmd:"" help:"Expand a parameter sweep and launch its runs"`
	Docs    DocsCmd    `cmd:"" help:"Check, build, serve, and verify the docs site"`
	List    ListCmd    `cmd:"" help:"List configured targets and sweeps"`
	History HistoryCmd `cmd:"" help:"Show recent runs or the events of one run"`
	Daemon  DaemonCmd  `cmd:"" help:"Run continuously: schedules, watch paths, status API"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig prepares the configuration and applies its logging section.
func loadConfig(root *CLI) (*config.Config, error) {
	cfg, warnings, err := config.Prepare(root.Config)
	if err != nil {
		return nil, err
	}
	for _, warning := range warnings {
		slog.Warn("Config normalization", slog.String("detail", warning))
	}
	applyLogging(cfg, root.Verbose)
	return cfg, nil
}

// applyLogging reconfigures the default logger from the config's logging
// section. The -v flag always wins over the configured level.
func applyLogging(cfg *config.Config, verbose bool) {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case config.LogLevelDebug:
		level = slog.LevelDebug
	case config.LogLevelWarn:
		level = slog.LevelWarn
	case config.LogLevelError:
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.Logging.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// openHistory opens the run history store so one-shot runs show up in
// `labrunner history`. Failures only log: a sweep still runs without history.
func openHistory(cfg *config.Config) (*history.SQLiteStore, *history.Emitter) {
	path := cfg.Daemon.HistoryDB
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			slog.Warn("Run history disabled", logfields.Error(err))
			return nil, nil
		}
	}

	store, err := history.NewSQLiteStore(path)
	if err != nil {
		slog.Warn("Run history disabled", logfields.Error(err))
		return nil, nil
	}
	return store, history.NewEmitter(store, nil)
}
