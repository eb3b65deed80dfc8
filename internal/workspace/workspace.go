package workspace

import (
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/labrunner/internal/config"
	"git.home.luguber.info/inful/labrunner/internal/errors"
	"git.home.luguber.info/inful/labrunner/internal/logfields"
)

// RunLogName is the file each run's combined output is written to.
const RunLogName = "run.log"

// Manager handles the directories labrunner writes to.
type Manager struct {
	runsDir string
	dataDir string
}

// NewManager creates a manager over explicit directories.
func NewManager(runsDir, dataDir string) *Manager {
	return &Manager{runsDir: runsDir, dataDir: dataDir}
}

// ForConfig derives the manager from configuration.
func ForConfig(cfg *config.Config) *Manager {
	return NewManager(cfg.Project.RunsDir, cfg.Daemon.DataDir)
}

// RunsDir returns the root directory for sweep runs.
func (m *Manager) RunsDir() string { return m.runsDir }

// DataDir returns the daemon state directory.
func (m *Manager) DataDir() string { return m.dataDir }

// EnsureRunDir creates and returns the working directory for one run.
func (m *Manager) EnsureRunDir(sweepName, runName string) (string, error) {
	dir := filepath.Join(m.runsDir, sweepName, runName)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", errors.WorkspaceError("create run directory", err).
			WithContext("path", dir)
	}
	return dir, nil
}

// OpenRunLog opens (truncating) the log file capturing a run's output. The
// run directory is created if needed.
func (m *Manager) OpenRunLog(sweepName, runName string) (*os.File, error) {
	dir, err := m.EnsureRunDir(sweepName, runName)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, RunLogName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return nil, errors.WorkspaceError("open run log", err).
			WithContext("path", path)
	}
	return f, nil
}

// EnsureDataDir creates the daemon state directory.
func (m *Manager) EnsureDataDir() error {
	if err := os.MkdirAll(m.dataDir, 0o750); err != nil {
		return errors.WorkspaceError("create data directory", err).
			WithContext("path", m.dataDir)
	}
	return nil
}

// HistoryDBPath resolves the history database location. An absolute filename
// wins over the data dir.
func (m *Manager) HistoryDBPath(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(m.dataDir, filename)
}

// CleanSweep removes every run directory of one sweep.
func (m *Manager) CleanSweep(sweepName string) error {
	dir := filepath.Join(m.runsDir, sweepName)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return errors.WorkspaceError("remove sweep runs", err).
			WithContext("path", dir)
	}
	slog.Info("Removed sweep runs", logfields.Sweep(sweepName), logfields.Path(dir))
	return nil
}

// ListSweeps returns the sweep names that have runs on disk.
func (m *Manager) ListSweeps() ([]string, error) {
	entries, err := os.ReadDir(m.runsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WorkspaceError("read runs directory", err).
			WithContext("path", m.runsDir)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// ListRuns returns the run directory names recorded for one sweep.
func (m *Manager) ListRuns(sweepName string) ([]string, error) {
	dir := filepath.Join(m.runsDir, sweepName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WorkspaceError("read sweep directory", err).
			WithContext("path", dir)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
