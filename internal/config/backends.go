package config

import "strings"

// SweepBackend enumerates supported sweep execution backends.
type SweepBackend string

const (
	BackendProcesses SweepBackend = "processes"
	BackendSlurm     SweepBackend = "slurm"
)

// NormalizeSweepBackend canonicalizes a raw backend string. Returns "" for unknown values.
func NormalizeSweepBackend(raw string) SweepBackend {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "processes", "process", "local":
		return BackendProcesses
	case "slurm", "sbatch":
		return BackendSlurm
	}
	return ""
}
