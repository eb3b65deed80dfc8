package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyJobID      = "job_id"
	KeyJobType    = "job_type"
	KeyJobStatus  = "job_status"
	KeyTarget     = "target"
	KeySweep      = "sweep"
	KeyRun        = "run"
	KeyRunID      = "run_id"
	KeyExperiment = "experiment"
	KeyBackend    = "backend"
	KeyTool       = "tool"
	KeyStep       = "step"
	KeyDevice     = "device"
	KeyExitCode   = "exit_code"
	KeyDurationMS = "duration_ms"
	KeySchedule   = "schedule_name"
	KeyWorker     = "worker"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyRule       = "rule"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func JobID(id string) slog.Attr       { return slog.String(KeyJobID, id) }
func JobType(t string) slog.Attr      { return slog.String(KeyJobType, t) }
func JobStatus(s string) slog.Attr    { return slog.String(KeyJobStatus, s) }
func Target(name string) slog.Attr    { return slog.String(KeyTarget, name) }
func Sweep(name string) slog.Attr     { return slog.String(KeySweep, name) }
func Run(name string) slog.Attr       { return slog.String(KeyRun, name) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Experiment(name string) slog.Attr { return slog.String(KeyExperiment, name) }
func Backend(name string) slog.Attr   { return slog.String(KeyBackend, name) }
func Tool(name string) slog.Attr      { return slog.String(KeyTool, name) }
func Step(raw string) slog.Attr       { return slog.String(KeyStep, raw) }
func Device(id int) slog.Attr         { return slog.Int(KeyDevice, id) }
func ExitCode(code int) slog.Attr     { return slog.Int(KeyExitCode, code) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func ScheduleName(n string) slog.Attr { return slog.String(KeySchedule, n) }
func Worker(id string) slog.Attr      { return slog.String(KeyWorker, id) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Rule(r string) slog.Attr         { return slog.String(KeyRule, r) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func UserAgent(ua string) slog.Attr   { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func Error(err error) slog.Attr {
	if err == nil { return slog.String(KeyError, "") }
	return slog.String(KeyError, err.Error())
}
