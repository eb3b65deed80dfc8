// Package toolexec runs external tools as child processes. Output streams
// through to the parent unless redirected, failures carry the tool's exit
// code, and cancellation tears down the whole process group.
package toolexec

import (
	"context"
	"io"
	"os"
	"os/exec"
	"sort"
	"time"

	"git.home.luguber.info/inful/labrunner/internal/errors"
)

// DefaultGrace is how long a canceled tool gets between SIGTERM and SIGKILL.
const DefaultGrace = 5 * time.Second

// Command describes one tool invocation.
type Command struct {
	Argv []string
	Dir  string
	Env  map[string]string // Merged over the parent environment
}

// Result reports how an invocation finished.
type Result struct {
	ExitCode int
	Duration time.Duration
}

// Executor runs commands. The OS implementation is the production one; tests
// substitute fakes.
type Executor interface {
	Run(ctx context.Context, cmd Command, opts Options) (Result, error)
}

// Options tunes a single run.
type Options struct {
	Stdout io.Writer // Defaults to os.Stdout
	Stderr io.Writer // Defaults to os.Stderr
	Grace  time.Duration
}

// OSExecutor runs commands as real child processes.
type OSExecutor struct{}

// NewExecutor returns the production executor.
func NewExecutor() *OSExecutor {
	return &OSExecutor{}
}

// LookupTool resolves a tool name on PATH.
func LookupTool(name string) (string, error) {
	return exec.LookPath(name)
}

// Run executes the command and waits for completion. A missing tool, a
// non-zero exit, and cancellation each map to distinct error categories.
func (e *OSExecutor) Run(ctx context.Context, command Command, opts Options) (Result, error) {
	start := time.Now()

	tool := command.Argv[0]
	path, err := exec.LookPath(tool)
	if err != nil {
		return Result{ExitCode: -1}, errors.ToolNotFound(tool)
	}

	grace := opts.Grace
	if grace <= 0 {
		grace = DefaultGrace
	}

	cmd := exec.CommandContext(ctx, path, command.Argv[1:]...)
	cmd.Dir = command.Dir
	cmd.Env = mergeEnv(command.Env)
	cmd.Stdout = opts.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = opts.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	setProcessGroup(cmd)
	cmd.WaitDelay = grace
	cmd.Cancel = func() error {
		return terminateGroup(cmd.Process.Pid)
	}

	err = cmd.Run()
	result := Result{Duration: time.Since(start)}

	if err == nil {
		return result, nil
	}

	if ctx.Err() != nil {
		// Sweep any children that detached from the killed leader.
		if cmd.Process != nil {
			killGroup(cmd.Process.Pid)
		}
		result.ExitCode = -1
		return result, errors.Wrap(ctx.Err(), errors.CategoryRuntime, errors.SeverityWarning, "command canceled").
			WithContext("tool", tool)
	}

	if exitErr, ok := err.(*exec.ExitError); ok {
		result.ExitCode = exitErr.ExitCode()
		return result, errors.ToolFailed(tool, result.ExitCode, err)
	}

	result.ExitCode = -1
	return result, errors.Wrap(err, errors.CategoryTool, errors.SeverityError, "tool could not be started").
		WithContext("tool", tool)
}

// mergeEnv layers extra variables over the parent environment with
// deterministic ordering for the extras.
func mergeEnv(extra map[string]string) []string {
	if len(extra) == 0 {
		return nil // exec uses the parent environment
	}

	env := os.Environ()
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}
	return env
}
