//go:build windows

package toolexec

import (
	"os"
	"os/exec"
)

// Process groups are a POSIX concept; on Windows the executor falls back to
// killing the direct child only.
func setProcessGroup(_ *exec.Cmd) {}

func terminateGroup(pid int) error {
	return killPid(pid)
}

func killGroup(pid int) {
	_ = killPid(pid)
}

func killPid(pid int) error {
	if pid <= 0 {
		return nil
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	return proc.Kill()
}
