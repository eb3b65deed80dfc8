//go:build unix

package toolexec

import (
	"os/exec"
	"syscall"
)

// setProcessGroup makes the child lead a new process group so that signals
// reach grandchildren spawned by wrapper scripts.
func setProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// terminateGroup asks the whole group to stop. The executor's WaitDelay
// escalates to SIGKILL for the leader if it ignores this.
func terminateGroup(pid int) error {
	if pid <= 0 {
		return nil
	}
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil && err != syscall.ESRCH {
		return err
	}
	return nil
}

// killGroup forcefully reaps whatever is left of the group.
func killGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
