//go:build !windows

package executor

import (
	"errors"
	"os/exec"
	"syscall"
)

// setProcessGroup starts the shell as the leader of a new process group,
// so the group id equals the shell's pid
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessGroup sends SIGKILL to every process in the shell's group.
// Signalling -pid still reaches backgrounded children after the shell
// itself has exited and been reaped.
func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	if errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}
