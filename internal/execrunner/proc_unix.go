//go:build !windows

package execrunner

import (
	"os/exec"
	"syscall"
)

// configureProcAttr puts the child in its own process group so that killing
// it also reaps any grandchildren it spawned.
func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessGroup sends SIGKILL to the child's process group, falling back
// to killing the child directly if the group signal fails (e.g. the child
// exited before Setpgid could take effect).
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	pid := cmd.Process.Pid
	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil {
		_ = syscall.Kill(pid, syscall.SIGKILL)
	}
}
