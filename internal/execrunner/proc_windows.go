//go:build windows

package execrunner

import (
	"os/exec"
	"syscall"
)

// configureProcAttr starts the child in a new process group. Cancellation
// still terminates only the child process itself (see killProcessGroup).
func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// killProcessGroup terminates the child process. Windows has no direct
// analogue of POSIX process-group signaling from this package without
// additional syscalls, so this falls back to killing the process itself;
// children it spawned are not separately reaped.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
