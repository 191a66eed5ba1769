//go:build !windows

package platform

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// ExecutableExtensions lists the native executable suffixes tried after a
// bare candidate name.
var ExecutableExtensions = []string{".x86_64", ".bin"}

// IsExecutable reports whether the current user may execute path.
func IsExecutable(path string) bool {
	return unix.Access(path, unix.X_OK) == nil
}

// Detach starts cmd in its own process group so terminal signals aimed at
// the launcher do not reach the game.
func Detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// Kill terminates the process group started by Detach, falling back to the
// single process when the group cannot be signalled.
func Kill(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	if err := unix.Kill(-cmd.Process.Pid, unix.SIGKILL); err == nil {
		return nil
	}
	return cmd.Process.Kill()
}
