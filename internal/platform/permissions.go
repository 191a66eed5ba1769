package platform

import (
	"os"
	"runtime"
)

// ExecutableMode is the mode given to a resolved game executable.
const ExecutableMode os.FileMode = 0755

// Chmod sets file permissions. On Windows this is a no-op because Windows
// does not support Unix-style permission bits.
func Chmod(path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	return os.Chmod(path, mode)
}

// EnsureExecutable marks path as executable for everyone. Calling it on an
// already executable file is harmless.
func EnsureExecutable(path string) error {
	return Chmod(path, ExecutableMode)
}
