// Package pid keeps a single daemon instance per user session.
package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/mutker/battwarn/internal/errors"
)

const fileName = "battwarn.pid"

// DefaultPath returns the PID file location in the temporary directory.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), fileName)
}

// Write writes the current process ID to path. It fails with
// ErrAlreadyRunning if path names a live process other than this one.
// A stale or unreadable PID file is overwritten.
func Write(path string) error {
	errFactory := errors.New()
	self := os.Getpid()

	if running, ok := readPID(path); ok && running != self && alive(running) {
		return errFactory.WithData(errors.ErrAlreadyRunning, struct {
			PID  int
			Path string
		}{
			PID:  running,
			Path: path,
		})
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(self)), 0o600); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Remove removes the PID file at path. A missing file is not an error.
func Remove(path string) error {
	errFactory := errors.New()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

func readPID(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}

	return pid, true
}

func alive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	return process.Signal(syscall.Signal(0)) == nil
}
