package runner

import (
	"errors"
	"os/exec"
)

// exitCode extracts a process exit code from a Wait error: (code, nil)
// for an ExitError, (0, err) for any other error, (0, nil) for nil.
func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 0, err
}
