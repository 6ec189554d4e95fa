package cli

import (
	"errors"
	"fmt"
)

// ExitError carries the process exit code out of a command.
//
// Commands return it from RunE after they have already reported the problem
// (a failed panel task, an invalid rotation) so that [RunWithConfig] can exit
// with the code without printing the error a second time. Tests assert on
// the code instead of a terminated process.
type ExitError struct {
	// Code is the exit code: 1 for a failed task or invalid rotation.
	Code int
}

// Error returns "exit status N", matching os/exec.
func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// NewExitError creates an [ExitError] with the given code.
//
//	if !out.Succeeded() {
//	    return NewExitError(1)
//	}
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

// IsExitError reports whether err is, or wraps, an [ExitError] and returns
// its code.
func IsExitError(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
