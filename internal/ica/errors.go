package ica

import (
	"fmt"

	"icabridge/internal/sidecar"
)

// ToolFailureError is returned when the sidecar exits with a non-zero code.
type ToolFailureError struct {
	Code   *int
	Signal string
	Stderr string
	Stdout string
}

func newToolFailure(res *sidecar.Result, stdout, stderr string) *ToolFailureError {
	return &ToolFailureError{Code: res.Code, Signal: res.Signal, Stdout: stdout, Stderr: stderr}
}

// Error prefers stderr, then stdout, then a generic exit message.
func (e *ToolFailureError) Error() string {
	if e.Stderr != "" {
		return e.Stderr
	}
	if e.Stdout != "" {
		return e.Stdout
	}
	code := "unknown"
	if e.Code != nil {
		code = fmt.Sprint(*e.Code)
	}
	return fmt.Sprintf("ica exited with code %s", code)
}
