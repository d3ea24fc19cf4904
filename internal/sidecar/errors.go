package sidecar

import "errors"

// Executor errors.
var (
	// ErrEmptyCommand is returned when no sidecar executable is configured.
	ErrEmptyCommand = errors.New("sidecar command is empty")

	// ErrTimeout is returned when the sidecar exceeds its timeout.
	ErrTimeout = errors.New("sidecar timed out")
)
