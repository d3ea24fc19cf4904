package analyzers

import "errors"

// Analyzer registry errors.
var (
	// ErrAnalyzerNotFound is returned when a name is neither registered nor
	// an analyzer path.
	ErrAnalyzerNotFound = errors.New("analyzer not found")

	// ErrAnalyzerNameEmpty is returned when an analyzer has no name.
	ErrAnalyzerNameEmpty = errors.New("analyzer name cannot be empty")

	// ErrAnalyzerExists is returned when registering a duplicate.
	ErrAnalyzerExists = errors.New("analyzer already registered")
)
