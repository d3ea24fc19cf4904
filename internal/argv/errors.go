package argv

import "errors"

// Normalizer errors.
var (
	// ErrMissingContact is returned when no contact flag is present and no
	// contacts were supplied. Callers recover by choosing a contact and
	// invoking again.
	ErrMissingContact = errors.New("no contacts selected: choose at least one contact before running the analyzer")

	// ErrTokenize is returned when an argument line cannot be split.
	ErrTokenize = errors.New("cannot tokenize arguments")
)
