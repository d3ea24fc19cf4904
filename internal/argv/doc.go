// Package argv normalizes the argument list handed to the ica sidecar.
//
// Callers supply arguments either as a shell-like line or as a pre-split
// list. The pipeline expands combined flags (-cJane, --format=md), injects
// the selected contacts when no contact flag is present, and forces the
// terminal flags the decoder depends on:
//
//	Tokenize → ExpandCombined → EnsureContact → EnsureFormat → EnsureOutput
//
// Every step is a pure function over a token slice and never modifies its
// input.
package argv
