// Package analyzers lists the analyzers the ica tool ships with and resolves
// user input to an analyzer argument.
package analyzers

import "strings"

// Category groups analyzers in listings.
type Category string

const (
	// CategoryTotals covers count summaries.
	CategoryTotals Category = "totals"

	// CategoryContent covers analyzers that look at message text.
	CategoryContent Category = "content"

	// CategoryExport covers raw data dumps and custom queries.
	CategoryExport Category = "export"
)

// Analyzer describes one analyzer the sidecar can run.
type Analyzer struct {
	// Name is passed as the first sidecar argument.
	Name string

	Description string
	Category    Category

	// Path is set for analyzers resolved from a file instead of the
	// built-in list.
	Path string
}

// Validate checks that the analyzer can be registered.
func (a *Analyzer) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrAnalyzerNameEmpty
	}
	return nil
}

// Arg is the sidecar argument that selects this analyzer.
func (a *Analyzer) Arg() string {
	if a.Path != "" {
		return a.Path
	}
	return a.Name
}
