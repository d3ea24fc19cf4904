package render

import (
	"strings"

	"icabridge/internal/csvdecode"

	"github.com/charmbracelet/lipgloss"
)

// Styles holds the table styles.
type Styles struct {
	Header lipgloss.Style
	Cell   lipgloss.Style
	Muted  lipgloss.Style
}

// DefaultStyles returns the styles used by the CLI.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A")),
		Cell:   lipgloss.NewStyle(),
		Muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280")),
	}
}

// Table renders result as an aligned text table with original header
// labels. An empty result renders as "(no rows)".
func Table(result *csvdecode.Result, styles Styles) string {
	if len(result.Rows) == 0 {
		return styles.Muted.Render("(no rows)") + "\n"
	}

	headers := make([]string, len(result.Headers))
	for i, h := range result.Headers {
		headers[i] = h.Original
		if headers[i] == "" {
			headers[i] = h.ID
		}
	}

	rows := make([][]string, len(result.Rows))
	for r, row := range result.Rows {
		cells := make([]string, len(result.Headers))
		for i, h := range result.Headers {
			// Multi-line cells would break the grid.
			cells[i] = strings.ReplaceAll(FormatValue(row[h.ID]), "\n", " ")
		}
		rows[r] = cells
	}

	// Calculate column widths
	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > colWidths[i] {
				colWidths[i] = w
			}
		}
	}

	// Width includes padding
	for i := range colWidths {
		colWidths[i] += 2
	}

	headerStyle := styles.Header.Padding(0, 1)
	cellStyle := styles.Cell.Padding(0, 1)
	sep := styles.Muted.Render("|")

	var sb strings.Builder

	for i, h := range headers {
		sb.WriteString(headerStyle.Width(colWidths[i]).Render(h))
		if i < len(headers)-1 {
			sb.WriteString(sep)
		}
	}
	sb.WriteString("\n")

	totalWidth := len(headers) - 1
	for _, w := range colWidths {
		totalWidth += w
	}
	sb.WriteString(styles.Muted.Render(strings.Repeat("-", totalWidth)) + "\n")

	for _, row := range rows {
		for i, cell := range row {
			sb.WriteString(cellStyle.Width(colWidths[i]).Render(cell))
			if i < len(row)-1 {
				sb.WriteString(sep)
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
