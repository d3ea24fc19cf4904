// Package csvdecode turns the CSV printed by the ica sidecar into typed
// records keyed by stable, machine-safe column identifiers.
package csvdecode

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// Header pairs a column label with its derived identifier.
type Header struct {
	Original string `json:"original"`
	ID       string `json:"id"`
}

// Record maps header identifiers to typed cell values.
type Record map[string]any

// Result is the decoded table. Headers holds surviving columns only, in
// first-occurrence order of their labels.
type Result struct {
	Headers []Header `json:"headers"`
	Rows    []Record `json:"rows"`
}

// IDs returns the header identifiers in column order.
func (r *Result) IDs() []string {
	ids := make([]string, len(r.Headers))
	for i, h := range r.Headers {
		ids[i] = h.ID
	}
	return ids
}

// Decode parses raw CSV text. Columns sharing a label are collapsed to the
// first one that carries any data.
func Decode(raw string) (*Result, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
	if raw == "" {
		return nil, ErrEmptyResult
	}

	headers, rows, err := parse(raw)
	if err != nil {
		return nil, err
	}

	headers = dropDuplicates(headers, rows)

	if len(headers) == 0 && len(rows) == 0 {
		return nil, ErrEmptyResult
	}
	return &Result{Headers: headers, Rows: rows}, nil
}

// parse reads the header row and all data rows, assigning unique ids and
// typing every cell.
func parse(raw string) ([]Header, []Record, error) {
	reader := csv.NewReader(strings.NewReader(raw))

	labels, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, ErrEmptyResult
		}
		return nil, nil, newParseError(err, -1)
	}

	ids := make(idSet, len(labels))
	headers := make([]Header, len(labels))
	for i, label := range labels {
		headers[i] = Header{Original: label, ID: ids.claim(ToIdentifier(label, i))}
	}

	rows := []Record{}
	for index := 0; ; index++ {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, newParseError(err, index)
		}

		record := make(Record, len(headers))
		for i, cell := range cells {
			record[headers[i].ID] = TypeValue(cell)
		}
		rows = append(rows, record)
	}
	return headers, rows, nil
}

func newParseError(err error, row int) *ParseError {
	pe := &ParseError{Row: row, Message: err.Error(), err: err}
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		pe.Line = csvErr.Line
		pe.Message = csvErr.Err.Error()
	}
	return pe
}

// dropDuplicates keeps one header per normalized label and deletes the
// fields of the others from every row.
func dropDuplicates(headers []Header, rows []Record) []Header {
	groups := make(map[string][]Header)
	var order []string
	for _, h := range headers {
		key := strings.ToLower(strings.TrimSpace(h.Original))
		if key == "" {
			// Unlabelled columns never merge with each other.
			key = "\x00" + h.ID
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], h)
	}

	kept := make([]Header, 0, len(order))
	var dropped []string
	for _, key := range order {
		candidates := groups[key]
		selected := candidates[0]
		for _, c := range candidates {
			if columnHasValue(rows, c.ID) {
				selected = c
				break
			}
		}
		kept = append(kept, selected)

		for _, c := range candidates {
			if c.ID != selected.ID {
				dropped = append(dropped, c.ID)
			}
		}
	}

	for _, row := range rows {
		for _, id := range dropped {
			delete(row, id)
		}
	}
	return kept
}

func columnHasValue(rows []Record, id string) bool {
	for _, row := range rows {
		if hasValue(row[id]) {
			return true
		}
	}
	return false
}
