// Package render writes decoded analyzer results as a terminal table, JSON
// or CSV.
package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"icabridge/internal/csvdecode"
)

// Format names an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

// Formats lists the supported formats.
var Formats = []Format{FormatTable, FormatJSON, FormatCSV}

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q (want table, json or csv)", s)
}

// Write renders result to w in the given format.
func Write(w io.Writer, format Format, result *csvdecode.Result) error {
	switch format {
	case FormatTable, "":
		_, err := io.WriteString(w, Table(result, DefaultStyles()))
		return err
	case FormatJSON:
		return JSON(w, result)
	case FormatCSV:
		return CSV(w, result)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// FormatValue stringifies a typed cell. nil becomes the empty string.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

// JSON writes the rows as an array of objects. Keys follow header order.
func JSON(w io.Writer, result *csvdecode.Result) error {
	var buf bytes.Buffer
	buf.WriteString("[")
	for i, row := range result.Rows {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  {")
		for j, h := range result.Headers {
			if j > 0 {
				buf.WriteString(", ")
			}
			key, err := json.Marshal(h.ID)
			if err != nil {
				return err
			}
			val, err := json.Marshal(row[h.ID])
			if err != nil {
				return fmt.Errorf("failed to encode %s: %w", h.ID, err)
			}
			buf.Write(key)
			buf.WriteString(": ")
			buf.Write(val)
		}
		buf.WriteString("}")
	}
	if len(result.Rows) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("]\n")

	_, err := w.Write(buf.Bytes())
	return err
}

// CSV writes the rows under their original header labels.
func CSV(w io.Writer, result *csvdecode.Result) error {
	cw := csv.NewWriter(w)

	labels := make([]string, len(result.Headers))
	for i, h := range result.Headers {
		labels[i] = h.Original
	}
	if err := cw.Write(labels); err != nil {
		return err
	}

	record := make([]string, len(result.Headers))
	for _, row := range result.Rows {
		for i, h := range result.Headers {
			record[i] = FormatValue(row[h.ID])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
