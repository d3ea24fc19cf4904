package csvdecode

import (
	"regexp"
	"strconv"
	"strings"
)

// maxExact is the largest magnitude a float64 holds without losing integers.
const maxExact = 1 << 53

var numberPattern = regexp.MustCompile(`^\s*-?(\d+\.?|\.\d+|\d+\.\d+)([eE][-+]?\d+)?\s*$`)

// TypeValue converts a cell to nil, bool, int64 or float64 when the text is
// unambiguous, and returns it unchanged otherwise.
func TypeValue(cell string) any {
	switch cell {
	case "":
		return nil
	case "true", "TRUE":
		return true
	case "false", "FALSE":
		return false
	}

	if !numberPattern.MatchString(cell) {
		return cell
	}
	text := strings.TrimSpace(cell)

	if !strings.ContainsAny(text, ".eE") {
		n, err := strconv.ParseInt(text, 10, 64)
		if err == nil && n >= -maxExact && n <= maxExact {
			return n
		}
		return cell
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f < -maxExact || f > maxExact {
		return cell
	}
	return f
}

// hasValue reports whether v counts as content for duplicate resolution.
func hasValue(v any) bool {
	if v == nil {
		return false
	}
	s, ok := v.(string)
	return !ok || s != ""
}
