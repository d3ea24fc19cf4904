package csvdecode

import (
	"strconv"
	"strings"
)

// ToIdentifier derives a camel-case identifier from a column label.
// Labels without any ASCII letter or digit become "column<index>".
func ToIdentifier(original string, index int) string {
	fields := strings.FieldsFunc(original, func(r rune) bool {
		return !isASCIIAlnum(r)
	})
	if len(fields) == 0 {
		return "column" + strconv.Itoa(index)
	}

	var b strings.Builder
	for i, field := range fields {
		lower := strings.ToLower(field)
		if i > 0 {
			lower = strings.ToUpper(lower[:1]) + lower[1:]
		}
		b.WriteString(lower)
	}
	return b.String()
}

func isASCIIAlnum(r rune) bool {
	return r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}

// idSet hands out identifiers, appending 1, 2, 3, ... on collision.
type idSet map[string]struct{}

func (s idSet) claim(base string) string {
	candidate := base
	for suffix := 1; ; suffix++ {
		if _, taken := s[candidate]; !taken {
			break
		}
		candidate = base + strconv.Itoa(suffix)
	}
	s[candidate] = struct{}{}
	return candidate
}
