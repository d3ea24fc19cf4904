package argv

import (
	"fmt"
	"strings"

	"github.com/mattn/go-shellwords"
)

// Args is the raw argument input: either a Line or a List.
type Args interface {
	tokens() ([]string, error)
}

// Line is a shell-like argument string, e.g. `message_totals -c "Jane Doe"`.
type Line string

// List is an argument list that is already split into tokens.
type List []string

func (l Line) tokens() ([]string, error) {
	return Tokenize(string(l))
}

func (l List) tokens() ([]string, error) {
	return append([]string(nil), l...), nil
}

// Options carries the per-invocation inputs of the normalizer.
type Options struct {
	// Contacts are appended as --contact pairs when no contact flag is present.
	Contacts []string

	// LookupContacts is consulted only when no contact flag is present and
	// Contacts is empty.
	LookupContacts func() ([]string, error)

	// OutputPath, when set, is enforced as the --output value.
	OutputPath string
}

// Normalize turns raw arguments into the final list passed to the sidecar.
func Normalize(args Args, opts Options) ([]string, error) {
	if args == nil {
		args = List(nil)
	}
	tokens, err := args.tokens()
	if err != nil {
		return nil, err
	}

	tokens = ExpandCombined(tokens)

	contacts := opts.Contacts
	if len(contacts) == 0 && opts.LookupContacts != nil && !HasFlag(tokens, ContactFlag) {
		contacts, err = opts.LookupContacts()
		if err != nil {
			return nil, fmt.Errorf("failed to look up selected contacts: %w", err)
		}
	}

	tokens, err = EnsureContact(tokens, contacts)
	if err != nil {
		return nil, err
	}

	tokens = EnsureFormat(tokens)

	if opts.OutputPath != "" {
		tokens = EnsureOutput(tokens, opts.OutputPath)
	}
	return tokens, nil
}

// Tokenize splits line using shell quoting and escaping rules.
// A blank line yields an empty list.
func Tokenize(line string) ([]string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return []string{}, nil
	}

	parser := shellwords.NewParser()
	tokens, err := parser.Parse(escapeMeta(line))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenize, err)
	}
	if parser.Position >= 0 {
		return nil, fmt.Errorf("%w: unexpected shell operator at offset %d", ErrTokenize, parser.Position)
	}
	return tokens, nil
}

// shellMeta are the characters shellwords treats as operators or
// substitutions. Arguments are never run by a shell, so they stay literal.
const shellMeta = ";&|<>()`"

// escapeMeta backslash-escapes unquoted shell metacharacters, tracking
// quotes and escapes the same way the parser does.
func escapeMeta(line string) string {
	if !strings.ContainsAny(line, shellMeta) {
		return line
	}

	var sb strings.Builder
	sb.Grow(len(line) + 8)

	var escaped, single, double bool
	for _, r := range line {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && !single:
			escaped = true
		case r == '\'' && !double:
			single = !single
		case r == '"' && !single:
			double = !double
		case !single && !double && strings.ContainsRune(shellMeta, r):
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// ExpandCombined splits -Xvalue and --flag=value into separate tokens for
// the flags that accept attached values. Everything else passes through.
func ExpandCombined(args []string) []string {
	expanded := make([]string, 0, len(args))
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "--"):
			if eq := strings.IndexByte(arg, '='); eq > 0 {
				flag, value := arg[:eq], arg[eq+1:]
				if combinedLong.Has(flag) {
					expanded = append(expanded, flag, value)
					continue
				}
			}
		case strings.HasPrefix(arg, "-") && len(arg) > 2:
			flag, value := arg[:2], arg[2:]
			if combinedShort.Has(flag) {
				expanded = append(expanded, flag, strings.TrimPrefix(value, "="))
				continue
			}
		}
		expanded = append(expanded, arg)
	}
	return expanded
}

// HasFlag reports whether any token is exactly one of the flag's spellings.
func HasFlag(args []string, flag FlagSpec) bool {
	for _, arg := range args {
		if flag.Has(arg) {
			return true
		}
	}
	return false
}

// RemoveOption drops every occurrence of flag together with the token that
// follows it, whatever that token is.
func RemoveOption(args []string, flag FlagSpec) []string {
	result := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		if flag.Has(args[i]) {
			i++
			continue
		}
		result = append(result, args[i])
	}
	return result
}

// EnsureContact appends a --contact pair per contact unless a contact flag
// is already present.
func EnsureContact(args []string, contacts []string) ([]string, error) {
	if HasFlag(args, ContactFlag) {
		return args, nil
	}
	if len(contacts) == 0 {
		return nil, ErrMissingContact
	}
	result := make([]string, 0, len(args)+2*len(contacts))
	result = append(result, args...)
	for _, contact := range contacts {
		result = append(result, ContactFlag.Canonical(), contact)
	}
	return result, nil
}

// EnsureFormat replaces any format option with --format csv.
func EnsureFormat(args []string) []string {
	return append(RemoveOption(args, FormatFlag), FormatFlag.Canonical(), FormatCSV)
}

// EnsureOutput replaces any output option with --output path.
func EnsureOutput(args []string, path string) []string {
	return append(RemoveOption(args, OutputFlag), OutputFlag.Canonical(), path)
}
