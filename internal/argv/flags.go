package argv

// FlagSpec is the set of spellings that denote one logical option.
// The first spelling is canonical and is the one the normalizer emits.
type FlagSpec []string

// Canonical returns the spelling appended by the normalizer.
func (f FlagSpec) Canonical() string {
	return f[0]
}

// Has reports whether token is exactly one of the spellings.
func (f FlagSpec) Has(token string) bool {
	for _, s := range f {
		if s == token {
			return true
		}
	}
	return false
}

// Option spellings understood by the ica CLI.
var (
	ContactFlag = FlagSpec{"--contact", "-c"}
	FormatFlag  = FlagSpec{"--format", "-f"}
	OutputFlag  = FlagSpec{"--output", "-o"}
)

// FormatCSV is the only output format the decoder accepts.
const FormatCSV = "csv"

// Flags whose value may be attached to the flag itself.
var (
	combinedShort = FlagSpec{"-c", "-f", "-o"}
	combinedLong  = FlagSpec{"--contact", "--format", "--output"}
)
