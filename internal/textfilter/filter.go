package textfilter

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Filter normalizes raw subtitle text down to an alphabet. It is not safe for
// concurrent use because the underlying Caser keeps state.
type Filter struct {
	alphabet Alphabet
	lower    cases.Caser
}

// New returns a Filter that lower-cases with the rules of tag and keeps only
// runes of alphabet.
func New(alphabet Alphabet, tag language.Tag) *Filter {
	return &Filter{alphabet: alphabet, lower: cases.Lower(tag)}
}

// Filter returns raw lower-cased, restricted to the alphabet, with whitespace
// collapsed to single spaces and trimmed. Filter(Filter(x)) == Filter(x).
func (f *Filter) Filter(raw string) string {
	if raw == "" {
		return ""
	}
	lowered := f.lower.String(norm.NFC.String(raw))

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if unicode.IsSpace(r) {
			r = ' '
		}
		if f.alphabet.Contains(r) {
			b.WriteRune(r)
		}
	}
	return CollapseSpace(b.String())
}

// CollapseSpace replaces every run of whitespace with one ASCII space and trims
// both ends.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
