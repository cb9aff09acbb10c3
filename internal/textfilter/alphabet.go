package textfilter

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Alphabet is the set of characters permitted in clip text for one language.
// The ASCII space is always a member so word boundaries survive filtering.
type Alphabet struct {
	runes map[rune]struct{}
}

// NewAlphabet builds an alphabet from the characters of chars. Line breaks are
// ignored and the input is NFC-normalized first.
func NewAlphabet(chars string) Alphabet {
	chars = norm.NFC.String(chars)
	set := make(map[rune]struct{}, len(chars)+1)
	for _, r := range chars {
		if r == '\n' || r == '\r' {
			continue
		}
		set[r] = struct{}{}
	}
	set[' '] = struct{}{}
	return Alphabet{runes: set}
}

// LoadAlphabet reads an alphabet file such as alphabet/fr.txt.
func LoadAlphabet(path string) (Alphabet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Alphabet{}, fmt.Errorf("read alphabet %s: %w", path, err)
	}
	alphabet := NewAlphabet(string(data))
	if alphabet.Len() <= 1 {
		return Alphabet{}, fmt.Errorf("alphabet %s is empty", path)
	}
	return alphabet, nil
}

// Contains reports whether r is permitted.
func (a Alphabet) Contains(r rune) bool {
	_, ok := a.runes[r]
	return ok
}

// Len returns the number of distinct permitted runes, space included.
func (a Alphabet) Len() int {
	return len(a.runes)
}

// String renders the permitted runes in code point order.
func (a Alphabet) String() string {
	out := make([]rune, 0, len(a.runes))
	for r := range a.runes {
		out = append(out, r)
	}
	slices.Sort(out)
	var b strings.Builder
	for _, r := range out {
		b.WriteRune(r)
	}
	return b.String()
}
