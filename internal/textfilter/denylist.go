package textfilter

import "strings"

// Denylist holds filtered texts that never become clips, such as a caption
// track's "[Musique]" marker which filters down to "musique".
type Denylist struct {
	tokens map[string]struct{}
}

// NewDenylist builds a denylist; tokens are compared after lower-casing and
// whitespace collapsing.
func NewDenylist(tokens ...string) Denylist {
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		token = CollapseSpace(strings.ToLower(token))
		if token == "" {
			continue
		}
		set[token] = struct{}{}
	}
	return Denylist{tokens: set}
}

// Contains reports whether text matches a filler token.
func (d Denylist) Contains(text string) bool {
	if len(d.tokens) == 0 {
		return false
	}
	_, ok := d.tokens[CollapseSpace(strings.ToLower(text))]
	return ok
}

// Len returns the number of tokens.
func (d Denylist) Len() int {
	return len(d.tokens)
}
