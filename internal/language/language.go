package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type entry struct {
	code2   string   // ISO 639-1
	code3   string   // ISO 639-2/T
	alt3    string   // ISO 639-2/B when it differs
	display string   // English name as YouTube lists caption tracks
	words   []string // accepted word forms
}

// Languages the harvester ships alphabets and filler tokens for. Anything else
// falls back to x/text for tag parsing and display names.
var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}},
	{"es", "spa", "", "Spanish", []string{"spanish", "español"}},
	{"fr", "fra", "fre", "French", []string{"french", "français"}},
	{"de", "deu", "ger", "German", []string{"german", "deutsch"}},
	{"it", "ita", "", "Italian", []string{"italian"}},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}},
	{"nl", "nld", "dut", "Dutch", []string{"dutch"}},
	{"pl", "pol", "", "Polish", []string{"polish"}},
	{"ru", "rus", "", "Russian", []string{"russian"}},
	{"tr", "tur", "", "Turkish", []string{"turkish"}},
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages)*2)
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// ToISO2 converts a recognized language code or word to ISO 639-1.
// Unknown input is resolved through BCP 47 parsing; an empty string means the
// value is not a language.
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	tag, err := xlanguage.Parse(code)
	if err != nil {
		return ""
	}
	base, conf := tag.Base()
	if conf == xlanguage.No {
		return ""
	}
	if s := base.String(); len(s) == 2 {
		return s
	}
	return ""
}

// Tag returns the BCP 47 tag for code, or language.Und when it cannot be parsed.
// The tag drives language-aware case mapping.
func Tag(code string) xlanguage.Tag {
	if iso := ToISO2(code); iso != "" {
		code = iso
	}
	tag, err := xlanguage.Parse(strings.TrimSpace(code))
	if err != nil {
		return xlanguage.Und
	}
	return tag
}

// DisplayName returns the English language name used to label caption tracks.
// Returns "Unknown" for empty input and the uppercased code when nothing matches.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	if e := lookup(trimmed); e != nil {
		return e.display
	}
	if tag, err := xlanguage.Parse(trimmed); err == nil {
		if name := display.English.Languages().Name(tag); name != "" {
			return name
		}
	}
	return strings.ToUpper(trimmed)
}

// NormalizeList deduplicates and normalizes a list of language codes to ISO 639-1.
func NormalizeList(languages []string) []string {
	if len(languages) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(languages))
	seen := make(map[string]struct{}, len(languages))
	for _, lang := range languages {
		trimmed := strings.ToLower(strings.TrimSpace(lang))
		if trimmed == "" {
			continue
		}
		if mapped := ToISO2(trimmed); mapped != "" {
			trimmed = mapped
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		normalized = append(normalized, trimmed)
	}
	return normalized
}
