package textfilter

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/language"
)

const frenchAlphabet = "abcdefghijklmnopqrstuvwxyzàâæçéèêëîïôœùûüÿ'-\n"

func TestFilter(t *testing.T) {
	f := New(NewAlphabet(frenchAlphabet), language.French)
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"markup and punctuation", "Bonjour, <i>le monde</i>!", "bonjour ile mondei"},
		{"line breaks", "Salut\ntout le\tmonde", "salut tout le monde"},
		{"filler marker", "[Musique]", "musique"},
		{"accents kept", "ÉTÉ à Noël", "été à noël"},
		{"decomposed accent composes", "e\u0301te\u0301", "été"},
		{"digits dropped", "il est 10 h", "il est h"},
		{"only disallowed", "♪ 123 ♪", ""},
		{"empty", "", ""},
		{"apostrophe", "C'est l'heure", "c'est l'heure"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Filter(tt.raw); got != tt.want {
				t.Fatalf("Filter(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFilterIdempotent(t *testing.T) {
	f := New(NewAlphabet(frenchAlphabet), language.French)
	inputs := []string{
		"  Bonjour   À TOUS\n\n", "[Musique]", "Ça va? Oui -- très bien.", " espace insécable ",
		"ÆØÅ", "",
	}
	for _, in := range inputs {
		once := f.Filter(in)
		if twice := f.Filter(once); twice != once {
			t.Fatalf("Filter not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestFilterTurkishLowercase(t *testing.T) {
	f := New(NewAlphabet("abcçdefgğhıijklmnoöprsştuüvyz"), language.Turkish)
	if got := f.Filter("ISPARTA"); got != "ısparta" {
		t.Fatalf("Filter(ISPARTA) = %q, want dotless i", got)
	}
}

func TestLoadAlphabet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fr.txt")
	if err := os.WriteFile(path, []byte("abc\nd\r\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	alphabet, err := LoadAlphabet(path)
	if err != nil {
		t.Fatalf("LoadAlphabet: %v", err)
	}
	if alphabet.Len() != 5 {
		t.Fatalf("expected 4 letters plus space, got %d (%q)", alphabet.Len(), alphabet.String())
	}
	if alphabet.Contains('\n') || !alphabet.Contains(' ') {
		t.Fatal("newline must be stripped and space always allowed")
	}

	empty := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(empty, []byte("\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadAlphabet(empty); err == nil {
		t.Fatal("expected error for empty alphabet")
	}
	if _, err := LoadAlphabet(filepath.Join(dir, "missing.txt")); err == nil {
		t.Fatal("expected error for missing alphabet")
	}
}

func TestCollapseSpace(t *testing.T) {
	if got := CollapseSpace("  a \t b\n\nc  "); got != "a b c" {
		t.Fatalf("CollapseSpace = %q", got)
	}
}

func TestDenylist(t *testing.T) {
	d := NewDenylist("musique", " Applaudissements ", "")
	if d.Len() != 2 {
		t.Fatalf("expected 2 tokens, got %d", d.Len())
	}
	for _, text := range []string{"musique", "MUSIQUE", " musique ", "applaudissements"} {
		if !d.Contains(text) {
			t.Errorf("expected %q to be denied", text)
		}
	}
	if d.Contains("musique douce") {
		t.Error("partial match must not be denied")
	}
	var zero Denylist
	if zero.Contains("musique") {
		t.Error("zero denylist denies nothing")
	}
}
