// Package textfilter reduces subtitle text to the characters a speech model is
// trained on.
//
// An Alphabet is loaded once per run from the language's alphabet file. A
// Filter lower-cases with language-aware rules, drops every rune outside the
// alphabet and canonicalizes whitespace. A Denylist recognizes filler captions
// that survive filtering but carry no speech.
package textfilter
