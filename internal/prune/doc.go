// Package prune is a one-shot maintenance pass over persisted clips. It
// removes clips whose text is empty or only a filler token and canonicalizes
// whitespace in the rest.
package prune
