// Package language maps the language codes used on the command line to the
// forms other components need: ISO 639-1 codes for directory names, BCP 47
// tags for case folding, and English display names for caption track matching.
package language
