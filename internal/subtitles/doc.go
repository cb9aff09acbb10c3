// Package subtitles parses SubRip caption files into timed cues.
//
// Timestamps keep their hour/minute/second/millisecond components so the same
// value can name clip directories and feed sample index arithmetic.
package subtitles
