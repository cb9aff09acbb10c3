// Package services defines shared utilities consumed by the harvest pipeline,
// the clip validator, and the external tool adapters.
//
// Key responsibilities:
//   - Context helpers that stamp creator names, video IDs, and run identifiers
//     for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the harvest taxonomy (age restricted, no subtitles, retrieval,
//     malformed clip name, empty text, short duration).
//
// Use these helpers when wiring new pipeline steps so failures are recorded
// and reported uniformly.
package services
