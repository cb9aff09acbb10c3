// Package config loads, normalizes, and validates subclip configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks for the
// yt-dlp and ffmpeg binaries. The Config type centralizes every knob the
// harvest pipeline and the maintenance commands need: where clips are
// written, which alphabet and creator lists apply to a language, and the
// filler tokens that never become clips.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
