// Package logging assembles the slog loggers used by the harvester.
//
// Console output is a single human-readable line per record with the
// component and creator/video subject pulled forward; JSON output is meant for
// machines. When a log directory is configured every record is also appended
// as JSON to a file so unattended runs can be inspected afterwards.
package logging
