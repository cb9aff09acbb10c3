// Package ytdlp drives the yt-dlp command line tool: channel listings,
// metadata probes, caption downloads and audio downloads.
//
// Command execution goes through an Executor so tests can substitute canned
// output. Age-gated videos are reported as services.ErrAgeRestricted and every
// other tool failure as services.ErrRetrieval.
package ytdlp
