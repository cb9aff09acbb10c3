// Package pipeline runs a harvest: for each creator it resolves the next
// unprocessed videos from the channel listing and the persisted download
// counter, then fetches captions and audio, merges cues into segments and
// persists one clip per usable segment.
//
// Videos are processed one at a time. Every attempt, successful or not,
// advances the channel's download counter, appends a line to the channel's
// log.txt and, when a journal is configured, records an attempt row. A failed
// video never aborts the run; only bookkeeping failures (metric writes, clip
// writes) and context cancellation do.
package pipeline
