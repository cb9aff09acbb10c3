// Package catalog reads the per-language creator lists and the cached video
// listings produced by the lister, and derives the ordered work queue for a
// channel.
package catalog
