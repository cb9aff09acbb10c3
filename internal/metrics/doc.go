// Package metrics persists the per-channel progress counters in metric.json.
//
// The file doubles as the resume point for harvesting: the download counter
// is the index of the next video to attempt. Updates are additive and happen
// under an exclusive file lock with an atomic replace.
package metrics
