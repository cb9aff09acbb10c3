// Package journal records every harvest run and per-video attempt in a SQLite
// database under the state directory.
//
// The dataset tree stays the source of truth for progress (metric.json); the
// journal exists for inspection: which videos failed, why, and when. It is
// safe to delete, and a schema version mismatch asks the operator to do so.
package journal
