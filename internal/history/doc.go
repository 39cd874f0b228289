// Package history implements the append-only keyed time series that
// backs every FreightPulse signal: observations keyed by calendar day
// and optional dimension, last-write-wins merge semantics, CSV
// persistence, and the as-of/delta lookups the scorer and backfill
// reconstruction are built on.
//
// A history file is always read fully, merged in memory, and
// rewritten fully. Single-writer operation is assumed; the package
// provides no cross-process locking.
package history
