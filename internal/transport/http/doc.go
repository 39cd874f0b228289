// Package http serves the read-only status API: the latest composite
// risk snapshot, the per-signal status documents, and the daily risk
// history. All documents are produced by the pipeline and read from
// disk on request; the API holds no state of its own.
package http
