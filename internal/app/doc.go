// Package app wires the pipeline together and exposes its top-level
// operations: ingest, score, backfill, and the status API server. All
// components are constructed here with explicit dependency injection;
// nothing below this package reaches for globals.
//
// # Pipeline
//
// A full cycle runs in two phases:
//
//	1. Ingest: each signal fetches its upstream source, normalizes the
//	   payload, merges observations into its history table, and writes
//	   its status document. Signals fail in isolation.
//	2. Score: the status documents feed the threshold scorer, the
//	   composite snapshot is written only when its content changed, and
//	   today's row is upserted into the risk history table.
//
// Backfill bypasses the status documents entirely and re-derives
// historical scores from the history tables via as-of lookups.
package app
