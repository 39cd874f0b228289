// Package backfill reconstructs the daily risk history table from the
// per-signal histories. Reconstruction is a pure re-derivation: for
// each day in the window the scoring inputs are recomputed via as-of
// lookups against the full history, then passed through the same
// scorer the live path uses. Nothing is read back from previously
// stored scores.
//
// Two write policies exist and deliberately touch disjoint dates: the
// backfill path overwrites the whole table for [today-N, today-1],
// and the live path upserts only today's row.
package backfill
