// Package ingest pulls the upstream signal sources, normalizes their
// payloads into history observations, and assembles the per-signal
// status documents. Each signal has its own ingestor; they share the
// resilient fetch client and the tabular normalizer, and they fail in
// isolation so one broken upstream never blocks the other signals.
package ingest
