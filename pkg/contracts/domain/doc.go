// Package domain contains the shared domain types for FreightPulse:
// the per-signal status documents exchanged between the ingestion
// monitors and the risk scorer, and the composite risk types written
// to the snapshot and history tables.
//
// Status documents are deliberately sparse. Every field an upstream
// source may omit is a pointer, and consumers must tolerate nil at
// every level rather than assume a fully populated document.
package domain
