// Package risk converts per-signal features into the composite
// supply-chain risk score. The threshold rules are fixed calibrated
// constants, not learned parameters; scoring is fully deterministic
// for identical inputs, with the wall clock touching only the
// timestamp attached to the result.
package risk
