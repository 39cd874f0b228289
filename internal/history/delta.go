package history

import "time"

// Delta computes the fixed-lag difference between two as-of lookups on
// the same series:
//
//	ValueAsOf(date) - ValueAsOf(date - lag)
//
// When either lookup is unavailable the delta is 0.0: a signal with no
// comparison point contributes no score rather than blocking the
// whole computation.
func Delta(s Series, date time.Time, lag time.Duration) float64 {
	current, ok := ValueAsOf(s, date)
	if !ok {
		return 0.0
	}
	previous, ok := ValueAsOf(s, date.Add(-lag))
	if !ok {
		return 0.0
	}
	return current - previous
}
