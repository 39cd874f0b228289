package history

import (
	"fmt"
	"sort"

	"freightpulse/internal/config"
)

// SuppressTrailingPlaceholder drops the newest row of a sorted series
// when it looks like a placeholder publication: its value is exactly
// zero while the preceding rows are predominantly non-zero with a
// material median. Upstream publishers sometimes emit a zero row
// before the real figure for a period is finalized; scoring that zero
// would register a phantom collapse.
//
// Returns the (possibly shortened) series, a human-readable note, and
// whether a row was dropped.
func SuppressTrailingPlaceholder(s Series, window int, minMedian float64) (Series, string, bool) {
	if window < 1 || len(s) < window+1 {
		return s, "", false
	}

	last := s[len(s)-1]
	if last.Value != 0 {
		return s, "", false
	}

	preceding := s[len(s)-1-window : len(s)-1]
	nonZero := 0
	values := make([]float64, 0, len(preceding))
	for _, o := range preceding {
		values = append(values, o.Value)
		if o.Value != 0 {
			nonZero++
		}
	}
	if nonZero*2 <= len(preceding) {
		return s, "", false
	}
	if median(values) < minMedian {
		return s, "", false
	}

	note := fmt.Sprintf(
		"dropped trailing zero for %s as a non-final placeholder (preceding %d rows median %.1f)",
		last.Date.Format(config.DayFormat), window, median(values))

	trimmed := make(Series, len(s)-1)
	copy(trimmed, s[:len(s)-1])
	return trimmed, note, true
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
