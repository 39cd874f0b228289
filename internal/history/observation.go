package history

import (
	"sort"
	"time"

	"freightpulse/internal/config"
)

// Observation is a single immutable data point in a signal's history.
// Date is a calendar day (or ISO week-ending day) at UTC midnight.
// Dimension disambiguates co-located series within one table, e.g.
// "UP/terminal_dwell_hours"; it is empty for single-series signals.
type Observation struct {
	Date       time.Time
	Dimension  string
	Value      float64
	SourceURL  string
	IngestedAt time.Time
}

// Key returns the deduplication key for the observation.
func (o Observation) Key() string {
	return o.Date.Format(config.DayFormat) + "|" + o.Dimension
}

// Series is a collection of observations ordered ascending by date,
// then dimension. At most one observation exists per (date, dimension)
// pair once merged.
type Series []Observation

// Sort orders the series ascending by date then dimension.
func (s Series) Sort() {
	sort.SliceStable(s, func(i, j int) bool {
		if !s[i].Date.Equal(s[j].Date) {
			return s[i].Date.Before(s[j].Date)
		}
		return s[i].Dimension < s[j].Dimension
	})
}

// FilterDimension returns the sub-series for one dimension, preserving
// order.
func (s Series) FilterDimension(dimension string) Series {
	var out Series
	for _, o := range s {
		if o.Dimension == dimension {
			out = append(out, o)
		}
	}
	return out
}

// Latest returns the most recent observation, or false for an empty
// series. The series must be sorted.
func (s Series) Latest() (Observation, bool) {
	if len(s) == 0 {
		return Observation{}, false
	}
	return s[len(s)-1], true
}

// Day truncates a timestamp to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD day string.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(config.DayFormat, s, time.UTC)
}

// Merge concatenates existing and incoming, deduplicates by
// (date, dimension) keeping the incoming value when both carry the
// same key, and returns the result sorted ascending. Re-ingesting a
// corrected historical row therefore supersedes a stale cached one,
// and merging the same incoming data twice is idempotent.
func Merge(existing, incoming Series) Series {
	byKey := make(map[string]Observation, len(existing)+len(incoming))
	for _, o := range existing {
		byKey[o.Key()] = o
	}
	for _, o := range incoming {
		byKey[o.Key()] = o
	}

	merged := make(Series, 0, len(byKey))
	for _, o := range byKey {
		merged = append(merged, o)
	}
	merged.Sort()
	return merged
}
