package history

import (
	"sort"
	"time"
)

// ValueAsOf returns the value of the latest observation dated at or
// before date. When every observation is later than date but the
// series is non-empty, the earliest available value is returned so
// scoring stays operable during cold-start history. The second return
// is false only for an empty series.
//
// The series must be sorted ascending by date.
func ValueAsOf(s Series, date time.Time) (float64, bool) {
	if len(s) == 0 {
		return 0, false
	}

	day := Day(date)

	// First index with Date > day.
	idx := sort.Search(len(s), func(i int) bool {
		return s[i].Date.After(day)
	})
	if idx == 0 {
		return s[0].Value, true
	}
	return s[idx-1].Value, true
}

// ObservationAsOf is like ValueAsOf but returns the whole observation.
func ObservationAsOf(s Series, date time.Time) (Observation, bool) {
	if len(s) == 0 {
		return Observation{}, false
	}

	day := Day(date)
	idx := sort.Search(len(s), func(i int) bool {
		return s[i].Date.After(day)
	})
	if idx == 0 {
		return s[0], true
	}
	return s[idx-1], true
}
