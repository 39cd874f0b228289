package tabular

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var isoFragmentRe = regexp.MustCompile(`\d{4}[-/]\d{2}[-/]\d{2}`)

// Date layouts observed across source workbook revisions. Order
// matters only for ambiguous strings; the US month-first forms come
// before day-first ones because every current source is US government
// data.
var dayLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"01-02-2006",
	"01-02-06",
	"Jan 2, 2006",
	"January 2, 2006",
	"2-Jan-06",
	"02-Jan-06",
	"2 Jan 2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// excelEpoch is day zero of the 1900 date system serial numbers that
// leak through when a workbook cell loses its date format.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// ParseDay attempts to interpret a cell as a calendar day. It accepts
// the layouts above plus bare Excel serial numbers, and returns the
// day at UTC midnight.
func ParseDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dayLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}

	// Excel serial day: plausible range covers 1954..2100.
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial >= 20000 && serial <= 75000 {
			t := excelEpoch.AddDate(0, 0, int(serial))
			return t, true
		}
	}

	return time.Time{}, false
}

// looksLikeDateHeader reports whether a column header encodes a date,
// either parseable directly or containing an ISO-like date fragment.
func looksLikeDateHeader(s string) bool {
	if _, ok := ParseDay(s); ok {
		return true
	}
	return isoFragmentRe.MatchString(s)
}
