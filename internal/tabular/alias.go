package tabular

import "strings"

// EntityAliases maps the naming variants a source uses for an entity
// (carrier, region) onto canonical identifiers. Lookup order: exact
// match first, then ordered substring rules.
type EntityAliases struct {
	exact      map[string]string
	substrings []aliasRule
}

type aliasRule struct {
	fragment  string
	canonical string
}

// Canonical resolves a raw entity cell. The raw value is uppercased
// and trimmed before matching. Unmapped entities return false; rows
// carrying them are expected noise in wide government spreadsheets
// and are dropped silently.
func (a EntityAliases) Canonical(raw string) (string, bool) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if key == "" {
		return "", false
	}
	if canonical, ok := a.exact[key]; ok {
		return canonical, true
	}
	for _, rule := range a.substrings {
		if strings.Contains(key, rule.fragment) {
			return rule.canonical, true
		}
	}
	return "", false
}

// RailCarrierAliases returns the alias table for Class I railroads as
// they appear across STB workbook revisions.
func RailCarrierAliases() EntityAliases {
	return EntityAliases{
		exact: map[string]string{
			"UP":   "UP",
			"BNSF": "BNSF",
			"CSX":  "CSX",
			"NS":   "NS",
			"CN":   "CN",
			"CPKC": "CPKC",
		},
		substrings: []aliasRule{
			{"BNSF", "BNSF"},
			{"UNION PACIFIC", "UP"},
			{"CSX", "CSX"},
			{"NORFOLK SOUTHERN", "NS"},
			{"CANADIAN NATIONAL", "CN"},
			{"CANADIAN PACIFIC", "CPKC"},
			{"KANSAS CITY SOUTHERN", "CPKC"},
			{"GRAND TRUNK", "CN"},
		},
	}
}

// MetricAliases maps free-text measure descriptions onto canonical
// metric names via substring rules. A rule matches when every one of
// its fragments appears in the normalized measure text.
type MetricAliases struct {
	rules []metricRule
}

type metricRule struct {
	fragments []string
	canonical string
}

// Canonical resolves a raw measure cell; unmapped measures return
// false and their rows are dropped silently.
func (m MetricAliases) Canonical(raw string) (string, bool) {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return "", false
	}
	for _, rule := range m.rules {
		matched := true
		for _, fragment := range rule.fragments {
			if !strings.Contains(text, fragment) {
				matched = false
				break
			}
		}
		if matched {
			return rule.canonical, true
		}
	}
	return "", false
}

// RailMetricAliases returns the measure mapping for the STB service
// metrics workbook.
func RailMetricAliases() MetricAliases {
	return MetricAliases{
		rules: []metricRule{
			{[]string{"train speed"}, "train_speed_mph"},
			{[]string{"terminal dwell"}, "terminal_dwell_hours"},
			{[]string{"dwell time", "terminal"}, "terminal_dwell_hours"},
		},
	}
}
