package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRailCarrierAliases(t *testing.T) {
	aliases := RailCarrierAliases()

	tests := []struct {
		raw       string
		canonical string
		ok        bool
	}{
		{"UP", "UP", true},
		{"UNION PACIFIC RAILROAD", "UP", true},
		{"union pacific", "UP", true},
		{"BNSF Railway", "BNSF", true},
		{"Norfolk Southern Corp.", "NS", true},
		{"Kansas City Southern", "CPKC", true},
		{"Amtrak", "", false},
		{"", "", false},
		{"US Total", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := aliases.Canonical(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.canonical, got)
			}
		})
	}
}

func TestRailMetricAliases(t *testing.T) {
	aliases := RailMetricAliases()

	tests := []struct {
		raw       string
		canonical string
		ok        bool
	}{
		{"Average Train Speed (mph)", "train_speed_mph", true},
		{"Terminal Dwell (hours)", "terminal_dwell_hours", true},
		{"Average dwell time at origin terminal", "terminal_dwell_hours", true},
		{"Dwell time at interchange", "", false},
		{"Cars on line", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := aliases.Canonical(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.canonical, got)
			}
		})
	}
}
