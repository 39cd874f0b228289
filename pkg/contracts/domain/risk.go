package domain

import "time"

// RiskLevel classifies a composite risk score.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "LOW"
	RiskLevelModerate RiskLevel = "MODERATE"
	RiskLevelCritical RiskLevel = "CRITICAL"
)

// PrimaryDriverNone is reported when no driver contributed any score.
const PrimaryDriverNone = "none"

// DriverScore is the contribution of one signal category to the
// composite, together with the raw inputs that produced it.
type DriverScore struct {
	Name  string                 `json:"name"`
	Score float64                `json:"score"`
	Raw   map[string]interface{} `json:"raw"`
}

// RiskSnapshot is the latest composite risk state. RiskScore is
// always within [0,100].
type RiskSnapshot struct {
	GeneratedAtUTC time.Time     `json:"generated_at_utc"`
	RiskScore      float64       `json:"risk_score"`
	RiskLevel      RiskLevel     `json:"risk_level"`
	PrimaryDriver  string        `json:"primary_driver"`
	Drivers        []DriverScore `json:"drivers"`
}

// RiskHistoryRow is one time point in the long-lived risk history
// table, one row per day.
type RiskHistoryRow struct {
	Timestamp     time.Time `json:"timestamp_utc"`
	RiskScore     float64   `json:"risk_score"`
	RiskLevel     RiskLevel `json:"risk_level"`
	PrimaryDriver string    `json:"primary_driver"`
}
