package domain

import "time"

// MetricSummary describes the recent behavior of one gauge metric:
// the newest and oldest points in the fetch window plus the change
// between them. Produced by the river monitor for each site/parameter.
type MetricSummary struct {
	LatestUTC     time.Time    `json:"latest_utc"`
	LatestValue   float64      `json:"latest_value"`
	EarliestUTC   time.Time    `json:"earliest_utc"`
	EarliestValue float64      `json:"earliest_value"`
	Delta7d       float64      `json:"delta_7d"`
	SlopePerDay   float64      `json:"slope_per_day"`
	NPoints       int          `json:"n_points"`
	Series7d      *SparkSeries `json:"series_7d,omitempty"`
}

// SparkSeries is a downsampled time/value pair list kept small enough
// to embed in a status document for visualization.
type SparkSeries struct {
	NPointsRaw int         `json:"n_points_raw"`
	NPoints    int         `json:"n_points"`
	TimesUTC   []time.Time `json:"t_utc"`
	Values     []float64   `json:"v"`
}

// RiverSite is one monitored gauge site in the river status document.
// Either metric summary may be nil when the upstream payload did not
// carry that parameter for the site.
type RiverSite struct {
	SiteNo       string         `json:"site_no"`
	Label        string         `json:"label"`
	GageHeightFt *MetricSummary `json:"gage_height_ft"`
	DischargeCfs *MetricSummary `json:"discharge_cfs"`
}

// RiverSource records where the river observations came from.
type RiverSource struct {
	Provider       string            `json:"provider"`
	Endpoint       string            `json:"endpoint"`
	ParameterCodes map[string]string `json:"parameter_codes,omitempty"`
}

// RiverStatus is the river monitor's output document.
type RiverStatus struct {
	GeneratedAtUTC time.Time             `json:"generated_at_utc"`
	Period         string                `json:"period"`
	Source         RiverSource           `json:"source"`
	Sites          map[string]*RiverSite `json:"sites"`
}

// MetricReading is a single latest-value/delta pair for a carrier
// metric. Both fields are nil when the history is too short to
// support them.
type MetricReading struct {
	Value   *float64 `json:"value"`
	Delta4w *float64 `json:"delta_4w"`
}

// CarrierStatus holds the metric readings for one rail carrier.
type CarrierStatus struct {
	Metrics     map[string]*MetricReading `json:"metrics"`
	WeekEndDate *string                   `json:"week_end_date"`
}

// RailStatus is the rail monitor's output document.
type RailStatus struct {
	GeneratedAtUTC time.Time                 `json:"generated_at_utc"`
	SourcePage     string                    `json:"source_page"`
	SourceURL      string                    `json:"source_url"`
	Carriers       map[string]*CarrierStatus `json:"carriers"`
}

// LockStatus summarizes barge traffic through a single lock and dam.
// Unit is always "count"; earlier revisions of the history table used
// tons, and the history loader converts that column name on read.
type LockStatus struct {
	WeekEndDate *string  `json:"week_end_date"`
	Value       *float64 `json:"value"`
	Delta4w     *float64 `json:"delta_4w"`
	Unit        string   `json:"unit"`
}

// BargeStatus is the barge monitor's output document.
type BargeStatus struct {
	GeneratedAtUTC time.Time         `json:"generated_at_utc"`
	Sources        map[string]string `json:"sources"`
	Locks27        *LockStatus       `json:"locks_27"`
}
