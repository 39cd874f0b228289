package config

// USGS NWIS parameter codes used by the river signal.
const (
	PcodeGageHeightFt = "00065"
	PcodeDischargeCfs = "00060"

	// StatCdDailyMean selects the daily mean statistic in the DV
	// (daily values) archive API.
	StatCdDailyMean = "00003"
)

// Signal names, used for history files, logging, and driver
// attribution. The evaluation order of the risk drivers follows the
// order listed here.
const (
	SignalRiver = "river"
	SignalRail  = "rail"
	SignalBarge = "barge"
)

// Canonical rail metric names produced by the normalizer.
const (
	MetricTrainSpeedMph    = "train_speed_mph"
	MetricTerminalDwellHrs = "terminal_dwell_hours"
)

// DayFormat is the calendar-day format used in history tables and
// observation keys.
const DayFormat = "2006-01-02"
