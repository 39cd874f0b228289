package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Fetch     FetchConfig     `yaml:"fetch" envconfig:"FETCH"`
	Scheduler SchedulerConfig `yaml:"scheduler" envconfig:"SCHEDULER"`
	Tabular   TabularConfig   `yaml:"tabular" envconfig:"TABULAR"`
	River     RiverConfig     `yaml:"river" envconfig:"RIVER"`
	Rail      RailConfig      `yaml:"rail" envconfig:"RAIL"`
	Barge     BargeConfig     `yaml:"barge" envconfig:"BARGE"`
	Risk      RiskConfig      `yaml:"risk" envconfig:"RISK"`
	Backfill  BackfillConfig  `yaml:"backfill" envconfig:"BACKFILL"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"stdout" validate:"oneof=stdout file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/freightpulse.log"`
}

// ServerConfig contains the status API server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// FetchConfig bundles HTTP client and resilience settings for the
// upstream source fetchers.
type FetchConfig struct {
	Timeout         time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"60s"`
	MaxRetries      int           `yaml:"max_retries" envconfig:"MAX_RETRIES" default:"3" validate:"min=0"`
	InitialBackoff  time.Duration `yaml:"initial_backoff" envconfig:"INITIAL_BACKOFF" default:"1s"`
	MaxBackoff      time.Duration `yaml:"max_backoff" envconfig:"MAX_BACKOFF" default:"30s"`
	RequestsPerSec  float64       `yaml:"requests_per_sec" envconfig:"REQUESTS_PER_SEC" default:"2"`
	Burst           int           `yaml:"burst" envconfig:"BURST" default:"4"`
	UserAgent       string        `yaml:"user_agent" envconfig:"USER_AGENT" default:"freightpulse/1.0"`
	BreakerFailures uint32        `yaml:"breaker_failures" envconfig:"BREAKER_FAILURES" default:"5"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown" envconfig:"BREAKER_COOLDOWN" default:"60s"`
}

// SchedulerConfig controls daemon-mode periodic ingestion.
type SchedulerConfig struct {
	Enabled  bool          `yaml:"enabled" envconfig:"ENABLED" default:"false"`
	Interval time.Duration `yaml:"interval" envconfig:"INTERVAL" default:"6h"`
}

// TabularConfig bounds the spreadsheet layout detection heuristics.
type TabularConfig struct {
	HeaderScanRows   int `yaml:"header_scan_rows" envconfig:"HEADER_SCAN_ROWS" default:"50" validate:"min=1"`
	DateSampleRows   int `yaml:"date_sample_rows" envconfig:"DATE_SAMPLE_ROWS" default:"120" validate:"min=1"`
	MinDetectionHits int `yaml:"min_detection_hits" envconfig:"MIN_DETECTION_HITS" default:"5" validate:"min=1"`
	MaxSheets        int `yaml:"max_sheets" envconfig:"MAX_SHEETS" default:"12" validate:"min=1"`
}

// SiteConfig identifies a single USGS gauge site.
type SiteConfig struct {
	Key    string `yaml:"key"`
	SiteNo string `yaml:"site_no"`
	Label  string `yaml:"label"`
}

// RiverConfig configures the river stage signal.
type RiverConfig struct {
	IVEndpoint      string        `yaml:"iv_endpoint" envconfig:"IV_ENDPOINT" default:"https://waterservices.usgs.gov/nwis/iv/"`
	DVEndpoint      string        `yaml:"dv_endpoint" envconfig:"DV_ENDPOINT" default:"https://waterservices.usgs.gov/nwis/dv/"`
	Period          string        `yaml:"period" envconfig:"PERIOD" default:"P7D"`
	PrimarySiteKey  string        `yaml:"primary_site_key" envconfig:"PRIMARY_SITE_KEY" default:"st_louis_mo"`
	Sites           []SiteConfig  `yaml:"sites"`
	MaxSeriesPoints int           `yaml:"max_series_points" envconfig:"MAX_SERIES_POINTS" default:"96" validate:"min=2"`
	DeltaLag        time.Duration `yaml:"delta_lag" envconfig:"DELTA_LAG" default:"168h"`
}

// RailConfig configures the rail service-metrics signal.
type RailConfig struct {
	SourcePage      string        `yaml:"source_page" envconfig:"SOURCE_PAGE" default:"https://www.stb.gov/reports-data/rail-service-data/"`
	Carriers        []string      `yaml:"carriers" envconfig:"CARRIERS" default:"UP,BNSF"`
	PrimaryCarrier  string        `yaml:"primary_carrier" envconfig:"PRIMARY_CARRIER" default:"UP"`
	DeltaLag        time.Duration `yaml:"delta_lag" envconfig:"DELTA_LAG" default:"672h"`
	MinRowsForDelta int           `yaml:"min_rows_for_delta" envconfig:"MIN_ROWS_FOR_DELTA" default:"5" validate:"min=2"`
}

// BargeConfig configures the Locks 27 barge-count signal.
type BargeConfig struct {
	XlsxURL              string        `yaml:"xlsx_url" envconfig:"XLSX_URL" default:"https://www.ams.usda.gov/sites/default/files/media/GTRFigure10.xlsx"`
	DeltaLag             time.Duration `yaml:"delta_lag" envconfig:"DELTA_LAG" default:"672h"`
	MinRowsForDelta      int           `yaml:"min_rows_for_delta" envconfig:"MIN_ROWS_FOR_DELTA" default:"5" validate:"min=2"`
	PlaceholderWindow    int           `yaml:"placeholder_window" envconfig:"PLACEHOLDER_WINDOW" default:"7" validate:"min=3"`
	PlaceholderMinMedian float64       `yaml:"placeholder_min_median" envconfig:"PLACEHOLDER_MIN_MEDIAN" default:"10"`
}

// RiskConfig holds the fixed threshold rules for the composite score.
// These are calibrated constants, not learned parameters; the barge
// thresholds assume the count unit, not tons.
type RiskConfig struct {
	RiverDropFt       float64 `yaml:"river_drop_ft" envconfig:"RIVER_DROP_FT" default:"-2"`
	RiverDropPoints   float64 `yaml:"river_drop_points" envconfig:"RIVER_DROP_POINTS" default:"20"`
	RiverLowStageFt   float64 `yaml:"river_low_stage_ft" envconfig:"RIVER_LOW_STAGE_FT" default:"0"`
	RiverLowPoints    float64 `yaml:"river_low_points" envconfig:"RIVER_LOW_POINTS" default:"20"`
	RailMajorDeltaHrs float64 `yaml:"rail_major_delta_hrs" envconfig:"RAIL_MAJOR_DELTA_HRS" default:"2"`
	RailMajorPoints   float64 `yaml:"rail_major_points" envconfig:"RAIL_MAJOR_POINTS" default:"30"`
	RailWarnDeltaHrs  float64 `yaml:"rail_warn_delta_hrs" envconfig:"RAIL_WARN_DELTA_HRS" default:"0.5"`
	RailWarnPoints    float64 `yaml:"rail_warn_points" envconfig:"RAIL_WARN_POINTS" default:"15"`
	BargeMajorDrop    float64 `yaml:"barge_major_drop" envconfig:"BARGE_MAJOR_DROP" default:"-50"`
	BargeMajorPoints  float64 `yaml:"barge_major_points" envconfig:"BARGE_MAJOR_POINTS" default:"30"`
	BargeWarnDrop     float64 `yaml:"barge_warn_drop" envconfig:"BARGE_WARN_DROP" default:"-20"`
	BargeWarnPoints   float64 `yaml:"barge_warn_points" envconfig:"BARGE_WARN_POINTS" default:"15"`
	MaxScore          float64 `yaml:"max_score" envconfig:"MAX_SCORE" default:"100"`
	CriticalAbove     float64 `yaml:"critical_above" envconfig:"CRITICAL_ABOVE" default:"70"`
	ModerateAbove     float64 `yaml:"moderate_above" envconfig:"MODERATE_ABOVE" default:"40"`
}

// BackfillConfig controls historical risk reconstruction.
type BackfillConfig struct {
	DaysBack   int `yaml:"days_back" envconfig:"DAYS_BACK" default:"90" validate:"min=1"`
	BufferDays int `yaml:"buffer_days" envconfig:"BUFFER_DAYS" default:"10" validate:"min=0"`
}

// Load loads configuration in ascending precedence: struct defaults,
// then FREIGHTPULSE_* environment variables (a .env file is honored),
// then the optional YAML file.
func Load(configPath string) (*Config, error) {
	// Best effort; a missing .env file is not an error.
	_ = godotenv.Load()

	var cfg Config

	if err := envconfig.Process("FREIGHTPULSE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the built-in configuration without touching the
// environment or filesystem. Used by tests.
func Default() *Config {
	var cfg Config
	// envconfig fills the struct defaults; the throwaway prefix keeps
	// real FREIGHTPULSE_* variables out of the result.
	_ = envconfig.Process("FREIGHTPULSE_TEST_UNUSED", &cfg)
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if len(c.River.Sites) == 0 {
		c.River.Sites = []SiteConfig{
			{Key: "st_louis_mo", SiteNo: "07010000", Label: "Mississippi River at St. Louis, MO"},
			{Key: "memphis_tn", SiteNo: "07032000", Label: "Mississippi River at Memphis, TN"},
		}
	}
	if c.Paths.DataDir == "" {
		c.Paths.DataDir = "data"
	}
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if c.River.PrimarySite() == nil {
		return fmt.Errorf("config validation failed: primary site %q not in river.sites", c.River.PrimarySiteKey)
	}
	return nil
}

// PrimarySite returns the configured primary gauge site, or nil when
// the key does not match any configured site.
func (r *RiverConfig) PrimarySite() *SiteConfig {
	for i := range r.Sites {
		if r.Sites[i].Key == r.PrimarySiteKey {
			return &r.Sites[i]
		}
	}
	return nil
}

// LagDays converts a duration lag to whole days.
func LagDays(lag time.Duration) int {
	return int(lag / (24 * time.Hour))
}
