package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathsConfig contains the file system layout configuration.
type PathsConfig struct {
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	LogsDir string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// Paths is the single source of truth for every file the application
// reads or writes under the data directory.
type Paths struct {
	DataDir    string
	HistoryDir string
	LogsDir    string

	RiverStatusFile string
	RailStatusFile  string
	BargeStatusFile string

	RiverHistoryFile string
	RailHistoryFile  string
	BargeHistoryFile string

	SnapshotFile    string
	RiskHistoryFile string
}

// NewPaths derives the concrete file layout from the configuration.
func NewPaths(cfg PathsConfig) *Paths {
	dataDir := cfg.DataDir
	historyDir := filepath.Join(dataDir, "history")

	return &Paths{
		DataDir:    dataDir,
		HistoryDir: historyDir,
		LogsDir:    cfg.LogsDir,

		RiverStatusFile: filepath.Join(dataDir, "river_status.json"),
		RailStatusFile:  filepath.Join(dataDir, "rail_status.json"),
		BargeStatusFile: filepath.Join(dataDir, "barge_status.json"),

		RiverHistoryFile: filepath.Join(historyDir, "river_daily.csv"),
		RailHistoryFile:  filepath.Join(historyDir, "rail_weekly.csv"),
		BargeHistoryFile: filepath.Join(historyDir, "barge_locks27_weekly.csv"),

		SnapshotFile:    filepath.Join(dataDir, "composite_risk_score.json"),
		RiskHistoryFile: filepath.Join(historyDir, "risk_daily.csv"),
	}
}

// EnsureDirectories creates the data and history directories.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.HistoryDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
