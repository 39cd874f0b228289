package history

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"freightpulse/internal/config"
)

// StoreOptions configures a history table's persistence behavior.
type StoreOptions struct {
	// SuppressPlaceholderZero enables the trailing-zero heuristic on
	// merge. Used for the barge table, where the publisher emits
	// placeholder zeros.
	SuppressPlaceholderZero bool
	PlaceholderWindow       int
	PlaceholderMinMedian    float64
}

// Store persists one signal's observation series as a CSV file. The
// whole file is loaded at the start of a run, extended via Merge, and
// rewritten wholesale.
type Store struct {
	path   string
	opts   StoreOptions
	logger *slog.Logger
}

// NewStore creates a store for the history file at path.
func NewStore(path string, opts StoreOptions, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, opts: opts, logger: logger}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

var csvHeader = []string{"date", "dimension", "value", "source_url", "ingested_at_utc"}

// Column-name aliases accepted on read, so tables written by earlier
// pipeline revisions (week_end_date, total_tons, carrier) keep
// loading.
var (
	dateAliases      = []string{"date", "week_end_date", "week_ending", "day"}
	valueAliases     = []string{"value", "total_barges", "total_tons", "gage_height_ft", "stage_ft"}
	dimensionAliases = []string{"dimension", "carrier", "site"}
	sourceAliases    = []string{"source_url"}
	ingestedAliases  = []string{"ingested_at_utc", "ingested_at"}
)

// Load reads the whole history table. A missing file yields an empty
// series, not an error.
func (s *Store) Load() (Series, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open history file %s: %w", s.path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read history file %s: %w", s.path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	cols, err := mapColumns(records[0])
	if err != nil {
		return nil, fmt.Errorf("history file %s: %w", s.path, err)
	}

	var series Series
	for i, rec := range records[1:] {
		obs, ok := parseRecord(rec, cols)
		if !ok {
			s.logger.Warn("skipping unparseable history row",
				slog.String("file", s.path),
				slog.Int("row", i+1))
			continue
		}
		series = append(series, obs)
	}

	series.Sort()
	return series, nil
}

// Save rewrites the whole history table sorted ascending.
func (s *Store) Save(series Series) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	file, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create history file %s: %w", s.path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write history header: %w", err)
	}

	for _, o := range series {
		rec := []string{
			o.Date.Format(config.DayFormat),
			o.Dimension,
			strconv.FormatFloat(o.Value, 'f', -1, 64),
			o.SourceURL,
			o.IngestedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(rec); err != nil {
			return fmt.Errorf("failed to write history row: %w", err)
		}
	}

	return writer.Error()
}

// Merge loads the existing table, merges the incoming observations
// with last-write-wins semantics, optionally suppresses a trailing
// placeholder zero, persists the result, and returns it.
func (s *Store) Merge(ctx context.Context, incoming Series) (Series, error) {
	existing, err := s.Load()
	if err != nil {
		return nil, err
	}

	merged := Merge(existing, incoming)

	if s.opts.SuppressPlaceholderZero {
		trimmed, note, dropped := SuppressTrailingPlaceholder(
			merged, s.opts.PlaceholderWindow, s.opts.PlaceholderMinMedian)
		if dropped {
			s.logger.InfoContext(ctx, "placeholder row suppressed",
				slog.String("file", s.path),
				slog.String("note", note))
			merged = trimmed
		}
	}

	if err := s.Save(merged); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "history table updated",
		slog.String("file", s.path),
		slog.Int("incoming_rows", len(incoming)),
		slog.Int("existing_rows", len(existing)),
		slog.Int("total_rows", len(merged)))

	return merged, nil
}

type columnIndexes struct {
	date      int
	value     int
	dimension int
	source    int
	ingested  int
}

func mapColumns(header []string) (columnIndexes, error) {
	cols := columnIndexes{date: -1, value: -1, dimension: -1, source: -1, ingested: -1}
	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case cols.date < 0 && contains(dateAliases, name):
			cols.date = i
		case cols.value < 0 && contains(valueAliases, name):
			cols.value = i
		case cols.dimension < 0 && contains(dimensionAliases, name):
			cols.dimension = i
		case cols.source < 0 && contains(sourceAliases, name):
			cols.source = i
		case cols.ingested < 0 && contains(ingestedAliases, name):
			cols.ingested = i
		}
	}
	if cols.date < 0 || cols.value < 0 {
		return cols, fmt.Errorf("unrecognized history header: %v", header)
	}
	return cols, nil
}

func parseRecord(rec []string, cols columnIndexes) (Observation, bool) {
	get := func(idx int) string {
		if idx >= 0 && idx < len(rec) {
			return strings.TrimSpace(rec[idx])
		}
		return ""
	}

	date, err := ParseDay(get(cols.date))
	if err != nil {
		return Observation{}, false
	}
	value, err := strconv.ParseFloat(get(cols.value), 64)
	if err != nil {
		return Observation{}, false
	}

	obs := Observation{
		Date:      date,
		Dimension: get(cols.dimension),
		Value:     value,
		SourceURL: get(cols.source),
	}
	if raw := get(cols.ingested); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			obs.IngestedAt = ts.UTC()
		}
	}
	return obs, true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
