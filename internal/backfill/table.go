package backfill

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"freightpulse/pkg/contracts/domain"
)

// Table persists the long-lived daily risk history as CSV.
type Table struct {
	path   string
	logger *slog.Logger
}

// NewTable creates a table handle for the risk history file.
func NewTable(path string, logger *slog.Logger) *Table {
	if logger == nil {
		logger = slog.Default()
	}
	return &Table{path: path, logger: logger}
}

// Path returns the backing file path.
func (t *Table) Path() string {
	return t.path
}

var tableHeader = []string{"timestamp_utc", "risk_score", "risk_level", "primary_driver"}

// Load reads all rows. A missing file yields an empty table.
func (t *Table) Load() ([]domain.RiskHistoryRow, error) {
	file, err := os.Open(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open risk history %s: %w", t.path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read risk history %s: %w", t.path, err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var rows []domain.RiskHistoryRow
	for i, rec := range records[1:] {
		if len(rec) < 4 {
			t.logger.Warn("skipping short risk history row", slog.Int("row", i+1))
			continue
		}
		ts, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			t.logger.Warn("skipping risk history row with bad timestamp",
				slog.Int("row", i+1), slog.String("timestamp", rec[0]))
			continue
		}
		score, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			t.logger.Warn("skipping risk history row with bad score",
				slog.Int("row", i+1), slog.String("score", rec[1]))
			continue
		}
		rows = append(rows, domain.RiskHistoryRow{
			Timestamp:     ts.UTC(),
			RiskScore:     score,
			RiskLevel:     domain.RiskLevel(rec[2]),
			PrimaryDriver: rec[3],
		})
	}
	return rows, nil
}

// WriteAll overwrites the table with the given rows sorted ascending
// by timestamp. Used by full reconstruction.
func (t *Table) WriteAll(rows []domain.RiskHistoryRow) error {
	sorted := make([]domain.RiskHistoryRow, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	if err := os.MkdirAll(filepath.Dir(t.path), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	file, err := os.Create(t.path)
	if err != nil {
		return fmt.Errorf("failed to create risk history %s: %w", t.path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(tableHeader); err != nil {
		return fmt.Errorf("failed to write risk history header: %w", err)
	}
	for _, row := range sorted {
		rec := []string{
			row.Timestamp.UTC().Format(time.RFC3339),
			strconv.FormatFloat(row.RiskScore, 'f', -1, 64),
			string(row.RiskLevel),
			row.PrimaryDriver,
		}
		if err := writer.Write(rec); err != nil {
			return fmt.Errorf("failed to write risk history row: %w", err)
		}
	}
	return writer.Error()
}

// UpsertDay removes any existing row on the same calendar day, then
// appends the new row, guaranteeing at most one row per day while
// leaving older rows untouched. Used by the live scoring path.
func (t *Table) UpsertDay(row domain.RiskHistoryRow) error {
	rows, err := t.Load()
	if err != nil {
		return err
	}

	day := row.Timestamp.UTC().Truncate(24 * time.Hour)
	kept := rows[:0]
	replaced := 0
	for _, r := range rows {
		if r.Timestamp.UTC().Truncate(24*time.Hour).Equal(day) {
			replaced++
			continue
		}
		kept = append(kept, r)
	}
	kept = append(kept, row)

	if replaced > 0 {
		t.logger.Info("replacing same-day risk history row",
			slog.String("day", day.Format("2006-01-02")),
			slog.Int("replaced", replaced))
	}

	return t.WriteAll(kept)
}
