package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"freightpulse/internal/config"
	"freightpulse/internal/fetch"
	"freightpulse/internal/history"
	"freightpulse/internal/tabular"
	"freightpulse/pkg/contracts/domain"
)

// BargeUnit is the unit of the Locks 27 series. Weekly grain barge
// counts, not tonnage.
const BargeUnit = "count"

// BargeIngestor downloads the Grain Transportation Report Locks 27
// workbook and extracts the weekly barge-count series.
type BargeIngestor struct {
	cfg        config.BargeConfig
	client     *fetch.Client
	normalizer *tabular.Normalizer
	maxSheets  int
	logger     *slog.Logger
	now        func() time.Time
}

// NewBargeIngestor wires a barge ingestor.
func NewBargeIngestor(cfg config.BargeConfig, tab config.TabularConfig, client *fetch.Client, logger *slog.Logger) *BargeIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &BargeIngestor{
		cfg:        cfg,
		client:     client,
		normalizer: tabular.NewNormalizer(tab, logger),
		maxSheets:  tab.MaxSheets,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the ingestion timestamp source. Used by tests.
func (b *BargeIngestor) WithClock(now func() time.Time) *BargeIngestor {
	clone := *b
	clone.now = now
	return &clone
}

// Run downloads and parses the workbook into weekly observations.
func (b *BargeIngestor) Run(ctx context.Context) (history.Series, string, error) {
	b.logger.InfoContext(ctx, "downloading barge workbook", slog.String("url", b.cfg.XlsxURL))

	data, err := b.client.Get(ctx, b.cfg.XlsxURL)
	if err != nil {
		return nil, "", fmt.Errorf("barge workbook download failed: %w", err)
	}

	observations, err := b.Parse(data, b.cfg.XlsxURL)
	if err != nil {
		return nil, "", err
	}
	return observations, b.cfg.XlsxURL, nil
}

// Parse locates the date and total columns in the workbook and emits
// one observation per week.
func (b *BargeIngestor) Parse(data []byte, sourceURL string) (history.Series, error) {
	grid, err := tabular.GridFromWorkbook(config.SignalBarge, data, b.maxSheets)
	if err != nil {
		return nil, err
	}

	rows, err := b.normalizer.ExtractDateValue(config.SignalBarge, grid)
	if err != nil {
		return nil, err
	}

	ingested := b.now().UTC()
	out := make(history.Series, 0, len(rows))
	for _, row := range rows {
		out = append(out, history.Observation{
			Date:       row.Date,
			Value:      row.Value,
			SourceURL:  sourceURL,
			IngestedAt: ingested,
		})
	}
	out.Sort()

	b.logger.Info("barge workbook parsed", slog.Int("observations", len(out)))
	return out, nil
}

// BuildBargeStatus derives the barge status document from the merged
// history. The four-week delta is withheld while the series is shorter
// than minRows.
func BuildBargeStatus(merged history.Series, sourceURL string, deltaLag time.Duration, minRows int, now time.Time) *domain.BargeStatus {
	status := &domain.BargeStatus{
		GeneratedAtUTC: now.UTC(),
		Sources:        map[string]string{"locks_27": sourceURL},
		Locks27:        &domain.LockStatus{Unit: BargeUnit},
	}

	latest, ok := merged.Latest()
	if !ok {
		return status
	}

	week := latest.Date.Format(config.DayFormat)
	v := latest.Value
	status.Locks27.WeekEndDate = &week
	status.Locks27.Value = &v

	if len(merged) >= minRows {
		if prior, ok := history.ValueAsOf(merged, latest.Date.Add(-deltaLag)); ok {
			d := latest.Value - prior
			status.Locks27.Delta4w = &d
		}
	}
	return status
}
