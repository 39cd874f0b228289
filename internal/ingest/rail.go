package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"freightpulse/internal/config"
	"freightpulse/internal/errors"
	"freightpulse/internal/fetch"
	"freightpulse/internal/history"
	"freightpulse/internal/tabular"
	"freightpulse/pkg/contracts/domain"
)

// Workbook links on the report page carry the publication date in the
// filename, e.g. rail-service-data-05-14-25.xlsx.
var (
	xlsxLinkRe     = regexp.MustCompile(`href="([^"]+\.xlsx)"`)
	filenameDateRe = regexp.MustCompile(`(\d{1,2})-(\d{1,2})-(\d{2,4})`)
)

// RailIngestor locates the newest STB service-metrics workbook,
// normalizes its pivoted layout, and emits per-carrier metric
// observations keyed as "CARRIER/metric".
type RailIngestor struct {
	cfg        config.RailConfig
	client     *fetch.Client
	normalizer *tabular.Normalizer
	maxSheets  int
	logger     *slog.Logger
	now        func() time.Time
}

// NewRailIngestor wires a rail ingestor.
func NewRailIngestor(cfg config.RailConfig, tab config.TabularConfig, client *fetch.Client, logger *slog.Logger) *RailIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &RailIngestor{
		cfg:        cfg,
		client:     client,
		normalizer: tabular.NewNormalizer(tab, logger),
		maxSheets:  tab.MaxSheets,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the ingestion timestamp source. Used by tests.
func (r *RailIngestor) WithClock(now func() time.Time) *RailIngestor {
	clone := *r
	clone.now = now
	return &clone
}

// Run discovers and downloads the newest workbook, then parses it into
// history observations. The returned string is the resolved workbook
// URL for provenance.
func (r *RailIngestor) Run(ctx context.Context) (history.Series, string, error) {
	workbookURL, err := r.DiscoverWorkbookURL(ctx)
	if err != nil {
		return nil, "", err
	}

	r.logger.InfoContext(ctx, "downloading rail workbook", slog.String("url", workbookURL))

	data, err := r.client.Get(ctx, workbookURL)
	if err != nil {
		return nil, "", fmt.Errorf("rail workbook download failed: %w", err)
	}

	observations, err := r.Parse(data, workbookURL)
	if err != nil {
		return nil, "", err
	}
	return observations, workbookURL, nil
}

// DiscoverWorkbookURL scrapes the report page for .xlsx links and
// picks the one whose filename encodes the newest date.
func (r *RailIngestor) DiscoverWorkbookURL(ctx context.Context) (string, error) {
	page, err := r.client.Get(ctx, r.cfg.SourcePage)
	if err != nil {
		return "", fmt.Errorf("rail source page fetch failed: %w", err)
	}

	links := xlsxLinkRe.FindAllStringSubmatch(string(page), -1)
	if len(links) == 0 {
		return "", errors.NewParseError(config.SignalRail, errors.StageSheet,
			"no .xlsx links on source page %s", r.cfg.SourcePage)
	}

	var bestURL string
	var bestDate time.Time
	for _, m := range links {
		link := m[1]
		date, ok := filenameDate(link)
		if !ok {
			continue
		}
		if bestURL == "" || date.After(bestDate) {
			bestURL, bestDate = link, date
		}
	}
	if bestURL == "" {
		// No dated filename; fall back to the first link on the page.
		bestURL = links[0][1]
	}

	resolved, err := resolveLink(r.cfg.SourcePage, bestURL)
	if err != nil {
		return "", fmt.Errorf("failed to resolve workbook link %q: %w", bestURL, err)
	}

	r.logger.InfoContext(ctx, "rail workbook discovered",
		slog.String("url", resolved),
		slog.String("file_date", bestDate.Format(config.DayFormat)),
		slog.Int("candidates", len(links)))
	return resolved, nil
}

// filenameDate extracts an MM-DD-YY(YY) date embedded in a link.
func filenameDate(link string) (time.Time, bool) {
	m := filenameDateRe.FindStringSubmatch(link)
	if m == nil {
		return time.Time{}, false
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if year < 100 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

func resolveLink(base, link string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(link)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(ref).String(), nil
}

// Parse normalizes the workbook's pivoted sheet into one observation
// per (week, carrier, metric), restricted to the configured carriers.
func (r *RailIngestor) Parse(data []byte, sourceURL string) (history.Series, error) {
	grid, err := tabular.GridFromWorkbook(config.SignalRail, data, r.maxSheets)
	if err != nil {
		return nil, err
	}

	rows, err := r.normalizer.MeltWide(config.SignalRail, grid,
		tabular.RailCarrierAliases(), tabular.RailMetricAliases())
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(r.cfg.Carriers))
	for _, c := range r.cfg.Carriers {
		wanted[c] = true
	}

	ingested := r.now().UTC()
	var out history.Series
	for _, row := range rows {
		if !wanted[row.Entity] {
			continue
		}
		for metric, value := range row.Metrics {
			out = append(out, history.Observation{
				Date:       row.Date,
				Dimension:  RailDimension(row.Entity, metric),
				Value:      value,
				SourceURL:  sourceURL,
				IngestedAt: ingested,
			})
		}
	}
	out.Sort()

	r.logger.Info("rail workbook parsed",
		slog.Int("entity_rows", len(rows)),
		slog.Int("observations", len(out)))
	return out, nil
}

// RailDimension encodes a (carrier, metric) pair as a history
// dimension.
func RailDimension(carrier, metric string) string {
	return carrier + "/" + metric
}

// BuildRailStatus derives the rail status document from the merged
// history: per carrier, the latest value of each metric and its
// four-week change. Deltas are withheld while the series is shorter
// than minRows, since an as-of lookup over a near-empty table would
// fabricate a zero change.
func BuildRailStatus(merged history.Series, carriers []string, metrics []string, sourcePage, sourceURL string, deltaLag time.Duration, minRows int, now time.Time) *domain.RailStatus {
	status := &domain.RailStatus{
		GeneratedAtUTC: now.UTC(),
		SourcePage:     sourcePage,
		SourceURL:      sourceURL,
		Carriers:       make(map[string]*domain.CarrierStatus, len(carriers)),
	}

	for _, carrier := range carriers {
		cs := &domain.CarrierStatus{Metrics: make(map[string]*domain.MetricReading, len(metrics))}

		for _, metric := range metrics {
			series := merged.FilterDimension(RailDimension(carrier, metric))
			reading := &domain.MetricReading{}

			if latest, ok := series.Latest(); ok {
				v := latest.Value
				reading.Value = &v

				week := latest.Date.Format(config.DayFormat)
				if cs.WeekEndDate == nil || week > *cs.WeekEndDate {
					cs.WeekEndDate = &week
				}

				if len(series) >= minRows {
					if prior, ok := history.ValueAsOf(series, latest.Date.Add(-deltaLag)); ok {
						d := latest.Value - prior
						reading.Delta4w = &d
					}
				}
			}
			cs.Metrics[metric] = reading
		}
		status.Carriers[carrier] = cs
	}
	return status
}
