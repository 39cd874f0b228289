package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"freightpulse/internal/config"
	"freightpulse/internal/fetch"
	"freightpulse/internal/history"
	"freightpulse/pkg/contracts/domain"
)

// USGS uses large negative sentinels for missing readings.
const usgsMissingFloor = -99999.0

// Point is one timestamped gauge reading.
type Point struct {
	Time  time.Time
	Value float64
}

// RiverIngestor fetches USGS NWIS instantaneous values for the
// configured gauge sites and produces the river status document plus
// daily history observations.
type RiverIngestor struct {
	cfg    config.RiverConfig
	client *fetch.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewRiverIngestor wires a river ingestor.
func NewRiverIngestor(cfg config.RiverConfig, client *fetch.Client, logger *slog.Logger) *RiverIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &RiverIngestor{cfg: cfg, client: client, logger: logger, now: time.Now}
}

// WithClock overrides the document timestamp source. Used by tests.
func (r *RiverIngestor) WithClock(now func() time.Time) *RiverIngestor {
	clone := *r
	clone.now = now
	return &clone
}

// Run fetches the instantaneous-values payload and converts it into
// the status document and daily observations for the history table.
func (r *RiverIngestor) Run(ctx context.Context) (*domain.RiverStatus, history.Series, error) {
	endpoint := r.requestURL()

	r.logger.InfoContext(ctx, "fetching river gauges",
		slog.String("endpoint", r.cfg.IVEndpoint),
		slog.String("period", r.cfg.Period),
		slog.Int("sites", len(r.cfg.Sites)))

	data, err := r.client.Get(ctx, endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("river fetch failed: %w", err)
	}

	bySite, err := parseRiverPayload(data)
	if err != nil {
		return nil, nil, err
	}

	status := r.buildStatus(bySite)
	observations := r.dailyObservations(bySite, endpoint)

	r.logger.InfoContext(ctx, "river ingest complete",
		slog.Int("sites_with_data", len(bySite)),
		slog.Int("observations", len(observations)))

	return status, observations, nil
}

// FetchDailyHistory retrieves the DV (daily values) archive for the
// configured sites and returns one gage-height observation per site
// per day. The live IV feed only spans the fetch period, so backfill
// seeds the history table from this archive first.
func (r *RiverIngestor) FetchDailyHistory(ctx context.Context, days int) (history.Series, error) {
	endpoint := r.dailyURL(days)

	r.logger.InfoContext(ctx, "fetching river daily archive",
		slog.String("endpoint", r.cfg.DVEndpoint),
		slog.Int("days", days))

	data, err := r.client.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("river daily archive fetch failed: %w", err)
	}

	bySite, err := parseRiverPayload(data)
	if err != nil {
		return nil, err
	}
	return r.dailyObservations(bySite, endpoint), nil
}

func (r *RiverIngestor) dailyURL(days int) string {
	siteNos := make([]string, 0, len(r.cfg.Sites))
	for _, s := range r.cfg.Sites {
		siteNos = append(siteNos, s.SiteNo)
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("sites", strings.Join(siteNos, ","))
	q.Set("parameterCd", config.PcodeGageHeightFt)
	q.Set("statCd", config.StatCdDailyMean)
	q.Set("period", fmt.Sprintf("P%dD", days))
	q.Set("siteStatus", "all")

	return r.cfg.DVEndpoint + "?" + q.Encode()
}

func (r *RiverIngestor) requestURL() string {
	siteNos := make([]string, 0, len(r.cfg.Sites))
	for _, s := range r.cfg.Sites {
		siteNos = append(siteNos, s.SiteNo)
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("sites", strings.Join(siteNos, ","))
	q.Set("parameterCd", config.PcodeGageHeightFt+","+config.PcodeDischargeCfs)
	q.Set("period", r.cfg.Period)
	q.Set("siteStatus", "all")

	return r.cfg.IVEndpoint + "?" + q.Encode()
}

// NWIS JSON payload shapes, reduced to the fields consumed here.
type usgsPayload struct {
	Value struct {
		TimeSeries []usgsTimeSeries `json:"timeSeries"`
	} `json:"value"`
}

type usgsTimeSeries struct {
	SourceInfo struct {
		SiteName string     `json:"siteName"`
		SiteCode []usgsCode `json:"siteCode"`
	} `json:"sourceInfo"`
	Variable struct {
		VariableCode []usgsCode `json:"variableCode"`
	} `json:"variable"`
	Values []struct {
		Value []usgsPoint `json:"value"`
	} `json:"values"`
}

type usgsCode struct {
	Value string `json:"value"`
}

type usgsPoint struct {
	Value    string `json:"value"`
	DateTime string `json:"dateTime"`
}

// parseRiverPayload flattens the NWIS document into per-site,
// per-parameter point series sorted ascending by time. Unparseable and
// sentinel readings are dropped.
func parseRiverPayload(data []byte) (map[string]map[string][]Point, error) {
	var payload usgsPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse NWIS payload: %w", err)
	}

	bySite := make(map[string]map[string][]Point)
	for _, ts := range payload.Value.TimeSeries {
		if len(ts.SourceInfo.SiteCode) == 0 || len(ts.Variable.VariableCode) == 0 {
			continue
		}
		siteNo := ts.SourceInfo.SiteCode[0].Value
		pcode := ts.Variable.VariableCode[0].Value

		var points []Point
		for _, block := range ts.Values {
			for _, p := range block.Value {
				value, err := strconv.ParseFloat(p.Value, 64)
				if err != nil || value < usgsMissingFloor {
					continue
				}
				when, ok := parseNWISTime(p.DateTime)
				if !ok {
					continue
				}
				points = append(points, Point{Time: when, Value: value})
			}
		}
		if len(points) == 0 {
			continue
		}
		sort.Slice(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })

		if bySite[siteNo] == nil {
			bySite[siteNo] = make(map[string][]Point)
		}
		// Multiple value blocks for one parameter merge in time order.
		bySite[siteNo][pcode] = mergePoints(bySite[siteNo][pcode], points)
	}
	return bySite, nil
}

// IV timestamps carry a zone offset; DV archive timestamps do not.
var nwisTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseNWISTime(s string) (time.Time, bool) {
	for _, layout := range nwisTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func mergePoints(a, b []Point) []Point {
	out := append(append([]Point{}, a...), b...)
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// Downsample thins a point series to roughly max points by stride
// sampling, always retaining the final point so the latest reading
// survives.
func Downsample(points []Point, max int) []Point {
	if max < 2 || len(points) <= max {
		return points
	}

	stride := (len(points) + max - 1) / max
	out := make([]Point, 0, max)
	for i := 0; i < len(points); i += stride {
		out = append(out, points[i])
	}
	if last := points[len(points)-1]; out[len(out)-1].Time != last.Time {
		out = append(out, last)
	}
	return out
}

// Summarize reduces a point series to the metric summary embedded in
// the status document. Delta and slope span the whole fetch window.
func Summarize(points []Point, maxSeriesPoints int) *domain.MetricSummary {
	if len(points) == 0 {
		return nil
	}

	earliest := points[0]
	latest := points[len(points)-1]
	delta := latest.Value - earliest.Value

	slope := 0.0
	if span := latest.Time.Sub(earliest.Time); span > 0 {
		slope = delta / span.Hours() * 24
	}

	spark := Downsample(points, maxSeriesPoints)
	series := &domain.SparkSeries{
		NPointsRaw: len(points),
		NPoints:    len(spark),
		TimesUTC:   make([]time.Time, len(spark)),
		Values:     make([]float64, len(spark)),
	}
	for i, p := range spark {
		series.TimesUTC[i] = p.Time
		series.Values[i] = p.Value
	}

	return &domain.MetricSummary{
		LatestUTC:     latest.Time,
		LatestValue:   latest.Value,
		EarliestUTC:   earliest.Time,
		EarliestValue: earliest.Value,
		Delta7d:       delta,
		SlopePerDay:   slope,
		NPoints:       len(points),
		Series7d:      series,
	}
}

func (r *RiverIngestor) buildStatus(bySite map[string]map[string][]Point) *domain.RiverStatus {
	status := &domain.RiverStatus{
		GeneratedAtUTC: r.now().UTC(),
		Period:         r.cfg.Period,
		Source: domain.RiverSource{
			Provider: "USGS NWIS",
			Endpoint: r.cfg.IVEndpoint,
			ParameterCodes: map[string]string{
				"gage_height_ft": config.PcodeGageHeightFt,
				"discharge_cfs":  config.PcodeDischargeCfs,
			},
		},
		Sites: make(map[string]*domain.RiverSite, len(r.cfg.Sites)),
	}

	for _, site := range r.cfg.Sites {
		entry := &domain.RiverSite{SiteNo: site.SiteNo, Label: site.Label}
		if params := bySite[site.SiteNo]; params != nil {
			entry.GageHeightFt = Summarize(params[config.PcodeGageHeightFt], r.cfg.MaxSeriesPoints)
			entry.DischargeCfs = Summarize(params[config.PcodeDischargeCfs], r.cfg.MaxSeriesPoints)
		}
		status.Sites[site.Key] = entry
	}
	return status
}

// dailyObservations collapses the gage-height series to one
// observation per site per calendar day (the day's last reading),
// keyed by the site key as dimension.
func (r *RiverIngestor) dailyObservations(bySite map[string]map[string][]Point, sourceURL string) history.Series {
	ingested := r.now().UTC()

	var out history.Series
	for _, site := range r.cfg.Sites {
		params := bySite[site.SiteNo]
		if params == nil {
			continue
		}
		points := params[config.PcodeGageHeightFt]
		if len(points) == 0 {
			continue
		}

		// Sorted ascending, so later points overwrite earlier ones
		// within the same day.
		byDay := make(map[time.Time]float64)
		for _, p := range points {
			byDay[history.Day(p.Time)] = p.Value
		}

		for day, value := range byDay {
			out = append(out, history.Observation{
				Date:       day,
				Dimension:  site.Key,
				Value:      value,
				SourceURL:  sourceURL,
				IngestedAt: ingested,
			})
		}
	}
	out.Sort()
	return out
}
