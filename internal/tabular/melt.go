package tabular

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"freightpulse/internal/config"
	"freightpulse/internal/errors"
)

// LongRow is one melted cell from a pivoted wide table, keyed by
// (date, entity, metric).
type LongRow struct {
	Date   time.Time
	Entity string
	Metric string
	Value  float64
}

// EntityRow is the re-pivoted output: one row per (date, entity) with
// one value per canonical metric. Duplicate cells for the same key
// are aggregated by mean.
type EntityRow struct {
	Date    time.Time
	Entity  string
	Metrics map[string]float64
}

// MeltWide handles the pivoted source format where dates appear as
// column headers: it locates the entity and measure columns, melts
// every (row, week-column) cell into a long row, resolves entity and
// metric aliases (dropping unmapped rows silently), and pivots back
// into one row per (date, entity).
func (n *Normalizer) MeltWide(signal string, grid Grid, entities EntityAliases, metrics MetricAliases) ([]EntityRow, error) {
	grid = grid.DropEmpty()
	if len(grid) < 2 {
		return nil, errors.NewParseError(signal, errors.StageHeader,
			"grid has %d usable rows", len(grid))
	}

	headerRow := n.ChooseHeaderRow(grid)
	headers := grid[headerRow]
	body := Grid(grid[headerRow+1:])

	entityCol := findEntityColumn(headers)
	measureCol := findMeasureColumn(headers)
	if measureCol < 0 {
		return nil, errors.NewParseError(signal, errors.StageMeasureColumn,
			"sheet missing a measure column, cannot map metrics")
	}

	weekCols := detectWeekColumns(headers)
	if len(weekCols) == 0 {
		return nil, errors.NewParseError(signal, errors.StageWeekColumns,
			"no week date columns found")
	}

	long := n.melt(body, headers, entityCol, measureCol, weekCols, entities, metrics)

	n.logger.Info("wide table melted",
		slog.String("signal", signal),
		slog.Int("header_row", headerRow),
		slog.Int("entity_column", entityCol),
		slog.Int("measure_column", measureCol),
		slog.Int("week_columns", len(weekCols)),
		slog.Int("long_rows", len(long)))

	return pivot(long), nil
}

// findEntityColumn prefers a column whose header mentions the
// railroad/region vocabulary; column 0 is the fallback.
func findEntityColumn(headers []string) int {
	for col, h := range headers {
		norm := NormalizeHeader(h)
		if strings.Contains(norm, "railroad") || strings.Contains(norm, "region") || strings.Contains(norm, "carrier") {
			return col
		}
	}
	return 0
}

func findMeasureColumn(headers []string) int {
	for col, h := range headers {
		if strings.Contains(NormalizeHeader(h), "measure") {
			return col
		}
	}
	return -1
}

func detectWeekColumns(headers []string) []int {
	var cols []int
	for col, h := range headers {
		if looksLikeDateHeader(h) {
			cols = append(cols, col)
		}
	}
	return cols
}

func (n *Normalizer) melt(body Grid, headers []string, entityCol, measureCol int, weekCols []int, entities EntityAliases, metrics MetricAliases) []LongRow {
	// Week header dates parse once per column.
	weekDates := make(map[int]time.Time, len(weekCols))
	for _, col := range weekCols {
		if date, ok := ParseDay(headers[col]); ok {
			weekDates[col] = date
		} else if m := isoFragmentRe.FindString(headers[col]); m != "" {
			if date, ok := ParseDay(strings.ReplaceAll(m, "/", "-")); ok {
				weekDates[col] = date
			}
		}
	}

	var long []LongRow
	for i := 0; i < len(body); i++ {
		entity, ok := entities.Canonical(body.Cell(i, entityCol))
		if !ok {
			continue
		}
		metric, ok := metrics.Canonical(body.Cell(i, measureCol))
		if !ok {
			continue
		}

		for _, col := range weekCols {
			date, ok := weekDates[col]
			if !ok {
				continue
			}
			value, ok := parseNumber(body.Cell(i, col))
			if !ok {
				continue
			}
			long = append(long, LongRow{Date: date, Entity: entity, Metric: metric, Value: value})
		}
	}
	return long
}

// pivot groups long rows by (date, entity) and averages duplicate
// cells per metric.
func pivot(long []LongRow) []EntityRow {
	type accum struct {
		sum   float64
		count int
	}

	groups := make(map[string]map[string]*accum)
	dates := make(map[string]time.Time)
	entities := make(map[string]string)

	for _, r := range long {
		key := r.Date.Format(config.DayFormat) + "|" + r.Entity
		if groups[key] == nil {
			groups[key] = make(map[string]*accum)
			dates[key] = r.Date
			entities[key] = r.Entity
		}
		a := groups[key][r.Metric]
		if a == nil {
			a = &accum{}
			groups[key][r.Metric] = a
		}
		a.sum += r.Value
		a.count++
	}

	out := make([]EntityRow, 0, len(groups))
	for key, metricAccums := range groups {
		row := EntityRow{
			Date:    dates[key],
			Entity:  entities[key],
			Metrics: make(map[string]float64, len(metricAccums)),
		}
		for metric, a := range metricAccums {
			row.Metrics[metric] = a.sum / float64(a.count)
		}
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Entity < out[j].Entity
	})
	return out
}
