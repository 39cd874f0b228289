package tabular

import (
	"log/slog"
	"strings"
	"time"

	"freightpulse/internal/config"
	"freightpulse/internal/errors"
)

// Header vocabulary: a row qualifies as the header row when its
// normalized text mentions one of these tokens.
var headerVocabulary = []string{"date", "week", "ending"}

// Row is one canonical (date, value) output row.
type Row struct {
	Date  time.Time
	Value float64
}

// Normalizer locates header rows and target columns inside loosely
// structured grids.
type Normalizer struct {
	cfg    config.TabularConfig
	logger *slog.Logger
}

// NewNormalizer creates a Normalizer with the given detection bounds.
func NewNormalizer(cfg config.TabularConfig, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{cfg: cfg, logger: logger}
}

// ChooseHeaderRow scans the first rows of the grid for one that reads
// like a header: at least two text cells whose normalized blob
// mentions a vocabulary token. The first qualifying row wins; row 0
// is the fallback when nothing qualifies.
func (n *Normalizer) ChooseHeaderRow(grid Grid) int {
	limit := len(grid)
	if n.cfg.HeaderScanRows < limit {
		limit = n.cfg.HeaderScanRows
	}

	for i := 0; i < limit; i++ {
		var texts []string
		for _, cell := range grid[i] {
			if isTextCell(cell) {
				texts = append(texts, NormalizeHeader(cell))
			}
		}
		if len(texts) < 2 {
			continue
		}
		blob := strings.Join(texts, " ")
		for _, token := range headerVocabulary {
			if strings.Contains(blob, token) {
				return i
			}
		}
	}
	return 0
}

// DetectDateColumn samples each column's body cells and picks the one
// with the most successful date parses. Detection fails when the best
// column clears fewer hits than the confidence floor.
func (n *Normalizer) DetectDateColumn(signal string, body Grid) (int, error) {
	width := body.Width()
	best, bestHits := -1, -1

	sample := len(body)
	if n.cfg.DateSampleRows < sample {
		sample = n.cfg.DateSampleRows
	}

	for col := 0; col < width; col++ {
		hits := 0
		for row := 0; row < sample; row++ {
			if _, ok := ParseDay(body.Cell(row, col)); ok {
				hits++
			}
		}
		if hits > bestHits {
			bestHits = hits
			best = col
		}
	}

	if best < 0 || bestHits < n.cfg.MinDetectionHits {
		return -1, errors.NewParseError(signal, errors.StageDateColumn,
			"no column parsed as dates with confidence (best %d hits, need %d)",
			bestHits, n.cfg.MinDetectionHits)
	}

	n.logger.Debug("date column detected",
		slog.String("signal", signal),
		slog.Int("column", best),
		slog.Int("hits", bestHits))
	return best, nil
}

// DetectValueColumn prefers a column whose normalized header contains
// "total"; otherwise it falls back to the non-date column with the
// most numeric parses, subject to the same confidence floor.
func (n *Normalizer) DetectValueColumn(signal string, headers []string, body Grid, dateCol int) (int, error) {
	for col, h := range headers {
		if col == dateCol {
			continue
		}
		if strings.Contains(NormalizeHeader(h), "total") {
			n.logger.Debug("value column detected by header",
				slog.String("signal", signal),
				slog.Int("column", col),
				slog.String("header", h))
			return col, nil
		}
	}

	width := body.Width()
	best, bestHits := -1, -1
	for col := 0; col < width; col++ {
		if col == dateCol {
			continue
		}
		hits := 0
		for row := 0; row < len(body); row++ {
			if _, ok := parseNumber(body.Cell(row, col)); ok {
				hits++
			}
		}
		if hits > bestHits {
			bestHits = hits
			best = col
		}
	}

	if best < 0 || bestHits < n.cfg.MinDetectionHits {
		return -1, errors.NewParseError(signal, errors.StageValueColumn,
			"no numeric column with confidence (best %d hits, need %d)",
			bestHits, n.cfg.MinDetectionHits)
	}

	n.logger.Debug("value column detected by numeric density",
		slog.String("signal", signal),
		slog.Int("column", best),
		slog.Int("hits", bestHits))
	return best, nil
}

// ExtractDateValue runs the full simple-table pipeline: locate the
// header row, detect the date and value columns, and emit one row per
// parseable (date, value) pair, sorted in source order.
func (n *Normalizer) ExtractDateValue(signal string, grid Grid) ([]Row, error) {
	grid = grid.DropEmpty()
	if len(grid) < 2 {
		return nil, errors.NewParseError(signal, errors.StageHeader,
			"grid has %d usable rows", len(grid))
	}

	headerRow := n.ChooseHeaderRow(grid)
	headers := grid[headerRow]
	body := Grid(grid[headerRow+1:])

	dateCol, err := n.DetectDateColumn(signal, body)
	if err != nil {
		return nil, err
	}
	valueCol, err := n.DetectValueColumn(signal, headers, body, dateCol)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for i := 0; i < len(body); i++ {
		date, ok := ParseDay(body.Cell(i, dateCol))
		if !ok {
			continue
		}
		value, ok := parseNumber(body.Cell(i, valueCol))
		if !ok {
			continue
		}
		rows = append(rows, Row{Date: date, Value: value})
	}

	n.logger.Info("simple table extracted",
		slog.String("signal", signal),
		slog.Int("header_row", headerRow),
		slog.Int("date_column", dateCol),
		slog.Int("value_column", valueCol),
		slog.Int("rows", len(rows)))

	return rows, nil
}
