package tabular

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"freightpulse/internal/errors"
)

// GridFromWorkbook opens an xlsx payload and returns the widest
// readable sheet as a raw grid. Source workbooks bury the data sheet
// among chart and note sheets, so the widest one is taken as the data
// carrier.
func GridFromWorkbook(signal string, data []byte, maxSheets int) (Grid, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var best Grid
	bestWidth := 0

	sheets := f.GetSheetList()
	if maxSheets > 0 && len(sheets) > maxSheets {
		sheets = sheets[:maxSheets]
	}

	for _, name := range sheets {
		rows, err := f.GetRows(name)
		if err != nil || len(rows) == 0 {
			continue
		}
		grid := Grid(rows)
		if w := grid.Width(); w > bestWidth {
			bestWidth = w
			best = grid
		}
	}

	if best == nil {
		return nil, errors.NewParseError(signal, errors.StageSheet,
			"no readable sheet among %d sheets", len(sheets))
	}

	slog.Debug("workbook sheet selected",
		slog.String("signal", signal),
		slog.Int("width", bestWidth),
		slog.Int("rows", len(best)))

	return best, nil
}
