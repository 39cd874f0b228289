package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"freightpulse/internal/config"
	"freightpulse/internal/fetch"
	"freightpulse/internal/history"
)

func newTestClient(t *testing.T) *fetch.Client {
	t.Helper()
	cfg := config.Default().Fetch
	cfg.InitialBackoff = time.Millisecond
	cfg.RequestsPerSec = 1000
	cfg.Burst = 1000
	return fetch.NewClient(cfg, nil)
}

func buildWorkbook(t *testing.T, sheets map[string][][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func weekObs(t *testing.T, date, dimension string, value float64) history.Observation {
	t.Helper()
	d, err := history.ParseDay(date)
	require.NoError(t, err)
	return history.Observation{Date: d, Dimension: dimension, Value: value}
}
