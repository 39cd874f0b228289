package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightpulse/internal/config"
	"freightpulse/internal/history"
	"freightpulse/pkg/contracts/domain"
)

func TestFromStatusDocuments(t *testing.T) {
	river := &domain.RiverStatus{
		Sites: map[string]*domain.RiverSite{
			"st_louis_mo": {
				SiteNo: "07010000",
				GageHeightFt: &domain.MetricSummary{
					LatestValue: -0.5,
					Delta7d:     -3.0,
				},
			},
		},
	}
	rail := &domain.RailStatus{
		Carriers: map[string]*domain.CarrierStatus{
			"UP": {
				Metrics: map[string]*domain.MetricReading{
					config.MetricTerminalDwellHrs: {Value: ptr(24.1), Delta4w: ptr(2.5)},
				},
			},
		},
	}
	barge := &domain.BargeStatus{
		Locks27: &domain.LockStatus{Value: ptr(295.0), Delta4w: ptr(-15.0), Unit: "count"},
	}

	in := FromStatusDocuments(river, rail, barge, "st_louis_mo", "UP", config.MetricTerminalDwellHrs)

	require.NotNil(t, in.RiverStage)
	assert.Equal(t, -0.5, *in.RiverStage)
	assert.Equal(t, -3.0, in.RiverDelta7d)
	assert.Equal(t, 2.5, in.RailDwellDelta28d)
	assert.Equal(t, -15.0, in.BargeCountDelta28d)
}

func TestFromStatusDocuments_AllMissing(t *testing.T) {
	in := FromStatusDocuments(nil, nil, nil, "st_louis_mo", "UP", config.MetricTerminalDwellHrs)

	assert.Nil(t, in.RiverStage)
	assert.Zero(t, in.RiverDelta7d)
	assert.Zero(t, in.RailDwellDelta28d)
	assert.Zero(t, in.BargeCountDelta28d)
}

func TestFromStatusDocuments_PartialDocuments(t *testing.T) {
	t.Run("site without gage height", func(t *testing.T) {
		river := &domain.RiverStatus{
			Sites: map[string]*domain.RiverSite{"st_louis_mo": {SiteNo: "07010000"}},
		}
		in := FromStatusDocuments(river, nil, nil, "st_louis_mo", "UP", config.MetricTerminalDwellHrs)
		assert.Nil(t, in.RiverStage)
	})

	t.Run("wrong primary carrier", func(t *testing.T) {
		rail := &domain.RailStatus{
			Carriers: map[string]*domain.CarrierStatus{
				"BNSF": {Metrics: map[string]*domain.MetricReading{
					config.MetricTerminalDwellHrs: {Delta4w: ptr(3.0)},
				}},
			},
		}
		in := FromStatusDocuments(nil, rail, nil, "st_louis_mo", "UP", config.MetricTerminalDwellHrs)
		assert.Zero(t, in.RailDwellDelta28d)
	})

	t.Run("reading without delta", func(t *testing.T) {
		rail := &domain.RailStatus{
			Carriers: map[string]*domain.CarrierStatus{
				"UP": {Metrics: map[string]*domain.MetricReading{
					config.MetricTerminalDwellHrs: {Value: ptr(24.1)},
				}},
			},
		}
		in := FromStatusDocuments(nil, rail, nil, "st_louis_mo", "UP", config.MetricTerminalDwellHrs)
		assert.Zero(t, in.RailDwellDelta28d)
	})

	t.Run("barge without locks block", func(t *testing.T) {
		in := FromStatusDocuments(nil, nil, &domain.BargeStatus{}, "st_louis_mo", "UP", config.MetricTerminalDwellHrs)
		assert.Zero(t, in.BargeCountDelta28d)
	})
}

func TestFromHistories(t *testing.T) {
	mk := func(date string, v float64) history.Observation {
		d, err := history.ParseDay(date)
		require.NoError(t, err)
		return history.Observation{Date: d, Value: v}
	}

	h := SignalHistories{
		River: history.Series{mk("2025-05-01", 4.0), mk("2025-05-08", 1.0)},
		Rail:  history.Series{mk("2025-04-12", 22.0), mk("2025-05-10", 24.5)},
		Barge: history.Series{mk("2025-04-12", 320), mk("2025-05-10", 260)},
	}

	week := 7 * 24 * time.Hour
	in := FromHistories(h, mustDay(t, "2025-05-10"), week, 4*week, 4*week)

	require.NotNil(t, in.RiverStage)
	assert.Equal(t, 1.0, *in.RiverStage)
	assert.Equal(t, -3.0, in.RiverDelta7d)
	assert.Equal(t, 2.5, in.RailDwellDelta28d)
	assert.Equal(t, -60.0, in.BargeCountDelta28d)
}

func TestFromHistories_EmptySeries(t *testing.T) {
	week := 7 * 24 * time.Hour
	in := FromHistories(SignalHistories{}, mustDay(t, "2025-05-10"), week, 4*week, 4*week)

	assert.Nil(t, in.RiverStage)
	assert.Zero(t, in.RiverDelta7d)
	assert.Zero(t, in.RailDwellDelta28d)
	assert.Zero(t, in.BargeCountDelta28d)
}

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := history.ParseDay(s)
	require.NoError(t, err)
	return d
}
