package backfill

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightpulse/pkg/contracts/domain"
)

func row(ts string, score float64, level domain.RiskLevel, driver string) domain.RiskHistoryRow {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		panic(err)
	}
	return domain.RiskHistoryRow{Timestamp: t, RiskScore: score, RiskLevel: level, PrimaryDriver: driver}
}

func tempTable(t *testing.T) *Table {
	t.Helper()
	return NewTable(filepath.Join(t.TempDir(), "history", "risk_daily.csv"), nil)
}

func TestTable_LoadMissing(t *testing.T) {
	rows, err := tempTable(t).Load()
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestTable_WriteAllRoundTrip(t *testing.T) {
	table := tempTable(t)
	in := []domain.RiskHistoryRow{
		row("2025-05-12T12:00:00Z", 30, domain.RiskLevelLow, "rail"),
		row("2025-05-10T12:00:00Z", 0, domain.RiskLevelLow, "none"),
		row("2025-05-11T12:00:00Z", 45, domain.RiskLevelModerate, "river"),
	}

	require.NoError(t, table.WriteAll(in))

	out, err := table.Load()
	require.NoError(t, err)
	require.Len(t, out, 3)

	// Rewritten sorted ascending regardless of input order.
	assert.Equal(t, "none", out[0].PrimaryDriver)
	assert.Equal(t, "river", out[1].PrimaryDriver)
	assert.Equal(t, 45.0, out[1].RiskScore)
	assert.Equal(t, domain.RiskLevelModerate, out[1].RiskLevel)
	assert.Equal(t, "rail", out[2].PrimaryDriver)
}

func TestTable_UpsertDay(t *testing.T) {
	table := tempTable(t)
	require.NoError(t, table.WriteAll([]domain.RiskHistoryRow{
		row("2025-05-10T12:00:00Z", 0, domain.RiskLevelLow, "none"),
		row("2025-05-11T09:00:00Z", 30, domain.RiskLevelLow, "rail"),
	}))

	t.Run("same day replaced", func(t *testing.T) {
		require.NoError(t, table.UpsertDay(row("2025-05-11T15:00:00Z", 45, domain.RiskLevelModerate, "river")))

		rows, err := table.Load()
		require.NoError(t, err)
		require.Len(t, rows, 2, "at most one row per day")
		assert.Equal(t, 45.0, rows[1].RiskScore)
		assert.Equal(t, "river", rows[1].PrimaryDriver)
	})

	t.Run("new day appended, older rows untouched", func(t *testing.T) {
		require.NoError(t, table.UpsertDay(row("2025-05-12T15:00:00Z", 60, domain.RiskLevelModerate, "barge")))

		rows, err := table.Load()
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, 0.0, rows[0].RiskScore)
		assert.Equal(t, 45.0, rows[1].RiskScore)
		assert.Equal(t, 60.0, rows[2].RiskScore)
	})

	t.Run("idempotent for identical row", func(t *testing.T) {
		r := row("2025-05-12T15:00:00Z", 60, domain.RiskLevelModerate, "barge")
		require.NoError(t, table.UpsertDay(r))
		require.NoError(t, table.UpsertDay(r))

		rows, err := table.Load()
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})
}
