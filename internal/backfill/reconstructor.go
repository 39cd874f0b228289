package backfill

import (
	"context"
	"log/slog"
	"time"

	"freightpulse/internal/config"
	"freightpulse/internal/history"
	"freightpulse/internal/risk"
	"freightpulse/pkg/contracts/domain"
)

// Reconstructor replays the risk scorer over a historical date range
// using as-of values from the full signal histories.
type Reconstructor struct {
	scorer   *risk.Scorer
	riverLag time.Duration
	railLag  time.Duration
	bargeLag time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewReconstructor wires a reconstructor from configuration.
func NewReconstructor(cfg *config.Config, scorer *risk.Scorer, logger *slog.Logger) *Reconstructor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconstructor{
		scorer:   scorer,
		riverLag: cfg.River.DeltaLag,
		railLag:  cfg.Rail.DeltaLag,
		bargeLag: cfg.Barge.DeltaLag,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the reconstruction reference time. Used by
// tests.
func (r *Reconstructor) WithClock(now func() time.Time) *Reconstructor {
	clone := *r
	clone.now = now
	return &clone
}

// Reconstruct computes one risk history row per calendar day in
// [today-daysBack, today-1]. Today itself is excluded: the live
// scoring path owns today's row, and two disagreeing rows for the
// same day must never coexist.
//
// Rows come back sorted ascending by date, ready for Table.WriteAll.
func (r *Reconstructor) Reconstruct(ctx context.Context, histories risk.SignalHistories, daysBack int) []domain.RiskHistoryRow {
	today := history.Day(r.now())

	r.logger.InfoContext(ctx, "reconstructing risk history",
		slog.Int("days_back", daysBack),
		slog.Int("river_points", len(histories.River)),
		slog.Int("rail_points", len(histories.Rail)),
		slog.Int("barge_points", len(histories.Barge)))

	rows := make([]domain.RiskHistoryRow, 0, daysBack)
	for offset := daysBack; offset >= 1; offset-- {
		day := today.AddDate(0, 0, -offset)

		inputs := risk.FromHistories(histories, day, r.riverLag, r.railLag, r.bargeLag)

		// Noon UTC keeps historical rows visually distinct from the
		// live rows stamped at generation time.
		stamp := day.Add(12 * time.Hour)
		snapshot := r.scorer.WithClock(func() time.Time { return stamp }).Score(inputs)

		rows = append(rows, domain.RiskHistoryRow{
			Timestamp:     stamp,
			RiskScore:     snapshot.RiskScore,
			RiskLevel:     snapshot.RiskLevel,
			PrimaryDriver: snapshot.PrimaryDriver,
		})
	}

	r.logger.InfoContext(ctx, "reconstruction complete", slog.Int("rows", len(rows)))
	return rows
}

// Run reconstructs the window and overwrites the destination table in
// full. Backfill is a full reconstruction, not an incremental update.
func (r *Reconstructor) Run(ctx context.Context, histories risk.SignalHistories, daysBack int, table *Table) error {
	rows := r.Reconstruct(ctx, histories, daysBack)
	return table.WriteAll(rows)
}
