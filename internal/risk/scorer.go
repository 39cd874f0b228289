package risk

import (
	"log/slog"
	"time"

	"freightpulse/internal/config"
	"freightpulse/pkg/contracts/domain"
)

// Inputs are the extracted features for one scoring run. RiverStage
// is nil when no stage reading is known, which skips the absolute
// low-water rule; deltas default to 0.0, contributing no score.
type Inputs struct {
	RiverStage         *float64
	RiverDelta7d       float64
	RailDwellDelta28d  float64
	BargeCountDelta28d float64
}

// Scorer applies the weighted threshold rules.
type Scorer struct {
	cfg    config.RiskConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewScorer creates a scorer with the given thresholds.
func NewScorer(cfg config.RiskConfig, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{cfg: cfg, logger: logger, now: time.Now}
}

// WithClock overrides the timestamp source. Used by backfill and
// tests.
func (s *Scorer) WithClock(now func() time.Time) *Scorer {
	clone := *s
	clone.now = now
	return &clone
}

// Score maps the inputs through the threshold rules into per-driver
// scores, sums them into the clamped composite, classifies the level,
// and selects the primary driver.
func (s *Scorer) Score(in Inputs) domain.RiskSnapshot {
	riverScore := s.scoreRiver(in)
	railScore := s.scoreRail(in)
	bargeScore := s.scoreBarge(in)

	drivers := []domain.DriverScore{
		{
			Name:  config.SignalRiver,
			Score: riverScore,
			Raw: map[string]interface{}{
				"delta_7d_ft":     in.RiverDelta7d,
				"latest_stage_ft": floatOrNil(in.RiverStage),
			},
		},
		{
			Name:  config.SignalRail,
			Score: railScore,
			Raw: map[string]interface{}{
				"up_dwell_delta_4w_hours": in.RailDwellDelta28d,
			},
		},
		{
			Name:  config.SignalBarge,
			Score: bargeScore,
			Raw: map[string]interface{}{
				"locks27_delta_4w_count": in.BargeCountDelta28d,
			},
		},
	}

	total := riverScore + railScore + bargeScore
	if total > s.cfg.MaxScore {
		total = s.cfg.MaxScore
	}
	if total < 0 {
		total = 0
	}

	return domain.RiskSnapshot{
		GeneratedAtUTC: s.now().UTC(),
		RiskScore:      total,
		RiskLevel:      s.classify(total),
		PrimaryDriver:  primaryDriver(drivers),
		Drivers:        drivers,
	}
}

// scoreRiver applies the river rules. The two rules are independent
// and additive: a fast drop and an already-low absolute stage are
// distinct hazards that compound.
func (s *Scorer) scoreRiver(in Inputs) float64 {
	score := 0.0
	if in.RiverDelta7d < s.cfg.RiverDropFt {
		score += s.cfg.RiverDropPoints
	}
	if in.RiverStage != nil && *in.RiverStage < s.cfg.RiverLowStageFt {
		score += s.cfg.RiverLowPoints
	}
	return score
}

// scoreRail applies mutually exclusive tiers, highest threshold first.
func (s *Scorer) scoreRail(in Inputs) float64 {
	switch {
	case in.RailDwellDelta28d > s.cfg.RailMajorDeltaHrs:
		return s.cfg.RailMajorPoints
	case in.RailDwellDelta28d > s.cfg.RailWarnDeltaHrs:
		return s.cfg.RailWarnPoints
	}
	return 0
}

// scoreBarge applies mutually exclusive tiers, highest threshold
// first. Thresholds are calibrated for barge counts, not tons.
func (s *Scorer) scoreBarge(in Inputs) float64 {
	switch {
	case in.BargeCountDelta28d < s.cfg.BargeMajorDrop:
		return s.cfg.BargeMajorPoints
	case in.BargeCountDelta28d < s.cfg.BargeWarnDrop:
		return s.cfg.BargeWarnPoints
	}
	return 0
}

func (s *Scorer) classify(total float64) domain.RiskLevel {
	switch {
	case total > s.cfg.CriticalAbove:
		return domain.RiskLevelCritical
	case total > s.cfg.ModerateAbove:
		return domain.RiskLevelModerate
	}
	return domain.RiskLevelLow
}

// primaryDriver picks the driver with the strictly maximum score;
// ties break toward evaluation order since only a strictly greater
// score displaces the current maximum. When nothing scored, the
// sentinel "none" is reported.
func primaryDriver(drivers []domain.DriverScore) string {
	primary := domain.PrimaryDriverNone
	best := 0.0
	for _, d := range drivers {
		if d.Score > best {
			best = d.Score
			primary = d.Name
		}
	}
	return primary
}

func floatOrNil(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
