package risk

import (
	"time"

	"freightpulse/internal/history"
	"freightpulse/pkg/contracts/domain"
)

// FromStatusDocuments extracts scoring inputs from the three status
// documents. Any document, and any field inside one, may be missing:
// a missing rail feed must not prevent a river-only score, so absent
// values degrade to the neutral defaults rather than erroring.
func FromStatusDocuments(river *domain.RiverStatus, rail *domain.RailStatus, barge *domain.BargeStatus, primarySiteKey, primaryCarrier, dwellMetric string) Inputs {
	var in Inputs

	if river != nil {
		if site := river.Sites[primarySiteKey]; site != nil && site.GageHeightFt != nil {
			stage := site.GageHeightFt.LatestValue
			in.RiverStage = &stage
			in.RiverDelta7d = site.GageHeightFt.Delta7d
		}
	}

	if rail != nil {
		if carrier := rail.Carriers[primaryCarrier]; carrier != nil {
			if reading := carrier.Metrics[dwellMetric]; reading != nil && reading.Delta4w != nil {
				in.RailDwellDelta28d = *reading.Delta4w
			}
		}
	}

	if barge != nil && barge.Locks27 != nil && barge.Locks27.Delta4w != nil {
		in.BargeCountDelta28d = *barge.Locks27.Delta4w
	}

	return in
}

// SignalHistories bundles the full per-signal history series used for
// backfill reconstruction.
type SignalHistories struct {
	River history.Series
	Rail  history.Series
	Barge history.Series
}

// FromHistories re-derives the scoring inputs for an arbitrary past
// day via as-of lookups against the full histories, so a historical
// score is a pure function of the data known for that day.
func FromHistories(h SignalHistories, date time.Time, riverLag, railLag, bargeLag time.Duration) Inputs {
	var in Inputs

	if stage, ok := history.ValueAsOf(h.River, date); ok {
		in.RiverStage = &stage
		in.RiverDelta7d = history.Delta(h.River, date, riverLag)
	}

	in.RailDwellDelta28d = history.Delta(h.Rail, date, railLag)
	in.BargeCountDelta28d = history.Delta(h.Barge, date, bargeLag)

	return in
}
