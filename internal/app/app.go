package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"freightpulse/internal/backfill"
	"freightpulse/internal/config"
	"freightpulse/internal/fetch"
	"freightpulse/internal/history"
	"freightpulse/internal/infrastructure"
	"freightpulse/internal/ingest"
	"freightpulse/internal/risk"
	"freightpulse/pkg/contracts/domain"
)

// Application is the dependency container for the pipeline.
type Application struct {
	Config *config.Config
	Paths  *config.Paths
	Logger *slog.Logger

	client *fetch.Client
	river  *ingest.RiverIngestor
	rail   *ingest.RailIngestor
	barge  *ingest.BargeIngestor

	riverStore *history.Store
	railStore  *history.Store
	bargeStore *history.Store

	scorer        *risk.Scorer
	riskTable     *backfill.Table
	reconstructor *backfill.Reconstructor

	now func() time.Time
}

// New constructs the application from configuration, initializing the
// logger and creating the data directories.
func New(cfg *config.Config) (*Application, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	paths := config.NewPaths(cfg.Paths)
	if err := paths.EnsureDirectories(); err != nil {
		return nil, err
	}

	client := fetch.NewClient(cfg.Fetch, logger)
	scorer := risk.NewScorer(cfg.Risk, logger)

	app := &Application{
		Config: cfg,
		Paths:  paths,
		Logger: logger,

		client: client,
		river:  ingest.NewRiverIngestor(cfg.River, client, logger),
		rail:   ingest.NewRailIngestor(cfg.Rail, cfg.Tabular, client, logger),
		barge:  ingest.NewBargeIngestor(cfg.Barge, cfg.Tabular, client, logger),

		riverStore: history.NewStore(paths.RiverHistoryFile, history.StoreOptions{}, logger),
		railStore:  history.NewStore(paths.RailHistoryFile, history.StoreOptions{}, logger),
		bargeStore: history.NewStore(paths.BargeHistoryFile, history.StoreOptions{
			SuppressPlaceholderZero: true,
			PlaceholderWindow:       cfg.Barge.PlaceholderWindow,
			PlaceholderMinMedian:    cfg.Barge.PlaceholderMinMedian,
		}, logger),

		scorer:        scorer,
		riskTable:     backfill.NewTable(paths.RiskHistoryFile, logger),
		reconstructor: backfill.NewReconstructor(cfg, scorer, logger),

		now: time.Now,
	}
	return app, nil
}

// RiskTable exposes the risk history table for the status API.
func (a *Application) RiskTable() *backfill.Table {
	return a.riskTable
}

// AllSignals lists the ingestable signals in driver evaluation order.
func AllSignals() []string {
	return []string{config.SignalRiver, config.SignalRail, config.SignalBarge}
}

// RunIngest ingests the requested signals, each in isolation: one
// broken upstream must not block the others. An error is returned only
// when every requested signal failed.
func (a *Application) RunIngest(ctx context.Context, signals []string) error {
	if len(signals) == 0 {
		signals = AllSignals()
	}
	ctx = infrastructure.WithRunID(ctx, uuid.NewString())

	var failures []error
	for _, signal := range signals {
		ingestRuns.WithLabelValues(signal).Inc()

		var err error
		switch signal {
		case config.SignalRiver:
			err = a.ingestRiver(ctx)
		case config.SignalRail:
			err = a.ingestRail(ctx)
		case config.SignalBarge:
			err = a.ingestBarge(ctx)
		default:
			err = fmt.Errorf("unknown signal %q", signal)
		}

		if err != nil {
			ingestFailures.WithLabelValues(signal).Inc()
			a.Logger.ErrorContext(ctx, "signal ingest failed",
				slog.String("signal", signal),
				slog.String("error", err.Error()))
			failures = append(failures, fmt.Errorf("%s: %w", signal, err))
		}
	}

	if len(failures) == len(signals) {
		return fmt.Errorf("all signals failed: %w", errors.Join(failures...))
	}
	return nil
}

func (a *Application) ingestRiver(ctx context.Context) error {
	status, observations, err := a.river.Run(ctx)
	if err != nil {
		return err
	}
	if _, err := a.riverStore.Merge(ctx, observations); err != nil {
		return err
	}
	ingestObservations.WithLabelValues(config.SignalRiver).Add(float64(len(observations)))
	return ingest.WriteDocument(a.Paths.RiverStatusFile, status)
}

func (a *Application) ingestRail(ctx context.Context) error {
	observations, sourceURL, err := a.rail.Run(ctx)
	if err != nil {
		return err
	}
	merged, err := a.railStore.Merge(ctx, observations)
	if err != nil {
		return err
	}
	ingestObservations.WithLabelValues(config.SignalRail).Add(float64(len(observations)))

	status := ingest.BuildRailStatus(merged,
		a.Config.Rail.Carriers,
		[]string{config.MetricTerminalDwellHrs, config.MetricTrainSpeedMph},
		a.Config.Rail.SourcePage, sourceURL,
		a.Config.Rail.DeltaLag, a.Config.Rail.MinRowsForDelta,
		a.now())
	return ingest.WriteDocument(a.Paths.RailStatusFile, status)
}

func (a *Application) ingestBarge(ctx context.Context) error {
	observations, sourceURL, err := a.barge.Run(ctx)
	if err != nil {
		return err
	}
	merged, err := a.bargeStore.Merge(ctx, observations)
	if err != nil {
		return err
	}
	ingestObservations.WithLabelValues(config.SignalBarge).Add(float64(len(observations)))

	status := ingest.BuildBargeStatus(merged, sourceURL,
		a.Config.Barge.DeltaLag, a.Config.Barge.MinRowsForDelta, a.now())
	return ingest.WriteDocument(a.Paths.BargeStatusFile, status)
}

// RunScore derives the composite risk snapshot from the current status
// documents, persists it only when its content changed, and upserts
// today's row into the risk history.
func (a *Application) RunScore(ctx context.Context) (*domain.RiskSnapshot, error) {
	ctx = infrastructure.WithRunID(ctx, uuid.NewString())

	river, rail, barge := a.readStatusDocuments(ctx)

	inputs := risk.FromStatusDocuments(river, rail, barge,
		a.Config.River.PrimarySiteKey,
		a.Config.Rail.PrimaryCarrier,
		config.MetricTerminalDwellHrs)

	snapshot := a.scorer.Score(inputs)

	riskScore.Set(snapshot.RiskScore)
	for _, d := range snapshot.Drivers {
		riskDriverScore.WithLabelValues(d.Name).Set(d.Score)
	}

	written, err := risk.WriteSnapshotIfChanged(a.Paths.SnapshotFile, snapshot)
	if err != nil {
		return nil, err
	}

	if err := a.riskTable.UpsertDay(domain.RiskHistoryRow{
		Timestamp:     snapshot.GeneratedAtUTC,
		RiskScore:     snapshot.RiskScore,
		RiskLevel:     snapshot.RiskLevel,
		PrimaryDriver: snapshot.PrimaryDriver,
	}); err != nil {
		return nil, err
	}

	a.Logger.InfoContext(ctx, "risk snapshot scored",
		slog.Float64("score", snapshot.RiskScore),
		slog.String("level", string(snapshot.RiskLevel)),
		slog.String("primary_driver", snapshot.PrimaryDriver),
		slog.Bool("snapshot_written", written))

	return &snapshot, nil
}

// readStatusDocuments loads whichever status documents exist. Missing
// or unreadable documents degrade to nil so scoring stays operable on
// partial data.
func (a *Application) readStatusDocuments(ctx context.Context) (*domain.RiverStatus, *domain.RailStatus, *domain.BargeStatus) {
	var river domain.RiverStatus
	riverPtr := &river
	if err := ingest.ReadDocument(a.Paths.RiverStatusFile, &river); err != nil {
		a.warnMissingDocument(ctx, config.SignalRiver, a.Paths.RiverStatusFile, err)
		riverPtr = nil
	}

	var rail domain.RailStatus
	railPtr := &rail
	if err := ingest.ReadDocument(a.Paths.RailStatusFile, &rail); err != nil {
		a.warnMissingDocument(ctx, config.SignalRail, a.Paths.RailStatusFile, err)
		railPtr = nil
	}

	var barge domain.BargeStatus
	bargePtr := &barge
	if err := ingest.ReadDocument(a.Paths.BargeStatusFile, &barge); err != nil {
		a.warnMissingDocument(ctx, config.SignalBarge, a.Paths.BargeStatusFile, err)
		bargePtr = nil
	}

	return riverPtr, railPtr, bargePtr
}

func (a *Application) warnMissingDocument(ctx context.Context, signal, path string, err error) {
	if os.IsNotExist(err) {
		a.Logger.WarnContext(ctx, "status document missing, signal treated as no-data",
			slog.String("signal", signal), slog.String("path", path))
		return
	}
	a.Logger.ErrorContext(ctx, "status document unreadable, signal treated as no-data",
		slog.String("signal", signal), slog.String("path", path),
		slog.String("error", err.Error()))
}

// RunBackfill reconstructs the historical risk table from the signal
// history files.
func (a *Application) RunBackfill(ctx context.Context, daysBack int) error {
	ctx = infrastructure.WithRunID(ctx, uuid.NewString())
	if daysBack <= 0 {
		daysBack = a.Config.Backfill.DaysBack
	}

	// Seed the river history from the daily-values archive: the live
	// feed only covers the fetch period, far short of the window. A
	// failed seed degrades to whatever history is cached.
	archiveDays := daysBack + a.Config.Backfill.BufferDays
	if seed, err := a.river.FetchDailyHistory(ctx, archiveDays); err != nil {
		a.Logger.WarnContext(ctx, "river daily archive unavailable, using cached history",
			slog.String("error", err.Error()))
	} else if _, err := a.riverStore.Merge(ctx, seed); err != nil {
		return err
	}

	histories, err := a.loadSignalHistories()
	if err != nil {
		return err
	}
	return a.reconstructor.Run(ctx, histories, daysBack, a.riskTable)
}

// loadSignalHistories reads the history tables and narrows each to the
// series the scorer consumes: the primary gauge site, the primary
// carrier's dwell metric, and the single barge series.
func (a *Application) loadSignalHistories() (risk.SignalHistories, error) {
	var h risk.SignalHistories

	river, err := a.riverStore.Load()
	if err != nil {
		return h, err
	}
	rail, err := a.railStore.Load()
	if err != nil {
		return h, err
	}
	barge, err := a.bargeStore.Load()
	if err != nil {
		return h, err
	}

	h.River = river.FilterDimension(a.Config.River.PrimarySiteKey)
	h.Rail = rail.FilterDimension(ingest.RailDimension(a.Config.Rail.PrimaryCarrier, config.MetricTerminalDwellHrs))
	h.Barge = barge.FilterDimension("")
	return h, nil
}

// Close releases application resources.
func (a *Application) Close() {
	infrastructure.CloseLogFile()
}
