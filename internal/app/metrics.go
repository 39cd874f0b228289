package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ingestRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "freightpulse",
		Name:      "ingest_runs_total",
		Help:      "Ingest attempts per signal.",
	}, []string{"signal"})

	ingestFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "freightpulse",
		Name:      "ingest_failures_total",
		Help:      "Failed ingest attempts per signal.",
	}, []string{"signal"})

	ingestObservations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "freightpulse",
		Name:      "ingest_observations_total",
		Help:      "Observations merged into history tables per signal.",
	}, []string{"signal"})

	riskScore = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "freightpulse",
		Name:      "risk_score",
		Help:      "Latest composite supply-chain risk score.",
	})

	riskDriverScore = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "freightpulse",
		Name:      "risk_driver_score",
		Help:      "Latest per-driver contribution to the composite score.",
	}, []string{"driver"})
)
