package scheduler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"freightpulse/internal/app"
	"freightpulse/internal/config"
)

func TestScheduler_RunsCycleImmediately(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.Paths.LogsDir = filepath.Join(t.TempDir(), "logs")
	cfg.Fetch.MaxRetries = 0
	cfg.Fetch.InitialBackoff = time.Millisecond
	cfg.Fetch.Timeout = 100 * time.Millisecond
	// Unroutable upstreams: ingest fails, scoring still runs.
	cfg.River.IVEndpoint = "http://127.0.0.1:1/river"
	cfg.Rail.SourcePage = "http://127.0.0.1:1/rail"
	cfg.Barge.XlsxURL = "http://127.0.0.1:1/barge.xlsx"

	a, err := app.New(cfg)
	require.NoError(t, err)

	s := New(a, config.SchedulerConfig{Interval: time.Hour}, a.Logger)
	require.NoError(t, s.Start())
	defer s.Stop()

	// The immediate cycle scores on no data and writes the snapshot.
	snapshot := a.Paths.SnapshotFile
	require.Eventually(t, func() bool {
		_, err := os.Stat(snapshot)
		return err == nil
	}, 10*time.Second, 50*time.Millisecond)
}
