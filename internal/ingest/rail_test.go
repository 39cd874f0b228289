package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightpulse/internal/config"
	"freightpulse/internal/history"
)

func testRailIngestor(t *testing.T, sourcePage string) *RailIngestor {
	t.Helper()
	cfg := config.Default()
	cfg.Rail.SourcePage = sourcePage
	ing := NewRailIngestor(cfg.Rail, cfg.Tabular, newTestClient(t), nil)
	return ing.WithClock(func() time.Time {
		return time.Date(2025, 5, 16, 18, 0, 0, 0, time.UTC)
	})
}

func TestFilenameDate(t *testing.T) {
	cases := []struct {
		link string
		want string
		ok   bool
	}{
		{"/reports/rail-service-data-05-14-25.xlsx", "2025-05-14", true},
		{"/reports/rail-service-data-12-31-2024.xlsx", "2024-12-31", true},
		{"/reports/archive.xlsx", "", false},
		{"/reports/data-13-40-25.xlsx", "", false},
	}
	for _, c := range cases {
		got, ok := filenameDate(c.link)
		assert.Equal(t, c.ok, ok, c.link)
		if c.ok {
			assert.Equal(t, c.want, got.Format("2006-01-02"), c.link)
		}
	}
}

func TestDiscoverWorkbookURL_PicksNewestDatedLink(t *testing.T) {
	page := `<html><body>
		<a href="/files/rail-service-data-05-07-25.xlsx">May 7</a>
		<a href="/files/rail-service-data-05-14-25.xlsx">May 14</a>
		<a href="/files/rail-service-data-04-30-25.xlsx">Apr 30</a>
	</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	url, err := testRailIngestor(t, srv.URL).DiscoverWorkbookURL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/files/rail-service-data-05-14-25.xlsx", url, "relative link resolved against the page URL")
}

func TestDiscoverWorkbookURL_NoLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>maintenance</body></html>")
	}))
	defer srv.Close()

	_, err := testRailIngestor(t, srv.URL).DiscoverWorkbookURL(context.Background())
	assert.Error(t, err)
}

func TestDiscoverWorkbookURL_UndatedFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<a href="/files/current.xlsx">Current</a>`)
	}))
	defer srv.Close()

	url, err := testRailIngestor(t, srv.URL).DiscoverWorkbookURL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/files/current.xlsx", url)
}

func TestRailParse(t *testing.T) {
	data := buildWorkbook(t, map[string][][]interface{}{
		"Service Metrics": {
			{"Railroad/Region", "Measure", "2025-04-26", "2025-05-03", "2025-05-10"},
			{"Union Pacific - System", "Terminal Dwell (Hours)", 23.0, 23.5, 24.1},
			{"Union Pacific - System", "Train Speed (MPH)", 19.2, 19.0, 18.7},
			{"BNSF Railway - System", "Terminal Dwell (Hours)", 21.8, 21.5, 21.9},
			{"CSX Transportation", "Terminal Dwell (Hours)", 26.0, 25.8, 25.5},
		},
	})

	obs, err := testRailIngestor(t, "unused").Parse(data, "https://example.gov/data.xlsx")
	require.NoError(t, err)

	byKey := map[string]float64{}
	for _, o := range obs {
		byKey[o.Key()] = o.Value
	}

	// Configured carriers only; CSX rows are dropped.
	assert.Equal(t, 24.1, byKey["2025-05-10|UP/terminal_dwell_hours"])
	assert.Equal(t, 18.7, byKey["2025-05-10|UP/train_speed_mph"])
	assert.Equal(t, 21.8, byKey["2025-04-26|BNSF/terminal_dwell_hours"])
	assert.Len(t, obs, 9, "2 UP metrics + 1 BNSF metric over 3 weeks")

	for _, o := range obs {
		assert.Equal(t, "https://example.gov/data.xlsx", o.SourceURL)
	}
}

func TestRailParse_NotAWorkbook(t *testing.T) {
	_, err := testRailIngestor(t, "unused").Parse([]byte("nope"), "src")
	assert.Error(t, err)
}

func TestBuildRailStatus(t *testing.T) {
	merged := history.Series{
		weekObs(t, "2025-04-05", "UP/terminal_dwell_hours", 22),
		weekObs(t, "2025-04-12", "UP/terminal_dwell_hours", 23),
		weekObs(t, "2025-04-19", "UP/terminal_dwell_hours", 24),
		weekObs(t, "2025-04-26", "UP/terminal_dwell_hours", 25),
		weekObs(t, "2025-05-03", "UP/terminal_dwell_hours", 26),
		weekObs(t, "2025-05-10", "UP/terminal_dwell_hours", 27),
		weekObs(t, "2025-05-10", "UP/train_speed_mph", 18.7),
		weekObs(t, "2025-05-10", "BNSF/terminal_dwell_hours", 21.9),
	}

	now := time.Date(2025, 5, 16, 18, 0, 0, 0, time.UTC)
	status := BuildRailStatus(merged,
		[]string{"UP", "BNSF"},
		[]string{"terminal_dwell_hours", "train_speed_mph"},
		"https://example.gov/page", "https://example.gov/data.xlsx",
		672*time.Hour, 5, now)

	assert.Equal(t, now, status.GeneratedAtUTC)

	up := status.Carriers["UP"]
	require.NotNil(t, up)
	require.NotNil(t, up.WeekEndDate)
	assert.Equal(t, "2025-05-10", *up.WeekEndDate)

	dwell := up.Metrics["terminal_dwell_hours"]
	require.NotNil(t, dwell)
	require.NotNil(t, dwell.Value)
	assert.Equal(t, 27.0, *dwell.Value)
	require.NotNil(t, dwell.Delta4w)
	assert.Equal(t, 4.0, *dwell.Delta4w, "latest minus the as-of value four weeks back")

	// Single-week series: value present, delta withheld.
	speed := up.Metrics["train_speed_mph"]
	require.NotNil(t, speed)
	require.NotNil(t, speed.Value)
	assert.Equal(t, 18.7, *speed.Value)
	assert.Nil(t, speed.Delta4w)

	bnsf := status.Carriers["BNSF"]
	require.NotNil(t, bnsf)
	require.NotNil(t, bnsf.Metrics["terminal_dwell_hours"].Value)
	assert.Nil(t, bnsf.Metrics["terminal_dwell_hours"].Delta4w)
}

func TestBuildRailStatus_EmptyHistory(t *testing.T) {
	status := BuildRailStatus(nil, []string{"UP"}, []string{"terminal_dwell_hours"},
		"page", "", 672*time.Hour, 5, time.Now())

	up := status.Carriers["UP"]
	require.NotNil(t, up)
	assert.Nil(t, up.WeekEndDate)
	assert.Nil(t, up.Metrics["terminal_dwell_hours"].Value)
	assert.Nil(t, up.Metrics["terminal_dwell_hours"].Delta4w)
}
