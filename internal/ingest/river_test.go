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
)

// nwisFixture is a trimmed NWIS instantaneous-values document: two
// sites, gauge height plus discharge for the first, a sentinel and an
// unparseable reading mixed in.
const nwisFixture = `{
  "value": {
    "timeSeries": [
      {
        "sourceInfo": {
          "siteName": "Mississippi River at St. Louis, MO",
          "siteCode": [{"value": "07010000"}]
        },
        "variable": {"variableCode": [{"value": "00065"}]},
        "values": [{"value": [
          {"value": "5.2", "dateTime": "2025-05-13T06:00:00.000-05:00"},
          {"value": "4.8", "dateTime": "2025-05-14T06:00:00.000-05:00"},
          {"value": "4.1", "dateTime": "2025-05-15T06:00:00.000-05:00"},
          {"value": "4.0", "dateTime": "2025-05-15T12:00:00.000-05:00"},
          {"value": "-999999", "dateTime": "2025-05-16T00:00:00.000-05:00"},
          {"value": "Ice", "dateTime": "2025-05-16T03:00:00.000-05:00"},
          {"value": "3.6", "dateTime": "2025-05-16T06:00:00.000-05:00"}
        ]}]
      },
      {
        "sourceInfo": {
          "siteName": "Mississippi River at St. Louis, MO",
          "siteCode": [{"value": "07010000"}]
        },
        "variable": {"variableCode": [{"value": "00060"}]},
        "values": [{"value": [
          {"value": "142000", "dateTime": "2025-05-15T06:00:00.000-05:00"},
          {"value": "139000", "dateTime": "2025-05-16T06:00:00.000-05:00"}
        ]}]
      },
      {
        "sourceInfo": {
          "siteName": "Mississippi River at Memphis, TN",
          "siteCode": [{"value": "07032000"}]
        },
        "variable": {"variableCode": [{"value": "00065"}]},
        "values": [{"value": [
          {"value": "10.1", "dateTime": "2025-05-16T06:00:00.000-05:00"}
        ]}]
      }
    ]
  }
}`

func testRiverIngestor(t *testing.T, endpoint string) *RiverIngestor {
	t.Helper()
	cfg := config.Default().River
	cfg.IVEndpoint = endpoint
	cfg.DVEndpoint = endpoint
	ing := NewRiverIngestor(cfg, newTestClient(t), nil)
	return ing.WithClock(func() time.Time {
		return time.Date(2025, 5, 16, 18, 0, 0, 0, time.UTC)
	})
}

// dvFixture is a trimmed daily-values archive payload; DV timestamps
// carry no zone offset.
const dvFixture = `{
  "value": {
    "timeSeries": [
      {
        "sourceInfo": {"siteName": "Mississippi River at St. Louis, MO", "siteCode": [{"value": "07010000"}]},
        "variable": {"variableCode": [{"value": "00065"}]},
        "values": [{"value": [
          {"value": "6.0", "dateTime": "2025-05-10T00:00:00.000"},
          {"value": "5.6", "dateTime": "2025-05-11T00:00:00.000"},
          {"value": "5.2", "dateTime": "2025-05-12T00:00:00.000"}
        ]}]
      }
    ]
  }
}`

func TestRiverIngestor_Run(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, nwisFixture)
	}))
	defer srv.Close()

	status, observations, err := testRiverIngestor(t, srv.URL).Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "format=json")
	assert.Contains(t, gotQuery, "07010000%2C07032000")
	assert.Contains(t, gotQuery, "parameterCd=00065%2C00060")
	assert.Contains(t, gotQuery, "period=P7D")

	// Status document.
	require.Contains(t, status.Sites, "st_louis_mo")
	require.Contains(t, status.Sites, "memphis_tn")

	stl := status.Sites["st_louis_mo"]
	require.NotNil(t, stl.GageHeightFt)
	assert.Equal(t, 3.6, stl.GageHeightFt.LatestValue)
	assert.Equal(t, 5.2, stl.GageHeightFt.EarliestValue)
	assert.InDelta(t, -1.6, stl.GageHeightFt.Delta7d, 1e-9)
	assert.Equal(t, 5, stl.GageHeightFt.NPoints, "sentinel and unparseable readings dropped")
	require.NotNil(t, stl.DischargeCfs)
	assert.Equal(t, 139000.0, stl.DischargeCfs.LatestValue)

	mem := status.Sites["memphis_tn"]
	require.NotNil(t, mem.GageHeightFt)
	assert.Equal(t, 10.1, mem.GageHeightFt.LatestValue)
	assert.Nil(t, mem.DischargeCfs)

	// Daily observations: one per site per day, the day's last reading.
	byKey := map[string]float64{}
	for _, o := range observations {
		byKey[o.Key()] = o.Value
	}
	assert.Equal(t, 5.2, byKey["2025-05-13|st_louis_mo"])
	assert.Equal(t, 4.8, byKey["2025-05-14|st_louis_mo"])
	assert.Equal(t, 4.0, byKey["2025-05-15|st_louis_mo"], "later intraday reading wins")
	assert.Equal(t, 3.6, byKey["2025-05-16|st_louis_mo"])
	assert.Equal(t, 10.1, byKey["2025-05-16|memphis_tn"])
	assert.Len(t, observations, 5)
}

func TestRiverIngestor_FetchDailyHistory(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, dvFixture)
	}))
	defer srv.Close()

	obs, err := testRiverIngestor(t, srv.URL).FetchDailyHistory(context.Background(), 100)
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "statCd=00003")
	assert.Contains(t, gotQuery, "period=P100D")
	assert.Contains(t, gotQuery, "parameterCd=00065")

	require.Len(t, obs, 3)
	assert.Equal(t, "2025-05-10", obs[0].Date.Format("2006-01-02"))
	assert.Equal(t, 6.0, obs[0].Value)
	assert.Equal(t, "st_louis_mo", obs[0].Dimension)
	assert.Equal(t, 5.2, obs[2].Value)
}

func TestRiverIngestor_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, _, err := testRiverIngestor(t, srv.URL).Run(context.Background())
	assert.Error(t, err)
}

func TestParseRiverPayload_Malformed(t *testing.T) {
	_, err := parseRiverPayload([]byte("<html>down for maintenance</html>"))
	assert.Error(t, err)
}

func TestDownsample(t *testing.T) {
	points := make([]Point, 10)
	base := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	for i := range points {
		points[i] = Point{Time: base.Add(time.Duration(i) * time.Hour), Value: float64(i)}
	}

	t.Run("short series untouched", func(t *testing.T) {
		assert.Len(t, Downsample(points, 96), 10)
	})

	t.Run("thinned with last point retained", func(t *testing.T) {
		out := Downsample(points, 4)
		require.NotEmpty(t, out)
		assert.LessOrEqual(t, len(out), 5)
		assert.Equal(t, points[0], out[0])
		assert.Equal(t, points[9], out[len(out)-1])
	})
}

func TestSummarize_Empty(t *testing.T) {
	assert.Nil(t, Summarize(nil, 96))
}

func TestSummarize_SlopeSpansWindow(t *testing.T) {
	base := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	points := []Point{
		{Time: base, Value: 6.0},
		{Time: base.Add(48 * time.Hour), Value: 4.0},
	}

	s := Summarize(points, 96)
	require.NotNil(t, s)
	assert.InDelta(t, -2.0, s.Delta7d, 1e-9)
	assert.InDelta(t, -1.0, s.SlopePerDay, 1e-9)
	assert.Equal(t, 2, s.Series7d.NPointsRaw)
}
