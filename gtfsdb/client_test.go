package gtfsdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klinck004/ntta/internal/appconf"
)

func TestNewClient_InvalidConfigHandling(t *testing.T) {
	config := Config{
		DBPath: filepath.Join(t.TempDir(), "ntta.db"),
		Env:    appconf.Test,
	}

	client, err := NewClient(config)
	assert.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "test database must use in-memory storage")
}

func TestNewClient_InMemoryUsesSingleConnection(t *testing.T) {
	client := newTestClient(t)

	assert.NotNil(t, client.Queries)
	assert.Equal(t, 1, client.DB.Stats().MaxOpenConnections)
	assert.NoError(t, client.Ping(context.Background()))
}

func TestNewClient_FileDatabase(t *testing.T) {
	config := NewConfig(filepath.Join(t.TempDir(), "ntta.db"), appconf.Development, false)

	client, err := NewClient(config)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	assert.Equal(t, 25, client.DB.Stats().MaxOpenConnections)
}

func TestTableCounts_EmptyDatabase(t *testing.T) {
	client := newTestClient(t)

	counts, err := client.TableCounts(context.Background())
	require.NoError(t, err)
	assert.Len(t, counts, len(staticTables))
	for table, count := range counts {
		assert.Zero(t, count, table)
	}
}

func TestImport_StoresFeed(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	err := client.processAndStoreGTFSDataWithSource(ctx, buildFeedZip(t, sampleFeedFiles()), "test-source")
	require.NoError(t, err)

	counts, err := client.TableCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts["routes"])
	assert.Equal(t, 3, counts["stops"])
	assert.Equal(t, 3, counts["trips"])
	assert.Equal(t, 6, counts["stop_times"])
	assert.Equal(t, 2, counts["calendar"])
	assert.Equal(t, 2, counts["calendar_dates"])

	route, err := client.Queries.GetRoute(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, "King", route.LongName)
	assert.Equal(t, "TT", route.AgencyID)

	stop, err := client.Queries.GetStop(ctx, "S2")
	require.NoError(t, err)
	assert.InDelta(t, 43.66, stop.Lat, 1e-9)

	trip, err := client.Queries.GetTrip(ctx, "T2")
	require.NoError(t, err)
	assert.Equal(t, "Uptown", trip.Headsign)
	assert.Equal(t, 1, trip.DirectionID)

	stopTimes, err := client.Queries.GetStopTimesForTrip(ctx, "T2")
	require.NoError(t, err)
	require.Len(t, stopTimes, 2)
	assert.Equal(t, int64(25*3600+600), stopTimes[0].ArrivalTime, "post-midnight times are kept past 24h")

	calendars, err := client.Queries.ListCalendarsCoveringDate(ctx, "20240701")
	require.NoError(t, err)
	require.Len(t, calendars, 2)
	assert.Equal(t, "HOL", calendars[0].ServiceID)
	assert.Equal(t, [7]bool{}, calendars[0].Days)
	assert.Equal(t, "WK", calendars[1].ServiceID)
	assert.Equal(t, "20240101", calendars[1].StartDate)

	exceptions, err := client.Queries.ListCalendarDatesOn(ctx, "20240701")
	require.NoError(t, err)
	assert.ElementsMatch(t, []CalendarDate{
		{ServiceID: "HOL", Date: "20240701", ExceptionType: ExceptionAdded},
		{ServiceID: "WK", Date: "20240701", ExceptionType: ExceptionRemoved},
	}, exceptions)
}

func TestImport_SkipsUnchangedAndReplacesChanged(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	files := sampleFeedFiles()
	require.NoError(t, client.processAndStoreGTFSDataWithSource(ctx, buildFeedZip(t, files), "a"))

	// rows written outside the import survive a skipped import
	require.NoError(t, client.Queries.CreateRoute(ctx, Route{ID: "EXTRA", Type: 3}))
	data := buildFeedZip(t, files)
	require.NoError(t, client.processAndStoreGTFSDataWithSource(ctx, data, "a"))
	require.NoError(t, client.processAndStoreGTFSDataWithSource(ctx, data, "a"))

	counts, err := client.TableCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, counts["routes"])

	// R2 goes away together with its only trip
	files["routes.txt"] = "route_id,agency_id,route_short_name,route_long_name,route_type\nR1,TT,1,King,3\n"
	files["trips.txt"] = "route_id,service_id,trip_id,trip_headsign,direction_id\n" +
		"R1,WK,T1,Downtown,0\n" +
		"R1,WK,T2,Uptown,1\n"
	files["stop_times.txt"] = strings.TrimSuffix(files["stop_times.txt"], "T3,12:00:00,12:00:00,S2,1\n")
	require.NoError(t, client.processAndStoreGTFSDataWithSource(ctx, buildFeedZip(t, files), "a"))

	counts, err = client.TableCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts["routes"], "a changed feed replaces previous rows")
	assert.Equal(t, 2, counts["trips"])
	assert.Equal(t, 5, counts["stop_times"])
}

func TestImport_StopTimeOfUnknownTripIsAnError(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.processAndStoreGTFSDataWithSource(ctx, buildFeedZip(t, sampleFeedFiles()), "a"))

	files := sampleFeedFiles()
	files["stop_times.txt"] += "T404,13:00:00,13:00:00,S1,1\n"

	var err error
	assert.NotPanics(t, func() {
		err = client.processAndStoreGTFSDataWithSource(ctx, buildFeedZip(t, files), "b")
	})
	assert.ErrorContains(t, err, "parsing static feed")

	counts, err := client.TableCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, counts["trips"], "the previous import is left in place")
	assert.Equal(t, 6, counts["stop_times"])
}

func TestImport_KeepsUntimedStopTimes(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	files := sampleFeedFiles()
	files["stop_times.txt"] = "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
		"T1,08:00:00,08:00:00,S1,1\n" +
		"T1,,,S2,5\n" +
		"T1,08:20:00,08:20:00,S3,9\n" +
		"T2,25:10:00,25:10:00,S3,1\n" +
		"T2,25:20:00,25:20:00,S1,2\n" +
		"T3,12:00:00,12:00:00,S2,1\n"
	require.NoError(t, client.processAndStoreGTFSDataWithSource(ctx, buildFeedZip(t, files), "a"))

	counts, err := client.TableCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, counts["stop_times"], "every stop_times.txt row is stored")

	stopTimes, err := client.Queries.GetStopTimesForTrip(ctx, "T1")
	require.NoError(t, err)
	require.Len(t, stopTimes, 3)
	assert.Equal(t, []string{"S1", "S2", "S3"}, []string{stopTimes[0].StopID, stopTimes[1].StopID, stopTimes[2].StopID})
	assert.False(t, stopTimes[0].Untimed)
	assert.True(t, stopTimes[1].Untimed)
	assert.Zero(t, stopTimes[1].ArrivalTime)
	assert.Equal(t, int64(8*3600+20*60), stopTimes[2].ArrivalTime)

	st, err := client.Queries.GetStopTimeForTripAndStop(ctx, "T1", "S2")
	require.NoError(t, err)
	assert.True(t, st.Untimed)

	arrivals, err := client.Queries.ListArrivalsAtStop(ctx, ArrivalsAtStopParams{
		StopID:  "S2",
		Windows: []ServiceWindow{{ServiceIDs: []string{"WK"}, From: 0, To: 48 * 3600}},
	})
	require.NoError(t, err)
	assert.Empty(t, arrivals, "untimed calls have no scheduled arrival")
}

func TestImport_InvalidData(t *testing.T) {
	client := newTestClient(t)

	err := client.processAndStoreGTFSDataWithSource(context.Background(), []byte("invalid gtfs data"), "test-source")
	assert.Error(t, err)
}

func TestImportFromFile(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	assert.Error(t, client.ImportFromFile(ctx, filepath.Join(t.TempDir(), "missing.zip")))

	path := filepath.Join(t.TempDir(), "gtfs.zip")
	require.NoError(t, os.WriteFile(path, buildFeedZip(t, sampleFeedFiles()), 0o600))
	require.NoError(t, client.ImportFromFile(ctx, path))

	_, err := client.Queries.GetTrip(ctx, "T1")
	assert.NoError(t, err)
}

func TestDownloadAndStore(t *testing.T) {
	data := buildFeedZip(t, sampleFeedFiles())
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gtfs.zip" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	defer server.Close()

	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.DownloadAndStore(ctx, server.URL+"/gtfs.zip"))
	_, err := client.Queries.GetStop(ctx, "S3")
	assert.NoError(t, err)

	err = client.DownloadAndStore(ctx, server.URL+"/missing.zip")
	assert.ErrorContains(t, err, "unexpected status 404")
}

func TestDownloadAndStore_TimesOutOnStalledServer(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	config := NewConfig(":memory:", appconf.Test, false)
	config.DownloadTimeout = 50 * time.Millisecond
	client, err := NewClient(config)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	start := time.Now()
	err = client.DownloadAndStore(context.Background(), server.URL+"/gtfs.zip")
	assert.ErrorContains(t, err, "downloading static feed")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestNewConfig_BoundsDownloads(t *testing.T) {
	assert.Equal(t, DefaultDownloadTimeout, NewConfig(":memory:", appconf.Test, false).DownloadTimeout)

	client, err := NewClient(Config{DBPath: ":memory:", Env: appconf.Test})
	require.NoError(t, err)
	defer func() { _ = client.Close() }()
	assert.Equal(t, DefaultDownloadTimeout, client.httpClient.Timeout)
}
