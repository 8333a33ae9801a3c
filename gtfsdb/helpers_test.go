package gtfsdb

import (
	"archive/zip"
	"bytes"
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/klinck004/ntta/internal/appconf"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(Config{DBPath: ":memory:", Env: appconf.Test})
	require.NoError(t, err, "NewClient should succeed")
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// buildFeedZip packs CSV bodies into an in-memory GTFS zip. Entries are
// written in name order so equal inputs give equal bytes.
func buildFeedZip(t *testing.T, files map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func sampleFeedFiles() map[string]string {
	return map[string]string{
		"agency.txt": "agency_id,agency_name,agency_url,agency_timezone\n" +
			"TT,Test Transit,https://transit.example.com,America/Toronto\n",
		"routes.txt": "route_id,agency_id,route_short_name,route_long_name,route_type\n" +
			"R1,TT,1,King,3\n" +
			"R2,TT,2,Queen,3\n",
		"stops.txt": "stop_id,stop_name,stop_lat,stop_lon\n" +
			"S1,First St,43.65,-79.38\n" +
			"S2,Second St,43.66,-79.39\n" +
			"S3,Third St,43.67,-79.40\n",
		"calendar.txt": "service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\n" +
			"WK,1,1,1,1,1,0,0,20240101,20241231\n",
		"calendar_dates.txt": "service_id,date,exception_type\n" +
			"WK,20240701,2\n" +
			"HOL,20240701,1\n",
		"trips.txt": "route_id,service_id,trip_id,trip_headsign,direction_id\n" +
			"R1,WK,T1,Downtown,0\n" +
			"R1,WK,T2,Uptown,1\n" +
			"R2,HOL,T3,Holiday Loop,0\n",
		"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
			"T1,08:00:00,08:00:00,S1,1\n" +
			"T1,08:10:00,08:10:30,S2,5\n" +
			"T1,08:20:00,08:20:00,S3,9\n" +
			"T2,25:10:00,25:10:00,S3,1\n" +
			"T2,25:20:00,25:20:00,S1,2\n" +
			"T3,12:00:00,12:00:00,S2,1\n",
	}
}

// seed writes rows directly through Queries.
func seed(t *testing.T, q *Queries) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, q.CreateRoute(ctx, Route{ID: "R1", AgencyID: "TT", ShortName: "1", LongName: "King", Type: 3}))
	require.NoError(t, q.CreateRoute(ctx, Route{ID: "R2", AgencyID: "TT", ShortName: "2", Type: 3}))
	for _, s := range []Stop{
		{ID: "S1", Name: "First St", Lat: 43.65, Lon: -79.38},
		{ID: "S2", Name: "Second St", Lat: 43.66, Lon: -79.39},
		{ID: "S3", Name: "Third St", Lat: 43.67, Lon: -79.40},
	} {
		require.NoError(t, q.CreateStop(ctx, s))
	}
	for _, trip := range []Trip{
		{ID: "T1", RouteID: "R1", ServiceID: "WK", Headsign: "Downtown"},
		{ID: "T2", RouteID: "R1", ServiceID: "WK", Headsign: "Uptown", DirectionID: 1},
		{ID: "T4", RouteID: "R1", ServiceID: "WK", Headsign: "Downtown"},
		{ID: "T5", RouteID: "R2", ServiceID: "SAT", Headsign: "Lakeshore"},
	} {
		require.NoError(t, q.CreateTrip(ctx, trip))
	}
	for _, st := range []StopTime{
		{TripID: "T1", StopID: "S1", StopSequence: 1, ArrivalTime: 8 * 3600, DepartureTime: 8 * 3600},
		{TripID: "T1", StopID: "S2", StopSequence: 5, ArrivalTime: 8*3600 + 600, DepartureTime: 8*3600 + 630},
		{TripID: "T1", StopID: "S3", StopSequence: 9, ArrivalTime: 8*3600 + 1200, DepartureTime: 8*3600 + 1200},
		{TripID: "T4", StopID: "S1", StopSequence: 1, ArrivalTime: 7*3600 + 1800, DepartureTime: 7*3600 + 1800},
		{TripID: "T4", StopID: "S2", StopSequence: 2, ArrivalTime: 7*3600 + 2400, DepartureTime: 7*3600 + 2400},
		{TripID: "T2", StopID: "S3", StopSequence: 1, ArrivalTime: 25*3600 + 600, DepartureTime: 25*3600 + 600},
		{TripID: "T2", StopID: "S1", StopSequence: 2, ArrivalTime: 25*3600 + 1200, DepartureTime: 25*3600 + 1200},
		{TripID: "T5", StopID: "S2", StopSequence: 1, ArrivalTime: 8 * 3600, DepartureTime: 8 * 3600},
	} {
		require.NoError(t, q.CreateStopTime(ctx, st))
	}
}
