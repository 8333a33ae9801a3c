package testfixtures

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// StaticFeedFiles is a small but complete GTFS static feed.
func StaticFeedFiles() map[string]string {
	return map[string]string{
		"agency.txt": "agency_id,agency_name,agency_url,agency_timezone\n" +
			"TT,Test Transit,https://transit.example.com," + Timezone + "\n",
		"routes.txt": "route_id,agency_id,route_short_name,route_long_name,route_type\n" +
			"R1,TT,504,King,0\n",
		"stops.txt": "stop_id,stop_name,stop_lat,stop_lon\n" +
			"S1,King & Spadina,43.6455,-79.3954\n" +
			"S2,King & John,43.6465,-79.3905\n",
		"calendar.txt": "service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\n" +
			"WKDY,1,1,1,1,1,0,0,20240101,20241231\n",
		"trips.txt": "route_id,service_id,trip_id,trip_headsign\n" +
			"R1,WKDY,T1,Downtown\n",
		"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
			"T1,08:10:00,08:10:00,S1,10\n" +
			"T1,08:20:00,08:20:00,S2,20\n",
	}
}

// StaticZip packs files into a GTFS zip. Entries are written in name order.
func StaticZip(t testing.TB, files map[string]string) []byte {
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

// WriteStaticZip writes the default static feed to a temp file.
func WriteStaticZip(t testing.TB) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "gtfs.zip")
	require.NoError(t, os.WriteFile(path, StaticZip(t, StaticFeedFiles()), 0o600))
	return path
}
