package gtfsdb

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/jamespfennell/gtfs"
	"github.com/jamespfennell/gtfs/constants"
	gtfscsv "github.com/jamespfennell/gtfs/csv"
)

const stopTimesFile constants.StaticFile = "stop_times.txt"

// parseStatic runs the static parser, turning a parser panic on malformed
// input (a stop time of an unknown trip, for one) into an error.
func parseStatic(b []byte) (staticData *gtfs.Static, err error) {
	defer func() {
		if r := recover(); r != nil {
			staticData = nil
			err = fmt.Errorf("parsing static feed: %v", r)
		}
	}()
	staticData, err = gtfs.ParseStatic(b, gtfs.ParseStaticOptions{})
	if err != nil {
		return nil, fmt.Errorf("parsing static feed: %w", err)
	}
	return staticData, nil
}

// untimedStopTimes reads the stop_times.txt rows that carry neither an
// arrival nor a departure time. The static parser drops them, but they are
// still calls of the trip and belong in its stop order. Rows of trips or
// stops the parser did not keep are skipped the same way it skips them.
func untimedStopTimes(b []byte, staticData *gtfs.Static) ([]StopTime, error) {
	reader, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, err
	}
	var entry *zip.File
	for _, f := range reader.File {
		if constants.StaticFile(f.Name) == stopTimesFile {
			entry = f
			break
		}
	}
	if entry == nil {
		return nil, nil
	}
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	file, err := gtfscsv.New(stopTimesFile, rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", stopTimesFile, err)
	}

	tripIDColumn := file.RequiredColumn("trip_id")
	stopIDColumn := file.RequiredColumn("stop_id")
	stopSequenceColumn := file.RequiredColumn("stop_sequence")
	arrivalTimeColumn := file.OptionalColumn("arrival_time")
	departureTimeColumn := file.OptionalColumn("departure_time")
	stopHeadsignColumn := file.OptionalColumn("stop_headsign")
	if file.MissingRequiredColumns() != nil {
		_ = file.Close()
		return nil, nil
	}

	trips := make(map[string]bool, len(staticData.Trips))
	for _, t := range staticData.Trips {
		trips[t.ID] = true
	}
	stops := make(map[string]bool, len(staticData.Stops))
	for _, s := range staticData.Stops {
		stops[s.Id] = true
	}

	var out []StopTime
	for file.NextRow() {
		if strings.TrimSpace(arrivalTimeColumn.Read()) != "" ||
			strings.TrimSpace(departureTimeColumn.Read()) != "" {
			continue
		}
		tripID := tripIDColumn.Read()
		stopID := stopIDColumn.Read()
		sequence, err := strconv.Atoi(stopSequenceColumn.Read())
		if err != nil || !trips[tripID] || !stops[stopID] {
			continue
		}
		out = append(out, StopTime{
			TripID:       tripID,
			StopID:       stopID,
			StopSequence: sequence,
			StopHeadsign: stopHeadsignColumn.Read(),
			Untimed:      true,
		})
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", stopTimesFile, err)
	}
	return out, nil
}
