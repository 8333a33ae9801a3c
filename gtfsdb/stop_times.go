package gtfsdb

import (
	"context"
	"database/sql"
)

const createStopTime = `
INSERT OR REPLACE INTO stop_times (
    trip_id, arrival_time, departure_time, stop_id, stop_sequence, stop_headsign
) VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateStopTime(ctx context.Context, st StopTime) error {
	var arrival, departure sql.NullInt64
	if !st.Untimed {
		arrival = sql.NullInt64{Int64: st.ArrivalTime, Valid: true}
		departure = sql.NullInt64{Int64: st.DepartureTime, Valid: true}
	}
	_, err := q.db.ExecContext(ctx, createStopTime,
		st.TripID, arrival, departure, st.StopID, st.StopSequence,
		toNullString(st.StopHeadsign),
	)
	return err
}

const getStopTimesForTrip = `
SELECT trip_id, stop_id, stop_sequence, arrival_time, departure_time, stop_headsign
FROM stop_times
WHERE trip_id = ?
ORDER BY stop_sequence`

// GetStopTimesForTrip returns the trip's stop times in stop_sequence order.
func (q *Queries) GetStopTimesForTrip(ctx context.Context, tripID string) ([]StopTime, error) {
	rows, err := q.db.QueryContext(ctx, getStopTimesForTrip, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck

	var items []StopTime
	for rows.Next() {
		st, err := scanStopTime(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getStopTimeForTripAndStop = `
SELECT trip_id, stop_id, stop_sequence, arrival_time, departure_time, stop_headsign
FROM stop_times
WHERE trip_id = ? AND stop_id = ?
ORDER BY stop_sequence
LIMIT 1`

// GetStopTimeForTripAndStop returns the first call of a trip at a stop, or
// sql.ErrNoRows when the trip does not serve it.
func (q *Queries) GetStopTimeForTripAndStop(ctx context.Context, tripID, stopID string) (StopTime, error) {
	return scanStopTime(q.db.QueryRowContext(ctx, getStopTimeForTripAndStop, tripID, stopID))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStopTime(row rowScanner) (StopTime, error) {
	var (
		st                 StopTime
		arrival, departure sql.NullInt64
		headsign           sql.NullString
	)
	if err := row.Scan(
		&st.TripID, &st.StopID, &st.StopSequence, &arrival, &departure, &headsign,
	); err != nil {
		return StopTime{}, err
	}
	st.ArrivalTime = arrival.Int64
	st.DepartureTime = departure.Int64
	st.Untimed = !arrival.Valid && !departure.Valid
	st.StopHeadsign = headsign.String
	return st, nil
}
