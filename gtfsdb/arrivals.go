package gtfsdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/klinck004/ntta/internal/transiterr"
)

// GroupArrivalsParams filters scheduled arrivals before grouping. An empty
// RouteID matches every route.
type GroupArrivalsParams struct {
	RouteID string
	Windows []ServiceWindow
}

// ArrivalsAtStopParams filters scheduled arrivals at one stop.
type ArrivalsAtStopParams struct {
	RouteID string
	StopID  string
	Windows []ServiceWindow
}

const arrivalColumns = `trip_id, stop_id, stop_sequence, arrival_time, departure_time,
       route_id, service_id, trip_headsign, direction_id`

// windowedArrivals renders one SELECT per non-empty window joined with
// UNION ALL. Each branch carries its window's day_offset.
func windowedArrivals(windows []ServiceWindow, routeID, stopID string) (string, []any) {
	var (
		parts []string
		args  []any
	)
	for _, w := range windows {
		if len(w.ServiceIDs) == 0 {
			continue
		}

		var sb strings.Builder
		sb.WriteString("SELECT ")
		sb.WriteString(arrivalColumns)
		sb.WriteString(", ? AS day_offset FROM scheduled_arrivals WHERE service_id IN (")
		args = append(args, w.DayOffset)
		for i, id := range w.ServiceIDs {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("?")
			args = append(args, id)
		}
		sb.WriteString(") AND arrival_time BETWEEN ? AND ?")
		args = append(args, w.From, w.To)
		if routeID != "" {
			sb.WriteString(" AND route_id = ?")
			args = append(args, routeID)
		}
		if stopID != "" {
			sb.WriteString(" AND stop_id = ?")
			args = append(args, stopID)
		}
		parts = append(parts, sb.String())
	}
	return strings.Join(parts, "\nUNION ALL\n"), args
}

// GroupArrivalsByHeadsign returns, per trip_headsign, the earliest scheduled
// arrival inside the windows, ordered by headsign.
func (q *Queries) GroupArrivalsByHeadsign(ctx context.Context, arg GroupArrivalsParams) ([]ArrivalGroup, error) {
	return q.groupArrivals(ctx, "trip_headsign", arg)
}

// GroupArrivalsByRoute returns, per route_id, the earliest scheduled arrival
// inside the windows, ordered by route id.
func (q *Queries) GroupArrivalsByRoute(ctx context.Context, windows []ServiceWindow) ([]ArrivalGroup, error) {
	return q.groupArrivals(ctx, "route_id", GroupArrivalsParams{Windows: windows})
}

func (q *Queries) groupArrivals(ctx context.Context, keyColumn string, arg GroupArrivalsParams) ([]ArrivalGroup, error) {
	inner, args := windowedArrivals(arg.Windows, arg.RouteID, "")
	if inner == "" {
		return nil, nil
	}

	query := fmt.Sprintf(`
SELECT group_key, trip_id, service_id, arrival_time, day_offset FROM (
    SELECT %[1]s AS group_key, trip_id, service_id, arrival_time, day_offset,
           ROW_NUMBER() OVER (
               PARTITION BY %[1]s ORDER BY arrival_time - day_offset, trip_id
           ) AS rn
    FROM (%[2]s)
)
WHERE rn = 1
ORDER BY group_key`, keyColumn, inner)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck

	var groups []ArrivalGroup
	for rows.Next() {
		var key, tripID sql.NullString
		var g ArrivalGroup
		if err := rows.Scan(&key, &tripID, &g.ServiceID, &g.ArrivalTime, &g.DayOffset); err != nil {
			return nil, err
		}
		if !key.Valid || !tripID.Valid {
			return nil, transiterr.New(transiterr.InternalAggregation, "group arrivals by "+keyColumn,
				fmt.Errorf("group key valid=%t, trip id valid=%t", key.Valid, tripID.Valid))
		}
		g.Key = key.String
		g.TripID = tripID.String
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groups, nil
}

// ListArrivalsAtStop returns scheduled arrivals at a stop inside the windows,
// ordered by their time on the requested day and then trip id.
func (q *Queries) ListArrivalsAtStop(ctx context.Context, arg ArrivalsAtStopParams) ([]ScheduledArrival, error) {
	inner, args := windowedArrivals(arg.Windows, arg.RouteID, arg.StopID)
	if inner == "" {
		return nil, nil
	}

	query := fmt.Sprintf(`
SELECT %s, day_offset FROM (%s)
ORDER BY arrival_time - day_offset, trip_id`, arrivalColumns, inner)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck

	var items []ScheduledArrival
	for rows.Next() {
		var a ScheduledArrival
		var headsign sql.NullString
		var direction sql.NullInt64
		if err := rows.Scan(
			&a.TripID, &a.StopID, &a.StopSequence, &a.ArrivalTime, &a.DepartureTime,
			&a.RouteID, &a.ServiceID, &headsign, &direction, &a.DayOffset,
		); err != nil {
			return nil, err
		}
		a.Headsign = headsign.String
		a.DirectionID = int(direction.Int64)
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
