package gtfsdb

import (
	"context"
	"database/sql"
)

const createTrip = `
INSERT OR REPLACE INTO trips (
    id, route_id, service_id, trip_headsign, trip_short_name,
    direction_id, block_id, shape_id
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

// CreateTrip stores the headsign as given. An empty headsign is stored as an
// empty string rather than NULL, so every imported trip belongs to a
// headsign group.
func (q *Queries) CreateTrip(ctx context.Context, t Trip) error {
	_, err := q.db.ExecContext(ctx, createTrip,
		t.ID, t.RouteID, t.ServiceID, t.Headsign, toNullString(t.ShortName),
		t.DirectionID, toNullString(t.BlockID), toNullString(t.ShapeID),
	)
	return err
}

const getTrip = `
SELECT id, route_id, service_id, trip_headsign, trip_short_name,
       direction_id, block_id, shape_id
FROM trips
WHERE id = ?`

// GetTrip returns sql.ErrNoRows when the trip does not exist.
func (q *Queries) GetTrip(ctx context.Context, id string) (Trip, error) {
	var t Trip
	var headsign, shortName, block, shape sql.NullString
	var direction sql.NullInt64
	err := q.db.QueryRowContext(ctx, getTrip, id).Scan(
		&t.ID, &t.RouteID, &t.ServiceID, &headsign, &shortName,
		&direction, &block, &shape,
	)
	if err != nil {
		return Trip{}, err
	}
	t.Headsign = headsign.String
	t.ShortName = shortName.String
	t.DirectionID = int(direction.Int64)
	t.BlockID = block.String
	t.ShapeID = shape.String
	return t, nil
}
