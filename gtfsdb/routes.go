package gtfsdb

import (
	"context"
	"database/sql"
)

const createRoute = `
INSERT OR REPLACE INTO routes (
    id, agency_id, short_name, long_name, description, type, url, color, text_color
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateRoute(ctx context.Context, r Route) error {
	_, err := q.db.ExecContext(ctx, createRoute,
		r.ID, r.AgencyID, toNullString(r.ShortName), toNullString(r.LongName),
		toNullString(r.Description), r.Type, toNullString(r.URL),
		toNullString(r.Color), toNullString(r.TextColor),
	)
	return err
}

const getRoute = `
SELECT id, agency_id, short_name, long_name, description, type, url, color, text_color
FROM routes
WHERE id = ?`

// GetRoute returns sql.ErrNoRows when the route does not exist.
func (q *Queries) GetRoute(ctx context.Context, id string) (Route, error) {
	var r Route
	var shortName, longName, desc, url, color, tc sql.NullString
	err := q.db.QueryRowContext(ctx, getRoute, id).Scan(
		&r.ID, &r.AgencyID, &shortName, &longName, &desc, &r.Type, &url, &color, &tc,
	)
	if err != nil {
		return Route{}, err
	}
	r.ShortName = shortName.String
	r.LongName = longName.String
	r.Description = desc.String
	r.URL = url.String
	r.Color = color.String
	r.TextColor = tc.String
	return r, nil
}
