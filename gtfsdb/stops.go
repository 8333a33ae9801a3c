package gtfsdb

import (
	"context"
	"database/sql"
)

const createStop = `
INSERT OR REPLACE INTO stops (
    id, code, name, description, lat, lon, zone_id, location_type,
    timezone, wheelchair_boarding, platform_code
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateStop(ctx context.Context, s Stop) error {
	_, err := q.db.ExecContext(ctx, createStop,
		s.ID, toNullString(s.Code), toNullString(s.Name), toNullString(s.Description),
		s.Lat, s.Lon, toNullString(s.ZoneID), s.LocationType,
		toNullString(s.Timezone), s.WheelchairBoarding, toNullString(s.PlatformCode),
	)
	return err
}

const getStop = `
SELECT id, code, name, description, lat, lon, zone_id, location_type,
       timezone, wheelchair_boarding, platform_code
FROM stops
WHERE id = ?`

// GetStop returns sql.ErrNoRows when the stop does not exist.
func (q *Queries) GetStop(ctx context.Context, id string) (Stop, error) {
	var s Stop
	var code, name, desc, zone, tz, platform sql.NullString
	err := q.db.QueryRowContext(ctx, getStop, id).Scan(
		&s.ID, &code, &name, &desc, &s.Lat, &s.Lon, &zone, &s.LocationType,
		&tz, &s.WheelchairBoarding, &platform,
	)
	if err != nil {
		return Stop{}, err
	}
	s.Code = code.String
	s.Name = name.String
	s.Description = desc.String
	s.ZoneID = zone.String
	s.Timezone = tz.String
	s.PlatformCode = platform.String
	return s, nil
}
