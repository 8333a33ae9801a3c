package gtfsdb

import (
	"context"
	"time"
)

const createCalendar = `
INSERT OR REPLACE INTO calendar (
    id, monday, tuesday, wednesday, thursday, friday, saturday, sunday,
    start_date, end_date
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateCalendar(ctx context.Context, c Calendar) error {
	_, err := q.db.ExecContext(ctx, createCalendar,
		c.ServiceID,
		boolToInt(c.Days[time.Monday]),
		boolToInt(c.Days[time.Tuesday]),
		boolToInt(c.Days[time.Wednesday]),
		boolToInt(c.Days[time.Thursday]),
		boolToInt(c.Days[time.Friday]),
		boolToInt(c.Days[time.Saturday]),
		boolToInt(c.Days[time.Sunday]),
		c.StartDate, c.EndDate,
	)
	return err
}

const listCalendarsCoveringDate = `
SELECT id, monday, tuesday, wednesday, thursday, friday, saturday, sunday,
       start_date, end_date
FROM calendar
WHERE start_date <= ? AND end_date >= ?
ORDER BY id`

// ListCalendarsCoveringDate returns the weekly rules whose inclusive date
// range contains date (YYYYMMDD), regardless of weekday.
func (q *Queries) ListCalendarsCoveringDate(ctx context.Context, date string) ([]Calendar, error) {
	rows, err := q.db.QueryContext(ctx, listCalendarsCoveringDate, date, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck

	var items []Calendar
	for rows.Next() {
		var (
			c    Calendar
			days [7]int64
		)
		if err := rows.Scan(
			&c.ServiceID,
			&days[time.Monday], &days[time.Tuesday], &days[time.Wednesday],
			&days[time.Thursday], &days[time.Friday], &days[time.Saturday],
			&days[time.Sunday],
			&c.StartDate, &c.EndDate,
		); err != nil {
			return nil, err
		}
		for i, d := range days {
			c.Days[i] = d == 1
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createCalendarDate = `
INSERT OR REPLACE INTO calendar_dates (service_id, date, exception_type)
VALUES (?, ?, ?)`

func (q *Queries) CreateCalendarDate(ctx context.Context, cd CalendarDate) error {
	_, err := q.db.ExecContext(ctx, createCalendarDate, cd.ServiceID, cd.Date, cd.ExceptionType)
	return err
}

const listCalendarDatesOn = `
SELECT service_id, date, exception_type
FROM calendar_dates
WHERE date = ?
ORDER BY service_id`

// ListCalendarDatesOn returns every exception recorded for date (YYYYMMDD).
func (q *Queries) ListCalendarDatesOn(ctx context.Context, date string) ([]CalendarDate, error) {
	rows, err := q.db.QueryContext(ctx, listCalendarDatesOn, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck

	var items []CalendarDate
	for rows.Next() {
		var cd CalendarDate
		if err := rows.Scan(&cd.ServiceID, &cd.Date, &cd.ExceptionType); err != nil {
			return nil, err
		}
		items = append(items, cd)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
