// Package testfixtures holds the shared schedule and realtime fixtures used
// by package tests.
package testfixtures

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/klinck004/ntta/gtfsdb"
	"github.com/klinck004/ntta/internal/appconf"
)

// Timezone of the fixture agency.
const Timezone = "America/Toronto"

// Location returns the fixture time zone.
func Location(t testing.TB) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(Timezone)
	require.NoError(t, err)
	return loc
}

// Monday is 2024-03-04 08:00 local, a regular weekday.
func Monday(t testing.TB) time.Time {
	return time.Date(2024, 3, 4, 8, 0, 0, 0, Location(t))
}

// TuesdayAfterMidnight is 2024-03-05 00:30 local, inside the window of
// Monday's post-midnight trip T4.
func TuesdayAfterMidnight(t testing.TB) time.Time {
	return time.Date(2024, 3, 5, 0, 30, 0, 0, Location(t))
}

// HolidayMonday is 2024-03-18 10:30 local: WKDY is removed and HOL added.
func HolidayMonday(t testing.TB) time.Time {
	return time.Date(2024, 3, 18, 10, 30, 0, 0, Location(t))
}

// Saturday is 2024-03-09 09:00 local.
func Saturday(t testing.TB) time.Time {
	return time.Date(2024, 3, 9, 9, 0, 0, 0, Location(t))
}

// Clock returns a fixed clock.
func Clock(now time.Time) func() time.Time {
	return func() time.Time { return now }
}

func hms(h, m int) int64 {
	return int64(h*3600 + m*60)
}

func weekly(id string, days ...time.Weekday) gtfsdb.Calendar {
	c := gtfsdb.Calendar{ServiceID: id, StartDate: "20240101", EndDate: "20241231"}
	for _, d := range days {
		c.Days[d] = true
	}
	return c
}

// NewStore returns an in-memory store seeded with the fixture schedule:
//
//	R1 King:  T1, T2 Downtown (S1 S2 S3), T3 Uptown (S3 S2 S1) on WKDY,
//	          T4 Uptown after midnight on WKDY, T7 Holiday Express on HOL
//	R2 Queen: T5 Lakeshore (S4 S5) on WKDY, T6 Lakeshore on SAT
//	R3 Ghost: T8 on WKDY, calls at S1 and the missing stop SX
func NewStore(t testing.TB) *gtfsdb.Client {
	t.Helper()

	client, err := gtfsdb.NewClient(gtfsdb.NewConfig(":memory:", appconf.Test, false))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	Seed(t, client.Queries)
	return client
}

// Seed writes the fixture schedule through q.
func Seed(t testing.TB, q *gtfsdb.Queries) {
	t.Helper()
	ctx := context.Background()

	for _, r := range []gtfsdb.Route{
		{ID: "R1", AgencyID: "TT", ShortName: "504", LongName: "King", Type: 0, Color: "ED1C24"},
		{ID: "R2", AgencyID: "TT", ShortName: "501", LongName: "Queen", Type: 0},
		{ID: "R3", AgencyID: "TT", ShortName: "999", LongName: "Ghost", Type: 3},
		{ID: "R4", AgencyID: "TT", ShortName: "4", LongName: "Unscheduled", Type: 3},
	} {
		require.NoError(t, q.CreateRoute(ctx, r))
	}

	for _, s := range []gtfsdb.Stop{
		{ID: "S1", Name: "King & Spadina", Lat: 43.6455, Lon: -79.3954, WheelchairBoarding: 1},
		{ID: "S2", Name: "King & John", Lat: 43.6465, Lon: -79.3905},
		{ID: "S3", Name: "King & Bay", Lat: 43.6486, Lon: -79.3797},
		{ID: "S4", Name: "Queen & Spadina", Lat: 43.6487, Lon: -79.3966},
		{ID: "S5", Name: "Queen & Yonge", Lat: 43.6524, Lon: -79.3791},
	} {
		require.NoError(t, q.CreateStop(ctx, s))
	}

	for _, c := range []gtfsdb.Calendar{
		weekly("WKDY", time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday),
		weekly("SAT", time.Saturday),
		weekly("HOL"),
	} {
		require.NoError(t, q.CreateCalendar(ctx, c))
	}
	require.NoError(t, q.CreateCalendarDate(ctx, gtfsdb.CalendarDate{ServiceID: "WKDY", Date: "20240318", ExceptionType: gtfsdb.ExceptionRemoved}))
	require.NoError(t, q.CreateCalendarDate(ctx, gtfsdb.CalendarDate{ServiceID: "HOL", Date: "20240318", ExceptionType: gtfsdb.ExceptionAdded}))

	for _, trip := range []gtfsdb.Trip{
		{ID: "T1", RouteID: "R1", ServiceID: "WKDY", Headsign: "Downtown", DirectionID: 0},
		{ID: "T2", RouteID: "R1", ServiceID: "WKDY", Headsign: "Downtown", DirectionID: 0},
		{ID: "T3", RouteID: "R1", ServiceID: "WKDY", Headsign: "Uptown", DirectionID: 1},
		{ID: "T4", RouteID: "R1", ServiceID: "WKDY", Headsign: "Uptown", DirectionID: 1},
		{ID: "T5", RouteID: "R2", ServiceID: "WKDY", Headsign: "Lakeshore"},
		{ID: "T6", RouteID: "R2", ServiceID: "SAT", Headsign: "Lakeshore"},
		{ID: "T7", RouteID: "R1", ServiceID: "HOL", Headsign: "Holiday Express"},
		{ID: "T8", RouteID: "R3", ServiceID: "WKDY", Headsign: "Ghost"},
	} {
		require.NoError(t, q.CreateTrip(ctx, trip))
	}

	for _, st := range []gtfsdb.StopTime{
		// stop_sequence is neither contiguous nor zero based
		{TripID: "T1", StopID: "S1", StopSequence: 10, ArrivalTime: hms(8, 10), DepartureTime: hms(8, 10)},
		{TripID: "T1", StopID: "S2", StopSequence: 20, ArrivalTime: hms(8, 20), DepartureTime: hms(8, 20)},
		{TripID: "T1", StopID: "S3", StopSequence: 30, ArrivalTime: hms(8, 30), DepartureTime: hms(8, 30)},
		{TripID: "T2", StopID: "S1", StopSequence: 10, ArrivalTime: hms(9, 10), DepartureTime: hms(9, 10)},
		{TripID: "T2", StopID: "S2", StopSequence: 20, ArrivalTime: hms(9, 20), DepartureTime: hms(9, 20)},
		{TripID: "T2", StopID: "S3", StopSequence: 30, ArrivalTime: hms(9, 30), DepartureTime: hms(9, 30)},
		{TripID: "T3", StopID: "S3", StopSequence: 1, ArrivalTime: hms(8, 5), DepartureTime: hms(8, 5)},
		{TripID: "T3", StopID: "S2", StopSequence: 2, ArrivalTime: hms(8, 15), DepartureTime: hms(8, 15)},
		{TripID: "T3", StopID: "S1", StopSequence: 3, ArrivalTime: hms(8, 25), DepartureTime: hms(8, 25)},
		{TripID: "T4", StopID: "S3", StopSequence: 1, ArrivalTime: hms(24, 40), DepartureTime: hms(24, 40)},
		{TripID: "T4", StopID: "S2", StopSequence: 2, ArrivalTime: hms(24, 50), DepartureTime: hms(24, 50)},
		{TripID: "T4", StopID: "S1", StopSequence: 3, ArrivalTime: hms(25, 0), DepartureTime: hms(25, 0)},
		{TripID: "T5", StopID: "S4", StopSequence: 1, ArrivalTime: hms(8, 15), DepartureTime: hms(8, 15)},
		{TripID: "T5", StopID: "S5", StopSequence: 2, ArrivalTime: hms(8, 45), DepartureTime: hms(8, 45)},
		{TripID: "T6", StopID: "S4", StopSequence: 1, ArrivalTime: hms(10, 0), DepartureTime: hms(10, 0)},
		{TripID: "T7", StopID: "S1", StopSequence: 1, ArrivalTime: hms(12, 0), DepartureTime: hms(12, 0)},
		{TripID: "T7", StopID: "S3", StopSequence: 2, ArrivalTime: hms(12, 30), DepartureTime: hms(12, 30)},
		{TripID: "T8", StopID: "S1", StopSequence: 1, ArrivalTime: hms(15, 0), DepartureTime: hms(15, 0)},
		{TripID: "T8", StopID: "SX", StopSequence: 2, ArrivalTime: hms(15, 10), DepartureTime: hms(15, 10)},
	} {
		require.NoError(t, q.CreateStopTime(ctx, st))
	}
}
