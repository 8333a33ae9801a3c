package gtfsdb

import "time"

// Calendar exception types as defined by calendar_dates.txt.
const (
	ExceptionAdded   = 1
	ExceptionRemoved = 2
)

// DateLayout is the fixed-width layout of every stored service date. Dates in
// this layout order the same lexically and chronologically.
const DateLayout = "20060102"

// FormatDate renders t as a service date in t's own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Route represents a transit route in the GTFS feed
type Route struct {
	ID          string
	AgencyID    string
	ShortName   string
	LongName    string
	Description string
	Type        int
	URL         string
	Color       string
	TextColor   string
}

// Stop represents a transit stop or station in the GTFS feed
type Stop struct {
	ID                 string
	Code               string
	Name               string
	Description        string
	Lat                float64
	Lon                float64
	ZoneID             string
	LocationType       int
	Timezone           string
	WheelchairBoarding int
	PlatformCode       string
}

// Trip represents a journey made by a vehicle in the GTFS feed
type Trip struct {
	ID          string
	RouteID     string
	ServiceID   string
	Headsign    string
	ShortName   string
	DirectionID int
	BlockID     string
	ShapeID     string
}

// StopTime is one scheduled call of a trip at a stop. Times are seconds since
// the start of the service day and may exceed 24h for post-midnight calls.
// Untimed calls have neither time in the feed; both times read as zero and
// the row never appears in a scheduled-arrival window.
type StopTime struct {
	TripID        string
	StopID        string
	StopSequence  int
	ArrivalTime   int64
	DepartureTime int64
	StopHeadsign  string
	Untimed       bool
}

// Calendar is a weekly service rule. Days is indexed by time.Weekday.
type Calendar struct {
	ServiceID string
	Days      [7]bool
	StartDate string
	EndDate   string
}

// RunsOn reports whether the weekly rule includes the given weekday.
func (c Calendar) RunsOn(day time.Weekday) bool {
	return c.Days[day]
}

// Covers reports whether date (YYYYMMDD) lies within the inclusive range.
func (c Calendar) Covers(date string) bool {
	return c.StartDate <= date && date <= c.EndDate
}

// CalendarDate is a date-specific override of a Calendar.
type CalendarDate struct {
	ServiceID     string
	Date          string
	ExceptionType int
}

// ScheduledArrival is one row of the scheduled_arrivals view: a stop time
// joined with its trip.
type ScheduledArrival struct {
	TripID        string
	StopID        string
	StopSequence  int
	ArrivalTime   int64
	DepartureTime int64
	RouteID       string
	ServiceID     string
	Headsign      string
	DirectionID   int
	// DayOffset is the window's offset in seconds; ArrivalTime-DayOffset is
	// the arrival on the requested day's timeline.
	DayOffset int64
}

// EffectiveTime is the arrival in seconds relative to the requested service day.
func (a ScheduledArrival) EffectiveTime() int64 {
	return a.ArrivalTime - a.DayOffset
}

// ArrivalGroup is the first scheduled arrival of one group (a headsign or a
// route) inside a time window.
type ArrivalGroup struct {
	Key         string
	TripID      string
	ServiceID   string
	ArrivalTime int64
	DayOffset   int64
}

// ServiceWindow selects scheduled arrivals of the given services whose
// arrival_time lies in [From, To]. Times are seconds since the start of the
// service day the ServiceIDs were resolved for; DayOffset is how far that
// service day lies before the requested one (0 for today, 86400 for yesterday).
type ServiceWindow struct {
	ServiceIDs []string
	From       int64
	To         int64
	DayOffset  int64
}
