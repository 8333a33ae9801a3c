// Package schedule resolves what the static timetable says about "now": the
// active services, the ordered stops of a trip and the trips scheduled in a
// window around the current time.
package schedule

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/klinck004/ntta/gtfsdb"
	"github.com/klinck004/ntta/internal/transiterr"
)

// CalendarSource is the part of the static store the resolver reads.
type CalendarSource interface {
	ListCalendarsCoveringDate(ctx context.Context, date string) ([]gtfsdb.Calendar, error)
	ListCalendarDatesOn(ctx context.Context, date string) ([]gtfsdb.CalendarDate, error)
}

// ServiceDayResolver computes the service ids active on a date. Results are
// cached per service date; only today and yesterday are kept, so the cache
// turns over at local midnight.
type ServiceDayResolver struct {
	source CalendarSource
	loc    *time.Location
	now    func() time.Time

	mu    sync.Mutex
	cache map[string][]string
}

func NewServiceDayResolver(source CalendarSource, loc *time.Location, now func() time.Time) *ServiceDayResolver {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &ServiceDayResolver{source: source, loc: loc, now: now, cache: make(map[string][]string)}
}

// Now is the current time in the agency time zone.
func (r *ServiceDayResolver) Now() time.Time {
	return r.now().In(r.loc)
}

func (r *ServiceDayResolver) Location() *time.Location {
	return r.loc
}

// ActiveServiceIDs returns the services running today.
func (r *ServiceDayResolver) ActiveServiceIDs(ctx context.Context) ([]string, error) {
	return r.ActiveServiceIDsOn(ctx, r.Now())
}

// ActiveServiceIDsOn returns the sorted service ids running on day's local
// date. An empty result is not an error. Store failures are returned.
func (r *ServiceDayResolver) ActiveServiceIDsOn(ctx context.Context, day time.Time) ([]string, error) {
	day = day.In(r.loc)
	date := gtfsdb.FormatDate(day)

	if ids, ok := r.cached(date); ok {
		return slices.Clone(ids), nil
	}

	calendars, err := r.source.ListCalendarsCoveringDate(ctx, date)
	if err != nil {
		return nil, transiterr.New(transiterr.Internal, "calendars for "+date, err)
	}
	exceptions, err := r.source.ListCalendarDatesOn(ctx, date)
	if err != nil {
		return nil, transiterr.New(transiterr.Internal, "calendar dates for "+date, err)
	}
	ids := activeServices(calendars, exceptions, date, day.Weekday())

	r.mu.Lock()
	if r.keep(date) {
		r.cache[date] = ids
	}
	r.mu.Unlock()

	return slices.Clone(ids), nil
}

// cached drops entries for dates other than today and yesterday, then looks
// date up.
func (r *ServiceDayResolver) cached(date string) ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for d := range r.cache {
		if !r.keep(d) {
			delete(r.cache, d)
		}
	}
	ids, ok := r.cache[date]
	return ids, ok
}

func (r *ServiceDayResolver) keep(date string) bool {
	today := r.Now()
	return date == gtfsdb.FormatDate(today) || date == gtfsdb.FormatDate(previousServiceDay(today))
}

// activeServices applies the weekly rules and then the date exceptions:
// an added exception includes a service the rule misses, a removed one
// excludes a service the rule matches.
func activeServices(calendars []gtfsdb.Calendar, exceptions []gtfsdb.CalendarDate, date string, weekday time.Weekday) []string {
	active := make(map[string]struct{})
	for _, c := range calendars {
		if c.Covers(date) && c.RunsOn(weekday) {
			active[c.ServiceID] = struct{}{}
		}
	}
	for _, e := range exceptions {
		if e.Date != date {
			continue
		}
		switch e.ExceptionType {
		case gtfsdb.ExceptionAdded:
			active[e.ServiceID] = struct{}{}
		case gtfsdb.ExceptionRemoved:
			delete(active, e.ServiceID)
		}
	}

	ids := make([]string, 0, len(active))
	for id := range active {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// serviceDayStart is "noon minus 12h" on t's local date, the origin of GTFS
// stop times. It differs from midnight on daylight saving change days.
func serviceDayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 12, 0, 0, 0, t.Location()).Add(-12 * time.Hour)
}

// previousServiceDay is noon of the local date before t.
func previousServiceDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d-1, 12, 0, 0, 0, t.Location())
}
