package schedule

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/klinck004/ntta/gtfsdb"
	"github.com/klinck004/ntta/internal/lookup"
	"github.com/klinck004/ntta/internal/transiterr"
)

// DefaultWindow is the half width of the schedule window around now.
const DefaultWindow = 2 * time.Hour

// ArrivalSource is the aggregation surface of the static store.
type ArrivalSource interface {
	GroupArrivalsByHeadsign(ctx context.Context, arg gtfsdb.GroupArrivalsParams) ([]gtfsdb.ArrivalGroup, error)
	GroupArrivalsByRoute(ctx context.Context, windows []gtfsdb.ServiceWindow) ([]gtfsdb.ArrivalGroup, error)
	ListArrivalsAtStop(ctx context.Context, arg gtfsdb.ArrivalsAtStopParams) ([]gtfsdb.ScheduledArrival, error)
}

// Branch is the first trip of one headsign scheduled inside the window.
type Branch struct {
	Headsign  string
	TripID    string
	ServiceID string
	Scheduled time.Time
}

// ScheduledRoute is a route with at least one arrival inside the window.
// Route is nil when the route record is missing.
type ScheduledRoute struct {
	RouteID   string
	Route     *gtfsdb.Route
	TripID    string
	Scheduled time.Time
}

// StopArrival is one scheduled arrival at a stop inside the window.
type StopArrival struct {
	TripID       string
	RouteID      string
	Headsign     string
	StopID       string
	StopSequence int
	Scheduled    time.Time
}

// Span is the evaluated window: the service windows handed to the store and
// the service day start times are relative to.
type Span struct {
	Now      time.Time
	DayStart time.Time
	Windows  []gtfsdb.ServiceWindow
}

func (s Span) at(seconds int64) time.Time {
	return s.DayStart.Add(time.Duration(seconds) * time.Second)
}

// WindowQuery finds what is scheduled in [now-span, now+span] for the active
// services. Today's services are windowed on today's timeline and
// yesterday's on a timeline shifted by one service day, so calls past
// 24:00:00 are found after midnight.
type WindowQuery struct {
	services *ServiceDayResolver
	source   ArrivalSource
	lookup   *lookup.StaticLookup
	fanout   *lookup.Fanout
	span     time.Duration
	logger   *slog.Logger
}

func NewWindowQuery(services *ServiceDayResolver, source ArrivalSource, lk *lookup.StaticLookup, fanout *lookup.Fanout, span time.Duration, logger *slog.Logger) *WindowQuery {
	if span <= 0 {
		span = DefaultWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WindowQuery{
		services: services,
		source:   source,
		lookup:   lk,
		fanout:   fanout,
		span:     span,
		logger:   logger.With(slog.String("component", "schedule_window")),
	}
}

// Span resolves the active services for today and yesterday and turns the
// window into store filters. With no active service on either day it
// returns NoActiveService.
func (q *WindowQuery) Span(ctx context.Context) (Span, error) {
	now := q.services.Now()
	todayStart := serviceDayStart(now)
	yesterday := previousServiceDay(now)
	yesterdayStart := serviceDayStart(yesterday)

	todayIDs, err := q.services.ActiveServiceIDsOn(ctx, now)
	if err != nil {
		return Span{}, err
	}
	yesterdayIDs, err := q.services.ActiveServiceIDsOn(ctx, yesterday)
	if err != nil {
		return Span{}, err
	}
	if len(todayIDs) == 0 && len(yesterdayIDs) == 0 {
		return Span{}, transiterr.Newf(transiterr.NoActiveService, "no active service on %s", gtfsdb.FormatDate(now))
	}

	elapsed := int64(now.Sub(todayStart) / time.Second)
	half := int64(q.span / time.Second)
	offset := int64(todayStart.Sub(yesterdayStart) / time.Second)

	return Span{
		Now:      now,
		DayStart: todayStart,
		Windows: []gtfsdb.ServiceWindow{
			{ServiceIDs: todayIDs, From: elapsed - half, To: elapsed + half},
			{ServiceIDs: yesterdayIDs, From: elapsed - half + offset, To: elapsed + half + offset, DayOffset: offset},
		},
	}, nil
}

// Branches returns the first scheduled trip per headsign of a route, sorted
// by headsign. An empty window is NotYetScheduled.
func (q *WindowQuery) Branches(ctx context.Context, routeID string) ([]Branch, error) {
	span, err := q.Span(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := q.source.GroupArrivalsByHeadsign(ctx, gtfsdb.GroupArrivalsParams{RouteID: routeID, Windows: span.Windows})
	if err != nil {
		return nil, wrapStoreError("branches for route "+routeID, err)
	}
	if len(groups) == 0 {
		return nil, transiterr.Newf(transiterr.NotYetScheduled, "route %s has no trips scheduled", routeID)
	}

	branches := make([]Branch, len(groups))
	for i, g := range groups {
		branches[i] = Branch{
			Headsign:  g.Key,
			TripID:    g.TripID,
			ServiceID: g.ServiceID,
			Scheduled: span.at(g.ArrivalTime - g.DayOffset),
		}
	}
	return branches, nil
}

// Routes returns every route with an arrival in the window, sorted by route id.
func (q *WindowQuery) Routes(ctx context.Context) ([]ScheduledRoute, error) {
	span, err := q.Span(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := q.source.GroupArrivalsByRoute(ctx, span.Windows)
	if err != nil {
		return nil, wrapStoreError("routes in window", err)
	}
	if len(groups) == 0 {
		return nil, transiterr.Newf(transiterr.NotYetScheduled, "no trips scheduled")
	}

	records := lookup.Map(ctx, q.fanout, groups, func(ctx context.Context, g gtfsdb.ArrivalGroup) (*gtfsdb.Route, error) {
		r, err := q.lookup.Route(ctx, g.Key)
		if err != nil {
			return nil, err
		}
		return &r, nil
	})

	routes := make([]ScheduledRoute, len(groups))
	for i, g := range groups {
		if err := records[i].Err; err != nil {
			q.logger.Warn("route record unavailable",
				slog.String("route_id", g.Key),
				slog.String("error", err.Error()))
		}
		routes[i] = ScheduledRoute{
			RouteID:   g.Key,
			Route:     records[i].Value,
			TripID:    g.TripID,
			Scheduled: span.at(g.ArrivalTime - g.DayOffset),
		}
	}
	return routes, nil
}

// ArrivalsAtStop lists the arrivals at a stop inside the window in time
// order. An empty routeID matches every route.
func (q *WindowQuery) ArrivalsAtStop(ctx context.Context, routeID, stopID string) ([]StopArrival, error) {
	span, err := q.Span(ctx)
	if err != nil {
		return nil, err
	}
	return q.arrivalsAtStop(ctx, span, routeID, stopID)
}

func (q *WindowQuery) arrivalsAtStop(ctx context.Context, span Span, routeID, stopID string) ([]StopArrival, error) {
	rows, err := q.source.ListArrivalsAtStop(ctx, gtfsdb.ArrivalsAtStopParams{
		RouteID: routeID,
		StopID:  stopID,
		Windows: span.Windows,
	})
	if err != nil {
		return nil, wrapStoreError("arrivals at stop "+stopID, err)
	}
	if len(rows) == 0 {
		return nil, transiterr.Newf(transiterr.NotYetScheduled, "no arrivals scheduled at stop %s", stopID)
	}

	arrivals := make([]StopArrival, len(rows))
	for i, a := range rows {
		arrivals[i] = StopArrival{
			TripID:       a.TripID,
			RouteID:      a.RouteID,
			Headsign:     a.Headsign,
			StopID:       a.StopID,
			StopSequence: a.StopSequence,
			Scheduled:    span.at(a.EffectiveTime()),
		}
	}
	return arrivals, nil
}

// wrapStoreError keeps tagged store errors and tags the rest as Internal.
func wrapStoreError(tag string, err error) error {
	var te *transiterr.Error
	if errors.As(err, &te) {
		return err
	}
	return transiterr.New(transiterr.Internal, tag, err)
}
