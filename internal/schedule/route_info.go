package schedule

import (
	"context"
	"log/slog"

	"github.com/klinck004/ntta/gtfsdb"
	"github.com/klinck004/ntta/internal/lookup"
)

// BranchInfo is a branch with its ordered stop list. StopsErr is set instead
// of Stops when the branch trip has no usable schedule.
type BranchInfo struct {
	Branch
	Stops    []OrderedStop
	StopsErr error
}

// RouteInfo is a route record with the branches scheduled in the window.
type RouteInfo struct {
	Route    gtfsdb.Route
	Branches []BranchInfo
}

// TripInfo is a trip record with its ordered stops.
type TripInfo struct {
	Trip  gtfsdb.Trip
	Stops []OrderedStop
}

// Planner composes the window query and the stop order resolver into the
// route and trip views.
type Planner struct {
	window *WindowQuery
	stops  *StopOrderResolver
	lookup *lookup.StaticLookup
	logger *slog.Logger
}

func NewPlanner(window *WindowQuery, stops *StopOrderResolver, lk *lookup.StaticLookup, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{
		window: window,
		stops:  stops,
		lookup: lk,
		logger: logger.With(slog.String("component", "route_info")),
	}
}

func (p *Planner) Window() *WindowQuery {
	return p.window
}

func (p *Planner) Stops() *StopOrderResolver {
	return p.stops
}

// RouteInfo returns the route and one entry per scheduled headsign. A
// missing route is a LookupMiss. When nothing is scheduled the route is
// still returned together with the NoActiveService or NotYetScheduled error.
func (p *Planner) RouteInfo(ctx context.Context, routeID string) (RouteInfo, error) {
	route, err := p.lookup.Route(ctx, routeID)
	if err != nil {
		return RouteInfo{}, err
	}
	info := RouteInfo{Route: route}

	branches, err := p.window.Branches(ctx, routeID)
	if err != nil {
		return info, err
	}

	// sequential: Resolve acquires slots from the same fanout
	info.Branches = make([]BranchInfo, len(branches))
	for i, b := range branches {
		info.Branches[i].Branch = b
		stops, err := p.stops.Resolve(ctx, b.TripID)
		if err != nil {
			p.logger.Warn("branch without schedule data",
				slog.String("route_id", routeID),
				slog.String("trip_id", b.TripID),
				slog.String("error", err.Error()))
			info.Branches[i].StopsErr = err
			continue
		}
		info.Branches[i].Stops = stops
	}
	return info, nil
}

// TripInfo returns a trip record and its ordered stops.
func (p *Planner) TripInfo(ctx context.Context, tripID string) (TripInfo, error) {
	trip, err := p.lookup.Trip(ctx, tripID)
	if err != nil {
		return TripInfo{}, err
	}
	stops, err := p.stops.Resolve(ctx, tripID)
	if err != nil {
		return TripInfo{Trip: trip}, err
	}
	return TripInfo{Trip: trip, Stops: stops}, nil
}
