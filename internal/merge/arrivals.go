package merge

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/klinck004/ntta/gtfsdb"
	"github.com/klinck004/ntta/internal/gtfs"
	"github.com/klinck004/ntta/internal/schedule"
	"github.com/klinck004/ntta/internal/transiterr"
)

// MergedArrival is one scheduled arrival at a stop with whatever the feeds
// know about it. Predicted, Delay and VehicleID are nil without live data.
type MergedArrival struct {
	RouteID   string
	Headsign  string
	TripID    string
	StopID    string
	Scheduled time.Time
	Predicted *time.Time
	Delay     *int32
	VehicleID *string
}

// ArrivalsResult is the merged view of one stop on one route. Vehicles only
// lists vehicles whose trip serves the stop.
type ArrivalsResult struct {
	RouteID  string
	StopID   string
	Stop     *gtfsdb.Stop
	Arrivals []MergedArrival
	Vehicles []Vehicle
	Feeds    FeedStates
}

// ArrivalsAtStop joins the scheduled arrivals in the window with the live
// feeds. The schedule query runs concurrently with the feed fetches. Its
// errors, including NoActiveService and NotYetScheduled, are returned; feed
// failures only empty the live fields.
func (m *Merger) ArrivalsAtStop(ctx context.Context, routeID, stopID string) (ArrivalsResult, error) {
	var (
		wg        sync.WaitGroup
		scheduled []schedule.StopArrival
		schedErr  error
		snap      snapshots
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		scheduled, schedErr = m.window.ArrivalsAtStop(ctx, routeID, stopID)
	}()
	go func() {
		defer wg.Done()
		snap = m.fetchBoth(ctx)
	}()
	wg.Wait()
	if schedErr != nil {
		return ArrivalsResult{}, schedErr
	}

	result := ArrivalsResult{
		RouteID:  routeID,
		StopID:   stopID,
		Arrivals: make([]MergedArrival, 0, len(scheduled)),
		Vehicles: []Vehicle{},
		Feeds:    snap.states,
	}
	if stop, err := m.lookup.Stop(ctx, stopID); err == nil {
		result.Stop = &stop
	} else {
		m.logMiss("stop", stopID, "", err)
	}

	onRoute := snap.vehicles.ForRoute(routeID)
	enriched := m.enrich(ctx, onRoute, stopID)
	if err := ctx.Err(); err != nil {
		return ArrivalsResult{}, transiterr.New(transiterr.Internal, "arrivals at stop "+stopID, err)
	}

	byTrip := make(map[string]string, len(onRoute))
	for i, v := range onRoute {
		if !enriched[i].serves {
			continue
		}
		vehicle := newVehicle(v, enriched[i])
		vehicle.StopTimeUpdate = predictionFor(snap.updates, v.TripID, stopID)
		result.Vehicles = append(result.Vehicles, vehicle)
		if _, ok := byTrip[v.TripID]; !ok {
			byTrip[v.TripID] = v.VehicleID
		}
	}

	for _, a := range scheduled {
		arrival := MergedArrival{
			RouteID:   a.RouteID,
			Headsign:  a.Headsign,
			TripID:    a.TripID,
			StopID:    a.StopID,
			Scheduled: a.Scheduled,
		}
		if stu := predictionFor(snap.updates, a.TripID, stopID); stu != nil {
			arrival.Predicted, arrival.Delay = predictedTime(stu, a.Scheduled)
		}
		if id, ok := byTrip[a.TripID]; ok {
			arrival.VehicleID = &id
		}
		result.Arrivals = append(result.Arrivals, arrival)
	}

	m.logger.Debug("merged arrivals",
		slog.String("route_id", routeID),
		slog.String("stop_id", stopID),
		slog.Int("arrivals", len(result.Arrivals)),
		slog.Int("vehicles", len(result.Vehicles)))
	return result, nil
}

// predictedTime prefers the arrival event over the departure event, and an
// absolute time over a delay applied to the schedule.
func predictedTime(stu *gtfs.StopTimeUpdate, scheduled time.Time) (*time.Time, *int32) {
	for _, ev := range []*gtfs.StopTimeEvent{stu.Arrival, stu.Departure} {
		if ev == nil {
			continue
		}
		if ev.Time != nil {
			t := *ev.Time
			return &t, ev.Delay
		}
		if ev.Delay != nil {
			t := scheduled.Add(time.Duration(*ev.Delay) * time.Second)
			return &t, ev.Delay
		}
	}
	return nil, nil
}
