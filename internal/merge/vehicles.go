package merge

import (
	"context"
	"log/slog"
	"time"

	"github.com/klinck004/ntta/gtfsdb"
	"github.com/klinck004/ntta/internal/gtfs"
	"github.com/klinck004/ntta/internal/transiterr"
)

// Vehicle is a live vehicle joined with its static trip and current stop.
// StopTimeUpdate is the prediction for the requested stop, when asked for one.
type Vehicle struct {
	EntityID       string
	VehicleID      string
	Label          string
	TripID         string
	RouteID        string
	StopID         string
	Timestamp      *time.Time
	Latitude       *float64
	Longitude      *float64
	Bearing        *float64
	Trip           *gtfsdb.Trip
	Stop           *gtfsdb.Stop
	StopTimeUpdate *gtfs.StopTimeUpdate
}

// VehiclesResult is the merged view of one route. Status is
// StatusNoActiveTrips when no vehicle is on the route and
// StatusFeedUnavailable when the vehicle feed could not be read.
type VehiclesResult struct {
	RouteID  string
	StopID   string
	Status   string
	Vehicles []Vehicle
	Feeds    FeedStates
}

func newVehicle(v gtfs.VehicleEntity, e enrichment) Vehicle {
	return Vehicle{
		EntityID:  v.EntityID,
		VehicleID: v.VehicleID,
		Label:     v.VehicleLabel,
		TripID:    v.TripID,
		RouteID:   v.RouteID,
		StopID:    v.StopID,
		Timestamp: v.Time(),
		Latitude:  v.Latitude,
		Longitude: v.Longitude,
		Bearing:   v.Bearing,
		Trip:      e.trip,
		Stop:      e.stop,
	}
}

// predictionFor returns the first StopTimeUpdate of the trip's update whose
// stop id equals stopID, or nil.
func predictionFor(updates *gtfs.TripUpdateSnapshot, tripID, stopID string) *gtfs.StopTimeUpdate {
	if stopID == "" || tripID == "" {
		return nil
	}
	update, ok := updates.ForTrip(tripID)
	if !ok {
		return nil
	}
	stu, ok := update.ForStop(stopID)
	if !ok {
		return nil
	}
	return &stu
}

// VehiclesForRoute returns the live vehicles of a route enriched with static
// records. With a stopID each vehicle carries its trip's prediction for that
// stop. Feed failures degrade to empty results with the feed reported
// unavailable.
func (m *Merger) VehiclesForRoute(ctx context.Context, routeID, stopID string) (VehiclesResult, error) {
	snap := m.fetchBoth(ctx)
	result := VehiclesResult{
		RouteID:  routeID,
		StopID:   stopID,
		Status:   StatusOK,
		Vehicles: []Vehicle{},
		Feeds:    snap.states,
	}

	if snap.states.VehiclePositions == gtfs.OutcomeUnavailable {
		result.Status = StatusFeedUnavailable
		return result, nil
	}

	onRoute := snap.vehicles.ForRoute(routeID)
	if len(onRoute) == 0 {
		result.Status = StatusNoActiveTrips
		return result, nil
	}

	enriched := m.enrich(ctx, onRoute, "")
	if err := ctx.Err(); err != nil {
		return VehiclesResult{}, transiterr.New(transiterr.Internal, "vehicles for route "+routeID, err)
	}
	for i, v := range onRoute {
		vehicle := newVehicle(v, enriched[i])
		vehicle.StopTimeUpdate = predictionFor(snap.updates, v.TripID, stopID)
		result.Vehicles = append(result.Vehicles, vehicle)
	}
	return result, nil
}

// Vehicle returns one vehicle by feed entity id. Unlike the route views a
// feed failure is returned, since there is nothing to degrade to.
func (m *Merger) Vehicle(ctx context.Context, entityID string) (Vehicle, error) {
	snap, err := m.feeds.FetchVehiclePositions(ctx)
	if err != nil {
		return Vehicle{}, err
	}
	v, ok := snap.ByEntityID(entityID)
	if !ok {
		return Vehicle{}, transiterr.Newf(transiterr.LookupMiss, "vehicle %s not in feed", entityID)
	}
	enriched := m.enrich(ctx, []gtfs.VehicleEntity{v}, "")
	return newVehicle(v, enriched[0]), nil
}

// TripUpdatesForRoute returns the trip updates of a route. Updates that carry
// no route id are matched through their static trip.
func (m *Merger) TripUpdatesForRoute(ctx context.Context, routeID string) ([]gtfs.TripUpdateEntity, error) {
	snap, err := m.feeds.FetchTripUpdates(ctx)
	if err != nil {
		return nil, err
	}

	var out []gtfs.TripUpdateEntity
	for _, u := range snap.Updates() {
		switch {
		case u.RouteID == routeID:
			out = append(out, u)
		case u.RouteID == "" && u.TripID != "":
			trip, err := m.lookup.Trip(ctx, u.TripID)
			if err != nil {
				m.logMiss("trip", u.TripID, u.EntityID, err)
				continue
			}
			if trip.RouteID == routeID {
				u.RouteID = routeID
				out = append(out, u)
			}
		}
	}
	if out == nil {
		out = []gtfs.TripUpdateEntity{}
	}
	m.logger.Debug("trip updates for route",
		slog.String("route_id", routeID),
		slog.Int("count", len(out)))
	return out, nil
}
