// Package merge joins the live vehicle and trip update feeds with the static
// schedule. Every call fetches fresh snapshots; the only state kept across
// calls is the static lookup cache.
package merge

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"

	"github.com/klinck004/ntta/gtfsdb"
	"github.com/klinck004/ntta/internal/gtfs"
	"github.com/klinck004/ntta/internal/logging"
	"github.com/klinck004/ntta/internal/lookup"
	"github.com/klinck004/ntta/internal/schedule"
	"github.com/klinck004/ntta/internal/transiterr"
)

// Result statuses.
const (
	StatusOK              = "OK"
	StatusNoActiveTrips   = "NO_ACTIVE_TRIPS"
	StatusFeedUnavailable = "FEED_UNAVAILABLE"
)

// Feeds fetches the two realtime snapshots.
type Feeds interface {
	FetchVehiclePositions(ctx context.Context) (*gtfs.VehicleSnapshot, error)
	FetchTripUpdates(ctx context.Context) (*gtfs.TripUpdateSnapshot, error)
}

// StopTimeSource finds the scheduled call of a trip at a stop.
type StopTimeSource interface {
	GetStopTimeForTripAndStop(ctx context.Context, tripID, stopID string) (gtfsdb.StopTime, error)
}

// FeedStates reports the outcome of each feed fetch, gtfs.OutcomeOK or
// gtfs.OutcomeUnavailable. An empty value means the feed was not needed.
type FeedStates struct {
	VehiclePositions string
	TripUpdates      string
}

// Deps are the collaborators of a Merger.
type Deps struct {
	Feeds     Feeds
	Window    *schedule.WindowQuery
	StopTimes StopTimeSource
	Lookup    *lookup.StaticLookup
	Fanout    *lookup.Fanout
	Logger    *slog.Logger
}

type Merger struct {
	feeds     Feeds
	window    *schedule.WindowQuery
	stopTimes StopTimeSource
	lookup    *lookup.StaticLookup
	fanout    *lookup.Fanout
	logger    *slog.Logger
}

func New(deps Deps) *Merger {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{
		feeds:     deps.Feeds,
		window:    deps.Window,
		stopTimes: deps.StopTimes,
		lookup:    deps.Lookup,
		fanout:    deps.Fanout,
		logger:    logger.With(slog.String("component", "realtime_merger")),
	}
}

type snapshots struct {
	vehicles *gtfs.VehicleSnapshot
	updates  *gtfs.TripUpdateSnapshot
	states   FeedStates
}

// fetchBoth fetches both feeds concurrently. A failed feed leaves its
// snapshot nil and is reported as unavailable.
func (m *Merger) fetchBoth(ctx context.Context) snapshots {
	var (
		wg       sync.WaitGroup
		snap     snapshots
		vehErr   error
		tripsErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		snap.vehicles, vehErr = m.feeds.FetchVehiclePositions(ctx)
	}()
	go func() {
		defer wg.Done()
		snap.updates, tripsErr = m.feeds.FetchTripUpdates(ctx)
	}()
	wg.Wait()

	snap.states.VehiclePositions = m.feedState(gtfs.FeedVehiclePositions, vehErr)
	snap.states.TripUpdates = m.feedState(gtfs.FeedTripUpdates, tripsErr)
	return snap
}

func (m *Merger) feedState(feed string, err error) string {
	if err == nil {
		return gtfs.OutcomeOK
	}
	logging.LogError(m.logger, "realtime feed degraded", err, slog.String("feed", feed))
	return gtfs.OutcomeUnavailable
}

// enrichment is the static side of one vehicle.
type enrichment struct {
	trip     *gtfsdb.Trip
	stop     *gtfsdb.Stop
	schedule *gtfsdb.StopTime
	serves   bool
}

// enrich resolves trip and current stop of each vehicle through the fanout.
// When servedStop is set it also looks up the vehicle's scheduled call there.
func (m *Merger) enrich(ctx context.Context, vehicles []gtfs.VehicleEntity, servedStop string) []enrichment {
	results := lookup.Map(ctx, m.fanout, vehicles, func(ctx context.Context, v gtfs.VehicleEntity) (enrichment, error) {
		var e enrichment
		if v.TripID != "" {
			if trip, err := m.lookup.Trip(ctx, v.TripID); err == nil {
				e.trip = &trip
			} else {
				m.logMiss("trip", v.TripID, v.EntityID, err)
			}
		}
		if v.StopID != "" {
			if stop, err := m.lookup.Stop(ctx, v.StopID); err == nil {
				e.stop = &stop
			} else {
				m.logMiss("stop", v.StopID, v.EntityID, err)
			}
		}
		if servedStop != "" && v.TripID != "" {
			st, err := m.stopTimes.GetStopTimeForTripAndStop(ctx, v.TripID, servedStop)
			switch {
			case err == nil:
				e.schedule = &st
				e.serves = true
			case !errors.Is(err, sql.ErrNoRows):
				logging.LogError(m.logger, "stop time lookup failed", err,
					slog.String("trip_id", v.TripID),
					slog.String("stop_id", servedStop))
			}
		}
		return e, nil
	})

	out := make([]enrichment, len(results))
	for i, r := range results {
		if r.Err != nil {
			logging.LogError(m.logger, "vehicle enrichment skipped", r.Err,
				slog.String("entity_id", vehicles[i].EntityID))
			continue
		}
		out[i] = r.Value
	}
	return out
}

func (m *Merger) logMiss(kind, id, entityID string, err error) {
	if errors.Is(err, transiterr.ErrLookupMiss) {
		m.logger.Warn("static record missing",
			slog.String("kind", kind),
			slog.String("id", id),
			slog.String("entity_id", entityID))
		return
	}
	logging.LogError(m.logger, "static lookup failed", err,
		slog.String("kind", kind),
		slog.String("id", id),
		slog.String("entity_id", entityID))
}
