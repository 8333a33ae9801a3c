package lookup

import (
	"context"
	"database/sql"
	"errors"

	"github.com/klinck004/ntta/gtfsdb"
	"github.com/klinck004/ntta/internal/transiterr"
)

// RecordSource is the part of the static store the lookups read from.
type RecordSource interface {
	GetStop(ctx context.Context, id string) (gtfsdb.Stop, error)
	GetRoute(ctx context.Context, id string) (gtfsdb.Route, error)
	GetTrip(ctx context.Context, id string) (gtfsdb.Trip, error)
}

// StaticLookup memoizes stop, route and trip records for the process.
// Cached records are never refreshed, so a new static import needs a restart
// or an explicit Purge.
type StaticLookup struct {
	source RecordSource
	stops  *Memo[gtfsdb.Stop]
	routes *Memo[gtfsdb.Route]
	trips  *Memo[gtfsdb.Trip]
}

func NewStaticLookup(source RecordSource, size int, observer CacheObserver) (*StaticLookup, error) {
	stops, err := NewMemo[gtfsdb.Stop]("stop", size, observer)
	if err != nil {
		return nil, err
	}
	routes, err := NewMemo[gtfsdb.Route]("route", size, observer)
	if err != nil {
		return nil, err
	}
	trips, err := NewMemo[gtfsdb.Trip]("trip", size, observer)
	if err != nil {
		return nil, err
	}
	return &StaticLookup{source: source, stops: stops, routes: routes, trips: trips}, nil
}

// Stop resolves a stop; a missing record is a LookupMiss.
func (l *StaticLookup) Stop(ctx context.Context, id string) (gtfsdb.Stop, error) {
	return l.stops.Get(ctx, id, func(ctx context.Context, id string) (gtfsdb.Stop, error) {
		s, err := l.source.GetStop(ctx, id)
		return s, classify("stop "+id, err)
	})
}

// Route resolves a route; a missing record is a LookupMiss.
func (l *StaticLookup) Route(ctx context.Context, id string) (gtfsdb.Route, error) {
	return l.routes.Get(ctx, id, func(ctx context.Context, id string) (gtfsdb.Route, error) {
		r, err := l.source.GetRoute(ctx, id)
		return r, classify("route "+id, err)
	})
}

// Trip resolves a trip; a missing record is a LookupMiss.
func (l *StaticLookup) Trip(ctx context.Context, id string) (gtfsdb.Trip, error) {
	return l.trips.Get(ctx, id, func(ctx context.Context, id string) (gtfsdb.Trip, error) {
		t, err := l.source.GetTrip(ctx, id)
		return t, classify("trip "+id, err)
	})
}

// Purge empties every memo.
func (l *StaticLookup) Purge() {
	l.stops.Purge()
	l.routes.Purge()
	l.trips.Purge()
}

func classify(tag string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return transiterr.New(transiterr.LookupMiss, tag, err)
	default:
		return transiterr.New(transiterr.Internal, tag, err)
	}
}
