package schedule

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/klinck004/ntta/gtfsdb"
	"github.com/klinck004/ntta/internal/logging"
	"github.com/klinck004/ntta/internal/lookup"
	"github.com/klinck004/ntta/internal/transiterr"
)

var errNoStopTimes = errors.New("no stop times")

// StopTimeSource lists the stop times of a trip.
type StopTimeSource interface {
	GetStopTimesForTrip(ctx context.Context, tripID string) ([]gtfsdb.StopTime, error)
}

// OrderedStop is one call of a trip. Stop is nil when the stop record is missing.
type OrderedStop struct {
	StopID   string
	Stop     *gtfsdb.Stop
	Schedule gtfsdb.StopTime
}

// StopOrderResolver produces a trip's stops in stop_sequence order.
type StopOrderResolver struct {
	source StopTimeSource
	lookup *lookup.StaticLookup
	fanout *lookup.Fanout
	logger *slog.Logger
}

func NewStopOrderResolver(source StopTimeSource, lk *lookup.StaticLookup, fanout *lookup.Fanout, logger *slog.Logger) *StopOrderResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &StopOrderResolver{
		source: source,
		lookup: lk,
		fanout: fanout,
		logger: logger.With(slog.String("component", "stop_order")),
	}
}

// Resolve returns one entry per stop time of the trip, sorted ascending by
// stop_sequence. A failed or empty stop time fetch returns a tagged error so
// callers can show "no schedule data" for that trip alone.
func (r *StopOrderResolver) Resolve(ctx context.Context, tripID string) ([]OrderedStop, error) {
	rows, err := r.source.GetStopTimesForTrip(ctx, tripID)
	if err != nil {
		return nil, transiterr.New(transiterr.Internal, "stop times for trip "+tripID, err)
	}
	if len(rows) == 0 {
		return nil, transiterr.New(transiterr.LookupMiss, "no schedule data for trip "+tripID, errNoStopTimes)
	}

	stops := lookup.Map(ctx, r.fanout, rows, func(ctx context.Context, st gtfsdb.StopTime) (*gtfsdb.Stop, error) {
		s, err := r.lookup.Stop(ctx, st.StopID)
		if err != nil {
			return nil, err
		}
		return &s, nil
	})
	if err := ctx.Err(); err != nil {
		return nil, transiterr.New(transiterr.Internal, "resolve stops for trip "+tripID, err)
	}

	ordered := make([]OrderedStop, len(rows))
	for i, st := range rows {
		ordered[i] = OrderedStop{StopID: st.StopID, Stop: stops[i].Value, Schedule: st}
		if stops[i].Err == nil {
			continue
		}
		if errors.Is(stops[i].Err, transiterr.ErrLookupMiss) {
			r.logger.Warn("stop record missing",
				slog.String("trip_id", tripID),
				slog.String("stop_id", st.StopID))
			continue
		}
		logging.LogError(r.logger, "stop lookup failed", stops[i].Err,
			slog.String("trip_id", tripID),
			slog.String("stop_id", st.StopID))
	}

	slices.SortStableFunc(ordered, func(a, b OrderedStop) int {
		return a.Schedule.StopSequence - b.Schedule.StopSequence
	})
	return ordered, nil
}
