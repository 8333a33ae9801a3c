package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/klinck004/ntta/gtfsdb"
	"github.com/klinck004/ntta/internal/appconf"
	"github.com/klinck004/ntta/internal/gtfs"
	"github.com/klinck004/ntta/internal/lookup"
	"github.com/klinck004/ntta/internal/merge"
	"github.com/klinck004/ntta/internal/metrics"
	"github.com/klinck004/ntta/internal/schedule"
)

// Application holds the dependencies for our HTTP handlers, helpers,
// and middleware. Everything is built once at startup and passed explicitly.
type Application struct {
	Config   appconf.Config
	Logger   *slog.Logger
	Store    *gtfsdb.Client
	Metrics  *metrics.Collector
	Feeds    *gtfs.FeedClient
	Fanout   *lookup.Fanout
	Lookup   *lookup.StaticLookup
	Services *schedule.ServiceDayResolver
	Planner  *schedule.Planner
	Merger   *merge.Merger
	// Clock is the source of "now" for the whole process.
	Clock func() time.Time
}

// Options are the pieces of an Application that differ between the server
// and tests.
type Options struct {
	Config  appconf.Config
	Store   *gtfsdb.Client
	Logger  *slog.Logger
	Metrics *metrics.Collector
	// HTTPClient fetches the realtime feeds. Nil builds one with the
	// configured feed timeout.
	HTTPClient *http.Client
	Clock      func() time.Time
}

// New wires the schedule and realtime components over an open store.
func New(opts Options) (*Application, error) {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("static store is required")
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.FeedTimeout()}
	}

	fanout := lookup.NewFanout(cfg.FanoutLimit, opts.Metrics)
	lk, err := lookup.NewStaticLookup(opts.Store.Queries, cfg.LookupCacheSize, opts.Metrics)
	if err != nil {
		return nil, fmt.Errorf("creating static lookup: %w", err)
	}

	feeds := gtfs.NewFeedClient(gtfs.Config{
		VehiclePositionsURL:     cfg.VehiclePositionsURL,
		TripUpdatesURL:          cfg.TripUpdatesURL,
		RealTimeAuthHeaderKey:   cfg.RealTimeAuthHeaderKey,
		RealTimeAuthHeaderValue: cfg.RealTimeAuthHeaderValue,
	}, httpClient, opts.Metrics)

	services := schedule.NewServiceDayResolver(opts.Store.Queries, loc, clock)
	window := schedule.NewWindowQuery(services, opts.Store.Queries, lk, fanout, cfg.ScheduleWindow(), logger)
	stops := schedule.NewStopOrderResolver(opts.Store.Queries, lk, fanout, logger)

	return &Application{
		Config:   cfg,
		Logger:   logger,
		Store:    opts.Store,
		Metrics:  opts.Metrics,
		Feeds:    feeds,
		Fanout:   fanout,
		Lookup:   lk,
		Services: services,
		Planner:  schedule.NewPlanner(window, stops, lk, logger),
		Merger: merge.New(merge.Deps{
			Feeds:     feeds,
			Window:    window,
			StopTimes: opts.Store.Queries,
			Lookup:    lk,
			Fanout:    fanout,
			Logger:    logger,
		}),
		Clock: clock,
	}, nil
}

// Now is the current time in the agency time zone.
func (app *Application) Now() time.Time {
	return app.Clock().In(app.Services.Location())
}
