package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/klinck004/ntta/gtfsdb"
	"github.com/klinck004/ntta/internal/lookup"
	"github.com/klinck004/ntta/internal/testfixtures"
)

type fixture struct {
	store    *gtfsdb.Client
	lookup   *lookup.StaticLookup
	fanout   *lookup.Fanout
	services *ServiceDayResolver
	stops    *StopOrderResolver
	window   *WindowQuery
	planner  *Planner
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	store := testfixtures.NewStore(t)
	lk, err := lookup.NewStaticLookup(store.Queries, 64, nil)
	require.NoError(t, err)
	fanout := lookup.NewFanout(lookup.DefaultFanoutLimit, nil)

	services := NewServiceDayResolver(store.Queries, testfixtures.Location(t), testfixtures.Clock(now))
	stops := NewStopOrderResolver(store.Queries, lk, fanout, nil)
	window := NewWindowQuery(services, store.Queries, lk, fanout, DefaultWindow, nil)

	return &fixture{
		store:    store,
		lookup:   lk,
		fanout:   fanout,
		services: services,
		stops:    stops,
		window:   window,
		planner:  NewPlanner(window, stops, lk, nil),
	}
}

func localTime(t *testing.T, year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, testfixtures.Location(t))
}
