package gtfs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	gtfsrt "github.com/jamespfennell/gtfs/proto"
	"google.golang.org/protobuf/proto"

	"github.com/klinck004/ntta/internal/logging"
	"github.com/klinck004/ntta/internal/transiterr"
)

// Feed names used in logs, metrics and feed state reports.
const (
	FeedVehiclePositions = "vehicle_positions"
	FeedTripUpdates      = "trip_updates"
)

// Fetch outcomes reported to a FetchObserver.
const (
	OutcomeOK          = "ok"
	OutcomeUnavailable = "unavailable"
)

// FetchObserver is told about every feed fetch.
type FetchObserver interface {
	ObserveFeedFetch(feed, outcome string, duration time.Duration)
}

// FeedClient fetches and decodes the two realtime feeds. Every call returns a
// fresh snapshot; nothing is cached between calls.
type FeedClient struct {
	config   Config
	client   *http.Client
	observer FetchObserver
	now      func() time.Time
}

// NewFeedClient builds a client. A nil httpClient uses http.DefaultClient and
// a nil observer disables reporting.
func NewFeedClient(config Config, httpClient *http.Client, observer FetchObserver) *FeedClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &FeedClient{
		config:   config,
		client:   httpClient,
		observer: observer,
		now:      time.Now,
	}
}

// FetchVehiclePositions fetches the vehicle positions feed.
func (c *FeedClient) FetchVehiclePositions(ctx context.Context) (*VehicleSnapshot, error) {
	msg, err := c.fetchFeed(ctx, FeedVehiclePositions, c.config.VehiclePositionsURL)
	if err != nil {
		return nil, err
	}

	vehicles := make([]VehicleEntity, 0, len(msg.GetEntity()))
	for _, entity := range msg.GetEntity() {
		vp := entity.GetVehicle()
		if vp == nil {
			continue
		}
		vehicles = append(vehicles, vehicleEntity(entity.GetId(), vp))
	}
	return NewVehicleSnapshot(c.now(), vehicles), nil
}

// FetchTripUpdates fetches the trip updates feed.
func (c *FeedClient) FetchTripUpdates(ctx context.Context) (*TripUpdateSnapshot, error) {
	msg, err := c.fetchFeed(ctx, FeedTripUpdates, c.config.TripUpdatesURL)
	if err != nil {
		return nil, err
	}

	updates := make([]TripUpdateEntity, 0, len(msg.GetEntity()))
	for _, entity := range msg.GetEntity() {
		tu := entity.GetTripUpdate()
		if tu == nil {
			continue
		}
		updates = append(updates, tripUpdateEntity(entity.GetId(), tu))
	}
	return NewTripUpdateSnapshot(c.now(), updates), nil
}

func (c *FeedClient) fetchFeed(ctx context.Context, feed, url string) (msg *gtfsrt.FeedMessage, err error) {
	start := time.Now()
	defer func() {
		if c.observer == nil {
			return
		}
		outcome := OutcomeOK
		if err != nil {
			outcome = OutcomeUnavailable
		}
		c.observer.ObserveFeedFetch(feed, outcome, time.Since(start))
	}()

	if url == "" {
		return nil, transiterr.New(transiterr.FeedUnavailable, feed, fmt.Errorf("feed not configured"))
	}

	b, err := c.download(ctx, url)
	if err != nil {
		return nil, transiterr.New(transiterr.FeedUnavailable, feed, err)
	}

	msg = &gtfsrt.FeedMessage{}
	if err := proto.Unmarshal(b, msg); err != nil {
		return nil, transiterr.New(transiterr.FeedUnavailable, feed, fmt.Errorf("decoding feed: %w", err))
	}
	return msg, nil
}

func (c *FeedClient) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for key, value := range c.config.headers() {
		req.Header.Add(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer logging.SafeCloseWithLogging(resp.Body,
		logging.FromContext(ctx).With(slog.String("component", "gtfs_realtime_downloader")),
		"http_response_body")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func vehicleEntity(entityID string, vp *gtfsrt.VehiclePosition) VehicleEntity {
	v := VehicleEntity{
		EntityID:     entityID,
		VehicleID:    vp.GetVehicle().GetId(),
		VehicleLabel: vp.GetVehicle().GetLabel(),
		TripID:       vp.GetTrip().GetTripId(),
		RouteID:      vp.GetTrip().GetRouteId(),
		StopID:       vp.GetStopId(),
		Timestamp:    vp.GetTimestamp(),
	}
	if pos := vp.GetPosition(); pos != nil {
		lat := float64(pos.GetLatitude())
		lon := float64(pos.GetLongitude())
		v.Latitude = &lat
		v.Longitude = &lon
		if pos.Bearing != nil {
			bearing := float64(pos.GetBearing())
			v.Bearing = &bearing
		}
	}
	return v
}

func tripUpdateEntity(entityID string, tu *gtfsrt.TripUpdate) TripUpdateEntity {
	u := TripUpdateEntity{
		EntityID:  entityID,
		TripID:    tu.GetTrip().GetTripId(),
		RouteID:   tu.GetTrip().GetRouteId(),
		VehicleID: tu.GetVehicle().GetId(),
		Timestamp: tu.GetTimestamp(),
	}
	for _, stu := range tu.GetStopTimeUpdate() {
		update := StopTimeUpdate{
			StopID:    stu.GetStopId(),
			Arrival:   stopTimeEvent(stu.GetArrival()),
			Departure: stopTimeEvent(stu.GetDeparture()),
		}
		if stu.StopSequence != nil {
			seq := stu.GetStopSequence()
			update.StopSequence = &seq
		}
		u.StopTimeUpdates = append(u.StopTimeUpdates, update)
	}
	return u
}

func stopTimeEvent(ev *gtfsrt.TripUpdate_StopTimeEvent) *StopTimeEvent {
	if ev == nil {
		return nil
	}
	out := &StopTimeEvent{}
	if ev.Time != nil {
		t := time.Unix(ev.GetTime(), 0).UTC()
		out.Time = &t
	}
	if ev.Delay != nil {
		d := ev.GetDelay()
		out.Delay = &d
	}
	return out
}
