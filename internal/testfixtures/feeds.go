package testfixtures

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	gtfsrt "github.com/jamespfennell/gtfs/proto"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

// Vehicle describes one vehicle position entity.
type Vehicle struct {
	EntityID  string
	VehicleID string
	TripID    string
	RouteID   string
	StopID    string
	Timestamp time.Time
	Lat, Lon  float32
}

// StopUpdate describes one StopTimeUpdate. A zero Arrival is omitted.
type StopUpdate struct {
	StopID  string
	Arrival time.Time
	Delay   *int32
}

// TripUpdate describes one trip update entity.
type TripUpdate struct {
	EntityID string
	TripID   string
	RouteID  string
	Stops    []StopUpdate
}

func header(ts time.Time) *gtfsrt.FeedHeader {
	incrementality := gtfsrt.FeedHeader_FULL_DATASET
	h := &gtfsrt.FeedHeader{
		GtfsRealtimeVersion: proto.String("2.0"),
		Incrementality:      &incrementality,
	}
	if !ts.IsZero() {
		h.Timestamp = proto.Uint64(uint64(ts.Unix()))
	}
	return h
}

// VehiclePositionsFeed encodes a vehicle positions FeedMessage.
func VehiclePositionsFeed(t testing.TB, vehicles ...Vehicle) []byte {
	t.Helper()

	entities := make([]*gtfsrt.FeedEntity, 0, len(vehicles))
	var ts time.Time
	for _, v := range vehicles {
		vp := &gtfsrt.VehiclePosition{
			Trip: &gtfsrt.TripDescriptor{
				TripId:  proto.String(v.TripID),
				RouteId: proto.String(v.RouteID),
			},
			Vehicle: &gtfsrt.VehicleDescriptor{Id: proto.String(v.VehicleID)},
			Position: &gtfsrt.Position{
				Latitude:  proto.Float32(v.Lat),
				Longitude: proto.Float32(v.Lon),
			},
		}
		if v.StopID != "" {
			vp.StopId = proto.String(v.StopID)
		}
		if !v.Timestamp.IsZero() {
			vp.Timestamp = proto.Uint64(uint64(v.Timestamp.Unix()))
			ts = v.Timestamp
		}
		entities = append(entities, &gtfsrt.FeedEntity{Id: proto.String(v.EntityID), Vehicle: vp})
	}

	data, err := proto.Marshal(&gtfsrt.FeedMessage{Header: header(ts), Entity: entities})
	require.NoError(t, err)
	return data
}

// TripUpdatesFeed encodes a trip updates FeedMessage.
func TripUpdatesFeed(t testing.TB, updates ...TripUpdate) []byte {
	t.Helper()

	entities := make([]*gtfsrt.FeedEntity, 0, len(updates))
	for _, u := range updates {
		stus := make([]*gtfsrt.TripUpdate_StopTimeUpdate, 0, len(u.Stops))
		for _, s := range u.Stops {
			stu := &gtfsrt.TripUpdate_StopTimeUpdate{StopId: proto.String(s.StopID)}
			if !s.Arrival.IsZero() || s.Delay != nil {
				ev := &gtfsrt.TripUpdate_StopTimeEvent{Delay: s.Delay}
				if !s.Arrival.IsZero() {
					ev.Time = proto.Int64(s.Arrival.Unix())
				}
				stu.Arrival = ev
			}
			stus = append(stus, stu)
		}
		entities = append(entities, &gtfsrt.FeedEntity{
			Id: proto.String(u.EntityID),
			TripUpdate: &gtfsrt.TripUpdate{
				Trip: &gtfsrt.TripDescriptor{
					TripId:  proto.String(u.TripID),
					RouteId: proto.String(u.RouteID),
				},
				StopTimeUpdate: stus,
			},
		})
	}

	data, err := proto.Marshal(&gtfsrt.FeedMessage{Header: header(time.Time{}), Entity: entities})
	require.NoError(t, err)
	return data
}

// DefaultVehicles are the live vehicles at Monday 08:00.
func DefaultVehicles(now time.Time) []Vehicle {
	return []Vehicle{
		{EntityID: "E1", VehicleID: "V1", TripID: "T1", RouteID: "R1", StopID: "S1", Timestamp: now, Lat: 43.6455, Lon: -79.3954},
		{EntityID: "E3", VehicleID: "V3", TripID: "T3", RouteID: "R1", StopID: "S2", Timestamp: now, Lat: 43.6465, Lon: -79.3905},
		{EntityID: "E5", VehicleID: "V5", TripID: "T5", RouteID: "R2", StopID: "S4", Timestamp: now, Lat: 43.6487, Lon: -79.3966},
	}
}

// DefaultTripUpdates are the predictions at Monday 08:00.
func DefaultTripUpdates(now time.Time) []TripUpdate {
	delay := int32(120)
	return []TripUpdate{
		{EntityID: "U1", TripID: "T1", RouteID: "R1", Stops: []StopUpdate{
			{StopID: "S1", Arrival: now.Add(12 * time.Minute), Delay: &delay},
			{StopID: "S2", Arrival: now.Add(22 * time.Minute)},
		}},
		{EntityID: "U3", TripID: "T3", RouteID: "R1", Stops: []StopUpdate{
			{StopID: "S2", Arrival: now.Add(16 * time.Minute)},
			{StopID: "S1", Arrival: now.Add(27 * time.Minute)},
		}},
	}
}

// FeedServer serves both realtime feeds. Payloads and status codes can be
// swapped between requests.
type FeedServer struct {
	*httptest.Server

	mu             sync.Mutex
	vehicles       []byte
	tripUpdates    []byte
	vehicleStatus  int
	tripStatus     int
	vehicleHits    atomic.Int64
	tripUpdateHits atomic.Int64
	lastAuthHeader atomic.Value
}

// NewFeedServer starts a server serving the default feeds for now.
func NewFeedServer(t testing.TB, now time.Time) *FeedServer {
	t.Helper()

	fs := &FeedServer{
		vehicles:      VehiclePositionsFeed(t, DefaultVehicles(now)...),
		tripUpdates:   TripUpdatesFeed(t, DefaultTripUpdates(now)...),
		vehicleStatus: http.StatusOK,
		tripStatus:    http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/vehicle-positions", func(w http.ResponseWriter, r *http.Request) {
		fs.vehicleHits.Add(1)
		fs.lastAuthHeader.Store(r.Header.Get("X-Api-Key"))
		fs.mu.Lock()
		status, body := fs.vehicleStatus, fs.vehicles
		fs.mu.Unlock()
		w.Header().Set("Content-Type", "application/x-protobuf")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	})
	mux.HandleFunc("/trip-updates", func(w http.ResponseWriter, r *http.Request) {
		fs.tripUpdateHits.Add(1)
		fs.mu.Lock()
		status, body := fs.tripStatus, fs.tripUpdates
		fs.mu.Unlock()
		w.Header().Set("Content-Type", "application/x-protobuf")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	})

	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Server.Close)
	return fs
}

func (fs *FeedServer) VehiclePositionsURL() string { return fs.URL + "/vehicle-positions" }

func (fs *FeedServer) TripUpdatesURL() string { return fs.URL + "/trip-updates" }

func (fs *FeedServer) SetVehicles(body []byte) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.vehicles = body
	fs.vehicleStatus = http.StatusOK
}

func (fs *FeedServer) SetTripUpdates(body []byte) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.tripUpdates = body
	fs.tripStatus = http.StatusOK
}

// FailVehicles makes the vehicle positions endpoint answer with status.
func (fs *FeedServer) FailVehicles(status int) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.vehicleStatus = status
	fs.vehicles = []byte("upstream error")
}

// FailTripUpdates makes the trip updates endpoint answer with status.
func (fs *FeedServer) FailTripUpdates(status int) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.tripStatus = status
	fs.tripUpdates = []byte("upstream error")
}

func (fs *FeedServer) VehicleHits() int64 { return fs.vehicleHits.Load() }

func (fs *FeedServer) TripUpdateHits() int64 { return fs.tripUpdateHits.Load() }

// LastAuthHeader is the X-Api-Key header of the latest vehicle request.
func (fs *FeedServer) LastAuthHeader() string {
	v, _ := fs.lastAuthHeader.Load().(string)
	return v
}
