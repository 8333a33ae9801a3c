package gtfs

import (
	"slices"
	"time"
)

// VehicleEntity is one decoded vehicle position.
type VehicleEntity struct {
	EntityID     string
	VehicleID    string
	VehicleLabel string
	TripID       string
	RouteID      string
	StopID       string
	// Timestamp is the raw epoch-seconds value, zero when absent.
	Timestamp uint64
	Latitude  *float64
	Longitude *float64
	Bearing   *float64
}

// Time converts the epoch timestamp, or returns nil when absent.
func (v VehicleEntity) Time() *time.Time {
	if v.Timestamp == 0 {
		return nil
	}
	t := time.Unix(int64(v.Timestamp), 0).UTC()
	return &t
}

// StopTimeEvent is a predicted arrival or departure.
type StopTimeEvent struct {
	Time  *time.Time
	Delay *int32
}

// StopTimeUpdate is a prediction for one stop of a trip.
type StopTimeUpdate struct {
	StopID       string
	StopSequence *uint32
	Arrival      *StopTimeEvent
	Departure    *StopTimeEvent
}

// TripUpdateEntity is one decoded trip update.
type TripUpdateEntity struct {
	EntityID        string
	TripID          string
	RouteID         string
	VehicleID       string
	Timestamp       uint64
	StopTimeUpdates []StopTimeUpdate
}

// ForStop returns the first update whose stop id equals stopID exactly.
func (u TripUpdateEntity) ForStop(stopID string) (StopTimeUpdate, bool) {
	for _, stu := range u.StopTimeUpdates {
		if stu.StopID == stopID {
			return stu, true
		}
	}
	return StopTimeUpdate{}, false
}

// VehicleSnapshot is the immutable result of one vehicle positions fetch.
type VehicleSnapshot struct {
	fetchedAt time.Time
	vehicles  []VehicleEntity
}

func NewVehicleSnapshot(fetchedAt time.Time, vehicles []VehicleEntity) *VehicleSnapshot {
	return &VehicleSnapshot{fetchedAt: fetchedAt, vehicles: slices.Clone(vehicles)}
}

func (s *VehicleSnapshot) FetchedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.fetchedAt
}

func (s *VehicleSnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.vehicles)
}

// Vehicles returns a copy of every entity in feed order.
func (s *VehicleSnapshot) Vehicles() []VehicleEntity {
	if s == nil {
		return nil
	}
	return slices.Clone(s.vehicles)
}

// ForRoute returns the vehicles whose trip belongs to routeID.
func (s *VehicleSnapshot) ForRoute(routeID string) []VehicleEntity {
	if s == nil {
		return nil
	}
	var out []VehicleEntity
	for _, v := range s.vehicles {
		if v.RouteID == routeID {
			out = append(out, v)
		}
	}
	return out
}

// ByEntityID finds a vehicle by its feed entity id.
func (s *VehicleSnapshot) ByEntityID(id string) (VehicleEntity, bool) {
	if s == nil {
		return VehicleEntity{}, false
	}
	for _, v := range s.vehicles {
		if v.EntityID == id {
			return v, true
		}
	}
	return VehicleEntity{}, false
}

// TripUpdateSnapshot is the immutable result of one trip updates fetch.
type TripUpdateSnapshot struct {
	fetchedAt time.Time
	updates   []TripUpdateEntity
	byTrip    map[string]int
}

func NewTripUpdateSnapshot(fetchedAt time.Time, updates []TripUpdateEntity) *TripUpdateSnapshot {
	s := &TripUpdateSnapshot{
		fetchedAt: fetchedAt,
		updates:   make([]TripUpdateEntity, len(updates)),
		byTrip:    make(map[string]int, len(updates)),
	}
	for i, u := range updates {
		u.StopTimeUpdates = slices.Clone(u.StopTimeUpdates)
		s.updates[i] = u
		// first entity wins when a feed repeats a trip
		if _, ok := s.byTrip[u.TripID]; !ok && u.TripID != "" {
			s.byTrip[u.TripID] = i
		}
	}
	return s
}

func (s *TripUpdateSnapshot) FetchedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.fetchedAt
}

func (s *TripUpdateSnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.updates)
}

// Updates returns a copy of every entity in feed order.
func (s *TripUpdateSnapshot) Updates() []TripUpdateEntity {
	if s == nil {
		return nil
	}
	out := make([]TripUpdateEntity, len(s.updates))
	for i, u := range s.updates {
		u.StopTimeUpdates = slices.Clone(u.StopTimeUpdates)
		out[i] = u
	}
	return out
}

// ForTrip returns the update whose trip id equals tripID exactly.
func (s *TripUpdateSnapshot) ForTrip(tripID string) (TripUpdateEntity, bool) {
	if s == nil {
		return TripUpdateEntity{}, false
	}
	i, ok := s.byTrip[tripID]
	if !ok {
		return TripUpdateEntity{}, false
	}
	u := s.updates[i]
	u.StopTimeUpdates = slices.Clone(u.StopTimeUpdates)
	return u, true
}

// ForRoute returns the updates whose trip belongs to routeID.
func (s *TripUpdateSnapshot) ForRoute(routeID string) []TripUpdateEntity {
	if s == nil {
		return nil
	}
	var out []TripUpdateEntity
	for _, u := range s.updates {
		if u.RouteID == routeID {
			u.StopTimeUpdates = slices.Clone(u.StopTimeUpdates)
			out = append(out, u)
		}
	}
	return out
}
