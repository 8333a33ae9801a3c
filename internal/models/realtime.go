package models

import (
	"github.com/klinck004/ntta/internal/gtfs"
	"github.com/klinck004/ntta/internal/merge"
	"github.com/klinck004/ntta/internal/utils"
)

type StopTimeEvent struct {
	Time  *int64 `json:"time"`
	Delay *int32 `json:"delay"`
}

func newStopTimeEvent(ev *gtfs.StopTimeEvent) *StopTimeEvent {
	if ev == nil {
		return nil
	}
	return &StopTimeEvent{Time: utils.UnixMillisPtr(ev.Time), Delay: ev.Delay}
}

type StopTimeUpdate struct {
	StopID       string         `json:"stopId"`
	StopSequence *uint32        `json:"stopSequence"`
	Arrival      *StopTimeEvent `json:"arrival"`
	Departure    *StopTimeEvent `json:"departure"`
}

func NewStopTimeUpdate(stu gtfs.StopTimeUpdate) StopTimeUpdate {
	return StopTimeUpdate{
		StopID:       stu.StopID,
		StopSequence: stu.StopSequence,
		Arrival:      newStopTimeEvent(stu.Arrival),
		Departure:    newStopTimeEvent(stu.Departure),
	}
}

func newStopTimeUpdatePtr(stu *gtfs.StopTimeUpdate) *StopTimeUpdate {
	if stu == nil {
		return nil
	}
	out := NewStopTimeUpdate(*stu)
	return &out
}

type TripUpdate struct {
	ID              string           `json:"id"`
	TripID          string           `json:"tripId"`
	RouteID         string           `json:"routeId"`
	VehicleID       string           `json:"vehicleId"`
	Timestamp       uint64           `json:"timestamp"`
	StopTimeUpdates []StopTimeUpdate `json:"stopTimeUpdates"`
}

func NewTripUpdates(updates []gtfs.TripUpdateEntity) []TripUpdate {
	out := make([]TripUpdate, len(updates))
	for i, u := range updates {
		stus := make([]StopTimeUpdate, len(u.StopTimeUpdates))
		for j, stu := range u.StopTimeUpdates {
			stus[j] = NewStopTimeUpdate(stu)
		}
		out[i] = TripUpdate{
			ID:              u.EntityID,
			TripID:          u.TripID,
			RouteID:         u.RouteID,
			VehicleID:       u.VehicleID,
			Timestamp:       u.Timestamp,
			StopTimeUpdates: stus,
		}
	}
	return out
}

type Vehicle struct {
	ID             string          `json:"id"`
	VehicleID      string          `json:"vehicleId"`
	Label          string          `json:"label"`
	TripID         string          `json:"tripId"`
	RouteID        string          `json:"routeId"`
	StopID         string          `json:"stopId"`
	LastUpdateTime *int64          `json:"lastUpdateTime"`
	Lat            *float64        `json:"lat"`
	Lon            *float64        `json:"lon"`
	Bearing        *float64        `json:"bearing"`
	Trip           *Trip           `json:"trip"`
	Stop           *Stop           `json:"stop"`
	StopTimeUpdate *StopTimeUpdate `json:"stopTimeUpdate"`
}

func NewVehicle(v merge.Vehicle) Vehicle {
	return Vehicle{
		ID:             v.EntityID,
		VehicleID:      v.VehicleID,
		Label:          v.Label,
		TripID:         v.TripID,
		RouteID:        v.RouteID,
		StopID:         v.StopID,
		LastUpdateTime: utils.UnixMillisPtr(v.Timestamp),
		Lat:            v.Latitude,
		Lon:            v.Longitude,
		Bearing:        v.Bearing,
		Trip:           NewTripPtr(v.Trip),
		Stop:           NewStopPtr(v.Stop),
		StopTimeUpdate: newStopTimeUpdatePtr(v.StopTimeUpdate),
	}
}

func NewVehicles(vehicles []merge.Vehicle) []Vehicle {
	out := make([]Vehicle, len(vehicles))
	for i, v := range vehicles {
		out[i] = NewVehicle(v)
	}
	return out
}

type FeedStates struct {
	VehiclePositions string `json:"vehiclePositions"`
	TripUpdates      string `json:"tripUpdates"`
}

type VehiclesForRoute struct {
	RouteID  string     `json:"routeId"`
	StopID   string     `json:"stopId,omitempty"`
	Status   string     `json:"status"`
	Vehicles []Vehicle  `json:"vehicles"`
	Feeds    FeedStates `json:"feeds"`
}

func NewVehiclesForRoute(r merge.VehiclesResult) VehiclesForRoute {
	return VehiclesForRoute{
		RouteID:  r.RouteID,
		StopID:   r.StopID,
		Status:   r.Status,
		Vehicles: NewVehicles(r.Vehicles),
		Feeds:    FeedStates(r.Feeds),
	}
}

// Arrival is a merged arrival. Predicted and vehicle fields are null
// without live data.
type Arrival struct {
	RouteID       string  `json:"routeId"`
	Headsign      string  `json:"headsign"`
	TripID        string  `json:"tripId"`
	StopID        string  `json:"stopId"`
	ScheduledTime int64   `json:"scheduledTime"`
	PredictedTime *int64  `json:"predictedTime"`
	Delay         *int32  `json:"delay"`
	VehicleID     *string `json:"vehicleId"`
}

type ArrivalsAtStop struct {
	RouteID  string     `json:"routeId"`
	StopID   string     `json:"stopId"`
	Stop     *Stop      `json:"stop"`
	Arrivals []Arrival  `json:"arrivals"`
	Vehicles []Vehicle  `json:"vehicles"`
	Feeds    FeedStates `json:"feeds"`
}

func NewArrivalsAtStop(r merge.ArrivalsResult) ArrivalsAtStop {
	arrivals := make([]Arrival, len(r.Arrivals))
	for i, a := range r.Arrivals {
		arrivals[i] = Arrival{
			RouteID:       a.RouteID,
			Headsign:      a.Headsign,
			TripID:        a.TripID,
			StopID:        a.StopID,
			ScheduledTime: utils.UnixMillis(a.Scheduled),
			PredictedTime: utils.UnixMillisPtr(a.Predicted),
			Delay:         a.Delay,
			VehicleID:     a.VehicleID,
		}
	}
	return ArrivalsAtStop{
		RouteID:  r.RouteID,
		StopID:   r.StopID,
		Stop:     NewStopPtr(r.Stop),
		Arrivals: arrivals,
		Vehicles: NewVehicles(r.Vehicles),
		Feeds:    FeedStates(r.Feeds),
	}
}
