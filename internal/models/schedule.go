package models

import (
	"github.com/klinck004/ntta/internal/schedule"
	"github.com/klinck004/ntta/internal/utils"
)

// ScheduledRoute is an entry of the route list.
type ScheduledRoute struct {
	RouteID       string `json:"routeId"`
	Route         *Route `json:"route"`
	NextTripID    string `json:"nextTripId"`
	ScheduledTime int64  `json:"scheduledTime"`
}

func NewScheduledRoutes(routes []schedule.ScheduledRoute) []ScheduledRoute {
	out := make([]ScheduledRoute, len(routes))
	for i, r := range routes {
		out[i] = ScheduledRoute{
			RouteID:       r.RouteID,
			Route:         NewRoutePtr(r.Route),
			NextTripID:    r.TripID,
			ScheduledTime: utils.UnixMillis(r.Scheduled),
		}
	}
	return out
}

// Branch is one headsign of a route with the stops of its next trip. Error
// replaces Stops when that trip has no schedule data.
type Branch struct {
	Headsign      string     `json:"headsign"`
	TripID        string     `json:"tripId"`
	ServiceID     string     `json:"serviceId"`
	ScheduledTime int64      `json:"scheduledTime"`
	Stops         []StopTime `json:"stops"`
	Error         string     `json:"error,omitempty"`
}

type RouteInfo struct {
	Route    Route    `json:"route"`
	Branches []Branch `json:"branches"`
}

func NewRouteInfo(info schedule.RouteInfo) RouteInfo {
	out := RouteInfo{Route: NewRoute(info.Route), Branches: make([]Branch, len(info.Branches))}
	for i, b := range info.Branches {
		branch := Branch{
			Headsign:      b.Headsign,
			TripID:        b.TripID,
			ServiceID:     b.ServiceID,
			ScheduledTime: utils.UnixMillis(b.Scheduled),
			Stops:         NewStopTimes(b.Stops),
		}
		if b.StopsErr != nil {
			branch.Error = "no schedule data"
		}
		out.Branches[i] = branch
	}
	return out
}

type TripInfo struct {
	Trip  Trip       `json:"trip"`
	Stops []StopTime `json:"stops"`
}

func NewTripInfo(info schedule.TripInfo) TripInfo {
	return TripInfo{Trip: NewTrip(info.Trip), Stops: NewStopTimes(info.Stops)}
}
