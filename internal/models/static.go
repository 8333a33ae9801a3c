package models

import (
	"github.com/klinck004/ntta/gtfsdb"
	"github.com/klinck004/ntta/internal/schedule"
	"github.com/klinck004/ntta/internal/utils"
)

type Route struct {
	ID          string `json:"id"`
	AgencyID    string `json:"agencyId"`
	ShortName   string `json:"shortName"`
	LongName    string `json:"longName"`
	Description string `json:"description"`
	Type        int    `json:"type"`
	URL         string `json:"url"`
	Color       string `json:"color"`
	TextColor   string `json:"textColor"`
}

func NewRoute(r gtfsdb.Route) Route {
	return Route{
		ID:          r.ID,
		AgencyID:    r.AgencyID,
		ShortName:   r.ShortName,
		LongName:    r.LongName,
		Description: r.Description,
		Type:        r.Type,
		URL:         r.URL,
		Color:       r.Color,
		TextColor:   r.TextColor,
	}
}

// NewRoutePtr converts an optional route.
func NewRoutePtr(r *gtfsdb.Route) *Route {
	if r == nil {
		return nil
	}
	out := NewRoute(*r)
	return &out
}

type Stop struct {
	ID                 string  `json:"id"`
	Code               string  `json:"code"`
	Name               string  `json:"name"`
	Lat                float64 `json:"lat"`
	Lon                float64 `json:"lon"`
	WheelchairBoarding string  `json:"wheelchairBoarding"`
}

func NewStop(s gtfsdb.Stop) Stop {
	return Stop{
		ID:                 s.ID,
		Code:               s.Code,
		Name:               s.Name,
		Lat:                s.Lat,
		Lon:                s.Lon,
		WheelchairBoarding: wheelchairBoarding(s.WheelchairBoarding),
	}
}

func NewStopPtr(s *gtfsdb.Stop) *Stop {
	if s == nil {
		return nil
	}
	out := NewStop(*s)
	return &out
}

// wheelchairBoarding maps the GTFS wheelchair_boarding value.
func wheelchairBoarding(v int) string {
	switch v {
	case 1:
		return "ACCESSIBLE"
	case 2:
		return "NOT_ACCESSIBLE"
	default:
		return "UNKNOWN"
	}
}

type Trip struct {
	ID          string `json:"id"`
	RouteID     string `json:"routeId"`
	ServiceID   string `json:"serviceId"`
	Headsign    string `json:"tripHeadsign"`
	ShortName   string `json:"tripShortName"`
	DirectionID int    `json:"directionId"`
	BlockID     string `json:"blockId"`
	ShapeID     string `json:"shapeId"`
}

func NewTrip(t gtfsdb.Trip) Trip {
	return Trip{
		ID:          t.ID,
		RouteID:     t.RouteID,
		ServiceID:   t.ServiceID,
		Headsign:    t.Headsign,
		ShortName:   t.ShortName,
		DirectionID: t.DirectionID,
		BlockID:     t.BlockID,
		ShapeID:     t.ShapeID,
	}
}

func NewTripPtr(t *gtfsdb.Trip) *Trip {
	if t == nil {
		return nil
	}
	out := NewTrip(*t)
	return &out
}

// StopTime is one call of a trip. Stop is null when the stop record is
// missing from the static feed. Untimed calls omit both times.
type StopTime struct {
	StopID        string `json:"stopId"`
	Stop          *Stop  `json:"stop"`
	StopSequence  int    `json:"stopSequence"`
	ArrivalTime   string `json:"arrivalTime,omitempty"`
	DepartureTime string `json:"departureTime,omitempty"`
}

func NewStopTimes(stops []schedule.OrderedStop) []StopTime {
	out := make([]StopTime, len(stops))
	for i, s := range stops {
		out[i] = StopTime{
			StopID:       s.StopID,
			Stop:         NewStopPtr(s.Stop),
			StopSequence: s.Schedule.StopSequence,
		}
		if !s.Schedule.Untimed {
			out[i].ArrivalTime = utils.FormatServiceTime(s.Schedule.ArrivalTime)
			out[i].DepartureTime = utils.FormatServiceTime(s.Schedule.DepartureTime)
		}
	}
	return out
}
