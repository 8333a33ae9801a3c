package restapi

import (
	"net/http"

	"github.com/klinck004/ntta/internal/models"
	"github.com/klinck004/ntta/internal/utils"
)

// vehiclesForRouteHandler serves the live vehicles of a route. The optional
// stop query parameter attaches each vehicle's prediction for that stop.
func (api *RestAPI) vehiclesForRouteHandler(w http.ResponseWriter, r *http.Request) {
	routeID := utils.ExtractIDFromParams(r, "id")
	stopID := r.URL.Query().Get("stop")
	fieldErrors := utils.ValidateIDs(map[string]string{"id": routeID}, map[string]string{"stop": stopID})
	if fieldErrors != nil {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	result, err := api.Merger.VehiclesForRoute(r.Context(), routeID, stopID)
	if err != nil {
		api.errorResponse(w, r, err, nil)
		return
	}
	api.sendResponse(w, r, models.NewEntryResponse(models.NewVehiclesForRoute(result)))
}

func (api *RestAPI) vehicleHandler(w http.ResponseWriter, r *http.Request) {
	entityID := utils.ExtractIDFromParams(r, "id")
	if fieldErrors := utils.ValidateIDs(map[string]string{"id": entityID}, nil); fieldErrors != nil {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	vehicle, err := api.Merger.Vehicle(r.Context(), entityID)
	if err != nil {
		api.errorResponse(w, r, err, nil)
		return
	}
	api.sendResponse(w, r, models.NewEntryResponse(models.NewVehicle(vehicle)))
}
