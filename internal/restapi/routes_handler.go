package restapi

import (
	"net/http"

	"github.com/klinck004/ntta/internal/models"
	"github.com/klinck004/ntta/internal/utils"
)

// routeListHandler lists the routes with a scheduled arrival in the window.
func (api *RestAPI) routeListHandler(w http.ResponseWriter, r *http.Request) {
	routes, err := api.Planner.Window().Routes(r.Context())
	if err != nil {
		api.errorResponse(w, r, err, nil)
		return
	}
	api.sendResponse(w, r, models.NewListResponse(models.NewScheduledRoutes(routes)))
}

func (api *RestAPI) routeInfoHandler(w http.ResponseWriter, r *http.Request) {
	routeID := utils.ExtractIDFromParams(r, "id")
	if fieldErrors := utils.ValidateIDs(map[string]string{"id": routeID}, nil); fieldErrors != nil {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	info, err := api.Planner.RouteInfo(r.Context(), routeID)
	if err != nil {
		var entry interface{}
		if info.Route.ID != "" {
			entry = models.NewRoute(info.Route)
		}
		api.errorResponse(w, r, err, entry)
		return
	}
	api.sendResponse(w, r, models.NewEntryResponse(models.NewRouteInfo(info)))
}

func (api *RestAPI) tripUpdatesForRouteHandler(w http.ResponseWriter, r *http.Request) {
	routeID := utils.ExtractIDFromParams(r, "id")
	if fieldErrors := utils.ValidateIDs(map[string]string{"id": routeID}, nil); fieldErrors != nil {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	updates, err := api.Merger.TripUpdatesForRoute(r.Context(), routeID)
	if err != nil {
		api.errorResponse(w, r, err, nil)
		return
	}
	api.sendResponse(w, r, models.NewListResponse(models.NewTripUpdates(updates)))
}
