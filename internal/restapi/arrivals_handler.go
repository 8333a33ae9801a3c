package restapi

import (
	"net/http"

	"github.com/klinck004/ntta/internal/models"
	"github.com/klinck004/ntta/internal/utils"
)

func (api *RestAPI) arrivalsAtStopHandler(w http.ResponseWriter, r *http.Request) {
	routeID := utils.ExtractIDFromParams(r, "id")
	stopID := utils.ExtractIDFromParams(r, "stopId")
	fieldErrors := utils.ValidateIDs(map[string]string{"id": routeID, "stopId": stopID}, nil)
	if fieldErrors != nil {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	result, err := api.Merger.ArrivalsAtStop(r.Context(), routeID, stopID)
	if err != nil {
		api.errorResponse(w, r, err, nil)
		return
	}
	api.sendResponse(w, r, models.NewEntryResponse(models.NewArrivalsAtStop(result)))
}
