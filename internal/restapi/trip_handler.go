package restapi

import (
	"errors"
	"net/http"

	"github.com/klinck004/ntta/internal/models"
	"github.com/klinck004/ntta/internal/transiterr"
	"github.com/klinck004/ntta/internal/utils"
)

func (api *RestAPI) tripHandler(w http.ResponseWriter, r *http.Request) {
	tripID := utils.ExtractIDFromParams(r, "id")
	if fieldErrors := utils.ValidateIDs(map[string]string{"id": tripID}, nil); fieldErrors != nil {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	info, err := api.Planner.TripInfo(r.Context(), tripID)
	// a known trip without stop times is served with an empty stop list
	if err != nil && !(errors.Is(err, transiterr.ErrLookupMiss) && info.Trip.ID != "") {
		api.errorResponse(w, r, err, nil)
		return
	}
	api.sendResponse(w, r, models.NewEntryResponse(models.NewTripInfo(info)))
}
