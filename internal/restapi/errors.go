package restapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/klinck004/ntta/internal/logging"
	"github.com/klinck004/ntta/internal/models"
	"github.com/klinck004/ntta/internal/transiterr"
)

// Status values reported with HTTP 200 when the schedule has nothing to show.
const (
	StatusNoActiveService = "NO_ACTIVE_SERVICE"
	StatusNotYetScheduled = "NOT_YET_SCHEDULED"
)

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(logging.FromContext(r.Context()), "request failed", err)
	api.sendError(w, r, http.StatusInternalServerError, "internal server error")
}

func (api *RestAPI) feedUnavailableResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(logging.FromContext(r.Context()), "realtime feed unavailable", err)
	api.sendError(w, r, http.StatusServiceUnavailable, "realtime data unavailable")
}

// validationErrorResponse sends a 400 Bad Request response with field-specific validation errors
func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	response := struct {
		FieldErrors map[string][]string `json:"fieldErrors"`
	}{
		FieldErrors: fieldErrors,
	}

	setJSONResponseType(w)
	w.WriteHeader(http.StatusBadRequest)
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		api.Logger.Error("failed to encode validation error response", "error", err)
	}
}

// errorResponse maps a component error onto the HTTP surface. Schedule
// statuses are successful responses; entry, when set, is what is known
// despite the status.
func (api *RestAPI) errorResponse(w http.ResponseWriter, r *http.Request, err error, entry interface{}) {
	switch {
	case errors.Is(err, transiterr.ErrNoActiveService):
		api.sendResponse(w, r, models.NewStatusResponse(StatusNoActiveService, "no active service today", entry))
	case errors.Is(err, transiterr.ErrNotYetScheduled):
		api.sendResponse(w, r, models.NewStatusResponse(StatusNotYetScheduled, "not yet scheduled", entry))
	case errors.Is(err, transiterr.ErrLookupMiss):
		api.sendNotFound(w, r)
	case errors.Is(err, transiterr.ErrFeedUnavailable):
		api.feedUnavailableResponse(w, r, err)
	default:
		api.serverErrorResponse(w, r, err)
	}
}
