package restapi

import (
	"encoding/json"
	"net/http"

	"github.com/klinck004/ntta/internal/models"
)

func (api *RestAPI) sendResponse(w http.ResponseWriter, r *http.Request, response models.ResponseModel) {
	setJSONResponseType(w)
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
}

func (api *RestAPI) sendNotFound(w http.ResponseWriter, r *http.Request) {
	api.sendError(w, r, http.StatusNotFound, "resource not found")
}

// sendError writes an envelope without data.
func (api *RestAPI) sendError(w http.ResponseWriter, r *http.Request, code int, text string) {
	if err := writeJSON(w, code, text); err != nil {
		api.Logger.Error("failed to encode error response", "error", err, "code", code)
	}
}

func writeJSON(w http.ResponseWriter, code int, text string) error {
	setJSONResponseType(w)
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(models.NewResponse(code, nil, text))
}

func setJSONResponseType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
}
