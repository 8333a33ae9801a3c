package restapi

import (
	"context"
	"net/http"
	"time"

	"github.com/klinck004/ntta/internal/models"
)

func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := api.Store.Ping(ctx); err != nil {
		api.Logger.Error("health check failed", "error", err)
		api.sendError(w, r, http.StatusServiceUnavailable, "static store unavailable")
		return
	}
	api.sendResponse(w, r, models.NewEntryResponse(map[string]string{"status": "ok"}))
}
