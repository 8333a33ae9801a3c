package restapi

import (
	"net/http"

	"github.com/klinck004/ntta/internal/models"
)

func (api *RestAPI) currentTimeHandler(w http.ResponseWriter, r *http.Request) {
	api.sendResponse(w, r, models.NewEntryResponse(models.NewCurrentTime(api.Now())))
}
