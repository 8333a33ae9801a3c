package restapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (api *RestAPI) routes() *httprouter.Router {
	router := httprouter.New()
	router.HandleMethodNotAllowed = true
	router.NotFound = http.HandlerFunc(api.sendNotFound)

	get := func(path string, handler http.HandlerFunc) {
		router.HandlerFunc(http.MethodGet, path, withRouteLabel(path, handler))
	}

	get("/api/current-time", api.currentTimeHandler)
	get("/api/routes", api.routeListHandler)
	get("/api/routes/:id", api.routeInfoHandler)
	get("/api/routes/:id/vehicles", api.vehiclesForRouteHandler)
	get("/api/routes/:id/stops/:stopId/arrivals", api.arrivalsAtStopHandler)
	get("/api/routes/:id/trip-updates", api.tripUpdatesForRouteHandler)
	get("/api/trips/:id", api.tripHandler)
	get("/api/vehicles/:id", api.vehicleHandler)
	get("/healthz", api.healthHandler)

	if api.Config.MetricsEnabled {
		get("/metrics", api.Metrics.Handler().ServeHTTP)
	}
	return router
}
