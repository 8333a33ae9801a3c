package restapi

import (
	"net/http"
	"time"

	"github.com/klinck004/ntta/internal/app"
)

type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware
}

// NewRestAPI creates a new RestAPI instance with initialized rate limiter
func NewRestAPI(app *app.Application) *RestAPI {
	rateLimiter := NewRateLimitMiddleware(app.Config.RateLimit, time.Second)
	if app.Logger != nil {
		rateLimiter.logger = app.Logger
	}
	return &RestAPI{
		Application: app,
		rateLimiter: rateLimiter,
	}
}

// Handler returns the routed API wrapped in the middleware chain.
func (api *RestAPI) Handler() http.Handler {
	var handler http.Handler = api.routes()
	handler = api.rateLimiter.Handler(handler)
	handler = CompressionMiddleware(handler)
	handler = NewCORSMiddleware()(handler)
	handler = securityHeaders(handler)
	handler = NewRequestLoggingMiddleware(api.Logger, api.Metrics)(handler)
	return handler
}

// Close stops background work started by the API.
func (api *RestAPI) Close() {
	api.rateLimiter.Stop()
}
