package restapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/klinck004/ntta/internal/app"
	"github.com/klinck004/ntta/internal/appconf"
	"github.com/klinck004/ntta/internal/metrics"
	"github.com/klinck004/ntta/internal/models"
	"github.com/klinck004/ntta/internal/testfixtures"
)

type testAPI struct {
	*RestAPI
	feeds   *testfixtures.FeedServer
	handler http.Handler
}

// createTestApi builds the full stack over the fixture store and a fixture
// feed server, with the clock frozen at now.
func createTestApi(t *testing.T, now time.Time) *testAPI {
	t.Helper()

	store := testfixtures.NewStore(t)
	feeds := testfixtures.NewFeedServer(t, now)

	cfg := appconf.Default()
	cfg.EnvName = "test"
	cfg.Timezone = testfixtures.Timezone
	cfg.VehiclePositionsURL = feeds.VehiclePositionsURL()
	cfg.TripUpdatesURL = feeds.TripUpdatesURL()

	application, err := app.New(app.Options{
		Config:     cfg,
		Store:      store,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:    metrics.NewCollector(),
		HTTPClient: feeds.Client(),
		Clock:      testfixtures.Clock(now),
	})
	require.NoError(t, err)

	api := NewRestAPI(application)
	t.Cleanup(api.Close)
	return &testAPI{RestAPI: api, feeds: feeds, handler: api.Handler()}
}

// serve runs one request through the full middleware chain.
func (api *testAPI) serve(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	return rec
}

// serveAndRetrieveEndpoint makes a GET request and decodes the envelope.
func serveAndRetrieveEndpoint(t *testing.T, api *testAPI, endpoint string) (*httptest.ResponseRecorder, models.ResponseModel) {
	t.Helper()
	rec := api.serve(t, http.MethodGet, endpoint)

	var model models.ResponseModel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &model), rec.Body.String())
	return rec, model
}

func entryOf(t *testing.T, model models.ResponseModel) map[string]interface{} {
	t.Helper()
	data, ok := model.Data.(map[string]interface{})
	require.True(t, ok, "data should be an object")
	entry, ok := data["entry"].(map[string]interface{})
	require.True(t, ok, "data.entry should be an object")
	return entry
}

func listOf(t *testing.T, model models.ResponseModel) []interface{} {
	t.Helper()
	data, ok := model.Data.(map[string]interface{})
	require.True(t, ok, "data should be an object")
	list, ok := data["list"].([]interface{})
	require.True(t, ok, "data.list should be an array")
	return list
}
