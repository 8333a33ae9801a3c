package restapi

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klinck004/ntta/internal/testfixtures"
)

func TestCurrentTimeHandler(t *testing.T) {
	now := testfixtures.Monday(t)
	api := createTestApi(t, now)

	rec, model := serveAndRetrieveEndpoint(t, api, "/api/current-time")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusOK, model.Code)
	assert.Equal(t, 2, model.Version)
	entry := entryOf(t, model)
	assert.Equal(t, float64(now.UnixMilli()), entry["time"])
	assert.Equal(t, testfixtures.Timezone, entry["timezone"])
}

func TestRouteListHandler(t *testing.T) {
	api := createTestApi(t, testfixtures.Monday(t))

	rec, model := serveAndRetrieveEndpoint(t, api, "/api/routes")

	require.Equal(t, http.StatusOK, rec.Code)
	var ids []string
	for _, item := range listOf(t, model) {
		ids = append(ids, item.(map[string]interface{})["routeId"].(string))
	}
	assert.Contains(t, ids, "R1")
	assert.Contains(t, ids, "R2")
	assert.NotContains(t, ids, "R4")
}

func TestRouteInfoHandler(t *testing.T) {
	api := createTestApi(t, testfixtures.Monday(t))

	rec, model := serveAndRetrieveEndpoint(t, api, "/api/routes/R1")

	require.Equal(t, http.StatusOK, rec.Code)
	entry := entryOf(t, model)
	route := entry["route"].(map[string]interface{})
	assert.Equal(t, "King", route["longName"])

	branches := entry["branches"].([]interface{})
	headsigns := map[string][]interface{}{}
	for _, b := range branches {
		branch := b.(map[string]interface{})
		headsigns[branch["headsign"].(string)] = branch["stops"].([]interface{})
	}
	require.Contains(t, headsigns, "Downtown")
	require.Contains(t, headsigns, "Uptown")

	downtown := headsigns["Downtown"]
	require.Len(t, downtown, 3)
	first := downtown[0].(map[string]interface{})
	assert.Equal(t, "S1", first["stopId"])
	assert.Equal(t, "08:10:00", first["arrivalTime"])
}

func TestRouteInfoHandlerStatuses(t *testing.T) {
	tests := []struct {
		name       string
		now        func(t testing.TB) time.Time
		path       string
		wantStatus string
		wantEntry  bool
	}{
		{
			name:       "route without trips in the window",
			now:        testfixtures.Monday,
			path:       "/api/routes/R4",
			wantStatus: StatusNotYetScheduled,
			wantEntry:  true,
		},
		{
			name:       "weekday route on saturday",
			now:        testfixtures.Saturday,
			path:       "/api/routes/R1",
			wantStatus: StatusNotYetScheduled,
			wantEntry:  true,
		},
		{
			name: "no calendar covers the date",
			now: func(t testing.TB) time.Time {
				return time.Date(2025, 6, 2, 8, 0, 0, 0, testfixtures.Location(t))
			},
			path:       "/api/routes/R1",
			wantStatus: StatusNoActiveService,
			wantEntry:  true,
		},
		{
			name: "route list without service",
			now: func(t testing.TB) time.Time {
				return time.Date(2025, 6, 2, 8, 0, 0, 0, testfixtures.Location(t))
			},
			path:       "/api/routes",
			wantStatus: StatusNoActiveService,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := createTestApi(t, tt.now(t))

			rec, model := serveAndRetrieveEndpoint(t, api, tt.path)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantStatus, model.Text)
			data := model.Data.(map[string]interface{})
			assert.Equal(t, tt.wantStatus, data["status"])
			_, hasEntry := data["entry"]
			assert.Equal(t, tt.wantEntry, hasEntry)
		})
	}
}

func TestNotFoundAndValidation(t *testing.T) {
	api := createTestApi(t, testfixtures.Monday(t))

	tests := []struct {
		name     string
		path     string
		wantCode int
	}{
		{"unknown route", "/api/routes/R9", http.StatusNotFound},
		{"unknown trip", "/api/trips/T9", http.StatusNotFound},
		{"unknown vehicle", "/api/vehicles/E9", http.StatusNotFound},
		{"unknown path", "/api/nowhere", http.StatusNotFound},
		{"invalid route id", "/api/routes/bad$id", http.StatusBadRequest},
		{"invalid stop id", "/api/routes/R1/stops/S1$/arrivals", http.StatusBadRequest},
		{"invalid stop query", "/api/routes/R1/vehicles?stop=S1$", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.serve(t, http.MethodGet, tt.path)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusBadRequest {
				var body struct {
					FieldErrors map[string][]string `json:"fieldErrors"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.NotEmpty(t, body.FieldErrors)
			}
		})
	}
}

func TestVehiclesForRouteHandler(t *testing.T) {
	api := createTestApi(t, testfixtures.Monday(t))

	rec, model := serveAndRetrieveEndpoint(t, api, "/api/routes/R1/vehicles?stop=S1")

	require.Equal(t, http.StatusOK, rec.Code)
	entry := entryOf(t, model)
	assert.Equal(t, "OK", entry["status"])
	vehicles := entry["vehicles"].([]interface{})
	require.Len(t, vehicles, 2)
	e1 := vehicles[0].(map[string]interface{})
	assert.Equal(t, "V1", e1["vehicleId"])
	assert.Equal(t, "Downtown", e1["trip"].(map[string]interface{})["tripHeadsign"])
	assert.NotNil(t, e1["stopTimeUpdate"])
}

func TestVehiclesForRouteHandlerNoActiveTrips(t *testing.T) {
	api := createTestApi(t, testfixtures.Monday(t))

	rec, model := serveAndRetrieveEndpoint(t, api, "/api/routes/R3/vehicles")

	require.Equal(t, http.StatusOK, rec.Code)
	entry := entryOf(t, model)
	assert.Equal(t, "NO_ACTIVE_TRIPS", entry["status"])
	assert.Equal(t, []interface{}{}, entry["vehicles"])
}

func TestVehiclesForRouteHandlerVehicleFeedDown(t *testing.T) {
	api := createTestApi(t, testfixtures.Monday(t))
	api.feeds.FailVehicles(http.StatusServiceUnavailable)

	rec, model := serveAndRetrieveEndpoint(t, api, "/api/routes/R1/vehicles")

	require.Equal(t, http.StatusOK, rec.Code)
	entry := entryOf(t, model)
	assert.Equal(t, "FEED_UNAVAILABLE", entry["status"])
	assert.Equal(t, []interface{}{}, entry["vehicles"])
	assert.Equal(t, "unavailable", entry["feeds"].(map[string]interface{})["vehiclePositions"])
}

func TestArrivalsAtStopHandler(t *testing.T) {
	now := testfixtures.Monday(t)
	api := createTestApi(t, now)

	rec, model := serveAndRetrieveEndpoint(t, api, "/api/routes/R1/stops/S1/arrivals")

	require.Equal(t, http.StatusOK, rec.Code)
	entry := entryOf(t, model)
	assert.Equal(t, "King & Spadina", entry["stop"].(map[string]interface{})["name"])

	arrivals := entry["arrivals"].([]interface{})
	require.Len(t, arrivals, 3)
	var trips []string
	for _, a := range arrivals {
		trips = append(trips, a.(map[string]interface{})["tripId"].(string))
	}
	assert.Equal(t, []string{"T1", "T3", "T2"}, trips)

	t1 := arrivals[0].(map[string]interface{})
	assert.Equal(t, "V1", t1["vehicleId"])
	assert.Equal(t, float64(now.Add(12*time.Minute).UnixMilli()), t1["predictedTime"])
	t2 := arrivals[2].(map[string]interface{})
	assert.Nil(t, t2["vehicleId"])
	assert.Nil(t, t2["predictedTime"])
}

func TestArrivalsAtStopHandlerVehicleFeedDown(t *testing.T) {
	api := createTestApi(t, testfixtures.Monday(t))
	api.feeds.FailVehicles(http.StatusBadGateway)

	rec, model := serveAndRetrieveEndpoint(t, api, "/api/routes/R1/stops/S1/arrivals")

	require.Equal(t, http.StatusOK, rec.Code)
	entry := entryOf(t, model)
	assert.Equal(t, "unavailable", entry["feeds"].(map[string]interface{})["vehiclePositions"])
	arrivals := entry["arrivals"].([]interface{})
	require.Len(t, arrivals, 3)
	for _, a := range arrivals {
		assert.Nil(t, a.(map[string]interface{})["vehicleId"])
	}
}

func TestTripUpdatesForRouteHandler(t *testing.T) {
	api := createTestApi(t, testfixtures.Monday(t))

	rec, model := serveAndRetrieveEndpoint(t, api, "/api/routes/R1/trip-updates")

	require.Equal(t, http.StatusOK, rec.Code)
	var ids []string
	for _, item := range listOf(t, model) {
		ids = append(ids, item.(map[string]interface{})["id"].(string))
	}
	assert.Equal(t, []string{"U1", "U3"}, ids)
}

func TestTripHandler(t *testing.T) {
	api := createTestApi(t, testfixtures.Monday(t))

	rec, model := serveAndRetrieveEndpoint(t, api, "/api/trips/T4.json")

	require.Equal(t, http.StatusOK, rec.Code)
	entry := entryOf(t, model)
	assert.Equal(t, "Uptown", entry["trip"].(map[string]interface{})["tripHeadsign"])
	stops := entry["stops"].([]interface{})
	require.Len(t, stops, 3)
	assert.Equal(t, "25:00:00", stops[2].(map[string]interface{})["arrivalTime"])
}

func TestVehicleHandler(t *testing.T) {
	api := createTestApi(t, testfixtures.Monday(t))

	rec, model := serveAndRetrieveEndpoint(t, api, "/api/vehicles/E3")

	require.Equal(t, http.StatusOK, rec.Code)
	entry := entryOf(t, model)
	assert.Equal(t, "V3", entry["vehicleId"])
	assert.Equal(t, "King & John", entry["stop"].(map[string]interface{})["name"])
}

func TestVehicleHandlerFeedDown(t *testing.T) {
	api := createTestApi(t, testfixtures.Monday(t))
	api.feeds.FailVehicles(http.StatusInternalServerError)

	rec, model := serveAndRetrieveEndpoint(t, api, "/api/vehicles/E1")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, http.StatusServiceUnavailable, model.Code)
	assert.Nil(t, model.Data)
}

func TestHealthHandler(t *testing.T) {
	api := createTestApi(t, testfixtures.Monday(t))

	rec, model := serveAndRetrieveEndpoint(t, api, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", entryOf(t, model)["status"])
}
