package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/rail-planner-backend/internal/config"
	"github.com/smarttransit/rail-planner-backend/internal/database"
	"github.com/smarttransit/rail-planner-backend/internal/ingest"
	"github.com/smarttransit/rail-planner-backend/internal/middleware"
	"github.com/smarttransit/rail-planner-backend/internal/models"
	"github.com/smarttransit/rail-planner-backend/internal/planner"
	"github.com/smarttransit/rail-planner-backend/internal/services"
	"github.com/smarttransit/rail-planner-backend/pkg/timetable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func clock(hhmm string) timetable.TimeOfDay {
	t, err := timetable.ParseTime(hhmm)
	if err != nil {
		panic(err)
	}
	return t
}

func euro(v float64) *float64 { return &v }

func fixtureRoutes() []models.Route {
	return []models.Route{
		{
			ID: "R1", DepartureCity: "Berlin", ArrivalCity: "Munich",
			DepartureTime: clock("08:00"), ArrivalTime: clock("12:15"), TrainType: "ICE",
			OperatingDays: timetable.ParseDays("Mon,Tue,Wed,Thu,Fri"),
			PriceFirst:    euro(120), PriceSecond: euro(89.5),
		},
		{
			ID: "R2", DepartureCity: "Munich", ArrivalCity: "Vienna",
			DepartureTime: clock("12:45"), ArrivalTime: clock("16:30"), TrainType: "RJ",
			PriceFirst: euro(70), PriceSecond: euro(45),
		},
		{
			ID: "R3", DepartureCity: "Berlin", ArrivalCity: "Vienna",
			DepartureTime: clock("07:00"), ArrivalTime: clock("16:00"), TrainType: "NJ",
			OperatingDays: timetable.ParseDays("Sat,Sun"),
			PriceFirst:    euro(200), PriceSecond: euro(99),
		},
	}
}

type fakeTripStore struct {
	createErr error
	records   []models.TripRecord
}

func (f *fakeTripStore) CreateTrip(trip *models.Trip) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	return 42, nil
}

func (f *fakeTripStore) ListTripsForTraveller(lastName, govID string) ([]models.TripRecord, error) {
	return f.records, nil
}

type testServer struct {
	router  *gin.Engine
	catalog *services.RouteCatalog
}

func newTestServer(t *testing.T, store services.TripStore, load bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := quietLogger()

	catalog := services.NewRouteCatalog(logger)
	source := services.NewStaticRouteSource("fixture", fixtureRoutes())
	if load {
		_, err := catalog.Load(source)
		require.NoError(t, err)
	}

	policy := planner.DefaultLayoverPolicy(planner.DefaultMinTransferMinutes)
	search := services.NewSearchService(catalog, nil, services.SearchSettings{
		Policy:          policy,
		DefaultMaxStops: planner.MaxStopsLimit,
		ResultLimit:     50,
	}, logger)
	booking := services.NewBookingService(catalog, store, policy, logger)

	searchHandler := NewSearchHandler(search, catalog, logger)
	bookingHandler := NewBookingHandler(booking, logger)
	bookingHandler.now = func() time.Time { return time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC) }
	adminHandler := NewAdminHandler(catalog, source, nil, logger)

	router := gin.New()
	router.GET("/api/v1/routes", searchHandler.ListRoutes)
	router.POST("/api/v1/search", searchHandler.SearchItineraries)
	router.POST("/api/v1/trips", bookingHandler.BookTrip)
	router.GET("/api/v1/trips", bookingHandler.GetTrips)
	router.POST("/api/v1/admin/routes/reload", adminHandler.ReloadRoutes)
	router.GET("/api/v1/admin/routes/status", adminHandler.RouteStatus)

	return &testServer{router: router, catalog: catalog}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestSearchHandler_SearchItineraries(t *testing.T) {
	srv := newTestServer(t, &fakeTripStore{}, true)

	t.Run("Success sorted by price", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/api/v1/search", gin.H{"from": "Berlin", "to": "Vienna", "sort": "price"})
		require.Equal(t, http.StatusOK, w.Code)

		var resp models.SearchResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "success", resp.Status)
		require.Len(t, resp.Results, 2)
		assert.Equal(t, "R3", resp.Results[0].Key)
		assert.Equal(t, "R1|R2", resp.Results[1].Key)
		assert.Equal(t, []int{30}, resp.Results[1].TransfersMinutes)
		assert.Equal(t, "08:30", resp.Results[1].TotalDuration)
	})

	t.Run("Malformed JSON", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/api/v1/search", "{not json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid request format", decode(t, w)["message"])
	})

	t.Run("Missing destination", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/api/v1/search", gin.H{"from": "Berlin"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Invalid fare class", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/api/v1/search", gin.H{"from": "Berlin", "to": "Vienna", "fare_class": "business"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode(t, w)["message"], "fare class")
	})

	t.Run("No results is not an error", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/api/v1/search", gin.H{"from": "Vienna", "to": "Berlin"})
		require.Equal(t, http.StatusOK, w.Code)
		var resp models.SearchResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Empty(t, resp.Results)
		assert.Equal(t, 0, resp.TotalFound)
	})
}

func TestSearchHandler_CatalogNotLoaded(t *testing.T) {
	srv := newTestServer(t, &fakeTripStore{}, false)

	w := srv.do(t, http.MethodPost, "/api/v1/search", gin.H{"from": "Berlin", "to": "Vienna"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = srv.do(t, http.MethodGet, "/api/v1/routes", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSearchHandler_ListRoutes(t *testing.T) {
	srv := newTestServer(t, &fakeTripStore{}, true)

	w := srv.do(t, http.MethodGet, "/api/v1/routes", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, float64(3), body["count"])
	assert.Equal(t, float64(1), body["version"])
	routes := body["routes"].([]interface{})
	first := routes[0].(map[string]interface{})
	assert.Equal(t, "R1", first["route_id"])
	assert.Equal(t, "08:00", first["departure_time"])
}

func bookingBody() gin.H {
	return gin.H{
		"travel_date": "2025-10-17",
		"leg_ids":     []string{"R1", "R2"},
		"fare_class":  "first",
		"travellers": []gin.H{
			{"name": "Ada Lovelace", "gov_id": "GB-1815", "age": 36},
		},
	}
}

func TestBookingHandler_BookTrip(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		srv := newTestServer(t, &fakeTripStore{}, true)

		w := srv.do(t, http.MethodPost, "/api/v1/trips", bookingBody())
		require.Equal(t, http.StatusCreated, w.Code)

		body := decode(t, w)
		assert.Equal(t, float64(42), body["trip_id"])
		booking := body["booking"].(map[string]interface{})
		assert.Equal(t, float64(190), booking["price_per_passenger"])
	})

	t.Run("Day not operated", func(t *testing.T) {
		srv := newTestServer(t, &fakeTripStore{}, true)
		req := bookingBody()
		req["travel_date"] = "2025-10-18"

		w := srv.do(t, http.MethodPost, "/api/v1/trips", req)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)

		body := decode(t, w)
		assert.Equal(t, "DAY_NOT_OPERATED", body["code"])
		assert.Equal(t, "R1", body["route_id"])
		assert.Equal(t, "Sat", body["day"])
	})

	t.Run("Broken chain", func(t *testing.T) {
		srv := newTestServer(t, &fakeTripStore{}, true)
		req := bookingBody()
		req["leg_ids"] = []string{"R2", "R1"}

		w := srv.do(t, http.MethodPost, "/api/v1/trips", req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Unknown leg", func(t *testing.T) {
		srv := newTestServer(t, &fakeTripStore{}, true)
		req := bookingBody()
		req["leg_ids"] = []string{"R9"}

		w := srv.do(t, http.MethodPost, "/api/v1/trips", req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode(t, w)["message"], "R9")
	})

	t.Run("Missing travellers", func(t *testing.T) {
		srv := newTestServer(t, &fakeTripStore{}, true)
		req := bookingBody()
		delete(req, "travellers")

		w := srv.do(t, http.MethodPost, "/api/v1/trips", req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Storage failure", func(t *testing.T) {
		srv := newTestServer(t, &fakeTripStore{createErr: errors.New("disk full")}, true)

		w := srv.do(t, http.MethodPost, "/api/v1/trips", bookingBody())
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Failed to book trip", decode(t, w)["message"])
	})
}

func TestBookingHandler_GetTrips(t *testing.T) {
	store := &fakeTripStore{records: []models.TripRecord{
		{TripID: 1, TravelDate: "2025-09-01", Origin: "Berlin", Destination: "Vienna"},
		{TripID: 2, TravelDate: "2025-10-01", Origin: "Berlin", Destination: "Munich"},
	}}
	srv := newTestServer(t, store, true)

	t.Run("Split around today", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/api/v1/trips?last_name=Lovelace&gov_id=GB-1815", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp models.TripLookupResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Upcoming, 1)
		require.Len(t, resp.History, 1)
		assert.Equal(t, int64(2), resp.Upcoming[0].TripID)
		assert.Equal(t, int64(1), resp.History[0].TripID)
	})

	t.Run("Missing gov id", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/api/v1/trips?last_name=Lovelace", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBookingHandler_SQLiteRoundTrip(t *testing.T) {
	db, err := database.NewConnection(config.DatabaseConfig{Driver: database.DriverSQLite, URL: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	srv := newTestServer(t, database.NewTripRepository(db), true)

	w := srv.do(t, http.MethodPost, "/api/v1/trips", bookingBody())
	require.Equal(t, http.StatusCreated, w.Code)

	w = srv.do(t, http.MethodGet, "/api/v1/trips?last_name=lovelace&gov_id=gb-1815", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.TripLookupResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Upcoming, 1)
	assert.Empty(t, resp.History)
	assert.Equal(t, "Berlin → Munich → Vienna", resp.Upcoming[0].PathSummary)
	assert.Equal(t, 190.0, resp.Upcoming[0].TicketPrice)
	assert.Equal(t, models.FirstClass, resp.Upcoming[0].FareClass)
}

func TestAdminHandler(t *testing.T) {
	srv := newTestServer(t, &fakeTripStore{}, false)

	w := srv.do(t, http.MethodGet, "/api/v1/admin/routes/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["loaded"])

	w = srv.do(t, http.MethodPost, "/api/v1/admin/routes/reload", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(0), body["previous_version"])
	assert.Equal(t, float64(1), body["version"])
	assert.Equal(t, float64(3), body["routes"])

	w = srv.do(t, http.MethodGet, "/api/v1/admin/routes/status", nil)
	assert.Equal(t, true, decode(t, w)["loaded"])
	assert.Equal(t, int64(1), srv.catalog.Version())
}

func TestAdminHandler_ReloadFailureKeepsDataset(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := quietLogger()
	catalog := services.NewRouteCatalog(logger)
	_, err := catalog.Load(services.NewStaticRouteSource("fixture", fixtureRoutes()))
	require.NoError(t, err)

	broken := services.NewCSVRouteSource("/nonexistent/routes.csv", ingest.NewLoader(logger))
	handler := NewAdminHandler(catalog, broken, nil, logger)

	router := gin.New()
	router.POST("/reload", func(c *gin.Context) {
		c.Set(middleware.OperatorContextKey, middleware.OperatorContext{Name: "ops"})
		handler.ReloadRoutes(c)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/reload", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["current_version"])
	assert.Len(t, catalog.Routes(), 3)
}
