package database

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/rail-planner-backend/internal/models"
	"github.com/smarttransit/rail-planner-backend/pkg/timetable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T, driver string) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, driver), mock
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

var routeColumns = []string{
	"route_id", "departure_city", "arrival_city", "departure_time", "arrival_time",
	"train_type", "days_of_op", "first_class", "second_class",
}

func TestRouteRepository_ListRoutes(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t, "sqlmock")
		repo := NewRouteRepository(db, quietLogger())

		mock.ExpectQuery(`SELECT (.+) FROM Route ORDER BY route_id`).
			WillReturnRows(sqlmock.NewRows(routeColumns).
				AddRow("R1", "Berlin", "Munich", "08:00", "12:15", "ICE", "Mon,Fri", 120.0, 89.5).
				AddRow("R2", "Munich", "Vienna", "12:45", "16:30", nil, nil, nil, 45.0))

		routes, err := repo.ListRoutes()
		require.NoError(t, err)
		require.Len(t, routes, 2)

		assert.Equal(t, "R1", routes[0].ID)
		assert.Equal(t, timetable.MustTimeOfDay(12, 15), routes[0].ArrivalTime)
		assert.True(t, routes[0].OperatingDays.Contains(timetable.Fri))
		require.NotNil(t, routes[0].PriceFirst)
		assert.Equal(t, 120.0, *routes[0].PriceFirst)

		assert.Equal(t, "", routes[1].TrainType)
		assert.True(t, routes[1].OperatingDays.IsEmpty())
		assert.Nil(t, routes[1].PriceFirst)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Malformed Rows Skipped", func(t *testing.T) {
		db, mock := newMockDB(t, "sqlmock")
		repo := NewRouteRepository(db, quietLogger())

		mock.ExpectQuery(`SELECT (.+) FROM Route`).
			WillReturnRows(sqlmock.NewRows(routeColumns).
				AddRow("BAD", "A", "B", "noon", "13:00", "", "", nil, 10.0).
				AddRow("NAN", "A", "B", "12:00", "13:00", "", "", math.NaN(), 10.0).
				AddRow("OK", "A", "B", "12:00", "13:00", "", "", nil, 10.0))

		routes, err := repo.ListRoutes()
		require.NoError(t, err)
		require.Len(t, routes, 1)
		assert.Equal(t, "OK", routes[0].ID)
	})

	t.Run("Database Error", func(t *testing.T) {
		db, mock := newMockDB(t, "sqlmock")
		repo := NewRouteRepository(db, quietLogger())

		mock.ExpectQuery(`SELECT (.+) FROM Route`).WillReturnError(errors.New("connection reset"))

		routes, err := repo.ListRoutes()
		assert.Error(t, err)
		assert.Nil(t, routes)
		assert.Contains(t, err.Error(), "failed to list routes")
	})
}

func TestRouteRepository_UpsertRoutes(t *testing.T) {
	first := 20.0
	second := 10.0
	routes := []models.Route{
		{
			ID: "R1", DepartureCity: "A", ArrivalCity: "B",
			DepartureTime: timetable.MustTimeOfDay(8, 0), ArrivalTime: timetable.MustTimeOfDay(9, 0),
			TrainType: "RJ", OperatingDays: timetable.NewDaySet(timetable.Mon, timetable.Wed),
			PriceFirst: &first, PriceSecond: &second,
		},
		{
			ID: "R2", DepartureCity: "B", ArrivalCity: "C",
			DepartureTime: timetable.MustTimeOfDay(9, 30), ArrivalTime: timetable.MustTimeOfDay(10, 0),
			PriceSecond: &second,
		},
	}

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t, "sqlmock")
		repo := NewRouteRepository(db, quietLogger())

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO Route (.+) ON CONFLICT \(route_id\) DO UPDATE`).
			WithArgs("R1", "A", "B", "08:00", "09:00", "RJ", "Mon,Wed", 20.0, 10.0).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO Route`).
			WithArgs("R2", "B", "C", "09:30", "10:00", "", "", nil, 10.0).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		written, err := repo.UpsertRoutes(routes)
		require.NoError(t, err)
		assert.Equal(t, 2, written)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rolls Back On Error", func(t *testing.T) {
		db, mock := newMockDB(t, "sqlmock")
		repo := NewRouteRepository(db, quietLogger())

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO Route`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO Route`).WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		written, err := repo.UpsertRoutes(routes)
		assert.Error(t, err)
		assert.Equal(t, 0, written)
		assert.Contains(t, err.Error(), "R2")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRouteRepository_CountRoutes(t *testing.T) {
	db, mock := newMockDB(t, "sqlmock")
	repo := NewRouteRepository(db, quietLogger())

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM Route`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.CountRoutes()
	require.NoError(t, err)
	assert.Equal(t, 42, count)
}

func testTrip() *models.Trip {
	age := 36
	return &models.Trip{
		TravelDate:    "2025-10-17",
		Origin:        "Berlin",
		Destination:   "Vienna",
		Stops:         1,
		TotalDuration: 510,
		FareClass:     models.SecondClass,
		PathSummary:   "Berlin → Munich → Vienna",
		TicketPrice:   134.5,
		Travellers: []models.Traveller{
			{FirstName: "Ada", LastName: "Lovelace", GovID: "P123", Age: &age},
			{FirstName: "Charles", LastName: "Babbage", GovID: "P456"},
		},
	}
}

func TestTripRepository_CreateTrip(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t, "sqlmock")
		repo := NewTripRepository(db)
		trip := testTrip()

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO Trip (.+) RETURNING trip_id`).
			WithArgs("2025-10-17", "Berlin", "Vienna", 1, 510, "second", "Berlin → Munich → Vienna", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"trip_id"}).AddRow(int64(7)))

		// Existing traveller
		mock.ExpectQuery(`SELECT traveller_id FROM Traveller WHERE gov_id`).
			WithArgs("P123").
			WillReturnRows(sqlmock.NewRows([]string{"traveller_id"}).AddRow(int64(3)))
		mock.ExpectExec(`INSERT INTO TripTraveller`).
			WithArgs(int64(7), int64(3), "second", 134.5).
			WillReturnResult(sqlmock.NewResult(0, 1))

		// New traveller
		mock.ExpectQuery(`SELECT traveller_id FROM Traveller WHERE gov_id`).
			WithArgs("P456").
			WillReturnRows(sqlmock.NewRows([]string{"traveller_id"}))
		mock.ExpectQuery(`INSERT INTO Traveller (.+) RETURNING traveller_id`).
			WithArgs("Charles", "Babbage", "P456", nil).
			WillReturnRows(sqlmock.NewRows([]string{"traveller_id"}).AddRow(int64(9)))
		mock.ExpectExec(`INSERT INTO TripTraveller`).
			WithArgs(int64(7), int64(9), "second", 134.5).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		tripID, err := repo.CreateTrip(trip)
		require.NoError(t, err)
		assert.Equal(t, int64(7), tripID)
		assert.Equal(t, int64(7), trip.ID)
		assert.Equal(t, int64(3), trip.Travellers[0].ID)
		assert.Equal(t, int64(9), trip.Travellers[1].ID)
		assert.False(t, trip.CreatedAt.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Ticket Insert Fails", func(t *testing.T) {
		db, mock := newMockDB(t, "sqlmock")
		repo := NewTripRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO Trip`).
			WillReturnRows(sqlmock.NewRows([]string{"trip_id"}).AddRow(int64(8)))
		mock.ExpectQuery(`SELECT traveller_id FROM Traveller`).
			WillReturnRows(sqlmock.NewRows([]string{"traveller_id"}).AddRow(int64(3)))
		mock.ExpectExec(`INSERT INTO TripTraveller`).
			WillReturnError(errors.New("constraint failed"))
		mock.ExpectRollback()

		tripID, err := repo.CreateTrip(testTrip())
		assert.Error(t, err)
		assert.Equal(t, int64(0), tripID)
		assert.Contains(t, err.Error(), "failed to insert ticket")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("No Travellers", func(t *testing.T) {
		db, _ := newMockDB(t, "sqlmock")
		repo := NewTripRepository(db)

		trip := testTrip()
		trip.Travellers = nil
		_, err := repo.CreateTrip(trip)
		assert.Error(t, err)
	})
}

func TestTripRepository_ListTripsForTraveller(t *testing.T) {
	db, mock := newMockDB(t, "sqlmock")
	repo := NewTripRepository(db)

	columns := []string{
		"trip_id", "travel_date", "origin", "destination", "stops",
		"total_duration", "fare_class", "path_summary", "ticket_price",
	}

	mock.ExpectQuery(`SELECT (.+) FROM Trip t JOIN TripTraveller tt (.+) WHERE lower\(tr.last_name\) = (.+) ORDER BY t.travel_date ASC`).
		WithArgs("lovelace", "p123").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(int64(1), "2024-05-01", "Berlin", "Munich", 0, 255, "first", "Berlin → Munich", 120.0).
			AddRow(int64(7), "2025-10-17", "Berlin", "Vienna", 1, 510, "second", "Berlin → Munich → Vienna", 134.5))

	records, err := repo.ListTripsForTraveller(" LoveLace ", "P123")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(1), records[0].TripID)
	assert.Equal(t, models.FirstClass, records[0].FareClass)
	assert.Equal(t, "Berlin → Munich → Vienna", records[1].PathSummary)
	assert.Equal(t, 134.5, records[1].TicketPrice)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	t.Run("SQLite", func(t *testing.T) {
		db, mock := newMockDB(t, DriverSQLite)

		mock.ExpectBegin()
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS Route`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS Traveller (.+) AUTOINCREMENT`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS Trip \(`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS TripTraveller`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`CREATE INDEX IF NOT EXISTS`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		require.NoError(t, Migrate(db))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Postgres", func(t *testing.T) {
		db, mock := newMockDB(t, DriverPostgres)

		mock.ExpectBegin()
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS Route`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS Traveller (.+) BIGSERIAL`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS Trip \(`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS TripTraveller`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`CREATE INDEX IF NOT EXISTS`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		require.NoError(t, Migrate(db))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Driver", func(t *testing.T) {
		db, _ := newMockDB(t, "sqlmock")
		assert.Error(t, Migrate(db))
	})
}

func TestPostgresRebind(t *testing.T) {
	db, _ := newMockDB(t, DriverPostgres)
	assert.Equal(t, "SELECT 1 WHERE a = $1 AND b = $2", db.Rebind("SELECT 1 WHERE a = ? AND b = ?"))

	lite, _ := newMockDB(t, DriverSQLite)
	assert.Equal(t, "SELECT 1 WHERE a = ?", lite.Rebind("SELECT 1 WHERE a = ?"))
}
