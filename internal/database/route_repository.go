package database

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/rail-planner-backend/internal/models"
	"github.com/smarttransit/rail-planner-backend/pkg/timetable"
)

// RouteRepository handles database operations for the Route table
type RouteRepository struct {
	db     DB
	logger *logrus.Logger
}

// NewRouteRepository creates a new RouteRepository
func NewRouteRepository(db DB, logger *logrus.Logger) *RouteRepository {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RouteRepository{db: db, logger: logger}
}

// routeRecord is a Route row as stored
type routeRecord struct {
	RouteID       string          `db:"route_id"`
	DepartureCity string          `db:"departure_city"`
	ArrivalCity   string          `db:"arrival_city"`
	DepartureTime string          `db:"departure_time"`
	ArrivalTime   string          `db:"arrival_time"`
	TrainType     sql.NullString  `db:"train_type"`
	DaysOfOp      sql.NullString  `db:"days_of_op"`
	FirstClass    sql.NullFloat64 `db:"first_class"`
	SecondClass   sql.NullFloat64 `db:"second_class"`
}

func (rec routeRecord) toRoute() (models.Route, error) {
	dep, err := timetable.ParseTime(rec.DepartureTime)
	if err != nil {
		return models.Route{}, fmt.Errorf("departure_time: %w", err)
	}
	arr, err := timetable.ParseTime(rec.ArrivalTime)
	if err != nil {
		return models.Route{}, fmt.Errorf("arrival_time: %w", err)
	}

	route := models.Route{
		ID:            rec.RouteID,
		DepartureCity: rec.DepartureCity,
		ArrivalCity:   rec.ArrivalCity,
		DepartureTime: dep,
		ArrivalTime:   arr,
		TrainType:     rec.TrainType.String,
		OperatingDays: timetable.ParseDays(rec.DaysOfOp.String),
	}
	if rec.FirstClass.Valid {
		v := rec.FirstClass.Float64
		route.PriceFirst = &v
	}
	if rec.SecondClass.Valid {
		v := rec.SecondClass.Float64
		route.PriceSecond = &v
	}

	if err := route.Validate(); err != nil {
		return models.Route{}, err
	}
	return route, nil
}

// ListRoutes returns every well-formed route ordered by route id. Rows that
// cannot be parsed are skipped with a warning.
func (r *RouteRepository) ListRoutes() ([]models.Route, error) {
	query := `
		SELECT route_id, departure_city, arrival_city, departure_time, arrival_time,
			   train_type, days_of_op, first_class, second_class
		FROM Route
		ORDER BY route_id`

	var records []routeRecord
	if err := r.db.Select(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}

	routes := make([]models.Route, 0, len(records))
	for _, rec := range records {
		route, err := rec.toRoute()
		if err != nil {
			r.logger.WithFields(logrus.Fields{
				"route_id": rec.RouteID,
				"error":    err.Error(),
			}).Warn("Skipping malformed route row")
			continue
		}
		routes = append(routes, route)
	}

	return routes, nil
}

// UpsertRoutes inserts routes, replacing any stored row with the same id
func (r *RouteRepository) UpsertRoutes(routes []models.Route) (int, error) {
	query := `
		INSERT INTO Route (
			route_id, departure_city, arrival_city, departure_time, arrival_time,
			train_type, days_of_op, first_class, second_class
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (route_id) DO UPDATE SET
			departure_city = excluded.departure_city,
			arrival_city = excluded.arrival_city,
			departure_time = excluded.departure_time,
			arrival_time = excluded.arrival_time,
			train_type = excluded.train_type,
			days_of_op = excluded.days_of_op,
			first_class = excluded.first_class,
			second_class = excluded.second_class`

	written := 0
	err := WithTransaction(r.db, func(tx *sqlx.Tx) error {
		stmt := tx.Rebind(query)
		for _, route := range routes {
			if _, err := tx.Exec(stmt,
				route.ID, route.DepartureCity, route.ArrivalCity,
				route.DepartureTime.String(), route.ArrivalTime.String(),
				route.TrainType, route.OperatingDays.String(),
				nullablePrice(route.PriceFirst), nullablePrice(route.PriceSecond),
			); err != nil {
				return fmt.Errorf("failed to upsert route %s: %w", route.ID, err)
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return written, nil
}

// CountRoutes returns the number of stored routes
func (r *RouteRepository) CountRoutes() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM Route`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count routes: %w", err)
	}
	return count, nil
}

func nullablePrice(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}
