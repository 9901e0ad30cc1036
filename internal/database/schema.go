package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Table layout shared with the original railway.db files. Times are stored as
// HH:MM text and travel dates as YYYY-MM-DD text so both drivers compare them
// the same way.
var schemaStatements = map[string][]string{
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS Route (
			route_id       TEXT PRIMARY KEY,
			departure_city TEXT NOT NULL,
			arrival_city   TEXT NOT NULL,
			departure_time TEXT NOT NULL,
			arrival_time   TEXT NOT NULL,
			train_type     TEXT NOT NULL DEFAULT '',
			days_of_op     TEXT NOT NULL DEFAULT '',
			first_class    REAL,
			second_class   REAL
		)`,
		`CREATE TABLE IF NOT EXISTS Traveller (
			traveller_id INTEGER PRIMARY KEY AUTOINCREMENT,
			first_name   TEXT NOT NULL,
			last_name    TEXT NOT NULL,
			gov_id       TEXT NOT NULL UNIQUE,
			age          INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS Trip (
			trip_id        INTEGER PRIMARY KEY AUTOINCREMENT,
			travel_date    TEXT NOT NULL,
			origin         TEXT NOT NULL,
			destination    TEXT NOT NULL,
			stops          INTEGER NOT NULL,
			total_duration INTEGER NOT NULL,
			fare_class     TEXT NOT NULL,
			path_summary   TEXT NOT NULL,
			created_at     TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS TripTraveller (
			trip_id      INTEGER NOT NULL REFERENCES Trip(trip_id),
			traveller_id INTEGER NOT NULL REFERENCES Traveller(traveller_id),
			seat_class   TEXT NOT NULL,
			ticket_price REAL NOT NULL,
			PRIMARY KEY (trip_id, traveller_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trip_traveller_traveller ON TripTraveller(traveller_id)`,
	},
	DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS Route (
			route_id       TEXT PRIMARY KEY,
			departure_city TEXT NOT NULL,
			arrival_city   TEXT NOT NULL,
			departure_time TEXT NOT NULL,
			arrival_time   TEXT NOT NULL,
			train_type     TEXT NOT NULL DEFAULT '',
			days_of_op     TEXT NOT NULL DEFAULT '',
			first_class    DOUBLE PRECISION,
			second_class   DOUBLE PRECISION
		)`,
		`CREATE TABLE IF NOT EXISTS Traveller (
			traveller_id BIGSERIAL PRIMARY KEY,
			first_name   TEXT NOT NULL,
			last_name    TEXT NOT NULL,
			gov_id       TEXT NOT NULL UNIQUE,
			age          INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS Trip (
			trip_id        BIGSERIAL PRIMARY KEY,
			travel_date    TEXT NOT NULL,
			origin         TEXT NOT NULL,
			destination    TEXT NOT NULL,
			stops          INTEGER NOT NULL,
			total_duration INTEGER NOT NULL,
			fare_class     TEXT NOT NULL,
			path_summary   TEXT NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS TripTraveller (
			trip_id      BIGINT NOT NULL REFERENCES Trip(trip_id),
			traveller_id BIGINT NOT NULL REFERENCES Traveller(traveller_id),
			seat_class   TEXT NOT NULL,
			ticket_price DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (trip_id, traveller_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trip_traveller_traveller ON TripTraveller(traveller_id)`,
	},
}

// Migrate creates the Route, Traveller, Trip and TripTraveller tables if they
// do not exist yet
func Migrate(db DB) error {
	statements, ok := schemaStatements[db.DriverName()]
	if !ok {
		return fmt.Errorf("no schema for driver %s", db.DriverName())
	}

	return WithTransaction(db, func(tx *sqlx.Tx) error {
		for _, stmt := range statements {
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}
		}
		return nil
	})
}

// WithTransaction runs fn inside a transaction, committing when it returns nil
func WithTransaction(db DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
