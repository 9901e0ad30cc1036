package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/smarttransit/rail-planner-backend/internal/models"
)

// TripRepository handles database operations for trips and their travellers
type TripRepository struct {
	db DB
}

// NewTripRepository creates a new TripRepository
func NewTripRepository(db DB) *TripRepository {
	return &TripRepository{db: db}
}

// CreateTrip stores a trip, its travellers and one ticket per traveller in a
// single transaction and returns the new trip id. Travellers are matched by
// gov_id; unknown ones are created.
func (r *TripRepository) CreateTrip(trip *models.Trip) (int64, error) {
	if len(trip.Travellers) == 0 {
		return 0, fmt.Errorf("trip has no travellers")
	}
	if trip.CreatedAt.IsZero() {
		trip.CreatedAt = time.Now().UTC()
	}

	tripQuery := `
		INSERT INTO Trip (
			travel_date, origin, destination, stops, total_duration,
			fare_class, path_summary, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING trip_id`

	ticketQuery := `
		INSERT INTO TripTraveller (trip_id, traveller_id, seat_class, ticket_price)
		VALUES (?, ?, ?, ?)`

	var tripID int64
	err := WithTransaction(r.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowx(tx.Rebind(tripQuery),
			trip.TravelDate, trip.Origin, trip.Destination, trip.Stops, trip.TotalDuration,
			string(trip.FareClass), trip.PathSummary, trip.CreatedAt,
		).Scan(&tripID)
		if err != nil {
			return fmt.Errorf("failed to insert trip: %w", err)
		}

		for i := range trip.Travellers {
			traveller := &trip.Travellers[i]
			travellerID, err := findOrCreateTraveller(tx, traveller)
			if err != nil {
				return err
			}
			traveller.ID = travellerID

			if _, err := tx.Exec(tx.Rebind(ticketQuery),
				tripID, travellerID, string(trip.FareClass), trip.TicketPrice,
			); err != nil {
				return fmt.Errorf("failed to insert ticket for traveller %d: %w", travellerID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	trip.ID = tripID
	return tripID, nil
}

func findOrCreateTraveller(tx *sqlx.Tx, t *models.Traveller) (int64, error) {
	var id int64
	err := tx.QueryRowx(tx.Rebind(`SELECT traveller_id FROM Traveller WHERE gov_id = ?`), t.GovID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up traveller: %w", err)
	}

	insert := `
		INSERT INTO Traveller (first_name, last_name, gov_id, age)
		VALUES (?, ?, ?, ?)
		RETURNING traveller_id`

	var age sql.NullInt64
	if t.Age != nil {
		age = sql.NullInt64{Int64: int64(*t.Age), Valid: true}
	}

	if err := tx.QueryRowx(tx.Rebind(insert), t.FirstName, t.LastName, t.GovID, age).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create traveller: %w", err)
	}
	return id, nil
}

// ListTripsForTraveller returns every trip booked for the traveller with the
// given last name and gov id, ordered by travel date. Both keys match
// case-insensitively; an unknown traveller yields an empty list.
func (r *TripRepository) ListTripsForTraveller(lastName, govID string) ([]models.TripRecord, error) {
	query := `
		SELECT t.trip_id, t.travel_date, t.origin, t.destination,
			   t.stops, t.total_duration, t.fare_class, t.path_summary,
			   tt.ticket_price
		FROM Trip t
		JOIN TripTraveller tt ON t.trip_id = tt.trip_id
		JOIN Traveller tr ON tr.traveller_id = tt.traveller_id
		WHERE lower(tr.last_name) = ? AND lower(tr.gov_id) = ?
		ORDER BY t.travel_date ASC, t.trip_id ASC`

	records := []models.TripRecord{}
	err := r.db.Select(&records, r.db.Rebind(query),
		strings.ToLower(strings.TrimSpace(lastName)),
		strings.ToLower(strings.TrimSpace(govID)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}

	return records, nil
}
