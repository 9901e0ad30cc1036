package models

import (
	"strings"
	"time"
)

// Traveller is a passenger identified by a government-issued id
type Traveller struct {
	ID        int64  `json:"traveller_id" db:"traveller_id"`
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`
	GovID     string `json:"gov_id" db:"gov_id"`
	Age       *int   `json:"age,omitempty" db:"age"`
}

// Trip is a confirmed booking: one travel date, one itinerary snapshot and
// one ticket per traveller. Trips are immutable after creation.
type Trip struct {
	ID            int64       `json:"trip_id" db:"trip_id"`
	TravelDate    string      `json:"travel_date" db:"travel_date"` // YYYY-MM-DD
	Origin        string      `json:"origin" db:"origin"`
	Destination   string      `json:"destination" db:"destination"`
	Stops         int         `json:"stops" db:"stops"`
	TotalDuration int         `json:"total_duration" db:"total_duration"` // minutes
	FareClass     FareClass   `json:"fare_class" db:"fare_class"`
	PathSummary   string      `json:"path_summary" db:"path_summary"`
	TicketPrice   float64     `json:"price_per_passenger" db:"-"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	Travellers    []Traveller `json:"travellers" db:"-"`
}

// Ticket links one traveller to one trip at the trip's fare class
type Ticket struct {
	TripID      int64     `json:"trip_id" db:"trip_id"`
	TravellerID int64     `json:"traveller_id" db:"traveller_id"`
	SeatClass   FareClass `json:"seat_class" db:"seat_class"`
	TicketPrice float64   `json:"ticket_price" db:"ticket_price"`
}

// TripRecord is a trip as seen by one of its travellers
type TripRecord struct {
	TripID        int64     `json:"trip_id" db:"trip_id"`
	TravelDate    string    `json:"date" db:"travel_date"`
	Origin        string    `json:"origin" db:"origin"`
	Destination   string    `json:"destination" db:"destination"`
	Stops         int       `json:"stops" db:"stops"`
	TotalDuration int       `json:"total_duration" db:"total_duration"`
	FareClass     FareClass `json:"fare_class" db:"fare_class"`
	PathSummary   string    `json:"itinerary" db:"path_summary"`
	TicketPrice   float64   `json:"ticket_price" db:"ticket_price"`
}

// TravellerInput is one passenger in a booking request
type TravellerInput struct {
	Name  string `json:"name" binding:"required"`
	GovID string `json:"gov_id" binding:"required"`
	Age   *int   `json:"age,omitempty"`
}

// BookingRequest asks to book an itinerary (by leg ids) on a travel date
type BookingRequest struct {
	TravelDate string           `json:"travel_date" binding:"required"` // YYYY-MM-DD
	LegIDs     []string         `json:"leg_ids" binding:"required"`
	FareClass  string           `json:"fare_class"`
	Travellers []TravellerInput `json:"travellers" binding:"required"`

	// MinTransfer repeats the minimum change time used when searching
	MinTransfer *int `json:"min_transfer,omitempty"`
}

// BookingResponse is returned after a trip is created
type BookingResponse struct {
	TripID            int64     `json:"trip_id"`
	TravelDate        string    `json:"travel_date"`
	Path              string    `json:"path_summary"`
	FareClass         FareClass `json:"fare_class"`
	PricePerPassenger float64   `json:"price_per_passenger"`
	TotalPrice        float64   `json:"total_price"`
	Travellers        int       `json:"travellers"`
}

// TripLookupResponse groups a traveller's trips around today's date
type TripLookupResponse struct {
	Upcoming []TripRecord `json:"upcoming"`
	History  []TripRecord `json:"history"`
}

// Validate validates the booking request
func (r *BookingRequest) Validate() error {
	if strings.TrimSpace(r.TravelDate) == "" {
		return ErrInvalidInput("travel_date is required")
	}
	if len(r.LegIDs) == 0 {
		return ErrInvalidInput("leg_ids must contain at least one route id")
	}
	if len(r.LegIDs) > 3 {
		return ErrInvalidInput("an itinerary has at most three legs")
	}
	if r.MinTransfer != nil && *r.MinTransfer < 0 {
		return ErrInvalidInput("min_transfer cannot be negative")
	}
	if len(r.Travellers) == 0 {
		return ErrInvalidInput("at least one traveller is required")
	}
	seen := make(map[string]bool, len(r.Travellers))
	for _, t := range r.Travellers {
		if strings.TrimSpace(t.Name) == "" {
			return ErrInvalidInput("traveller name is required")
		}
		gov := strings.ToLower(strings.TrimSpace(t.GovID))
		if gov == "" {
			return ErrInvalidInput("traveller gov_id is required")
		}
		if seen[gov] {
			return ErrInvalidInput("each traveller must have a distinct gov_id")
		}
		seen[gov] = true
		if t.Age != nil && (*t.Age < 0 || *t.Age > 130) {
			return ErrInvalidInput("traveller age is out of range")
		}
	}
	return nil
}

// SplitFullName splits "Ada Maria Lovelace" into ("Ada Maria", "Lovelace").
// A single-word name is used as both first and last name.
func SplitFullName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
	}
}

// NewTraveller builds a traveller record from booking input
func NewTraveller(in TravellerInput) Traveller {
	first, last := SplitFullName(in.Name)
	return Traveller{
		FirstName: first,
		LastName:  last,
		GovID:     strings.TrimSpace(in.GovID),
		Age:       in.Age,
	}
}
