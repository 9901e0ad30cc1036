package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/rail-planner-backend/internal/models"
	"github.com/smarttransit/rail-planner-backend/internal/planner"
	"github.com/smarttransit/rail-planner-backend/pkg/timetable"
)

// TripStore persists trips and looks them up by traveller
type TripStore interface {
	CreateTrip(trip *models.Trip) (int64, error)
	ListTripsForTraveller(lastName, govID string) ([]models.TripRecord, error)
}

// BookingService books itineraries and lists a traveller's trips
type BookingService struct {
	catalog *RouteCatalog
	trips   TripStore
	policy  planner.LayoverPolicy
	logger  *logrus.Logger
}

// NewBookingService creates a new BookingService
func NewBookingService(catalog *RouteCatalog, trips TripStore, policy planner.LayoverPolicy, logger *logrus.Logger) *BookingService {
	return &BookingService{
		catalog: catalog,
		trips:   trips,
		policy:  policy,
		logger:  logger,
	}
}

// BookTrip re-checks the chosen legs against the current catalog, verifies
// every leg runs on the travel date and stores one ticket per traveller at
// the itinerary price.
func (s *BookingService) BookTrip(req *models.BookingRequest) (*models.BookingResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	class, err := models.ParseFareClass(req.FareClass)
	if err != nil {
		return nil, err
	}

	travelDate, err := timetable.ParseDate(req.TravelDate)
	if err != nil {
		return nil, models.ErrInvalidInput(err.Error())
	}

	legs, err := s.catalog.Lookup(req.LegIDs)
	if err != nil {
		return nil, err
	}

	policy := s.policy
	if req.MinTransfer != nil {
		policy = policy.WithMinTransfer(*req.MinTransfer)
	}

	itinerary, err := planner.Assemble(legs, class, policy)
	if err != nil {
		return nil, err
	}

	if err := planner.ValidateTravelDay(itinerary, req.TravelDate); err != nil {
		return nil, err
	}

	price, _ := itinerary.Price()

	travellers := make([]models.Traveller, len(req.Travellers))
	for i, in := range req.Travellers {
		travellers[i] = models.NewTraveller(in)
	}

	trip := &models.Trip{
		TravelDate:    travelDate.Format(timetable.DateLayout),
		Origin:        itinerary.Origin(),
		Destination:   itinerary.Destination(),
		Stops:         itinerary.Stops(),
		TotalDuration: itinerary.TotalDuration(),
		FareClass:     class,
		PathSummary:   itinerary.Path(),
		TicketPrice:   price,
		Travellers:    travellers,
	}

	tripID, err := s.trips.CreateTrip(trip)
	if err != nil {
		s.logger.WithError(err).WithField("legs", itinerary.Key()).Error("Failed to store trip")
		return nil, fmt.Errorf("failed to book trip: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"trip_id":     tripID,
		"travel_date": trip.TravelDate,
		"legs":        itinerary.Key(),
		"fare_class":  class,
		"travellers":  len(travellers),
	}).Info("Trip booked")

	return &models.BookingResponse{
		TripID:            tripID,
		TravelDate:        trip.TravelDate,
		Path:              trip.PathSummary,
		FareClass:         class,
		PricePerPassenger: price,
		TotalPrice:        price * float64(len(travellers)),
		Travellers:        len(travellers),
	}, nil
}

// GetTrips lists a traveller's trips split around today: trips dated today
// or later are upcoming, earlier ones are history.
func (s *BookingService) GetTrips(lastName, govID string, today time.Time) (*models.TripLookupResponse, error) {
	if strings.TrimSpace(lastName) == "" || strings.TrimSpace(govID) == "" {
		return nil, models.ErrInvalidInput("last_name and gov_id are required")
	}

	records, err := s.trips.ListTripsForTraveller(lastName, govID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trips: %w", err)
	}

	cutoff := today.Format(timetable.DateLayout)
	response := &models.TripLookupResponse{
		Upcoming: []models.TripRecord{},
		History:  []models.TripRecord{},
	}
	for _, rec := range records {
		if rec.TravelDate >= cutoff {
			response.Upcoming = append(response.Upcoming, rec)
		} else {
			response.History = append(response.History, rec)
		}
	}

	return response, nil
}
