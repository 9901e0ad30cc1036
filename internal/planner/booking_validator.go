package planner

import (
	"errors"
	"fmt"

	"github.com/smarttransit/rail-planner-backend/internal/models"
	"github.com/smarttransit/rail-planner-backend/pkg/timetable"
)

var (
	// ErrDayNotOperated indicates a leg does not run on the requested travel day
	ErrDayNotOperated = errors.New("itinerary does not operate on the travel date")

	// ErrBrokenChain indicates legs that do not connect end to end
	ErrBrokenChain = errors.New("legs do not form a connected itinerary")

	// ErrConnectionNotAllowed indicates a change that violates the layover policy
	ErrConnectionNotAllowed = errors.New("connection violates the layover policy")

	// ErrNoPrice indicates a leg without a price in the chosen fare class
	ErrNoPrice = errors.New("itinerary has no price in the chosen fare class")
)

// DayNotOperatedError names the leg that does not run on the travel day
type DayNotOperatedError struct {
	RouteID string
	Day     timetable.DayCode
	Date    string
}

func (e *DayNotOperatedError) Error() string {
	return fmt.Sprintf("route %s does not operate on %s (%s)", e.RouteID, e.Day, e.Date)
}

// Unwrap lets callers match with errors.Is(err, ErrDayNotOperated)
func (e *DayNotOperatedError) Unwrap() error {
	return ErrDayNotOperated
}

// ValidateTravelDay checks every leg runs on the weekday of travelDate.
// Legs without operating-day information are treated as running every day.
func ValidateTravelDay(it models.Itinerary, travelDate string) error {
	day, err := timetable.DayOfWeek(travelDate)
	if err != nil {
		return err
	}
	for _, leg := range it.Legs {
		if leg.OperatingDays.IsEmpty() {
			continue
		}
		if !leg.OperatingDays.Contains(day) {
			return &DayNotOperatedError{RouteID: leg.ID, Day: day, Date: travelDate}
		}
	}
	return nil
}

// Assemble rebuilds an itinerary from legs chosen by a client and checks it
// with the same rules the enumerator applies: chained cities, no revisited
// city, same-day ordering, layover policy and a price in the chosen class.
func Assemble(legs []models.Route, class models.FareClass, policy LayoverPolicy) (models.Itinerary, error) {
	if len(legs) == 0 || len(legs) > MaxStopsLimit+1 {
		return models.Itinerary{}, fmt.Errorf("%w: expected 1 to %d legs, got %d", ErrBrokenChain, MaxStopsLimit+1, len(legs))
	}

	visited := map[string]bool{models.CityKey(legs[0].DepartureCity): true}
	for i, leg := range legs {
		arrival := models.CityKey(leg.ArrivalCity)
		if visited[arrival] {
			return models.Itinerary{}, fmt.Errorf("%w: %s is visited twice", ErrBrokenChain, leg.ArrivalCity)
		}
		visited[arrival] = true

		if i == 0 {
			continue
		}
		prev := legs[i-1]
		if models.CityKey(prev.ArrivalCity) != models.CityKey(leg.DepartureCity) {
			return models.Itinerary{}, fmt.Errorf("%w: %s arrives at %s but %s departs from %s",
				ErrBrokenChain, prev.ID, prev.ArrivalCity, leg.ID, leg.DepartureCity)
		}
		if leg.DepartureTime < prev.ArrivalTime || !policy.Allowed(prev.ArrivalTime, leg.DepartureTime) {
			return models.Itinerary{}, fmt.Errorf("%w: %s at %s to %s at %s",
				ErrConnectionNotAllowed, prev.ID, prev.ArrivalTime, leg.ID, leg.DepartureTime)
		}
	}

	it := models.NewItinerary(class, legs...)
	if _, ok := it.Price(); !ok {
		return models.Itinerary{}, fmt.Errorf("%w: %s", ErrNoPrice, class)
	}
	return it, nil
}
