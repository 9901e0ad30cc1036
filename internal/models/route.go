package models

import (
	"fmt"
	"math"
	"strings"

	"github.com/smarttransit/rail-planner-backend/pkg/timetable"
)

// FareClass is the ticket class an itinerary is priced in
type FareClass string

const (
	FirstClass  FareClass = "first"
	SecondClass FareClass = "second"
)

// ParseFareClass normalizes a fare class, defaulting to second class when empty
func ParseFareClass(s string) (FareClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "second", "2", "2nd":
		return SecondClass, nil
	case "first", "1", "1st":
		return FirstClass, nil
	default:
		return "", ErrInvalidInput(fmt.Sprintf("fare class must be 'first' or 'second', got %q", s))
	}
}

// Route is one scheduled leg of the rail network. Routes are immutable once loaded.
type Route struct {
	ID            string              `json:"route_id"`
	DepartureCity string              `json:"departure_city"`
	ArrivalCity   string              `json:"arrival_city"`
	DepartureTime timetable.TimeOfDay `json:"departure_time"`
	ArrivalTime   timetable.TimeOfDay `json:"arrival_time"`
	TrainType     string              `json:"train_type"`
	OperatingDays timetable.DaySet    `json:"days_of_operation"`
	PriceFirst    *float64            `json:"first_class_price,omitempty"`
	PriceSecond   *float64            `json:"second_class_price,omitempty"`
}

// Duration is the running time in minutes; an arrival before the departure
// is read as the next morning.
func (r Route) Duration() int {
	return timetable.MinutesBetween(r.DepartureTime, r.ArrivalTime)
}

// Price returns the leg price in the given class and whether it is known
func (r Route) Price(class FareClass) (float64, bool) {
	var p *float64
	switch class {
	case FirstClass:
		p = r.PriceFirst
	case SecondClass:
		p = r.PriceSecond
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// DepartsFrom compares the departure city case-insensitively
func (r Route) DepartsFrom(city string) bool {
	return strings.EqualFold(r.DepartureCity, strings.TrimSpace(city))
}

// ArrivesAt compares the arrival city case-insensitively
func (r Route) ArrivesAt(city string) bool {
	return strings.EqualFold(r.ArrivalCity, strings.TrimSpace(city))
}

// Validate checks the invariants every loaded route must satisfy
func (r Route) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrInvalidInput("route id is required")
	}
	if strings.TrimSpace(r.DepartureCity) == "" || strings.TrimSpace(r.ArrivalCity) == "" {
		return ErrInvalidInput(fmt.Sprintf("route %s: departure and arrival city are required", r.ID))
	}
	if r.DepartureTime < 0 || r.DepartureTime >= timetable.MinutesPerDay ||
		r.ArrivalTime < 0 || r.ArrivalTime >= timetable.MinutesPerDay {
		return ErrInvalidInput(fmt.Sprintf("route %s: time out of range", r.ID))
	}
	if !validPrice(r.PriceFirst) || !validPrice(r.PriceSecond) {
		return ErrInvalidInput(fmt.Sprintf("route %s: price must be a finite non-negative amount", r.ID))
	}
	return nil
}

func validPrice(p *float64) bool {
	return p == nil || (!math.IsNaN(*p) && !math.IsInf(*p, 0) && *p >= 0)
}

// CityKey is the normalized form used to index routes by city
func CityKey(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}
