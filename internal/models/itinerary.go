package models

import (
	"strings"

	"github.com/smarttransit/rail-planner-backend/pkg/timetable"
)

// Itinerary is an ordered chain of one to three legs priced in one fare class
type Itinerary struct {
	Legs  []Route
	Class FareClass
}

// NewItinerary builds an itinerary from chained legs
func NewItinerary(class FareClass, legs ...Route) Itinerary {
	copied := make([]Route, len(legs))
	copy(copied, legs)
	return Itinerary{Legs: copied, Class: class}
}

// Origin is the departure city of the first leg
func (it Itinerary) Origin() string {
	if len(it.Legs) == 0 {
		return ""
	}
	return it.Legs[0].DepartureCity
}

// Destination is the arrival city of the last leg
func (it Itinerary) Destination() string {
	if len(it.Legs) == 0 {
		return ""
	}
	return it.Legs[len(it.Legs)-1].ArrivalCity
}

// Stops is the number of intermediate changes
func (it Itinerary) Stops() int {
	if len(it.Legs) == 0 {
		return 0
	}
	return len(it.Legs) - 1
}

// Transfers returns the layover before each connecting leg, measured on the
// same day: next departure minus previous arrival, never wrapped.
func (it Itinerary) Transfers() []int {
	if len(it.Legs) < 2 {
		return []int{}
	}
	transfers := make([]int, 0, len(it.Legs)-1)
	for i := 1; i < len(it.Legs); i++ {
		transfers = append(transfers, int(it.Legs[i].DepartureTime)-int(it.Legs[i-1].ArrivalTime))
	}
	return transfers
}

// TotalDuration is the door-to-door time in minutes: every leg's running time
// plus every layover. For same-day journeys this equals the last arrival minus
// the first departure.
func (it Itinerary) TotalDuration() int {
	total := 0
	for _, leg := range it.Legs {
		total += leg.Duration()
	}
	for _, t := range it.Transfers() {
		total += t
	}
	return total
}

// Price sums the leg prices in the itinerary class. The second return value is
// false when any leg has no price in that class.
func (it Itinerary) Price() (float64, bool) {
	return it.PriceIn(it.Class)
}

// PriceIn sums the leg prices in an arbitrary class
func (it Itinerary) PriceIn(class FareClass) (float64, bool) {
	if len(it.Legs) == 0 {
		return 0, false
	}
	total := 0.0
	for _, leg := range it.Legs {
		p, ok := leg.Price(class)
		if !ok {
			return 0, false
		}
		total += p
	}
	return total, true
}

// Path renders the city chain, e.g. "Berlin → Munich → Vienna"
func (it Itinerary) Path() string {
	if len(it.Legs) == 0 {
		return ""
	}
	cities := make([]string, 0, len(it.Legs)+1)
	cities = append(cities, it.Legs[0].DepartureCity)
	for _, leg := range it.Legs {
		cities = append(cities, leg.ArrivalCity)
	}
	return strings.Join(cities, " → ")
}

// Key renders the leg ids joined by "|" for display and logging. Ids may
// themselves contain "|"; compare LegIDs when identity matters.
func (it Itinerary) Key() string {
	ids := make([]string, len(it.Legs))
	for i, leg := range it.Legs {
		ids[i] = leg.ID
	}
	return strings.Join(ids, "|")
}

// LegIDs returns the route ids in travel order
func (it Itinerary) LegIDs() []string {
	ids := make([]string, len(it.Legs))
	for i, leg := range it.Legs {
		ids[i] = leg.ID
	}
	return ids
}

// DepartureTime of the first leg
func (it Itinerary) DepartureTime() timetable.TimeOfDay {
	if len(it.Legs) == 0 {
		return 0
	}
	return it.Legs[0].DepartureTime
}

// ArrivalTime of the last leg
func (it Itinerary) ArrivalTime() timetable.TimeOfDay {
	if len(it.Legs) == 0 {
		return 0
	}
	return it.Legs[len(it.Legs)-1].ArrivalTime
}

// LegView is the JSON shape of one leg in search results
type LegView struct {
	RouteID         string              `json:"route_id"`
	DepartureCity   string              `json:"departure_city"`
	ArrivalCity     string              `json:"arrival_city"`
	DepartureTime   timetable.TimeOfDay `json:"departure_time"`
	ArrivalTime     timetable.TimeOfDay `json:"arrival_time"`
	DurationMinutes int                 `json:"duration_minutes"`
	TrainType       string              `json:"train_type"`
	OperatingDays   timetable.DaySet    `json:"days_of_operation"`
	Price           *float64            `json:"price,omitempty"`
}

// ItineraryView is the JSON shape of one itinerary in search results
type ItineraryView struct {
	Key                  string              `json:"key"`
	LegIDs               []string            `json:"leg_ids"`
	Origin               string              `json:"origin"`
	Destination          string              `json:"destination"`
	DepartureTime        timetable.TimeOfDay `json:"departure_time"`
	ArrivalTime          timetable.TimeOfDay `json:"arrival_time"`
	Stops                int                 `json:"stops"`
	TransfersMinutes     []int               `json:"transfers_minutes"`
	TotalDurationMinutes int                 `json:"total_duration_minutes"`
	TotalDuration        string              `json:"total_duration"`
	FareClass            FareClass           `json:"fare_class"`
	Price                float64             `json:"price"`
	Path                 string              `json:"path"`
	Legs                 []LegView           `json:"legs"`
}

// View flattens the itinerary for API responses
func (it Itinerary) View() ItineraryView {
	price, _ := it.Price()
	legs := make([]LegView, len(it.Legs))
	for i, leg := range it.Legs {
		lv := LegView{
			RouteID:         leg.ID,
			DepartureCity:   leg.DepartureCity,
			ArrivalCity:     leg.ArrivalCity,
			DepartureTime:   leg.DepartureTime,
			ArrivalTime:     leg.ArrivalTime,
			DurationMinutes: leg.Duration(),
			TrainType:       leg.TrainType,
			OperatingDays:   leg.OperatingDays,
		}
		if p, ok := leg.Price(it.Class); ok {
			lv.Price = &p
		}
		legs[i] = lv
	}

	return ItineraryView{
		Key:                  it.Key(),
		LegIDs:               it.LegIDs(),
		Origin:               it.Origin(),
		Destination:          it.Destination(),
		DepartureTime:        it.DepartureTime(),
		ArrivalTime:          it.ArrivalTime(),
		Stops:                it.Stops(),
		TransfersMinutes:     it.Transfers(),
		TotalDurationMinutes: it.TotalDuration(),
		TotalDuration:        timetable.FormatDuration(it.TotalDuration()),
		FareClass:            it.Class,
		Price:                price,
		Path:                 it.Path(),
		Legs:                 legs,
	}
}
