package planner

import (
	"strings"

	"github.com/smarttransit/rail-planner-backend/internal/models"
	"github.com/smarttransit/rail-planner-backend/pkg/timetable"
)

// RouteFilter holds the generic per-leg filters. It never looks at cities so
// that intermediate legs stay available to multi-hop searches.
type RouteFilter struct {
	TrainType      string
	Days           timetable.DaySet
	Departure      timetable.Window
	Arrival        timetable.Window
	MaxPriceFirst  *float64
	MaxPriceSecond *float64
}

// Match reports whether a single route passes every filter
func (f RouteFilter) Match(r models.Route) bool {
	if f.TrainType != "" && !strings.Contains(strings.ToLower(r.TrainType), strings.ToLower(strings.TrimSpace(f.TrainType))) {
		return false
	}
	// Routes without day information are never excluded
	if !f.Days.IsEmpty() && !r.OperatingDays.IsEmpty() && !r.OperatingDays.Overlaps(f.Days) {
		return false
	}
	if !f.Departure.Contains(r.DepartureTime) {
		return false
	}
	if !f.Arrival.Contains(r.ArrivalTime) {
		return false
	}
	if !underCeiling(r, models.FirstClass, f.MaxPriceFirst) {
		return false
	}
	if !underCeiling(r, models.SecondClass, f.MaxPriceSecond) {
		return false
	}
	return true
}

func underCeiling(r models.Route, class models.FareClass, ceiling *float64) bool {
	if ceiling == nil {
		return true
	}
	price, ok := r.Price(class)
	return ok && price <= *ceiling
}

// Apply returns the routes that pass the filter, preserving input order
func (f RouteFilter) Apply(routes []models.Route) []models.Route {
	out := make([]models.Route, 0, len(routes))
	for _, r := range routes {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}
