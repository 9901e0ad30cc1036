package planner

import (
	"github.com/smarttransit/rail-planner-backend/internal/models"
)

// MaxStopsLimit is the deepest search supported (three legs)
const MaxStopsLimit = 2

// Query describes one itinerary search over a route list
type Query struct {
	Origin      string
	Destination string
	MaxStops    int
	Policy      LayoverPolicy
	Filter      RouteFilter
	Class       models.FareClass
}

// legTuple is the ordered leg-id sequence of an itinerary, usable as a map key
type legTuple struct {
	n   int
	ids [MaxStopsLimit + 1]string
}

func tupleOf(legs []models.Route) legTuple {
	var t legTuple
	t.n = len(legs)
	for i, leg := range legs {
		t.ids[i] = leg.ID
	}
	return t
}

// graph indexes filtered routes by lower-cased departure city
type graph map[string][]models.Route

func buildGraph(routes []models.Route) graph {
	g := make(graph)
	for _, r := range routes {
		key := models.CityKey(r.DepartureCity)
		g[key] = append(g[key], r)
	}
	return g
}

func (g graph) from(city string) []models.Route {
	return g[models.CityKey(city)]
}

// Enumerate lists every admissible itinerary from Origin to Destination with
// up to MaxStops changes. Results are deduplicated by leg sequence and keep
// discovery order (direct first, then one stop, then two stops); itineraries
// without a price in the query class are left out.
func Enumerate(routes []models.Route, q Query) []models.Itinerary {
	maxStops := q.MaxStops
	if maxStops < 0 {
		maxStops = 0
	}
	if maxStops > MaxStopsLimit {
		maxStops = MaxStopsLimit
	}

	g := buildGraph(q.Filter.Apply(routes))
	origin := models.CityKey(q.Origin)
	destination := models.CityKey(q.Destination)

	results := make([]models.Itinerary, 0)
	seen := make(map[legTuple]bool)
	add := func(legs ...models.Route) {
		it := models.NewItinerary(q.Class, legs...)
		if _, ok := it.Price(); !ok {
			return
		}
		key := tupleOf(legs)
		if seen[key] {
			return
		}
		seen[key] = true
		results = append(results, it)
	}

	// Direct
	for _, r1 := range g.from(origin) {
		if models.CityKey(r1.ArrivalCity) == destination {
			add(r1)
		}
	}

	if maxStops >= 1 {
		// One stop: origin -> X -> destination
		for _, r1 := range g.from(origin) {
			x := models.CityKey(r1.ArrivalCity)
			if x == origin || x == destination {
				continue
			}
			for _, r2 := range g.from(x) {
				if models.CityKey(r2.ArrivalCity) != destination {
					continue
				}
				if !q.connects(r1, r2) {
					continue
				}
				add(r1, r2)
			}
		}
	}

	if maxStops >= 2 {
		// Two stops: origin -> X -> Y -> destination
		for _, r1 := range g.from(origin) {
			x := models.CityKey(r1.ArrivalCity)
			if x == origin || x == destination {
				continue
			}
			for _, r2 := range g.from(x) {
				y := models.CityKey(r2.ArrivalCity)
				if y == origin || y == x || y == destination {
					continue
				}
				if !q.connects(r1, r2) {
					continue
				}
				for _, r3 := range g.from(y) {
					if models.CityKey(r3.ArrivalCity) != destination {
						continue
					}
					if !q.connects(r2, r3) {
						continue
					}
					add(r1, r2, r3)
				}
			}
		}
	}

	return results
}

// connects checks same-day ordering and the layover policy for one change
func (q Query) connects(prev, next models.Route) bool {
	if next.DepartureTime < prev.ArrivalTime {
		return false
	}
	return q.Policy.Allowed(prev.ArrivalTime, next.DepartureTime)
}
