package planner

import (
	"math"
	"strings"

	"github.com/smarttransit/rail-planner-backend/internal/models"
	"golang.org/x/exp/slices"
)

// SortKey selects the primary ordering of search results
type SortKey string

const (
	SortByDuration SortKey = "duration"
	SortByPrice    SortKey = "price"
)

// ParseSortKey accepts "duration" or "price"; empty means duration
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortByDuration:
		return SortByDuration, nil
	case SortByPrice:
		return SortByPrice, nil
	default:
		return "", models.ErrInvalidInput("sort must be 'duration' or 'price'")
	}
}

// Sort orders itineraries in place. Duration sorts by total duration then
// price; price sorts by price then total duration. The sort is stable so
// equal itineraries keep their enumeration order.
func Sort(itineraries []models.Itinerary, key SortKey) {
	slices.SortStableFunc(itineraries, func(a, b models.Itinerary) int {
		durA, durB := a.TotalDuration(), b.TotalDuration()
		priceA, priceB := sortPrice(a), sortPrice(b)

		if key == SortByPrice {
			if c := compareFloat(priceA, priceB); c != 0 {
				return c
			}
			return compareInt(durA, durB)
		}
		if c := compareInt(durA, durB); c != 0 {
			return c
		}
		return compareFloat(priceA, priceB)
	})
}

// Limit truncates a sorted result set; n <= 0 keeps everything
func Limit(itineraries []models.Itinerary, n int) []models.Itinerary {
	if n <= 0 || len(itineraries) <= n {
		return itineraries
	}
	return itineraries[:n]
}

func sortPrice(it models.Itinerary) float64 {
	p, ok := it.Price()
	if !ok {
		return math.Inf(1)
	}
	return p
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
