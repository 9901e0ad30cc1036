package models

import (
	"strings"
)

// SearchRequest represents a passenger's itinerary search query
type SearchRequest struct {
	From           string   `json:"from" binding:"required"` // Origin city (e.g., "Berlin")
	To             string   `json:"to" binding:"required"`   // Destination city (e.g., "Vienna")
	TrainType      string   `json:"train_type,omitempty"`    // Optional: substring of the train type
	Days           []string `json:"days,omitempty"`          // Optional: operating days, any overlap accepted
	DepartureFrom  string   `json:"dep_from,omitempty"`      // Optional: earliest departure (HH:MM)
	DepartureTo    string   `json:"dep_to,omitempty"`        // Optional: latest departure (HH:MM)
	ArrivalFrom    string   `json:"arr_from,omitempty"`      // Optional: earliest arrival (HH:MM)
	ArrivalTo      string   `json:"arr_to,omitempty"`        // Optional: latest arrival (HH:MM)
	MaxPriceFirst  *float64 `json:"max_price_first,omitempty"`
	MaxPriceSecond *float64 `json:"max_price_second,omitempty"`
	MaxStops       *int     `json:"max_stops,omitempty"`    // 0, 1 or 2 (default from config)
	MinTransfer    *int     `json:"min_transfer,omitempty"` // Minutes (default from config)
	FareClass      string   `json:"fare_class,omitempty"`   // "first" or "second" (default: second)
	SortBy         string   `json:"sort,omitempty"`         // "duration" or "price" (default: duration)
	Limit          int      `json:"limit,omitempty"`        // Max results (default from config)
}

// SearchResponse represents the itinerary search results
type SearchResponse struct {
	Status        string          `json:"status"`  // "success" or "error"
	Message       string          `json:"message"` // Human-readable message
	SearchDetails SearchDetails   `json:"search_details"`
	Results       []ItineraryView `json:"results"`
	TotalFound    int             `json:"total_found"` // Matches before the limit was applied
	SearchTimeMs  int64           `json:"search_time_ms"`
}

// SearchDetails echoes the effective parameters of a search
type SearchDetails struct {
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	FareClass      FareClass `json:"fare_class"`
	SortBy         string    `json:"sort"`
	MaxStops       int       `json:"max_stops"`
	MinTransfer    int       `json:"min_transfer"`
	DatasetVersion int64     `json:"dataset_version"`
}

// Validate validates the search request
func (r *SearchRequest) Validate() error {
	r.From = strings.TrimSpace(r.From)
	r.To = strings.TrimSpace(r.To)

	if r.From == "" {
		return ErrInvalidInput("from location is required")
	}
	if r.To == "" {
		return ErrInvalidInput("to location is required")
	}
	if strings.EqualFold(r.From, r.To) {
		return ErrInvalidInput("origin and destination cannot be the same")
	}

	if r.MaxStops != nil && (*r.MaxStops < 0 || *r.MaxStops > 2) {
		return ErrInvalidInput("max_stops must be 0, 1 or 2")
	}
	if r.MinTransfer != nil && *r.MinTransfer < 0 {
		return ErrInvalidInput("min_transfer cannot be negative")
	}
	if r.MaxPriceFirst != nil && *r.MaxPriceFirst < 0 {
		return ErrInvalidInput("max_price_first cannot be negative")
	}
	if r.MaxPriceSecond != nil && *r.MaxPriceSecond < 0 {
		return ErrInvalidInput("max_price_second cannot be negative")
	}

	// Cap maximum limit
	if r.Limit < 0 {
		r.Limit = 0
	}
	if r.Limit > 500 {
		r.Limit = 500
	}

	return nil
}

// ErrInvalidInput creates a validation error
func ErrInvalidInput(message string) error {
	return &ValidationError{Message: message}
}

// ValidationError represents a validation error
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
