package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/rail-planner-backend/internal/models"
	"github.com/smarttransit/rail-planner-backend/internal/planner"
	"github.com/smarttransit/rail-planner-backend/pkg/timetable"
)

// SearchSettings are the defaults applied to every search request
type SearchSettings struct {
	Policy          planner.LayoverPolicy
	DefaultMaxStops int
	ResultLimit     int
}

// SearchService handles itinerary search over the route catalog
type SearchService struct {
	catalog  *RouteCatalog
	cache    SearchCache
	settings SearchSettings
	logger   *logrus.Logger
}

// NewSearchService creates a new search service
func NewSearchService(catalog *RouteCatalog, cache SearchCache, settings SearchSettings, logger *logrus.Logger) *SearchService {
	if cache == nil {
		cache = NoopSearchCache{}
	}
	return &SearchService{
		catalog:  catalog,
		cache:    cache,
		settings: settings,
		logger:   logger,
	}
}

// resolvedSearch is a request with every default applied. It doubles as the
// cache key material.
type resolvedSearch struct {
	Origin      string           `json:"o"`
	Destination string           `json:"d"`
	Query       planner.Query    `json:"-"`
	Class       models.FareClass `json:"c"`
	Sort        planner.SortKey  `json:"s"`
	MaxStops    int              `json:"m"`
	MinTransfer int              `json:"t"`
	Capped      bool             `json:"lc"`
	DayCap      int              `json:"ld"`
	NightCap    int              `json:"ln"`
	DayWindow   [2]string        `json:"lw"`
	Limit       int              `json:"l"`
	TrainType   string           `json:"tt,omitempty"`
	Days        string           `json:"dy,omitempty"`
	Departure   [2]string        `json:"dw"`
	Arrival     [2]string        `json:"aw"`
	MaxFirst    *float64         `json:"mf,omitempty"`
	MaxSecond   *float64         `json:"ms,omitempty"`
}

func (s *SearchService) resolve(req *models.SearchRequest) (*resolvedSearch, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	class, err := models.ParseFareClass(req.FareClass)
	if err != nil {
		return nil, err
	}
	sortKey, err := planner.ParseSortKey(req.SortBy)
	if err != nil {
		return nil, err
	}

	days := timetable.ParseDayList(req.Days)
	if len(req.Days) > 0 && days.IsEmpty() {
		return nil, models.ErrInvalidInput("days contains no recognised day names")
	}

	departure, err := timetable.ParseWindow(req.DepartureFrom, req.DepartureTo)
	if err != nil {
		return nil, models.ErrInvalidInput(fmt.Sprintf("invalid departure window: %v", err))
	}
	arrival, err := timetable.ParseWindow(req.ArrivalFrom, req.ArrivalTo)
	if err != nil {
		return nil, models.ErrInvalidInput(fmt.Sprintf("invalid arrival window: %v", err))
	}

	maxStops := s.settings.DefaultMaxStops
	if req.MaxStops != nil {
		maxStops = *req.MaxStops
	}

	policy := s.settings.Policy
	if req.MinTransfer != nil {
		policy = policy.WithMinTransfer(*req.MinTransfer)
	}

	limit := s.settings.ResultLimit
	if req.Limit > 0 {
		limit = req.Limit
	}

	filter := planner.RouteFilter{
		TrainType:      req.TrainType,
		Days:           days,
		Departure:      departure,
		Arrival:        arrival,
		MaxPriceFirst:  req.MaxPriceFirst,
		MaxPriceSecond: req.MaxPriceSecond,
	}

	return &resolvedSearch{
		Origin:      req.From,
		Destination: req.To,
		Query: planner.Query{
			Origin:      req.From,
			Destination: req.To,
			MaxStops:    maxStops,
			Policy:      policy,
			Filter:      filter,
			Class:       class,
		},
		Class:       class,
		Sort:        sortKey,
		MaxStops:    maxStops,
		MinTransfer: policy.MinTransfer,
		Capped:      policy.Capped,
		DayCap:      policy.DayCap,
		NightCap:    policy.NightCap,
		DayWindow:   [2]string{policy.DayStart.String(), policy.DayEnd.String()},
		Limit:       limit,
		TrainType:   req.TrainType,
		Days:        days.String(),
		Departure:   windowBounds(departure),
		Arrival:     windowBounds(arrival),
		MaxFirst:    req.MaxPriceFirst,
		MaxSecond:   req.MaxPriceSecond,
	}, nil
}

func windowBounds(w timetable.Window) [2]string {
	var b [2]string
	if w.From != nil {
		b[0] = w.From.String()
	}
	if w.To != nil {
		b[1] = w.To.String()
	}
	return b
}

func (r *resolvedSearch) cacheKey(fingerprint string) string {
	material, _ := json.Marshal(struct {
		Dataset string          `json:"v"`
		Search  *resolvedSearch `json:"q"`
	}{fingerprint, &resolvedSearch{
		Origin:      models.CityKey(r.Origin),
		Destination: models.CityKey(r.Destination),
		Class:       r.Class,
		Sort:        r.Sort,
		MaxStops:    r.MaxStops,
		MinTransfer: r.MinTransfer,
		Capped:      r.Capped,
		DayCap:      r.DayCap,
		NightCap:    r.NightCap,
		DayWindow:   r.DayWindow,
		Limit:       r.Limit,
		TrainType:   r.TrainType,
		Days:        r.Days,
		Departure:   r.Departure,
		Arrival:     r.Arrival,
		MaxFirst:    r.MaxFirst,
		MaxSecond:   r.MaxSecond,
	}})
	return string(material)
}

// Search enumerates, sorts and limits itineraries for a request
func (s *SearchService) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	startTime := time.Now()

	resolved, err := s.resolve(req)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.catalog.Snapshot()
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"from":       resolved.Origin,
		"to":         resolved.Destination,
		"fare_class": resolved.Class,
		"max_stops":  resolved.MaxStops,
	}).Info("Processing search request")

	key := resolved.cacheKey(snapshot.Fingerprint)
	if cached, ok := s.cache.Get(ctx, key); ok {
		describe(cached, resolved)
		cached.SearchTimeMs = time.Since(startTime).Milliseconds()
		s.logger.WithFields(logrus.Fields{
			"from":    resolved.Origin,
			"to":      resolved.Destination,
			"results": len(cached.Results),
		}).Debug("Search served from cache")
		return cached, nil
	}

	itineraries := planner.Enumerate(snapshot.Routes, resolved.Query)
	planner.Sort(itineraries, resolved.Sort)
	total := len(itineraries)
	itineraries = planner.Limit(itineraries, resolved.Limit)

	views := make([]models.ItineraryView, len(itineraries))
	for i, it := range itineraries {
		views[i] = it.View()
	}

	response := &models.SearchResponse{
		Status: "success",
		SearchDetails: models.SearchDetails{
			FareClass:      resolved.Class,
			SortBy:         string(resolved.Sort),
			MaxStops:       resolved.MaxStops,
			MinTransfer:    resolved.MinTransfer,
			DatasetVersion: snapshot.Version,
		},
		Results:    views,
		TotalFound: total,
	}

	describe(response, resolved)

	response.SearchTimeMs = time.Since(startTime).Milliseconds()
	s.cache.Set(ctx, key, response)

	s.logger.WithFields(logrus.Fields{
		"from":        resolved.Origin,
		"to":          resolved.Destination,
		"results":     len(views),
		"total_found": total,
		"response_ms": response.SearchTimeMs,
	}).Info("Search completed successfully")

	return response, nil
}

// describe writes the request's own city spelling into a response, which may
// have been cached under a case-folded key.
func describe(response *models.SearchResponse, resolved *resolvedSearch) {
	response.SearchDetails.Origin = resolved.Origin
	response.SearchDetails.Destination = resolved.Destination

	if response.TotalFound == 0 {
		response.Message = fmt.Sprintf(
			"No itineraries found from %s to %s. Try relaxing the filters or allowing more stops.",
			resolved.Origin,
			resolved.Destination,
		)
		return
	}
	response.Message = fmt.Sprintf(
		"Found %d itinerary(ies) from %s to %s",
		response.TotalFound,
		resolved.Origin,
		resolved.Destination,
	)
}
