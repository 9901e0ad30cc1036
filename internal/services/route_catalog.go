package services

import (
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/rail-planner-backend/internal/models"
)

// ErrCatalogNotLoaded is returned when no route dataset has been loaded yet
var ErrCatalogNotLoaded = errors.New("route catalog is not loaded")

// RouteSource supplies a complete route dataset
type RouteSource interface {
	Name() string
	LoadRoutes() ([]models.Route, error)
}

// RouteSnapshot is one immutable loaded dataset. Searches work on a single
// snapshot so a concurrent reload is never observed half way.
type RouteSnapshot struct {
	Routes      []models.Route
	Version     int64
	Fingerprint string
	Source      string
	LoadedAt    time.Time

	byID map[string]models.Route
}

func newRouteSnapshot(routes []models.Route, version int64, source string) *RouteSnapshot {
	byID := make(map[string]models.Route, len(routes))
	for _, r := range routes {
		byID[r.ID] = r
	}
	return &RouteSnapshot{
		Routes:      routes,
		Version:     version,
		Fingerprint: fingerprint(routes),
		Source:      source,
		LoadedAt:    time.Now(),
		byID:        byID,
	}
}

// Lookup resolves route ids in order. Unknown ids are a validation error.
func (s *RouteSnapshot) Lookup(ids []string) ([]models.Route, error) {
	legs := make([]models.Route, 0, len(ids))
	for _, id := range ids {
		r, ok := s.byID[id]
		if !ok {
			return nil, models.ErrInvalidInput(fmt.Sprintf("unknown route id %q", id))
		}
		legs = append(legs, r)
	}
	return legs, nil
}

// fingerprint identifies dataset content so cached searches survive restarts
// but not data changes
func fingerprint(routes []models.Route) string {
	h := fnv.New64a()
	for _, r := range routes {
		fmt.Fprintf(h, "%s|%s|%s|%d|%d|%s|%d|%s|%s\n",
			r.ID, r.DepartureCity, r.ArrivalCity, r.DepartureTime, r.ArrivalTime,
			r.TrainType, r.OperatingDays, formatPrice(r.PriceFirst), formatPrice(r.PriceSecond))
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

func formatPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.4f", *p)
}

// RouteCatalog holds the current route snapshot and swaps it on reload
type RouteCatalog struct {
	mu       sync.RWMutex
	snapshot *RouteSnapshot
	loads    int64
	logger   *logrus.Logger
}

// NewRouteCatalog creates an empty catalog
func NewRouteCatalog(logger *logrus.Logger) *RouteCatalog {
	return &RouteCatalog{logger: logger}
}

// Load reads a full dataset from source and makes it current. On error the
// previous snapshot stays in place.
func (c *RouteCatalog) Load(source RouteSource) (*RouteSnapshot, error) {
	startTime := time.Now()

	routes, err := source.LoadRoutes()
	if err != nil {
		c.logger.WithError(err).WithField("source", source.Name()).Error("Failed to load route dataset")
		return nil, fmt.Errorf("failed to load routes from %s: %w", source.Name(), err)
	}

	c.mu.Lock()
	c.loads++
	snapshot := newRouteSnapshot(routes, c.loads, source.Name())
	c.snapshot = snapshot
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"source":      snapshot.Source,
		"routes":      len(snapshot.Routes),
		"version":     snapshot.Version,
		"fingerprint": snapshot.Fingerprint,
		"load_ms":     time.Since(startTime).Milliseconds(),
	}).Info("Route catalog loaded")

	return snapshot, nil
}

// Snapshot returns the current dataset
func (c *RouteCatalog) Snapshot() (*RouteSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil {
		return nil, ErrCatalogNotLoaded
	}
	return c.snapshot, nil
}

// Routes returns the routes of the current snapshot
func (c *RouteCatalog) Routes() []models.Route {
	snapshot, err := c.Snapshot()
	if err != nil {
		return []models.Route{}
	}
	return snapshot.Routes
}

// Version returns the current snapshot version, 0 before the first load
func (c *RouteCatalog) Version() int64 {
	snapshot, err := c.Snapshot()
	if err != nil {
		return 0
	}
	return snapshot.Version
}

// Lookup resolves route ids against the current snapshot
func (c *RouteCatalog) Lookup(ids []string) ([]models.Route, error) {
	snapshot, err := c.Snapshot()
	if err != nil {
		return nil, err
	}
	return snapshot.Lookup(ids)
}
