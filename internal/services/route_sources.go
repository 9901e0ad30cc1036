package services

import (
	"github.com/smarttransit/rail-planner-backend/internal/database"
	"github.com/smarttransit/rail-planner-backend/internal/ingest"
	"github.com/smarttransit/rail-planner-backend/internal/models"
)

// DatabaseRouteSource reads the Route table
type DatabaseRouteSource struct {
	repo *database.RouteRepository
}

// NewDatabaseRouteSource creates a new DatabaseRouteSource
func NewDatabaseRouteSource(repo *database.RouteRepository) *DatabaseRouteSource {
	return &DatabaseRouteSource{repo: repo}
}

func (s *DatabaseRouteSource) Name() string { return "database" }

func (s *DatabaseRouteSource) LoadRoutes() ([]models.Route, error) {
	return s.repo.ListRoutes()
}

// CSVRouteSource reads a route CSV export from disk on every load
type CSVRouteSource struct {
	path   string
	loader *ingest.Loader
}

// NewCSVRouteSource creates a new CSVRouteSource
func NewCSVRouteSource(path string, loader *ingest.Loader) *CSVRouteSource {
	return &CSVRouteSource{path: path, loader: loader}
}

func (s *CSVRouteSource) Name() string { return "csv:" + s.path }

func (s *CSVRouteSource) LoadRoutes() ([]models.Route, error) {
	result, err := s.loader.LoadFile(s.path)
	if err != nil {
		return nil, err
	}
	return result.Routes, nil
}

// StaticRouteSource serves a fixed in-memory dataset
type StaticRouteSource struct {
	name   string
	routes []models.Route
}

// NewStaticRouteSource creates a new StaticRouteSource
func NewStaticRouteSource(name string, routes []models.Route) *StaticRouteSource {
	return &StaticRouteSource{name: name, routes: routes}
}

func (s *StaticRouteSource) Name() string { return s.name }

func (s *StaticRouteSource) LoadRoutes() ([]models.Route, error) {
	return s.routes, nil
}
