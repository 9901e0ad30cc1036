package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/rail-planner-backend/internal/models"
	"github.com/smarttransit/rail-planner-backend/internal/services"
)

// SearchHandler handles HTTP requests for itinerary search
type SearchHandler struct {
	service *services.SearchService
	catalog *services.RouteCatalog
	logger  *logrus.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(service *services.SearchService, catalog *services.RouteCatalog, logger *logrus.Logger) *SearchHandler {
	return &SearchHandler{
		service: service,
		catalog: catalog,
		logger:  logger,
	}
}

// SearchItineraries handles POST /api/v1/search
// @Summary Search for itineraries
// @Description Enumerate direct, one-stop and two-stop itineraries between two cities
// @Tags Search
// @Accept json
// @Produce json
// @Param search body models.SearchRequest true "Search parameters"
// @Success 200 {object} models.SearchResponse
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Failure 503 {object} map[string]interface{} "Route dataset not loaded"
// @Router /api/v1/search [post]
func (h *SearchHandler) SearchItineraries(c *gin.Context) {
	var req models.SearchRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid search request - JSON parsing failed")
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request format",
			"error":   err.Error(),
		})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"from":      req.From,
		"to":        req.To,
		"sort":      req.SortBy,
		"class":     req.FareClass,
		"max_stops": req.MaxStops,
	}).Debug("Search parameters parsed")

	response, err := h.service.Search(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err, "Failed to search itineraries")
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListRoutes handles GET /api/v1/routes
// @Summary List the loaded route dataset
// @Tags Search
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{} "Route dataset not loaded"
// @Router /api/v1/routes [get]
func (h *SearchHandler) ListRoutes(c *gin.Context) {
	snapshot, err := h.catalog.Snapshot()
	if err != nil {
		respondError(c, h.logger, err, "Failed to list routes")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"version":   snapshot.Version,
		"source":    snapshot.Source,
		"loaded_at": snapshot.LoadedAt,
		"count":     len(snapshot.Routes),
		"routes":    snapshot.Routes,
	})
}
