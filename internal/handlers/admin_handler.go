package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/rail-planner-backend/internal/middleware"
	"github.com/smarttransit/rail-planner-backend/internal/services"
)

// AdminHandler handles operator endpoints for the route dataset
type AdminHandler struct {
	catalog *services.RouteCatalog
	source  services.RouteSource
	cron    *services.CronService
	logger  *logrus.Logger
}

// NewAdminHandler creates a new admin handler. cron may be nil.
func NewAdminHandler(catalog *services.RouteCatalog, source services.RouteSource, cron *services.CronService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		catalog: catalog,
		source:  source,
		cron:    cron,
		logger:  logger,
	}
}

// ReloadRoutes handles POST /api/v1/admin/routes/reload
// @Summary Reload the route dataset
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{} "Reload failed, previous dataset kept"
// @Router /api/v1/admin/routes/reload [post]
func (h *AdminHandler) ReloadRoutes(c *gin.Context) {
	fields := logrus.Fields{"source": h.source.Name()}
	if opCtx, ok := middleware.GetOperatorContext(c); ok {
		fields["operator_id"] = opCtx.OperatorID
		fields["operator"] = opCtx.Name
	}
	h.logger.WithFields(fields).Info("Route dataset reload requested")

	previous := h.catalog.Version()
	snapshot, err := h.catalog.Load(h.source)
	if err != nil {
		h.logger.WithError(err).WithFields(fields).Error("Route dataset reload failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":          "error",
			"message":         "Failed to reload routes, previous dataset kept",
			"error":           err.Error(),
			"current_version": previous,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":           "success",
		"message":          "Route dataset reloaded",
		"previous_version": previous,
		"version":          snapshot.Version,
		"fingerprint":      snapshot.Fingerprint,
		"routes":           len(snapshot.Routes),
		"source":           snapshot.Source,
	})
}

// RouteStatus handles GET /api/v1/admin/routes/status
// @Summary Show the loaded dataset and the reload schedule
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Router /api/v1/admin/routes/status [get]
func (h *AdminHandler) RouteStatus(c *gin.Context) {
	status := gin.H{
		"status":  "success",
		"loaded":  false,
		"source":  h.source.Name(),
		"version": int64(0),
	}

	if snapshot, err := h.catalog.Snapshot(); err == nil {
		status["loaded"] = true
		status["version"] = snapshot.Version
		status["routes"] = len(snapshot.Routes)
		status["fingerprint"] = snapshot.Fingerprint
		status["loaded_at"] = snapshot.LoadedAt
	}

	if h.cron != nil {
		status["schedule"] = h.cron.GetJobStatus()
	}

	c.JSON(http.StatusOK, status)
}
