package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/rail-planner-backend/internal/models"
	"github.com/smarttransit/rail-planner-backend/internal/planner"
	"github.com/smarttransit/rail-planner-backend/internal/services"
)

// respondError maps service and planner errors onto HTTP responses
func respondError(c *gin.Context, logger *logrus.Logger, err error, fallback string) {
	var validationErr *models.ValidationError
	var dayErr *planner.DayNotOperatedError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": validationErr.Message,
		})
	case errors.As(err, &dayErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status":   "error",
			"message":  dayErr.Error(),
			"code":     "DAY_NOT_OPERATED",
			"route_id": dayErr.RouteID,
			"day":      dayErr.Day,
		})
	case errors.Is(err, planner.ErrBrokenChain),
		errors.Is(err, planner.ErrConnectionNotAllowed),
		errors.Is(err, planner.ErrNoPrice):
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
	case errors.Is(err, services.ErrCatalogNotLoaded):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "Route dataset is not loaded yet",
		})
	default:
		logger.WithError(err).WithField("path", c.Request.URL.Path).Error(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": fallback,
		})
	}
}
