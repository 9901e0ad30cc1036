package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/rail-planner-backend/internal/models"
	"github.com/smarttransit/rail-planner-backend/internal/services"
)

// BookingHandler handles trip booking and trip lookup
type BookingHandler struct {
	service *services.BookingService
	logger  *logrus.Logger
	now     func() time.Time
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(service *services.BookingService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		logger:  logger,
		now:     time.Now,
	}
}

// BookTrip handles POST /api/v1/trips
// @Summary Book an itinerary
// @Description Re-checks the chosen legs, verifies they run on the travel date and stores one ticket per traveller
// @Tags Trips
// @Accept json
// @Produce json
// @Param booking body models.BookingRequest true "Booking"
// @Success 201 {object} models.BookingResponse
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Failure 422 {object} map[string]interface{} "Itinerary does not run on the travel date"
// @Router /api/v1/trips [post]
func (h *BookingHandler) BookTrip(c *gin.Context) {
	var req models.BookingRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid booking request - JSON parsing failed")
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request format",
			"error":   err.Error(),
		})
		return
	}

	booking, err := h.service.BookTrip(&req)
	if err != nil {
		respondError(c, h.logger, err, "Failed to book trip")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"message": "Trip booked successfully",
		"trip_id": booking.TripID,
		"booking": booking,
	})
}

// GetTrips handles GET /api/v1/trips?last_name=&gov_id=
// @Summary List a traveller's trips
// @Tags Trips
// @Produce json
// @Param last_name query string true "Traveller last name"
// @Param gov_id query string true "Government id"
// @Success 200 {object} models.TripLookupResponse
// @Failure 400 {object} map[string]interface{} "Missing parameters"
// @Router /api/v1/trips [get]
func (h *BookingHandler) GetTrips(c *gin.Context) {
	lastName := c.Query("last_name")
	govID := c.Query("gov_id")

	trips, err := h.service.GetTrips(lastName, govID, h.now())
	if err != nil {
		respondError(c, h.logger, err, "Failed to load trips")
		return
	}

	c.JSON(http.StatusOK, trips)
}
