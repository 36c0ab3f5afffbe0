package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wanderio/tourbooking/internal/domain"
	"github.com/wanderio/tourbooking/internal/repository"
	"github.com/wanderio/tourbooking/internal/service/booking"
)

// AdminAuth gates staff routes on a shared token. Real authentication lives
// in front of this service; the middleware only encodes the 401 contract.
func AdminAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" || c.GetHeader("X-Admin-Token") != token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin token required"})
			return
		}
		c.Next()
	}
}

type AdminHandler struct {
	service booking.BookingUseCase
}

func NewAdminHandler(service booking.BookingUseCase) *AdminHandler {
	return &AdminHandler{service: service}
}

func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.GET("/bookings", h.list)
	router.GET("/bookings/stats", h.stats)
}

func (h *AdminHandler) list(c *gin.Context) {
	var filter repository.BookingFilter

	if raw := c.Query("status"); raw != "" {
		status, ok := domain.ParseBookingStatus(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + raw})
			return
		}
		filter.Status = &status
	}
	if raw := c.Query("payment_status"); raw != "" {
		status, ok := domain.ParsePaymentStatus(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown payment status " + raw})
			return
		}
		filter.PaymentStatus = &status
	}
	filter.Search = c.Query("search")

	bookings, err := h.service.ListBookings(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *AdminHandler) stats(c *gin.Context) {
	stats, err := h.service.BookingStats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
