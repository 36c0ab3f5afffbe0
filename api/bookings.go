package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wanderio/tourbooking/internal/domain"
	"github.com/wanderio/tourbooking/internal/service/booking"
)

type BookingHandler struct {
	service    booking.BookingUseCase
	adminToken string
}

type travelerRequest struct {
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	DateOfBirth    *time.Time `json:"date_of_birth"`
	PassportNumber string     `json:"passport_number"`
	IsMainContact  bool       `json:"is_main_contact"`
}

// Traveler record completeness is checked by the workflow service so the
// caller gets the per-index error contract; binding only enforces shape.
type createBookingRequest struct {
	SubjectKind       string            `json:"subject_kind" binding:"required,oneof=TOUR PACKAGE"`
	SubjectID         uuid.UUID         `json:"subject_id" binding:"required"`
	UserID            uuid.UUID         `json:"user_id" binding:"required"`
	StartDate         time.Time         `json:"start_date" binding:"required,not_past_date"`
	EndDate           *time.Time        `json:"end_date"`
	NumberOfTravelers int               `json:"number_of_travelers" binding:"required,gt=0"`
	Travelers         []travelerRequest `json:"travelers" binding:"required"`
	SpecialRequests   string            `json:"special_requests"`
}

type updateBookingRequest struct {
	Status        *string `json:"status"`
	PaymentStatus *string `json:"payment_status"`
}

func NewBookingHandler(service booking.BookingUseCase, adminToken string) *BookingHandler {
	return &BookingHandler{service: service, adminToken: adminToken}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/:id", h.get)
	router.PATCH("/:id", h.update)
	router.DELETE("/:id", AdminAuth(h.adminToken), h.delete)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind, _ := domain.ParseSubjectKind(req.SubjectKind)
	travelers := make([]domain.Traveler, len(req.Travelers))
	for i, t := range req.Travelers {
		travelers[i] = domain.Traveler{
			FirstName:      t.FirstName,
			LastName:       t.LastName,
			Email:          t.Email,
			Phone:          t.Phone,
			DateOfBirth:    t.DateOfBirth,
			PassportNumber: t.PassportNumber,
			IsMainContact:  t.IsMainContact,
		}
	}

	created, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		SubjectKind:     kind,
		SubjectID:       req.SubjectID,
		UserID:          req.UserID,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		TravelerCount:   req.NumberOfTravelers,
		Travelers:       travelers,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *BookingHandler) get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	found, err := h.service.GetBooking(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

// update moves one lifecycle axis per request. Patching both at once is
// rejected: the two updates cannot be applied atomically, and a failure on
// the second would leave the first committed behind an error response.
func (h *BookingHandler) update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status == nil && req.PaymentStatus == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}
	if req.Status != nil && req.PaymentStatus != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "update status and payment_status in separate requests"})
		return
	}

	var updated *domain.Booking
	if req.Status != nil {
		status, ok := domain.ParseBookingStatus(*req.Status)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + *req.Status})
			return
		}
		updated, err = h.service.UpdateStatus(c.Request.Context(), id, status)
	} else {
		status, ok := domain.ParsePaymentStatus(*req.PaymentStatus)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown payment status " + *req.PaymentStatus})
			return
		}
		updated, err = h.service.UpdatePaymentStatus(c.Request.Context(), id, status)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *BookingHandler) delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	if err := h.service.DeleteBooking(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id.String()})
}
