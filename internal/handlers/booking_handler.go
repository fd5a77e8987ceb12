package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/peerlend/api/internal/helpers"
	"github.com/peerlend/api/internal/models"
	"github.com/peerlend/api/internal/services"
)

type createBookingRequest struct {
	ItemID    uuid.UUID `json:"item_id" binding:"required"`
	StartDate string    `json:"start_date" binding:"required"`
	EndDate   string    `json:"end_date" binding:"required"`
}

func CreateBooking(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := requireUser(c)
		if !ok {
			return
		}

		var req createBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}
		start, err := helpers.ParseDate(req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}
		end, err := helpers.ParseDate(req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		booking, err := bs.CreateBooking(c.Request.Context(), userID, req.ItemID, start, end)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(booking, "booking created successfully"))
	}
}

func ListMyBookings(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := requireUser(c)
		if !ok {
			return
		}
		page, limit, ok := parsePaginationQuery(c)
		if !ok {
			return
		}

		role := models.BookingRole(c.DefaultQuery("type", string(models.BookingRoleAll)))
		status := models.BookingStatus(c.Query("status"))

		bookings, total, err := bs.ListMyBookings(c.Request.Context(), userID, role, status, page, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.PaginatedResponse(bookings, page, limit, total))
	}
}

func GetBooking(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := requireUser(c)
		if !ok {
			return
		}
		bookingID, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		booking, err := bs.GetBooking(c.Request.Context(), bookingID, userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(booking, ""))
	}
}

type updateStatusRequest struct {
	Status models.BookingStatus `json:"status" binding:"required"`
}

func UpdateBookingStatus(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := requireUser(c)
		if !ok {
			return
		}
		bookingID, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		var req updateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		booking, err := bs.UpdateStatus(c.Request.Context(), bookingID, userID, req.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(booking, "booking status updated"))
	}
}

type cancelBookingRequest struct {
	CancellationReason string `json:"cancellation_reason" binding:"required"`
}

func CancelBooking(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := requireUser(c)
		if !ok {
			return
		}
		bookingID, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		var req cancelBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		booking, err := bs.CancelBooking(c.Request.Context(), bookingID, userID, req.CancellationReason)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(booking, "booking cancelled"))
	}
}

type updatePaymentRequest struct {
	PaymentStatus models.PaymentStatus `json:"payment_status" binding:"required"`
}

// UpdateBookingPayment is the webhook surface the payment collaborator
// reports into; routed behind the admin role.
func UpdateBookingPayment(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingID, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		var req updatePaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		booking, err := bs.UpdatePaymentStatus(c.Request.Context(), bookingID, req.PaymentStatus)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(booking, "payment status updated"))
	}
}
