package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/peerlend/api/internal/models"
	"github.com/peerlend/api/internal/services"
)

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// SendBookingMessage relays a message between the two parties of a
// booking.
func SendBookingMessage(rl *services.RelayService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := requireUser(c)
		if !ok {
			return
		}
		bookingID, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		msg, err := rl.SendMessage(c.Request.Context(), bookingID, userID, req.Content)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(msg, "message sent"))
	}
}
