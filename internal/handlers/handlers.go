package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/peerlend/api/internal/apperr"
	"github.com/peerlend/api/internal/helpers"
	"github.com/peerlend/api/internal/models"
)

// currentUser pulls the verified identity the auth middleware stored on
// the context. The bool is false when the middleware did not run.
func currentUser(c *gin.Context) (*helpers.AuthClaims, bool) {
	userClaims, exists := c.Get("user")
	if !exists {
		return nil, false
	}
	claims, ok := userClaims.(*helpers.AuthClaims)
	return claims, ok
}

func requireUser(c *gin.Context) (*helpers.AuthClaims, uuid.UUID, bool) {
	claims, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse("unauthorized"))
		return nil, uuid.Nil, false
	}
	userID := claims.ParsedUserID()
	if userID == uuid.Nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid user ID in token"))
		return nil, uuid.Nil, false
	}
	return claims, userID, true
}

// respondError translates a service error into its HTTP status and the
// standard envelope. Internal causes stay in the logs.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, models.ErrorResponse(apperr.Reason(err)))
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid "+name+" format"))
		return uuid.Nil, false
	}
	return id, true
}

func parsePaginationQuery(c *gin.Context) (page, limit int, ok bool) {
	page, limit, err := helpers.ParsePagination(c.Query("page"), c.Query("limit"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
		return 0, 0, false
	}
	return page, limit, true
}
