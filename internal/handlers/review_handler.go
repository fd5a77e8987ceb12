package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/peerlend/api/internal/models"
	"github.com/peerlend/api/internal/services"
)

func CreateReview(rs *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := requireUser(c)
		if !ok {
			return
		}

		var req services.ReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		review, err := rs.CreateReview(c.Request.Context(), userID, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(review, "review created successfully"))
	}
}

func ListItemReviews(rs *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		itemID, ok := parseIDParam(c, "itemId")
		if !ok {
			return
		}
		page, limit, ok := parsePaginationQuery(c)
		if !ok {
			return
		}

		reviews, summary, total, err := rs.ListItemReviews(c.Request.Context(), itemID, page, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		resp := models.PaginatedResponse(gin.H{
			"reviews":        reviews,
			"average_rating": summary.AverageRating,
			"total_reviews":  summary.TotalReviews,
		}, page, limit, total)
		c.JSON(http.StatusOK, resp)
	}
}

func ListUserReviews(rs *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseIDParam(c, "userId")
		if !ok {
			return
		}
		page, limit, ok := parsePaginationQuery(c)
		if !ok {
			return
		}

		reviews, total, err := rs.ListUserReviews(c.Request.Context(), userID, page, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.PaginatedResponse(reviews, page, limit, total))
	}
}
