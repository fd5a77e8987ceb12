package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/peerlend/api/internal/helpers"
	"github.com/peerlend/api/internal/models"
	"github.com/peerlend/api/internal/services"
)

func CreateItem(is *services.ItemService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := requireUser(c)
		if !ok {
			return
		}

		var item models.Item
		if err := c.ShouldBindJSON(&item); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		created, err := is.CreateItem(c.Request.Context(), &item, userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(created, "item created successfully"))
	}
}

func GetItem(is *services.ItemService) gin.HandlerFunc {
	return func(c *gin.Context) {
		itemID, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		item, err := is.GetItem(c.Request.Context(), itemID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(item, ""))
	}
}

func parseItemFilters(c *gin.Context) (models.ItemFilters, bool) {
	filters := models.ItemFilters{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}

	floatParam := func(name string) (*float64, bool) {
		raw := c.Query(name)
		if raw == "" {
			return nil, true
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid "+name+" parameter"))
			return nil, false
		}
		return &v, true
	}

	var ok bool
	if filters.MinPrice, ok = floatParam("minPrice"); !ok {
		return filters, false
	}
	if filters.MaxPrice, ok = floatParam("maxPrice"); !ok {
		return filters, false
	}
	if filters.Lat, ok = floatParam("lat"); !ok {
		return filters, false
	}
	if filters.Lng, ok = floatParam("lng"); !ok {
		return filters, false
	}
	if filters.MaxDistance, ok = floatParam("maxDistance"); !ok {
		return filters, false
	}

	if raw := c.Query("startDate"); raw != "" {
		t, err := helpers.ParseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return filters, false
		}
		filters.StartDate = &t
	}
	if raw := c.Query("endDate"); raw != "" {
		t, err := helpers.ParseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return filters, false
		}
		filters.EndDate = &t
	}

	page, limit, ok := parsePaginationQuery(c)
	if !ok {
		return filters, false
	}
	filters.Page = page
	filters.Limit = limit
	return filters, true
}

func ListItems(is *services.ItemService) gin.HandlerFunc {
	return func(c *gin.Context) {
		filters, ok := parseItemFilters(c)
		if !ok {
			return
		}
		items, total, err := is.ListItems(c.Request.Context(), filters)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.PaginatedResponse(items, filters.Page, filters.Limit, total))
	}
}

func ListMyItems(is *services.ItemService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := requireUser(c)
		if !ok {
			return
		}
		page, limit, ok := parsePaginationQuery(c)
		if !ok {
			return
		}
		items, total, err := is.ListMyItems(c.Request.Context(), userID, page, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.PaginatedResponse(items, page, limit, total))
	}
}

func UpdateItem(is *services.ItemService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := requireUser(c)
		if !ok {
			return
		}
		itemID, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		var update models.ItemUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		updated, err := is.UpdateItem(c.Request.Context(), itemID, userID, update)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(updated, "item updated successfully"))
	}
}

func RemoveItem(is *services.ItemService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := requireUser(c)
		if !ok {
			return
		}
		itemID, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		if err := is.RemoveItem(c.Request.Context(), itemID, userID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "item removed successfully"))
	}
}
