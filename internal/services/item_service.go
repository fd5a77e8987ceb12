package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/peerlend/api/internal/apperr"
	"github.com/peerlend/api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

type ItemService struct {
	itemsRepo    models.ItemsRepo
	bookingsRepo models.BookingsRepo
}

func NewItemService(itemsRepo models.ItemsRepo, bookingsRepo models.BookingsRepo) *ItemService {
	return &ItemService{
		itemsRepo:    itemsRepo,
		bookingsRepo: bookingsRepo,
	}
}

func (is *ItemService) CreateItem(ctx context.Context, item *models.Item, ownerID uuid.UUID) (*models.Item, error) {
	item.OwnerID = ownerID
	item.BeforeCreate()
	if err := item.ValidateItem(); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if err := is.itemsRepo.CreateItem(ctx, item); err != nil {
		return nil, apperr.Internal(err)
	}
	return item, nil
}

func (is *ItemService) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	if id == uuid.Nil {
		return nil, apperr.Validation("invalid item ID")
	}
	item, err := is.itemsRepo.GetItemByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if item == nil {
		return nil, apperr.NotFound("item not found")
	}
	return item, nil
}

func (is *ItemService) ListItems(ctx context.Context, filters models.ItemFilters) ([]*models.Item, int, error) {
	if filters.Page < 1 || filters.Limit < 1 {
		return nil, 0, apperr.Validation("invalid page or limit")
	}
	if filters.Category != "" && !models.ItemCategory(filters.Category).Valid() {
		return nil, 0, apperr.Validation(fmt.Sprintf("unknown category %q", filters.Category))
	}
	if (filters.Lat == nil) != (filters.Lng == nil) {
		return nil, 0, apperr.Validation("lat and lng must be supplied together")
	}
	if filters.MaxDistance != nil && (filters.Lat == nil || *filters.MaxDistance <= 0) {
		return nil, 0, apperr.Validation("maxDistance requires lat/lng and must be positive")
	}
	if (filters.StartDate == nil) != (filters.EndDate == nil) {
		return nil, 0, apperr.Validation("startDate and endDate must be supplied together")
	}
	if filters.StartDate != nil && !filters.StartDate.Before(*filters.EndDate) {
		return nil, 0, apperr.Validation("startDate must be before endDate")
	}

	items, total, err := is.itemsRepo.ListItems(ctx, filters)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return items, total, nil
}

func (is *ItemService) ListMyItems(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]*models.Item, int, error) {
	if ownerID == uuid.Nil {
		return nil, 0, apperr.Validation("invalid owner ID")
	}
	items, total, err := is.itemsRepo.ListItemsByOwner(ctx, ownerID, page, limit)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return items, total, nil
}

func (is *ItemService) UpdateItem(ctx context.Context, id, callerID uuid.UUID, update models.ItemUpdate) (*models.Item, error) {
	item, err := is.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != callerID {
		return nil, apperr.Forbidden("only the item owner can update it")
	}

	set := bson.M{}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Category != nil {
		if !update.Category.Valid() {
			return nil, apperr.Validation(fmt.Sprintf("unknown category %q", *update.Category))
		}
		set["category"] = *update.Category
	}
	if update.PricePerDay != nil {
		if *update.PricePerDay < 0 {
			return nil, apperr.Validation("price_per_day must be >= 0")
		}
		set["price_per_day"] = *update.PricePerDay
	}
	if update.Deposit != nil {
		if *update.Deposit < 0 {
			return nil, apperr.Validation("deposit must be >= 0")
		}
		set["deposit"] = *update.Deposit
	}
	if update.Availability != nil {
		if err := models.ValidateWindows(update.Availability); err != nil {
			return nil, apperr.Validation(err.Error())
		}
		set["availability"] = update.Availability
	}
	if update.Location != nil {
		if err := update.Location.Validate(); err != nil {
			return nil, apperr.Validation(err.Error())
		}
		set["location"] = *update.Location
	}
	if update.Address != nil {
		set["address"] = *update.Address
	}
	if update.Condition != nil {
		set["condition"] = *update.Condition
	}
	if update.IsAvailable != nil {
		set["is_available"] = *update.IsAvailable
	}
	if len(set) == 0 && len(update.Images) == 0 {
		return nil, apperr.Validation("no fields to update")
	}

	updated, err := is.itemsRepo.UpdateItem(ctx, id, set, update.Images)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if updated == nil {
		return nil, apperr.NotFound("item not found")
	}
	return updated, nil
}

// RemoveItem deletes an item. Deletion is refused while any booking on
// the item is still pending, confirmed or ongoing, so bookings never end
// up referencing a missing item.
func (is *ItemService) RemoveItem(ctx context.Context, id, callerID uuid.UUID) error {
	item, err := is.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if item.OwnerID != callerID {
		return apperr.Forbidden("only the item owner can remove it")
	}

	active, err := is.bookingsRepo.CountActiveByItem(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if active > 0 {
		return apperr.Conflict("item has active bookings and cannot be removed")
	}

	if err := is.itemsRepo.DeleteItem(ctx, id); err != nil {
		return apperr.Internal(err)
	}
	return nil
}
