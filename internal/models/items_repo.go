package models

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ItemFilters are the search parameters of the item directory. Nil
// pointers mean the filter is not applied.
type ItemFilters struct {
	Category    string
	MinPrice    *float64
	MaxPrice    *float64
	Lat         *float64
	Lng         *float64
	MaxDistance *float64 // meters
	StartDate   *time.Time
	EndDate     *time.Time
	Search      string
	Page        int
	Limit       int
}

type ItemsRepo interface {
	CreateItem(ctx context.Context, item *Item) error
	GetItemByID(ctx context.Context, id uuid.UUID) (*Item, error)
	ListItems(ctx context.Context, filters ItemFilters) ([]*Item, int, error)
	ListItemsByOwner(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]*Item, int, error)
	UpdateItem(ctx context.Context, id uuid.UUID, set bson.M, pushImages []string) (*Item, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
}

func (mdb *MongodbRepo) CreateItem(ctx context.Context, item *Item) error {
	col, err := mdb.GetCollection(ctx, ItemsCollection)
	if err != nil {
		return err
	}
	if _, err := col.InsertOne(ctx, item); err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) GetItemByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	col, err := mdb.GetCollection(ctx, ItemsCollection)
	if err != nil {
		return nil, err
	}
	var item Item
	if err := col.FindOne(ctx, bson.M{"id": id}).Decode(&item); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

func buildItemQuery(filters ItemFilters) bson.M {
	query := bson.M{"is_available": true}

	if filters.Category != "" {
		query["category"] = filters.Category
	}
	if filters.MinPrice != nil || filters.MaxPrice != nil {
		price := bson.M{}
		if filters.MinPrice != nil {
			price["$gte"] = *filters.MinPrice
		}
		if filters.MaxPrice != nil {
			price["$lte"] = *filters.MaxPrice
		}
		query["price_per_day"] = price
	}
	if filters.Lat != nil && filters.Lng != nil && filters.MaxDistance != nil {
		// $centerSphere takes the radius in radians.
		query["location"] = bson.M{
			"$geoWithin": bson.M{
				"$centerSphere": bson.A{
					bson.A{*filters.Lng, *filters.Lat},
					*filters.MaxDistance / EarthRadiusMeters,
				},
			},
		}
	}
	if filters.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(filters.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"description": re},
		}
	}
	if filters.StartDate != nil && filters.EndDate != nil {
		query["availability"] = bson.M{
			"$elemMatch": bson.M{
				"start": bson.M{"$lt": *filters.EndDate},
				"end":   bson.M{"$gt": *filters.StartDate},
			},
		}
	}
	return query
}

func (mdb *MongodbRepo) ListItems(ctx context.Context, filters ItemFilters) ([]*Item, int, error) {
	col, err := mdb.GetCollection(ctx, ItemsCollection)
	if err != nil {
		return nil, 0, err
	}
	query := buildItemQuery(filters)

	total, err := col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((filters.Page - 1) * filters.Limit)).
		SetLimit(int64(filters.Limit))

	cursor, err := col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list items: %w", err)
	}
	defer cursor.Close(ctx)

	items := []*Item{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("failed to decode items: %w", err)
	}
	return items, int(total), nil
}

func (mdb *MongodbRepo) ListItemsByOwner(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]*Item, int, error) {
	col, err := mdb.GetCollection(ctx, ItemsCollection)
	if err != nil {
		return nil, 0, err
	}
	query := bson.M{"owner_id": ownerID}

	total, err := col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count owner items: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list owner items: %w", err)
	}
	defer cursor.Close(ctx)

	items := []*Item{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("failed to decode owner items: %w", err)
	}
	return items, int(total), nil
}

// UpdateItem applies a partial $set and appends any new images to the
// existing list, returning the updated document.
func (mdb *MongodbRepo) UpdateItem(ctx context.Context, id uuid.UUID, set bson.M, pushImages []string) (*Item, error) {
	col, err := mdb.GetCollection(ctx, ItemsCollection)
	if err != nil {
		return nil, err
	}
	set["updated_at"] = time.Now().UTC()
	update := bson.M{"$set": set}
	if len(pushImages) > 0 {
		update["$push"] = bson.M{"images": bson.M{"$each": pushImages}}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated Item
	if err := col.FindOneAndUpdate(ctx, bson.M{"id": id}, update, opts).Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	return &updated, nil
}

func (mdb *MongodbRepo) DeleteItem(ctx context.Context, id uuid.UUID) error {
	col, err := mdb.GetCollection(ctx, ItemsCollection)
	if err != nil {
		return err
	}
	res, err := col.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
