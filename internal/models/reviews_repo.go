package models

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ReviewsRepo interface {
	CreateReview(ctx context.Context, review *Review) error
	ReviewExists(ctx context.Context, bookingID, reviewerID uuid.UUID, reviewType ReviewType) (bool, error)
	ListReviewsByItem(ctx context.Context, itemID uuid.UUID, page, limit int) ([]*Review, int, error)
	ListReviewsByUser(ctx context.Context, revieweeID uuid.UUID, page, limit int) ([]*Review, int, error)
	ItemRating(ctx context.Context, itemID uuid.UUID) (*ItemRatingSummary, error)
}

func (mdb *MongodbRepo) CreateReview(ctx context.Context, review *Review) error {
	col, err := mdb.GetCollection(ctx, ReviewsCollection)
	if err != nil {
		return err
	}
	if _, err := col.InsertOne(ctx, review); err != nil {
		// The (booking_id, reviewer_id, type) unique index backs up the
		// application-level duplicate check under concurrency.
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateReview
		}
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

// ErrDuplicateReview is returned when the unique review index rejects an
// insert.
var ErrDuplicateReview = fmt.Errorf("review already exists for this booking")

func (mdb *MongodbRepo) ReviewExists(ctx context.Context, bookingID, reviewerID uuid.UUID, reviewType ReviewType) (bool, error) {
	col, err := mdb.GetCollection(ctx, ReviewsCollection)
	if err != nil {
		return false, err
	}
	count, err := col.CountDocuments(ctx, bson.M{
		"booking_id":  bookingID,
		"reviewer_id": reviewerID,
		"type":        reviewType,
	})
	if err != nil {
		return false, fmt.Errorf("failed to check existing review: %w", err)
	}
	return count > 0, nil
}

func (mdb *MongodbRepo) paginatedReviews(ctx context.Context, query bson.M, page, limit int) ([]*Review, int, error) {
	col, err := mdb.GetCollection(ctx, ReviewsCollection)
	if err != nil {
		return nil, 0, err
	}
	total, err := col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer cursor.Close(ctx)

	reviews := []*Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, 0, fmt.Errorf("failed to decode reviews: %w", err)
	}
	return reviews, int(total), nil
}

func (mdb *MongodbRepo) ListReviewsByItem(ctx context.Context, itemID uuid.UUID, page, limit int) ([]*Review, int, error) {
	return mdb.paginatedReviews(ctx, bson.M{"item_id": itemID, "type": ReviewUserToItem}, page, limit)
}

func (mdb *MongodbRepo) ListReviewsByUser(ctx context.Context, revieweeID uuid.UUID, page, limit int) ([]*Review, int, error) {
	return mdb.paginatedReviews(ctx, bson.M{"reviewee_id": revieweeID, "type": ReviewUserToUser}, page, limit)
}

// ItemRating aggregates the item's average rating and review count on
// read; nothing is stored on the item document.
func (mdb *MongodbRepo) ItemRating(ctx context.Context, itemID uuid.UUID) (*ItemRatingSummary, error) {
	col, err := mdb.GetCollection(ctx, ReviewsCollection)
	if err != nil {
		return nil, err
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"item_id": itemID, "type": ReviewUserToItem}}},
		{{Key: "$group", Value: bson.M{
			"_id":            nil,
			"average_rating": bson.M{"$avg": "$rating"},
			"total_reviews":  bson.M{"$sum": 1},
		}}},
	}
	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate item rating: %w", err)
	}
	defer cursor.Close(ctx)

	var results []ItemRatingSummary
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode rating summary: %w", err)
	}
	if len(results) == 0 {
		return &ItemRatingSummary{}, nil
	}
	return &results[0], nil
}
