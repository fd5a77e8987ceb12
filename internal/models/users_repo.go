package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type UsersRepo interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	// ApplyRating folds one new rating into the user's running mean.
	// The read-modify-write is protected by a compare-and-swap on
	// total_ratings, retried until it lands or the attempt budget runs
	// out.
	ApplyRating(ctx context.Context, userID uuid.UUID, rating int) (*User, error)
}

const ratingCASAttempts = 5

func (mdb *MongodbRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	col, err := mdb.GetCollection(ctx, UsersCollection)
	if err != nil {
		return nil, err
	}
	var user User
	if err := col.FindOne(ctx, bson.M{"id": id}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (mdb *MongodbRepo) ApplyRating(ctx context.Context, userID uuid.UUID, rating int) (*User, error) {
	col, err := mdb.GetCollection(ctx, UsersCollection)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < ratingCASAttempts; attempt++ {
		var user User
		if err := col.FindOne(ctx, bson.M{"id": userID}).Decode(&user); err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to read user for rating update: %w", err)
		}

		newMean := NextRating(user.Rating, user.TotalRatings, rating)
		res, err := col.UpdateOne(ctx,
			bson.M{"id": userID, "total_ratings": user.TotalRatings},
			bson.M{"$set": bson.M{
				"rating":        newMean,
				"total_ratings": user.TotalRatings + 1,
				"updated_at":    time.Now().UTC(),
			}},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to apply rating: %w", err)
		}
		if res.MatchedCount == 1 {
			user.Rating = newMean
			user.TotalRatings++
			return &user, nil
		}
		// Lost the race with a concurrent review; reread and retry.
	}
	return nil, fmt.Errorf("rating update contention on user %s", userID)
}
