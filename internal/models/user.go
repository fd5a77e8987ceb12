package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleBorrower = "borrower"
	RoleLender   = "lender"
	RoleAdmin    = "admin"
)

type User struct {
	ID        uuid.UUID `bson:"id" json:"id"`
	Username  string    `bson:"username" json:"username"`
	Email     string    `bson:"email" json:"email"`
	Role      string    `bson:"role" json:"role"`
	AvatarURL string    `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	// Rating is the running mean of user_to_user reviews received as a
	// lender; TotalRatings is the sample count behind it. The pair is
	// only ever advanced together with a compare-and-swap on
	// TotalRatings.
	Rating       float64   `bson:"rating" json:"rating"`
	TotalRatings int       `bson:"total_ratings" json:"total_ratings"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// NextRating folds one new rating into a running mean.
func NextRating(mean float64, count int, rating int) float64 {
	return (mean*float64(count) + float64(rating)) / float64(count+1)
}
