package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ReviewType string

const (
	ReviewUserToUser ReviewType = "user_to_user"
	ReviewUserToItem ReviewType = "user_to_item"
)

func (t ReviewType) Valid() bool {
	return t == ReviewUserToUser || t == ReviewUserToItem
}

const MaxReviewCommentLen = 500

type Review struct {
	ID         uuid.UUID  `bson:"id" json:"id"`
	ReviewerID uuid.UUID  `bson:"reviewer_id" json:"reviewer_id"`
	Type       ReviewType `bson:"type" json:"type"`
	// Exactly one of RevieweeID / ItemID is set, depending on Type.
	RevieweeID uuid.UUID `bson:"reviewee_id,omitempty" json:"reviewee_id,omitempty"`
	ItemID     uuid.UUID `bson:"item_id,omitempty" json:"item_id,omitempty"`
	BookingID  uuid.UUID `bson:"booking_id" json:"booking_id"`
	Rating     int       `bson:"rating" json:"rating" validate:"required,min=1,max=5"`
	Comment    string    `bson:"comment" json:"comment"`
	// Always true: reviews are only accepted against completed bookings.
	IsVerifiedPurchase bool      `bson:"is_verified_purchase" json:"is_verified_purchase"`
	CreatedAt          time.Time `bson:"created_at" json:"created_at"`
}

func (r *Review) BeforeCreate() {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.IsVerifiedPurchase = true
	r.CreatedAt = time.Now().UTC()
}

func (r *Review) Sanitize() {
	r.Comment = strings.TrimSpace(r.Comment)
}

func (r Review) ValidateReview() error {
	if !r.Type.Valid() {
		return fmt.Errorf("review type must be %s or %s", ReviewUserToUser, ReviewUserToItem)
	}
	if r.Rating < 1 || r.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}
	if strings.TrimSpace(r.Comment) == "" {
		return fmt.Errorf("comment is required")
	}
	if len(r.Comment) > MaxReviewCommentLen {
		return fmt.Errorf("comment must be at most %d characters", MaxReviewCommentLen)
	}
	if r.BookingID == uuid.Nil {
		return fmt.Errorf("booking ID is required")
	}
	if r.ReviewerID == uuid.Nil {
		return fmt.Errorf("invalid reviewer ID")
	}
	switch r.Type {
	case ReviewUserToUser:
		if r.RevieweeID == uuid.Nil {
			return fmt.Errorf("reviewee ID is required for %s reviews", ReviewUserToUser)
		}
	case ReviewUserToItem:
		if r.ItemID == uuid.Nil {
			return fmt.Errorf("item ID is required for %s reviews", ReviewUserToItem)
		}
	}
	return nil
}

// ItemRatingSummary is computed on read via aggregation; the average is
// never stored on the item.
type ItemRatingSummary struct {
	AverageRating float64 `bson:"average_rating" json:"average_rating"`
	TotalReviews  int     `bson:"total_reviews" json:"total_reviews"`
}
