package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/peerlend/api/internal/apperr"
	"github.com/peerlend/api/internal/locks"
	"github.com/peerlend/api/internal/metrics"
	"github.com/peerlend/api/internal/models"
)

type ReviewService struct {
	reviewsRepo  models.ReviewsRepo
	bookingsRepo models.BookingsRepo
	usersRepo    models.UsersRepo
	locker       locks.Locker
	logger       *slog.Logger
}

func NewReviewService(reviewsRepo models.ReviewsRepo, bookingsRepo models.BookingsRepo, usersRepo models.UsersRepo, locker locks.Locker, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		reviewsRepo:  reviewsRepo,
		bookingsRepo: bookingsRepo,
		usersRepo:    usersRepo,
		locker:       locker,
		logger:       logger,
	}
}

// ReviewRequest is the boundary shape of a review submission. ItemID is
// only consulted when the booking somehow carries none; the booking's
// own item reference is trusted first.
type ReviewRequest struct {
	BookingID uuid.UUID         `json:"booking_id"`
	Type      models.ReviewType `json:"type"`
	Rating    int               `json:"rating"`
	Comment   string            `json:"comment"`
	ItemID    uuid.UUID         `json:"item_id,omitempty"`
}

func (rs *ReviewService) CreateReview(ctx context.Context, reviewerID uuid.UUID, req ReviewRequest) (*models.Review, error) {
	if !req.Type.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("review type must be %s or %s", models.ReviewUserToUser, models.ReviewUserToItem))
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperr.Validation("rating must be an integer between 1 and 5")
	}

	booking, err := rs.bookingsRepo.GetBookingByID(ctx, req.BookingID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if booking == nil {
		return nil, apperr.NotFound("booking not found")
	}
	if booking.BorrowerID != reviewerID {
		return nil, apperr.Forbidden("only the booking's borrower can review it")
	}
	if booking.Status != models.BookingCompleted {
		return nil, apperr.Conflict("booking not completed")
	}

	exists, err := rs.reviewsRepo.ReviewExists(ctx, req.BookingID, reviewerID, req.Type)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if exists {
		return nil, apperr.Conflict(fmt.Sprintf("a %s review already exists for this booking", req.Type))
	}

	review := &models.Review{
		ReviewerID: reviewerID,
		Type:       req.Type,
		BookingID:  req.BookingID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}
	switch req.Type {
	case models.ReviewUserToUser:
		review.RevieweeID = booking.LenderID
	case models.ReviewUserToItem:
		review.ItemID = booking.ItemID
		if review.ItemID == uuid.Nil {
			review.ItemID = req.ItemID
		}
	}
	review.Sanitize()
	review.BeforeCreate()
	if err := review.ValidateReview(); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	if req.Type == models.ReviewUserToUser {
		return rs.createUserReview(ctx, review)
	}

	if err := rs.reviewsRepo.CreateReview(ctx, review); err != nil {
		if errors.Is(err, models.ErrDuplicateReview) {
			return nil, apperr.Conflict("a user_to_item review already exists for this booking")
		}
		return nil, apperr.Internal(err)
	}
	metrics.ReviewsCreated.Inc()
	return review, nil
}

// createUserReview persists the review and folds the rating into the
// lender's aggregate. Both steps run under the lender's lock so two
// concurrent submissions cannot interleave, and the aggregate itself is
// additionally guarded by the repository's compare-and-swap.
func (rs *ReviewService) createUserReview(ctx context.Context, review *models.Review) (*models.Review, error) {
	release, err := rs.locker.Acquire(ctx, "user:"+review.RevieweeID.String())
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to lock user %s: %w", review.RevieweeID, err))
	}
	defer release()

	if err := rs.reviewsRepo.CreateReview(ctx, review); err != nil {
		if errors.Is(err, models.ErrDuplicateReview) {
			return nil, apperr.Conflict("a user_to_user review already exists for this booking")
		}
		return nil, apperr.Internal(err)
	}

	if _, err := rs.usersRepo.ApplyRating(ctx, review.RevieweeID, review.Rating); err != nil {
		// The review is already persisted; the aggregate is repairable
		// from the review ledger, so surface the failure loudly but do
		// not roll the review back.
		rs.logger.Error("rating aggregate update failed",
			"reviewee_id", review.RevieweeID,
			"review_id", review.ID,
			"error", err,
		)
		return nil, apperr.Internal(err)
	}

	metrics.ReviewsCreated.Inc()
	rs.logger.Info("review created",
		"review_id", review.ID,
		"type", review.Type,
		"reviewee_id", review.RevieweeID,
	)
	return review, nil
}

func (rs *ReviewService) ListItemReviews(ctx context.Context, itemID uuid.UUID, page, limit int) ([]*models.Review, *models.ItemRatingSummary, int, error) {
	if itemID == uuid.Nil {
		return nil, nil, 0, apperr.Validation("invalid item ID")
	}
	reviews, total, err := rs.reviewsRepo.ListReviewsByItem(ctx, itemID, page, limit)
	if err != nil {
		return nil, nil, 0, apperr.Internal(err)
	}
	summary, err := rs.reviewsRepo.ItemRating(ctx, itemID)
	if err != nil {
		return nil, nil, 0, apperr.Internal(err)
	}
	return reviews, summary, total, nil
}

func (rs *ReviewService) ListUserReviews(ctx context.Context, userID uuid.UUID, page, limit int) ([]*models.Review, int, error) {
	if userID == uuid.Nil {
		return nil, 0, apperr.Validation("invalid user ID")
	}
	reviews, total, err := rs.reviewsRepo.ListReviewsByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return reviews, total, nil
}
