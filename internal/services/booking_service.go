package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/peerlend/api/internal/apperr"
	"github.com/peerlend/api/internal/helpers"
	"github.com/peerlend/api/internal/locks"
	"github.com/peerlend/api/internal/metrics"
	"github.com/peerlend/api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

type BookingService struct {
	bookingsRepo models.BookingsRepo
	itemsRepo    models.ItemsRepo
	locker       locks.Locker
	logger       *slog.Logger
}

func NewBookingService(bookingsRepo models.BookingsRepo, itemsRepo models.ItemsRepo, locker locks.Locker, logger *slog.Logger) *BookingService {
	return &BookingService{
		bookingsRepo: bookingsRepo,
		itemsRepo:    itemsRepo,
		locker:       locker,
		logger:       logger,
	}
}

func itemLockKey(id uuid.UUID) string    { return "item:" + id.String() }
func bookingLockKey(id uuid.UUID) string { return "booking:" + id.String() }

// CreateBooking reserves [startDate, endDate) on an item for a borrower.
// The overlap check and the insert run under a per-item lock so that of
// N concurrent requests for intersecting windows exactly one wins.
func (bs *BookingService) CreateBooking(ctx context.Context, borrowerID, itemID uuid.UUID, startDate, endDate time.Time) (*models.Booking, error) {
	if itemID == uuid.Nil {
		return nil, apperr.Validation("invalid item ID")
	}
	if !startDate.Before(endDate) {
		return nil, apperr.Validation("start date must be before end date")
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if startDate.Before(today) {
		return nil, apperr.Validation("start date must not be in the past")
	}

	item, err := bs.itemsRepo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if item == nil || !item.IsAvailable {
		return nil, apperr.NotFound("item not found or not available")
	}
	if item.OwnerID == borrowerID {
		return nil, apperr.Validation("you cannot book your own item")
	}

	release, err := bs.locker.Acquire(ctx, itemLockKey(itemID))
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to lock item %s: %w", itemID, err))
	}
	defer release()

	overlapping, err := bs.bookingsRepo.FindOverlapping(ctx, itemID, startDate, endDate)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if len(overlapping) > 0 {
		metrics.BookingConflicts.Inc()
		return nil, apperr.Conflict("item not available for selected dates")
	}

	now := time.Now().UTC()
	totalDays := models.TotalDaysFor(startDate, endDate)
	booking := &models.Booking{
		ID:            uuid.New(),
		ItemID:        itemID,
		BorrowerID:    borrowerID,
		LenderID:      item.OwnerID,
		StartDate:     startDate,
		EndDate:       endDate,
		TotalDays:     totalDays,
		TotalAmount:   float64(totalDays) * item.PricePerDay,
		DepositAmount: item.Deposit,
		Status:        models.BookingPending,
		PaymentStatus: models.PaymentPending,
		TransactionID: helpers.NewTransactionRef(now),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := bs.bookingsRepo.CreateBooking(ctx, booking); err != nil {
		return nil, apperr.Internal(err)
	}

	metrics.BookingsCreated.Inc()
	bs.logger.Info("booking created",
		"booking_id", booking.ID,
		"item_id", itemID,
		"borrower_id", borrowerID,
		"transaction_id", booking.TransactionID,
	)
	return booking, nil
}

func (bs *BookingService) GetBooking(ctx context.Context, bookingID, requesterID uuid.UUID) (*models.Booking, error) {
	booking, err := bs.bookingsRepo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if booking == nil {
		return nil, apperr.NotFound("booking not found")
	}
	if !booking.IsParty(requesterID) {
		return nil, apperr.Forbidden("you are not a party to this booking")
	}
	return booking, nil
}

func (bs *BookingService) ListMyBookings(ctx context.Context, userID uuid.UUID, role models.BookingRole, status models.BookingStatus, page, limit int) ([]*models.Booking, int, error) {
	if userID == uuid.Nil {
		return nil, 0, apperr.Validation("invalid user ID")
	}
	switch role {
	case models.BookingRoleBorrower, models.BookingRoleLender, models.BookingRoleAll:
	default:
		return nil, 0, apperr.Validation("type must be borrower, lender or all")
	}
	bookings, total, err := bs.bookingsRepo.ListBookingsByUser(ctx, userID, role, status, page, limit)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return bookings, total, nil
}

// UpdateStatus advances a booking along the lender-driven path. The
// per-booking lock serializes it against a concurrent cancellation.
func (bs *BookingService) UpdateStatus(ctx context.Context, bookingID, lenderID uuid.UUID, newStatus models.BookingStatus) (*models.Booking, error) {
	release, err := bs.locker.Acquire(ctx, bookingLockKey(bookingID))
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to lock booking %s: %w", bookingID, err))
	}
	defer release()

	booking, err := bs.bookingsRepo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if booking == nil {
		return nil, apperr.NotFound("booking not found")
	}
	if booking.LenderID != lenderID {
		return nil, apperr.Forbidden("only the lender can update the booking status")
	}
	if !booking.Status.CanTransitionTo(newStatus) {
		return nil, apperr.Conflict(fmt.Sprintf("cannot move booking from %s to %s", booking.Status, newStatus))
	}
	if newStatus == models.BookingConfirmed && !models.PaymentAllowed(models.BookingConfirmed, booking.PaymentStatus) {
		return nil, apperr.Conflict("booking cannot be confirmed before payment")
	}

	updated, err := bs.bookingsRepo.TransitionStatus(ctx, bookingID, booking.Status, newStatus, nil)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if updated == nil {
		// Status changed underneath us despite the lock (e.g. another
		// instance without a shared locker); report it as a conflict.
		return nil, apperr.Conflict("booking status changed concurrently")
	}

	if newStatus == models.BookingCompleted {
		metrics.BookingsCompleted.Inc()
	}
	bs.logger.Info("booking status updated",
		"booking_id", bookingID,
		"from", booking.Status,
		"to", newStatus,
	)
	return updated, nil
}

// CancelBooking is borrower-initiated and allowed from any active state.
func (bs *BookingService) CancelBooking(ctx context.Context, bookingID, borrowerID uuid.UUID, reason string) (*models.Booking, error) {
	release, err := bs.locker.Acquire(ctx, bookingLockKey(bookingID))
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to lock booking %s: %w", bookingID, err))
	}
	defer release()

	booking, err := bs.bookingsRepo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if booking == nil {
		return nil, apperr.NotFound("booking not found")
	}
	if booking.BorrowerID != borrowerID {
		return nil, apperr.Forbidden("only the borrower can cancel the booking")
	}
	if booking.Status.Terminal() {
		return nil, apperr.Conflict(fmt.Sprintf("booking is already %s", booking.Status))
	}

	now := time.Now().UTC()
	updated, err := bs.bookingsRepo.TransitionStatus(ctx, bookingID, booking.Status, models.BookingCancelled, bson.M{
		"cancellation_reason": reason,
		"cancelled_at":        now,
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if updated == nil {
		return nil, apperr.Conflict("booking status changed concurrently")
	}

	metrics.BookingsCancelled.Inc()
	bs.logger.Info("booking cancelled", "booking_id", bookingID, "reason", reason)
	return updated, nil
}

// UpdatePaymentStatus is the surface the payment collaborator reports
// into. Both the payment transition itself and the joint state with the
// booking status are checked against the state tables.
func (bs *BookingService) UpdatePaymentStatus(ctx context.Context, bookingID uuid.UUID, newPayment models.PaymentStatus) (*models.Booking, error) {
	release, err := bs.locker.Acquire(ctx, bookingLockKey(bookingID))
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to lock booking %s: %w", bookingID, err))
	}
	defer release()

	booking, err := bs.bookingsRepo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if booking == nil {
		return nil, apperr.NotFound("booking not found")
	}
	if !models.PaymentCanTransition(booking.PaymentStatus, newPayment) {
		return nil, apperr.Conflict(fmt.Sprintf("payment cannot move from %s to %s", booking.PaymentStatus, newPayment))
	}
	if !models.PaymentAllowed(booking.Status, newPayment) {
		return nil, apperr.Conflict(fmt.Sprintf("payment status %s is not valid for a %s booking", newPayment, booking.Status))
	}

	updated, err := bs.bookingsRepo.TransitionPayment(ctx, bookingID, booking.Status, booking.PaymentStatus, newPayment)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if updated == nil {
		return nil, apperr.Conflict("booking changed concurrently")
	}

	bs.logger.Info("payment status updated",
		"booking_id", bookingID,
		"from", booking.PaymentStatus,
		"to", newPayment,
	)
	return updated, nil
}
