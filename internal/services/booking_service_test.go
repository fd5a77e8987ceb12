package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/peerlend/api/internal/apperr"
	"github.com/peerlend/api/internal/locks"
	"github.com/peerlend/api/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// futureDay returns midnight UTC n days from now.
func futureDay(n int) time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour).Add(time.Duration(n) * 24 * time.Hour)
}

type bookingEnv struct {
	store    *fakeStore
	svc      *BookingService
	lenderID uuid.UUID
	item     *models.Item
}

func newBookingEnv(t *testing.T) *bookingEnv {
	t.Helper()
	store := newFakeStore()
	lenderID := uuid.New()
	item := &models.Item{
		ID:          uuid.New(),
		OwnerID:     lenderID,
		Title:       "Cordless drill",
		Description: "18V with two batteries",
		Category:    models.CategoryTools,
		PricePerDay: 20,
		Deposit:     50,
		Location:    models.NewGeoPoint(-0.1276, 51.5072),
		Images:      []string{"drill.jpg"},
		IsAvailable: true,
	}
	store.items[item.ID] = item

	svc := NewBookingService(store, store, locks.NewMutexLocker(), testLogger())
	return &bookingEnv{store: store, svc: svc, lenderID: lenderID, item: item}
}

func TestCreateBookingPricing(t *testing.T) {
	env := newBookingEnv(t)
	borrowerID := uuid.New()

	booking, err := env.svc.CreateBooking(context.Background(), borrowerID, env.item.ID, futureDay(10), futureDay(13))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.TotalDays != 3 {
		t.Errorf("TotalDays = %d, want 3", booking.TotalDays)
	}
	if booking.TotalAmount != 60 {
		t.Errorf("TotalAmount = %f, want 60", booking.TotalAmount)
	}
	if booking.DepositAmount != 50 {
		t.Errorf("DepositAmount = %f, want 50", booking.DepositAmount)
	}
	if booking.Status != models.BookingPending {
		t.Errorf("Status = %s, want pending", booking.Status)
	}
	if booking.PaymentStatus != models.PaymentPending {
		t.Errorf("PaymentStatus = %s, want pending", booking.PaymentStatus)
	}
	if booking.LenderID != env.lenderID {
		t.Error("LenderID must be frozen from the item owner")
	}
	if !strings.HasPrefix(booking.TransactionID, "TXN-") {
		t.Errorf("TransactionID = %q, want TXN- prefix", booking.TransactionID)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	env := newBookingEnv(t)
	borrowerID := uuid.New()
	ctx := context.Background()

	_, err := env.svc.CreateBooking(ctx, borrowerID, env.item.ID, futureDay(5), futureDay(5))
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("start == end: got %v, want validation error", err)
	}

	_, err = env.svc.CreateBooking(ctx, borrowerID, env.item.ID, futureDay(7), futureDay(5))
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("start > end: got %v, want validation error", err)
	}

	_, err = env.svc.CreateBooking(ctx, borrowerID, env.item.ID, futureDay(-3), futureDay(5))
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("past start: got %v, want validation error", err)
	}

	_, err = env.svc.CreateBooking(ctx, borrowerID, uuid.New(), futureDay(5), futureDay(7))
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("unknown item: got %v, want not found", err)
	}

	env.store.items[env.item.ID].IsAvailable = false
	_, err = env.svc.CreateBooking(ctx, borrowerID, env.item.ID, futureDay(5), futureDay(7))
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("unavailable item: got %v, want not found", err)
	}
	env.store.items[env.item.ID].IsAvailable = true

	_, err = env.svc.CreateBooking(ctx, env.lenderID, env.item.ID, futureDay(5), futureDay(7))
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("own item: got %v, want validation error", err)
	}
}

func TestCreateBookingOverlap(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()

	// Booking A holds [day5, day10) as confirmed.
	a, err := env.svc.CreateBooking(ctx, uuid.New(), env.item.ID, futureDay(5), futureDay(10))
	if err != nil {
		t.Fatalf("booking A failed: %v", err)
	}
	env.store.bookings[a.ID].Status = models.BookingConfirmed

	// B overlaps at [day8, day10) and must be rejected.
	_, err = env.svc.CreateBooking(ctx, uuid.New(), env.item.ID, futureDay(8), futureDay(12))
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("overlapping booking: got %v, want conflict", err)
	}

	// C touches the boundary at day10 and must be accepted.
	if _, err := env.svc.CreateBooking(ctx, uuid.New(), env.item.ID, futureDay(10), futureDay(12)); err != nil {
		t.Errorf("touching booking rejected: %v", err)
	}

	// A cancelled booking leaves the overlap set.
	d, err := env.svc.CreateBooking(ctx, uuid.New(), env.item.ID, futureDay(20), futureDay(25))
	if err != nil {
		t.Fatalf("booking D failed: %v", err)
	}
	env.store.bookings[d.ID].Status = models.BookingCancelled
	if _, err := env.svc.CreateBooking(ctx, uuid.New(), env.item.ID, futureDay(20), futureDay(25)); err != nil {
		t.Errorf("window held by cancelled booking should be free: %v", err)
	}
}

func TestConcurrentCreateBooking(t *testing.T) {
	env := newBookingEnv(t)
	const n = 16

	var wg sync.WaitGroup
	results := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := env.svc.CreateBooking(context.Background(), uuid.New(), env.item.ID, futureDay(5), futureDay(10))
			results[i] = err
		}(i)
	}
	wg.Wait()

	successes, conflicts := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case apperr.KindOf(err) == apperr.KindConflict:
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("successes = %d, want exactly 1", successes)
	}
	if conflicts != n-1 {
		t.Errorf("conflicts = %d, want %d", conflicts, n-1)
	}
}

func TestUpdateStatus(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()
	borrowerID := uuid.New()

	booking, err := env.svc.CreateBooking(ctx, borrowerID, env.item.ID, futureDay(5), futureDay(10))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Only the lender may drive the state machine.
	_, err = env.svc.UpdateStatus(ctx, booking.ID, borrowerID, models.BookingConfirmed)
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("borrower status update: got %v, want forbidden", err)
	}

	// Confirming before payment is a joint-state violation.
	_, err = env.svc.UpdateStatus(ctx, booking.ID, env.lenderID, models.BookingConfirmed)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("confirm before payment: got %v, want conflict", err)
	}

	if _, err := env.svc.UpdatePaymentStatus(ctx, booking.ID, models.PaymentPaid); err != nil {
		t.Fatalf("payment update failed: %v", err)
	}

	// Skipping states is not allowed.
	_, err = env.svc.UpdateStatus(ctx, booking.ID, env.lenderID, models.BookingCompleted)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("pending -> completed: got %v, want conflict", err)
	}

	for _, next := range []models.BookingStatus{models.BookingConfirmed, models.BookingOngoing, models.BookingCompleted} {
		updated, err := env.svc.UpdateStatus(ctx, booking.ID, env.lenderID, next)
		if err != nil {
			t.Fatalf("transition to %s failed: %v", next, err)
		}
		if updated.Status != next {
			t.Errorf("status = %s, want %s", updated.Status, next)
		}
	}

	// No transition leaves completed.
	for _, next := range []models.BookingStatus{models.BookingPending, models.BookingConfirmed, models.BookingOngoing} {
		_, err := env.svc.UpdateStatus(ctx, booking.ID, env.lenderID, next)
		if apperr.KindOf(err) != apperr.KindConflict {
			t.Errorf("completed -> %s: got %v, want conflict", next, err)
		}
	}
}

func TestCancelBooking(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()
	borrowerID := uuid.New()

	booking, err := env.svc.CreateBooking(ctx, borrowerID, env.item.ID, futureDay(5), futureDay(10))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Neither the lender nor a stranger may cancel.
	for _, caller := range []uuid.UUID{env.lenderID, uuid.New()} {
		_, err := env.svc.CancelBooking(ctx, booking.ID, caller, "changed my mind")
		if apperr.KindOf(err) != apperr.KindForbidden {
			t.Errorf("cancel by non-borrower: got %v, want forbidden", err)
		}
	}

	cancelled, err := env.svc.CancelBooking(ctx, booking.ID, borrowerID, "found a cheaper one")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != models.BookingCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
	if cancelled.CancellationReason != "found a cheaper one" {
		t.Errorf("reason = %q", cancelled.CancellationReason)
	}
	if cancelled.CancelledAt == nil {
		t.Error("CancelledAt not set")
	}

	// Cancelling twice is a conflict.
	_, err = env.svc.CancelBooking(ctx, booking.ID, borrowerID, "again")
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("double cancel: got %v, want conflict", err)
	}
}

func TestUpdatePaymentStatus(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()

	booking, err := env.svc.CreateBooking(ctx, uuid.New(), env.item.ID, futureDay(5), futureDay(10))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := env.svc.UpdatePaymentStatus(ctx, booking.ID, models.PaymentDepositHeld); err != nil {
		t.Fatalf("pending -> deposit_held failed: %v", err)
	}

	// deposit_refunded is not reachable while the booking is pending.
	_, err = env.svc.UpdatePaymentStatus(ctx, booking.ID, models.PaymentDepositRefunded)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("deposit refund on pending booking: got %v, want conflict", err)
	}

	// Walk the booking to completed, then the deposit can be released.
	for _, next := range []models.BookingStatus{models.BookingConfirmed, models.BookingOngoing, models.BookingCompleted} {
		if _, err := env.svc.UpdateStatus(ctx, booking.ID, env.lenderID, next); err != nil {
			t.Fatalf("transition to %s failed: %v", next, err)
		}
	}
	updated, err := env.svc.UpdatePaymentStatus(ctx, booking.ID, models.PaymentDepositRefunded)
	if err != nil {
		t.Fatalf("deposit refund on completed booking failed: %v", err)
	}
	if updated.PaymentStatus != models.PaymentDepositRefunded {
		t.Errorf("payment = %s, want deposit_refunded", updated.PaymentStatus)
	}

	_, err = env.svc.UpdatePaymentStatus(ctx, uuid.New(), models.PaymentPaid)
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("unknown booking: got %v, want not found", err)
	}
}

func TestGetBookingAccess(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()
	borrowerID := uuid.New()

	booking, err := env.svc.CreateBooking(ctx, borrowerID, env.item.ID, futureDay(5), futureDay(10))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	for _, party := range []uuid.UUID{borrowerID, env.lenderID} {
		if _, err := env.svc.GetBooking(ctx, booking.ID, party); err != nil {
			t.Errorf("party %s denied: %v", party, err)
		}
	}

	_, err = env.svc.GetBooking(ctx, booking.ID, uuid.New())
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("stranger access: got %v, want forbidden", err)
	}

	_, err = env.svc.GetBooking(ctx, uuid.New(), borrowerID)
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("unknown booking: got %v, want not found", err)
	}
}

func TestListMyBookings(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()
	borrowerID := uuid.New()

	if _, err := env.svc.CreateBooking(ctx, borrowerID, env.item.ID, futureDay(5), futureDay(10)); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := env.svc.CreateBooking(ctx, borrowerID, env.item.ID, futureDay(10), futureDay(15)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	asBorrower, total, err := env.svc.ListMyBookings(ctx, borrowerID, models.BookingRoleBorrower, "", 1, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 || len(asBorrower) != 2 {
		t.Errorf("borrower list = %d/%d, want 2/2", len(asBorrower), total)
	}

	_, total, err = env.svc.ListMyBookings(ctx, env.lenderID, models.BookingRoleLender, "", 1, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 {
		t.Errorf("lender total = %d, want 2", total)
	}

	_, total, err = env.svc.ListMyBookings(ctx, borrowerID, models.BookingRoleLender, "", 1, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 0 {
		t.Errorf("borrower-as-lender total = %d, want 0", total)
	}

	_, _, err = env.svc.ListMyBookings(ctx, borrowerID, models.BookingRole("owner"), "", 1, 10)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("bad role: got %v, want validation error", err)
	}
}
