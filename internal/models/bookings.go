package models

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingOngoing   BookingStatus = "ongoing"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
	BookingDisputed  BookingStatus = "disputed"
)

type PaymentStatus string

const (
	PaymentPending         PaymentStatus = "pending"
	PaymentPaid            PaymentStatus = "paid"
	PaymentRefunded        PaymentStatus = "refunded"
	PaymentDepositHeld     PaymentStatus = "deposit_held"
	PaymentDepositRefunded PaymentStatus = "deposit_refunded"
	PaymentFailed          PaymentStatus = "failed"
)

// ActiveBookingStatuses are the statuses that hold a time window on an
// item and participate in the overlap check.
var ActiveBookingStatuses = []BookingStatus{BookingPending, BookingConfirmed, BookingOngoing}

func (s BookingStatus) Active() bool {
	for _, a := range ActiveBookingStatuses {
		if s == a {
			return true
		}
	}
	return false
}

// Terminal reports whether s has no outgoing transitions.
func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

// statusTransitions is the lender-driven forward path. Cancellation and
// disputes are not lender moves and are handled separately.
var statusTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed},
	BookingConfirmed: {BookingOngoing},
	BookingOngoing:   {BookingCompleted},
}

// CanTransitionTo reports whether a lender may move a booking from s to next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// paymentStates lists the payment statuses a booking may carry in each
// booking status. The payment gateway only reports events; it does not
// get to put a booking into a nonsensical joint state.
var paymentStates = map[BookingStatus]map[PaymentStatus]bool{
	BookingPending:   {PaymentPending: true, PaymentPaid: true, PaymentDepositHeld: true, PaymentFailed: true},
	BookingConfirmed: {PaymentPaid: true, PaymentDepositHeld: true},
	BookingOngoing:   {PaymentPaid: true, PaymentDepositHeld: true},
	BookingCompleted: {PaymentPaid: true, PaymentDepositHeld: true, PaymentDepositRefunded: true},
	BookingCancelled: {PaymentPending: true, PaymentFailed: true, PaymentRefunded: true, PaymentDepositRefunded: true},
	BookingDisputed:  {PaymentPaid: true, PaymentDepositHeld: true},
}

// PaymentAllowed reports whether a booking in status s may carry payment
// status p.
func PaymentAllowed(s BookingStatus, p PaymentStatus) bool {
	return paymentStates[s][p]
}

// paymentTransitions are the legal moves of the payment field itself,
// independent of booking status.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:     {PaymentPaid, PaymentDepositHeld, PaymentFailed},
	PaymentPaid:        {PaymentDepositHeld, PaymentRefunded},
	PaymentDepositHeld: {PaymentDepositRefunded, PaymentRefunded},
	PaymentFailed:      {PaymentPaid, PaymentDepositHeld},
}

func PaymentCanTransition(from, to PaymentStatus) bool {
	for _, allowed := range paymentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// WindowsOverlap is the half-open interval test used everywhere two
// booking windows are compared: touching boundaries do not overlap.
func WindowsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

type Booking struct {
	ID         uuid.UUID `bson:"id" json:"id"`
	ItemID     uuid.UUID `bson:"item_id" json:"item_id"`
	BorrowerID uuid.UUID `bson:"borrower_id" json:"borrower_id"`
	// LenderID is frozen from the item's owner at creation time and is
	// never re-read from the item afterwards.
	LenderID  uuid.UUID `bson:"lender_id" json:"lender_id"`
	StartDate time.Time `bson:"start_date" json:"start_date"`
	EndDate   time.Time `bson:"end_date" json:"end_date"`
	TotalDays int       `bson:"total_days" json:"total_days"`
	// TotalAmount and DepositAmount are a snapshot of the item's pricing
	// at creation time, frozen for the life of the booking.
	TotalAmount        float64       `bson:"total_amount" json:"total_amount"`
	DepositAmount      float64       `bson:"deposit_amount" json:"deposit_amount"`
	Status             BookingStatus `bson:"status" json:"status"`
	PaymentStatus      PaymentStatus `bson:"payment_status" json:"payment_status"`
	TransactionID      string        `bson:"transaction_id" json:"transaction_id"`
	CancellationReason string        `bson:"cancellation_reason,omitempty" json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time    `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`
	CreatedAt          time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time     `bson:"updated_at" json:"updated_at"`
}

// IsParty reports whether userID is one of the two sides of the booking.
func (b *Booking) IsParty(userID uuid.UUID) bool {
	return b.BorrowerID == userID || b.LenderID == userID
}

// TotalDaysFor computes the billed day count of a half-open window,
// rounding partial days up.
func TotalDaysFor(start, end time.Time) int {
	hours := end.Sub(start).Hours()
	days := int(hours / 24)
	if hours > float64(days)*24 {
		days++
	}
	return days
}
