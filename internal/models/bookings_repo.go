package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BookingRole selects which side of a booking a listing query matches.
type BookingRole string

const (
	BookingRoleBorrower BookingRole = "borrower"
	BookingRoleLender   BookingRole = "lender"
	BookingRoleAll      BookingRole = "all"
)

type BookingsRepo interface {
	CreateBooking(ctx context.Context, booking *Booking) error
	GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	FindOverlapping(ctx context.Context, itemID uuid.UUID, start, end time.Time) ([]*Booking, error)
	ListBookingsByUser(ctx context.Context, userID uuid.UUID, role BookingRole, status BookingStatus, page, limit int) ([]*Booking, int, error)
	CountActiveByItem(ctx context.Context, itemID uuid.UUID) (int, error)
	// TransitionStatus atomically moves a booking from one status to
	// another; it returns the updated booking, or nil when the booking
	// is no longer in the expected status.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to BookingStatus, extra bson.M) (*Booking, error)
	// TransitionPayment does the same compare-and-set on the payment
	// field, additionally pinned to the current booking status.
	TransitionPayment(ctx context.Context, id uuid.UUID, bookingStatus BookingStatus, from, to PaymentStatus) (*Booking, error)
}

func (mdb *MongodbRepo) CreateBooking(ctx context.Context, booking *Booking) error {
	col, err := mdb.GetCollection(ctx, BookingsCollection)
	if err != nil {
		return err
	}
	if _, err := col.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	col, err := mdb.GetCollection(ctx, BookingsCollection)
	if err != nil {
		return nil, err
	}
	var booking Booking
	if err := col.FindOne(ctx, bson.M{"id": id}).Decode(&booking); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

// FindOverlapping returns the active bookings on itemID whose half-open
// [start_date, end_date) window intersects [start, end).
func (mdb *MongodbRepo) FindOverlapping(ctx context.Context, itemID uuid.UUID, start, end time.Time) ([]*Booking, error) {
	col, err := mdb.GetCollection(ctx, BookingsCollection)
	if err != nil {
		return nil, err
	}
	query := bson.M{
		"item_id":    itemID,
		"status":     bson.M{"$in": ActiveBookingStatuses},
		"start_date": bson.M{"$lt": end},
		"end_date":   bson.M{"$gt": start},
	}
	cursor, err := col.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query overlapping bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []*Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (mdb *MongodbRepo) ListBookingsByUser(ctx context.Context, userID uuid.UUID, role BookingRole, status BookingStatus, page, limit int) ([]*Booking, int, error) {
	col, err := mdb.GetCollection(ctx, BookingsCollection)
	if err != nil {
		return nil, 0, err
	}

	var query bson.M
	switch role {
	case BookingRoleBorrower:
		query = bson.M{"borrower_id": userID}
	case BookingRoleLender:
		query = bson.M{"lender_id": userID}
	default:
		query = bson.M{"$or": bson.A{
			bson.M{"borrower_id": userID},
			bson.M{"lender_id": userID},
		}}
	}
	if status != "" {
		query["status"] = status
	}

	total, err := col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []*Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, 0, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, int(total), nil
}

func (mdb *MongodbRepo) CountActiveByItem(ctx context.Context, itemID uuid.UUID) (int, error) {
	col, err := mdb.GetCollection(ctx, BookingsCollection)
	if err != nil {
		return 0, err
	}
	count, err := col.CountDocuments(ctx, bson.M{
		"item_id": itemID,
		"status":  bson.M{"$in": ActiveBookingStatuses},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count active bookings: %w", err)
	}
	return int(count), nil
}

func (mdb *MongodbRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to BookingStatus, extra bson.M) (*Booking, error) {
	col, err := mdb.GetCollection(ctx, BookingsCollection)
	if err != nil {
		return nil, err
	}
	set := bson.M{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	for k, v := range extra {
		set[k] = v
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated Booking
	err = col.FindOneAndUpdate(ctx,
		bson.M{"id": id, "status": from},
		bson.M{"$set": set},
		opts,
	).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to transition booking status: %w", err)
	}
	return &updated, nil
}

func (mdb *MongodbRepo) TransitionPayment(ctx context.Context, id uuid.UUID, bookingStatus BookingStatus, from, to PaymentStatus) (*Booking, error) {
	col, err := mdb.GetCollection(ctx, BookingsCollection)
	if err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated Booking
	err = col.FindOneAndUpdate(ctx,
		bson.M{"id": id, "status": bookingStatus, "payment_status": from},
		bson.M{"$set": bson.M{"payment_status": to, "updated_at": time.Now().UTC()}},
		opts,
	).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to transition payment status: %w", err)
	}
	return &updated, nil
}
