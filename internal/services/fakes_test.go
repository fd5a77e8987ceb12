package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/peerlend/api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

// fakeStore is an in-memory stand-in for the Mongo repositories. All
// methods take the store mutex so the concurrency tests exercise the
// services' locking, not data races in the fake.
type fakeStore struct {
	mu       sync.Mutex
	items    map[uuid.UUID]*models.Item
	bookings map[uuid.UUID]*models.Booking
	reviews  []*models.Review
	users    map[uuid.UUID]*models.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		items:    make(map[uuid.UUID]*models.Item),
		bookings: make(map[uuid.UUID]*models.Booking),
		users:    make(map[uuid.UUID]*models.User),
	}
}

// --- ItemsRepo ---

func (f *fakeStore) CreateItem(ctx context.Context, item *models.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *item
	f.items[item.ID] = &cp
	return nil
}

func (f *fakeStore) GetItemByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	cp := *item
	return &cp, nil
}

func (f *fakeStore) ListItems(ctx context.Context, filters models.ItemFilters) ([]*models.Item, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matched := []*models.Item{}
	for _, item := range f.items {
		if !item.IsAvailable {
			continue
		}
		if filters.Category != "" && string(item.Category) != filters.Category {
			continue
		}
		if filters.MinPrice != nil && item.PricePerDay < *filters.MinPrice {
			continue
		}
		if filters.MaxPrice != nil && item.PricePerDay > *filters.MaxPrice {
			continue
		}
		if filters.Search != "" {
			s := strings.ToLower(filters.Search)
			if !strings.Contains(strings.ToLower(item.Title), s) &&
				!strings.Contains(strings.ToLower(item.Description), s) {
				continue
			}
		}
		if filters.Lat != nil && filters.Lng != nil && filters.MaxDistance != nil {
			dist := models.HaversineMeters(item.Location, models.NewGeoPoint(*filters.Lng, *filters.Lat))
			if dist > *filters.MaxDistance {
				continue
			}
		}
		if filters.StartDate != nil && filters.EndDate != nil {
			covered := false
			for _, w := range item.Availability {
				if w.Overlaps(*filters.StartDate, *filters.EndDate) {
					covered = true
					break
				}
			}
			if !covered {
				continue
			}
		}
		cp := *item
		matched = append(matched, &cp)
	}
	return paginate(matched, filters.Page, filters.Limit), len(matched), nil
}

func (f *fakeStore) ListItemsByOwner(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]*models.Item, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matched := []*models.Item{}
	for _, item := range f.items {
		if item.OwnerID == ownerID {
			cp := *item
			matched = append(matched, &cp)
		}
	}
	return paginate(matched, page, limit), len(matched), nil
}

func (f *fakeStore) UpdateItem(ctx context.Context, id uuid.UUID, set bson.M, pushImages []string) (*models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	for k, v := range set {
		switch k {
		case "title":
			item.Title = v.(string)
		case "description":
			item.Description = v.(string)
		case "category":
			item.Category = v.(models.ItemCategory)
		case "price_per_day":
			item.PricePerDay = v.(float64)
		case "deposit":
			item.Deposit = v.(float64)
		case "availability":
			item.Availability = v.([]models.DateWindow)
		case "location":
			item.Location = v.(models.GeoPoint)
		case "address":
			item.Address = v.(string)
		case "condition":
			item.Condition = v.(string)
		case "is_available":
			item.IsAvailable = v.(bool)
		case "updated_at":
			item.UpdatedAt = v.(time.Time)
		}
	}
	item.Images = append(item.Images, pushImages...)
	cp := *item
	return &cp, nil
}

func (f *fakeStore) DeleteItem(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	return nil
}

// --- BookingsRepo ---

func (f *fakeStore) CreateBooking(ctx context.Context, booking *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *booking
	f.bookings[booking.ID] = &cp
	return nil
}

func (f *fakeStore) GetBookingByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *booking
	return &cp, nil
}

func (f *fakeStore) FindOverlapping(ctx context.Context, itemID uuid.UUID, start, end time.Time) ([]*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matched := []*models.Booking{}
	for _, b := range f.bookings {
		if b.ItemID != itemID || !b.Status.Active() {
			continue
		}
		if models.WindowsOverlap(b.StartDate, b.EndDate, start, end) {
			cp := *b
			matched = append(matched, &cp)
		}
	}
	return matched, nil
}

func (f *fakeStore) ListBookingsByUser(ctx context.Context, userID uuid.UUID, role models.BookingRole, status models.BookingStatus, page, limit int) ([]*models.Booking, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matched := []*models.Booking{}
	for _, b := range f.bookings {
		switch role {
		case models.BookingRoleBorrower:
			if b.BorrowerID != userID {
				continue
			}
		case models.BookingRoleLender:
			if b.LenderID != userID {
				continue
			}
		default:
			if b.BorrowerID != userID && b.LenderID != userID {
				continue
			}
		}
		if status != "" && b.Status != status {
			continue
		}
		cp := *b
		matched = append(matched, &cp)
	}
	return paginate(matched, page, limit), len(matched), nil
}

func (f *fakeStore) CountActiveByItem(ctx context.Context, itemID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, b := range f.bookings {
		if b.ItemID == itemID && b.Status.Active() {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.BookingStatus, extra bson.M) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok || booking.Status != from {
		return nil, nil
	}
	booking.Status = to
	booking.UpdatedAt = time.Now().UTC()
	if reason, ok := extra["cancellation_reason"].(string); ok {
		booking.CancellationReason = reason
	}
	if at, ok := extra["cancelled_at"].(time.Time); ok {
		booking.CancelledAt = &at
	}
	cp := *booking
	return &cp, nil
}

func (f *fakeStore) TransitionPayment(ctx context.Context, id uuid.UUID, bookingStatus models.BookingStatus, from, to models.PaymentStatus) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok || booking.Status != bookingStatus || booking.PaymentStatus != from {
		return nil, nil
	}
	booking.PaymentStatus = to
	booking.UpdatedAt = time.Now().UTC()
	cp := *booking
	return &cp, nil
}

// --- ReviewsRepo ---

func (f *fakeStore) CreateReview(ctx context.Context, review *models.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reviews {
		if r.BookingID == review.BookingID && r.ReviewerID == review.ReviewerID && r.Type == review.Type {
			return models.ErrDuplicateReview
		}
	}
	cp := *review
	f.reviews = append(f.reviews, &cp)
	return nil
}

func (f *fakeStore) ReviewExists(ctx context.Context, bookingID, reviewerID uuid.UUID, reviewType models.ReviewType) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reviews {
		if r.BookingID == bookingID && r.ReviewerID == reviewerID && r.Type == reviewType {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListReviewsByItem(ctx context.Context, itemID uuid.UUID, page, limit int) ([]*models.Review, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matched := []*models.Review{}
	for _, r := range f.reviews {
		if r.ItemID == itemID && r.Type == models.ReviewUserToItem {
			cp := *r
			matched = append(matched, &cp)
		}
	}
	return paginate(matched, page, limit), len(matched), nil
}

func (f *fakeStore) ListReviewsByUser(ctx context.Context, revieweeID uuid.UUID, page, limit int) ([]*models.Review, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matched := []*models.Review{}
	for _, r := range f.reviews {
		if r.RevieweeID == revieweeID && r.Type == models.ReviewUserToUser {
			cp := *r
			matched = append(matched, &cp)
		}
	}
	return paginate(matched, page, limit), len(matched), nil
}

func (f *fakeStore) ItemRating(ctx context.Context, itemID uuid.UUID) (*models.ItemRatingSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum, count := 0, 0
	for _, r := range f.reviews {
		if r.ItemID == itemID && r.Type == models.ReviewUserToItem {
			sum += r.Rating
			count++
		}
	}
	summary := &models.ItemRatingSummary{TotalReviews: count}
	if count > 0 {
		summary.AverageRating = float64(sum) / float64(count)
	}
	return summary, nil
}

// --- UsersRepo ---

func (f *fakeStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

func (f *fakeStore) ApplyRating(ctx context.Context, userID uuid.UUID, rating int) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, nil
	}
	user.Rating = models.NextRating(user.Rating, user.TotalRatings, rating)
	user.TotalRatings++
	cp := *user
	return &cp, nil
}

func paginate[T any](in []*T, page, limit int) []*T {
	if limit <= 0 {
		return in
	}
	start := (page - 1) * limit
	if start >= len(in) {
		return []*T{}
	}
	end := start + limit
	if end > len(in) {
		end = len(in)
	}
	return in[start:end]
}
