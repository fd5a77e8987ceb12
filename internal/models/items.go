package models

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

type ItemCategory string

const (
	CategoryElectronics ItemCategory = "electronics"
	CategoryTools       ItemCategory = "tools"
	CategoryOutdoor     ItemCategory = "outdoor"
	CategoryVehicles    ItemCategory = "vehicles"
	CategoryHome        ItemCategory = "home"
	CategorySports      ItemCategory = "sports"
	CategoryClothing    ItemCategory = "clothing"
	CategoryOther       ItemCategory = "other"
)

var itemCategories = map[ItemCategory]bool{
	CategoryElectronics: true,
	CategoryTools:       true,
	CategoryOutdoor:     true,
	CategoryVehicles:    true,
	CategoryHome:        true,
	CategorySports:      true,
	CategoryClothing:    true,
	CategoryOther:       true,
}

func (c ItemCategory) Valid() bool {
	return itemCategories[c]
}

// GeoPoint is a GeoJSON point stored as [longitude, latitude], the order
// MongoDB's 2dsphere index expects.
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

func NewGeoPoint(lng, lat float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

func (p GeoPoint) Lng() float64 {
	if len(p.Coordinates) == 2 {
		return p.Coordinates[0]
	}
	return 0
}

func (p GeoPoint) Lat() float64 {
	if len(p.Coordinates) == 2 {
		return p.Coordinates[1]
	}
	return 0
}

func (p GeoPoint) Validate() error {
	if p.Type != "Point" || len(p.Coordinates) != 2 {
		return fmt.Errorf("location must be a GeoJSON point with exactly one [lng, lat] pair")
	}
	if p.Lng() < -180 || p.Lng() > 180 {
		return fmt.Errorf("longitude must be between -180 and 180")
	}
	if p.Lat() < -90 || p.Lat() > 90 {
		return fmt.Errorf("latitude must be between -90 and 90")
	}
	return nil
}

// EarthRadiusMeters is used for great-circle distance conversions.
const EarthRadiusMeters = 6371000.0

// HaversineMeters returns the great-circle distance between two points.
func HaversineMeters(a, b GeoPoint) float64 {
	lat1 := a.Lat() * math.Pi / 180
	lat2 := b.Lat() * math.Pi / 180
	dLat := (b.Lat() - a.Lat()) * math.Pi / 180
	dLng := (b.Lng() - a.Lng()) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// DateWindow is a half-open [Start, End) span of days an owner offers an
// item for rent.
type DateWindow struct {
	Start time.Time `bson:"start" json:"start"`
	End   time.Time `bson:"end" json:"end"`
}

func (w DateWindow) Overlaps(start, end time.Time) bool {
	return w.Start.Before(end) && w.End.After(start)
}

// ValidateWindows checks that every window is well-formed and that the
// set is pairwise disjoint.
func ValidateWindows(windows []DateWindow) error {
	for _, w := range windows {
		if !w.Start.Before(w.End) {
			return fmt.Errorf("availability window start must be before end")
		}
	}
	sorted := make([]DateWindow, len(windows))
	copy(sorted, windows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Start.Before(sorted[i-1].End) {
			return fmt.Errorf("availability windows must not overlap")
		}
	}
	return nil
}

type Item struct {
	ID           uuid.UUID    `bson:"id" json:"id"`
	OwnerID      uuid.UUID    `bson:"owner_id" json:"owner_id"`
	Title        string       `bson:"title" json:"title" validate:"required,max=120"`
	Description  string       `bson:"description" json:"description" validate:"required,max=2000"`
	Category     ItemCategory `bson:"category" json:"category" validate:"required"`
	PricePerDay  float64      `bson:"price_per_day" json:"price_per_day" validate:"gte=0"`
	Deposit      float64      `bson:"deposit" json:"deposit" validate:"gte=0"`
	Availability []DateWindow `bson:"availability" json:"availability"`
	Location     GeoPoint     `bson:"location" json:"location"`
	Address      string       `bson:"address" json:"address,omitempty"`
	Condition    string       `bson:"condition" json:"condition,omitempty"`
	Images       []string     `bson:"images" json:"images" validate:"required,min=1"`
	IsAvailable  bool         `bson:"is_available" json:"is_available"`
	CreatedAt    time.Time    `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `bson:"updated_at" json:"updated_at"`
}

func (i *Item) BeforeCreate() {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	now := time.Now().UTC()
	i.CreatedAt = now
	i.UpdatedAt = now
	i.IsAvailable = true
}

func (i *Item) ValidateItem() error {
	if err := Validate.Struct(i); err != nil {
		return err
	}
	if !i.Category.Valid() {
		return fmt.Errorf("unknown category %q", i.Category)
	}
	if err := i.Location.Validate(); err != nil {
		return err
	}
	return ValidateWindows(i.Availability)
}

// ItemUpdate carries the owner-editable fields of an item. Nil pointers
// mean "leave unchanged"; Images are appended to the existing list.
type ItemUpdate struct {
	Title        *string       `json:"title,omitempty"`
	Description  *string       `json:"description,omitempty"`
	Category     *ItemCategory `json:"category,omitempty"`
	PricePerDay  *float64      `json:"price_per_day,omitempty"`
	Deposit      *float64      `json:"deposit,omitempty"`
	Availability []DateWindow  `json:"availability,omitempty"`
	Location     *GeoPoint     `json:"location,omitempty"`
	Address      *string       `json:"address,omitempty"`
	Condition    *string       `json:"condition,omitempty"`
	Images       []string      `json:"images,omitempty"`
	IsAvailable  *bool         `json:"is_available,omitempty"`
}
