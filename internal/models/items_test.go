package models

import (
	"testing"
)

func TestValidateWindows(t *testing.T) {
	if err := ValidateWindows([]DateWindow{
		{Start: day(1), End: day(5)},
		{Start: day(10), End: day(15)},
	}); err != nil {
		t.Errorf("disjoint windows should validate: %v", err)
	}

	// Touching windows are allowed, half-open.
	if err := ValidateWindows([]DateWindow{
		{Start: day(1), End: day(5)},
		{Start: day(5), End: day(8)},
	}); err != nil {
		t.Errorf("touching windows should validate: %v", err)
	}

	if err := ValidateWindows([]DateWindow{
		{Start: day(1), End: day(6)},
		{Start: day(5), End: day(8)},
	}); err == nil {
		t.Error("overlapping windows should fail validation")
	}

	if err := ValidateWindows([]DateWindow{{Start: day(5), End: day(5)}}); err == nil {
		t.Error("empty window should fail validation")
	}
}

func TestGeoPointValidate(t *testing.T) {
	if err := NewGeoPoint(-0.1276, 51.5072).Validate(); err != nil {
		t.Errorf("valid point rejected: %v", err)
	}
	if err := (GeoPoint{Type: "Point", Coordinates: []float64{200, 0}}).Validate(); err == nil {
		t.Error("longitude out of range should fail")
	}
	if err := (GeoPoint{Type: "Point", Coordinates: []float64{0}}).Validate(); err == nil {
		t.Error("single coordinate should fail")
	}
	if err := (GeoPoint{Type: "Polygon", Coordinates: []float64{0, 0}}).Validate(); err == nil {
		t.Error("non-point type should fail")
	}
}

func TestHaversineMeters(t *testing.T) {
	london := NewGeoPoint(-0.1276, 51.5072)
	paris := NewGeoPoint(2.3522, 48.8566)

	got := HaversineMeters(london, paris)
	// Roughly 344 km; allow a generous band for the spherical model.
	if got < 330000 || got > 360000 {
		t.Errorf("London-Paris distance = %f m, expected ~344km", got)
	}

	if d := HaversineMeters(london, london); d != 0 {
		t.Errorf("distance to self = %f, want 0", d)
	}
}

func TestItemCategory(t *testing.T) {
	if !CategoryTools.Valid() {
		t.Error("tools should be a valid category")
	}
	if ItemCategory("boats").Valid() {
		t.Error("unknown category should be invalid")
	}
}

func TestDateWindowOverlaps(t *testing.T) {
	w := DateWindow{Start: day(5), End: day(10)}
	if !w.Overlaps(day(8), day(12)) {
		t.Error("expected overlap")
	}
	if w.Overlaps(day(10), day(12)) {
		t.Error("touching boundary must not overlap")
	}
}
