package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Represents a single vehicle trip imported from a tracker report.
// Trips are totally ordered by (CreatedAt, ID); Sequence is the 1-based
// position of the trip within its plate under that ordering and is
// computed on read, never stored.
type Trip struct {
	ID             int64
	Plate          string
	DeviceLabel    string
	DistanceKm     float64
	StartTimestamp string
	EndTimestamp   string
	OdometerKm     *float64
	CreatedAt      time.Time
	Sequence       int
}

// Insert payload for a new trip, as produced by the report parser.
type TripFields struct {
	Plate          string
	DeviceLabel    string
	DistanceKm     float64
	StartTimestamp string
	EndTimestamp   string
	OdometerKm     *float64
}

// Calendar days the trip starts and ends on.
func (t Trip) Dates() (CalendarDate, CalendarDate) {
	return NormalizeDate(t.StartTimestamp), NormalizeDate(t.EndTimestamp)
}

// NormalizePlate upper-cases a plate and drops all whitespace.
func NormalizePlate(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// Validate normalizes the plate and rejects payloads that cannot be stored.
func (f *TripFields) Validate() error {
	f.Plate = NormalizePlate(f.Plate)
	if f.Plate == "" {
		return fmt.Errorf("%w: plate is required", ErrValidation)
	}
	if strings.TrimSpace(f.StartTimestamp) == "" || strings.TrimSpace(f.EndTimestamp) == "" {
		return fmt.Errorf("%w: start and end timestamps are required", ErrValidation)
	}
	if f.DistanceKm < 0 {
		return fmt.Errorf("%w: distance must be non-negative, got %v", ErrValidation, f.DistanceKm)
	}
	return nil
}

// Aggregate figures over the stored trips.
type TripSummary struct {
	PlateCount int
	TotalKm    float64
}
