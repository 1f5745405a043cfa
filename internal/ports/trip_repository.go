package ports

import (
	"context"
	"freight-settlement-service/internal/domain"
)

// Optional narrowing of a trip query. The zero value selects every trip.
type TripFilter struct {
	Plate string
}

// Port: a boundary for storing and retrieving imported trips.
type TripRepository interface {
	// Return trips ordered by (created_at, id) ascending.
	ListTrips(ctx context.Context, filter TripFilter) ([]domain.Trip, error)
	// Store a trip and return its assigned id.
	InsertTrip(ctx context.Context, fields domain.TripFields) (int64, error)
	// Delete one trip; false when no trip had that id.
	DeleteTrip(ctx context.Context, id int64) (bool, error)
	// Delete every trip and return how many were removed.
	DeleteAllTrips(ctx context.Context) (int64, error)
}
