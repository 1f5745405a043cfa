package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"freight-settlement-service/internal/domain"
	"freight-settlement-service/internal/ports"
)

// TripRepository is an in-memory trip store.
type TripRepository struct {
	mu     sync.RWMutex
	nextID int64
	trips  []domain.Trip
	Now    func() time.Time
}

// NewTripRepository constructs an empty repository.
func NewTripRepository() *TripRepository {
	return &TripRepository{Now: time.Now}
}

// ListTrips returns copies ordered by (CreatedAt, ID).
func (r *TripRepository) ListTrips(ctx context.Context, filter ports.TripFilter) ([]domain.Trip, error) {
	_ = ctx
	plate := domain.NormalizePlate(filter.Plate)

	r.mu.RLock()
	out := make([]domain.Trip, 0, len(r.trips))
	for _, t := range r.trips {
		if plate != "" && t.Plate != plate {
			continue
		}
		out = append(out, cloneTrip(t))
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// InsertTrip stores a trip and assigns the next id.
func (r *TripRepository) InsertTrip(ctx context.Context, fields domain.TripFields) (int64, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	t := domain.Trip{
		ID:             r.nextID,
		Plate:          fields.Plate,
		DeviceLabel:    fields.DeviceLabel,
		DistanceKm:     fields.DistanceKm,
		StartTimestamp: fields.StartTimestamp,
		EndTimestamp:   fields.EndTimestamp,
		CreatedAt:      r.Now(),
	}
	if fields.OdometerKm != nil {
		v := *fields.OdometerKm
		t.OdometerKm = &v
	}
	r.trips = append(r.trips, t)
	return t.ID, nil
}

// DeleteTrip removes one trip by id.
func (r *TripRepository) DeleteTrip(ctx context.Context, id int64) (bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, t := range r.trips {
		if t.ID == id {
			r.trips = append(r.trips[:i], r.trips[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// DeleteAllTrips empties the store.
func (r *TripRepository) DeleteAllTrips(ctx context.Context) (int64, error) {
	_ = ctx
	r.mu.Lock()
	n := int64(len(r.trips))
	r.trips = nil
	r.mu.Unlock()
	return n, nil
}

func cloneTrip(t domain.Trip) domain.Trip {
	if t.OdometerKm != nil {
		v := *t.OdometerKm
		t.OdometerKm = &v
	}
	return t
}
