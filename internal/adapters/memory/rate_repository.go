package memory

import (
	"context"
	"sort"
	"sync"

	"freight-settlement-service/internal/domain"
)

// RateRepository is an in-memory rate table keyed by plate.
type RateRepository struct {
	mu    sync.RWMutex
	rates map[string]float64
}

// NewRateRepository constructs an empty repository.
func NewRateRepository() *RateRepository {
	return &RateRepository{rates: make(map[string]float64)}
}

// UpsertRate inserts or replaces the rate for a plate.
func (r *RateRepository) UpsertRate(ctx context.Context, rate domain.Rate) error {
	_ = ctx
	r.mu.Lock()
	r.rates[rate.Plate] = rate.PerKmValue
	r.mu.Unlock()
	return nil
}

// ListRates returns every rate ordered by plate.
func (r *RateRepository) ListRates(ctx context.Context) ([]domain.Rate, error) {
	_ = ctx
	r.mu.RLock()
	out := make([]domain.Rate, 0, len(r.rates))
	for plate, v := range r.rates {
		out = append(out, domain.Rate{Plate: plate, PerKmValue: v})
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Plate < out[j].Plate })
	return out, nil
}

// RatesForPlates returns the configured subset of the given plates.
func (r *RateRepository) RatesForPlates(ctx context.Context, plates []string) (map[string]float64, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]float64, len(plates))
	for _, p := range plates {
		if v, ok := r.rates[p]; ok {
			out[p] = v
		}
	}
	return out, nil
}
