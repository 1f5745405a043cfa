package ports

import (
	"context"
	"freight-settlement-service/internal/domain"
)

// Port: a boundary for per-plate freight rates.
type RateRepository interface {
	// Insert or replace the rate for a plate.
	UpsertRate(ctx context.Context, rate domain.Rate) error
	// Return every configured rate ordered by plate.
	ListRates(ctx context.Context) ([]domain.Rate, error)
	// Return the rates of the given plates in one lookup.
	// Plates without a configured rate are absent from the map.
	RatesForPlates(ctx context.Context, plates []string) (map[string]float64, error)
}
