package services

import (
	"context"
	"errors"
	"fmt"
	"freight-settlement-service/internal/domain"
	"freight-settlement-service/internal/platform/obs"
	"freight-settlement-service/internal/ports"
)

// RateService manages per-plate rates.
type RateService struct {
	rates ports.RateRepository
}

func NewRateService(rates ports.RateRepository) (*RateService, error) {
	if rates == nil {
		return nil, errors.New("rate service: repository is required")
	}
	return &RateService{rates: rates}, nil
}

// UpsertRate normalizes the plate and stores the rate. Existing ledger
// entries keep the rate they were finalized with.
func (s *RateService) UpsertRate(ctx context.Context, plate string, perKm float64) (_ domain.Rate, err error) {
	defer obs.Time(ctx, "rates.Upsert")(&err)

	rate, err := domain.NewRate(plate, perKm)
	if err != nil {
		return domain.Rate{}, err
	}
	if err := s.rates.UpsertRate(ctx, rate); err != nil {
		return domain.Rate{}, fmt.Errorf("upsert rate: %w", err)
	}
	return rate, nil
}

func (s *RateService) ListRates(ctx context.Context) (_ []domain.Rate, err error) {
	defer obs.Time(ctx, "rates.List")(&err)

	rates, err := s.rates.ListRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rates: %w", err)
	}
	return rates, nil
}
