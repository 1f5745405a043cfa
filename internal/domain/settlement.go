package domain

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Configured per-km value for a plate. At most one per plate; upserts
// replace the value and never touch ledger entries already written.
type Rate struct {
	Plate      string
	PerKmValue float64
}

func NewRate(plate string, perKm float64) (Rate, error) {
	p := NormalizePlate(plate)
	if p == "" {
		return Rate{}, fmt.Errorf("%w: placa is required", ErrValidation)
	}
	if perKm < 0 {
		return Rate{}, fmt.Errorf("%w: valor_km must be >= 0, got %v", ErrValidation, perKm)
	}
	return Rate{Plate: p, PerKmValue: perKm}, nil
}

// Preview-only settlement figures for one plate.
type SettlementLineItem struct {
	Plate      string
	TotalKm    float64
	PerKmValue float64
	AmountDue  float64
}

// Result of computing a period: one line item per plate (plate ascending).
type Settlement struct {
	Period     Period
	LineItems  []SettlementLineItem
	GrandTotal float64
}

// Finalized, immutable ledger row. PerKmValue is frozen at finalize time.
type SettlementEntry struct {
	ID         int64
	Plate      string
	Period     Period
	TotalKm    float64
	PerKmValue float64
	AmountDue  float64
	CreatedAt  time.Time
}

// One row of the ledger listing: all entries sharing an exact period.
type PeriodSummary struct {
	Period             Period
	FirstCreatedAt     time.Time
	DistinctPlateCount int
	TotalKm            float64
	TotalAmountDue     float64
}

// Round2 rounds the exact binary value of v half away from zero to two
// decimal places, so 1.005 (stored as 1.00499...) becomes 1.00.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	d, err := decimal.NewFromString(strconv.FormatFloat(v, 'f', 30, 64))
	if err != nil {
		d = decimal.NewFromFloat(v)
	}
	f, _ := d.Round(2).Float64()
	return f
}

// AmountDue is the single place where km × rate is rounded.
func AmountDue(km, perKm float64) float64 {
	return Round2(km * perKm)
}
