package services

import (
	"context"
	"errors"
	"fmt"
	"freight-settlement-service/internal/domain"
	"freight-settlement-service/internal/platform/metrics"
	"freight-settlement-service/internal/platform/obs"
	"freight-settlement-service/internal/platform/pdf"
	"freight-settlement-service/internal/ports"
	"sort"
	"time"
)

// A rendered file ready to be served.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ComputeSettlement totals the trips that fall entirely inside period.
//
// A trip counts only if its start day and end day are both within the
// period; trips crossing a boundary are excluded, not split. Plates without
// a rate settle at zero and are still listed. Each plate's amount is rounded
// to cents, and the grand total is the rounded sum of those rounded amounts.
func ComputeSettlement(period domain.Period, trips []domain.Trip, rates map[string]float64) domain.Settlement {
	kmByPlate := make(map[string]float64)
	for _, t := range TripsInPeriod(period, trips) {
		kmByPlate[t.Plate] += t.DistanceKm
	}

	plates := make([]string, 0, len(kmByPlate))
	for p := range kmByPlate {
		plates = append(plates, p)
	}
	sort.Strings(plates)

	items := make([]domain.SettlementLineItem, 0, len(plates))
	var sum float64
	for _, p := range plates {
		rate := rates[p]
		amount := domain.AmountDue(kmByPlate[p], rate)
		items = append(items, domain.SettlementLineItem{
			Plate:      p,
			TotalKm:    kmByPlate[p],
			PerKmValue: rate,
			AmountDue:  amount,
		})
		sum += amount
	}

	return domain.Settlement{
		Period:     period,
		LineItems:  items,
		GrandTotal: domain.Round2(sum),
	}
}

// TripsInPeriod keeps the trips whose start and end days lie inside period.
func TripsInPeriod(period domain.Period, trips []domain.Trip) []domain.Trip {
	out := make([]domain.Trip, 0, len(trips))
	for _, t := range trips {
		start, end := t.Dates()
		if period.Contains(start, end) {
			out = append(out, t)
		}
	}
	return out
}

// SettlementService composes the pure computation with the ledger.
type SettlementService struct {
	trips    ports.TripRepository
	rates    ports.RateRepository
	ledger   ports.SettlementRepository
	exporter ports.StatementExporter
	pdf      pdf.Options
	now      func() time.Time
}

func NewSettlementService(
	trips ports.TripRepository,
	rates ports.RateRepository,
	ledger ports.SettlementRepository,
	exporter ports.StatementExporter,
	pdfOpts pdf.Options,
) (*SettlementService, error) {
	if trips == nil || rates == nil || ledger == nil {
		return nil, errors.New("settlement service: trips, rates and ledger are required")
	}
	return &SettlementService{
		trips:    trips,
		rates:    rates,
		ledger:   ledger,
		exporter: exporter,
		pdf:      pdfOpts,
		now:      time.Now,
	}, nil
}

// SetClock replaces the time source used for report headers and entry stamps.
func (s *SettlementService) SetClock(now func() time.Time) {
	s.now = now
}

// Preview computes a settlement without writing anything.
func (s *SettlementService) Preview(ctx context.Context, period domain.Period) (_ domain.Settlement, err error) {
	defer obs.Time(ctx, "settlement.Preview")(&err)
	defer func() { metrics.IncSettlement("preview", resultOf(err)) }()

	return s.compute(ctx, period)
}

// Finalize computes the settlement and appends one ledger entry per plate.
//
// Inserts are independent statements: a failure part way leaves the entries
// already written in place. Finalizing a period twice duplicates its entries.
func (s *SettlementService) Finalize(ctx context.Context, period domain.Period) (_ []domain.SettlementEntry, err error) {
	defer obs.Time(ctx, "settlement.Finalize")(&err)
	defer func() { metrics.IncSettlement("finalize", resultOf(err)) }()

	settlement, err := s.compute(ctx, period)
	if err != nil {
		return nil, err
	}

	createdAt := s.now()
	entries := make([]domain.SettlementEntry, 0, len(settlement.LineItems))
	for _, item := range settlement.LineItems {
		e := domain.SettlementEntry{
			Plate:      item.Plate,
			Period:     period,
			TotalKm:    item.TotalKm,
			PerKmValue: item.PerKmValue,
			AmountDue:  item.AmountDue,
			CreatedAt:  createdAt,
		}
		id, err := s.ledger.InsertEntry(ctx, e)
		if err != nil {
			return entries, fmt.Errorf("finalize %s: insert entry plate=%s: %w", period, item.Plate, err)
		}
		e.ID = id
		entries = append(entries, e)
		metrics.AddFinalizedAmount(item.AmountDue)
	}

	return entries, nil
}

func (s *SettlementService) compute(ctx context.Context, period domain.Period) (domain.Settlement, error) {
	trips, err := s.trips.ListTrips(ctx, ports.TripFilter{})
	if err != nil {
		return domain.Settlement{}, fmt.Errorf("compute settlement: list trips: %w", err)
	}

	plates := platesOf(TripsInPeriod(period, trips))
	rates, err := s.rates.RatesForPlates(ctx, plates)
	if err != nil {
		return domain.Settlement{}, fmt.Errorf("compute settlement: rates for %d plates: %w", len(plates), err)
	}

	return ComputeSettlement(period, trips, rates), nil
}

// ListPeriods summarizes the ledger, most recently finalized period first.
func (s *SettlementService) ListPeriods(ctx context.Context) (_ []domain.PeriodSummary, err error) {
	defer obs.Time(ctx, "settlement.ListPeriods")(&err)

	entries, err := s.ledger.ListEntries(ctx, ports.EntryFilter{})
	if err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	return SummarizePeriods(entries), nil
}

// DeletePeriod removes the entries of exactly this period.
func (s *SettlementService) DeletePeriod(ctx context.Context, period domain.Period) (_ int64, err error) {
	defer obs.Time(ctx, "settlement.DeletePeriod")(&err)
	defer func() { metrics.IncSettlement("delete", resultOf(err)) }()

	n, err := s.ledger.DeletePeriod(ctx, period)
	if err != nil {
		return 0, fmt.Errorf("delete period %s: %w", period, err)
	}
	return n, nil
}

// ListEntries returns the ledger entries of one period, plate ascending.
func (s *SettlementService) ListEntries(ctx context.Context, period domain.Period) (_ []domain.SettlementEntry, err error) {
	defer obs.Time(ctx, "settlement.ListEntries")(&err)

	entries, err := s.ledger.ListEntries(ctx, ports.EntryFilter{Period: &period})
	if err != nil {
		return nil, fmt.Errorf("list entries %s: %w", period, err)
	}
	return entries, nil
}

func platesOf(trips []domain.Trip) []string {
	seen := make(map[string]struct{}, len(trips))
	out := make([]string, 0, len(trips))
	for _, t := range trips {
		if _, ok := seen[t.Plate]; ok {
			continue
		}
		seen[t.Plate] = struct{}{}
		out = append(out, t.Plate)
	}
	return out
}

func resultOf(err error) string {
	if err != nil {
		return metrics.ResultError
	}
	return metrics.ResultSuccess
}
