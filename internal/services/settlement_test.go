package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"freight-settlement-service/internal/adapters/memory"
	"freight-settlement-service/internal/domain"
	"freight-settlement-service/internal/platform/pdf"
)

func mustPeriod(t *testing.T, start, end string) domain.Period {
	t.Helper()
	p, err := domain.ParsePeriod(start, end)
	if err != nil {
		t.Fatalf("parse period %s..%s: %v", start, end, err)
	}
	return p
}

func trip(id int64, plate string, km float64, start, end string) domain.Trip {
	return domain.Trip{ID: id, Plate: plate, DistanceKm: km, StartTimestamp: start, EndTimestamp: end}
}

type fixture struct {
	trips  *memory.TripRepository
	rates  *memory.RateRepository
	ledger *memory.SettlementRepository
	svc    *SettlementService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		trips:  memory.NewTripRepository(),
		rates:  memory.NewRateRepository(),
		ledger: memory.NewSettlementRepository(),
	}
	svc, err := NewSettlementService(f.trips, f.rates, f.ledger, nil, pdf.DefaultOptions())
	if err != nil {
		t.Fatalf("new settlement service: %v", err)
	}
	svc.SetClock(func() time.Time { return time.Date(2025, 10, 11, 9, 30, 0, 0, time.UTC) })
	f.svc = svc
	return f
}

func (f *fixture) addTrip(t *testing.T, plate string, km float64, start, end string) {
	t.Helper()
	_, err := f.trips.InsertTrip(context.Background(), domain.TripFields{Plate: plate, DistanceKm: km, StartTimestamp: start, EndTimestamp: end})
	if err != nil {
		t.Fatalf("insert trip: %v", err)
	}
}

func TestComputeSettlementEndToEndExample(t *testing.T) {
	period := mustPeriod(t, "2025-10-01", "2025-10-10")
	trips := []domain.Trip{
		trip(1, "ABC1234", 100, "2025-10-01 08:00:00", "2025-10-01 12:00:00"),
		trip(2, "ABC1234", 50, "05-10-2025 08:00:00", "05-10-2025 10:00:00"),
	}

	got := ComputeSettlement(period, trips, map[string]float64{"ABC1234": 5})

	if len(got.LineItems) != 1 {
		t.Fatalf("expected 1 line item, got %d", len(got.LineItems))
	}
	item := got.LineItems[0]
	if item.Plate != "ABC1234" || item.TotalKm != 150 || item.PerKmValue != 5 || item.AmountDue != 750 {
		t.Fatalf("unexpected line item: %+v", item)
	}
	if got.GrandTotal != 750 {
		t.Fatalf("grand total = %v, want 750", got.GrandTotal)
	}
}

func TestComputeSettlementRangeIsInclusive(t *testing.T) {
	period := mustPeriod(t, "2025-10-01", "2025-10-10")
	onBounds := trip(1, "AAA", 10, "2025-10-01 00:00:00", "2025-10-10 23:59:59")
	earlyStart := trip(2, "BBB", 10, "2025-09-30 23:00:00", "2025-10-02 00:00:00")
	lateEnd := trip(3, "CCC", 10, "2025-10-09 00:00:00", "2025-10-11 01:00:00")
	garbage := trip(4, "DDD", 10, "yesterday", "today")

	got := ComputeSettlement(period, []domain.Trip{onBounds, earlyStart, lateEnd, garbage}, nil)
	if len(got.LineItems) != 1 || got.LineItems[0].Plate != "AAA" {
		t.Fatalf("expected only the on-boundary trip, got %+v", got.LineItems)
	}
}

func TestComputeSettlementRoundsPerPlateThenTotal(t *testing.T) {
	period := mustPeriod(t, "2025-10-01", "2025-10-31")
	trips := []domain.Trip{
		trip(1, "AAA", 0.125, "2025-10-02", "2025-10-02"),
		trip(2, "BBB", 0.125, "2025-10-03", "2025-10-03"),
	}

	got := ComputeSettlement(period, trips, map[string]float64{"AAA": 1, "BBB": 1})

	for _, item := range got.LineItems {
		if item.AmountDue != 0.13 {
			t.Fatalf("plate %s amount = %v, want 0.13", item.Plate, item.AmountDue)
		}
	}
	if got.GrandTotal != 0.26 {
		t.Fatalf("grand total = %v, want 0.26", got.GrandTotal)
	}
	if once := domain.Round2(0.125 + 0.125); once != 0.25 {
		t.Fatalf("single rounding = %v, want 0.25", once)
	}
}

func TestComputeSettlementRoundsExactBinaryValue(t *testing.T) {
	period := mustPeriod(t, "2025-10-01", "2025-10-31")
	trips := []domain.Trip{
		trip(1, "AAA", 1.005, "2025-10-02", "2025-10-02"),
		trip(2, "BBB", 2.675, "2025-10-03", "2025-10-03"),
	}

	got := ComputeSettlement(period, trips, map[string]float64{"AAA": 1, "BBB": 1})

	if got.LineItems[0].AmountDue != 1 || got.LineItems[1].AmountDue != 2.67 {
		t.Fatalf("amounts = %v, %v, want 1, 2.67", got.LineItems[0].AmountDue, got.LineItems[1].AmountDue)
	}
	if got.GrandTotal != 3.67 {
		t.Fatalf("grand total = %v, want 3.67", got.GrandTotal)
	}
}

func TestComputeSettlementMissingRateIsZero(t *testing.T) {
	period := mustPeriod(t, "2025-10-01", "2025-10-31")
	trips := []domain.Trip{
		trip(1, "ZZZ9999", 80, "2025-10-02", "2025-10-02"),
		trip(2, "ABC1234", 10, "2025-10-02", "2025-10-02"),
	}

	got := ComputeSettlement(period, trips, map[string]float64{"ABC1234": 2})

	if len(got.LineItems) != 2 {
		t.Fatalf("expected both plates listed, got %+v", got.LineItems)
	}
	if got.LineItems[0].Plate != "ABC1234" {
		t.Fatalf("line items not ordered by plate: %+v", got.LineItems)
	}
	zero := got.LineItems[1]
	if zero.Plate != "ZZZ9999" || zero.TotalKm != 80 || zero.PerKmValue != 0 || zero.AmountDue != 0 {
		t.Fatalf("unexpected zero-rate item: %+v", zero)
	}
	if got.GrandTotal != 20 {
		t.Fatalf("grand total = %v, want 20", got.GrandTotal)
	}
}

func TestPreviewDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addTrip(t, "ABC1234", 100, "2025-10-01 08:00:00", "2025-10-01 12:00:00")
	_ = f.rates.UpsertRate(ctx, domain.Rate{Plate: "ABC1234", PerKmValue: 5})

	period := mustPeriod(t, "2025-10-01", "2025-10-10")
	for i := 0; i < 2; i++ {
		got, err := f.svc.Preview(ctx, period)
		if err != nil {
			t.Fatalf("preview: %v", err)
		}
		if got.GrandTotal != 500 {
			t.Fatalf("grand total = %v", got.GrandTotal)
		}
	}

	entries, _ := f.svc.ListEntries(ctx, period)
	if len(entries) != 0 {
		t.Fatalf("preview wrote %d entries", len(entries))
	}
}

func TestFinalizeTwiceDuplicatesEntries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addTrip(t, "ABC1234", 100, "2025-10-01 08:00:00", "2025-10-01 12:00:00")
	f.addTrip(t, "ABC1234", 50, "2025-10-02 08:00:00", "2025-10-02 12:00:00")
	f.addTrip(t, "XYZ9876", 40, "2025-10-03 08:00:00", "2025-10-03 12:00:00")
	_ = f.rates.UpsertRate(ctx, domain.Rate{Plate: "ABC1234", PerKmValue: 5})
	_ = f.rates.UpsertRate(ctx, domain.Rate{Plate: "XYZ9876", PerKmValue: 2.5})

	period := mustPeriod(t, "2025-10-01", "2025-10-10")
	for i := 0; i < 2; i++ {
		entries, err := f.svc.Finalize(ctx, period)
		if err != nil {
			t.Fatalf("finalize: %v", err)
		}
		if len(entries) != 2 || entries[0].ID == 0 {
			t.Fatalf("unexpected entries: %+v", entries)
		}
	}

	entries, err := f.svc.ListEntries(ctx, period)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries after two finalizes, got %d", len(entries))
	}

	periods, err := f.svc.ListPeriods(ctx)
	if err != nil {
		t.Fatalf("list periods: %v", err)
	}
	if len(periods) != 1 {
		t.Fatalf("expected 1 period summary, got %d", len(periods))
	}
	p := periods[0]
	if p.DistinctPlateCount != 2 || p.TotalKm != 380 || p.TotalAmountDue != 1700 {
		t.Fatalf("unexpected summary: %+v", p)
	}
}

func TestFinalizeFreezesRate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addTrip(t, "ABC1234", 10, "2025-10-01", "2025-10-01")
	_ = f.rates.UpsertRate(ctx, domain.Rate{Plate: "ABC1234", PerKmValue: 5})

	period := mustPeriod(t, "2025-10-01", "2025-10-10")
	if _, err := f.svc.Finalize(ctx, period); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	_ = f.rates.UpsertRate(ctx, domain.Rate{Plate: "ABC1234", PerKmValue: 9})

	entries, _ := f.svc.ListEntries(ctx, period)
	if entries[0].PerKmValue != 5 || entries[0].AmountDue != 50 {
		t.Fatalf("entry changed after rate upsert: %+v", entries[0])
	}
}

func TestDeletePeriod(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addTrip(t, "ABC1234", 10, "2025-10-01", "2025-10-01")

	period := mustPeriod(t, "2025-10-01", "2025-10-10")
	if _, err := f.svc.Finalize(ctx, period); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	n, err := f.svc.DeletePeriod(ctx, mustPeriod(t, "2025-10-01", "2025-10-09"))
	if err != nil || n != 0 {
		t.Fatalf("partial range should not match: n=%d err=%v", n, err)
	}
	n, err = f.svc.DeletePeriod(ctx, period)
	if err != nil || n != 1 {
		t.Fatalf("exact delete: n=%d err=%v", n, err)
	}
}

func TestGenerateReportNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GenerateReport(context.Background(), mustPeriod(t, "2025-10-01", "2025-10-10"))
	if !errors.Is(err, domain.ErrPeriodNotFound) {
		t.Fatalf("expected ErrPeriodNotFound, got %v", err)
	}
}

func TestGenerateReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addTrip(t, "ABC1234", 100, "2025-10-01 08:00:00", "2025-10-01 12:00:00")
	_ = f.rates.UpsertRate(ctx, domain.Rate{Plate: "ABC1234", PerKmValue: 5})

	period := mustPeriod(t, "2025-10-01", "2025-10-10")
	if _, err := f.svc.Finalize(ctx, period); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	doc, err := f.svc.GenerateReport(ctx, period)
	if err != nil {
		t.Fatalf("generate report: %v", err)
	}
	if doc.Filename != "fechamento-2025-10-01-a-2025-10-10.pdf" {
		t.Fatalf("filename = %q", doc.Filename)
	}
	if doc.ContentType != "application/pdf" {
		t.Fatalf("content type = %q", doc.ContentType)
	}
	if !bytes.HasPrefix(doc.Body, []byte("%PDF-1.4")) || !bytes.HasSuffix(doc.Body, []byte("%%EOF")) {
		t.Fatalf("body is not a PDF")
	}
	if !bytes.Contains(doc.Body, []byte("(TOTAL GERAL: R$ 500.00) Tj")) {
		t.Fatalf("grand total line missing from content stream")
	}
}

func TestExportWorkbookWithoutExporter(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ExportWorkbook(context.Background(), mustPeriod(t, "2025-10-01", "2025-10-10"))
	if err == nil || !strings.Contains(err.Error(), "no exporter") {
		t.Fatalf("expected missing exporter error, got %v", err)
	}
}
