package memory

import (
	"context"
	"testing"
	"time"

	"freight-settlement-service/internal/domain"
	"freight-settlement-service/internal/ports"
)

func TestTripRepositoryOrdersByCreatedAtThenID(t *testing.T) {
	ctx := context.Background()
	repo := NewTripRepository()
	fixed := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	repo.Now = func() time.Time { return fixed }

	for _, plate := range []string{"BBB", "AAA", "BBB"} {
		if _, err := repo.InsertTrip(ctx, domain.TripFields{Plate: plate, StartTimestamp: "x", EndTimestamp: "y"}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	got, _ := repo.ListTrips(ctx, ports.TripFilter{})
	for i, tr := range got {
		if tr.ID != int64(i+1) {
			t.Fatalf("position %d has id %d", i, tr.ID)
		}
	}

	bbb, _ := repo.ListTrips(ctx, ports.TripFilter{Plate: "bbb"})
	if len(bbb) != 2 {
		t.Fatalf("expected 2 BBB trips, got %d", len(bbb))
	}

	if ok, _ := repo.DeleteTrip(ctx, 2); !ok {
		t.Fatalf("expected delete to succeed")
	}
	if n, _ := repo.DeleteAllTrips(ctx); n != 2 {
		t.Fatalf("delete all = %d, want 2", n)
	}
}

func TestSettlementRepositoryDeletePeriodIsExactMatch(t *testing.T) {
	ctx := context.Background()
	repo := NewSettlementRepository()

	march, _ := domain.ParsePeriod("2024-03-01", "2024-03-31")
	overlap, _ := domain.ParsePeriod("2024-03-01", "2024-03-30")

	_, _ = repo.InsertEntry(ctx, domain.SettlementEntry{Plate: "B", Period: march})
	_, _ = repo.InsertEntry(ctx, domain.SettlementEntry{Plate: "A", Period: march})
	_, _ = repo.InsertEntry(ctx, domain.SettlementEntry{Plate: "A", Period: overlap})

	got, _ := repo.ListEntries(ctx, ports.EntryFilter{Period: &march})
	if len(got) != 2 || got[0].Plate != "A" {
		t.Fatalf("unexpected entries: %+v", got)
	}

	n, _ := repo.DeletePeriod(ctx, march)
	if n != 2 {
		t.Fatalf("deleted %d, want 2", n)
	}
	rest, _ := repo.ListEntries(ctx, ports.EntryFilter{})
	if len(rest) != 1 || rest[0].Period != overlap {
		t.Fatalf("overlapping period should survive: %+v", rest)
	}
}

func TestRateRepositoryUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	repo := NewRateRepository()
	_ = repo.UpsertRate(ctx, domain.Rate{Plate: "ABC1234", PerKmValue: 4})
	_ = repo.UpsertRate(ctx, domain.Rate{Plate: "ABC1234", PerKmValue: 5})

	got, _ := repo.RatesForPlates(ctx, []string{"ABC1234", "ZZZ"})
	if len(got) != 1 || got["ABC1234"] != 5 {
		t.Fatalf("unexpected rates: %v", got)
	}
}
