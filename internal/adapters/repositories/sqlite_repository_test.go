package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"freight-settlement-service/internal/domain"
	"freight-settlement-service/internal/ports"

	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if err := InitSchema(db); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return db
}

// stepClock returns strictly increasing instants one second apart.
func stepClock(start time.Time) func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return start.Add(time.Duration(n) * time.Second)
	}
}

func TestInitSchemaIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	if err := InitSchema(db); err != nil {
		t.Fatalf("second init: %v", err)
	}
}

func TestSqliteTripRepository_InsertListDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewSqliteTripRepository(newTestDB(t))
	repo.Now = stepClock(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))

	odo := 12345.6
	inputs := []domain.TripFields{
		{Plate: "ABC1234", DeviceLabel: "Truck 1", DistanceKm: 100, StartTimestamp: "2024-03-01 08:00:00", EndTimestamp: "2024-03-01 12:00:00", OdometerKm: &odo},
		{Plate: "XYZ9876", DistanceKm: 40, StartTimestamp: "2024-03-02 08:00:00", EndTimestamp: "2024-03-02 09:00:00"},
		{Plate: "ABC1234", DistanceKm: 50, StartTimestamp: "2024-03-03 08:00:00", EndTimestamp: "2024-03-03 09:00:00"},
	}
	var ids []int64
	for _, f := range inputs {
		id, err := repo.InsertTrip(ctx, f)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		ids = append(ids, id)
	}

	all, err := repo.ListTrips(ctx, ports.TripFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 trips, got %d", len(all))
	}
	for i, tr := range all {
		if tr.ID != ids[i] {
			t.Fatalf("trip %d: id=%d, want %d (insertion order)", i, tr.ID, ids[i])
		}
	}
	if all[0].OdometerKm == nil || *all[0].OdometerKm != odo {
		t.Fatalf("odometer not round-tripped: %+v", all[0].OdometerKm)
	}
	if all[1].OdometerKm != nil {
		t.Fatalf("expected nil odometer, got %v", *all[1].OdometerKm)
	}
	if !all[0].CreatedAt.Before(all[1].CreatedAt) {
		t.Fatalf("created_at not increasing: %v, %v", all[0].CreatedAt, all[1].CreatedAt)
	}

	onlyABC, err := repo.ListTrips(ctx, ports.TripFilter{Plate: " abc1234 "})
	if err != nil {
		t.Fatalf("list by plate: %v", err)
	}
	if len(onlyABC) != 2 {
		t.Fatalf("expected 2 ABC1234 trips, got %d", len(onlyABC))
	}

	ok, err := repo.DeleteTrip(ctx, ids[1])
	if err != nil || !ok {
		t.Fatalf("delete existing: ok=%v err=%v", ok, err)
	}
	ok, err = repo.DeleteTrip(ctx, ids[1])
	if err != nil || ok {
		t.Fatalf("delete missing: ok=%v err=%v", ok, err)
	}

	n, err := repo.DeleteAllTrips(ctx)
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if n != 2 {
		t.Fatalf("removed %d, want 2", n)
	}
}

func TestSqliteRateRepository_UpsertAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewSqliteRateRepository(newTestDB(t))

	for _, r := range []domain.Rate{{Plate: "ABC1234", PerKmValue: 5}, {Plate: "AAA0001", PerKmValue: 2}, {Plate: "ABC1234", PerKmValue: 6.5}} {
		if err := repo.UpsertRate(ctx, r); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	rates, err := repo.ListRates(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rates) != 2 || rates[0].Plate != "AAA0001" || rates[1].PerKmValue != 6.5 {
		t.Fatalf("unexpected rates: %+v", rates)
	}

	got, err := repo.RatesForPlates(ctx, []string{"ABC1234", "ABC1234", "", "NOPE000"})
	if err != nil {
		t.Fatalf("rates for plates: %v", err)
	}
	if len(got) != 1 || got["ABC1234"] != 6.5 {
		t.Fatalf("unexpected lookup: %v", got)
	}

	empty, err := repo.RatesForPlates(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty lookup: %v %v", empty, err)
	}
}

func TestSqliteSettlementRepository_LedgerByPeriod(t *testing.T) {
	ctx := context.Background()
	repo := NewSqliteSettlementRepository(newTestDB(t))
	repo.Now = stepClock(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))

	march, err := domain.ParsePeriod("2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatalf("period: %v", err)
	}
	april, err := domain.ParsePeriod("2024-04-01", "2024-04-30")
	if err != nil {
		t.Fatalf("period: %v", err)
	}

	entries := []domain.SettlementEntry{
		{Plate: "XYZ9876", Period: march, TotalKm: 40, PerKmValue: 2, AmountDue: 80},
		{Plate: "ABC1234", Period: march, TotalKm: 150, PerKmValue: 5, AmountDue: 750},
		{Plate: "ABC1234", Period: april, TotalKm: 10, PerKmValue: 5, AmountDue: 50},
	}
	for _, e := range entries {
		if _, err := repo.InsertEntry(ctx, e); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	got, err := repo.ListEntries(ctx, ports.EntryFilter{Period: &march})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].Plate != "ABC1234" || got[1].Plate != "XYZ9876" {
		t.Fatalf("expected plate-ordered march entries, got %+v", got)
	}
	if got[0].Period != march || got[0].AmountDue != 750 || got[0].CreatedAt.IsZero() {
		t.Fatalf("entry not round-tripped: %+v", got[0])
	}

	all, err := repo.ListEntries(ctx, ports.EntryFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("list all: %d entries, err=%v", len(all), err)
	}

	n, err := repo.DeletePeriod(ctx, march)
	if err != nil || n != 2 {
		t.Fatalf("delete period: n=%d err=%v", n, err)
	}
	n, err = repo.DeletePeriod(ctx, march)
	if err != nil || n != 0 {
		t.Fatalf("second delete: n=%d err=%v", n, err)
	}
}

func TestLoadRateSeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.json")
	if err := os.WriteFile(path, []byte(`[{"placa":"abc 1234","valor_km":5},{"placa":"XYZ9876","valor_km":2.5}]`), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	rates, err := LoadRateSeeds(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rates) != 2 || rates[0].Plate != "ABC1234" {
		t.Fatalf("unexpected seeds: %+v", rates)
	}

	repo := NewSqliteRateRepository(newTestDB(t))
	if err := SeedRates(context.Background(), repo, rates); err != nil {
		t.Fatalf("seed: %v", err)
	}
	listed, err := repo.ListRates(context.Background())
	if err != nil || len(listed) != 2 {
		t.Fatalf("listed=%v err=%v", listed, err)
	}
}

func TestLoadRateSeedsRejectsNegative(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.json")
	if err := os.WriteFile(path, []byte(`[{"placa":"ABC1234","valor_km":-1}]`), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	if _, err := LoadRateSeeds(path); err == nil {
		t.Fatalf("expected error for negative rate")
	}
}
