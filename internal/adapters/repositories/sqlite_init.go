package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"freight-settlement-service/internal/domain"
	"freight-settlement-service/internal/ports"
	"os"
)

// sqliteTimeLayout is fixed-width so TEXT ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02 15:04:05.000000"

// Initialize the SQLite database schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createTripsQuery := `
	CREATE TABLE IF NOT EXISTS trips (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		plate TEXT NOT NULL,
		device_label TEXT NOT NULL DEFAULT '',
		distance_km REAL NOT NULL DEFAULT 0,
		start_ts TEXT NOT NULL,
		end_ts TEXT NOT NULL,
		odometer_km REAL,
		created_at TEXT NOT NULL
	);
	`

	createTripsIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_trips_plate ON trips(plate);
	`

	createRatesQuery := `
	CREATE TABLE IF NOT EXISTS rates (
		plate TEXT PRIMARY KEY,
		per_km_value REAL NOT NULL
	);
	`

	createSettlementsQuery := `
	CREATE TABLE IF NOT EXISTS settlements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		plate TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		km_total REAL NOT NULL,
		per_km_value REAL NOT NULL,
		amount_due REAL NOT NULL,
		created_at TEXT NOT NULL
	);
	`

	createSettlementsIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_settlements_period
	ON settlements(period_start, period_end);
	`

	statements := []string{
		createTripsQuery,
		createTripsIndexQuery,
		createRatesQuery,
		createSettlementsQuery,
		createSettlementsIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type RateSeed struct {
	Plate      string  `json:"placa"`
	PerKmValue float64 `json:"valor_km"`
}

// LoadRateSeeds reads and validates a JSON array of rate seeds.
func LoadRateSeeds(jsonPath string) ([]domain.Rate, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("seed rates: read %q: %w", jsonPath, err)
	}

	var data []RateSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("seed rates: parse json: %w", err)
	}

	rates := make([]domain.Rate, 0, len(data))
	for i, item := range data {
		r, err := domain.NewRate(item.Plate, item.PerKmValue)
		if err != nil {
			return nil, fmt.Errorf("seed rates: item at index %d: %w", i+1, err)
		}
		rates = append(rates, r)
	}

	return rates, nil
}

// SeedRates upserts every rate through the given repository.
func SeedRates(ctx context.Context, repo ports.RateRepository, rates []domain.Rate) error {
	for _, r := range rates {
		if err := repo.UpsertRate(ctx, r); err != nil {
			return fmt.Errorf("seed rates: upsert plate=%s: %w", r.Plate, err)
		}
	}
	return nil
}
