package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the Postgres schema. Safe to run on every start.
func InitPostgresSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init postgres schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init postgres schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`
		CREATE TABLE IF NOT EXISTS trips (
			id BIGSERIAL PRIMARY KEY,
			plate TEXT NOT NULL,
			device_label TEXT NOT NULL DEFAULT '',
			distance_km DOUBLE PRECISION NOT NULL DEFAULT 0,
			start_ts TEXT NOT NULL,
			end_ts TEXT NOT NULL,
			odometer_km DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		`,
		`CREATE INDEX IF NOT EXISTS idx_trips_plate ON trips(plate);`,
		`
		CREATE TABLE IF NOT EXISTS rates (
			plate TEXT PRIMARY KEY,
			per_km_value DOUBLE PRECISION NOT NULL CHECK (per_km_value >= 0)
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS settlements (
			id BIGSERIAL PRIMARY KEY,
			plate TEXT NOT NULL,
			period_start DATE NOT NULL,
			period_end DATE NOT NULL,
			km_total DOUBLE PRECISION NOT NULL,
			per_km_value DOUBLE PRECISION NOT NULL,
			amount_due DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		`,
		`CREATE INDEX IF NOT EXISTS idx_settlements_period ON settlements(period_start, period_end);`,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init postgres schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init postgres schema: commit tx: %w", err)
	}
	return nil
}
