package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"freight-settlement-service/internal/domain"
	"freight-settlement-service/internal/platform/obs"
)

// SQLRateRepository stores per-plate rates in Postgres.
type SQLRateRepository struct {
	DB *sql.DB
}

func NewSQLRateRepository(db *sql.DB) *SQLRateRepository {
	return &SQLRateRepository{DB: db}
}

func (s *SQLRateRepository) UpsertRate(ctx context.Context, rate domain.Rate) (err error) {
	defer obs.Time(ctx, "rates.sql.Upsert")(&err)

	if s.DB == nil {
		return errors.New("sql rate repository: db is nil")
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT INTO rates (plate, per_km_value)
	VALUES ($1, $2)
	ON CONFLICT (plate) DO UPDATE
	SET per_km_value = EXCLUDED.per_km_value;
	`, rate.Plate, rate.PerKmValue)
	if err != nil {
		return fmt.Errorf("upsert rate plate=%s: %w", rate.Plate, err)
	}
	return nil
}

func (s *SQLRateRepository) ListRates(ctx context.Context) (_ []domain.Rate, err error) {
	defer obs.Time(ctx, "rates.sql.List")(&err)

	if s.DB == nil {
		return nil, errors.New("sql rate repository: db is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT plate, per_km_value FROM rates ORDER BY plate ASC;`)
	if err != nil {
		return nil, fmt.Errorf("list rates: query rates table: %w", err)
	}
	defer rows.Close()

	rates := make([]domain.Rate, 0, 16)
	for rows.Next() {
		var r domain.Rate
		if err := rows.Scan(&r.Plate, &r.PerKmValue); err != nil {
			return nil, fmt.Errorf("list rates: scan rows: %w", err)
		}
		rates = append(rates, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rates: row iteration: %w", err)
	}
	return rates, nil
}

func (s *SQLRateRepository) RatesForPlates(ctx context.Context, plates []string) (_ map[string]float64, err error) {
	defer obs.Time(ctx, "rates.sql.ForPlates")(&err)

	if s.DB == nil {
		return nil, errors.New("sql rate repository: db is nil")
	}

	uniq := uniquePlates(plates)
	if len(uniq) == 0 {
		return map[string]float64{}, nil
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT plate, per_km_value
	FROM rates
	WHERE plate = ANY($1::text[]);
	`, uniq)
	if err != nil {
		return nil, fmt.Errorf("rates for plates: query rates table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64, len(uniq))
	for rows.Next() {
		var plate string
		var v float64
		if err := rows.Scan(&plate, &v); err != nil {
			return nil, fmt.Errorf("rates for plates: scan rows: %w", err)
		}
		out[plate] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rates for plates: row iteration: %w", err)
	}
	return out, nil
}
