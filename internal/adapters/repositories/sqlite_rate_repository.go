package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"freight-settlement-service/internal/domain"
	"freight-settlement-service/internal/platform/obs"
	"strings"
)

// SQLite-backed implementation of the RateRepository port.
type SqliteRateRepository struct{ DB *sql.DB }

func NewSqliteRateRepository(db *sql.DB) *SqliteRateRepository {
	return &SqliteRateRepository{DB: db}
}

func (s *SqliteRateRepository) UpsertRate(ctx context.Context, rate domain.Rate) (err error) {
	defer obs.Time(ctx, "rates.sqlite.Upsert")(&err)

	if s.DB == nil {
		return errors.New("sqlite rate repository: DB is nil")
	}

	query := `
	INSERT INTO rates (plate, per_km_value)
	VALUES (?, ?)
	ON CONFLICT(plate) DO UPDATE SET per_km_value = excluded.per_km_value;
	`
	if _, err := s.DB.ExecContext(ctx, query, rate.Plate, rate.PerKmValue); err != nil {
		return fmt.Errorf("upsert rate plate=%s: %w", rate.Plate, err)
	}
	return nil
}

func (s *SqliteRateRepository) ListRates(ctx context.Context) (_ []domain.Rate, err error) {
	defer obs.Time(ctx, "rates.sqlite.List")(&err)

	if s.DB == nil {
		return nil, errors.New("sqlite rate repository: DB is nil")
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
			return nil, fmt.Errorf("list rates: scan row: %w", err)
		}
		rates = append(rates, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rates: row iteration: %w", err)
	}

	return rates, nil
}

// Fetch the rates for many plates in a single query.
func (s *SqliteRateRepository) RatesForPlates(ctx context.Context, plates []string) (_ map[string]float64, err error) {
	defer obs.Time(ctx, "rates.sqlite.ForPlates")(&err)

	if s.DB == nil {
		return nil, errors.New("sqlite rate repository: DB is nil")
	}

	uniq := uniquePlates(plates)
	if len(uniq) == 0 {
		return map[string]float64{}, nil
	}

	ph := make([]string, len(uniq))
	args := make([]any, len(uniq))
	for i, p := range uniq {
		ph[i] = "?"
		args[i] = p
	}

	// SQLite does not support binding slices directly in an IN (...) clause.
	// Only the placeholder structure is interpolated; all values remain parameterized.
	q := fmt.Sprintf(`
	SELECT plate, per_km_value
	FROM rates
	WHERE plate IN (%s);
	`, strings.Join(ph, ","))

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("rates for plates: query rates table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64, len(uniq))
	for rows.Next() {
		var plate string
		var v float64
		if err := rows.Scan(&plate, &v); err != nil {
			return nil, fmt.Errorf("rates for plates: scan row: %w", err)
		}
		out[plate] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rates for plates: row iteration: %w", err)
	}

	return out, nil
}

// uniquePlates drops blanks and duplicates, keeping first-seen order.
func uniquePlates(plates []string) []string {
	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(plates))
	for _, p := range plates {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		uniq = append(uniq, p)
	}
	return uniq
}
