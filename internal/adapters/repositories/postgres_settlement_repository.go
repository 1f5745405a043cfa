package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"freight-settlement-service/internal/domain"
	"freight-settlement-service/internal/platform/obs"
	"freight-settlement-service/internal/ports"
	"time"
)

// SQLSettlementRepository is the Postgres settlement ledger.
type SQLSettlementRepository struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewSQLSettlementRepository(db *sql.DB) *SQLSettlementRepository {
	return &SQLSettlementRepository{DB: db, Now: time.Now}
}

func (s *SQLSettlementRepository) InsertEntry(ctx context.Context, e domain.SettlementEntry) (_ int64, err error) {
	defer obs.Time(ctx, "settlements.sql.Insert")(&err)

	if s.DB == nil {
		return 0, errors.New("sql settlement repository: db is nil")
	}

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.Now()
	}

	var id int64
	err = s.DB.QueryRowContext(ctx, `
	INSERT INTO settlements (plate, period_start, period_end, km_total, per_km_value, amount_due, created_at)
	VALUES ($1, $2::date, $3::date, $4, $5, $6, $7)
	RETURNING id;
	`,
		e.Plate,
		e.Period.Start.String(),
		e.Period.End.String(),
		e.TotalKm,
		e.PerKmValue,
		e.AmountDue,
		createdAt.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert settlement plate=%s period=%s: %w", e.Plate, e.Period, err)
	}
	return id, nil
}

func (s *SQLSettlementRepository) ListEntries(ctx context.Context, filter ports.EntryFilter) (_ []domain.SettlementEntry, err error) {
	defer obs.Time(ctx, "settlements.sql.List")(&err)

	if s.DB == nil {
		return nil, errors.New("sql settlement repository: db is nil")
	}

	q := `
	SELECT
		id,
		plate,
		to_char(period_start, 'YYYY-MM-DD'),
		to_char(period_end, 'YYYY-MM-DD'),
		km_total,
		per_km_value,
		amount_due,
		created_at
	FROM settlements
	`
	var args []any
	if filter.Period != nil {
		q += "WHERE period_start = $1::date AND period_end = $2::date\n"
		args = append(args, filter.Period.Start.String(), filter.Period.End.String())
	}
	q += "ORDER BY plate ASC, id ASC;"

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list settlements: query settlements table: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.SettlementEntry, 0, 16)
	for rows.Next() {
		var e domain.SettlementEntry
		var pStart, pEnd string
		if err := rows.Scan(&e.ID, &e.Plate, &pStart, &pEnd, &e.TotalKm, &e.PerKmValue, &e.AmountDue, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("list settlements: scan rows: %w", err)
		}
		e.Period = domain.Period{Start: domain.NormalizeDate(pStart), End: domain.NormalizeDate(pEnd)}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list settlements: row iteration: %w", err)
	}
	return entries, nil
}

func (s *SQLSettlementRepository) DeletePeriod(ctx context.Context, period domain.Period) (_ int64, err error) {
	defer obs.Time(ctx, "settlements.sql.DeletePeriod")(&err)

	if s.DB == nil {
		return 0, errors.New("sql settlement repository: db is nil")
	}

	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM settlements WHERE period_start = $1::date AND period_end = $2::date;`,
		period.Start.String(), period.End.String(),
	)
	if err != nil {
		return 0, fmt.Errorf("delete settlement period=%s: %w", period, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete settlement period=%s: rows affected: %w", period, err)
	}
	return n, nil
}
