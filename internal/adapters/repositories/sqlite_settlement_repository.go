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

// SQLite-backed settlement ledger.
type SqliteSettlementRepository struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewSqliteSettlementRepository(db *sql.DB) *SqliteSettlementRepository {
	return &SqliteSettlementRepository{DB: db, Now: time.Now}
}

// Append one entry. CreatedAt is stamped here when the caller left it zero.
func (s *SqliteSettlementRepository) InsertEntry(ctx context.Context, e domain.SettlementEntry) (_ int64, err error) {
	defer obs.Time(ctx, "settlements.sqlite.Insert")(&err)

	if s.DB == nil {
		return 0, errors.New("sqlite settlement repository: DB is nil")
	}

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.Now()
	}

	query := `
	INSERT INTO settlements (
		plate,
		period_start,
		period_end,
		km_total,
		per_km_value,
		amount_due,
		created_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?);
	`
	res, err := s.DB.ExecContext(ctx, query,
		e.Plate,
		e.Period.Start.String(),
		e.Period.End.String(),
		e.TotalKm,
		e.PerKmValue,
		e.AmountDue,
		createdAt.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("insert settlement plate=%s period=%s: %w", e.Plate, e.Period, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert settlement plate=%s: last insert id: %w", e.Plate, err)
	}
	return id, nil
}

func (s *SqliteSettlementRepository) ListEntries(ctx context.Context, filter ports.EntryFilter) (_ []domain.SettlementEntry, err error) {
	defer obs.Time(ctx, "settlements.sqlite.List")(&err)

	if s.DB == nil {
		return nil, errors.New("sqlite settlement repository: DB is nil")
	}

	var start, end string
	if filter.Period != nil {
		start, end = filter.Period.Start.String(), filter.Period.End.String()
	}

	query := `
	SELECT
		id,
		plate,
		period_start,
		period_end,
		km_total,
		per_km_value,
		amount_due,
		created_at
	FROM settlements
	WHERE (? = '' OR (period_start = ? AND period_end = ?))
	ORDER BY plate ASC, id ASC;
	`
	rows, err := s.DB.QueryContext(ctx, query, start, start, end)
	if err != nil {
		return nil, fmt.Errorf("list settlements: query settlements table: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.SettlementEntry, 0, 16)
	for rows.Next() {
		var (
			e                   domain.SettlementEntry
			pStart, pEnd, stamp string
		)
		if err := rows.Scan(&e.ID, &e.Plate, &pStart, &pEnd, &e.TotalKm, &e.PerKmValue, &e.AmountDue, &stamp); err != nil {
			return nil, fmt.Errorf("list settlements: scan row: %w", err)
		}
		e.Period = domain.Period{Start: domain.NormalizeDate(pStart), End: domain.NormalizeDate(pEnd)}
		if e.CreatedAt, err = time.Parse(sqliteTimeLayout, stamp); err != nil {
			return nil, fmt.Errorf("list settlements: parse created_at of entry %d: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list settlements: row iteration: %w", err)
	}

	return entries, nil
}

func (s *SqliteSettlementRepository) DeletePeriod(ctx context.Context, period domain.Period) (_ int64, err error) {
	defer obs.Time(ctx, "settlements.sqlite.DeletePeriod")(&err)

	if s.DB == nil {
		return 0, errors.New("sqlite settlement repository: DB is nil")
	}

	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM settlements WHERE period_start = ? AND period_end = ?;`,
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
