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

// SQLTripRepository stores trips in Postgres.
type SQLTripRepository struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewSQLTripRepository(db *sql.DB) *SQLTripRepository {
	return &SQLTripRepository{DB: db, Now: time.Now}
}

func (s *SQLTripRepository) ListTrips(ctx context.Context, filter ports.TripFilter) (_ []domain.Trip, err error) {
	defer obs.Time(ctx, "trips.sql.List")(&err)

	if s.DB == nil {
		return nil, errors.New("sql trip repository: db is nil")
	}

	q := `
	SELECT id, plate, device_label, distance_km, start_ts, end_ts, odometer_km, created_at
	FROM trips
	WHERE ($1 = '' OR plate = $1)
	ORDER BY created_at ASC, id ASC;
	`
	rows, err := s.DB.QueryContext(ctx, q, domain.NormalizePlate(filter.Plate))
	if err != nil {
		return nil, fmt.Errorf("list trips: query trips table: %w", err)
	}
	defer rows.Close()

	trips := make([]domain.Trip, 0, 64)
	for rows.Next() {
		var t domain.Trip
		var odometer sql.NullFloat64
		if err := rows.Scan(&t.ID, &t.Plate, &t.DeviceLabel, &t.DistanceKm, &t.StartTimestamp, &t.EndTimestamp, &odometer, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("list trips: scan rows: %w", err)
		}
		if odometer.Valid {
			v := odometer.Float64
			t.OdometerKm = &v
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list trips: row iteration: %w", err)
	}

	return trips, nil
}

func (s *SQLTripRepository) InsertTrip(ctx context.Context, fields domain.TripFields) (_ int64, err error) {
	defer obs.Time(ctx, "trips.sql.Insert")(&err)

	if s.DB == nil {
		return 0, errors.New("sql trip repository: db is nil")
	}

	var odometer sql.NullFloat64
	if fields.OdometerKm != nil {
		odometer = sql.NullFloat64{Float64: *fields.OdometerKm, Valid: true}
	}

	var id int64
	err = s.DB.QueryRowContext(ctx, `
	INSERT INTO trips (plate, device_label, distance_km, start_ts, end_ts, odometer_km, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id;
	`,
		fields.Plate,
		fields.DeviceLabel,
		fields.DistanceKm,
		fields.StartTimestamp,
		fields.EndTimestamp,
		odometer,
		s.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert trip plate=%s: %w", fields.Plate, err)
	}
	return id, nil
}

func (s *SQLTripRepository) DeleteTrip(ctx context.Context, id int64) (_ bool, err error) {
	defer obs.Time(ctx, "trips.sql.Delete")(&err)

	if s.DB == nil {
		return false, errors.New("sql trip repository: db is nil")
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM trips WHERE id = $1;`, id)
	if err != nil {
		return false, fmt.Errorf("delete trip id=%d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete trip id=%d: rows affected: %w", id, err)
	}
	return n > 0, nil
}

func (s *SQLTripRepository) DeleteAllTrips(ctx context.Context) (_ int64, err error) {
	defer obs.Time(ctx, "trips.sql.DeleteAll")(&err)

	if s.DB == nil {
		return 0, errors.New("sql trip repository: db is nil")
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM trips;`)
	if err != nil {
		return 0, fmt.Errorf("delete all trips: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete all trips: rows affected: %w", err)
	}
	return n, nil
}
