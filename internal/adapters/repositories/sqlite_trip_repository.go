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

// SQLite-backed implementation of the TripRepository port.
type SqliteTripRepository struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewSqliteTripRepository(db *sql.DB) *SqliteTripRepository {
	return &SqliteTripRepository{DB: db, Now: time.Now}
}

// Return trips ordered by insertion, optionally for a single plate.
func (s *SqliteTripRepository) ListTrips(ctx context.Context, filter ports.TripFilter) (_ []domain.Trip, err error) {
	defer obs.Time(ctx, "trips.sqlite.List")(&err)

	if s.DB == nil {
		return nil, errors.New("sqlite trip repository: DB is nil")
	}

	query := `
	SELECT
		id,
		plate,
		device_label,
		distance_km,
		start_ts,
		end_ts,
		odometer_km,
		created_at
	FROM trips
	WHERE (? = '' OR plate = ?)
	ORDER BY created_at ASC, id ASC;
	`
	plate := domain.NormalizePlate(filter.Plate)
	rows, err := s.DB.QueryContext(ctx, query, plate, plate)
	if err != nil {
		return nil, fmt.Errorf("list trips: query trips table: %w", err)
	}
	defer rows.Close()

	trips := make([]domain.Trip, 0, 64)
	for rows.Next() {
		var (
			t         domain.Trip
			odometer  sql.NullFloat64
			createdAt string
		)
		if err := rows.Scan(&t.ID, &t.Plate, &t.DeviceLabel, &t.DistanceKm, &t.StartTimestamp, &t.EndTimestamp, &odometer, &createdAt); err != nil {
			return nil, fmt.Errorf("list trips: scan row: %w", err)
		}
		if odometer.Valid {
			v := odometer.Float64
			t.OdometerKm = &v
		}
		if t.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("list trips: parse created_at of trip %d: %w", t.ID, err)
		}
		trips = append(trips, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list trips: row iteration: %w", err)
	}

	return trips, nil
}

// Store a trip stamped with the current time.
func (s *SqliteTripRepository) InsertTrip(ctx context.Context, fields domain.TripFields) (_ int64, err error) {
	defer obs.Time(ctx, "trips.sqlite.Insert")(&err)

	if s.DB == nil {
		return 0, errors.New("sqlite trip repository: DB is nil")
	}

	var odometer sql.NullFloat64
	if fields.OdometerKm != nil {
		odometer = sql.NullFloat64{Float64: *fields.OdometerKm, Valid: true}
	}

	query := `
	INSERT INTO trips (
		plate,
		device_label,
		distance_km,
		start_ts,
		end_ts,
		odometer_km,
		created_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?);
	`
	res, err := s.DB.ExecContext(ctx, query,
		fields.Plate,
		fields.DeviceLabel,
		fields.DistanceKm,
		fields.StartTimestamp,
		fields.EndTimestamp,
		odometer,
		s.Now().UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("insert trip plate=%s: %w", fields.Plate, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert trip plate=%s: last insert id: %w", fields.Plate, err)
	}
	return id, nil
}

func (s *SqliteTripRepository) DeleteTrip(ctx context.Context, id int64) (_ bool, err error) {
	defer obs.Time(ctx, "trips.sqlite.Delete")(&err)

	if s.DB == nil {
		return false, errors.New("sqlite trip repository: DB is nil")
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM trips WHERE id = ?;`, id)
	if err != nil {
		return false, fmt.Errorf("delete trip id=%d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete trip id=%d: rows affected: %w", id, err)
	}
	return n > 0, nil
}

func (s *SqliteTripRepository) DeleteAllTrips(ctx context.Context) (_ int64, err error) {
	defer obs.Time(ctx, "trips.sqlite.DeleteAll")(&err)

	if s.DB == nil {
		return 0, errors.New("sqlite trip repository: DB is nil")
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
