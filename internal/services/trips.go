package services

import (
	"context"
	"errors"
	"fmt"
	"freight-settlement-service/internal/domain"
	"freight-settlement-service/internal/platform/metrics"
	"freight-settlement-service/internal/platform/obs"
	"freight-settlement-service/internal/ports"
	"sort"
)

// An uploaded tracker report.
type ReportFile struct {
	Name string
	Body []byte
}

// A report that could not be imported and why.
type RejectedReport struct {
	Name   string
	Reason string
}

type ImportResult struct {
	Inserted []domain.Trip
	// Distinct plates of the inserted trips, in first-seen order.
	Plates   []string
	Rejected []RejectedReport
}

// TripService handles report import and trip queries.
type TripService struct {
	trips  ports.TripRepository
	parser ports.ReportParser
}

func NewTripService(trips ports.TripRepository, parser ports.ReportParser) (*TripService, error) {
	if trips == nil || parser == nil {
		return nil, errors.New("trip service: repository and parser are required")
	}
	return &TripService{trips: trips, parser: parser}, nil
}

// ImportReports parses and stores each file in order.
//
// Files that fail to parse or validate are listed in Rejected and do not
// stop the batch. A storage failure aborts the batch; trips inserted before
// it remain stored.
func (s *TripService) ImportReports(ctx context.Context, files []ReportFile) (_ ImportResult, err error) {
	defer obs.Time(ctx, "trips.Import")(&err)

	res := ImportResult{Inserted: []domain.Trip{}, Plates: []string{}, Rejected: []RejectedReport{}}
	seen := make(map[string]struct{})
	defer func() {
		metrics.AddImportedTrips(len(res.Inserted))
		metrics.AddRejectedReports(len(res.Rejected))
	}()

	for _, f := range files {
		fields, err := s.parser.ParseReport(f.Body)
		if err == nil {
			err = fields.Validate()
		}
		if err != nil {
			res.Rejected = append(res.Rejected, RejectedReport{Name: f.Name, Reason: err.Error()})
			continue
		}

		id, err := s.trips.InsertTrip(ctx, fields)
		if err != nil {
			return res, fmt.Errorf("import reports: insert %q: %w", f.Name, err)
		}

		res.Inserted = append(res.Inserted, domain.Trip{
			ID:             id,
			Plate:          fields.Plate,
			DeviceLabel:    fields.DeviceLabel,
			DistanceKm:     fields.DistanceKm,
			StartTimestamp: fields.StartTimestamp,
			EndTimestamp:   fields.EndTimestamp,
			OdometerKm:     fields.OdometerKm,
		})
		if _, ok := seen[fields.Plate]; !ok {
			seen[fields.Plate] = struct{}{}
			res.Plates = append(res.Plates, fields.Plate)
		}
	}

	return res, nil
}

// ListTrips returns trips in (CreatedAt, ID) order with per-plate sequence numbers.
func (s *TripService) ListTrips(ctx context.Context, plate string) (_ []domain.Trip, err error) {
	defer obs.Time(ctx, "trips.List")(&err)

	trips, err := s.trips.ListTrips(ctx, ports.TripFilter{Plate: plate})
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	return NumberTrips(trips), nil
}

// ListPlates returns the distinct plates with at least one trip, ascending.
func (s *TripService) ListPlates(ctx context.Context) (_ []string, err error) {
	defer obs.Time(ctx, "trips.Plates")(&err)

	trips, err := s.trips.ListTrips(ctx, ports.TripFilter{})
	if err != nil {
		return nil, fmt.Errorf("list plates: %w", err)
	}
	plates := platesOf(trips)
	sort.Strings(plates)
	return plates, nil
}

// Summary counts plates and totals km over every stored trip.
func (s *TripService) Summary(ctx context.Context) (_ domain.TripSummary, err error) {
	defer obs.Time(ctx, "trips.Summary")(&err)

	trips, err := s.trips.ListTrips(ctx, ports.TripFilter{})
	if err != nil {
		return domain.TripSummary{}, fmt.Errorf("trip summary: %w", err)
	}

	var km float64
	for _, t := range trips {
		km += t.DistanceKm
	}
	return domain.TripSummary{PlateCount: len(platesOf(trips)), TotalKm: domain.Round2(km)}, nil
}

// DeleteTrip reports false when no trip had that id.
func (s *TripService) DeleteTrip(ctx context.Context, id int64) (_ bool, err error) {
	defer obs.Time(ctx, "trips.Delete")(&err)

	if id <= 0 {
		return false, fmt.Errorf("%w: trip id must be positive, got %d", domain.ErrValidation, id)
	}
	ok, err := s.trips.DeleteTrip(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete trip %d: %w", id, err)
	}
	return ok, nil
}

func (s *TripService) DeleteAllTrips(ctx context.Context) (_ int64, err error) {
	defer obs.Time(ctx, "trips.DeleteAll")(&err)

	n, err := s.trips.DeleteAllTrips(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete all trips: %w", err)
	}
	return n, nil
}

// NumberTrips sets Sequence to each trip's 1-based position within its
// plate. Input must already be in (CreatedAt, ID) order.
func NumberTrips(trips []domain.Trip) []domain.Trip {
	counts := make(map[string]int)
	out := make([]domain.Trip, len(trips))
	for i, t := range trips {
		counts[t.Plate]++
		t.Sequence = counts[t.Plate]
		out[i] = t
	}
	return out
}
