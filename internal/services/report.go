package services

import (
	"context"
	"fmt"
	"freight-settlement-service/internal/domain"
	"freight-settlement-service/internal/platform/metrics"
	"freight-settlement-service/internal/platform/obs"
	"freight-settlement-service/internal/platform/pdf"
	"freight-settlement-service/internal/ports"
	"strings"
	"sync"
	"time"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	reportRowFormat = "%-19s %-19s %-8s %-10s"
	noTripsLine     = "  (nenhuma viagem encontrada no período)"
	reportTimeShape = "2006-01-02 15:04:05"
)

// Timestamp shapes seen in stored trips. Zoned values keep their own wall clock.
var tripTimestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	time.RFC3339Nano,
	"02-01-2006 15:04:05",
}

// reportTimestamp renders a trip timestamp in the 19-char table form.
// Values that do not parse are printed as stored.
func reportTimestamp(raw string) string {
	s := strings.TrimSpace(raw)
	for _, layout := range tripTimestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(reportTimeShape)
		}
	}
	return s
}

// TripLookup returns a plate's trips that lie inside period, in sequence order.
type TripLookup func(plate string, period domain.Period) []domain.Trip

// NewTripLookup indexes trips by plate and numbers them per plate.
func NewTripLookup(trips []domain.Trip) TripLookup {
	byPlate := make(map[string][]domain.Trip)
	for _, t := range NumberTrips(trips) {
		byPlate[t.Plate] = append(byPlate[t.Plate], t)
	}
	return func(plate string, period domain.Period) []domain.Trip {
		return TripsInPeriod(period, byPlate[plate])
	}
}

// BuildReportSections pairs each ledger entry with its contributing trips.
// Trip values use the entry's frozen rate and are rounded one by one.
func BuildReportSections(entries []domain.SettlementEntry, lookup TripLookup) []domain.ReportSection {
	sections := make([]domain.ReportSection, 0, len(entries))
	for _, e := range entries {
		var trips []domain.Trip
		if lookup != nil {
			trips = lookup(e.Plate, e.Period)
		}
		rows := make([]domain.ReportTrip, 0, len(trips))
		for _, t := range trips {
			rows = append(rows, domain.ReportTrip{Trip: t, AmountDue: domain.AmountDue(t.DistanceKm, e.PerKmValue)})
		}
		sections = append(sections, domain.ReportSection{Entry: e, Trips: rows})
	}
	return sections
}

// GrandTotal sums the entries' amounts, not the per-trip values.
func GrandTotal(entries []domain.SettlementEntry) float64 {
	var sum float64
	for _, e := range entries {
		sum += e.AmountDue
	}
	return domain.Round2(sum)
}

// BuildReportLines lays out the settlement report as plain text lines.
//
// Entries are expected in plate order. Each plate gets a header with its
// rate, km and amount, then a fixed-width table of its trips or a
// placeholder when none match. The last line is the grand total.
func BuildReportLines(meta domain.ReportMeta, entries []domain.SettlementEntry, lookup TripLookup) []string {
	lines := []string{
		"FECHAMENTO DE FRETE",
		fmt.Sprintf("Período: %s a %s", meta.Period.Start, meta.Period.End),
	}
	if !meta.GeneratedAt.IsZero() {
		lines = append(lines, "Gerado em: "+meta.GeneratedAt.Format(reportTimeShape))
	}
	lines = append(lines, "")

	for _, s := range BuildReportSections(entries, lookup) {
		e := s.Entry
		lines = append(lines,
			fmt.Sprintf("Placa: %s | Valor/km: R$ %.2f | Km total: %.2f | Total a pagar: R$ %.2f",
				e.Plate, e.PerKmValue, e.TotalKm, e.AmountDue),
		)

		if len(s.Trips) == 0 {
			lines = append(lines, noTripsLine, "")
			continue
		}

		lines = append(lines, fmt.Sprintf(reportRowFormat, "Início", "Fim", "Km", "Valor (R$)"))
		for _, t := range s.Trips {
			lines = append(lines, fmt.Sprintf(reportRowFormat,
				reportTimestamp(t.Trip.StartTimestamp),
				reportTimestamp(t.Trip.EndTimestamp),
				fmt.Sprintf("%.2f", t.Trip.DistanceKm),
				fmt.Sprintf("%.2f", t.AmountDue),
			))
		}
		lines = append(lines, "")
	}

	lines = append(lines, fmt.Sprintf("TOTAL GERAL: R$ %.2f", GrandTotal(entries)))
	return lines
}

// ReportFilename is "fechamento-<start>-a-<end>.<ext>".
func ReportFilename(period domain.Period, ext string) string {
	return fmt.Sprintf("fechamento-%s-a-%s.%s", period.Start, period.End, ext)
}

type reportSource struct {
	entries []domain.SettlementEntry
	trips   []domain.Trip
}

// loadReportSource reads the period's entries and all trips concurrently.
// An empty ledger period yields domain.ErrPeriodNotFound.
func (s *SettlementService) loadReportSource(ctx context.Context, period domain.Period) (reportSource, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg      sync.WaitGroup
		src     reportSource
		errOnce sync.Once
		loadErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			loadErr = err
			cancel()
		})
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		entries, err := s.ledger.ListEntries(ctx, ports.EntryFilter{Period: &period})
		if err != nil {
			fail(fmt.Errorf("load report: list entries: %w", err))
			return
		}
		src.entries = entries
	}()
	go func() {
		defer wg.Done()
		trips, err := s.trips.ListTrips(ctx, ports.TripFilter{})
		if err != nil {
			fail(fmt.Errorf("load report: list trips: %w", err))
			return
		}
		src.trips = trips
	}()
	wg.Wait()

	if loadErr != nil {
		return reportSource{}, loadErr
	}
	if len(src.entries) == 0 {
		return reportSource{}, fmt.Errorf("%w: %s", domain.ErrPeriodNotFound, period)
	}
	return src, nil
}

// GenerateReport renders the finalized period as a PDF.
func (s *SettlementService) GenerateReport(ctx context.Context, period domain.Period) (_ *Document, err error) {
	defer obs.Time(ctx, "settlement.GenerateReport")(&err)
	defer func() { metrics.IncSettlement("report", resultOf(err)) }()

	src, err := s.loadReportSource(ctx, period)
	if err != nil {
		return nil, err
	}

	meta := domain.ReportMeta{Period: period, GeneratedAt: s.now()}
	lines := BuildReportLines(meta, src.entries, NewTripLookup(src.trips))
	body := pdf.Render(lines, s.pdf)
	metrics.ObserveReportSize("pdf", len(body))

	return &Document{
		Filename:    ReportFilename(period, "pdf"),
		ContentType: ContentTypePDF,
		Body:        body,
	}, nil
}

// ExportWorkbook renders the finalized period as an XLSX workbook.
func (s *SettlementService) ExportWorkbook(ctx context.Context, period domain.Period) (_ *Document, err error) {
	defer obs.Time(ctx, "settlement.ExportWorkbook")(&err)
	defer func() { metrics.IncSettlement("export", resultOf(err)) }()

	if s.exporter == nil {
		return nil, fmt.Errorf("export workbook: no exporter configured")
	}

	src, err := s.loadReportSource(ctx, period)
	if err != nil {
		return nil, err
	}

	meta := domain.ReportMeta{Period: period, GeneratedAt: s.now()}
	sections := BuildReportSections(src.entries, NewTripLookup(src.trips))
	body, err := s.exporter.ExportStatement(meta, sections, GrandTotal(src.entries))
	if err != nil {
		return nil, fmt.Errorf("export workbook %s: %w", period, err)
	}
	metrics.ObserveReportSize("xlsx", len(body))

	return &Document{
		Filename:    ReportFilename(period, "xlsx"),
		ContentType: ContentTypeXLSX,
		Body:        body,
	}, nil
}
