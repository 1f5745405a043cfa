package export

import (
	"bytes"
	"fmt"
	"freight-settlement-service/internal/domain"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "resumo"
	tripsSheet   = "viagens"
)

// XLSXExporter renders a finalized period as a two-sheet workbook.
type XLSXExporter struct{}

func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// ExportStatement writes per-plate totals to "resumo" and the contributing
// trips, valued at each entry's frozen rate, to "viagens".
func (x *XLSXExporter) ExportStatement(meta domain.ReportMeta, sections []domain.ReportSection, grandTotal float64) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("export statement: rename sheet: %w", err)
	}
	if _, err := f.NewSheet(tripsSheet); err != nil {
		return nil, fmt.Errorf("export statement: new sheet: %w", err)
	}

	_ = f.SetCellValue(summarySheet, "A1", "Fechamento de frete")
	_ = f.SetCellValue(summarySheet, "A2", "Início")
	_ = f.SetCellValue(summarySheet, "B2", meta.Period.Start.String())
	_ = f.SetCellValue(summarySheet, "A3", "Fim")
	_ = f.SetCellValue(summarySheet, "B3", meta.Period.End.String())
	_ = f.SetCellValue(summarySheet, "A4", "Gerado em")
	_ = f.SetCellValue(summarySheet, "B4", meta.GeneratedAt.Format("2006-01-02 15:04:05"))

	header := []any{"Placa", "Km total", "Valor/km", "Total a pagar"}
	if err := f.SetSheetRow(summarySheet, "A6", &header); err != nil {
		return nil, fmt.Errorf("export statement: summary header: %w", err)
	}
	row := 7
	for _, s := range sections {
		values := []any{s.Entry.Plate, s.Entry.TotalKm, s.Entry.PerKmValue, s.Entry.AmountDue}
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return nil, fmt.Errorf("export statement: summary row %d: %w", row, err)
		}
		row++
	}
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row+1), "Total geral")
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("D%d", row+1), grandTotal)

	tripHeader := []any{"Placa", "Viagem", "Início", "Fim", "Km", "Valor"}
	if err := f.SetSheetRow(tripsSheet, "A1", &tripHeader); err != nil {
		return nil, fmt.Errorf("export statement: trips header: %w", err)
	}
	row = 2
	for _, s := range sections {
		for _, t := range s.Trips {
			values := []any{s.Entry.Plate, t.Trip.Sequence, t.Trip.StartTimestamp, t.Trip.EndTimestamp, t.Trip.DistanceKm, t.AmountDue}
			if err := f.SetSheetRow(tripsSheet, fmt.Sprintf("A%d", row), &values); err != nil {
				return nil, fmt.Errorf("export statement: trips row %d: %w", row, err)
			}
			row++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("export statement: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
