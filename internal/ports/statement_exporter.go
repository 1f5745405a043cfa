package ports

import "freight-settlement-service/internal/domain"

// Contract for rendering a finalized period as a spreadsheet.
type StatementExporter interface {
	ExportStatement(meta domain.ReportMeta, sections []domain.ReportSection, grandTotal float64) ([]byte, error)
}
