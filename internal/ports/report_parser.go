package ports

import "freight-settlement-service/internal/domain"

// Contract for turning a raw tracker report into trip fields.
type ReportParser interface {
	// Fails with domain.ErrIncompleteReport when plate, start or end is missing.
	ParseReport(raw []byte) (domain.TripFields, error)
}
