package ports

import (
	"context"
	"freight-settlement-service/internal/domain"
)

// Optional narrowing of a ledger query. A nil Period selects every entry.
type EntryFilter struct {
	Period *domain.Period
}

// Port: the durable settlement ledger. Entries are immutable once inserted.
type SettlementRepository interface {
	// Append one entry and return its assigned id.
	InsertEntry(ctx context.Context, entry domain.SettlementEntry) (int64, error)
	// Return entries ordered by plate, then id.
	ListEntries(ctx context.Context, filter EntryFilter) ([]domain.SettlementEntry, error)
	// Delete every entry whose period matches exactly; return the count removed.
	DeletePeriod(ctx context.Context, period domain.Period) (int64, error)
}
