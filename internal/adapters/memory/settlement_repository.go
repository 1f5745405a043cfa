package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"freight-settlement-service/internal/domain"
	"freight-settlement-service/internal/ports"
)

// SettlementRepository is an in-memory settlement ledger.
type SettlementRepository struct {
	mu      sync.RWMutex
	nextID  int64
	entries []domain.SettlementEntry
	Now     func() time.Time
}

// NewSettlementRepository constructs an empty ledger.
func NewSettlementRepository() *SettlementRepository {
	return &SettlementRepository{Now: time.Now}
}

// InsertEntry appends an entry, stamping CreatedAt when it is zero.
func (r *SettlementRepository) InsertEntry(ctx context.Context, e domain.SettlementEntry) (int64, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	e.ID = r.nextID
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.Now()
	}
	r.entries = append(r.entries, e)
	return e.ID, nil
}

// ListEntries returns entries ordered by plate, then id.
func (r *SettlementRepository) ListEntries(ctx context.Context, filter ports.EntryFilter) ([]domain.SettlementEntry, error) {
	_ = ctx
	r.mu.RLock()
	out := make([]domain.SettlementEntry, 0, len(r.entries))
	for _, e := range r.entries {
		if filter.Period != nil && e.Period != *filter.Period {
			continue
		}
		out = append(out, e)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Plate != out[j].Plate {
			return out[i].Plate < out[j].Plate
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeletePeriod removes every entry whose period matches exactly.
func (r *SettlementRepository) DeletePeriod(ctx context.Context, period domain.Period) (int64, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.entries[:0]
	var n int64
	for _, e := range r.entries {
		if e.Period == period {
			n++
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return n, nil
}
