package services

import (
	"freight-settlement-service/internal/domain"
	"sort"
)

// SummarizePeriods groups ledger entries by their exact period.
//
// Each summary carries the earliest creation time among its entries, the
// number of distinct plates, and cent-rounded km and amount totals.
// Summaries are ordered by that creation time, newest first.
func SummarizePeriods(entries []domain.SettlementEntry) []domain.PeriodSummary {
	type acc struct {
		summary domain.PeriodSummary
		plates  map[string]struct{}
	}

	groups := make(map[domain.Period]*acc)
	order := make([]domain.Period, 0)
	for _, e := range entries {
		g, ok := groups[e.Period]
		if !ok {
			g = &acc{
				summary: domain.PeriodSummary{Period: e.Period, FirstCreatedAt: e.CreatedAt},
				plates:  make(map[string]struct{}),
			}
			groups[e.Period] = g
			order = append(order, e.Period)
		}
		if e.CreatedAt.Before(g.summary.FirstCreatedAt) {
			g.summary.FirstCreatedAt = e.CreatedAt
		}
		g.plates[e.Plate] = struct{}{}
		g.summary.TotalKm += e.TotalKm
		g.summary.TotalAmountDue += e.AmountDue
	}

	out := make([]domain.PeriodSummary, 0, len(order))
	for _, p := range order {
		g := groups[p]
		g.summary.DistinctPlateCount = len(g.plates)
		g.summary.TotalKm = domain.Round2(g.summary.TotalKm)
		g.summary.TotalAmountDue = domain.Round2(g.summary.TotalAmountDue)
		out = append(out, g.summary)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].FirstCreatedAt.Equal(out[j].FirstCreatedAt) {
			return out[i].FirstCreatedAt.After(out[j].FirstCreatedAt)
		}
		return out[i].Period.Start.After(out[j].Period.Start)
	})
	return out
}
