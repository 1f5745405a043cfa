package domain

import "time"

// Header data for a settlement report.
type ReportMeta struct {
	Period      Period
	GeneratedAt time.Time
}

// One trip row of a report, valued at the entry's frozen rate.
type ReportTrip struct {
	Trip      Trip
	AmountDue float64
}

// Ledger entry of one plate together with the trips that produced it.
// Trip amounts are rounded individually and need not sum to Entry.AmountDue.
type ReportSection struct {
	Entry SettlementEntry
	Trips []ReportTrip
}
