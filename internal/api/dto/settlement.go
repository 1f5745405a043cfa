package dto

import "time"

type PeriodDTO struct {
	Start string `json:"inicio"`
	End   string `json:"fim"`
}

type FinalizeRequest struct {
	Start string `json:"inicio"`
	End   string `json:"fim"`
}

type SettlementItemResponse struct {
	Plate      string  `json:"placa"`
	TotalKm    float64 `json:"km_total"`
	PerKmValue float64 `json:"valor_km"`
	AmountDue  float64 `json:"total_pagar"`
}

type PreviewResponse struct {
	Period     PeriodDTO                `json:"periodo"`
	Items      []SettlementItemResponse `json:"dados"`
	GrandTotal float64                  `json:"soma_geral"`
}

type EntryResponse struct {
	ID         int64     `json:"id"`
	Plate      string    `json:"placa"`
	Start      string    `json:"periodo_inicio"`
	End        string    `json:"periodo_fim"`
	TotalKm    float64   `json:"km_total"`
	PerKmValue float64   `json:"valor_km"`
	AmountDue  float64   `json:"total_pagar"`
	CreatedAt  time.Time `json:"created_at"`
}

type FinalizeResponse struct {
	OK       bool            `json:"ok"`
	Period   PeriodDTO       `json:"periodo"`
	Inserted []EntryResponse `json:"inseridos"`
}

type PeriodSummaryResponse struct {
	Start          string    `json:"inicio"`
	End            string    `json:"fim"`
	FirstCreatedAt time.Time `json:"criado_em"`
	PlateCount     int       `json:"total_placas"`
	TotalKm        float64   `json:"km_total"`
	TotalAmountDue float64   `json:"total_pagar"`
}
