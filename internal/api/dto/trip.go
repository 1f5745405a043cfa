package dto

import "time"

type TripResponse struct {
	ID          int64      `json:"id"`
	Plate       string     `json:"placa"`
	DeviceLabel string     `json:"dispositivo"`
	DistanceKm  float64    `json:"kmPercurso"`
	Start       string     `json:"inicio"`
	End         string     `json:"fim"`
	OdometerKm  *float64   `json:"odometro"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	Sequence    int        `json:"numero,omitempty"`
}

type RejectedFileResponse struct {
	File   string `json:"arquivo"`
	Reason string `json:"motivo"`
}

type ImportResponse struct {
	OK       bool                   `json:"ok"`
	Count    int                    `json:"count"`
	Plates   []string               `json:"placasDoLote"`
	Inserted []TripResponse         `json:"inseridos"`
	Rejected []RejectedFileResponse `json:"rejected"`
}

type SummaryResponse struct {
	PlateCount int     `json:"totalPlacas"`
	TotalKm    float64 `json:"totalKm"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

type RemovedResponse struct {
	OK      bool  `json:"ok"`
	Removed int64 `json:"removidos"`
}
