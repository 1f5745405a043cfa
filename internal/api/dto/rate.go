package dto

type RateRequest struct {
	Plate      string   `json:"placa"`
	PerKmValue *float64 `json:"valor_km"`
}

type RateResponse struct {
	Plate      string  `json:"placa"`
	PerKmValue float64 `json:"valor_km"`
}
