package handlers

import (
	"freight-settlement-service/internal/api/dto"
	"freight-settlement-service/internal/services"
	"net/http"
)

// RateHandler exposes per-plate rate endpoints.
type RateHandler struct {
	Service *services.RateService
}

func (h *RateHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req dto.RateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PerKmValue == nil {
		writeError(w, r, http.StatusBadRequest, "placa and valor_km are required")
		return
	}

	rate, err := h.Service.UpsertRate(r.Context(), req.Plate, *req.PerKmValue)
	if err != nil {
		writeServiceError(w, r, "upsert rate", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.RateResponse{Plate: rate.Plate, PerKmValue: rate.PerKmValue})
}

func (h *RateHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	rates, err := h.Service.ListRates(r.Context())
	if err != nil {
		writeServiceError(w, r, "list rates", err)
		return
	}

	res := make([]dto.RateResponse, 0, len(rates))
	for _, rt := range rates {
		res = append(res, dto.RateResponse{Plate: rt.Plate, PerKmValue: rt.PerKmValue})
	}
	writeJSON(w, r, http.StatusOK, res)
}
