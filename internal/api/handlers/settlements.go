package handlers

import (
	"fmt"
	"freight-settlement-service/internal/api/dto"
	"freight-settlement-service/internal/domain"
	"freight-settlement-service/internal/services"
	"log"
	"net/http"
	"strconv"
)

// SettlementHandler exposes preview, finalize, ledger and report endpoints.
type SettlementHandler struct {
	Service *services.SettlementService
}

// Preview computes the settlement for ?inicio=&fim= without persisting it.
func (h *SettlementHandler) Preview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	period, err := periodFromQuery(r)
	if err != nil {
		writeServiceError(w, r, "preview settlement", err)
		return
	}

	s, err := h.Service.Preview(r.Context(), period)
	if err != nil {
		writeServiceError(w, r, "preview settlement", err)
		return
	}

	res := dto.PreviewResponse{
		Period:     toPeriodDTO(period),
		Items:      make([]dto.SettlementItemResponse, 0, len(s.LineItems)),
		GrandTotal: s.GrandTotal,
	}
	for _, it := range s.LineItems {
		res.Items = append(res.Items, dto.SettlementItemResponse{
			Plate:      it.Plate,
			TotalKm:    it.TotalKm,
			PerKmValue: it.PerKmValue,
			AmountDue:  it.AmountDue,
		})
	}
	writeJSON(w, r, http.StatusOK, res)
}

// Finalize persists one ledger entry per plate for the body's period.
func (h *SettlementHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req dto.FinalizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	period, err := domain.ParsePeriod(req.Start, req.End)
	if err != nil {
		writeServiceError(w, r, "finalize settlement", err)
		return
	}

	entries, err := h.Service.Finalize(r.Context(), period)
	if err != nil {
		writeServiceError(w, r, "finalize settlement", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.FinalizeResponse{
		OK:       true,
		Period:   toPeriodDTO(period),
		Inserted: toEntryResponses(entries),
	})
}

// Settlements lists finalized periods (GET) or deletes one (DELETE ?inicio=&fim=).
func (h *SettlementHandler) Settlements(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listPeriods(w, r)
	case http.MethodDelete:
		h.deletePeriod(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
	}
}

func (h *SettlementHandler) listPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.Service.ListPeriods(r.Context())
	if err != nil {
		writeServiceError(w, r, "list settlement periods", err)
		return
	}

	res := make([]dto.PeriodSummaryResponse, 0, len(periods))
	for _, p := range periods {
		res = append(res, dto.PeriodSummaryResponse{
			Start:          p.Period.Start.String(),
			End:            p.Period.End.String(),
			FirstCreatedAt: p.FirstCreatedAt.UTC(),
			PlateCount:     p.DistinctPlateCount,
			TotalKm:        p.TotalKm,
			TotalAmountDue: p.TotalAmountDue,
		})
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *SettlementHandler) deletePeriod(w http.ResponseWriter, r *http.Request) {
	period, err := periodFromQuery(r)
	if err != nil {
		writeServiceError(w, r, "delete settlement period", err)
		return
	}

	n, err := h.Service.DeletePeriod(r.Context(), period)
	if err != nil {
		writeServiceError(w, r, "delete settlement period", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.RemovedResponse{OK: true, Removed: n})
}

// Entries lists the ledger entries of ?inicio=&fim=, plate ascending.
func (h *SettlementHandler) Entries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	period, err := periodFromQuery(r)
	if err != nil {
		writeServiceError(w, r, "list settlement entries", err)
		return
	}

	entries, err := h.Service.ListEntries(r.Context(), period)
	if err != nil {
		writeServiceError(w, r, "list settlement entries", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toEntryResponses(entries))
}

// Report downloads the finalized period as PDF (default) or ?format=xlsx.
func (h *SettlementHandler) Report(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	period, err := periodFromQuery(r)
	if err != nil {
		writeServiceError(w, r, "settlement report", err)
		return
	}

	var doc *services.Document
	switch format := r.URL.Query().Get("format"); format {
	case "", "pdf":
		doc, err = h.Service.GenerateReport(r.Context(), period)
	case "xlsx":
		doc, err = h.Service.ExportWorkbook(r.Context(), period)
	default:
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("unsupported format %q (pdf or xlsx)", format))
		return
	}
	if err != nil {
		writeServiceError(w, r, "settlement report", err)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Body); err != nil {
		log.Printf("write report failed: path=%s err=%v", r.URL.Path, err)
	}
}

func toPeriodDTO(p domain.Period) dto.PeriodDTO {
	return dto.PeriodDTO{Start: p.Start.String(), End: p.End.String()}
}

func toEntryResponses(entries []domain.SettlementEntry) []dto.EntryResponse {
	res := make([]dto.EntryResponse, 0, len(entries))
	for _, e := range entries {
		res = append(res, dto.EntryResponse{
			ID:         e.ID,
			Plate:      e.Plate,
			Start:      e.Period.Start.String(),
			End:        e.Period.End.String(),
			TotalKm:    e.TotalKm,
			PerKmValue: e.PerKmValue,
			AmountDue:  e.AmountDue,
			CreatedAt:  e.CreatedAt.UTC(),
		})
	}
	return res
}
