package handlers

import (
	"errors"
	"fmt"
	"freight-settlement-service/internal/api/dto"
	"freight-settlement-service/internal/domain"
	"freight-settlement-service/internal/services"
	"io"
	"net/http"
	"strconv"
	"time"
)

// TripHandler exposes report import and trip maintenance endpoints.
type TripHandler struct {
	Service  *services.TripService
	MaxFiles int
	MaxBytes int64
}

// Import accepts up to MaxFiles tracker reports in the multipart field "files".
func (h *TripHandler) Import(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, r, http.StatusBadRequest, "invalid multipart body")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, r, http.StatusBadRequest, "no files uploaded")
		return
	}
	if len(headers) > h.MaxFiles {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("at most %d files per upload", h.MaxFiles))
		return
	}

	files := make([]services.ReportFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			writeError(w, r, http.StatusBadRequest, fmt.Sprintf("cannot open %q", fh.Filename))
			return
		}
		body, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			writeError(w, r, http.StatusBadRequest, fmt.Sprintf("cannot read %q", fh.Filename))
			return
		}
		files = append(files, services.ReportFile{Name: fh.Filename, Body: body})
	}

	res, err := h.Service.ImportReports(r.Context(), files)
	if err != nil {
		writeServiceError(w, r, "import reports", err)
		return
	}

	out := dto.ImportResponse{
		OK:       true,
		Count:    len(res.Inserted),
		Plates:   res.Plates,
		Inserted: make([]dto.TripResponse, 0, len(res.Inserted)),
		Rejected: make([]dto.RejectedFileResponse, 0, len(res.Rejected)),
	}
	for _, t := range res.Inserted {
		out.Inserted = append(out.Inserted, toTripResponse(t))
	}
	for _, rej := range res.Rejected {
		out.Rejected = append(out.Rejected, dto.RejectedFileResponse{File: rej.Name, Reason: rej.Reason})
	}

	writeJSON(w, r, http.StatusOK, out)
}

func (h *TripHandler) Plates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	plates, err := h.Service.ListPlates(r.Context())
	if err != nil {
		writeServiceError(w, r, "list plates", err)
		return
	}
	writeJSON(w, r, http.StatusOK, plates)
}

// List returns trips, optionally for one plate given as ?placa=.
func (h *TripHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	trips, err := h.Service.ListTrips(r.Context(), r.URL.Query().Get("placa"))
	if err != nil {
		writeServiceError(w, r, "list trips", err)
		return
	}

	res := make([]dto.TripResponse, 0, len(trips))
	for _, t := range trips {
		res = append(res, toTripResponse(t))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *TripHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	sum, err := h.Service.Summary(r.Context())
	if err != nil {
		writeServiceError(w, r, "trip summary", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.SummaryResponse{PlateCount: sum.PlateCount, TotalKm: sum.TotalKm})
}

// Delete removes the trip named by the {id} path segment.
func (h *TripHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "trip id must be an integer")
		return
	}

	ok, err := h.Service.DeleteTrip(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "delete trip", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.OKResponse{OK: ok})
}

func (h *TripHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}

	n, err := h.Service.DeleteAllTrips(r.Context())
	if err != nil {
		writeServiceError(w, r, "delete all trips", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.RemovedResponse{OK: true, Removed: n})
}

func toTripResponse(t domain.Trip) dto.TripResponse {
	res := dto.TripResponse{
		ID:          t.ID,
		Plate:       t.Plate,
		DeviceLabel: t.DeviceLabel,
		DistanceKm:  t.DistanceKm,
		Start:       t.StartTimestamp,
		End:         t.EndTimestamp,
		OdometerKm:  t.OdometerKm,
		Sequence:    t.Sequence,
	}
	if !t.CreatedAt.IsZero() {
		created := t.CreatedAt.UTC().Truncate(time.Second)
		res.CreatedAt = &created
	}
	return res
}
