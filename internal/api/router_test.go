package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"freight-settlement-service/internal/adapters/export"
	"freight-settlement-service/internal/adapters/htmlreport"
	"freight-settlement-service/internal/adapters/memory"
	"freight-settlement-service/internal/api/dto"
	"freight-settlement-service/internal/platform/pdf"
	"freight-settlement-service/internal/services"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	trips := memory.NewTripRepository()
	rates := memory.NewRateRepository()
	ledger := memory.NewSettlementRepository()

	tripSvc, err := services.NewTripService(trips, htmlreport.NewParser())
	if err != nil {
		t.Fatalf("trip service: %v", err)
	}
	rateSvc, err := services.NewRateService(rates)
	if err != nil {
		t.Fatalf("rate service: %v", err)
	}
	settlementSvc, err := services.NewSettlementService(trips, rates, ledger, export.NewXLSXExporter(), pdf.DefaultOptions())
	if err != nil {
		t.Fatalf("settlement service: %v", err)
	}

	return NewRouter(Deps{
		Trips:          tripSvc,
		Rates:          rateSvc,
		Settlements:    settlementSvc,
		MaxUploadFiles: 3,
	})
}

func report(plate, start, end, km string) string {
	return `<table>
<tr><th>Dispositivo:</th><td>Truck // ` + plate + ` // x</td></tr>
<tr><th>Início da rota:</th><td>` + start + `</td></tr>
<tr><th>Final da rota:</th><td>` + end + `</td></tr>
<tr><th>Distância do percurso:</th><td>` + km + ` km</td></tr>
</table>`
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func do(t *testing.T, h http.Handler, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSettlementFlow(t *testing.T) {
	h := newTestRouter(t)

	body, ct := multipartBody(t, map[string]string{
		"a.html":   report("ABC1234", "01-10-2025 08:00:00", "01-10-2025 12:00:00", "100"),
		"b.html":   report("ABC1234", "2025-10-05 08:00:00", "2025-10-05 12:00:00", "50"),
		"bad.html": "<html>nothing here</html>",
	})
	rec := do(t, h, http.MethodPost, "/api/import", body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d body=%s", rec.Code, rec.Body.String())
	}
	var imported dto.ImportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &imported); err != nil {
		t.Fatalf("decode import: %v", err)
	}
	if imported.Count != 2 || len(imported.Rejected) != 1 || imported.Rejected[0].File != "bad.html" {
		t.Fatalf("unexpected import result: %+v", imported)
	}

	rec = do(t, h, http.MethodPost, "/api/rate", bytes.NewBufferString(`{"placa":"abc1234","valor_km":5}`), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("rate status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/fechamento?inicio=2025-10-01&fim=2025-10-10", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("preview status = %d body=%s", rec.Code, rec.Body.String())
	}
	var preview dto.PreviewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &preview); err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	if len(preview.Items) != 1 || preview.Items[0].TotalKm != 150 || preview.Items[0].AmountDue != 750 || preview.GrandTotal != 750 {
		t.Fatalf("unexpected preview: %+v", preview)
	}

	rec = do(t, h, http.MethodGet, "/api/settlements/report?inicio=2025-10-01&fim=2025-10-10", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("report before finalize: status = %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/api/fechamento/finalizar", bytes.NewBufferString(`{"inicio":"2025-10-01","fim":"2025-10-10"}`), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("finalize status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/settlements/report?inicio=2025-10-01&fim=2025-10-10", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("report status = %d body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "fechamento-2025-10-01-a-2025-10-10.pdf") {
		t.Fatalf("content disposition = %q", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-1.4")) {
		t.Fatalf("body is not a PDF")
	}

	rec = do(t, h, http.MethodGet, "/api/settlements/report?inicio=2025-10-01&fim=2025-10-10&format=xlsx", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Header().Get("Content-Disposition"), ".xlsx") {
		t.Fatalf("xlsx report: status=%d cd=%q", rec.Code, rec.Header().Get("Content-Disposition"))
	}

	rec = do(t, h, http.MethodGet, "/api/settlements", nil, "")
	var periods []dto.PeriodSummaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &periods); err != nil {
		t.Fatalf("decode periods: %v", err)
	}
	if len(periods) != 1 || periods[0].TotalAmountDue != 750 || periods[0].PlateCount != 1 {
		t.Fatalf("unexpected periods: %+v", periods)
	}

	rec = do(t, h, http.MethodDelete, "/api/settlements?inicio=2025-10-01&fim=2025-10-10", nil, "")
	var removed dto.RemovedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &removed); err != nil {
		t.Fatalf("decode delete: %v", err)
	}
	if removed.Removed != 1 {
		t.Fatalf("removidos = %d, want 1", removed.Removed)
	}
}

func TestPeriodValidation(t *testing.T) {
	h := newTestRouter(t)

	for _, target := range []string{
		"/api/fechamento",
		"/api/fechamento?inicio=2025-10-01",
		"/api/fechamento?inicio=01/10/2025&fim=2025-10-10",
		"/api/fechamento?inicio=2025-10-10&fim=2025-10-01",
	} {
		rec := do(t, h, http.MethodGet, target, nil, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPut, "/api/settlements", nil, "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "GET, DELETE" {
		t.Fatalf("Allow = %q", allow)
	}
}

func TestRateRequiresValue(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/rate", bytes.NewBufferString(`{"placa":"ABC1234"}`), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing valor_km: status = %d", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/api/rate", bytes.NewBufferString(`{"placa":"ABC1234","valor_km":-1}`), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative valor_km: status = %d", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/api/rate", bytes.NewBufferString(`{"placa":"ABC1234","valor_km":1,"extra":true}`), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field: status = %d", rec.Code)
	}
}

func TestImportLimitsFileCount(t *testing.T) {
	h := newTestRouter(t)

	body, ct := multipartBody(t, map[string]string{"1": "x", "2": "x", "3": "x", "4": "x"})
	rec := do(t, h, http.MethodPost, "/api/import", body, ct)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/api/import", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty upload: status = %d, want 400", rec.Code)
	}
}

func TestTripEndpoints(t *testing.T) {
	h := newTestRouter(t)

	body, ct := multipartBody(t, map[string]string{
		"a.html": report("XYZ9876", "2025-10-01 08:00:00", "2025-10-01 09:00:00", "12,5"),
	})
	if rec := do(t, h, http.MethodPost, "/api/import", body, ct); rec.Code != http.StatusOK {
		t.Fatalf("import status = %d", rec.Code)
	}

	rec := do(t, h, http.MethodGet, "/api/trips?placa=xyz9876", nil, "")
	var trips []dto.TripResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &trips); err != nil {
		t.Fatalf("decode trips: %v", err)
	}
	if len(trips) != 1 || trips[0].Sequence != 1 || trips[0].DistanceKm != 12.5 {
		t.Fatalf("unexpected trips: %+v", trips)
	}

	rec = do(t, h, http.MethodGet, "/api/summary", nil, "")
	var sum dto.SummaryResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &sum)
	if sum.PlateCount != 1 || sum.TotalKm != 12.5 {
		t.Fatalf("unexpected summary: %+v", sum)
	}

	rec = do(t, h, http.MethodDelete, "/api/trips/abc", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric id: status = %d", rec.Code)
	}

	rec = do(t, h, http.MethodDelete, "/api/trips/1", nil, "")
	var ok dto.OKResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &ok)
	if !ok.OK {
		t.Fatalf("expected delete ok")
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("X-Request-ID = %q", got)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected generated request id")
	}
}
