package api

import (
	"context"
	"freight-settlement-service/internal/api/handlers"
	"freight-settlement-service/internal/services"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies of the HTTP layer.
type Deps struct {
	Trips       *services.TripService
	Rates       *services.RateService
	Settlements *services.SettlementService

	// HealthCheck, when set, is run by /health (typically a DB ping).
	HealthCheck func(ctx context.Context) error

	MaxUploadFiles int
	MaxUploadBytes int64
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	maxFiles := deps.MaxUploadFiles
	if maxFiles <= 0 {
		maxFiles = 20
	}
	maxBytes := deps.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}

	healthHandler := &handlers.HealthHandler{Check: deps.HealthCheck}
	tripHandler := &handlers.TripHandler{
		Service:  deps.Trips,
		MaxFiles: maxFiles,
		MaxBytes: maxBytes,
	}
	rateHandler := &handlers.RateHandler{Service: deps.Rates}
	settlementHandler := &handlers.SettlementHandler{Service: deps.Settlements}

	mux.HandleFunc("/health", healthHandler.Health)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/api/import", tripHandler.Import)
	mux.HandleFunc("/api/plates", tripHandler.Plates)
	mux.HandleFunc("/api/trips", tripHandler.List)
	mux.HandleFunc("/api/trips/{id}", tripHandler.Delete)
	mux.HandleFunc("/api/summary", tripHandler.Summary)
	mux.HandleFunc("/api/all", tripHandler.DeleteAll)

	mux.HandleFunc("/api/rate", rateHandler.Upsert)
	mux.HandleFunc("/api/rates", rateHandler.List)

	mux.HandleFunc("/api/fechamento", settlementHandler.Preview)
	mux.HandleFunc("/api/fechamento/finalizar", settlementHandler.Finalize)
	mux.HandleFunc("/api/settlements", settlementHandler.Settlements)
	mux.HandleFunc("/api/settlements/entries", settlementHandler.Entries)
	mux.HandleFunc("/api/settlements/report", settlementHandler.Report)

	return requestIDMiddleware(loggingMiddleware(mux))
}
