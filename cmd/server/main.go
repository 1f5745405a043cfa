package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"freight-settlement-service/internal/adapters/cache"
	"freight-settlement-service/internal/adapters/export"
	"freight-settlement-service/internal/adapters/htmlreport"
	"freight-settlement-service/internal/adapters/repositories"
	"freight-settlement-service/internal/api"
	"freight-settlement-service/internal/config"
	"freight-settlement-service/internal/platform/db"
	"freight-settlement-service/internal/platform/metrics"
	"freight-settlement-service/internal/ports"
	"freight-settlement-service/internal/services"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

type stores struct {
	trips  ports.TripRepository
	rates  ports.RateRepository
	ledger ports.SettlementRepository
}

// main is the application composition root.
// It wires concrete adapters (SQLite or Postgres, optional Redis) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	dsn := cfg.DBPath
	if cfg.DBDriver == db.DriverPostgres {
		dsn = cfg.DatabaseURL
	}
	conn, err := db.Open(cfg.DBDriver, dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	ctx := context.Background()
	st, err := initStores(ctx, conn, cfg.DBDriver)
	if err != nil {
		log.Fatal(err)
	}

	// Seed demo rates on startup for local runs.
	if err := seedRates(ctx, st.rates, cfg.SeedPath); err != nil {
		log.Fatal(err)
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()

		cached, err := cache.NewCachedRateRepository(st.rates, cache.NewRedisRateCache(client, cfg.RateCacheTTL))
		if err != nil {
			log.Fatal(err)
		}
		st.rates = cached
		log.Printf("rate cache enabled addr=%s ttl=%s", cfg.RedisAddr, cfg.RateCacheTTL)
	}

	metrics.Init()

	tripSvc, err := services.NewTripService(st.trips, htmlreport.NewParser())
	if err != nil {
		log.Fatal(err)
	}
	rateSvc, err := services.NewRateService(st.rates)
	if err != nil {
		log.Fatal(err)
	}
	settlementSvc, err := services.NewSettlementService(st.trips, st.rates, st.ledger, export.NewXLSXExporter(), cfg.PDF.Options())
	if err != nil {
		log.Fatal(err)
	}

	router := api.NewRouter(api.Deps{
		Trips:          tripSvc,
		Rates:          rateSvc,
		Settlements:    settlementSvc,
		HealthCheck:    conn.PingContext,
		MaxUploadFiles: cfg.MaxUploadFiles,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	// Write timeout leaves room for large report renders.
	log.Printf("Server listening addr=:%s driver=%s", cfg.Port, cfg.DBDriver)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

func initStores(ctx context.Context, conn *sql.DB, driver string) (stores, error) {
	switch driver {
	case db.DriverPostgres:
		if err := repositories.InitPostgresSchema(ctx, conn); err != nil {
			return stores{}, fmt.Errorf("init stores: %w", err)
		}
		return stores{
			trips:  repositories.NewSQLTripRepository(conn),
			rates:  repositories.NewSQLRateRepository(conn),
			ledger: repositories.NewSQLSettlementRepository(conn),
		}, nil
	default:
		if err := repositories.InitSchema(conn); err != nil {
			return stores{}, fmt.Errorf("init stores: %w", err)
		}
		return stores{
			trips:  repositories.NewSqliteTripRepository(conn),
			rates:  repositories.NewSqliteRateRepository(conn),
			ledger: repositories.NewSqliteSettlementRepository(conn),
		}, nil
	}
}

// seedRates fills an empty rate table from the seed file. A missing file is not an error.
func seedRates(ctx context.Context, repo ports.RateRepository, path string) error {
	if path == "" {
		return nil
	}
	existing, err := repo.ListRates(ctx)
	if err != nil {
		return fmt.Errorf("seed rates: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	rates, err := repositories.LoadRateSeeds(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("rate seed skipped path=%s (not found)", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed rates: %w", err)
	}
	if err := repositories.SeedRates(ctx, repo, rates); err != nil {
		return fmt.Errorf("seed rates: %w", err)
	}
	log.Printf("rate seed applied path=%s count=%d", path, len(rates))
	return nil
}
