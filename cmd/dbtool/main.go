package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"freight-settlement-service/internal/adapters/repositories"
	"freight-settlement-service/internal/config"
	"freight-settlement-service/internal/platform/db"
	"freight-settlement-service/internal/ports"
	"log"

	"github.com/joho/godotenv"
)

// dbtool initializes the schema of the configured store and upserts the rate seed file.
func main() {
	skipSeed := flag.Bool("schema-only", false, "create the schema without seeding rates")
	flag.Parse()

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

	log.Printf("Initializing database schema driver=%s", cfg.DBDriver)
	rates, err := initSchema(ctx, conn, cfg.DBDriver)
	if err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	if *skipSeed {
		return
	}

	log.Printf("Seeding rates path=%s", cfg.SeedPath)
	seeds, err := repositories.LoadRateSeeds(cfg.SeedPath)
	if err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	if err := repositories.SeedRates(ctx, rates, seeds); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Printf("Seeding complete. count=%d", len(seeds))
}

func initSchema(ctx context.Context, conn *sql.DB, driver string) (ports.RateRepository, error) {
	if driver == db.DriverPostgres {
		if err := repositories.InitPostgresSchema(ctx, conn); err != nil {
			return nil, fmt.Errorf("init schema: %w", err)
		}
		return repositories.NewSQLRateRepository(conn), nil
	}
	if err := repositories.InitSchema(conn); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return repositories.NewSqliteRateRepository(conn), nil
}
