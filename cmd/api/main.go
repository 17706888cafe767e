package main

import (
	"context"
	"log"

	"churnscope/adapters/postgres"
	"churnscope/app"
	"churnscope/internal/config"
	"churnscope/internal/errors"
	"churnscope/internal/migration"
	"churnscope/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initDatabase connects to PostgreSQL and brings the schema up to date
func initDatabase(cfg *config.Config) (*sqlx.DB, error) {
	dsn, err := cfg.Database.Require()
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	customers := postgres.NewCustomerRepository(db)
	manifests := postgres.NewManifestRepository(db)
	reports := postgres.NewReportRepository(db)

	reader := app.NewReaderService(manifests, reports)
	runner := app.NewRunService(app.NewPipelineService(cfg), customers, manifests, reports)

	api := ui.NewApp(reader, runner)
	log.Printf("🚀 Starting ChurnScope API on port %s", cfg.Server.APIPort)
	log.Fatal(api.Start(":" + cfg.Server.APIPort))
}
