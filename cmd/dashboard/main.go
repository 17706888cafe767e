package main

import (
	"log"

	"churnscope/adapters/postgres"
	"churnscope/app"
	"churnscope/internal/config"
	"churnscope/ui"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// The dashboard reads stored runs only, so it connects without running
// migrations; deploy it next to an API server or CLI that owns the schema.
func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	gin.SetMode(cfg.Server.GinMode)

	dsn, err := cfg.Database.Require()
	if err != nil {
		log.Fatalf("Failed to resolve database: %v", err)
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	reader := app.NewReaderService(
		postgres.NewManifestRepository(db),
		postgres.NewReportRepository(db),
	)

	dashboard, err := ui.NewDashboard(reader)
	if err != nil {
		log.Fatal("Failed to create dashboard:", err)
	}

	log.Fatal(dashboard.Start(":" + cfg.Server.DashboardPort))
}
