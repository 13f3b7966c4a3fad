package main

import (
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/johnquangdev/diarized-transcriber/internal/infrastructure/database"
	"github.com/johnquangdev/diarized-transcriber/pkg/config"
)

func main() {
	down := flag.Bool("down", false, "Roll back instead of applying migrations")
	steps := flag.Int("steps", 1, "Number of migrations to roll back with -down, 0 for all")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database using GORM
	db, err := database.NewPostgresDB(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	if *down {
		if err := database.Rollback(db, logger, *steps); err != nil {
			log.Fatalf("❌ %v", err)
		}
		return
	}

	if err := database.Migrate(db, logger); err != nil {
		log.Fatalf("❌ %v", err)
	}
}
