package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/johnquangdev/diarized-transcriber/pkg/validator"

	"github.com/johnquangdev/diarized-transcriber/internal/adapter/handler"
	"github.com/johnquangdev/diarized-transcriber/internal/adapter/repository"
	domainrepo "github.com/johnquangdev/diarized-transcriber/internal/domain/repositories"
	"github.com/johnquangdev/diarized-transcriber/internal/infrastructure/cache"
	"github.com/johnquangdev/diarized-transcriber/internal/infrastructure/database"
	"github.com/johnquangdev/diarized-transcriber/internal/infrastructure/storage"
	"github.com/johnquangdev/diarized-transcriber/internal/usecase/transcription"
	"github.com/johnquangdev/diarized-transcriber/pkg/config"
	"github.com/johnquangdev/diarized-transcriber/pkg/stt"
)

// @title           Diarized Transcriber API
// @version         1.0
// @description     Speaker-diarized transcription of local audio files through Gladia or AssemblyAI

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath  /v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, "X-Request-ID"},
	}))

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	// Initialize job repository
	var jobRepo domainrepo.TranscriptionJobRepository
	if cfg.Database.Enabled {
		log.Println("📦 Connecting to database...")
		db, err := database.NewPostgresDB(cfg, logger)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.CloseDB(db)

		if cfg.Database.AutoMigrate {
			log.Println("🔄 Running sql-migrate migrations...")
			if err := database.Migrate(db, logger); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		} else {
			log.Println("🔄 Skipping migrations; DB_AUTO_MIGRATE is disabled")
		}
		jobRepo = repository.NewTranscriptionJobRepository(db)
	} else {
		log.Println("⚠️  Database disabled, jobs are kept in memory")
		jobRepo = repository.NewMemoryJobRepository()
	}

	// Initialize status cache
	var store cache.Store
	if cfg.Redis.Host != "" {
		log.Println("📦 Connecting to Redis...")
		redisStore, err := cache.NewRedisClient(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		store = redisStore
	} else {
		log.Println("⚠️  Redis not configured, using in-memory status cache")
		store = cache.NewMemoryStore()
	}
	defer store.Close()
	statusCache := cache.NewStatusCache(store, cfg.Redis.TTL)

	// Initialize artifact storage
	var artifacts transcription.ArtifactStore
	if cfg.Storage.Endpoint != "" {
		log.Println("🗄️  Connecting to object storage...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		minioClient, err := storage.NewMinIOClient(ctx, &cfg.Storage)
		cancel()
		if err != nil {
			log.Fatalf("Failed to connect to object storage: %v", err)
		}
		artifacts = minioClient
	} else {
		log.Println("⚠️  Object storage not configured, transcripts are kept in the job store only")
	}

	// Initialize transcription service
	log.Println("🎙️  Initializing transcription service...")
	providers := func(name string) (stt.Provider, error) {
		return stt.NewProvider(name, cfg, logger)
	}
	transcriptionService := transcription.NewTranscriptionService(jobRepo, statusCache, artifacts, providers, cfg, logger)

	if _, err := transcriptionService.RecoverInterruptedJobs(context.Background()); err != nil {
		log.Fatalf("Failed to recover interrupted jobs: %v", err)
	}

	transcriptionHandler := handler.NewTranscriptionHandler(transcriptionService, logger)

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(cfg, transcriptionHandler)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	// Running jobs get whatever is left of the shutdown window
	if err := transcriptionService.Shutdown(ctx); err != nil {
		log.Printf("⚠️  Transcription jobs cancelled: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
