package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/diarized-transcriber/pkg/config"
	"github.com/johnquangdev/diarized-transcriber/pkg/middleware"
)

// Router holds all handlers
type Router struct {
	cfg                  *config.Config
	transcriptionHandler *Transcription
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, transcriptionHandler *Transcription) *Router {
	return &Router{
		cfg:                  cfg,
		transcriptionHandler: transcriptionHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupTranscriptionRoutes(v1)
}

// setupTranscriptionRoutes configures transcription job routes
func (rt *Router) setupTranscriptionRoutes(g *echo.Group) {
	group := g.Group("/transcriptions")

	if rt.transcriptionHandler != nil {
		requireJobID := middleware.RequireJobID()
		group.POST("", rt.transcriptionHandler.CreateTranscription)
		group.GET("/:id", rt.transcriptionHandler.GetTranscription, requireJobID)
		group.GET("/:id/status", rt.transcriptionHandler.GetTranscriptionStatus, requireJobID)
		group.GET("/:id/transcript", rt.transcriptionHandler.GetTranscript, requireJobID)
	} else {
		// Placeholder routes when handler is not initialized
		group.POST("", rt.notImplemented)
		group.GET("/:id", rt.notImplemented)
		group.GET("/:id/status", rt.notImplemented)
		group.GET("/:id/transcript", rt.notImplemented)
	}
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":   "This endpoint is not yet implemented",
		"path":    c.Request().URL.Path,
		"method":  c.Request().Method,
		"message": "Please initialize the required handler in main.go",
	})
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	environment := "development"
	if rt.cfg != nil {
		environment = rt.cfg.Server.Environment
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"time":        time.Now().Format(time.RFC3339),
		"environment": environment,
	})
}
