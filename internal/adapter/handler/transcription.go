package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/diarized-transcriber/errors"
	"github.com/johnquangdev/diarized-transcriber/internal/adapter/dto/transcription"
	"github.com/johnquangdev/diarized-transcriber/internal/adapter/presenter"
	transcriptionuc "github.com/johnquangdev/diarized-transcriber/internal/usecase/transcription"
	"github.com/johnquangdev/diarized-transcriber/pkg/middleware"
)

// Transcription handles transcription job endpoints
type Transcription struct {
	svc    transcriptionuc.Service
	logger *zap.Logger
}

// NewTranscriptionHandler creates a new transcription handler
func NewTranscriptionHandler(svc transcriptionuc.Service, logger *zap.Logger) *Transcription {
	return &Transcription{svc: svc, logger: logger}
}

// CreateTranscription starts a background transcription job
// @Summary      Start transcription
// @Description  Uploads a local audio file to the speech-to-text provider and runs the job in the background
// @Tags         Transcriptions
// @Accept       json
// @Produce      json
// @Param        request  body      transcription.CreateTranscriptionRequest  true  "Audio file and options"
// @Success      202      {object}  transcription.TranscriptionJobResponse    "Job accepted"
// @Failure      400      {object}  map[string]interface{}                    "Invalid payload or unreadable file"
// @Failure      503      {object}  map[string]interface{}                    "Service shutting down"
// @Router       /transcriptions [post]
func (h *Transcription) CreateTranscription(c echo.Context) error {
	var req transcription.CreateTranscriptionRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	job, err := h.svc.Submit(c.Request().Context(), transcriptionuc.Request{
		FilePath:    req.FilePath,
		Provider:    req.Provider,
		Diarization: req.Diarization,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccessWithStatus(h.logger, c, http.StatusAccepted, presenter.ToTranscriptionJobResponse(job, ""))
}

// GetTranscription returns a job with its blocks
// @Summary      Get transcription job
// @Tags         Transcriptions
// @Produce      json
// @Param        id   path      string  true  "Job ID (UUID)"
// @Success      200  {object}  transcription.TranscriptionJobResponse
// @Failure      400  {object}  map[string]interface{}  "Invalid job ID"
// @Failure      404  {object}  map[string]interface{}  "Job not found"
// @Router       /transcriptions/{id} [get]
func (h *Transcription) GetTranscription(c echo.Context) error {
	jobID, err := jobIDFrom(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	ctx := c.Request().Context()
	job, err := h.svc.GetJob(ctx, jobID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	artifactURL, err := h.svc.ArtifactURL(ctx, job)
	if err != nil {
		// The job itself is still worth returning
		if h.logger != nil {
			h.logger.Warn("⚠️ Failed to presign transcript artifact",
				zap.String("job_id", jobID.String()),
				zap.Error(err))
		}
		artifactURL = ""
	}

	return HandleSuccess(h.logger, c, presenter.ToTranscriptionJobResponse(job, artifactURL))
}

// GetTranscriptionStatus returns the cached lifecycle state of a job
// @Summary      Get transcription status
// @Tags         Transcriptions
// @Produce      json
// @Param        id   path      string  true  "Job ID (UUID)"
// @Success      200  {object}  transcription.JobStatusResponse
// @Failure      404  {object}  map[string]interface{}  "Job not found"
// @Router       /transcriptions/{id}/status [get]
func (h *Transcription) GetTranscriptionStatus(c echo.Context) error {
	jobID, err := jobIDFrom(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	status, err := h.svc.GetStatus(c.Request().Context(), jobID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToJobStatusResponse(status))
}

// GetTranscript returns the rendered transcript as plain text
// @Summary      Download transcript
// @Tags         Transcriptions
// @Produce      plain
// @Param        id   path      string  true  "Job ID (UUID)"
// @Success      200  {string}  string
// @Failure      404  {object}  map[string]interface{}  "Job not found"
// @Failure      409  {object}  map[string]interface{}  "Transcript not ready"
// @Router       /transcriptions/{id}/transcript [get]
func (h *Transcription) GetTranscript(c echo.Context) error {
	jobID, err := jobIDFrom(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	text, err := h.svc.GetTranscript(c.Request().Context(), jobID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return c.String(http.StatusOK, text)
}

// jobIDFrom reads the ID parsed by middleware.RequireJobID
func jobIDFrom(c echo.Context) (uuid.UUID, error) {
	jobID, ok := middleware.JobID(c)
	if !ok {
		return uuid.Nil, errors.ErrInvalidArgument("Invalid job ID").WithDetail("id", c.Param("id"))
	}
	return jobID, nil
}
