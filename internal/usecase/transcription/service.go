package transcription

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/diarized-transcriber/errors"
	"github.com/johnquangdev/diarized-transcriber/internal/domain/entities"
	domainrepo "github.com/johnquangdev/diarized-transcriber/internal/domain/repositories"
	"github.com/johnquangdev/diarized-transcriber/internal/usecase/diarization"
	"github.com/johnquangdev/diarized-transcriber/pkg/config"
	"github.com/johnquangdev/diarized-transcriber/pkg/jobcontext"
	"github.com/johnquangdev/diarized-transcriber/pkg/stt"
)

// Service defines transcription orchestration methods
type Service interface {
	Transcribe(ctx context.Context, req Request) (*entities.TranscriptionJob, error)
	Submit(ctx context.Context, req Request) (*entities.TranscriptionJob, error)
	GetJob(ctx context.Context, jobID uuid.UUID) (*entities.TranscriptionJob, error)
	GetStatus(ctx context.Context, jobID uuid.UUID) (*entities.JobStatus, error)
	GetTranscript(ctx context.Context, jobID uuid.UUID) (string, error)
	ArtifactURL(ctx context.Context, job *entities.TranscriptionJob) (string, error)
	RecoverInterruptedJobs(ctx context.Context) (int64, error)
	Shutdown(ctx context.Context) error
}

// Request describes a transcription to run
type Request struct {
	FilePath string
	// Provider overrides the configured provider when set.
	Provider string
	// Diarization overrides the configured mode when set.
	Diarization *bool
}

// StatusCache is the status snapshot cache
type StatusCache interface {
	SetStatus(ctx context.Context, status entities.JobStatus) error
	GetStatus(ctx context.Context, jobID uuid.UUID) (*entities.JobStatus, error)
	DeleteStatus(ctx context.Context, jobID uuid.UUID) error
}

// ArtifactStore stores finished transcripts
type ArtifactStore interface {
	UploadText(ctx context.Context, objectName string, content string) error
	GetFileURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// ProviderFactory builds the provider for a name
type ProviderFactory func(name string) (stt.Provider, error)

// ErrShuttingDown is returned by Submit once Shutdown has started
var ErrShuttingDown = apperrors.ErrServiceUnavailable("Transcription service is shutting down")

type transcriptionService struct {
	jobRepo   domainrepo.TranscriptionJobRepository
	cache     StatusCache
	artifacts ArtifactStore
	providers ProviderFactory
	formatter *diarization.Formatter
	cfg       *config.Config
	logger    *zap.Logger

	semaphore chan struct{} // limits concurrently running jobs
	baseCtx   context.Context
	cancelAll context.CancelFunc
	workerWg  sync.WaitGroup
	mu        sync.Mutex
	closing   bool
}

// NewTranscriptionService constructs the service. cache and artifacts may be nil.
func NewTranscriptionService(
	jobRepo domainrepo.TranscriptionJobRepository,
	cache StatusCache,
	artifacts ArtifactStore,
	providers ProviderFactory,
	cfg *config.Config,
	logger *zap.Logger,
) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxJobs := cfg.Transcription.MaxConcurrentJobs
	if maxJobs < 1 {
		maxJobs = 1
	}
	baseCtx, cancel := context.WithCancel(context.Background())

	return &transcriptionService{
		jobRepo:   jobRepo,
		cache:     cache,
		artifacts: artifacts,
		providers: providers,
		formatter: diarization.NewFormatter(diarization.Options{
			MaxGap: cfg.Transcription.MaxGap.Seconds(),
		}),
		cfg:       cfg,
		logger:    logger,
		semaphore: make(chan struct{}, maxJobs),
		baseCtx:   baseCtx,
		cancelAll: cancel,
	}
}

// Transcribe runs a job to completion on the caller's goroutine
func (s *transcriptionService) Transcribe(ctx context.Context, req Request) (*entities.TranscriptionJob, error) {
	job, provider, err := s.createJob(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.execute(ctx, job, provider); err != nil {
		return job, err
	}
	return job, nil
}

// Submit persists a pending job and runs it in the background
func (s *transcriptionService) Submit(ctx context.Context, req Request) (*entities.TranscriptionJob, error) {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return nil, ErrShuttingDown
	}
	s.workerWg.Add(1)
	s.mu.Unlock()

	job, provider, err := s.createJob(ctx, req)
	if err != nil {
		s.workerWg.Done()
		return nil, err
	}

	snapshot := *job
	go func() {
		defer s.workerWg.Done()
		if err := s.execute(s.baseCtx, job, provider); err != nil {
			s.logger.Error("❌ Transcription job failed",
				zap.String("job_id", job.ID.String()),
				zap.String("code", apperrors.CodeOf(err).String()),
				zap.Error(err))
		}
	}()

	return &snapshot, nil
}

func (s *transcriptionService) createJob(ctx context.Context, req Request) (*entities.TranscriptionJob, stt.Provider, error) {
	if err := validateAudioPath(req.FilePath); err != nil {
		return nil, nil, err
	}

	name := strings.ToLower(strings.TrimSpace(req.Provider))
	if name == "" {
		name = s.cfg.Transcription.Provider
	}
	provider, err := s.providers(name)
	if err != nil {
		return nil, nil, err
	}

	diarize := s.cfg.Transcription.Diarization
	if req.Diarization != nil {
		diarize = *req.Diarization
	}

	job := entities.NewTranscriptionJob(provider.Name(), req.FilePath, diarize)
	if err := s.jobRepo.CreateJob(ctx, job); err != nil {
		return nil, nil, apperrors.ErrDBQueryFailed("create transcription job", err)
	}
	s.cacheStatus(ctx, job)

	s.logger.Info("📥 Transcription job created",
		zap.String("job_id", job.ID.String()),
		zap.String("provider", job.Provider),
		zap.String("file_path", job.FilePath),
		zap.Bool("diarization", job.Diarization))

	return job, provider, nil
}

func validateAudioPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return apperrors.ErrInvalidArgument(entities.ErrEmptyFilePath.Error())
	}
	info, err := os.Stat(path)
	if err != nil {
		return apperrors.ErrUnreadableAudio(path, err)
	}
	if info.IsDir() {
		return apperrors.ErrUnreadableAudio(path, entities.ErrFileIsDirectory)
	}
	return nil
}

// execute runs the provider for a persisted job and records the outcome
func (s *transcriptionService) execute(parent context.Context, job *entities.TranscriptionJob, provider stt.Provider) error {
	ctx, cancel := jobcontext.JobBegin(parent, job.ID, provider.Name(), s.cfg.Transcription.JobTimeout)
	defer cancel()

	// Acquire a worker slot
	select {
	case s.semaphore <- struct{}{}:
		defer func() { <-s.semaphore }()
	case <-ctx.Done():
		return s.fail(job, apperrors.ErrTranscriptionCancelled(ctx.Err()))
	}

	var result *stt.Result
	err := jobcontext.Run(ctx, func(ctx context.Context) error {
		var err error
		result, err = provider.Transcribe(ctx, stt.Request{
			FilePath:    job.FilePath,
			Diarization: job.Diarization,
			OnState: func(state entities.JobState, progress stt.Progress) {
				s.onState(ctx, job, state, progress)
			},
		})
		return err
	})
	if err != nil {
		var appErr apperrors.AppError
		if !errors.As(err, &appErr) {
			if ctx.Err() != nil {
				err = apperrors.ErrTranscriptionCancelled(err)
			} else {
				err = apperrors.ErrInternal(err)
			}
		}
		return s.fail(job, err)
	}

	return s.complete(ctx, job, result)
}

// onState persists non-terminal transitions reported by the provider
func (s *transcriptionService) onState(ctx context.Context, job *entities.TranscriptionJob, state entities.JobState, progress stt.Progress) {
	if state.IsTerminal() {
		return
	}
	job.MarkState(state)
	if progress.ResultURL != "" {
		resultURL := progress.ResultURL
		job.ResultURL = &resultURL
	}
	job.PollAttempts = progress.Attempts

	if err := s.jobRepo.UpdateJob(ctx, job); err != nil {
		s.logger.Warn("⚠️ Failed to persist job state",
			zap.String("job_id", job.ID.String()),
			zap.String("state", string(state)),
			zap.Error(err))
	}
	s.cacheStatus(ctx, job)

	meta := jobcontext.GetJobMetadata(ctx)
	s.logger.Debug("🔄 Job state changed",
		zap.String("job_id", job.ID.String()),
		zap.String("provider", meta.Provider),
		zap.String("state", string(state)),
		zap.Duration("elapsed", time.Since(meta.StartTime)))
}

func (s *transcriptionService) complete(ctx context.Context, job *entities.TranscriptionJob, result *stt.Result) error {
	var (
		transcript string
		blocks     []entities.SpeakerBlock
	)
	if result.Diarized {
		blocks = s.formatter.Blocks(result.Utterances)
		transcript = diarization.RenderBlocks(blocks)
	} else {
		transcript = diarization.FormatFlat(result.FullTranscript)
	}

	job.PollAttempts = result.PollAttempts
	if result.ResultURL != "" {
		resultURL := result.ResultURL
		job.ResultURL = &resultURL
	}
	job.SetRawResult(result.Raw)
	job.MarkAsDone(transcript, blocks, len(result.Utterances))

	if s.artifacts != nil {
		key := ArtifactKey(job.ID)
		if err := s.artifacts.UploadText(ctx, key, transcript); err != nil {
			s.logger.Warn("⚠️ Failed to store transcript artifact",
				zap.String("job_id", job.ID.String()),
				zap.Error(apperrors.ErrStorageFailed("upload transcript", err)))
		} else {
			job.ArtifactKey = &key
		}
	}

	// The job context may be close to its deadline; persistence must still happen.
	persistCtx := context.WithoutCancel(ctx)
	if err := s.jobRepo.UpdateJob(persistCtx, job); err != nil {
		s.logger.Error("❌ Failed to persist finished job",
			zap.String("job_id", job.ID.String()),
			zap.Error(err))
	}
	s.cacheStatus(persistCtx, job)

	s.logger.Info("✅ Transcription job completed",
		zap.String("job_id", job.ID.String()),
		zap.Int("blocks", len(blocks)),
		zap.Int("poll_attempts", job.PollAttempts))

	return nil
}

// fail marks the job failed and returns err unchanged
func (s *transcriptionService) fail(job *entities.TranscriptionJob, err error) error {
	job.MarkAsFailed(apperrors.CodeOf(err).String(), err.Error())

	ctx := context.Background()
	if updateErr := s.jobRepo.UpdateJob(ctx, job); updateErr != nil {
		s.logger.Error("❌ Failed to persist failed job",
			zap.String("job_id", job.ID.String()),
			zap.Error(updateErr))
	}
	s.cacheStatus(ctx, job)
	return err
}

func (s *transcriptionService) cacheStatus(ctx context.Context, job *entities.TranscriptionJob) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetStatus(ctx, entities.StatusOf(job)); err != nil {
		s.logger.Warn("⚠️ Failed to cache job status",
			zap.String("job_id", job.ID.String()),
			zap.Error(err))
	}
}

// GetJob returns the stored job
func (s *transcriptionService) GetJob(ctx context.Context, jobID uuid.UUID) (*entities.TranscriptionJob, error) {
	job, err := s.jobRepo.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, apperrors.ErrDBQueryFailed("get transcription job", err)
	}
	if job == nil {
		return nil, apperrors.ErrTranscriptNotFound(jobID.String())
	}
	return job, nil
}

// GetStatus serves the status from the cache and falls back to the repository
func (s *transcriptionService) GetStatus(ctx context.Context, jobID uuid.UUID) (*entities.JobStatus, error) {
	if s.cache != nil {
		status, err := s.cache.GetStatus(ctx, jobID)
		if err != nil {
			s.logger.Warn("⚠️ Status cache lookup failed",
				zap.String("job_id", jobID.String()),
				zap.Error(err))
			// Drop the unreadable entry, it is rebuilt from the repository below
			_ = s.cache.DeleteStatus(ctx, jobID)
		} else if status != nil {
			return status, nil
		}
	}

	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	s.cacheStatus(ctx, job)

	status := entities.StatusOf(job)
	return &status, nil
}

// GetTranscript returns the text of a finished job
func (s *transcriptionService) GetTranscript(ctx context.Context, jobID uuid.UUID) (string, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return "", err
	}
	if job.State != entities.JobStateDone {
		return "", apperrors.ErrTranscriptNotReady(jobID.String(), string(job.State))
	}
	return job.Transcript, nil
}

// ArtifactURL returns a download URL for the stored transcript, or "" when none was stored
func (s *transcriptionService) ArtifactURL(ctx context.Context, job *entities.TranscriptionJob) (string, error) {
	if s.artifacts == nil || job.ArtifactKey == nil {
		return "", nil
	}
	url, err := s.artifacts.GetFileURL(ctx, *job.ArtifactKey, s.cfg.Storage.URLExpiry)
	if err != nil {
		return "", apperrors.ErrStorageFailed("presign transcript", err)
	}
	return url, nil
}

// RecoverInterruptedJobs fails jobs a previous process left running
func (s *transcriptionService) RecoverInterruptedJobs(ctx context.Context) (int64, error) {
	n, err := s.jobRepo.FailInterruptedJobs(ctx,
		apperrors.ErrorCode_STT_CANCELLED.String(), "interrupted by service restart")
	if err != nil {
		return 0, apperrors.ErrDBQueryFailed("fail interrupted jobs", err)
	}
	if n > 0 {
		s.logger.Warn("⚠️ Marked interrupted jobs as failed", zap.Int64("count", n))
	}
	return n, nil
}

// Shutdown stops accepting jobs and waits for running ones. When ctx expires
// first, running jobs are cancelled and awaited.
func (s *transcriptionService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.workerWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancelAll()
		return nil
	case <-ctx.Done():
		s.logger.Warn("🛑 Shutdown deadline reached, cancelling running jobs")
		s.cancelAll()
		<-done
		return fmt.Errorf("shutdown: %w", ctx.Err())
	}
}

// ArtifactKey is the object name of a job's transcript
func ArtifactKey(jobID uuid.UUID) string {
	return "transcripts/" + jobID.String() + ".txt"
}
