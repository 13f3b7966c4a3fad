package stt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/diarized-transcriber/errors"
	"github.com/johnquangdev/diarized-transcriber/internal/domain/entities"
	"github.com/johnquangdev/diarized-transcriber/pkg/config"
)

// AssemblyAIClient runs transcription jobs through the AssemblyAI SDK
type AssemblyAIClient struct {
	apiKey  string
	client  *aai.Client
	poller  *poller
	retrier requestRetrier
	logger  *zap.Logger
}

// NewAssemblyAIClient creates an AssemblyAI client using the provided config
func NewAssemblyAIClient(cfg *config.AssemblyAIConfig, tcfg *config.TranscriptionConfig, logger *zap.Logger, opts ...Option) *AssemblyAIClient {
	o := newClientOptions(tcfg.HTTPTimeout, opts)

	clientOpts := []aai.ClientOption{
		aai.WithAPIKey(cfg.APIKey),
		aai.WithHTTPClient(o.httpClient),
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, aai.WithBaseURL(cfg.BaseURL))
	}

	return &AssemblyAIClient{
		apiKey:  cfg.APIKey,
		client:  aai.NewClientWithOptions(clientOpts...),
		poller:  newPoller(tcfg, o, logger),
		retrier: newRequestRetrier(tcfg, o, logger),
		logger:  logger,
	}
}

func (c *AssemblyAIClient) Name() string {
	return ProviderAssemblyAI
}

// Transcribe uploads the file, submits a transcript and polls it until completion
func (c *AssemblyAIClient) Transcribe(ctx context.Context, req Request) (res *Result, err error) {
	if c.apiKey == "" {
		return nil, apperrors.ErrMissingCredential(ProviderAssemblyAI)
	}

	var progress Progress
	defer func() {
		if err != nil {
			progress.Err = err
			req.notify(entities.JobStateError, progress)
		}
	}()

	if _, err := os.Stat(req.FilePath); err != nil {
		return nil, apperrors.ErrUnreadableAudio(req.FilePath, err)
	}

	var uploadURL string
	err = c.retrier.do(ctx, "upload", func() error {
		f, err := os.Open(req.FilePath)
		if err != nil {
			return apperrors.ErrUnreadableAudio(req.FilePath, err)
		}
		defer f.Close()

		uploadURL, err = c.client.Upload(ctx, f)
		return classifySDKError(err)
	})
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrorCode_INVALID_ARGUMENT) {
			return nil, err
		}
		return nil, c.wrapRequestError(ctx, err, apperrors.ErrUploadFailed)
	}
	if uploadURL == "" {
		return nil, apperrors.ErrUploadFailed("", nil)
	}
	req.notify(entities.JobStateUploaded, progress)

	params := &aai.TranscriptOptionalParams{
		SpeakerLabels:     aai.Bool(req.Diarization),
		LanguageDetection: aai.Bool(true),
	}

	var submitted aai.Transcript
	err = c.retrier.do(ctx, "submit", func() error {
		var err error
		submitted, err = c.client.Transcripts.SubmitFromURL(ctx, uploadURL, params)
		return classifySDKError(err)
	})
	if err != nil {
		return nil, c.wrapRequestError(ctx, err, apperrors.ErrSubmissionFailed)
	}

	transcriptID := deref(submitted.ID)
	if transcriptID == "" {
		return nil, apperrors.ErrSubmissionFailed(marshalPayload(submitted), nil)
	}
	progress.ResultURL = transcriptID
	req.notify(entities.JobStateSubmitted, progress)

	if c.logger != nil {
		c.logger.Info("📝 AssemblyAI transcription submitted",
			zap.String("transcript_id", transcriptID),
			zap.Bool("diarization", req.Diarization))
	}

	req.notify(entities.JobStatePolling, progress)

	var final aai.Transcript
	attempts, err := c.poller.run(ctx, transcriptID, func(ctx context.Context, attempt int) (bool, error) {
		progress.Attempts = attempt
		transcript, err := c.client.Transcripts.Get(ctx, transcriptID)
		if err != nil {
			if err := classifySDKError(err); isTransient(err) || ctx.Err() != nil {
				return false, err
			}
			return false, apperrors.ErrPollFailed(sdkErrorPayload(err), err)
		}

		switch transcript.Status {
		case aai.TranscriptStatusCompleted:
			final = transcript
			return true, nil
		case aai.TranscriptStatusError:
			return false, apperrors.ErrTranscriptionFailed(marshalPayload(transcript)).
				WithDetail("reason", deref(transcript.Error))
		default:
			return false, nil
		}
	})
	progress.Attempts = attempts
	if err != nil {
		return nil, err
	}

	raw, _ := json.Marshal(final)
	res = &Result{
		Provider:     ProviderAssemblyAI,
		Diarized:     req.Diarization,
		ResultURL:    transcriptID,
		PollAttempts: attempts,
		Raw:          raw,
	}
	if req.Diarization {
		res.Utterances = convertUtterances(final.Utterances)
	} else {
		res.FullTranscript = deref(final.Text)
	}

	if c.logger != nil {
		c.logger.Info("✅ AssemblyAI transcription completed",
			zap.String("transcript_id", transcriptID),
			zap.Int("poll_attempts", attempts),
			zap.Int("utterances", len(res.Utterances)))
	}
	req.notify(entities.JobStateDone, progress)

	return res, nil
}

func (c *AssemblyAIClient) wrapRequestError(ctx context.Context, err error, wrap func(string, error) apperrors.AppError) error {
	if ctx.Err() != nil {
		return apperrors.ErrTranscriptionCancelled(err)
	}
	payload := payloadOf(err)
	if payload == "" {
		payload = sdkErrorPayload(err)
	}
	return wrap(payload, err)
}

// convertUtterances maps SDK utterances (milliseconds) to seconds
func convertUtterances(in []aai.TranscriptUtterance) []entities.Utterance {
	out := make([]entities.Utterance, 0, len(in))
	for _, u := range in {
		utterance := entities.Utterance{
			Start: float64(derefInt(u.Start)) / 1000,
			End:   float64(derefInt(u.End)) / 1000,
			Text:  deref(u.Text),
		}
		if u.Speaker != nil {
			utterance.Speaker = entities.SpeakerLabel(*u.Speaker)
		}
		out = append(out, utterance)
	}
	return out
}

// classifySDKError marks retryable SDK failures as transient
func classifySDKError(err error) error {
	if err == nil {
		return nil
	}
	if status, ok := sdkStatus(err); ok {
		if isTransientStatus(status) {
			return markTransient(err, sdkErrorPayload(err))
		}
		return err
	}
	var appErr apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	// No HTTP status means the request never got a response.
	return markTransient(err, "")
}

func sdkStatus(err error) (int, bool) {
	var apiErr aai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status, true
	}
	var apiErrPtr *aai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Status, true
	}
	return 0, false
}

func sdkErrorPayload(err error) string {
	if status, ok := sdkStatus(err); ok {
		return fmt.Sprintf(`{"status":%d,"error":%q}`, status, err.Error())
	}
	return ""
}

func marshalPayload(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}
