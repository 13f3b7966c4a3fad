package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/diarized-transcriber/errors"
	"github.com/johnquangdev/diarized-transcriber/internal/domain/entities"
	"github.com/johnquangdev/diarized-transcriber/pkg/config"
)

const (
	gladiaUploadPath = "/v2/upload/"
	gladiaSubmitPath = "/v2/pre-recorded"

	gladiaStatusDone  = "done"
	gladiaStatusError = "error"
)

// GladiaClient runs pre-recorded transcription jobs against the Gladia v2 API
type GladiaClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	poller  *poller
	retrier requestRetrier
	logger  *zap.Logger
}

type gladiaUploadResponse struct {
	AudioURL string `json:"audio_url"`
}

type gladiaSubmitRequest struct {
	AudioURL       string `json:"audio_url"`
	Diarization    bool   `json:"diarization"`
	Translation    bool   `json:"translation"`
	Subtitles      bool   `json:"subtitles"`
	DetectLanguage bool   `json:"detect_language"`
}

type gladiaSubmitResponse struct {
	ID        string `json:"id"`
	ResultURL string `json:"result_url"`
}

type gladiaPollResponse struct {
	ID     string  `json:"id"`
	Status *string `json:"status"`
	Result *struct {
		Transcription *struct {
			FullTranscript string               `json:"full_transcript"`
			Utterances     []entities.Utterance `json:"utterances"`
		} `json:"transcription"`
	} `json:"result"`
}

// NewGladiaClient creates a Gladia client. A missing API key is reported by
// Transcribe, not here.
func NewGladiaClient(cfg *config.GladiaConfig, tcfg *config.TranscriptionConfig, logger *zap.Logger, opts ...Option) *GladiaClient {
	o := newClientOptions(tcfg.HTTPTimeout, opts)
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.gladia.io"
	}
	return &GladiaClient{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		http:    o.httpClient,
		poller:  newPoller(tcfg, o, logger),
		retrier: newRequestRetrier(tcfg, o, logger),
		logger:  logger,
	}
}

func (c *GladiaClient) Name() string {
	return ProviderGladia
}

// Transcribe uploads the file, starts a job and polls it until completion
func (c *GladiaClient) Transcribe(ctx context.Context, req Request) (res *Result, err error) {
	if c.apiKey == "" {
		return nil, apperrors.ErrMissingCredential(ProviderGladia)
	}

	var progress Progress
	defer func() {
		if err != nil {
			progress.Err = err
			req.notify(entities.JobStateError, progress)
		}
	}()

	audio, err := os.ReadFile(req.FilePath)
	if err != nil {
		return nil, apperrors.ErrUnreadableAudio(req.FilePath, err)
	}

	audioURL, err := c.upload(ctx, req.FilePath, audio)
	if err != nil {
		return nil, err
	}
	req.notify(entities.JobStateUploaded, progress)

	resultURL, err := c.submit(ctx, audioURL, req.Diarization)
	if err != nil {
		return nil, err
	}
	progress.ResultURL = resultURL
	req.notify(entities.JobStateSubmitted, progress)

	if c.logger != nil {
		c.logger.Info("📝 Gladia transcription submitted",
			zap.String("result_url", resultURL),
			zap.Bool("diarization", req.Diarization))
	}

	req.notify(entities.JobStatePolling, progress)

	var final gladiaPollResponse
	var raw []byte
	attempts, err := c.poller.run(ctx, resultURL, func(ctx context.Context, attempt int) (bool, error) {
		progress.Attempts = attempt
		resp, body, err := c.fetchResult(ctx, resultURL)
		if err != nil {
			return false, err
		}
		switch *resp.Status {
		case gladiaStatusDone:
			final, raw = *resp, body
			return true, nil
		case gladiaStatusError:
			return false, apperrors.ErrTranscriptionFailed(string(body))
		default:
			return false, nil
		}
	})
	progress.Attempts = attempts
	if err != nil {
		return nil, err
	}

	res = &Result{
		Provider:     ProviderGladia,
		Diarized:     req.Diarization,
		ResultURL:    resultURL,
		PollAttempts: attempts,
		Raw:          json.RawMessage(raw),
	}
	if final.Result != nil && final.Result.Transcription != nil {
		if req.Diarization {
			res.Utterances = final.Result.Transcription.Utterances
		} else {
			res.FullTranscript = final.Result.Transcription.FullTranscript
		}
	}
	if req.Diarization && res.Utterances == nil {
		res.Utterances = []entities.Utterance{}
	}

	if c.logger != nil {
		c.logger.Info("✅ Gladia transcription completed",
			zap.String("result_url", resultURL),
			zap.Int("poll_attempts", attempts),
			zap.Int("utterances", len(res.Utterances)))
	}
	req.notify(entities.JobStateDone, progress)

	return res, nil
}

func (c *GladiaClient) newRequest(ctx context.Context, method, url string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-gladia-key", c.apiKey)
	req.Header.Set("accept", "application/json")
	return req, nil
}

func (c *GladiaClient) upload(ctx context.Context, path string, audio []byte) (string, error) {
	body, contentType, err := audioMultipart(path, audio)
	if err != nil {
		return "", apperrors.ErrUploadFailed("", err)
	}

	var (
		status  int
		payload []byte
	)
	err = c.retrier.do(ctx, "upload", func() error {
		req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+gladiaUploadPath, body)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", contentType)
		status, payload, err = doRequest(ctx, c.http, req)
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", apperrors.ErrTranscriptionCancelled(err)
		}
		return "", apperrors.ErrUploadFailed(payloadOf(err), err)
	}

	var resp gladiaUploadResponse
	if err := decodeObject(payload, &resp); err != nil {
		return "", apperrors.ErrUploadFailed(string(payload), err).
			WithDetail("status", fmt.Sprintf("%d", status))
	}
	if resp.AudioURL == "" {
		return "", apperrors.ErrUploadFailed(string(payload), nil).
			WithDetail("status", fmt.Sprintf("%d", status))
	}
	return resp.AudioURL, nil
}

func (c *GladiaClient) submit(ctx context.Context, audioURL string, diarization bool) (string, error) {
	body, err := json.Marshal(gladiaSubmitRequest{
		AudioURL:       audioURL,
		Diarization:    diarization,
		Translation:    false,
		Subtitles:      false,
		DetectLanguage: true,
	})
	if err != nil {
		return "", apperrors.ErrSubmissionFailed("", err)
	}

	var (
		status  int
		payload []byte
	)
	err = c.retrier.do(ctx, "submit", func() error {
		req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+gladiaSubmitPath, body)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		status, payload, err = doRequest(ctx, c.http, req)
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", apperrors.ErrTranscriptionCancelled(err)
		}
		return "", apperrors.ErrSubmissionFailed(payloadOf(err), err)
	}

	var resp gladiaSubmitResponse
	if err := decodeObject(payload, &resp); err != nil {
		return "", apperrors.ErrSubmissionFailed(string(payload), err).
			WithDetail("status", fmt.Sprintf("%d", status))
	}
	if resp.ResultURL == "" {
		return "", apperrors.ErrSubmissionFailed(string(payload), nil).
			WithDetail("status", fmt.Sprintf("%d", status))
	}
	return resp.ResultURL, nil
}

// fetchResult performs one poll. Transient failures are returned unwrapped
// so the poller can count them.
func (c *GladiaClient) fetchResult(ctx context.Context, resultURL string) (*gladiaPollResponse, []byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, resultURL, nil)
	if err != nil {
		return nil, nil, apperrors.ErrPollFailed("", err)
	}

	status, body, err := doRequest(ctx, c.http, req)
	if err != nil {
		return nil, body, err
	}
	if status >= http.StatusBadRequest {
		return nil, body, apperrors.ErrPollFailed(string(body), fmt.Errorf("unexpected status %d", status))
	}

	var resp gladiaPollResponse
	if err := decodeObject(body, &resp); err != nil {
		return nil, body, apperrors.ErrPollFailed(string(body), err)
	}
	if resp.Status == nil {
		return nil, body, apperrors.ErrPollFailed(string(body), fmt.Errorf("response has no status"))
	}
	return &resp, body, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// audioMultipart builds the upload body with an "audio" part whose content
// type follows the file extension, e.g. call.wav -> audio/wav.
func audioMultipart(path string, audio []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio"; filename="%s"`,
		quoteEscaper.Replace(filepath.Base(path))))
	h.Set("Content-Type", audioContentType(path))

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func audioContentType(path string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "application/octet-stream"
	}
	return "audio/" + ext
}
