package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/diarized-transcriber/pkg/config"
)

const maxResponseBytes = 32 << 20

var errMalformedResponse = errors.New("response is not a JSON object")

// transientError marks failures worth retrying: network errors, 429 and 5xx.
type transientError struct {
	err     error
	payload string
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func markTransient(err error, payload string) error {
	return &transientError{err: err, payload: payload}
}

func isTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

func isTransientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// payloadOf returns the response body attached to a transient error
func payloadOf(err error) string {
	var t *transientError
	if errors.As(err, &t) {
		return t.payload
	}
	return ""
}

// doRequest sends req and returns the status and body. Network failures and
// retryable statuses come back as transient errors.
func doRequest(ctx context.Context, client *http.Client, req *http.Request) (int, []byte, error) {
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, ctx.Err()
		}
		return 0, nil, markTransient(fmt.Errorf("%s %s: %w", req.Method, req.URL.Redacted(), err), "")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, markTransient(fmt.Errorf("read response body: %w", err), "")
	}

	if isTransientStatus(resp.StatusCode) {
		return resp.StatusCode, body, markTransient(
			fmt.Errorf("%s %s: unexpected status %d", req.Method, req.URL.Redacted(), resp.StatusCode),
			string(body))
	}
	return resp.StatusCode, body, nil
}

// decodeObject rejects anything but a top-level JSON object
func decodeObject(body []byte, v any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errMalformedResponse
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// requestRetrier retries upload and submission calls on transient errors
// when enabled.
type requestRetrier struct {
	enabled    bool
	maxRetries int
	interval   time.Duration
	logger     *zap.Logger
}

func newRequestRetrier(cfg *config.TranscriptionConfig, o clientOptions, logger *zap.Logger) requestRetrier {
	return requestRetrier{
		enabled:    cfg.RetryRequests,
		maxRetries: cfg.MaxRequestRetries,
		interval:   o.retryInterval,
		logger:     logger,
	}
}

func (r requestRetrier) do(ctx context.Context, operation string, fn func() error) error {
	if !r.enabled || r.maxRetries <= 0 {
		return fn()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.interval
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.RetryNotify(func() error {
		err := fn()
		if err != nil && !isTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.maxRetries)), ctx),
		func(err error, wait time.Duration) {
			if r.logger != nil {
				r.logger.Warn("🔁 Retrying provider request",
					zap.String("operation", operation),
					zap.Duration("wait", wait),
					zap.Error(err))
			}
		})
}
