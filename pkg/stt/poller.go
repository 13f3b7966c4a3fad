package stt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/diarized-transcriber/errors"
	"github.com/johnquangdev/diarized-transcriber/pkg/config"
)

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option customizes a provider client
type Option func(*clientOptions)

type clientOptions struct {
	httpClient    *http.Client
	sleep         SleepFunc
	now           func() time.Time
	retryInterval time.Duration
}

// WithHTTPClient replaces the HTTP client used for provider calls
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithSleeper replaces the wait between poll attempts
func WithSleeper(sleep SleepFunc) Option {
	return func(o *clientOptions) { o.sleep = sleep }
}

// WithClock replaces the clock used to enforce the poll deadline
func WithClock(now func() time.Time) Option {
	return func(o *clientOptions) { o.now = now }
}

// WithRequestRetryInterval sets the first wait between upload/submit retries
func WithRequestRetryInterval(d time.Duration) Option {
	return func(o *clientOptions) { o.retryInterval = d }
}

func newClientOptions(httpTimeout time.Duration, opts []Option) clientOptions {
	o := clientOptions{
		sleep:         sleepContext,
		now:           time.Now,
		retryInterval: time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: httpTimeout}
	}
	return o
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// checkFunc performs one poll. done=true ends the loop successfully.
// Errors marked transient are retried up to the consecutive error budget,
// any other error ends the loop as is.
type checkFunc func(ctx context.Context, attempt int) (done bool, err error)

type poller struct {
	cfg    *config.TranscriptionConfig
	sleep  SleepFunc
	now    func() time.Time
	logger *zap.Logger
}

func newPoller(cfg *config.TranscriptionConfig, o clientOptions, logger *zap.Logger) *poller {
	return &poller{cfg: cfg, sleep: o.sleep, now: o.now, logger: logger}
}

func (p *poller) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.cfg.PollInterval
	b.MaxInterval = p.cfg.MaxPollInterval
	b.Multiplier = p.cfg.PollMultiplier
	b.RandomizationFactor = p.cfg.PollJitter
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// run polls until check reports done, check fails permanently, or the
// attempt/deadline budget is spent. It returns the number of polls made.
func (p *poller) run(ctx context.Context, jobRef string, check checkFunc) (int, error) {
	b := p.newBackOff()
	start := p.now()
	consecutiveErrors := 0

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, apperrors.ErrTranscriptionCancelled(err)
		}

		done, err := check(ctx, attempt)
		switch {
		case err != nil && ctx.Err() != nil:
			return attempt, apperrors.ErrTranscriptionCancelled(ctx.Err())
		case err != nil && !isTransient(err):
			return attempt, err
		case err != nil:
			consecutiveErrors++
			if consecutiveErrors > p.cfg.MaxPollErrors {
				return attempt, apperrors.ErrPollFailed(payloadOf(err),
					fmt.Errorf("%d consecutive poll errors: %w", consecutiveErrors, err))
			}
			if p.logger != nil {
				p.logger.Warn("⚠️ Transient poll error, will retry",
					zap.String("job", jobRef),
					zap.Int("attempt", attempt),
					zap.Int("consecutive_errors", consecutiveErrors),
					zap.Error(err))
			}
		case done:
			return attempt, nil
		default:
			consecutiveErrors = 0
		}

		elapsed := p.now().Sub(start)
		if p.cfg.MaxPollAttempts > 0 && attempt >= p.cfg.MaxPollAttempts {
			return attempt, apperrors.ErrTranscriptionTimeout(attempt, elapsed)
		}

		wait := b.NextBackOff()
		if p.cfg.PollTimeout > 0 && elapsed+wait > p.cfg.PollTimeout {
			return attempt, apperrors.ErrTranscriptionTimeout(attempt, elapsed)
		}

		if p.logger != nil {
			p.logger.Debug("⏳ Transcription still processing",
				zap.String("job", jobRef),
				zap.Int("attempt", attempt),
				zap.Duration("next_poll_in", wait))
		}

		if err := p.sleep(ctx, wait); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return attempt, apperrors.ErrTranscriptionCancelled(err)
			}
			return attempt, err
		}
	}
}
