// Package stt drives remote speech-to-text jobs through their
// upload → submit → poll lifecycle.
//
// Every provider follows the same contract: fail fast with
// ErrorCode_STT_MISSING_CREDENTIAL when no API key is configured, upload the
// audio, create a job, then poll it with a bounded, jittered exponential
// schedule until the job is done, fails, or the poll budget runs out.
//
//	p, err := stt.NewProvider("gladia", cfg, logger)
//	res, err := p.Transcribe(ctx, stt.Request{FilePath: "call.wav", Diarization: true})
package stt

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/diarized-transcriber/errors"
	"github.com/johnquangdev/diarized-transcriber/internal/domain/entities"
	"github.com/johnquangdev/diarized-transcriber/pkg/config"
)

const (
	ProviderGladia     = "gladia"
	ProviderAssemblyAI = "assemblyai"
)

// Provider is a remote transcription backend
type Provider interface {
	// Name returns the registered provider name.
	Name() string
	// Transcribe runs one job to completion. It blocks for the whole poll loop.
	Transcribe(ctx context.Context, req Request) (*Result, error)
}

// Progress describes the job at a state transition
type Progress struct {
	ResultURL string
	Attempts  int
	Err       error
}

// StateFunc is notified on every lifecycle transition of a job
type StateFunc func(state entities.JobState, progress Progress)

// Request describes one transcription
type Request struct {
	FilePath    string
	Diarization bool
	// OnState is optional.
	OnState StateFunc
}

func (r Request) notify(state entities.JobState, progress Progress) {
	if r.OnState != nil {
		r.OnState(state, progress)
	}
}

// Result is the outcome of a finished job. Utterances is set in diarized
// mode and FullTranscript in flat mode.
type Result struct {
	Provider       string               `json:"provider"`
	Diarized       bool                 `json:"diarized"`
	Utterances     []entities.Utterance `json:"utterances,omitempty"`
	FullTranscript string               `json:"full_transcript,omitempty"`
	ResultURL      string               `json:"result_url"`
	PollAttempts   int                  `json:"poll_attempts"`
	Raw            json.RawMessage      `json:"-"`
}

// NewProvider builds the named provider from application config
func NewProvider(name string, cfg *config.Config, logger *zap.Logger, opts ...Option) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ProviderGladia, "":
		return NewGladiaClient(&cfg.Gladia, &cfg.Transcription, logger, opts...), nil
	case ProviderAssemblyAI:
		return NewAssemblyAIClient(&cfg.AssemblyAI, &cfg.Transcription, logger, opts...), nil
	default:
		return nil, apperrors.ErrUnknownProvider(name)
	}
}
