package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	apperrors "github.com/johnquangdev/diarized-transcriber/errors"
	"github.com/johnquangdev/diarized-transcriber/internal/adapter/repository"
	"github.com/johnquangdev/diarized-transcriber/internal/infrastructure/storage"
	"github.com/johnquangdev/diarized-transcriber/internal/usecase/transcription"
	"github.com/johnquangdev/diarized-transcriber/pkg/config"
	"github.com/johnquangdev/diarized-transcriber/pkg/stt"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var errUsage = errors.New("usage error")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	input       string
	output      string
	provider    string
	diarization bool
	pollTimeout time.Duration
	maxAttempts int
	store       bool
	debug       bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	var o options
	fs := flag.NewFlagSet("transcribe", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&o.input, "input", "", "Input audio file path (-i)")
	fs.StringVar(&o.input, "i", "", "Input audio file path")
	fs.StringVar(&o.output, "output", "", "Output transcript .txt file, stdout when empty (-o)")
	fs.StringVar(&o.output, "o", "", "Output transcript .txt file")
	fs.StringVar(&o.provider, "provider", "", "Speech-to-text provider: gladia|assemblyai (default TRANSCRIPTION_PROVIDER)")
	fs.BoolVar(&o.diarization, "diarization", true, "Label speakers and merge their utterances into blocks")
	fs.DurationVar(&o.pollTimeout, "poll-timeout", 0, "Give up polling after this long (default TRANSCRIPTION_POLL_TIMEOUT)")
	fs.IntVar(&o.maxAttempts, "max-attempts", 0, "Give up after this many polls, 0 for no limit (default TRANSCRIPTION_MAX_POLL_ATTEMPTS)")
	fs.BoolVar(&o.store, "store", false, "Also upload the transcript to object storage (requires STORAGE_ENDPOINT)")
	fs.BoolVar(&o.debug, "debug", false, "Verbose logging to stderr")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %w", errUsage, err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected arguments %v", errUsage, fs.Args())
	}
	if o.input == "" {
		return nil, fmt.Errorf("%w: missing -input/-i audio path", errUsage)
	}
	if o.pollTimeout < 0 || o.maxAttempts < 0 {
		return nil, fmt.Errorf("%w: -poll-timeout and -max-attempts must not be negative", errUsage)
	}
	return &o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "configuration: %v\n", err)
		return exitUsage
	}
	if opts.pollTimeout > 0 {
		cfg.Transcription.PollTimeout = opts.pollTimeout
	}
	if opts.maxAttempts > 0 {
		cfg.Transcription.MaxPollAttempts = opts.maxAttempts
	}
	// The job deadline must leave room for the requested poll window
	if t := &cfg.Transcription; t.PollTimeout >= t.JobTimeout {
		t.JobTimeout = t.PollTimeout + t.HTTPTimeout
	}

	logger := newLogger(stderr, opts.debug)
	defer logger.Sync()

	var artifacts transcription.ArtifactStore
	if opts.store {
		if cfg.Storage.Endpoint == "" {
			fmt.Fprintln(stderr, "-store requires STORAGE_ENDPOINT")
			return exitUsage
		}
		minioClient, err := storage.NewMinIOClient(ctx, &cfg.Storage)
		if err != nil {
			logger.Error("❌ Failed to connect to object storage", zap.Error(err))
			return exitError
		}
		artifacts = minioClient
	}

	providers := func(name string) (stt.Provider, error) {
		return stt.NewProvider(name, cfg, logger)
	}
	svc := transcription.NewTranscriptionService(repository.NewMemoryJobRepository(), nil, artifacts, providers, cfg, logger)
	defer svc.Shutdown(context.Background())

	diarize := opts.diarization
	job, err := svc.Transcribe(ctx, transcription.Request{
		FilePath:    opts.input,
		Provider:    opts.provider,
		Diarization: &diarize,
	})
	if err != nil {
		logger.Error("❌ Transcription failed",
			zap.String("code", apperrors.CodeOf(err).String()),
			zap.Error(err))
		return exitCodeOf(err)
	}

	if err := writeTranscript(opts.output, job.Transcript, stdout); err != nil {
		logger.Error("❌ Failed to write transcript", zap.String("output", opts.output), zap.Error(err))
		return exitError
	}

	fields := []zap.Field{
		zap.String("job_id", job.ID.String()),
		zap.String("provider", job.Provider),
		zap.Int("poll_attempts", job.PollAttempts),
	}
	if job.ArtifactKey != nil {
		fields = append(fields, zap.String("artifact", *job.ArtifactKey))
	}
	logger.Info("✅ Transcript ready", fields...)
	return exitOK
}

// exitCodeOf maps bad input to the usage exit code
func exitCodeOf(err error) int {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrorCode_INVALID_ARGUMENT, apperrors.ErrorCode_STT_UNKNOWN_PROVIDER:
		return exitUsage
	default:
		return exitError
	}
}

func writeTranscript(path, transcript string, stdout io.Writer) error {
	if path == "" {
		_, err := io.WriteString(stdout, transcript)
		return err
	}
	return os.WriteFile(path, []byte(transcript), 0o644)
}

// newLogger writes human-readable logs to stderr so stdout carries only the transcript
func newLogger(w io.Writer, debug bool) *zap.Logger {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}
