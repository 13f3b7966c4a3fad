package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

const wantTranscript = "Speaker 0 | 00:0.5 - 00:2.0\nhello there\n\n" +
	"Speaker 1 | 00:2.5 - 00:4.0\ngeneral kenobi\n"

func newFakeGladia(t *testing.T, statuses ...string) *httptest.Server {
	t.Helper()
	var polls atomic.Int32
	var srv *httptest.Server

	mux := http.NewServeMux()
	mux.HandleFunc("/v2/upload/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"audio_url":"https://files.example/call.wav"}`)
	})
	mux.HandleFunc("/v2/pre-recorded", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"job-1","result_url":"`+srv.URL+`/v2/pre-recorded/job-1"}`)
	})
	mux.HandleFunc("/v2/pre-recorded/job-1", func(w http.ResponseWriter, r *http.Request) {
		n := int(polls.Add(1))
		status := statuses[len(statuses)-1]
		if n <= len(statuses) {
			status = statuses[n-1]
		}
		if status != "done" {
			io.WriteString(w, `{"id":"job-1","status":"`+status+`"}`)
			return
		}
		io.WriteString(w, `{"id":"job-1","status":"done","result":{"transcription":{`+
			`"full_transcript":"hello there general kenobi",`+
			`"utterances":[{"speaker":0,"start":0.5,"end":2,"text":"hello there"},`+
			`{"speaker":1,"start":2.5,"end":4,"text":"general kenobi"}]}}}`)
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func setupEnv(t *testing.T, baseURL, apiKey string) string {
	t.Helper()
	t.Setenv("GLADIA_API_KEY", apiKey)
	t.Setenv("GLADIA_BASE_URL", baseURL)
	t.Setenv("TRANSCRIPTION_PROVIDER", "gladia")
	t.Setenv("TRANSCRIPTION_POLL_INTERVAL", "1ms")
	t.Setenv("TRANSCRIPTION_MAX_POLL_INTERVAL", "2ms")
	t.Setenv("STORAGE_ENDPOINT", "")

	dir := t.TempDir()
	audio := filepath.Join(dir, "call.wav")
	if err := os.WriteFile(audio, []byte("RIFF....WAVE"), 0o644); err != nil {
		t.Fatal(err)
	}
	return audio
}

func TestRun_WritesTranscriptToStdout(t *testing.T) {
	srv := newFakeGladia(t, "queued", "done")
	audio := setupEnv(t, srv.URL, "test-key")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-i", audio}, &stdout, &stderr)

	if code != exitOK {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	if stdout.String() != wantTranscript {
		t.Fatalf("unexpected transcript %q", stdout.String())
	}
}

func TestRun_WritesOutputFileFlat(t *testing.T) {
	srv := newFakeGladia(t, "done")
	audio := setupEnv(t, srv.URL, "test-key")
	out := filepath.Join(t.TempDir(), "call.txt")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-input", audio, "-o", out, "-diarization=false"}, &stdout, &stderr)

	if code != exitOK {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello there general kenobi" {
		t.Fatalf("unexpected transcript %q", got)
	}
	if stdout.Len() != 0 {
		t.Fatalf("stdout must stay empty when -o is set, got %q", stdout.String())
	}
}

func TestRun_ExitCodes(t *testing.T) {
	srv := newFakeGladia(t, "queued")

	tests := []struct {
		name   string
		apiKey string
		args   func(audio string) []string
		want   int
	}{
		{"missing input", "test-key", func(string) []string { return nil }, exitUsage},
		{"unknown flag", "test-key", func(a string) []string { return []string{"-i", a, "-bogus"} }, exitUsage},
		{"negative attempts", "test-key", func(a string) []string { return []string{"-i", a, "-max-attempts", "-1"} }, exitUsage},
		{"unknown provider", "test-key", func(a string) []string { return []string{"-i", a, "-provider", "whisper"} }, exitUsage},
		{"unreadable file", "test-key", func(a string) []string { return []string{"-i", a + ".missing"} }, exitUsage},
		{"store without endpoint", "test-key", func(a string) []string { return []string{"-i", a, "-store"} }, exitUsage},
		{"missing credential", "", func(a string) []string { return []string{"-i", a} }, exitError},
		{"poll limit reached", "test-key", func(a string) []string { return []string{"-i", a, "-max-attempts", "2"} }, exitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audio := setupEnv(t, srv.URL, tt.apiKey)

			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args(audio), &stdout, &stderr)

			if code != tt.want {
				t.Fatalf("expected exit %d, got %d: %s", tt.want, code, stderr.String())
			}
			if stdout.Len() != 0 {
				t.Fatalf("nothing may be written to stdout on failure, got %q", stdout.String())
			}
		})
	}
}

func TestRun_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"-h"}, &stdout, &stderr); code != exitOK {
		t.Fatalf("expected exit 0 for -h, got %d", code)
	}
	if !strings.Contains(stderr.String(), "-provider") {
		t.Fatalf("usage not printed: %q", stderr.String())
	}
}
