package stt

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	apperrors "github.com/johnquangdev/diarized-transcriber/errors"
	"github.com/johnquangdev/diarized-transcriber/internal/domain/entities"
	"github.com/johnquangdev/diarized-transcriber/pkg/config"
)

const completedTranscript = `{"id":"t-1","status":"completed","text":"hi there. bye.",` +
	`"utterances":[{"speaker":"A","start":0,"end":1500,"text":"hi there.","confidence":0.9,"words":[]},` +
	`{"speaker":"B","start":2000,"end":2750,"text":"bye.","confidence":0.8,"words":[]}]}`

type assemblyServer struct {
	*httptest.Server

	requests atomic.Int32
	polls    atomic.Int32
	params   map[string]any
	statuses []string
}

func newAssemblyServer(t *testing.T, statuses ...string) *assemblyServer {
	t.Helper()
	s := &assemblyServer{statuses: statuses}

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		if r.Header.Get("Authorization") != "aai-key" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"error":"bad key"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/v2/upload"):
			io.WriteString(w, `{"upload_url":"https://cdn.example/upload/1"}`)
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/v2/transcript"):
			if err := json.NewDecoder(r.Body).Decode(&s.params); err != nil {
				t.Errorf("submit body: %v", err)
			}
			io.WriteString(w, `{"id":"t-1","status":"queued"}`)
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/v2/transcript/t-1"):
			n := int(s.polls.Add(1))
			status := s.statuses[len(s.statuses)-1]
			if n <= len(s.statuses) {
				status = s.statuses[n-1]
			}
			switch status {
			case "completed":
				io.WriteString(w, completedTranscript)
			case "error":
				io.WriteString(w, `{"id":"t-1","status":"error","error":"audio is silent"}`)
			default:
				io.WriteString(w, `{"id":"t-1","status":"`+status+`"}`)
			}
		default:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":"not found"}`)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func newTestAssemblyAI(srv *assemblyServer, apiKey string, timer *fakeTimer) *AssemblyAIClient {
	tcfg := testTranscriptionConfig()
	return NewAssemblyAIClient(
		&config.AssemblyAIConfig{APIKey: apiKey, BaseURL: srv.URL},
		&tcfg,
		nil,
		WithSleeper(timer.Sleep),
		WithClock(timer.Now),
	)
}

func TestAssemblyAITranscribe_Diarized(t *testing.T) {
	srv := newAssemblyServer(t, "queued", "processing", "completed")
	timer := newFakeTimer()
	client := newTestAssemblyAI(srv, "aai-key", timer)

	var states []entities.JobState
	res, err := client.Transcribe(context.Background(), Request{
		FilePath:    writeAudio(t, "call.wav"),
		Diarization: true,
		OnState:     func(s entities.JobState, _ Progress) { states = append(states, s) },
	})
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}

	if res.PollAttempts != 3 || len(timer.Sleeps()) != 2 {
		t.Fatalf("expected 3 polls and 2 sleeps, got %d and %d", res.PollAttempts, len(timer.Sleeps()))
	}
	if len(res.Utterances) != 2 {
		t.Fatalf("unexpected utterances %+v", res.Utterances)
	}
	first := res.Utterances[0]
	if first.Speaker.String() != "A" || first.Start != 0 || first.End != 1.5 || first.Text != "hi there." {
		t.Fatalf("milliseconds not converted: %+v", first)
	}
	if res.ResultURL != "t-1" {
		t.Fatalf("unexpected job reference %q", res.ResultURL)
	}
	if srv.params["speaker_labels"] != true || srv.params["audio_url"] != "https://cdn.example/upload/1" {
		t.Fatalf("unexpected submission %v", srv.params)
	}
	if len(states) != 4 || states[3] != entities.JobStateDone {
		t.Fatalf("unexpected states %v", states)
	}
}

func TestAssemblyAITranscribe_Flat(t *testing.T) {
	srv := newAssemblyServer(t, "completed")
	client := newTestAssemblyAI(srv, "aai-key", newFakeTimer())

	res, err := client.Transcribe(context.Background(), Request{FilePath: writeAudio(t, "call.wav")})
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if res.FullTranscript != "hi there. bye." || res.Utterances != nil {
		t.Fatalf("unexpected flat result %+v", res)
	}
}

func TestAssemblyAITranscribe_ErrorStatus(t *testing.T) {
	srv := newAssemblyServer(t, "processing", "error")
	timer := newFakeTimer()
	client := newTestAssemblyAI(srv, "aai-key", timer)

	_, err := client.Transcribe(context.Background(), Request{FilePath: writeAudio(t, "call.wav"), Diarization: true})

	appErr := assertCode(t, err, apperrors.ErrorCode_STT_TRANSCRIPTION_FAILED)
	if appErr.Detail("reason") != "audio is silent" {
		t.Fatalf("unexpected reason %q", appErr.Detail("reason"))
	}
	if srv.polls.Load() != 2 || len(timer.Sleeps()) != 1 {
		t.Fatalf("polling must stop on error, got %d polls", srv.polls.Load())
	}
}

func TestAssemblyAITranscribe_MissingCredential(t *testing.T) {
	srv := newAssemblyServer(t, "completed")
	client := newTestAssemblyAI(srv, "", newFakeTimer())

	_, err := client.Transcribe(context.Background(), Request{FilePath: "/does/not/exist.wav"})

	assertCode(t, err, apperrors.ErrorCode_STT_MISSING_CREDENTIAL)
	if srv.requests.Load() != 0 {
		t.Fatal("no request may be made without a credential")
	}
}

func TestAssemblyAITranscribe_RejectedUpload(t *testing.T) {
	srv := newAssemblyServer(t, "completed")
	client := newTestAssemblyAI(srv, "wrong-key", newFakeTimer())

	_, err := client.Transcribe(context.Background(), Request{FilePath: writeAudio(t, "call.wav")})

	assertCode(t, err, apperrors.ErrorCode_STT_UPLOAD_FAILED)
	if srv.requests.Load() != 1 {
		t.Fatalf("expected a single upload request, got %d", srv.requests.Load())
	}
}
