package jobcontext

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestJobBegin_Metadata(t *testing.T) {
	id := uuid.New()
	ctx, cancel := JobBegin(context.Background(), id, "gladia", time.Minute)
	defer cancel()

	meta := GetJobMetadata(ctx)
	if meta.JobID != id || meta.Provider != "gladia" {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	if meta.StartTime.IsZero() || meta.Deadline.IsZero() {
		t.Fatalf("expected start time and deadline, got %+v", meta)
	}
	if d := meta.Deadline.Sub(meta.StartTime); d > time.Minute+time.Second {
		t.Fatalf("deadline too far: %v", d)
	}
}

func TestJobBegin_DefaultTimeout(t *testing.T) {
	ctx, cancel := JobBegin(context.Background(), uuid.New(), "gladia", 0)
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok || time.Until(deadline) < DefaultTimeout-time.Minute {
		t.Fatalf("expected default deadline, got %v", deadline)
	}
}

func TestRun(t *testing.T) {
	boom := errors.New("boom")
	if err := Run(context.Background(), func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	err := Run(context.Background(), func(context.Context) error { panic("bad state") })
	if err == nil || !strings.Contains(err.Error(), "bad state") {
		t.Fatalf("expected recovered panic, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err = Run(ctx, func(context.Context) error { called = true; return nil })
	if err == nil || called {
		t.Fatal("cancelled context must not run the job")
	}
}
