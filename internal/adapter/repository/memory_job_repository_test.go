package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/diarized-transcriber/internal/domain/entities"
	"github.com/johnquangdev/diarized-transcriber/internal/domain/repositories"
)

var _ repositories.TranscriptionJobRepository = (*MemoryJobRepository)(nil)
var _ repositories.TranscriptionJobRepository = (*TranscriptionJobRepository)(nil)

func TestMemoryJobRepository_CreateGetUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryJobRepository()

	job := entities.NewTranscriptionJob("gladia", "/tmp/a.wav", true)
	if err := repo.CreateJob(ctx, job); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.CreateJob(ctx, job); err == nil {
		t.Fatal("expected duplicate create to fail")
	}

	got, err := repo.GetJobByID(ctx, job.ID)
	if err != nil || got == nil {
		t.Fatalf("get: %v %v", got, err)
	}

	// Returned jobs are copies.
	got.MarkState(entities.JobStatePolling)
	stored, _ := repo.GetJobByID(ctx, job.ID)
	if stored.State != entities.JobStatePending {
		t.Fatalf("stored job changed without update: %s", stored.State)
	}

	if err := repo.UpdateJob(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	stored, _ = repo.GetJobByID(ctx, job.ID)
	if stored.State != entities.JobStatePolling {
		t.Fatalf("expected polling, got %s", stored.State)
	}
}

func TestMemoryJobRepository_GetMissingReturnsNil(t *testing.T) {
	job, err := NewMemoryJobRepository().GetJobByID(context.Background(), uuid.New())
	if err != nil || job != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", job, err)
	}
}

func TestMemoryJobRepository_ListAndFailInterrupted(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryJobRepository()

	base := time.Now()
	states := []entities.JobState{entities.JobStatePending, entities.JobStatePolling, entities.JobStateDone}
	for i, state := range states {
		job := entities.NewTranscriptionJob("gladia", "/tmp/a.wav", true)
		job.State = state
		job.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := repo.CreateJob(ctx, job); err != nil {
			t.Fatal(err)
		}
	}

	active, err := repo.ListJobsByState(ctx, []entities.JobState{entities.JobStatePending, entities.JobStatePolling}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 2 || active[0].State != entities.JobStatePending {
		t.Fatalf("unexpected active jobs %+v", active)
	}

	n, err := repo.FailInterruptedJobs(ctx, "STT_CANCELLED", "interrupted by restart")
	if err != nil || n != 2 {
		t.Fatalf("expected 2 failed jobs, got %d (%v)", n, err)
	}

	failed, _ := repo.ListJobsByState(ctx, []entities.JobState{entities.JobStateError}, 0)
	if len(failed) != 2 || *failed[0].ErrorCode != "STT_CANCELLED" {
		t.Fatalf("unexpected failed jobs %+v", failed)
	}
}
