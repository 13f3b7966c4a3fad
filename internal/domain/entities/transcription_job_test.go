package entities

import "testing"

func TestTranscriptionJob_Lifecycle(t *testing.T) {
	job := NewTranscriptionJob("gladia", "/tmp/a.wav", true)
	if job.State != JobStatePending {
		t.Fatalf("expected pending, got %s", job.State)
	}
	if job.StartedAt != nil {
		t.Fatal("pending job must not have a start time")
	}

	job.MarkState(JobStateUploaded)
	if job.StartedAt == nil {
		t.Fatal("expected start time once uploaded")
	}
	started := *job.StartedAt

	job.MarkState(JobStatePolling)
	if !job.StartedAt.Equal(started) {
		t.Fatal("start time must not move")
	}

	blocks := []SpeakerBlock{{Speaker: "A", Start: 0, End: 5, Text: "hi"}}
	job.MarkAsDone("Speaker A | 00:0.0 - 00:5.0\nhi\n", blocks, 1)
	if !job.State.IsTerminal() || job.CompletedAt == nil {
		t.Fatalf("expected terminal done job, got %+v", job)
	}
	if got := job.SpeakerBlocks(); len(got) != 1 || got[0].Text != "hi" {
		t.Fatalf("unexpected blocks %+v", got)
	}
}

func TestTranscriptionJob_MarkAsFailed(t *testing.T) {
	job := NewTranscriptionJob("gladia", "/tmp/a.wav", false)
	job.MarkAsFailed("STT_TIMEOUT", "did not finish")

	if job.State != JobStateError {
		t.Fatalf("expected error state, got %s", job.State)
	}
	if job.ErrorCode == nil || *job.ErrorCode != "STT_TIMEOUT" {
		t.Fatalf("unexpected code %v", job.ErrorCode)
	}
	if job.SpeakerBlocks() != nil {
		t.Fatal("failed job has no blocks")
	}
}

func TestTranscriptionJob_SetRawResult(t *testing.T) {
	job := NewTranscriptionJob("gladia", "/tmp/a.wav", true)

	job.SetRawResult([]byte("not json"))
	if job.RawResult != nil {
		t.Fatal("invalid payloads must be dropped")
	}

	job.SetRawResult([]byte(`{"status":"done"}`))
	if string(job.RawResult) != `{"status":"done"}` {
		t.Fatalf("unexpected raw result %s", job.RawResult)
	}
}
