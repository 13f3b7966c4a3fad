package transcription

import "time"

// SpeakerBlockResponse is one rendered speaker paragraph
type SpeakerBlockResponse struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
}

// TranscriptionJobResponse represents a transcription job
type TranscriptionJobResponse struct {
	ID             string                 `json:"id"`
	Provider       string                 `json:"provider"`
	FilePath       string                 `json:"file_path"`
	Diarization    bool                   `json:"diarization"`
	State          string                 `json:"state"`
	ResultURL      *string                `json:"result_url,omitempty"`
	PollAttempts   int                    `json:"poll_attempts"`
	UtteranceCount int                    `json:"utterance_count"`
	Transcript     string                 `json:"transcript,omitempty"`
	Blocks         []SpeakerBlockResponse `json:"blocks,omitempty"`
	ArtifactURL    string                 `json:"artifact_url,omitempty"`
	ErrorCode      *string                `json:"error_code,omitempty"`
	LastError      *string                `json:"last_error,omitempty"`
	StartedAt      *time.Time             `json:"started_at,omitempty"`
	CompletedAt    *time.Time             `json:"completed_at,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// JobStatusResponse is the cached lifecycle view of a job
type JobStatusResponse struct {
	ID           string    `json:"id"`
	Provider     string    `json:"provider"`
	State        string    `json:"state"`
	PollAttempts int       `json:"poll_attempts"`
	ErrorCode    string    `json:"error_code,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}
