package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// JobState represents the lifecycle stage of a transcription request
type JobState string

const (
	JobStatePending   JobState = "pending"   // Accepted, waiting for a worker slot
	JobStateUploaded  JobState = "uploaded"  // Audio uploaded, asset reference received
	JobStateSubmitted JobState = "submitted" // Job created remotely, result reference received
	JobStatePolling   JobState = "polling"   // Waiting for the remote job to finish
	JobStateDone      JobState = "done"      // Transcript available
	JobStateError     JobState = "error"     // Failed, see LastError
)

// IsTerminal reports whether no further transitions can happen
func (s JobState) IsTerminal() bool {
	return s == JobStateDone || s == JobStateError
}

// TranscriptionJob is the persisted record of one transcription request
type TranscriptionJob struct {
	ID             uuid.UUID                          `json:"id" gorm:"type:uuid;primary_key"`
	Provider       string                             `json:"provider" gorm:"type:varchar(50);not null"`
	FilePath       string                             `json:"file_path" gorm:"type:text;not null"`
	Diarization    bool                               `json:"diarization" gorm:"not null;default:true"`
	State          JobState                           `json:"state" gorm:"type:varchar(20);not null;index;default:'pending'"`
	ResultURL      *string                            `json:"result_url,omitempty" gorm:"type:text"`
	PollAttempts   int                                `json:"poll_attempts" gorm:"type:integer;default:0"`
	Transcript     string                             `json:"transcript,omitempty" gorm:"type:text"`
	Blocks         datatypes.JSONType[[]SpeakerBlock] `json:"blocks,omitempty" gorm:"type:jsonb"`
	UtteranceCount int                                `json:"utterance_count" gorm:"type:integer;default:0"`
	ArtifactKey    *string                            `json:"artifact_key,omitempty" gorm:"type:text"`
	RawResult      datatypes.JSON                     `json:"-" gorm:"type:jsonb"`
	LastError      *string                            `json:"last_error,omitempty" gorm:"type:text"`
	ErrorCode      *string                            `json:"error_code,omitempty" gorm:"type:varchar(50)"`
	StartedAt      *time.Time                         `json:"started_at,omitempty" gorm:"type:timestamp"`
	CompletedAt    *time.Time                         `json:"completed_at,omitempty" gorm:"type:timestamp"`
	CreatedAt      time.Time                          `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time                          `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (TranscriptionJob) TableName() string {
	return "transcription_jobs"
}

// NewTranscriptionJob creates a new pending job
func NewTranscriptionJob(provider, filePath string, diarization bool) *TranscriptionJob {
	now := time.Now()
	return &TranscriptionJob{
		ID:          uuid.New(),
		Provider:    provider,
		FilePath:    filePath,
		Diarization: diarization,
		State:       JobStatePending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MarkState records a non-terminal lifecycle transition
func (j *TranscriptionJob) MarkState(state JobState) {
	now := time.Now()
	if j.StartedAt == nil && state != JobStatePending {
		j.StartedAt = &now
	}
	j.State = state
	j.UpdatedAt = now
}

// MarkAsDone stores the formatted transcript
func (j *TranscriptionJob) MarkAsDone(transcript string, blocks []SpeakerBlock, utteranceCount int) {
	j.State = JobStateDone
	j.Transcript = transcript
	j.Blocks = datatypes.NewJSONType(blocks)
	j.UtteranceCount = utteranceCount
	j.LastError = nil
	j.ErrorCode = nil
	now := time.Now()
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// MarkAsFailed marks job as failed with error message and code
func (j *TranscriptionJob) MarkAsFailed(code, errMsg string) {
	j.State = JobStateError
	j.LastError = &errMsg
	j.ErrorCode = &code
	now := time.Now()
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// SpeakerBlocks returns the stored blocks, or nil when none were stored
func (j *TranscriptionJob) SpeakerBlocks() []SpeakerBlock {
	return j.Blocks.Data()
}

// SetRawResult keeps the provider's final payload when it is valid JSON
func (j *TranscriptionJob) SetRawResult(raw []byte) {
	if len(raw) == 0 || !json.Valid(raw) {
		return
	}
	j.RawResult = datatypes.JSON(raw)
}
