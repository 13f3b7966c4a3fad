package transcription

// CreateTranscriptionRequest represents the request to start a transcription job
type CreateTranscriptionRequest struct {
	FilePath    string `json:"file_path" validate:"required"`
	Diarization *bool  `json:"diarization,omitempty"`
	Provider    string `json:"provider,omitempty" validate:"omitempty,oneof=gladia assemblyai"`
}

