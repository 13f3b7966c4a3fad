package presenter

import (
	"github.com/johnquangdev/diarized-transcriber/internal/adapter/dto/transcription"
	"github.com/johnquangdev/diarized-transcriber/internal/domain/entities"
)

// ToTranscriptionJobResponse converts a TranscriptionJob entity to its DTO
func ToTranscriptionJobResponse(j *entities.TranscriptionJob, artifactURL string) *transcription.TranscriptionJobResponse {
	if j == nil {
		return nil
	}

	response := &transcription.TranscriptionJobResponse{
		ID:             j.ID.String(),
		Provider:       j.Provider,
		FilePath:       j.FilePath,
		Diarization:    j.Diarization,
		State:          string(j.State),
		ResultURL:      j.ResultURL,
		PollAttempts:   j.PollAttempts,
		UtteranceCount: j.UtteranceCount,
		Transcript:     j.Transcript,
		ArtifactURL:    artifactURL,
		ErrorCode:      j.ErrorCode,
		LastError:      j.LastError,
		StartedAt:      j.StartedAt,
		CompletedAt:    j.CompletedAt,
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      j.UpdatedAt,
	}

	// Blocks are only stored for diarized jobs
	if blocks := j.SpeakerBlocks(); len(blocks) > 0 {
		response.Blocks = make([]transcription.SpeakerBlockResponse, len(blocks))
		for i, b := range blocks {
			response.Blocks[i] = transcription.SpeakerBlockResponse{
				Speaker: b.Speaker,
				Start:   b.Start,
				End:     b.End,
				Text:    b.Text,
			}
		}
	}

	return response
}

// ToJobStatusResponse converts a cached JobStatus to its DTO
func ToJobStatusResponse(s *entities.JobStatus) *transcription.JobStatusResponse {
	if s == nil {
		return nil
	}
	return &transcription.JobStatusResponse{
		ID:           s.JobID.String(),
		Provider:     s.Provider,
		State:        string(s.State),
		PollAttempts: s.PollAttempts,
		ErrorCode:    s.ErrorCode,
		UpdatedAt:    s.UpdatedAt,
	}
}
