package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UnknownSpeaker is rendered for utterances that carry no speaker
const UnknownSpeaker = "Unknown"

// Speaker identifies who spoke an utterance. Providers send either integer
// indexes (Gladia) or string labels (AssemblyAI); numbers keep their literal text.
type Speaker struct {
	Label string
	Valid bool
}

// SpeakerLabel builds a set speaker from a label
func SpeakerLabel(label string) Speaker {
	return Speaker{Label: label, Valid: true}
}

// SpeakerIndex builds a set speaker from an integer index
func SpeakerIndex(index int) Speaker {
	return Speaker{Label: fmt.Sprintf("%d", index), Valid: true}
}

// String returns the label, or UnknownSpeaker when the speaker is absent
func (s Speaker) String() string {
	if !s.Valid {
		return UnknownSpeaker
	}
	return s.Label
}

// UnmarshalJSON accepts strings, numbers and null
func (s *Speaker) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = Speaker{}
		return nil
	}

	if data[0] == '"' {
		var label string
		if err := json.Unmarshal(data, &label); err != nil {
			return fmt.Errorf("speaker: %w", err)
		}
		*s = SpeakerLabel(label)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("speaker must be a string or a number: %s", string(data))
	}
	*s = SpeakerLabel(n.String())
	return nil
}

// MarshalJSON writes the label, or null when absent
func (s Speaker) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.Label)
}

// Utterance is one speaker-attributed, time-bounded unit of transcribed speech
// as returned by the speech-to-text provider. Missing times decode as 0.
type Utterance struct {
	Speaker Speaker `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
}
