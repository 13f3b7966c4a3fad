package entities

import (
	"encoding/json"
	"testing"
)

func TestUtterance_UnmarshalSpeakerShapes(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantLabel string
		wantValid bool
	}{
		{"integer", `{"speaker": 1, "start": 0.5, "end": 1.5, "text": "hi"}`, "1", true},
		{"string", `{"speaker": "A", "start": 0, "end": 1, "text": "hi"}`, "A", true},
		{"null", `{"speaker": null, "start": 0, "end": 1, "text": "hi"}`, "", false},
		{"absent", `{"start": 0, "end": 1, "text": "hi"}`, "", false},
		{"empty string is still set", `{"speaker": "", "text": "hi"}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u Utterance
			if err := json.Unmarshal([]byte(tt.payload), &u); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if u.Speaker.Label != tt.wantLabel || u.Speaker.Valid != tt.wantValid {
				t.Fatalf("unexpected speaker %+v", u.Speaker)
			}
		})
	}
}

func TestUtterance_MissingTimesDefaultToZero(t *testing.T) {
	var u Utterance
	if err := json.Unmarshal([]byte(`{"speaker": 0}`), &u); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if u.Start != 0 || u.End != 0 || u.Text != "" {
		t.Fatalf("expected zero defaults, got %+v", u)
	}
}

func TestSpeaker_RejectsBooleans(t *testing.T) {
	var u Utterance
	if err := json.Unmarshal([]byte(`{"speaker": true}`), &u); err == nil {
		t.Fatal("expected error for boolean speaker")
	}
}

func TestSpeaker_String(t *testing.T) {
	if got := (Speaker{}).String(); got != UnknownSpeaker {
		t.Fatalf("expected %q, got %q", UnknownSpeaker, got)
	}
	if got := SpeakerIndex(2).String(); got != "2" {
		t.Fatalf("expected 2, got %q", got)
	}
}

func TestSpeaker_MarshalRoundTripKeepsAbsence(t *testing.T) {
	b, err := json.Marshal(Utterance{Text: "x"})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var u Utterance
	if err := json.Unmarshal(b, &u); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if u.Speaker.Valid {
		t.Fatal("absent speaker must stay absent")
	}
}
