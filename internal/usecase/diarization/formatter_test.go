package diarization

import (
	"testing"

	"github.com/johnquangdev/diarized-transcriber/internal/domain/entities"
)

func utt(speaker string, start, end float64, text string) entities.Utterance {
	return entities.Utterance{Speaker: entities.SpeakerLabel(speaker), Start: start, End: end, Text: text}
}

func TestFormat_EmptyInput(t *testing.T) {
	f := NewFormatter(Options{})

	if got := f.Format(nil); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
	if got := f.Blocks([]entities.Utterance{}); len(got) != 0 {
		t.Fatalf("expected no blocks, got %d", len(got))
	}
}

func TestFormat_SingleUtterance(t *testing.T) {
	f := NewFormatter(Options{})

	got := f.Format([]entities.Utterance{utt("A", 0, 5, "hi")})
	want := "Speaker A | 00:0.0 - 00:5.0\nhi\n"
	if got != want {
		t.Fatalf("unexpected output:\n got %q\nwant %q", got, want)
	}
}

func TestBlocks_GapBoundary(t *testing.T) {
	tests := []struct {
		name       string
		nextStart  float64
		wantBlocks int
	}{
		{"gap of exactly ten seconds merges", 20.0, 1},
		{"gap just above ten seconds splits", 20.0001, 2},
		{"small gap merges", 12.0, 1},
	}

	f := NewFormatter(Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks := f.Blocks([]entities.Utterance{
				utt("A", 0, 10.0, "one"),
				utt("A", tt.nextStart, tt.nextStart+1, "two"),
			})
			if len(blocks) != tt.wantBlocks {
				t.Fatalf("expected %d blocks, got %d: %+v", tt.wantBlocks, len(blocks), blocks)
			}
		})
	}
}

func TestBlocks_SpeakerChangeOverridesGap(t *testing.T) {
	f := NewFormatter(Options{})

	blocks := f.Blocks([]entities.Utterance{
		utt("A", 0, 3, "hello"),
		utt("B", 3, 6, "there"),
	})
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Speaker != "A" || blocks[1].Speaker != "B" {
		t.Fatalf("unexpected speakers %+v", blocks)
	}
}

func TestBlocks_NegativeGapOnlySplitsOnSpeakerChange(t *testing.T) {
	f := NewFormatter(Options{})

	same := f.Blocks([]entities.Utterance{
		utt("A", 0, 8, "overlap"),
		utt("A", 5, 9, "again"),
	})
	if len(same) != 1 {
		t.Fatalf("negative gap must not split, got %d blocks", len(same))
	}
	if same[0].Start != 0 || same[0].End != 9 {
		t.Fatalf("unexpected bounds %+v", same[0])
	}

	different := f.Blocks([]entities.Utterance{
		utt("A", 0, 8, "overlap"),
		utt("B", 5, 9, "interrupt"),
	})
	if len(different) != 2 {
		t.Fatalf("speaker change must split, got %d blocks", len(different))
	}
}

func TestBlocks_SpeakerComparisonIsCaseSensitive(t *testing.T) {
	f := NewFormatter(Options{})

	blocks := f.Blocks([]entities.Utterance{
		utt("alice", 0, 1, "a"),
		utt("Alice", 1, 2, "b"),
	})
	if len(blocks) != 2 {
		t.Fatalf("expected case-sensitive split, got %d blocks", len(blocks))
	}
}

func TestBlocks_MergesTextWithSingleSpaces(t *testing.T) {
	f := NewFormatter(Options{})

	blocks := f.Blocks([]entities.Utterance{
		utt("1", 1, 2, "good"),
		utt("1", 2.5, 4, "morning"),
		utt("1", 4.2, 6.7, "everyone"),
	})
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	want := entities.SpeakerBlock{Speaker: "1", Start: 1, End: 6.7, Text: "good morning everyone"}
	if blocks[0] != want {
		t.Fatalf("unexpected block:\n got %+v\nwant %+v", blocks[0], want)
	}
}

func TestFormat_MissingSpeakerRendersUnknown(t *testing.T) {
	f := NewFormatter(Options{})

	got := f.Format([]entities.Utterance{{Start: 1, End: 2, Text: "who"}})
	want := "Speaker Unknown | 00:1.0 - 00:2.0\nwho\n"
	if got != want {
		t.Fatalf("unexpected output:\n got %q\nwant %q", got, want)
	}
}

func TestFormat_BlocksSeparatedByBlankLine(t *testing.T) {
	f := NewFormatter(Options{})

	got := f.Format([]entities.Utterance{
		utt("0", 0, 4.5, "Hi,"),
		utt("0", 5, 7, "welcome."),
		utt("1", 7.5, 9, "Thanks."),
		utt("1", 30, 125.4, "Later."),
	})
	want := "Speaker 0 | 00:0.0 - 00:7.0\nHi, welcome.\n" +
		"\n" +
		"Speaker 1 | 00:7.5 - 00:9.0\nThanks.\n" +
		"\n" +
		"Speaker 1 | 00:30.0 - 02:5.4\nLater.\n"
	if got != want {
		t.Fatalf("unexpected output:\n got %q\nwant %q", got, want)
	}
}

func TestFormat_Idempotent(t *testing.T) {
	f := NewFormatter(Options{})
	input := []entities.Utterance{
		utt("A", 0, 1, "x"),
		utt("B", 1, 2, "y"),
		utt("A", 40, 41, "z"),
	}

	first := f.Format(input)
	second := f.Format(input)
	if first != second {
		t.Fatalf("output changed between runs:\n%q\n%q", first, second)
	}
}

func TestNewFormatter_CustomGap(t *testing.T) {
	f := NewFormatter(Options{MaxGap: 2})
	if f.MaxGap() != 2 {
		t.Fatalf("expected gap 2, got %v", f.MaxGap())
	}

	blocks := f.Blocks([]entities.Utterance{
		utt("A", 0, 1, "x"),
		utt("A", 3.5, 4, "y"),
	})
	if len(blocks) != 2 {
		t.Fatalf("expected split with 2s gap, got %d blocks", len(blocks))
	}

	if NewFormatter(Options{MaxGap: -1}).MaxGap() != DefaultMaxGap {
		t.Fatal("non-positive gap must select the default")
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:0.0"},
		{5, "00:5.0"},
		{61, "01:1.0"},
		{125.4, "02:5.4"},
		{600.25, "10:0.2"},
		{3600, "60:0.0"},
		{59.96, "00:60.0"},
	}

	for _, tt := range tests {
		if got := FormatTimestamp(tt.seconds); got != tt.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
