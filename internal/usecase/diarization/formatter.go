// Package diarization merges speaker-tagged utterances into readable speaker
// blocks and renders them as plain text.
//
// Rendering of a block:
//
//	Speaker 1 | 00:3.2 - 01:12.0
//	first utterance second utterance
//
// Blocks are separated by a blank line. The formatter never fails: missing
// fields fall back to "Unknown", 0 and "".
package diarization

import (
	"fmt"
	"math"
	"strings"

	"github.com/johnquangdev/diarized-transcriber/internal/domain/entities"
)

// DefaultMaxGap is the silence, in seconds, after which the same speaker starts a new block
const DefaultMaxGap = 10.0

// Options configures a Formatter
type Options struct {
	// MaxGap in seconds; zero or negative selects DefaultMaxGap.
	MaxGap float64
}

// Formatter is stateless and safe for concurrent use
type Formatter struct {
	maxGap float64
}

// NewFormatter creates a formatter
func NewFormatter(opts Options) *Formatter {
	maxGap := opts.MaxGap
	if maxGap <= 0 {
		maxGap = DefaultMaxGap
	}
	return &Formatter{maxGap: maxGap}
}

// MaxGap returns the gap threshold in seconds
func (f *Formatter) MaxGap() float64 {
	return f.maxGap
}

// Blocks merges utterances into speaker blocks in a single forward pass.
// A block ends when the speaker changes or when the next utterance starts
// strictly more than MaxGap seconds after the previous one ended.
func (f *Formatter) Blocks(utterances []entities.Utterance) []entities.SpeakerBlock {
	var (
		blocks  []entities.SpeakerBlock
		current *entities.SpeakerBlock
		texts   []string
	)

	finalize := func() {
		current.Text = strings.Join(texts, " ")
		blocks = append(blocks, *current)
	}

	for _, u := range utterances {
		speaker := u.Speaker.String()

		// Negative gaps (overlapping speech) never trigger the gap rule.
		startsNewBlock := current == nil ||
			speaker != current.Speaker ||
			u.Start-current.End > f.maxGap

		if startsNewBlock {
			if current != nil {
				finalize()
			}
			current = &entities.SpeakerBlock{Start: u.Start}
			texts = nil
		}

		current.Speaker = speaker
		current.End = u.End
		texts = append(texts, u.Text)
	}

	if current != nil {
		finalize()
	}

	return blocks
}

// Format renders the utterances as speaker blocks separated by blank lines.
// Empty input yields "".
func (f *Formatter) Format(utterances []entities.Utterance) string {
	return RenderBlocks(f.Blocks(utterances))
}

// RenderBlocks renders already merged blocks
func RenderBlocks(blocks []entities.SpeakerBlock) string {
	rendered := make([]string, len(blocks))
	for i, b := range blocks {
		rendered[i] = RenderBlock(b)
	}
	return strings.Join(rendered, "\n")
}

// RenderBlock renders one block as a header line and a text line
func RenderBlock(b entities.SpeakerBlock) string {
	return fmt.Sprintf("Speaker %s | %s - %s\n%s\n",
		b.Speaker, FormatTimestamp(b.Start), FormatTimestamp(b.End), b.Text)
}

// FormatTimestamp renders seconds as MM:S.s, e.g. 125.4 -> "02:5.4".
// Minutes use floor division and seconds the floored remainder.
func FormatTimestamp(seconds float64) string {
	minutes, rem := floorDivMod(seconds, 60)
	return fmt.Sprintf("%02d:%.1f", int64(minutes), rem)
}

// floorDivMod returns floor(x/y) and the remainder with the sign of y
func floorDivMod(x, y float64) (float64, float64) {
	mod := math.Mod(x, y)
	div := (x - mod) / y
	if mod != 0 {
		if (y < 0) != (mod < 0) {
			mod += y
			div--
		}
	} else {
		mod = math.Copysign(0, y)
	}

	if div != 0 {
		floored := math.Floor(div)
		if div-floored > 0.5 {
			floored++
		}
		div = floored
	} else {
		div = math.Copysign(0, x/y)
	}
	return div, mod
}

// FormatFlat returns a transcript produced without diarization unchanged
func FormatFlat(text string) string {
	return text
}
