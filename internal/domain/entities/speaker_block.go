package entities

// SpeakerBlock is a merged run of consecutive utterances rendered as one paragraph
type SpeakerBlock struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
}

// Duration returns the block length in seconds
func (b SpeakerBlock) Duration() float64 {
	return b.End - b.Start
}
