package transcriber

import (
	"context"
	"fmt"

	"github.com/DrBenedictPorkins/audio-diarizer/internal/transcript"
)

// Stub is the deterministic ClipTranscriber variant: text derived from the
// clip length, one word spanning the clip, full confidence.
type Stub struct{}

// NewStub builds the stub transcription collaborator.
func NewStub() *Stub {
	return &Stub{}
}

func (s *Stub) TranscribeClip(_ context.Context, samples []float32, sampleRate int) (ClipResult, error) {
	duration := float64(len(samples)) / float64(sampleRate)
	conf := 1.0
	return ClipResult{
		Text:       fmt.Sprintf("speech segment of %.1f seconds", duration),
		Confidence: &conf,
		Words: []transcript.Word{
			{Word: "speech", Start: 0, End: duration, Probability: 1.0},
		},
	}, nil
}
