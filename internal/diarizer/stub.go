package diarizer

import (
	"context"
	"fmt"

	"github.com/DrBenedictPorkins/audio-diarizer/internal/preprocess"
	"github.com/DrBenedictPorkins/audio-diarizer/internal/transcript"
)

// Stub produces deterministic alternating-speaker turns sized to the
// recording: segment length max(2s, duration/8), two speakers unless the
// hint says otherwise.
type Stub struct{}

// NewStub builds the deterministic diarizer variant.
func NewStub() *Stub {
	return &Stub{}
}

func (s *Stub) Diarize(_ context.Context, audioPath string, expectedSpeakers int) ([]transcript.Turn, error) {
	samples, rate, err := preprocess.LoadWAV(audioPath)
	if err != nil {
		return nil, fmt.Errorf("stub diarizer: %w", err)
	}
	duration := float64(len(samples)) / float64(rate)

	speakers := expectedSpeakers
	if speakers <= 0 {
		speakers = 2
	}

	segmentLength := duration / 8
	if segmentLength < 2.0 {
		segmentLength = 2.0
	}

	var turns []transcript.Turn
	current := 0.0
	idx := 0
	for current < duration {
		end := current + segmentLength
		if end > duration {
			end = duration
		}
		turns = append(turns, transcript.Turn{
			Start:   current,
			End:     end,
			Speaker: speakerLabel(idx),
		})
		current = end
		idx = (idx + 1) % speakers
	}

	return turns, nil
}
