// Package diarizer is the speaker-diarization collaborator. The real
// variant talks to a pyannote sidecar over HTTP; the stub variant produces
// deterministic alternating turns for tests and model-less hosts. Both are
// selected at construction time.
package diarizer

import (
	"context"
	"sort"

	"github.com/DrBenedictPorkins/audio-diarizer/internal/transcript"
)

// Diarizer produces speaker-labeled time intervals for an audio file.
// expectedSpeakers is an optional hint; 0 means no hint.
type Diarizer interface {
	Diarize(ctx context.Context, audioPath string, expectedSpeakers int) ([]transcript.Turn, error)
}

// Canonicalize sorts turns by start time and relabels speakers as
// "Speaker A", "Speaker B", ... in first-seen order, so downstream output
// never leaks model-internal labels.
func Canonicalize(turns []transcript.Turn) []transcript.Turn {
	out := append([]transcript.Turn(nil), turns...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })

	mapping := make(map[string]string, 4)
	for i, turn := range out {
		label, ok := mapping[turn.Speaker]
		if !ok {
			label = speakerLabel(len(mapping))
			mapping[turn.Speaker] = label
		}
		out[i].Speaker = label
	}
	return out
}

func speakerLabel(index int) string {
	return "Speaker " + string(rune('A'+index))
}
