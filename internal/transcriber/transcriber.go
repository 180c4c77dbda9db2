// Package transcriber is the per-clip transcription collaborator. The real
// variant speaks the Vosk websocket protocol; the stub variant returns
// deterministic text for tests and model-less hosts.
package transcriber

import (
	"context"

	"github.com/DrBenedictPorkins/audio-diarizer/internal/transcript"
)

// ClipResult is one clip's transcription. Word times are relative to the
// clip start; the pipeline offsets them onto the recording timeline.
type ClipResult struct {
	Text       string
	Confidence *float64
	Words      []transcript.Word
}

// ClipTranscriber transcribes one prepared audio clip.
type ClipTranscriber interface {
	TranscribeClip(ctx context.Context, samples []float32, sampleRate int) (ClipResult, error)
}
