// Package preprocess is the audio decode/normalize collaborator. The real
// implementation shells out to ffmpeg, the way the rest of the toolchain
// around this service does; the stub variant serves tests and development
// hosts without ffmpeg installed.
package preprocess

import (
	"context"
	"fmt"
)

// Preprocessor converts an uploaded file into a normalized 16 kHz mono PCM
// WAV and exposes the decoded sample buffer for segmentation.
type Preprocessor interface {
	// Preprocess validates and converts the source file. It returns the
	// path of the normalized intermediate file and the source duration in
	// seconds. Exceeding the duration ceiling is an error.
	Preprocess(ctx context.Context, filePath string) (string, float64, error)

	// LoadAudio decodes a preprocessed file into float32 samples.
	LoadAudio(filePath string) ([]float32, int, error)
}

// DurationError marks a source recording that exceeds the configured
// ceiling, so submission fails before any model work starts.
type DurationError struct {
	Duration float64
	Limit    float64
}

func (e *DurationError) Error() string {
	return fmt.Sprintf("audio duration %.1fs exceeds maximum %.1fs", e.Duration, e.Limit)
}
