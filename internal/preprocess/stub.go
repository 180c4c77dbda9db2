package preprocess

import (
	"context"
	"fmt"
	"os"
)

// Stub is the deterministic Preprocessor variant. It performs no
// conversion: the source must already be a 16-bit PCM mono WAV, which it
// copies to the "processed_" intermediate so the cleanup contract stays
// identical to the real adapter.
type Stub struct {
	MaxDuration float64
}

// NewStub builds the stub decode collaborator.
func NewStub(maxDuration float64) *Stub {
	return &Stub{MaxDuration: maxDuration}
}

func (s *Stub) Preprocess(_ context.Context, filePath string) (string, float64, error) {
	samples, rate, err := LoadWAV(filePath)
	if err != nil {
		return "", 0, fmt.Errorf("stub preprocess: %w", err)
	}

	duration := float64(len(samples)) / float64(rate)
	if s.MaxDuration > 0 && duration > s.MaxDuration {
		return "", 0, &DurationError{Duration: duration, Limit: s.MaxDuration}
	}

	outPath := processedPath(filePath)
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", 0, fmt.Errorf("stub preprocess: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return "", 0, fmt.Errorf("stub preprocess: %w", err)
	}

	return outPath, duration, nil
}

func (s *Stub) LoadAudio(filePath string) ([]float32, int, error) {
	return LoadWAV(filePath)
}
