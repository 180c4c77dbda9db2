package preprocess

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// FFmpegPreprocessor probes the source with ffprobe and converts it to a
// loudness-normalized 16 kHz mono WAV next to the original, prefixed
// "processed_".
type FFmpegPreprocessor struct {
	SampleRate  int
	MaxDuration float64 // seconds; 0 disables the ceiling
}

// NewFFmpegPreprocessor builds the real decode collaborator.
func NewFFmpegPreprocessor(sampleRate int, maxDuration float64) *FFmpegPreprocessor {
	return &FFmpegPreprocessor{SampleRate: sampleRate, MaxDuration: maxDuration}
}

func (p *FFmpegPreprocessor) Preprocess(ctx context.Context, filePath string) (string, float64, error) {
	duration, err := p.probeDuration(ctx, filePath)
	if err != nil {
		return "", 0, err
	}
	if p.MaxDuration > 0 && duration > p.MaxDuration {
		return "", 0, &DurationError{Duration: duration, Limit: p.MaxDuration}
	}

	outPath := processedPath(filePath)
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y", "-i", filePath,
		"-af", "loudnorm",
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", strconv.Itoa(p.SampleRate),
		"-f", "wav",
		outPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", 0, fmt.Errorf("ffmpeg conversion failed: %w (%s)", err, lastLine(stderr.String()))
	}

	return outPath, duration, nil
}

func (p *FFmpegPreprocessor) LoadAudio(filePath string) ([]float32, int, error) {
	return LoadWAV(filePath)
}

func (p *FFmpegPreprocessor) probeDuration(ctx context.Context, filePath string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		filePath,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w", filePath, err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe duration %q: %w", strings.TrimSpace(string(out)), err)
	}
	return duration, nil
}

// processedPath places the intermediate next to the source so cleanup can
// reconstruct it from the original path alone.
func processedPath(filePath string) string {
	dir := filepath.Dir(filePath)
	return filepath.Join(dir, "processed_"+filepath.Base(filePath))
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
