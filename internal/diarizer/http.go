package diarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/DrBenedictPorkins/audio-diarizer/internal/transcript"
)

// HTTPDiarizer calls a diarization sidecar service that shares the upload
// volume with this process, so requests carry the file path rather than the
// audio itself.
type HTTPDiarizer struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPDiarizer builds the real diarization adapter.
func NewHTTPDiarizer(baseURL string, timeout time.Duration) *HTTPDiarizer {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &HTTPDiarizer{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type diarizeRequest struct {
	AudioPath   string `json:"audio_path"`
	NumSpeakers int    `json:"num_speakers,omitempty"`
}

type diarizeResponse struct {
	Turns []struct {
		Start   float64 `json:"start"`
		End     float64 `json:"end"`
		Speaker string  `json:"speaker"`
	} `json:"turns"`
}

func (d *HTTPDiarizer) Diarize(ctx context.Context, audioPath string, expectedSpeakers int) ([]transcript.Turn, error) {
	payload, err := json.Marshal(diarizeRequest{
		AudioPath:   audioPath,
		NumSpeakers: expectedSpeakers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode diarize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/diarize", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build diarize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("diarization request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("diarization service returned status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var decoded diarizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to parse diarization response: %w", err)
	}

	turns := make([]transcript.Turn, 0, len(decoded.Turns))
	for _, t := range decoded.Turns {
		turns = append(turns, transcript.Turn{Start: t.Start, End: t.End, Speaker: t.Speaker})
	}
	return Canonicalize(turns), nil
}
