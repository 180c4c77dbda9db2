// Package llm is the optional transcript-enhancement collaborator backed by
// an Ollama server. Everything here is best-effort: callers must treat a
// nil result or an error as "no enhancements", never as a job failure.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/DrBenedictPorkins/audio-diarizer/internal/transcript"
)

// maxTranscriptChars bounds the transcript text sent in one prompt.
const maxTranscriptChars = 8000

// Enhancer generates the optional summary/action-items/topics analysis.
type Enhancer interface {
	Available(ctx context.Context) bool
	Enhance(ctx context.Context, segments []transcript.Segment) (*transcript.Enhancements, error)
}

// OllamaClient talks to an Ollama server over its HTTP API.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOllamaClient builds the real enhancement adapter.
func NewOllamaClient(baseURL, model string) *OllamaClient {
	return &OllamaClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Available probes the server's model listing endpoint.
func (c *OllamaClient) Available(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Enhance runs the three analyses sequentially to avoid overloading the
// model server. Individual failures leave that field nil; only a fully
// empty outcome is reported as an error.
func (c *OllamaClient) Enhance(ctx context.Context, segments []transcript.Segment) (*transcript.Enhancements, error) {
	transcriptText := formatForPrompt(segments, maxTranscriptChars)

	enh := &transcript.Enhancements{}
	enh.Summary = c.tryGenerate(ctx, "summary", summaryPrompt(transcriptText), 0.1)
	enh.ActionItems = c.tryGenerate(ctx, "action items", actionItemsPrompt(transcriptText), 0.1)
	enh.Topics = c.tryGenerate(ctx, "topics", topicsPrompt(transcriptText), 0.2)

	if enh.Summary == nil && enh.ActionItems == nil && enh.Topics == nil {
		return nil, fmt.Errorf("ollama produced no enhancements")
	}
	return enh, nil
}

func (c *OllamaClient) tryGenerate(ctx context.Context, kind, prompt string, temperature float64) *string {
	text, err := c.generate(ctx, prompt, temperature)
	if err != nil {
		log.Printf("Ollama %s generation failed: %v", kind, err)
		return nil
	}
	if text == "" {
		return nil
	}
	return &text
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func (c *OllamaClient) generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: map[string]any{
			"temperature": temperature,
			"top_p":       0.9,
			"top_k":       40,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to parse ollama response: %w", err)
	}
	return strings.TrimSpace(decoded.Response), nil
}

func summaryPrompt(transcriptText string) string {
	return `Please provide a concise summary of this meeting transcript. Focus on:
1. Key topics discussed
2. Main decisions made
3. Action items or next steps
4. Important points raised by each speaker

Transcript:
` + transcriptText + `

Summary:`
}

func actionItemsPrompt(transcriptText string) string {
	return `Extract all action items, tasks, and next steps from this meeting transcript. Format as a bullet-point list.

Transcript:
` + transcriptText + `

Action Items:`
}

func topicsPrompt(transcriptText string) string {
	return `Identify the main topics and themes discussed in this meeting transcript. List them as bullet points.

Transcript:
` + transcriptText + `

Main Topics:`
}

// formatForPrompt renders "speaker: text" lines, truncated at maxLen chars.
func formatForPrompt(segments []transcript.Segment, maxLen int) string {
	var lines []string
	length := 0
	for _, s := range segments {
		line := s.Speaker + ": " + s.Text
		if length+len(line) > maxLen {
			break
		}
		lines = append(lines, line)
		length += len(line) + 1
	}
	return strings.Join(lines, "\n")
}

// Disabled is the Enhancer variant used when LLM analysis is turned off or
// no server is configured.
type Disabled struct{}

func (Disabled) Available(context.Context) bool { return false }

func (Disabled) Enhance(context.Context, []transcript.Segment) (*transcript.Enhancements, error) {
	return nil, nil
}
