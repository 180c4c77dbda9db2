// Package format renders merged transcript segments into the response
// formats the API offers. All renderers are pure functions; external tools
// parse the subtitle outputs, so the timestamp layouts are exact.
package format

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/DrBenedictPorkins/audio-diarizer/internal/transcript"
)

// Format identifies one of the supported response formats.
type Format string

const (
	FormatJSON Format = "json"
	FormatSRT  Format = "srt"
	FormatVTT  Format = "vtt"
	FormatText Format = "text"
)

// Parse validates a client-supplied format name. An empty name selects JSON.
func Parse(name string) (Format, error) {
	switch Format(name) {
	case FormatJSON, FormatSRT, FormatVTT, FormatText:
		return Format(name), nil
	case "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown response format %q", name)
	}
}

// Utterance is one speaker-coherent unit of the structured result.
type Utterance struct {
	Speaker    string   `json:"speaker"`
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence"`
}

// Result is the structured (JSON) response body.
type Result struct {
	Utterances       []Utterance              `json:"utterances"`
	AudioDuration    float64                  `json:"audio_duration"`
	SpeakersDetected int                      `json:"speakers_detected"`
	LLMEnhancements  *transcript.Enhancements `json:"llm_enhancements,omitempty"`
}

// Render produces the final result string for the requested format.
func Render(f Format, segments []transcript.Segment, duration float64, speakers int, enhancements *transcript.Enhancements) (string, error) {
	switch f {
	case FormatSRT:
		return RenderSRT(segments), nil
	case FormatVTT:
		return RenderVTT(segments), nil
	case FormatText:
		return RenderText(segments), nil
	default:
		return RenderJSON(segments, duration, speakers, enhancements)
	}
}

// RenderJSON marshals the structured result.
func RenderJSON(segments []transcript.Segment, duration float64, speakers int, enhancements *transcript.Enhancements) (string, error) {
	result := Result{
		Utterances:       make([]Utterance, 0, len(segments)),
		AudioDuration:    duration,
		SpeakersDetected: speakers,
		LLMEnhancements:  enhancements,
	}
	for _, s := range segments {
		result.Utterances = append(result.Utterances, Utterance{
			Speaker:    s.Speaker,
			Start:      s.Start,
			End:        s.End,
			Text:       s.Text,
			Confidence: s.Confidence,
		})
	}

	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(data), nil
}

// RenderSRT produces sequential caption blocks: 1-based index, comma-decimal
// timestamp pair, "[speaker] text", blank line between blocks.
func RenderSRT(segments []transcript.Segment) string {
	var lines []string
	for i, s := range segments {
		lines = append(lines,
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%s --> %s", Timestamp(s.Start), Timestamp(s.End)),
			fmt.Sprintf("[%s] %s", s.Speaker, s.Text),
			"",
		)
	}
	return strings.Join(lines, "\n")
}

// RenderVTT produces a WEBVTT document: same blocks as SRT but with a period
// decimal separator and no numeric index.
func RenderVTT(segments []transcript.Segment) string {
	lines := []string{"WEBVTT", ""}
	for _, s := range segments {
		lines = append(lines,
			fmt.Sprintf("%s --> %s", TimestampVTT(s.Start), TimestampVTT(s.End)),
			fmt.Sprintf("[%s] %s", s.Speaker, s.Text),
			"",
		)
	}
	return strings.Join(lines, "\n")
}

// RenderText produces one "[HH:MM:SS,mmm] speaker: text" line per utterance.
func RenderText(segments []transcript.Segment) string {
	lines := make([]string, 0, len(segments))
	for _, s := range segments {
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", Timestamp(s.Start), s.Speaker, s.Text))
	}
	return strings.Join(lines, "\n")
}

// Timestamp converts seconds to HH:MM:SS,mmm.
func Timestamp(seconds float64) string {
	h, m, s, ms := splitTime(seconds)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// TimestampVTT converts seconds to HH:MM:SS.mmm.
func TimestampVTT(seconds float64) string {
	h, m, s, ms := splitTime(seconds)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

func splitTime(seconds float64) (h, m, s, ms int) {
	total := int(math.Round(seconds * 1000))
	if total < 0 {
		total = 0
	}
	h = total / 3600000
	m = total % 3600000 / 60000
	s = total % 60000 / 1000
	ms = total % 1000
	return h, m, s, ms
}
