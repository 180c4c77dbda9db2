package format

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/DrBenedictPorkins/audio-diarizer/internal/transcript"
)

func sampleSegments() []transcript.Segment {
	conf := 0.5
	return []transcript.Segment{
		{Speaker: "Speaker A", Start: 0.0, End: 2.5, Text: "hello there", Confidence: &conf},
		{Speaker: "Speaker B", Start: 125.5, End: 130.0, Text: "hi"},
	}
}

func TestTimestampFormats(t *testing.T) {
	testCases := []struct {
		name    string
		seconds float64
		srt     string
		vtt     string
	}{
		{"Zero", 0, "00:00:00,000", "00:00:00.000"},
		{"Minutes with millis", 125.5, "00:02:05,500", "00:02:05.500"},
		{"Hours", 3661.007, "01:01:01,007", "01:01:01.007"},
		{"Sub-second", 0.042, "00:00:00,042", "00:00:00.042"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Timestamp(tc.seconds); got != tc.srt {
				t.Errorf("Timestamp(%v): got %q, want %q", tc.seconds, got, tc.srt)
			}
			if got := TimestampVTT(tc.seconds); got != tc.vtt {
				t.Errorf("TimestampVTT(%v): got %q, want %q", tc.seconds, got, tc.vtt)
			}
		})
	}
}

func TestRenderSRT(t *testing.T) {
	out := RenderSRT(sampleSegments())

	want := "1\n" +
		"00:00:00,000 --> 00:00:02,500\n" +
		"[Speaker A] hello there\n" +
		"\n" +
		"2\n" +
		"00:02:05,500 --> 00:02:10,000\n" +
		"[Speaker B] hi\n"

	if out != want {
		t.Errorf("SRT output mismatch:\ngot:\n%s\nwant:\n%s", out, want)
	}
}

func TestRenderVTT(t *testing.T) {
	out := RenderVTT(sampleSegments())

	if !strings.HasPrefix(out, "WEBVTT\n\n") {
		t.Errorf("VTT output missing header: %q", out)
	}
	if !strings.Contains(out, "00:02:05.500 --> 00:02:10.000\n[Speaker B] hi") {
		t.Errorf("VTT block missing or malformed:\n%s", out)
	}
	if strings.Contains(out, ",") {
		t.Errorf("VTT output must not contain comma separators:\n%s", out)
	}
}

func TestRenderText(t *testing.T) {
	out := RenderText(sampleSegments())

	want := "[00:00:00,000] Speaker A: hello there\n[00:02:05,500] Speaker B: hi"
	if out != want {
		t.Errorf("Text output: got %q, want %q", out, want)
	}
}

func TestRenderJSON(t *testing.T) {
	summary := "short summary"
	enh := &transcript.Enhancements{Summary: &summary}

	out, err := RenderJSON(sampleSegments(), 130.0, 2, enh)
	if err != nil {
		t.Fatalf("RenderJSON failed: %v", err)
	}

	var result Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("Result is not valid JSON: %v", err)
	}
	if len(result.Utterances) != 2 {
		t.Fatalf("Expected 2 utterances, got %d", len(result.Utterances))
	}
	if result.AudioDuration != 130.0 || result.SpeakersDetected != 2 {
		t.Errorf("Metadata wrong: %+v", result)
	}
	if result.Utterances[1].Confidence != nil {
		t.Errorf("Expected null confidence for second utterance")
	}
	if result.LLMEnhancements == nil || result.LLMEnhancements.Summary == nil || *result.LLMEnhancements.Summary != summary {
		t.Errorf("Enhancements not carried: %+v", result.LLMEnhancements)
	}

	// Omitted entirely when no enhancements exist.
	out, err = RenderJSON(sampleSegments(), 130.0, 2, nil)
	if err != nil {
		t.Fatalf("RenderJSON failed: %v", err)
	}
	if strings.Contains(out, "llm_enhancements") {
		t.Errorf("Expected llm_enhancements omitted, got %s", out)
	}
}

func TestRenderDeterministic(t *testing.T) {
	segments := sampleSegments()
	for _, f := range []Format{FormatJSON, FormatSRT, FormatVTT, FormatText} {
		a, err := Render(f, segments, 130.0, 2, nil)
		if err != nil {
			t.Fatalf("Render(%s) failed: %v", f, err)
		}
		b, err := Render(f, segments, 130.0, 2, nil)
		if err != nil {
			t.Fatalf("Render(%s) failed: %v", f, err)
		}
		if a != b {
			t.Errorf("Render(%s) not deterministic", f)
		}
	}
}

func TestParse(t *testing.T) {
	if f, err := Parse(""); err != nil || f != FormatJSON {
		t.Errorf("Parse empty: got (%v, %v), want (json, nil)", f, err)
	}
	if _, err := Parse("xml"); err == nil {
		t.Error("Expected error for unknown format")
	}
	if f, err := Parse("srt"); err != nil || f != FormatSRT {
		t.Errorf("Parse srt: got (%v, %v)", f, err)
	}
}
