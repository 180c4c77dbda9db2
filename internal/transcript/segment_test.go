package transcript

import (
	"testing"
)

func TestExtractClipsOnePerTurn(t *testing.T) {
	rate := 16000
	samples := make([]float32, 20*rate) // 20 seconds
	turns := []Turn{
		{Start: 0.0, End: 2.0, Speaker: "Speaker A"},
		{Start: 2.5, End: 5.0, Speaker: "Speaker B"},
		{Start: 5.2, End: 8.0, Speaker: "Speaker A"},
	}

	clips := ExtractClips(samples, turns, rate, DefaultClipPadding)

	if len(clips) != len(turns) {
		t.Fatalf("Expected %d clips, got %d", len(turns), len(clips))
	}

	for i, clip := range clips {
		if clip.Start != turns[i].Start || clip.End != turns[i].End {
			t.Errorf("Clip %d boundaries changed: got (%v, %v), want (%v, %v)",
				i, clip.Start, clip.End, turns[i].Start, turns[i].End)
		}
		if clip.Speaker != turns[i].Speaker {
			t.Errorf("Clip %d speaker: got %s, want %s", i, clip.Speaker, turns[i].Speaker)
		}
	}
}

func TestExtractClipsPaddingClamped(t *testing.T) {
	rate := 16000
	samples := make([]float32, 10*rate)

	testCases := []struct {
		name        string
		turn        Turn
		wantStart   int
		wantEnd     int
		wantSamples int
	}{
		{
			name:        "Padding clamped at buffer start",
			turn:        Turn{Start: 0.0, End: 1.0, Speaker: "Speaker A"},
			wantStart:   0,
			wantEnd:     1*rate + 2400, // 0.15s padding = 2400 samples
			wantSamples: 1*rate + 2400,
		},
		{
			name:        "Padding clamped at buffer end",
			turn:        Turn{Start: 9.0, End: 10.0, Speaker: "Speaker A"},
			wantStart:   9*rate - 2400,
			wantEnd:     10 * rate,
			wantSamples: 1*rate + 2400,
		},
		{
			name:        "Padding applied on both sides",
			turn:        Turn{Start: 4.0, End: 5.0, Speaker: "Speaker B"},
			wantStart:   4*rate - 2400,
			wantEnd:     5*rate + 2400,
			wantSamples: 1*rate + 4800,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clips := ExtractClips(samples, []Turn{tc.turn}, rate, DefaultClipPadding)
			if len(clips) != 1 {
				t.Fatalf("Expected 1 clip, got %d", len(clips))
			}

			clip := clips[0]
			if clip.StartSample != tc.wantStart {
				t.Errorf("StartSample: got %d, want %d", clip.StartSample, tc.wantStart)
			}
			if clip.EndSample != tc.wantEnd {
				t.Errorf("EndSample: got %d, want %d", clip.EndSample, tc.wantEnd)
			}
			if len(clip.Samples) != tc.wantSamples {
				t.Errorf("Sample count: got %d, want %d", len(clip.Samples), tc.wantSamples)
			}
		})
	}
}

func TestExtractClipsOverlappingWindowsAccepted(t *testing.T) {
	rate := 16000
	samples := make([]float32, 10*rate)
	turns := []Turn{
		{Start: 0.0, End: 2.0, Speaker: "Speaker A"},
		{Start: 2.05, End: 4.0, Speaker: "Speaker B"},
	}

	clips := ExtractClips(samples, turns, rate, DefaultClipPadding)

	// Padded windows overlap around the 2s boundary; both clips keep their
	// full padded range.
	if clips[0].EndSample <= clips[1].StartSample {
		t.Errorf("Expected overlapping padded windows, got end=%d start=%d",
			clips[0].EndSample, clips[1].StartSample)
	}
}
