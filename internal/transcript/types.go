package transcript

// Turn is one speaker's continuous speech interval as reported by the
// diarization service. Start and End are seconds on the recording timeline.
type Turn struct {
	Start   float64
	End     float64
	Speaker string
}

// Word carries a single word with recording-absolute timing.
type Word struct {
	Word        string  `json:"word"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Probability float64 `json:"probability"`
}

// Clip is a padded slice of the recording prepared for transcription.
// Start and End keep the un-padded turn boundaries; only the sample window
// is widened by padding.
type Clip struct {
	Samples     []float32
	Start       float64
	End         float64
	Speaker     string
	StartSample int
	EndSample   int
}

// Segment is a transcribed stretch of speech attributed to one speaker.
// Before merging there is one per clip; after merging one per utterance.
type Segment struct {
	Speaker    string
	Start      float64
	End        float64
	Text       string
	Confidence *float64
	Words      []Word
}

// Enhancements holds the optional LLM analysis attached to a job.
type Enhancements struct {
	Summary     *string `json:"summary"`
	ActionItems *string `json:"action_items"`
	Topics      *string `json:"topics"`
}

// SpeakerCount returns the number of distinct speakers across segments.
func SpeakerCount(segments []Segment) int {
	seen := make(map[string]struct{}, 4)
	for _, s := range segments {
		seen[s.Speaker] = struct{}{}
	}
	return len(seen)
}
