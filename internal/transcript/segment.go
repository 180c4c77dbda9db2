package transcript

// DefaultClipPadding is how much audio is kept on each side of a turn when
// slicing clips for transcription, in seconds.
const DefaultClipPadding = 0.15

// ExtractClips slices one Clip per diarization turn out of the full sample
// buffer. The padded window is clamped to the buffer; the clip keeps the
// turn's un-padded Start/End so reported utterance boundaries are unchanged.
// Turns must already be sorted by start time. Overlapping padded windows are
// left as-is.
func ExtractClips(samples []float32, turns []Turn, sampleRate int, padding float64) []Clip {
	clips := make([]Clip, 0, len(turns))
	paddingSamples := int(padding * float64(sampleRate))

	for _, turn := range turns {
		startSample := int(turn.Start*float64(sampleRate)) - paddingSamples
		if startSample < 0 {
			startSample = 0
		}
		endSample := int(turn.End*float64(sampleRate)) + paddingSamples
		if endSample > len(samples) {
			endSample = len(samples)
		}

		clips = append(clips, Clip{
			Samples:     samples[startSample:endSample],
			Start:       turn.Start,
			End:         turn.End,
			Speaker:     turn.Speaker,
			StartSample: startSample,
			EndSample:   endSample,
		})
	}

	return clips
}
