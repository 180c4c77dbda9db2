package transcript

// DefaultMergeGap is the maximum silence, in seconds, between two
// consecutive same-speaker segments that still get merged into one
// utterance.
const DefaultMergeGap = 2.0

// MergeConsecutive collapses consecutive same-speaker segments whose gap is
// at most maxGap seconds into single utterances. One linear left-to-right
// pass: text is joined with a single space, word lists are concatenated in
// clip order, and confidence becomes the mean of the two values whenever
// both sides have one. Segments are never reordered or dropped, and running
// the merge again over its own output changes nothing.
func MergeConsecutive(segments []Segment, maxGap float64) []Segment {
	if len(segments) == 0 {
		return segments
	}

	merged := make([]Segment, 0, len(segments))
	current := cloneSegment(segments[0])

	for _, seg := range segments[1:] {
		if seg.Speaker == current.Speaker && seg.Start-current.End <= maxGap {
			current.End = seg.End
			current.Text = current.Text + " " + seg.Text
			current.Words = append(current.Words, seg.Words...)
			if current.Confidence != nil && seg.Confidence != nil {
				mean := (*current.Confidence + *seg.Confidence) / 2
				current.Confidence = &mean
			}
			continue
		}

		merged = append(merged, current)
		current = cloneSegment(seg)
	}

	return append(merged, current)
}

// cloneSegment copies the accumulator so merging never mutates the caller's
// word slices.
func cloneSegment(s Segment) Segment {
	out := s
	out.Words = append([]Word(nil), s.Words...)
	if s.Confidence != nil {
		c := *s.Confidence
		out.Confidence = &c
	}
	return out
}
