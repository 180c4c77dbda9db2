package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/DrBenedictPorkins/audio-diarizer/internal/metrics"
	"github.com/DrBenedictPorkins/audio-diarizer/internal/transcript"
)

// FailedTranscriptionText marks a clip whose transcription collaborator
// failed; the clip degrades to a placeholder instead of failing the job.
const FailedTranscriptionText = "[Transcription failed]"

// Percent band for the transcription stage.
const (
	transcribePercentStart = 45
	transcribePercentEnd   = 70
)

// transcribeClips runs the transcription collaborator over every clip, in
// diarization order, producing one segment per clip. Word timestamps come
// back clip-relative and are offset onto the recording timeline here. Clip
// sample buffers are released as soon as each clip is done.
func (c *Controller) transcribeClips(ctx context.Context, jobID string, state *runState, m *metrics.JobMetrics, clips []transcript.Clip, sampleRate int) []transcript.Segment {
	segments := make([]transcript.Segment, 0, len(clips))

	for i := range clips {
		clip := &clips[i]

		cctx, cancel := context.WithTimeout(ctx, c.opts.TranscribeTimeout)
		res, err := c.stt.TranscribeClip(cctx, clip.Samples, sampleRate)
		cancel()

		seg := transcript.Segment{
			Speaker: clip.Speaker,
			Start:   clip.Start,
			End:     clip.End,
		}

		if err != nil {
			log.Printf("Job %s: failed to transcribe segment %.2f-%.2f: %v",
				jobID, clip.Start, clip.End, err)
			zero := 0.0
			seg.Text = FailedTranscriptionText
			seg.Confidence = &zero
			seg.Words = []transcript.Word{}
			m.AddClipResult(true)
		} else {
			seg.Text = strings.TrimSpace(res.Text)
			seg.Confidence = res.Confidence
			seg.Words = offsetWords(res.Words, clip.Start)
			m.AddClipResult(false)
		}

		clip.Samples = nil
		segments = append(segments, seg)

		c.progress(ctx, jobID, state,
			fmt.Sprintf("Transcribed segment %d/%d", i+1, len(clips)),
			clipPercent(i+1, len(clips)))
	}

	return segments
}

// offsetWords shifts clip-relative word times onto the recording timeline.
func offsetWords(words []transcript.Word, clipStart float64) []transcript.Word {
	out := make([]transcript.Word, len(words))
	for i, w := range words {
		out[i] = transcript.Word{
			Word:        w.Word,
			Start:       clipStart + w.Start,
			End:         clipStart + w.End,
			Probability: w.Probability,
		}
	}
	return out
}

// clipPercent maps clip completion onto the transcription percent band.
func clipPercent(done, total int) int {
	if total <= 0 {
		return transcribePercentEnd
	}
	span := transcribePercentEnd - transcribePercentStart
	return transcribePercentStart + span*done/total
}
