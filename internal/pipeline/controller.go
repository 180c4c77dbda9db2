// Package pipeline drives one transcription job through its ordered stages:
// preprocess, diarize, segment, transcribe, optional LLM analysis, format.
// The controller is straight-line sequential per job; concurrency lives in
// the worker pool that calls Run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/DrBenedictPorkins/audio-diarizer/internal/archive"
	"github.com/DrBenedictPorkins/audio-diarizer/internal/diarizer"
	"github.com/DrBenedictPorkins/audio-diarizer/internal/format"
	"github.com/DrBenedictPorkins/audio-diarizer/internal/jobstore"
	"github.com/DrBenedictPorkins/audio-diarizer/internal/llm"
	"github.com/DrBenedictPorkins/audio-diarizer/internal/metrics"
	"github.com/DrBenedictPorkins/audio-diarizer/internal/preprocess"
	"github.com/DrBenedictPorkins/audio-diarizer/internal/queue"
	"github.com/DrBenedictPorkins/audio-diarizer/internal/transcriber"
	"github.com/DrBenedictPorkins/audio-diarizer/internal/transcript"
)

// ErrNoSpeakers is the hard failure for diarization runs that find nothing.
var ErrNoSpeakers = errors.New("no speakers detected in audio")

// Options tunes the pipeline. Zero values fall back to the defaults the
// service ships with.
type Options struct {
	ClipPadding       float64
	MergeGap          float64
	DiarizeTimeout    time.Duration
	TranscribeTimeout time.Duration // per clip
	EnhanceTimeout    time.Duration
}

func (o Options) withDefaults() Options {
	if o.ClipPadding <= 0 {
		o.ClipPadding = transcript.DefaultClipPadding
	}
	if o.MergeGap <= 0 {
		o.MergeGap = transcript.DefaultMergeGap
	}
	if o.DiarizeTimeout <= 0 {
		o.DiarizeTimeout = 10 * time.Minute
	}
	if o.TranscribeTimeout <= 0 {
		o.TranscribeTimeout = 2 * time.Minute
	}
	if o.EnhanceTimeout <= 0 {
		o.EnhanceTimeout = 5 * time.Minute
	}
	return o
}

// Controller owns one job's execution from dequeue to terminal state.
// All collaborators are injected at construction.
type Controller struct {
	store    jobstore.Store
	pre      preprocess.Preprocessor
	diar     diarizer.Diarizer
	stt      transcriber.ClipTranscriber
	enhancer llm.Enhancer
	arch     *archive.Archive // nil disables archiving
	opts     Options
}

func NewController(
	store jobstore.Store,
	pre preprocess.Preprocessor,
	diar diarizer.Diarizer,
	stt transcriber.ClipTranscriber,
	enhancer llm.Enhancer,
	arch *archive.Archive,
	opts Options,
) *Controller {
	if enhancer == nil {
		enhancer = llm.Disabled{}
	}
	return &Controller{
		store:    store,
		pre:      pre,
		diar:     diar,
		stt:      stt,
		enhancer: enhancer,
		arch:     arch,
		opts:     opts.withDefaults(),
	}
}

// runState tracks status and percent monotonicity across one run.
type runState struct {
	status  jobstore.Status
	percent int
}

// Run executes one job to a terminal state. It never returns an error: every
// outcome, including failure, is recorded on the job record.
func (c *Controller) Run(ctx context.Context, task queue.Task) {
	log.Printf("Job %s: starting for file %s", task.JobID, task.FilePath)

	m := metrics.NewJobMetrics(task.JobID)
	state := &runState{status: jobstore.StatusPending}
	processedPath := ""

	defer func() {
		c.cleanupFiles(task.JobID, task.FilePath, processedPath)
		m.Finalize()
		log.Printf("%s", m.Summary())
	}()

	c.advance(ctx, task.JobID, state, jobstore.StatusProcessing, "Starting job", 5)

	// Preprocess: decode, normalize, enforce the duration ceiling.
	c.advance(ctx, task.JobID, state, jobstore.StatusPreprocessing, "Normalizing audio", 10)
	outPath, duration, err := c.pre.Preprocess(ctx, task.FilePath)
	if err != nil {
		c.fail(ctx, task.JobID, state, "preprocess", err)
		return
	}
	processedPath = outPath
	c.progress(ctx, task.JobID, state, "Audio normalized", 15)

	samples, sampleRate, err := c.pre.LoadAudio(processedPath)
	if err != nil {
		c.fail(ctx, task.JobID, state, "preprocess", err)
		return
	}
	m.StageDone("preprocess")

	// Diarize: zero turns is a hard failure, not an empty success.
	c.advance(ctx, task.JobID, state, jobstore.StatusDiarizing, "Identifying speakers", 25)
	dctx, cancel := context.WithTimeout(ctx, c.opts.DiarizeTimeout)
	turns, err := c.diar.Diarize(dctx, processedPath, task.ExpectedSpeakers)
	cancel()
	if err != nil {
		c.fail(ctx, task.JobID, state, "diarize", err)
		return
	}
	if len(turns) == 0 {
		c.fail(ctx, task.JobID, state, "diarize", ErrNoSpeakers)
		return
	}
	speakers := countTurnSpeakers(turns)
	c.progress(ctx, task.JobID, state, fmt.Sprintf("Detected %d speakers", speakers), 40)
	m.StageDone("diarize")

	// Segment: pure, cheap, no stage of its own on the record.
	clips := transcript.ExtractClips(samples, turns, sampleRate, c.opts.ClipPadding)
	samples = nil

	// Transcribe each clip in diarization order. A failing clip degrades
	// to a placeholder segment instead of failing the job.
	c.advance(ctx, task.JobID, state, jobstore.StatusTranscribing,
		fmt.Sprintf("Transcribing %d segments", len(clips)), 45)
	segments := c.transcribeClips(ctx, task.JobID, state, m, clips, sampleRate)
	m.StageDone("transcribe")

	merged := transcript.MergeConsecutive(segments, c.opts.MergeGap)
	m.SetUtterances(len(merged))

	// Optional LLM analysis: best-effort, never fails the job. Disabled
	// jobs skip the stage without touching the record.
	var enhancements *transcript.Enhancements
	if task.EnableLLMAnalysis {
		enhancements = c.enhance(ctx, task.JobID, state, merged)
		m.StageDone("llm_analysis")
	}

	// Format: fixed at submission time.
	c.advance(ctx, task.JobID, state, jobstore.StatusFormatting, "Formatting result", 95)
	f, err := format.Parse(task.ResponseFormat)
	if err != nil {
		c.fail(ctx, task.JobID, state, "format", err)
		return
	}
	result, err := format.Render(f, merged, duration, speakers, enhancements)
	if err != nil {
		c.fail(ctx, task.JobID, state, "format", err)
		return
	}
	m.StageDone("format")

	c.complete(ctx, task.JobID, state, result)
	c.archiveTranscript(ctx, task, duration, merged)
	log.Printf("Job %s: completed successfully", task.JobID)
}

// enhance runs the LLM stage and reports its outcome as progress text only.
func (c *Controller) enhance(ctx context.Context, jobID string, state *runState, merged []transcript.Segment) *transcript.Enhancements {
	c.advance(ctx, jobID, state, jobstore.StatusLLMAnalysis, "Generating AI analysis", 75)

	ectx, cancel := context.WithTimeout(ctx, c.opts.EnhanceTimeout)
	defer cancel()

	if !c.enhancer.Available(ectx) {
		log.Printf("Job %s: LLM analysis requested but model server unavailable", jobID)
		c.progress(ctx, jobID, state, "AI analysis unavailable, continuing without it", 90)
		return nil
	}

	enhancements, err := c.enhancer.Enhance(ectx, merged)
	if err != nil {
		log.Printf("Job %s: LLM analysis error: %v", jobID, err)
		c.progress(ctx, jobID, state, "AI analysis failed, continuing without it", 90)
		return nil
	}
	if enhancements == nil {
		c.progress(ctx, jobID, state, "AI analysis returned no content", 90)
		return nil
	}

	c.progress(ctx, jobID, state, "AI analysis completed", 90)
	return enhancements
}

// advance moves the job to the next pipeline state. Transition violations
// indicate a controller bug and are logged, never written.
func (c *Controller) advance(ctx context.Context, jobID string, state *runState, next jobstore.Status, progressText string, percent int) {
	if !state.status.CanTransition(next) {
		log.Printf("Job %s: refusing invalid transition %s -> %s", jobID, state.status, next)
		return
	}
	state.status = next
	if percent < state.percent {
		percent = state.percent
	}
	state.percent = percent

	c.update(ctx, jobID, jobstore.Fields{
		"status":           string(next),
		"progress":         progressText,
		"progress_percent": strconv.Itoa(percent),
	})
}

// progress updates the human-readable progress without changing status.
func (c *Controller) progress(ctx context.Context, jobID string, state *runState, text string, percent int) {
	if percent < state.percent {
		percent = state.percent
	}
	state.percent = percent

	c.update(ctx, jobID, jobstore.Fields{
		"progress":         text,
		"progress_percent": strconv.Itoa(percent),
	})
}

func (c *Controller) fail(ctx context.Context, jobID string, state *runState, stage string, cause error) {
	msg := fmt.Sprintf("job %s: %s: %v", jobID, stage, cause)
	log.Printf("Job %s: failed at %s: %v", jobID, stage, cause)

	state.status = jobstore.StatusFailed
	c.update(ctx, jobID, jobstore.Fields{
		"status":       string(jobstore.StatusFailed),
		"error":        msg,
		"completed_at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (c *Controller) complete(ctx context.Context, jobID string, state *runState, result string) {
	state.status = jobstore.StatusCompleted
	state.percent = 100
	c.update(ctx, jobID, jobstore.Fields{
		"status":           string(jobstore.StatusCompleted),
		"progress":         "Completed",
		"progress_percent": "100",
		"completed_at":     time.Now().UTC().Format(time.RFC3339),
		"result":           result,
	})
}

// update writes record fields. Mid-run store failures are logged and
// swallowed; the worker must not spin on a flaky store.
func (c *Controller) update(ctx context.Context, jobID string, fields jobstore.Fields) {
	if err := c.store.Update(ctx, jobID, fields); err != nil {
		log.Printf("Job %s: failed to update job record: %v", jobID, err)
	}
}

// cleanupFiles removes the upload and the preprocessed intermediate once the
// record is terminal. Best-effort on both outcomes.
func (c *Controller) cleanupFiles(jobID, uploadPath, processedPath string) {
	for _, path := range []string{uploadPath, processedPath} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("Job %s: failed to remove %s: %v", jobID, path, err)
		}
	}
}

func (c *Controller) archiveTranscript(ctx context.Context, task queue.Task, duration float64, merged []transcript.Segment) {
	if c.arch == nil {
		return
	}
	if err := c.arch.Save(ctx, task.JobID, task.ContentHash, task.CreatedAt, duration, merged); err != nil {
		log.Printf("Job %s: failed to archive transcript: %v", task.JobID, err)
	}
}

func countTurnSpeakers(turns []transcript.Turn) int {
	seen := make(map[string]struct{}, 4)
	for _, t := range turns {
		seen[t.Speaker] = struct{}{}
	}
	return len(seen)
}
