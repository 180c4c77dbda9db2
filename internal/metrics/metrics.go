package metrics

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// JobMetrics accumulates stage timings and counters for one pipeline run.
// The controller logs the summary when the job reaches a terminal state.
type JobMetrics struct {
	JobID            string
	StartTime        time.Time
	EndTime          time.Time
	ClipsTranscribed int
	ClipsFailed      int
	Utterances       int
	stages           []stageTiming
	lastMark         time.Time
	mu               sync.Mutex
}

type stageTiming struct {
	name     string
	duration time.Duration
}

func NewJobMetrics(jobID string) *JobMetrics {
	now := time.Now()
	return &JobMetrics{
		JobID:     jobID,
		StartTime: now,
		lastMark:  now,
	}
}

// StageDone records the time spent since the previous stage boundary.
func (m *JobMetrics) StageDone(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.stages = append(m.stages, stageTiming{name: name, duration: now.Sub(m.lastMark)})
	m.lastMark = now
}

func (m *JobMetrics) AddClipResult(failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ClipsTranscribed++
	if failed {
		m.ClipsFailed++
	}
}

func (m *JobMetrics) SetUtterances(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Utterances = n
}

func (m *JobMetrics) Finalize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EndTime = time.Now()
}

// Summary renders a single log line with per-stage durations.
func (m *JobMetrics) Summary() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	end := m.EndTime
	if end.IsZero() {
		end = time.Now()
	}

	parts := make([]string, 0, len(m.stages))
	for _, s := range m.stages {
		parts = append(parts, fmt.Sprintf("%s=%s", s.name, s.duration.Round(time.Millisecond)))
	}

	return fmt.Sprintf("Job %s: total=%s clips=%d failed_clips=%d utterances=%d stages[%s]",
		m.JobID,
		end.Sub(m.StartTime).Round(time.Millisecond),
		m.ClipsTranscribed,
		m.ClipsFailed,
		m.Utterances,
		strings.Join(parts, " "),
	)
}
