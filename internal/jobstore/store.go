// Package jobstore persists job records with field-level updates and a
// fixed retention window. The Redis implementation is the production store;
// the memory implementation backs tests and single-process development.
package jobstore

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// ErrNotFound is returned when no record exists for a job id.
var ErrNotFound = errors.New("job not found")

// DefaultTTL is how long a job record is retained, independent of outcome.
const DefaultTTL = 24 * time.Hour

// Status is a job lifecycle state. Transitions move monotonically forward
// through the pipeline order or jump directly to failed; they never regress.
type Status string

const (
	StatusPending       Status = "pending"
	StatusProcessing    Status = "processing"
	StatusPreprocessing Status = "preprocessing"
	StatusDiarizing     Status = "diarizing"
	StatusTranscribing  Status = "transcribing"
	StatusLLMAnalysis   Status = "llm_analysis"
	StatusFormatting    Status = "formatting"
	StatusCompleted     Status = "completed"
	StatusFailed        Status = "failed"
)

// Terminal reports whether a status ends the job lifecycle.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// rank orders the forward pipeline states. Failed is reachable from any
// non-terminal state and is handled separately.
func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusProcessing:
		return 1
	case StatusPreprocessing:
		return 2
	case StatusDiarizing:
		return 3
	case StatusTranscribing:
		return 4
	case StatusLLMAnalysis:
		return 5
	case StatusFormatting:
		return 6
	case StatusCompleted:
		return 7
	default:
		return -1
	}
}

// CanTransition reports whether moving from s to next honors the forward-only
// state machine.
func (s Status) CanTransition(next Status) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusFailed {
		return true
	}
	return next.rank() > s.rank()
}

// Record is the persisted view of one job.
type Record struct {
	JobID             string
	Status            Status
	CreatedAt         string
	CompletedAt       string
	Progress          string
	ProgressPercent   *int
	Error             string
	Result            string
	FilePath          string
	ExpectedSpeakers  int // 0 means no hint
	ResponseFormat    string
	EnableLLMAnalysis bool
}

// Fields is a partial field update, keyed by the stored field names.
type Fields map[string]string

// Store is the job record collaborator: per-job keys, field-level upsert,
// retention expiry. Implementations must keep records independent so
// concurrent jobs never interfere.
type Store interface {
	Create(ctx context.Context, rec Record) error
	Update(ctx context.Context, jobID string, fields Fields) error
	Get(ctx context.Context, jobID string) (Record, error)
	Delete(ctx context.Context, jobID string) error
}

// createFields flattens a new record into its stored hash fields.
func createFields(rec Record) Fields {
	fields := Fields{
		"status":              string(rec.Status),
		"created_at":          rec.CreatedAt,
		"file_path":           rec.FilePath,
		"response_format":     rec.ResponseFormat,
		"enable_llm_analysis": strconv.FormatBool(rec.EnableLLMAnalysis),
	}
	if rec.ExpectedSpeakers > 0 {
		fields["expected_speakers"] = strconv.Itoa(rec.ExpectedSpeakers)
	}
	return fields
}

// recordFromFields rebuilds a Record from stored hash fields.
func recordFromFields(jobID string, fields map[string]string) Record {
	rec := Record{
		JobID:          jobID,
		Status:         Status(fields["status"]),
		CreatedAt:      fields["created_at"],
		CompletedAt:    fields["completed_at"],
		Progress:       fields["progress"],
		Error:          fields["error"],
		Result:         fields["result"],
		FilePath:       fields["file_path"],
		ResponseFormat: fields["response_format"],
	}
	if v, err := strconv.Atoi(fields["expected_speakers"]); err == nil {
		rec.ExpectedSpeakers = v
	}
	if v, err := strconv.Atoi(fields["progress_percent"]); err == nil {
		rec.ProgressPercent = &v
	}
	rec.EnableLLMAnalysis = fields["enable_llm_analysis"] == "true"
	return rec
}
