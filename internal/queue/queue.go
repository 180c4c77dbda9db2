// Package queue provides the FIFO task queue feeding the worker pool. Each
// job is enqueued exactly once, so dispatch guarantees at most one in-flight
// execution per job. The Redis list implementation survives process
// restarts; the memory implementation backs tests and single-process runs.
package queue

import (
	"context"
	"errors"
)

// ErrClosed is returned by Dequeue once the queue is shut down and drained.
var ErrClosed = errors.New("queue closed")

// Task is one unit of work: everything the pipeline needs to run a job.
type Task struct {
	JobID             string `json:"job_id"`
	FilePath          string `json:"file_path"`
	ContentHash       string `json:"content_hash"`
	ExpectedSpeakers  int    `json:"expected_speakers"`
	ResponseFormat    string `json:"response_format"`
	EnableLLMAnalysis bool   `json:"enable_llm_analysis"`
	CreatedAt         string `json:"created_at"`
}

// Queue is a FIFO task channel between the API layer and the workers.
type Queue interface {
	// Enqueue appends a task. Errors here must propagate to the submitter.
	Enqueue(ctx context.Context, task Task) error

	// Dequeue blocks until a task is available, the context is canceled,
	// or the queue is closed.
	Dequeue(ctx context.Context) (Task, error)
}
