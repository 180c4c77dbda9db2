package jobstore

import (
	"context"
	"testing"
	"time"
)

func TestStatusCanTransition(t *testing.T) {
	testCases := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"Forward to next stage", StatusProcessing, StatusPreprocessing, true},
		{"Forward skipping optional stage", StatusTranscribing, StatusFormatting, true},
		{"Failed from any active state", StatusDiarizing, StatusFailed, true},
		{"Regression rejected", StatusTranscribing, StatusDiarizing, false},
		{"Repeat rejected", StatusDiarizing, StatusDiarizing, false},
		{"Out of completed rejected", StatusCompleted, StatusFailed, false},
		{"Out of failed rejected", StatusFailed, StatusProcessing, false},
		{"Pending to processing", StatusPending, StatusProcessing, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.from.CanTransition(tc.to); got != tc.want {
				t.Errorf("CanTransition(%s -> %s): got %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)

	rec := Record{
		JobID:             "job-1",
		Status:            StatusPending,
		CreatedAt:         "2026-01-02T03:04:05Z",
		FilePath:          "/uploads/job-1_a.wav",
		ExpectedSpeakers:  3,
		ResponseFormat:    "srt",
		EnableLLMAnalysis: true,
	}
	if err := store.Create(ctx, rec); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != StatusPending || got.FilePath != rec.FilePath {
		t.Errorf("Record mismatch: %+v", got)
	}
	if got.ExpectedSpeakers != 3 || got.ResponseFormat != "srt" || !got.EnableLLMAnalysis {
		t.Errorf("Submission fields mismatch: %+v", got)
	}
	if got.ProgressPercent != nil {
		t.Errorf("Expected no progress percent yet, got %d", *got.ProgressPercent)
	}
}

func TestMemoryStorePartialUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)

	if err := store.Create(ctx, Record{JobID: "job-2", Status: StatusPending, CreatedAt: "t0"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err := store.Update(ctx, "job-2", Fields{
		"status":           string(StatusDiarizing),
		"progress":         "Identifying speakers",
		"progress_percent": "25",
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := store.Get(ctx, "job-2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != StatusDiarizing {
		t.Errorf("Status: got %s, want %s", got.Status, StatusDiarizing)
	}
	if got.Progress != "Identifying speakers" {
		t.Errorf("Progress: got %q", got.Progress)
	}
	if got.ProgressPercent == nil || *got.ProgressPercent != 25 {
		t.Errorf("ProgressPercent: got %v, want 25", got.ProgressPercent)
	}
	// Untouched fields survive the partial update.
	if got.CreatedAt != "t0" {
		t.Errorf("CreatedAt lost on partial update: %q", got.CreatedAt)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)

	base := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	if err := store.Create(ctx, Record{JobID: "job-3", Status: StatusPending}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	store.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := store.Get(ctx, "job-3"); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound after expiry, got %v", err)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)

	if err := store.Create(ctx, Record{JobID: "job-4", Status: StatusPending}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Delete(ctx, "job-4"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "job-4"); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestGetMissingJob(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	if _, err := store.Get(context.Background(), "nope"); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
