package domain

import (
	"testing"
)

func TestNewPaperFromRaw(t *testing.T) {
	t.Parallel()
	raw := RawPaper{
		ArxivID:         "2501.00001v1",
		Title:           "T",
		Authors:         []string{"A. Author"},
		Abstract:        "An abstract.",
		Categories:      []string{"cs.AI"},
		PrimaryCategory: "cs.AI",
	}

	paper, err := NewPaperFromRaw(raw, 3)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if paper.ProcessingStatus != TaskStatusPending {
		t.Errorf("Expected status %s, got %s", TaskStatusPending, paper.ProcessingStatus)
	}

	if paper.Attempts != 0 {
		t.Errorf("Expected 0 attempts, got %d", paper.Attempts)
	}

	if paper.MaxAttempts != 3 {
		t.Errorf("Expected max attempts 3, got %d", paper.MaxAttempts)
	}

	if paper.PDFURL != "https://arxiv.org/pdf/2501.00001v1" {
		t.Errorf("Expected default PDF URL, got %s", paper.PDFURL)
	}

	if paper.TitleZh != "" || paper.TldrZh != "" {
		t.Error("Expected generated fields to start empty")
	}

	if paper.LastUpdate == nil || paper.LastUpdate.IsZero() {
		t.Error("Expected non-zero LastUpdate")
	}

	// Missing ID is rejected
	_, err = NewPaperFromRaw(RawPaper{}, 3)
	if err != ErrEmptyArxivID {
		t.Errorf("Expected error %v, got %v", ErrEmptyArxivID, err)
	}

	// Non-positive ceiling falls back to the default
	paper, err = NewPaperFromRaw(raw, 0)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if paper.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("Expected max attempts %d, got %d", DefaultMaxAttempts, paper.MaxAttempts)
	}
}

func TestPaperTransitionAttempts(t *testing.T) {
	t.Parallel()
	paper, err := NewPaperFromRaw(RawPaper{ArxivID: "2501.00002v1"}, 3)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// pending -> in_progress increments
	if err := paper.Transition(TaskStatusInProgress); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if paper.Attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", paper.Attempts)
	}

	// in_progress -> in_progress does not increment
	if err := paper.Transition(TaskStatusInProgress); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if paper.Attempts != 1 {
		t.Errorf("Expected 1 attempt after no-op transition, got %d", paper.Attempts)
	}

	// failed -> retrying -> in_progress increments exactly once more
	if err := paper.Transition(TaskStatusFailed); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := paper.Transition(TaskStatusRetrying); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if paper.Attempts != 1 {
		t.Errorf("Expected attempts unchanged by retrying, got %d", paper.Attempts)
	}
	if err := paper.Transition(TaskStatusInProgress); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if paper.Attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", paper.Attempts)
	}

	// invalid status is rejected
	if err := paper.Transition(TaskStatus("bogus")); err != ErrInvalidStatus {
		t.Errorf("Expected error %v, got %v", ErrInvalidStatus, err)
	}
}

func TestPaperTerminalFailure(t *testing.T) {
	t.Parallel()
	paper, _ := NewPaperFromRaw(RawPaper{ArxivID: "2501.00003v1"}, 2)

	for i := 0; i < 2; i++ {
		_ = paper.Transition(TaskStatusInProgress)
		_ = paper.Transition(TaskStatusFailed)
	}

	if !paper.IsTerminalFailure() {
		t.Error("Expected terminal failure after exhausting attempts")
	}
	if paper.IsPendingWork() {
		t.Error("Terminally failed paper must not be pending work")
	}
}

func TestPaperAddCompletedStep(t *testing.T) {
	t.Parallel()
	paper, _ := NewPaperFromRaw(RawPaper{ArxivID: "2501.00004v1"}, 3)

	paper.AddCompletedStep(StepTranslation)
	paper.AddCompletedStep(StepTLDR)
	paper.AddCompletedStep(StepTranslation)

	if len(paper.CompletedSteps) != 2 {
		t.Errorf("Expected 2 completed steps, got %v", paper.CompletedSteps)
	}
}

func TestTaskStatusIsValid(t *testing.T) {
	t.Parallel()
	valid := []TaskStatus{
		TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted,
		TaskStatusFailed, TaskStatusRetrying,
	}
	for _, s := range valid {
		if !s.IsValid() {
			t.Errorf("Expected %s to be valid", s)
		}
	}
	if TaskStatus("done").IsValid() {
		t.Error("Expected unknown status to be invalid")
	}
}
