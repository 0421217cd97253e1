package domain

import (
	"errors"
	"time"
)

// Completed processing steps recorded on a paper.
const (
	StepTranslation = "translation"
	StepTLDR        = "tldr"
)

// DefaultMaxAttempts is used when a paper is registered without an explicit
// attempt ceiling.
const DefaultMaxAttempts = 3

// Common validation errors for papers
var (
	ErrEmptyArxivID  = errors.New("arxiv ID cannot be empty")
	ErrInvalidStatus = errors.New("invalid task status")
)

// RawPaper is the immutable paper metadata fetched from arXiv, cached verbatim
// in the {date}/{category}_raw.json file.
type RawPaper struct {
	ArxivID         string   `json:"arxiv_id"`
	Title           string   `json:"title"`
	Authors         []string `json:"authors"`
	Abstract        string   `json:"abstract"`
	Categories      []string `json:"categories"`
	PrimaryCategory string   `json:"primary_category"`
	Comment         string   `json:"comment"`
	PDFURL          string   `json:"pdf_url"`
	PublishedDate   string   `json:"published_date"`
	UpdatedDate     string   `json:"updated_date"`
}

// Paper is a processed paper as stored for the frontend, combining the source
// fields with generated content and the per-paper processing state.
type Paper struct {
	ArxivID         string   `json:"arxiv_id"`
	Title           string   `json:"title"`
	TitleZh         string   `json:"title_zh"`
	Authors         []string `json:"authors"`
	Abstract        string   `json:"abstract"`
	TldrZh          string   `json:"tldr_zh"`
	Categories      []string `json:"categories"`
	PrimaryCategory string   `json:"primary_category"`
	Comment         string   `json:"comment"`
	PDFURL          string   `json:"pdf_url"`
	PublishedDate   string   `json:"published_date"`
	UpdatedDate     string   `json:"updated_date"`

	ProcessingStatus TaskStatus `json:"processing_status"`
	Attempts         int        `json:"attempts"`
	MaxAttempts      int        `json:"max_attempts"`
	Error            string     `json:"error,omitempty"`
	CompletedSteps   []string   `json:"completed_steps"`
	LLMBackupCalls   int        `json:"llm_backup_calls"`
	LastUpdate       *time.Time `json:"last_update"`
}

// DefaultPDFURL returns the canonical arXiv PDF link for an ID.
func DefaultPDFURL(arxivID string) string {
	return "https://arxiv.org/pdf/" + arxivID
}

// NewPaperFromRaw creates a pending Paper from fetched metadata. Generated
// fields start empty and are filled in only by a completed processing run.
func NewPaperFromRaw(raw RawPaper, maxAttempts int) (*Paper, error) {
	if raw.ArxivID == "" {
		return nil, ErrEmptyArxivID
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	pdfURL := raw.PDFURL
	if pdfURL == "" {
		pdfURL = DefaultPDFURL(raw.ArxivID)
	}

	now := time.Now().UTC()
	return &Paper{
		ArxivID:          raw.ArxivID,
		Title:            raw.Title,
		Authors:          raw.Authors,
		Abstract:         raw.Abstract,
		Categories:       raw.Categories,
		PrimaryCategory:  raw.PrimaryCategory,
		Comment:          raw.Comment,
		PDFURL:           pdfURL,
		PublishedDate:    raw.PublishedDate,
		UpdatedDate:      raw.UpdatedDate,
		ProcessingStatus: TaskStatusPending,
		MaxAttempts:      maxAttempts,
		CompletedSteps:   []string{},
		LastUpdate:       &now,
	}, nil
}

// Transition moves the paper to a new processing status. Entering in_progress
// from any other status counts as a new attempt; that is the only place the
// attempt counter changes.
func (p *Paper) Transition(status TaskStatus) error {
	if !status.IsValid() {
		return ErrInvalidStatus
	}
	if status == TaskStatusInProgress && p.ProcessingStatus != TaskStatusInProgress {
		p.Attempts++
	}
	p.ProcessingStatus = status
	p.Touch()
	return nil
}

// AddCompletedStep records a finished processing step, ignoring duplicates.
func (p *Paper) AddCompletedStep(step string) {
	for _, s := range p.CompletedSteps {
		if s == step {
			return
		}
	}
	p.CompletedSteps = append(p.CompletedSteps, step)
}

// Touch bumps the last-update timestamp.
func (p *Paper) Touch() {
	now := time.Now().UTC()
	p.LastUpdate = &now
}

// IsTerminalFailure reports whether the paper has failed and exhausted its
// attempt budget. Such papers are never re-queued.
func (p *Paper) IsTerminalFailure() bool {
	return p.ProcessingStatus == TaskStatusFailed && p.Attempts >= p.MaxAttempts
}

// IsPendingWork reports whether the paper still needs processing in the
// current run: never started, interrupted mid-flight, or queued for retry.
func (p *Paper) IsPendingWork() bool {
	switch p.ProcessingStatus {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusRetrying:
		return true
	default:
		return false
	}
}
