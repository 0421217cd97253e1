package domain

import (
	"fmt"
	"time"
)

// DailyData is the full output and pipeline state for one (date, category)
// batch. It is the unit of persistence: the whole object is rewritten
// atomically after every state change so an interrupted run can resume from
// the last persisted snapshot.
type DailyData struct {
	Date     string   `json:"date"`
	Category string   `json:"category"`
	Summary  string   `json:"summary"`
	Papers   []*Paper `json:"papers"`

	ProcessingStatus DailyStatus `json:"processing_status"`
	Error            string      `json:"error,omitempty"`

	RawPapersFetched     bool       `json:"raw_papers_fetched"`
	PapersCount          int        `json:"papers_count"`
	ProcessedPapersCount int        `json:"processed_papers_count"`
	FailedPapersCount    int        `json:"failed_papers_count"`
	LLMBackupCalls       int        `json:"llm_backup_calls"`
	SummaryGenerated     bool       `json:"summary_generated"`
	DailyDataSaved       bool       `json:"daily_data_saved"`
	LastUpdate           *time.Time `json:"last_update"`
}

// NewDailyData creates an empty pending batch for a date and category.
func NewDailyData(date, category string) *DailyData {
	now := time.Now().UTC()
	return &DailyData{
		Date:             date,
		Category:         category,
		Papers:           []*Paper{},
		ProcessingStatus: DailyStatusPending,
		LastUpdate:       &now,
	}
}

// NoPapersSummary is the deterministic summary text recorded when a batch
// turns out to have no papers. The phrasing is part of the frontend contract.
func NoPapersSummary(date, category string) string {
	return fmt.Sprintf("在 %s 没有发现 %s 分类下的新论文。", date, category)
}

// FindPaper returns the paper with the given arXiv ID, or nil.
func (d *DailyData) FindPaper(arxivID string) *Paper {
	for _, p := range d.Papers {
		if p.ArxivID == arxivID {
			return p
		}
	}
	return nil
}

// RecalculateCounters rederives the aggregate counters from the papers slice.
// Counters are never mutated independently; this runs before every persist.
func (d *DailyData) RecalculateCounters() {
	d.PapersCount = len(d.Papers)

	completed, failed, backupCalls := 0, 0, 0
	for _, p := range d.Papers {
		if p.ProcessingStatus == TaskStatusCompleted {
			completed++
		}
		if p.IsTerminalFailure() {
			failed++
		}
		backupCalls += p.LLMBackupCalls
	}
	d.ProcessedPapersCount = completed
	d.FailedPapersCount = failed
	d.LLMBackupCalls = backupCalls
}

// Touch bumps the last-update timestamp.
func (d *DailyData) Touch() {
	now := time.Now().UTC()
	d.LastUpdate = &now
}

// MarkNoPapers retires the batch as a valid empty result.
func (d *DailyData) MarkNoPapers() {
	d.Papers = []*Paper{}
	d.Summary = NoPapersSummary(d.Date, d.Category)
	d.RawPapersFetched = true
	d.SummaryGenerated = true
	d.DailyDataSaved = true
	d.ProcessingStatus = DailyStatusNoPapers
	d.Error = ""
	d.RecalculateCounters()
	d.Touch()
}

// MarkFailed records a batch-level failure. Unless retainData is set, the
// saved/summary milestones are cleared so the next run reprocesses the batch
// instead of only retrying the index step.
func (d *DailyData) MarkFailed(message string, retainData bool) {
	d.ProcessingStatus = DailyStatusFailed
	d.Error = message
	if !retainData {
		d.DailyDataSaved = false
		d.SummaryGenerated = false
	}
	d.Touch()
}
