// Package state owns the mutable per-batch pipeline state: loading the last
// persisted snapshot, applying paper transitions, and writing the batch back
// to disk atomically so an interrupted run can resume.
package state

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/daydayarxiv/daydayarxiv/internal/domain"
	"github.com/daydayarxiv/daydayarxiv/internal/storage"
)

// Options tunes a Manager beyond its batch identity.
type Options struct {
	// MaxAttempts is the per-paper attempt ceiling for newly registered
	// papers. Zero means domain.DefaultMaxAttempts.
	MaxAttempts int
	// SaveInterval coalesces non-forced saves: a save within this window of
	// the previous write is skipped. Zero disables throttling.
	SaveInterval time.Duration
}

// PaperUpdate carries the optional fields merged into a paper on a status
// transition. Zero-valued fields are left untouched.
type PaperUpdate struct {
	TitleZh        string
	TldrZh         string
	Error          string
	CompletedSteps []string
	BackupCalls    int
}

// Manager serializes all reads and writes of one (date, category) batch.
// Pipeline workers call it concurrently; every mutation recomputes the
// aggregate counters before it is persisted.
type Manager struct {
	mu     sync.Mutex
	paths  storage.OutputPaths
	data   *domain.DailyData
	logger *slog.Logger

	maxAttempts  int
	saveInterval time.Duration
	lastSave     time.Time
}

// NewManager creates a manager for a batch without touching disk; call Load
// or Reset before anything else.
func NewManager(paths storage.OutputPaths, date, category string, logger *slog.Logger, opts Options) *Manager {
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = domain.DefaultMaxAttempts
	}
	return &Manager{
		paths:        paths,
		data:         domain.NewDailyData(date, category),
		logger:       logger.With("date", date, "category", category),
		maxAttempts:  maxAttempts,
		saveInterval: opts.SaveInterval,
	}
}

// Load restores the last persisted snapshot for the batch. A missing file is
// a fresh start, not an error; an unreadable or mismatched file is replaced
// with a warning so a corrupt snapshot cannot wedge the batch forever.
func (m *Manager) Load() (resumed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := m.paths.DailyPath(m.data.Date, m.data.Category)
	if !storage.FileExists(path) {
		return false
	}

	var loaded domain.DailyData
	if err := storage.ReadJSON(path, &loaded); err != nil {
		m.logger.Warn("discarding unreadable state file", "path", path, "error", err)
		return false
	}
	if loaded.Date != m.data.Date || loaded.Category != m.data.Category {
		m.logger.Warn("discarding state file for a different batch",
			"path", path,
			"file_date", loaded.Date,
			"file_category", loaded.Category)
		return false
	}

	if loaded.Papers == nil {
		loaded.Papers = []*domain.Paper{}
	}
	m.data = &loaded
	m.logger.Info("resumed batch state",
		"status", loaded.ProcessingStatus,
		"papers", len(loaded.Papers))
	return true
}

// Reset discards any loaded state and persists a fresh pending batch.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = domain.NewDailyData(m.data.Date, m.data.Category)
	return m.persistLocked(true)
}

// Data returns a deep copy of the current batch snapshot. Callers get their
// own papers and can inspect them without racing the workers.
func (m *Manager) Data() *domain.DailyData {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copyLocked()
}

// SetStatus transitions the batch status. Terminal statuses always flush.
func (m *Manager) SetStatus(status domain.DailyStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data.ProcessingStatus = status
	if status != domain.DailyStatusFailed {
		m.data.Error = ""
	}
	m.data.Touch()
	return m.persistLocked(status.IsTerminal())
}

// MarkNoPapers retires the batch as a valid empty result and flushes.
func (m *Manager) MarkNoPapers() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data.MarkNoPapers()
	return m.persistLocked(true)
}

// MarkFailed records a batch-level failure and flushes.
func (m *Manager) MarkFailed(message string, retainData bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data.MarkFailed(message, retainData)
	return m.persistLocked(true)
}

// SetSummary records the generated daily summary and flushes.
func (m *Manager) SetSummary(summary string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data.Summary = summary
	m.data.SummaryGenerated = true
	m.data.Touch()
	return m.persistLocked(true)
}

// MarkSaved records that the batch content is final on disk and flushes.
func (m *Manager) MarkSaved() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data.DailyDataSaved = true
	m.data.Touch()
	return m.persistLocked(true)
}

// RegisterRawPapers merges fetched metadata into the batch, keyed by arXiv
// ID. Papers already present keep their processing state, so re-registering
// after a resume is a no-op for in-flight work.
func (m *Manager) RegisterRawPapers(raws []domain.RawPaper) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	added := 0
	for _, raw := range raws {
		if m.data.FindPaper(raw.ArxivID) != nil {
			continue
		}
		paper, err := domain.NewPaperFromRaw(raw, m.maxAttempts)
		if err != nil {
			return fmt.Errorf("register paper: %w", err)
		}
		m.data.Papers = append(m.data.Papers, paper)
		added++
	}
	m.data.RawPapersFetched = true
	if added > 0 {
		m.logger.Info("registered papers", "added", added, "total", len(m.data.Papers))
	}
	return m.persistLocked(true)
}

// UpdatePaper applies a status transition plus merged result fields to one
// paper. An unknown ID gets a warning placeholder so the update is never
// silently lost. Transitions out of active work flush immediately; the
// in_progress heartbeat may be coalesced.
func (m *Manager) UpdatePaper(arxivID string, status domain.TaskStatus, upd PaperUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	paper := m.data.FindPaper(arxivID)
	if paper == nil {
		m.logger.Warn("update for unregistered paper, creating placeholder", "arxiv_id", arxivID)
		created, err := domain.NewPaperFromRaw(domain.RawPaper{ArxivID: arxivID}, m.maxAttempts)
		if err != nil {
			return fmt.Errorf("update paper: %w", err)
		}
		m.data.Papers = append(m.data.Papers, created)
		paper = created
	}

	if err := paper.Transition(status); err != nil {
		return fmt.Errorf("update paper %s: %w", arxivID, err)
	}

	if upd.TitleZh != "" {
		paper.TitleZh = upd.TitleZh
	}
	if upd.TldrZh != "" {
		paper.TldrZh = upd.TldrZh
	}
	for _, step := range upd.CompletedSteps {
		paper.AddCompletedStep(step)
	}
	paper.LLMBackupCalls += upd.BackupCalls

	switch status {
	case domain.TaskStatusCompleted:
		paper.Error = ""
	case domain.TaskStatusFailed:
		paper.Error = upd.Error
	default:
		if upd.Error != "" {
			paper.Error = upd.Error
		}
	}

	force := status != domain.TaskStatusInProgress
	return m.persistLocked(force)
}

// PendingPaperIDs returns the IDs that still need processing this run:
// pending, interrupted in_progress, retrying, and failed papers that have
// attempts left, which are promoted to retrying here.
func (m *Manager) PendingPaperIDs() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []string
	promoted := 0
	for _, p := range m.data.Papers {
		switch {
		case p.IsPendingWork():
			ids = append(ids, p.ArxivID)
		case p.ProcessingStatus == domain.TaskStatusFailed && !p.IsTerminalFailure():
			if err := p.Transition(domain.TaskStatusRetrying); err != nil {
				return nil, fmt.Errorf("promote paper %s: %w", p.ArxivID, err)
			}
			ids = append(ids, p.ArxivID)
			promoted++
		}
	}

	if promoted > 0 {
		m.logger.Info("promoted failed papers for retry", "count", promoted)
		if err := m.persistLocked(true); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// CompletedPapers returns copies of the papers that finished successfully,
// in registration order.
func (m *Manager) CompletedPapers() []*domain.Paper {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Paper
	for _, p := range m.data.Papers {
		if p.ProcessingStatus == domain.TaskStatusCompleted {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out
}

// FailedPapers returns copies of the papers that failed terminally.
func (m *Manager) FailedPapers() []*domain.Paper {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Paper
	for _, p := range m.data.Papers {
		if p.IsTerminalFailure() {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out
}

// Flush forces any coalesced state to disk.
func (m *Manager) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.persistLocked(true)
}

// persistLocked recomputes counters and writes the batch file. Non-forced
// writes inside the save interval are coalesced; the skipped write is
// guaranteed to land on the next forced save.
func (m *Manager) persistLocked(force bool) error {
	m.data.RecalculateCounters()
	m.data.Touch()

	if !force && m.saveInterval > 0 && time.Since(m.lastSave) < m.saveInterval {
		return nil
	}

	path := m.paths.DailyPath(m.data.Date, m.data.Category)
	if err := storage.WriteJSONAtomic(path, m.data); err != nil {
		return fmt.Errorf("persist batch state: %w", err)
	}
	m.lastSave = time.Now()
	return nil
}

// copyLocked deep-copies the batch for lock-free inspection by callers.
func (m *Manager) copyLocked() *domain.DailyData {
	cp := *m.data
	cp.Papers = make([]*domain.Paper, len(m.data.Papers))
	for i, p := range m.data.Papers {
		pc := *p
		cp.Papers[i] = &pc
	}
	return &cp
}
