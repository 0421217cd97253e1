// Package pipeline drives the daily batch: fetch papers, enrich them through
// the LLM layer under bounded concurrency, summarize, validate, and publish.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/daydayarxiv/daydayarxiv/internal/arxiv"
	"github.com/daydayarxiv/daydayarxiv/internal/domain"
	"github.com/daydayarxiv/daydayarxiv/internal/llm"
	"github.com/daydayarxiv/daydayarxiv/internal/state"
	"github.com/daydayarxiv/daydayarxiv/internal/storage"
	"github.com/daydayarxiv/daydayarxiv/internal/validation"
)

// ErrBatchFailed is wrapped by every batch-level failure RunForDate returns.
var ErrBatchFailed = errors.New("batch failed")

// LLM is the subset of the provider client the pipeline needs.
type LLM interface {
	TranslateTitle(ctx context.Context, title, abstract string) (llm.Result, error)
	TLDR(ctx context.Context, title, abstract string) (llm.Result, error)
	DailySummary(ctx context.Context, paperText, date string) (llm.Result, error)
}

// Options tunes a pipeline run.
type Options struct {
	Category        string
	MaxResults      int
	Concurrency     int
	BatchSize       int
	Force           bool
	MaxAttempts     int
	SaveInterval    time.Duration
	FailurePatterns []string
}

// Pipeline runs daily batches against its collaborators.
type Pipeline struct {
	fetcher arxiv.Fetcher
	llm     LLM
	paths   storage.OutputPaths
	logger  *slog.Logger
	opts    Options
}

// New creates a pipeline.
func New(fetcher arxiv.Fetcher, client LLM, paths storage.OutputPaths, logger *slog.Logger, opts Options) *Pipeline {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Pipeline{
		fetcher: fetcher,
		llm:     client,
		paths:   paths,
		logger:  logger,
		opts:    opts,
	}
}

// RunForDate runs the whole batch state machine for one date. The returned
// error wraps ErrBatchFailed whenever the batch was marked Failed.
func (p *Pipeline) RunForDate(ctx context.Context, date string) error {
	runID := uuid.New().String()
	logger := p.logger.With("run_id", runID, "date", date, "category", p.opts.Category)
	logger.Info("starting batch run", "force", p.opts.Force)

	mgr := state.NewManager(p.paths, date, p.opts.Category, logger, state.Options{
		MaxAttempts:  p.opts.MaxAttempts,
		SaveInterval: p.opts.SaveInterval,
	})

	if p.opts.Force {
		if err := mgr.Reset(); err != nil {
			return p.fail(mgr, logger, fmt.Sprintf("reset state: %v", err), false)
		}
	} else if mgr.Load() {
		if done, err := p.shortCircuit(mgr, logger); done {
			return err
		}
	}

	if err := mgr.SetStatus(domain.DailyStatusInProgress); err != nil {
		return p.fail(mgr, logger, fmt.Sprintf("persist state: %v", err), false)
	}

	rawPapers, noPapers, err := p.resolveRawPapers(ctx, mgr, logger, date)
	if err != nil {
		return p.fail(mgr, logger, fmt.Sprintf("fetch papers: %v", err), false)
	}
	if noPapers {
		return p.finishNoPapers(mgr, logger, date)
	}
	if err := mgr.RegisterRawPapers(rawPapers); err != nil {
		return p.fail(mgr, logger, fmt.Sprintf("register papers: %v", err), false)
	}

	if err := p.processPending(ctx, mgr, logger); err != nil {
		return p.fail(mgr, logger, fmt.Sprintf("process papers: %v", err), false)
	}

	if failed := mgr.FailedPapers(); len(failed) > 0 {
		ids := make([]string, 0, len(failed))
		for _, paper := range failed {
			ids = append(ids, paper.ArxivID)
		}
		logger.Error("papers failed permanently", "count", len(failed), "ids", ids)
		return p.fail(mgr, logger, fmt.Sprintf("%d papers failed; summary skipped", len(failed)), false)
	}

	data := mgr.Data()
	if data.ProcessedPapersCount != data.PapersCount {
		return p.fail(mgr, logger, fmt.Sprintf("completed count %d does not match paper count %d",
			data.ProcessedPapersCount, data.PapersCount), false)
	}

	if !data.SummaryGenerated || p.opts.Force {
		result, err := p.llm.DailySummary(ctx, SummaryInput(rawPapers), date)
		if err != nil {
			return p.fail(mgr, logger, fmt.Sprintf("generate summary: %v", err), false)
		}
		if err := mgr.SetSummary(result.Text); err != nil {
			return p.fail(mgr, logger, fmt.Sprintf("persist summary: %v", err), false)
		}
		logger.Info("daily summary generated", "used_backup", result.UsedBackup)
	}

	if issues := validation.ValidateDailyData(mgr.Data(), p.opts.FailurePatterns); len(issues) > 0 {
		for _, issue := range issues {
			logger.Error("validation issue", "issue", issue)
		}
		return p.fail(mgr, logger, fmt.Sprintf("validation failed: %s", issues[0]), false)
	}

	if err := mgr.MarkSaved(); err != nil {
		return p.fail(mgr, logger, fmt.Sprintf("persist state: %v", err), false)
	}
	if err := mgr.SetStatus(domain.DailyStatusCompleted); err != nil {
		return p.fail(mgr, logger, fmt.Sprintf("persist state: %v", err), false)
	}

	if err := storage.UpdateIndex(p.paths, date, p.opts.Category); err != nil {
		return p.fail(mgr, logger, fmt.Sprintf("update index: %v", err), true)
	}

	final := mgr.Data()
	logger.Info("batch completed",
		"papers", final.PapersCount,
		"backup_calls", final.LLMBackupCalls)
	return nil
}

// shortCircuit decides whether a resumed batch needs any work. done means
// RunForDate should return the accompanying error (possibly nil) as-is.
func (p *Pipeline) shortCircuit(mgr *state.Manager, logger *slog.Logger) (done bool, err error) {
	data := mgr.Data()
	if !data.DailyDataSaved || unfinishedCount(data) > 0 {
		return false, nil
	}

	issues := validation.ValidateDailyData(data, p.opts.FailurePatterns)
	if len(issues) > 0 {
		logger.Warn("saved batch has issues, reprocessing", "issues", issues)
		return false, nil
	}

	switch data.ProcessingStatus {
	case domain.DailyStatusCompleted, domain.DailyStatusNoPapers:
		logger.Info("batch already completed, skipping", "status", data.ProcessingStatus)
		return true, nil
	case domain.DailyStatusFailed:
		// Paper data is intact: only the index step is outstanding.
		logger.Info("retrying index update for saved batch")
		if err := storage.UpdateIndex(p.paths, data.Date, data.Category); err != nil {
			return true, p.fail(mgr, logger, fmt.Sprintf("update index: %v", err), true)
		}
		return true, mgr.SetStatus(domain.DailyStatusCompleted)
	default:
		return false, nil
	}
}

// resolveRawPapers returns the batch's raw papers, preferring the on-disk
// cache over a refetch. noPapers is true for a confirmed empty day.
func (p *Pipeline) resolveRawPapers(ctx context.Context, mgr *state.Manager, logger *slog.Logger, date string) (raws []domain.RawPaper, noPapers bool, err error) {
	rawPath := p.paths.RawPath(date, p.opts.Category)

	if !p.opts.Force && mgr.Data().RawPapersFetched && storage.FileExists(rawPath) {
		if err := storage.ReadJSON(rawPath, &raws); err == nil {
			logger.Info("loaded raw papers from cache", "papers", len(raws), "path", rawPath)
			return raws, len(raws) == 0, nil
		}
		logger.Warn("raw cache unreadable, refetching", "path", rawPath)
	}

	raws, err = p.fetcher.FetchPapers(ctx, p.opts.Category, date, p.opts.MaxResults)
	if err != nil {
		return nil, false, err
	}
	if len(raws) == 0 {
		return nil, true, nil
	}
	if err := storage.WriteJSONAtomic(rawPath, raws); err != nil {
		return nil, false, fmt.Errorf("cache raw papers: %w", err)
	}
	return raws, false, nil
}

// finishNoPapers retires an empty day as a valid terminal result.
func (p *Pipeline) finishNoPapers(mgr *state.Manager, logger *slog.Logger, date string) error {
	logger.Info("no papers found, recording empty day")
	if err := mgr.MarkNoPapers(); err != nil {
		return p.fail(mgr, logger, fmt.Sprintf("persist state: %v", err), false)
	}
	if err := storage.UpdateIndex(p.paths, date, p.opts.Category); err != nil {
		return p.fail(mgr, logger, fmt.Sprintf("update index: %v", err), true)
	}
	return nil
}

// processPending drains the pending set. Each pass re-queries the ids so
// papers promoted to retrying are picked up without a separate retry phase.
// Every pass moves each pending paper either to completed or one attempt
// closer to terminal failure, so the pass count is bounded by the attempt
// ceiling; the guard catches a paper that stops making progress.
func (p *Pipeline) processPending(ctx context.Context, mgr *state.Manager, logger *slog.Logger) error {
	maxAttempts := p.opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = domain.DefaultMaxAttempts
	}
	maxPasses := maxAttempts + 2

	for pass := 1; ; pass++ {
		if pass > maxPasses {
			return fmt.Errorf("pending papers did not converge after %d passes", maxPasses)
		}
		ids, err := mgr.PendingPaperIDs()
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return mgr.Flush()
		}
		logger.Info("processing pass", "pass", pass, "pending", len(ids))

		for _, chunk := range chunkIDs(ids, p.opts.BatchSize) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.processChunk(ctx, mgr, logger, chunk)
		}
	}
}

// processChunk runs one batch of papers under the concurrency semaphore and
// waits for all of them.
func (p *Pipeline) processChunk(ctx context.Context, mgr *state.Manager, logger *slog.Logger, ids []string) {
	sem := make(chan struct{}, p.opts.Concurrency)
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(id string) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := p.processPaper(ctx, mgr, logger, id); err != nil {
				logger.Error("paper update failed", "arxiv_id", id, "error", err)
			}
		}(id)
	}
	wg.Wait()
}

// processPaper runs translation and TLDR generation concurrently for one
// paper and writes the outcome back through the state manager.
func (p *Pipeline) processPaper(ctx context.Context, mgr *state.Manager, logger *slog.Logger, id string) error {
	paper := mgr.Data().FindPaper(id)
	if paper == nil {
		return fmt.Errorf("paper %s not registered", id)
	}
	if err := mgr.UpdatePaper(id, domain.TaskStatusInProgress, state.PaperUpdate{}); err != nil {
		return err
	}

	var (
		wg          sync.WaitGroup
		title, tldr llm.Result
		titleErr    error
		tldrErr     error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		title, titleErr = p.llm.TranslateTitle(ctx, paper.Title, paper.Abstract)
	}()
	go func() {
		defer wg.Done()
		tldr, tldrErr = p.llm.TLDR(ctx, paper.Title, paper.Abstract)
	}()
	wg.Wait()

	upd := state.PaperUpdate{}
	if titleErr == nil {
		upd.TitleZh = title.Text
		upd.CompletedSteps = append(upd.CompletedSteps, domain.StepTranslation)
		if title.UsedBackup {
			upd.BackupCalls++
		}
	}
	if tldrErr == nil {
		upd.TldrZh = tldr.Text
		upd.CompletedSteps = append(upd.CompletedSteps, domain.StepTLDR)
		if tldr.UsedBackup {
			upd.BackupCalls++
		}
	}

	if titleErr != nil || tldrErr != nil {
		var reasons []string
		if titleErr != nil {
			reasons = append(reasons, fmt.Sprintf("translation: %v", titleErr))
		}
		if tldrErr != nil {
			reasons = append(reasons, fmt.Sprintf("tldr: %v", tldrErr))
		}
		upd.Error = strings.Join(reasons, "; ")
		logger.Warn("paper processing failed",
			"arxiv_id", id,
			"attempts", paper.Attempts+1,
			"error", upd.Error)
		return mgr.UpdatePaper(id, domain.TaskStatusFailed, upd)
	}

	logger.Debug("paper processed", "arxiv_id", id)
	return mgr.UpdatePaper(id, domain.TaskStatusCompleted, upd)
}

// fail records a batch-level failure and returns the matching error.
func (p *Pipeline) fail(mgr *state.Manager, logger *slog.Logger, message string, retainData bool) error {
	logger.Error("batch failed", "reason", message)
	if err := mgr.MarkFailed(message, retainData); err != nil {
		logger.Error("could not persist failure state", "error", err)
	}
	return fmt.Errorf("%w: %s", ErrBatchFailed, message)
}

// unfinishedCount counts papers that still need work, including failed ones
// with attempts left.
func unfinishedCount(d *domain.DailyData) int {
	n := 0
	for _, paper := range d.Papers {
		if paper.IsPendingWork() {
			n++
			continue
		}
		if paper.ProcessingStatus == domain.TaskStatusFailed && !paper.IsTerminalFailure() {
			n++
		}
	}
	return n
}

// chunkIDs splits ids into batches of size, or a single batch when size<=0.
func chunkIDs(ids []string, size int) [][]string {
	if size <= 0 || size >= len(ids) {
		return [][]string{ids}
	}
	var out [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[start:end])
	}
	return out
}

// SummaryInput renders the raw papers into the markdown block the daily
// summary prompt consumes, in registration order.
func SummaryInput(papers []domain.RawPaper) string {
	var b strings.Builder
	for i, paper := range papers {
		fmt.Fprintf(&b, "## %d. %s\n", i+1, paper.Title)
		if len(paper.Authors) > 0 {
			fmt.Fprintf(&b, "> authors: %s\n", strings.Join(paper.Authors, ", "))
		}
		if paper.PublishedDate != "" {
			fmt.Fprintf(&b, "> published date: %s\n\n", paper.PublishedDate)
		}
		if paper.Abstract != "" {
			fmt.Fprintf(&b, "### abstract\n%s\n\n", paper.Abstract)
		}
		if paper.Comment != "" {
			fmt.Fprintf(&b, "### comment\n%s\n\n", paper.Comment)
		}
	}
	return b.String()
}
