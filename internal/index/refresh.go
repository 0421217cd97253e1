// Package index rebuilds the frontend data index from the files on disk,
// validating each daily file and reporting everything it had to exclude.
package index

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/daydayarxiv/daydayarxiv/internal/domain"
	"github.com/daydayarxiv/daydayarxiv/internal/storage"
	"github.com/daydayarxiv/daydayarxiv/internal/validation"
)

// ScanIssue is one problem found in a daily file during a rebuild. Hard
// issues (unreadable file, identity mismatch) always exclude the file from
// the index; soft issues exclude it unless AllowPartial is set.
type ScanIssue struct {
	Path    string
	Message string
	Hard    bool
}

// FixCommand suggests the rerun that would regenerate the offending file.
func (i ScanIssue) FixCommand() string {
	dir, file := filepath.Split(i.Path)
	date := filepath.Base(filepath.Clean(dir))
	category := strings.TrimSuffix(file, ".json")
	return fmt.Sprintf("daydayarxiv run --date %s --category %s --force", date, category)
}

// Options controls a rebuild.
type Options struct {
	// Categories restricts the scan to the listed categories. Empty means
	// all.
	Categories []string
	// FailurePatterns are the model failure signatures used when
	// ValidateContent is set.
	FailurePatterns []string
	// ValidateContent also checks generated text, not just structure.
	ValidateContent bool
	// AllowPartial keeps files with soft issues in the index.
	AllowPartial bool
	// DryRun skips writing index.json.
	DryRun bool
}

// Refresher rebuilds index.json for one data directory.
type Refresher struct {
	paths  storage.OutputPaths
	logger *slog.Logger
}

// NewRefresher creates a Refresher over a data directory.
func NewRefresher(paths storage.OutputPaths, logger *slog.Logger) *Refresher {
	return &Refresher{paths: paths, logger: logger}
}

// Refresh scans every date directory, validates each daily file, and writes
// the rebuilt index unless the options say otherwise. The returned issues
// cover every excluded or suspect file.
func (r *Refresher) Refresh(opts Options) (*domain.DataIndex, []ScanIssue, error) {
	idx, issues := r.rebuild(opts)
	if opts.DryRun {
		r.logger.Info("dry run, index not written",
			"dates", len(idx.AvailableDates),
			"issues", len(issues))
		return idx, issues, nil
	}

	if err := storage.WriteJSONAtomic(r.paths.IndexPath(), idx); err != nil {
		return idx, issues, fmt.Errorf("write index: %w", err)
	}
	r.logger.Info("index refreshed",
		"dates", len(idx.AvailableDates),
		"categories", len(idx.Categories),
		"issues", len(issues))
	return idx, issues, nil
}

func (r *Refresher) rebuild(opts Options) (*domain.DataIndex, []ScanIssue) {
	idx := domain.NewDataIndex()
	var issues []ScanIssue

	entries, err := os.ReadDir(r.paths.BaseDir)
	if err != nil {
		return idx, issues
	}

	filter := make(map[string]struct{}, len(opts.Categories))
	for _, c := range opts.Categories {
		filter[c] = struct{}{}
	}

	for _, entry := range entries {
		if !entry.IsDir() || !storage.IsDateDirName(entry.Name()) {
			continue
		}
		date := entry.Name()

		files, err := os.ReadDir(filepath.Join(r.paths.BaseDir, date))
		if err != nil {
			continue
		}
		sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })

		for _, file := range files {
			name := file.Name()
			if file.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasSuffix(name, "_raw.json") {
				continue
			}
			category := strings.TrimSuffix(name, ".json")
			if len(filter) > 0 {
				if _, ok := filter[category]; !ok {
					continue
				}
			}

			path := r.paths.DailyPath(date, category)
			fileIssues, hard := r.validateFile(path, date, category, opts)
			for _, msg := range fileIssues {
				issues = append(issues, ScanIssue{Path: path, Message: msg, Hard: hard})
			}
			if len(fileIssues) > 0 && (hard || !opts.AllowPartial) {
				continue
			}
			idx.Add(date, category)
		}
	}

	idx.Touch()
	return idx, issues
}

// validateFile checks one daily file. hard marks issues that make the file
// untrustworthy regardless of AllowPartial.
func (r *Refresher) validateFile(path, date, category string, opts Options) (issues []string, hard bool) {
	var daily domain.DailyData
	if err := storage.ReadJSON(path, &daily); err != nil {
		return []string{fmt.Sprintf("invalid JSON or schema: %v", err)}, true
	}

	if daily.Date != date {
		issues = append(issues, fmt.Sprintf("date mismatch: %s != %s", daily.Date, date))
		hard = true
	}
	if daily.Category != category {
		issues = append(issues, fmt.Sprintf("category mismatch: %s != %s", daily.Category, category))
		hard = true
	}
	if daily.PapersCount < 0 || daily.ProcessedPapersCount < 0 || daily.FailedPapersCount < 0 {
		issues = append(issues, "paper counts must be non-negative")
	}
	if daily.ProcessingStatus != domain.DailyStatusCompleted && daily.ProcessingStatus != domain.DailyStatusNoPapers {
		issues = append(issues, fmt.Sprintf("processing_status not final: %s", daily.ProcessingStatus))
	}

	if opts.ValidateContent {
		issues = append(issues, validation.ValidateDailyData(&daily, opts.FailurePatterns)...)
	}
	return issues, hard
}

// RenderReport formats the issue list for the CLI, one line per issue with
// the suggested rerun command.
func RenderReport(issues []ScanIssue) string {
	if len(issues) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d issues:\n", len(issues))
	for _, issue := range issues {
		severity := "soft"
		if issue.Hard {
			severity = "hard"
		}
		fmt.Fprintf(&b, "- [%s] %s: %s\n    fix: %s\n", severity, issue.Path, issue.Message, issue.FixCommand())
	}
	return strings.TrimSuffix(b.String(), "\n")
}
