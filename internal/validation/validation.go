// Package validation checks pipeline outputs before they are treated as
// final, so a model failure signature never reaches the frontend silently.
package validation

import (
	"fmt"

	"github.com/daydayarxiv/daydayarxiv/internal/domain"
	"github.com/daydayarxiv/daydayarxiv/internal/llm"
)

// ValidatePaper reports content issues on a single paper. A paper that never
// completed is reported as-is without inspecting its generated fields.
func ValidatePaper(paper *domain.Paper, failurePatterns []string) []string {
	if paper.ProcessingStatus != domain.TaskStatusCompleted {
		return []string{fmt.Sprintf("paper %s not completed", paper.ArxivID)}
	}

	var issues []string
	if !llm.IsValidOutput(paper.TitleZh, failurePatterns) {
		issues = append(issues, fmt.Sprintf("paper %s has invalid title_zh", paper.ArxivID))
	}
	if !llm.IsValidOutput(paper.TldrZh, failurePatterns) {
		issues = append(issues, fmt.Sprintf("paper %s has invalid tldr_zh", paper.ArxivID))
	}
	return issues
}

// ValidateDailyData reports content issues across a whole batch: the summary
// plus every paper. A batch without papers only needs a valid summary.
func ValidateDailyData(data *domain.DailyData, failurePatterns []string) []string {
	var issues []string
	if len(data.Papers) == 0 {
		if !llm.IsValidOutput(data.Summary, failurePatterns) {
			issues = append(issues, "summary invalid for no-paper day")
		}
		return issues
	}

	if !llm.IsValidOutput(data.Summary, failurePatterns) {
		issues = append(issues, "summary invalid")
	}
	for _, paper := range data.Papers {
		issues = append(issues, ValidatePaper(paper, failurePatterns)...)
	}
	return issues
}
