package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/daydayarxiv/daydayarxiv/internal/arxiv"
	"github.com/daydayarxiv/daydayarxiv/internal/dates"
	"github.com/daydayarxiv/daydayarxiv/internal/llm"
	"github.com/daydayarxiv/daydayarxiv/internal/pipeline"
)

// interDatePause spaces out runs across multiple dates.
const interDatePause = time.Second

// exitError decides the command's exit status after all dates ran. Failures
// only force a non-zero exit when fail-on-error is set; each date's batch
// keeps its own state file either way.
func exitError(failed, total int, failOnError bool) error {
	if failed > 0 && failOnError {
		return fmt.Errorf("%d of %d date(s) failed", failed, total)
	}
	return nil
}

func newRunCmd() *cobra.Command {
	var (
		date        string
		startDate   string
		endDate     string
		category    string
		maxResults  int
		force       bool
		failOnError bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch and process papers for one or more dates",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, closer, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = closer() }()

			if category != "" {
				cfg.Category = category
			}
			if cmd.Flags().Changed("max-results") {
				cfg.MaxResults = maxResults
			}
			if cmd.Flags().Changed("force") {
				cfg.Force = force
			}
			if cmd.Flags().Changed("fail-on-error") {
				cfg.FailOnError = failOnError
			}

			runDates, err := resolveDates(date, startDate, endDate)
			if err != nil {
				return err
			}

			client, err := llm.NewClient(cfg.LLM, cfg.FailurePatterns, log)
			if err != nil {
				return fmt.Errorf("create llm client: %w", err)
			}
			p := pipeline.New(arxiv.NewClient(log), client, outputPaths(cfg), log, pipeline.Options{
				Category:        cfg.Category,
				MaxResults:      cfg.MaxResults,
				Concurrency:     cfg.Concurrency,
				BatchSize:       cfg.BatchSize,
				Force:           cfg.Force,
				MaxAttempts:     cfg.PaperMaxAttempts,
				SaveInterval:    cfg.SaveInterval(),
				FailurePatterns: cfg.FailurePatterns,
			})

			ctx := cmd.Context()
			failed := 0
			for i, d := range runDates {
				if err := p.RunForDate(ctx, d); err != nil {
					failed++
					log.Error("date failed", "date", d, "error", err)
				} else {
					log.Info("date completed", "date", d)
				}
				if i < len(runDates)-1 {
					select {
					case <-time.After(interDatePause):
					case <-ctx.Done():
						return ctx.Err()
					}
				}
			}

			log.Info("run finished",
				"dates", len(runDates),
				"succeeded", len(runDates)-failed,
				"failed", failed)
			return exitError(failed, len(runDates), cfg.FailOnError)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "single date to process (YYYY-MM-DD)")
	cmd.Flags().StringVar(&startDate, "start-date", "", "start of a date range (inclusive)")
	cmd.Flags().StringVar(&endDate, "end-date", "", "end of a date range (inclusive, requires --start-date)")
	cmd.Flags().StringVar(&category, "category", "", "arXiv category to fetch")
	cmd.Flags().IntVar(&maxResults, "max-results", 0, "maximum number of papers to fetch")
	cmd.Flags().BoolVar(&force, "force", false, "discard prior state and reprocess")
	cmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "exit non-zero when any date fails")

	return cmd
}

// resolveDates turns the date flags into the normalized, de-duplicated list
// of dates to process. With no flags, the latest announced date is used.
func resolveDates(date, startDate, endDate string) ([]string, error) {
	switch {
	case date != "":
		normalized, err := dates.Normalize(date)
		if err != nil {
			return nil, err
		}
		return []string{normalized}, nil
	case startDate != "":
		if endDate == "" {
			return nil, fmt.Errorf("--end-date is required when using --start-date")
		}
		rng, err := dates.BuildRange(startDate, endDate)
		if err != nil {
			return nil, err
		}
		return dates.Unique(rng), nil
	default:
		return []string{arxiv.LatestAnnouncementDate(time.Now())}, nil
	}
}
