package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daydayarxiv/daydayarxiv/internal/index"
	"github.com/daydayarxiv/daydayarxiv/internal/storage"
)

func newRefreshIndexCmd() *cobra.Command {
	var (
		dataDir         string
		categories      []string
		validateContent bool
		allowPartial    bool
		dryRun          bool
		failOnIssues    bool
	)

	cmd := &cobra.Command{
		Use:   "refresh-index",
		Short: "Rebuild index.json by scanning and validating all daily files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, closer, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = closer() }()

			paths := outputPaths(cfg)
			if dataDir != "" {
				paths = storage.OutputPaths{BaseDir: dataDir}
			}

			refresher := index.NewRefresher(paths, log)
			idx, issues, err := refresher.Refresh(index.Options{
				Categories:      categories,
				FailurePatterns: cfg.FailurePatterns,
				ValidateContent: validateContent,
				AllowPartial:    allowPartial,
				DryRun:          dryRun,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Index covers %d date(s) and %d category(ies)\n",
				len(idx.AvailableDates), len(idx.Categories))
			if report := index.RenderReport(issues); report != "" {
				fmt.Println(report)
			}
			if failOnIssues && len(issues) > 0 {
				return fmt.Errorf("index refresh found %d issue(s)", len(issues))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "data directory to scan (default from config)")
	cmd.Flags().StringArrayVar(&categories, "category", nil, "restrict the scan to a category (repeatable)")
	cmd.Flags().BoolVar(&validateContent, "validate-content", false, "also validate generated text against failure signatures")
	cmd.Flags().BoolVar(&allowPartial, "allow-partial", false, "keep files with soft issues in the index")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report without writing index.json")
	cmd.Flags().BoolVar(&failOnIssues, "fail-on-issues", false, "exit non-zero when any issue is found")

	return cmd
}
