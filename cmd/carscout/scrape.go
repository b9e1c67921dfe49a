package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aluiziolira/go-scrape-cars/models"
	"github.com/aluiziolira/go-scrape-cars/notify"
	"github.com/aluiziolira/go-scrape-cars/runner"
	"github.com/spf13/cobra"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Crawl every sort mode, score the listings and update the best-of store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		runOpts := []runner.Option{runner.WithBrands(loadBrands(cfg))}
		if cfg.Email.Enabled() {
			runOpts = append(runOpts, runner.WithNotifier(notify.NewNotifier(cfg.Email)))
		} else {
			slog.Debug("e-mail settings incomplete, notifications disabled")
		}
		r := runner.New(cfg, newStore(cfg), runOpts...)

		shutdown := startMetricsServer(cfg.MetricsAddr, r.Metrics().Registry)
		defer shutdown()

		slog.Info("starting crawl",
			slog.Int("pages", cfg.Pages),
			slog.Any("sorts", cfg.SortModes),
			slog.String("profile", cfg.Profile),
			slog.String("output_dir", cfg.OutputDir),
		)

		start := time.Now()
		top, err := r.Run(ctx)
		snap := r.Snapshot()
		for _, result := range snap.Scrapes {
			printSummary(result)
		}
		if err != nil {
			return err
		}

		fmt.Println(notify.RenderText(top, isTerminal(os.Stdout)))
		slog.Info("run complete",
			slog.Int("ranked", len(top)),
			slog.String("store", cfg.StorePath),
			slog.Duration("duration", time.Since(start)),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

func printSummary(result *models.ScraperResult) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Printf("Crawl complete (sort: %s)\n", result.Sort)

	successRate := 0.0
	if result.RequestCount > 0 {
		successRate = float64(result.RequestCount-result.ErrorCount) / float64(result.RequestCount) * 100
	}
	duration := result.EndTime.Sub(result.StartTime)

	fmt.Printf("  Pages:         %d (%d failed)\n", result.PageCount, result.FailedPages)
	fmt.Printf("  Listings:      %d\n", result.ListingCount)
	fmt.Printf("  Skipped:       %d\n", result.SkippedCount)
	if len(result.SkipsByReason) > 0 {
		fmt.Printf("  Skip reasons:  %v\n", result.SkipsByReason)
	}
	fmt.Printf("  Success rate:  %.2f%%\n", successRate)
	fmt.Printf("  Errors:        %d\n", result.ErrorCount)
	fmt.Printf("  Failed URLs:   %d\n", len(result.FailedURLs))
	if len(result.ErrorsByType) > 0 {
		fmt.Printf("  Error types:   %v\n", result.ErrorsByType)
	}
	fmt.Printf("  Duration:      %v\n", duration.Round(time.Millisecond))
	fmt.Println(separator)
}
