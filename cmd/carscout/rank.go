package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aluiziolira/go-scrape-cars/notify"
	"github.com/aluiziolira/go-scrape-cars/pipeline"
	"github.com/aluiziolira/go-scrape-cars/scoring"
	"github.com/aluiziolira/go-scrape-cars/store"
	"github.com/spf13/cobra"
)

var (
	rankInput  string
	rankOutput string
	rankSave   bool
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Score and rank previously written batch files without crawling",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		dir := rankInput
		if dir == "" {
			dir = cfg.OutputDir
		}

		cars, err := pipeline.LoadBatchDir(dir)
		if err != nil {
			return err
		}
		cars = pipeline.FilterExcluded(cars, cfg.Exclusions)
		profile, err := cfg.ActiveProfile()
		if err != nil {
			return err
		}

		scored := scoring.New(profile).Score(cars)
		top := scoring.Rank(scored, cfg.TopN)
		slog.Info("ranked batch",
			slog.String("dir", dir),
			slog.Int("listings", len(cars)),
			slog.Int("top", len(top)),
		)

		if rankOutput != "" {
			if err := pipeline.EnsureDir(rankOutput); err != nil {
				return err
			}
			f, err := os.Create(rankOutput)
			if err != nil {
				return fmt.Errorf("create %s: %w", rankOutput, err)
			}
			if err := store.WriteScored(f, scoring.Rank(scored, len(scored))); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			slog.Info("scored listings written", slog.String("path", rankOutput))
		}

		if rankSave {
			if err := newStore(cfg).Save(top); err != nil {
				return err
			}
		}

		fmt.Println(notify.RenderText(top, isTerminal(os.Stdout)))
		return nil
	},
}

func init() {
	rankCmd.Flags().StringVar(&rankInput, "input", "", "Directory with filtered_cars_*.csv batches (default: --output-dir)")
	rankCmd.Flags().StringVar(&rankOutput, "out", "", "Write every scored listing to this CSV file")
	rankCmd.Flags().BoolVar(&rankSave, "save", false, "Merge the ranked listings into the best-of store")
	rootCmd.AddCommand(rankCmd)
}
