package main

import (
	"log/slog"

	"github.com/aluiziolira/go-scrape-cars/catalog"
	"github.com/spf13/cobra"
)

var makesAll bool

var makesCmd = &cobra.Command{
	Use:   "makes",
	Short: "Download the make and model catalog used to resolve brand IDs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		include := cfg.Filters.Brands
		if makesAll {
			include = nil
		}

		client := catalog.NewClient(cfg.MakesAPIURL, cfg.UserAgent, cfg.Timeout)
		rows, err := client.Refresh(cmd.Context(), cfg.MakesCSV, include)
		if err != nil {
			return err
		}
		slog.Info("makes catalog written",
			slog.String("path", cfg.MakesCSV),
			slog.Int("rows", rows),
		)
		return nil
	},
}

func init() {
	makesCmd.Flags().BoolVar(&makesAll, "all", false, "Keep every make instead of the configured brands")
	rootCmd.AddCommand(makesCmd)
}
