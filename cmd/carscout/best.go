package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aluiziolira/go-scrape-cars/notify"
	"github.com/aluiziolira/go-scrape-cars/store"
	"github.com/spf13/cobra"
)

var bestCmd = &cobra.Command{
	Use:   "best",
	Short: "Show the all-time best listings from the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		top, err := newStore(cfg).AllTimeBest(cfg.TopN)
		if errors.Is(err, store.ErrStoreNotFound) {
			return fmt.Errorf("no best-of store at %s yet, run `carscout scrape` first", cfg.StorePath)
		}
		if err != nil {
			return err
		}

		fmt.Println(notify.RenderText(top, isTerminal(os.Stdout)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bestCmd)
}
