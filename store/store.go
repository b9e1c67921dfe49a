// Package store persists the capped table of the highest-scoring listings
// ever seen.
package store

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aluiziolira/go-scrape-cars/models"
	"github.com/aluiziolira/go-scrape-cars/scoring"
)

// DefaultMaxRows caps the stored table when no limit is configured.
const DefaultMaxRows = 300

var (
	// ErrStoreNotFound is returned when reading a store that was never saved.
	ErrStoreNotFound = errors.New("store: best-of table not found")
	// ErrMissingScoreColumn marks a persisted table without scores.
	ErrMissingScoreColumn = errors.New("store: no score column")
)

// ConfigurationError reports a persisted table that cannot be used as is.
// Scores are never recomputed at read time, so this is fatal to the caller.
type ConfigurationError struct {
	Path string
	Err  error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Store is a Best-Of table backend.
type Store interface {
	// Save merges top into the persisted table and rewrites it.
	Save(top []models.ScoredCar) error
	// AllTimeBest returns the n best stored listings, one per (make, model)
	// first, using the stored scores.
	AllTimeBest(n int) ([]models.ScoredCar, error)
}

// Merge unions existing and incoming by URL, keeping the higher score (the
// existing row on a tie), sorts by score descending and truncates to
// maxRows. Neither input is modified.
func Merge(existing, incoming []models.ScoredCar, maxRows int) []models.ScoredCar {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	index := make(map[string]int, len(existing)+len(incoming))
	merged := make([]models.ScoredCar, 0, len(existing)+len(incoming))
	add := func(car models.ScoredCar) {
		if i, ok := index[car.URL]; ok {
			if car.Score > merged[i].Score {
				merged[i] = car
			}
			return
		}
		index[car.URL] = len(merged)
		merged = append(merged, car)
	}
	for _, car := range existing {
		add(car)
	}
	for _, car := range incoming {
		add(car)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	if len(merged) > maxRows {
		merged = merged[:maxRows]
	}
	return merged
}

func allTimeBest(rows []models.ScoredCar, n int) []models.ScoredCar {
	for i := range rows {
		rows[i].Score = scoring.Round(rows[i].Score)
	}
	return scoring.Rank(rows, n)
}
