package scoring

import (
	"sort"

	"github.com/aluiziolira/go-scrape-cars/models"
)

// Rank returns the n best listings, one per (make, model) pair first. When
// the batch holds fewer than n distinct pairs the remaining slots are
// backfilled with the next highest scores, repeats allowed. The result is
// sorted by score, highest first; ties keep input order. Pairs compare
// case-insensitively after trimming, so "BMW X3" and "bmw x3 " are one pair.
func Rank(scored []models.ScoredCar, n int) []models.ScoredCar {
	if n <= 0 || len(scored) == 0 {
		return nil
	}

	sorted := make([]models.ScoredCar, len(scored))
	copy(sorted, scored)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	picked := make([]bool, len(sorted))
	seen := make(map[[2]string]struct{})
	count := 0
	for i, car := range sorted {
		if count == n {
			break
		}
		key := [2]string{fold(car.Make), fold(car.Model)}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		picked[i] = true
		count++
	}
	for i := range sorted {
		if count == n {
			break
		}
		if !picked[i] {
			picked[i] = true
			count++
		}
	}

	out := make([]models.ScoredCar, 0, count)
	for i, car := range sorted {
		if picked[i] {
			out = append(out, car)
		}
	}
	return out
}
