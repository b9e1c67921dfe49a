// Package scoring rates a batch of clean listings against a weight profile
// and ranks the result.
package scoring

import (
	"math"
	"strings"

	"github.com/aluiziolira/go-scrape-cars/config"
	"github.com/aluiziolira/go-scrape-cars/models"
	"github.com/aluiziolira/go-scrape-cars/parser"
)

// Range is the batch-wide minimum and maximum of one attribute.
type Range struct {
	Min, Max float64
	set      bool
}

func (r *Range) add(v float64) {
	if !r.set {
		r.Min, r.Max, r.set = v, v, true
		return
	}
	r.Min = math.Min(r.Min, v)
	r.Max = math.Max(r.Max, v)
}

// Ranges holds the normalization ranges of one scoring context.
type Ranges struct {
	Price   Range
	Mileage Range
	Power   Range
	Year    Range
}

// ComputeRanges scans the batch. Missing price, mileage and year values do
// not take part; power always does since an unreadable power is zero.
func ComputeRanges(cars []*models.CarListing) Ranges {
	var r Ranges
	for _, c := range cars {
		if c == nil {
			continue
		}
		if c.Price != nil {
			r.Price.add(float64(*c.Price))
		}
		if c.Mileage != nil {
			r.Mileage.add(float64(*c.Mileage))
		}
		if c.Year != nil {
			r.Year.add(float64(*c.Year))
		}
		r.Power.add(float64(parser.ParsePower(c.Power)))
	}
	return r
}

// Normalize returns 1 - |v-lo|/(hi-lo), or 1 when the range is empty.
//
// This measures distance from the lower bound rather than position within
// the range, so it is not min-max scaling. Grade cutoffs are tuned against
// it as written.
func Normalize(v, lo, hi float64) float64 {
	if hi > lo {
		return 1 - math.Abs(v-lo)/(hi-lo)
	}
	return 1
}

func normalizeOptional(v *int, r Range) float64 {
	if v == nil {
		return 0
	}
	return Normalize(float64(*v), r.Min, r.Max)
}

// Engine scores batches with one profile.
type Engine struct {
	profile    config.ScoringProfile
	fuel       map[string]float64
	favorites  map[[2]string]struct{}
	wildcards  map[string]struct{}
	bodyTypes  map[string]struct{}
	emissionHi string
	emissionLo string
}

// New prepares an engine for profile. Lookups are case-insensitive.
func New(profile config.ScoringProfile) *Engine {
	e := &Engine{
		profile:    profile,
		fuel:       make(map[string]float64, len(profile.FuelScores)),
		favorites:  make(map[[2]string]struct{}),
		wildcards:  make(map[string]struct{}),
		bodyTypes:  make(map[string]struct{}),
		emissionHi: fold(profile.EmissionTopToken),
		emissionLo: fold(profile.EmissionNextToken),
	}
	for name, score := range profile.FuelScores {
		e.fuel[fold(name)] = score
	}
	for _, fav := range profile.FavoriteModels {
		brand, model := fold(fav.Make), fold(fav.Model)
		if model == config.FavoriteWildcard {
			e.wildcards[brand] = struct{}{}
			continue
		}
		e.favorites[[2]string{brand, model}] = struct{}{}
	}
	for _, body := range profile.FavorableBodyTypes {
		e.bodyTypes[fold(body)] = struct{}{}
	}
	return e
}

// Score rates every listing of the batch against ranges computed over the
// same batch and assigns its grade. Output order follows input order.
func (e *Engine) Score(cars []*models.CarListing) []models.ScoredCar {
	ranges := ComputeRanges(cars)
	out := make([]models.ScoredCar, 0, len(cars))
	for _, c := range cars {
		if c == nil {
			continue
		}
		score := Round(e.ScoreCar(c, ranges))
		out = append(out, models.ScoredCar{
			CarListing: *c,
			Score:      score,
			Grade:      AssignGrade(score),
		})
	}
	return out
}

// ScoreCar returns the unrounded weighted sum for one listing.
func (e *Engine) ScoreCar(c *models.CarListing, r Ranges) float64 {
	w := e.profile.Weights
	score := 0.0

	score += w.Price * normalizeOptional(c.Price, r.Price)
	score += w.Mileage * normalizeOptional(c.Mileage, r.Mileage)
	score += w.FuelType * e.fuel[fold(c.FuelType)]

	if c.AndroidAuto && c.CarPlay {
		score += w.Features
	}
	if c.AdaptiveCruiseControl {
		score += w.AdaptiveCruise
	}
	if c.SeatHeating {
		score += w.SeatHeating
	}

	score += w.Power * Normalize(float64(parser.ParsePower(c.Power)), r.Power.Min, r.Power.Max)
	score += w.RegistrationYear * normalizeOptional(c.Year, r.Year)

	if _, ok := e.bodyTypes[fold(c.BodyType)]; ok {
		score += w.BodyType
	}

	emission := fold(c.EmissionClass)
	switch {
	case e.emissionHi != "" && strings.Contains(emission, e.emissionHi):
		score += w.Emissions
	case e.emissionLo != "" && strings.Contains(emission, e.emissionLo):
		score += w.Emissions * 0.8
	}

	if e.favorite(c.Make, c.Model) {
		score += w.CoolnessFactor
	}
	if !parser.Denies(c.Warranty) {
		score += w.Warranty
	}

	if c.PreviousOwner != nil {
		switch *c.PreviousOwner {
		case 1:
			score += 1
		case 2:
			score += 0.75 * 2
		}
	}

	if parser.Denies(c.FullServiceHistory) {
		score -= 2
	}
	if parser.Denies(c.NonSmokerVehicle) {
		score -= 1
	}
	return score
}

func (e *Engine) favorite(brand, model string) bool {
	brand = fold(brand)
	if _, ok := e.wildcards[brand]; ok {
		return true
	}
	_, ok := e.favorites[[2]string{brand, fold(model)}]
	return ok
}

// Round rounds to one decimal place.
func Round(score float64) float64 {
	return math.Round(score*10) / 10
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
