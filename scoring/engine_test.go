package scoring

import (
	"testing"

	"github.com/aluiziolira/go-scrape-cars/config"
	"github.com/aluiziolira/go-scrape-cars/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		v, lo, hi float64
		want      float64
	}{
		{name: "midpoint", v: 10, lo: 0, hi: 20, want: 0.5},
		{name: "at lower bound", v: 0, lo: 0, hi: 20, want: 1},
		{name: "at upper bound", v: 20, lo: 0, hi: 20, want: 0},
		{name: "empty range", v: 10, lo: 0, hi: 0, want: 1},
		{name: "equal bounds any value", v: -42, lo: 7, hi: 7, want: 1},
		{name: "inverted range", v: 3, lo: 5, hi: 1, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.v, tt.lo, tt.hi); got != tt.want {
				t.Fatalf("Normalize(%v, %v, %v) = %v, want %v", tt.v, tt.lo, tt.hi, got, tt.want)
			}
		})
	}
}

func TestComputeRangesSkipsMissing(t *testing.T) {
	cars := []*models.CarListing{
		{URL: "a", Price: models.IntPtr(12000), Year: models.IntPtr(2021), Power: "90 kW"},
		{URL: "b", Price: nil, Year: models.IntPtr(2019), Power: "unknown"},
		{URL: "c", Price: models.IntPtr(8000), Mileage: models.IntPtr(5000), Power: "150 kW"},
	}
	r := ComputeRanges(cars)

	if r.Price.Min != 8000 || r.Price.Max != 12000 {
		t.Fatalf("price range = %+v", r.Price)
	}
	if r.Mileage.Min != 5000 || r.Mileage.Max != 5000 {
		t.Fatalf("mileage range = %+v", r.Mileage)
	}
	if r.Year.Min != 2019 || r.Year.Max != 2021 {
		t.Fatalf("year range = %+v", r.Year)
	}
	if r.Power.Min != 0 || r.Power.Max != 150 {
		t.Fatalf("power range should include the zero power, got %+v", r.Power)
	}
}

func TestEngineScore(t *testing.T) {
	best := &models.CarListing{
		URL:                   "http://example.test/a",
		Make:                  "Skoda",
		Model:                 "Octavia",
		Price:                 models.IntPtr(10000),
		Mileage:               models.IntPtr(20000),
		Year:                  models.IntPtr(2022),
		Power:                 "110 kW (150 hp)",
		FuelType:              "Diesel",
		AndroidAuto:           true,
		CarPlay:               true,
		AdaptiveCruiseControl: true,
		SeatHeating:           true,
		BodyType:              "Station wagon",
		EmissionClass:         "Euro 6d",
		Warranty:              "12 months",
		PreviousOwner:         models.IntPtr(1),
		FullServiceHistory:    "Yes",
		NonSmokerVehicle:      "Yes",
	}
	worst := &models.CarListing{
		URL:                "http://example.test/b",
		Make:               "Audi",
		Model:              "A3",
		Price:              models.IntPtr(20000),
		Mileage:            models.IntPtr(60000),
		Year:               models.IntPtr(2020),
		Power:              "80 kW (109 hp)",
		FuelType:           "Gasoline",
		BodyType:           "Hatchback",
		EmissionClass:      "Euro 5",
		Warranty:           "No",
		PreviousOwner:      models.IntPtr(2),
		FullServiceHistory: "No",
		NonSmokerVehicle:   "No",
	}

	scored := New(config.DefaultProfile()).Score([]*models.CarListing{best, worst})
	if len(scored) != 2 {
		t.Fatalf("scored = %d, want 2", len(scored))
	}

	// Newest registration and highest power sit at the top of their ranges
	// and so normalize to zero.
	if scored[0].Score != 27.9 || scored[0].Grade != models.GradeExcellent {
		t.Fatalf("best = %.1f/%s, want 27.9/Excellent", scored[0].Score, scored[0].Grade)
	}
	if scored[1].Score != 9.0 || scored[1].Grade != models.GradeBad {
		t.Fatalf("worst = %.1f/%s, want 9.0/Bad", scored[1].Score, scored[1].Grade)
	}
	if scored[0].URL != best.URL {
		t.Fatalf("output order should follow input order")
	}
}

func TestEngineMissingNumericsContributeZero(t *testing.T) {
	cars := []*models.CarListing{
		{URL: "a", Make: "Kia", Model: "Ceed", Warranty: "No"},
	}
	scored := New(config.DefaultProfile()).Score(cars)

	// Only power survives: a single-value range normalizes to 1 and the
	// power weight is 1.
	if scored[0].Score != 1 {
		t.Fatalf("score = %v, want 1", scored[0].Score)
	}
}

func TestEngineFavorites(t *testing.T) {
	engine := New(config.DefaultProfile())
	tests := []struct {
		brand, model string
		want         bool
	}{
		{"Skoda", "Octavia", true},
		{"SKODA", "octavia", true},
		{"Skoda", "Fabia", false},
		{"Audi", "A6", true},
		{"Porsche", "Cayenne", true},
		{"Toyota", "Corolla", false},
		{"Fiat", "x", false},
	}
	for _, tt := range tests {
		if got := engine.favorite(tt.brand, tt.model); got != tt.want {
			t.Errorf("favorite(%q, %q) = %v, want %v", tt.brand, tt.model, got, tt.want)
		}
	}
}

func TestEngineEmissionTokens(t *testing.T) {
	engine := New(config.DefaultProfile())
	base := func(class string) *models.CarListing {
		return &models.CarListing{URL: "u", Make: "Kia", Model: "Ceed", EmissionClass: class, Warranty: "No"}
	}
	var r Ranges

	six := engine.ScoreCar(base("Euro 6d-TEMP"), r)
	five := engine.ScoreCar(base("Euro 5"), r)
	four := engine.ScoreCar(base("Euro 4"), r)

	if Round(six-four) != 3 {
		t.Fatalf("top token bonus = %v, want 3", six-four)
	}
	if Round(five-four) != 2.4 {
		t.Fatalf("next token bonus = %v, want 2.4", five-four)
	}
}

func TestRound(t *testing.T) {
	for in, want := range map[float64]float64{
		8.9999999: 9.0,
		28.94:     28.9,
		-0.04:     0,
	} {
		if got := Round(in); got != want {
			t.Errorf("Round(%v) = %v, want %v", in, got, want)
		}
	}
}
