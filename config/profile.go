package config

// Weights holds the per-factor weights of a scoring profile.
type Weights struct {
	Price            float64 `json:"price"`
	Mileage          float64 `json:"mileage"`
	FuelType         float64 `json:"fuel_type"`
	Features         float64 `json:"features"`
	AdaptiveCruise   float64 `json:"adaptive_cruise"`
	SeatHeating      float64 `json:"seat_heating"`
	Power            float64 `json:"power"`
	RegistrationYear float64 `json:"registration_year"`
	BodyType         float64 `json:"body_type"`
	Emissions        float64 `json:"emissions"`
	CoolnessFactor   float64 `json:"coolness_factor"`
	Warranty         float64 `json:"warranty"`
}

// FavoriteModel is a (make, model) pair earning the coolness bonus. A Model
// equal to FavoriteWildcard matches every model of the make.
type FavoriteModel struct {
	Make  string `json:"make"`
	Model string `json:"model"`
}

// FavoriteWildcard marks a favourite entry that matches any model.
const FavoriteWildcard = "x"

// ScoringProfile is a named weight, fuel table and favourites bundle.
type ScoringProfile struct {
	Weights            Weights            `json:"weights"`
	FuelScores         map[string]float64 `json:"fuel_scores"`
	FavoriteModels     []FavoriteModel    `json:"favorite_models"`
	FavorableBodyTypes []string           `json:"favorable_body_types"`
	EmissionTopToken   string             `json:"emission_top_token"`
	EmissionNextToken  string             `json:"emission_next_token"`
}

// DefaultProfile returns the "standard" profile.
func DefaultProfile() ScoringProfile {
	return ScoringProfile{
		Weights: Weights{
			Price:            4.5,
			Mileage:          3,
			FuelType:         3,
			Features:         3,
			AdaptiveCruise:   2,
			SeatHeating:      2,
			Power:            1,
			RegistrationYear: 3,
			BodyType:         2,
			Emissions:        3,
			CoolnessFactor:   2,
			Warranty:         3,
		},
		FuelScores: map[string]float64{
			"electric/diesel":    1.0,
			"electric/gasoline":  0.9,
			"diesel":             0.8,
			"gasoline":           0.7,
			"super 95":           0.7,
			"regular/benzine 91": 0.7,
		},
		FavoriteModels: []FavoriteModel{
			{"skoda", "superb"},
			{"skoda", "octavia"},
			{"skoda", "kamiq"},
			{"audi", FavoriteWildcard},
			{"seat", "ateca"},
			{"cupra", FavoriteWildcard},
			{"bmw", FavoriteWildcard},
			{"ford", "explorer"},
			{"jaguar", FavoriteWildcard},
			{"lexus", FavoriteWildcard},
			{"maserati", FavoriteWildcard},
			{"mazda", "6"},
			{"mercedes-benz", FavoriteWildcard},
			{"porsche", FavoriteWildcard},
			{"toyota", "rav 4"},
			{"toyota", "camry"},
			{"toyota", "prius"},
			{"toyota", "yaris cross"},
			{"volkswagen", "arteon"},
			{"volkswagen", "tiguan"},
			{"volkswagen", "golf gti"},
		},
		FavorableBodyTypes: []string{"station wagon", "off-road/pick-up", "sedan"},
		EmissionTopToken:   "6",
		EmissionNextToken:  "5",
	}
}
