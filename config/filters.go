package config

import "strings"

// SortMode selects the ordering requested from the search interface.
type SortMode string

const (
	SortStandard SortMode = "standard"
	SortPrice    SortMode = "price"
	SortAge      SortMode = "age"
)

// Valid reports whether m is a known sort mode.
func (m SortMode) Valid() bool {
	switch m {
	case SortStandard, SortPrice, SortAge:
		return true
	default:
		return false
	}
}

// SearchFilters is the filter parameter set sent with every page request.
// Brands are names; they are resolved to opaque IDs when the URL is built.
type SearchFilters struct {
	BodyTypes       []string `json:"body"`
	CustomerType    string   `json:"custtype"`
	Country         string   `json:"country"`
	EmissionClass   string   `json:"emclass"`
	EmissionSticker string   `json:"ensticker"`
	Equipment       []string `json:"eq"`
	MinYear         string   `json:"min_year"`
	MaxMileage      string   `json:"kmto"`
	MinPower        string   `json:"min_power"`
	MaxPrice        string   `json:"max_price"`
	MinSeats        string   `json:"min_seats"`
	FuelTypes       []string `json:"fuel"`
	Brands          []string `json:"brands"`
}

// DefaultFilters mirrors the dealer search the project was tuned against.
func DefaultFilters() SearchFilters {
	return SearchFilters{
		BodyTypes:       []string{"2", "3", "4", "5", "6"},
		CustomerType:    "D",
		Country:         "D",
		EmissionClass:   "5",
		EmissionSticker: "4",
		Equipment:       []string{"37"},
		MinYear:         "2020",
		MaxMileage:      "100000",
		MinPower:        "74",
		MaxPrice:        "20000",
		MinSeats:        "4",
		FuelTypes:       []string{"2", "3", "B", "D"},
		Brands: []string{
			"Volkswagen", "Mazda", "MG", "Tesla", "Land Rover", "Peugeot", "Fiat",
			"Citroen", "Chevrolet", "SEAT", "Daihatsu", "Porsche", "Jaguar", "Dacia",
			"Opel", "Volvo", "Ford", "Alfa Romeo", "Lotus", "Jeep", "Suzuki",
			"Hyundai", "Maserati", "Toyota", "BMW", "Renault", "Nissan", "Skoda",
			"MINI", "Kia", "Audi", "CUPRA", "Subaru", "Lancia", "Polestar",
			"Mercedes-Benz", "Mitsubishi", "Lexus",
		},
	}
}

// Exclusions maps a make to the model names that are never fetched.
type Exclusions struct {
	Models        map[string][]string
	CaseSensitive bool
}

// DefaultExclusions returns the built-in exclusion map (case-insensitive).
func DefaultExclusions() Exclusions {
	return Exclusions{
		Models: map[string][]string{
			"volkswagen": {"caddy", "taigo"},
			"opel":       {"astra", "corsa", "grandland x", "grandland", "crossland x", "crossland", "mokka"},
			"ford":       {"puma", "fiesta"},
			"skoda":      {"scala", "fabia"},
			"hyundai":    {"kona", "i20", "nexo"},
			"toyota":     {"c-hr"},
			"bmw":        {"118"},
			"peugeot":    {"208", "308"},
			"nissan":     {"micra", "juke"},
			"renault":    {"zoe", "clio"},
			"citroen":    {"c3"},
			"kia":        {"rio", "niro"},
			"dacia":      {"logan", "sandero"},
			"seat":       {"ibiza"},
		},
	}
}

// Excluded reports whether (brand, model) is listed. A make match alone is
// not enough.
func (e Exclusions) Excluded(brand, model string) bool {
	for listedMake, models := range e.Models {
		if !e.equal(listedMake, brand) {
			continue
		}
		for _, m := range models {
			if e.equal(m, model) {
				return true
			}
		}
	}
	return false
}

func (e Exclusions) equal(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if e.CaseSensitive {
		return a == b
	}
	return strings.EqualFold(a, b)
}
