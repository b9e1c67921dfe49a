// Package models defines data structures for the scraper.
package models

import "time"

// CarListing is one cleaned vehicle offer. URL is the identity; every other
// numeric field is optional and nil when the source did not provide a
// parsable value.
type CarListing struct {
	URL     string `json:"url"`
	Make    string `json:"make"`
	Model   string `json:"model"`
	Price   *int   `json:"price"`
	Mileage *int   `json:"mileage"`
	Year    *int   `json:"year"`

	BodyType       string `json:"body_type"`
	CarType        string `json:"car_type"`
	Seats          *int   `json:"seats"`
	Doors          *int   `json:"doors"`
	CountryVersion string `json:"country_version"`
	OfferNumber    string `json:"offer_number"`
	Warranty       string `json:"warranty"`

	VehicleMileage     *int   `json:"vehicle_mileage"`
	FirstRegistration  string `json:"first_registration"`
	GeneralInspection  string `json:"general_inspection"`
	PreviousOwner      *int   `json:"previous_owner"`
	FullServiceHistory string `json:"full_service_history"`
	NonSmokerVehicle   string `json:"non_smoker_vehicle"`

	Power      string `json:"power"`
	Gearbox    string `json:"gearbox"`
	EngineSize string `json:"engine_size"`

	EmissionClass   string `json:"emission_class"`
	EmissionSticker string `json:"emission_sticker"`
	FuelType        string `json:"fuel_type"`

	AndroidAuto           bool `json:"android_auto"`
	CarPlay               bool `json:"car_play"`
	CruiseControl         bool `json:"cruise_control"`
	AdaptiveCruiseControl bool `json:"adaptive_cruise_control"`
	SeatHeating           bool `json:"seat_heating"`

	ImageURL  string    `json:"img_url"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// CarDetails holds the raw text read from a listing's detail page before it
// is coerced onto a CarListing.
type CarDetails struct {
	BodyType       string
	CarType        string
	Seats          string
	Doors          string
	CountryVersion string
	OfferNumber    string
	Warranty       string

	VehicleMileage     string
	FirstRegistration  string
	GeneralInspection  string
	PreviousOwner      string
	FullServiceHistory string
	NonSmokerVehicle   string

	Power      string
	Gearbox    string
	EngineSize string

	EmissionClass   string
	EmissionSticker string
	FuelType        string

	AndroidAuto           bool
	CarPlay               bool
	CruiseControl         bool
	AdaptiveCruiseControl bool
	SeatHeating           bool

	ImageURL string
}

// Grade is the categorical bucket derived from a score.
type Grade string

const (
	GradeOutstanding Grade = "Outstanding"
	GradeExcellent   Grade = "Excellent"
	GradeGood        Grade = "Good"
	GradeDecent      Grade = "Decent"
	GradeNotGood     Grade = "Not Good"
	GradeBad         Grade = "Bad"
)

// ScoredCar is a listing annotated by a scoring run.
type ScoredCar struct {
	CarListing
	Score float64 `json:"score"`
	Grade Grade   `json:"grade"`
}

// ScraperResult holds the overall result of one crawl.
type ScraperResult struct {
	Sort          string
	StartTime     time.Time
	EndTime       time.Time
	PageCount     int
	FailedPages   int
	ListingCount  int
	SkippedCount  int
	RequestCount  int
	ErrorCount    int
	FailedURLs    []string
	ErrorsByType  map[string]int
	SkipsByReason map[string]int
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
