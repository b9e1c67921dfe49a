// Package parser coerces raw extracted text into typed listing fields.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-scrape-cars/models"
)

// ParseError reports a token that could not be read as the expected type.
type ParseError struct {
	Field string
	Value string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("parse %s: malformed value %q", e.Field, e.Value)
}

var (
	// Thousand separators used by the source locales.
	separatorReplacer = strings.NewReplacer(",", "", ".", "", "'", "", " ", "", " ", "")
	// An optional currency prefix, one digit run, then any unit suffix.
	numberRegexp = regexp.MustCompile(`^[€$£\s]*(\d+)\s*[^\d]*$`)
)

// ValidateCar ensures the extractor captured the identifying fields.
func ValidateCar(c *models.CarListing) error {
	if c == nil {
		return fmt.Errorf("car is nil")
	}
	if strings.TrimSpace(c.URL) == "" {
		return fmt.Errorf("car missing url")
	}
	if strings.TrimSpace(c.Make) == "" {
		return fmt.Errorf("car missing make for %s", c.URL)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("car missing model for %s", c.URL)
	}
	return nil
}

// ParseStrictInt strips thousand separators and unit suffixes and parses the
// remaining digits. Empty input and anything else that is not a single
// number yields a ParseError.
func ParseStrictInt(field, raw string) (int, error) {
	cleaned := separatorReplacer.Replace(strings.TrimSpace(raw))
	match := numberRegexp.FindStringSubmatch(cleaned)
	if match == nil {
		return 0, ParseError{Field: field, Value: raw}
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, ParseError{Field: field, Value: raw}
	}
	return n, nil
}

// ParseInt is the lenient form of ParseStrictInt: unparsable input is nil.
func ParseInt(raw string) *int {
	n, err := ParseStrictInt("", raw)
	if err != nil {
		return nil
	}
	return &n
}

// ParseStrictYear reads a first-registration token such as "01-2020",
// "08/2004" or "2020".
func ParseStrictYear(raw string) (int, error) {
	token := strings.TrimSpace(raw)
	if i := strings.LastIndexAny(token, "-/"); i >= 0 {
		token = token[i+1:]
	}
	year, err := strconv.Atoi(token)
	if err != nil || len(token) != 4 {
		return 0, ParseError{Field: "year", Value: raw}
	}
	return year, nil
}

// ParseYear is the lenient form of ParseStrictYear.
func ParseYear(raw string) *int {
	year, err := ParseStrictYear(raw)
	if err != nil {
		return nil
	}
	return &year
}

// ParsePower returns the leading integer of a power text such as
// "85 kW (116 hp)". A non-numeric leading token yields 0, not nil.
func ParsePower(raw string) int {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return 0
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ParseBool matches the truthy vocabulary case-insensitively.
func ParseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "1":
		return true
	default:
		return false
	}
}

// FormatInt renders an optional integer, empty for nil.
func FormatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// ApplyDetails coerces detail-page text onto c.
func ApplyDetails(c *models.CarListing, d *models.CarDetails) {
	if c == nil || d == nil {
		return
	}
	c.BodyType = d.BodyType
	c.CarType = d.CarType
	c.Seats = ParseInt(d.Seats)
	c.Doors = ParseInt(d.Doors)
	c.CountryVersion = d.CountryVersion
	c.OfferNumber = d.OfferNumber
	c.Warranty = d.Warranty

	c.VehicleMileage = ParseInt(d.VehicleMileage)
	c.FirstRegistration = d.FirstRegistration
	c.GeneralInspection = d.GeneralInspection
	c.PreviousOwner = ParseInt(d.PreviousOwner)
	c.FullServiceHistory = d.FullServiceHistory
	c.NonSmokerVehicle = d.NonSmokerVehicle

	c.Power = d.Power
	c.Gearbox = d.Gearbox
	c.EngineSize = d.EngineSize

	c.EmissionClass = d.EmissionClass
	c.EmissionSticker = d.EmissionSticker
	c.FuelType = d.FuelType

	c.AndroidAuto = d.AndroidAuto
	c.CarPlay = d.CarPlay
	c.CruiseControl = d.CruiseControl
	c.AdaptiveCruiseControl = d.AdaptiveCruiseControl
	c.SeatHeating = d.SeatHeating

	c.ImageURL = d.ImageURL
}

// Denies reports whether a free-text attribute explicitly says "no",
// e.g. "No" or "no warranty".
func Denies(text string) bool {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return r < 'a' || r > 'z'
	})
	for _, w := range words {
		if w == "no" {
			return true
		}
	}
	return false
}
