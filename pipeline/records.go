package pipeline

import (
	"fmt"
	"strconv"
	"time"

	"github.com/aluiziolira/go-scrape-cars/models"
	"github.com/aluiziolira/go-scrape-cars/parser"
)

type column struct {
	name string
	get  func(c *models.CarListing) string
	set  func(c *models.CarListing, v string) error
}

func stringColumn(name string, field func(c *models.CarListing) *string) column {
	return column{
		name: name,
		get:  func(c *models.CarListing) string { return *field(c) },
		set:  func(c *models.CarListing, v string) error { *field(c) = v; return nil },
	}
}

func intColumn(name string, field func(c *models.CarListing) **int) column {
	return column{
		name: name,
		get:  func(c *models.CarListing) string { return parser.FormatInt(*field(c)) },
		set:  func(c *models.CarListing, v string) error { *field(c) = parser.ParseInt(v); return nil },
	}
}

func boolColumn(name string, field func(c *models.CarListing) *bool) column {
	return column{
		name: name,
		get:  func(c *models.CarListing) string { return strconv.FormatBool(*field(c)) },
		set:  func(c *models.CarListing, v string) error { *field(c) = parser.ParseBool(v); return nil },
	}
}

var carColumns = []column{
	stringColumn("url", func(c *models.CarListing) *string { return &c.URL }),
	stringColumn("make", func(c *models.CarListing) *string { return &c.Make }),
	stringColumn("model", func(c *models.CarListing) *string { return &c.Model }),
	intColumn("price", func(c *models.CarListing) **int { return &c.Price }),
	intColumn("mileage", func(c *models.CarListing) **int { return &c.Mileage }),
	{
		name: "year",
		get:  func(c *models.CarListing) string { return parser.FormatInt(c.Year) },
		set:  func(c *models.CarListing, v string) error { c.Year = parser.ParseYear(v); return nil },
	},
	stringColumn("body_type", func(c *models.CarListing) *string { return &c.BodyType }),
	stringColumn("car_type", func(c *models.CarListing) *string { return &c.CarType }),
	intColumn("seats", func(c *models.CarListing) **int { return &c.Seats }),
	intColumn("doors", func(c *models.CarListing) **int { return &c.Doors }),
	stringColumn("country_version", func(c *models.CarListing) *string { return &c.CountryVersion }),
	stringColumn("offer_number", func(c *models.CarListing) *string { return &c.OfferNumber }),
	stringColumn("warranty", func(c *models.CarListing) *string { return &c.Warranty }),
	intColumn("vehicle_mileage", func(c *models.CarListing) **int { return &c.VehicleMileage }),
	stringColumn("first_registration", func(c *models.CarListing) *string { return &c.FirstRegistration }),
	stringColumn("general_inspection", func(c *models.CarListing) *string { return &c.GeneralInspection }),
	intColumn("previous_owner", func(c *models.CarListing) **int { return &c.PreviousOwner }),
	stringColumn("full_service_history", func(c *models.CarListing) *string { return &c.FullServiceHistory }),
	stringColumn("non_smoker_vehicle", func(c *models.CarListing) *string { return &c.NonSmokerVehicle }),
	stringColumn("power", func(c *models.CarListing) *string { return &c.Power }),
	stringColumn("gearbox", func(c *models.CarListing) *string { return &c.Gearbox }),
	stringColumn("engine_size", func(c *models.CarListing) *string { return &c.EngineSize }),
	stringColumn("emission_class", func(c *models.CarListing) *string { return &c.EmissionClass }),
	stringColumn("emission_sticker", func(c *models.CarListing) *string { return &c.EmissionSticker }),
	stringColumn("fuel_type", func(c *models.CarListing) *string { return &c.FuelType }),
	boolColumn("android_auto", func(c *models.CarListing) *bool { return &c.AndroidAuto }),
	boolColumn("car_play", func(c *models.CarListing) *bool { return &c.CarPlay }),
	boolColumn("cruise_control", func(c *models.CarListing) *bool { return &c.CruiseControl }),
	boolColumn("adaptive_cruise_control", func(c *models.CarListing) *bool { return &c.AdaptiveCruiseControl }),
	boolColumn("seat_heating", func(c *models.CarListing) *bool { return &c.SeatHeating }),
	stringColumn("img_url", func(c *models.CarListing) *string { return &c.ImageURL }),
	{
		name: "scraped_at",
		get: func(c *models.CarListing) string {
			if c.ScrapedAt.IsZero() {
				return ""
			}
			return c.ScrapedAt.Format(time.RFC3339)
		},
		set: func(c *models.CarListing, v string) error {
			if v == "" {
				c.ScrapedAt = time.Time{}
				return nil
			}
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return parser.ParseError{Field: "scraped_at", Value: v}
			}
			c.ScrapedAt = t
			return nil
		},
	},
}

// RequiredColumns must be present in every batch file header.
var RequiredColumns = []string{"url", "make", "model", "price", "mileage", "year"}

// CarHeader returns the batch file header in column order.
func CarHeader() []string {
	header := make([]string, len(carColumns))
	for i, col := range carColumns {
		header[i] = col.name
	}
	return header
}

// CarRecord renders c as one batch file row matching CarHeader.
func CarRecord(c *models.CarListing) []string {
	record := make([]string, len(carColumns))
	for i, col := range carColumns {
		record[i] = col.get(c)
	}
	return record
}

// HeaderIndex maps column names to their position.
func HeaderIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	return index
}

// RequireColumns reports the first of names missing from index.
func RequireColumns(index map[string]int, names ...string) error {
	for _, name := range names {
		if _, ok := index[name]; !ok {
			return fmt.Errorf("missing required column %q", name)
		}
	}
	return nil
}

// ParseCarRecord reads one row. Columns absent from index leave their field
// unset; numeric and boolean cells go through the parser coercions.
func ParseCarRecord(index map[string]int, row []string) (*models.CarListing, error) {
	car := &models.CarListing{}
	for _, col := range carColumns {
		i, ok := index[col.name]
		if !ok || i >= len(row) {
			continue
		}
		if err := col.set(car, row[i]); err != nil {
			return nil, err
		}
	}
	return car, nil
}
