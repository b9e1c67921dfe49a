package scraper

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-scrape-cars/models"
)

type fieldSetter func(d *models.CarDetails, value string)

type detailSection struct {
	selector string
	fields   map[string]fieldSetter
}

var detailSections = []detailSection{
	{
		selector: `section[data-cy="basic-details-section"]`,
		fields: map[string]fieldSetter{
			"Body type":       func(d *models.CarDetails, v string) { d.BodyType = v },
			"Type":            func(d *models.CarDetails, v string) { d.CarType = v },
			"Seats":           func(d *models.CarDetails, v string) { d.Seats = v },
			"Doors":           func(d *models.CarDetails, v string) { d.Doors = v },
			"Country version": func(d *models.CarDetails, v string) { d.CountryVersion = v },
			"Offer number":    func(d *models.CarDetails, v string) { d.OfferNumber = v },
			"Warranty":        func(d *models.CarDetails, v string) { d.Warranty = v },
		},
	},
	{
		selector: `section[data-cy="listing-history-section"]`,
		fields: map[string]fieldSetter{
			"Mileage":              func(d *models.CarDetails, v string) { d.VehicleMileage = v },
			"First registration":   func(d *models.CarDetails, v string) { d.FirstRegistration = v },
			"General inspection":   func(d *models.CarDetails, v string) { d.GeneralInspection = v },
			"Previous owner":       func(d *models.CarDetails, v string) { d.PreviousOwner = v },
			"Full service history": func(d *models.CarDetails, v string) { d.FullServiceHistory = v },
			"Non-smoker vehicle":   func(d *models.CarDetails, v string) { d.NonSmokerVehicle = v },
		},
	},
	{
		selector: `section[data-cy="technical-details-section"]`,
		fields: map[string]fieldSetter{
			"Power":       func(d *models.CarDetails, v string) { d.Power = v },
			"Gearbox":     func(d *models.CarDetails, v string) { d.Gearbox = v },
			"Engine size": func(d *models.CarDetails, v string) { d.EngineSize = v },
		},
	},
	{
		selector: `section[data-cy="environment-details-section"]`,
		fields: map[string]fieldSetter{
			"Emission class":    func(d *models.CarDetails, v string) { d.EmissionClass = v },
			"Emissions sticker": func(d *models.CarDetails, v string) { d.EmissionSticker = v },
			"Fuel type":         func(d *models.CarDetails, v string) { d.FuelType = v },
		},
	},
}

const equipmentSelector = `section[data-cy="equipment-section"] li`

// Labels are matched case-sensitively so "Cruise control" does not fire on
// "Adaptive Cruise Control".
var equipmentFlags = []struct {
	label string
	set   func(d *models.CarDetails)
}{
	{"Android Auto", func(d *models.CarDetails) { d.AndroidAuto = true }},
	{"Apple CarPlay", func(d *models.CarDetails) { d.CarPlay = true }},
	{"Cruise control", func(d *models.CarDetails) { d.CruiseControl = true }},
	{"Adaptive Cruise Control", func(d *models.CarDetails) { d.AdaptiveCruiseControl = true }},
	{"Seat heating", func(d *models.CarDetails) { d.SeatHeating = true }},
}

// ParseDetails reads the optional labelled sections of a detail page. A
// missing section leaves its fields empty.
func ParseDetails(body []byte) (*models.CarDetails, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse detail page: %w", err)
	}

	details := &models.CarDetails{}
	for _, section := range detailSections {
		doc.Find(section.selector).Find("dl dt").Each(func(_ int, dt *goquery.Selection) {
			set, ok := section.fields[collapseSpace(dt.Text())]
			if !ok {
				return
			}
			dd := dt.NextFiltered("dd")
			if dd.Length() == 0 {
				return
			}
			set(details, collapseSpace(dd.Text()))
		})
	}

	doc.Find(equipmentSelector).Each(func(_ int, li *goquery.Selection) {
		text := li.Text()
		for _, flag := range equipmentFlags {
			if strings.Contains(text, flag.label) {
				flag.set(details)
			}
		}
	})

	if srcset, ok := doc.Find(`picture source[type="image/jpeg"]`).First().Attr("srcset"); ok {
		details.ImageURL = firstSrcsetURL(srcset)
	}
	return details, nil
}

func firstSrcsetURL(srcset string) string {
	first, _, _ := strings.Cut(srcset, ",")
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
