package scraper

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-scrape-cars/models"
	"github.com/aluiziolira/go-scrape-cars/parser"
)

const listingSelector = "article[data-guid]"

var errMissingElement = errors.New("missing expected element")

// ExtractListings parses one search-results page. Excluded (make, model)
// pairs are dropped before their detail page is requested; a listing that
// fails to parse or whose detail fetch fails is skipped on its own.
func (s *Scraper) ExtractListings(body []byte) []*models.CarListing {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		slog.Error("parse results page", slog.Any("error", err))
		return nil
	}

	blocks := doc.Find(listingSelector)
	if blocks.Length() == 0 {
		slog.Warn("no listings found on page")
		return nil
	}

	cars := make([]*models.CarListing, 0, blocks.Length())
	blocks.Each(func(i int, sel *goquery.Selection) {
		car, err := s.parseSummary(sel)
		if err != nil {
			reason := "missing_field"
			var parseErr parser.ParseError
			if errors.As(err, &parseErr) {
				reason = "parse_error"
			}
			slog.Warn("skipping listing",
				slog.Int("index", i),
				slog.String("reason", reason),
				slog.Any("error", err),
			)
			s.skip(reason)
			return
		}

		if s.cfg.Exclusions.Excluded(car.Make, car.Model) {
			slog.Debug("excluded listing",
				slog.String("make", car.Make),
				slog.String("model", car.Model),
			)
			s.skip("excluded")
			return
		}

		details, err := s.FetchDetails(car.URL)
		if err != nil {
			slog.Warn("skipping listing, detail fetch failed",
				slog.String("url", car.URL),
				slog.String("kind", string(KindOf(err))),
				slog.Any("error", err),
			)
			s.skip("detail_error")
			return
		}

		parser.ApplyDetails(car, details)
		car.ScrapedAt = s.now()
		cars = append(cars, car)
	})
	return cars
}

func (s *Scraper) parseSummary(sel *goquery.Selection) (*models.CarListing, error) {
	href, ok := sel.Find("a[href]").First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return nil, fmt.Errorf("listing link: %w", errMissingElement)
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, fmt.Errorf("listing link %q: %w", href, err)
	}

	car := &models.CarListing{
		URL:   s.origin.ResolveReference(ref).String(),
		Make:  strings.TrimSpace(sel.AttrOr("data-make", "")),
		Model: strings.TrimSpace(sel.AttrOr("data-model", "")),
	}
	if car.Make == "" {
		return nil, fmt.Errorf("listing make: %w", errMissingElement)
	}
	if car.Model == "" {
		return nil, fmt.Errorf("listing model: %w", errMissingElement)
	}

	if raw := strings.TrimSpace(sel.AttrOr("data-price", "")); raw != "" {
		price, err := parser.ParseStrictInt("price", raw)
		if err != nil {
			return nil, err
		}
		car.Price = &price
	}
	if raw := strings.TrimSpace(sel.AttrOr("data-mileage", "")); raw != "" {
		mileage, err := parser.ParseStrictInt("mileage", raw)
		if err != nil {
			return nil, err
		}
		car.Mileage = &mileage
	}
	if raw := strings.TrimSpace(sel.AttrOr("data-first-registration", "")); raw != "" {
		year, err := parser.ParseStrictYear(raw)
		if err != nil {
			return nil, err
		}
		car.Year = &year
	}
	return car, nil
}
