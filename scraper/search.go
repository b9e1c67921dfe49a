package scraper

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-scrape-cars/config"
)

// BrandResolver maps a make name to the opaque ID the search interface
// expects.
type BrandResolver interface {
	ResolveID(name string) (string, bool)
}

// ResolveBrands resolves every configured brand, skipping unknown names.
func ResolveBrands(resolver BrandResolver, names []string) []string {
	if resolver == nil || len(names) == 0 {
		return nil
	}
	ids := make([]string, 0, len(names))
	for _, name := range names {
		id, ok := resolver.ResolveID(name)
		if !ok {
			slog.Warn("unknown brand skipped", slog.String("brand", name))
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// BuildSearchURL renders the request URL for one result page. The query is
// encoded with sorted keys so the same inputs always give the same URL.
func BuildSearchURL(base string, f config.SearchFilters, brandIDs []string, page int, sort config.SortMode) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if page < 1 {
		return "", fmt.Errorf("page must be positive, got %d", page)
	}
	if !sort.Valid() {
		return "", fmt.Errorf("unknown sort mode %q", sort)
	}

	q := u.Query()
	set := func(key, value string) {
		if value != "" {
			q.Set(key, value)
		}
	}
	setList := func(key string, values []string) {
		if len(values) > 0 {
			q.Set(key, strings.Join(values, ","))
		}
	}

	q.Set("atype", "C")
	setList("body", f.BodyTypes)
	set("custtype", f.CustomerType)
	set("cy", f.Country)
	set("emclass", f.EmissionClass)
	set("ensticker", f.EmissionSticker)
	setList("eq", f.Equipment)
	set("fregfrom", f.MinYear)
	set("kmto", f.MaxMileage)
	set("powerfrom", f.MinPower)
	if f.MinPower != "" {
		q.Set("powertype", "kw")
	}
	set("priceto", f.MaxPrice)
	set("seatsfrom", f.MinSeats)
	setList("fuel", f.FuelTypes)

	if len(brandIDs) > 0 {
		entries := make([]string, len(brandIDs))
		for i, id := range brandIDs {
			entries[i] = id + "|||"
		}
		q.Set("mmmv", strings.Join(entries, ","))
	}

	q.Set("page", strconv.Itoa(page))
	q.Set("sort", string(sort))
	if sort == config.SortAge {
		q.Set("desc", "1")
	} else {
		q.Set("desc", "0")
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}
