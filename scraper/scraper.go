package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/aluiziolira/go-scrape-cars/config"
	"github.com/aluiziolira/go-scrape-cars/models"
	"github.com/aluiziolira/go-scrape-cars/pipeline"
	"github.com/gocolly/colly/v2"
)

// ProgressFunc is called once after every page with the 1-based page index
// and the configured page count.
type ProgressFunc func(page, total int)

// Scraper crawls the paginated search interface one request at a time.
type Scraper struct {
	cfg       *config.Config
	collector *colly.Collector
	origin    *url.URL
	brands    BrandResolver
	Metrics   *Metrics

	sleep func(context.Context, time.Duration)
	now   func() time.Time

	requestCount  int
	errorCount    int
	failedURLs    []string
	errorsByType  map[string]int
	skipsByReason map[string]int
}

// NewScraper builds a synchronous scraper configured from cfg. brands may be
// nil, in which case no brand filter is sent.
func NewScraper(cfg *config.Config, brands BrandResolver) (*Scraper, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.AllowURLRevisit(),
		colly.UserAgent(cfg.UserAgent),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	collector.OnResponse(func(r *colly.Response) {
		r.Ctx.Put("body", r.Body)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.Ctx != nil {
			r.Ctx.Put("status", r.StatusCode)
		}
	})

	s := &Scraper{
		cfg:           cfg,
		collector:     collector,
		origin:        &url.URL{Scheme: parsed.Scheme, Host: parsed.Host},
		brands:        brands,
		Metrics:       NewMetrics(),
		sleep:         sleepContext,
		now:           time.Now,
		errorsByType:  make(map[string]int),
		skipsByReason: make(map[string]int),
	}
	return s, nil
}

// WithTransport replaces the HTTP transport used for every request.
func (s *Scraper) WithTransport(rt http.RoundTripper) {
	s.collector.WithTransport(rt)
}

// Run crawls pages 1..cfg.Pages in order for one sort mode and streams the
// extracted listings into p. A failed page is logged and counted as empty;
// only context cancellation or a closed pipeline stops the run.
func (s *Scraper) Run(ctx context.Context, sort config.SortMode, p *pipeline.Pipeline, progress ProgressFunc) (*models.ScraperResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	result := &models.ScraperResult{
		Sort:      string(sort),
		StartTime: s.now(),
	}
	brandIDs := ResolveBrands(s.brands, s.cfg.Filters.Brands)
	total := s.cfg.Pages

	for page := 1; page <= total; page++ {
		if err := ctx.Err(); err != nil {
			return s.finish(result), err
		}

		pageURL, err := BuildSearchURL(s.cfg.BaseURL, s.cfg.Filters, brandIDs, page, sort)
		if err != nil {
			return nil, fmt.Errorf("build search url: %w", err)
		}

		body, err := s.fetch(pageURL, "page")
		if err != nil {
			slog.Error("page fetch failed, treating page as empty",
				slog.Int("page", page),
				slog.String("url", pageURL),
				slog.Any("error", err),
			)
			result.FailedPages++
			s.Metrics.IncPage("failed")
		} else {
			cars := s.ExtractListings(body)
			result.ListingCount += len(cars)
			s.Metrics.IncPage("ok")
			s.Metrics.IncListings(len(cars))
			if err := p.Process(cars...); err != nil {
				if errors.Is(err, pipeline.ErrPipelineClosed) {
					return s.finish(result), err
				}
				return s.finish(result), fmt.Errorf("process page %d: %w", page, err)
			}
			slog.Debug("page processed",
				slog.Int("page", page),
				slog.Int("listings", len(cars)),
			)
		}
		result.PageCount++

		if progress != nil {
			progress(page, total)
		}
		s.sleep(ctx, s.pageDelay())
	}

	return s.finish(result), nil
}

// FetchDetails retrieves and parses one listing's detail page. Network
// failures are returned as *FetchError.
func (s *Scraper) FetchDetails(listingURL string) (*models.CarDetails, error) {
	body, err := s.fetch(listingURL, "detail")
	if err != nil {
		return nil, err
	}
	details, err := ParseDetails(body)
	if err != nil {
		return nil, fmt.Errorf("parse details %s: %w", listingURL, err)
	}
	return details, nil
}

func (s *Scraper) fetch(target, kind string) ([]byte, error) {
	ctx := colly.NewContext()
	start := s.now()
	s.requestCount++
	s.Metrics.IncRequest(kind)

	err := s.collector.Request(http.MethodGet, target, nil, ctx, nil)
	s.Metrics.ObserveDuration(time.Since(start))
	if err != nil {
		status, _ := ctx.GetAny("status").(int)
		kind := classifyError(err, status)

		s.errorCount++
		s.errorsByType[string(kind)]++
		s.failedURLs = append(s.failedURLs, target)
		s.Metrics.IncError(string(kind))
		return nil, &FetchError{URL: target, Status: status, Kind: kind, Err: err}
	}

	body, _ := ctx.GetAny("body").([]byte)
	return body, nil
}

func (s *Scraper) skip(reason string) {
	s.skipsByReason[reason]++
	s.Metrics.IncSkipped(reason)
}

func (s *Scraper) pageDelay() time.Duration {
	lo, hi := s.cfg.MinPageDelay, s.cfg.MaxPageDelay
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}

func (s *Scraper) finish(result *models.ScraperResult) *models.ScraperResult {
	result.EndTime = s.now()
	result.RequestCount = s.requestCount
	result.ErrorCount = s.errorCount
	result.FailedURLs = append([]string(nil), s.failedURLs...)
	result.ErrorsByType = copyCounts(s.errorsByType)
	result.SkipsByReason = copyCounts(s.skipsByReason)
	for _, n := range result.SkipsByReason {
		result.SkippedCount += n
	}
	return result
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
