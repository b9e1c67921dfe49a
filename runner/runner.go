// Package runner orchestrates one acquisition run: crawl every sort mode,
// score the combined batch, keep the best and publish progress.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aluiziolira/go-scrape-cars/config"
	"github.com/aluiziolira/go-scrape-cars/models"
	"github.com/aluiziolira/go-scrape-cars/pipeline"
	"github.com/aluiziolira/go-scrape-cars/scoring"
	"github.com/aluiziolira/go-scrape-cars/scraper"
	"github.com/aluiziolira/go-scrape-cars/store"
)

// ErrAlreadyRunning is returned when a run is requested while one is active.
// The request has no other effect.
var ErrAlreadyRunning = errors.New("runner: run already in progress")

// Notifier receives the ranked result of a successful run.
type Notifier interface {
	Notify(ctx context.Context, top []models.ScoredCar) error
}

// Option configures a Runner.
type Option func(*Runner)

// WithBrands sets the brand ID lookup used for the search filter.
func WithBrands(b scraper.BrandResolver) Option {
	return func(r *Runner) { r.brands = b }
}

// WithNotifier hands every successful result to n.
func WithNotifier(n Notifier) Option {
	return func(r *Runner) { r.notifier = n }
}

// WithTransport routes scraper requests through rt.
func WithTransport(rt http.RoundTripper) Option {
	return func(r *Runner) { r.transport = rt }
}

// Runner owns the run state. Only one run may be active at a time.
type Runner struct {
	cfg       *config.Config
	store     store.Store
	brands    scraper.BrandResolver
	notifier  Notifier
	transport http.RoundTripper
	metrics   *scraper.Metrics
	now       func() time.Time

	mu    sync.Mutex
	state atomic.Pointer[Snapshot]
	wg    sync.WaitGroup
}

// New returns an idle runner. st may be nil to skip the Best-Of save.
func New(cfg *config.Config, st store.Store, opts ...Option) *Runner {
	r := &Runner{
		cfg:     cfg,
		store:   st,
		metrics: scraper.NewMetrics(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.state.Store(&Snapshot{Phase: PhaseIdle, Details: "idle"})
	return r
}

// Metrics returns the collectors shared by every scraper of this runner.
func (r *Runner) Metrics() *scraper.Metrics {
	return r.metrics
}

// Snapshot returns the current run state without blocking.
func (r *Runner) Snapshot() Snapshot {
	return *r.state.Load()
}

// Run executes one run synchronously.
func (r *Runner) Run(ctx context.Context) ([]models.ScoredCar, error) {
	if err := r.begin(); err != nil {
		return nil, err
	}
	top, err := r.execute(ctx)
	r.finish(top, err)
	return top, err
}

// Start executes one run in the background. Use Wait to block until it
// ends.
func (r *Runner) Start(ctx context.Context) error {
	if err := r.begin(); err != nil {
		return err
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		top, err := r.execute(ctx)
		r.finish(top, err)
	}()
	return nil
}

// Wait blocks until a background run started with Start has ended.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) begin() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Load().Phase == PhaseRunning {
		slog.Info("run request ignored, a run is already in progress")
		return ErrAlreadyRunning
	}
	// The previous result stays visible until this run completes.
	r.state.Store(&Snapshot{
		Phase:     PhaseRunning,
		Progress:  ProgressLoading,
		Details:   "loading configuration",
		StartedAt: r.now(),
		Results:   r.state.Load().Results,
	})
	return nil
}

func (r *Runner) update(progress int, details string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := *r.state.Load()
	next.Progress = progress
	next.Details = details
	r.state.Store(&next)
}

func (r *Runner) addScrape(result *models.ScraperResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := *r.state.Load()
	next.Scrapes = append(append([]*models.ScraperResult(nil), next.Scrapes...), result)
	r.state.Store(&next)
}

func (r *Runner) finish(top []models.ScoredCar, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := *r.state.Load()
	next.FinishedAt = r.now()
	if err != nil {
		next.Phase = PhaseFailed
		next.Details = "failed"
		next.Error = err.Error()
		slog.Error("run failed", slog.Any("error", err))
	} else {
		next.Phase = PhaseIdle
		next.Progress = ProgressComplete
		next.Details = "complete"
		next.Results = top
	}
	r.state.Store(&next)
}

func (r *Runner) execute(ctx context.Context) ([]models.ScoredCar, error) {
	profile, err := r.cfg.ActiveProfile()
	if err != nil {
		return nil, err
	}

	r.update(ProgressStarting, "starting scraper")
	total := len(r.cfg.SortModes) * r.cfg.Pages
	var cars []*models.CarListing
	seen := make(map[string]struct{})

	for i, sort := range r.cfg.SortModes {
		batch, err := r.scrape(ctx, sort, i*r.cfg.Pages, total)
		if err != nil {
			return nil, err
		}
		for _, car := range batch {
			if _, dup := seen[car.URL]; dup {
				continue
			}
			seen[car.URL] = struct{}{}
			cars = append(cars, car)
		}
	}

	r.update(ProgressExporting, fmt.Sprintf("exported %d listings", len(cars)))

	// Batch files from earlier runs or other sort modes join the scoring
	// batch; this run's copy of a url wins.
	stored, err := pipeline.LoadBatchDir(r.cfg.OutputDir)
	if err != nil && !errors.Is(err, pipeline.ErrNoBatchFiles) {
		return nil, fmt.Errorf("load batch dir: %w", err)
	}
	for _, car := range stored {
		if _, dup := seen[car.URL]; dup {
			continue
		}
		seen[car.URL] = struct{}{}
		cars = append(cars, car)
	}
	cars = pipeline.FilterExcluded(cars, r.cfg.Exclusions)

	r.update(ProgressAnalysing, fmt.Sprintf("analysing %d listings", len(cars)))

	scored := scoring.New(profile).Score(cars)
	top := scoring.Rank(scored, r.cfg.TopN)
	slog.Info("batch scored",
		slog.Int("listings", len(scored)),
		slog.Int("ranked", len(top)),
	)

	if r.store != nil && len(top) > 0 {
		if err := r.store.Save(top); err != nil {
			return nil, fmt.Errorf("save best-of table: %w", err)
		}
	}
	if r.notifier != nil && len(top) > 0 {
		if err := r.notifier.Notify(ctx, top); err != nil {
			slog.Warn("notification failed", slog.Any("error", err))
		}
	}
	return top, nil
}

// scrape crawls one sort mode into its batch file. offset is the number of
// pages already crawled by earlier sort modes of this run.
func (r *Runner) scrape(ctx context.Context, sort config.SortMode, offset, total int) ([]*models.CarListing, error) {
	path := filepath.Join(r.cfg.OutputDir, pipeline.BatchFileName(string(sort)))
	writer, err := pipeline.NewOutputWriter(r.cfg.OutputFormat, path)
	if err != nil {
		return nil, fmt.Errorf("create writer: %w", err)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			slog.Error("close writer", slog.Any("error", err))
		}
	}()

	p := pipeline.NewPipeline(writer)
	if r.cfg.Verbose {
		p.StartMetricsReporting(10 * time.Second)
	}

	s, err := scraper.NewScraper(r.cfg, r.brands)
	if err != nil {
		return nil, fmt.Errorf("initialise scraper: %w", err)
	}
	s.Metrics = r.metrics
	if r.transport != nil {
		s.WithTransport(r.transport)
	}

	slog.Info("scraping sort mode",
		slog.String("sort", string(sort)),
		slog.Int("pages", r.cfg.Pages),
	)
	result, runErr := s.Run(ctx, sort, p, func(page, pages int) {
		r.update(CrawlProgress(offset+page, total), fmt.Sprintf("scraping %s page %d/%d", sort, page, pages))
	})
	closeErr := p.Close()
	if result != nil {
		r.addScrape(result)
	}
	if runErr != nil {
		return nil, fmt.Errorf("scrape %s: %w", sort, runErr)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("flush %s batch: %w", sort, closeErr)
	}
	if err := writer.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s batch: %w", sort, err)
	}
	return p.Cars(), nil
}
