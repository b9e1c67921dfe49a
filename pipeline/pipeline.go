// Package pipeline assembles cleaned listings into a working batch and
// writes it to the batch file.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aluiziolira/go-scrape-cars/models"
	"github.com/aluiziolira/go-scrape-cars/parser"
)

var (
	// ErrPipelineClosed is returned when Process is called after shutdown.
	ErrPipelineClosed = errors.New("pipeline: closed")
)

const defaultBatchSize = 64

// OutputWriter defines the interface for batch output.
type OutputWriter interface {
	Write(cars []*models.CarListing) error
	Close() error
	Validate() error
}

// Pipeline validates and de-duplicates listings in arrival order, buffers
// them for the writer and keeps the clean batch for scoring.
type Pipeline struct {
	writer    OutputWriter
	batchSize int
	seen      map[string]struct{}

	mu      sync.Mutex
	pending []*models.CarListing
	cars    []*models.CarListing
	metrics metrics
	closed  bool
	err     error

	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewPipeline builds a pipeline writing to writer. Every URL is remembered
// for the life of the batch.
func NewPipeline(writer OutputWriter) *Pipeline {
	return &Pipeline{
		writer:    writer,
		batchSize: defaultBatchSize,
		seen:      make(map[string]struct{}),
		metrics:   newMetrics(),
		shutdown:  make(chan struct{}),
	}
}

// Process accepts listings in crawl order. A listing whose URL was already
// seen in this batch is dropped, never merged.
func (p *Pipeline) Process(cars ...*models.CarListing) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	if p.closed {
		return ErrPipelineClosed
	}

	for _, car := range cars {
		if car == nil {
			continue
		}
		if !p.prepare(car) {
			continue
		}
		p.pending = append(p.pending, car)
		p.cars = append(p.cars, car)
		if len(p.pending) >= p.batchSize {
			if err := p.flushLocked(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close flushes pending rows and prevents more submissions.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		p.closed = true
		p.signalShutdown()
		if p.err == nil {
			if err := p.flushLocked(); err != nil {
				return err
			}
		}
	}
	return p.err
}

// Cars returns the clean batch accumulated so far.
func (p *Pipeline) Cars() []*models.CarListing {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*models.CarListing, len(p.cars))
	copy(out, p.cars)
	return out
}

// Err returns the first write error encountered.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	return p.metrics.snapshot()
}

// StartMetricsReporting emits periodic progress logs until Close.
func (p *Pipeline) StartMetricsReporting(interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				metrics := p.GetMetrics()
				processed := metrics["processed_cars"].(int64)
				validation := metrics["validation_errors"].(map[string]int)
				slog.Info("pipeline progress",
					slog.Int64("processed", processed),
					slog.Int("validation_kinds", len(validation)),
				)
			case <-p.shutdown:
				return
			}
		}
	}()
}

func (p *Pipeline) prepare(car *models.CarListing) bool {
	if err := parser.ValidateCar(car); err != nil {
		p.metrics.addValidation("invalid_record")
		slog.Debug("dropping invalid listing", slog.Any("error", err))
		return false
	}

	if _, dup := p.seen[car.URL]; dup {
		p.metrics.addValidation("duplicate_url")
		return false
	}
	p.seen[car.URL] = struct{}{}

	p.metrics.incrementProcessed()
	return true
}

func (p *Pipeline) flushLocked() error {
	if len(p.pending) == 0 {
		return nil
	}
	if err := p.writer.Write(p.pending); err != nil {
		p.err = fmt.Errorf("write batch: %w", err)
		p.closed = true
		p.signalShutdown()
		return p.err
	}
	p.pending = nil
	return nil
}

func (p *Pipeline) signalShutdown() {
	p.shutdownOnce.Do(func() {
		close(p.shutdown)
	})
}

type metrics struct {
	mu         sync.Mutex
	processed  int64
	validation map[string]int
}

func newMetrics() metrics {
	return metrics{
		validation: make(map[string]int),
	}
}

func (m *metrics) incrementProcessed() {
	m.mu.Lock()
	m.processed++
	m.mu.Unlock()
}

func (m *metrics) addValidation(kind string) {
	m.mu.Lock()
	m.validation[kind]++
	m.mu.Unlock()
}

func (m *metrics) snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	copyValidation := make(map[string]int, len(m.validation))
	for k, v := range m.validation {
		copyValidation[k] = v
	}

	return map[string]interface{}{
		"processed_cars":    m.processed,
		"validation_errors": copyValidation,
	}
}
