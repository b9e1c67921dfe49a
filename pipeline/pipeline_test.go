package pipeline

import (
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/aluiziolira/go-scrape-cars/config"
	"github.com/aluiziolira/go-scrape-cars/models"
)

type mockWriter struct {
	mu       sync.Mutex
	batches  [][]*models.CarListing
	closed   bool
	writeErr error
}

func (mw *mockWriter) Write(cars []*models.CarListing) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	if mw.writeErr != nil {
		return mw.writeErr
	}
	copyBatch := make([]*models.CarListing, len(cars))
	copy(copyBatch, cars)
	mw.batches = append(mw.batches, copyBatch)
	return nil
}

func (mw *mockWriter) Close() error {
	mw.mu.Lock()
	mw.closed = true
	mw.mu.Unlock()
	return nil
}

func (mw *mockWriter) Validate() error {
	return nil
}

func (mw *mockWriter) totalWritten() int {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	total := 0
	for _, batch := range mw.batches {
		total += len(batch)
	}
	return total
}

func (mw *mockWriter) batchSizes() []int {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	sizes := make([]int, 0, len(mw.batches))
	for _, batch := range mw.batches {
		sizes = append(sizes, len(batch))
	}
	return sizes
}

func newTestPipeline(t *testing.T, writer OutputWriter) *Pipeline {
	t.Helper()
	return NewPipeline(writer)
}

func testCar(i int) *models.CarListing {
	return &models.CarListing{
		URL:   "http://example.test/offers/" + strconv.Itoa(i),
		Make:  "Skoda",
		Model: "Octavia",
		Price: models.IntPtr(15000 + i),
	}
}

func TestPipelineProcessValidationAndDedup(t *testing.T) {
	writer := &mockWriter{}
	p := newTestPipeline(t, writer)

	first := testCar(1)
	invalid := &models.CarListing{URL: "http://example.test/offers/2", Make: "Skoda"}
	duplicate := testCar(1)
	duplicate.Price = models.IntPtr(1)

	if err := p.Process(first, invalid, duplicate); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if got := writer.totalWritten(); got != 1 {
		t.Fatalf("written cars = %d, want 1", got)
	}
	cars := p.Cars()
	if len(cars) != 1 || *cars[0].Price != 15001 {
		t.Fatalf("later duplicate should be dropped, not merged: %+v", cars)
	}

	metrics := p.GetMetrics()
	validation, ok := metrics["validation_errors"].(map[string]int)
	if !ok {
		t.Fatalf("expected validation errors map")
	}
	if validation["invalid_record"] == 0 {
		t.Fatalf("expected invalid_record validation error")
	}
	if validation["duplicate_url"] == 0 {
		t.Fatalf("expected duplicate_url validation error")
	}
}

func TestPipelinePreservesCrawlOrder(t *testing.T) {
	p := newTestPipeline(t, &mockWriter{})
	for i := 0; i < 10; i++ {
		if err := p.Process(testCar(i)); err != nil {
			t.Fatalf("process: %v", err)
		}
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	for i, car := range p.Cars() {
		if want := testCar(i).URL; car.URL != want {
			t.Fatalf("cars[%d].URL = %s, want %s", i, car.URL, want)
		}
	}
}

func TestPipelineBatchFlushThreshold(t *testing.T) {
	writer := &mockWriter{}
	p := newTestPipeline(t, writer)

	for i := 0; i < 65; i++ {
		if err := p.Process(testCar(i)); err != nil {
			t.Fatalf("process: %v", err)
		}
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	sizes := writer.batchSizes()
	if len(sizes) != 2 {
		t.Fatalf("batch writes = %d, want 2", len(sizes))
	}
	if sizes[0] != 64 || sizes[1] != 1 {
		t.Fatalf("batch sizes = %v, want [64 1]", sizes)
	}
}

func TestPipelineProcessAfterClose(t *testing.T) {
	p := newTestPipeline(t, &mockWriter{})
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := p.Process(testCar(1)); !errors.Is(err, ErrPipelineClosed) {
		t.Fatalf("expected ErrPipelineClosed, got %v", err)
	}
}

func TestPipelineWriteErrorSurfaces(t *testing.T) {
	writer := &mockWriter{writeErr: errors.New("disk full")}
	p := newTestPipeline(t, writer)
	if err := p.Process(testCar(1)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Close(); err == nil {
		t.Fatalf("expected write error on close")
	}
	if err := p.Process(testCar(2)); err == nil {
		t.Fatalf("expected sticky error after failed write")
	}
}

func TestPipelineDedupeHasNoSizeLimit(t *testing.T) {
	writer := &mockWriter{}
	p := newTestPipeline(t, writer)

	const n = 5000
	for i := 0; i < n; i++ {
		if err := p.Process(testCar(i)); err != nil {
			t.Fatalf("process: %v", err)
		}
	}
	for i := 0; i < n; i++ {
		if err := p.Process(testCar(i)); err != nil {
			t.Fatalf("process duplicate: %v", err)
		}
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if got := len(p.Cars()); got != n {
		t.Fatalf("cars=%d, want %d", got, n)
	}
	if got := writer.totalWritten(); got != n {
		t.Fatalf("written=%d, want %d", got, n)
	}
}

func TestFilterExcluded(t *testing.T) {
	ex := config.Exclusions{Models: map[string][]string{"opel": {"corsa"}}}
	cars := []*models.CarListing{
		{URL: "http://example.test/offers/1", Make: "Opel", Model: "Corsa"},
		{URL: "http://example.test/offers/2", Make: "Opel", Model: "Insignia"},
		{URL: "http://example.test/offers/3", Make: "Skoda", Model: "Corsa"},
	}

	got := FilterExcluded(cars, ex)
	if len(got) != 2 || got[0].Model != "Insignia" || got[1].Make != "Skoda" {
		t.Fatalf("filtered = %+v", got)
	}
	if cars[0].Model != "Corsa" {
		t.Fatalf("input slice was modified")
	}
}
