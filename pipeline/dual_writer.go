package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aluiziolira/go-scrape-cars/models"
)

type namedWriter struct {
	name string
	w    OutputWriter
}

// DualWriter fans every batch out to several writers. A write stops at the
// first failing sink; Close and Validate visit all of them.
type DualWriter struct {
	mu    sync.Mutex
	sinks []namedWriter
}

// NewDualWriter writes the same listings to a CSV file and a JSONL file.
func NewDualWriter(csvFilename, jsonFilename string) (*DualWriter, error) {
	csvWriter, err := NewCSVWriter(csvFilename)
	if err != nil {
		return nil, fmt.Errorf("csv sink: %w", err)
	}
	jsonWriter, err := NewJSONWriter(jsonFilename)
	if err != nil {
		csvWriter.Close()
		return nil, fmt.Errorf("jsonl sink: %w", err)
	}

	return &DualWriter{sinks: []namedWriter{
		{name: "csv", w: csvWriter},
		{name: "jsonl", w: jsonWriter},
	}}, nil
}

func (dw *DualWriter) Write(cars []*models.CarListing) error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	for _, s := range dw.sinks {
		if err := s.w.Write(cars); err != nil {
			return fmt.Errorf("%s write: %w", s.name, err)
		}
	}
	return nil
}

func (dw *DualWriter) Close() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	return dw.each("close", OutputWriter.Close)
}

func (dw *DualWriter) Validate() error {
	return dw.each("validate", OutputWriter.Validate)
}

func (dw *DualWriter) each(op string, fn func(OutputWriter) error) error {
	var errs []error
	for _, s := range dw.sinks {
		if err := fn(s.w); err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", s.name, op, err))
		}
	}
	return errors.Join(errs...)
}
