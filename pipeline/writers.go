package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aluiziolira/go-scrape-cars/models"
)

// batchFile is written under a temporary name next to path and renamed into
// place on Close, so readers never see a half-written batch.
type batchFile struct {
	path string
	tmp  *os.File
	done bool
}

func createBatchFile(path string) (*batchFile, error) {
	if err := EnsureDir(path); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return &batchFile{path: path, tmp: tmp}, nil
}

func (b *batchFile) commit() error {
	if b.done {
		return nil
	}
	b.done = true
	if err := b.tmp.Close(); err != nil {
		os.Remove(b.tmp.Name())
		return fmt.Errorf("close %s: %w", b.path, err)
	}
	if err := os.Rename(b.tmp.Name(), b.path); err != nil {
		os.Remove(b.tmp.Name())
		return fmt.Errorf("publish %s: %w", b.path, err)
	}
	return nil
}

func (b *batchFile) discard() {
	b.done = true
	b.tmp.Close()
	os.Remove(b.tmp.Name())
}

func (b *batchFile) size() (int64, error) {
	var (
		info os.FileInfo
		err  error
	)
	if b.done {
		info, err = os.Stat(b.path)
	} else {
		info, err = b.tmp.Stat()
	}
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// CSVWriter writes listings to a header-bearing batch file.
type CSVWriter struct {
	mu     sync.Mutex
	file   *batchFile
	writer *csv.Writer
}

// NewCSVWriter opens the batch and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	file, err := createBatchFile(filename)
	if err != nil {
		return nil, err
	}

	writer := csv.NewWriter(file.tmp)
	if err := writer.Write(CarHeader()); err != nil {
		file.discard()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		file.discard()
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	return &CSVWriter{file: file, writer: writer}, nil
}

func (cw *CSVWriter) Write(cars []*models.CarListing) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	for _, car := range cars {
		if err := cw.writer.Write(CarRecord(car)); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	return cw.writer.Error()
}

// Close flushes the batch and moves it to its final name.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.file.done {
		return nil
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		cw.file.discard()
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.commit()
}

// Validate ensures the batch has at least its header.
func (cw *CSVWriter) Validate() error {
	n, err := cw.file.size()
	if err != nil {
		return fmt.Errorf("stat csv batch: %w", err)
	}
	if n == 0 {
		return errors.New("csv batch is empty")
	}
	return nil
}

// JSONWriter writes one JSON object per line.
type JSONWriter struct {
	mu      sync.Mutex
	file    *batchFile
	buf     *bufio.Writer
	encoder *json.Encoder
}

func NewJSONWriter(filename string) (*JSONWriter, error) {
	file, err := createBatchFile(filename)
	if err != nil {
		return nil, err
	}
	buf := bufio.NewWriter(file.tmp)
	return &JSONWriter{file: file, buf: buf, encoder: json.NewEncoder(buf)}, nil
}

func (jw *JSONWriter) Write(cars []*models.CarListing) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	for _, car := range cars {
		if err := jw.encoder.Encode(car); err != nil {
			return fmt.Errorf("encode json record: %w", err)
		}
	}
	return jw.buf.Flush()
}

func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if jw.file.done {
		return nil
	}
	if err := jw.buf.Flush(); err != nil {
		jw.file.discard()
		return fmt.Errorf("flush json writer: %w", err)
	}
	return jw.file.commit()
}

// Validate checks the batch is reachable. An empty JSONL file is a valid
// zero-listing batch.
func (jw *JSONWriter) Validate() error {
	if _, err := jw.file.size(); err != nil {
		return fmt.Errorf("stat json batch: %w", err)
	}
	return nil
}

// EnsureDir creates the parent directory of filename.
func EnsureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}

// BatchFileName is the batch file written for one sort mode.
func BatchFileName(sort string) string {
	return "filtered_cars_" + sort + ".csv"
}

// NewOutputWriter opens a writer for format at filename. JSON output swaps
// the .csv suffix for .jsonl.
func NewOutputWriter(format, filename string) (OutputWriter, error) {
	jsonFilename := strings.TrimSuffix(filename, ".csv") + ".jsonl"
	switch format {
	case "json":
		return NewJSONWriter(jsonFilename)
	case "csv":
		return NewCSVWriter(filename)
	case "dual":
		return NewDualWriter(filename, jsonFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
