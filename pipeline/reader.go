package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aluiziolira/go-scrape-cars/config"
	"github.com/aluiziolira/go-scrape-cars/models"
)

// ErrNoBatchFiles is returned when an input directory holds no batch files.
var ErrNoBatchFiles = errors.New("pipeline: no batch files found")

// ReadBatch reads a batch file from r. The header must carry the required
// columns; rows without a url are skipped.
func ReadBatch(r io.Reader) ([]*models.CarListing, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("batch file has no header")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := HeaderIndex(header)
	if err := RequireColumns(index, RequiredColumns...); err != nil {
		return nil, err
	}

	var cars []*models.CarListing
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		car, err := ParseCarRecord(index, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		if strings.TrimSpace(car.URL) == "" {
			slog.Warn("skipping batch row without url", slog.Int("line", line))
			continue
		}
		cars = append(cars, car)
	}
	return cars, nil
}

// ReadBatchFile reads one batch file from disk.
func ReadBatchFile(path string) ([]*models.CarListing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch file: %w", err)
	}
	defer f.Close()

	cars, err := ReadBatch(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cars, nil
}

// LoadBatchDir concatenates every *.csv batch file in dir (in name order)
// and drops later rows whose url was already seen.
func LoadBatchDir(dir string) ([]*models.CarListing, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("list batch files: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoBatchFiles)
	}
	sort.Strings(paths)

	seen := make(map[string]struct{})
	var out []*models.CarListing
	for _, path := range paths {
		cars, err := ReadBatchFile(path)
		if err != nil {
			return nil, err
		}
		for _, car := range cars {
			if _, dup := seen[car.URL]; dup {
				continue
			}
			seen[car.URL] = struct{}{}
			out = append(out, car)
		}
	}
	return out, nil
}

// FilterExcluded drops listings whose (make, model) is excluded. Batch
// files written before an exclusion was added still carry such rows.
func FilterExcluded(cars []*models.CarListing, ex config.Exclusions) []*models.CarListing {
	out := cars[:0:0]
	for _, car := range cars {
		if ex.Excluded(car.Make, car.Model) {
			continue
		}
		out = append(out, car)
	}
	return out
}

// WriteBatchFile writes cars to path as a complete CSV batch file.
func WriteBatchFile(path string, cars []*models.CarListing) error {
	w, err := NewCSVWriter(path)
	if err != nil {
		return err
	}
	if err := w.Write(cars); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
