package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-scrape-cars/models"
	"github.com/aluiziolira/go-scrape-cars/parser"
	"github.com/aluiziolira/go-scrape-cars/pipeline"
	"github.com/aluiziolira/go-scrape-cars/scoring"
)

const (
	scoreColumn = "score"
	gradeColumn = "grade"
)

// CSVStore keeps the table in one header-bearing CSV file, rewritten in
// full on every save.
type CSVStore struct {
	path    string
	maxRows int
}

// NewCSVStore returns a store backed by path.
func NewCSVStore(path string, maxRows int) *CSVStore {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &CSVStore{path: path, maxRows: maxRows}
}

// Path returns the backing file.
func (s *CSVStore) Path() string {
	return s.path
}

// Save merges top into the table. A missing file starts an empty table and
// rows of a table without scores count as zero.
func (s *CSVStore) Save(top []models.ScoredCar) error {
	existing, _, err := s.read()
	if err != nil && !errors.Is(err, ErrStoreNotFound) {
		return err
	}

	merged := Merge(existing, top, s.maxRows)
	if err := s.write(merged); err != nil {
		return err
	}
	slog.Info("best-of table saved",
		slog.String("path", s.path),
		slog.Int("incoming", len(top)),
		slog.Int("rows", len(merged)),
	)
	return nil
}

// AllTimeBest reads the stored scores; it fails with ErrStoreNotFound before
// the first save and with a ConfigurationError when the score column is
// absent.
func (s *CSVStore) AllTimeBest(n int) ([]models.ScoredCar, error) {
	rows, hasScore, err := s.read()
	if err != nil {
		return nil, err
	}
	if !hasScore {
		return nil, &ConfigurationError{Path: s.path, Err: ErrMissingScoreColumn}
	}
	return allTimeBest(rows, n), nil
}

func (s *CSVStore) read() ([]models.ScoredCar, bool, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, fmt.Errorf("%s: %w", s.path, ErrStoreNotFound)
		}
		return nil, false, fmt.Errorf("open store: %w", err)
	}
	defer f.Close()

	rows, hasScore, err := ReadScored(f)
	if err != nil {
		return nil, false, fmt.Errorf("read store %s: %w", s.path, err)
	}
	return rows, hasScore, nil
}

// write replaces the file in one rename so readers never see a partial
// table.
func (s *CSVStore) write(rows []models.ScoredCar) error {
	if err := pipeline.EnsureDir(s.path); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".best-*.csv")
	if err != nil {
		return fmt.Errorf("create temp store: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteScored(tmp, rows); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp store: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}

// ScoredHeader is the batch header followed by the score and grade columns.
func ScoredHeader() []string {
	return append(pipeline.CarHeader(), scoreColumn, gradeColumn)
}

// WriteScored writes rows with ScoredHeader.
func WriteScored(w io.Writer, rows []models.ScoredCar) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(ScoredHeader()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range rows {
		record := append(pipeline.CarRecord(&rows[i].CarListing),
			strconv.FormatFloat(rows[i].Score, 'f', 1, 64),
			string(rows[i].Grade),
		)
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush rows: %w", err)
	}
	return nil
}

// ReadScored reads a scored table and reports whether it had a score
// column. Without one every score is zero. An empty grade is derived from
// the score.
func ReadScored(r io.Reader) ([]models.ScoredCar, bool, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read header: %w", err)
	}
	index := pipeline.HeaderIndex(header)
	if err := pipeline.RequireColumns(index, "url"); err != nil {
		return nil, false, err
	}
	scoreAt, hasScore := index[scoreColumn]
	gradeAt, hasGrade := index[gradeColumn]

	var rows []models.ScoredCar
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, false, fmt.Errorf("read row %d: %w", line, err)
		}
		car, err := pipeline.ParseCarRecord(index, record)
		if err != nil {
			return nil, false, fmt.Errorf("row %d: %w", line, err)
		}
		if strings.TrimSpace(car.URL) == "" {
			continue
		}

		row := models.ScoredCar{CarListing: *car}
		if hasScore && scoreAt < len(record) {
			row.Score, err = parseScore(record[scoreAt])
			if err != nil {
				return nil, false, fmt.Errorf("row %d: %w", line, err)
			}
		}
		if hasGrade && gradeAt < len(record) {
			row.Grade = models.Grade(record[gradeAt])
		}
		if row.Grade == "" {
			row.Grade = scoring.AssignGrade(row.Score)
		}
		rows = append(rows, row)
	}
	return rows, hasScore, nil
}

func parseScore(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, parser.ParseError{Field: scoreColumn, Value: raw}
	}
	return v, nil
}
