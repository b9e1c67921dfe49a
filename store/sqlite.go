package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/aluiziolira/go-scrape-cars/models"
	"github.com/aluiziolira/go-scrape-cars/pipeline"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// SQLiteStore keeps the table in a SQLite database. Each save rewrites the
// table inside one transaction.
type SQLiteStore struct {
	path    string
	maxRows int
}

// NewSQLiteStore returns a store backed by the database file at path.
func NewSQLiteStore(path string, maxRows int) *SQLiteStore {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &SQLiteStore{path: path, maxRows: maxRows}
}

func (s *SQLiteStore) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

// Save merges top into the table.
func (s *SQLiteStore) Save(top []models.ScoredCar) error {
	return s.SaveContext(context.Background(), top)
}

// SaveContext is Save with a caller context.
func (s *SQLiteStore) SaveContext(ctx context.Context, top []models.ScoredCar) error {
	if err := pipeline.EnsureDir(s.path); err != nil {
		return err
	}
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	existing, err := selectAll(ctx, tx)
	if err != nil {
		return err
	}
	merged := Merge(existing, top, s.maxRows)

	if _, err := tx.ExecContext(ctx, "delete from best_cars"); err != nil {
		return fmt.Errorf("clear table: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		"insert into best_cars (url, make, model, score, grade, listing) values (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range merged {
		listing, err := json.Marshal(row.CarListing)
		if err != nil {
			return fmt.Errorf("encode %s: %w", row.URL, err)
		}
		if _, err := stmt.ExecContext(ctx, row.URL, row.Make, row.Model, row.Score, string(row.Grade), string(listing)); err != nil {
			return fmt.Errorf("insert %s: %w", row.URL, err)
		}
	}
	return tx.Commit()
}

// AllTimeBest returns the n best stored rows. A database that does not
// exist yet yields ErrStoreNotFound.
func (s *SQLiteStore) AllTimeBest(n int) ([]models.ScoredCar, error) {
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", s.path, ErrStoreNotFound)
		}
		return nil, fmt.Errorf("stat store: %w", err)
	}
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := selectAll(context.Background(), db)
	if err != nil {
		return nil, err
	}
	return allTimeBest(rows, n), nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func selectAll(ctx context.Context, q querier) ([]models.ScoredCar, error) {
	rows, err := q.QueryContext(ctx, "select score, grade, listing from best_cars order by score desc, rowid")
	if err != nil {
		return nil, fmt.Errorf("select rows: %w", err)
	}
	defer rows.Close()

	var out []models.ScoredCar
	for rows.Next() {
		var (
			row     models.ScoredCar
			grade   string
			listing string
		)
		if err := rows.Scan(&row.Score, &grade, &listing); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(listing), &row.CarListing); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		row.Grade = models.Grade(grade)
		out = append(out, row)
	}
	return out, rows.Err()
}
