// Package catalog maps make names to the IDs the search interface filters
// by, and refreshes that mapping from the upstream makes API.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aluiziolira/go-scrape-cars/pipeline"
	"github.com/antzucaro/matchr"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSimilarity is the lowest Jaro-Winkler score accepted when a name
// has no exact match.
const DefaultSimilarity = 0.92

// fuzzyCacheSize bounds the remembered nearest-name lookups.
const fuzzyCacheSize = 256

var catalogHeader = []string{"make_id", "make_name", "model_id", "model_name"}

type nearest struct {
	name  string
	score float64
}

// Catalog is a case-insensitive make name to make ID lookup. It is safe for
// concurrent lookups once loaded.
type Catalog struct {
	ids        map[string]string
	names      []string
	Similarity float64

	// nearest known name per unmatched key; the Similarity check runs on
	// every lookup so changing it needs no invalidation.
	fuzzy *lru.Cache[string, nearest]
}

// New builds a catalog from name to ID pairs.
func New(ids map[string]string) *Catalog {
	fuzzy, _ := lru.New[string, nearest](fuzzyCacheSize)
	c := &Catalog{ids: make(map[string]string, len(ids)), Similarity: DefaultSimilarity, fuzzy: fuzzy}
	for name, id := range ids {
		c.add(name, id)
	}
	return c
}

func (c *Catalog) add(name, id string) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || id == "" {
		return
	}
	c.fuzzy.Purge()
	if _, ok := c.ids[key]; !ok {
		c.names = append(c.names, key)
	}
	c.ids[key] = id
}

// Load reads a make_id,make_name,model_id,model_name file. Model columns
// are ignored; rows without a make name are skipped.
func Load(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("makes file has no header")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := pipeline.HeaderIndex(header)
	if err := pipeline.RequireColumns(index, "make_id", "make_name"); err != nil {
		return nil, err
	}
	idAt, nameAt := index["make_id"], index["make_name"]

	c := New(nil)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read makes: %w", err)
		}
		if idAt >= len(row) || nameAt >= len(row) {
			continue
		}
		c.add(row[nameAt], strings.TrimSpace(row[idAt]))
	}
	return c, nil
}

// LoadFile reads the makes file at path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open makes file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Len returns the number of known makes.
func (c *Catalog) Len() int {
	return len(c.ids)
}

// ResolveID returns the ID for name. Exact (case-insensitive) matches win;
// otherwise the most similar known make is used if it clears Similarity.
func (c *Catalog) ResolveID(name string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", false
	}
	if id, ok := c.ids[key]; ok {
		return id, true
	}

	best := c.closest(key)
	if best.name == "" || best.score < c.Similarity {
		return "", false
	}
	slog.Debug("fuzzy brand match",
		slog.String("brand", name),
		slog.String("match", best.name),
		slog.Float64("similarity", best.score),
	)
	return c.ids[best.name], true
}

func (c *Catalog) closest(key string) nearest {
	if hit, ok := c.fuzzy.Get(key); ok {
		return hit
	}
	var best nearest
	for _, known := range c.names {
		if score := matchr.JaroWinkler(key, known, false); score > best.score {
			best = nearest{name: known, score: score}
		}
	}
	c.fuzzy.Add(key, best)
	return best
}
