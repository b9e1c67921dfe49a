package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aluiziolira/go-scrape-cars/pipeline"
	"github.com/go-resty/resty/v2"
)

// MakesResponse is the makes API payload.
type MakesResponse struct {
	Makes []Make `json:"makes"`
}

// Make is one manufacturer with its models.
type Make struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Models []Model `json:"models"`
}

// Model is one model of a make.
type Model struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Client talks to the makes API.
type Client struct {
	http *resty.Client
	url  string
}

// NewClient returns a client for the makes endpoint at url.
func NewClient(url, userAgent string, timeout time.Duration) *Client {
	client := resty.New()
	client.SetHeader("accept", "application/json")
	if userAgent != "" {
		client.SetHeader("user-agent", userAgent)
	}
	client.SetTimeout(timeout)
	return &Client{http: client, url: url}
}

// FetchMakes downloads the full makes list.
func (c *Client) FetchMakes(ctx context.Context) (*MakesResponse, error) {
	var out MakesResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("fetch makes: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("fetch makes: unexpected status %s", res.Status())
	}
	return &out, nil
}

// WriteCSV writes the makes named in include (all when empty) with one row
// per model. A make without models gets one row with empty model columns.
// It returns the number of makes written.
func WriteCSV(w io.Writer, data *MakesResponse, include []string) (int, error) {
	wanted := make(map[string]struct{}, len(include))
	for _, name := range include {
		wanted[name] = struct{}{}
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(catalogHeader); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	written := 0
	for _, mk := range data.Makes {
		if _, ok := wanted[mk.Name]; len(wanted) > 0 && !ok {
			continue
		}
		written++
		makeID := strconv.Itoa(mk.ID)
		if len(mk.Models) == 0 {
			if err := writer.Write([]string{makeID, mk.Name, "", ""}); err != nil {
				return written, fmt.Errorf("write make %s: %w", mk.Name, err)
			}
			continue
		}
		for _, model := range mk.Models {
			row := []string{makeID, mk.Name, strconv.Itoa(model.ID), model.Name}
			if err := writer.Write(row); err != nil {
				return written, fmt.Errorf("write model %s: %w", model.Name, err)
			}
		}
	}
	writer.Flush()
	return written, writer.Error()
}

// Refresh fetches the makes list and rewrites the makes file at path,
// keeping only the makes named in include.
func (c *Client) Refresh(ctx context.Context, path string, include []string) (int, error) {
	data, err := c.FetchMakes(ctx)
	if err != nil {
		return 0, err
	}
	if err := pipeline.EnsureDir(path); err != nil {
		return 0, err
	}

	var buf strings.Builder
	n, err := WriteCSV(&buf, data, include)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, []byte(buf.String()), 0o644); err != nil {
		return 0, fmt.Errorf("write makes file: %w", err)
	}
	return n, nil
}
