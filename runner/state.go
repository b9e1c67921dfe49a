package runner

import (
	"time"

	"github.com/aluiziolira/go-scrape-cars/models"
)

// Phase is the lifecycle state of a Runner.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseRunning Phase = "running"
	PhaseFailed  Phase = "failed"
)

// Snapshot is an immutable view of the run state. A new value is published
// on every change.
type Snapshot struct {
	Phase      Phase                   `json:"phase"`
	Progress   int                     `json:"progress"`
	Details    string                  `json:"details"`
	Error      string                  `json:"error,omitempty"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
	Scrapes    []*models.ScraperResult `json:"scrapes,omitempty"`
	Results    []models.ScoredCar      `json:"results,omitempty"`
}

// Progress checkpoints reported outside the crawl.
const (
	ProgressLoading   = 0
	ProgressStarting  = 5
	ProgressExporting = 60
	ProgressAnalysing = 80
	ProgressComplete  = 100
)

// CrawlProgress maps a completed page onto the 10..60 band of the overall
// indicator.
func CrawlProgress(page, total int) int {
	if total <= 0 {
		return 10
	}
	p := 10 + 50*page/total
	if p > ProgressExporting {
		p = ProgressExporting
	}
	return p
}
