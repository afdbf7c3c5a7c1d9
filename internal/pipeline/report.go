package pipeline

import (
	"sync"
	"time"
)

// Report summarizes one poll cycle.
type Report struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	DryRun     bool           `json:"dry_run"`
	Candidates int            `json:"candidates"`
	Processed  int            `json:"processed"`
	Skipped    int            `json:"skipped"`
	Failed     int            `json:"failed"`
	StepErrors int            `json:"step_errors"`
	Archived   int            `json:"attachments_archived"`
	ByCategory map[string]int `json:"by_category"`
	Error      string         `json:"error,omitempty"`
}

func (r *Report) add(o outcome) {
	switch {
	case o.skipped && (o.marked || o.dryRun):
		r.Skipped++
	case o.marked:
		r.Processed++
	case o.dryRun:
		r.Processed++
	default:
		r.Failed++
	}
	if o.category != "" {
		r.ByCategory[o.category]++
	}
	r.StepErrors += o.stepErrors
	r.Archived += o.archived
}

// ReportStore keeps the most recent report for the status endpoint.
type ReportStore struct {
	mu     sync.RWMutex
	last   *Report
	cycles int
}

func NewReportStore() *ReportStore {
	return &ReportStore{}
}

func (s *ReportStore) Save(r Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &r
	s.cycles++
}

// Last returns the latest report and how many cycles have completed.
func (s *ReportStore) Last() (Report, int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return Report{}, s.cycles, false
	}
	return *s.last, s.cycles, true
}
