// Package aggregator implements spec.md §5's aggregator: it consumes
// verdicts off the output queue, recognizes duplicate OpenLR codes
// (spec.md §7), streams the output JSON incrementally with correct
// comma placement (spec.md §5), and tallies the run statistics table
// exposed by the admin HTTP surface (SPEC_FULL.md §6).
package aggregator

import (
	"sync"

	"github.com/tomtom-odat/odat-go/internal/ingest"
	"github.com/tomtom-odat/odat-go/internal/result"
)

// Verdict is what a worker emits onto the output queue for one job
// (spec.md §5: "emits a verdict to an output queue").
type Verdict struct {
	Job      ingest.Job
	Result   result.AnalysisResult
	Fraction float64
}

// Stats is the live tally the admin HTTP surface's /stats endpoint
// reports (SPEC_FULL.md §6), keyed by result name.
type Stats struct {
	Total    int
	Counts   map[string]int
	SumFrac  map[string]float64
	Duplicate int
}

// NewStats returns a zeroed Stats ready for accumulation.
func NewStats() *Stats {
	return &Stats{Counts: make(map[string]int), SumFrac: make(map[string]float64)}
}

// Mean returns the mean fraction_within_buffer recorded for name, or 0
// if no verdicts of that result were tallied.
func (s *Stats) Mean(name string) float64 {
	c := s.Counts[name]
	if c == 0 {
		return 0
	}
	return s.SumFrac[name] / float64(c)
}

// Aggregator owns the single writer side of the output JSON file and
// the duplicate-detection bucket; it is driven by exactly one goroutine
// per run (spec.md §5: the aggregator is a single consumer of the
// output queue). Accept and StatsSnapshot are guarded by mu so the admin
// HTTP handler can read the tallies while a run is in progress.
type Aggregator struct {
	writer *Writer
	mu     sync.RWMutex
	stats  *Stats
	seen   map[string]struct{}
}

// New builds an Aggregator writing to w.
func New(w *Writer) *Aggregator {
	return &Aggregator{writer: w, stats: NewStats(), seen: make(map[string]struct{})}
}

// Accept applies spec.md §7's duplicate-detection rule ("same olr with
// any prior fraction counts as duplicate"), reassigning the verdict to
// DuplicateOpenLRCode and excluding it from the stats tally when the
// OpenLR code has already been seen, then streams the (possibly
// reassigned) record and folds it into the running stats.
func (a *Aggregator) Accept(v Verdict) error {
	a.mu.Lock()
	a.stats.Total++

	if _, dup := a.seen[v.Job.OLR]; dup {
		a.stats.Duplicate++
		a.mu.Unlock()
		return a.writer.WriteRecord(v.Job, result.DuplicateOpenLRCode, 0)
	}
	a.seen[v.Job.OLR] = struct{}{}

	name := v.Result.String()
	a.stats.Counts[name]++
	a.stats.SumFrac[name] += v.Fraction
	a.mu.Unlock()

	return a.writer.WriteRecord(v.Job, v.Result, v.Fraction)
}

// StatsSnapshot returns a copy of the live tally, safe to read while
// Accept runs concurrently on the aggregator goroutine (SPEC_FULL.md
// §6: the admin HTTP handler's "/stats" reads this from its own
// goroutine).
func (a *Aggregator) StatsSnapshot() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	snap := Stats{
		Total:     a.stats.Total,
		Duplicate: a.stats.Duplicate,
		Counts:    make(map[string]int, len(a.stats.Counts)),
		SumFrac:   make(map[string]float64, len(a.stats.SumFrac)),
	}
	for k, v := range a.stats.Counts {
		snap.Counts[k] = v
	}
	for k, v := range a.stats.SumFrac {
		snap.SumFrac[k] = v
	}
	return snap
}
