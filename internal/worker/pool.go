// Package worker implements spec.md §5's loader/N-workers/aggregator
// topology: one loader goroutine, N analysis workers, and the caller's
// goroutine driving the aggregator, communicating over two bounded
// channels with an explicit sentinel-token shutdown protocol rather
// than channel close, exactly as spec.md §5 specifies. Grounded on the
// teacher's internal/worker package for its WaitGroup-based lifecycle,
// named goroutines, shutdownTimeout constant, and zap logging idiom,
// generalized from a Redis-consumer-group worker to the bounded-queue
// topology spec.md §5 names.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tomtom-odat/odat-go/internal/aggregator"
	"github.com/tomtom-odat/odat-go/internal/analyzer"
	"github.com/tomtom-odat/odat-go/internal/geocoord"
	"github.com/tomtom-odat/odat-go/internal/ingest"
	"github.com/tomtom-odat/odat-go/internal/repository/rescache"
	"github.com/tomtom-odat/odat-go/internal/result"
	"github.com/tomtom-odat/odat-go/internal/roadmap"
)

const shutdownTimeout = 30 * time.Second

// inputMsg is one q_in element (spec.md §5). Sentinel marks the
// loader's end-of-input signal; exactly NumWorkers sentinels are sent.
type inputMsg struct {
	job      ingest.Job
	sentinel bool
}

// outputMsg is one q_out element. Each worker forwards exactly one
// sentinel after consuming one, so exactly NumWorkers sentinels reach
// the aggregator regardless of how inputs were distributed.
type outputMsg struct {
	verdict  aggregator.Verdict
	sentinel bool
}

// ReaderFactory builds one worker's exclusively-owned full-map reader
// and its closer (spec.md §5: "the full-map database connection is
// per-worker; workers must not share database handles").
type ReaderFactory func() (roadmap.FullMapReader, func() error, error)

// Pool runs spec.md §5's topology once over a fixed job list.
type Pool struct {
	NumWorkers int
	QueueDepth int
	NewReader  ReaderFactory
	MapBounds  *geocoord.Polygon
	Params     analyzer.Params
	Cache      *rescache.Cache
	Logger     *zap.Logger
}

// Run feeds jobs through the loader/workers/aggregator pipeline and
// blocks until every verdict has been written via agg. It returns the
// first worker-startup error, if any; per-record failures never
// surface here (spec.md §5: "a worker that raises ... emits
// UNKNOWN_ERROR for that record and continues").
func (p *Pool) Run(ctx context.Context, jobs []ingest.Job, agg *aggregator.Aggregator) error {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	n := p.NumWorkers
	if n < 1 {
		n = 1
	}

	qIn := make(chan inputMsg, p.QueueDepth)
	qOut := make(chan outputMsg, p.QueueDepth)

	go loadInputs(jobs, n, qIn)

	var wg sync.WaitGroup
	startErrs := make(chan error, n)
	for i := 0; i < n; i++ {
		reader, closeReader, err := p.NewReader()
		if err != nil {
			startErrs <- fmt.Errorf("worker %d: building map reader: %w", i, err)
			continue
		}

		// Each worker gets a short uuid-derived name carried on every log
		// line it emits, so concurrent workers' lines stay distinguishable
		// (spec.md §9: "no cross-worker state"; SPEC_FULL.md §4: "name
		// each worker's log lines").
		workerName := uuid.NewString()[:8]
		workerLogger := logger.With(zap.Int("worker", i), zap.String("worker_name", workerName))

		a := analyzer.New(reader, p.MapBounds, p.Params, workerLogger)
		wg.Add(1)
		go func(id int, wl *zap.Logger) {
			defer wg.Done()
			defer func() {
				if err := closeReader(); err != nil {
					wl.Warn("worker map reader close failed", zap.Error(err))
				}
			}()
			runWorker(ctx, id, a, p.Cache, qIn, qOut, wl)
		}(i, workerLogger)
	}
	close(startErrs)
	for err := range startErrs {
		if err != nil {
			return err
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	sentinelsRemaining := n
	for sentinelsRemaining > 0 {
		msg := <-qOut
		if msg.sentinel {
			sentinelsRemaining--
			continue
		}
		if err := agg.Accept(msg.verdict); err != nil {
			logger.Error("writing analysis verdict failed", zap.Error(err))
		}
	}

	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		logger.Warn("workers did not exit after their sentinels propagated", zap.Duration("timeout", shutdownTimeout))
	}

	return nil
}

// loadInputs implements the loader half of spec.md §5: push every job
// onto q_in, then push one sentinel per worker.
func loadInputs(jobs []ingest.Job, numWorkers int, qIn chan<- inputMsg) {
	for _, j := range jobs {
		qIn <- inputMsg{job: j}
	}
	for i := 0; i < numWorkers; i++ {
		qIn <- inputMsg{sentinel: true}
	}
}

// runWorker implements one worker's loop: pop, analyze to completion,
// push a verdict, repeat until its sentinel arrives, then forward one
// sentinel downstream and exit (spec.md §5).
func runWorker(ctx context.Context, id int, a *analyzer.Analyzer, cache *rescache.Cache, qIn <-chan inputMsg, qOut chan<- outputMsg, logger *zap.Logger) {
	for msg := range qIn {
		if msg.sentinel {
			qOut <- outputMsg{sentinel: true}
			return
		}
		qOut <- outputMsg{verdict: analyzeJob(ctx, a, cache, msg.job, logger)}
	}
}

// analyzeJob runs one job through the Analyzer, recovering from any
// panic into UNKNOWN_ERROR (spec.md §7: "any other exception raised
// during analysis of a single record is caught at the worker level").
func analyzeJob(ctx context.Context, a *analyzer.Analyzer, cache *rescache.Cache, job ingest.Job, logger *zap.Logger) (v aggregator.Verdict) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("analysis panicked, recording as unknown error", zap.String("olr", job.OLR), zap.Any("panic", r))
			v = aggregator.Verdict{Job: job, Result: result.UnknownError, Fraction: 0}
		}
	}()

	if entry, ok := cache.Get(ctx, job.OLR); ok {
		return aggregator.Verdict{Job: job, Result: entry.Result, Fraction: entry.Fraction}
	}

	r, frac := a.Analyze(job.OLR, job.Geometry)
	cache.Set(ctx, job.OLR, rescache.Entry{Result: r, Fraction: frac})
	return aggregator.Verdict{Job: job, Result: r, Fraction: frac}
}
