// Package pipeline wires the extract, transform and load phases together.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dexsync/dexsync/internal/extract"
	"github.com/dexsync/dexsync/internal/store"
	"github.com/dexsync/dexsync/internal/transform"
)

// Result summarizes one pipeline run.
type Result struct {
	RunID     string
	Requested int
	Fetched   int
	Loaded    int
}

// Pipeline runs the full ETL flow for a job list.
type Pipeline struct {
	extractor *extract.Extractor
	store     *store.SQLite
}

// New creates a Pipeline.
func New(extractor *extract.Extractor, st *store.SQLite) *Pipeline {
	return &Pipeline{extractor: extractor, store: st}
}

// Run executes extract, transform and load for the given job list. A load
// failure rolls back the batch and marks the run failed, but is not returned
// as an error: the run itself still completes. Only infrastructure failures
// (store bootstrap, run bookkeeping) abort the run.
func (p *Pipeline) Run(ctx context.Context, names []string) (*Result, error) {
	log := zap.L().With(zap.String("component", "pipeline"))
	start := time.Now()

	// Schema must exist before the run log row can be written.
	if err := p.store.Migrate(ctx); err != nil {
		return nil, eris.Wrap(err, "pipeline: migrate")
	}

	runID, err := p.store.StartRun(ctx, len(names))
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: start run")
	}

	result := &Result{RunID: runID, Requested: len(names)}
	log.Info("starting pipeline run",
		zap.String("run_id", runID),
		zap.Int("requested", len(names)),
	)

	bundles, err := p.extractor.Run(ctx, names)
	if err != nil {
		_ = p.store.FailRun(ctx, runID, 0, err.Error())
		return nil, eris.Wrap(err, "pipeline: extract")
	}
	result.Fetched = len(bundles)

	if len(bundles) == 0 {
		log.Warn("no data was extracted, skipping transform and load")
		if err := p.store.CompleteRun(ctx, runID, 0, 0); err != nil {
			return nil, eris.Wrap(err, "pipeline: complete run")
		}
		return result, nil
	}

	records := transform.Records(bundles)
	log.Info("transform phase complete", zap.Int("records", len(records)))

	if err := p.store.LoadAll(ctx, records); err != nil {
		// The batch rolled back; report the run as failed without
		// crashing the process.
		log.Error("load failed, batch rolled back", zap.Error(err))
		if failErr := p.store.FailRun(ctx, runID, result.Fetched, err.Error()); failErr != nil {
			log.Warn("failed to record run failure", zap.Error(failErr))
		}
		return result, nil
	}
	result.Loaded = len(records)

	if err := p.store.CompleteRun(ctx, runID, result.Fetched, result.Loaded); err != nil {
		return nil, eris.Wrap(err, "pipeline: complete run")
	}

	log.Info("pipeline run complete",
		zap.String("run_id", runID),
		zap.Int("fetched", result.Fetched),
		zap.Int("loaded", result.Loaded),
		zap.Duration("elapsed", time.Since(start).Round(time.Millisecond)),
	)
	return result, nil
}
