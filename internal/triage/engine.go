// Package triage is the batch entry point: it validates raw task records at
// the edge, scores the valid ones and returns them ranked.
package triage

import (
	"errors"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/Triage/internal/scoring"
)

// Result is the ranked output of one batch.
type Result struct {
	ScoredAt time.Time            `json:"scored_at"`
	Tasks    []scoring.ScoredTask `json:"tasks"`
	Rejected []Rejection          `json:"rejected"`
}

// Engine scores and ranks batches of raw task records. It holds no state
// between calls and is safe for concurrent use.
type Engine struct {
	scorer      *scoring.Scorer
	parallelism int
	logger      *slog.Logger
}

// NewEngine creates an Engine. parallelism bounds the number of descriptors
// scored concurrently; values below 1 use GOMAXPROCS.
func NewEngine(scorer *scoring.Scorer, parallelism int, logger *slog.Logger) *Engine {
	if parallelism < 1 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	return &Engine{scorer: scorer, parallelism: parallelism, logger: logger}
}

// Scorer returns the engine's scorer.
func (e *Engine) Scorer() *scoring.Scorer {
	return e.scorer
}

// Parallelism returns the maximum number of descriptors scored concurrently.
func (e *Engine) Parallelism() int { return e.parallelism }

// ScoreAndRank ranks records against the current time.
func (e *Engine) ScoreAndRank(records []RawTask) (Result, error) {
	return e.ScoreAndRankAt(records, time.Now().UTC())
}

// ScoreAndRankAt validates, scores and ranks records with every age measured
// against now. Records that are malformed (an unparseable created_at, or a
// field of the wrong JSON type) are left out of the ranking and reported in
// Result.Rejected; the returned error is then a *BatchError. Valid records
// are always scored and ranked. Metrics are left to the caller.
func (e *Engine) ScoreAndRankAt(records []RawTask, now time.Time) (Result, error) {
	start := time.Now()

	descriptors := make([]scoring.TaskDescriptor, 0, len(records))
	var invalid []*ValidationError
	for i, r := range records {
		d, err := r.Descriptor(i)
		if err != nil {
			var ve *ValidationError
			if !errors.As(err, &ve) {
				ve = &ValidationError{Index: i, TaskID: r.ID, Field: "record", Err: err}
			}
			invalid = append(invalid, ve)
			e.logger.Warn("task rejected", "index", i, "task_id", r.ID, "field", ve.Field, "error", ve.Err)
			continue
		}
		descriptors = append(descriptors, d)
	}

	scored := make([]scoring.ScoredTask, len(descriptors))
	var g errgroup.Group
	g.SetLimit(e.parallelism)
	for i := range descriptors {
		i := i
		g.Go(func() error {
			scored[i] = e.scorer.Score(descriptors[i], now)
			return nil
		})
	}
	// Score never fails, so neither do the workers.
	_ = g.Wait()

	result := Result{
		ScoredAt: now,
		Tasks:    scoring.Rank(scored),
		Rejected: make([]Rejection, 0, len(invalid)),
	}
	for _, ve := range invalid {
		result.Rejected = append(result.Rejected, ve.Rejection())
	}

	e.logger.Debug("batch ranked", "scored", len(scored), "rejected", len(invalid), "duration", time.Since(start))

	if len(invalid) > 0 {
		return result, &BatchError{Errors: invalid}
	}
	return result, nil
}
