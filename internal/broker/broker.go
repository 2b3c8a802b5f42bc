package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Triage/internal/hermes"
	"github.com/MikeSquared-Agency/Triage/internal/metrics"
	"github.com/MikeSquared-Agency/Triage/internal/store"
	"github.com/MikeSquared-Agency/Triage/internal/triage"
)

// Entry points, used as the metrics label and as the default run source.
const (
	OriginHTTP = "http"
	OriginNATS = "nats"
)

// Request is one batch to rank, whichever way it arrived.
type Request struct {
	RequestID string
	Source    string
	CallerID  string
	Origin    string
	Tasks     []triage.RawTask
}

// Broker runs ranking batches through the engine, records them in the store
// and announces the results on NATS. Store and hermes are both optional.
type Broker struct {
	engine *triage.Engine
	store  store.Store
	hermes hermes.Client
	logger *slog.Logger

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

func New(e *triage.Engine, s store.Store, h hermes.Client, logger *slog.Logger) *Broker {
	return &Broker{
		engine: e,
		store:  s,
		hermes: h,
		logger: logger,
	}
}

func (b *Broker) Engine() *triage.Engine { return b.engine }

// HasStore reports whether runs are persisted.
func (b *Broker) HasStore() bool { return b.store != nil }

// Stop stops accepting NATS requests and waits for in-flight ones.
func (b *Broker) Stop() {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()
	b.wg.Wait()
}

func (b *Broker) acquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return false
	}
	b.wg.Add(1)
	return true
}

// Rank scores and ranks one batch. Records that fail validation end up in
// run.Rejected and do not fail the call; an error means the run could not be
// persisted.
func (b *Broker) Rank(ctx context.Context, req Request) (*store.Run, error) {
	origin := req.Origin
	if origin == "" {
		origin = OriginHTTP
	}

	start := time.Now()
	res, err := b.engine.ScoreAndRank(req.Tasks)
	var batchErr *triage.BatchError
	if err != nil && !errors.As(err, &batchErr) {
		return nil, fmt.Errorf("rank batch: %w", err)
	}
	observeBatch(res, time.Since(start))

	run := &store.Run{
		ID:        uuid.New(),
		Source:    req.Source,
		RequestID: req.RequestID,
		CallerID:  req.CallerID,
		ScoredAt:  res.ScoredAt,
		CreatedAt: res.ScoredAt,
		TaskCount: len(res.Tasks),
		Tasks:     res.Tasks,
		Rejected:  res.Rejected,
	}
	run.RejectedCount = len(run.Rejected)
	if run.Source == "" {
		run.Source = origin
	}

	if b.store != nil {
		if err := b.store.SaveRun(ctx, run); err != nil {
			metrics.StoreErrors.WithLabelValues("save_run").Inc()
			b.logger.Error("failed to save run", "run_id", run.ID, "error", err)
			return nil, fmt.Errorf("save run: %w", err)
		}
	}

	metrics.BatchesRanked.WithLabelValues(origin).Inc()
	b.logger.Info("batch ranked",
		"run_id", run.ID,
		"source", run.Source,
		"caller", run.CallerID,
		"tasks", run.TaskCount,
		"rejected", run.RejectedCount,
	)

	b.publish(run)
	return run, nil
}

func observeBatch(res triage.Result, elapsed time.Duration) {
	for _, t := range res.Tasks {
		metrics.TaskScore.Observe(t.Score)
	}
	metrics.TasksScored.Add(float64(len(res.Tasks)))
	for _, r := range res.Rejected {
		metrics.TasksRejected.WithLabelValues(r.Field).Inc()
	}
	metrics.BatchDuration.Observe(elapsed.Seconds())
}

func (b *Broker) publish(run *store.Run) {
	if b.hermes == nil {
		return
	}

	id := run.RequestID
	if !hermes.ValidToken(id) {
		id = run.ID.String()
	}

	evt := hermes.RankedEvent{
		RunID:     run.ID.String(),
		RequestID: run.RequestID,
		Source:    run.Source,
		ScoredAt:  run.ScoredAt,
		Tasks:     run.Tasks,
		Rejected:  run.Rejected,
	}
	if err := b.hermes.Publish(hermes.SubjectRanked(id), evt); err != nil {
		metrics.PublishErrors.Inc()
		b.logger.Warn("failed to publish ranked event", "run_id", run.ID, "error", err)
	}

	if len(run.Rejected) == 0 {
		return
	}
	rej := hermes.RejectedEvent{
		RunID:    run.ID.String(),
		Source:   run.Source,
		Rejected: run.Rejected,
	}
	if err := b.hermes.Publish(hermes.SubjectRejected(id), rej); err != nil {
		metrics.PublishErrors.Inc()
		b.logger.Warn("failed to publish rejected event", "run_id", run.ID, "error", err)
	}
}

// SetupSubscriptions registers the NATS entry point for ranking requests.
func (b *Broker) SetupSubscriptions() error {
	if b.hermes == nil {
		return nil
	}
	return b.hermes.Subscribe(hermes.SubjectTriageRequest, func(_ string, data []byte) {
		b.handleRequest(data)
	})
}

func (b *Broker) handleRequest(data []byte) {
	if !b.acquire() {
		return
	}
	defer b.wg.Done()

	var req hermes.TriageRequestEvent
	if err := json.Unmarshal(data, &req); err != nil {
		b.logger.Warn("invalid triage request event", "error", err)
		return
	}

	_, err := b.Rank(context.Background(), Request{
		RequestID: req.RequestID,
		Source:    req.Source,
		Origin:    OriginNATS,
		Tasks:     req.Tasks,
	})
	if err != nil {
		b.logger.Error("failed to rank NATS request", "request_id", req.RequestID, "error", err)
	}
}
