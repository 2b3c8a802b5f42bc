//go:build integration

package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Triage/internal/scoring"
	"github.com/MikeSquared-Agency/Triage/internal/triage"
)

func setupTestDB(t *testing.T) *PostgresStore {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		_, _ = s.pool.Exec(ctx, "TRUNCATE triage_run_tasks, triage_runs CASCADE")
		s.Close()
	})

	return s
}

func scored(id string, score float64) scoring.ScoredTask {
	return scoring.ScoredTask{
		TaskID:      id,
		Title:       "task " + id,
		RawPriority: 2,
		Score:       score,
		Factors: scoring.FactorSet{
			{Name: scoring.FactorBasePriority, Score: 75, Weight: 0.4, Weighted: 30, Reason: "priority 2"},
			{Name: scoring.FactorAge, Score: 0, Weight: 0.2, Weighted: 0, Reason: "no creation time"},
		},
	}
}

func TestSaveAndGetRun(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	scoredAt := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	run := &Run{
		Source:    "integration-test",
		RequestID: "req-1",
		CallerID:  "tester",
		ScoredAt:  scoredAt,
		Tasks:     []scoring.ScoredTask{scored("B", 40), scored("A", 30)},
		Rejected:  []triage.Rejection{{Index: 2, TaskID: "C", Field: "created_at", Value: "soon", Reason: "malformed timestamp"}},
	}
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	if run.ID == uuid.Nil {
		t.Fatal("expected run ID to be assigned")
	}
	if run.CreatedAt.IsZero() {
		t.Error("expected created_at to be returned")
	}

	got, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected run, got nil")
	}
	if got.TaskCount != 2 || got.RejectedCount != 1 {
		t.Errorf("unexpected counts %d/%d", got.TaskCount, got.RejectedCount)
	}
	if !got.ScoredAt.Equal(scoredAt) {
		t.Errorf("expected scored_at %s, got %s", scoredAt, got.ScoredAt)
	}
	if len(got.Tasks) != 2 || got.Tasks[0].TaskID != "B" || got.Tasks[1].TaskID != "A" {
		t.Fatalf("rank order not preserved: %+v", got.Tasks)
	}
	if got.Tasks[0].Factors[0].Reason != "priority 2" || got.Tasks[0].Factors[0].Weight != 0.4 {
		t.Errorf("factor breakdown not preserved: %+v", got.Tasks[0].Factors)
	}
	if len(got.Rejected) != 1 || got.Rejected[0].TaskID != "C" {
		t.Errorf("rejections not preserved: %+v", got.Rejected)
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := setupTestDB(t)

	got, err := s.GetRun(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing run, got %+v", got)
	}
}

func TestSaveEmptyRun(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	run := &Run{Source: "empty", ScoredAt: time.Now().UTC()}
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	got, err := s.GetRun(ctx, run.ID)
	if err != nil || got == nil {
		t.Fatalf("GetRun: %v %v", got, err)
	}
	if len(got.Tasks) != 0 {
		t.Errorf("expected no tasks, got %d", len(got.Tasks))
	}
}

func TestSaveRunWidePriority(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	wide := scored("W", 0)
	wide.RawPriority = 3000000000
	run := &Run{Source: "wide", ScoredAt: time.Now().UTC(), Tasks: []scoring.ScoredTask{wide}}
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	got, err := s.GetRun(ctx, run.ID)
	if err != nil || got == nil {
		t.Fatalf("GetRun: %v %v", got, err)
	}
	if len(got.Tasks) != 1 || got.Tasks[0].RawPriority != 3000000000 {
		t.Errorf("raw priority not preserved: %+v", got.Tasks)
	}
}

func TestListRunsWithFilters(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	for i, src := range []string{"api", "nats", "api"} {
		run := &Run{Source: src, RequestID: string(rune('a' + i)), ScoredAt: time.Now().UTC()}
		if err := s.SaveRun(ctx, run); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	all, err := s.ListRuns(ctx, RunFilter{})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 runs, got %d", len(all))
	}

	api, err := s.ListRuns(ctx, RunFilter{Source: "api"})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(api) != 2 {
		t.Errorf("expected 2 api runs, got %d", len(api))
	}

	page, err := s.ListRuns(ctx, RunFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(page) != 1 {
		t.Errorf("expected 1 run on page, got %d", len(page))
	}
}

func TestGetRunTask(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	run := &Run{Source: "api", ScoredAt: time.Now().UTC(),
		Tasks: []scoring.ScoredTask{scored("X", 50), scored("Y", 40), scored("X", 10)}}
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	rt, err := s.GetRunTask(ctx, run.ID, "Y")
	if err != nil || rt == nil {
		t.Fatalf("GetRunTask: %v %v", rt, err)
	}
	if rt.Position != 2 {
		t.Errorf("expected position 2, got %d", rt.Position)
	}

	dup, err := s.GetRunTask(ctx, run.ID, "X")
	if err != nil || dup == nil {
		t.Fatalf("GetRunTask: %v %v", dup, err)
	}
	if dup.Position != 1 || dup.Task.Score != 50 {
		t.Errorf("expected best-ranked duplicate, got %+v", dup)
	}

	missing, err := s.GetRunTask(ctx, run.ID, "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil, got %+v", missing)
	}
}

func TestGetStats(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	run := &Run{Source: "api", ScoredAt: time.Now().UTC(),
		Tasks:    []scoring.ScoredTask{scored("A", 60), scored("B", 40)},
		Rejected: []triage.Rejection{{Index: 2, Field: "created_at"}}}
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	stats, err := s.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.TotalRuns != 1 || stats.TotalTasks != 2 || stats.TotalRejected != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.AvgScore != 50 {
		t.Errorf("expected avg score 50, got %f", stats.AvgScore)
	}
}
