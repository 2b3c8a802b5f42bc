package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Triage/internal/scoring"
	"github.com/MikeSquared-Agency/Triage/internal/triage"
)

// Run is one persisted ranking: the ranked tasks in order plus the records
// that were rejected at validation.
type Run struct {
	ID            uuid.UUID            `json:"run_id"`
	Source        string               `json:"source,omitempty"`
	RequestID     string               `json:"request_id,omitempty"`
	CallerID      string               `json:"caller_id,omitempty"`
	ScoredAt      time.Time            `json:"scored_at"`
	CreatedAt     time.Time            `json:"created_at"`
	TaskCount     int                  `json:"task_count"`
	RejectedCount int                  `json:"rejected_count"`
	Tasks         []scoring.ScoredTask `json:"tasks,omitempty"`
	Rejected      []triage.Rejection   `json:"rejected,omitempty"`
}

// RankedTask is one task of a stored run with its 1-based rank.
type RankedTask struct {
	RunID    uuid.UUID          `json:"run_id"`
	Position int                `json:"position"`
	ScoredAt time.Time          `json:"scored_at"`
	Task     scoring.ScoredTask `json:"task"`
}

type RunFilter struct {
	Source string
	Limit  int
	Offset int
}

type RunStats struct {
	TotalRuns     int     `json:"total_runs"`
	TotalTasks    int     `json:"total_tasks"`
	TotalRejected int     `json:"total_rejected"`
	AvgScore      float64 `json:"avg_score"`
}

// Store persists ranking runs for auditing. Lookups of missing rows return
// (nil, nil).
type Store interface {
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id uuid.UUID) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error)
	GetRunTask(ctx context.Context, runID uuid.UUID, taskID string) (*RankedTask, error)
	GetStats(ctx context.Context) (*RunStats, error)
	Close() error
}
