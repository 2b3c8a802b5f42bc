package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeSquared-Agency/Triage/internal/scoring"
)

//go:embed schema.sql
var schemaSQL string

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Migrate creates the run tables if they do not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const runColumns = `run_id, source, request_id, caller_id, scored_at,
	task_count, rejected_count, rejected, created_at`

func (s *PostgresStore) SaveRun(ctx context.Context, run *Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	run.TaskCount = len(run.Tasks)
	run.RejectedCount = len(run.Rejected)
	rejectedJSON, err := json.Marshal(run.Rejected)
	if err != nil {
		return fmt.Errorf("encode rejections: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	err = tx.QueryRow(ctx, `
		INSERT INTO triage_runs (run_id, source, request_id, caller_id, scored_at,
			task_count, rejected_count, rejected)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		run.ID, run.Source, run.RequestID, run.CallerID, run.ScoredAt,
		run.TaskCount, run.RejectedCount, rejectedJSON,
	).Scan(&run.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	rows := make([][]any, 0, len(run.Tasks))
	for i, t := range run.Tasks {
		// Store the full breakdown (weights and reasons), not the name->score view.
		factorsJSON, err := json.Marshal([]scoring.FactorResult(t.Factors))
		if err != nil {
			return fmt.Errorf("encode factors for %q: %w", t.TaskID, err)
		}
		rows = append(rows, []any{run.ID, i + 1, t.TaskID, t.Title, t.RawPriority, t.Score, factorsJSON})
	}
	if len(rows) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"triage_run_tasks"},
			[]string{"run_id", "position", "task_id", "title", "raw_priority", "score", "factors"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("insert run tasks: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	run, err := scanRun(s.pool.QueryRow(ctx, `
		SELECT `+runColumns+`
		FROM triage_runs WHERE run_id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT task_id, title, raw_priority, score, factors
		FROM triage_run_tasks WHERE run_id = $1
		ORDER BY position ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	run.Tasks = []scoring.ScoredTask{}
	for rows.Next() {
		t, err := scanScoredTask(rows)
		if err != nil {
			return nil, err
		}
		run.Tasks = append(run.Tasks, t)
	}
	return run, rows.Err()
}

// ListRuns returns run summaries, newest first. Tasks are not loaded.
func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM triage_runs WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.Source != "" {
		n++
		query += fmt.Sprintf(" AND source = $%d", n)
		args = append(args, filter.Source)
	}

	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	n++
	query += fmt.Sprintf(" LIMIT $%d", n)
	args = append(args, limit)

	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRunTask looks up a task in a stored run. When the batch carried the same
// id more than once, the best-ranked occurrence wins.
func (s *PostgresStore) GetRunTask(ctx context.Context, runID uuid.UUID, taskID string) (*RankedTask, error) {
	rt := &RankedTask{RunID: runID}
	row := s.pool.QueryRow(ctx, `
		SELECT t.position, r.scored_at, t.task_id, t.title, t.raw_priority, t.score, t.factors
		FROM triage_run_tasks t
		JOIN triage_runs r ON r.run_id = t.run_id
		WHERE t.run_id = $1 AND t.task_id = $2
		ORDER BY t.position ASC
		LIMIT 1`, runID, taskID)

	var factorsJSON []byte
	err := row.Scan(&rt.Position, &rt.ScoredAt,
		&rt.Task.TaskID, &rt.Task.Title, &rt.Task.RawPriority, &rt.Task.Score, &factorsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rt.Task.Factors, err = decodeFactors(factorsJSON)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (s *PostgresStore) GetStats(ctx context.Context) (*RunStats, error) {
	stats := &RunStats{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM triage_runs),
			(SELECT COALESCE(SUM(task_count), 0) FROM triage_runs),
			(SELECT COALESCE(SUM(rejected_count), 0) FROM triage_runs),
			(SELECT COALESCE(AVG(score), 0) FROM triage_run_tasks)`,
	).Scan(&stats.TotalRuns, &stats.TotalTasks, &stats.TotalRejected, &stats.AvgScore)
	return stats, err
}

func scanRun(row pgx.Row) (*Run, error) {
	run := &Run{}
	var rejectedJSON []byte
	var scoredAt, createdAt time.Time
	if err := row.Scan(
		&run.ID, &run.Source, &run.RequestID, &run.CallerID, &scoredAt,
		&run.TaskCount, &run.RejectedCount, &rejectedJSON, &createdAt,
	); err != nil {
		return nil, err
	}
	run.ScoredAt = scoredAt.UTC()
	run.CreatedAt = createdAt.UTC()
	if rejectedJSON != nil {
		if err := json.Unmarshal(rejectedJSON, &run.Rejected); err != nil {
			return nil, fmt.Errorf("decode rejections: %w", err)
		}
	}
	return run, nil
}

func scanScoredTask(rows pgx.Rows) (scoring.ScoredTask, error) {
	var t scoring.ScoredTask
	var factorsJSON []byte
	if err := rows.Scan(&t.TaskID, &t.Title, &t.RawPriority, &t.Score, &factorsJSON); err != nil {
		return t, err
	}
	factors, err := decodeFactors(factorsJSON)
	if err != nil {
		return t, err
	}
	t.Factors = factors
	return t, nil
}

func decodeFactors(data []byte) (scoring.FactorSet, error) {
	var list []scoring.FactorResult
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode factors: %w", err)
	}
	return scoring.FactorSet(list), nil
}
