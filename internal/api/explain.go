package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Triage/internal/scoring"
	"github.com/MikeSquared-Agency/Triage/internal/store"
)

type ExplainHandler struct {
	store store.Store
}

func NewExplainHandler(s store.Store) *ExplainHandler {
	return &ExplainHandler{store: s}
}

type ExplainResponse struct {
	RunID       uuid.UUID              `json:"run_id"`
	TaskID      string                 `json:"task_id"`
	Title       string                 `json:"title"`
	RawPriority int                    `json:"raw_priority"`
	Position    int                    `json:"position"`
	Score       float64                `json:"score"`
	ScoredAt    time.Time              `json:"scored_at"`
	Factors     []scoring.FactorResult `json:"factors"`
}

// Explain returns the per-factor breakdown for one task of a stored run.
// GET /api/v1/runs/{run_id}/explain/{task_id}
func (h *ExplainHandler) Explain(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, h.store) {
		return
	}

	runID, err := uuid.Parse(chi.URLParam(r, "run_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run_id")
		return
	}
	taskID := chi.URLParam(r, "task_id")

	rt, err := h.store.GetRunTask(r.Context(), runID, taskID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rt == nil {
		writeError(w, http.StatusNotFound, "task not found in run")
		return
	}

	factors := []scoring.FactorResult(rt.Task.Factors)
	if factors == nil {
		factors = []scoring.FactorResult{}
	}
	writeJSON(w, http.StatusOK, ExplainResponse{
		RunID:       rt.RunID,
		TaskID:      rt.Task.TaskID,
		Title:       rt.Task.Title,
		RawPriority: rt.Task.RawPriority,
		Position:    rt.Position,
		Score:       rt.Task.Score,
		ScoredAt:    rt.ScoredAt,
		Factors:     factors,
	})
}
