package api

import (
	"net/http"

	"github.com/MikeSquared-Agency/Triage/internal/scoring"
)

type WeightsHandler struct {
	scorer *scoring.Scorer
}

func NewWeightsHandler(s *scoring.Scorer) *WeightsHandler {
	return &WeightsHandler{scorer: s}
}

type WeightsResponse struct {
	Weights      scoring.WeightSet `json:"weights"`
	UrgentLabels []string          `json:"urgent_labels"`
}

// Get reports the active weight table.
// GET /api/v1/weights
func (h *WeightsHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, WeightsResponse{
		Weights:      h.scorer.Weights(),
		UrgentLabels: h.scorer.UrgentLabels(),
	})
}
