package hermes

import (
	"time"

	"github.com/MikeSquared-Agency/Triage/internal/scoring"
	"github.com/MikeSquared-Agency/Triage/internal/triage"
)

// TriageRequestEvent asks for a batch of raw task records to be ranked.
type TriageRequestEvent struct {
	RequestID string           `json:"request_id,omitempty"`
	Source    string           `json:"source,omitempty"`
	Tasks     []triage.RawTask `json:"tasks"`
}

// RankedEvent is the full result of one ranking run.
type RankedEvent struct {
	RunID     string               `json:"run_id"`
	RequestID string               `json:"request_id,omitempty"`
	Source    string               `json:"source,omitempty"`
	ScoredAt  time.Time            `json:"scored_at"`
	Tasks     []scoring.ScoredTask `json:"tasks"`
	Rejected  []triage.Rejection   `json:"rejected"`
}

// RejectedEvent lists the records a run could not score.
type RejectedEvent struct {
	RunID    string             `json:"run_id"`
	Source   string             `json:"source,omitempty"`
	Rejected []triage.Rejection `json:"rejected"`
}
