package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// TaskDescriptor is the typed input for scoring one unit of work.
type TaskDescriptor struct {
	ID            string
	Title         string
	RawPriority   int
	CreatedAt     *time.Time // nil means age unknown
	Complexity    string
	Labels        []string
	BlockingCount int
}

// ScoredTask is one descriptor with its weighted score and factor breakdown.
type ScoredTask struct {
	TaskID      string    `json:"task_id"`
	Title       string    `json:"title"`
	RawPriority int       `json:"raw_priority"`
	Score       float64   `json:"score"`
	Factors     FactorSet `json:"factors"`
}

// Scorer orchestrates the 5-factor weighted additive scoring engine.
// A Scorer is immutable after construction and safe for concurrent use.
type Scorer struct {
	weights      WeightSet
	urgentLabels map[string]struct{}
}

// NewScorer creates a Scorer with the given weights and urgent-label set.
// A nil or empty label list falls back to DefaultUrgentLabels.
func NewScorer(weights WeightSet, urgentLabels []string) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid weights: %w", err)
	}
	if len(urgentLabels) == 0 {
		urgentLabels = DefaultUrgentLabels()
	}
	set := make(map[string]struct{}, len(urgentLabels))
	for _, l := range urgentLabels {
		l = strings.ToLower(strings.TrimSpace(l))
		if l != "" {
			set[l] = struct{}{}
		}
	}
	return &Scorer{weights: weights, urgentLabels: set}, nil
}

// Weights returns the scorer's weight table.
func (s *Scorer) Weights() WeightSet {
	return s.weights
}

// UrgentLabels returns the urgent-label set, sorted.
func (s *Scorer) UrgentLabels() []string {
	out := make([]string, 0, len(s.urgentLabels))
	for l := range s.urgentLabels {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Score computes the weighted score for one descriptor. The age factor is
// measured against now, so the same descriptor scored at two different
// moments can produce different scores; for a fixed now the result is
// deterministic.
func (s *Scorer) Score(d TaskDescriptor, now time.Time) ScoredTask {
	factors := FactorSet{
		BasePriorityFactor(&d),
		AgeFactor(&d, now),
		ComplexityFactor(&d),
		DependencyFactor(&d),
		LabelFactor(&d, s.urgentLabels),
	}

	weights := s.weights.asList()

	var total float64
	for i := range factors {
		factors[i].Weight = weights[i]
		factors[i].Weighted = factors[i].Score * weights[i]
		total += factors[i].Weighted
	}

	return ScoredTask{
		TaskID:      d.ID,
		Title:       d.Title,
		RawPriority: d.RawPriority,
		Score:       round2(total),
		Factors:     factors,
	}
}

// round2 keeps two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
