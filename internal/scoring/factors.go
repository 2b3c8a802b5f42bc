package scoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Factor names, in the order they are computed and serialised.
const (
	FactorBasePriority = "base_priority"
	FactorAge          = "age"
	FactorComplexity   = "complexity"
	FactorDependencies = "dependencies"
	FactorLabels       = "labels"
)

// Complexity tiers and their factor values.
const (
	ComplexityLow    = "low"
	ComplexityMedium = "medium"
	ComplexityHigh   = "high"
)

var complexityScores = map[string]float64{
	ComplexityLow:    80,
	ComplexityMedium: 50,
	ComplexityHigh:   30,
}

// DefaultUrgentLabels are the labels that set the labels factor to 100.
func DefaultUrgentLabels() []string {
	return []string{"urgent", "critical", "blocker", "hotfix"}
}

// FactorResult captures one factor's contribution to the total score.
// Score is the unweighted 0–100 value.
type FactorResult struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
	Reason   string  `json:"reason"`
}

// FactorSet is the ordered factor breakdown of one scored task. It encodes
// to JSON as an object of factor name to unweighted score, keeping order.
type FactorSet []FactorResult

// Value returns the unweighted score of the named factor.
func (fs FactorSet) Value(name string) (float64, bool) {
	for _, f := range fs {
		if f.Name == name {
			return f.Score, true
		}
	}
	return 0, false
}

// Map returns the unweighted scores keyed by factor name.
func (fs FactorSet) Map() map[string]float64 {
	m := make(map[string]float64, len(fs))
	for _, f := range fs {
		m[f.Name] = f.Score
	}
	return m
}

func (fs FactorSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Score)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the object form, preserving key order. Weights and
// reasons are not part of the encoding and come back empty.
func (fs *FactorSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*fs = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("factors: expected object, got %v", tok)
	}
	out := FactorSet{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("factors: expected key, got %v", tok)
		}
		var score float64
		if err := dec.Decode(&score); err != nil {
			return fmt.Errorf("factors: %s: %w", name, err)
		}
		out = append(out, FactorResult{Name: name, Score: score})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*fs = out
	return nil
}

// --- Individual factor calculators ---

// BasePriorityFactor maps declared priority 1..4 onto 100..25. Values outside
// the range still go through the formula and are clamped to [0, 100].
func BasePriorityFactor(d *TaskDescriptor) FactorResult {
	score := clamp((5-float64(d.RawPriority))*25, 0, 100)
	reason := fmt.Sprintf("priority %d", d.RawPriority)
	if d.RawPriority < 1 || d.RawPriority > 4 {
		reason += " (out of range, clamped)"
	}
	return FactorResult{Name: FactorBasePriority, Score: score, Reason: reason}
}

// AgeFactor adds 5 points per whole day since creation, saturating at 20 days.
// A missing timestamp is neutral; a timestamp after now counts as zero days.
func AgeFactor(d *TaskDescriptor, now time.Time) FactorResult {
	if d.CreatedAt == nil {
		return FactorResult{Name: FactorAge, Score: 0, Reason: "age unknown"}
	}
	days := int(now.Sub(*d.CreatedAt) / (24 * time.Hour))
	if days < 0 {
		days = 0
	}
	score := clamp(float64(days)*5, 0, 100)
	return FactorResult{Name: FactorAge, Score: score, Reason: fmt.Sprintf("%d days old", days)}
}

// ComplexityFactor nudges simpler work earlier. Unknown tiers score as medium.
func ComplexityFactor(d *TaskDescriptor) FactorResult {
	if score, ok := complexityScores[d.Complexity]; ok {
		return FactorResult{Name: FactorComplexity, Score: score, Reason: "complexity " + d.Complexity}
	}
	return FactorResult{
		Name:   FactorComplexity,
		Score:  complexityScores[ComplexityMedium],
		Reason: fmt.Sprintf("unknown complexity %q, treated as medium", d.Complexity),
	}
}

// DependencyFactor adds 20 points per blocked task, saturating at 5.
// Negative counts are treated as zero.
func DependencyFactor(d *TaskDescriptor) FactorResult {
	count := d.BlockingCount
	if count < 0 {
		count = 0
	}
	score := clamp(float64(count)*20, 0, 100)
	return FactorResult{Name: FactorDependencies, Score: score, Reason: fmt.Sprintf("blocks %d tasks", count)}
}

// LabelFactor returns 100 if any label matches the urgent set, compared
// case-insensitively, and 0 otherwise.
func LabelFactor(d *TaskDescriptor, urgent map[string]struct{}) FactorResult {
	for _, l := range d.Labels {
		if _, ok := urgent[strings.ToLower(l)]; ok {
			return FactorResult{Name: FactorLabels, Score: 100, Reason: "urgent label: " + strings.ToLower(l)}
		}
	}
	return FactorResult{Name: FactorLabels, Score: 0, Reason: "no urgent labels"}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
