package scoring

import (
	"fmt"
	"math"
)

// WeightSet defines the relative importance of each scoring factor.
// All weights must sum to 1.0 (±0.001 tolerance).
type WeightSet struct {
	BasePriority float64 `json:"base_priority"`
	Age          float64 `json:"age"`
	Complexity   float64 `json:"complexity"`
	Dependencies float64 `json:"dependencies"`
	Labels       float64 `json:"labels"`
}

// DefaultWeights returns the standard weight distribution.
func DefaultWeights() WeightSet {
	return WeightSet{
		BasePriority: 0.40,
		Age:          0.20,
		Complexity:   0.15,
		Dependencies: 0.15,
		Labels:       0.10,
	}
}

// Sum returns the total of all weights.
func (w WeightSet) Sum() float64 {
	return w.BasePriority + w.Age + w.Complexity + w.Dependencies + w.Labels
}

// Validate checks that weights sum to 1.0 and none are negative.
func (w WeightSet) Validate() error {
	if math.Abs(w.Sum()-1.0) > 0.001 {
		return fmt.Errorf("weights sum to %.4f, must sum to 1.0", w.Sum())
	}
	for _, v := range w.asList() {
		if v < 0 {
			return fmt.Errorf("negative weight: %f", v)
		}
	}
	return nil
}

// asList returns the weights in factor order.
func (w WeightSet) asList() []float64 {
	return []float64{w.BasePriority, w.Age, w.Complexity, w.Dependencies, w.Labels}
}
