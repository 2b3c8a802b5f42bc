package scoring

import "sort"

// Rank returns the tasks ordered by score, highest first. Equal scores keep
// their input order. The input slice is not modified.
func Rank(tasks []ScoredTask) []ScoredTask {
	ranked := make([]ScoredTask, len(tasks))
	copy(ranked, tasks)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
