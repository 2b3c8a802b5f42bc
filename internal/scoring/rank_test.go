package scoring

import (
	"testing"
)

func ids(tasks []ScoredTask) []string {
	out := make([]string, len(tasks))
	for i, st := range tasks {
		out[i] = st.TaskID
	}
	return out
}

func TestRankStableTieBreak(t *testing.T) {
	in := []ScoredTask{
		{TaskID: "A", Score: 50.0},
		{TaskID: "B", Score: 50.0},
		{TaskID: "C", Score: 70.0},
	}

	got := ids(Rank(in))
	want := []string{"C", "A", "B"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestRankDescending(t *testing.T) {
	in := []ScoredTask{
		{TaskID: "low", Score: 4.5},
		{TaskID: "high", Score: 81},
		{TaskID: "mid", Score: 37.5},
		{TaskID: "mid-2", Score: 37.5},
		{TaskID: "zero", Score: 0},
	}

	got := Rank(in)
	for i := 1; i < len(got); i++ {
		if got[i-1].Score < got[i].Score {
			t.Errorf("not descending at %d: %v", i, ids(got))
		}
	}
	if got[1].TaskID != "mid" || got[2].TaskID != "mid-2" {
		t.Errorf("tie order not preserved: %v", ids(got))
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	in := []ScoredTask{
		{TaskID: "A", Score: 1},
		{TaskID: "B", Score: 2},
	}
	_ = Rank(in)
	if in[0].TaskID != "A" || in[1].TaskID != "B" {
		t.Errorf("input reordered: %v", ids(in))
	}
}

func TestRankEmpty(t *testing.T) {
	got := Rank(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestRankManyTies(t *testing.T) {
	in := make([]ScoredTask, 0, 50)
	for i := 0; i < 50; i++ {
		in = append(in, ScoredTask{TaskID: string(rune('a'+i%26)) + string(rune('0'+i/26)), Score: float64(i % 3)})
	}
	got := Rank(in)

	// Within each score bucket the original relative order must hold.
	pos := make(map[string]int, len(in))
	for i, st := range in {
		pos[st.TaskID] = i
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Score == got[i].Score && pos[got[i-1].TaskID] > pos[got[i].TaskID] {
			t.Errorf("tie order broken between %s and %s", got[i-1].TaskID, got[i].TaskID)
		}
	}
}
