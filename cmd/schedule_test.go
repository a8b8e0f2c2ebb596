package cmd

import (
	"testing"
)

// TestEventSchedule_GenerationOrdering tests that actions come out in generation order
func TestEventSchedule_GenerationOrdering(t *testing.T) {
	size := 10
	h := newEventSchedule([]EventSpec{
		{Generation: 5, Subpop: 1, Size: &size},
		{Generation: 2, Subpop: 1, Size: &size},
		{Generation: 9, Subpop: 1, Size: &size},
	})

	due := h.Due(5)
	if len(due) != 2 {
		t.Fatalf("Due(5) returned %d actions, want 2", len(due))
	}
	if due[0].Generation != 2 || due[1].Generation != 5 {
		t.Errorf("Due(5) generations = %d, %d, want 2, 5", due[0].Generation, due[1].Generation)
	}
	if h.Len() != 1 {
		t.Errorf("Schedule should hold 1 action, len = %d", h.Len())
	}
	if got := h.Due(8); len(got) != 0 {
		t.Errorf("Due(8) returned %d actions, want 0", len(got))
	}
}

// TestEventSchedule_KindOrdering tests that one generation applies sex ratios,
// then samples, then resizes, regardless of declaration order
func TestEventSchedule_KindOrdering(t *testing.T) {
	zero, ratio := 0, 0.4
	h := newEventSchedule([]EventSpec{
		{Generation: 3, Subpop: 1, Size: &zero, Sample: 2},
		{Generation: 3, Subpop: 2, SexRatio: &ratio},
	})

	due := h.Due(3)
	want := []actionKind{actionSexRatio, actionSample, actionResize}
	if len(due) != len(want) {
		t.Fatalf("Due(3) returned %d actions, want %d", len(due), len(want))
	}
	for i, k := range want {
		if due[i].Kind != k {
			t.Errorf("action %d kind = %v, want %v", i, due[i].Kind, k)
		}
	}
	if due[0].Seq != 1 {
		t.Errorf("sex ratio action seq = %d, want 1", due[0].Seq)
	}
}

// TestEventSchedule_DeclarationTieBreak tests same-generation, same-kind
// actions keep declaration order
func TestEventSchedule_DeclarationTieBreak(t *testing.T) {
	h := newEventSchedule([]EventSpec{
		{Generation: 1, Subpop: 3, Sample: 1},
		{Generation: 1, Subpop: 1, Sample: 1},
		{Generation: 1, Subpop: 2, Sample: 1},
	})

	due := h.Due(1)
	for i, a := range due {
		if a.Seq != i {
			t.Errorf("action %d seq = %d, want %d", i, a.Seq, i)
		}
	}
}

func TestEventSchedule_EmptyEventsYieldNothing(t *testing.T) {
	h := newEventSchedule([]EventSpec{{Generation: 1, Subpop: 1}})
	if h.Len() != 0 {
		t.Errorf("an event with no changes scheduled %d actions", h.Len())
	}
}
