package cmd

import "container/heap"

// actionKind orders the changes an event makes within one generation.
type actionKind int

const (
	actionSexRatio actionKind = iota
	actionSample
	actionResize // last, so a removal never precedes a sample of the same generation
)

func (k actionKind) String() string {
	switch k {
	case actionSexRatio:
		return "sex-ratio"
	case actionSample:
		return "sample"
	default:
		return "resize"
	}
}

// scheduledAction is one change requested by an EventSpec.
type scheduledAction struct {
	Generation int64
	Kind       actionKind
	Seq        int // index of the owning event in the scenario
	Event      EventSpec
}

// eventSchedule implements a priority queue with deterministic ordering
// Ordering: generation → action kind → declaration index
type eventSchedule struct {
	actions []scheduledAction
}

// newEventSchedule splits every event into its actions.
func newEventSchedule(events []EventSpec) *eventSchedule {
	h := &eventSchedule{actions: make([]scheduledAction, 0, len(events))}
	for i, ev := range events {
		if ev.SexRatio != nil {
			h.actions = append(h.actions, scheduledAction{ev.Generation, actionSexRatio, i, ev})
		}
		if ev.Sample > 0 {
			h.actions = append(h.actions, scheduledAction{ev.Generation, actionSample, i, ev})
		}
		if ev.Size != nil {
			h.actions = append(h.actions, scheduledAction{ev.Generation, actionResize, i, ev})
		}
	}
	heap.Init(h)
	return h
}

// Len implements heap.Interface
func (h *eventSchedule) Len() int {
	return len(h.actions)
}

// Less implements heap.Interface
func (h *eventSchedule) Less(i, j int) bool {
	ai, aj := h.actions[i], h.actions[j]
	if ai.Generation != aj.Generation {
		return ai.Generation < aj.Generation
	}
	if ai.Kind != aj.Kind {
		return ai.Kind < aj.Kind
	}
	return ai.Seq < aj.Seq
}

// Swap implements heap.Interface
func (h *eventSchedule) Swap(i, j int) {
	h.actions[i], h.actions[j] = h.actions[j], h.actions[i]
}

// Push implements heap.Interface
func (h *eventSchedule) Push(x interface{}) {
	h.actions = append(h.actions, x.(scheduledAction))
}

// Pop implements heap.Interface
func (h *eventSchedule) Pop() interface{} {
	old := h.actions
	n := len(old)
	item := old[n-1]
	h.actions = old[0 : n-1]
	return item
}

// Due removes and returns, in order, every action scheduled at or before
// generation.
func (h *eventSchedule) Due(generation int64) []scheduledAction {
	var out []scheduledAction
	for h.Len() > 0 && h.actions[0].Generation <= generation {
		out = append(out, heap.Pop(h).(scheduledAction))
	}
	return out
}
