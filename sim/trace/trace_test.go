package trace

import (
	"testing"
)

func TestSimulationTrace_RecordPass_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for passes
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelPasses})

	// WHEN a fitness pass is recorded
	st.RecordPass(FitnessRecord{
		SubpopID:   1,
		Generation: 10,
		Variant:    "no-callbacks",
		Size:       100,
		Total:      95.5,
		Mean:       0.955,
	})

	// THEN the trace contains one pass record with correct data
	if len(st.Passes) != 1 {
		t.Fatalf("expected 1 pass, got %d", len(st.Passes))
	}
	if st.Passes[0].SubpopID != 1 || st.Passes[0].Generation != 10 {
		t.Errorf("unexpected record identity: %+v", st.Passes[0])
	}
	if st.Passes[0].Total != 95.5 {
		t.Errorf("expected total 95.5, got %v", st.Passes[0].Total)
	}
}

func TestSimulationTrace_RecordSwap_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for passes
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelPasses})

	// WHEN a swap record is recorded
	st.RecordSwap(SwapRecord{SubpopID: 2, Generation: 3, Regenerated: true})

	// THEN the trace contains it
	if len(st.Swaps) != 1 {
		t.Fatalf("expected 1 swap, got %d", len(st.Swaps))
	}
	if !st.Swaps[0].Regenerated {
		t.Error("expected regenerated=true")
	}
}

func TestSimulationTrace_MultipleRecords_PreservesOrder(t *testing.T) {
	// GIVEN a trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelPasses})

	// WHEN multiple records are added
	st.RecordPass(FitnessRecord{SubpopID: 1, Generation: 1})
	st.RecordPass(FitnessRecord{SubpopID: 2, Generation: 1})
	st.RecordSwap(SwapRecord{SubpopID: 1, Generation: 1})

	// THEN order is preserved
	if len(st.Passes) != 2 {
		t.Fatalf("expected 2 passes, got %d", len(st.Passes))
	}
	if st.Passes[0].SubpopID != 1 || st.Passes[1].SubpopID != 2 {
		t.Error("pass order not preserved")
	}
	if len(st.Swaps) != 1 || st.Swaps[0].SubpopID != 1 {
		t.Error("swap record mismatch")
	}
}

func TestSimulationTrace_Enabled(t *testing.T) {
	tests := []struct {
		name string
		st   *SimulationTrace
		want bool
	}{
		{"nil trace", nil, false},
		{"level none", NewSimulationTrace(TraceConfig{Level: TraceLevelNone}), false},
		{"level empty", NewSimulationTrace(TraceConfig{}), false},
		{"level passes", NewSimulationTrace(TraceConfig{Level: TraceLevelPasses}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.st.Enabled(); got != tt.want {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsValidTraceLevel_ValidLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"none", true},
		{"passes", true},
		{"", true},
		{"decisions", false},
		{"verbose", false},
	}
	for _, tt := range tests {
		if got := IsValidTraceLevel(tt.level); got != tt.valid {
			t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tt.level, got, tt.valid)
		}
	}
}
