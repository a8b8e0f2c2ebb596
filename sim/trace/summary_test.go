package trace

import (
	"math"
	"testing"
)

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	// GIVEN no trace
	// WHEN summarized
	summary := Summarize(nil)

	// THEN a zero summary with an initialized map is returned
	if summary.TotalPasses != 0 || summary.TotalSwaps != 0 {
		t.Error("expected zero counts")
	}
	if summary.PassesByVariant == nil {
		t.Error("expected non-nil variant map")
	}
}

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelPasses})

	// WHEN summarized
	summary := Summarize(st)

	// THEN all values are zero
	if summary.TotalPasses != 0 {
		t.Errorf("expected 0 passes, got %d", summary.TotalPasses)
	}
	if summary.MeanFitness != 0 || summary.MinMeanFitness != 0 || summary.MaxMeanFitness != 0 {
		t.Error("expected zero fitness statistics")
	}
	if len(summary.PassesByVariant) != 0 {
		t.Error("expected empty variant distribution")
	}
}

func TestSummarize_PopulatedTrace_CorrectStatistics(t *testing.T) {
	// GIVEN passes with known means and a mix of swaps
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelPasses})
	st.RecordPass(FitnessRecord{Variant: "no-callbacks", Mean: 0.9, CallbackInvocations: 0})
	st.RecordPass(FitnessRecord{Variant: "callbacks", Mean: 0.6, CallbackInvocations: 40})
	st.RecordPass(FitnessRecord{Variant: "callbacks", Mean: 0.9, CallbackInvocations: 2})
	st.RecordSwap(SwapRecord{Regenerated: false})
	st.RecordSwap(SwapRecord{Regenerated: true})

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts and statistics match
	if summary.TotalPasses != 3 {
		t.Errorf("expected 3 passes, got %d", summary.TotalPasses)
	}
	if summary.PassesByVariant["callbacks"] != 2 || summary.PassesByVariant["no-callbacks"] != 1 {
		t.Errorf("unexpected variant distribution: %v", summary.PassesByVariant)
	}
	if summary.CallbackInvocations != 42 {
		t.Errorf("expected 42 callback invocations, got %d", summary.CallbackInvocations)
	}
	if math.Abs(summary.MeanFitness-0.8) > 1e-12 {
		t.Errorf("expected mean fitness 0.8, got %v", summary.MeanFitness)
	}
	if summary.MinMeanFitness != 0.6 || summary.MaxMeanFitness != 0.9 {
		t.Errorf("expected min 0.6 max 0.9, got %v %v", summary.MinMeanFitness, summary.MaxMeanFitness)
	}
	if summary.TotalSwaps != 2 || summary.Regenerations != 1 {
		t.Errorf("expected 2 swaps with 1 regeneration, got %d/%d", summary.TotalSwaps, summary.Regenerations)
	}
}
