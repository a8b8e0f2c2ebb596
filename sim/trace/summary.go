package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalPasses         int
	PassesByVariant     map[string]int
	CallbackInvocations int
	MeanFitness         float64 // mean of per-pass mean fitness
	MinMeanFitness      float64
	MaxMeanFitness      float64
	TotalSwaps          int
	Regenerations       int
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		PassesByVariant: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalPasses = len(st.Passes)
	if len(st.Passes) > 0 {
		sum := 0.0
		summary.MinMeanFitness = st.Passes[0].Mean
		summary.MaxMeanFitness = st.Passes[0].Mean
		for _, p := range st.Passes {
			summary.PassesByVariant[p.Variant]++
			summary.CallbackInvocations += p.CallbackInvocations
			sum += p.Mean
			summary.MinMeanFitness = min(summary.MinMeanFitness, p.Mean)
			summary.MaxMeanFitness = max(summary.MaxMeanFitness, p.Mean)
		}
		summary.MeanFitness = sum / float64(len(st.Passes))
	}

	summary.TotalSwaps = len(st.Swaps)
	for _, s := range st.Swaps {
		if s.Regenerated {
			summary.Regenerations++
		}
	}

	return summary
}
