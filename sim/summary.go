package sim

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FitnessSummary describes the distribution of one fitness cache.
type FitnessSummary struct {
	Count  int
	Total  float64
	Mean   float64
	StdDev float64 // sample standard deviation; 0 for fewer than two values
	Min    float64
	Max    float64
}

// SummarizeFitness computes summary statistics over values. An empty slice
// yields the zero summary.
func SummarizeFitness(values []float64) FitnessSummary {
	if len(values) == 0 {
		return FitnessSummary{}
	}
	s := FitnessSummary{
		Count: len(values),
		Total: floats.Sum(values),
		Min:   floats.Min(values),
		Max:   floats.Max(values),
	}
	if len(values) == 1 {
		s.Mean = values[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	return s
}
