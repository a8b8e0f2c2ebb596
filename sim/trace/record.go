// Package trace records fitness passes and generation swaps for later
// analysis. This package has no dependencies on sim/; it stores pure data types.
package trace

// FitnessRecord captures one completed fitness pass over a subpopulation.
type FitnessRecord struct {
	SubpopID   int
	Generation int64
	Variant    string // evaluation strategy used for the pass
	Size       int
	Total      float64
	Mean       float64
	Min        float64
	Max        float64

	CallbackInvocations int
}

// SwapRecord captures one parent/child generation exchange.
type SwapRecord struct {
	SubpopID    int
	Generation  int64
	Regenerated bool // the new child buffer had to be rebuilt to a new shape
}
