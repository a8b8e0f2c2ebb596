package sim

import (
	"math"
	"math/rand"
)

// AliasTable draws indices in [0, n) with probability proportional to the
// weights it was built from, in O(1) per draw (Walker's alias method).
// A table is immutable: rebuilding means constructing a new one.
type AliasTable struct {
	prob  []float64
	alias []int
	total float64
}

// NewAliasTable builds a table over weights. Weights must be finite and
// non-negative with a strictly positive total.
func NewAliasTable(weights []float64) (*AliasTable, error) {
	n := len(weights)
	if n == 0 {
		return nil, computationErrorf("NewAliasTable", "cannot build a sampling table over zero weights")
	}
	total := 0.0
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, computationErrorf("NewAliasTable", "weight %d is %v; weights must be finite and non-negative", i, w)
		}
		total += w
	}
	if total <= 0 {
		return nil, computationErrorf("NewAliasTable", "total weight is %v; must be > 0", total)
	}

	t := &AliasTable{
		prob:  make([]float64, n),
		alias: make([]int, n),
		total: total,
	}
	scaled := make([]float64, n)
	small := make([]int, 0, n)
	large := make([]int, 0, n)
	for i, w := range weights {
		scaled[i] = w * float64(n) / total
		if scaled[i] < 1 {
			small = append(small, i)
		} else {
			large = append(large, i)
		}
	}
	for len(small) > 0 && len(large) > 0 {
		s := small[len(small)-1]
		small = small[:len(small)-1]
		l := large[len(large)-1]
		large = large[:len(large)-1]

		t.prob[s] = scaled[s]
		t.alias[s] = l
		scaled[l] = (scaled[l] + scaled[s]) - 1
		if scaled[l] < 1 {
			small = append(small, l)
		} else {
			large = append(large, l)
		}
	}
	// Leftovers are 1 up to rounding error.
	for _, i := range large {
		t.prob[i] = 1
		t.alias[i] = i
	}
	for _, i := range small {
		t.prob[i] = 1
		t.alias[i] = i
	}
	return t, nil
}

// Len is the number of outcomes.
func (t *AliasTable) Len() int { return len(t.prob) }

// Total is the sum of the weights the table was built from.
func (t *AliasTable) Total() float64 { return t.total }

// Draw returns an index in [0, Len()).
func (t *AliasTable) Draw(rng *rand.Rand) int {
	i := rng.Intn(len(t.prob))
	if rng.Float64() < t.prob[i] {
		return i
	}
	return t.alias[i]
}
