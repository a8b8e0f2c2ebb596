package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// testRegistry returns a registry with a weakly deleterious type m1 and a
// neutral type m2.
func testRegistry(t *testing.T) (*MutationRegistry, *MutationType, *MutationType) {
	t.Helper()
	reg := NewMutationRegistry()
	m1, err := reg.DefineType(1, 0.5, DFE{Kind: DFEFixed, Params: []float64{-0.01}})
	require.NoError(t, err)
	m2, err := reg.DefineType(2, 0.3, DFE{Kind: DFEFixed, Params: []float64{0}})
	require.NoError(t, err)
	return reg, m1, m2
}

func testPopulation(t *testing.T, reg *MutationRegistry, dim int) *Population {
	t.Helper()
	pop, err := NewPopulation(reg, dim)
	require.NoError(t, err)
	return pop
}

func testSubpop(t *testing.T, pop *Population, cfg SubpopConfig) *Subpopulation {
	t.Helper()
	s, err := pop.AddSubpopulation(cfg)
	require.NoError(t, err)
	return s
}

func autosome(t *testing.T, muts ...*Mutation) *Genome {
	t.Helper()
	g := newGenome(Autosome, false)
	for _, m := range muts {
		require.NoError(t, g.Insert(m))
	}
	return &g
}

// randomGenomePair draws a shared pool of mutations over a short chromosome
// so that positions collide often, then gives each genome a random subset.
func randomGenomePair(t *testing.T, rng *rand.Rand, reg *MutationRegistry, types []*MutationType) (*Genome, *Genome) {
	t.Helper()
	pool := make([]*Mutation, rng.Intn(12))
	for i := range pool {
		s := rng.Float64() - 0.5
		switch rng.Intn(10) {
		case 0:
			s = 0
		case 1:
			s = -1
		case 2:
			s = -3
		}
		pool[i] = reg.NewMutation(types[rng.Intn(len(types))], int64(rng.Intn(6)), s, 1)
	}
	var in1, in2 []*Mutation
	for _, m := range pool {
		switch rng.Intn(3) {
		case 0:
			in1 = append(in1, m)
		case 1:
			in2 = append(in2, m)
		default:
			in1 = append(in1, m)
			in2 = append(in2, m)
		}
	}
	return autosome(t, in1...), autosome(t, in2...)
}

// fillParents writes genomes into the parent buffer of s.
func fillParents(t *testing.T, s *Subpopulation, pairs ...[2][]*Mutation) {
	t.Helper()
	for i, p := range pairs {
		g1, g2 := s.ParentGenomes(i)
		for _, m := range p[0] {
			require.NoError(t, g1.Insert(m))
		}
		for _, m := range p[1] {
			require.NoError(t, g2.Insert(m))
		}
	}
}

type recordingObserver struct {
	passes []FitnessPass
	swaps  []bool
}

func (r *recordingObserver) FitnessUpdated(pass FitnessPass) { r.passes = append(r.passes, pass) }
func (r *recordingObserver) GenerationSwapped(_ int, _ int64, regenerated bool) {
	r.swaps = append(r.swaps, regenerated)
}
