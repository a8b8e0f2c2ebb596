package reproduction

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popsim-lab/popsim/sim"
)

func newPop(t *testing.T) (*sim.Population, *sim.MutationType) {
	t.Helper()
	reg := sim.NewMutationRegistry()
	mt, err := reg.DefineType(1, 0.5, sim.DFE{Kind: sim.DFEFixed, Params: []float64{-0.01}})
	require.NoError(t, err)
	pop, err := sim.NewPopulation(reg, 0)
	require.NoError(t, err)
	return pop, mt
}

func TestConfig_Validate(t *testing.T) {
	mt := &sim.MutationType{ID: 1}
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{ChromosomeLength: 100, MutationRate: 1e-3, Types: []TypeWeight{{mt, 1}}}, false},
		{"no mutation needs no types", Config{ChromosomeLength: 100}, false},
		{"zero length", Config{ChromosomeLength: 0}, true},
		{"negative mutation rate", Config{ChromosomeLength: 10, MutationRate: -1}, true},
		{"negative recombination rate", Config{ChromosomeLength: 10, RecombinationRate: -1}, true},
		{"mutation without types", Config{ChromosomeLength: 10, MutationRate: 0.1}, true},
		{"zero weight", Config{ChromosomeLength: 10, Types: []TypeWeight{{mt, 0}}}, true},
		{"nil type", Config{ChromosomeLength: 10, Types: []TypeWeight{{nil, 1}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGenerate_AsexualFillsChildrenAndSwaps(t *testing.T) {
	// GIVEN an asexual subpopulation of 20 and a mutating element
	pop, mt := newPop(t)
	p1, err := pop.AddSubpopulation(sim.SubpopConfig{ID: 1, Size: 20})
	require.NoError(t, err)
	r, err := New(Config{
		ChromosomeLength:  1000,
		MutationRate:      1e-3,
		RecombinationRate: 1e-3,
		Types:             []TypeWeight{{mt, 1}},
	}, sim.NewPartitionedRNG(sim.NewSimulationKey(7)))
	require.NoError(t, err)

	// WHEN several generations run with fitness updates in between
	for gen := 0; gen < 5; gen++ {
		require.NoError(t, r.Generate(pop))
		require.NoError(t, pop.UpdateFitness(sim.CallbackSet{}))
		pop.Generation++
	}

	// THEN the subpopulation keeps its size, mutations accumulated, and
	// every genome stays position-sorted
	assert.Equal(t, 20, p1.IndividualCount())
	assert.False(t, p1.ChildValid())
	total := 0
	for _, g := range p1.Genomes() {
		require.NoError(t, g.CheckSorted())
		total += g.Len()
	}
	assert.Greater(t, total, 0)
	assert.Equal(t, sim.StageFitness, pop.Stage)
}

func TestGenerate_Deterministic(t *testing.T) {
	run := func() []float64 {
		pop, mt := newPop(t)
		p1, err := pop.AddSubpopulation(sim.SubpopConfig{ID: 1, Size: 30})
		require.NoError(t, err)
		r, err := New(Config{
			ChromosomeLength: 500, MutationRate: 2e-3, RecombinationRate: 1e-3,
			Types: []TypeWeight{{mt, 1}},
		}, sim.NewPartitionedRNG(sim.NewSimulationKey(99)))
		require.NoError(t, err)
		for gen := 0; gen < 4; gen++ {
			require.NoError(t, r.Generate(pop))
			require.NoError(t, pop.UpdateFitness(sim.CallbackSet{}))
		}
		w, err := p1.CachedFitness()
		require.NoError(t, err)
		return w
	}
	assert.Equal(t, run(), run())
}

func TestGenerate_SexualXModelKeepsNullPattern(t *testing.T) {
	// GIVEN a sexual subpopulation modeling the X
	pop, mt := newPop(t)
	p1, err := pop.AddSubpopulation(sim.SubpopConfig{
		ID: 1, Size: 10, Sexual: true, SexRatio: 0.5, ModeledChromosome: sim.XChromosome, XDominance: 1,
	})
	require.NoError(t, err)
	r, err := New(Config{
		ChromosomeLength: 100, MutationRate: 0.05, Types: []TypeWeight{{mt, 1}},
	}, sim.NewPartitionedRNG(sim.NewSimulationKey(3)))
	require.NoError(t, err)

	// WHEN a generation is produced
	require.NoError(t, r.Generate(pop))

	// THEN male Y copies are null and empty, all X copies are live
	genomes := p1.Genomes()
	for i, ind := range p1.Individuals() {
		g1, g2 := genomes[2*i], genomes[2*i+1]
		assert.False(t, g1.IsNull())
		assert.Equal(t, sim.XChromosome, g1.Type())
		if ind.Sex() == sim.Male {
			assert.True(t, g2.IsNull())
			assert.Equal(t, sim.YChromosome, g2.Type())
			assert.Zero(t, g2.Len())
		} else {
			assert.False(t, g2.IsNull())
		}
	}
}

func TestGenerate_CloningCopiesParentExactly(t *testing.T) {
	// GIVEN a size-1 subpopulation cloning at rate 1 without new mutations
	pop, mt := newPop(t)
	p1, err := pop.AddSubpopulation(sim.SubpopConfig{ID: 1, Size: 1})
	require.NoError(t, err)
	require.NoError(t, p1.SetCloningRate(1))
	g1, g2 := p1.ParentGenomes(0)
	m := pop.Registry.NewMutation(mt, 5, -0.1, 1)
	require.NoError(t, g1.Insert(m))

	r, err := New(Config{ChromosomeLength: 10}, sim.NewPartitionedRNG(sim.NewSimulationKey(1)))
	require.NoError(t, err)

	// WHEN a generation is produced
	require.NoError(t, r.Generate(pop))

	// THEN the child carries the identical mutation on the same strand
	c1, c2 := p1.ParentGenomes(0)
	assert.NotSame(t, g1, c1)
	assert.True(t, c1.Contains(m))
	assert.Zero(t, c2.Len())
	_ = g2
}

func TestGenerate_MigrationFractionsAboveOne(t *testing.T) {
	pop, _ := newPop(t)
	p1, err := pop.AddSubpopulation(sim.SubpopConfig{ID: 1, Size: 5})
	require.NoError(t, err)
	_, err = pop.AddSubpopulation(sim.SubpopConfig{ID: 2, Size: 5})
	require.NoError(t, err)
	_, err = pop.AddSubpopulation(sim.SubpopConfig{ID: 3, Size: 5})
	require.NoError(t, err)
	require.NoError(t, p1.SetMigrationRates([]int{2, 3}, []float64{0.6, 0.6}))

	r, err := New(Config{ChromosomeLength: 10}, sim.NewPartitionedRNG(sim.NewSimulationKey(1)))
	require.NoError(t, err)

	err = r.Generate(pop)
	assert.True(t, errors.Is(err, sim.ErrConfiguration), "got %v", err)
}

func TestGenerate_FullMigrationDrawsFromSource(t *testing.T) {
	// GIVEN p1 made entirely of migrants from p2, whose only parent carries m
	pop, mt := newPop(t)
	p1, err := pop.AddSubpopulation(sim.SubpopConfig{ID: 1, Size: 4})
	require.NoError(t, err)
	p2, err := pop.AddSubpopulation(sim.SubpopConfig{ID: 2, Size: 1})
	require.NoError(t, err)
	require.NoError(t, p2.SetCloningRate(1))
	require.NoError(t, p1.SetCloningRate(1))
	m := pop.Registry.NewMutation(mt, 3, 0, 1)
	g1, _ := p2.ParentGenomes(0)
	require.NoError(t, g1.Insert(m))
	require.NoError(t, p1.SetMigrationRates([]int{2}, []float64{1}))

	r, err := New(Config{ChromosomeLength: 10}, sim.NewPartitionedRNG(sim.NewSimulationKey(5)))
	require.NoError(t, err)

	// WHEN a generation is produced
	require.NoError(t, r.Generate(pop))

	// THEN every p1 individual carries m
	for i := 0; i < p1.IndividualCount(); i++ {
		c1, _ := p1.ParentGenomes(i)
		assert.True(t, c1.Contains(m), "individual %d", i)
	}
}

func TestGenerate_SingleViableParentSelfsIncidentally(t *testing.T) {
	// GIVEN an outcrossing subpopulation where only parent 0 has non-zero fitness
	pop, mt := newPop(t)
	p1, err := pop.AddSubpopulation(sim.SubpopConfig{ID: 1, Size: 4})
	require.NoError(t, err)
	lethal := pop.Registry.NewMutation(mt, 2, -1, 1)
	for i := 1; i < 4; i++ {
		g1, g2 := p1.ParentGenomes(i)
		require.NoError(t, g1.Insert(lethal))
		require.NoError(t, g2.Insert(lethal))
	}
	require.NoError(t, pop.UpdateFitness(sim.CallbackSet{}))
	w, err := p1.CachedFitness()
	require.NoError(t, err)
	require.Equal(t, []float64{1, 0, 0, 0}, w)

	r, err := New(Config{ChromosomeLength: 10}, sim.NewPartitionedRNG(sim.NewSimulationKey(2)))
	require.NoError(t, err)

	// WHEN a generation is produced
	done := make(chan error, 1)
	go func() { done <- r.Generate(pop) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Generate did not return with a single viable parent")
	}

	// THEN every child descends from parent 0 on both strands
	assert.Equal(t, 4, p1.IndividualCount())
	for i := 0; i < p1.IndividualCount(); i++ {
		c1, c2 := p1.ParentGenomes(i)
		assert.False(t, c1.Contains(lethal), "individual %d", i)
		assert.False(t, c2.Contains(lethal), "individual %d", i)
	}
}
