package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popsim-lab/popsim/sim/trace"
)

func TestNewPopulation(t *testing.T) {
	reg, _, _ := testRegistry(t)
	_, err := NewPopulation(nil, 0)
	assert.True(t, errors.Is(err, ErrConfiguration))
	_, err = NewPopulation(reg, 4)
	assert.True(t, errors.Is(err, ErrConfiguration))

	pop := testPopulation(t, reg, 0)
	assert.Equal(t, int64(1), pop.Generation)
	assert.Equal(t, StageSetup, pop.Stage)
}

func TestPopulation_Subpopulations(t *testing.T) {
	reg, _, _ := testRegistry(t)
	pop := testPopulation(t, reg, 0)
	testSubpop(t, pop, SubpopConfig{ID: 3, Size: 2})
	testSubpop(t, pop, SubpopConfig{ID: 1, Size: 2})

	_, err := pop.AddSubpopulation(SubpopConfig{ID: 3, Size: 2})
	assert.True(t, errors.Is(err, ErrConfiguration), "duplicate id")
	_, err = pop.AddSubpopulation(SubpopConfig{ID: 4, Size: 0})
	assert.True(t, errors.Is(err, ErrConfiguration), "empty")

	subs := pop.Subpopulations()
	require.Len(t, subs, 2)
	assert.Equal(t, 1, subs[0].ID())
	assert.Equal(t, 3, subs[1].ID())
	assert.Same(t, pop, subs[0].Population())

	assert.True(t, errors.Is(pop.RemoveSubpopulation(7), ErrConfiguration))
	assert.True(t, errors.Is(pop.SetMigration(subs[0], 7, 0.1), ErrConfiguration))
}

func TestPopulation_CycleNotifiesTrace(t *testing.T) {
	// GIVEN a traced population of two subpopulations
	reg, _, _ := testRegistry(t)
	pop := testPopulation(t, reg, 0)
	tr := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelPasses})
	pop.Observer = MultiObserver{TraceObserver{Trace: tr}}
	testSubpop(t, pop, SubpopConfig{ID: 1, Size: 4})
	testSubpop(t, pop, SubpopConfig{ID: 2, Size: 6, Sexual: true, SexRatio: 0.5})

	// WHEN a generation is swapped and evaluated
	for _, s := range pop.Subpopulations() {
		s.CommitChildren()
	}
	require.NoError(t, pop.SwapGenerations())
	require.NoError(t, pop.UpdateFitness(CallbackSet{}))

	// THEN both events are traced in subpopulation order
	assert.Equal(t, StageFitness, pop.Stage)
	require.Len(t, tr.Passes, 2)
	assert.Equal(t, 1, tr.Passes[0].SubpopID)
	assert.Equal(t, 6.0, tr.Passes[1].Total)
	assert.Equal(t, "no-callbacks", tr.Passes[1].Variant)
	require.Len(t, tr.Swaps, 2)
	assert.False(t, tr.Swaps[0].Regenerated)
}

func TestTraceObserver_DisabledRecordsNothing(t *testing.T) {
	tr := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelNone})
	obs := TraceObserver{Trace: tr}
	obs.FitnessUpdated(FitnessPass{SubpopID: 1})
	obs.GenerationSwapped(1, 1, true)
	assert.Empty(t, tr.Passes)
	assert.Empty(t, tr.Swaps)

	TraceObserver{}.FitnessUpdated(FitnessPass{}) // nil trace is a no-op
}

func TestStageString(t *testing.T) {
	for st, want := range map[Stage]string{
		StageSetup: "setup", StageEarly: "early", StageOffspring: "offspring", StageLate: "late", StageFitness: "fitness",
	} {
		assert.Equal(t, want, st.String())
	}
}
