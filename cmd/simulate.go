package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/popsim-lab/popsim/sim"
	"github.com/popsim-lab/popsim/sim/history"
	"github.com/popsim-lab/popsim/sim/trace"
)

// runResult is what a completed run leaves behind for reporting.
type runResult struct {
	RunID      string
	Population *sim.Population
	Trace      *trace.SimulationTrace
	Samples    map[int64][]sampledIndividual // generation -> samples in event order
}

// sampledIndividual is one individual drawn by a sample event. Point is a
// location drawn uniformly within the subpopulation's bounds, nil when the
// scenario has no spatial dimensions.
type sampledIndividual struct {
	Subpop     int
	Individual *sim.Individual
	Point      []float64
}

// simulate runs every generation of sc: early events, offspring
// generation, then the fitness pass, persisting one history record per
// subpopulation and generation.
func simulate(ctx context.Context, sc *Scenario, scenarioName string, store history.Store, observers ...sim.Observer) (*runResult, error) {
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(sc.Seed))
	pop, rep, callbacks, err := sc.Build(rng)
	if err != nil {
		return nil, err
	}

	res := &runResult{
		RunID:      history.NewRunID(),
		Population: pop,
		Trace:      trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevel(sc.TraceLevel)}),
		Samples:    make(map[int64][]sampledIndividual),
	}
	collector := history.NewCollector(res.RunID)
	pop.Observer = sim.MultiObserver(append([]sim.Observer{sim.TraceObserver{Trace: res.Trace}, collector}, observers...))

	if err := store.SaveRun(ctx, history.Run{
		ID:        res.RunID,
		Seed:      sc.Seed,
		Scenario:  scenarioName,
		StartedAt: time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("saving run: %w", err)
	}
	sched := newEventSchedule(sc.Events)
	logrus.Infof("Starting run %s: seed=%d generations=%d subpopulations=%d", res.RunID, sc.Seed, sc.Generations, len(sc.Subpops))

	for gen := int64(1); gen <= sc.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		pop.Generation = gen
		pop.Stage = sim.StageEarly
		if err := applyEvents(pop, sched, gen, rng, res); err != nil {
			return res, err
		}
		if len(pop.Subpopulations()) == 0 {
			logrus.Warnf("[gen %d] every subpopulation has been removed; stopping", gen)
			break
		}
		if err := rep.Generate(pop); err != nil {
			return res, err
		}
		if err := pop.UpdateFitness(callbacks); err != nil {
			return res, err
		}
		if err := collector.Flush(ctx, store); err != nil {
			return res, err
		}
		logrus.Infof("[gen %d] fitness updated for %d subpopulation(s)", gen, len(pop.Subpopulations()))
	}
	return res, nil
}

// applyEvents runs the scheduled actions due this generation.
func applyEvents(pop *sim.Population, sched *eventSchedule, gen int64, rng *sim.PartitionedRNG, res *runResult) error {
	for _, a := range sched.Due(gen) {
		sp := pop.Subpopulation(a.Event.Subpop)
		if sp == nil {
			return fmt.Errorf("events[%d]: subpopulation p%d no longer exists", a.Seq, a.Event.Subpop)
		}
		var err error
		switch a.Kind {
		case actionSexRatio:
			err = sp.SetSexRatio(*a.Event.SexRatio)
		case actionSample:
			err = sampleEvent(pop, sp, a.Event.Sample, gen, rng, res)
		case actionResize:
			err = sp.SetSubpopulationSize(*a.Event.Size)
		}
		if err != nil {
			return fmt.Errorf("events[%d]: %v: %w", a.Seq, a.Kind, err)
		}
		logrus.Debugf("[gen %d] p%d %v applied (events[%d])", gen, a.Event.Subpop, a.Kind, a.Seq)
	}
	return nil
}

// sampleEvent draws n parents of sp and, in spatial scenarios, places each
// one uniformly within the subpopulation's bounds.
func sampleEvent(pop *sim.Population, sp *sim.Subpopulation, n int, gen int64, rng *sim.PartitionedRNG, res *runResult) error {
	sample, err := sp.SampleIndividuals(rng.ForSubsystem(sim.SubsystemSampler), n, false, sim.Hermaphrodite)
	if err != nil {
		return err
	}
	spatial := rng.ForSubsystem(sim.SubsystemSpatial)
	for _, ind := range sample {
		rec := sampledIndividual{Subpop: sp.ID(), Individual: ind}
		if pop.Dimensionality > 0 {
			if rec.Point, err = sp.PointUniform(spatial); err != nil {
				return err
			}
		}
		res.Samples[gen] = append(res.Samples[gen], rec)
	}
	return nil
}
