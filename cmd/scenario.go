package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/popsim-lab/popsim/sim"
	"github.com/popsim-lab/popsim/sim/reproduction"
	"github.com/popsim-lab/popsim/sim/trace"
)

// Scenario is the YAML description of a run.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Scenario struct {
	Version        string         `yaml:"version"`
	Seed           int64          `yaml:"seed"`
	Generations    int64          `yaml:"generations"`
	Dimensionality int            `yaml:"dimensionality"`
	TraceLevel     string         `yaml:"trace_level"`
	MutationTypes  []MutationSpec `yaml:"mutation_types"`
	Element        ElementSpec    `yaml:"genomic_element"`
	Subpops        []SubpopSpec   `yaml:"subpopulations"`
	Callbacks      []CallbackSpec `yaml:"fitness_callbacks"`
	Events         []EventSpec    `yaml:"events"`
}

type MutationSpec struct {
	ID        int       `yaml:"id"`
	Dominance float64   `yaml:"dominance"`
	DFE       string    `yaml:"dfe"`
	Params    []float64 `yaml:"params"`
}

type ElementSpec struct {
	Length            int64             `yaml:"length"`
	MutationRate      float64           `yaml:"mutation_rate"`
	RecombinationRate float64           `yaml:"recombination_rate"`
	Types             []ElementTypeSpec `yaml:"types"`
}

type ElementTypeSpec struct {
	MutationType int     `yaml:"mutation_type"`
	Weight       float64 `yaml:"weight"`
}

type SubpopSpec struct {
	ID          int             `yaml:"id"`
	Size        int             `yaml:"size"`
	Sexual      bool            `yaml:"sexual"`
	SexRatio    float64         `yaml:"sex_ratio"`
	Chromosome  string          `yaml:"chromosome"` // A, X or Y
	XDominance  float64         `yaml:"x_dominance"`
	SelfingRate float64         `yaml:"selfing_rate"`
	CloningRate []float64       `yaml:"cloning_rate"`
	Bounds      []float64       `yaml:"bounds"`
	Migration   []MigrationSpec `yaml:"migration"`
}

type MigrationSpec struct {
	Source int     `yaml:"source"`
	Rate   float64 `yaml:"rate"`
}

// CallbackSpec configures a fitness callback. The scripting engine is not
// part of popsim, so bodies are limited to a constant result or a scaling of
// the relative fitness.
type CallbackSpec struct {
	Name         string  `yaml:"name"`
	Kind         string  `yaml:"kind"` // type, all, global
	MutationType int     `yaml:"mutation_type"`
	Body         string  `yaml:"body"` // constant, scale
	Value        float64 `yaml:"value"`
	Inactive     bool    `yaml:"inactive"`
}

// EventSpec changes a subpopulation in the early stage of a generation.
type EventSpec struct {
	Generation int64    `yaml:"generation"`
	Subpop     int      `yaml:"subpop"`
	Size       *int     `yaml:"size"`
	SexRatio   *float64 `yaml:"sex_ratio"`
	Sample     int      `yaml:"sample"`
}

var (
	validCallbackKinds  = map[string]bool{"type": true, "all": true, "global": true}
	validCallbackBodies = map[string]bool{"constant": true, "scale": true}
)

// LoadScenario parses a scenario file with strict field checking.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return parseScenario(data)
}

func parseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &sc, nil
}

// Validate checks the scenario fields that can be checked without building
// the population; the engine validates the rest.
func (sc *Scenario) Validate() error {
	if sc.Generations < 1 {
		return fmt.Errorf("generations must be >= 1, got %d", sc.Generations)
	}
	if sc.Dimensionality < 0 || sc.Dimensionality > 3 {
		return fmt.Errorf("dimensionality must be in [0, 3], got %d", sc.Dimensionality)
	}
	if !trace.IsValidTraceLevel(sc.TraceLevel) {
		return fmt.Errorf("unknown trace_level %q; valid: none, passes", sc.TraceLevel)
	}
	if len(sc.Subpops) == 0 {
		return fmt.Errorf("at least one subpopulation required")
	}
	types := make(map[int]bool, len(sc.MutationTypes))
	for i, mt := range sc.MutationTypes {
		if types[mt.ID] {
			return fmt.Errorf("mutation_types[%d]: duplicate id %d", i, mt.ID)
		}
		types[mt.ID] = true
		dfe := sim.DFE{Kind: sim.DFEKind(mt.DFE), Params: mt.Params}
		if err := dfe.Validate(); err != nil {
			return fmt.Errorf("mutation_types[%d]: %w", i, err)
		}
	}
	for i, et := range sc.Element.Types {
		if !types[et.MutationType] {
			return fmt.Errorf("genomic_element.types[%d]: unknown mutation_type %d", i, et.MutationType)
		}
	}
	ids := make(map[int]bool, len(sc.Subpops))
	for i, sp := range sc.Subpops {
		if ids[sp.ID] {
			return fmt.Errorf("subpopulations[%d]: duplicate id %d", i, sp.ID)
		}
		ids[sp.ID] = true
		if _, err := sim.ParseGenomeType(sp.Chromosome); err != nil {
			return fmt.Errorf("subpopulations[%d]: %w", i, err)
		}
	}
	for i, sp := range sc.Subpops {
		for j, m := range sp.Migration {
			if !ids[m.Source] {
				return fmt.Errorf("subpopulations[%d].migration[%d]: unknown source %d", i, j, m.Source)
			}
		}
	}
	for i, cb := range sc.Callbacks {
		if !validCallbackKinds[cb.Kind] {
			return fmt.Errorf("fitness_callbacks[%d]: unknown kind %q; valid: type, all, global", i, cb.Kind)
		}
		if !validCallbackBodies[cb.Body] {
			return fmt.Errorf("fitness_callbacks[%d]: unknown body %q; valid: constant, scale", i, cb.Body)
		}
		if cb.Kind == "global" && cb.Body == "scale" {
			return fmt.Errorf("fitness_callbacks[%d]: global callbacks have no relative fitness to scale", i)
		}
	}
	for i, ev := range sc.Events {
		if !ids[ev.Subpop] {
			return fmt.Errorf("events[%d]: unknown subpop %d", i, ev.Subpop)
		}
		if ev.Generation < 1 || ev.Generation > sc.Generations {
			return fmt.Errorf("events[%d]: generation %d outside [1, %d]", i, ev.Generation, sc.Generations)
		}
		if ev.Sample < 0 {
			return fmt.Errorf("events[%d]: sample must be >= 0, got %d", i, ev.Sample)
		}
	}
	return nil
}

// Build assembles the population, the reproduction step and the callback
// set described by the scenario.
func (sc *Scenario) Build(rng *sim.PartitionedRNG) (*sim.Population, *reproduction.Reproducer, sim.CallbackSet, error) {
	reg := sim.NewMutationRegistry()
	for _, ms := range sc.MutationTypes {
		if _, err := reg.DefineType(ms.ID, ms.Dominance, sim.DFE{Kind: sim.DFEKind(ms.DFE), Params: ms.Params}); err != nil {
			return nil, nil, sim.CallbackSet{}, err
		}
	}

	pop, err := sim.NewPopulation(reg, sc.Dimensionality)
	if err != nil {
		return nil, nil, sim.CallbackSet{}, err
	}
	for _, sp := range sc.Subpops {
		chrom, err := sim.ParseGenomeType(sp.Chromosome)
		if err != nil {
			return nil, nil, sim.CallbackSet{}, err
		}
		s, err := pop.AddSubpopulation(sim.SubpopConfig{
			ID:                sp.ID,
			Size:              sp.Size,
			Sexual:            sp.Sexual,
			SexRatio:          sp.SexRatio,
			ModeledChromosome: chrom,
			XDominance:        sp.XDominance,
		})
		if err != nil {
			return nil, nil, sim.CallbackSet{}, err
		}
		if err := s.SetSelfingRate(sp.SelfingRate); err != nil {
			return nil, nil, sim.CallbackSet{}, err
		}
		if len(sp.CloningRate) > 0 {
			if err := s.SetCloningRate(sp.CloningRate...); err != nil {
				return nil, nil, sim.CallbackSet{}, err
			}
		}
		if len(sp.Bounds) > 0 {
			if err := s.SetSpatialBounds(sp.Bounds); err != nil {
				return nil, nil, sim.CallbackSet{}, err
			}
		}
	}
	// Migration sources must all exist first.
	for _, sp := range sc.Subpops {
		if len(sp.Migration) == 0 {
			continue
		}
		sources := make([]int, len(sp.Migration))
		rates := make([]float64, len(sp.Migration))
		for k, m := range sp.Migration {
			sources[k], rates[k] = m.Source, m.Rate
		}
		if err := pop.Subpopulation(sp.ID).SetMigrationRates(sources, rates); err != nil {
			return nil, nil, sim.CallbackSet{}, err
		}
	}

	cfg := reproduction.Config{
		ChromosomeLength:  sc.Element.Length,
		MutationRate:      sc.Element.MutationRate,
		RecombinationRate: sc.Element.RecombinationRate,
	}
	for _, et := range sc.Element.Types {
		cfg.Types = append(cfg.Types, reproduction.TypeWeight{Type: reg.Type(et.MutationType), Weight: et.Weight})
	}
	rep, err := reproduction.New(cfg, rng)
	if err != nil {
		return nil, nil, sim.CallbackSet{}, err
	}

	callbacks := make([]*sim.FitnessCallback, 0, len(sc.Callbacks))
	for _, cs := range sc.Callbacks {
		callbacks = append(callbacks, cs.callback())
	}
	return pop, rep, sim.NewCallbackSet(callbacks...), nil
}

func (cs CallbackSpec) callback() *sim.FitnessCallback {
	kind := sim.TypeScoped
	switch cs.Kind {
	case "all":
		kind = sim.AllTypes
	case "global":
		kind = sim.Global
	}
	var cb *sim.FitnessCallback
	if cs.Body == "constant" {
		cb = sim.ConstantCallback(cs.Name, kind, cs.MutationType, cs.Value)
	} else {
		value := cs.Value
		cb = &sim.FitnessCallback{
			Name:   cs.Name,
			Kind:   kind,
			TypeID: cs.MutationType,
			Active: true,
			Body: func(inv *sim.CallbackInvocation) ([]float64, error) {
				return []float64{inv.RelFitness * value}, nil
			},
		}
	}
	cb.Active = !cs.Inactive
	return cb
}
