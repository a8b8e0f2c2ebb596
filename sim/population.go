package sim

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// Stage is the point of the generation cycle the population is in.
type Stage int

const (
	StageSetup Stage = iota
	StageEarly
	StageOffspring
	StageLate
	StageFitness
)

func (st Stage) String() string {
	switch st {
	case StageEarly:
		return "early"
	case StageOffspring:
		return "offspring"
	case StageLate:
		return "late"
	case StageFitness:
		return "fitness"
	default:
		return "setup"
	}
}

// Population holds the subpopulations of one simulation together with the
// mutation registry they share.
type Population struct {
	Registry       *MutationRegistry
	Dimensionality int // spatial dimensions, 0 to 3
	Generation     int64
	Stage          Stage
	Observer       Observer // may be nil

	subpops           map[int]*Subpopulation
	warnedEarlySample bool
}

// NewPopulation creates an empty population.
func NewPopulation(reg *MutationRegistry, dimensionality int) (*Population, error) {
	if reg == nil {
		return nil, configErrorf("NewPopulation", "mutation registry is required")
	}
	if dimensionality < 0 || dimensionality > 3 {
		return nil, configErrorf("NewPopulation", "dimensionality must be in [0, 3], got %d", dimensionality)
	}
	return &Population{
		Registry:       reg,
		Dimensionality: dimensionality,
		Generation:     1,
		subpops:        make(map[int]*Subpopulation),
	}, nil
}

// AddSubpopulation creates a subpopulation with uniform initial fitness.
func (p *Population) AddSubpopulation(cfg SubpopConfig) (*Subpopulation, error) {
	if _, exists := p.subpops[cfg.ID]; exists {
		return nil, configErrorf("AddSubpopulation", "subpopulation p%d already exists", cfg.ID)
	}
	s, err := newSubpopulation(p, cfg)
	if err != nil {
		return nil, err
	}
	p.subpops[cfg.ID] = s
	return s, nil
}

// Subpopulation returns the subpopulation with the given id, or nil.
func (p *Population) Subpopulation(id int) *Subpopulation {
	return p.subpops[id]
}

// Subpopulations returns every subpopulation ordered by id.
func (p *Population) Subpopulations() []*Subpopulation {
	out := make([]*Subpopulation, 0, len(p.subpops))
	for _, s := range p.subpops {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// SetSize resizes the next child generation of s; 0 removes s.
func (p *Population) SetSize(s *Subpopulation, n int) error {
	if n < 0 {
		return configErrorf("SetSize", "p%d: size must be >= 0, got %d", s.id, n)
	}
	if n == 0 {
		return p.RemoveSubpopulation(s.id)
	}
	return s.resizeChildren(n)
}

// RemoveSubpopulation drops the subpopulation and every migration entry
// that names it as a source.
func (p *Population) RemoveSubpopulation(id int) error {
	s, ok := p.subpops[id]
	if !ok {
		return configErrorf("RemoveSubpopulation", "subpopulation p%d does not exist", id)
	}
	if s.scanning {
		return usageErrorf("RemoveSubpopulation", "p%d cannot be removed during a fitness pass", id)
	}
	delete(p.subpops, id)
	for _, other := range p.subpops {
		delete(other.migrants, id)
	}
	logrus.Debugf("[gen %d] removed subpopulation p%d", p.Generation, id)
	return nil
}

// SetMigration records that fraction rate of the next child generation of
// s is drawn from source. A rate of 0 clears the entry.
func (p *Population) SetMigration(s *Subpopulation, source int, rate float64) error {
	if _, ok := p.subpops[source]; !ok {
		return configErrorf("SetMigration", "p%d: migration source p%d does not exist", s.id, source)
	}
	if rate == 0 {
		delete(s.migrants, source)
		return nil
	}
	s.migrants[source] = rate
	return nil
}

// UpdateFitness runs a fitness pass over every subpopulation in id order.
func (p *Population) UpdateFitness(callbacks CallbackSet) error {
	p.Stage = StageFitness
	for _, s := range p.Subpopulations() {
		if err := s.UpdateFitness(callbacks); err != nil {
			return err
		}
	}
	return nil
}

// SwapGenerations promotes the child generation of every subpopulation.
func (p *Population) SwapGenerations() error {
	for _, s := range p.Subpopulations() {
		if err := s.SwapGenerations(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Population) warnEarlySample(id int) {
	if p.Stage != StageEarly || p.warnedEarlySample {
		return
	}
	p.warnedEarlySample = true
	logrus.Warnf("[gen %d] p%d sampled during early events: the sample reflects the parental generation, "+
		"whose fitness has been computed but whose offspring do not yet exist", p.Generation, id)
}
