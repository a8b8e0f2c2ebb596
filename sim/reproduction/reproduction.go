// Package reproduction fills child generations by drawing parents through
// the subpopulation sampling tables. It supports clonal, selfed and
// biparental offspring, migration between subpopulations, recombination and
// new mutations.
package reproduction

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/popsim-lab/popsim/sim"
)

// TypeWeight is one mutation type of the genomic element with its relative
// share of new mutations.
type TypeWeight struct {
	Type   *sim.MutationType
	Weight float64
}

// Config describes the single genomic element all genomes share.
type Config struct {
	ChromosomeLength  int64   // positions are in [0, ChromosomeLength)
	MutationRate      float64 // per position per genome per generation
	RecombinationRate float64 // per position per transmission
	Types             []TypeWeight
}

// Validate checks the element parameters.
func (c Config) Validate() error {
	if c.ChromosomeLength < 1 {
		return fmt.Errorf("chromosome length must be >= 1, got %d", c.ChromosomeLength)
	}
	if c.MutationRate < 0 {
		return fmt.Errorf("mutation rate must be >= 0, got %f", c.MutationRate)
	}
	if c.RecombinationRate < 0 {
		return fmt.Errorf("recombination rate must be >= 0, got %f", c.RecombinationRate)
	}
	if c.MutationRate > 0 && len(c.Types) == 0 {
		return fmt.Errorf("a non-zero mutation rate requires at least one mutation type")
	}
	for i, tw := range c.Types {
		if tw.Type == nil {
			return fmt.Errorf("mutation type %d is nil", i)
		}
		if tw.Weight <= 0 {
			return fmt.Errorf("mutation type m%d weight must be > 0, got %f", tw.Type.ID, tw.Weight)
		}
	}
	return nil
}

// Reproducer runs the offspring stage of a generation.
type Reproducer struct {
	cfg   Config
	rng   *sim.PartitionedRNG
	types *sim.AliasTable // nil when no mutation types are configured

	mutations   distuv.Poisson
	crossovers  distuv.Poisson
	breakpoints []int64
}

// New creates a Reproducer drawing from the reproduction, mutation and
// migration streams of rng.
func New(cfg Config, rng *sim.PartitionedRNG) (*Reproducer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: reproduction.New: %v", sim.ErrConfiguration, err)
	}
	r := &Reproducer{cfg: cfg, rng: rng}
	if len(cfg.Types) > 0 {
		weights := make([]float64, len(cfg.Types))
		for i, tw := range cfg.Types {
			weights[i] = tw.Weight
		}
		t, err := sim.NewAliasTable(weights)
		if err != nil {
			return nil, err
		}
		r.types = t
	}
	mutRNG := rng.ForSubsystem(sim.SubsystemMutation)
	r.mutations = distuv.Poisson{Lambda: cfg.MutationRate * float64(cfg.ChromosomeLength), Src: mutRNG}
	r.crossovers = distuv.Poisson{Lambda: cfg.RecombinationRate * float64(cfg.ChromosomeLength), Src: rng.ForSubsystem(sim.SubsystemReproduction)}
	return r, nil
}

// Generate fills the child generation of every subpopulation and promotes
// it to parent.
func (r *Reproducer) Generate(pop *sim.Population) error {
	pop.Stage = sim.StageOffspring
	subpops := pop.Subpopulations()
	for _, sp := range subpops {
		if err := r.populate(pop, sp); err != nil {
			return err
		}
	}
	if err := pop.SwapGenerations(); err != nil {
		return err
	}
	pop.Stage = sim.StageLate
	return nil
}

// populate fills the child generation of target.
func (r *Reproducer) populate(pop *sim.Population, target *sim.Subpopulation) error {
	sources, err := r.sourceTable(pop, target)
	if err != nil {
		return err
	}
	repRNG := r.rng.ForSubsystem(sim.SubsystemReproduction)
	migRNG := r.rng.ForSubsystem(sim.SubsystemMigration)

	migrants := 0
	for i := 0; i < target.ChildSize(); i++ {
		source := target
		if sources != nil {
			if k := sources.table.Draw(migRNG); k > 0 {
				source = sources.subpops[k]
				migrants++
			}
		}
		if err := r.makeChild(pop, source, target, i, repRNG); err != nil {
			return err
		}
	}
	target.CommitChildren()
	if migrants > 0 {
		logrus.Debugf("[gen %d] p%d received %d migrants", pop.Generation, target.ID(), migrants)
	}
	return nil
}

type sourceTable struct {
	subpops []*sim.Subpopulation // index 0 is the target itself
	table   *sim.AliasTable
}

// sourceTable returns nil when target receives no migrants.
func (r *Reproducer) sourceTable(pop *sim.Population, target *sim.Subpopulation) (*sourceTable, error) {
	ids := target.ImmigrantSubpopIDs()
	if len(ids) == 0 {
		return nil, nil
	}
	fractions := target.ImmigrantSubpopFractions()
	st := &sourceTable{subpops: []*sim.Subpopulation{target}}
	weights := []float64{0}
	sum := 0.0
	for k, id := range ids {
		src := pop.Subpopulation(id)
		if src == nil {
			return nil, fmt.Errorf("%w: populate: migration source p%d of p%d no longer exists", sim.ErrConfiguration, id, target.ID())
		}
		if src.SexEnabled() != target.SexEnabled() {
			return nil, fmt.Errorf("%w: populate: p%d and migration source p%d differ in sex modeling", sim.ErrConfiguration, target.ID(), id)
		}
		st.subpops = append(st.subpops, src)
		weights = append(weights, fractions[k])
		sum += fractions[k]
	}
	if sum > 1 {
		return nil, fmt.Errorf("%w: populate: migration fractions into p%d sum to %v > 1", sim.ErrConfiguration, target.ID(), sum)
	}
	weights[0] = 1 - sum
	t, err := sim.NewAliasTable(weights)
	if err != nil {
		return nil, err
	}
	st.table = t
	return st, nil
}

func (r *Reproducer) makeChild(pop *sim.Population, source, target *sim.Subpopulation, i int, rng *rand.Rand) error {
	c1, c2 := target.ChildGenomes(i)
	sex := target.ChildIndividual(i).Sex()

	if source.SexEnabled() {
		female, male := source.CloningRate()
		cloning := female
		if sex == sim.Male {
			cloning = male
		}
		if rng.Float64() < cloning {
			var p int
			if sex == sim.Male {
				p = source.DrawMaleParent(rng)
			} else {
				p = source.DrawFemaleParent(rng)
			}
			return r.clone(pop, source, p, c1, c2)
		}
		mother := source.DrawFemaleParent(rng)
		father := source.DrawMaleParent(rng)
		m1, m2 := source.ParentGenomes(mother)
		f1, f2 := source.ParentGenomes(father)
		if err := r.transmit(pop, c1, m1, m2); err != nil {
			return err
		}
		if source.ModeledChromosome() == sim.Autosome {
			return r.transmit(pop, c2, f1, f2)
		}
		// Sex chromosomes: daughters get the father's X, sons his Y.
		if sex == sim.Male {
			return r.transmit(pop, c2, f2, nil)
		}
		return r.transmit(pop, c2, f1, nil)
	}

	cloning, _ := source.CloningRate()
	p1 := source.DrawParent(rng)
	if rng.Float64() < cloning {
		return r.clone(pop, source, p1, c1, c2)
	}
	// Outcrossing draws the second parent independently, so it may be p1.
	p2 := p1
	if rng.Float64() >= source.SelfingRate() {
		p2 = source.DrawParent(rng)
	}
	a1, a2 := source.ParentGenomes(p1)
	b1, b2 := source.ParentGenomes(p2)
	if err := r.transmit(pop, c1, a1, a2); err != nil {
		return err
	}
	return r.transmit(pop, c2, b1, b2)
}

func (r *Reproducer) clone(pop *sim.Population, source *sim.Subpopulation, p int, c1, c2 *sim.Genome) error {
	g1, g2 := source.ParentGenomes(p)
	if err := r.transmit(pop, c1, g1, nil); err != nil {
		return err
	}
	return r.transmit(pop, c2, g2, nil)
}

// transmit writes into dst the gamete of a parent carrying a and b, then
// adds new mutations. A nil b copies a without recombination. Null
// destinations receive nothing.
func (r *Reproducer) transmit(pop *sim.Population, dst, a, b *sim.Genome) error {
	if dst.IsNull() {
		return nil
	}
	if b == nil || b.IsNull() {
		if err := dst.CopyFrom(a); err != nil {
			return err
		}
	} else if err := r.recombine(dst, a, b); err != nil {
		return err
	}
	return r.mutate(pop, dst)
}

// recombine copies alternating segments of a and b into dst, starting with
// a randomly chosen strand.
func (r *Reproducer) recombine(dst, a, b *sim.Genome) error {
	rng := r.rng.ForSubsystem(sim.SubsystemReproduction)
	if rng.Intn(2) == 1 {
		a, b = b, a
	}
	n := 0
	if r.crossovers.Lambda > 0 {
		n = int(r.crossovers.Rand())
	}
	if n == 0 {
		return dst.CopyFrom(a)
	}

	bp := r.breakpoints[:0]
	for k := 0; k < n; k++ {
		bp = append(bp, rng.Int63n(r.cfg.ChromosomeLength))
	}
	sort.Slice(bp, func(i, j int) bool { return bp[i] < bp[j] })
	r.breakpoints = bp

	dst.Clear()
	strands := [2][]*sim.Mutation{a.Mutations(), b.Mutations()}
	cursor := [2]int{}
	from := int64(0)
	cur := 0
	for _, end := range append(bp, r.cfg.ChromosomeLength) {
		// copy [from, end) from the current strand; skip it on the other
		for s := 0; s < 2; s++ {
			list := strands[s]
			for cursor[s] < len(list) && list[cursor[s]].Position() < end {
				if s == cur && list[cursor[s]].Position() >= from {
					if err := dst.Insert(list[cursor[s]]); err != nil {
						return err
					}
				}
				cursor[s]++
			}
		}
		from = end
		cur = 1 - cur
	}
	return nil
}

func (r *Reproducer) mutate(pop *sim.Population, g *sim.Genome) error {
	if r.types == nil || r.mutations.Lambda == 0 {
		return nil
	}
	rng := r.rng.ForSubsystem(sim.SubsystemMutation)
	n := int(r.mutations.Rand())
	for k := 0; k < n; k++ {
		mt := r.cfg.Types[r.types.Draw(rng)].Type
		m := pop.Registry.DrawMutation(rng, mt, rng.Int63n(r.cfg.ChromosomeLength), pop.Generation)
		if err := g.Insert(m); err != nil {
			return err
		}
	}
	return nil
}
