package sim

import (
	"math"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"
)

// generation is one of the two buffers of a subpopulation. individuals only
// ever grows; genomes holds exactly two entries per live individual.
type generation struct {
	individuals    []*Individual
	genomes        []Genome
	size           int
	sexRatio       float64
	firstMaleIndex int

	// lazily built read-only views; nil when stale
	individualView []*Individual
	genomeView     []*Genome
}

func (g *generation) invalidateViews() {
	g.individualView = nil
	g.genomeView = nil
}

func (g *generation) sameShape(o *generation) bool {
	return g.size == o.size && g.sexRatio == o.sexRatio && g.firstMaleIndex == o.firstMaleIndex
}

// SubpopConfig describes a subpopulation at creation.
type SubpopConfig struct {
	ID   int
	Size int

	// Sexual enables separate sexes. SexRatio is the male fraction,
	// ModeledChromosome selects autosome, X or Y modeling, and XDominance is
	// the dominance applied to hemizygous X mutations.
	Sexual            bool
	SexRatio          float64
	ModeledChromosome GenomeType
	XDominance        float64
}

// Subpopulation owns a double-buffered pair of generations, the fitness
// cache of the parent generation and the sampling tables built from it.
//
// A Subpopulation is not safe for concurrent use.
type Subpopulation struct {
	id  int
	pop *Population

	sexEnabled        bool
	modeledChromosome GenomeType
	xDominance        float64

	parent     *generation
	child      *generation
	childValid bool

	fitness     []float64 // len 0 while unreadable
	maleFitness []float64 // sexual only; 0 for females
	scanning    bool

	lookupParent *AliasTable // asexual / hermaphroditic
	lookupFemale *AliasTable
	lookupMale   *AliasTable // indices relative to firstMaleIndex

	selfingRate float64
	cloningRate [2]float64 // female (or all), male

	migrants map[int]float64

	boundsMin [3]float64
	boundsMax [3]float64

	Tag int64
}

// ID is the subpopulation identifier, printed as p<ID>.
func (s *Subpopulation) ID() int { return s.id }

// Population is the owning population.
func (s *Subpopulation) Population() *Population { return s.pop }

func (s *Subpopulation) SexEnabled() bool               { return s.sexEnabled }
func (s *Subpopulation) ModeledChromosome() GenomeType { return s.modeledChromosome }
func (s *Subpopulation) XDominance() float64            { return s.xDominance }

// ChildValid reports whether the child generation has been filled by
// reproduction and not yet promoted.
func (s *Subpopulation) ChildValid() bool { return s.childValid }

func newSubpopulation(pop *Population, cfg SubpopConfig) (*Subpopulation, error) {
	const op = "NewSubpopulation"
	if cfg.Size < 1 {
		return nil, configErrorf(op, "subpopulation p%d size must be >= 1, got %d", cfg.ID, cfg.Size)
	}
	if !cfg.Sexual && cfg.ModeledChromosome != Autosome {
		return nil, configErrorf(op, "subpopulation p%d models %v chromosomes without sex enabled", cfg.ID, cfg.ModeledChromosome)
	}
	if math.IsNaN(cfg.XDominance) || math.IsInf(cfg.XDominance, 0) {
		return nil, configErrorf(op, "subpopulation p%d X dominance must be finite, got %v", cfg.ID, cfg.XDominance)
	}

	s := &Subpopulation{
		id:                cfg.ID,
		pop:               pop,
		sexEnabled:        cfg.Sexual,
		modeledChromosome: cfg.ModeledChromosome,
		xDominance:        cfg.XDominance,
		parent:            &generation{size: cfg.Size},
		child:             &generation{size: cfg.Size},
		migrants:          make(map[int]float64),
		boundsMax:         [3]float64{1, 1, 1},
	}
	if cfg.Sexual {
		if cfg.SexRatio < 0 || cfg.SexRatio > 1 || math.IsNaN(cfg.SexRatio) {
			return nil, configErrorf(op, "subpopulation p%d sex ratio must be in [0, 1], got %v", cfg.ID, cfg.SexRatio)
		}
		s.parent.sexRatio = cfg.SexRatio
		s.child.sexRatio = cfg.SexRatio
	}
	if err := s.generateChildrenToFit(true); err != nil {
		return nil, err
	}

	// A new subpopulation starts with uniform fitness.
	ones := make([]float64, cfg.Size)
	for i := range ones {
		ones[i] = 1.0
	}
	if err := s.commitFitness(ones); err != nil {
		return nil, err
	}
	return s, nil
}

// firstMaleIndexFor returns the index of the first male for a sexual
// generation of the given size and male fraction.
func firstMaleIndexFor(op string, id, size int, sexRatio float64) (int, error) {
	males := int(math.Round(sexRatio * float64(size)))
	first := size - males
	if first <= 0 {
		return 0, configErrorf(op, "sex ratio %v in subpopulation p%d of size %d produced no females", sexRatio, id, size)
	}
	if first >= size {
		return 0, configErrorf(op, "sex ratio %v in subpopulation p%d of size %d produced no males", sexRatio, id, size)
	}
	return first, nil
}

// generateChildrenToFit sizes the child buffer (and the parent buffer when
// parentsAlso is set) to its metadata, with fresh empty genomes.
func (s *Subpopulation) generateChildrenToFit(parentsAlso bool) error {
	const op = "GenerateChildrenToFit"
	if s.scanning {
		return usageErrorf(op, "subpopulation p%d cannot be resized during a fitness pass", s.id)
	}

	gens := []*generation{s.child}
	if parentsAlso {
		gens = append(gens, s.parent)
	}
	for _, g := range gens {
		g.firstMaleIndex = g.size
		if s.sexEnabled {
			fm, err := firstMaleIndexFor(op, s.id, g.size, g.sexRatio)
			if err != nil {
				return err
			}
			g.firstMaleIndex = fm
		}
	}

	need := max(s.parent.size, s.child.size)
	for _, g := range []*generation{s.parent, s.child} {
		for len(g.individuals) < need {
			g.individuals = append(g.individuals, &Individual{index: len(g.individuals)})
		}
	}

	for _, g := range gens {
		s.fillGeneration(g)
	}
	return nil
}

func (s *Subpopulation) fillGeneration(g *generation) {
	g.genomes = g.genomes[:0]
	for i := 0; i < g.size; i++ {
		sex := s.sexAt(g, i)
		g.individuals[i].sex = sex
		g1, g2 := s.genomePair(sex)
		g.genomes = append(g.genomes, g1, g2)
	}
	g.invalidateViews()
}

func (s *Subpopulation) sexAt(g *generation, i int) Sex {
	switch {
	case !s.sexEnabled:
		return Hermaphrodite
	case i < g.firstMaleIndex:
		return Female
	default:
		return Male
	}
}

// genomePair returns the empty genomes of a new individual. Under X or Y
// modeling females carry X,X and males X,Y; the copy that is not the
// modeled chromosome is null.
func (s *Subpopulation) genomePair(sex Sex) (Genome, Genome) {
	if s.modeledChromosome == Autosome {
		return newGenome(Autosome, false), newGenome(Autosome, false)
	}
	xNull := s.modeledChromosome != XChromosome
	if sex == Male {
		return newGenome(XChromosome, xNull), newGenome(YChromosome, s.modeledChromosome != YChromosome)
	}
	return newGenome(XChromosome, xNull), newGenome(XChromosome, xNull)
}

// SwapGenerations promotes the child generation to parent in O(1). The
// children must have been committed with CommitChildren. The buffer that
// becomes the child has its per-slot extension state and color cleared and
// is regenerated only if its shape differs from the new parent.
func (s *Subpopulation) SwapGenerations() error {
	const op = "SwapGenerations"
	if s.scanning {
		return usageErrorf(op, "subpopulation p%d cannot swap generations during a fitness pass", s.id)
	}
	if !s.childValid {
		return usageErrorf(op, "subpopulation p%d has no committed child generation", s.id)
	}
	needNew := !s.child.sameShape(s.parent)

	s.parent, s.child = s.child, s.parent
	for _, ind := range s.child.individuals {
		ind.clearExtension()
	}
	s.child.size = s.parent.size
	s.child.sexRatio = s.parent.sexRatio
	s.child.firstMaleIndex = s.parent.firstMaleIndex
	s.parent.invalidateViews()
	s.child.invalidateViews()
	s.childValid = false

	// The cache describes the old parents.
	s.fitness = s.fitness[:0]
	s.maleFitness = s.maleFitness[:0]
	s.lookupParent, s.lookupFemale, s.lookupMale = nil, nil, nil

	if needNew {
		if err := s.generateChildrenToFit(false); err != nil {
			return err
		}
	}
	if s.pop.Observer != nil {
		s.pop.Observer.GenerationSwapped(s.id, s.pop.Generation, needNew)
	}
	return nil
}

// CommitChildren marks the child generation as filled. Reproduction calls
// it once every child genome has been written.
func (s *Subpopulation) CommitChildren() {
	s.childValid = true
	s.child.invalidateViews()
}

func (s *Subpopulation) current() *generation {
	if s.childValid {
		return s.child
	}
	return s.parent
}

// IndividualCount is the size of the current generation.
func (s *Subpopulation) IndividualCount() int { return s.current().size }

// FirstMaleIndex is the index of the first male of the current generation;
// it equals IndividualCount() when sex is not enabled.
func (s *Subpopulation) FirstMaleIndex() int { return s.current().firstMaleIndex }

// SexRatio is the male fraction of the current generation.
func (s *Subpopulation) SexRatio() float64 { return s.current().sexRatio }

// ParentSize is the size of the parent generation regardless of child state.
func (s *Subpopulation) ParentSize() int { return s.parent.size }

// ChildSize is the size the next child generation will have.
func (s *Subpopulation) ChildSize() int { return s.child.size }

// ParentFirstMaleIndex is the first male index of the parent generation.
func (s *Subpopulation) ParentFirstMaleIndex() int { return s.parent.firstMaleIndex }

// Individuals returns the current generation's individuals. The slice is
// shared and read-only.
func (s *Subpopulation) Individuals() []*Individual {
	g := s.current()
	if g.individualView == nil {
		g.individualView = g.individuals[:g.size:g.size]
	}
	return g.individualView
}

// Genomes returns the current generation's genomes, two per individual.
func (s *Subpopulation) Genomes() []*Genome {
	g := s.current()
	if g.genomeView == nil {
		view := make([]*Genome, len(g.genomes))
		for i := range g.genomes {
			view[i] = &g.genomes[i]
		}
		g.genomeView = view
	}
	return g.genomeView
}

// ParentIndividual returns parent individual i.
func (s *Subpopulation) ParentIndividual(i int) *Individual { return s.parent.individuals[i] }

// ParentGenomes returns the genome pair of parent individual i.
func (s *Subpopulation) ParentGenomes(i int) (*Genome, *Genome) {
	return &s.parent.genomes[2*i], &s.parent.genomes[2*i+1]
}

// ChildIndividual returns child individual i.
func (s *Subpopulation) ChildIndividual(i int) *Individual { return s.child.individuals[i] }

// ChildGenomes returns the genome pair of child individual i.
func (s *Subpopulation) ChildGenomes(i int) (*Genome, *Genome) {
	return &s.child.genomes[2*i], &s.child.genomes[2*i+1]
}

// ContainsGenome reports whether g belongs to either generation buffer.
func (s *Subpopulation) ContainsGenome(g *Genome) bool {
	for _, gen := range []*generation{s.parent, s.child} {
		for i := range gen.genomes {
			if &gen.genomes[i] == g {
				return true
			}
		}
	}
	return false
}

// UpdateFitness recomputes the fitness of every parent individual and
// rebuilds the sampling tables from it. The cache is unreadable until the
// pass completes.
func (s *Subpopulation) UpdateFitness(callbacks CallbackSet) error {
	const op = "UpdateFitness"
	if s.scanning {
		return usageErrorf(op, "subpopulation p%d fitness pass re-entered", s.id)
	}
	s.scanning = true
	defer func() { s.scanning = false }()

	n := s.parent.size
	work := s.fitness[:0]
	if cap(work) < n {
		work = make([]float64, 0, n)
	}
	s.fitness = work
	s.maleFitness = s.maleFitness[:0]
	s.lookupParent, s.lookupFemale, s.lookupMale = nil, nil, nil
	work = work[:n]

	eval := NewFitnessEvaluator(s.pop.Registry, callbacks, s.xDominance)
	for i := 0; i < n; i++ {
		g1, g2 := s.ParentGenomes(i)
		w, err := eval.Fitness(s, s.parent.individuals[i], g1, g2)
		if err != nil {
			return err
		}
		work[i] = w
	}

	s.scanning = false
	if err := s.commitFitness(work); err != nil {
		return err
	}

	pass := FitnessPass{
		SubpopID:            s.id,
		Generation:          s.pop.Generation,
		Variant:             eval.Variant(),
		Summary:             SummarizeFitness(work),
		CallbackInvocations: eval.Invocations(),
	}
	if s.sexEnabled {
		pass.FemaleTotal = s.lookupFemale.Total()
		pass.MaleTotal = s.lookupMale.Total()
	}
	logrus.Debugf("[gen %d] p%d fitness pass: variant=%v n=%d total=%.6g mean=%.6g callbacks=%d",
		pass.Generation, s.id, pass.Variant, n, pass.Summary.Total, pass.Summary.Mean, pass.CallbackInvocations)
	if s.pop.Observer != nil {
		s.pop.Observer.FitnessUpdated(pass)
	}
	return nil
}

// commitFitness installs values as the parent fitness cache and rebuilds
// the sampling tables. Sexual subpopulations sample females and males from
// separate tables, each of which must have a positive total.
func (s *Subpopulation) commitFitness(values []float64) error {
	const op = "UpdateFitness"
	if !s.sexEnabled {
		t, err := NewAliasTable(values)
		if err != nil {
			return computationErrorf(op, "total fitness of subpopulation p%d is <= 0", s.id)
		}
		s.lookupParent = t
		s.fitness = values
		return nil
	}

	fm := s.parent.firstMaleIndex
	females, err := NewAliasTable(values[:fm])
	if err != nil {
		return computationErrorf(op, "total fitness of females in subpopulation p%d is <= 0", s.id)
	}
	males, err := NewAliasTable(values[fm:])
	if err != nil {
		return computationErrorf(op, "total fitness of males in subpopulation p%d is <= 0", s.id)
	}
	s.lookupFemale, s.lookupMale = females, males

	mf := s.maleFitness[:0]
	if cap(mf) < len(values) {
		mf = make([]float64, 0, len(values))
	}
	mf = mf[:len(values)]
	for i := range mf {
		if i < fm {
			mf[i] = 0
		} else {
			mf[i] = values[i]
		}
	}
	s.maleFitness = mf
	s.fitness = values
	return nil
}

// CachedFitness returns the cached fitness of the given parent indices, or
// of every parent when none are given. The cache is unreadable between
// SwapGenerations and the next UpdateFitness.
func (s *Subpopulation) CachedFitness(indices ...int) ([]float64, error) {
	return s.readCache("CachedFitness", s.fitness, indices)
}

// CachedMaleFitness reads the male-only companion cache of a sexual
// subpopulation; females read as 0.
func (s *Subpopulation) CachedMaleFitness(indices ...int) ([]float64, error) {
	if !s.sexEnabled {
		return nil, usageErrorf("CachedMaleFitness", "subpopulation p%d is not sexual", s.id)
	}
	return s.readCache("CachedMaleFitness", s.maleFitness, indices)
}

func (s *Subpopulation) readCache(op string, cache []float64, indices []int) ([]float64, error) {
	if s.childValid {
		return nil, usageErrorf(op, "fitness is not available for p%d while the child generation is active", s.id)
	}
	if len(cache) == 0 {
		return nil, usageErrorf(op, "fitness of p%d has not been computed for the current parents", s.id)
	}
	if len(indices) == 0 {
		return append([]float64(nil), cache...), nil
	}
	out := make([]float64, len(indices))
	for k, i := range indices {
		if i < 0 || i >= len(cache) {
			return nil, usageErrorf(op, "index %d out of range for p%d of size %d", i, s.id, len(cache))
		}
		out[k] = cache[i]
	}
	return out, nil
}

// DrawParent returns a parent index drawn proportionally to fitness. It
// panics on a sexual subpopulation or before fitness has been computed.
func (s *Subpopulation) DrawParent(rng *rand.Rand) int {
	if s.sexEnabled {
		panic("Subpopulation.DrawParent: sexual subpopulations draw females and males separately")
	}
	if s.lookupParent == nil {
		panic("Subpopulation.DrawParent: no sampling table; run UpdateFitness first")
	}
	return s.lookupParent.Draw(rng)
}

// DrawFemaleParent returns the absolute index of a fitness-weighted female.
func (s *Subpopulation) DrawFemaleParent(rng *rand.Rand) int {
	if s.lookupFemale == nil {
		panic("Subpopulation.DrawFemaleParent: no female sampling table")
	}
	return s.lookupFemale.Draw(rng)
}

// DrawMaleParent returns the absolute index of a fitness-weighted male.
func (s *Subpopulation) DrawMaleParent(rng *rand.Rand) int {
	if s.lookupMale == nil {
		panic("Subpopulation.DrawMaleParent: no male sampling table")
	}
	return s.lookupMale.Draw(rng) + s.parent.firstMaleIndex
}

// SetSexRatio changes the male fraction of the next child generation and
// regenerates it.
func (s *Subpopulation) SetSexRatio(ratio float64) error {
	const op = "SetSexRatio"
	if s.childValid {
		return usageErrorf(op, "p%d: sex ratio may only be changed while the child generation is inactive", s.id)
	}
	if s.scanning {
		return usageErrorf(op, "p%d: sex ratio cannot change during a fitness pass", s.id)
	}
	if !s.sexEnabled {
		return configErrorf(op, "p%d: sex ratio requires sex to be enabled", s.id)
	}
	if ratio < 0 || ratio > 1 || math.IsNaN(ratio) {
		return configErrorf(op, "p%d: sex ratio %v out of range [0, 1]", s.id, ratio)
	}
	if _, err := firstMaleIndexFor(op, s.id, s.child.size, ratio); err != nil {
		return err
	}
	s.child.sexRatio = ratio
	return s.generateChildrenToFit(false)
}

// SetSubpopulationSize changes the size of the next child generation. A
// size of 0 removes the subpopulation.
func (s *Subpopulation) SetSubpopulationSize(n int) error {
	return s.pop.SetSize(s, n)
}

func (s *Subpopulation) resizeChildren(n int) error {
	const op = "SetSubpopulationSize"
	if s.childValid {
		return usageErrorf(op, "p%d: size may only be changed while the child generation is inactive", s.id)
	}
	if s.scanning {
		return usageErrorf(op, "p%d: size cannot change during a fitness pass", s.id)
	}
	if s.sexEnabled {
		if _, err := firstMaleIndexFor(op, s.id, n, s.child.sexRatio); err != nil {
			return err
		}
	}
	s.child.size = n
	return s.generateChildrenToFit(false)
}

// SelfingRate is the fraction of offspring produced by selfing.
func (s *Subpopulation) SelfingRate() float64 { return s.selfingRate }

// SetSelfingRate sets the selfing fraction; selfing requires hermaphrodites.
func (s *Subpopulation) SetSelfingRate(rate float64) error {
	const op = "SetSelfingRate"
	if rate < 0 || rate > 1 || math.IsNaN(rate) {
		return configErrorf(op, "p%d: selfing rate %v out of range [0, 1]", s.id, rate)
	}
	if rate != 0 && s.sexEnabled {
		return configErrorf(op, "p%d: selfing is not possible with separate sexes", s.id)
	}
	s.selfingRate = rate
	return nil
}

// CloningRate returns the cloning fraction of females (or of everyone when
// asexual) and of males.
func (s *Subpopulation) CloningRate() (female, male float64) {
	return s.cloningRate[0], s.cloningRate[1]
}

// SetCloningRate takes one rate, or for a sexual subpopulation optionally
// two rates (female, male).
func (s *Subpopulation) SetCloningRate(rates ...float64) error {
	const op = "SetCloningRate"
	switch {
	case len(rates) == 0:
		return usageErrorf(op, "p%d: at least one cloning rate is required", s.id)
	case s.sexEnabled && len(rates) > 2:
		return configErrorf(op, "p%d: cloning rate takes 1 or 2 values when sex is enabled, got %d", s.id, len(rates))
	case !s.sexEnabled && len(rates) != 1:
		return configErrorf(op, "p%d: cloning rate takes exactly 1 value when sex is not enabled, got %d", s.id, len(rates))
	}
	for _, r := range rates {
		if r < 0 || r > 1 || math.IsNaN(r) {
			return configErrorf(op, "p%d: cloning rate %v out of range [0, 1]", s.id, r)
		}
	}
	s.cloningRate = [2]float64{rates[0], rates[0]}
	if len(rates) == 2 {
		s.cloningRate[1] = rates[1]
	}
	return nil
}

// SetMigrationRates sets the fraction of the next child generation drawn
// from each source subpopulation. A rate of 0 removes the source.
func (s *Subpopulation) SetMigrationRates(sources []int, rates []float64) error {
	const op = "SetMigrationRates"
	if len(sources) != len(rates) {
		return configErrorf(op, "p%d: %d sources but %d rates", s.id, len(sources), len(rates))
	}
	seen := make(map[int]bool, len(sources))
	for k, src := range sources {
		if src == s.id {
			return configErrorf(op, "p%d: migration from a subpopulation to itself is not allowed", s.id)
		}
		if s.pop.Subpopulation(src) == nil {
			return configErrorf(op, "p%d: migration source p%d does not exist", s.id, src)
		}
		if seen[src] {
			return configErrorf(op, "p%d: migration source p%d given more than once", s.id, src)
		}
		seen[src] = true
		if r := rates[k]; r < 0 || r > 1 || math.IsNaN(r) {
			return configErrorf(op, "p%d: migration rate %v from p%d out of range [0, 1]", s.id, r, src)
		}
	}
	for k, src := range sources {
		if err := s.pop.SetMigration(s, src, rates[k]); err != nil {
			return err
		}
	}
	return nil
}

// ImmigrantSubpopIDs returns the migration sources in ascending order.
func (s *Subpopulation) ImmigrantSubpopIDs() []int {
	ids := make([]int, 0, len(s.migrants))
	for id := range s.migrants {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ImmigrantSubpopFractions returns the fractions matching ImmigrantSubpopIDs.
func (s *Subpopulation) ImmigrantSubpopFractions() []float64 {
	ids := s.ImmigrantSubpopIDs()
	out := make([]float64, len(ids))
	for k, id := range ids {
		out[k] = s.migrants[id]
	}
	return out
}

// SampleIndividuals draws n parent individuals uniformly, optionally
// restricted to one sex (Hermaphrodite means either).
func (s *Subpopulation) SampleIndividuals(rng *rand.Rand, n int, replace bool, sex Sex) ([]*Individual, error) {
	const op = "SampleIndividuals"
	if n < 0 {
		return nil, configErrorf(op, "p%d: sample size must be >= 0, got %d", s.id, n)
	}
	s.pop.warnEarlySample(s.id)

	lo, hi := 0, s.parent.size
	switch sex {
	case Female:
		if !s.sexEnabled {
			return nil, configErrorf(op, "p%d: cannot sample females when sex is not enabled", s.id)
		}
		hi = s.parent.firstMaleIndex
	case Male:
		if !s.sexEnabled {
			return nil, configErrorf(op, "p%d: cannot sample males when sex is not enabled", s.id)
		}
		lo = s.parent.firstMaleIndex
	}
	count := hi - lo
	if n > 0 && count == 0 {
		return nil, configErrorf(op, "p%d: no %v individuals to sample", s.id, sex)
	}
	if !replace && n > count {
		return nil, configErrorf(op, "p%d: cannot sample %d individuals without replacement from %d", s.id, n, count)
	}

	out := make([]*Individual, n)
	if replace {
		for k := range out {
			out[k] = s.parent.individuals[lo+rng.Intn(count)]
		}
		return out, nil
	}
	idx := make([]int, count)
	for k := range idx {
		idx[k] = lo + k
	}
	for k := 0; k < n; k++ {
		j := k + rng.Intn(count-k)
		idx[k], idx[j] = idx[j], idx[k]
		out[k] = s.parent.individuals[idx[k]]
	}
	return out, nil
}
