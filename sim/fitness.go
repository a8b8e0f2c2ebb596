package sim

import (
	"github.com/sirupsen/logrus"
)

// FitnessVariant is the evaluation strategy chosen for one fitness pass.
// All variants produce identical values for identical inputs; they differ
// only in which mutations are skipped or routed through callbacks.
type FitnessVariant int

const (
	// VariantNeutral: no callbacks and no non-neutral mutation can exist, so
	// every individual has fitness 1.0 without scanning.
	VariantNeutral FitnessVariant = iota
	// VariantNoCallbacks skips every mutation with s == 0.
	VariantNoCallbacks
	// VariantSingleCallback routes only the bound mutation type through
	// callbacks and skips neutral mutations of every other type.
	VariantSingleCallback
	// VariantCallbacks routes every mutation through callbacks.
	VariantCallbacks
)

func (v FitnessVariant) String() string {
	switch v {
	case VariantNeutral:
		return "neutral"
	case VariantNoCallbacks:
		return "no-callbacks"
	case VariantSingleCallback:
		return "single-callback"
	default:
		return "callbacks"
	}
}

// FitnessEvaluator computes individual fitness for one pass. It is built
// once per pass from the active callback set and discarded afterwards.
type FitnessEvaluator struct {
	variant    FitnessVariant
	callbacks  []*FitnessCallback // active per-mutation callbacks, declaration order
	globals    []*FitnessCallback // active global callbacks, declaration order
	singleType *MutationType
	xDominance float64

	// set per individual
	inv         CallbackInvocation
	invocations int
}

// NewFitnessEvaluator selects the variant for the given callbacks.
//
// A lone type-scoped callback whose type is not defined leaves the pass with
// no callbacks at all, even though the type might be defined later.
func NewFitnessEvaluator(reg *MutationRegistry, set CallbackSet, xDominance float64) *FitnessEvaluator {
	e := &FitnessEvaluator{xDominance: xDominance}
	for _, cb := range set.Mutation {
		if cb.Active {
			e.callbacks = append(e.callbacks, cb)
		}
	}
	for _, cb := range set.Global {
		if cb.Active {
			e.globals = append(e.globals, cb)
		}
	}

	if len(e.callbacks) == 1 && e.callbacks[0].Kind == TypeScoped {
		cb := e.callbacks[0]
		mt := reg.Type(cb.TypeID)
		switch {
		case mt == nil:
			logrus.Warnf("fitness callback %s refers to undefined mutation type m%d; evaluating without callbacks", cb.label(), cb.TypeID)
			e.callbacks = nil
		case reg.TypeCount() > 1:
			e.variant = VariantSingleCallback
			e.singleType = mt
			return e
		}
	}

	switch {
	case len(e.callbacks) > 0:
		e.variant = VariantCallbacks
	case len(e.globals) == 0 && reg.PureNeutral():
		e.variant = VariantNeutral
	default:
		e.variant = VariantNoCallbacks
	}
	return e
}

// Variant is the strategy selected for this pass.
func (e *FitnessEvaluator) Variant() FitnessVariant { return e.variant }

// Invocations is the number of callback executions so far, constant
// callbacks included.
func (e *FitnessEvaluator) Invocations() int { return e.invocations }

// Fitness returns the fitness of the individual carrying g1 and g2,
// including global callbacks. subpop is passed through to callbacks.
func (e *FitnessEvaluator) Fitness(subpop *Subpopulation, ind *Individual, g1, g2 *Genome) (float64, error) {
	if e.variant == VariantNeutral {
		return 1.0, nil
	}
	e.inv = CallbackInvocation{Individual: ind, Genome1: g1, Genome2: g2, Subpop: subpop}

	w, err := e.genotypeFitness(g1, g2)
	if err != nil {
		return 0, err
	}
	if len(e.globals) > 0 && w > 0 {
		gw, err := e.globalFitness()
		if err != nil {
			return 0, err
		}
		w *= gw
	}
	return w, nil
}

func (e *FitnessEvaluator) genotypeFitness(g1, g2 *Genome) (float64, error) {
	switch {
	case g1.null && g2.null:
		return 1.0, nil
	case g1.null:
		return e.hemizygousFitness(g2)
	case g2.null:
		return e.hemizygousFitness(g1)
	}
	return e.pairedFitness(g1.mutations, g2.mutations)
}

// routed reports whether m must go through callbacks.
func (e *FitnessEvaluator) routed(m *Mutation) bool {
	switch e.variant {
	case VariantCallbacks:
		return true
	case VariantSingleCallback:
		return m.mutType == e.singleType
	}
	return false
}

// skips reports whether m contributes nothing and need not be examined.
func (e *FitnessEvaluator) skips(m *Mutation) bool {
	return m.selection == 0 && !e.routed(m)
}

// accumulate multiplies the contribution of m into w.
func (e *FitnessEvaluator) accumulate(w float64, m *Mutation, zyg Zygosity, rel float64) (float64, error) {
	if !e.routed(m) {
		return w * rel, nil
	}
	rel, err := e.mutationCallbacks(m, zyg, rel)
	if err != nil {
		return 0, err
	}
	return w * rel, nil
}

func (e *FitnessEvaluator) hemizygousFitness(g *Genome) (float64, error) {
	w := 1.0
	var err error
	for _, m := range g.mutations {
		if e.skips(m) {
			continue
		}
		rel := 1 + m.selection
		if g.typ == XChromosome {
			rel = 1 + e.xDominance*m.selection
		}
		if w, err = e.accumulate(w, m, Hemizygous, rel); err != nil {
			return 0, err
		}
		if w <= 0 {
			return 0, nil
		}
	}
	return w, nil
}

// pairedFitness merge-scans two position-sorted lists. At a shared
// position every mutation of each list is looked up by identity among the
// other list's mutations at that position; a homozygous mutation is
// counted once, from the first list.
func (e *FitnessEvaluator) pairedFitness(muts1, muts2 []*Mutation) (float64, error) {
	w := 1.0
	var err error
	i, j := 0, 0

	for i < len(muts1) && j < len(muts2) {
		m1, m2 := muts1[i], muts2[j]

		switch {
		case m1.position < m2.position:
			i++
			if e.skips(m1) {
				continue
			}
			if w, err = e.accumulate(w, m1, Heterozygous, 1+m1.mutType.DominanceCoeff*m1.selection); err != nil {
				return 0, err
			}

		case m1.position > m2.position:
			j++
			if e.skips(m2) {
				continue
			}
			if w, err = e.accumulate(w, m2, Heterozygous, 1+m2.mutType.DominanceCoeff*m2.selection); err != nil {
				return 0, err
			}

		default:
			pos := m1.position
			start1 := i
			end2 := j
			for end2 < len(muts2) && muts2[end2].position == pos {
				end2++
			}

			for ; i < len(muts1) && muts1[i].position == pos; i++ {
				m := muts1[i]
				if e.skips(m) {
					continue
				}
				if containsIdentity(muts2[j:end2], m) {
					w, err = e.accumulate(w, m, Homozygous, 1+m.selection)
				} else {
					w, err = e.accumulate(w, m, Heterozygous, 1+m.mutType.DominanceCoeff*m.selection)
				}
				if err != nil {
					return 0, err
				}
				if w <= 0 {
					return 0, nil
				}
			}

			for ; j < end2; j++ {
				m := muts2[j]
				if e.skips(m) || containsIdentity(muts1[start1:i], m) {
					continue
				}
				if w, err = e.accumulate(w, m, Heterozygous, 1+m.mutType.DominanceCoeff*m.selection); err != nil {
					return 0, err
				}
				if w <= 0 {
					return 0, nil
				}
			}
		}

		if w <= 0 {
			return 0, nil
		}
	}

	for _, rest := range [][]*Mutation{muts1[i:], muts2[j:]} {
		for _, m := range rest {
			if e.skips(m) {
				continue
			}
			if w, err = e.accumulate(w, m, Heterozygous, 1+m.mutType.DominanceCoeff*m.selection); err != nil {
				return 0, err
			}
			if w <= 0 {
				return 0, nil
			}
		}
	}
	return w, nil
}

func containsIdentity(muts []*Mutation, m *Mutation) bool {
	for _, other := range muts {
		if other.id == m.id {
			return true
		}
	}
	return false
}

// mutationCallbacks chains every applicable callback over rel in
// declaration order.
func (e *FitnessEvaluator) mutationCallbacks(m *Mutation, zyg Zygosity, rel float64) (float64, error) {
	for _, cb := range e.callbacks {
		if !cb.AppliesTo(m) {
			continue
		}
		inv := e.inv
		inv.Mutation = m
		inv.Zygosity = zyg
		inv.RelFitness = rel
		v, err := cb.invoke("ApplyFitnessCallbacks", &inv)
		if err != nil {
			return 0, err
		}
		e.invocations++
		rel = v
	}
	return rel, nil
}

// globalFitness multiplies the results of every global callback, stopping
// at the first product <= 0.
func (e *FitnessEvaluator) globalFitness() (float64, error) {
	w := 1.0
	for _, cb := range e.globals {
		inv := e.inv
		inv.Mutation = nil
		inv.Zygosity = Hemizygous
		inv.RelFitness = 1.0
		v, err := cb.invoke("ApplyGlobalFitnessCallbacks", &inv)
		if err != nil {
			return 0, err
		}
		e.invocations++
		w *= v
		if w <= 0 {
			return 0, nil
		}
	}
	return w, nil
}
