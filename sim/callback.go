package sim

import (
	"fmt"
	"math"
)

// Zygosity of a mutation within one individual.
type Zygosity int

const (
	// Hemizygous: the opposing chromosome copy is null.
	Hemizygous Zygosity = iota - 1
	Heterozygous
	Homozygous
)

func (z Zygosity) String() string {
	switch z {
	case Hemizygous:
		return "hemizygous"
	case Homozygous:
		return "homozygous"
	default:
		return "heterozygous"
	}
}

// CallbackKind distinguishes the callback variants.
type CallbackKind int

const (
	// TypeScoped callbacks apply to mutations of one mutation type.
	TypeScoped CallbackKind = iota
	// AllTypes callbacks apply to every mutation regardless of type.
	AllTypes
	// Global callbacks run once per individual, independent of genotype.
	Global
)

func (k CallbackKind) String() string {
	switch k {
	case AllTypes:
		return "all-types"
	case Global:
		return "global"
	default:
		return "type-scoped"
	}
}

// CallbackInvocation is what a fitness callback sees. Mutation is nil for
// global callbacks, which always receive RelFitness 1.0.
type CallbackInvocation struct {
	Mutation   *Mutation
	Zygosity   Zygosity
	RelFitness float64
	Individual *Individual
	Genome1    *Genome
	Genome2    *Genome
	Subpop     *Subpopulation
}

// CallbackFunc executes a callback body in the scripting engine. The engine
// returns its result vector; exactly one finite element is required.
type CallbackFunc func(inv *CallbackInvocation) ([]float64, error)

// FitnessCallback reweights fitness contributions. Construct with
// NewTypeScopedCallback, NewAllTypesCallback or NewGlobalCallback.
type FitnessCallback struct {
	Name   string
	Kind   CallbackKind
	TypeID int // meaningful only for TypeScoped
	Active bool

	// Constant, when non-nil, is the precomputed result of a body that is a
	// constant expression; Body is then never invoked.
	Constant []float64
	Body     CallbackFunc
}

// NewTypeScopedCallback returns an active callback for mutations of type typeID.
func NewTypeScopedCallback(name string, typeID int, body CallbackFunc) *FitnessCallback {
	return &FitnessCallback{Name: name, Kind: TypeScoped, TypeID: typeID, Active: true, Body: body}
}

// NewAllTypesCallback returns an active callback for every mutation.
func NewAllTypesCallback(name string, body CallbackFunc) *FitnessCallback {
	return &FitnessCallback{Name: name, Kind: AllTypes, Active: true, Body: body}
}

// NewGlobalCallback returns an active once-per-individual callback.
func NewGlobalCallback(name string, body CallbackFunc) *FitnessCallback {
	return &FitnessCallback{Name: name, Kind: Global, Active: true, Body: body}
}

// ConstantCallback returns a callback whose body is the constant v.
func ConstantCallback(name string, kind CallbackKind, typeID int, v float64) *FitnessCallback {
	return &FitnessCallback{Name: name, Kind: kind, TypeID: typeID, Active: true, Constant: []float64{v}}
}

// AppliesTo reports whether the callback should run for mutation m.
func (cb *FitnessCallback) AppliesTo(m *Mutation) bool {
	if !cb.Active {
		return false
	}
	switch cb.Kind {
	case AllTypes:
		return true
	case TypeScoped:
		return m != nil && m.mutType.ID == cb.TypeID
	}
	return false
}

func (cb *FitnessCallback) label() string {
	if cb.Name != "" {
		return cb.Name
	}
	if cb.Kind == TypeScoped {
		return fmt.Sprintf("fitness(m%d)", cb.TypeID)
	}
	return fmt.Sprintf("fitness(%v)", cb.Kind)
}

// invoke runs the callback and enforces the single-finite-value contract.
func (cb *FitnessCallback) invoke(op string, inv *CallbackInvocation) (float64, error) {
	result := cb.Constant
	if result == nil {
		if cb.Body == nil {
			return 0, callbackErrorf(op, "%s has neither a body nor a constant value", cb.label())
		}
		var err error
		result, err = cb.Body(inv)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %s: %w", ErrCallbackContract, op, cb.label(), err)
		}
	}
	if len(result) != 1 {
		return 0, callbackErrorf(op, "%s must return a single float value, got %d values", cb.label(), len(result))
	}
	v := result[0]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, callbackErrorf(op, "%s must return a finite value, got %v", cb.label(), v)
	}
	return v, nil
}

// CallbackSet partitions callbacks into per-mutation and global lists,
// preserving declaration order within each.
type CallbackSet struct {
	Mutation []*FitnessCallback
	Global   []*FitnessCallback
}

// NewCallbackSet sorts callbacks into their lists. Inactive callbacks are
// kept; they are skipped at invocation time.
func NewCallbackSet(callbacks ...*FitnessCallback) CallbackSet {
	var set CallbackSet
	for _, cb := range callbacks {
		if cb.Kind == Global {
			set.Global = append(set.Global, cb)
		} else {
			set.Mutation = append(set.Mutation, cb)
		}
	}
	return set
}
