package sim

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// DFEKind names a distribution of fitness effects.
type DFEKind string

const (
	DFEFixed       DFEKind = "fixed"       // every draw returns Params[0]
	DFEExponential DFEKind = "exponential" // mean Params[0], sign follows the mean
	DFENormal      DFEKind = "normal"      // mean Params[0], stddev Params[1]
)

// DFE is the distribution selection coefficients of new mutations are drawn from.
type DFE struct {
	Kind   DFEKind
	Params []float64
}

// Draw samples one selection coefficient.
func (d DFE) Draw(rng *rand.Rand) float64 {
	switch d.Kind {
	case DFEExponential:
		return rng.ExpFloat64() * d.Params[0]
	case DFENormal:
		return rng.NormFloat64()*d.Params[1] + d.Params[0]
	default:
		return d.Params[0]
	}
}

// IsNeutral reports whether every draw from d is exactly zero.
func (d DFE) IsNeutral() bool {
	switch d.Kind {
	case DFEFixed, DFEExponential:
		return d.Params[0] == 0
	case DFENormal:
		return d.Params[0] == 0 && d.Params[1] == 0
	}
	return false
}

// Validate checks the parameter count and finiteness for the DFE kind.
func (d DFE) Validate() error {
	want := map[DFEKind]int{DFEFixed: 1, DFEExponential: 1, DFENormal: 2}
	n, ok := want[d.Kind]
	if !ok {
		return fmt.Errorf("unknown DFE kind %q; valid: fixed, exponential, normal", d.Kind)
	}
	if len(d.Params) != n {
		return fmt.Errorf("DFE %q takes %d parameter(s), got %d", d.Kind, n, len(d.Params))
	}
	for i, p := range d.Params {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("DFE %q parameter %d must be finite, got %f", d.Kind, i, p)
		}
	}
	if d.Kind == DFENormal && d.Params[1] < 0 {
		return fmt.Errorf("DFE normal stddev must be non-negative, got %f", d.Params[1])
	}
	return nil
}

// MutationType is shared by reference among all mutations of the type.
type MutationType struct {
	ID             int
	DominanceCoeff float64
	DFE            DFE
}

// Mutation is an immutable variant record. Two mutations are the same
// mutation only if they have the same ID; equal positions and coefficients
// do not make them equal.
type Mutation struct {
	id        int64
	position  int64
	selection float64
	mutType   *MutationType
	origin    int64
}

func (m *Mutation) ID() int64               { return m.id }
func (m *Mutation) Position() int64         { return m.position }
func (m *Mutation) SelectionCoeff() float64 { return m.selection }
func (m *Mutation) Type() *MutationType     { return m.mutType }

// OriginGeneration is the generation the mutation arose in.
func (m *Mutation) OriginGeneration() int64 { return m.origin }

// DominanceCoeff is the dominance coefficient of the mutation's type.
func (m *Mutation) DominanceCoeff() float64 { return m.mutType.DominanceCoeff }

func (m *Mutation) String() string {
	return fmt.Sprintf("Mutation<%d @%d s=%g m%d>", m.id, m.position, m.selection, m.mutType.ID)
}

// MutationRegistry owns the mutation types of a simulation and hands out
// mutations with monotonically increasing IDs.
type MutationRegistry struct {
	nextID     int64
	types      map[int]*MutationType
	nonNeutral bool // a mutation with s != 0 has been created
}

// NewMutationRegistry creates an empty registry.
func NewMutationRegistry() *MutationRegistry {
	return &MutationRegistry{types: make(map[int]*MutationType)}
}

// DefineType registers a mutation type. IDs must be unique.
func (r *MutationRegistry) DefineType(id int, dominance float64, dfe DFE) (*MutationType, error) {
	if _, exists := r.types[id]; exists {
		return nil, configErrorf("DefineType", "mutation type m%d already defined", id)
	}
	if err := dfe.Validate(); err != nil {
		return nil, configErrorf("DefineType", "mutation type m%d: %v", id, err)
	}
	if math.IsNaN(dominance) || math.IsInf(dominance, 0) {
		return nil, configErrorf("DefineType", "mutation type m%d dominance must be finite, got %f", id, dominance)
	}
	mt := &MutationType{ID: id, DominanceCoeff: dominance, DFE: dfe}
	r.types[id] = mt
	return mt, nil
}

// Type returns the mutation type with the given id, or nil.
func (r *MutationRegistry) Type(id int) *MutationType {
	return r.types[id]
}

// TypeCount is the number of defined mutation types.
func (r *MutationRegistry) TypeCount() int {
	return len(r.types)
}

// Types returns the defined mutation types ordered by id.
func (r *MutationRegistry) Types() []*MutationType {
	out := make([]*MutationType, 0, len(r.types))
	for _, mt := range r.types {
		out = append(out, mt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PureNeutral reports whether no mutation with a non-zero selection
// coefficient exists or can be drawn from a defined type.
func (r *MutationRegistry) PureNeutral() bool {
	if r.nonNeutral {
		return false
	}
	for _, mt := range r.types {
		if !mt.DFE.IsNeutral() {
			return false
		}
	}
	return true
}

// NewMutation creates a mutation with the next identity.
func (r *MutationRegistry) NewMutation(mt *MutationType, position int64, selection float64, origin int64) *Mutation {
	if mt == nil {
		panic("MutationRegistry.NewMutation: nil mutation type")
	}
	r.nextID++
	if selection != 0 {
		r.nonNeutral = true
	}
	return &Mutation{
		id:        r.nextID,
		position:  position,
		selection: selection,
		mutType:   mt,
		origin:    origin,
	}
}

// DrawMutation creates a mutation whose selection coefficient is drawn from
// the type's DFE.
func (r *MutationRegistry) DrawMutation(rng *rand.Rand, mt *MutationType, position int64, origin int64) *Mutation {
	return r.NewMutation(mt, position, mt.DFE.Draw(rng), origin)
}
