package sim

import (
	"fmt"
	"sort"
)

// GenomeType identifies which chromosome a genome models.
type GenomeType int

const (
	Autosome GenomeType = iota
	XChromosome
	YChromosome
)

func (t GenomeType) String() string {
	switch t {
	case XChromosome:
		return "X"
	case YChromosome:
		return "Y"
	default:
		return "A"
	}
}

// ParseGenomeType accepts "A", "X" or "Y".
func ParseGenomeType(s string) (GenomeType, error) {
	switch s {
	case "", "A", "autosome":
		return Autosome, nil
	case "X":
		return XChromosome, nil
	case "Y":
		return YChromosome, nil
	}
	return Autosome, fmt.Errorf("unknown chromosome type %q; valid: A, X, Y", s)
}

// Genome is one chromosome copy: mutations sorted by non-decreasing position.
// A null genome stands in for a chromosome that is not modeled (the Y of a
// female when modeling Y, for example); it never carries mutations.
type Genome struct {
	typ       GenomeType
	null      bool
	mutations []*Mutation
}

func newGenome(typ GenomeType, null bool) Genome {
	return Genome{typ: typ, null: null}
}

func (g *Genome) Type() GenomeType { return g.typ }
func (g *Genome) IsNull() bool     { return g.null }

// Len is the number of mutations carried.
func (g *Genome) Len() int { return len(g.mutations) }

// Mutations returns the position-sorted mutation list. Callers must not
// modify the returned slice.
func (g *Genome) Mutations() []*Mutation { return g.mutations }

// Insert adds m after any mutations already at its position.
func (g *Genome) Insert(m *Mutation) error {
	if g.null {
		return usageErrorf("Genome.Insert", "cannot add %v to a null %v genome", m, g.typ)
	}
	i := sort.Search(len(g.mutations), func(i int) bool {
		return g.mutations[i].position > m.position
	})
	g.mutations = append(g.mutations, nil)
	copy(g.mutations[i+1:], g.mutations[i:])
	g.mutations[i] = m
	return nil
}

// CopyFrom replaces g's mutations with src's. The genome type and null flag
// of g are kept; copying mutations into a null genome is a usage error.
func (g *Genome) CopyFrom(src *Genome) error {
	if g.null {
		if src.Len() == 0 {
			return nil
		}
		return usageErrorf("Genome.CopyFrom", "cannot copy %d mutations into a null %v genome", src.Len(), g.typ)
	}
	g.mutations = append(g.mutations[:0], src.mutations...)
	return nil
}

// Clear removes every mutation while keeping capacity.
func (g *Genome) Clear() {
	g.mutations = g.mutations[:0]
}

// Contains reports whether the exact mutation m (by identity) is carried.
func (g *Genome) Contains(m *Mutation) bool {
	i := sort.Search(len(g.mutations), func(i int) bool {
		return g.mutations[i].position >= m.position
	})
	for ; i < len(g.mutations) && g.mutations[i].position == m.position; i++ {
		if g.mutations[i].id == m.id {
			return true
		}
	}
	return false
}

// CheckSorted verifies the position-ordering invariant the merge-scan needs.
func (g *Genome) CheckSorted() error {
	for i := 1; i < len(g.mutations); i++ {
		if g.mutations[i].position < g.mutations[i-1].position {
			return usageErrorf("Genome.CheckSorted", "mutation %d at position %d follows position %d",
				g.mutations[i].id, g.mutations[i].position, g.mutations[i-1].position)
		}
	}
	return nil
}

func (g *Genome) String() string {
	if g.null {
		return fmt.Sprintf("Genome<%v null>", g.typ)
	}
	return fmt.Sprintf("Genome<%v:%d>", g.typ, len(g.mutations))
}
