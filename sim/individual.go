package sim

import (
	"fmt"
	"sort"
	"strings"
)

// Sex of an individual. Hermaphrodite is used when sex is not modeled.
type Sex int

const (
	Hermaphrodite Sex = iota
	Female
	Male
)

func (s Sex) String() string {
	switch s {
	case Female:
		return "F"
	case Male:
		return "M"
	default:
		return "H"
	}
}

// ExtensionStore is the ad hoc key/value state attached to an individual.
// It lives as long as the generation slot, not the genetic identity.
type ExtensionStore struct {
	values map[string]any
}

// SetValue stores v under key. A nil v removes the key.
func (e *ExtensionStore) SetValue(key string, v any) {
	if v == nil {
		delete(e.values, key)
		return
	}
	if e.values == nil {
		e.values = make(map[string]any)
	}
	e.values[key] = v
}

// GetValue returns the value under key.
func (e *ExtensionStore) GetValue(key string) (any, bool) {
	v, ok := e.values[key]
	return v, ok
}

// AllKeys returns the stored keys in sorted order.
func (e *ExtensionStore) AllKeys() []string {
	keys := make([]string, 0, len(e.values))
	for k := range e.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len is the number of stored keys.
func (e *ExtensionStore) Len() int { return len(e.values) }

// RemoveAllKeys drops every key.
func (e *ExtensionStore) RemoveAllKeys() {
	clear(e.values)
}

// Serialization renders the store as "key=value;" pairs in key order. Keys
// that would be ambiguous to parse are double-quoted.
func (e *ExtensionStore) Serialization() string {
	var sb strings.Builder
	for _, k := range e.AllKeys() {
		if strings.ContainsAny(k, "\"'\\\r\n\t =;") {
			sb.WriteString(fmt.Sprintf("%q", k))
		} else {
			sb.WriteString(k)
		}
		sb.WriteByte('=')
		sb.WriteString(fmt.Sprint(e.values[k]))
		sb.WriteByte(';')
	}
	return sb.String()
}

// Individual is one slot of a generation buffer. Its genomes live in the
// same buffer at 2*Index() and 2*Index()+1.
type Individual struct {
	index int
	sex   Sex

	Tag   int64
	Color string
	Ext   ExtensionStore
}

func (ind *Individual) Index() int { return ind.index }
func (ind *Individual) Sex() Sex   { return ind.sex }

// clearExtension drops per-slot state that must not leak into the next
// generation using this slot.
func (ind *Individual) clearExtension() {
	ind.Ext.RemoveAllKeys()
	ind.Color = ""
}

func (ind *Individual) String() string {
	return fmt.Sprintf("Individual<%d %v>", ind.index, ind.sex)
}
