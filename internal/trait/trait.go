// Package trait implements the Trait type and the trait-factory registry.
//
// Trait construction is dispatched through a map keyed on trait ID, with
// "how do I parse this trait's IDL syntax" left to the loader and "what
// Go value does this trait's Node payload become" handled here. The
// model is format agnostic, so the registry is driven purely by Node
// values, usable from both the IDL parser and the JSON AST codec.
package trait

import (
	"fmt"

	"github.com/smithy-lang/smithy-model-core/internal/node"
	"github.com/smithy-lang/smithy-model-core/internal/shapeid"
)

// Trait is the immutable pair (id, value).
type Trait struct {
	ID    shapeid.ID
	Value node.Node
}

// Definition captures a trait-definition shape's own metadata: the
// selector predicate traits of this kind must satisfy, and
// structural-exclusivity/conflict declarations.
type Definition struct {
	ID                    shapeid.ID
	Selector              string
	Conflicts             []shapeid.ID
	StructurallyExclusive string
}

// Factory converts a raw Node payload into a validated Trait value. It
// returns an error (rather than panicking) for malformed payloads; the
// loader is responsible for wrapping that error into a diagnostic event —
// this package never accumulates diagnostics itself.
type Factory func(id shapeid.ID, value node.Node) (Trait, error)

// Registry is a value composed at assembler-construction time, never a
// package-level singleton.
type Registry struct {
	factories map[shapeid.ID]Factory
	defs      map[shapeid.ID]*Definition
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[shapeid.ID]Factory),
		defs:      make(map[shapeid.ID]*Definition),
	}
}

func (r *Registry) Register(id shapeid.ID, f Factory) {
	r.factories[id] = f
}

func (r *Registry) RegisterDefinition(def *Definition) {
	r.defs[def.ID] = def
	if _, ok := r.factories[def.ID]; !ok {
		r.factories[def.ID] = PassthroughFactory
	}
}

func (r *Registry) Definition(id shapeid.ID) (*Definition, bool) {
	d, ok := r.defs[id]
	return d, ok
}

func (r *Registry) Factory(id shapeid.ID) (Factory, bool) {
	f, ok := r.factories[id]
	return f, ok
}

// Known reports whether id has either a registered factory or definition.
func (r *Registry) Known(id shapeid.ID) bool {
	if _, ok := r.factories[id]; ok {
		return true
	}
	_, ok := r.defs[id]
	return ok
}

// PassthroughFactory accepts any Node unmodified; used for trait ids with
// a registered @trait definition but no bespoke Go-side validation. The
// loader does not use it for unknown traits: those are reported as an
// UNKNOWN_TRAIT WARNING and dropped.
func PassthroughFactory(id shapeid.ID, value node.Node) (Trait, error) {
	return Trait{ID: id, Value: value}, nil
}

// AnnotationFactory requires an empty object value: any non-object
// payload is rejected, but an absent payload is turned into an empty
// object by the loader before this factory ever runs.
func AnnotationFactory(id shapeid.ID, value node.Node) (Trait, error) {
	if value.Kind() != node.KindObject {
		return Trait{}, fmt.Errorf("trait %s: annotation traits require an empty object value, found %s", id, value.Kind())
	}
	if obj, _ := value.AsObject(); obj.Length() != 0 {
		return Trait{}, fmt.Errorf("trait %s: annotation traits must have an empty object value", id)
	}
	return Trait{ID: id, Value: value}, nil
}

// StringFactory validates that value is a Node string.
func StringFactory(id shapeid.ID, value node.Node) (Trait, error) {
	if value.Kind() != node.KindString {
		return Trait{}, fmt.Errorf("trait %s: expected a string value, found %s", id, value.Kind())
	}
	return Trait{ID: id, Value: value}, nil
}

// BoolFactory validates that value is a Node boolean.
func BoolFactory(id shapeid.ID, value node.Node) (Trait, error) {
	if value.Kind() != node.KindBool {
		return Trait{}, fmt.Errorf("trait %s: expected a boolean value, found %s", id, value.Kind())
	}
	return Trait{ID: id, Value: value}, nil
}

// Map is an order-preserving trait-id -> Trait mapping attached to every
// shape and member.
type Map struct {
	keys   []shapeid.ID
	values map[shapeid.ID]Trait
}

func NewMap() *Map {
	return &Map{values: make(map[shapeid.ID]Trait)}
}

func (m *Map) Put(t Trait) {
	if _, ok := m.values[t.ID]; !ok {
		m.keys = append(m.keys, t.ID)
	}
	m.values[t.ID] = t
}

func (m *Map) Get(id shapeid.ID) (Trait, bool) {
	if m == nil {
		return Trait{}, false
	}
	t, ok := m.values[id]
	return t, ok
}

func (m *Map) Has(id shapeid.ID) bool {
	if m == nil {
		return false
	}
	_, ok := m.values[id]
	return ok
}

func (m *Map) Keys() []shapeid.ID {
	if m == nil {
		return nil
	}
	return m.keys
}

func (m *Map) Length() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

func (m *Map) Clone() *Map {
	c := NewMap()
	if m == nil {
		return c
	}
	for _, k := range m.keys {
		c.Put(m.values[k])
	}
	return c
}

// GetString returns the string value of a string-valued trait, or "" if
// absent or of the wrong kind.
func (m *Map) GetString(id shapeid.ID) string {
	t, ok := m.Get(id)
	if !ok {
		return ""
	}
	return t.Value.StringValue()
}

func (m *Map) GetBool(id shapeid.ID) bool {
	t, ok := m.Get(id)
	if !ok {
		return false
	}
	return t.Value.BoolValue()
}

// GetStringArray returns the string elements of an array-valued trait
// (used for @tags and similar).
func (m *Map) GetStringArray(id shapeid.ID) []string {
	t, ok := m.Get(id)
	if !ok {
		return nil
	}
	arr, err := t.Value.AsArray()
	if err != nil {
		return nil
	}
	var out []string
	for _, item := range arr {
		if item.Kind() == node.KindString {
			out = append(out, item.StringValue())
		}
	}
	return out
}
