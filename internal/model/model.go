// Package model implements the Model: the immutable aggregation of
// shapes keyed by shape ID, plus derived indexes.
//
// Model is the semantic, queryable graph (shapeid.ID-keyed, index
// bearing); internal/loader owns the IDL and JSON AST codecs and builds
// a Model on assembly, keeping the wire formats separate from the graph
// that transforms, mixins and validation operate on.
package model

import (
	"sort"
	"sync"

	"github.com/smithy-lang/smithy-model-core/internal/node"
	"github.com/smithy-lang/smithy-model-core/internal/shape"
	"github.com/smithy-lang/smithy-model-core/internal/shapeid"
)

// Model is immutable after construction: NewModel takes ownership of the
// shapes map and never exposes a way to mutate a Shape in place. A
// transform produces a new Model (typically sharing most Shape pointers
// with its predecessor, since Shapes reference each other by ID and not
// by pointer).
type Model struct {
	shapes   map[shapeid.ID]*shape.Shape
	sorted   []shapeid.ID
	metadata *node.Object

	once struct {
		neighbors   sync.Once
		reverse     sync.Once
		operations  sync.Once
		paginated   sync.Once
	}
	neighbors  map[shapeid.ID][]shapeid.ID
	reverse    map[shapeid.ID][]shapeid.ID
	operations []*shape.Shape
	paginated  []*shape.Shape
}

func NewModel(shapes map[shapeid.ID]*shape.Shape) *Model {
	return NewModelWithMetadata(shapes, nil)
}

// NewModelWithMetadata is NewModel plus the top-level metadata object
// (the IDL `metadata` statement / JSON AST "metadata" field) carried
// alongside the shape map, e.g. for reading `metadata.suppressions`.
func NewModelWithMetadata(shapes map[shapeid.ID]*shape.Shape, metadata *node.Object) *Model {
	m := &Model{shapes: shapes, metadata: metadata}
	m.sorted = make([]shapeid.ID, 0, len(shapes))
	for id := range shapes {
		m.sorted = append(m.sorted, id)
	}
	sort.Slice(m.sorted, func(i, j int) bool {
		return lessID(m.sorted[i], m.sorted[j])
	})
	return m
}

// Metadata returns the model's top-level metadata object, or an empty one
// if none was set.
func (m *Model) Metadata() *node.Object {
	if m.metadata == nil {
		return node.NewObject()
	}
	return m.metadata
}

func lessID(a, b shapeid.ID) bool {
	if a.Namespace != b.Namespace {
		return a.Namespace < b.Namespace
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.Member < b.Member
}

func (m *Model) Shape(id shapeid.ID) (*shape.Shape, bool) {
	s, ok := m.shapes[id]
	return s, ok
}

func (m *Model) MustShape(id shapeid.ID) *shape.Shape {
	return m.shapes[id]
}

// Shapes returns every shape in deterministic ID order.
func (m *Model) Shapes() []*shape.Shape {
	out := make([]*shape.Shape, 0, len(m.sorted))
	for _, id := range m.sorted {
		out = append(out, m.shapes[id])
	}
	return out
}

func (m *Model) ShapeIDs() []shapeid.ID {
	return m.sorted
}

func (m *Model) Len() int { return len(m.shapes) }

// ShapesOfType filters Shapes() by kind, preserving ID order.
func (m *Model) ShapesOfType(t shape.Type) []*shape.Shape {
	var out []*shape.Shape
	for _, id := range m.sorted {
		s := m.shapes[id]
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out
}

// Neighbors returns the shape IDs directly referenced by id (member
// targets, operation input/output/errors, resource/service references),
// computed once and memoized.
func (m *Model) Neighbors(id shapeid.ID) []shapeid.ID {
	m.once.neighbors.Do(m.buildNeighbors)
	return m.neighbors[id]
}

func (m *Model) buildNeighbors() {
	m.neighbors = make(map[shapeid.ID][]shapeid.ID, len(m.shapes))
	for id, s := range m.shapes {
		m.neighbors[id] = s.Targets()
	}
}

// ReverseNeighbors returns every shape ID that directly references id.
func (m *Model) ReverseNeighbors(id shapeid.ID) []shapeid.ID {
	m.once.reverse.Do(m.buildReverse)
	return m.reverse[id]
}

func (m *Model) buildReverse() {
	m.reverse = make(map[shapeid.ID][]shapeid.ID)
	for _, id := range m.sorted {
		s := m.shapes[id]
		for _, t := range s.Targets() {
			m.reverse[t] = append(m.reverse[t], id)
		}
	}
}

// OperationShapes returns every operation-kind shape, ID order.
func (m *Model) OperationShapes() []*shape.Shape {
	m.once.operations.Do(func() {
		m.operations = m.ShapesOfType(shape.TypeOperation)
	})
	return m.operations
}

var paginatedTrait = shapeid.MustParse("smithy.api#paginated")

// PaginatedOperations returns every operation shape carrying @paginated.
func (m *Model) PaginatedOperations() []*shape.Shape {
	m.once.paginated.Do(func() {
		for _, op := range m.OperationShapes() {
			if op.Traits.Has(paginatedTrait) {
				m.paginated = append(m.paginated, op)
			}
		}
	})
	return m.paginated
}

// Walk performs a depth-first traversal over the transitive closure of
// id's Targets and the IDs of the traits applied to each visited shape,
// visiting each reachable shape ID exactly once.
func (m *Model) Walk(start shapeid.ID, visit func(shapeid.ID) bool) {
	visited := make(map[shapeid.ID]bool)
	var walk func(id shapeid.ID)
	walk = func(id shapeid.ID) {
		if visited[id] {
			return
		}
		visited[id] = true
		if !visit(id) {
			return
		}
		for _, t := range m.Neighbors(id) {
			walk(t)
		}
		if s, ok := m.shapes[id]; ok {
			for _, tid := range s.Traits.Keys() {
				walk(tid)
			}
		}
	}
	walk(start)
}

// Builder accumulates shapes during loading, before the Model is frozen.
type Builder struct {
	shapes   map[shapeid.ID]*shape.Shape
	metadata *node.Object
}

func NewBuilder() *Builder {
	return &Builder{shapes: make(map[shapeid.ID]*shape.Shape)}
}

// SetMetadata attaches the top-level metadata object the built Model will
// carry.
func (b *Builder) SetMetadata(metadata *node.Object) {
	b.metadata = metadata
}

func (b *Builder) Put(s *shape.Shape) {
	b.shapes[s.ID] = s
}

func (b *Builder) Get(id shapeid.ID) (*shape.Shape, bool) {
	s, ok := b.shapes[id]
	return s, ok
}

func (b *Builder) Delete(id shapeid.ID) {
	delete(b.shapes, id)
}

func (b *Builder) Len() int { return len(b.shapes) }

// IDs returns every shape ID currently in the builder, unordered.
func (b *Builder) IDs() []shapeid.ID {
	out := make([]shapeid.ID, 0, len(b.shapes))
	for id := range b.shapes {
		out = append(out, id)
	}
	return out
}

func (b *Builder) Build() *Model {
	return NewModelWithMetadata(b.shapes, b.metadata)
}

// Clone returns a Builder pre-populated with every shape of m (and its
// metadata), for transforms that need to mutate the shape set.
func Clone(m *Model) *Builder {
	b := NewBuilder()
	for id, s := range m.shapes {
		b.shapes[id] = s
	}
	b.metadata = m.metadata
	return b
}
