package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smithy-lang/smithy-model-core/internal/shape"
	"github.com/smithy-lang/smithy-model-core/internal/shapeid"
	"github.com/smithy-lang/smithy-model-core/internal/trait"
)

func structureShape(id shapeid.ID, memberTargets map[string]shapeid.ID) *shape.Shape {
	s := shape.New(id, shape.TypeStructure)
	s.Members = shape.NewMemberList()
	for name, target := range memberTargets {
		s.Members.Put(&shape.Member{Name: name, Target: target, Traits: trait.NewMap()})
	}
	return s
}

func TestShapesReturnsDeterministicOrder(t *testing.T) {
	b := NewBuilder()
	b.Put(shape.New(shapeid.New("ns", "Zebra", ""), shape.TypeString))
	b.Put(shape.New(shapeid.New("ns", "Apple", ""), shape.TypeString))
	b.Put(shape.New(shapeid.New("abc", "Last", ""), shape.TypeString))
	m := b.Build()

	ids := m.ShapeIDs()
	require.Len(t, ids, 3)
	assert.Equal(t, "abc", ids[0].Namespace)
	assert.Equal(t, "Apple", ids[1].Name)
	assert.Equal(t, "Zebra", ids[2].Name)
}

func TestNeighborsFollowsMemberTargets(t *testing.T) {
	widgetID := shapeid.New("ns", "Widget", "")
	stringID := shapeid.MustParse("smithy.api#String")
	b := NewBuilder()
	b.Put(structureShape(widgetID, map[string]shapeid.ID{"name": stringID}))
	b.Put(shape.New(stringID, shape.TypeString))
	m := b.Build()

	assert.Equal(t, []shapeid.ID{stringID}, m.Neighbors(widgetID))
}

func TestReverseNeighbors(t *testing.T) {
	widgetID := shapeid.New("ns", "Widget", "")
	stringID := shapeid.MustParse("smithy.api#String")
	b := NewBuilder()
	b.Put(structureShape(widgetID, map[string]shapeid.ID{"name": stringID}))
	b.Put(shape.New(stringID, shape.TypeString))
	m := b.Build()

	assert.Equal(t, []shapeid.ID{widgetID}, m.ReverseNeighbors(stringID))
}

func TestOperationShapesAndPaginated(t *testing.T) {
	opID := shapeid.New("ns", "ListThings", "")
	op := shape.New(opID, shape.TypeOperation)
	paginatedID := shapeid.MustParse("smithy.api#paginated")
	op.Traits.Put(trait.Trait{ID: paginatedID})

	plainOpID := shapeid.New("ns", "GetThing", "")
	plainOp := shape.New(plainOpID, shape.TypeOperation)

	b := NewBuilder()
	b.Put(op)
	b.Put(plainOp)
	m := b.Build()

	assert.Len(t, m.OperationShapes(), 2)
	paginated := m.PaginatedOperations()
	require.Len(t, paginated, 1)
	assert.Equal(t, opID, paginated[0].ID)
}

func TestWalkVisitsTransitiveClosureOnce(t *testing.T) {
	a := shapeid.New("ns", "A", "")
	bID := shapeid.New("ns", "B", "")
	c := shapeid.New("ns", "C", "")

	builder := NewBuilder()
	builder.Put(structureShape(a, map[string]shapeid.ID{"b": bID}))
	builder.Put(structureShape(bID, map[string]shapeid.ID{"c": c, "backToA": a}))
	builder.Put(shape.New(c, shape.TypeString))
	m := builder.Build()

	var visited []shapeid.ID
	m.Walk(a, func(id shapeid.ID) bool {
		visited = append(visited, id)
		return true
	})
	assert.ElementsMatch(t, []shapeid.ID{a, bID, c}, visited)
}

func TestBuilderIDsAndDelete(t *testing.T) {
	b := NewBuilder()
	id := shapeid.New("ns", "A", "")
	b.Put(shape.New(id, shape.TypeString))
	assert.Len(t, b.IDs(), 1)
	b.Delete(id)
	assert.Equal(t, 0, b.Len())
}

func TestCloneProducesIndependentBuilder(t *testing.T) {
	id := shapeid.New("ns", "A", "")
	b := NewBuilder()
	b.Put(shape.New(id, shape.TypeString))
	m := b.Build()

	c := Clone(m)
	c.Put(shape.New(shapeid.New("ns", "B", ""), shape.TypeString))
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 2, c.Len())
}

func TestShapesOfType(t *testing.T) {
	b := NewBuilder()
	b.Put(shape.New(shapeid.New("ns", "A", ""), shape.TypeString))
	b.Put(shape.New(shapeid.New("ns", "B", ""), shape.TypeInteger))
	m := b.Build()

	strings := m.ShapesOfType(shape.TypeString)
	require.Len(t, strings, 1)
	assert.Equal(t, "A", strings[0].ID.Name)
}
