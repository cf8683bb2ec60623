package trait

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smithy-lang/smithy-model-core/internal/node"
	"github.com/smithy-lang/smithy-model-core/internal/shapeid"
)

var requiredID = shapeid.MustParse("smithy.api#required")

func TestAnnotationFactoryAcceptsEmptyObject(t *testing.T) {
	tr, err := AnnotationFactory(requiredID, node.Obj(node.NewObject()))
	require.NoError(t, err)
	assert.Equal(t, requiredID, tr.ID)
}

func TestAnnotationFactoryRejectsNonEmptyObject(t *testing.T) {
	obj := node.NewObject()
	obj.Put("x", node.IntNode(1))
	_, err := AnnotationFactory(requiredID, node.Obj(obj))
	assert.Error(t, err)
}

func TestAnnotationFactoryRejectsNonObject(t *testing.T) {
	_, err := AnnotationFactory(requiredID, node.Str("nope"))
	assert.Error(t, err)
}

func TestStringFactory(t *testing.T) {
	_, err := StringFactory(requiredID, node.Str("hi"))
	assert.NoError(t, err)
	_, err = StringFactory(requiredID, node.IntNode(1))
	assert.Error(t, err)
}

func TestRegistryFactoryLookup(t *testing.T) {
	r := NewRegistry()
	r.Register(requiredID, AnnotationFactory)
	f, ok := r.Factory(requiredID)
	require.True(t, ok)
	_, err := f(requiredID, node.Obj(node.NewObject()))
	assert.NoError(t, err)

	_, ok = r.Factory(shapeid.MustParse("smithy.api#unknownTrait"))
	assert.False(t, ok)
}

func TestRegistryDefinitionRegistersPassthroughFactory(t *testing.T) {
	r := NewRegistry()
	r.RegisterDefinition(&Definition{ID: requiredID, Selector: "*"})
	f, ok := r.Factory(requiredID)
	require.True(t, ok)
	tr, err := f(requiredID, node.Str("anything"))
	require.NoError(t, err)
	assert.Equal(t, "anything", tr.Value.StringValue())
	assert.True(t, r.Known(requiredID))
}

func TestMapPreservesInsertOrderAndOverwrite(t *testing.T) {
	m := NewMap()
	idA := shapeid.MustParse("smithy.api#a")
	idB := shapeid.MustParse("smithy.api#b")
	m.Put(Trait{ID: idA, Value: node.IntNode(1)})
	m.Put(Trait{ID: idB, Value: node.IntNode(2)})
	m.Put(Trait{ID: idA, Value: node.IntNode(3)})

	assert.Equal(t, []shapeid.ID{idA, idB}, m.Keys())
	tr, ok := m.Get(idA)
	require.True(t, ok)
	n, _ := tr.Value.AsNumber()
	assert.Equal(t, int64(3), n.AsInt64())
}

func TestMapGetStringArray(t *testing.T) {
	m := NewMap()
	id := shapeid.MustParse("smithy.api#tags")
	m.Put(Trait{ID: id, Value: node.Arr([]node.Node{node.Str("a"), node.Str("b")})})
	assert.Equal(t, []string{"a", "b"}, m.GetStringArray(id))
}

func TestMapCloneIsIndependent(t *testing.T) {
	m := NewMap()
	id := shapeid.MustParse("smithy.api#a")
	m.Put(Trait{ID: id, Value: node.IntNode(1)})
	c := m.Clone()
	c.Put(Trait{ID: shapeid.MustParse("smithy.api#b"), Value: node.IntNode(2)})
	assert.Equal(t, 1, m.Length())
	assert.Equal(t, 2, c.Length())
}
