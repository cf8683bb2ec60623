package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smithy-lang/smithy-model-core/internal/model"
	"github.com/smithy-lang/smithy-model-core/internal/shape"
	"github.com/smithy-lang/smithy-model-core/internal/shapeid"
	"github.com/smithy-lang/smithy-model-core/internal/trait"
	"github.com/smithy-lang/smithy-model-core/internal/node"
)

func tagged(name string, tags ...string) *shape.Shape {
	s := shape.New(shapeid.New("ns", name, ""), shape.TypeStructure)
	s.Members = shape.NewMemberList()
	if len(tags) > 0 {
		items := make([]node.Node, len(tags))
		for i, t := range tags {
			items[i] = node.Str(t)
		}
		s.Traits.Put(trait.Trait{ID: tagsTraitID, Value: node.Arr(items)})
	}
	return s
}

func TestDefaultRegistryHasAllStandardTransforms(t *testing.T) {
	r := Default()
	for _, name := range []string{
		"includeByTag", "excludeByTag", "includeNamespaces", "excludeShapesByTrait",
		"removeUnreferencedShapes", "removeTraitDefinitions", "renameShapes",
		"changeTypes", "flattenAndRemoveMixins", "sortMembers", "flattenNamespaces",
	} {
		_, ok := r.Get(name)
		assert.True(t, ok, "expected transform %q to be registered", name)
	}
}

func TestIncludeByTagKeepsOnlyTaggedAndPrunesUnreferenced(t *testing.T) {
	b := model.NewBuilder()
	b.Put(tagged("Kept", "keep-me"))
	b.Put(tagged("Dropped"))
	m := b.Build()

	out, err := IncludeByTag(m, map[string]interface{}{"tags": []string{"keep-me"}})
	require.NoError(t, err)

	ids := out.ShapeIDs()
	require.Len(t, ids, 1)
	assert.Equal(t, "Kept", ids[0].Name)
}

func TestExcludeByTagDropsTagged(t *testing.T) {
	b := model.NewBuilder()
	b.Put(tagged("Kept"))
	b.Put(tagged("Dropped", "internal"))
	m := b.Build()

	out, err := ExcludeByTag(m, map[string]interface{}{"tags": []string{"internal"}})
	require.NoError(t, err)

	ids := out.ShapeIDs()
	require.Len(t, ids, 1)
	assert.Equal(t, "Kept", ids[0].Name)
}

func TestIncludeNamespacesKeepsPrelude(t *testing.T) {
	b := model.NewBuilder()
	b.Put(shape.New(shapeid.New("keep.me", "Thing", ""), shape.TypeString))
	b.Put(shape.New(shapeid.New("other.ns", "Other", ""), shape.TypeString))
	b.Put(shape.New(shapeid.MustParse("smithy.api#String"), shape.TypeString))
	m := b.Build()

	out, err := IncludeNamespaces(m, map[string]interface{}{"namespaces": []string{"keep.me"}})
	require.NoError(t, err)

	var sawKept, sawOther, sawPrelude bool
	for _, id := range out.ShapeIDs() {
		switch {
		case id.Namespace == "keep.me":
			sawKept = true
		case id.Namespace == "other.ns":
			sawOther = true
		case id.Namespace == shapeid.PreludeNamespace:
			sawPrelude = true
		}
	}
	assert.True(t, sawKept)
	assert.False(t, sawOther)
	assert.True(t, sawPrelude)
}

func TestRemoveUnreferencedShapesKeepsOnlyReachableFromRoots(t *testing.T) {
	opID := shapeid.New("ns", "DoThing", "")
	inID := shapeid.New("ns", "DoThingInput", "")
	strID := shapeid.MustParse("smithy.api#String")
	orphanID := shapeid.New("ns", "Orphan", "")

	op := shape.New(opID, shape.TypeOperation)
	op.Input = &inID

	in := shape.New(inID, shape.TypeStructure)
	in.Members = shape.NewMemberList()
	in.Members.Put(&shape.Member{Name: "value", Target: strID, Traits: trait.NewMap()})

	b := model.NewBuilder()
	b.Put(op)
	b.Put(in)
	b.Put(shape.New(strID, shape.TypeString))
	b.Put(shape.New(orphanID, shape.TypeStructure))
	m := b.Build()

	out, err := RemoveUnreferencedShapes(m, nil)
	require.NoError(t, err)

	_, hasOrphan := indexByID(out)[orphanID]
	assert.False(t, hasOrphan)
	_, hasInput := indexByID(out)[inID]
	assert.True(t, hasInput)
}

func indexByID(m *model.Model) map[shapeid.ID]*shape.Shape {
	out := make(map[shapeid.ID]*shape.Shape)
	for _, s := range m.Shapes() {
		out[s.ID] = s
	}
	return out
}

func TestRemoveTraitDefinitionsDropsTraitShapes(t *testing.T) {
	traitShape := shape.New(shapeid.New("ns", "myTrait", ""), shape.TypeString)
	traitShape.Traits.Put(trait.Trait{ID: traitDefTraitID, Value: node.Obj(node.NewObject())})

	b := model.NewBuilder()
	b.Put(traitShape)
	b.Put(shape.New(shapeid.New("ns", "Plain", ""), shape.TypeString))
	m := b.Build()

	out, err := RemoveTraitDefinitions(m, nil)
	require.NoError(t, err)

	ids := out.ShapeIDs()
	require.Len(t, ids, 1)
	assert.Equal(t, "Plain", ids[0].Name)
}

func TestRenameShapesRewritesReferences(t *testing.T) {
	oldID := shapeid.New("ns", "Old", "")
	newID := shapeid.New("ns", "New", "")
	widgetID := shapeid.New("ns", "Widget", "")

	widget := shape.New(widgetID, shape.TypeStructure)
	widget.Members = shape.NewMemberList()
	widget.Members.Put(&shape.Member{Name: "ref", Target: oldID, Traits: trait.NewMap()})

	b := model.NewBuilder()
	b.Put(widget)
	b.Put(shape.New(oldID, shape.TypeString))
	m := b.Build()

	out, err := RenameShapes(m, map[string]interface{}{
		"shapes": map[string]interface{}{oldID.String(): newID.String()},
	})
	require.NoError(t, err)

	byID := indexByID(out)
	_, stillOld := byID[oldID]
	assert.False(t, stillOld)
	renamed, ok := byID[newID]
	require.True(t, ok)
	assert.Equal(t, shape.TypeString, renamed.Type)

	outWidget, ok := byID[widgetID]
	require.True(t, ok)
	member, ok := outWidget.Members.Get("ref")
	require.True(t, ok)
	assert.Equal(t, newID, member.Target)
}

func TestChangeTypesRetags(t *testing.T) {
	id := shapeid.New("ns", "Count", "")
	b := model.NewBuilder()
	b.Put(shape.New(id, shape.TypeInteger))
	m := b.Build()

	out, err := ChangeTypes(m, map[string]interface{}{
		"changes": []interface{}{
			map[string]interface{}{"shape": id.String(), "type": "long"},
		},
	})
	require.NoError(t, err)
	s, ok := indexByID(out)[id]
	require.True(t, ok)
	assert.Equal(t, shape.TypeLong, s.Type)
}

func TestFlattenAndRemoveMixinsClearsMixins(t *testing.T) {
	id := shapeid.New("ns", "Widget", "")
	s := shape.New(id, shape.TypeStructure)
	s.Members = shape.NewMemberList()
	s.Mixins = []shapeid.ID{shapeid.New("ns", "Base", "")}

	b := model.NewBuilder()
	b.Put(s)
	m := b.Build()

	out, err := FlattenAndRemoveMixins(m, nil)
	require.NoError(t, err)
	result, ok := indexByID(out)[id]
	require.True(t, ok)
	assert.Empty(t, result.Mixins)
}

func TestSortMembersOrdersAlphabetically(t *testing.T) {
	id := shapeid.New("ns", "Widget", "")
	s := shape.New(id, shape.TypeStructure)
	s.Members = shape.NewMemberList()
	strID := shapeid.MustParse("smithy.api#String")
	s.Members.Put(&shape.Member{Name: "zebra", Target: strID, Traits: trait.NewMap()})
	s.Members.Put(&shape.Member{Name: "apple", Target: strID, Traits: trait.NewMap()})

	b := model.NewBuilder()
	b.Put(s)
	m := b.Build()

	out, err := SortMembers(m, nil)
	require.NoError(t, err)
	result, ok := indexByID(out)[id]
	require.True(t, ok)
	assert.Equal(t, []string{"apple", "zebra"}, result.Members.Names())
}

func TestFlattenNamespacesRewritesIDsAndReferences(t *testing.T) {
	oldWidget := shapeid.New("a.ns", "Widget", "")
	oldPart := shapeid.New("a.ns", "Part", "")

	widget := shape.New(oldWidget, shape.TypeStructure)
	widget.Members = shape.NewMemberList()
	widget.Members.Put(&shape.Member{Name: "part", Target: oldPart, Traits: trait.NewMap()})

	b := model.NewBuilder()
	b.Put(widget)
	b.Put(shape.New(oldPart, shape.TypeStructure))
	b.Put(shape.New(shapeid.MustParse("smithy.api#String"), shape.TypeString))
	m := b.Build()

	out, err := FlattenNamespaces(m, map[string]interface{}{"namespace": "flat"})
	require.NoError(t, err)

	byID := indexByID(out)
	newWidget, ok := byID[shapeid.New("flat", "Widget", "")]
	require.True(t, ok)
	member, ok := newWidget.Members.Get("part")
	require.True(t, ok)
	assert.Equal(t, shapeid.New("flat", "Part", ""), member.Target)
	_, preludeStillPresent := byID[shapeid.MustParse("smithy.api#String")]
	assert.True(t, preludeStillPresent)
}
