package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smithy-lang/smithy-model-core/internal/model"
	"github.com/smithy-lang/smithy-model-core/internal/shape"
	"github.com/smithy-lang/smithy-model-core/internal/shapeid"
	"github.com/smithy-lang/smithy-model-core/internal/trait"
)

func buildTestModel() *model.Model {
	b := model.NewBuilder()

	widget := shape.New(shapeid.New("ns", "Widget", ""), shape.TypeStructure)
	widget.Members = shape.NewMemberList()
	widget.Members.Put(&shape.Member{Name: "name", Target: shapeid.MustParse("smithy.api#String"), Traits: trait.NewMap()})
	widget.Traits.Put(trait.Trait{ID: shapeid.MustParse("smithy.api#required")})
	b.Put(widget)

	gadget := shape.New(shapeid.New("ns", "Gadget", ""), shape.TypeStructure)
	gadget.Members = shape.NewMemberList()
	b.Put(gadget)

	str := shape.New(shapeid.MustParse("smithy.api#String"), shape.TypeString)
	b.Put(str)

	op := shape.New(shapeid.New("ns", "DoThing", ""), shape.TypeOperation)
	b.Put(op)

	return b.Build()
}

func TestKindStepMatchesByName(t *testing.T) {
	m := buildTestModel()
	sel, err := Compile("structure")
	require.NoError(t, err)
	ids := sel.Select(m)
	require.Len(t, ids, 2)
	assert.Equal(t, "Gadget", ids[0].Name)
	assert.Equal(t, "Widget", ids[1].Name)
}

func TestStarMatchesEveryShape(t *testing.T) {
	m := buildTestModel()
	sel, err := Compile("*")
	require.NoError(t, err)
	assert.Len(t, sel.Select(m), m.Len())
}

func TestNeighborOperator(t *testing.T) {
	m := buildTestModel()
	sel, err := Compile("structure > string")
	require.NoError(t, err)
	ids := sel.Select(m)
	require.Len(t, ids, 1)
	assert.Equal(t, "String", ids[0].Name)
}

func TestIsCombinatorUnionsAlternatives(t *testing.T) {
	m := buildTestModel()
	sel, err := Compile(":is(operation, string)")
	require.NoError(t, err)
	ids := sel.Select(m)
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.Name
	}
	assert.ElementsMatch(t, []string{"DoThing", "String"}, names)
}

func TestNotCombinatorExcludes(t *testing.T) {
	m := buildTestModel()
	sel, err := Compile(":not(operation)")
	require.NoError(t, err)
	for _, id := range sel.Select(m) {
		assert.NotEqual(t, "DoThing", id.Name)
	}
}

func TestCompileRejectsUnclosedAttributeSelector(t *testing.T) {
	_, err := Compile("structure[trait|smithy.api#required")
	assert.Error(t, err)
}

func TestSelectResultsAreDeterministicallyOrdered(t *testing.T) {
	m := buildTestModel()
	sel, err := Compile("*")
	require.NoError(t, err)
	a := sel.Select(m)
	b := sel.Select(m)
	assert.Equal(t, a, b)
}
