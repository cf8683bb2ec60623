package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smithy-lang/smithy-model-core/internal/shapeid"
)

func TestAssembleSimpleIDLStructure(t *testing.T) {
	src := `
$version: "2.0"
namespace example.widgets

structure Widget {
    @required
    name: String
}
`
	a := New(nil)
	a.AddSource("widgets.smithy", []byte(src))
	result := a.Assemble()
	require.NotNil(t, result.Model)
	for _, e := range result.Events {
		t.Logf("unexpected event: %s", e.String())
	}

	widgetID := shapeid.New("example.widgets", "Widget", "")
	s, ok := result.Model.Shape(widgetID)
	require.True(t, ok)
	member, ok := s.Members.Get("name")
	require.True(t, ok)
	assert.True(t, member.Traits.Has(shapeid.MustParse("smithy.api#required")))
}

func TestAssembleDetectsUnknownShapeTarget(t *testing.T) {
	src := `
$version: "2.0"
namespace example.widgets

structure Widget {
    gadget: Gadget
}
`
	a := New(nil)
	a.AddSource("widgets.smithy", []byte(src))
	result := a.Assemble()
	require.Nil(t, result.Model)
	require.NotEmpty(t, result.Events)
	assert.Equal(t, ErrUnknownShapeTarget, result.Events[0].ID)
}

func TestAssembleDetectsShapeConflict(t *testing.T) {
	a := New(nil)
	a.AddSource("a.smithy", []byte(`
$version: "2.0"
namespace example.widgets

structure Widget {
    name: String
}
`))
	a.AddSource("b.smithy", []byte(`
$version: "2.0"
namespace example.widgets

string Widget
`))
	result := a.Assemble()
	require.Nil(t, result.Model)
	var found bool
	for _, e := range result.Events {
		if e.ID == ErrShapeConflict {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAssembleDeduplicatesIdenticalShapeAcrossSources(t *testing.T) {
	shared := `
$version: "2.0"
namespace example.widgets

structure Widget {
    name: String
}
`
	a := New(nil)
	a.AddSource("a.smithy", []byte(shared))
	a.AddSource("b.smithy", []byte(shared))
	result := a.Assemble()
	require.NotNil(t, result.Model)
	for _, e := range result.Events {
		assert.NotEqual(t, ErrShapeConflict, e.ID)
	}
}

func TestAssembleResolvesMixins(t *testing.T) {
	src := `
$version: "2.0"
namespace example.widgets

@mixin
structure HasName {
    name: String
}

structure Widget with [HasName] {
    count: Integer
}
`
	a := New(nil)
	a.AddSource("widgets.smithy", []byte(src))
	result := a.Assemble()
	require.NotNil(t, result.Model)

	widget, ok := result.Model.Shape(shapeid.New("example.widgets", "Widget", ""))
	require.True(t, ok)
	_, hasName := widget.Members.Get("name")
	assert.True(t, hasName)
	_, hasCount := widget.Members.Get("count")
	assert.True(t, hasCount)
	assert.Equal(t, []string{"name", "count"}, widget.Members.Names(),
		"mixin members must precede the shape's own declared members")
}

func TestAssembleWarnsOnUnknownTraitButStillBuilds(t *testing.T) {
	src := `
$version: "2.0"
namespace example.widgets

@totallyUnknownTrait
structure Widget {
    name: String
}
`
	a := New(nil)
	a.AddSource("widgets.smithy", []byte(src))
	result := a.Assemble()
	require.NotNil(t, result.Model)
	var sawWarning bool
	for _, e := range result.Events {
		if e.ID == ErrUnknownTrait {
			sawWarning = true
		}
	}
	assert.True(t, sawWarning)
}

func TestIsJSONFileDetection(t *testing.T) {
	assert.True(t, isJSONFile("model.json"))
	assert.False(t, isJSONFile("model.smithy"))
	assert.True(t, isJSONFile(`{"smithy": "2.0"}`))
}

func TestAssembleFromJSONAST(t *testing.T) {
	src := `{
		"smithy": "2.0",
		"shapes": {
			"example.widgets#Widget": {
				"type": "structure",
				"members": {
					"name": { "target": "smithy.api#String" }
				}
			}
		}
	}`
	a := New(nil)
	a.AddSource("model.json", []byte(src))
	result := a.Assemble()
	require.NotNil(t, result.Model)
	_, ok := result.Model.Shape(shapeid.New("example.widgets", "Widget", ""))
	assert.True(t, ok)
}
