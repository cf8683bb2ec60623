package unparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smithy-lang/smithy-model-core/internal/loader"
)

func assembleOrFail(t *testing.T, src string) *loader.Result {
	t.Helper()
	a := loader.New(nil)
	a.AddSource("in.smithy", []byte(src))
	result := a.Assemble()
	require.NotNil(t, result.Model, "assembly failed: %+v", result.Events)
	return &result
}

func TestNamespacesExcludesPrelude(t *testing.T) {
	result := assembleOrFail(t, `
$version: "2.0"
namespace example.widgets

structure Widget {
    name: String
}
`)
	ns := Namespaces(result.Model)
	assert.Equal(t, []string{"example.widgets"}, ns)
}

func TestIDLRendersStructureWithRequiredMember(t *testing.T) {
	result := assembleOrFail(t, `
$version: "2.0"
namespace example.widgets

structure Widget {
    @required
    name: String
}
`)
	text := IDL(result.Model, "example.widgets")
	assert.Contains(t, text, "namespace example.widgets")
	assert.Contains(t, text, "structure Widget {")
	assert.Contains(t, text, "@required")
	assert.Contains(t, text, "name: String")
}

func TestIDLRendersListAndMap(t *testing.T) {
	result := assembleOrFail(t, `
$version: "2.0"
namespace example.widgets

list Names {
    member: String
}

map Scores {
    key: String,
    value: Integer
}
`)
	text := IDL(result.Model, "example.widgets")
	assert.Contains(t, text, "list Names {")
	assert.Contains(t, text, "member: String")
	assert.Contains(t, text, "map Scores {")
	assert.Contains(t, text, "key: String")
	assert.Contains(t, text, "value: Integer")
}

func TestIDLRendersOperationWithInlineInput(t *testing.T) {
	result := assembleOrFail(t, `
$version: "2.0"
namespace example.widgets

operation GetWidget {
    input := {
        @required
        id: String
    }
    output := {
        name: String
    }
}
`)
	text := IDL(result.Model, "example.widgets")
	assert.Contains(t, text, "operation GetWidget {")
	assert.Contains(t, text, "input := {")
	assert.Contains(t, text, "id: String")
	assert.Contains(t, text, "output := {")
}

func TestIDLRendersServiceWithOperationsAndVersion(t *testing.T) {
	result := assembleOrFail(t, `
$version: "2.0"
namespace example.widgets

operation Ping {}

service WidgetService {
    version: "2020-01-01"
    operations: [Ping]
}
`)
	text := IDL(result.Model, "example.widgets")
	assert.Contains(t, text, "service WidgetService {")
	assert.Contains(t, text, `version: "2020-01-01"`)
	assert.Contains(t, text, "operations: [Ping]")
}

func TestIDLUsesBareNamesWithinSameNamespaceAndPrelude(t *testing.T) {
	result := assembleOrFail(t, `
$version: "2.0"
namespace example.widgets

structure Part {}

structure Widget {
    part: Part
    label: String
}
`)
	text := IDL(result.Model, "example.widgets")
	assert.Contains(t, text, "part: Part")
	assert.Contains(t, text, "label: String")
	assert.NotContains(t, text, "example.widgets#Part")
	assert.NotContains(t, text, "smithy.api#String")
}

func TestIDLEmitsUseStatementForExternalNamespaceReference(t *testing.T) {
	a := loader.New(nil)
	a.AddSource("a.smithy", []byte(`
$version: "2.0"
namespace example.shared

structure Shared {}
`))
	a.AddSource("b.smithy", []byte(`
$version: "2.0"
namespace example.widgets

use example.shared#Shared

structure Widget {
    shared: Shared
}
`))
	result := a.Assemble()
	require.NotNil(t, result.Model)

	text := IDL(result.Model, "example.widgets")
	assert.Contains(t, text, "use example.shared#Shared")
}

func TestIDLRendersEnumMembers(t *testing.T) {
	result := assembleOrFail(t, `
$version: "2.0"
namespace example.widgets

enum Color {
    RED
    GREEN
    BLUE
}
`)
	text := IDL(result.Model, "example.widgets")
	assert.Contains(t, text, "enum Color {")
	assert.Contains(t, text, "RED")
	assert.Contains(t, text, "GREEN")
	assert.Contains(t, text, "BLUE")
}
