package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smithy-lang/smithy-model-core/internal/diag"
	"github.com/smithy-lang/smithy-model-core/internal/model"
	"github.com/smithy-lang/smithy-model-core/internal/node"
	"github.com/smithy-lang/smithy-model-core/internal/shape"
	"github.com/smithy-lang/smithy-model-core/internal/shapeid"
	"github.com/smithy-lang/smithy-model-core/internal/trait"
)

func newStructure(id shapeid.ID, members map[string]shapeid.ID) *shape.Shape {
	s := shape.New(id, shape.TypeStructure)
	s.Members = shape.NewMemberList()
	for name, target := range members {
		s.Members.Put(&shape.Member{Name: name, Target: target, Traits: trait.NewMap()})
	}
	return s
}

func TestRegistryRunRecoversFromPanic(t *testing.T) {
	r := NewRegistry()
	r.Register("boom", func(m *model.Model) []diag.Event {
		panic("kaboom")
	})
	b := model.NewBuilder()
	events := r.Run(b.Build())
	require.Len(t, events, 1)
	assert.Equal(t, "VALIDATOR_PANIC", events[0].ID)
	assert.Equal(t, diag.Error, events[0].Severity)
}

func TestDefaultRegistryHasAllBuiltins(t *testing.T) {
	r := Default()
	for _, name := range []string{
		"TargetResolution", "TraitApplicability", "ShapeKindConstraints",
		"ServiceClosureUniqueness", "HttpBindingConsistency", "Pagination",
		"EnumUniqueness", "DefaultRequiredInteraction",
	} {
		_, ok := r.funcs[name]
		assert.True(t, ok, "expected validator %q to be registered", name)
	}
}

func TestValidateTargetResolutionFindsDanglingReference(t *testing.T) {
	widgetID := shapeid.New("ns", "Widget", "")
	missing := shapeid.New("ns", "Missing", "")
	b := model.NewBuilder()
	b.Put(newStructure(widgetID, map[string]shapeid.ID{"ref": missing}))
	m := b.Build()

	events := validateTargetResolution(m)
	require.Len(t, events, 1)
	assert.Equal(t, "UNKNOWN_SHAPE_TARGET", events[0].ID)
}

func TestValidateTargetResolutionPassesWhenResolved(t *testing.T) {
	widgetID := shapeid.New("ns", "Widget", "")
	strID := shapeid.MustParse("smithy.api#String")
	b := model.NewBuilder()
	b.Put(newStructure(widgetID, map[string]shapeid.ID{"ref": strID}))
	b.Put(shape.New(strID, shape.TypeString))
	m := b.Build()

	assert.Empty(t, validateTargetResolution(m))
}

func TestValidateShapeKindConstraintsFlagsListWithoutMember(t *testing.T) {
	listID := shapeid.New("ns", "Names", "")
	list := shape.New(listID, shape.TypeList)
	b := model.NewBuilder()
	b.Put(list)
	m := b.Build()

	events := validateShapeKindConstraints(m)
	require.Len(t, events, 1)
	assert.Equal(t, "SHAPE_KIND_CONSTRAINT", events[0].ID)
}

func TestValidateShapeKindConstraintsFlagsNonStructureOperationInput(t *testing.T) {
	inID := shapeid.New("ns", "NotAStruct", "")
	opID := shapeid.New("ns", "DoThing", "")
	op := shape.New(opID, shape.TypeOperation)
	op.Input = &inID

	b := model.NewBuilder()
	b.Put(op)
	b.Put(shape.New(inID, shape.TypeString))
	m := b.Build()

	events := validateShapeKindConstraints(m)
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Message, "must be a structure")
}

func TestValidateDefaultRequiredInteractionConflict(t *testing.T) {
	strID := shapeid.MustParse("smithy.api#String")
	widgetID := shapeid.New("ns", "Widget", "")
	s := shape.New(widgetID, shape.TypeStructure)
	s.Members = shape.NewMemberList()
	mem := &shape.Member{Name: "field", Target: strID, Traits: trait.NewMap()}
	mem.Traits.Put(trait.Trait{ID: requiredTraitID})
	mem.Traits.Put(trait.Trait{ID: defaultTraitID, Value: node.Str("")})
	s.Members.Put(mem)

	b := model.NewBuilder()
	b.Put(s)
	m := b.Build()

	events := validateDefaultRequiredInteraction(m)
	require.Len(t, events, 1)
	assert.Equal(t, "DEFAULT_REQUIRED_CONFLICT", events[0].ID)
}

func TestValidateEnumUniquenessFlagsDuplicateValues(t *testing.T) {
	enumID := shapeid.New("ns", "Color", "")
	s := shape.New(enumID, shape.TypeEnum)
	s.Members = shape.NewMemberList()
	enumValueTraitID := shapeid.New(shapeid.PreludeNamespace, "enumValue", "")

	red := &shape.Member{Name: "RED", Target: shapeid.MustParse("smithy.api#String"), Traits: trait.NewMap()}
	red.Traits.Put(trait.Trait{ID: enumValueTraitID, Value: node.Str("red")})
	crimson := &shape.Member{Name: "CRIMSON", Target: shapeid.MustParse("smithy.api#String"), Traits: trait.NewMap()}
	crimson.Traits.Put(trait.Trait{ID: enumValueTraitID, Value: node.Str("red")})
	s.Members.Put(red)
	s.Members.Put(crimson)

	b := model.NewBuilder()
	b.Put(s)
	m := b.Build()

	events := validateEnumUniqueness(m)
	require.Len(t, events, 1)
	assert.Equal(t, "ENUM_UNIQUENESS", events[0].ID)
}

func TestValidatePaginationFlagsMissingTokenMember(t *testing.T) {
	opID := shapeid.New("ns", "ListThings", "")
	inID := shapeid.New("ns", "ListThingsInput", "")
	op := shape.New(opID, shape.TypeOperation)
	op.Input = &inID
	obj := node.NewObject()
	obj.Put("inputToken", node.Str("nextToken"))
	op.Traits.Put(trait.Trait{ID: paginatedTraitID, Value: node.Obj(obj)})

	input := shape.New(inID, shape.TypeStructure)
	input.Members = shape.NewMemberList()

	b := model.NewBuilder()
	b.Put(op)
	b.Put(input)
	m := b.Build()

	events := validatePagination(m)
	require.Len(t, events, 1)
	assert.Equal(t, "PAGINATION", events[0].ID)
}

func TestValidateServiceClosureUniquenessFlagsRenameConflict(t *testing.T) {
	serviceID := shapeid.New("ns", "MyService", "")
	opA := shapeid.New("ns", "OpA", "")
	opB := shapeid.New("ns", "OpB", "")

	svc := shape.New(serviceID, shape.TypeService)
	svc.Operations = []shapeid.ID{opA, opB}
	svc.Rename = map[shapeid.ID]string{opA: "Shared", opB: "Shared"}

	b := model.NewBuilder()
	b.Put(svc)
	b.Put(shape.New(opA, shape.TypeOperation))
	b.Put(shape.New(opB, shape.TypeOperation))
	m := b.Build()

	events := validateServiceClosureUniqueness(m)
	require.Len(t, events, 1)
	assert.Equal(t, "SERVICE_CLOSURE_CONFLICT", events[0].ID)
}

func TestApplySuppressionsDowngradesNamedIDs(t *testing.T) {
	events := []diag.Event{
		{ID: "SOME_WARNING", Severity: diag.Warning},
		{ID: "SOME_ERROR", Severity: diag.Error},
	}
	out := ApplySuppressions(events, map[string]bool{"SOME_WARNING": true}, nil)
	assert.Equal(t, diag.Suppressed, out[0].Severity)
	assert.Equal(t, diag.Error, out[1].Severity, "ERROR severity must never be suppressed")
}

func TestApplySuppressionsHonorsShapeSuppressTrait(t *testing.T) {
	widgetID := shapeid.New("ns", "Widget", "")
	s := shape.New(widgetID, shape.TypeStructure)
	s.Traits.Put(trait.Trait{
		ID:    shapeid.New(shapeid.PreludeNamespace, "suppress", ""),
		Value: node.Arr([]node.Node{node.Str("SOME_WARNING")}),
	})
	b := model.NewBuilder()
	b.Put(s)
	m := b.Build()

	events := []diag.Event{{ID: "SOME_WARNING", Severity: diag.Warning, ShapeID: widgetID.String()}}
	out := ApplySuppressions(events, nil, m)
	assert.Equal(t, diag.Suppressed, out[0].Severity)
}
