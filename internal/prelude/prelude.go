// Package prelude builds the smithy.api namespace: the built-in scalar
// shapes and trait definitions every model implicitly imports.
package prelude

import (
	"github.com/smithy-lang/smithy-model-core/internal/node"
	"github.com/smithy-lang/smithy-model-core/internal/shape"
	"github.com/smithy-lang/smithy-model-core/internal/shapeid"
	"github.com/smithy-lang/smithy-model-core/internal/trait"
)

const NS = shapeid.PreludeNamespace

func id(name string) shapeid.ID {
	return shapeid.New(NS, name, "")
}

// simpleShapeNames lists every prelude scalar.
var simpleShapeNames = map[string]shape.Type{
	"Boolean":    shape.TypeBoolean,
	"String":     shape.TypeString,
	"Blob":       shape.TypeBlob,
	"Timestamp":  shape.TypeTimestamp,
	"Document":   shape.TypeDocument,
	"BigInteger": shape.TypeBigInteger,
	"BigDecimal": shape.TypeBigDecimal,
	"Byte":       shape.TypeByte,
	"Short":      shape.TypeShort,
	"Integer":    shape.TypeInteger,
	"Long":       shape.TypeLong,
	"Float":      shape.TypeFloat,
	"Double":     shape.TypeDouble,
}

// Shapes returns a fresh set of prelude shapes, keyed by ID, suitable for
// seeding a model.Builder. A fresh set is returned on each call so callers
// never share a mutable Shape between independently-loaded models.
func Shapes() map[shapeid.ID]*shape.Shape {
	out := make(map[shapeid.ID]*shape.Shape, len(simpleShapeNames)+1)
	for name, t := range simpleShapeNames {
		out[id(name)] = shape.New(id(name), t)
	}
	// Unit is a synthetic, memberless structure used as the default input
	// and output of an IDL v2 operation with no `:=` block.
	unit := shape.New(id("Unit"), shape.TypeStructure)
	unit.Members = shape.NewMemberList()
	out[unit.ID] = unit
	return out
}

// IsPreludeShape reports whether id names a shape Shapes() defines.
func IsPreludeShape(i shapeid.ID) bool {
	if i.Namespace != NS {
		return false
	}
	if _, ok := simpleShapeNames[i.Name]; ok {
		return true
	}
	return i.Name == "Unit"
}

// UnitID is the shape ID of the synthetic empty structure, smithy.api#Unit.
var UnitID = id("Unit")

// annotationTraits, stringTraits and docTraits group the built-in traits
// that share one factory each; the remaining built-in traits are
// registered one by one in NewRegistry.
var (
	annotationTraits = []string{
		"required", "readonly", "idempotent", "idempotencyToken", "sensitive",
		"uniqueItems", "nested", "internal", "unstable", "box", "clientOptional",
		"httpLabel", "httpPayload", "httpResponseCode", "httpQueryParams",
		"recommended",
	}
	stringTraits = []string{
		"pattern", "since", "title", "httpHeader", "httpQuery", "jsonName",
		"xmlName", "timestampFormat", "error", // error: "client"|"server"
	}
	// documentation is a string trait, but doc comments accumulate across
	// consecutive `///` lines at the parser layer before becoming one
	// string value here.
	docTraits = []string{"documentation"}
)

// preludeTraitNames lists every built-in trait's unqualified name, used by
// the IDL parser to resolve an unprefixed `@traitName` to smithy.api instead
// of the current namespace.
var preludeTraitNames = map[string]bool{
	"deprecated": true, "tags": true, "length": true, "range": true,
	"enum": true, "http": true, "httpError": true, "paginated": true,
	"examples": true, "default": true, "suppress": true, "references": true,
	"externalDocumentation": true, "trait": true, "input": true,
	"output": true, "mixin": true,
}

func init() {
	for _, name := range annotationTraits {
		preludeTraitNames[name] = true
	}
	for _, name := range stringTraits {
		preludeTraitNames[name] = true
	}
	for _, name := range docTraits {
		preludeTraitNames[name] = true
	}
}

// IsPreludeTraitName reports whether name is one of the built-in trait
// names NewRegistry registers, unqualified (no "smithy.api#" prefix).
func IsPreludeTraitName(name string) bool {
	return preludeTraitNames[name]
}

// NewRegistry builds the trait.Registry every loader composes the prelude
// into. Built from Node-based Factory functions so the same registry
// serves both the IDL parser and the JSON AST codec.
func NewRegistry() *trait.Registry {
	r := trait.NewRegistry()

	for _, name := range annotationTraits {
		tid := id(name)
		r.Register(tid, trait.AnnotationFactory)
		r.RegisterDefinition(&trait.Definition{ID: tid})
	}
	for _, name := range stringTraits {
		tid := id(name)
		r.Register(tid, trait.StringFactory)
		r.RegisterDefinition(&trait.Definition{ID: tid})
	}
	for _, name := range docTraits {
		tid := id(name)
		r.Register(tid, trait.StringFactory)
		r.RegisterDefinition(&trait.Definition{ID: tid})
	}

	r.Register(id("deprecated"), deprecatedFactory)
	r.RegisterDefinition(&trait.Definition{ID: id("deprecated")})

	r.Register(id("tags"), tagsFactory)
	r.RegisterDefinition(&trait.Definition{ID: id("tags"), Selector: "*"})

	r.Register(id("length"), passthroughObjectFactory("length"))
	r.RegisterDefinition(&trait.Definition{ID: id("length")})

	r.Register(id("range"), passthroughObjectFactory("range"))
	r.RegisterDefinition(&trait.Definition{ID: id("range")})

	r.Register(id("enum"), passthroughArrayFactory("enum"))
	r.RegisterDefinition(&trait.Definition{ID: id("enum")})

	r.Register(id("http"), passthroughObjectFactory("http"))
	r.RegisterDefinition(&trait.Definition{ID: id("http"), Selector: "operation"})

	r.Register(id("httpError"), intFactory)
	r.RegisterDefinition(&trait.Definition{ID: id("httpError"), Selector: "structure"})

	r.Register(id("paginated"), passthroughObjectFactory("paginated"))
	r.RegisterDefinition(&trait.Definition{ID: id("paginated"), Selector: "operation"})

	r.Register(id("examples"), passthroughArrayFactory("examples"))
	r.RegisterDefinition(&trait.Definition{ID: id("examples"), Selector: "operation"})

	r.Register(id("default"), trait.PassthroughFactory)
	r.RegisterDefinition(&trait.Definition{ID: id("default")})

	r.Register(id("suppress"), passthroughArrayFactory("suppress"))
	r.RegisterDefinition(&trait.Definition{ID: id("suppress")})

	r.Register(id("references"), passthroughArrayFactory("references"))
	r.RegisterDefinition(&trait.Definition{ID: id("references"), Selector: "structure"})

	r.Register(id("externalDocumentation"), passthroughObjectFactory("externalDocumentation"))
	r.RegisterDefinition(&trait.Definition{ID: id("externalDocumentation")})

	// trait, input, output and mixin are marker traits attached to trait
	// definitions and shapes themselves rather than to instance data.
	for _, name := range []string{"trait", "input", "output", "mixin"} {
		tid := id(name)
		r.Register(tid, trait.AnnotationFactory)
		r.RegisterDefinition(&trait.Definition{ID: tid})
	}

	return r
}

func deprecatedFactory(tid shapeid.ID, v node.Node) (trait.Trait, error) {
	if v.Kind() != node.KindObject {
		return trait.Trait{}, &node.TypeMismatchError{Expected: node.KindObject, Actual: v.Kind()}
	}
	return trait.Trait{ID: tid, Value: v}, nil
}

func tagsFactory(tid shapeid.ID, v node.Node) (trait.Trait, error) {
	if _, err := v.AsArray(); err != nil {
		return trait.Trait{}, err
	}
	return trait.Trait{ID: tid, Value: v}, nil
}

func intFactory(tid shapeid.ID, v node.Node) (trait.Trait, error) {
	if _, err := v.AsNumber(); err != nil {
		return trait.Trait{}, err
	}
	return trait.Trait{ID: tid, Value: v}, nil
}

func passthroughObjectFactory(name string) trait.Factory {
	return func(tid shapeid.ID, v node.Node) (trait.Trait, error) {
		if _, err := v.AsObject(); err != nil {
			return trait.Trait{}, err
		}
		return trait.Trait{ID: tid, Value: v}, nil
	}
}

func passthroughArrayFactory(name string) trait.Factory {
	return func(tid shapeid.ID, v node.Node) (trait.Trait, error) {
		if _, err := v.AsArray(); err != nil {
			return trait.Trait{}, err
		}
		return trait.Trait{ID: tid, Value: v}, nil
	}
}
