// Package unparse renders a Model back to Smithy IDL text, such that
// reparsing the output yields an equivalent model.
//
// Shape emission walks shape.Shape / trait.Map / node.Node values directly.
// A per-trait special-case switch gives well-known traits their compact IDL
// sugar (@required, @http, @length, and so on); everything else falls back
// to generic `@name(...)` emission from the trait's Node value.
package unparse

import (
	"fmt"
	"sort"
	"strings"

	"github.com/smithy-lang/smithy-model-core/internal/model"
	"github.com/smithy-lang/smithy-model-core/internal/node"
	"github.com/smithy-lang/smithy-model-core/internal/shape"
	"github.com/smithy-lang/smithy-model-core/internal/shapeid"
	"github.com/smithy-lang/smithy-model-core/internal/trait"
)

const indentAmount = "    "

var (
	idDocumentation = shapeid.MustParse("smithy.api#documentation")
	idRequired      = shapeid.MustParse("smithy.api#required")
	idReadonly      = shapeid.MustParse("smithy.api#readonly")
	idIdempotent    = shapeid.MustParse("smithy.api#idempotent")
	idSensitive     = shapeid.MustParse("smithy.api#sensitive")
	idHttpLabel     = shapeid.MustParse("smithy.api#httpLabel")
	idHttpPayload   = shapeid.MustParse("smithy.api#httpPayload")
	idHttpQuery     = shapeid.MustParse("smithy.api#httpQuery")
	idHttpHeader    = shapeid.MustParse("smithy.api#httpHeader")
	idTimestampFmt  = shapeid.MustParse("smithy.api#timestampFormat")
	idPattern       = shapeid.MustParse("smithy.api#pattern")
	idError         = shapeid.MustParse("smithy.api#error")
	idDeprecated    = shapeid.MustParse("smithy.api#deprecated")
	idHttp          = shapeid.MustParse("smithy.api#http")
	idHttpError     = shapeid.MustParse("smithy.api#httpError")
	idLength        = shapeid.MustParse("smithy.api#length")
	idRange         = shapeid.MustParse("smithy.api#range")
	idTags          = shapeid.MustParse("smithy.api#tags")
	idPaginated     = shapeid.MustParse("smithy.api#paginated")
	idInput         = shapeid.MustParse("smithy.api#input")
	idOutput        = shapeid.MustParse("smithy.api#output")
	idEnumValue     = shapeid.MustParse("smithy.api#enumValue")
)

// writer accumulates IDL text for one namespace.
type writer struct {
	sb        strings.Builder
	namespace string
	m         *model.Model
}

func (w *writer) emit(format string, args ...interface{}) {
	fmt.Fprintf(&w.sb, format, args...)
}

// stripNamespace returns id's member-less display name: the bare name for
// a shape in the writer's namespace or the prelude, and the full shape ID
// for any other namespace.
func (w *writer) stripNamespace(id shapeid.ID) string {
	if id.Namespace == w.namespace || id.Namespace == shapeid.PreludeNamespace {
		return id.Name
	}
	return id.String()
}

// Namespaces returns every distinct namespace present in m, sorted, for
// callers that want to unparse a whole model into one file per namespace.
func Namespaces(m *model.Model) []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range m.ShapeIDs() {
		if id.Namespace == shapeid.PreludeNamespace {
			continue
		}
		if !seen[id.Namespace] {
			seen[id.Namespace] = true
			out = append(out, id.Namespace)
		}
	}
	sort.Strings(out)
	return out
}

// IDL renders every shape belonging to namespace ns as Smithy 2.0 IDL text.
func IDL(m *model.Model, ns string) string {
	w := &writer{namespace: ns, m: m}
	w.emit("$version: \"2.0\"\n\nnamespace %s\n", ns)

	imports := externalRefs(m, ns)
	if len(imports) > 0 {
		w.emit("\n")
		for _, im := range imports {
			w.emit("use %s\n", im)
		}
	}

	for _, s := range m.Shapes() {
		if s.ID.Namespace != ns || s.ID.HasMember() {
			continue
		}
		w.emit("\n")
		w.emitShape(s)
	}
	return w.sb.String()
}

// externalRefs walks every shape in ns and collects shape IDs referenced
// from outside both ns and the prelude, i.e. what needs a `use` statement.
func externalRefs(m *model.Model, ns string) []string {
	seen := make(map[shapeid.ID]bool)
	for _, s := range m.Shapes() {
		if s.ID.Namespace != ns {
			continue
		}
		for _, t := range s.Targets() {
			if t.Namespace != ns && t.Namespace != shapeid.PreludeNamespace {
				seen[t.Root()] = true
			}
		}
		noteTraitRefs(s.Traits, ns, seen)
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id.String())
	}
	sort.Strings(out)
	return out
}

func noteTraitRefs(traits *trait.Map, ns string, seen map[shapeid.ID]bool) {
	if traits == nil {
		return
	}
	for _, tid := range traits.Keys() {
		if tid.Namespace != ns && tid.Namespace != shapeid.PreludeNamespace {
			seen[tid.Root()] = true
		}
	}
}

func (w *writer) withMixins(mixins []shapeid.ID) string {
	if len(mixins) == 0 {
		return ""
	}
	names := make([]string, 0, len(mixins))
	for _, id := range mixins {
		names = append(names, w.stripNamespace(id))
	}
	return fmt.Sprintf(" with [%s]", strings.Join(names, ", "))
}

func (w *writer) emitShape(s *shape.Shape) {
	switch s.Type {
	case shape.TypeList:
		w.emitTraits(s.Traits, "")
		w.emit("list %s%s {\n", s.ID.Name, w.withMixins(s.Mixins))
		w.emit("    member: %s\n}\n", w.stripNamespace(s.Member.Target))
	case shape.TypeMap:
		w.emitTraits(s.Traits, "")
		w.emit("map %s%s {\n    key: %s,\n    value: %s\n}\n", s.ID.Name, w.withMixins(s.Mixins),
			w.stripNamespace(s.Key.Target), w.stripNamespace(s.Value.Target))
	case shape.TypeStructure:
		w.emitStructure(s)
	case shape.TypeUnion:
		w.emitMemberBlock("union", s)
	case shape.TypeEnum:
		w.emitEnum(s, false)
	case shape.TypeIntEnum:
		w.emitEnum(s, true)
	case shape.TypeResource:
		w.emitResource(s)
	case shape.TypeService:
		w.emitService(s)
	case shape.TypeOperation:
		w.emitOperation(s)
	default:
		if s.Type.IsSimple() {
			w.emitTraits(s.Traits, "")
			w.emit("%s %s%s\n", s.Type, s.ID.Name, w.withMixins(s.Mixins))
		}
	}
}

func (w *writer) emitStructure(s *shape.Shape) {
	w.emitTraits(s.Traits, "")
	w.emit("structure %s%s {\n", s.ID.Name, w.withMixins(s.Mixins))
	w.emitMembers(s.Members)
	w.emit("}\n")
}

func (w *writer) emitMemberBlock(keyword string, s *shape.Shape) {
	w.emitTraits(s.Traits, "")
	w.emit("%s %s%s {\n", keyword, s.ID.Name, w.withMixins(s.Mixins))
	w.emitMembers(s.Members)
	w.emit("}\n")
}

func (w *writer) emitMembers(members *shape.MemberList) {
	names := members.Names()
	for i, name := range names {
		if i > 0 {
			w.emit("\n")
		}
		m, _ := members.Get(name)
		w.emitTraits(m.Traits, indentAmount)
		w.emit("%s%s: %s\n", indentAmount, name, w.stripNamespace(m.Target))
	}
}

func (w *writer) emitEnum(s *shape.Shape, intEnum bool) {
	w.emitTraits(s.Traits, "")
	keyword := "enum"
	if intEnum {
		keyword = "intEnum"
	}
	w.emit("%s %s%s {\n", keyword, s.ID.Name, w.withMixins(s.Mixins))
	names := s.Members.Names()
	for i, name := range names {
		if i > 0 {
			w.emit("\n")
		}
		m, _ := s.Members.Get(name)
		w.emitTraits(m.Traits, indentAmount)
		if t, ok := m.Traits.Get(idEnumValue); ok {
			w.emit("%s%s = %s\n", indentAmount, name, nodeLiteral(t.Value))
		} else {
			w.emit("%s%s\n", indentAmount, name)
		}
	}
	w.emit("}\n")
}

func (w *writer) emitResource(s *shape.Shape) {
	w.emitTraits(s.Traits, "")
	w.emit("resource %s%s {\n", s.ID.Name, w.withMixins(s.Mixins))
	if len(s.Identifiers) > 0 {
		w.emit("    identifiers: {\n")
		for _, ib := range s.Identifiers {
			w.emit("        %s: %s\n", ib.Name, w.stripNamespace(ib.Target))
		}
		w.emit("    }\n")
	}
	if len(s.Properties) > 0 {
		w.emit("    properties: {\n")
		for _, ib := range s.Properties {
			w.emit("        %s: %s\n", ib.Name, w.stripNamespace(ib.Target))
		}
		w.emit("    }\n")
	}
	emitOptRef := func(label string, id *shapeid.ID) {
		if id != nil {
			w.emit("    %s: %s\n", label, w.stripNamespace(*id))
		}
	}
	emitOptRef("create", s.Create)
	emitOptRef("put", s.Put)
	emitOptRef("read", s.Read)
	emitOptRef("update", s.Update)
	emitOptRef("delete", s.Delete)
	emitOptRef("list", s.List)
	if len(s.Operations) > 0 {
		w.emit("    %s\n", w.idList("operations", s.Operations))
	}
	if len(s.CollectionOperations) > 0 {
		w.emit("    %s\n", w.idList("collectionOperations", s.CollectionOperations))
	}
	if len(s.Resources) > 0 {
		w.emit("    %s\n", w.idList("resources", s.Resources))
	}
	w.emit("}\n")
}

func (w *writer) emitService(s *shape.Shape) {
	w.emitTraits(s.Traits, "")
	w.emit("service %s%s {\n", s.ID.Name, w.withMixins(s.Mixins))
	w.emit("    version: %q\n", s.Version)
	if len(s.Operations) > 0 {
		w.emit("    %s\n", w.idList("operations", s.Operations))
	}
	if len(s.Resources) > 0 {
		w.emit("    %s\n", w.idList("resources", s.Resources))
	}
	if len(s.Errors) > 0 {
		w.emit("    %s\n", w.idList("errors", s.Errors))
	}
	w.emit("}\n")
}

func (w *writer) emitOperation(s *shape.Shape) {
	w.emitTraits(s.Traits, "")
	w.emit("operation %s%s {\n", s.ID.Name, w.withMixins(s.Mixins))
	if s.Input != nil {
		w.emitOperationIO(indentAmount+"input", *s.Input)
	}
	if s.Output != nil {
		w.emitOperationIO(indentAmount+"output", *s.Output)
	}
	if len(s.Errors) > 0 {
		w.emit("    %s\n", w.idList("errors", s.Errors))
	}
	w.emit("}\n")
}

// emitOperationIO inlines the input/output structure when it carries
// @input/@output (the synthesized-shape case), or else emits a plain
// reference.
func (w *writer) emitOperationIO(label string, target shapeid.ID) {
	io, ok := w.m.Shape(target)
	if !ok {
		w.emit("%s: %s\n", label, w.stripNamespace(target))
		return
	}
	synthesized := io.Traits.Has(idInput) || io.Traits.Has(idOutput)
	if !synthesized {
		w.emit("%s: %s\n", label, w.stripNamespace(target))
		return
	}
	w.emit("%s := %s{\n", label, w.withMixins(io.Mixins))
	i2 := indentAmount + indentAmount
	names := io.Members.Names()
	for i, name := range names {
		if i > 0 {
			w.emit("\n")
		}
		m, _ := io.Members.Get(name)
		w.emitTraits(m.Traits, i2)
		w.emit("%s%s: %s\n", i2, name, w.stripNamespace(m.Target))
	}
	w.emit("%s}\n", indentAmount)
}

func (w *writer) idList(label string, ids []shapeid.ID) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, w.stripNamespace(id))
	}
	return fmt.Sprintf("%s: [%s]", label, strings.Join(names, ", "))
}

// emitTraits renders a shape or member's trait set, special-casing the
// handful of traits with dedicated IDL sugar and falling back to generic
// `@id(value)` rendering for everything else.
func (w *writer) emitTraits(traits *trait.Map, indent string) {
	if traits == nil {
		return
	}
	if t, ok := traits.Get(idDocumentation); ok {
		s, _ := t.Value.AsString()
		if s != "" {
			w.emit("%s/// %s\n", indent, strings.ReplaceAll(s, "\n", "\n"+indent+"/// "))
		}
	}
	for _, id := range traits.Keys() {
		t, _ := traits.Get(id)
		switch id {
		case idDocumentation, idEnumValue:
			// documentation is written above; enumValue is written by emitEnum as `= value`
		case idRequired, idReadonly, idIdempotent, idSensitive, idHttpLabel, idHttpPayload:
			w.emit("%s@%s\n", indent, w.stripNamespace(id))
		case idHttpQuery, idHttpHeader, idTimestampFmt, idPattern, idError:
			s, _ := t.Value.AsString()
			w.emit("%s@%s(%q)\n", indent, w.stripNamespace(id), s)
		case idDeprecated:
			w.emitDeprecated(t.Value, indent)
		case idHttp:
			w.emitHttp(t.Value, indent)
		case idHttpError:
			if n, err := t.Value.AsNumber(); err == nil {
				w.emit("%s@httpError(%s)\n", indent, n.String())
			}
		case idLength:
			w.emitMinMax("length", t.Value, indent)
		case idRange:
			w.emitMinMax("range", t.Value, indent)
		case idTags:
			arr, err := t.Value.AsArray()
			if err == nil {
				w.emit("%s@tags(%s)\n", indent, quotedList(arr))
			}
		case idPaginated:
			w.emitPaginated(t.Value, indent)
		default:
			w.emitGenericTrait(id, t.Value, indent)
		}
	}
}

func (w *writer) emitDeprecated(v node.Node, indent string) {
	obj, err := v.AsObject()
	w.emit("%s@deprecated", indent)
	if err == nil && obj.Length() > 0 {
		var parts []string
		if mn, ok := obj.Get("message"); ok {
			s, _ := mn.AsString()
			parts = append(parts, fmt.Sprintf("message: %q", s))
		}
		if sn, ok := obj.Get("since"); ok {
			s, _ := sn.AsString()
			parts = append(parts, fmt.Sprintf("since: %q", s))
		}
		if len(parts) > 0 {
			w.emit("(%s)", strings.Join(parts, ", "))
		}
	}
	w.emit("\n")
}

func (w *writer) emitHttp(v node.Node, indent string) {
	obj, err := v.AsObject()
	if err != nil {
		return
	}
	method := ""
	uri := ""
	if mn, ok := obj.Get("method"); ok {
		method, _ = mn.AsString()
	}
	if un, ok := obj.Get("uri"); ok {
		uri, _ = un.AsString()
	}
	s := fmt.Sprintf("method: %q, uri: %q", method, uri)
	if cn, ok := obj.Get("code"); ok {
		if n, err := cn.AsNumber(); err == nil {
			s += fmt.Sprintf(", code: %s", n.String())
		}
	}
	w.emit("%s@http(%s)\n", indent, s)
}

func (w *writer) emitMinMax(name string, v node.Node, indent string) {
	obj, err := v.AsObject()
	if err != nil {
		return
	}
	var parts []string
	if mn, ok := obj.Get("min"); ok {
		n, _ := mn.AsNumber()
		parts = append(parts, fmt.Sprintf("min: %s", n.String()))
	}
	if mx, ok := obj.Get("max"); ok {
		n, _ := mx.AsNumber()
		parts = append(parts, fmt.Sprintf("max: %s", n.String()))
	}
	if len(parts) > 0 {
		w.emit("%s@%s(%s)\n", indent, name, strings.Join(parts, ", "))
	}
}

func (w *writer) emitPaginated(v node.Node, indent string) {
	obj, err := v.AsObject()
	if err != nil {
		return
	}
	var parts []string
	for _, k := range obj.Keys() {
		vn, _ := obj.Get(k)
		s, _ := vn.AsString()
		parts = append(parts, fmt.Sprintf("%s: %q", k, s))
	}
	if len(parts) > 0 {
		w.emit("%s@paginated(%s)\n", indent, strings.Join(parts, ", "))
	}
}

// emitGenericTrait renders any trait without dedicated sugar as
// `@name(value)` from its Node payload, or bare `@name` for an empty
// object (the annotation-trait case).
func (w *writer) emitGenericTrait(id shapeid.ID, v node.Node, indent string) {
	name := w.stripNamespace(id)
	if v.Kind() == node.KindObject {
		obj, _ := v.AsObject()
		if obj.Length() == 0 {
			w.emit("%s@%s\n", indent, name)
			return
		}
		var parts []string
		for _, k := range obj.Keys() {
			vn, _ := obj.Get(k)
			parts = append(parts, fmt.Sprintf("%s: %s", k, nodeLiteral(vn)))
		}
		w.emit("%s@%s(%s)\n", indent, name, strings.Join(parts, ",\n"+indent+indentAmount))
		return
	}
	w.emit("%s@%s(%s)\n", indent, name, nodeLiteral(v))
}

func nodeLiteral(v node.Node) string {
	switch v.Kind() {
	case node.KindString:
		s, _ := v.AsString()
		return fmt.Sprintf("%q", s)
	case node.KindNumber:
		n, _ := v.AsNumber()
		return n.String()
	case node.KindBool:
		b, _ := v.AsBool()
		if b {
			return "true"
		}
		return "false"
	case node.KindArray:
		arr, _ := v.AsArray()
		parts := make([]string, len(arr))
		for i, item := range arr {
			parts[i] = nodeLiteral(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case node.KindObject:
		obj, _ := v.AsObject()
		parts := make([]string, 0, obj.Length())
		for _, k := range obj.Keys() {
			vn, _ := obj.Get(k)
			parts = append(parts, fmt.Sprintf("%s: %s", k, nodeLiteral(vn)))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "null"
	}
}

func quotedList(arr []node.Node) string {
	parts := make([]string, 0, len(arr))
	for _, item := range arr {
		s, _ := item.AsString()
		parts = append(parts, fmt.Sprintf("%q", s))
	}
	return strings.Join(parts, ", ")
}
