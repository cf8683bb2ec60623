// Package validate implements the Validator: a registry of pure
// Model -> []Event functions plus the built-in validators every
// assembled model is checked against.
package validate

import (
	"fmt"

	"github.com/smithy-lang/smithy-model-core/internal/diag"
	"github.com/smithy-lang/smithy-model-core/internal/model"
	"github.com/smithy-lang/smithy-model-core/internal/selector"
	"github.com/smithy-lang/smithy-model-core/internal/shape"
	"github.com/smithy-lang/smithy-model-core/internal/shapeid"
	"github.com/smithy-lang/smithy-model-core/internal/trait"
)

// Func is one pluggable validator: a pure function Model -> []Event.
type Func func(m *model.Model) []diag.Event

// Registry is a named, ordered collection of Funcs, composed per run (no
// package singleton, matching the discipline in internal/trait.Registry).
type Registry struct {
	names []string
	funcs map[string]Func
}

func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

func (r *Registry) Register(name string, f Func) {
	if _, ok := r.funcs[name]; !ok {
		r.names = append(r.names, name)
	}
	r.funcs[name] = f
}

// Run executes every registered validator, recovering a panicking
// validator into a single ERROR event naming the offending validator
// rather than aborting the whole pass.
func (r *Registry) Run(m *model.Model) []diag.Event {
	var events []diag.Event
	for _, name := range r.names {
		events = append(events, r.runOne(name, m)...)
	}
	return diag.Sorted(events)
}

func (r *Registry) runOne(name string, m *model.Model) (events []diag.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			events = []diag.Event{{
				ID:       "VALIDATOR_PANIC",
				Severity: diag.Error,
				Message:  fmt.Sprintf("validator %q panicked: %v", name, rec),
			}}
		}
	}()
	return r.funcs[name](m)
}

// Default builds the registry of built-in validators: target resolution,
// trait applicability, shape-kind constraints, service closure
// uniqueness, HTTP binding consistency, pagination, enum uniqueness, and
// default/required interaction.
func Default() *Registry {
	r := NewRegistry()
	r.Register("TargetResolution", validateTargetResolution)
	r.Register("TraitApplicability", validateTraitApplicability)
	r.Register("ShapeKindConstraints", validateShapeKindConstraints)
	r.Register("ServiceClosureUniqueness", validateServiceClosureUniqueness)
	r.Register("HttpBindingConsistency", validateHTTPBindingConsistency)
	r.Register("Pagination", validatePagination)
	r.Register("EnumUniqueness", validateEnumUniqueness)
	r.Register("DefaultRequiredInteraction", validateDefaultRequiredInteraction)
	return r
}

// validateTargetResolution re-checks that every shape reference resolves.
// The loader already performs this once on the raw pool; running it
// again here covers references introduced by transforms after loading.
func validateTargetResolution(m *model.Model) []diag.Event {
	var out []diag.Event
	for _, s := range m.Shapes() {
		for _, t := range s.Targets() {
			if _, ok := m.Shape(t); !ok {
				out = append(out, diag.Event{
					ID: "UNKNOWN_SHAPE_TARGET", Severity: diag.Error,
					ShapeID: s.ID.String(), Location: s.Location,
					Message: fmt.Sprintf("%s refers to unknown shape %s", s.ID, t),
				})
			}
		}
	}
	return out
}

var traitTraitID = shapeid.New(shapeid.PreludeNamespace, "trait", "")

// validateTraitApplicability checks, for every trait-definition shape
// carrying a selector, that every shape using that trait matches the
// selector.
func validateTraitApplicability(m *model.Model) []diag.Event {
	var out []diag.Event
	selectors := collectTraitSelectors(m)
	if len(selectors) == 0 {
		return nil
	}
	for traitID, sel := range selectors {
		compiled, err := selector.Compile(sel)
		if err != nil {
			continue
		}
		matches := make(map[shapeid.ID]bool)
		for _, id := range compiled.Select(m) {
			matches[id] = true
		}
		for _, s := range m.Shapes() {
			if !s.Traits.Has(traitID) {
				continue
			}
			if !matches[s.ID] {
				out = append(out, diag.Event{
					ID: "TRAIT_APPLICABILITY", Severity: diag.Error,
					ShapeID: s.ID.String(), Location: s.Location,
					Message: fmt.Sprintf("trait %s cannot be applied to %s: does not match selector %q", traitID, s.ID, sel),
				})
			}
		}
	}
	return out
}

func collectTraitSelectors(m *model.Model) map[shapeid.ID]string {
	out := make(map[shapeid.ID]string)
	for _, s := range m.Shapes() {
		if !s.Traits.Has(traitTraitID) {
			continue
		}
		t, _ := s.Traits.Get(traitTraitID)
		obj, err := t.Value.AsObject()
		if err != nil {
			continue
		}
		if sv, ok := obj.Get("selector"); ok {
			out[s.ID] = sv.StringValue()
		}
	}
	return out
}

// validateShapeKindConstraints enforces structural rules per shape kind:
// list/map members must exist, operations must target structures for
// input/output, and enum, intEnum and union shapes must declare at least
// one member. It does not check resource lifecycle operations or
// duplicate service operations.
func validateShapeKindConstraints(m *model.Model) []diag.Event {
	var out []diag.Event
	fail := func(s *shape.Shape, format string, args ...interface{}) {
		out = append(out, diag.Event{
			ID: "SHAPE_KIND_CONSTRAINT", Severity: diag.Error,
			ShapeID: s.ID.String(), Location: s.Location,
			Message: fmt.Sprintf(format, args...),
		})
	}
	for _, s := range m.Shapes() {
		switch s.Type {
		case shape.TypeList:
			if s.Member == nil {
				fail(s, "list %s is missing its member", s.ID)
			}
		case shape.TypeMap:
			if s.Key == nil || s.Value == nil {
				fail(s, "map %s must declare both key and value", s.ID)
			}
		case shape.TypeOperation:
			if s.Input != nil {
				if t, ok := m.Shape(*s.Input); ok && t.Type != shape.TypeStructure {
					fail(s, "operation %s input %s must be a structure", s.ID, *s.Input)
				}
			}
			if s.Output != nil {
				if t, ok := m.Shape(*s.Output); ok && t.Type != shape.TypeStructure {
					fail(s, "operation %s output %s must be a structure", s.ID, *s.Output)
				}
			}
		case shape.TypeEnum, shape.TypeIntEnum:
			if s.Members == nil || s.Members.Len() == 0 {
				fail(s, "enum %s must declare at least one member", s.ID)
			}
		case shape.TypeUnion:
			if s.Members == nil || s.Members.Len() == 0 {
				fail(s, "union %s must declare at least one member", s.ID)
			}
		}
	}
	return out
}

// validateServiceClosureUniqueness enforces that no two shapes in a
// service's closure may produce the same (possibly renamed) local name,
// whatever namespaces they are in; rename conflicts are always an ERROR (see
// DESIGN.md).
func validateServiceClosureUniqueness(m *model.Model) []diag.Event {
	var out []diag.Event
	for _, s := range m.ShapesOfType(shape.TypeService) {
		names := make(map[string]shapeid.ID)
		var walk func(id shapeid.ID)
		visited := make(map[shapeid.ID]bool)
		walk = func(id shapeid.ID) {
			if visited[id] {
				return
			}
			visited[id] = true
			shp, ok := m.Shape(id)
			if !ok {
				return
			}
			localName := id.Name
			if s.Rename != nil {
				if renamed, ok := s.Rename[id]; ok {
					localName = renamed
				}
			}
			if prior, ok := names[localName]; ok && prior != id {
				out = append(out, diag.Event{
					ID: "SERVICE_CLOSURE_CONFLICT", Severity: diag.Error,
					ShapeID: s.ID.String(), Location: s.Location,
					Message: fmt.Sprintf("service %s closure has two shapes bound to local name %q: %s and %s", s.ID, localName, prior, id),
				})
			} else {
				names[localName] = id
			}
			for _, n := range shp.Targets() {
				walk(n)
			}
		}
		walk(s.ID)
	}
	return out
}

var (
	httpTraitID         = shapeid.New(shapeid.PreludeNamespace, "http", "")
	httpLabelTraitID    = shapeid.New(shapeid.PreludeNamespace, "httpLabel", "")
	httpPayloadTraitID  = shapeid.New(shapeid.PreludeNamespace, "httpPayload", "")
)

// validateHTTPBindingConsistency checks that every {label} placeholder in
// an @http trait's uri has a corresponding @httpLabel member and vice
// versa, and that at most one member carries @httpPayload.
func validateHTTPBindingConsistency(m *model.Model) []diag.Event {
	var out []diag.Event
	for _, s := range m.ShapesOfType(shape.TypeOperation) {
		t, ok := s.Traits.Get(httpTraitID)
		if !ok {
			continue
		}
		obj, err := t.Value.AsObject()
		if err != nil {
			continue
		}
		uri := obj.GetOr("uri", t.Value).StringValue()
		labels := extractURILabels(uri)
		if s.Input == nil {
			continue
		}
		input, ok := m.Shape(*s.Input)
		if !ok || input.Members == nil {
			continue
		}
		bound := make(map[string]bool)
		payloadCount := 0
		for _, name := range input.Members.Names() {
			mem, _ := input.Members.Get(name)
			if mem.Traits.Has(httpLabelTraitID) {
				bound[name] = true
			}
			if mem.Traits.Has(httpPayloadTraitID) {
				payloadCount++
			}
		}
		for label := range labels {
			if !bound[label] {
				out = append(out, diag.Event{
					ID: "HTTP_BINDING_CONSISTENCY", Severity: diag.Error,
					ShapeID: s.ID.String(), Location: s.Location,
					Message: fmt.Sprintf("operation %s http uri references label %q with no corresponding @httpLabel member", s.ID, label),
				})
			}
		}
		for name := range bound {
			if !labels[name] {
				out = append(out, diag.Event{
					ID: "HTTP_BINDING_CONSISTENCY", Severity: diag.Error,
					ShapeID: s.ID.String(),
					Message: fmt.Sprintf("operation %s has @httpLabel member %q not present in the http uri", s.ID, name),
				})
			}
		}
		if payloadCount > 1 {
			out = append(out, diag.Event{
				ID: "HTTP_BINDING_CONSISTENCY", Severity: diag.Error,
				ShapeID: s.ID.String(),
				Message: fmt.Sprintf("operation %s input declares more than one @httpPayload member", s.ID),
			})
		}
	}
	return out
}

func extractURILabels(uri string) map[string]bool {
	out := make(map[string]bool)
	inLabel := false
	var cur []byte
	for i := 0; i < len(uri); i++ {
		c := uri[i]
		switch {
		case c == '{':
			inLabel = true
			cur = nil
		case c == '}':
			if inLabel {
				name := string(cur)
				if len(name) > 0 && name[len(name)-1] == '+' {
					name = name[:len(name)-1]
				}
				out[name] = true
			}
			inLabel = false
		case inLabel:
			cur = append(cur, c)
		}
	}
	return out
}

var paginatedTraitID = shapeid.New(shapeid.PreludeNamespace, "paginated", "")

// validatePagination checks that an @paginated operation's inputToken/
// outputToken (when set) name real members of the operation's input and
// output structures.
func validatePagination(m *model.Model) []diag.Event {
	var out []diag.Event
	for _, s := range m.PaginatedOperations() {
		t, _ := s.Traits.Get(paginatedTraitID)
		obj, err := t.Value.AsObject()
		if err != nil {
			continue
		}
		checkMember := func(field string, target *shapeid.ID) {
			v, ok := obj.Get(field)
			if !ok || target == nil {
				return
			}
			name := v.StringValue()
			shp, ok := m.Shape(*target)
			if !ok || shp.Members == nil {
				return
			}
			if _, ok := shp.Members.Get(name); !ok {
				out = append(out, diag.Event{
					ID: "PAGINATION", Severity: diag.Error,
					ShapeID: s.ID.String(), Location: s.Location,
					Message: fmt.Sprintf("operation %s @paginated.%s names member %q which does not exist on %s", s.ID, field, name, *target),
				})
			}
		}
		checkMember("inputToken", s.Input)
		checkMember("outputToken", s.Output)
	}
	return out
}

// validateEnumUniqueness checks that no two members of an enum/intEnum
// share the same synthesized/explicit value.
func validateEnumUniqueness(m *model.Model) []diag.Event {
	var out []diag.Event
	enumValueTraitID := shapeid.New(shapeid.PreludeNamespace, "enumValue", "")
	for _, s := range append(m.ShapesOfType(shape.TypeEnum), m.ShapesOfType(shape.TypeIntEnum)...) {
		seen := make(map[string]string)
		for _, name := range s.Members.Names() {
			mem, _ := s.Members.Get(name)
			value := name
			if t, ok := mem.Traits.Get(enumValueTraitID); ok {
				value = nodeAsKey(t)
			}
			if prior, ok := seen[value]; ok {
				out = append(out, diag.Event{
					ID: "ENUM_UNIQUENESS", Severity: diag.Error,
					ShapeID: s.ID.String(), Location: s.Location,
					Message: fmt.Sprintf("enum %s members %q and %q share the same value %q", s.ID, prior, name, value),
				})
			} else {
				seen[value] = name
			}
		}
	}
	return out
}

func nodeAsKey(t trait.Trait) string {
	if s, err := t.Value.AsString(); err == nil {
		return s
	}
	if n, err := t.Value.AsNumber(); err == nil {
		return n.String()
	}
	return ""
}

var (
	requiredTraitID = shapeid.New(shapeid.PreludeNamespace, "required", "")
	defaultTraitID  = shapeid.New(shapeid.PreludeNamespace, "default", "")
)

// validateDefaultRequiredInteraction forbids a member from carrying both
// @required and @default: a member cannot be unconditionally required
// and also have a fallback value — the two traits are mutually exclusive.
func validateDefaultRequiredInteraction(m *model.Model) []diag.Event {
	var out []diag.Event
	for _, s := range m.Shapes() {
		if s.Members == nil {
			continue
		}
		for _, name := range s.Members.Names() {
			mem, _ := s.Members.Get(name)
			if mem.Traits.Has(requiredTraitID) && mem.Traits.Has(defaultTraitID) {
				out = append(out, diag.Event{
					ID: "DEFAULT_REQUIRED_CONFLICT", Severity: diag.Error,
					ShapeID: s.ID.String(), Location: mem.Location,
					Message: fmt.Sprintf("%s$%s declares both @required and @default", s.ID, name),
				})
			}
		}
	}
	return out
}

// MetadataSuppressions reads the `metadata.suppressions` array (each entry
// an object with an "id" string field) off m and returns the set of
// suppressed event IDs, for passing to ApplySuppressions.
func MetadataSuppressions(m *model.Model) map[string]bool {
	out := make(map[string]bool)
	if m == nil {
		return out
	}
	v, ok := m.Metadata().Get("suppressions")
	if !ok {
		return out
	}
	arr, err := v.AsArray()
	if err != nil {
		return out
	}
	for _, entry := range arr {
		obj, err := entry.AsObject()
		if err != nil {
			continue
		}
		idNode, ok := obj.Get("id")
		if !ok {
			continue
		}
		if id := idNode.StringValue(); id != "" {
			out[id] = true
		}
	}
	return out
}

// ApplySuppressions downgrades events matching metadata.suppressions
// entries or an affected shape's @suppress trait to SUPPRESSED. An ERROR
// severity event is never suppressed and keeps its severity.
func ApplySuppressions(events []diag.Event, suppressedIDs map[string]bool, m *model.Model) []diag.Event {
	suppressTraitID := shapeid.New(shapeid.PreludeNamespace, "suppress", "")
	out := make([]diag.Event, len(events))
	copy(out, events)
	for i, e := range out {
		if e.Severity == diag.Error {
			continue
		}
		if suppressedIDs[e.ID] {
			out[i].Severity = diag.Suppressed
			continue
		}
		if e.ShapeID == "" || m == nil {
			continue
		}
		sid, err := shapeid.Parse(e.ShapeID)
		if err != nil {
			continue
		}
		shp, ok := m.Shape(sid)
		if !ok {
			continue
		}
		t, ok := shp.Traits.Get(suppressTraitID)
		if !ok {
			continue
		}
		arr, err := t.Value.AsArray()
		if err != nil {
			continue
		}
		for _, v := range arr {
			if v.StringValue() == e.ID {
				out[i].Severity = diag.Suppressed
				break
			}
		}
	}
	return out
}
