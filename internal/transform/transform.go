// Package transform implements named Model -> Model operations used by
// build projections.
//
// includeByTag and removeUnreferencedShapes keep the dependency closure of
// their starting shapes; excludeByTag and excludeShapesByTrait drop only
// the matching shapes. All are built on shapeid.ID-keyed model.Builder
// operations. The standard transforms follow the same pattern: take a *model.Model,
// return a new one built through a fresh model.Builder.
package transform

import (
	"sort"
	"strings"

	"github.com/smithy-lang/smithy-model-core/internal/model"
	"github.com/smithy-lang/smithy-model-core/internal/shape"
	"github.com/smithy-lang/smithy-model-core/internal/shapeid"
)

// Func is one named transform: Model in, Model out.
type Func func(m *model.Model, args map[string]interface{}) (*model.Model, error)

// Registry maps transform names (as used in a projection's JSON config)
// to their Func implementation.
type Registry struct {
	funcs map[string]Func
}

func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

func (r *Registry) Register(name string, f Func) {
	r.funcs[name] = f
}

func (r *Registry) Get(name string) (Func, bool) {
	f, ok := r.funcs[name]
	return f, ok
}

// Default registers every standard transform.
func Default() *Registry {
	r := NewRegistry()
	r.Register("includeByTag", IncludeByTag)
	r.Register("excludeByTag", ExcludeByTag)
	r.Register("includeNamespaces", IncludeNamespaces)
	r.Register("excludeShapesByTrait", ExcludeShapesByTrait)
	r.Register("removeUnreferencedShapes", RemoveUnreferencedShapes)
	r.Register("removeTraitDefinitions", RemoveTraitDefinitions)
	r.Register("renameShapes", RenameShapes)
	r.Register("changeTypes", ChangeTypes)
	r.Register("flattenAndRemoveMixins", FlattenAndRemoveMixins)
	r.Register("sortMembers", SortMembers)
	r.Register("flattenNamespaces", FlattenNamespaces)
	return r
}

var tagsTraitID = shapeid.New(shapeid.PreludeNamespace, "tags", "")

func shapeTags(s *shape.Shape) map[string]bool {
	out := make(map[string]bool)
	for _, t := range s.Traits.GetStringArray(tagsTraitID) {
		out[t] = true
	}
	return out
}

func stringArg(args map[string]interface{}, key string) []string {
	v, ok := args[key]
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case []string:
		return t
	case []interface{}:
		var out []string
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// IncludeByTag keeps the shapes carrying at least one of the given tags
// plus every shape they transitively reference; all other shapes are
// dropped.
func IncludeByTag(m *model.Model, args map[string]interface{}) (*model.Model, error) {
	tags := stringArg(args, "tags")
	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		want[t] = true
	}
	b := model.NewBuilder()
	b.SetMetadata(m.Metadata())
	var add func(id shapeid.ID)
	add = func(id shapeid.ID) {
		if _, ok := b.Get(id); ok {
			return
		}
		s, ok := m.Shape(id)
		if !ok {
			return
		}
		b.Put(s)
		for _, nb := range m.Neighbors(id) {
			add(nb)
		}
	}
	for _, s := range m.Shapes() {
		for t := range shapeTags(s) {
			if want[t] {
				add(s.ID)
				break
			}
		}
	}
	return pruneUnreferenced(m, b), nil
}

// ExcludeByTag drops shapes carrying any of the given tags. Shapes that
// only the dropped shapes referenced are not removed.
func ExcludeByTag(m *model.Model, args map[string]interface{}) (*model.Model, error) {
	tags := stringArg(args, "tags")
	drop := make(map[string]bool, len(tags))
	for _, t := range tags {
		drop[t] = true
	}
	b := model.NewBuilder()
	b.SetMetadata(m.Metadata())
	for _, s := range m.Shapes() {
		excluded := false
		for t := range shapeTags(s) {
			if drop[t] {
				excluded = true
				break
			}
		}
		if !excluded {
			b.Put(s)
		}
	}
	return pruneUnreferenced(m, b), nil
}

// IncludeNamespaces keeps only shapes whose namespace is in the given set
// (plus the prelude, which is always retained).
func IncludeNamespaces(m *model.Model, args map[string]interface{}) (*model.Model, error) {
	namespaces := stringArg(args, "namespaces")
	want := make(map[string]bool, len(namespaces))
	for _, ns := range namespaces {
		want[ns] = true
	}
	b := model.NewBuilder()
	b.SetMetadata(m.Metadata())
	for _, s := range m.Shapes() {
		if want[s.ID.Namespace] || s.ID.Namespace == shapeid.PreludeNamespace {
			b.Put(s)
		}
	}
	return pruneUnreferenced(m, b), nil
}

// ExcludeShapesByTrait drops every shape carrying any of the given trait
// IDs. Shapes that only the dropped shapes referenced are not removed.
func ExcludeShapesByTrait(m *model.Model, args map[string]interface{}) (*model.Model, error) {
	traitNames := stringArg(args, "traits")
	var traitIDs []shapeid.ID
	for _, t := range traitNames {
		if id, err := shapeid.Parse(qualifyTrait(t)); err == nil {
			traitIDs = append(traitIDs, id)
		}
	}
	b := model.NewBuilder()
	b.SetMetadata(m.Metadata())
	for _, s := range m.Shapes() {
		excluded := false
		for _, tid := range traitIDs {
			if s.Traits.Has(tid) {
				excluded = true
				break
			}
		}
		if !excluded {
			b.Put(s)
		}
	}
	return pruneUnreferenced(m, b), nil
}

func qualifyTrait(name string) string {
	if strings.Contains(name, "#") {
		return name
	}
	return shapeid.PreludeNamespace + "#" + name
}

// pruneUnreferenced builds a Model from the shapes in kept. Every kept
// shape is a starting point of the walk over the original model's
// neighbor graph and the walk does not enter shapes outside kept, so every
// kept shape is reachable and none is removed here.
func pruneUnreferenced(orig *model.Model, kept *model.Builder) *model.Model {
	reachable := make(map[shapeid.ID]bool)
	var walk func(id shapeid.ID)
	walk = func(id shapeid.ID) {
		if reachable[id] {
			return
		}
		if _, ok := kept.Get(id); !ok {
			return
		}
		reachable[id] = true
		for _, nb := range orig.Neighbors(id) {
			walk(nb)
		}
	}
	for _, id := range kept.IDs() {
		walk(id)
	}
	out := model.NewBuilder()
	out.SetMetadata(orig.Metadata())
	for _, id := range kept.IDs() {
		if reachable[id] {
			s, _ := kept.Get(id)
			out.Put(s)
		}
	}
	return out.Build()
}

// RemoveUnreferencedShapes drops every shape unreachable from a service,
// resource, or operation root.
func RemoveUnreferencedShapes(m *model.Model, args map[string]interface{}) (*model.Model, error) {
	roots := make(map[shapeid.ID]bool)
	for _, s := range m.Shapes() {
		switch s.Type {
		case shape.TypeService, shape.TypeResource, shape.TypeOperation:
			roots[s.ID] = true
		}
	}
	reachable := make(map[shapeid.ID]bool)
	var walk func(id shapeid.ID)
	walk = func(id shapeid.ID) {
		if reachable[id] {
			return
		}
		reachable[id] = true
		for _, nb := range m.Neighbors(id) {
			walk(nb)
		}
	}
	for id := range roots {
		walk(id)
	}
	b := model.NewBuilder()
	b.SetMetadata(m.Metadata())
	for _, s := range m.Shapes() {
		if reachable[s.ID] || s.ID.Namespace == shapeid.PreludeNamespace {
			b.Put(s)
		}
	}
	return b.Build(), nil
}

var traitDefTraitID = shapeid.New(shapeid.PreludeNamespace, "trait", "")

// RemoveTraitDefinitions removes every shape that is itself a trait
// definition (carries smithy.api#trait) from the output model, used by
// projections that want a "data model only" view.
func RemoveTraitDefinitions(m *model.Model, args map[string]interface{}) (*model.Model, error) {
	b := model.NewBuilder()
	b.SetMetadata(m.Metadata())
	for _, s := range m.Shapes() {
		if s.Traits.Has(traitDefTraitID) {
			continue
		}
		b.Put(s)
	}
	return b.Build(), nil
}

// RenameShapes applies an explicit old-id -> new-id map, rewriting every
// reference across the model that targets a renamed shape to match.
func RenameShapes(m *model.Model, args map[string]interface{}) (*model.Model, error) {
	renameArg, _ := args["shapes"].(map[string]interface{})
	rename := make(map[shapeid.ID]shapeid.ID, len(renameArg))
	for oldStr, newVal := range renameArg {
		newStr, _ := newVal.(string)
		oldID, err1 := shapeid.Parse(oldStr)
		newID, err2 := shapeid.Parse(newStr)
		if err1 == nil && err2 == nil {
			rename[oldID] = newID
		}
	}
	b := model.NewBuilder()
	b.SetMetadata(m.Metadata())
	for _, s := range m.Shapes() {
		c := s.Clone()
		if newID, ok := rename[c.ID]; ok {
			c.ID = newID
		}
		rewriteTargets(c, rename)
		b.Put(c)
	}
	return b.Build(), nil
}

func rewriteTargets(s *shape.Shape, rename map[shapeid.ID]shapeid.ID) {
	remap := func(id shapeid.ID) shapeid.ID {
		if n, ok := rename[id]; ok {
			return n
		}
		return id
	}
	if s.Member != nil {
		s.Member.Target = remap(s.Member.Target)
	}
	if s.Key != nil {
		s.Key.Target = remap(s.Key.Target)
	}
	if s.Value != nil {
		s.Value.Target = remap(s.Value.Target)
	}
	if s.Members != nil {
		for _, name := range s.Members.Names() {
			mm, _ := s.Members.Get(name)
			mm.Target = remap(mm.Target)
		}
	}
	if s.Input != nil {
		*s.Input = remap(*s.Input)
	}
	if s.Output != nil {
		*s.Output = remap(*s.Output)
	}
	for i := range s.Errors {
		s.Errors[i] = remap(s.Errors[i])
	}
	for i := range s.Identifiers {
		s.Identifiers[i].Target = remap(s.Identifiers[i].Target)
	}
	for i := range s.Properties {
		s.Properties[i].Target = remap(s.Properties[i].Target)
	}
	if s.Create != nil {
		*s.Create = remap(*s.Create)
	}
	if s.Put != nil {
		*s.Put = remap(*s.Put)
	}
	if s.Read != nil {
		*s.Read = remap(*s.Read)
	}
	if s.Update != nil {
		*s.Update = remap(*s.Update)
	}
	if s.Delete != nil {
		*s.Delete = remap(*s.Delete)
	}
	if s.List != nil {
		*s.List = remap(*s.List)
	}
	for i := range s.CollectionOperations {
		s.CollectionOperations[i] = remap(s.CollectionOperations[i])
	}
	for i := range s.Operations {
		s.Operations[i] = remap(s.Operations[i])
	}
	for i := range s.Resources {
		s.Resources[i] = remap(s.Resources[i])
	}
	for i := range s.Mixins {
		s.Mixins[i] = remap(s.Mixins[i])
	}
}

// ChangeTypes reassigns the Type of named shapes, used mainly to
// widen/narrow numeric shapes between projections. Shapes whose new
// type is incompatible with their existing fields (e.g. changing a
// structure to a simple type) are left as a shallow retag; the caller's
// re-validation pass is expected to catch any resulting inconsistency.
func ChangeTypes(m *model.Model, args map[string]interface{}) (*model.Model, error) {
	changesArg, _ := args["changes"].([]interface{})
	changes := make(map[shapeid.ID]shape.Type)
	for _, raw := range changesArg {
		c, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		shapeStr, _ := c["shape"].(string)
		typeStr, _ := c["type"].(string)
		id, err := shapeid.Parse(shapeStr)
		if err != nil {
			continue
		}
		t, ok := shape.ParseType(typeStr)
		if !ok {
			continue
		}
		changes[id] = t
	}
	b := model.NewBuilder()
	b.SetMetadata(m.Metadata())
	for _, s := range m.Shapes() {
		c := s.Clone()
		if t, ok := changes[c.ID]; ok {
			c.Type = t
		}
		b.Put(c)
	}
	return b.Build(), nil
}

// FlattenAndRemoveMixins clears every shape's Mixins list so the output
// model contains no mixin relationships. It copies nothing itself: the
// loader has already copied mixin members and traits onto each using
// shape during assembly. The mixin shapes themselves are kept.
func FlattenAndRemoveMixins(m *model.Model, args map[string]interface{}) (*model.Model, error) {
	b := model.NewBuilder()
	b.SetMetadata(m.Metadata())
	for _, s := range m.Shapes() {
		c := s.Clone()
		c.Mixins = nil
		b.Put(c)
	}
	return b.Build(), nil
}

// SortMembers reorders the members of every shape that has a member list
// (structure, union, enum, intEnum) alphabetically by name, useful for projections that want deterministic output independent
// of declaration order.
func SortMembers(m *model.Model, args map[string]interface{}) (*model.Model, error) {
	b := model.NewBuilder()
	b.SetMetadata(m.Metadata())
	for _, s := range m.Shapes() {
		c := s.Clone()
		if c.Members != nil {
			names := append([]string(nil), c.Members.Names()...)
			sort.Strings(names)
			sorted := shape.NewMemberList()
			for _, n := range names {
				mm, _ := c.Members.Get(n)
				sorted.Put(mm)
			}
			c.Members = sorted
		}
		b.Put(c)
	}
	return b.Build(), nil
}

// FlattenNamespaces rewrites every shape's namespace to a single target
// namespace, rewriting references along the way.
func FlattenNamespaces(m *model.Model, args map[string]interface{}) (*model.Model, error) {
	target, _ := args["namespace"].(string)
	if target == "" {
		return m, nil
	}
	rename := make(map[shapeid.ID]shapeid.ID)
	for _, s := range m.Shapes() {
		if s.ID.Namespace == shapeid.PreludeNamespace {
			continue
		}
		rename[s.ID] = shapeid.New(target, s.ID.Name, s.ID.Member)
	}
	b := model.NewBuilder()
	b.SetMetadata(m.Metadata())
	for _, s := range m.Shapes() {
		c := s.Clone()
		if newID, ok := rename[c.ID]; ok {
			c.ID = newID
		}
		rewriteTargets(c, rename)
		b.Put(c)
	}
	return b.Build(), nil
}
