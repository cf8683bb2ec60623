// Package loader implements the Loader/Assembler: parses IDL and JSON AST
// sources, merges them into one shape pool, resolves mixins, constructs
// traits, and freezes the result into a Model. Assembly does not run the
// validator; callers run internal/validate on the returned Model.
//
// Every recoverable problem accumulates as a diag.Event instead of
// aborting assembly on the first error, so a caller sees every shape
// conflict, unresolved target, and failed trait construction from a
// single run.
package loader

import (
	"path/filepath"
	"strings"

	"github.com/smithy-lang/smithy-model-core/internal/diag"
	"github.com/smithy-lang/smithy-model-core/internal/model"
	"github.com/smithy-lang/smithy-model-core/internal/node"
	"github.com/smithy-lang/smithy-model-core/internal/prelude"
	"github.com/smithy-lang/smithy-model-core/internal/shape"
	"github.com/smithy-lang/smithy-model-core/internal/shapeid"
	"github.com/smithy-lang/smithy-model-core/internal/trait"
)

// Source is one input to the assembler: either IDL text or a JSON AST
// document, identified by a file name used in diagnostics.
type Source struct {
	File string
	Data []byte
}

// Assembler accumulates sources and produces a Model. It is not reused
// across runs; call New for each independent load.
type Assembler struct {
	sources  []Source
	registry *trait.Registry
	events   *diag.Bag
}

func New(registry *trait.Registry) *Assembler {
	if registry == nil {
		registry = prelude.NewRegistry()
	}
	return &Assembler{registry: registry, events: &diag.Bag{}}
}

func (a *Assembler) AddSource(file string, data []byte) {
	a.sources = append(a.sources, Source{File: file, Data: data})
}

// Result is the outcome of Assemble: the frozen Model (nil if assembly
// failed outright) and every diagnostic event collected along the way.
type Result struct {
	Model  *model.Model
	Events []diag.Event
}

// Assemble runs the full pipeline: parse every source, merge into one
// shape pool, resolve mixins, construct traits, apply `apply` statements,
// and verify every shape target resolves.
func (a *Assembler) Assemble() Result {
	docs := make([]*document, 0, len(a.sources))
	for _, src := range a.sources {
		docs = append(docs, a.parseSource(src))
	}

	merged := mergePool(docs, a.events)

	builder := model.NewBuilder()
	builder.SetMetadata(merged.metadata)
	for _, s := range prelude.Shapes() {
		builder.Put(s)
	}
	for _, ps := range merged.shapes {
		builder.Put(ps.shape)
	}

	resolveMixins(builder, merged, a.events)
	constructTraits(builder, merged, a.registry, a.events)
	applyStatements(builder, merged, a.registry, a.events)
	checkUnknownTargets(builder, a.events)

	if a.events.HasErrors() {
		return Result{Events: diag.Sorted(a.events.Events())}
	}
	return Result{Model: builder.Build(), Events: diag.Sorted(a.events.Events())}
}

func (a *Assembler) parseSource(src Source) *document {
	if isJSONFile(src.File) {
		return parseJSONAST(src.File, src.Data, a.events)
	}
	return parseIDL(src.File, string(src.Data), a.events)
}

func isJSONFile(file string) bool {
	ext := strings.ToLower(filepath.Ext(file))
	if ext == ".json" {
		return true
	}
	if ext != ".smithy" {
		trimmed := strings.TrimSpace(file)
		return strings.HasPrefix(trimmed, "{")
	}
	return false
}

// mergedPool is the shape-and-metadata result of combining every parsed
// document into one pool.
type mergedPool struct {
	version  string
	metadata *node.Object
	shapes   map[shapeid.ID]*parsedShape
	applies  []applyStatement
}

// mergePool merges shape pools from every parsed document: shapes with
// identical content from two sources are deduplicated; shapes with the
// same ID but different content are a SHAPE_CONFLICT. Version strings
// across documents that disagree on major version are a VERSION_MISMATCH.
func mergePool(docs []*document, events *diag.Bag) *mergedPool {
	pool := &mergedPool{metadata: node.NewObject(), shapes: make(map[shapeid.ID]*parsedShape)}
	for _, d := range docs {
		if d.version != "" {
			if pool.version == "" {
				pool.version = d.version
			} else if majorVersion(pool.version) != majorVersion(d.version) {
				events.Addf(ErrVersionMismatch, diag.Error, diag.SourceLocation{File: d.file},
					"model version %q is incompatible with previously seen version %q", d.version, pool.version)
			}
		}
		for _, k := range d.metadata.Keys() {
			v, _ := d.metadata.Get(k)
			if existing, ok := pool.metadata.Get(k); ok && !node.Equal(existing, v) {
				events.Addf("BUILD_CONFIG", diag.Warning, diag.SourceLocation{File: d.file},
					"metadata key %q redefined with a different value", k)
			}
			pool.metadata.Put(k, v)
		}
		for id, ps := range d.shapes {
			existing, ok := pool.shapes[id]
			if !ok {
				pool.shapes[id] = ps
				continue
			}
			if shapesEquivalent(existing.shape, ps.shape) {
				continue
			}
			events.Addf(ErrShapeConflict, diag.Error, ps.shape.Location,
				"shape %s is defined more than once with conflicting definitions", id)
		}
		pool.applies = append(pool.applies, d.applies...)
	}
	if pool.version == "" {
		pool.version = "2.0"
	}
	return pool
}

func majorVersion(v string) string {
	if i := strings.IndexByte(v, '.'); i >= 0 {
		return v[:i]
	}
	return v
}

// shapesEquivalent is a structural comparison used only to decide whether
// two conflicting definitions of the same shape ID are actually identical.
func shapesEquivalent(a, b *shape.Shape) bool {
	return a.Type == b.Type && sameTargets(a.Targets(), b.Targets())
}

func sameTargets(a, b []shapeid.ID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// resolveMixins flattens each shape's mixin chain onto it: mixin members
// and traits not already present locally are copied in, in mixin-list
// order. Cycles are reported as MIXIN_CYCLE; a mixin and the shape
// disagreeing about the same member's target is MIXIN_TARGET_CONFLICT.
func resolveMixins(b *model.Builder, pool *mergedPool, events *diag.Bag) {
	state := make(map[shapeid.ID]int) // 0=unvisited 1=visiting 2=done
	var resolve func(id shapeid.ID) bool
	resolve = func(id shapeid.ID) bool {
		if state[id] == 2 {
			return true
		}
		if state[id] == 1 {
			events.Addf(ErrMixinCycle, diag.Error, diag.SourceLocation{}, "mixin cycle detected at %s", id)
			return false
		}
		s, ok := b.Get(id)
		if !ok {
			return true
		}
		state[id] = 1

		own := s.Members
		hasMixins := len(s.Mixins) > 0
		if hasMixins {
			s.Members = shape.NewMemberList()
		}
		for _, mixinID := range s.Mixins {
			if !resolve(mixinID) {
				state[id] = 2
				return false
			}
			mixinShape, ok := b.Get(mixinID)
			if !ok {
				continue
			}
			mergeMixinInto(s, mixinShape, own, events)
		}
		if hasMixins {
			appendOwnMembers(s, own)
		}
		state[id] = 2
		return true
	}
	for id := range pool.shapes {
		resolve(id)
	}
}

// mergeMixinInto copies mixin's members and traits into s. Members are
// appended to s.Members in mixin-list order, ahead of s's own declared
// members; own is s's own member list as declared before any mixin was
// applied, consulted here only to detect and report a name conflict
// between a mixin member and an own member of the same name.
func mergeMixinInto(s, mixin *shape.Shape, own *shape.MemberList, events *diag.Bag) {
	if mixin.Members != nil {
		if s.Members == nil {
			s.Members = shape.NewMemberList()
		}
		for _, name := range mixin.Members.Names() {
			mm, _ := mixin.Members.Get(name)
			if existing, ok := own.Get(name); ok {
				if existing.Target != mm.Target {
					events.Addf(ErrMixinTargetConflict, diag.Error, existing.Location,
						"member %s$%s conflicts with mixin %s's member of the same name", s.ID, name, mixin.ID)
				}
				continue
			}
			if _, ok := s.Members.Get(name); ok {
				continue
			}
			copied := *mm
			s.Members.Put(&copied)
		}
	}
	if mixin.Traits != nil {
		for _, tid := range mixin.Traits.Keys() {
			if s.Traits.Has(tid) {
				continue
			}
			t, _ := mixin.Traits.Get(tid)
			s.Traits.Put(t)
		}
	}
}

// appendOwnMembers appends s's own declared members after its (already
// mixin-populated) member list, so own members keep their original
// within-shape order and win over any mixin member sharing their name.
func appendOwnMembers(s *shape.Shape, own *shape.MemberList) {
	if own == nil {
		return
	}
	if s.Members == nil {
		s.Members = shape.NewMemberList()
	}
	for _, name := range own.Names() {
		m, _ := own.Get(name)
		s.Members.Put(m)
	}
}

// constructTraits runs every raw trait payload collected during parsing
// through the trait.Registry, attaching the resulting Trait to its shape
// or member. An unknown trait ID downgrades to a WARNING and is dropped
// (lenient mode); a factory error is a TRAIT_CONSTRUCTION_FAILED ERROR.
func constructTraits(b *model.Builder, pool *mergedPool, registry *trait.Registry, events *diag.Bag) {
	for id, ps := range pool.shapes {
		s, ok := b.Get(id)
		if !ok {
			continue
		}
		for _, rt := range ps.traits {
			constructOne(s.Traits, rt, registry, events, id)
		}
	}
}

func constructOne(into *trait.Map, rt rawTrait, registry *trait.Registry, events *diag.Bag, owner shapeid.ID) {
	factory, ok := registry.Factory(rt.id)
	if !ok {
		events.Addf(ErrUnknownTrait, diag.Warning, rt.loc, "unknown trait %s applied to %s; ignoring", rt.id, owner)
		return
	}
	t, err := factory(rt.id, rt.value)
	if err != nil {
		events.Addf(ErrTraitConstructionFailed, diag.Error, rt.loc, "failed to construct trait %s on %s: %v", rt.id, owner, err)
		return
	}
	into.Put(t)
}

// applyStatements merges traits introduced by standalone `apply` statements
// into their target shape after the pool has stabilized.
func applyStatements(b *model.Builder, pool *mergedPool, registry *trait.Registry, events *diag.Bag) {
	for _, st := range pool.applies {
		s, ok := b.Get(st.target)
		if !ok {
			events.Addf(ErrUnknownShapeTarget, diag.Error, st.trait.loc,
				"apply statement targets unknown shape %s", st.target)
			continue
		}
		constructOne(s.Traits, st.trait, registry, events, st.target)
	}
}

// checkUnknownTargets verifies every Targets() reference resolves to a
// shape actually present in the pool. Trait IDs are not checked here.
func checkUnknownTargets(b *model.Builder, events *diag.Bag) {
	for _, id := range b.IDs() {
		s, _ := b.Get(id)
		for _, t := range s.Targets() {
			if _, ok := b.Get(t); !ok {
				events.Addf(ErrUnknownShapeTarget, diag.Error, s.Location,
					"%s refers to unknown shape %s", id, t)
			}
		}
	}
}
