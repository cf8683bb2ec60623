// JSON AST codec: {"smithy": version, "metadata": {...},
// "shapes": {"ns#Name": {...}}}.
//
// Decoding builds shape.Shape/trait.Trait values straight from node.Node
// rather than unmarshaling into an intermediate JSON-tagged struct, so
// the same parsed representation feeds both the IDL and JSON AST paths.
package loader

import (
	"fmt"

	"github.com/smithy-lang/smithy-model-core/internal/diag"
	"github.com/smithy-lang/smithy-model-core/internal/node"
	"github.com/smithy-lang/smithy-model-core/internal/shape"
	"github.com/smithy-lang/smithy-model-core/internal/shapeid"
	"github.com/smithy-lang/smithy-model-core/internal/trait"
)

func parseJSONAST(file string, data []byte, events *diag.Bag) *document {
	doc := &document{file: file, metadata: node.NewObject(), shapes: make(map[shapeid.ID]*parsedShape)}
	root, err := node.Parse(file, data)
	if err != nil {
		events.Addf(ErrParseError, diag.Error, diag.SourceLocation{File: file}, "invalid JSON: %v", err)
		return doc
	}
	obj, err := root.AsObject()
	if err != nil {
		events.Addf(ErrParseError, diag.Error, diag.SourceLocation{File: file}, "root of a JSON AST model must be an object")
		return doc
	}
	if v, ok := obj.Get("smithy"); ok {
		doc.version = v.StringValue()
	}
	if v, ok := obj.Get("metadata"); ok {
		if mo, err := v.AsObject(); err == nil {
			doc.metadata = mo
		}
	}
	shapesNode, ok := obj.Get("shapes")
	if !ok {
		return doc
	}
	shapesObj, err := shapesNode.AsObject()
	if err != nil {
		events.Addf(ErrParseError, diag.Error, diag.SourceLocation{File: file}, "'shapes' must be an object")
		return doc
	}
	for _, key := range shapesObj.Keys() {
		sv, _ := shapesObj.Get(key)
		id, err := shapeid.Parse(key)
		if err != nil {
			events.Addf(ErrParseError, diag.Error, diag.SourceLocation{File: file}, "invalid shape id %q: %v", key, err)
			continue
		}
		ps, err := decodeShape(file, id, sv, events)
		if err != nil {
			events.Addf(ErrParseError, diag.Error, diag.SourceLocation{File: file}, "%s: %v", id, err)
			continue
		}
		doc.shapes[id] = ps
	}
	return doc
}

func decodeShape(file string, id shapeid.ID, v node.Node, events *diag.Bag) (*parsedShape, error) {
	obj, err := v.AsObject()
	if err != nil {
		return nil, fmt.Errorf("shape value must be an object")
	}
	typeName := obj.GetOr("type", node.Str("")).StringValue()
	t, ok := shape.ParseType(typeName)
	if !ok {
		return nil, fmt.Errorf("unknown shape type %q", typeName)
	}
	s := shape.New(id, t)
	s.Location = diag.SourceLocation{File: file}

	if mv, ok := obj.Get("mixins"); ok {
		if arr, err := mv.AsArray(); err == nil {
			for _, item := range arr {
				s.Mixins = append(s.Mixins, decodeShapeRef(item))
			}
		}
	}

	switch t {
	case shape.TypeList:
		if mv, ok := obj.Get("member"); ok {
			s.Member = decodeMember("member", mv)
		}
	case shape.TypeMap:
		if mv, ok := obj.Get("key"); ok {
			s.Key = decodeMember("key", mv)
		}
		if mv, ok := obj.Get("value"); ok {
			s.Value = decodeMember("value", mv)
		}
	case shape.TypeStructure, shape.TypeUnion, shape.TypeEnum, shape.TypeIntEnum:
		s.Members = shape.NewMemberList()
		if mv, ok := obj.Get("members"); ok {
			if mo, err := mv.AsObject(); err == nil {
				for _, name := range mo.Keys() {
					mv2, _ := mo.Get(name)
					s.Members.Put(decodeMember(name, mv2))
				}
			}
		}
	case shape.TypeOperation:
		if iv, ok := obj.Get("input"); ok {
			id := decodeTargetField(iv)
			s.Input = &id
		}
		if ov, ok := obj.Get("output"); ok {
			id := decodeTargetField(ov)
			s.Output = &id
		}
		if ev, ok := obj.Get("errors"); ok {
			if arr, err := ev.AsArray(); err == nil {
				for _, item := range arr {
					s.Errors = append(s.Errors, decodeTargetField(item))
				}
			}
		}
	case shape.TypeResource:
		s.Identifiers = decodeIdentifierMap(obj, "identifiers")
		s.Properties = decodeIdentifierMap(obj, "properties")
		s.Create = decodeOptionalTargetField(obj, "create")
		s.Put = decodeOptionalTargetField(obj, "put")
		s.Read = decodeOptionalTargetField(obj, "read")
		s.Update = decodeOptionalTargetField(obj, "update")
		s.Delete = decodeOptionalTargetField(obj, "delete")
		s.List = decodeOptionalTargetField(obj, "list")
		s.CollectionOperations = decodeRefArray(obj, "collectionOperations")
		s.Operations = decodeRefArray(obj, "operations")
		s.Resources = decodeRefArray(obj, "resources")
	case shape.TypeService:
		s.Version = obj.GetOr("version", node.Str("")).StringValue()
		s.Operations = decodeRefArray(obj, "operations")
		s.Resources = decodeRefArray(obj, "resources")
		s.Errors = decodeRefArray(obj, "errors")
		if rv, ok := obj.Get("rename"); ok {
			if ro, err := rv.AsObject(); err == nil {
				s.Rename = make(map[shapeid.ID]string)
				for _, k := range ro.Keys() {
					rid, err := shapeid.Parse(k)
					if err != nil {
						continue
					}
					v2, _ := ro.Get(k)
					s.Rename[rid] = v2.StringValue()
				}
			}
		}
	}

	var traits []rawTrait
	if tv, ok := obj.Get("traits"); ok {
		if to, err := tv.AsObject(); err == nil {
			for _, tk := range to.Keys() {
				tid, err := shapeid.Parse(tk)
				if err != nil {
					events.Addf(ErrParseError, diag.Error, s.Location, "invalid trait id %q on %s", tk, id)
					continue
				}
				tvv, _ := to.Get(tk)
				traits = append(traits, rawTrait{id: tid, value: tvv})
			}
		}
	}
	return &parsedShape{shape: s, traits: traits}, nil
}

func decodeShapeRef(v node.Node) shapeid.ID {
	obj, err := v.AsObject()
	if err != nil {
		return shapeid.ID{}
	}
	tv, _ := obj.Get("target")
	id, _ := shapeid.Parse(tv.StringValue())
	return id
}

func decodeTargetField(v node.Node) shapeid.ID {
	return decodeShapeRef(v)
}

func decodeOptionalTargetField(obj *node.Object, key string) *shapeid.ID {
	v, ok := obj.Get(key)
	if !ok {
		return nil
	}
	id := decodeShapeRef(v)
	return &id
}

func decodeRefArray(obj *node.Object, key string) []shapeid.ID {
	v, ok := obj.Get(key)
	if !ok {
		return nil
	}
	arr, err := v.AsArray()
	if err != nil {
		return nil
	}
	var out []shapeid.ID
	for _, item := range arr {
		out = append(out, decodeShapeRef(item))
	}
	return out
}

func decodeIdentifierMap(obj *node.Object, key string) []shape.IdentifierBinding {
	v, ok := obj.Get(key)
	if !ok {
		return nil
	}
	io, err := v.AsObject()
	if err != nil {
		return nil
	}
	var out []shape.IdentifierBinding
	for _, name := range io.Keys() {
		tv, _ := io.Get(name)
		out = append(out, shape.IdentifierBinding{Name: name, Target: decodeTargetField(tv)})
	}
	return out
}

func decodeMember(name string, v node.Node) *shape.Member {
	obj, err := v.AsObject()
	if err != nil {
		return &shape.Member{Name: name}
	}
	m := &shape.Member{Name: name, Target: decodeShapeRef(v), Traits: trait.NewMap()}
	if tv, ok := obj.Get("traits"); ok {
		if to, err := tv.AsObject(); err == nil {
			for _, tk := range to.Keys() {
				tid, err := shapeid.Parse(tk)
				if err != nil {
					continue
				}
				tvv, _ := to.Get(tk)
				m.Traits.Put(trait.Trait{ID: tid, Value: tvv})
			}
		}
	}
	return m
}

// EncodeModelJSON renders a model back to the JSON AST format, used by
// the `ast` command and the `model` build plugin.
func EncodeModelJSON(version string, metadata *node.Object, shapes map[shapeid.ID]*shape.Shape) node.Node {
	root := node.NewObject()
	root.Put("smithy", node.Str(version))
	if metadata != nil && metadata.Length() > 0 {
		root.Put("metadata", node.Obj(metadata))
	}
	shapesObj := node.NewObject()
	ids := make([]shapeid.ID, 0, len(shapes))
	for id := range shapes {
		ids = append(ids, id)
	}
	sortIDs(ids)
	for _, id := range ids {
		shapesObj.Put(id.String(), encodeShape(shapes[id]))
	}
	root.Put("shapes", node.Obj(shapesObj))
	return node.Obj(root)
}

func encodeShape(s *shape.Shape) node.Node {
	obj := node.NewObject()
	obj.Put("type", node.Str(s.Type.String()))
	switch s.Type {
	case shape.TypeList:
		if s.Member != nil {
			obj.Put("member", encodeMemberRef(s.Member))
		}
	case shape.TypeMap:
		if s.Key != nil {
			obj.Put("key", encodeMemberRef(s.Key))
		}
		if s.Value != nil {
			obj.Put("value", encodeMemberRef(s.Value))
		}
	case shape.TypeStructure, shape.TypeUnion, shape.TypeEnum, shape.TypeIntEnum:
		members := node.NewObject()
		for _, n := range s.Members.Names() {
			m, _ := s.Members.Get(n)
			members.Put(n, encodeMemberRef(m))
		}
		obj.Put("members", node.Obj(members))
	case shape.TypeOperation:
		if s.Input != nil {
			obj.Put("input", encodeTargetRef(*s.Input))
		}
		if s.Output != nil {
			obj.Put("output", encodeTargetRef(*s.Output))
		}
		if len(s.Errors) > 0 {
			obj.Put("errors", encodeTargetRefArray(s.Errors))
		}
	case shape.TypeResource:
		if len(s.Identifiers) > 0 {
			obj.Put("identifiers", encodeIdentifierMap(s.Identifiers))
		}
		if len(s.Properties) > 0 {
			obj.Put("properties", encodeIdentifierMap(s.Properties))
		}
		if s.Create != nil {
			obj.Put("create", encodeTargetRef(*s.Create))
		}
		if s.Put != nil {
			obj.Put("put", encodeTargetRef(*s.Put))
		}
		if s.Read != nil {
			obj.Put("read", encodeTargetRef(*s.Read))
		}
		if s.Update != nil {
			obj.Put("update", encodeTargetRef(*s.Update))
		}
		if s.Delete != nil {
			obj.Put("delete", encodeTargetRef(*s.Delete))
		}
		if s.List != nil {
			obj.Put("list", encodeTargetRef(*s.List))
		}
		if len(s.CollectionOperations) > 0 {
			obj.Put("collectionOperations", encodeTargetRefArray(s.CollectionOperations))
		}
		if len(s.Operations) > 0 {
			obj.Put("operations", encodeTargetRefArray(s.Operations))
		}
		if len(s.Resources) > 0 {
			obj.Put("resources", encodeTargetRefArray(s.Resources))
		}
	case shape.TypeService:
		if s.Version != "" {
			obj.Put("version", node.Str(s.Version))
		}
		if len(s.Operations) > 0 {
			obj.Put("operations", encodeTargetRefArray(s.Operations))
		}
		if len(s.Resources) > 0 {
			obj.Put("resources", encodeTargetRefArray(s.Resources))
		}
		if len(s.Errors) > 0 {
			obj.Put("errors", encodeTargetRefArray(s.Errors))
		}
		if len(s.Rename) > 0 {
			rename := node.NewObject()
			for id, name := range s.Rename {
				rename.Put(id.String(), node.Str(name))
			}
			obj.Put("rename", node.Obj(rename))
		}
	}
	if s.Traits != nil && s.Traits.Length() > 0 {
		traits := node.NewObject()
		for _, tid := range s.Traits.Keys() {
			t, _ := s.Traits.Get(tid)
			traits.Put(tid.String(), t.Value)
		}
		obj.Put("traits", node.Obj(traits))
	}
	return node.Obj(obj)
}

func encodeMemberRef(m *shape.Member) node.Node {
	obj := node.NewObject()
	obj.Put("target", node.Str(m.Target.String()))
	if m.Traits != nil && m.Traits.Length() > 0 {
		traits := node.NewObject()
		for _, tid := range m.Traits.Keys() {
			t, _ := m.Traits.Get(tid)
			traits.Put(tid.String(), t.Value)
		}
		obj.Put("traits", node.Obj(traits))
	}
	return node.Obj(obj)
}

func encodeIdentifierMap(bindings []shape.IdentifierBinding) node.Node {
	obj := node.NewObject()
	for _, b := range bindings {
		obj.Put(b.Name, encodeTargetRef(b.Target))
	}
	return node.Obj(obj)
}

func encodeTargetRef(id shapeid.ID) node.Node {
	obj := node.NewObject()
	obj.Put("target", node.Str(id.String()))
	return node.Obj(obj)
}

func encodeTargetRefArray(ids []shapeid.ID) node.Node {
	var items []node.Node
	for _, id := range ids {
		items = append(items, encodeTargetRef(id))
	}
	return node.Arr(items)
}

func sortIDs(ids []shapeid.ID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0; j-- {
			if ids[j-1].String() > ids[j].String() {
				ids[j-1], ids[j] = ids[j], ids[j-1]
			} else {
				break
			}
		}
	}
}
