// Package node implements the Node tree: the untyped, source-located
// JSON-like value used for trait payloads and for both textual and
// JSON-AST inputs.
//
// Object key order is preserved through a streaming json.Decoder token
// walk rather than decoding into a map, and every node carries a Kind
// discriminator plus a SourceLocation for diagnostics.
package node

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/smithy-lang/smithy-model-core/internal/diag"
)

// Kind discriminates the Node variants.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// TypeMismatchError is returned by the Get-as-type accessors when the
// actual Kind differs from what the caller requested.
type TypeMismatchError struct {
	Expected Kind
	Actual   Kind
	Location diag.SourceLocation
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("NODE_TYPE_MISMATCH: expected %s, found %s at %s", e.Expected, e.Actual, e.Location)
}

// Node is a source-located value in the untyped tree, built through the
// Null/Bool/Num/IntNode/Str/Arr/Obj constructors and Parse. A Node is a
// value type, but an object Node shares its *Object: Put on the result of
// AsObject changes every copy of that Node (Object.Clone gives an
// independent copy).
type Node struct {
	kind     Kind
	boolV    bool
	numV     Number
	strV     string
	arrV     []Node
	objV     *Object
	location diag.SourceLocation
}

func Null() Node { return Node{kind: KindNull} }

func Bool(v bool) Node { return Node{kind: KindBool, boolV: v} }

func Num(v Number) Node { return Node{kind: KindNumber, numV: v} }

func IntNode(v int64) Node { return Num(IntNumber(v)) }

func Str(v string) Node { return Node{kind: KindString, strV: v} }

func Arr(items []Node) Node { return Node{kind: KindArray, arrV: items} }

func Obj(o *Object) Node {
	if o == nil {
		o = NewObject()
	}
	return Node{kind: KindObject, objV: o}
}

func (n Node) WithLocation(loc diag.SourceLocation) Node {
	n.location = loc
	return n
}

func (n Node) Location() diag.SourceLocation { return n.location }
func (n Node) Kind() Kind                    { return n.kind }
func (n Node) IsNull() bool                  { return n.kind == KindNull }

func (n Node) AsBool() (bool, error) {
	if n.kind != KindBool {
		return false, &TypeMismatchError{Expected: KindBool, Actual: n.kind, Location: n.location}
	}
	return n.boolV, nil
}

func (n Node) AsNumber() (Number, error) {
	if n.kind != KindNumber {
		return Number{}, &TypeMismatchError{Expected: KindNumber, Actual: n.kind, Location: n.location}
	}
	return n.numV, nil
}

func (n Node) AsString() (string, error) {
	if n.kind != KindString {
		return "", &TypeMismatchError{Expected: KindString, Actual: n.kind, Location: n.location}
	}
	return n.strV, nil
}

func (n Node) AsArray() ([]Node, error) {
	if n.kind != KindArray {
		return nil, &TypeMismatchError{Expected: KindArray, Actual: n.kind, Location: n.location}
	}
	return n.arrV, nil
}

func (n Node) AsObject() (*Object, error) {
	if n.kind != KindObject {
		return nil, &TypeMismatchError{Expected: KindObject, Actual: n.kind, Location: n.location}
	}
	return n.objV, nil
}

// StringValue returns the string content or "" if the Node is not a
// string; used by call sites that prefer a zero value over an error.
func (n Node) StringValue() string {
	if n.kind == KindString {
		return n.strV
	}
	return ""
}

func (n Node) BoolValue() bool {
	if n.kind == KindBool {
		return n.boolV
	}
	return false
}

// Equal reports deep structural equality. Object key order is ignored
// for equality purposes.
func Equal(a, b Node) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.boolV == b.boolV
	case KindNumber:
		return a.numV.Equal(b.numV)
	case KindString:
		return a.strV == b.strV
	case KindArray:
		if len(a.arrV) != len(b.arrV) {
			return false
		}
		for i := range a.arrV {
			if !Equal(a.arrV[i], b.arrV[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if a.objV.Length() != b.objV.Length() {
			return false
		}
		for _, k := range a.objV.Keys() {
			bv, ok := b.objV.Get(k)
			if !ok || !Equal(a.objV.mustGet(k), bv) {
				return false
			}
		}
		return true
	}
	return false
}

// Parse decodes JSON text into a Node tree, attaching a source location to
// every Object/Array/scalar it builds. The location records file only;
// line and column are not tracked.
func Parse(file string, data []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	n, err := parseValue(file, dec)
	if err != nil {
		return Node{}, err
	}
	return n, nil
}

func parseValue(file string, dec *json.Decoder) (Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return Node{}, err
	}
	n, err := nodeFromToken(file, dec, tok)
	if err != nil {
		return Node{}, err
	}
	return n.WithLocation(diag.SourceLocation{File: file}), nil
}

func nodeFromToken(file string, dec *json.Decoder, tok json.Token) (Node, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return parseObjectBody(file, dec)
		case '[':
			return parseArrayBody(file, dec)
		default:
			return Node{}, fmt.Errorf("unexpected delimiter %q", t)
		}
	case bool:
		return Bool(t), nil
	case json.Number:
		num, err := ParseNumber(t.String())
		if err != nil {
			return Node{}, err
		}
		return Num(num), nil
	case string:
		return Str(t), nil
	case nil:
		return Null(), nil
	default:
		return Node{}, fmt.Errorf("unsupported JSON token: %v", tok)
	}
}

func parseArrayBody(file string, dec *json.Decoder) (Node, error) {
	var items []Node
	for dec.More() {
		v, err := parseValue(file, dec)
		if err != nil {
			return Node{}, err
		}
		items = append(items, v)
	}
	if _, err := dec.Token(); err != nil { // closing ']'
		return Node{}, err
	}
	return Arr(items), nil
}

func parseObjectBody(file string, dec *json.Decoder) (Node, error) {
	obj := NewObject()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Node{}, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return Node{}, fmt.Errorf("expected object key, found %v", keyTok)
		}
		v, err := parseValue(file, dec)
		if err != nil {
			return Node{}, err
		}
		obj.Put(key, v)
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return Node{}, err
	}
	return Obj(obj), nil
}

// Serialize renders a Node back to JSON text, preserving Object key order.
func Serialize(n Node) (string, error) {
	var buf bytes.Buffer
	if err := writeNode(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writeNode(buf *bytes.Buffer, n Node) error {
	switch n.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if n.boolV {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		buf.WriteString(n.numV.String())
	case KindString:
		b, err := json.Marshal(n.strV)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range n.arrV {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeNode(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, k := range n.objV.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			v, _ := n.objV.Get(k)
			if err := writeNode(buf, v); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}
