// Package shape implements the Shape graph node and its ~20 variants.
//
// Every shape kind is represented as one flat struct with a Type
// discriminator and a grab-bag of kind-specific optional fields — this
// mirrors how the JSON AST itself is naturally shaped, with the string
// type tag promoted to a real Go enum and every shape-id field typed as
// shapeid.ID so the compiler catches a misuse that a bare string field
// could not.
package shape

import (
	"github.com/smithy-lang/smithy-model-core/internal/diag"
	"github.com/smithy-lang/smithy-model-core/internal/shapeid"
	"github.com/smithy-lang/smithy-model-core/internal/trait"
)

// Type enumerates every shape kind.
type Type int

const (
	TypeBlob Type = iota
	TypeBoolean
	TypeString
	TypeByte
	TypeShort
	TypeInteger
	TypeLong
	TypeFloat
	TypeDouble
	TypeBigInteger
	TypeBigDecimal
	TypeTimestamp
	TypeDocument
	TypeList
	TypeMap
	TypeStructure
	TypeUnion
	TypeEnum
	TypeIntEnum
	TypeOperation
	TypeResource
	TypeService
	TypeMember
)

var typeNames = map[Type]string{
	TypeBlob:       "blob",
	TypeBoolean:    "boolean",
	TypeString:     "string",
	TypeByte:       "byte",
	TypeShort:      "short",
	TypeInteger:    "integer",
	TypeLong:       "long",
	TypeFloat:      "float",
	TypeDouble:     "double",
	TypeBigInteger: "bigInteger",
	TypeBigDecimal: "bigDecimal",
	TypeTimestamp:  "timestamp",
	TypeDocument:   "document",
	TypeList:       "list",
	TypeMap:        "map",
	TypeStructure:  "structure",
	TypeUnion:      "union",
	TypeEnum:       "enum",
	TypeIntEnum:    "intEnum",
	TypeOperation:  "operation",
	TypeResource:   "resource",
	TypeService:    "service",
	TypeMember:     "member",
}

var namesToType = func() map[string]Type {
	m := make(map[string]Type, len(typeNames))
	for t, n := range typeNames {
		m[n] = t
	}
	return m
}()

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return "unknown"
}

func ParseType(s string) (Type, bool) {
	t, ok := namesToType[s]
	return t, ok
}

// IsSimple reports whether t is one of the scalar shape kinds that never
// have members.
func (t Type) IsSimple() bool {
	switch t {
	case TypeBlob, TypeBoolean, TypeString, TypeByte, TypeShort, TypeInteger,
		TypeLong, TypeFloat, TypeDouble, TypeBigInteger, TypeBigDecimal,
		TypeTimestamp, TypeDocument:
		return true
	}
	return false
}

func (t Type) IsAggregate() bool {
	switch t {
	case TypeList, TypeMap, TypeStructure, TypeUnion, TypeEnum, TypeIntEnum:
		return true
	}
	return false
}

func (t Type) HasMixins() bool {
	switch t {
	case TypeStructure, TypeUnion, TypeList, TypeMap, TypeEnum, TypeIntEnum,
		TypeResource, TypeOperation, TypeService, TypeBlob, TypeBoolean,
		TypeString, TypeByte, TypeShort, TypeInteger, TypeLong, TypeFloat,
		TypeDouble, TypeBigInteger, TypeBigDecimal, TypeTimestamp, TypeDocument:
		return true
	}
	return false
}

// Member is a named reference to a target shape, carried by aggregate and
// member-bearing shapes. Its own ShapeID is the containing shape's ID
// with $name appended.
type Member struct {
	Name     string
	Target   shapeid.ID
	Traits   *trait.Map
	Location diag.SourceLocation
}

func (m *Member) ID(container shapeid.ID) shapeid.ID {
	return container.WithMember(m.Name)
}

// MemberList is an order-preserving sequence of Members.
type MemberList struct {
	order []string
	byKey map[string]*Member
}

func NewMemberList() *MemberList {
	return &MemberList{byKey: make(map[string]*Member)}
}

func (l *MemberList) Put(m *Member) {
	if _, ok := l.byKey[m.Name]; !ok {
		l.order = append(l.order, m.Name)
	}
	l.byKey[m.Name] = m
}

func (l *MemberList) Get(name string) (*Member, bool) {
	if l == nil {
		return nil, false
	}
	m, ok := l.byKey[name]
	return m, ok
}

func (l *MemberList) Names() []string {
	if l == nil {
		return nil
	}
	return l.order
}

func (l *MemberList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.order)
}

func (l *MemberList) Clone() *MemberList {
	c := NewMemberList()
	if l == nil {
		return c
	}
	for _, n := range l.order {
		m := *l.byKey[n]
		c.Put(&m)
	}
	return c
}

// IdentifierBinding is a named reference used by Resource.Identifiers.
type IdentifierBinding struct {
	Name   string
	Target shapeid.ID
}

// Shape is a single node in the Model graph. Every variant shares ID,
// Mixins, Location and Traits; kind-specific data lives in the fields
// below that kind populates. A frozen Shape is never mutated in place;
// transforms build a fresh Shape value and let the Model's shape map
// point at it instead.
type Shape struct {
	ID       shapeid.ID
	Type     Type
	Traits   *trait.Map
	Mixins   []shapeid.ID
	Location diag.SourceLocation

	// List
	Member *Member

	// Map
	Key   *Member
	Value *Member

	// Structure, Union, Enum, IntEnum
	Members *MemberList

	// Resource
	Identifiers          []IdentifierBinding
	Properties           []IdentifierBinding
	Create               *shapeid.ID
	Put                  *shapeid.ID
	Read                 *shapeid.ID
	Update               *shapeid.ID
	Delete               *shapeid.ID
	List                 *shapeid.ID
	CollectionOperations []shapeid.ID
	Resources            []shapeid.ID

	// Resource and Service
	Operations []shapeid.ID

	// Operation
	Input  *shapeid.ID
	Output *shapeid.ID
	Errors []shapeid.ID

	// Service
	Version string
	Rename  map[shapeid.ID]string
}

func New(id shapeid.ID, t Type) *Shape {
	return &Shape{ID: id, Type: t, Traits: trait.NewMap()}
}

// Clone returns a deep-enough copy for transforms to mutate safely: the
// Traits map, Mixins slice, Members list and id-slice fields are all
// copied; the Shape's own identity (ID, Type) is preserved so callers
// typically mutate ID afterward for a rename.
func (s *Shape) Clone() *Shape {
	c := *s
	c.Traits = s.Traits.Clone()
	c.Mixins = append([]shapeid.ID(nil), s.Mixins...)
	c.Members = s.Members.Clone()
	if s.Member != nil {
		m := *s.Member
		m.Traits = s.Member.Traits.Clone()
		c.Member = &m
	}
	if s.Key != nil {
		m := *s.Key
		m.Traits = s.Key.Traits.Clone()
		c.Key = &m
	}
	if s.Value != nil {
		m := *s.Value
		m.Traits = s.Value.Traits.Clone()
		c.Value = &m
	}
	c.Identifiers = append([]IdentifierBinding(nil), s.Identifiers...)
	c.Properties = append([]IdentifierBinding(nil), s.Properties...)
	c.CollectionOperations = append([]shapeid.ID(nil), s.CollectionOperations...)
	c.Resources = append([]shapeid.ID(nil), s.Resources...)
	c.Operations = append([]shapeid.ID(nil), s.Operations...)
	c.Errors = append([]shapeid.ID(nil), s.Errors...)
	c.Create = cloneIDPtr(s.Create)
	c.Put = cloneIDPtr(s.Put)
	c.Read = cloneIDPtr(s.Read)
	c.Update = cloneIDPtr(s.Update)
	c.Delete = cloneIDPtr(s.Delete)
	c.List = cloneIDPtr(s.List)
	c.Input = cloneIDPtr(s.Input)
	c.Output = cloneIDPtr(s.Output)
	if s.Rename != nil {
		c.Rename = make(map[shapeid.ID]string, len(s.Rename))
		for k, v := range s.Rename {
			c.Rename[k] = v
		}
	}
	return &c
}

// cloneIDPtr returns a fresh pointer holding the same ID, so a cloned
// Shape never shares a *shapeid.ID with the Shape it was cloned from —
// rewriteTargets mutates these pointers in place.
func cloneIDPtr(id *shapeid.ID) *shapeid.ID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

// Targets returns every shape ID this shape directly references, in a
// stable order: member targets, then operation/resource/service
// references. Used by the Model's neighbor index and by
// dependency-closure transforms (removeUnreferencedShapes).
func (s *Shape) Targets() []shapeid.ID {
	var out []shapeid.ID
	add := func(id *shapeid.ID) {
		if id != nil {
			out = append(out, *id)
		}
	}
	switch s.Type {
	case TypeList:
		if s.Member != nil {
			out = append(out, s.Member.Target)
		}
	case TypeMap:
		if s.Key != nil {
			out = append(out, s.Key.Target)
		}
		if s.Value != nil {
			out = append(out, s.Value.Target)
		}
	case TypeStructure, TypeUnion, TypeEnum, TypeIntEnum:
		for _, n := range s.Members.Names() {
			m, _ := s.Members.Get(n)
			out = append(out, m.Target)
		}
	case TypeOperation:
		add(s.Input)
		add(s.Output)
		out = append(out, s.Errors...)
	case TypeResource:
		for _, ib := range s.Identifiers {
			out = append(out, ib.Target)
		}
		for _, ib := range s.Properties {
			out = append(out, ib.Target)
		}
		add(s.Create)
		add(s.Put)
		add(s.Read)
		add(s.Update)
		add(s.Delete)
		add(s.List)
		out = append(out, s.CollectionOperations...)
		out = append(out, s.Operations...)
		out = append(out, s.Resources...)
	case TypeService:
		out = append(out, s.Operations...)
		out = append(out, s.Resources...)
		out = append(out, s.Errors...)
	}
	out = append(out, s.Mixins...)
	return out
}

// Visitor exhausts every shape kind at compile time. Consumers
// that only care about a handful of kinds should prefer a type switch over
// s.Type; Visitor is for code that must handle every kind and wants a
// compiler error when a new kind is added. The IDL and JSON AST
// generators switch on s.Type and do not use it.
type Visitor interface {
	VisitSimple(s *Shape) error
	VisitList(s *Shape) error
	VisitMap(s *Shape) error
	VisitStructure(s *Shape) error
	VisitUnion(s *Shape) error
	VisitEnum(s *Shape) error
	VisitIntEnum(s *Shape) error
	VisitOperation(s *Shape) error
	VisitResource(s *Shape) error
	VisitService(s *Shape) error
	VisitMember(s *Shape) error
}

func Accept(s *Shape, v Visitor) error {
	switch s.Type {
	case TypeList:
		return v.VisitList(s)
	case TypeMap:
		return v.VisitMap(s)
	case TypeStructure:
		return v.VisitStructure(s)
	case TypeUnion:
		return v.VisitUnion(s)
	case TypeEnum:
		return v.VisitEnum(s)
	case TypeIntEnum:
		return v.VisitIntEnum(s)
	case TypeOperation:
		return v.VisitOperation(s)
	case TypeResource:
		return v.VisitResource(s)
	case TypeService:
		return v.VisitService(s)
	case TypeMember:
		return v.VisitMember(s)
	default:
		return v.VisitSimple(s)
	}
}
