// IDL text parser: recursive descent over namespace/metadata/use/apply/
// shape-kind statements with a one-token-lookahead peek/advance pair,
// mixin "with [...]" syntax, legacy @enum-trait synthesis, and v2 inline
// operation input/output. Builds shape.Shape/trait.Trait values directly
// and accumulates diag.Events for recoverable errors instead of
// returning on the first one.
package loader

import (
	"strings"

	"github.com/smithy-lang/smithy-model-core/internal/diag"
	"github.com/smithy-lang/smithy-model-core/internal/node"
	"github.com/smithy-lang/smithy-model-core/internal/prelude"
	"github.com/smithy-lang/smithy-model-core/internal/shape"
	"github.com/smithy-lang/smithy-model-core/internal/shapeid"
	"github.com/smithy-lang/smithy-model-core/internal/trait"
)

// parsedShape is a shape awaiting merge: the shape value itself plus the
// raw (unconstructed) trait payloads found in the IDL, since trait
// construction needs the full Registry which is only assembled once all
// files are parsed.
type parsedShape struct {
	shape  *shape.Shape
	traits []rawTrait
}

type rawTrait struct {
	id    shapeid.ID
	value node.Node
	loc   diag.SourceLocation
}

type applyStatement struct {
	target shapeid.ID
	trait  rawTrait
}

// document is the result of parsing one IDL file, prior to merge.
type document struct {
	file      string
	version   string
	metadata  *node.Object
	shapes    map[shapeid.ID]*parsedShape
	applies   []applyStatement
	namespace string
}

type idlParser struct {
	file   string
	lex    *lexer
	peeked *token
	events *diag.Bag

	namespace string
	useImport map[string]shapeid.ID // short name -> full ID
	doc       *document
	pendingDoc string // accumulated /// lines since the last non-trait token
}

func parseIDL(file, src string, events *diag.Bag) *document {
	p := &idlParser{
		file:      file,
		lex:       newLexer(file, src, events),
		events:    events,
		useImport: make(map[string]shapeid.ID),
		doc: &document{
			file:     file,
			metadata: node.NewObject(),
			shapes:   make(map[shapeid.ID]*parsedShape),
		},
	}
	p.parse()
	return p.doc
}

func (p *idlParser) errf(loc diag.SourceLocation, format string, args ...interface{}) {
	p.events.Addf(ErrParseError, diag.Error, loc, format, args...)
}

func (p *idlParser) peek() token {
	if p.peeked == nil {
		t := p.lex.next()
		for t.typ == tokLineComment {
			t = p.lex.next()
		}
		p.peeked = &t
	}
	return *p.peeked
}

func (p *idlParser) next() token {
	t := p.peek()
	p.peeked = nil
	if t.typ == tokDocComment {
		if p.pendingDoc != "" {
			p.pendingDoc += "\n"
		}
		p.pendingDoc += t.text
		return p.next()
	}
	return t
}

func (p *idlParser) expect(typ tokenType, what string) token {
	t := p.next()
	if t.typ != typ {
		p.errf(t.loc, "expected %s, found %q", what, t.text)
	}
	return t
}

func (p *idlParser) expectSymbol(text string) {
	t := p.next()
	if t.typ != tokSymbol || t.text != text {
		p.errf(t.loc, "expected %q, found %q", text, t.text)
	}
}

func (p *idlParser) takeDoc() string {
	d := p.pendingDoc
	p.pendingDoc = ""
	return d
}

func (p *idlParser) parse() {
	for {
		t := p.peek()
		if t.typ == tokEOF {
			return
		}
		switch {
		case t.typ == tokDollar:
			p.parseVersionControl()
		case t.typ == tokSymbol && t.text == "namespace":
			p.parseNamespace()
		case t.typ == tokSymbol && t.text == "metadata":
			p.parseMetadata()
		case t.typ == tokSymbol && t.text == "use":
			p.parseUse()
		case t.typ == tokSymbol && t.text == "apply":
			p.parseApply()
		case t.typ == tokAt:
			traits := p.parseTraitBlock()
			p.parseShapeWithTraits(traits)
		case t.typ == tokSymbol:
			p.parseShapeWithTraits(nil)
		default:
			p.errf(t.loc, "unexpected token %q", t.text)
			p.next()
		}
	}
}

// parseVersionControl handles the leading `$version: "2.0"` control
// statement.
func (p *idlParser) parseVersionControl() {
	p.next() // $
	p.expectSymbol("version")
	p.expect(tokColon, "':'")
	v := p.expect(tokString, "version string")
	p.doc.version = v.text
}

func (p *idlParser) parseNamespace() {
	p.next() // 'namespace'
	name := p.expectNamespacedIdentifier()
	p.namespace = name
	p.doc.namespace = name
}

func (p *idlParser) parseUse() {
	p.next() // 'use'
	full := p.expectAbsoluteShapeID()
	short := full.Name
	p.useImport[short] = full
}

func (p *idlParser) parseMetadata() {
	p.next() // 'metadata'
	key := p.expectQuotedOrSymbol()
	p.expect(tokEquals, "'='")
	v := p.parseNodeValue()
	p.doc.metadata.Put(key, v)
}

func (p *idlParser) parseApply() {
	p.next() // 'apply'
	target := p.expectShapeRef()
	t := p.peek()
	if t.typ == tokOpenBrace {
		// `apply Foo { @trait1 @trait2 }` block form.
		p.next()
		for p.peek().typ != tokCloseBrace && p.peek().typ != tokEOF {
			id, v, loc := p.parseOneTrait()
			p.doc.applies = append(p.doc.applies, applyStatement{target: target, trait: rawTrait{id: id, value: v, loc: loc}})
		}
		p.expect(tokCloseBrace, "'}'")
		return
	}
	id, v, loc := p.parseOneTrait()
	p.doc.applies = append(p.doc.applies, applyStatement{target: target, trait: rawTrait{id: id, value: v, loc: loc}})
}

// parseTraitBlock parses zero or more consecutive `@trait(...)` annotations
// preceding a shape or member statement.
func (p *idlParser) parseTraitBlock() []rawTrait {
	var traits []rawTrait
	for p.peek().typ == tokAt {
		id, v, loc := p.parseOneTrait()
		traits = append(traits, rawTrait{id: id, value: v, loc: loc})
	}
	return traits
}

func (p *idlParser) parseOneTrait() (shapeid.ID, node.Node, diag.SourceLocation) {
	at := p.next() // '@'
	id := p.expectTraitRef()
	if p.peek().typ == tokOpenParen {
		p.next()
		v := p.parseTraitArgs()
		p.expect(tokCloseParen, "')'")
		return id, v, at.loc
	}
	return id, node.Obj(node.NewObject()), at.loc
}

// parseTraitArgs parses the parenthesized body of a trait application. A
// single bare literal (string/number/array) is the trait's whole value; a
// key: value, ... sequence builds an object value.
func (p *idlParser) parseTraitArgs() node.Node {
	if p.peek().typ == tokCloseParen {
		return node.Obj(node.NewObject())
	}
	// Look ahead: `symbol :` means object-args form; anything else is a
	// single literal value.
	first := p.peek()
	if first.typ == tokSymbol || first.typ == tokString {
		save := *p.lex
		savedPeek := p.peeked
		savedEvents := p.events.Len()
		p.next()
		isKey := p.peek().typ == tokColon
		*p.lex = save
		p.peeked = savedPeek
		p.events.Truncate(savedEvents)
		if isKey {
			obj := node.NewObject()
			for {
				key := p.expectQuotedOrSymbol()
				p.expect(tokColon, "':'")
				v := p.parseNodeValue()
				obj.Put(key, v)
				if p.peek().typ == tokComma {
					p.next()
					continue
				}
				break
			}
			return node.Obj(obj)
		}
	}
	return p.parseNodeValue()
}

// parseNodeValue parses a single Node literal: string, number, bool, null,
// array or object.
func (p *idlParser) parseNodeValue() node.Node {
	t := p.peek()
	switch t.typ {
	case tokString:
		p.next()
		return node.Str(t.text)
	case tokNumber:
		p.next()
		n, err := node.ParseNumber(t.text)
		if err != nil {
			p.errf(t.loc, "malformed number %q", t.text)
			return node.IntNode(0)
		}
		return node.Num(n)
	case tokOpenBracket:
		p.next()
		var items []node.Node
		for p.peek().typ != tokCloseBracket && p.peek().typ != tokEOF {
			items = append(items, p.parseNodeValue())
			if p.peek().typ == tokComma {
				p.next()
			}
		}
		p.expect(tokCloseBracket, "']'")
		return node.Arr(items)
	case tokOpenBrace:
		p.next()
		obj := node.NewObject()
		for p.peek().typ != tokCloseBrace && p.peek().typ != tokEOF {
			key := p.expectQuotedOrSymbol()
			p.expect(tokColon, "':'")
			v := p.parseNodeValue()
			obj.Put(key, v)
			if p.peek().typ == tokComma {
				p.next()
			}
		}
		p.expect(tokCloseBrace, "'}'")
		return node.Obj(obj)
	case tokSymbol:
		p.next()
		switch t.text {
		case "true":
			return node.Bool(true)
		case "false":
			return node.Bool(false)
		case "null":
			return node.Null()
		default:
			return node.Str(t.text)
		}
	default:
		p.errf(t.loc, "expected a value, found %q", t.text)
		p.next()
		return node.Null()
	}
}

func (p *idlParser) expectQuotedOrSymbol() string {
	t := p.next()
	if t.typ != tokString && t.typ != tokSymbol {
		p.errf(t.loc, "expected an identifier or string, found %q", t.text)
	}
	return t.text
}

func (p *idlParser) expectNamespacedIdentifier() string {
	var sb strings.Builder
	t := p.expect(tokSymbol, "identifier")
	sb.WriteString(t.text)
	for p.peek().typ == tokDot {
		p.next()
		part := p.expect(tokSymbol, "identifier")
		sb.WriteByte('.')
		sb.WriteString(part.text)
	}
	return sb.String()
}

// expectAbsoluteShapeID parses `ns.seg#Name` or `ns.seg#Name$member`.
func (p *idlParser) expectAbsoluteShapeID() shapeid.ID {
	ns := p.expectNamespacedIdentifier()
	p.expect(tokHash, "'#'")
	name := p.expect(tokSymbol, "shape name").text
	member := ""
	if p.peek().typ == tokDollar {
		p.next()
		member = p.expect(tokSymbol, "member name").text
	}
	return shapeid.New(ns, name, member)
}

// expectShapeRef parses a shape reference that may be relative (resolved
// via use-imports/prelude/current namespace) or absolute.
func (p *idlParser) expectShapeRef() shapeid.ID {
	return p.expectRef(false)
}

// expectTraitRef parses a trait-id reference the same way expectShapeRef
// does, but additionally recognizes unqualified built-in trait names
// (e.g. `required`, `http`) as referring to the prelude, since those
// never get hijacked by a same-named shape the way an ordinary shape
// reference could.
func (p *idlParser) expectTraitRef() shapeid.ID {
	return p.expectRef(true)
}

func (p *idlParser) expectRef(isTrait bool) shapeid.ID {
	t := p.next()
	if t.typ != tokSymbol {
		p.errf(t.loc, "expected a shape id, found %q", t.text)
		return shapeid.ID{}
	}
	name := t.text
	member := ""
	if p.peek().typ == tokHash {
		// t.text was actually a namespace prefix.
		p.next()
		nm := p.expect(tokSymbol, "shape name").text
		if p.peek().typ == tokDollar {
			p.next()
			member = p.expect(tokSymbol, "member name").text
		}
		return shapeid.New(name, nm, member)
	}
	if p.peek().typ == tokDollar {
		p.next()
		member = p.expect(tokSymbol, "member name").text
	}
	return p.resolve(name, member, isTrait)
}

// resolve applies the shape-id resolution order: use import, then the
// prelude for a prelude simple-shape name, otherwise the current
// namespace. A shape of the current namespace that shares a prelude
// simple-shape name is never chosen over the prelude shape; whether a
// current-namespace shape exists is not checked. isTrait additionally allows an
// unqualified built-in trait name to resolve to the prelude even when
// it isn't one of the prelude's simple shape names; ordinary shape
// references never get this treatment, since a user's own shape could
// legitimately be named e.g. "input" or "mixin".
func (p *idlParser) resolve(name, member string, isTrait bool) shapeid.ID {
	if full, ok := p.useImport[name]; ok {
		return shapeid.New(full.Namespace, full.Name, member)
	}
	if isPreludeSimpleName(name) || (isTrait && prelude.IsPreludeTraitName(name)) {
		return shapeid.New(shapeid.PreludeNamespace, name, member)
	}
	return shapeid.New(p.namespace, name, member)
}

func isPreludeSimpleName(name string) bool {
	switch name {
	case "Boolean", "String", "Blob", "Timestamp", "Document", "BigInteger",
		"BigDecimal", "Byte", "Short", "Integer", "Long", "Float", "Double",
		"Unit", "PrimitiveBoolean", "PrimitiveByte", "PrimitiveShort",
		"PrimitiveInteger", "PrimitiveLong", "PrimitiveFloat", "PrimitiveDouble":
		return true
	}
	return false
}

func (p *idlParser) shapeIDHere(name string) shapeid.ID {
	return shapeid.New(p.namespace, name, "")
}

// parseShapeWithTraits dispatches on the shape-kind keyword.
func (p *idlParser) parseShapeWithTraits(traits []rawTrait) {
	doc := p.takeDoc()
	kw := p.next()
	if kw.typ != tokSymbol {
		p.errf(kw.loc, "expected a shape statement, found %q", kw.text)
		return
	}
	var s *shape.Shape
	switch kw.text {
	case "list":
		s = p.parseList()
	case "map":
		s = p.parseMap()
	case "structure":
		s = p.parseStructure()
	case "union":
		s = p.parseUnionShape()
	case "enum":
		s = p.parseEnum(shape.TypeEnum)
	case "intEnum":
		s = p.parseEnum(shape.TypeIntEnum)
	case "operation":
		s = p.parseOperation()
	case "resource":
		s = p.parseResource()
	case "service":
		s = p.parseService()
	default:
		if t, ok := simpleTypeKeyword(kw.text); ok {
			s = p.parseSimpleShape(t)
		} else {
			p.errf(kw.loc, "unknown shape statement %q", kw.text)
			return
		}
	}
	if s == nil {
		return
	}
	if doc != "" {
		traits = append(traits, rawTrait{id: shapeid.New(shapeid.PreludeNamespace, "documentation", ""), value: node.Str(doc), loc: kw.loc})
	}
	p.addShape(s, traits)
}

func simpleTypeKeyword(kw string) (shape.Type, bool) {
	switch kw {
	case "boolean":
		return shape.TypeBoolean, true
	case "blob":
		return shape.TypeBlob, true
	case "string":
		return shape.TypeString, true
	case "byte":
		return shape.TypeByte, true
	case "short":
		return shape.TypeShort, true
	case "integer":
		return shape.TypeInteger, true
	case "long":
		return shape.TypeLong, true
	case "float":
		return shape.TypeFloat, true
	case "double":
		return shape.TypeDouble, true
	case "bigInteger":
		return shape.TypeBigInteger, true
	case "bigDecimal":
		return shape.TypeBigDecimal, true
	case "timestamp":
		return shape.TypeTimestamp, true
	case "document":
		return shape.TypeDocument, true
	}
	return 0, false
}

func (p *idlParser) addShape(s *shape.Shape, traits []rawTrait) {
	if _, exists := p.doc.shapes[s.ID]; exists {
		p.errf(s.Location, "duplicate shape definition %s in the same file", s.ID)
		return
	}
	p.doc.shapes[s.ID] = &parsedShape{shape: s, traits: traits}
}

func (p *idlParser) parseSimpleShape(t shape.Type) *shape.Shape {
	loc := p.peek().loc
	name := p.expect(tokSymbol, "shape name").text
	s := shape.New(p.shapeIDHere(name), t)
	s.Location = loc
	s.Mixins = p.optionalMixins()
	return s
}

// optionalMixins parses `with [Foo, Bar]`.
func (p *idlParser) optionalMixins() []shapeid.ID {
	if p.peek().typ != tokSymbol || p.peek().text != "with" {
		return nil
	}
	p.next()
	p.expect(tokOpenBracket, "'['")
	var out []shapeid.ID
	for p.peek().typ != tokCloseBracket && p.peek().typ != tokEOF {
		out = append(out, p.expectShapeRef())
	}
	p.expect(tokCloseBracket, "']'")
	return out
}

func (p *idlParser) parseList() *shape.Shape {
	loc := p.peek().loc
	name := p.expect(tokSymbol, "shape name").text
	s := shape.New(p.shapeIDHere(name), shape.TypeList)
	s.Location = loc
	s.Mixins = p.optionalMixins()
	p.expect(tokOpenBrace, "'{'")
	for p.peek().typ != tokCloseBrace && p.peek().typ != tokEOF {
		mtraits := p.parseTraitBlock()
		p.expectSymbol("member")
		p.expect(tokColon, "':'")
		target := p.expectShapeRef()
		m := &shape.Member{Name: "member", Target: target, Traits: traitMapFrom(mtraits)}
		s.Member = m
	}
	p.expect(tokCloseBrace, "'}'")
	return s
}

func (p *idlParser) parseMap() *shape.Shape {
	loc := p.peek().loc
	name := p.expect(tokSymbol, "shape name").text
	s := shape.New(p.shapeIDHere(name), shape.TypeMap)
	s.Location = loc
	s.Mixins = p.optionalMixins()
	p.expect(tokOpenBrace, "'{'")
	for p.peek().typ != tokCloseBrace && p.peek().typ != tokEOF {
		mtraits := p.parseTraitBlock()
		kw := p.next()
		p.expect(tokColon, "':'")
		target := p.expectShapeRef()
		m := &shape.Member{Name: kw.text, Target: target, Traits: traitMapFrom(mtraits)}
		switch kw.text {
		case "key":
			s.Key = m
		case "value":
			s.Value = m
		default:
			p.errf(kw.loc, "expected 'key' or 'value', found %q", kw.text)
		}
	}
	p.expect(tokCloseBrace, "'}'")
	return s
}

func traitMapFrom(raws []rawTrait) *trait.Map {
	m := trait.NewMap()
	for _, r := range raws {
		m.Put(trait.Trait{ID: r.id, Value: r.value})
	}
	return m
}

func (p *idlParser) parseMemberList() *shape.MemberList {
	list := shape.NewMemberList()
	p.expect(tokOpenBrace, "'{'")
	for p.peek().typ != tokCloseBrace && p.peek().typ != tokEOF {
		mdoc := p.takeDoc()
		mtraits := p.parseTraitBlock()
		nameTok := p.expect(tokSymbol, "member name")
		p.expect(tokColon, "':'")
		target := p.expectShapeRef()
		if mdoc != "" {
			mtraits = append(mtraits, rawTrait{id: shapeid.New(shapeid.PreludeNamespace, "documentation", ""), value: node.Str(mdoc)})
		}
		if p.peek().typ == tokEquals {
			p.next()
			v := p.parseNodeValue()
			mtraits = append(mtraits, rawTrait{id: shapeid.New(shapeid.PreludeNamespace, "default", ""), value: v})
		}
		if _, exists := list.Get(nameTok.text); exists {
			p.events.Addf(ErrDuplicateMember, diag.Error, nameTok.loc, "duplicate member %q", nameTok.text)
		}
		list.Put(&shape.Member{Name: nameTok.text, Target: target, Traits: traitMapFrom(mtraits), Location: nameTok.loc})
	}
	p.expect(tokCloseBrace, "'}'")
	return list
}

func (p *idlParser) parseStructure() *shape.Shape {
	loc := p.peek().loc
	name := p.expect(tokSymbol, "shape name").text
	s := shape.New(p.shapeIDHere(name), shape.TypeStructure)
	s.Location = loc
	s.Mixins = p.optionalMixins()
	s.Members = p.parseMemberList()
	return s
}

func (p *idlParser) parseUnionShape() *shape.Shape {
	loc := p.peek().loc
	name := p.expect(tokSymbol, "shape name").text
	s := shape.New(p.shapeIDHere(name), shape.TypeUnion)
	s.Location = loc
	s.Mixins = p.optionalMixins()
	s.Members = p.parseMemberList()
	return s
}

// parseEnum handles both `enum`/`intEnum` statements, including the
// legacy `= "value"`/`= 1` member assignment form.
func (p *idlParser) parseEnum(t shape.Type) *shape.Shape {
	loc := p.peek().loc
	name := p.expect(tokSymbol, "shape name").text
	s := shape.New(p.shapeIDHere(name), t)
	s.Location = loc
	s.Mixins = p.optionalMixins()
	s.Members = shape.NewMemberList()
	p.expect(tokOpenBrace, "'{'")
	for p.peek().typ != tokCloseBrace && p.peek().typ != tokEOF {
		mdoc := p.takeDoc()
		mtraits := p.parseTraitBlock()
		nameTok := p.expect(tokSymbol, "member name")
		target := shapeid.New(shapeid.PreludeNamespace, "Unit", "")
		if t == shape.TypeIntEnum {
			target = shapeid.New(shapeid.PreludeNamespace, "Integer", "")
		} else {
			target = shapeid.New(shapeid.PreludeNamespace, "String", "")
		}
		if mdoc != "" {
			mtraits = append(mtraits, rawTrait{id: shapeid.New(shapeid.PreludeNamespace, "documentation", ""), value: node.Str(mdoc)})
		}
		if p.peek().typ == tokEquals {
			p.next()
			v := p.parseNodeValue()
			mtraits = append(mtraits, rawTrait{id: shapeid.New(shapeid.PreludeNamespace, "enumValue", ""), value: v})
		}
		s.Members.Put(&shape.Member{Name: nameTok.text, Target: target, Traits: traitMapFrom(mtraits), Location: nameTok.loc})
	}
	p.expect(tokCloseBrace, "'}'")
	return s
}

// parseOperation handles both the v1 `input`/`output`/`errors` block form
// and the v2 inline `input := { ... }` synthesis.
func (p *idlParser) parseOperation() *shape.Shape {
	loc := p.peek().loc
	name := p.expect(tokSymbol, "shape name").text
	s := shape.New(p.shapeIDHere(name), shape.TypeOperation)
	s.Location = loc
	s.Mixins = p.optionalMixins()
	p.expect(tokOpenBrace, "'{'")
	for p.peek().typ != tokCloseBrace && p.peek().typ != tokEOF {
		fieldTraits := p.parseTraitBlock()
		kw := p.next()
		switch kw.text {
		case "input":
			id := p.parseOperationIOField(name, "Input", fieldTraits)
			s.Input = &id
		case "output":
			id := p.parseOperationIOField(name, "Output", fieldTraits)
			s.Output = &id
		case "errors":
			p.expect(tokColon, "':'")
			p.expect(tokOpenBracket, "'['")
			for p.peek().typ != tokCloseBracket && p.peek().typ != tokEOF {
				s.Errors = append(s.Errors, p.expectShapeRef())
			}
			p.expect(tokCloseBracket, "']'")
		default:
			p.errf(kw.loc, "unexpected operation field %q", kw.text)
		}
	}
	p.expect(tokCloseBrace, "'}'")
	return s
}

// parseOperationIOField parses either `input: Foo` (a reference) or
// `input := { members }` (an inline synthesized structure named
// <Operation><Input|Output>).
func (p *idlParser) parseOperationIOField(opName, suffix string, fieldTraits []rawTrait) shapeid.ID {
	t := p.next()
	if t.typ == tokColon {
		return p.expectShapeRef()
	}
	if t.typ == tokWalrus {
		synthID := p.shapeIDHere(opName + suffix)
		s := shape.New(synthID, shape.TypeStructure)
		s.Location = t.loc
		s.Mixins = p.optionalMixins()
		s.Members = p.parseMemberList()
		markerName := "input"
		if suffix == "Output" {
			markerName = "output"
		}
		fieldTraits = append(fieldTraits, rawTrait{id: shapeid.New(shapeid.PreludeNamespace, markerName, ""), value: node.Obj(node.NewObject())})
		p.addShape(s, fieldTraits)
		return synthID
	}
	p.errf(t.loc, "expected ':' or ':=', found %q", t.text)
	return shapeid.ID{}
}

func (p *idlParser) parseResource() *shape.Shape {
	loc := p.peek().loc
	name := p.expect(tokSymbol, "shape name").text
	s := shape.New(p.shapeIDHere(name), shape.TypeResource)
	s.Location = loc
	s.Mixins = p.optionalMixins()
	p.expect(tokOpenBrace, "'{'")
	for p.peek().typ != tokCloseBrace && p.peek().typ != tokEOF {
		kw := p.next()
		switch kw.text {
		case "identifiers":
			s.Identifiers = p.parseIdentifierBindings()
		case "properties":
			s.Properties = p.parseIdentifierBindings()
		case "create":
			id := p.parseSingleRefField()
			s.Create = &id
		case "put":
			id := p.parseSingleRefField()
			s.Put = &id
		case "read":
			id := p.parseSingleRefField()
			s.Read = &id
		case "update":
			id := p.parseSingleRefField()
			s.Update = &id
		case "delete":
			id := p.parseSingleRefField()
			s.Delete = &id
		case "list":
			id := p.parseSingleRefField()
			s.List = &id
		case "collectionOperations":
			s.CollectionOperations = p.parseRefArrayField()
		case "operations":
			s.Operations = p.parseRefArrayField()
		case "resources":
			s.Resources = p.parseRefArrayField()
		default:
			p.errf(kw.loc, "unexpected resource field %q", kw.text)
		}
	}
	p.expect(tokCloseBrace, "'}'")
	return s
}

func (p *idlParser) parseSingleRefField() shapeid.ID {
	p.expect(tokColon, "':'")
	return p.expectShapeRef()
}

func (p *idlParser) parseRefArrayField() []shapeid.ID {
	p.expect(tokColon, "':'")
	p.expect(tokOpenBracket, "'['")
	var out []shapeid.ID
	for p.peek().typ != tokCloseBracket && p.peek().typ != tokEOF {
		out = append(out, p.expectShapeRef())
	}
	p.expect(tokCloseBracket, "']'")
	return out
}

func (p *idlParser) parseIdentifierBindings() []shape.IdentifierBinding {
	p.expect(tokColon, "':'")
	p.expect(tokOpenBrace, "'{'")
	var out []shape.IdentifierBinding
	for p.peek().typ != tokCloseBrace && p.peek().typ != tokEOF {
		name := p.expect(tokSymbol, "identifier name").text
		p.expect(tokColon, "':'")
		target := p.expectShapeRef()
		out = append(out, shape.IdentifierBinding{Name: name, Target: target})
	}
	p.expect(tokCloseBrace, "'}'")
	return out
}

func (p *idlParser) parseService() *shape.Shape {
	loc := p.peek().loc
	name := p.expect(tokSymbol, "shape name").text
	s := shape.New(p.shapeIDHere(name), shape.TypeService)
	s.Location = loc
	s.Mixins = p.optionalMixins()
	p.expect(tokOpenBrace, "'{'")
	for p.peek().typ != tokCloseBrace && p.peek().typ != tokEOF {
		kw := p.next()
		switch kw.text {
		case "version":
			p.expect(tokColon, "':'")
			v := p.expect(tokString, "version string")
			s.Version = v.text
		case "operations":
			s.Operations = p.parseRefArrayField()
		case "resources":
			s.Resources = p.parseRefArrayField()
		case "errors":
			s.Errors = p.parseRefArrayField()
		case "rename":
			s.Rename = p.parseRename()
		default:
			p.errf(kw.loc, "unexpected service field %q", kw.text)
		}
	}
	p.expect(tokCloseBrace, "'}'")
	return s
}

func (p *idlParser) parseRename() map[shapeid.ID]string {
	p.expect(tokColon, "':'")
	p.expect(tokOpenBrace, "'{'")
	out := make(map[shapeid.ID]string)
	for p.peek().typ != tokCloseBrace && p.peek().typ != tokEOF {
		key := p.expect(tokString, "absolute shape id string").text
		id, err := shapeid.Parse(key)
		if err != nil {
			p.errf(p.peek().loc, "malformed rename key %q: %v", key, err)
		}
		p.expect(tokColon, "':'")
		v := p.expect(tokString, "rename value").text
		out[id] = v
	}
	p.expect(tokCloseBrace, "'}'")
	return out
}

