// Package selector implements the Selector mini-language: a small query
// language over a Model's shape graph, used by trait applicability
// validation and by the CLI's select command.
//
// Follows the same lexer/recursive-descent-parser/tree-evaluator
// structure as the IDL parser (internal/loader/lexer.go,
// internal/loader/parser.go), so the two hand-written parsers in this
// module share a family resemblance instead of diverging styles.
package selector

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/smithy-lang/smithy-model-core/internal/model"
	"github.com/smithy-lang/smithy-model-core/internal/shape"
	"github.com/smithy-lang/smithy-model-core/internal/shapeid"
)

// Selector is a compiled selector expression, evaluated left-to-right as a
// sequence of set-narrowing steps.
type Selector struct {
	steps []step
}

// step narrows an input shape-ID set to an output set.
type step interface {
	apply(m *model.Model, in []shapeid.ID) []shapeid.ID
}

// Compile parses text into a Selector. A malformed selector returns a
// SELECTOR_PARSE_ERROR-flavored error; the caller
// (validate.validateTraitApplicability) treats compile failure as "skip
// this selector" rather than aborting the whole validation pass.
func Compile(text string) (*Selector, error) {
	p := &selParser{lex: newSelLexer(text)}
	steps, err := p.parseSteps()
	if err != nil {
		return nil, fmt.Errorf("SELECTOR_PARSE_ERROR: %w", err)
	}
	return &Selector{steps: steps}, nil
}

// Select evaluates the selector against m, starting from every shape in
// the model, and returns matches in deterministic shape-ID order.
func (s *Selector) Select(m *model.Model) []shapeid.ID {
	in := m.ShapeIDs()
	for _, st := range s.steps {
		in = st.apply(m, in)
	}
	return dedupSorted(in)
}

func dedupSorted(ids []shapeid.ID) []shapeid.ID {
	seen := make(map[shapeid.ID]bool, len(ids))
	out := make([]shapeid.ID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sortIDs(out)
	return out
}

func sortIDs(ids []shapeid.ID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1].String() > ids[j].String(); j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

// --- lexer -----------------------------------------------------------

type selTokKind int

const (
	selEOF selTokKind = iota
	selIdent
	selString
	selNumber
	selColonWord // :is, :not, :topdown, ...
	selLBracket
	selRBracket
	selLParen
	selRParen
	selComma
	selPipe
	selEquals
	selNotEquals
	selGT
	selLT
	selTilde
	selDash
	selAt
	selStar
	selDollarOpenBrace
	selCloseBrace
	selCompOp // ^=, $=, *=, >=, <=, ?=
)

type selTok struct {
	kind selTokKind
	text string
}

type selLexer struct {
	src []rune
	pos int
}

func newSelLexer(s string) *selLexer { return &selLexer{src: []rune(s)} }

func (l *selLexer) peekRune() (rune, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	return l.src[l.pos], true
}

func (l *selLexer) next() selTok {
	for {
		r, ok := l.peekRune()
		if !ok {
			return selTok{kind: selEOF}
		}
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			l.pos++
			continue
		}
		break
	}
	r, _ := l.peekRune()
	switch r {
	case '[':
		l.pos++
		return selTok{kind: selLBracket, text: "["}
	case ']':
		l.pos++
		return selTok{kind: selRBracket, text: "]"}
	case '(':
		l.pos++
		return selTok{kind: selLParen, text: "("}
	case ')':
		l.pos++
		return selTok{kind: selRParen, text: ")"}
	case ',':
		l.pos++
		return selTok{kind: selComma, text: ","}
	case '|':
		l.pos++
		return selTok{kind: selPipe, text: "|"}
	case '*':
		l.pos++
		if l.peekIs('=') {
			l.pos++
			return selTok{kind: selCompOp, text: "*="}
		}
		return selTok{kind: selStar, text: "*"}
	case '^':
		l.pos++
		if l.peekIs('=') {
			l.pos++
			return selTok{kind: selCompOp, text: "^="}
		}
		return selTok{kind: selEOF}
	case '$':
		l.pos++
		if l.peekIs('=') {
			l.pos++
			return selTok{kind: selCompOp, text: "$="}
		}
		return selTok{kind: selEOF}
	case '?':
		l.pos++
		if l.peekIs('=') {
			l.pos++
			return selTok{kind: selCompOp, text: "?="}
		}
		return selTok{kind: selEOF}
	case '>':
		l.pos++
		if l.peekIs('=') {
			l.pos++
			return selTok{kind: selCompOp, text: ">="}
		}
		return selTok{kind: selGT, text: ">"}
	case '<':
		l.pos++
		if l.peekIs('=') {
			l.pos++
			return selTok{kind: selCompOp, text: "<="}
		}
		return selTok{kind: selLT, text: "<"}
	case '~':
		l.pos++
		return selTok{kind: selTilde, text: "~"}
	case '-':
		l.pos++
		return selTok{kind: selDash, text: "-"}
	case '@':
		l.pos++
		if l.peekIs('{') {
			l.pos++
			return selTok{kind: selDollarOpenBrace, text: "@{"}
		}
		return selTok{kind: selAt, text: "@"}
	case '}':
		l.pos++
		return selTok{kind: selCloseBrace, text: "}"}
	case '=':
		l.pos++
		return selTok{kind: selEquals, text: "="}
	case '"', '\'':
		return l.scanString(r)
	case ':':
		l.pos++
		start := l.pos
		for {
			r2, ok := l.peekRune()
			if !ok || !isSelIdentPart(r2) {
				break
			}
			l.pos++
		}
		return selTok{kind: selColonWord, text: string(l.src[start:l.pos])}
	}
	if r == '!' {
		l.pos++
		if l.peekIs('=') {
			l.pos++
			return selTok{kind: selNotEquals, text: "!="}
		}
		return selTok{kind: selNotEquals, text: "!"}
	}
	if r >= '0' && r <= '9' {
		start := l.pos
		for {
			r2, ok := l.peekRune()
			if !ok || (r2 < '0' || r2 > '9') {
				break
			}
			l.pos++
		}
		return selTok{kind: selNumber, text: string(l.src[start:l.pos])}
	}
	if isSelIdentStart(r) {
		start := l.pos
		for {
			r2, ok := l.peekRune()
			if !ok || !isSelIdentPart(r2) {
				break
			}
			l.pos++
		}
		return selTok{kind: selIdent, text: string(l.src[start:l.pos])}
	}
	l.pos++
	return selTok{kind: selEOF}
}

func (l *selLexer) peekIs(want rune) bool {
	r, ok := l.peekRune()
	return ok && r == want
}

func (l *selLexer) scanString(quote rune) selTok {
	l.pos++
	start := l.pos
	for {
		r, ok := l.peekRune()
		if !ok || r == quote {
			break
		}
		l.pos++
	}
	text := string(l.src[start:l.pos])
	if l.pos < len(l.src) {
		l.pos++
	}
	return selTok{kind: selString, text: text}
}

func isSelIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isSelIdentPart(r rune) bool {
	return isSelIdentStart(r) || (r >= '0' && r <= '9') || r == '.' || r == '#' || r == '$' || r == '-'
}

// --- parser ------------------------------------------------------------

type selParser struct {
	lex    *selLexer
	peeked *selTok
}

func (p *selParser) peek() selTok {
	if p.peeked == nil {
		t := p.lex.next()
		p.peeked = &t
	}
	return *p.peeked
}

func (p *selParser) next() selTok {
	t := p.peek()
	p.peeked = nil
	return t
}

func (p *selParser) parseSteps() ([]step, error) {
	var steps []step
	for {
		t := p.peek()
		if t.kind == selEOF {
			break
		}
		st, err := p.parseStep()
		if err != nil {
			return nil, err
		}
		steps = append(steps, st)
		n := p.peek()
		if n.kind == selGT || n.kind == selTilde || (n.kind == selDash) {
			rel, err := p.parseNeighborOp()
			if err != nil {
				return nil, err
			}
			steps = append(steps, rel)
		}
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("empty selector")
	}
	return steps, nil
}

func (p *selParser) parseNeighborOp() (step, error) {
	t := p.next()
	switch t.kind {
	case selGT:
		return neighborStep{}, nil
	case selTilde:
		if p.peek().kind == selGT {
			p.next()
		}
		return recursiveNeighborStep{}, nil
	case selDash:
		// -[rel]->
		if p.peek().kind == selLBracket {
			p.next()
			var rel string
			for p.peek().kind != selRBracket && p.peek().kind != selEOF {
				rel += p.next().text
			}
			if p.peek().kind == selRBracket {
				p.next()
			}
			if p.peek().kind == selDash {
				p.next()
			}
			if p.peek().kind == selGT {
				p.next()
			}
			return neighborStep{relation: rel}, nil
		}
		return neighborStep{}, nil
	}
	return nil, fmt.Errorf("unexpected token %q in selector", t.text)
}

// parseStep parses one shape-selector term: a shape-kind primitive, an
// attribute selector, or a :function(...) combinator.
func (p *selParser) parseStep() (step, error) {
	t := p.next()
	switch t.kind {
	case selStar:
		return kindStep{all: true}, nil
	case selIdent:
		return kindStep{name: t.text}, nil
	case selLBracket:
		return p.parseAttributeSelector()
	case selColonWord:
		return p.parseFunction(t.text)
	}
	return nil, fmt.Errorf("unexpected token %q at start of selector term", t.text)
}

func (p *selParser) parseFunction(name string) (step, error) {
	if p.peek().kind != selLParen {
		return nil, fmt.Errorf("expected '(' after :%s", name)
	}
	p.next()
	var subSteps [][]step
	depth := 0
	for {
		t := p.peek()
		if t.kind == selRParen && depth == 0 {
			p.next()
			break
		}
		if t.kind == selEOF {
			return nil, fmt.Errorf("unterminated :%s(...)", name)
		}
		sub, err := p.parseSteps0UntilCommaOrClose()
		if err != nil {
			return nil, err
		}
		subSteps = append(subSteps, sub)
		if p.peek().kind == selComma {
			p.next()
		}
	}
	switch strings.ToLower(name) {
	case "is":
		return isStep{alternatives: subSteps}, nil
	case "not":
		return notStep{inner: subSteps}, nil
	case "test":
		return testStep{inner: subSteps}, nil
	case "each":
		if len(subSteps) > 0 {
			return isStep{alternatives: subSteps}, nil
		}
		return kindStep{all: true}, nil
	case "topdown", "recursive":
		return recursiveNeighborStep{matcher: subSteps}, nil
	case "in":
		return inStep{inner: subSteps}, nil
	default:
		return passthroughStep{}, nil
	}
}

func (p *selParser) parseSteps0UntilCommaOrClose() ([]step, error) {
	var steps []step
	for {
		t := p.peek()
		if t.kind == selComma || t.kind == selRParen || t.kind == selEOF {
			break
		}
		st, err := p.parseStep()
		if err != nil {
			return nil, err
		}
		steps = append(steps, st)
		n := p.peek()
		if n.kind == selGT || n.kind == selTilde || n.kind == selDash {
			rel, err := p.parseNeighborOp()
			if err != nil {
				return nil, err
			}
			steps = append(steps, rel)
		}
	}
	return steps, nil
}

func (p *selParser) parseAttributeSelector() (step, error) {
	var keyParts []string
	for {
		t := p.next()
		if t.kind == selIdent {
			keyParts = append(keyParts, t.text)
		}
		if p.peek().kind == selPipe {
			p.next()
			continue
		}
		break
	}
	a := attrStep{key: strings.Join(keyParts, "|")}
	t := p.peek()
	if t.kind == selEquals || t.kind == selNotEquals || t.kind == selCompOp || t.kind == selGT || t.kind == selLT {
		a.op = t.text
		p.next()
		v := p.next()
		a.value = v.text
		if p.peek().kind == selIdent && p.peek().text == "i" {
			p.next()
			a.caseInsensitive = true
		}
	}
	if p.peek().kind != selRBracket {
		return nil, fmt.Errorf("expected ']' to close attribute selector")
	}
	p.next()
	return a, nil
}

// --- steps ---------------------------------------------------------------

type kindStep struct {
	all  bool
	name string
}

func (k kindStep) apply(m *model.Model, in []shapeid.ID) []shapeid.ID {
	var out []shapeid.ID
	for _, id := range in {
		s, ok := m.Shape(id)
		if !ok {
			continue
		}
		if k.all || matchesKindName(s, k.name) {
			out = append(out, id)
		}
	}
	return out
}

func matchesKindName(s *shape.Shape, name string) bool {
	switch name {
	case "collection":
		return s.Type == shape.TypeList
	case "number":
		switch s.Type {
		case shape.TypeByte, shape.TypeShort, shape.TypeInteger, shape.TypeLong,
			shape.TypeFloat, shape.TypeDouble, shape.TypeBigInteger, shape.TypeBigDecimal:
			return true
		}
		return false
	case "simpleType":
		return s.Type.IsSimple()
	default:
		return s.Type.String() == name
	}
}

type attrStep struct {
	key             string
	op              string
	value           string
	caseInsensitive bool
}

func (a attrStep) apply(m *model.Model, in []shapeid.ID) []shapeid.ID {
	var out []shapeid.ID
	for _, id := range in {
		s, ok := m.Shape(id)
		if !ok {
			continue
		}
		if a.matches(s) {
			out = append(out, id)
		}
	}
	return out
}

func (a attrStep) matches(s *shape.Shape) bool {
	actual, present := lookupAttr(s, a.key)
	if a.op == "" {
		return present
	}
	if a.op == "?=" {
		return present && actual != "false" && actual != ""
	}
	if !present {
		return false
	}
	cmpActual, cmpValue := actual, a.value
	if a.caseInsensitive {
		cmpActual = strings.ToLower(cmpActual)
		cmpValue = strings.ToLower(cmpValue)
	}
	switch a.op {
	case "!=":
		return cmpActual != cmpValue
	case "^=":
		return strings.HasPrefix(cmpActual, cmpValue)
	case "$=":
		return strings.HasSuffix(cmpActual, cmpValue)
	case "*=":
		return strings.Contains(cmpActual, cmpValue)
	case ">", ">=", "<", "<=":
		return compareNumeric(cmpActual, cmpValue, a.op)
	default: // "="
		return cmpActual == cmpValue
	}
}

// compareNumeric implements the ordering comparators (>, >=, <, <=) by
// parsing both sides as floats; a non-numeric operand falls back to a
// lexicographic comparison so the operator is never simply ignored.
func compareNumeric(actual, value, op string) bool {
	af, aerr := strconv.ParseFloat(actual, 64)
	vf, verr := strconv.ParseFloat(value, 64)
	if aerr != nil || verr != nil {
		switch op {
		case ">":
			return actual > value
		case ">=":
			return actual >= value
		case "<":
			return actual < value
		default:
			return actual <= value
		}
	}
	switch op {
	case ">":
		return af > vf
	case ">=":
		return af >= vf
	case "<":
		return af < vf
	default:
		return af <= vf
	}
}

// lookupAttr resolves `trait|<id>` and a handful of other attribute
// namespaces; unrecognized namespaces report absent rather than
// erroring, matching the tolerant stance taken for unknown selector
// functions.
func lookupAttr(s *shape.Shape, key string) (string, bool) {
	parts := strings.Split(key, "|")
	if len(parts) == 0 {
		return "", false
	}
	switch parts[0] {
	case "trait":
		if len(parts) < 2 {
			return "", false
		}
		tid, err := shapeid.Parse(qualify(parts[1]))
		if err != nil {
			return "", false
		}
		t, ok := s.Traits.Get(tid)
		if !ok {
			return "", false
		}
		return t.Value.StringValue(), true
	case "id":
		if len(parts) >= 2 && parts[1] == "namespace" {
			return s.ID.Namespace, true
		}
		if len(parts) >= 2 && parts[1] == "name" {
			return s.ID.Name, true
		}
		return s.ID.String(), true
	}
	return "", false
}

func qualify(name string) string {
	if strings.Contains(name, "#") {
		return name
	}
	return shapeid.PreludeNamespace + "#" + name
}

type isStep struct{ alternatives [][]step }

func (isS isStep) apply(m *model.Model, in []shapeid.ID) []shapeid.ID {
	seen := make(map[shapeid.ID]bool)
	var out []shapeid.ID
	for _, alt := range isS.alternatives {
		res := in
		for _, st := range alt {
			res = st.apply(m, res)
		}
		for _, id := range res {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

type notStep struct{ inner [][]step }

func (n notStep) apply(m *model.Model, in []shapeid.ID) []shapeid.ID {
	excluded := make(map[shapeid.ID]bool)
	for _, alt := range n.inner {
		res := in
		for _, st := range alt {
			res = st.apply(m, res)
		}
		for _, id := range res {
			excluded[id] = true
		}
	}
	var out []shapeid.ID
	for _, id := range in {
		if !excluded[id] {
			out = append(out, id)
		}
	}
	return out
}

type testStep struct{ inner [][]step }

func (t testStep) apply(m *model.Model, in []shapeid.ID) []shapeid.ID {
	matched := make(map[shapeid.ID]bool)
	for _, alt := range t.inner {
		res := in
		for _, st := range alt {
			res = st.apply(m, res)
		}
		for _, id := range res {
			matched[id] = true
		}
	}
	var out []shapeid.ID
	for _, id := range in {
		if matched[id] {
			out = append(out, id)
		}
	}
	return out
}

// evalAlternatives runs each comma-separated alternative of a :function(...)
// argument list against in independently, unioning their results.
func evalAlternatives(m *model.Model, in []shapeid.ID, alts [][]step) []shapeid.ID {
	seen := make(map[shapeid.ID]bool)
	var out []shapeid.ID
	for _, alt := range alts {
		res := in
		for _, st := range alt {
			res = st.apply(m, res)
		}
		for _, id := range res {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// inStep keeps shapes that also appear in the result of evaluating inner
// against the whole model, i.e. `:in(selector)`.
type inStep struct{ inner [][]step }

func (i inStep) apply(m *model.Model, in []shapeid.ID) []shapeid.ID {
	if len(i.inner) == 0 {
		return in
	}
	matched := make(map[shapeid.ID]bool)
	for _, id := range evalAlternatives(m, m.ShapeIDs(), i.inner) {
		matched[id] = true
	}
	var out []shapeid.ID
	for _, id := range in {
		if matched[id] {
			out = append(out, id)
		}
	}
	return out
}

type passthroughStep struct{}

func (passthroughStep) apply(m *model.Model, in []shapeid.ID) []shapeid.ID { return in }

type neighborStep struct{ relation string }

func (n neighborStep) apply(m *model.Model, in []shapeid.ID) []shapeid.ID {
	seen := make(map[shapeid.ID]bool)
	var out []shapeid.ID
	for _, id := range in {
		for _, nb := range m.Neighbors(id) {
			if !seen[nb] {
				seen[nb] = true
				out = append(out, nb)
			}
		}
	}
	return out
}

// recursiveNeighborStep implements `:recursive`/`:topdown`/`~>`: a
// transitive walk of every shape's neighbors. When matcher is non-empty
// (the :topdown(selector)/:recursive(selector) form), only shapes also
// matched by evaluating matcher against the whole model are kept in the
// result, though the walk still recurses through an unmatched shape to
// reach its descendants.
type recursiveNeighborStep struct{ matcher [][]step }

func (r recursiveNeighborStep) apply(m *model.Model, in []shapeid.ID) []shapeid.ID {
	var matched map[shapeid.ID]bool
	if len(r.matcher) > 0 {
		matched = make(map[shapeid.ID]bool)
		for _, id := range evalAlternatives(m, m.ShapeIDs(), r.matcher) {
			matched[id] = true
		}
	}
	seen := make(map[shapeid.ID]bool)
	var out []shapeid.ID
	var walk func(id shapeid.ID)
	walk = func(id shapeid.ID) {
		for _, nb := range m.Neighbors(id) {
			if seen[nb] {
				continue
			}
			seen[nb] = true
			if matched == nil || matched[nb] {
				out = append(out, nb)
			}
			walk(nb)
		}
	}
	for _, id := range in {
		walk(id)
	}
	return out
}

