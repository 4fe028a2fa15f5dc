// Package cstype parses C# type syntax and resolves it to identifier type references.
package cstype

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"apifp/internal/errors"
)

// ExprKind is the syntactic form of a type expression
type ExprKind int

const (
	ExprName ExprKind = iota + 1
	ExprArray
	ExprPointer
	ExprNullable
	ExprTuple
	ExprFunctionPointer
)

// NamePart is one dotted component of a qualified name with its type arguments
type NamePart struct {
	Name string
	Args []*Expr
}

// Expr is an unresolved type expression
type Expr struct {
	Kind  ExprKind
	Alias string     // qualifier before "::", e.g. "global"
	Parts []NamePart // ExprName
	Elem  *Expr      // ExprArray, ExprPointer, ExprNullable
	Rank  int        // ExprArray
	Elems []*Expr    // ExprTuple
}

func (e *Expr) String() string {
	var b strings.Builder
	e.write(&b)
	return b.String()
}

func (e *Expr) write(b *strings.Builder) {
	switch e.Kind {
	case ExprName:
		if e.Alias != "" {
			b.WriteString(e.Alias)
			b.WriteString("::")
		}
		for i, p := range e.Parts {
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(p.Name)
			if len(p.Args) > 0 {
				b.WriteByte('<')
				for j, a := range p.Args {
					if j > 0 {
						b.WriteString(", ")
					}
					a.write(b)
				}
				b.WriteByte('>')
			}
		}
	case ExprArray:
		e.Elem.write(b)
		b.WriteByte('[')
		b.WriteString(strings.Repeat(",", e.Rank-1))
		b.WriteByte(']')
	case ExprPointer:
		e.Elem.write(b)
		b.WriteByte('*')
	case ExprNullable:
		e.Elem.write(b)
		b.WriteByte('?')
	case ExprTuple:
		b.WriteByte('(')
		for i, el := range e.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			el.write(b)
		}
		b.WriteByte(')')
	case ExprFunctionPointer:
		b.WriteString("delegate*<...>")
	}
}

// Param is a parsed parameter declaration
type Param struct {
	Type   *Expr
	Name   string
	ByRef  bool // ref, out, in
	Params bool
}

var paramModifiers = map[string]bool{
	"ref": true, "out": true, "in": true, "params": true, "this": true, "scoped": true, "readonly": true,
}

// Parse parses a single type expression such as "Dictionary<string, List<int>>[]"
func Parse(text string) (*Expr, error) {
	p, err := newParser(text)
	if err != nil {
		return nil, err
	}
	e, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, p.errorf("unexpected %q", p.peek().text)
	}
	return e, nil
}

// ParseParameter parses a parameter declaration such as "[NotNull] ref readonly int x = 0".
// Attributes and default values are discarded.
func ParseParameter(text string) (Param, error) {
	var out Param
	p, err := newParser(stripDefault(StripAttributes(text)))
	if err != nil {
		return out, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokIdent || !paramModifiers[tok.text] {
			break
		}
		switch tok.text {
		case "ref", "out", "in":
			out.ByRef = true
		case "params":
			out.Params = true
		}
		p.next()
	}
	if out.Type, err = p.parseType(); err != nil {
		return out, err
	}
	if tok := p.peek(); tok.kind == tokIdent {
		out.Name = tok.text
		p.next()
	}
	if !p.atEnd() {
		return out, p.errorf("unexpected %q after parameter", p.peek().text)
	}
	return out, nil
}

// StripAttributes removes leading attribute lists, honouring quoted arguments
func StripAttributes(text string) string {
	text = strings.TrimSpace(text)
	for strings.HasPrefix(text, "[") {
		depth, quote := 0, byte(0)
		end := -1
		for i := 0; i < len(text) && end < 0; i++ {
			c := text[i]
			switch {
			case quote != 0:
				if c == '\\' {
					i++
				} else if c == quote {
					quote = 0
				}
			case c == '"' || c == '\'':
				quote = c
			case c == '[':
				depth++
			case c == ']':
				depth--
				if depth == 0 {
					end = i
				}
			}
		}
		if end < 0 {
			return text
		}
		text = strings.TrimSpace(text[end+1:])
	}
	return text
}

// stripDefault cuts a default value ("= 0") from a parameter declaration
func stripDefault(text string) string {
	depth := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			depth--
		case '=':
			if depth == 0 {
				return strings.TrimSpace(text[:i])
			}
		}
	}
	return text
}

// SplitParameters splits a parenthesised or bare parameter list on top-level commas
func SplitParameters(list string) []string {
	list = strings.TrimSpace(list)
	if strings.HasPrefix(list, "(") && strings.HasSuffix(list, ")") {
		list = list[1 : len(list)-1]
	}
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(list); i++ {
		switch list[i] {
		case '<', '(', '[', '{':
			depth++
		case '>', ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(list[start:i]))
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(list[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokPunct
)

type token struct {
	kind tokKind
	text string
	pos  int
}

type parser struct {
	src  string
	toks []token
	i    int
}

func newParser(src string) (*parser, error) {
	p := &parser{src: src}
	for i := 0; i < len(src); {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case r == '@' || r == '_' || unicode.IsLetter(r):
			if r == '@' {
				i += size
			}
			start := i
			for i < len(src) {
				r, size = utf8.DecodeRuneInString(src[i:])
				if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
					break
				}
				i += size
			}
			if start == i {
				return nil, errors.Newf(errors.InputInvalid, "stray '@' in type %q", src)
			}
			p.toks = append(p.toks, token{kind: tokIdent, text: src[start:i], pos: start})
		case strings.HasPrefix(src[i:], "::"):
			p.toks = append(p.toks, token{kind: tokPunct, text: "::", pos: i})
			i += 2
		case strings.ContainsRune("<>,.[]()*?", r):
			p.toks = append(p.toks, token{kind: tokPunct, text: string(r), pos: i})
			i += size
		default:
			return nil, errors.Newf(errors.InputInvalid, "unexpected %q in type %q", r, src)
		}
	}
	return p, nil
}

func (p *parser) atEnd() bool { return p.i >= len(p.toks) }

func (p *parser) peek() token {
	if p.atEnd() {
		return token{kind: tokEOF, pos: len(p.src)}
	}
	return p.toks[p.i]
}

func (p *parser) next() token {
	t := p.peek()
	if !p.atEnd() {
		p.i++
	}
	return t
}

func (p *parser) accept(text string) bool {
	if t := p.peek(); t.kind == tokPunct && t.text == text {
		p.i++
		return true
	}
	return false
}

func (p *parser) expect(text string) error {
	if !p.accept(text) {
		return p.errorf("expected %q", text)
	}
	return nil
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return errors.Newf(errors.InputInvalid, "%s at offset %d in type %q", fmt.Sprintf(format, args...), p.peek().pos, p.src)
}

func (p *parser) skipBalanced(open, close string) error {
	depth := 0
	for !p.atEnd() {
		t := p.next()
		switch t.text {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return nil
			}
		}
	}
	return p.errorf("unbalanced %q", open)
}

func (p *parser) parseType() (*Expr, error) {
	var e *Expr
	var err error
	switch t := p.peek(); {
	case t.text == "(" && t.kind == tokPunct:
		e, err = p.parseTuple()
	case t.text == "delegate" && t.kind == tokIdent:
		e, err = p.parseFunctionPointer()
	case t.kind == tokIdent:
		e, err = p.parseName()
	default:
		return nil, p.errorf("expected type")
	}
	if err != nil {
		return nil, err
	}
	return p.parseSuffixes(e)
}

// parseSuffixes applies '?', '*' and rank specifiers. Consecutive rank
// specifiers read outermost first, so int[][,] is a vector of 2-D arrays.
func (p *parser) parseSuffixes(e *Expr) (*Expr, error) {
	for {
		switch {
		case p.accept("?"):
			e = &Expr{Kind: ExprNullable, Elem: e}
		case p.accept("*"):
			e = &Expr{Kind: ExprPointer, Elem: e}
		case p.peek().text == "[":
			var ranks []int
			for p.accept("[") {
				rank := 1
				for p.accept(",") {
					rank++
				}
				if err := p.expect("]"); err != nil {
					return nil, err
				}
				ranks = append(ranks, rank)
			}
			for i := len(ranks) - 1; i >= 0; i-- {
				e = &Expr{Kind: ExprArray, Elem: e, Rank: ranks[i]}
			}
		default:
			return e, nil
		}
	}
}

func (p *parser) parseName() (*Expr, error) {
	e := &Expr{Kind: ExprName}
	first := p.next()
	if p.accept("::") {
		e.Alias = first.text
		first = p.next()
		if first.kind != tokIdent {
			return nil, p.errorf("expected name after '::'")
		}
	}
	tok := first
	for {
		part := NamePart{Name: tok.text}
		if p.accept("<") {
			for {
				if t := p.peek(); t.text == "," || t.text == ">" {
					// unbound generic such as Dictionary<,>
					part.Args = append(part.Args, nil)
				} else {
					arg, err := p.parseType()
					if err != nil {
						return nil, err
					}
					part.Args = append(part.Args, arg)
				}
				if p.accept(">") {
					break
				}
				if err := p.expect(","); err != nil {
					return nil, err
				}
			}
		}
		e.Parts = append(e.Parts, part)
		if !p.accept(".") {
			return e, nil
		}
		tok = p.next()
		if tok.kind != tokIdent {
			return nil, p.errorf("expected name after '.'")
		}
	}
}

func (p *parser) parseTuple() (*Expr, error) {
	p.next() // (
	e := &Expr{Kind: ExprTuple}
	for {
		el, err := p.parseType()
		if err != nil {
			return nil, err
		}
		e.Elems = append(e.Elems, el)
		if t := p.peek(); t.kind == tokIdent {
			p.next() // element name
		}
		if p.accept(")") {
			break
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
	if len(e.Elems) < 2 {
		return nil, p.errorf("tuple needs at least two elements")
	}
	return e, nil
}

func (p *parser) parseFunctionPointer() (*Expr, error) {
	p.next() // delegate
	if err := p.expect("*"); err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind == tokIdent {
		p.next() // calling convention
		if p.peek().text == "[" {
			if err := p.skipBalanced("[", "]"); err != nil {
				return nil, err
			}
		}
	}
	if p.peek().text != "<" {
		return nil, p.errorf("expected '<' in function pointer")
	}
	if err := p.skipBalanced("<", ">"); err != nil {
		return nil, err
	}
	return &Expr{Kind: ExprFunctionPointer}, nil
}
