package identity

import (
	"strconv"
	"strings"

	"apifp/internal/errors"
)

// ParseIdentifier inverts Render. Accessor methods come back as plain methods
// named get_X, set_X and so on, which render identically.
func ParseIdentifier(s string) (Element, error) {
	var e Element
	if len(s) < 3 || s[1] != ':' {
		return e, invalidID(s, "missing kind prefix")
	}
	switch s[0] {
	case 'T':
		e.Kind = KindType
	case 'M':
		e.Kind = KindMethod
	case 'F':
		e.Kind = KindField
	case 'P':
		e.Kind = KindProperty
	case 'E':
		e.Kind = KindEvent
	default:
		return e, invalidID(s, "unknown kind prefix "+strconv.QuoteRune(rune(s[0])))
	}

	path, params, returns := s[2:], "", ""
	if i := strings.IndexByte(path, '~'); i >= 0 {
		path, returns = path[:i], path[i+1:]
		if returns == "" {
			return e, invalidID(s, "empty return type")
		}
	}
	if i := strings.IndexByte(path, '('); i >= 0 {
		if !strings.HasSuffix(path, ")") {
			return e, invalidID(s, "unterminated parameter list")
		}
		path, params = path[:i], path[i+1:len(path)-1]
		if params == "" {
			return e, invalidID(s, "empty parameter list")
		}
	}
	if strings.ContainsAny(path, "~{}[]*@,") {
		return e, invalidID(s, "unexpected character in name")
	}

	segs := strings.Split(path, ".")
	for _, seg := range segs[:len(segs)-1] {
		name, arity, err := splitArity(seg, "`")
		if err != nil {
			return e, invalidID(s, err.Error())
		}
		e.Scope = append(e.Scope, Segment{Name: name, Arity: arity})
	}

	last := segs[len(segs)-1]
	var err error
	switch e.Kind {
	case KindType:
		e.Name, e.Arity, err = splitArity(last, "`")
	case KindMethod:
		switch last {
		case "#ctor":
			e.Kind = KindConstructor
		case "#cctor":
			e.Kind = KindConstructor
			e.Static = true
		default:
			e.Name, e.Arity, err = splitArity(last, "``")
			if strings.HasPrefix(e.Name, "#") {
				err = errors.Newf(errors.InputInvalid, "reserved method name %q", e.Name)
			}
		}
	default:
		if last == "" || strings.ContainsRune(last, '`') {
			err = errors.Newf(errors.InputInvalid, "invalid member name %q", last)
		}
		e.Name = last
	}
	if err != nil {
		return e, invalidID(s, err.Error())
	}

	if params != "" {
		p := &typeParser{s: params}
		for {
			t, err := p.parseType()
			if err != nil {
				return e, invalidID(s, err.Error())
			}
			e.Parameters = append(e.Parameters, t)
			if p.done() {
				break
			}
			if !p.accept(',') {
				return e, invalidID(s, "expected ',' at offset "+strconv.Itoa(p.pos))
			}
		}
	}

	if returns != "" {
		if !e.IsConversion() {
			return e, invalidID(s, "return type on a member that is not a conversion operator")
		}
		t, err := ParseTypeRef(returns)
		if err != nil {
			return e, invalidID(s, err.Error())
		}
		e.Returns = &t
	}

	if err := validate(e); err != nil {
		return e, err
	}
	return e, nil
}

// ParseTypeRef parses a single parameter type in identifier syntax, e.g. System.Collections.Generic.List{``0}[]
func ParseTypeRef(s string) (TypeRef, error) {
	p := &typeParser{s: s}
	t, err := p.parseType()
	if err != nil {
		return t, err
	}
	if !p.done() {
		return t, errors.Newf(errors.InputInvalid, "unexpected %q at offset %d in type %q", p.s[p.pos:], p.pos, s)
	}
	return t, nil
}

func invalidID(s, reason string) error {
	return errors.Newf(errors.InputInvalid, "invalid identifier %q: %s", s, reason)
}

// splitArity splits "Name<marker>N" into its name and arity
func splitArity(seg, marker string) (string, int, error) {
	if seg == "" {
		return "", 0, errors.Newf(errors.InputInvalid, "empty name segment")
	}
	i := strings.Index(seg, marker)
	if i < 0 {
		if strings.ContainsRune(seg, '`') {
			return "", 0, errors.Newf(errors.InputInvalid, "unexpected arity marker in %q", seg)
		}
		return seg, 0, nil
	}
	name, digits := seg[:i], seg[i+len(marker):]
	n, err := strconv.Atoi(digits)
	if name == "" || err != nil || n <= 0 || digits[0] == '+' {
		return "", 0, errors.Newf(errors.InputInvalid, "invalid arity in %q", seg)
	}
	return name, n, nil
}

type typeParser struct {
	s   string
	pos int
}

func (p *typeParser) done() bool { return p.pos >= len(p.s) }

func (p *typeParser) peek() byte {
	if p.done() {
		return 0
	}
	return p.s[p.pos]
}

func (p *typeParser) accept(c byte) bool {
	if p.peek() == c && !p.done() {
		p.pos++
		return true
	}
	return false
}

func (p *typeParser) parseType() (TypeRef, error) {
	var t TypeRef
	var err error
	if p.accept('`') {
		kind := TypeParameter
		if p.accept('`') {
			kind = MethodTypeParameter
		}
		n, err := p.number()
		if err != nil {
			return t, err
		}
		t = TypeRef{Kind: kind, Ordinal: n}
	} else if t, err = p.parseNamed(); err != nil {
		return t, err
	}

	for {
		switch {
		case p.accept('*'):
			t = PointerTo(t)
		case p.accept('@'):
			t = ByRefTo(t)
		case p.accept('['):
			rank, err := p.rank()
			if err != nil {
				return t, err
			}
			t = ArrayOf(t, rank)
		default:
			return t, nil
		}
	}
}

func (p *typeParser) number() (int, error) {
	start := p.pos
	for !p.done() && p.peek() >= '0' && p.peek() <= '9' {
		p.pos++
	}
	if start == p.pos {
		return 0, errors.Newf(errors.InputInvalid, "expected ordinal at offset %d", start)
	}
	return strconv.Atoi(p.s[start:p.pos])
}

// rank reads the dimensions following '[' up to and including ']'
func (p *typeParser) rank() (int, error) {
	rank := 1
	for {
		if p.done() {
			return 0, errors.Newf(errors.InputInvalid, "unterminated array rank")
		}
		c := p.s[p.pos]
		p.pos++
		switch {
		case c == ']':
			return rank, nil
		case c == ',':
			rank++
		case c == ':' || (c >= '0' && c <= '9'):
		default:
			return 0, errors.Newf(errors.InputInvalid, "unexpected %q in array rank", c)
		}
	}
}

func (p *typeParser) parseNamed() (TypeRef, error) {
	var parts []TypeName
	for {
		start := p.pos
		for !p.done() && !strings.ContainsRune(".{},[]*@`", rune(p.peek())) {
			p.pos++
		}
		if start == p.pos {
			return TypeRef{}, errors.Newf(errors.InputInvalid, "expected type name at offset %d", start)
		}
		part := TypeName{Name: p.s[start:p.pos]}
		if p.accept('{') {
			for {
				arg, err := p.parseType()
				if err != nil {
					return TypeRef{}, err
				}
				part.Args = append(part.Args, arg)
				if p.accept('}') {
					break
				}
				if !p.accept(',') {
					return TypeRef{}, errors.Newf(errors.InputInvalid, "expected ',' or '}' at offset %d", p.pos)
				}
			}
		}
		parts = append(parts, part)
		if !p.accept('.') {
			break
		}
	}

	// Names before the first generic one are indistinguishable from namespaces
	split := len(parts) - 1
	for i, part := range parts {
		if len(part.Args) > 0 {
			split = i
			break
		}
	}
	t := TypeRef{Kind: TypeNamed, Names: parts[split:]}
	for _, part := range parts[:split] {
		t.Namespace = append(t.Namespace, part.Name)
	}
	return t, nil
}
