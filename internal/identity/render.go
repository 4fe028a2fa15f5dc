package identity

import (
	"strconv"
	"unicode/utf8"

	"apifp/internal/errors"
)

// ErrUnsupportedShape matches every error the grammar returns for shapes it cannot render
var ErrUnsupportedShape = errors.Sentinel(errors.UnsupportedShape)

const replacementChar = "\uFFFD"

// Render produces the canonical identifier for e. ok is false when the element
// has no documentable identity, which is not an error.
func Render(e Element) (id string, ok bool, err error) {
	var buf [256]byte
	b, ok, err := Append(buf[:0], e)
	if err != nil || !ok {
		return "", ok, err
	}
	return string(b), true, nil
}

// Append renders the identifier for e onto dst. On error or absence dst is
// returned unchanged.
func Append(dst []byte, e Element) ([]byte, bool, error) {
	prefix := e.Kind.Prefix()
	if prefix == 0 {
		return dst, false, errors.Newf(errors.UnsupportedShape, "unknown element kind %d", int(e.Kind))
	}
	if !hasIdentity(e) {
		return dst, false, nil
	}
	if err := validate(e); err != nil {
		return dst, false, err
	}

	out := append(dst, prefix, ':')
	for i, seg := range e.Scope {
		if i > 0 {
			out = append(out, '.')
		}
		out = appendName(out, seg.Name)
		out = appendArity(out, "`", seg.Arity)
	}
	if len(e.Scope) > 0 {
		out = append(out, '.')
	}

	switch e.Kind {
	case KindType:
		out = appendName(out, e.Name)
		out = appendArity(out, "`", e.Arity)
	case KindConstructor:
		if e.Static {
			out = append(out, "#cctor"...)
		} else {
			out = append(out, "#ctor"...)
		}
	case KindMethod:
		if e.Accessor != nil && e.Accessor.Role != AccessorNone {
			out = append(out, e.Accessor.Role.Prefix()...)
			out = appendMemberName(out, e.Accessor.Of)
		} else {
			out = appendMemberName(out, e.Name)
		}
		out = appendArity(out, "``", e.Arity)
	default:
		out = appendMemberName(out, e.Name)
	}

	if len(e.Parameters) > 0 {
		out = append(out, '(')
		for i, p := range e.Parameters {
			if i > 0 {
				out = append(out, ',')
			}
			var err error
			out, err = appendTypeRef(out, p)
			if err != nil {
				return dst, false, err
			}
		}
		out = append(out, ')')
	}
	if e.Returns != nil && e.IsConversion() {
		out = append(out, '~')
		var err error
		if out, err = appendTypeRef(out, *e.Returns); err != nil {
			return dst, false, err
		}
	}
	return out, true, nil
}

func hasIdentity(e Element) bool {
	switch {
	case e.Kind == KindConstructor:
		return true
	case e.Kind == KindMethod && e.Accessor != nil && e.Accessor.Role != AccessorNone:
		return e.Accessor.Of != ""
	default:
		return e.Name != ""
	}
}

func validate(e Element) error {
	for _, seg := range e.Scope {
		if seg.Name == "" {
			return errors.Newf(errors.UnsupportedShape, "empty scope segment in %s %q", e.Kind, e.Name)
		}
		if seg.Arity < 0 {
			return errors.Newf(errors.UnsupportedShape, "negative arity on scope segment %q", seg.Name)
		}
	}
	if e.Arity < 0 {
		return errors.Newf(errors.UnsupportedShape, "negative arity on %s %q", e.Kind, e.Name)
	}
	switch e.Kind {
	case KindType:
		if len(e.Parameters) > 0 {
			return errors.Newf(errors.UnsupportedShape, "type %q cannot have parameters", e.Name)
		}
	case KindConstructor:
		if len(e.Scope) == 0 {
			return errors.Newf(errors.UnsupportedShape, "constructor without a containing type")
		}
		if e.Arity != 0 {
			return errors.Newf(errors.UnsupportedShape, "constructor cannot be generic")
		}
	case KindMethod:
	case KindProperty:
		if e.Arity != 0 {
			return errors.Newf(errors.UnsupportedShape, "property %q cannot be generic", e.Name)
		}
	case KindField, KindEvent:
		if e.Arity != 0 || len(e.Parameters) > 0 {
			return errors.Newf(errors.UnsupportedShape, "%s %q cannot have arity or parameters", e.Kind, e.Name)
		}
	}
	return nil
}

func appendArity(dst []byte, marker string, arity int) []byte {
	if arity == 0 {
		return dst
	}
	dst = append(dst, marker...)
	return strconv.AppendInt(dst, int64(arity), 10)
}

// appendName copies s, replacing each invalid UTF-8 byte with U+FFFD
func appendName(dst []byte, s string) []byte {
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			dst = append(dst, c)
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			dst = append(dst, replacementChar...)
		} else {
			dst = append(dst, s[i:i+size]...)
		}
		i += size
	}
	return dst
}

// appendMemberName is appendName with '.' mapped to '#', as for explicit interface implementations
func appendMemberName(dst []byte, s string) []byte {
	start := len(dst)
	dst = appendName(dst, s)
	for i := start; i < len(dst); i++ {
		if dst[i] == '.' {
			dst[i] = '#'
		}
	}
	return dst
}

func appendTypeRef(dst []byte, t TypeRef) ([]byte, error) {
	var err error
	switch t.Kind {
	case TypeNamed:
		if len(t.Names) == 0 {
			return dst, errors.Newf(errors.UnsupportedShape, "named type without a name")
		}
		for _, ns := range t.Namespace {
			if ns == "" {
				return dst, errors.Newf(errors.UnsupportedShape, "empty namespace segment in type reference")
			}
			dst = appendName(dst, ns)
			dst = append(dst, '.')
		}
		for i, n := range t.Names {
			if n.Name == "" {
				return dst, errors.Newf(errors.UnsupportedShape, "empty type name in type reference")
			}
			if i > 0 {
				dst = append(dst, '.')
			}
			dst = appendName(dst, n.Name)
			if len(n.Args) == 0 {
				continue
			}
			dst = append(dst, '{')
			for j, a := range n.Args {
				if j > 0 {
					dst = append(dst, ',')
				}
				if dst, err = appendTypeRef(dst, a); err != nil {
					return dst, err
				}
			}
			dst = append(dst, '}')
		}
		return dst, nil

	case TypeParameter, MethodTypeParameter:
		if t.Ordinal < 0 {
			return dst, errors.Newf(errors.UnsupportedShape, "negative type parameter ordinal %d", t.Ordinal)
		}
		dst = append(dst, '`')
		if t.Kind == MethodTypeParameter {
			dst = append(dst, '`')
		}
		return strconv.AppendInt(dst, int64(t.Ordinal), 10), nil

	case TypeArray:
		if t.Rank < 1 {
			return dst, errors.Newf(errors.UnsupportedShape, "array rank %d", t.Rank)
		}
		if dst, err = appendElem(dst, t); err != nil {
			return dst, err
		}
		if t.Rank == 1 {
			return append(dst, "[]"...), nil
		}
		dst = append(dst, '[')
		for i := 0; i < t.Rank; i++ {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = append(dst, "0:"...)
		}
		return append(dst, ']'), nil

	case TypePointer:
		if dst, err = appendElem(dst, t); err != nil {
			return dst, err
		}
		return append(dst, '*'), nil

	case TypeByRef:
		if dst, err = appendElem(dst, t); err != nil {
			return dst, err
		}
		return append(dst, '@'), nil

	default:
		return dst, errors.Newf(errors.UnsupportedShape, "unsupported type reference kind %d", int(t.Kind))
	}
}

func appendElem(dst []byte, t TypeRef) ([]byte, error) {
	if t.Elem == nil {
		return dst, errors.Newf(errors.UnsupportedShape, "type reference without element type")
	}
	return appendTypeRef(dst, *t.Elem)
}
