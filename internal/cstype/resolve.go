package cstype

import (
	"strconv"
	"strings"

	"apifp/internal/errors"
	"apifp/internal/identity"
)

// Index records source-declared types so that names resolve to their full shape
type Index struct {
	types map[string]declared
	// namespaces that declare each type path, keyed without the namespace
	byPath map[string][]string
}

type declared struct {
	nsLen     int
	valueType bool
}

// NewIndex returns an empty index
func NewIndex() *Index {
	return &Index{types: make(map[string]declared), byPath: make(map[string][]string)}
}

// Declare registers a type declared at path (outermost containing type first) in namespace
func (ix *Index) Declare(namespace string, path []identity.Segment, valueType bool) {
	var ns []string
	if namespace != "" {
		ns = strings.Split(namespace, ".")
	}
	segs := make([]seg, 0, len(ns)+len(path))
	for _, n := range ns {
		segs = append(segs, seg{name: n})
	}
	for _, p := range path {
		segs = append(segs, seg{name: p.Name, arity: p.Arity})
	}
	key := keyOf(segs)
	if _, ok := ix.types[key]; !ok {
		pathKey := keyOf(segs[len(ns):])
		ix.byPath[pathKey] = append(ix.byPath[pathKey], namespace)
	}
	ix.types[key] = declared{nsLen: len(ns), valueType: valueType}
}

// uniqueNamespace returns the namespace declaring the type path key when exactly one does
func (ix *Index) uniqueNamespace(pathKey string) (string, bool) {
	if ix == nil {
		return "", false
	}
	if ns := ix.byPath[pathKey]; len(ns) == 1 {
		return ns[0], true
	}
	return "", false
}

// Len returns the number of declared types
func (ix *Index) Len() int {
	return len(ix.types)
}

func (ix *Index) lookup(key string) (declared, bool) {
	if ix != nil {
		if d, ok := ix.types[key]; ok {
			return d, true
		}
	}
	if v, ok := known[key]; ok {
		return declared{nsLen: knownNamespaceLen(key), valueType: v}, true
	}
	return declared{}, false
}

// Context carries the lexical scope a type expression is resolved in
type Context struct {
	Index            *Index
	Namespace        string
	Enclosing        []identity.Segment // containing types, outermost first
	TypeParams       []string           // type parameters of all containing types, by ordinal
	MethodTypeParams []string
	Usings           []string
	Aliases          map[string]string
	Strict           bool // fail on names that resolve nowhere instead of assuming the current namespace

	// Referenced maps simple type names to the namespace a compiler or
	// indexer bound them to. It takes precedence over lexical lookup.
	Referenced map[string]string
	// AnyNamespace lets a name resolve to a type declared in any namespace,
	// provided only one declares it. It is for text written without its
	// using directives.
	AnyNamespace bool
}

// WithMethodTypeParams returns a copy of c with a method's type parameters in scope
func (c *Context) WithMethodTypeParams(names []string) *Context {
	cp := *c
	cp.MethodTypeParams = names
	return &cp
}

// ResolveText parses and resolves a type expression
func (c *Context) ResolveText(text string) (identity.TypeRef, error) {
	e, err := Parse(text)
	if err != nil {
		return identity.TypeRef{}, err
	}
	return c.Resolve(e)
}

// ResolveParam resolves a parsed parameter; ref, out and in become by-reference types
func (c *Context) ResolveParam(p Param) (identity.TypeRef, error) {
	t, err := c.Resolve(p.Type)
	if err != nil {
		return t, err
	}
	if p.ByRef {
		t = identity.ByRefTo(t)
	}
	return t, nil
}

// ResolveParameterList parses and resolves a comma-separated parameter list
func (c *Context) ResolveParameterList(list string) ([]identity.TypeRef, error) {
	var out []identity.TypeRef
	for _, text := range SplitParameters(list) {
		p, err := ParseParameter(text)
		if err != nil {
			return nil, err
		}
		t, err := c.ResolveParam(p)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Resolve converts a type expression to the identifier type reference it names
func (c *Context) Resolve(e *Expr) (identity.TypeRef, error) {
	t, _, err := c.resolve(e)
	return t, err
}

func (c *Context) resolve(e *Expr) (identity.TypeRef, bool, error) {
	if e == nil {
		return identity.TypeRef{}, false, errors.Newf(errors.InputInvalid, "unbound generic argument in parameter type")
	}
	switch e.Kind {
	case ExprName:
		return c.resolveName(e)
	case ExprArray:
		elem, _, err := c.resolve(e.Elem)
		if err != nil {
			return elem, false, err
		}
		return identity.ArrayOf(elem, e.Rank), false, nil
	case ExprPointer:
		elem, _, err := c.resolve(e.Elem)
		if err != nil {
			return elem, false, err
		}
		return identity.PointerTo(elem), true, nil
	case ExprNullable:
		elem, valueType, err := c.resolve(e.Elem)
		if err != nil {
			return elem, false, err
		}
		if !valueType {
			// nullable reference annotation, not part of the type identity
			return elem, false, nil
		}
		return identity.Named("System.Nullable", elem), true, nil
	case ExprTuple:
		elems := make([]identity.TypeRef, 0, len(e.Elems))
		for _, el := range e.Elems {
			t, _, err := c.resolve(el)
			if err != nil {
				return t, false, err
			}
			elems = append(elems, t)
		}
		return valueTuple(elems), true, nil
	case ExprFunctionPointer:
		return identity.TypeRef{}, false, errors.Newf(errors.UnsupportedShape, "function pointer types have no identifier form")
	default:
		return identity.TypeRef{}, false, errors.Newf(errors.UnsupportedShape, "unknown type expression kind %d", int(e.Kind))
	}
}

// valueTuple nests elements beyond the seventh into the TRest argument
func valueTuple(elems []identity.TypeRef) identity.TypeRef {
	if len(elems) <= 7 {
		return identity.Named("System.ValueTuple", elems...)
	}
	args := append(append([]identity.TypeRef(nil), elems[:7]...), valueTuple(elems[7:]))
	return identity.Named("System.ValueTuple", args...)
}

type seg struct {
	name  string
	arity int
	args  []identity.TypeRef
}

func keyOf(segs []seg) string {
	var b strings.Builder
	for i, s := range segs {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.name)
		if s.arity > 0 {
			b.WriteByte('`')
			b.WriteString(strconv.Itoa(s.arity))
		}
	}
	return b.String()
}

func lastIndex(names []string, name string) int {
	for i := len(names) - 1; i >= 0; i-- {
		if names[i] == name {
			return i
		}
	}
	return -1
}

func (c *Context) resolveName(e *Expr) (identity.TypeRef, bool, error) {
	parts := e.Parts
	if e.Alias == "" && len(parts) == 1 && len(parts[0].Args) == 0 {
		name := parts[0].Name
		if i := lastIndex(c.MethodTypeParams, name); i >= 0 {
			return identity.MethodTypeParam(i), false, nil
		}
		if i := lastIndex(c.TypeParams, name); i >= 0 {
			return identity.TypeParam(i), false, nil
		}
		if full, ok := keywords[name]; ok {
			return identity.Named(full), keywordValueType(name), nil
		}
	}

	written := make([]seg, 0, len(parts))
	for _, p := range parts {
		s := seg{name: p.Name, arity: len(p.Args)}
		for _, a := range p.Args {
			t, _, err := c.resolve(a)
			if err != nil {
				return t, false, err
			}
			s.args = append(s.args, t)
		}
		written = append(written, s)
	}

	absolute := e.Alias == "global"
	if !absolute && e.Alias == "" && len(written[0].args) == 0 {
		if target, ok := c.Aliases[written[0].name]; ok {
			expanded := namespaceSegs(target)
			written = append(expanded, written[1:]...)
			absolute = true
		}
	}

	if !absolute && e.Alias == "" {
		if ns, ok := c.Referenced[written[0].name]; ok {
			return c.qualified(namespaceSegs(ns), written)
		}
	}

	for _, prefix := range c.candidatePrefixes(absolute) {
		all := make([]seg, 0, len(prefix)+len(written))
		all = append(append(all, prefix...), written...)
		if d, ok := c.Index.lookup(keyOf(all)); ok {
			return buildRef(all, d.nsLen), d.valueType, nil
		}
	}

	if !absolute && (c.AnyNamespace || !c.Strict) {
		if ns, ok := c.Index.uniqueNamespace(keyOf(written)); ok {
			return c.qualified(namespaceSegs(ns), written)
		}
	}

	if c.Strict {
		return identity.TypeRef{}, false, errors.Newf(errors.UnresolvedType, "cannot resolve type %q", e.String())
	}
	if len(written) == 1 && !absolute {
		all := append(namespaceSegs(c.Namespace), written...)
		return buildRef(all, len(all)-1), false, nil
	}
	nsLen := len(written) - 1
	for i, s := range written {
		if len(s.args) > 0 {
			nsLen = i
			break
		}
	}
	return buildRef(written, nsLen), false, nil
}

// qualified places written in namespace ns, taking the type shape from the index when known
func (c *Context) qualified(ns, written []seg) (identity.TypeRef, bool, error) {
	all := append(append(make([]seg, 0, len(ns)+len(written)), ns...), written...)
	if d, ok := c.Index.lookup(keyOf(all)); ok {
		return buildRef(all, d.nsLen), d.valueType, nil
	}
	return buildRef(all, len(ns)), false, nil
}

// candidatePrefixes lists the scopes searched for a name in lookup order:
// containing types innermost first, then the namespace chain, then using directives
func (c *Context) candidatePrefixes(absolute bool) [][]seg {
	if absolute {
		return [][]seg{nil}
	}
	ns := namespaceSegs(c.Namespace)
	var out [][]seg

	base := 0
	typeSegs := make([]seg, 0, len(c.Enclosing))
	for _, t := range c.Enclosing {
		s := seg{name: t.Name, arity: t.Arity}
		for k := 0; k < t.Arity; k++ {
			s.args = append(s.args, identity.TypeParam(base+k))
		}
		base += t.Arity
		typeSegs = append(typeSegs, s)
	}
	for i := len(typeSegs); i >= 1; i-- {
		prefix := make([]seg, 0, len(ns)+i)
		prefix = append(append(prefix, ns...), typeSegs[:i]...)
		out = append(out, prefix)
	}
	for j := len(ns); j >= 0; j-- {
		out = append(out, ns[:j:j])
	}
	for _, u := range c.Usings {
		out = append(out, namespaceSegs(u))
	}
	return out
}

func namespaceSegs(ns string) []seg {
	if ns == "" {
		return nil
	}
	parts := strings.Split(ns, ".")
	out := make([]seg, len(parts))
	for i, p := range parts {
		out[i] = seg{name: p}
	}
	return out
}

func buildRef(all []seg, nsLen int) identity.TypeRef {
	t := identity.TypeRef{Kind: identity.TypeNamed}
	for _, s := range all[:nsLen] {
		t.Namespace = append(t.Namespace, s.name)
	}
	for _, s := range all[nsLen:] {
		t.Names = append(t.Names, identity.TypeName{Name: s.name, Args: s.args})
	}
	return t
}
