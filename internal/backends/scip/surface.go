package scip

import (
	"log/slog"
	"strings"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"

	"apifp/internal/cstype"
	"apifp/internal/decl"
	"apifp/internal/errors"
	"apifp/internal/identity"
)

// Options controls how symbols become declarations
type Options struct {
	Visibility decl.Visibility
	// Usings are searched when resolving signature types, after the namespace chain
	Usings []string
	// Strict fails on signature types that resolve nowhere
	Strict bool
	Logger *slog.Logger
}

// typeNode is a type symbol being assembled
type typeNode struct {
	key       string
	sym       *Symbol
	info      *SymbolInformation
	sig       signature
	namespace string
	path      []identity.Segment // containing types then this type
	params    []string           // own type parameter names
	decl      *decl.Type
	hidden    bool
	parent    *typeNode
}

// member is a non-type symbol owned by a type
type member struct {
	sym  *Symbol
	info *SymbolInformation
	sig  signature
}

type builder struct {
	opts       Options
	types      map[string]*typeNode
	ordered    []*typeNode
	members    map[string][]member
	typeParams map[string][]string // owner symbol -> type parameter names in order
	index      *cstype.Index
}

// Declarations converts the definitions in idx into declaration trees, one
// per namespace in order of first appearance
func Declarations(idx *Index, opts Options) ([]*decl.Namespace, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Usings == nil {
		opts.Usings = cstype.ImplicitUsings
	}
	b := &builder{
		opts:       opts,
		types:      make(map[string]*typeNode),
		members:    make(map[string][]member),
		typeParams: make(map[string][]string),
		index:      cstype.NewIndex(),
	}
	if err := b.collect(idx); err != nil {
		return nil, err
	}
	if err := b.linkTypes(); err != nil {
		return nil, err
	}
	return b.namespaces()
}

func (b *builder) collect(idx *Index) error {
	seen := make(map[string]bool)
	for _, doc := range idx.Documents {
		for _, info := range doc.Symbols {
			if IsLocal(info.Symbol) || seen[info.Symbol] {
				continue
			}
			seen[info.Symbol] = true
			sym, err := ParseSymbol(info.Symbol)
			if err != nil {
				return err
			}
			last := sym.Last()
			switch {
			case last.Suffix == SuffixTypeParameter || info.Kind == scippb.SymbolInformation_TypeParameter:
				owner := sym.Owner()
				b.typeParams[owner] = append(b.typeParams[owner], last.Name)
			case last.Suffix == SuffixParameter || last.Suffix == SuffixNamespace ||
				info.Kind == scippb.SymbolInformation_Parameter || info.Kind == scippb.SymbolInformation_Namespace:
			case isTypeSymbol(sym, info):
				n := &typeNode{key: sym.String(), sym: sym, info: info, sig: parseSignature(info.Signature)}
				b.types[n.key] = n
				b.ordered = append(b.ordered, n)
			default:
				b.members[sym.Owner()] = append(b.members[sym.Owner()], member{sym: sym, info: info, sig: parseSignature(info.Signature)})
			}
		}
	}
	return nil
}

func isTypeSymbol(sym *Symbol, info *SymbolInformation) bool {
	switch info.Kind {
	case scippb.SymbolInformation_Class, scippb.SymbolInformation_Struct, scippb.SymbolInformation_Interface,
		scippb.SymbolInformation_Enum, scippb.SymbolInformation_Delegate:
		return true
	case scippb.SymbolInformation_UnspecifiedKind:
		return sym.Last().Suffix == SuffixType
	}
	return false
}

// linkTypes computes scope and kind for every type and declares it for resolution
func (b *builder) linkTypes() error {
	for _, n := range b.ordered {
		var ns []string
		for i, d := range n.sym.Descriptors {
			switch d.Suffix {
			case SuffixNamespace:
				if len(n.path) > 0 {
					return errors.Newf(errors.InputInvalid, "SCIP symbol %q nests a namespace inside a type", n.info.Symbol)
				}
				ns = append(ns, d.Name)
			case SuffixType:
				arity := len(b.typeParams[n.sym.format(n.sym.Descriptors[:i+1])])
				n.path = append(n.path, identity.Segment{Name: d.Name, Arity: arity})
			default:
				return errors.Newf(errors.InputInvalid, "SCIP type symbol %q has a %q descriptor in its path", n.info.Symbol, string(rune(d.Suffix)))
			}
		}
		n.namespace = strings.Join(ns, ".")
		n.params = b.typeParams[n.key]
		if owner := n.sym.Owner(); owner != "" {
			n.parent = b.types[owner]
		}

		kind, ok := typeKind(n.info.Kind, n.sig)
		if !ok {
			b.opts.Logger.Warn("Skipping record type", "symbol", n.info.Symbol)
			n.hidden = true
			kind = decl.Class
		}
		b.index.Declare(n.namespace, n.path, kind == decl.Struct || kind == decl.Enum)

		access := decl.AccessOf(n.sig.modifiers, decl.AccessInternal)
		if n.parent != nil {
			access = decl.AccessOf(n.sig.modifiers, decl.AccessPrivate)
		}
		if n.info.Signature == "" {
			access = decl.AccessPublic
		}
		if !b.opts.Visibility.Includes(access) {
			n.hidden = true
		}
		n.decl = &decl.Type{
			Kind:       kind,
			Name:       n.path[len(n.path)-1].Name,
			TypeParams: n.params,
			Static:     n.sig.has("static"),
		}
	}
	return nil
}

func typeKind(k scippb.SymbolInformation_Kind, sig signature) (decl.TypeKind, bool) {
	if sig.has("record") {
		return 0, false
	}
	switch k {
	case scippb.SymbolInformation_Struct:
		return decl.Struct, true
	case scippb.SymbolInformation_Interface:
		return decl.Interface, true
	case scippb.SymbolInformation_Enum:
		return decl.Enum, true
	case scippb.SymbolInformation_Delegate:
		return decl.Delegate, true
	case scippb.SymbolInformation_Class:
		return decl.Class, true
	}
	for _, m := range []string{"struct", "interface", "enum", "delegate"} {
		if sig.has(m) {
			kind, _ := decl.ParseTypeKind(m)
			return kind, true
		}
	}
	return decl.Class, true
}

func (b *builder) namespaces() ([]*decl.Namespace, error) {
	var out []*decl.Namespace
	byName := make(map[string]*decl.Namespace)
	for _, n := range b.ordered {
		if n.isHidden() {
			continue
		}
		if err := b.fill(n); err != nil {
			return nil, err
		}
		if n.parent != nil {
			n.parent.decl.Nested = append(n.parent.decl.Nested, n.decl)
			continue
		}
		ns, ok := byName[n.namespace]
		if !ok {
			ns = &decl.Namespace{Name: n.namespace}
			byName[n.namespace] = ns
			out = append(out, ns)
		}
		ns.Types = append(ns.Types, n.decl)
	}
	return out, nil
}

// isHidden reports whether n or any type containing it is left out
func (n *typeNode) isHidden() bool {
	for p := n; p != nil; p = p.parent {
		if p.hidden {
			return true
		}
	}
	return false
}

// context returns the resolution scope for members of n
func (b *builder) context(n *typeNode) *cstype.Context {
	var params []string
	var chain []*typeNode
	for p := n; p != nil; p = p.parent {
		chain = append([]*typeNode{p}, chain...)
	}
	for _, p := range chain {
		params = append(params, p.params...)
	}
	return &cstype.Context{
		Index:      b.index,
		Namespace:  n.namespace,
		Enclosing:  n.path,
		TypeParams: params,
		Usings:     b.opts.Usings,
		Strict:     b.opts.Strict,
		// signature text carries no using directives
		AnyNamespace: true,
	}
}

// bound returns ctx with the type names the indexer resolved in the signature of info
func (b *builder) bound(ctx *cstype.Context, info *SymbolInformation) *cstype.Context {
	if len(info.References) == 0 {
		return ctx
	}
	refs := make(map[string]string)
	ambiguous := make(map[string]bool)
	for _, s := range info.References {
		sym, err := ParseSymbol(s)
		if err != nil || sym.Last().Suffix != SuffixType {
			continue
		}
		var ns []string
		types := 0
		for _, d := range sym.Descriptors {
			switch d.Suffix {
			case SuffixNamespace:
				ns = append(ns, d.Name)
			case SuffixType:
				types++
			}
		}
		if types != 1 {
			// nested types resolve through their containers
			continue
		}
		name, namespace := sym.Last().Name, strings.Join(ns, ".")
		if prev, ok := refs[name]; ok && prev != namespace {
			ambiguous[name] = true
		}
		refs[name] = namespace
	}
	for name := range ambiguous {
		delete(refs, name)
	}
	if len(refs) == 0 {
		return ctx
	}
	cp := *ctx
	cp.Referenced = refs
	return &cp
}

var ctorNames = map[string]bool{".ctor": true, "#ctor": true, "ctor": true, "<init>": true}
var cctorNames = map[string]bool{".cctor": true, "#cctor": true, "cctor": true, "<clinit>": true}

// fill attaches the visible members of n to its declaration
func (b *builder) fill(n *typeNode) error {
	t := n.decl
	ctx := b.context(n)

	if t.Kind == decl.Delegate {
		params, err := b.parameters(b.bound(ctx, n.info), n.sig, n.info)
		if err != nil {
			return err
		}
		t.Invoke = &decl.Method{Name: "Invoke", Parameters: params}
		return nil
	}

	members := b.members[n.key]
	accessorOf := make(map[string]bool)
	for _, m := range members {
		switch memberKind(m, t) {
		case kindProperty, kindEvent:
			accessorOf[propertyName(m)] = true
		}
	}

	defaultAccess := decl.AccessPrivate
	if t.Kind == decl.Interface || t.Kind == decl.Enum {
		defaultAccess = decl.AccessPublic
	}
	for _, m := range members {
		last := m.sym.Last()
		mctx := b.bound(ctx, m.info)
		access := decl.AccessOf(m.sig.modifiers, defaultAccess)
		visible := b.opts.Visibility.Includes(access)

		switch memberKind(m, t) {
		case kindConstructor:
			if cctorNames[last.Name] || m.sig.has("static") {
				// type initializers are always private
				t.StaticConstructor = b.opts.Visibility == decl.VisibilityAll
				continue
			}
			t.DeclaresConstructors = true
			if !visible {
				continue
			}
			params, err := b.parameters(mctx, m.sig, m.info)
			if err != nil {
				return err
			}
			t.Constructors = append(t.Constructors, decl.Method{Parameters: params})

		case kindMethod:
			if last.Name == "Finalize" && strings.HasPrefix(strings.TrimSpace(m.info.Signature), "~") {
				t.Finalizer = true
				continue
			}
			if isAccessorName(last.Name, accessorOf) || !visible {
				continue
			}
			typeParams := b.typeParams[m.sym.String()]
			if len(typeParams) == 0 {
				typeParams = m.sig.typeParams
			}
			gctx := mctx.WithMethodTypeParams(typeParams)
			params, err := b.parameters(gctx, m.sig, m.info)
			if err != nil {
				return err
			}
			method := decl.Method{Name: last.Name, TypeParams: typeParams, Parameters: params}
			if identity.IsConversionName(last.Name) {
				ret, err := b.resolveType(gctx, m.sig.conversionTarget(), m.info)
				if err != nil {
					return err
				}
				method.Returns = &ret
			}
			t.Methods = append(t.Methods, method)

		case kindValue:
			if last.Name != "value__" {
				t.Values = append(t.Values, last.Name)
			}

		case kindField:
			if visible {
				t.Fields = append(t.Fields, decl.Field{Name: last.Name})
			}

		case kindProperty:
			if !visible {
				continue
			}
			p, err := b.property(mctx, m, access)
			if err != nil {
				return err
			}
			t.Properties = append(t.Properties, p)

		case kindEvent:
			if !visible {
				continue
			}
			typ, err := b.resolveType(mctx, m.sig.typeText(), m.info)
			if err != nil {
				return err
			}
			t.Events = append(t.Events, decl.Event{Name: last.Name, Type: typ})
		}
	}
	return nil
}

type memberKindT int

const (
	kindSkip memberKindT = iota
	kindConstructor
	kindMethod
	kindField
	kindValue
	kindProperty
	kindEvent
)

func memberKind(m member, owner *decl.Type) memberKindT {
	last := m.sym.Last()
	if owner.Kind == decl.Enum && last.Suffix == SuffixTerm {
		return kindValue
	}
	switch m.info.Kind {
	case scippb.SymbolInformation_Constructor:
		return kindConstructor
	case scippb.SymbolInformation_Method, scippb.SymbolInformation_StaticMethod:
		if ctorNames[last.Name] || cctorNames[last.Name] {
			return kindConstructor
		}
		return kindMethod
	case scippb.SymbolInformation_Field, scippb.SymbolInformation_StaticField, scippb.SymbolInformation_Constant:
		return kindField
	case scippb.SymbolInformation_EnumMember:
		return kindValue
	case scippb.SymbolInformation_Property, scippb.SymbolInformation_StaticProperty:
		return kindProperty
	case scippb.SymbolInformation_Event, scippb.SymbolInformation_StaticEvent:
		return kindEvent
	}
	switch last.Suffix {
	case SuffixMethod:
		if ctorNames[last.Name] || cctorNames[last.Name] {
			return kindConstructor
		}
		return kindMethod
	case SuffixTerm:
		switch {
		case m.sig.has("event"):
			return kindEvent
		case len(m.sig.accessors) > 0 || m.sig.arrow:
			return kindProperty
		default:
			return kindField
		}
	}
	return kindSkip
}

func isIndexer(m member) bool {
	return len(m.sig.words) > 0 && m.sig.words[len(m.sig.words)-1] == "this"
}

// propertyName is the metadata name of a property; indexers are named Item
func propertyName(m member) string {
	if isIndexer(m) {
		return "Item"
	}
	return m.sym.Last().Name
}

func isAccessorName(name string, members map[string]bool) bool {
	for _, prefix := range []string{"get_", "set_", "add_", "remove_"} {
		if strings.HasPrefix(name, prefix) && members[strings.TrimPrefix(name, prefix)] {
			return true
		}
	}
	return false
}

func (b *builder) property(ctx *cstype.Context, m member, access decl.Access) (decl.Property, error) {
	p := decl.Property{Name: propertyName(m)}
	typeText := m.sig.typeText()
	if isIndexer(m) {
		params, err := b.parameters(ctx, m.sig, m.info)
		if err != nil {
			return p, err
		}
		p.Parameters = params
	}
	typ, err := b.resolveType(ctx, typeText, m.info)
	if err != nil {
		return p, err
	}
	p.Type = typ

	if m.sig.arrow && len(m.sig.accessors) == 0 {
		p.Get = true
		return p, nil
	}
	accessorVisible := func(keyword string) bool {
		a, ok := m.sig.accessor(keyword)
		if !ok {
			return false
		}
		return b.opts.Visibility.Includes(decl.AccessOf(a.modifiers, access))
	}
	p.Get = accessorVisible("get")
	p.Set = accessorVisible("set")
	return p, nil
}

// parameters resolves the parameter list of a method, constructor, delegate or indexer signature
func (b *builder) parameters(ctx *cstype.Context, sig signature, info *SymbolInformation) ([]identity.TypeRef, error) {
	if info.Signature == "" {
		return nil, errors.Newf(errors.InputInvalid, "SCIP symbol %q has no signature documentation to read parameters from", info.Symbol)
	}
	list := sig.params
	if strings.HasPrefix(list, "[") {
		list = "(" + list[1:len(list)-1] + ")"
	}
	params, err := ctx.ResolveParameterList(list)
	if err != nil {
		return nil, errors.New(errors.CodeOrInternal(err), "SCIP symbol "+info.Symbol, err)
	}
	return params, nil
}

func (b *builder) resolveType(ctx *cstype.Context, text string, info *SymbolInformation) (identity.TypeRef, error) {
	if text == "" {
		return identity.TypeRef{}, errors.Newf(errors.InputInvalid, "SCIP symbol %q has no type in its signature %q", info.Symbol, info.Signature)
	}
	t, err := ctx.ResolveText(text)
	if err != nil {
		return t, errors.New(errors.CodeOrInternal(err), "SCIP symbol "+info.Symbol, err)
	}
	return t, nil
}
