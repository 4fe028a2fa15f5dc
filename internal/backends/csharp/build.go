package csharp

import (
	"fmt"
	"log/slog"
	"strings"

	"apifp/internal/cstype"
	"apifp/internal/decl"
	"apifp/internal/errors"
	"apifp/internal/identity"
)

// Options controls declaration filtering and type resolution
type Options struct {
	Visibility decl.Visibility
	// NoImplicitUsings disables the SDK global usings
	NoImplicitUsings bool
	// Strict fails on type names that resolve nowhere
	Strict bool
	Logger *slog.Logger
}

// operator tokens by parameter count
var unaryOperators = map[string]string{
	"+": "op_UnaryPlus", "-": "op_UnaryNegation", "!": "op_LogicalNot", "~": "op_OnesComplement",
	"++": "op_Increment", "--": "op_Decrement", "true": "op_True", "false": "op_False",
}

var binaryOperators = map[string]string{
	"+": "op_Addition", "-": "op_Subtraction", "*": "op_Multiply", "/": "op_Division", "%": "op_Modulus",
	"&": "op_BitwiseAnd", "|": "op_BitwiseOr", "^": "op_ExclusiveOr",
	"<<": "op_LeftShift", ">>": "op_RightShift", ">>>": "op_UnsignedRightShift",
	"==": "op_Equality", "!=": "op_Inequality", "<": "op_LessThan", ">": "op_GreaterThan",
	"<=": "op_LessThanOrEqual", ">=": "op_GreaterThanOrEqual",
}

// scope is a type being built, with what resolution needs to see from it
type scope struct {
	syntax    *typeSyntax
	file      *sourceFile
	path      []identity.Segment
	params    []string // type parameters of this type and all containing types
	parent    *scope
	decl      *decl.Type
	access    decl.Access
	hidden    bool
	skipped   bool
	key       string
	valueType bool
}

type builder struct {
	opts   Options
	index  *cstype.Index
	merged map[string]*decl.Type // partial declarations by namespace and path
	scopes []*scope
}

// declarations resolves parsed files into declaration trees
func declarations(files []*sourceFile, opts Options) ([]*decl.Namespace, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	b := &builder{opts: opts, index: cstype.NewIndex(), merged: make(map[string]*decl.Type)}

	for _, f := range files {
		for _, t := range f.types {
			b.declare(f, t, nil)
		}
	}
	b.settleAccess()

	var out []*decl.Namespace
	byName := make(map[string]*decl.Namespace)
	for _, s := range b.scopes {
		if s.isHidden() {
			continue
		}
		existing, partial := b.merged[s.key]
		if !partial {
			s.decl = &decl.Type{Name: s.syntax.name, TypeParams: s.syntax.typeParams}
		} else {
			s.decl = existing
		}
		if err := b.fill(s); err != nil {
			return nil, err
		}
		if partial {
			continue
		}
		b.merged[s.key] = s.decl
		if s.parent != nil {
			s.parent.decl.Nested = append(s.parent.decl.Nested, s.decl)
			continue
		}
		ns, ok := byName[s.syntax.namespace]
		if !ok {
			ns = &decl.Namespace{Name: s.syntax.namespace}
			byName[s.syntax.namespace] = ns
			out = append(out, ns)
		}
		ns.Types = append(ns.Types, s.decl)
	}
	return out, nil
}

// declare registers t and its nested types for resolution and queues them for building
func (b *builder) declare(f *sourceFile, t *typeSyntax, parent *scope) {
	s := &scope{syntax: t, file: f, parent: parent}
	if parent != nil {
		s.path = identity.Nest(parent.path, t.name, len(t.typeParams))
		s.params = append(append([]string(nil), parent.params...), t.typeParams...)
	} else {
		s.path = []identity.Segment{{Name: t.name, Arity: len(t.typeParams)}}
		s.params = t.typeParams
	}
	s.key = t.namespace + "|" + segmentsKey(s.path)
	s.valueType = t.kind == "struct" || t.kind == "enum" || t.kind == "record struct"
	b.index.Declare(t.namespace, s.path, s.valueType)

	dflt := decl.AccessInternal
	if parent != nil {
		dflt = decl.AccessPrivate
		if parent.syntax.kind == "interface" {
			dflt = decl.AccessPublic
		}
	}
	s.access = decl.AccessOf(t.modifiers, dflt)
	if strings.HasPrefix(t.kind, "record") {
		b.opts.Logger.Warn("Skipping record declaration", "type", t.name, "file", f.path, "line", t.line)
		s.skipped = true
	}
	b.scopes = append(b.scopes, s)
	for _, n := range t.nested {
		b.declare(f, n, s)
	}
}

// settleAccess gives every part of a partial type the accessibility written on any part
func (b *builder) settleAccess() {
	access := make(map[string]decl.Access)
	for _, s := range b.scopes {
		if a, ok := access[s.key]; !ok || s.access > a {
			access[s.key] = s.access
		}
	}
	for _, s := range b.scopes {
		s.hidden = !b.opts.Visibility.Includes(access[s.key])
	}
}

func segmentsKey(path []identity.Segment) string {
	var sb strings.Builder
	for i, p := range path {
		if i > 0 {
			sb.WriteByte('.')
		}
		fmt.Fprintf(&sb, "%s`%d", p.Name, p.Arity)
	}
	return sb.String()
}

func (s *scope) isHidden() bool {
	for p := s; p != nil; p = p.parent {
		if p.hidden || p.skipped {
			return true
		}
	}
	return false
}

func (b *builder) context(s *scope) *cstype.Context {
	usings := append([]string(nil), s.file.usings...)
	if !b.opts.NoImplicitUsings {
		usings = append(usings, cstype.ImplicitUsings...)
	}
	return &cstype.Context{
		Index:      b.index,
		Namespace:  s.syntax.namespace,
		Enclosing:  s.path,
		TypeParams: s.params,
		Usings:     usings,
		Aliases:    s.file.aliases,
		Strict:     b.opts.Strict,
	}
}

// fill resolves the members of s into its declaration
func (b *builder) fill(s *scope) error {
	t, syn := s.decl, s.syntax
	ctx := b.context(s)
	where := func(m memberSyntax) string {
		return fmt.Sprintf("%s:%d", s.file.path, m.line)
	}

	kind, ok := decl.ParseTypeKind(syn.kind)
	if !ok {
		return errors.Newf(errors.InputInvalid, "%s:%d: unknown type declaration %q", s.file.path, syn.line, syn.kind)
	}
	t.Kind = kind
	t.Static = t.Static || syn.has("static")

	if kind == decl.Delegate {
		params, err := ctx.ResolveParameterList(syn.params)
		if err != nil {
			return errors.New(errors.CodeOrInternal(err), fmt.Sprintf("%s:%d: delegate %s", s.file.path, syn.line, syn.name), err)
		}
		t.Invoke = &decl.Method{Name: "Invoke", Parameters: params}
		return nil
	}

	dflt := decl.AccessPrivate
	if kind == decl.Interface || kind == decl.Enum {
		dflt = decl.AccessPublic
	}
	for _, m := range syn.members {
		access := decl.AccessOf(m.modifiers, dflt)
		visible := b.opts.Visibility.Includes(access) && !m.explicit

		switch m.form {
		case formEnumValue:
			t.Values = append(t.Values, m.names...)

		case formConstructor:
			if m.has("static") {
				// type initializers are always private
				t.StaticConstructor = t.StaticConstructor || b.opts.Visibility == decl.VisibilityAll
				continue
			}
			t.DeclaresConstructors = true
			if !visible {
				continue
			}
			params, err := b.params(ctx, m.params, where(m))
			if err != nil {
				return err
			}
			t.Constructors = append(t.Constructors, decl.Method{Parameters: params})

		case formFinalizer:
			t.Finalizer = true

		case formMethod, formOperator, formConversion:
			if !visible {
				continue
			}
			mctx := ctx.WithMethodTypeParams(m.typeParams)
			params, err := b.params(mctx, m.params, where(m))
			if err != nil {
				return err
			}
			var name string
			switch m.form {
			case formMethod:
				name = m.names[0]
			case formOperator:
				table := binaryOperators
				if len(params) == 1 {
					table = unaryOperators
				}
				if name = table[m.operator]; name == "" {
					return errors.Newf(errors.UnsupportedShape, "%s: operator %q with %d parameters", where(m), m.operator, len(params))
				}
			case formConversion:
				name = "op_Implicit"
				if m.operator == "explicit" {
					name = "op_Explicit"
				}
			}
			method := decl.Method{Name: name, TypeParams: m.typeParams, Parameters: params}
			if m.form == formConversion {
				ret, err := b.resolve(mctx, m.typeText, where(m))
				if err != nil {
					return err
				}
				method.Returns = &ret
			}
			t.Methods = append(t.Methods, method)

		case formField:
			if visible {
				for _, n := range m.names {
					t.Fields = append(t.Fields, decl.Field{Name: n})
				}
			}

		case formProperty, formIndexer:
			if !visible {
				continue
			}
			p, err := b.property(ctx, m, access, where(m))
			if err != nil {
				return err
			}
			t.Properties = append(t.Properties, p)

		case formEvent, formEventField:
			if !visible {
				continue
			}
			typ, err := b.resolve(ctx, m.typeText, where(m))
			if err != nil {
				return err
			}
			for _, n := range m.names {
				t.Events = append(t.Events, decl.Event{Name: n, Type: typ})
			}
		}
	}
	return nil
}

func (b *builder) property(ctx *cstype.Context, m memberSyntax, access decl.Access, where string) (decl.Property, error) {
	var p decl.Property
	var err error
	switch {
	case m.form == formIndexer:
		p.Name = "Item"
		list := m.params
		if strings.HasPrefix(list, "[") && strings.HasSuffix(list, "]") {
			list = "(" + list[1:len(list)-1] + ")"
		}
		if p.Parameters, err = b.params(ctx, list, where); err != nil {
			return p, err
		}
	case len(m.names) == 0 || m.names[0] == "":
		return p, errors.Newf(errors.InputInvalid, "%s: property without a name", where)
	default:
		p.Name = m.names[0]
	}
	if p.Type, err = b.resolve(ctx, m.typeText, where); err != nil {
		return p, err
	}
	if m.arrow {
		p.Get = true
		return p, nil
	}
	for _, a := range m.accessors {
		if !b.opts.Visibility.Includes(decl.AccessOf(a.modifiers, access)) {
			continue
		}
		switch a.keyword {
		case "get":
			p.Get = true
		case "set", "init":
			p.Set = true
		}
	}
	return p, nil
}

func (b *builder) params(ctx *cstype.Context, list, where string) ([]identity.TypeRef, error) {
	params, err := ctx.ResolveParameterList(list)
	if err != nil {
		return nil, errors.New(errors.CodeOrInternal(err), where, err)
	}
	return params, nil
}

func (b *builder) resolve(ctx *cstype.Context, text, where string) (identity.TypeRef, error) {
	t, err := ctx.ResolveText(text)
	if err != nil {
		return t, errors.New(errors.CodeOrInternal(err), where, err)
	}
	return t, nil
}
