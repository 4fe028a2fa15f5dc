package decl

import (
	"context"

	"apifp/internal/identity"
)

// Order decides whether a type is reported before or after its contents
type Order int

const (
	// TypeFirst reports the type, then its members, then nested types
	TypeFirst Order = iota
	// TypeLast reports members, then nested types, then the type itself
	TypeLast
)

var (
	systemObject        = identity.Named("System.Object")
	systemIntPtr        = identity.Named("System.IntPtr")
	systemAsyncResult   = identity.Named("System.IAsyncResult")
	systemAsyncCallback = identity.Named("System.AsyncCallback")
)

// Emit reports every type in ns and every member of each type to visit.
// The context is checked before each element.
func Emit(ctx context.Context, ns *Namespace, order Order, visit func(identity.Element) error) error {
	scope := identity.Namespace(ns.Name)
	for _, t := range ns.Types {
		if err := EmitType(ctx, scope, t, order, visit); err != nil {
			return err
		}
	}
	return nil
}

// EmitType reports t, its members and its nested types, with scope naming
// the namespace and containing types of t
func EmitType(ctx context.Context, scope []identity.Segment, t *Type, order Order, visit func(identity.Element) error) error {
	self := identity.Element{Kind: identity.KindType, Scope: scope, Name: t.Name, Arity: t.Arity()}
	emit := func(e identity.Element) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return visit(e)
	}

	if order == TypeFirst {
		if err := emit(self); err != nil {
			return err
		}
	}
	for _, m := range Members(scope, t) {
		if err := emit(m); err != nil {
			return err
		}
	}
	inner := identity.TypeScope(self)
	for _, n := range t.Nested {
		if err := EmitType(ctx, inner, n, order, visit); err != nil {
			return err
		}
	}
	if order == TypeLast {
		return emit(self)
	}
	return nil
}

// Members expands the direct members of t, including compiler-supplied
// constructors, delegate methods and accessor methods
func Members(scope []identity.Segment, t *Type) []identity.Element {
	in := identity.Nest(scope, t.Name, t.Arity())
	var out []identity.Element
	method := func(m Method) identity.Element {
		return identity.Element{
			Kind:       identity.KindMethod,
			Scope:      in,
			Name:       m.Name,
			Arity:      len(m.TypeParams),
			Parameters: m.Parameters,
			Returns:    m.Returns,
		}
	}

	if t.Kind == Delegate {
		var params []identity.TypeRef
		if t.Invoke != nil {
			params = t.Invoke.Parameters
		}
		begin := append(append([]identity.TypeRef(nil), params...), systemAsyncCallback, systemObject)
		var end []identity.TypeRef
		for _, p := range params {
			if p.Kind == identity.TypeByRef {
				end = append(end, p)
			}
		}
		end = append(end, systemAsyncResult)
		return []identity.Element{
			{Kind: identity.KindConstructor, Scope: in, Parameters: []identity.TypeRef{systemObject, systemIntPtr}},
			method(Method{Name: "Invoke", Parameters: params}),
			method(Method{Name: "BeginInvoke", Parameters: begin}),
			method(Method{Name: "EndInvoke", Parameters: end}),
		}
	}

	if t.HasImplicitConstructor() {
		out = append(out, identity.Element{Kind: identity.KindConstructor, Scope: in})
	}
	for _, c := range t.Constructors {
		out = append(out, identity.Element{Kind: identity.KindConstructor, Scope: in, Parameters: c.Parameters})
	}
	if t.StaticConstructor {
		out = append(out, identity.Element{Kind: identity.KindConstructor, Scope: in, Static: true})
	}
	if t.Finalizer {
		out = append(out, method(Method{Name: "Finalize"}))
	}
	for _, m := range t.Methods {
		out = append(out, method(m))
	}
	for _, v := range t.Values {
		out = append(out, identity.Element{Kind: identity.KindField, Scope: in, Name: v})
	}
	for _, f := range t.Fields {
		out = append(out, identity.Element{Kind: identity.KindField, Scope: in, Name: f.Name})
	}
	for _, p := range t.Properties {
		prop := identity.Element{Kind: identity.KindProperty, Scope: in, Name: p.Name, Parameters: p.Parameters}
		out = append(out, prop)
		var roles []identity.AccessorRole
		if p.Get {
			roles = append(roles, identity.AccessorGetter)
		}
		if p.Set {
			roles = append(roles, identity.AccessorSetter)
		}
		out = append(out, identity.AccessorMethods(prop, p.Type, roles...)...)
	}
	for _, e := range t.Events {
		ev := identity.Element{Kind: identity.KindEvent, Scope: in, Name: e.Name}
		out = append(out, ev)
		out = append(out, identity.AccessorMethods(ev, e.Type, identity.AccessorAdder, identity.AccessorRemover)...)
	}
	return out
}
