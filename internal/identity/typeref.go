package identity

import "strings"

// TypeRefKind enumerates the parameter type shapes the grammar can render
type TypeRefKind int

const (
	TypeInvalid TypeRefKind = iota
	TypeNamed
	TypeParameter       // ordinal into the containing types' parameters, renders `N
	MethodTypeParameter // ordinal into the method's parameters, renders ``N
	TypeArray
	TypePointer
	TypeByRef
)

// TypeName is one (possibly nested) type name with its generic arguments
type TypeName struct {
	Name string    `json:"name"`
	Args []TypeRef `json:"args,omitempty"`
}

// TypeRef describes the type of a parameter
type TypeRef struct {
	Kind      TypeRefKind `json:"kind"`
	Namespace []string    `json:"namespace,omitempty"`
	Names     []TypeName  `json:"names,omitempty"` // outermost to innermost
	Ordinal   int         `json:"ordinal,omitempty"`
	Elem      *TypeRef    `json:"elem,omitempty"`
	Rank      int         `json:"rank,omitempty"`
}

// Named builds a reference to a named type from its full dotted name. Generic
// arguments, if any, belong to the innermost name.
func Named(fullName string, args ...TypeRef) TypeRef {
	parts := strings.Split(fullName, ".")
	last := len(parts) - 1
	var ns []string
	if last > 0 {
		ns = parts[:last]
	}
	return TypeRef{
		Kind:      TypeNamed,
		Namespace: ns,
		Names:     []TypeName{{Name: parts[last], Args: args}},
	}
}

// NestedNamed builds a reference to a nested named type whose containers may carry generic arguments
func NestedNamed(namespace string, names ...TypeName) TypeRef {
	var ns []string
	if namespace != "" {
		ns = strings.Split(namespace, ".")
	}
	return TypeRef{Kind: TypeNamed, Namespace: ns, Names: names}
}

// TypeParam references a type parameter of the containing type(s)
func TypeParam(ordinal int) TypeRef {
	return TypeRef{Kind: TypeParameter, Ordinal: ordinal}
}

// MethodTypeParam references a type parameter of the method itself
func MethodTypeParam(ordinal int) TypeRef {
	return TypeRef{Kind: MethodTypeParameter, Ordinal: ordinal}
}

// ArrayOf wraps elem in an array of the given rank
func ArrayOf(elem TypeRef, rank int) TypeRef {
	return TypeRef{Kind: TypeArray, Elem: &elem, Rank: rank}
}

// PointerTo wraps elem in an unmanaged pointer
func PointerTo(elem TypeRef) TypeRef {
	return TypeRef{Kind: TypePointer, Elem: &elem}
}

// ByRefTo wraps elem in a managed reference (ref/out/in parameters)
func ByRefTo(elem TypeRef) TypeRef {
	return TypeRef{Kind: TypeByRef, Elem: &elem}
}

// FullName returns the dotted namespace and type names without generic arguments
func (t TypeRef) FullName() string {
	if t.Kind != TypeNamed {
		return ""
	}
	parts := make([]string, 0, len(t.Namespace)+len(t.Names))
	parts = append(parts, t.Namespace...)
	for _, n := range t.Names {
		parts = append(parts, n.Name)
	}
	return strings.Join(parts, ".")
}

// String renders the type in identifier syntax, or a placeholder if it is unsupported
func (t TypeRef) String() string {
	b, err := appendTypeRef(nil, t)
	if err != nil {
		return "<unsupported type>"
	}
	return string(b)
}
