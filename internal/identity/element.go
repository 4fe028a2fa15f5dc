package identity

import "strings"

// Kind is the closed set of API element kinds that carry an identifier
type Kind int

const (
	KindUnknown Kind = iota
	KindType
	KindConstructor
	KindMethod
	KindField
	KindProperty
	KindEvent
)

var kindNames = map[Kind]string{
	KindType:        "type",
	KindConstructor: "constructor",
	KindMethod:      "method",
	KindField:       "field",
	KindProperty:    "property",
	KindEvent:       "event",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// MarshalText writes the kind name
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Prefix returns the identifier prefix letter for the kind, or 0 when the kind is invalid
func (k Kind) Prefix() byte {
	switch k {
	case KindType:
		return 'T'
	case KindConstructor, KindMethod:
		return 'M'
	case KindField:
		return 'F'
	case KindProperty:
		return 'P'
	case KindEvent:
		return 'E'
	default:
		return 0
	}
}

// ParseKind converts a kind name (as used in manifests and logs) back to a Kind
func ParseKind(s string) (Kind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return KindUnknown, false
}

// Segment is one enclosing namespace or type name. Namespaces always have Arity 0.
type Segment struct {
	Name  string `json:"name"`
	Arity int    `json:"arity,omitempty"`
}

// AccessorRole identifies which accessor of a property or event a method implements
type AccessorRole int

const (
	AccessorNone AccessorRole = iota
	AccessorGetter
	AccessorSetter
	AccessorAdder
	AccessorRemover
)

// Prefix returns the method-name prefix compilers use for the accessor role
func (r AccessorRole) Prefix() string {
	switch r {
	case AccessorGetter:
		return "get_"
	case AccessorSetter:
		return "set_"
	case AccessorAdder:
		return "add_"
	case AccessorRemover:
		return "remove_"
	default:
		return ""
	}
}

func (r AccessorRole) String() string {
	switch r {
	case AccessorGetter:
		return "getter"
	case AccessorSetter:
		return "setter"
	case AccessorAdder:
		return "adder"
	case AccessorRemover:
		return "remover"
	default:
		return "none"
	}
}

// Accessor back-references the property or event a method belongs to
type Accessor struct {
	Role AccessorRole `json:"role"`
	Of   string       `json:"of"`
}

// Element is the shape of one API element as reported by a backend.
// It is transient: the grammar renders it and never retains it.
type Element struct {
	Kind       Kind      `json:"kind"`
	Scope      []Segment `json:"scope,omitempty"`
	Name       string    `json:"name,omitempty"`
	Arity      int       `json:"arity,omitempty"`
	Parameters []TypeRef `json:"parameters,omitempty"`
	Accessor   *Accessor `json:"accessor,omitempty"`
	Static     bool      `json:"static,omitempty"` // constructors only: type initializer
	// Returns is the target type of a conversion operator, rendered as ~T.
	// Every other element ignores it.
	Returns *TypeRef `json:"returns,omitempty"`
}

// IsConversion reports whether e names a user-defined conversion operator
func (e Element) IsConversion() bool {
	return e.Kind == KindMethod && e.Accessor == nil && IsConversionName(e.Name)
}

// IsConversionName reports whether a method name is op_Implicit or op_Explicit
func IsConversionName(name string) bool {
	return name == "op_Implicit" || name == "op_Explicit"
}

// String renders the element identifier, or a placeholder for elements without one
func (e Element) String() string {
	id, ok, err := Render(e)
	switch {
	case err != nil:
		return "<unsupported " + e.Kind.String() + ">"
	case !ok:
		return "<no identifier>"
	default:
		return id
	}
}

// Namespace splits a dotted namespace into scope segments. The empty string yields no segments.
func Namespace(ns string) []Segment {
	if ns == "" {
		return nil
	}
	parts := strings.Split(ns, ".")
	segs := make([]Segment, 0, len(parts))
	for _, p := range parts {
		segs = append(segs, Segment{Name: p})
	}
	return segs
}

// Nest returns a new scope with one more segment appended. The input slice is not modified.
func Nest(scope []Segment, name string, arity int) []Segment {
	out := make([]Segment, len(scope), len(scope)+1)
	copy(out, scope)
	return append(out, Segment{Name: name, Arity: arity})
}

// TypeScope returns the scope that members of the given type element live in
func TypeScope(typ Element) []Segment {
	return Nest(typ.Scope, typ.Name, typ.Arity)
}

// TotalArity sums the arity of every type segment in a scope. In CLI metadata a
// nested type inherits its containers' type parameters, so this is the ordinal
// base for the innermost type's own parameters.
func TotalArity(scope []Segment) int {
	n := 0
	for _, s := range scope {
		n += s.Arity
	}
	return n
}
