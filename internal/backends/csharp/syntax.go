// Package csharp extracts API surfaces from C# source with tree-sitter.
package csharp

// sourceFile is the declaration skeleton of one C# file. Types and members
// keep their type and parameter syntax as source text for later resolution.
type sourceFile struct {
	path    string
	usings  []string
	aliases map[string]string
	types   []*typeSyntax
}

type typeSyntax struct {
	namespace  string
	kind       string // class, struct, interface, enum, delegate, record, record struct
	name       string
	typeParams []string
	modifiers  []string
	params     string // delegate parameter list
	members    []memberSyntax
	nested     []*typeSyntax
	line       int
}

type memberForm int

const (
	formConstructor memberForm = iota + 1
	formMethod
	formField
	formProperty
	formIndexer
	formEvent      // event with accessor list
	formEventField // field-like event
	formOperator
	formConversion
	formFinalizer
	formEnumValue
)

type memberSyntax struct {
	form       memberForm
	names      []string // fields and field-like events may declare several
	modifiers  []string
	typeParams []string
	typeText   string // property, indexer, event and conversion target type
	params     string // "(...)" or "[...]"
	operator   string // operator token, or "implicit"/"explicit" for conversions
	accessors  []accessorSyntax
	arrow      bool // expression-bodied property or indexer
	explicit   bool // explicit interface implementation
	line       int
}

type accessorSyntax struct {
	keyword   string
	modifiers []string
}

func (m memberSyntax) has(mod string) bool {
	return contains(m.modifiers, mod)
}

func (t *typeSyntax) has(mod string) bool {
	return contains(t.modifiers, mod)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
