// Package decl models declared API types and expands them into the
// elements that carry documentation identifiers.
package decl

import (
	"strings"

	"apifp/internal/identity"
)

// TypeKind is the declaration form of a type
type TypeKind int

const (
	Class TypeKind = iota + 1
	Struct
	Interface
	Enum
	Delegate
)

var typeKindNames = map[TypeKind]string{
	Class:     "class",
	Struct:    "struct",
	Interface: "interface",
	Enum:      "enum",
	Delegate:  "delegate",
}

func (k TypeKind) String() string {
	if s, ok := typeKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseTypeKind parses a kind name. "static class" and "record" are accepted
// as class spellings; callers handle their modifiers.
func ParseTypeKind(s string) (TypeKind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "static class", "record", "record class":
		return Class, true
	case "record struct":
		return Struct, true
	}
	for k, name := range typeKindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Type is a declared type with its visible members
type Type struct {
	Kind       TypeKind
	Name       string
	TypeParams []string // own type parameters only
	Static     bool

	// DeclaresConstructors is set when the source declares any instance
	// constructor, visible or not, which suppresses the implicit one.
	DeclaresConstructors bool
	StaticConstructor    bool
	Finalizer            bool

	Constructors []Method
	Methods      []Method
	Fields       []Field
	Properties   []Property
	Events       []Event
	Values       []string // enum members
	Invoke       *Method  // delegate signature

	Nested []*Type
}

// Arity returns the number of type parameters the type declares itself
func (t *Type) Arity() int {
	return len(t.TypeParams)
}

// HasImplicitConstructor reports whether the compiler supplies a default constructor
func (t *Type) HasImplicitConstructor() bool {
	return t.Kind == Class && !t.Static && !t.DeclaresConstructors
}

// Method is a method, constructor or delegate signature
type Method struct {
	Name       string
	TypeParams []string
	Parameters []identity.TypeRef
	Returns    *identity.TypeRef // conversion operators only
}

// Field is a field or constant
type Field struct {
	Name string
}

// Property is a property or, with Parameters, an indexer
type Property struct {
	Name       string
	Type       identity.TypeRef
	Parameters []identity.TypeRef
	Get, Set   bool
}

// Event is an event with its handler type
type Event struct {
	Name string
	Type identity.TypeRef
}

// Namespace groups top-level types. Name is dotted and empty for the global namespace.
type Namespace struct {
	Name  string
	Types []*Type
}

// Count returns the number of types in ns, nested types included
func (ns *Namespace) Count() int {
	n := 0
	var walk func([]*Type)
	walk = func(ts []*Type) {
		for _, t := range ts {
			n++
			walk(t.Nested)
		}
	}
	walk(ns.Types)
	return n
}
