// Package manifest reads declarative API surface manifests written in YAML,
// JSON or TOML.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"apifp/internal/decl"
	"apifp/internal/errors"
	"apifp/internal/identity"
)

// Document is the root of a manifest file
type Document struct {
	// Version is the schema version; 0 and 1 are accepted
	Version int `yaml:"version" json:"version" toml:"version"`

	Namespaces []NamespaceDoc `yaml:"namespaces" json:"namespaces" toml:"namespace"`
}

// NamespaceDoc declares the top-level types of one namespace. An empty name is the global namespace.
type NamespaceDoc struct {
	Name  string    `yaml:"name" json:"name" toml:"name"`
	Types []TypeDoc `yaml:"types" json:"types" toml:"type"`
}

// TypeDoc declares a type. Kind is class, struct, interface, enum, delegate
// or "static class"; it defaults to class.
type TypeDoc struct {
	Name           string   `yaml:"name" json:"name" toml:"name"`
	Kind           string   `yaml:"kind,omitempty" json:"kind,omitempty" toml:"kind,omitempty"`
	Static         bool     `yaml:"static,omitempty" json:"static,omitempty" toml:"static,omitempty"`
	TypeParameters []string `yaml:"typeParameters,omitempty" json:"typeParameters,omitempty" toml:"type_parameters,omitempty"`

	// NoDefaultConstructor suppresses the implicit constructor of a class
	// whose constructors are all hidden
	NoDefaultConstructor bool `yaml:"noDefaultConstructor,omitempty" json:"noDefaultConstructor,omitempty" toml:"no_default_constructor,omitempty"`
	StaticConstructor    bool `yaml:"staticConstructor,omitempty" json:"staticConstructor,omitempty" toml:"static_constructor,omitempty"`
	Finalizer            bool `yaml:"finalizer,omitempty" json:"finalizer,omitempty" toml:"finalizer,omitempty"`

	Constructors []MethodDoc   `yaml:"constructors,omitempty" json:"constructors,omitempty" toml:"constructor,omitempty"`
	Methods      []MethodDoc   `yaml:"methods,omitempty" json:"methods,omitempty" toml:"method,omitempty"`
	Fields       []string      `yaml:"fields,omitempty" json:"fields,omitempty" toml:"fields,omitempty"`
	Properties   []PropertyDoc `yaml:"properties,omitempty" json:"properties,omitempty" toml:"property,omitempty"`
	Events       []EventDoc    `yaml:"events,omitempty" json:"events,omitempty" toml:"event,omitempty"`
	Values       []string      `yaml:"values,omitempty" json:"values,omitempty" toml:"values,omitempty"`

	// Parameters is the Invoke signature of a delegate
	Parameters []string `yaml:"parameters,omitempty" json:"parameters,omitempty" toml:"parameters,omitempty"`

	Types []TypeDoc `yaml:"types,omitempty" json:"types,omitempty" toml:"type,omitempty"`
}

// MethodDoc declares a method or constructor; parameter types use the identifier type grammar
type MethodDoc struct {
	Name           string   `yaml:"name,omitempty" json:"name,omitempty" toml:"name,omitempty"`
	TypeParameters []string `yaml:"typeParameters,omitempty" json:"typeParameters,omitempty" toml:"type_parameters,omitempty"`
	Parameters     []string `yaml:"parameters,omitempty" json:"parameters,omitempty" toml:"parameters,omitempty"`
	// Returns is the target type of op_Implicit and op_Explicit
	Returns string `yaml:"returns,omitempty" json:"returns,omitempty" toml:"returns,omitempty"`
}

// PropertyDoc declares a property, or an indexer when Parameters is set
type PropertyDoc struct {
	Name       string   `yaml:"name" json:"name" toml:"name"`
	Type       string   `yaml:"type" json:"type" toml:"type"`
	Parameters []string `yaml:"parameters,omitempty" json:"parameters,omitempty" toml:"parameters,omitempty"`
	Get        bool     `yaml:"get,omitempty" json:"get,omitempty" toml:"get,omitempty"`
	Set        bool     `yaml:"set,omitempty" json:"set,omitempty" toml:"set,omitempty"`
}

// EventDoc declares an event and its handler type
type EventDoc struct {
	Name string `yaml:"name" json:"name" toml:"name"`
	Type string `yaml:"type" json:"type" toml:"type"`
}

// ParseFile reads a manifest, choosing the decoder from the file extension
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.InputInvalid, "failed to read manifest "+path, err)
	}
	doc, err := Parse(data, strings.ToLower(filepath.Ext(path)))
	if err != nil {
		return nil, errors.New(errors.InputInvalid, "failed to parse manifest "+path, err)
	}
	return doc, nil
}

// Parse decodes a manifest; ext is ".yaml", ".yml", ".json" or ".toml".
// Unknown keys are rejected so that unrelated files fail loudly.
func Parse(data []byte, ext string) (*Document, error) {
	var doc Document
	switch ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, err
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, err
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported manifest extension %q", ext)
	}
	if doc.Version > 1 {
		return nil, fmt.Errorf("unsupported manifest version %d", doc.Version)
	}
	return &doc, nil
}

// Declarations converts the document into declaration trees
func (d *Document) Declarations() ([]*decl.Namespace, error) {
	out := make([]*decl.Namespace, 0, len(d.Namespaces))
	for _, nd := range d.Namespaces {
		ns := &decl.Namespace{Name: nd.Name}
		for i := range nd.Types {
			t, err := nd.Types[i].declaration(nd.Name)
			if err != nil {
				return nil, err
			}
			ns.Types = append(ns.Types, t)
		}
		out = append(out, ns)
	}
	return out, nil
}

func (td *TypeDoc) declaration(where string) (*decl.Type, error) {
	if td.Name == "" {
		return nil, errors.Newf(errors.InputInvalid, "type without a name in %q", where)
	}
	where = joinName(where, td.Name)

	kind := decl.Class
	if td.Kind != "" {
		k, ok := decl.ParseTypeKind(td.Kind)
		if !ok {
			return nil, errors.Newf(errors.InputInvalid, "%s: unknown type kind %q", where, td.Kind)
		}
		kind = k
	}
	t := &decl.Type{
		Kind:                 kind,
		Name:                 td.Name,
		TypeParams:           td.TypeParameters,
		Static:               td.Static || strings.EqualFold(strings.TrimSpace(td.Kind), "static class"),
		DeclaresConstructors: len(td.Constructors) > 0 || td.NoDefaultConstructor,
		StaticConstructor:    td.StaticConstructor,
		Finalizer:            td.Finalizer,
		Fields:               make([]decl.Field, 0, len(td.Fields)),
		Values:               td.Values,
	}
	for _, f := range td.Fields {
		t.Fields = append(t.Fields, decl.Field{Name: f})
	}

	var err error
	if kind == decl.Delegate {
		inv := decl.Method{Name: "Invoke"}
		if inv.Parameters, err = typeRefs(where, td.Parameters); err != nil {
			return nil, err
		}
		t.Invoke = &inv
	} else if len(td.Parameters) > 0 {
		return nil, errors.Newf(errors.InputInvalid, "%s: only delegates take parameters", where)
	}

	for _, c := range td.Constructors {
		m := decl.Method{}
		if m.Parameters, err = typeRefs(where+".#ctor", c.Parameters); err != nil {
			return nil, err
		}
		t.Constructors = append(t.Constructors, m)
	}
	for _, md := range td.Methods {
		if md.Name == "" {
			return nil, errors.Newf(errors.InputInvalid, "%s: method without a name", where)
		}
		m := decl.Method{Name: md.Name, TypeParams: md.TypeParameters}
		if m.Parameters, err = typeRefs(where+"."+md.Name, md.Parameters); err != nil {
			return nil, err
		}
		switch conv := identity.IsConversionName(md.Name); {
		case conv && md.Returns == "":
			return nil, errors.Newf(errors.InputInvalid, "%s.%s: conversion operator without a return type", where, md.Name)
		case !conv && md.Returns != "":
			return nil, errors.Newf(errors.InputInvalid, "%s.%s: only conversion operators declare a return type", where, md.Name)
		case conv:
			ret, err := typeRef(where+"."+md.Name, md.Returns)
			if err != nil {
				return nil, err
			}
			m.Returns = &ret
		}
		t.Methods = append(t.Methods, m)
	}
	for _, pd := range td.Properties {
		p := decl.Property{Name: pd.Name, Get: pd.Get, Set: pd.Set}
		if p.Type, err = typeRef(where+"."+pd.Name, pd.Type); err != nil {
			return nil, err
		}
		if p.Parameters, err = typeRefs(where+"."+pd.Name, pd.Parameters); err != nil {
			return nil, err
		}
		t.Properties = append(t.Properties, p)
	}
	for _, ed := range td.Events {
		e := decl.Event{Name: ed.Name}
		if e.Type, err = typeRef(where+"."+ed.Name, ed.Type); err != nil {
			return nil, err
		}
		t.Events = append(t.Events, e)
	}
	for i := range td.Types {
		n, err := td.Types[i].declaration(where)
		if err != nil {
			return nil, err
		}
		t.Nested = append(t.Nested, n)
	}
	return t, nil
}

func typeRef(where, s string) (identity.TypeRef, error) {
	t, err := identity.ParseTypeRef(s)
	if err != nil {
		return t, errors.New(errors.InputInvalid, where+": bad type "+fmt.Sprintf("%q", s), err)
	}
	return t, nil
}

func typeRefs(where string, in []string) ([]identity.TypeRef, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]identity.TypeRef, 0, len(in))
	for _, s := range in {
		t, err := typeRef(where, s)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func joinName(a, b string) string {
	if a == "" {
		return b
	}
	return a + "." + b
}
