//go:build cgo

package csharp

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
)

// available reports whether source parsing is compiled in
const available = true

// parser wraps a tree-sitter parser configured for C#. It is not safe for concurrent use.
type parser struct {
	parser *sitter.Parser
}

func newParser() *parser {
	p := sitter.NewParser()
	p.SetLanguage(csharp.GetLanguage())
	return &parser{parser: p}
}

// parse reduces one C# file to its declaration skeleton
func (p *parser) parse(ctx context.Context, path string, src []byte) (*sourceFile, bool, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, false, fmt.Errorf("parse error: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	w := &walker{src: src, file: &sourceFile{path: path, aliases: make(map[string]string)}}
	w.container(root, "")
	return w.file, root.HasError(), nil
}

type walker struct {
	src  []byte
	file *sourceFile
}

func (w *walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.Content(w.src))
}

func line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

func children(n *sitter.Node) []*sitter.Node {
	out := make([]*sitter.Node, 0, n.ChildCount())
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

func joinNamespace(outer, inner string) string {
	switch {
	case outer == "":
		return inner
	case inner == "":
		return outer
	default:
		return outer + "." + inner
	}
}

// container walks a compilation unit, namespace body or declaration list.
// A file-scoped namespace applies to every declaration after it.
func (w *walker) container(n *sitter.Node, ns string) {
	for _, c := range children(n) {
		switch c.Type() {
		case "using_directive":
			w.using(c)
		case "namespace_declaration":
			inner := joinNamespace(ns, stripSpace(w.text(c.ChildByFieldName("name"))))
			if body := c.ChildByFieldName("body"); body != nil {
				w.container(body, inner)
			}
		case "file_scoped_namespace_declaration":
			ns = joinNamespace(ns, stripSpace(w.text(c.ChildByFieldName("name"))))
			w.container(c, ns)
		default:
			if t := w.typeDecl(c, ns); t != nil {
				w.file.types = append(w.file.types, t)
			}
		}
	}
}

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// using records namespace imports and aliases. Static usings bring no type names into scope.
func (w *walker) using(n *sitter.Node) {
	text := strings.TrimSuffix(w.text(n), ";")
	words := strings.Fields(text)
	for len(words) > 0 && (words[0] == "global" || words[0] == "using") {
		words = words[1:]
	}
	if len(words) == 0 || words[0] == "static" {
		return
	}
	rest := strings.TrimPrefix(strings.Join(words, " "), "unsafe ")
	if alias, target, ok := strings.Cut(rest, "="); ok {
		w.file.aliases[strings.TrimSpace(alias)] = strings.TrimPrefix(stripSpace(target), "global::")
		return
	}
	w.file.usings = append(w.file.usings, strings.TrimPrefix(stripSpace(rest), "global::"))
}

var typeKinds = map[string]string{
	"class_declaration":         "class",
	"struct_declaration":        "struct",
	"interface_declaration":     "interface",
	"enum_declaration":          "enum",
	"delegate_declaration":      "delegate",
	"record_declaration":        "record",
	"record_struct_declaration": "record struct",
}

func (w *walker) typeDecl(n *sitter.Node, ns string) *typeSyntax {
	kind, ok := typeKinds[n.Type()]
	if !ok {
		return nil
	}
	t := &typeSyntax{
		namespace:  ns,
		kind:       kind,
		name:       w.text(n.ChildByFieldName("name")),
		typeParams: w.typeParams(n),
		modifiers:  w.modifiers(n),
		line:       line(n),
	}
	if kind == "record" {
		for _, c := range children(n) {
			if c.Type() == "struct" {
				t.kind = "record struct"
			}
		}
	}
	if kind == "delegate" {
		t.params = w.text(n.ChildByFieldName("parameters"))
		return t
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		return t
	}
	for _, c := range children(body) {
		if nested := w.typeDecl(c, ns); nested != nil {
			t.nested = append(t.nested, nested)
			continue
		}
		if m, ok := w.member(c); ok {
			t.members = append(t.members, m)
		}
	}
	return t
}

func (w *walker) typeParams(n *sitter.Node) []string {
	list := n.ChildByFieldName("type_parameters")
	if list == nil {
		// type declarations carry the list as an unnamed child
		for _, c := range children(n) {
			if c.Type() == "type_parameter_list" {
				list = c
				break
			}
		}
	}
	if list == nil {
		return nil
	}
	var out []string
	for _, c := range children(list) {
		if c.Type() != "type_parameter" {
			continue
		}
		name := c.ChildByFieldName("name")
		if name == nil {
			for _, cc := range children(c) {
				if cc.Type() == "identifier" {
					name = cc
				}
			}
		}
		out = append(out, w.text(name))
	}
	return out
}

var modifierTokens = map[string]bool{
	"public": true, "private": true, "protected": true, "internal": true, "static": true,
	"abstract": true, "sealed": true, "virtual": true, "override": true, "readonly": true,
	"extern": true, "unsafe": true, "partial": true, "new": true, "const": true,
	"volatile": true, "async": true, "required": true, "file": true, "ref": true,
}

// modifiers collects modifier keywords, whether the grammar wraps them in
// modifier nodes or leaves them as anonymous tokens
func (w *walker) modifiers(n *sitter.Node) []string {
	var out []string
	for _, c := range children(n) {
		switch {
		case c.Type() == "modifier":
			out = append(out, w.text(c))
		case !c.IsNamed() && modifierTokens[c.Type()]:
			out = append(out, c.Type())
		}
	}
	return out
}

func (w *walker) hasExplicitInterface(n *sitter.Node) bool {
	for _, c := range children(n) {
		if c.Type() == "explicit_interface_specifier" {
			return true
		}
	}
	return false
}

func (w *walker) member(n *sitter.Node) (memberSyntax, bool) {
	m := memberSyntax{modifiers: w.modifiers(n), line: line(n), explicit: w.hasExplicitInterface(n)}
	name := w.text(n.ChildByFieldName("name"))

	switch n.Type() {
	case "enum_member_declaration":
		m.form = formEnumValue
		m.names = []string{name}

	case "constructor_declaration":
		m.form = formConstructor
		m.params = w.text(n.ChildByFieldName("parameters"))

	case "destructor_declaration":
		m.form = formFinalizer

	case "method_declaration":
		m.form = formMethod
		m.names = []string{name}
		m.typeParams = w.typeParams(n)
		m.params = w.text(n.ChildByFieldName("parameters"))

	case "operator_declaration":
		m.form = formOperator
		m.params = w.text(n.ChildByFieldName("parameters"))
		m.operator = w.text(n.ChildByFieldName("operator"))

	case "conversion_operator_declaration":
		m.form = formConversion
		m.params = w.text(n.ChildByFieldName("parameters"))
		m.typeText = w.text(n.ChildByFieldName("type"))
		for _, c := range children(n) {
			if t := c.Type(); t == "implicit" || t == "explicit" {
				m.operator = t
			}
		}

	case "field_declaration", "event_field_declaration":
		m.form = formField
		if n.Type() == "event_field_declaration" {
			m.form = formEventField
		}
		for _, c := range children(n) {
			if c.Type() == "variable_declaration" {
				m.typeText, m.names = w.variables(c)
			}
		}

	case "property_declaration", "indexer_declaration", "event_declaration":
		m.form = formProperty
		switch n.Type() {
		case "indexer_declaration":
			m.form = formIndexer
			m.params = w.text(n.ChildByFieldName("parameters"))
		case "event_declaration":
			m.form = formEvent
		}
		m.names = []string{name}
		m.typeText = w.text(n.ChildByFieldName("type"))
		if acc := n.ChildByFieldName("accessors"); acc != nil {
			m.accessors = w.accessors(acc)
		} else if v := n.ChildByFieldName("value"); v != nil && v.Type() == "arrow_expression_clause" {
			m.arrow = true
		} else {
			for _, c := range children(n) {
				switch c.Type() {
				case "accessor_list":
					m.accessors = w.accessors(c)
				case "arrow_expression_clause":
					m.arrow = true
				}
			}
		}

	default:
		return m, false
	}
	return m, true
}

func (w *walker) variables(n *sitter.Node) (string, []string) {
	typeText := w.text(n.ChildByFieldName("type"))
	var names []string
	for _, c := range children(n) {
		if c.Type() != "variable_declarator" {
			continue
		}
		name := c.ChildByFieldName("name")
		if name == nil {
			for _, cc := range children(c) {
				if cc.Type() == "identifier" {
					name = cc
					break
				}
			}
		}
		names = append(names, w.text(name))
	}
	return typeText, names
}

func (w *walker) accessors(list *sitter.Node) []accessorSyntax {
	var out []accessorSyntax
	for _, c := range children(list) {
		if c.Type() != "accessor_declaration" {
			continue
		}
		a := accessorSyntax{modifiers: w.modifiers(c)}
		if kw := c.ChildByFieldName("name"); kw != nil {
			a.keyword = w.text(kw)
		} else {
			for _, cc := range children(c) {
				switch cc.Type() {
				case "get", "set", "init", "add", "remove":
					a.keyword = cc.Type()
				}
			}
		}
		out = append(out, a)
	}
	return out
}
