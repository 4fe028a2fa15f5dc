package csharp

import (
	"context"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"apifp/internal/decl"
	apierrors "apifp/internal/errors"
	"apifp/internal/identity"
)

func widgetFiles() []*sourceFile {
	return []*sourceFile{
		{
			path:    "Widget.cs",
			usings:  []string{"System.Collections.Generic"},
			aliases: map[string]string{"Gen": "System.Collections.Generic"},
			types: []*typeSyntax{
				{
					namespace: "Contoso",
					kind:      "class",
					name:      "Widget",
					modifiers: []string{"public", "partial"},
					members: []memberSyntax{
						{form: formConstructor, modifiers: []string{"public"}, params: "(string name)"},
						{form: formConstructor, modifiers: []string{"static"}, params: "()"},
						{form: formFinalizer},
						{form: formMethod, names: []string{"Add"}, modifiers: []string{"public"}, typeParams: []string{"T"},
							params: "(List<T> items, ref int count)"},
						{form: formMethod, names: []string{"Hidden"}, params: "()"},
						{form: formMethod, names: []string{"Dispose"}, params: "()", explicit: true},
						{form: formField, names: []string{"Count", "Limit"}, modifiers: []string{"public"}, typeText: "int"},
						{form: formProperty, names: []string{"Name"}, modifiers: []string{"public"}, typeText: "string",
							accessors: []accessorSyntax{{keyword: "get"}, {keyword: "set", modifiers: []string{"private"}}}},
						{form: formProperty, names: []string{"Size"}, modifiers: []string{"protected"}, typeText: "Gen.List<int>", arrow: true},
						{form: formIndexer, modifiers: []string{"public"}, typeText: "int", params: "[int index]",
							accessors: []accessorSyntax{{keyword: "get"}, {keyword: "init"}}},
						{form: formEventField, names: []string{"Changed"}, modifiers: []string{"public"}, typeText: "EventHandler"},
						{form: formOperator, modifiers: []string{"public", "static"}, operator: "+", params: "(Widget a, Widget b)"},
						{form: formOperator, modifiers: []string{"public", "static"}, operator: "-", params: "(Widget a)"},
						{form: formConversion, modifiers: []string{"public", "static"}, operator: "explicit", typeText: "int", params: "(Widget w)"},
						{form: formConversion, modifiers: []string{"public", "static"}, operator: "explicit", typeText: "long", params: "(Widget w)"},
						{form: formConversion, modifiers: []string{"public", "static"}, operator: "implicit", typeText: "Widget", params: "(string s)"},
					},
					nested: []*typeSyntax{
						{namespace: "Contoso", kind: "class", name: "Inner",
							members: []memberSyntax{{form: formMethod, names: []string{"Run"}, modifiers: []string{"public"}, params: "()"}}},
						{namespace: "Contoso", kind: "enum", name: "Mode", modifiers: []string{"public"},
							members: []memberSyntax{{form: formEnumValue, names: []string{"A"}}, {form: formEnumValue, names: []string{"B"}}}},
					},
				},
				{namespace: "Contoso", kind: "record", name: "Pair", modifiers: []string{"public"}},
				{namespace: "Contoso", kind: "class", name: "Secret"},
			},
		},
		{
			path: "Widget.Extra.cs",
			types: []*typeSyntax{
				{
					namespace: "Contoso",
					kind:      "class",
					name:      "Widget",
					modifiers: []string{"partial"},
					members: []memberSyntax{
						{form: formMethod, names: []string{"Extra"}, modifiers: []string{"public"}, params: "(Mode mode, Pair p)"},
					},
				},
				{namespace: "Contoso.Api", kind: "interface", name: "IShape", modifiers: []string{"public"}, typeParams: []string{"T"},
					members: []memberSyntax{
						{form: formMethod, names: []string{"Area"}, params: "(T scale)"},
						{form: formProperty, names: []string{"Sides"}, typeText: "int", accessors: []accessorSyntax{{keyword: "get"}}},
						{form: formEvent, names: []string{"Moved"}, typeText: "Action<T>",
							accessors: []accessorSyntax{{keyword: "add"}, {keyword: "remove"}}},
					}},
				{namespace: "Contoso.Api", kind: "delegate", name: "Handler", modifiers: []string{"public"}, params: "(object sender, out int code)"},
				{namespace: "Contoso.Api", kind: "struct", name: "Point", modifiers: []string{"public"},
					members: []memberSyntax{{form: formField, names: []string{"X"}, modifiers: []string{"public"}, typeText: "int"}}},
			},
		},
	}
}

var widgetIDs = []string{
	"M:Contoso.Widget.#ctor(System.String)",
	"M:Contoso.Widget.Finalize",
	"M:Contoso.Widget.Add``1(System.Collections.Generic.List{``0},System.Int32@)",
	"F:Contoso.Widget.Count",
	"F:Contoso.Widget.Limit",
	"P:Contoso.Widget.Name",
	"M:Contoso.Widget.get_Name",
	"P:Contoso.Widget.Size",
	"M:Contoso.Widget.get_Size",
	"P:Contoso.Widget.Item(System.Int32)",
	"M:Contoso.Widget.get_Item(System.Int32)",
	"M:Contoso.Widget.set_Item(System.Int32,System.Int32)",
	"E:Contoso.Widget.Changed",
	"M:Contoso.Widget.add_Changed(System.EventHandler)",
	"M:Contoso.Widget.remove_Changed(System.EventHandler)",
	"M:Contoso.Widget.op_Addition(Contoso.Widget,Contoso.Widget)",
	"M:Contoso.Widget.op_UnaryNegation(Contoso.Widget)",
	"M:Contoso.Widget.op_Explicit(Contoso.Widget)~System.Int32",
	"M:Contoso.Widget.op_Explicit(Contoso.Widget)~System.Int64",
	"M:Contoso.Widget.op_Implicit(System.String)~Contoso.Widget",
	"M:Contoso.Widget.Extra(Contoso.Widget.Mode,Contoso.Pair)",
	"F:Contoso.Widget.Mode.A",
	"F:Contoso.Widget.Mode.B",
	"T:Contoso.Widget.Mode",
	"T:Contoso.Widget",
	"M:Contoso.Api.IShape`1.Area(`0)",
	"P:Contoso.Api.IShape`1.Sides",
	"M:Contoso.Api.IShape`1.get_Sides",
	"E:Contoso.Api.IShape`1.Moved",
	"M:Contoso.Api.IShape`1.add_Moved(System.Action{`0})",
	"M:Contoso.Api.IShape`1.remove_Moved(System.Action{`0})",
	"T:Contoso.Api.IShape`1",
	"M:Contoso.Api.Handler.#ctor(System.Object,System.IntPtr)",
	"M:Contoso.Api.Handler.Invoke(System.Object,System.Int32@)",
	"M:Contoso.Api.Handler.BeginInvoke(System.Object,System.Int32@,System.AsyncCallback,System.Object)",
	"M:Contoso.Api.Handler.EndInvoke(System.Int32@,System.IAsyncResult)",
	"T:Contoso.Api.Handler",
	"F:Contoso.Api.Point.X",
	"T:Contoso.Api.Point",
}

func emitIDs(t *testing.T, namespaces []*decl.Namespace) []string {
	t.Helper()
	var ids []string
	for _, ns := range namespaces {
		err := decl.Emit(context.Background(), ns, decl.TypeLast, func(e identity.Element) error {
			id, ok, err := identity.Render(e)
			if err != nil {
				return err
			}
			if ok {
				ids = append(ids, id)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Emit() error = %v", err)
		}
	}
	return ids
}

func TestDeclarations(t *testing.T) {
	namespaces, err := declarations(widgetFiles(), Options{})
	if err != nil {
		t.Fatalf("declarations() error = %v", err)
	}
	got := emitIDs(t, namespaces)
	want := append([]string(nil), widgetIDs...)
	sort.Strings(got)
	sort.Strings(want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestDeclarations_MergesPartialTypes(t *testing.T) {
	namespaces, err := declarations(widgetFiles(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	var widgets int
	for _, ns := range namespaces {
		for _, ty := range ns.Types {
			if ty.Name == "Widget" {
				widgets++
			}
		}
	}
	if widgets != 1 {
		t.Errorf("Widget declared %d times, want 1", widgets)
	}
}

func TestDeclarations_VisibilityAll(t *testing.T) {
	namespaces, err := declarations(widgetFiles(), Options{Visibility: decl.VisibilityAll})
	if err != nil {
		t.Fatal(err)
	}
	got := make(map[string]bool)
	for _, id := range emitIDs(t, namespaces) {
		got[id] = true
	}
	for _, id := range []string{
		"M:Contoso.Widget.#cctor",
		"M:Contoso.Widget.Hidden",
		"M:Contoso.Widget.set_Name(System.String)",
		"T:Contoso.Widget.Inner",
		"M:Contoso.Widget.Inner.#ctor",
		"M:Contoso.Widget.Inner.Run",
		"T:Contoso.Secret",
		"M:Contoso.Secret.#ctor",
	} {
		if !got[id] {
			t.Errorf("missing %s", id)
		}
	}
	for _, id := range []string{"T:Contoso.Pair", "M:Contoso.Widget.Dispose"} {
		if got[id] {
			t.Errorf("unexpected %s", id)
		}
	}
}

func TestDeclarations_Strict(t *testing.T) {
	files := []*sourceFile{{
		path: "Bad.cs",
		types: []*typeSyntax{{namespace: "N", kind: "class", name: "C", modifiers: []string{"public"},
			members: []memberSyntax{{form: formMethod, names: []string{"M"}, modifiers: []string{"public"}, params: "(Missing m)", line: 7}}}},
	}}
	_, err := declarations(files, Options{Strict: true})
	if !apierrors.HasCode(err, apierrors.UnresolvedType) {
		t.Errorf("error = %v, want UNRESOLVED_TYPE", err)
	}

	namespaces, err := declarations(files, Options{})
	if err != nil {
		t.Fatalf("lenient declarations() error = %v", err)
	}
	if diff := cmp.Diff([]string{"M:N.C.#ctor", "M:N.C.M(N.Missing)", "T:N.C"}, emitIDs(t, namespaces)); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestDeclarations_UnknownOperator(t *testing.T) {
	files := []*sourceFile{{
		path: "Op.cs",
		types: []*typeSyntax{{namespace: "N", kind: "struct", name: "S", modifiers: []string{"public"},
			members: []memberSyntax{{form: formOperator, modifiers: []string{"public", "static"}, operator: "!", params: "(S a, S b)"}}}},
	}}
	if _, err := declarations(files, Options{}); !apierrors.HasCode(err, apierrors.UnsupportedShape) {
		t.Errorf("error = %v, want UNSUPPORTED_SHAPE", err)
	}
}

func TestDeclarations_UnnamedProperty(t *testing.T) {
	files := []*sourceFile{{
		path: "Prop.cs",
		types: []*typeSyntax{{namespace: "N", kind: "class", name: "C", modifiers: []string{"public"},
			members: []memberSyntax{{form: formProperty, modifiers: []string{"public"}, typeText: "int", arrow: true, line: 3}}}},
	}}
	if _, err := declarations(files, Options{}); !apierrors.HasCode(err, apierrors.InputInvalid) {
		t.Errorf("error = %v, want INPUT_INVALID", err)
	}
}

func TestBackend_Info(t *testing.T) {
	b := NewBackend(Options{})
	if b.ID() != "csharp" || b.Priority() != 4 || b.IsAvailable() != available {
		t.Errorf("unexpected backend description: %s %d %v", b.ID(), b.Priority(), b.IsAvailable())
	}
	if diff := cmp.Diff([]string{".cs"}, b.Extensions()); diff != "" {
		t.Errorf("extensions mismatch: %s", diff)
	}
}
