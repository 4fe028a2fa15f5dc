//go:build cgo

package csharp

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"apifp/internal/identity"
)

const widgetSource = `using System;
using System.Collections.Generic;
using Gen = System.Collections.Generic;

namespace Contoso.Widgets
{
    public class Widget
    {
        public Widget(string name) { }
        static Widget() { }

        public int Count, Limit;
        public string Name { get; private set; }
        public int this[int index] { get => 0; set { } }
        public event EventHandler Changed;

        public T Find<T>(Dictionary<string, List<T>> map, out T[] rest) where T : class
        {
            rest = null;
            return null;
        }

        public static Widget operator +(Widget a, Widget b) => a;
        public static explicit operator int(Widget w) => 0;
        public static explicit operator long(Widget w) => 0;

        private void Hidden() { }

        public enum Mode { A, B }
    }

    public delegate void WidgetHandler(object sender, ref int code);
}
`

const registrySource = `namespace Contoso.Internal;

public static class Registry
{
    public static void Register(Contoso.Widgets.Widget w) { }
    internal static int Count => 0;
}
`

const genericSource = `namespace N;

public class C<T>
{
    public class D<K>
    {
        public void Put(T t, K k) { }
    }

    public interface IView<in TElement> { }
}
`

func TestParse_GenericTypes(t *testing.T) {
	f, _, err := newParser().parse(context.Background(), "Generic.cs", []byte(genericSource))
	if err != nil {
		t.Fatalf("parse() error = %v", err)
	}
	if len(f.types) != 1 {
		t.Fatalf("got %d top-level types, want 1", len(f.types))
	}
	c := f.types[0]
	if diff := cmp.Diff([]string{"T"}, c.typeParams); diff != "" {
		t.Errorf("C type parameters mismatch (-want +got):\n%s", diff)
	}
	if len(c.nested) != 2 {
		t.Fatalf("got %d nested types, want 2", len(c.nested))
	}
	if diff := cmp.Diff([]string{"K"}, c.nested[0].typeParams); diff != "" {
		t.Errorf("D type parameters mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"TElement"}, c.nested[1].typeParams); diff != "" {
		t.Errorf("IView type parameters mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Skeleton(t *testing.T) {
	f, broken, err := newParser().parse(context.Background(), "Widget.cs", []byte(widgetSource))
	if err != nil {
		t.Fatalf("parse() error = %v", err)
	}
	if broken {
		t.Errorf("parse() reported syntax errors")
	}
	if diff := cmp.Diff([]string{"System", "System.Collections.Generic"}, f.usings); diff != "" {
		t.Errorf("usings mismatch (-want +got):\n%s", diff)
	}
	if f.aliases["Gen"] != "System.Collections.Generic" {
		t.Errorf("aliases = %v", f.aliases)
	}
	if len(f.types) != 2 {
		t.Fatalf("got %d top-level types, want 2", len(f.types))
	}
	w := f.types[0]
	if w.namespace != "Contoso.Widgets" || w.name != "Widget" || w.kind != "class" || !w.has("public") {
		t.Errorf("Widget = %+v", w)
	}
	if len(w.nested) != 1 || w.nested[0].kind != "enum" {
		t.Errorf("nested = %+v", w.nested)
	}
	if d := f.types[1]; d.kind != "delegate" || d.params != "(object sender, ref int code)" {
		t.Errorf("delegate = %+v", d)
	}
}

func TestBackend_WalkSource(t *testing.T) {
	dir := t.TempDir()
	for name, src := range map[string]string{"Widget.cs": widgetSource, "Internal.cs": registrySource, "Generic.cs": genericSource} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	var got []string
	err := NewBackend(Options{}).Walk(context.Background(), dir, func(e identity.Element) error {
		if id, ok, err := identity.Render(e); err != nil {
			return err
		} else if ok {
			got = append(got, id)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	want := []string{
		"T:Contoso.Widgets.Widget",
		"M:Contoso.Widgets.Widget.#ctor(System.String)",
		"F:Contoso.Widgets.Widget.Count",
		"F:Contoso.Widgets.Widget.Limit",
		"P:Contoso.Widgets.Widget.Name",
		"M:Contoso.Widgets.Widget.get_Name",
		"P:Contoso.Widgets.Widget.Item(System.Int32)",
		"M:Contoso.Widgets.Widget.get_Item(System.Int32)",
		"M:Contoso.Widgets.Widget.set_Item(System.Int32,System.Int32)",
		"E:Contoso.Widgets.Widget.Changed",
		"M:Contoso.Widgets.Widget.add_Changed(System.EventHandler)",
		"M:Contoso.Widgets.Widget.remove_Changed(System.EventHandler)",
		"M:Contoso.Widgets.Widget.Find``1(System.Collections.Generic.Dictionary{System.String,System.Collections.Generic.List{``0}},``0[]@)",
		"M:Contoso.Widgets.Widget.op_Addition(Contoso.Widgets.Widget,Contoso.Widgets.Widget)",
		"M:Contoso.Widgets.Widget.op_Explicit(Contoso.Widgets.Widget)~System.Int32",
		"M:Contoso.Widgets.Widget.op_Explicit(Contoso.Widgets.Widget)~System.Int64",
		"T:Contoso.Widgets.Widget.Mode",
		"F:Contoso.Widgets.Widget.Mode.A",
		"F:Contoso.Widgets.Widget.Mode.B",
		"T:Contoso.Widgets.WidgetHandler",
		"M:Contoso.Widgets.WidgetHandler.#ctor(System.Object,System.IntPtr)",
		"M:Contoso.Widgets.WidgetHandler.Invoke(System.Object,System.Int32@)",
		"M:Contoso.Widgets.WidgetHandler.BeginInvoke(System.Object,System.Int32@,System.AsyncCallback,System.Object)",
		"M:Contoso.Widgets.WidgetHandler.EndInvoke(System.Int32@,System.IAsyncResult)",
		"T:Contoso.Internal.Registry",
		"M:Contoso.Internal.Registry.Register(Contoso.Widgets.Widget)",
		"T:N.C`1",
		"M:N.C`1.#ctor",
		"T:N.C`1.D`1",
		"M:N.C`1.D`1.#ctor",
		"M:N.C`1.D`1.Put(`0,`1)",
		"T:N.C`1.IView`1",
	}
	sort.Strings(got)
	sort.Strings(want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}
