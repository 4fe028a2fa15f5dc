package manifest

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	apierrors "apifp/internal/errors"
	"apifp/internal/identity"
)

var widgetIDs = []string{
	"E:Contoso.Widgets.Widget.Changed",
	"F:Contoso.Widgets.Color.Red",
	"F:Contoso.Widgets.Widget.Node`1.Value",
	"M:Contoso.Widgets.Handler.#ctor(System.Object,System.IntPtr)",
	"M:Contoso.Widgets.Handler.BeginInvoke(System.Int32@,System.AsyncCallback,System.Object)",
	"M:Contoso.Widgets.Handler.EndInvoke(System.Int32@,System.IAsyncResult)",
	"M:Contoso.Widgets.Handler.Invoke(System.Int32@)",
	"M:Contoso.Widgets.Widget.#ctor",
	"M:Contoso.Widgets.Widget.Map``1(System.Collections.Generic.List{``0})",
	"M:Contoso.Widgets.Widget.Node`1.#ctor",
	"M:Contoso.Widgets.Widget.op_Explicit(Contoso.Widgets.Widget)~System.Int32",
	"M:Contoso.Widgets.Widget.op_Explicit(Contoso.Widgets.Widget)~System.Int64",
	"M:Contoso.Widgets.Widget.Run(System.Int32,System.String[])",
	"M:Contoso.Widgets.Widget.add_Changed(System.EventHandler)",
	"M:Contoso.Widgets.Widget.get_Name",
	"M:Contoso.Widgets.Widget.remove_Changed(System.EventHandler)",
	"M:Contoso.Widgets.Widget.set_Name(System.String)",
	"P:Contoso.Widgets.Widget.Name",
	"T:Contoso.Widgets.Color",
	"T:Contoso.Widgets.Handler",
	"T:Contoso.Widgets.Widget",
	"T:Contoso.Widgets.Widget.Node`1",
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func fixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func walkIDs(t *testing.T, path string) ([]string, error) {
	t.Helper()
	var ids []string
	err := New(nil).Walk(context.Background(), path, func(e identity.Element) error {
		id, ok, err := identity.Render(e)
		if ok {
			ids = append(ids, id)
		}
		return err
	})
	sort.Strings(ids)
	return ids, err
}

func TestBackend_Walk(t *testing.T) {
	for _, name := range []string{"widgets.yaml", "widgets.json", "widgets.toml"} {
		t.Run(name, func(t *testing.T) {
			got, err := walkIDs(t, filepath.Join("testdata", name))
			if err != nil {
				t.Fatalf("Walk() error = %v", err)
			}
			if diff := cmp.Diff(widgetIDs, got); diff != "" {
				t.Errorf("surface mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBackend_WalkTypeFirst(t *testing.T) {
	path := filepath.Join("testdata", "widgets.yaml")
	var first string
	err := New(nil).Walk(context.Background(), path, func(e identity.Element) error {
		if first == "" {
			first, _, _ = identity.Render(e)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if first != "T:Contoso.Widgets.Widget" {
		t.Errorf("first element = %q", first)
	}
}

func TestBackend_WalkDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", fixture(t, "widgets.yaml"))
	writeFile(t, dir, "b.json", `{"namespaces": [{"name": "Other", "types": [{"name": "S", "kind": "static class"}]}]}`)
	writeFile(t, dir, "notes.txt", "ignored")

	got, err := walkIDs(t, dir)
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if len(got) != len(widgetIDs)+1 {
		t.Errorf("got %d identifiers, want %d", len(got), len(widgetIDs)+1)
	}
	found := false
	for _, id := range got {
		found = found || id == "T:Other.S"
	}
	if !found {
		t.Error("T:Other.S missing")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		doc  string
	}{
		{"unknown yaml key", ".yaml", "version: 1\nnamespaces:\n  - name: N\n    classes: []\n"},
		{"unknown json key", ".json", `{"namespaces": [], "extra": true}`},
		{"unknown toml key", ".toml", "version = 1\nauthor = \"x\"\n"},
		{"future version", ".yaml", "version: 2\n"},
		{"malformed yaml", ".yaml", "namespaces: [\n"},
		{"unsupported extension", ".ini", "version=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc), tt.ext); err == nil {
				t.Error("Parse() succeeded")
			}
		})
	}
}

func TestDeclarations_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad parameter type", "namespaces:\n  - name: N\n    types:\n      - name: C\n        methods:\n          - name: M\n            parameters: [\"List{\"]\n"},
		{"unknown kind", "namespaces:\n  - name: N\n    types:\n      - name: C\n        kind: union\n"},
		{"parameters on a class", "namespaces:\n  - name: N\n    types:\n      - name: C\n        parameters: [System.Int32]\n"},
		{"unnamed type", "namespaces:\n  - name: N\n    types:\n      - kind: struct\n"},
		{"unnamed method", "namespaces:\n  - name: N\n    types:\n      - name: C\n        methods:\n          - parameters: []\n"},
		{"conversion without return type", "namespaces:\n  - name: N\n    types:\n      - name: C\n        methods:\n          - name: op_Implicit\n            parameters: [N.C]\n"},
		{"return type on a method", "namespaces:\n  - name: N\n    types:\n      - name: C\n        methods:\n          - name: M\n            returns: System.Int32\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "api.yaml", tt.doc)
			_, err := walkIDs(t, path)
			if !apierrors.HasCode(err, apierrors.InputInvalid) {
				t.Errorf("Walk() error = %v, want INPUT_INVALID", err)
			}
		})
	}
}

func TestBackend_WalkCanceled(t *testing.T) {
	path := filepath.Join("testdata", "widgets.yaml")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := New(nil).Walk(ctx, path, func(identity.Element) error { return nil }); err == nil {
		t.Error("Walk() on a canceled context succeeded")
	}
}
