package scip

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"apifp/internal/decl"
	apierrors "apifp/internal/errors"
	"apifp/internal/identity"
)

const prefix = "scip-dotnet nuget . . "

func def(symbol string, kind scippb.SymbolInformation_Kind, signature string) *scippb.SymbolInformation {
	info := &scippb.SymbolInformation{Symbol: prefix + symbol, Kind: kind}
	if signature != "" {
		info.SignatureDocumentation = &scippb.Document{Language: "C#", Text: signature}
	}
	return info
}

func widgetIndex() *scippb.Index {
	return &scippb.Index{
		Metadata: &scippb.Metadata{ToolInfo: &scippb.ToolInfo{Name: "scip-dotnet", Version: "0.2.0"}},
		Documents: []*scippb.Document{
			{
				RelativePath: "src/Widget.cs",
				Language:     "C#",
				Symbols: []*scippb.SymbolInformation{
					def("Contoso/Widgets/Widget#", scippb.SymbolInformation_Class, "public class Widget"),
					def("Contoso/Widgets/Widget#`.ctor`().", scippb.SymbolInformation_Constructor, "public Widget(string name, int size = 1)"),
					def("Contoso/Widgets/Widget#Find().[T]", scippb.SymbolInformation_TypeParameter, "T"),
					def("Contoso/Widgets/Widget#Find().", scippb.SymbolInformation_Method,
						"public T Find<T>(Dictionary<string, List<T>> map, out T[] rest) where T : class"),
					def("Contoso/Widgets/Widget#Find().(map)", scippb.SymbolInformation_Parameter, "Dictionary<string, List<T>> map"),
					def("Contoso/Widgets/Widget#Name.", scippb.SymbolInformation_Property, "public string Name { get; private set; }"),
					def("Contoso/Widgets/Widget#get_Name().", scippb.SymbolInformation_Method, "public string get_Name()"),
					def("Contoso/Widgets/Widget#Item.", scippb.SymbolInformation_Property, "public string this[int index] { get; }"),
					def("Contoso/Widgets/Widget#Changed.", scippb.SymbolInformation_Event, "public event EventHandler Changed"),
					def("Contoso/Widgets/Widget#_size.", scippb.SymbolInformation_Field, "private int _size"),
					def("Contoso/Widgets/Widget#op_Addition().", scippb.SymbolInformation_StaticMethod,
						"public static Widget operator +(Widget a, Widget b)"),
					def("Contoso/Widgets/Widget#op_LessThan().", scippb.SymbolInformation_StaticMethod,
						"public static bool operator <(Widget a, Widget b)"),
					def("Contoso/Widgets/Widget#`.cctor`().", scippb.SymbolInformation_Constructor, "static Widget()"),
					def("Contoso/Widgets/Widget#Part#", scippb.SymbolInformation_Class, "public class Part<TPart>"),
					def("Contoso/Widgets/Widget#Part#[TPart]", scippb.SymbolInformation_TypeParameter, "TPart"),
					def("Contoso/Widgets/Widget#Part#Attach().", scippb.SymbolInformation_Method, "public void Attach(Widget owner, TPart extra)"),
					def("Contoso/Widgets/Widget#Secret#", scippb.SymbolInformation_Class, "private class Secret"),
					def("Contoso/Widgets/Widget#Secret#Run().", scippb.SymbolInformation_Method, "public void Run(Unknowable x)"),
					{Symbol: "local 3", Kind: scippb.SymbolInformation_Variable},
					def("Contoso/Widgets/Widget#op_Explicit().", scippb.SymbolInformation_StaticMethod,
						"public static explicit operator int(Widget w)"),
					def("Contoso/Widgets/Widget#op_Explicit(+1).", scippb.SymbolInformation_StaticMethod,
						"public static explicit operator long(Widget w)"),
					def("Contoso/Widgets/Widget#op_Implicit().", scippb.SymbolInformation_StaticMethod,
						"public static implicit operator Widget(string name)"),
				},
			},
			{
				RelativePath: "src/Types.cs",
				Language:     "C#",
				Symbols: []*scippb.SymbolInformation{
					def("Contoso/Widgets/Color#", scippb.SymbolInformation_Enum, "public enum Color"),
					def("Contoso/Widgets/Color#Red.", scippb.SymbolInformation_EnumMember, "Red"),
					def("Contoso/Widgets/Color#value__.", scippb.SymbolInformation_Field, "public int value__"),
					def("Contoso/Widgets/Handler#", scippb.SymbolInformation_Delegate, "public delegate void Handler(Widget sender, ref int code)"),
					def("Contoso/Widgets/Handler#Invoke().", scippb.SymbolInformation_Method, "public virtual void Invoke(Widget sender, ref int code)"),
					def("Contoso/Widgets/Point#", scippb.SymbolInformation_Struct, "public struct Point"),
					def("Contoso/Widgets/Point#X.", scippb.SymbolInformation_Field, "public int X"),
					def("Contoso/Widgets/Hidden#", scippb.SymbolInformation_Class, "internal class Hidden"),
					def("Contoso/Widgets/Rec#", scippb.SymbolInformation_Class, "public record Rec(int A)"),
					def("Contoso/Widgets/Widget#", scippb.SymbolInformation_Class, "public class Widget"),
				},
			},
		},
	}
}

var widgetIDs = []string{
	"T:Contoso.Widgets.Widget",
	"M:Contoso.Widgets.Widget.#ctor(System.String,System.Int32)",
	"M:Contoso.Widgets.Widget.Find``1(System.Collections.Generic.Dictionary{System.String,System.Collections.Generic.List{``0}},``0[]@)",
	"P:Contoso.Widgets.Widget.Name",
	"M:Contoso.Widgets.Widget.get_Name",
	"P:Contoso.Widgets.Widget.Item(System.Int32)",
	"M:Contoso.Widgets.Widget.get_Item(System.Int32)",
	"E:Contoso.Widgets.Widget.Changed",
	"M:Contoso.Widgets.Widget.add_Changed(System.EventHandler)",
	"M:Contoso.Widgets.Widget.remove_Changed(System.EventHandler)",
	"M:Contoso.Widgets.Widget.op_Addition(Contoso.Widgets.Widget,Contoso.Widgets.Widget)",
	"M:Contoso.Widgets.Widget.op_LessThan(Contoso.Widgets.Widget,Contoso.Widgets.Widget)",
	"M:Contoso.Widgets.Widget.op_Explicit(Contoso.Widgets.Widget)~System.Int32",
	"M:Contoso.Widgets.Widget.op_Explicit(Contoso.Widgets.Widget)~System.Int64",
	"M:Contoso.Widgets.Widget.op_Implicit(System.String)~Contoso.Widgets.Widget",
	"T:Contoso.Widgets.Widget.Part`1",
	"M:Contoso.Widgets.Widget.Part`1.#ctor",
	"M:Contoso.Widgets.Widget.Part`1.Attach(Contoso.Widgets.Widget,`0)",
	"T:Contoso.Widgets.Color",
	"F:Contoso.Widgets.Color.Red",
	"T:Contoso.Widgets.Handler",
	"M:Contoso.Widgets.Handler.#ctor(System.Object,System.IntPtr)",
	"M:Contoso.Widgets.Handler.Invoke(Contoso.Widgets.Widget,System.Int32@)",
	"M:Contoso.Widgets.Handler.BeginInvoke(Contoso.Widgets.Widget,System.Int32@,System.AsyncCallback,System.Object)",
	"M:Contoso.Widgets.Handler.EndInvoke(System.Int32@,System.IAsyncResult)",
	"T:Contoso.Widgets.Point",
	"F:Contoso.Widgets.Point.X",
}

func writeIndex(t *testing.T, index *scippb.Index) string {
	t.Helper()
	data, err := proto.Marshal(index)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "index.scip")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func walkIDs(t *testing.T, b *Backend, path string) []string {
	t.Helper()
	var ids []string
	err := b.Walk(context.Background(), path, func(e identity.Element) error {
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
		t.Fatalf("Walk() error = %v", err)
	}
	return ids
}

func TestBackend_Walk(t *testing.T) {
	path := writeIndex(t, widgetIndex())
	got := walkIDs(t, NewBackend(Options{}), path)

	want := append([]string(nil), widgetIDs...)
	sort.Strings(got)
	sort.Strings(want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("surface mismatch (-want +got):\n%s", diff)
	}
}

func TestBackend_WalkTypeFirst(t *testing.T) {
	got := walkIDs(t, NewBackend(Options{}), writeIndex(t, widgetIndex()))
	if len(got) == 0 || got[0] != "T:Contoso.Widgets.Widget" {
		t.Fatalf("first element = %v, want the Widget type", got)
	}
}

func TestBackend_VisibilityAll(t *testing.T) {
	index := widgetIndex()
	// the hidden nested type references a name nothing declares
	index.Documents[0].Symbols[17] = def("Contoso/Widgets/Widget#Secret#Run().", scippb.SymbolInformation_Method, "public void Run(int x)")
	got := walkIDs(t, NewBackend(Options{Visibility: decl.VisibilityAll}), writeIndex(t, index))

	for _, want := range []string{
		"M:Contoso.Widgets.Widget.#cctor",
		"F:Contoso.Widgets.Widget._size",
		"M:Contoso.Widgets.Widget.set_Name(System.String)",
		"T:Contoso.Widgets.Hidden",
		"M:Contoso.Widgets.Hidden.#ctor",
		"T:Contoso.Widgets.Widget.Secret",
		"M:Contoso.Widgets.Widget.Secret.Run(System.Int32)",
	} {
		found := false
		for _, id := range got {
			found = found || id == want
		}
		if !found {
			t.Errorf("missing %s", want)
		}
	}
	for _, id := range got {
		if id == "T:Contoso.Widgets.Rec" {
			t.Error("record type was not skipped")
		}
	}
}

// bound is def with the signature names the indexer resolved to refs
func bound(symbol string, kind scippb.SymbolInformation_Kind, signature string, refs ...string) *scippb.SymbolInformation {
	info := def(symbol, kind, signature)
	for _, r := range refs {
		info.SignatureDocumentation.Occurrences = append(info.SignatureDocumentation.Occurrences, &scippb.Occurrence{Symbol: prefix + r})
	}
	return info
}

func registryIndex() *scippb.Index {
	return &scippb.Index{Documents: []*scippb.Document{{Symbols: []*scippb.SymbolInformation{
		def("Contoso/Models/Widget#", scippb.SymbolInformation_Class, "public class Widget"),
		def("Contoso/Models/Gizmo#", scippb.SymbolInformation_Class, "public class Gizmo"),
		def("Contoso/Legacy/Widget#", scippb.SymbolInformation_Class, "public class Widget"),
		def("Contoso/Internal/Registry#", scippb.SymbolInformation_Class, "public static class Registry"),
		bound("Contoso/Internal/Registry#Register().", scippb.SymbolInformation_StaticMethod,
			"public static void Register(Widget w, List<Widget> all)", "Contoso/Legacy/Widget#", "System/Collections/Generic/List#"),
		def("Contoso/Internal/Registry#Attach().", scippb.SymbolInformation_StaticMethod, "public static void Attach(Gizmo g)"),
		def("Contoso/Internal/Registry#Guess().", scippb.SymbolInformation_StaticMethod, "public static void Guess(Widget w)"),
	}}}}
}

func TestDeclarations_ResolvesAcrossNamespaces(t *testing.T) {
	got := walkIDs(t, NewBackend(Options{}), writeIndex(t, registryIndex()))
	want := map[string]bool{
		// bound by the signature occurrences
		"M:Contoso.Internal.Registry.Register(Contoso.Legacy.Widget,System.Collections.Generic.List{Contoso.Legacy.Widget})": true,
		// declared in one namespace only
		"M:Contoso.Internal.Registry.Attach(Contoso.Models.Gizmo)": true,
		// ambiguous, assumed to be in the current namespace
		"M:Contoso.Internal.Registry.Guess(Contoso.Internal.Widget)": true,
	}
	for _, id := range got {
		delete(want, id)
	}
	for id := range want {
		t.Errorf("missing %s in %v", id, got)
	}

	_, err := Declarations(FromProto(registryIndex()), Options{Strict: true})
	if !apierrors.HasCode(err, apierrors.UnresolvedType) {
		t.Errorf("strict Declarations() error = %v, want UNRESOLVED_TYPE for the ambiguous name", err)
	}
}

func TestFromProto_SignatureReferences(t *testing.T) {
	idx := FromProto(registryIndex())
	info := idx.Symbols[prefix+"Contoso/Internal/Registry#Register()."]
	want := []string{prefix + "Contoso/Legacy/Widget#", prefix + "System/Collections/Generic/List#"}
	if info == nil {
		t.Fatal("Register symbol missing")
	}
	if diff := cmp.Diff(want, info.References); diff != "" {
		t.Errorf("References mismatch (-want +got):\n%s", diff)
	}
}

func TestDeclarations_MissingSignature(t *testing.T) {
	idx := FromProto(&scippb.Index{Documents: []*scippb.Document{{Symbols: []*scippb.SymbolInformation{
		def("N/C#", scippb.SymbolInformation_Class, ""),
		def("N/C#M().", scippb.SymbolInformation_Method, ""),
	}}}})
	// with no signature the type is assumed public but its method cannot be read
	_, err := Declarations(idx, Options{Visibility: decl.VisibilityAll})
	if !apierrors.HasCode(err, apierrors.InputInvalid) {
		t.Errorf("Declarations() error = %v, want INPUT_INVALID", err)
	}
}

func TestLoadIndex_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadIndex(filepath.Join(dir, "missing.scip")); !apierrors.HasCode(err, apierrors.InputInvalid) {
		t.Errorf("missing index error = %v", err)
	}
	bad := filepath.Join(dir, "bad.scip")
	if err := os.WriteFile(bad, []byte{0xff, 0xff, 0xff}, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadIndex(bad)
	var e *apierrors.APIFPError
	if !errors.As(err, &e) || e.Code != apierrors.InputInvalid {
		t.Fatalf("corrupt index error = %v", err)
	}
	if len(e.SuggestedFixes) != 1 || e.SuggestedFixes[0].Command != "scip print --index="+bad {
		t.Errorf("SuggestedFixes = %+v", e.SuggestedFixes)
	}
}

func TestFromProto_FirstDefinitionWins(t *testing.T) {
	idx := FromProto(widgetIndex())
	if len(idx.Documents) != 2 {
		t.Fatalf("documents = %d", len(idx.Documents))
	}
	info := idx.Symbols[prefix+"Contoso/Widgets/Widget#Name."]
	if info == nil || info.Signature != "public string Name { get; private set; }" {
		t.Errorf("Name signature = %+v", info)
	}
	if idx.Metadata.ToolInfo.Name != "scip-dotnet" {
		t.Errorf("tool = %+v", idx.Metadata.ToolInfo)
	}
}
