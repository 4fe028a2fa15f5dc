package backends

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	apierrors "apifp/internal/errors"
	"apifp/internal/identity"
)

// mockBackend is a test double for Backend interface
type mockBackend struct {
	id         BackendID
	available  bool
	priority   int
	extensions []string
	walked     []string
}

func newMockBackend(id BackendID, priority int, exts ...string) *mockBackend {
	return &mockBackend{id: id, available: true, priority: priority, extensions: exts}
}

func (m *mockBackend) ID() BackendID        { return m.id }
func (m *mockBackend) IsAvailable() bool    { return m.available }
func (m *mockBackend) Extensions() []string { return m.extensions }
func (m *mockBackend) Priority() int        { return m.priority }

func (m *mockBackend) Walk(ctx context.Context, path string, visit Visitor) error {
	files, err := InputFiles(ctx, m, path)
	if err != nil {
		return err
	}
	m.walked = append(m.walked, files...)
	return visit(identity.Element{Kind: identity.KindType, Name: "C"})
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRegistry_ListOrdersByPriority(t *testing.T) {
	r := NewRegistry(nil)
	r.RegisterBackend(newMockBackend(BackendCSharp, 4, ".cs"))
	r.RegisterBackend(newMockBackend(BackendManifest, 1, ".yaml"))
	r.RegisterBackend(newMockBackend(BackendSCIP, 2, ".scip"))

	var got []BackendID
	for _, b := range r.List() {
		got = append(got, b.ID())
	}
	want := []BackendID{BackendManifest, BackendSCIP, BackendCSharp}
	if len(got) != len(want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry(nil)
	off := newMockBackend(BackendCSharp, 4, ".cs")
	off.available = false
	r.RegisterBackend(off)
	r.RegisterBackend(newMockBackend(BackendManifest, 1, ".yaml"))

	if b, err := r.Get(BackendManifest); err != nil || b.ID() != BackendManifest {
		t.Errorf("Get(manifest) = %v, %v", b, err)
	}
	if _, err := r.Get(BackendCSharp); !apierrors.HasCode(err, apierrors.BackendUnavailable) {
		t.Errorf("Get(unavailable) error = %v", err)
	}
	if _, err := r.Get("nope"); !apierrors.HasCode(err, apierrors.BackendNotFound) {
		t.Errorf("Get(unknown) error = %v", err)
	}

	if got := r.GetAvailableBackends(); len(got) != 1 || got[0] != BackendManifest {
		t.Errorf("GetAvailableBackends() = %v", got)
	}

	r.UnregisterBackend(BackendManifest)
	if _, err := r.Get(BackendManifest); err == nil {
		t.Error("Get() succeeded after UnregisterBackend")
	}
}

func TestRegistry_ForPath(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "src"), "A.cs", "B.cs")
	touch(t, filepath.Join(dir, "mixed"), "A.cs", "api.yaml")
	touch(t, filepath.Join(dir, "none"), "README.md")

	r := NewRegistry(nil)
	r.RegisterBackend(newMockBackend(BackendManifest, 1, ".yaml", ".yml"))
	r.RegisterBackend(newMockBackend(BackendCSharp, 4, ".cs"))

	tests := []struct {
		path string
		want BackendID
	}{
		{filepath.Join(dir, "src"), BackendCSharp},
		{filepath.Join(dir, "src", "A.cs"), BackendCSharp},
		{filepath.Join(dir, "mixed"), BackendManifest},
		{filepath.Join(dir, "mixed", "API.YAML"), BackendManifest},
	}
	touch(t, filepath.Join(dir, "mixed"), "API.YAML")
	for _, tt := range tests {
		b, err := r.ForPath(tt.path)
		if err != nil {
			t.Errorf("ForPath(%s) error = %v", tt.path, err)
			continue
		}
		if b.ID() != tt.want {
			t.Errorf("ForPath(%s) = %s, want %s", tt.path, b.ID(), tt.want)
		}
	}

	if _, err := r.ForPath(filepath.Join(dir, "none")); !apierrors.HasCode(err, apierrors.BackendNotFound) {
		t.Errorf("ForPath(no inputs) error = %v", err)
	}
	if _, err := r.ForPath(filepath.Join(dir, "missing")); !apierrors.HasCode(err, apierrors.InputInvalid) {
		t.Errorf("ForPath(missing) error = %v", err)
	}
}

func TestInputFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b/Z.cs", "a/Y.cs", "X.cs", "obj/Gen.cs", ".hidden/H.cs", "notes.txt")
	b := newMockBackend(BackendCSharp, 4, ".cs")

	got, err := InputFiles(context.Background(), b, dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "X.cs"),
		filepath.Join(dir, "a", "Y.cs"),
		filepath.Join(dir, "b", "Z.cs"),
	}
	if len(got) != len(want) {
		t.Fatalf("InputFiles() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("InputFiles()[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	if _, err := InputFiles(context.Background(), b, filepath.Join(dir, "notes.txt")); err == nil {
		t.Error("InputFiles accepted an unclaimed file")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := InputFiles(ctx, b, dir); err != context.Canceled {
		t.Errorf("cancelled InputFiles error = %v", err)
	}
}
