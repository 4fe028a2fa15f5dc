package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"apifp/internal/surface"
)

func TestMetrics_ObserveBuild(t *testing.T) {
	m := New()
	stats := surface.Stats{Rendered: 10, Skipped: 2, Synthetic: 1, Duplicates: 3}
	m.ObserveBuild("manifest", 12, 0, stats, 6, 20*time.Millisecond)
	m.ObserveBuild("manifest", 1, 1, surface.Stats{}, 0, time.Millisecond)

	if got := testutil.ToFloat64(m.ElementsVisited.WithLabelValues("manifest")); got != 13 {
		t.Errorf("visited = %v, want 13", got)
	}
	if got := testutil.ToFloat64(m.Rendered.WithLabelValues("manifest")); got != 10 {
		t.Errorf("rendered = %v, want 10", got)
	}
	if got := testutil.ToFloat64(m.Unsupported.WithLabelValues("manifest")); got != 1 {
		t.Errorf("unsupported = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SurfaceEntries.WithLabelValues("manifest")); got != 0 {
		t.Errorf("entries gauge = %v, want the latest build's 0", got)
	}
}

func TestMetrics_Isolated(t *testing.T) {
	a, b := New(), New()
	a.ObserveBuild("scip", 5, 0, surface.Stats{Rendered: 5}, 5, time.Millisecond)
	if got := testutil.ToFloat64(b.Rendered.WithLabelValues("scip")); got != 0 {
		t.Errorf("second registry saw %v rendered elements", got)
	}
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := New()
	m.ObserveBuild("xmldoc", 4, 0, surface.Stats{Rendered: 4}, 4, time.Millisecond)

	path := filepath.Join(t.TempDir(), "apifp.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`apifp_elements_rendered_total{backend="xmldoc"} 4`, "apifp_build_seconds_bucket"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("textfile missing %q:\n%s", want, data)
		}
	}
}
