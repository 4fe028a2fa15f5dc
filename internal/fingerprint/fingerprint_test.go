package fingerprint

import (
	"crypto/md5"
	"fmt"
	"strings"
	"testing"
)

func mustHasher(t testing.TB, alg Algorithm) Hasher {
	t.Helper()
	h, err := NewHasher(alg)
	if err != nil {
		t.Fatalf("NewHasher(%s) error = %v", alg, err)
	}
	return h
}

func TestSum_KnownVectors(t *testing.T) {
	tests := []struct {
		alg  Algorithm
		id   string
		want string
	}{
		{MD5, "T:N.C", "f1a170fbc750461a061e39d776144c24"},
		{MD5, "M:N.C.#ctor", "8a6b9b860dab6fd629300dcea40892d6"},
		{BLAKE2b, "T:N.C", "bc95076da3de73dd053d924bfa6baa5b"},
		{BLAKE2b, "M:N.C.#ctor", "b64f30fbecaab5dffe13089595919c10"},
	}
	for _, tt := range tests {
		t.Run(string(tt.alg)+"/"+tt.id, func(t *testing.T) {
			got := mustHasher(t, tt.alg).Sum(tt.id).String()
			if got != tt.want {
				t.Errorf("Sum(%q) = %s, want %s", tt.id, got, tt.want)
			}
		})
	}
}

func TestSum_Deterministic(t *testing.T) {
	for _, alg := range Algorithms() {
		h := mustHasher(t, alg)
		id := "M:N.C.M(System.Collections.Generic.List{System.Int32})"
		first := h.Sum(id)
		for i := 0; i < 10; i++ {
			if got := h.Sum(id); got != first {
				t.Fatalf("%s: Sum not deterministic: %s vs %s", alg, got, first)
			}
		}
		if first.IsZero() {
			t.Errorf("%s: zero fingerprint", alg)
		}
	}
}

func TestSum_BufferBoundary(t *testing.T) {
	var ids []string
	for _, n := range []int{0, 1, 254, 255, 256, 257, 300, 4096} {
		ids = append(ids, strings.Repeat("a", n))
	}
	// multi-byte runes straddling the 256-byte boundary
	ids = append(ids,
		strings.Repeat("a", 255)+"é",
		strings.Repeat("a", 254)+"€",
		strings.Repeat("a", 255)+"€x",
		strings.Repeat("a", 253)+"😀",
		strings.Repeat("ü", 200),
	)

	for _, alg := range Algorithms() {
		h := mustHasher(t, alg)
		for _, id := range ids {
			got := h.Sum(id)
			want := h.SumBytes([]byte(id))
			if got != want {
				t.Errorf("%s: len %d: Sum = %s, SumBytes = %s", alg, len(id), got, want)
			}
		}
	}

	h := mustHasher(t, MD5)
	for _, id := range ids {
		if got, want := h.Sum(id), Fingerprint(md5.Sum([]byte(id))); got != want {
			t.Errorf("md5: len %d: Sum = %s, want %s", len(id), got, want)
		}
	}
}

func TestSum_InvalidUTF8(t *testing.T) {
	h := mustHasher(t, MD5)
	tests := []struct {
		in   string
		want string
	}{
		{"T:N.C\xff", "T:N.C\xef\xbf\xbd"},
		{"T:\xff\xfeX", "T:\xef\xbf\xbd\xef\xbf\xbdX"},
		{strings.Repeat("a", 255) + "\xff", strings.Repeat("a", 255) + "\uFFFD"},
	}
	for _, tt := range tests {
		if got, want := h.Sum(tt.in), h.SumBytes([]byte(tt.want)); got != want {
			t.Errorf("Sum(%q) = %s, want %s", tt.in, got, want)
		}
	}
}

func TestSum_NoCollisionsInCorpus(t *testing.T) {
	var corpus []string
	for i := 0; i < 2000; i++ {
		corpus = append(corpus,
			fmt.Sprintf("T:N%d.C", i),
			fmt.Sprintf("M:N.C%d.#ctor", i),
			fmt.Sprintf("M:N.C.M%d(System.Int32)", i),
			fmt.Sprintf("M:N.C.M(System.Collections.Generic.List{N.C%d})", i),
			fmt.Sprintf("P:N.C.P%d", i),
		)
	}
	for _, alg := range Algorithms() {
		h := mustHasher(t, alg)
		seen := make(map[Fingerprint]string, len(corpus))
		for _, id := range corpus {
			f := h.Sum(id)
			if prev, ok := seen[f]; ok {
				t.Fatalf("%s: collision between %q and %q", alg, prev, id)
			}
			seen[f] = id
		}
	}
}

func TestSum_DistinctAlgorithms(t *testing.T) {
	id := "T:N.C"
	a := mustHasher(t, XXH3).Sum(id)
	b := mustHasher(t, MD5).Sum(id)
	c := mustHasher(t, BLAKE2b).Sum(id)
	if a == b || b == c || a == c {
		t.Errorf("algorithms agree unexpectedly: %s %s %s", a, b, c)
	}
}

func TestSum_ShortIdentifierDoesNotAllocate(t *testing.T) {
	h := mustHasher(t, MD5)
	id := "M:N.C.M(System.Collections.Generic.List{System.Int32})"
	allocs := testing.AllocsPerRun(100, func() {
		_ = h.Sum(id)
	})
	if allocs != 0 {
		t.Errorf("Sum allocated %.0f times, want 0", allocs)
	}
}

func TestHasher_ZeroValueUsesDefault(t *testing.T) {
	var h Hasher
	if h.Algorithm() != DefaultAlgorithm {
		t.Errorf("Algorithm() = %s, want %s", h.Algorithm(), DefaultAlgorithm)
	}
	if h.Sum("T:N.C") != mustHasher(t, DefaultAlgorithm).Sum("T:N.C") {
		t.Error("zero Hasher disagrees with default hasher")
	}
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in      string
		want    Algorithm
		wantErr bool
	}{
		{"", DefaultAlgorithm, false},
		{"md5", MD5, false},
		{"XXH3-128", XXH3, false},
		{" blake2b-128 ", BLAKE2b, false},
		{"sha1", "", true},
	}
	for _, tt := range tests {
		got, err := ParseAlgorithm(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAlgorithm(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAlgorithm(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	for _, a := range Algorithms() {
		back, ok := AlgorithmFromID(a.ID())
		if !ok || back != a {
			t.Errorf("AlgorithmFromID(%d) = %q, %v", a.ID(), back, ok)
		}
	}
	if _, ok := AlgorithmFromID(0); ok {
		t.Error("AlgorithmFromID(0) should fail")
	}
}

func TestGUID(t *testing.T) {
	f := mustHasher(t, MD5).Sum("T:N.C")
	if got, want := f.GUID(), "fb70a1f1-50c7-1a46-061e-39d776144c24"; got != want {
		t.Errorf("GUID() = %s, want %s", got, want)
	}

	for _, text := range []string{f.String(), f.GUID(), "{" + f.GUID() + "}"} {
		back, err := ParseFingerprint(text)
		if err != nil {
			t.Fatalf("ParseFingerprint(%q) error = %v", text, err)
		}
		if back != f {
			t.Errorf("ParseFingerprint(%q) = %s, want %s", text, back, f)
		}
	}
}

func TestParseFingerprint_Invalid(t *testing.T) {
	for _, s := range []string{"", "abc", strings.Repeat("g", 32), "fb70a1f1x50c7-1a46-061e-39d776144c24"} {
		if _, err := ParseFingerprint(s); err == nil {
			t.Errorf("ParseFingerprint(%q) succeeded", s)
		}
	}
}

func TestFromBytes(t *testing.T) {
	f := mustHasher(t, XXH3).Sum("T:N.C")
	back, err := FromBytes(f.Serialize())
	if err != nil || back != f {
		t.Errorf("FromBytes(Serialize()) = %s, %v", back, err)
	}
	if _, err := FromBytes(make([]byte, 15)); err == nil {
		t.Error("FromBytes accepted 15 bytes")
	}
}

func BenchmarkSum(b *testing.B) {
	short := "M:N.C.M(System.Collections.Generic.List{System.Int32})"
	long := "M:N.C.M(" + strings.Repeat("System.Collections.Generic.List{System.Int32},", 10) + "System.Int32)"
	for _, alg := range Algorithms() {
		h := mustHasher(b, alg)
		for name, id := range map[string]string{"short": short, "long": long} {
			b.Run(string(alg)+"/"+name, func(b *testing.B) {
				b.ReportAllocs()
				b.SetBytes(int64(len(id)))
				for i := 0; i < b.N; i++ {
					_ = h.Sum(id)
				}
			})
		}
	}
}
