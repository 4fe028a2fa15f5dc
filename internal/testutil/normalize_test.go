package testutil

import "testing"

func TestNormalize(t *testing.T) {
	in := "saved 3f2b1c4d-0000-4a4a-9b9b-0123456789ab at 2026-10-14T09:15:00.123456789Z in 12.5ms from /tmp/x/api.yaml"
	want := "saved <id> at <time> in <dur> from $ROOT/api.yaml"
	if got := string(Normalize([]byte(in), "/tmp/x")); got != want {
		t.Errorf("Normalize() = %q, want %q", got, want)
	}
}
