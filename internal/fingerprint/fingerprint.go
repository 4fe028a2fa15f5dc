// Package fingerprint reduces canonical identifiers to fixed-width 128-bit values.
package fingerprint

import (
	"bytes"
	"encoding/hex"
	"strings"

	"apifp/internal/errors"
)

// Size is the width of a fingerprint in bytes
const Size = 16

// guidOrder maps GUID text positions to fingerprint bytes
var guidOrder = [Size]int{3, 2, 1, 0, 5, 4, 7, 6, 8, 9, 10, 11, 12, 13, 14, 15}

// Fingerprint is a 128-bit content hash of a canonical identifier
type Fingerprint [Size]byte

// String returns the fingerprint as 32 lowercase hex digits
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// GUID renders the bytes the way .NET's Guid(byte[]) constructor lays them out:
// the first three groups are little-endian.
func (f Fingerprint) GUID() string {
	var out [36]byte
	pos := 0
	for i, src := range guidOrder {
		if i == 4 || i == 6 || i == 8 || i == 10 {
			out[pos] = '-'
			pos++
		}
		hex.Encode(out[pos:pos+2], f[src:src+1])
		pos += 2
	}
	return string(out[:])
}

// IsZero reports whether f is the zero value
func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}

// Compare orders fingerprints bytewise
func (f Fingerprint) Compare(other Fingerprint) int {
	return bytes.Compare(f[:], other[:])
}

// Serialize returns the 16 raw bytes of the fingerprint
func (f Fingerprint) Serialize() []byte {
	out := make([]byte, Size)
	copy(out, f[:])
	return out
}

// MarshalText implements encoding.TextMarshaler using the hex form
func (f Fingerprint) MarshalText() ([]byte, error) {
	out := make([]byte, hex.EncodedLen(Size))
	hex.Encode(out, f[:])
	return out, nil
}

// UnmarshalText implements encoding.TextUnmarshaler, accepting hex or GUID text
func (f *Fingerprint) UnmarshalText(text []byte) error {
	parsed, err := ParseFingerprint(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// FromBytes copies exactly 16 raw bytes into a Fingerprint
func FromBytes(b []byte) (Fingerprint, error) {
	var f Fingerprint
	if len(b) != Size {
		return f, errors.Newf(errors.InputInvalid, "fingerprint must be %d bytes, got %d", Size, len(b))
	}
	copy(f[:], b)
	return f, nil
}

// ParseFingerprint accepts 32 hex digits or a GUID string (optionally braced)
func ParseFingerprint(s string) (Fingerprint, error) {
	var f Fingerprint
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		s = s[1 : len(s)-1]
	}

	switch len(s) {
	case 2 * Size:
		if _, err := hex.Decode(f[:], []byte(s)); err != nil {
			return f, errors.New(errors.InputInvalid, "invalid fingerprint hex", err)
		}
		return f, nil
	case 36:
		if s[8] != '-' || s[13] != '-' || s[18] != '-' || s[23] != '-' {
			return f, errors.Newf(errors.InputInvalid, "invalid GUID %q", s)
		}
		raw := s[0:8] + s[9:13] + s[14:18] + s[19:23] + s[24:]
		var b [Size]byte
		if _, err := hex.Decode(b[:], []byte(raw)); err != nil {
			return f, errors.New(errors.InputInvalid, "invalid GUID hex", err)
		}
		for i, src := range guidOrder {
			f[src] = b[i]
		}
		return f, nil
	default:
		return f, errors.Newf(errors.InputInvalid, "fingerprint %q is neither 32 hex digits nor a GUID", s)
	}
}
