package fingerprint

import (
	"crypto/md5"
	"strings"
	"unicode/utf8"

	"github.com/zeebo/xxh3"
	"golang.org/x/crypto/blake2b"

	"apifp/internal/errors"
)

// Algorithm names a fingerprint hash. Surfaces built with different algorithms never compare equal.
type Algorithm string

const (
	XXH3    Algorithm = "xxh3-128"
	MD5     Algorithm = "md5"
	BLAKE2b Algorithm = "blake2b-128"
)

// DefaultAlgorithm is used when configuration does not name one
const DefaultAlgorithm = XXH3

// smallBufferSize bounds the identifier encoding that stays on the stack
const smallBufferSize = 256

var algorithmIDs = map[Algorithm]byte{
	XXH3:    1,
	MD5:     2,
	BLAKE2b: 3,
}

// Algorithms lists every supported algorithm
func Algorithms() []Algorithm {
	return []Algorithm{XXH3, MD5, BLAKE2b}
}

// ParseAlgorithm validates an algorithm name. The empty string selects the default.
func ParseAlgorithm(s string) (Algorithm, error) {
	if s == "" {
		return DefaultAlgorithm, nil
	}
	a := Algorithm(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := algorithmIDs[a]; !ok {
		return "", errors.Newf(errors.InputInvalid, "unknown fingerprint algorithm %q (want xxh3-128, md5 or blake2b-128)", s)
	}
	return a, nil
}

// ID returns the stable one-byte code written into binary snapshots
func (a Algorithm) ID() byte {
	return algorithmIDs[a]
}

// AlgorithmFromID is the inverse of Algorithm.ID
func AlgorithmFromID(id byte) (Algorithm, bool) {
	for a, v := range algorithmIDs {
		if v == id {
			return a, true
		}
	}
	return "", false
}

// Hasher computes fingerprints with one algorithm. The zero value uses DefaultAlgorithm
// and is safe for concurrent use.
type Hasher struct {
	alg Algorithm
}

// NewHasher returns a hasher for alg
func NewHasher(alg Algorithm) (Hasher, error) {
	a, err := ParseAlgorithm(string(alg))
	if err != nil {
		return Hasher{}, err
	}
	return Hasher{alg: a}, nil
}

// Algorithm reports the algorithm this hasher uses
func (h Hasher) Algorithm() Algorithm {
	if h.alg == "" {
		return DefaultAlgorithm
	}
	return h.alg
}

// Sum fingerprints an identifier. The identifier is encoded as UTF-8 into a
// small local buffer; longer identifiers grow onto the heap through the same
// append, so both paths hash the same bytes.
func (h Hasher) Sum(id string) Fingerprint {
	var buf [smallBufferSize]byte
	return h.SumBytes(AppendUTF8(buf[:0], id))
}

// SumBytes fingerprints an identifier that is already UTF-8 encoded
func (h Hasher) SumBytes(b []byte) Fingerprint {
	var f Fingerprint
	switch h.Algorithm() {
	case MD5:
		f = md5.Sum(b)
	case BLAKE2b:
		d, _ := blake2b.New(Size, nil) // only fails for bad sizes or keys
		// copied so b does not escape through the interface call
		d.Write(append([]byte(nil), b...))
		copy(f[:], d.Sum(nil))
	default:
		f = xxh3.Hash128(b).Bytes()
	}
	return f
}

// AppendUTF8 appends the UTF-8 encoding of s to dst. Invalid bytes each become
// U+FFFD, matching how lone surrogates encode on the original platform.
func AppendUTF8(dst []byte, s string) []byte {
	if utf8.ValidString(s) {
		return append(dst, s...)
	}
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			dst = utf8.AppendRune(dst, utf8.RuneError)
		} else {
			dst = append(dst, s[i:i+size]...)
		}
		i += size
	}
	return dst
}
