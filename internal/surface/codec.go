package surface

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"apifp/internal/errors"
	"apifp/internal/fingerprint"
)

// Format selects a snapshot encoding
type Format string

const (
	FormatBinary Format = "binary"
	FormatJSONL  Format = "jsonl"
)

const (
	binaryMagic   = "APFP"
	binaryVersion = 1
	jsonlVersion  = 1
	maxIDLength   = 1 << 20
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// FormatForPath picks the encoding from a file extension
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(strings.TrimSuffix(path, ".zst"))) {
	case ".jsonl", ".ndjson":
		return FormatJSONL
	default:
		return FormatBinary
	}
}

// WriteBinary encodes s as: magic, version, algorithm id, uvarint count, then
// per entry the 16 fingerprint bytes, a uvarint length and the UTF-8 identifier.
// Entries are written in ordinal identifier order.
func WriteBinary(w io.Writer, s *Surface) error {
	bw := bufio.NewWriter(w)
	var hdr []byte
	hdr = append(hdr, binaryMagic...)
	hdr = append(hdr, binaryVersion, s.algorithm.ID())
	hdr = binary.AppendUvarint(hdr, uint64(s.Len()))
	if _, err := bw.Write(hdr); err != nil {
		return err
	}

	var rec []byte
	for _, e := range s.Entries() {
		rec = append(rec[:0], e.Fingerprint[:]...)
		rec = binary.AppendUvarint(rec, uint64(len(e.ID)))
		rec = append(rec, e.ID...)
		if _, err := bw.Write(rec); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadBinary decodes a binary snapshot and re-verifies every fingerprint
func ReadBinary(r io.Reader) (*Surface, error) {
	br := bufio.NewReader(r)
	var hdr [6]byte
	if _, err := io.ReadFull(br, hdr[:]); err != nil {
		return nil, corrupt("truncated header", err)
	}
	if string(hdr[:4]) != binaryMagic {
		return nil, corrupt("bad magic", nil)
	}
	if hdr[4] != binaryVersion {
		return nil, corrupt(fmt.Sprintf("unsupported version %d", hdr[4]), nil)
	}
	alg, ok := fingerprint.AlgorithmFromID(hdr[5])
	if !ok {
		return nil, corrupt(fmt.Sprintf("unknown algorithm id %d", hdr[5]), nil)
	}
	count, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, corrupt("truncated entry count", err)
	}

	v := newVerifier(alg)
	var id []byte
	for i := uint64(0); i < count; i++ {
		var f fingerprint.Fingerprint
		if _, err := io.ReadFull(br, f[:]); err != nil {
			return nil, corrupt(fmt.Sprintf("truncated entry %d", i), err)
		}
		n, err := binary.ReadUvarint(br)
		if err != nil || n == 0 || n > maxIDLength {
			return nil, corrupt(fmt.Sprintf("bad identifier length in entry %d", i), err)
		}
		if uint64(cap(id)) < n {
			id = make([]byte, n)
		}
		id = id[:n]
		if _, err := io.ReadFull(br, id); err != nil {
			return nil, corrupt(fmt.Sprintf("truncated identifier in entry %d", i), err)
		}
		if err := v.add(string(id), f); err != nil {
			return nil, err
		}
	}
	if _, err := br.ReadByte(); err != io.EOF {
		return nil, corrupt("trailing data after last entry", nil)
	}
	return v.surface, nil
}

type jsonlHeader struct {
	Format    string                `json:"format"`
	Version   int                   `json:"version"`
	Algorithm fingerprint.Algorithm `json:"algorithm"`
	Count     int                   `json:"count"`
}

// WriteJSONL writes a header line followed by one entry object per line
func WriteJSONL(w io.Writer, s *Surface) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(jsonlHeader{Format: "apifp", Version: jsonlVersion, Algorithm: s.algorithm, Count: s.Len()}); err != nil {
		return err
	}
	for _, e := range s.Entries() {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadJSONL decodes the JSON lines form and re-verifies every fingerprint
func ReadJSONL(r io.Reader) (*Surface, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxIDLength+1024)

	if !sc.Scan() {
		return nil, corrupt("missing header line", sc.Err())
	}
	var hdr jsonlHeader
	if err := json.Unmarshal(sc.Bytes(), &hdr); err != nil || hdr.Format != "apifp" {
		return nil, corrupt("invalid header line", err)
	}
	if hdr.Version != jsonlVersion {
		return nil, corrupt(fmt.Sprintf("unsupported version %d", hdr.Version), nil)
	}
	alg, err := fingerprint.ParseAlgorithm(string(hdr.Algorithm))
	if err != nil {
		return nil, corrupt("unknown algorithm", err)
	}

	v := newVerifier(alg)
	line := 1
	for sc.Scan() {
		line++
		if len(bytes.TrimSpace(sc.Bytes())) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, corrupt(fmt.Sprintf("line %d", line), err)
		}
		if err := v.add(e.ID, e.Fingerprint); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, corrupt("read failed", err)
	}
	if v.surface.Len() != hdr.Count {
		return nil, corrupt(fmt.Sprintf("header promises %d entries, found %d", hdr.Count, v.surface.Len()), nil)
	}
	return v.surface, nil
}

// Read detects the encoding (binary, JSON lines, either optionally zstd-framed) and decodes
func Read(r io.Reader) (*Surface, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4)
	if err != nil {
		return nil, corrupt("input too short", err)
	}
	if bytes.Equal(head, zstdMagic) {
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, corrupt("invalid zstd frame", err)
		}
		defer dec.Close()
		return Read(dec)
	}
	if string(head) == binaryMagic {
		return ReadBinary(br)
	}
	if head[0] == '{' {
		return ReadJSONL(br)
	}
	return nil, corrupt("unrecognised snapshot encoding", nil)
}

// Write encodes s in the given format, optionally inside a zstd frame
func Write(w io.Writer, s *Surface, format Format, compress bool) error {
	if compress {
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return err
		}
		if err := Write(enc, s, format, false); err != nil {
			enc.Close()
			return err
		}
		return enc.Close()
	}
	switch format {
	case FormatJSONL:
		return WriteJSONL(w, s)
	case FormatBinary, "":
		return WriteBinary(w, s)
	default:
		return errors.Newf(errors.InputInvalid, "unknown snapshot format %q", format)
	}
}

// ReadFile decodes a snapshot file of any supported encoding
func ReadFile(path string) (*Surface, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	s, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	return s, nil
}

// WriteFile saves s to path. A ".zst" suffix implies compression.
func WriteFile(path string, s *Surface, format Format, compress bool) error {
	if strings.HasSuffix(path, ".zst") {
		compress = true
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	if err := Write(f, s, format, compress); err != nil {
		f.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return f.Close()
}

// verifier rebuilds a surface from persisted entries, rejecting any whose
// fingerprint does not match its identifier
type verifier struct {
	hasher  fingerprint.Hasher
	surface *Surface
}

func newVerifier(alg fingerprint.Algorithm) *verifier {
	h, _ := fingerprint.NewHasher(alg) // alg already validated
	return &verifier{hasher: h, surface: New(alg)}
}

func (v *verifier) add(id string, f fingerprint.Fingerprint) error {
	return VerifyInto(v.surface, v.hasher, id, f)
}

// VerifyInto recomputes the fingerprint of id and inserts it into s if it matches
func VerifyInto(s *Surface, h fingerprint.Hasher, id string, f fingerprint.Fingerprint) error {
	if id == "" {
		return corrupt("empty identifier", nil)
	}
	if got := h.Sum(id); got != f {
		return corrupt(fmt.Sprintf("fingerprint mismatch for %q: stored %s, computed %s", id, f, got), nil)
	}
	if !s.insert(id, f) {
		return corrupt(fmt.Sprintf("duplicate identifier %q", id), nil)
	}
	return nil
}

func corrupt(msg string, cause error) error {
	return errors.NewWithFixes(errors.SnapshotCorrupt, msg, cause)
}
