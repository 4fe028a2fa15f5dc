// Package surface aggregates identifier fingerprints into comparable API snapshots.
package surface

import (
	"encoding/binary"
	"sort"

	"apifp/internal/fingerprint"
)

// Entry pairs a canonical identifier with its fingerprint
type Entry struct {
	ID          string                  `json:"id"`
	Fingerprint fingerprint.Fingerprint `json:"fingerprint"`
}

// Surface is the set of entries describing one API snapshot, unique by identifier
type Surface struct {
	algorithm fingerprint.Algorithm
	entries   map[string]fingerprint.Fingerprint
}

// New returns an empty surface for the given algorithm
func New(alg fingerprint.Algorithm) *Surface {
	if alg == "" {
		alg = fingerprint.DefaultAlgorithm
	}
	return &Surface{algorithm: alg, entries: make(map[string]fingerprint.Fingerprint)}
}

// Algorithm reports which hash produced the fingerprints
func (s *Surface) Algorithm() fingerprint.Algorithm {
	return s.algorithm
}

// Len returns the number of entries
func (s *Surface) Len() int {
	return len(s.entries)
}

// Contains reports whether id is part of the surface
func (s *Surface) Contains(id string) bool {
	_, ok := s.entries[id]
	return ok
}

// Lookup returns the fingerprint recorded for id
func (s *Surface) Lookup(id string) (fingerprint.Fingerprint, bool) {
	f, ok := s.entries[id]
	return f, ok
}

// insert adds an entry and reports false if the identifier was already present
func (s *Surface) insert(id string, f fingerprint.Fingerprint) bool {
	if _, ok := s.entries[id]; ok {
		return false
	}
	s.entries[id] = f
	return true
}

// Entries returns all entries in ordinal identifier order
func (s *Surface) Entries() []Entry {
	out := make([]Entry, 0, len(s.entries))
	for id, f := range s.entries {
		out = append(out, Entry{ID: id, Fingerprint: f})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IDs returns all identifiers in ordinal order
func (s *Surface) IDs() []string {
	out := make([]string, 0, len(s.entries))
	for id := range s.entries {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Equal reports set equality. Surfaces built with different algorithms are never equal.
func (s *Surface) Equal(other *Surface) bool {
	if s.algorithm != other.algorithm || len(s.entries) != len(other.entries) {
		return false
	}
	for id, f := range s.entries {
		if g, ok := other.entries[id]; !ok || g != f {
			return false
		}
	}
	return true
}

// Delta lists the entries that differ between two surfaces
type Delta struct {
	Added   []Entry `json:"added"`
	Removed []Entry `json:"removed"`
}

// Empty reports whether the two surfaces had the same identifiers
func (d Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// Breaking reports whether any entry disappeared
func (d Delta) Breaking() bool {
	return len(d.Removed) > 0
}

// Diff compares s (the baseline) with newer by identifier. Identifiers do not
// depend on the algorithm, so surfaces with different algorithms still diff.
func (s *Surface) Diff(newer *Surface) Delta {
	d := Delta{Added: []Entry{}, Removed: []Entry{}}
	for _, e := range newer.Entries() {
		if !s.Contains(e.ID) {
			d.Added = append(d.Added, e)
		}
	}
	for _, e := range s.Entries() {
		if !newer.Contains(e.ID) {
			d.Removed = append(d.Removed, e)
		}
	}
	return d
}

// Digest fingerprints the ordered entry list with the surface's own algorithm.
// Each entry contributes its fingerprint followed by the length-prefixed identifier.
func (s *Surface) Digest() fingerprint.Fingerprint {
	h, err := fingerprint.NewHasher(s.algorithm)
	if err != nil {
		h = fingerprint.Hasher{}
	}
	var buf []byte
	for _, e := range s.Entries() {
		buf = append(buf, e.Fingerprint[:]...)
		buf = binary.AppendUvarint(buf, uint64(len(e.ID)))
		buf = append(buf, e.ID...)
	}
	return h.SumBytes(buf)
}
