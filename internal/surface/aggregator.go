package surface

import (
	"apifp/internal/exclusion"
	"apifp/internal/fingerprint"
	"apifp/internal/identity"
)

// Stats counts what the aggregator did with the elements it was given
type Stats struct {
	Rendered   int `json:"rendered"`
	Skipped    int `json:"skipped"`
	Synthetic  int `json:"synthetic"`
	Duplicates int `json:"duplicates"`
}

// Aggregator collects elements into a Surface. It is not safe for concurrent use.
type Aggregator struct {
	hasher   fingerprint.Hasher
	denylist *exclusion.Denylist
	surface  *Surface
	stats    Stats
	scratch  []byte
}

// NewAggregator returns an aggregator. A nil denylist keeps synthetic identifiers.
func NewAggregator(h fingerprint.Hasher, denylist *exclusion.Denylist) *Aggregator {
	return &Aggregator{
		hasher:   h,
		denylist: denylist,
		surface:  New(h.Algorithm()),
		scratch:  make([]byte, 0, 256),
	}
}

// Add renders, fingerprints and records one element. Elements without an
// identifier are skipped; unsupported shapes are returned unchanged.
func (a *Aggregator) Add(e identity.Element) error {
	b, ok, err := identity.Append(a.scratch[:0], e)
	if err != nil {
		return err
	}
	if !ok {
		a.stats.Skipped++
		return nil
	}
	a.scratch = b
	id := string(b)
	a.Insert(id, a.hasher.SumBytes(b))
	return nil
}

// Skip records an element that had no identifier
func (a *Aggregator) Skip() {
	a.stats.Skipped++
}

// Insert records a rendered identifier whose fingerprint was computed elsewhere
func (a *Aggregator) Insert(id string, f fingerprint.Fingerprint) {
	a.stats.Rendered++
	if a.denylist.IsSynthetic(id) {
		a.stats.Synthetic++
		return
	}
	if !a.surface.insert(id, f) {
		a.stats.Duplicates++
	}
}

// Stats returns the counters so far
func (a *Aggregator) Stats() Stats {
	return a.stats
}

// Surface returns the collected surface
func (a *Aggregator) Surface() *Surface {
	return a.surface
}

// Hasher returns the hasher entries are fingerprinted with
func (a *Aggregator) Hasher() fingerprint.Hasher {
	return a.hasher
}
