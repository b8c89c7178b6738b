// Package termindex holds the results of a corpus term scan.
//
// Both indexes are built by folding one observation per snapshot. The fold is
// commutative: the final value does not depend on the order in which snapshots
// are observed.
package termindex

import (
	"time"

	"github.com/kailas-cloud/tosarchive/internal/domain/snapshot"
)

// FirstOccurrence maps service -> document type -> earliest matching capture.
// Every observed pair is present; pairs without a match hold snapshot.Absent.
type FirstOccurrence map[string]map[string]snapshot.Mark

// NewFirstOccurrence creates an empty index.
func NewFirstOccurrence() FirstOccurrence {
	return make(FirstOccurrence)
}

// Observe records whether ref matched, keeping the running minimum per pair.
func (f FirstOccurrence) Observe(ref snapshot.Ref, matched bool) {
	docs, ok := f[ref.Service()]
	if !ok {
		docs = make(map[string]snapshot.Mark)
		f[ref.Service()] = docs
	}
	current := docs[ref.DocumentType()]
	if !matched {
		docs[ref.DocumentType()] = current
		return
	}
	candidate := snapshot.At(ref.CapturedAt())
	if candidate.Earlier(current) {
		docs[ref.DocumentType()] = candidate
	}
}

// Lookup returns the mark for a pair and whether the pair was observed.
func (f FirstOccurrence) Lookup(service, documentType string) (snapshot.Mark, bool) {
	m, ok := f[service][documentType]
	return m, ok
}

// AllOccurrences maps service -> document type -> capture -> matched.
// It holds exactly one entry per observed snapshot.
type AllOccurrences map[string]map[string]map[time.Time]bool

// NewAllOccurrences creates an empty index.
func NewAllOccurrences() AllOccurrences {
	return make(AllOccurrences)
}

// Observe records whether ref matched. A second observation of the same
// identity overwrites the first.
func (a AllOccurrences) Observe(ref snapshot.Ref, matched bool) {
	docs, ok := a[ref.Service()]
	if !ok {
		docs = make(map[string]map[time.Time]bool)
		a[ref.Service()] = docs
	}
	versions, ok := docs[ref.DocumentType()]
	if !ok {
		versions = make(map[time.Time]bool)
		docs[ref.DocumentType()] = versions
	}
	versions[ref.CapturedAt().UTC()] = matched
}

// Lookup returns whether the snapshot at t matched and whether it was observed.
func (a AllOccurrences) Lookup(service, documentType string, t time.Time) (matched, ok bool) {
	matched, ok = a[service][documentType][t.UTC()]
	return matched, ok
}

// Len returns the number of observed snapshots.
func (a AllOccurrences) Len() int {
	n := 0
	for _, docs := range a {
		for _, versions := range docs {
			n += len(versions)
		}
	}
	return n
}
