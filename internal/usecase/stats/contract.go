package stats

import "github.com/kailas-cloud/tosarchive/internal/domain/snapshot"

// Corpus lists every canonical snapshot.
type Corpus interface {
	Snapshots() ([]snapshot.Ref, error)
}
