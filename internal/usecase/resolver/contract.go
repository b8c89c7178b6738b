package resolver

import (
	"io/fs"

	"github.com/kailas-cloud/tosarchive/internal/domain/snapshot"
)

// Corpus provides the snapshots of one (service, document type) pair.
type Corpus interface {
	PairDir(service, documentType string) (string, error)
	Versions(service, documentType string) ([]snapshot.Ref, error)
	ReadContent(ref snapshot.Ref) (string, error)
}

// StatCorpus additionally exposes the pair directory info, which the index
// cache uses to detect changes.
type StatCorpus interface {
	Corpus
	PairStat(service, documentType string) (fs.FileInfo, error)
}
