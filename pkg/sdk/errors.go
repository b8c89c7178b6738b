package tosarchive

import "github.com/kailas-cloud/tosarchive/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidCorpusRoot            = domain.ErrInvalidCorpusRoot
	ErrUnknownServiceOrDocumentType = domain.ErrUnknownServiceOrDocumentType
	ErrMalformedSnapshotName        = domain.ErrMalformedSnapshotName
	ErrMalformedUserDate            = domain.ErrMalformedUserDate
	ErrCorpusRead                   = domain.ErrCorpusRead
	ErrInvalidTerms                 = domain.ErrInvalidTerms
)
