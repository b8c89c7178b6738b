package domain

import "errors"

var (
	// ErrInvalidCorpusRoot signals a corpus root that is missing or not a directory.
	ErrInvalidCorpusRoot = errors.New("invalid corpus root")
	// ErrUnknownServiceOrDocumentType signals a service/document type that does not
	// resolve to an existing directory inside the corpus root.
	ErrUnknownServiceOrDocumentType = errors.New("unknown service or document type")
	// ErrMalformedSnapshotName signals a corpus file whose name or location breaks
	// the <service>/<document_type>/<timestamp>.md convention.
	ErrMalformedSnapshotName = errors.New("malformed snapshot name")
	// ErrMalformedUserDate signals a client date that is not YYYY-MM-DD.
	ErrMalformedUserDate = errors.New("malformed date")
	// ErrCorpusRead signals an I/O failure while reading the corpus.
	ErrCorpusRead = errors.New("corpus read error")

	// ErrInvalidTerms signals an empty or uncompilable term list.
	ErrInvalidTerms = errors.New("invalid search terms")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrUpstream signals a failure of an external collaborator (taxonomy URL).
	ErrUpstream = errors.New("upstream error")
)
