package snapshot

import "time"

// Pair is the two-level grouping key of the corpus.
type Pair struct {
	Service      string
	DocumentType string
}

// Ref identifies one captured version of a document and where it is stored.
// Content is not held here; consumers read it through the corpus on demand.
type Ref struct {
	service      string
	documentType string
	capturedAt   time.Time
	path         string
}

// New creates a snapshot reference. capturedAt is normalized to UTC.
func New(service, documentType string, capturedAt time.Time, path string) Ref {
	return Ref{
		service:      service,
		documentType: documentType,
		capturedAt:   capturedAt.UTC(),
		path:         path,
	}
}

// NewFile creates a reference to a corpus file that sits outside the
// service/document_type layout (e.g. the root README).
func NewFile(path string) Ref {
	return Ref{path: path}
}

// Service returns the service name.
func (r Ref) Service() string { return r.service }

// DocumentType returns the document type.
func (r Ref) DocumentType() string { return r.documentType }

// CapturedAt returns the capture instant (UTC).
func (r Ref) CapturedAt() time.Time { return r.capturedAt }

// Path returns the file path on disk.
func (r Ref) Path() string { return r.path }

// Pair returns the (service, document_type) grouping key.
func (r Ref) Pair() Pair { return Pair{Service: r.service, DocumentType: r.documentType} }
