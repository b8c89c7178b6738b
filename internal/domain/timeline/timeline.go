// Package timeline holds the result of a point-in-time version lookup.
package timeline

import (
	"time"

	"github.com/kailas-cloud/tosarchive/internal/domain/snapshot"
)

// VersionAtDate is the snapshot in effect at QueriedAt and its successor.
// Invariant: Version <= QueriedAt < Next whenever both are present.
type VersionAtDate struct {
	service      string
	documentType string
	queriedAt    time.Time
	version      snapshot.Mark
	data         string
	next         snapshot.Mark
}

// New creates a lookup result. data is the full text of version, or "".
func New(
	service, documentType string, queriedAt time.Time,
	version snapshot.Mark, data string, next snapshot.Mark,
) VersionAtDate {
	return VersionAtDate{
		service:      service,
		documentType: documentType,
		queriedAt:    queriedAt.UTC(),
		version:      version,
		data:         data,
		next:         next,
	}
}

// Service returns the queried service.
func (v VersionAtDate) Service() string { return v.service }

// DocumentType returns the queried document type.
func (v VersionAtDate) DocumentType() string { return v.documentType }

// QueriedAt returns the reference instant.
func (v VersionAtDate) QueriedAt() time.Time { return v.queriedAt }

// Version returns the capture time of the snapshot in effect, if any.
func (v VersionAtDate) Version() snapshot.Mark { return v.version }

// Data returns the text of the snapshot in effect ("" when absent).
func (v VersionAtDate) Data() string { return v.data }

// Next returns the capture time of the following snapshot, if any.
func (v VersionAtDate) Next() snapshot.Mark { return v.next }
