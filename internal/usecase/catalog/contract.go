package catalog

import (
	"context"

	"github.com/kailas-cloud/tosarchive/internal/dataset"
	"github.com/kailas-cloud/tosarchive/internal/domain"
)

// Corpus groups the corpus by service and document type.
type Corpus interface {
	ListServices(multipleVersionsOnly bool) (map[string][]string, error)
}

// TaxonomySource fetches the published document type taxonomy.
type TaxonomySource interface {
	Fetch(ctx context.Context) (domain.Taxonomy, error)
}

// Release describes the dataset release on disk.
type Release interface {
	Info() dataset.Info
}
