package catalog

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/tosarchive/internal/domain"
	"github.com/kailas-cloud/tosarchive/internal/version"
)

// Info describes the running service and the dataset it serves.
type Info struct {
	DatasetURL  string
	DatasetDate string
	APIVersion  string
}

// Service answers questions about what the archive contains.
type Service struct {
	corpus   Corpus
	taxonomy TaxonomySource
	release  Release
}

// New creates a catalog service. taxonomy and release can be nil.
func New(corpus Corpus, taxonomy TaxonomySource, release Release) *Service {
	return &Service{corpus: corpus, taxonomy: taxonomy, release: release}
}

// ListServices returns every service with its document types.
func (s *Service) ListServices(ctx context.Context, multipleVersionsOnly bool) (map[string][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := s.corpus.ListServices(multipleVersionsOnly)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return out, nil
}

// DocumentTypes returns the published taxonomy unchanged.
func (s *Service) DocumentTypes(ctx context.Context) (domain.Taxonomy, error) {
	if s.taxonomy == nil {
		return domain.Taxonomy{}, fmt.Errorf("%w: no document type source", domain.ErrUpstream)
	}
	t, err := s.taxonomy.Fetch(ctx)
	if err != nil {
		return domain.Taxonomy{}, fmt.Errorf("fetch document types: %w", err)
	}
	return t, nil
}

// Info reports the dataset release and the API build.
func (s *Service) Info() Info {
	info := Info{APIVersion: version.Version}
	if s.release != nil {
		r := s.release.Info()
		info.DatasetURL = r.URL
		info.DatasetDate = r.Date
	}
	return info
}
