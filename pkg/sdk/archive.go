package tosarchive

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/kailas-cloud/tosarchive/internal/domain/snapshot"
	"github.com/kailas-cloud/tosarchive/internal/domain/termindex"
	"github.com/kailas-cloud/tosarchive/internal/domain/timeline"
	healthuc "github.com/kailas-cloud/tosarchive/internal/usecase/health"
)

// Resolve returns the version of a document in effect at the end of date
// (YYYY-MM-DD, UTC).
func (c *Client) Resolve(ctx context.Context, service, documentType, date string) (v VersionAtDate, err error) {
	start := time.Now()
	defer func() { c.obs.lookup("resolve", start, err, "service", service, "document_type", documentType) }()

	r, err := c.resolverSvc.ResolveDate(ctx, service, documentType, date)
	if err != nil {
		return VersionAtDate{}, fmt.Errorf("resolve: %w", err)
	}
	return versionFromDomain(r), nil
}

// ResolveAt returns the version of a document in effect at an exact instant.
func (c *Client) ResolveAt(ctx context.Context, service, documentType string, at time.Time) (v VersionAtDate, err error) {
	start := time.Now()
	defer func() { c.obs.lookup("resolve_at", start, err, "service", service, "document_type", documentType) }()

	r, err := c.resolverSvc.Resolve(ctx, service, documentType, at)
	if err != nil {
		return VersionAtDate{}, fmt.Errorf("resolve: %w", err)
	}
	return versionFromDomain(r), nil
}

// FirstOccurrence returns, for every service and document type, the earliest
// capture containing any of the comma-separated terms.
func (c *Client) FirstOccurrence(ctx context.Context, terms string) (out FirstOccurrences, err error) {
	start := time.Now()
	defer func() { c.obs.scan(termindex.First, terms, start, err) }()

	idx, err := c.scannerSvc.FirstOccurrence(ctx, terms)
	if err != nil {
		return nil, fmt.Errorf("first occurrence: %w", err)
	}
	out = make(FirstOccurrences, len(idx))
	for svc, docs := range idx {
		m := make(map[string]*time.Time, len(docs))
		for doc, mark := range docs {
			m[doc] = markTime(mark)
		}
		out[svc] = m
	}
	return out, nil
}

// AllOccurrences reports, for every snapshot, whether it contains any of the
// comma-separated terms. The result is ordered by service, document type and
// capture time.
func (c *Client) AllOccurrences(ctx context.Context, terms string) (out []Occurrence, err error) {
	start := time.Now()
	defer func() { c.obs.scan(termindex.All, terms, start, err) }()

	idx, err := c.scannerSvc.AllOccurrences(ctx, terms)
	if err != nil {
		return nil, fmt.Errorf("all occurrences: %w", err)
	}
	out = make([]Occurrence, 0, idx.Len())
	for svc, docs := range idx {
		for doc, versions := range docs {
			for at, matched := range versions {
				out = append(out, Occurrence{Service: svc, DocumentType: doc, CapturedAt: at, Matched: matched})
			}
		}
	}
	slices.SortFunc(out, func(a, b Occurrence) int {
		return cmp.Or(
			cmp.Compare(a.Service, b.Service),
			cmp.Compare(a.DocumentType, b.DocumentType),
			a.CapturedAt.Compare(b.CapturedAt),
		)
	})
	return out, nil
}

// ListServices returns each service with its document types. When
// multipleVersionsOnly is set, pairs with a single snapshot are left out.
func (c *Client) ListServices(ctx context.Context, multipleVersionsOnly bool) (out map[string][]string, err error) {
	start := time.Now()
	defer func() { c.obs.lookup("list_services", start, err) }()

	out, err = c.catalogSvc.ListServices(ctx, multipleVersionsOnly)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return out, nil
}

// Snapshots returns every capture in the corpus, ordered by service,
// document type and time.
func (c *Client) Snapshots(ctx context.Context) (out []Snapshot, err error) {
	start := time.Now()
	defer func() { c.obs.lookup("snapshots", start, err) }()

	rows, err := c.statsSvc.Snapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshots: %w", err)
	}
	out = make([]Snapshot, len(rows))
	for i, r := range rows {
		out[i] = Snapshot{Service: r.Service, DocumentType: r.DocumentType, CapturedAt: r.CapturedAt}
	}
	return out, nil
}

// Monthly returns service activity per calendar month, oldest first.
func (c *Client) Monthly(ctx context.Context) (out []MonthlyActivity, err error) {
	start := time.Now()
	defer func() { c.obs.lookup("monthly", start, err) }()

	months, err := c.statsSvc.Monthly(ctx)
	if err != nil {
		return nil, fmt.Errorf("monthly: %w", err)
	}
	out = make([]MonthlyActivity, len(months))
	for i, m := range months {
		out[i] = MonthlyActivity{
			YearMonth:       m.YearMonth,
			ServicesActive:  m.ServicesActive,
			ServicesTracked: m.ServicesTracked,
		}
	}
	return out, nil
}

// Health reports whether the corpus root is readable and, when a cache is
// configured, whether it answers.
func (c *Client) Health(ctx context.Context) Health {
	report := c.healthSvc.Check(ctx)
	cache, cacheConfigured := report.Checks["cache"]
	return Health{
		Status:          string(report.Status),
		CorpusReadable:  report.Checks["corpus"] == healthuc.CheckOK,
		CacheConfigured: cacheConfigured,
		CacheReachable:  cache == healthuc.CheckOK,
	}
}

func versionFromDomain(r timeline.VersionAtDate) VersionAtDate {
	return VersionAtDate{
		Service:      r.Service(),
		DocumentType: r.DocumentType(),
		QueriedAt:    r.QueriedAt(),
		Version:      markTime(r.Version()),
		Data:         r.Data(),
		Next:         markTime(r.Next()),
	}
}

func markTime(m snapshot.Mark) *time.Time {
	if !m.Present() {
		return nil
	}
	t := m.Time()
	return &t
}
